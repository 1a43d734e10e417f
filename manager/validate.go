package manager

import (
	"context"
	"fmt"
)

// ValidationResult is the outcome of ValidateConfiguration: spec.md
// §6's `{valid, errors, warnings, model_region_combinations,
// auth_status}`.
type ValidationResult struct {
	Valid                   bool
	Errors                  []string
	Warnings                []string
	ModelRegionCombinations int
	AuthStatus              string
}

// ValidateConfiguration checks that the manager has at least one usable
// model/region combination and, if an auth checker was wired at
// construction, that credentials are currently loadable. It never makes
// an inference call itself.
func (m *Manager) ValidateConfiguration(ctx context.Context) ValidationResult {
	result := ValidationResult{AuthStatus: "unknown"}

	regions := m.configuredRegions()
	m.mu.RLock()
	defaultModel := m.cfg.DefaultModel
	modelCount := len(m.cat.Models)
	m.mu.RUnlock()

	if len(regions) == 0 {
		result.Errors = append(result.Errors, "no regions configured")
	}
	if modelCount == 0 {
		result.Errors = append(result.Errors, "catalog contains no models")
	}

	if defaultModel != "" {
		if _, err := m.ResolveModel(defaultModel); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("default model %q does not resolve: %v", defaultModel, err))
		}
	} else {
		result.Warnings = append(result.Warnings, "no default_model configured")
	}

	result.ModelRegionCombinations = m.countModelRegionCombinations(regions)
	if result.ModelRegionCombinations == 0 && modelCount > 0 && len(regions) > 0 {
		result.Errors = append(result.Errors, "no model has an access method in any configured region")
	}

	if m.authCheck != nil {
		if err := m.authCheck(ctx); err != nil {
			result.AuthStatus = fmt.Sprintf("failed: %v", err)
			result.Errors = append(result.Errors, fmt.Sprintf("credential check failed: %v", err))
		} else {
			result.AuthStatus = "ok"
		}
	} else {
		result.AuthStatus = "not checked"
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (m *Manager) countModelRegionCombinations(regions []string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	regionSet := make(map[string]bool, len(regions))
	for _, r := range regions {
		regionSet[r] = true
	}

	count := 0
	for _, entry := range m.cat.Models {
		for region := range entry.Regions {
			if regionSet[region] {
				count++
			}
		}
	}
	return count
}
