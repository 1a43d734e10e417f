package retry

import (
	"fmt"
	"strings"
)

// ExhaustedError is returned when every target in a call's target list
// has been tried without success.
type ExhaustedError struct {
	AttemptsMade int
	LastErrors   []error
	ModelsTried  []string
	RegionsTried []string
	Details      map[string]any
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("retry exhausted after %d attempt(s) across models %s, regions %s",
		e.AttemptsMade, strings.Join(e.ModelsTried, ", "), strings.Join(e.RegionsTried, ", "))

	if reason, ok := e.Details["reason"].(string); ok && reason != "" {
		msg += ": " + reason
	}
	return msg
}

// profileRequiredMessage builds the exhaustion message naming the models
// that require an inference profile the catalog didn't have, per
// spec.md §4.2's "error message on exhaustion" rule.
func profileRequiredMessage(models []string) string {
	return fmt.Sprintf(
		"models requiring an inference profile with no profile available in the catalog: %s; try refreshing the catalog",
		strings.Join(models, ", "),
	)
}

// parameterIncompatibleMessage builds the exhaustion message enumerating
// parameter names when every failure was parameter_incompatible.
func parameterIncompatibleMessage(params []string) string {
	return fmt.Sprintf("request parameters rejected by every target: %s", strings.Join(params, ", "))
}
