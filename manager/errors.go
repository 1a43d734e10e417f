package manager

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned at construction or when a call cannot
// find any valid model/region combination. Not recoverable by the
// caller without changing configuration.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("manager: configuration error: %s", e.Message)
}

// RequestValidationError is returned when a request fails validation
// before any network call is attempted: an empty message list, a
// malformed inference config, or duplicate request ids in a batch.
type RequestValidationError struct {
	Message string
}

func (e *RequestValidationError) Error() string {
	return fmt.Sprintf("manager: invalid request: %s", e.Message)
}

// NameNotFoundError is returned by ResolveModel (and anything that calls
// it internally) when a user-supplied name does not resolve to any
// catalog entry, exact, alias, normalized, or fuzzy.
type NameNotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NameNotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("manager: model %q not found", e.Name)
	}
	return fmt.Sprintf("manager: model %q not found, did you mean: %s", e.Name, strings.Join(e.Suggestions, ", "))
}

// ParallelExecutionError reports a batch whose failure-handling strategy
// tripped (success=false), listing the failed request ids. It does not
// carry the response; ConverseParallel returns the full response,
// including partial results, alongside this error.
type ParallelExecutionError struct {
	FailedRequestIDs []string
}

func (e *ParallelExecutionError) Error() string {
	return fmt.Sprintf("manager: parallel batch failed for requests: %s", strings.Join(e.FailedRequestIDs, ", "))
}
