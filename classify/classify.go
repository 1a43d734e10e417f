// Package classify categorizes a transport error into the ErrorKind
// taxonomy the retry engine drives its state machine on. Grounded on
// providers/bedrock/bedrock.go's classifyErr, generalized from a
// fixed set of provider-level sentinel errors to the richer,
// pattern-matched ErrorKind the retry engine needs (profile-required,
// feature/content/parameter incompatibility).
package classify

import (
	"errors"
	"regexp"
	"strings"

	"github.com/aws/smithy-go"
)

// Kind identifies the category a classified error falls into.
type Kind string

const (
	KindProfileRequired     Kind = "profile_required"
	KindThrottled           Kind = "throttled"
	KindContentIncompatible Kind = "content_incompatible"
	KindFeatureIncompatible Kind = "feature_incompatible"
	KindParameterIncompat   Kind = "parameter_incompatible"
	KindAccessDenied        Kind = "access_denied"
	KindValidation          Kind = "validation"
	KindRetryableTransient  Kind = "retryable_transient"
	KindFatal               Kind = "fatal"
)

// Classification is the result of classifying one error.
type Classification struct {
	Kind Kind

	// ProfileRequiredModelID is set when Kind == KindProfileRequired:
	// the model_id X named in "Invocation of model ID X with on-demand
	// throughput isn't supported ... inference profile".
	ProfileRequiredModelID string

	// ContentType is set when Kind == KindContentIncompatible: one of
	// "video", "image", "document".
	ContentType string

	// Feature is set when Kind == KindFeatureIncompatible, currently
	// always "guardrails" (the only feature-incompatible signal
	// recognised at the error-message level; the others in
	// spec.md's feature table are recognised structurally by the
	// retry engine from request shape, not from error text).
	Feature string

	// Parameters is set when Kind == KindParameterIncompat: the
	// best-effort extracted parameter name(s) from "unsupported
	// parameter 'P'" / "parameters P1, P2".
	Parameters []string
}

var (
	profileRequiredRe = regexp.MustCompile(`Invocation of model ID (\S+) with on-demand throughput isn't supported.*inference profile`)
	contentIncompatRe = regexp.MustCompile(`doesn't support the ` + "`" + `?(video|image|document)` + "`" + `? content block`)
	singleParamRe     = regexp.MustCompile(`unsupported parameter '([^']+)'`)
	multiParamRe      = regexp.MustCompile(`parameters? ((?:\S+,?\s*)+)`)
	transientPatterns = []string{
		"connection reset", "eof", "timeout", "timed out", "broken pipe",
		"i/o timeout", "temporary failure", "503", "502", "500",
	}
)

// Classify categorizes err per spec.md §4.5's signal table.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: KindFatal}
	}

	msg := err.Error()

	if m := profileRequiredRe.FindStringSubmatch(msg); m != nil {
		return Classification{Kind: KindProfileRequired, ProfileRequiredModelID: m[1]}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		apiMsg := apiErr.ErrorMessage()

		if code == "ThrottlingException" || strings.Contains(strings.ToLower(apiMsg), "rate exceeded") {
			return Classification{Kind: KindThrottled}
		}

		if m := contentIncompatRe.FindStringSubmatch(apiMsg); m != nil {
			return Classification{Kind: KindContentIncompatible, ContentType: m[1]}
		}

		if strings.Contains(apiMsg, "Guardrail configuration is not supported") {
			return Classification{Kind: KindFeatureIncompatible, Feature: "guardrails"}
		}

		if params := extractParameterNames(apiMsg); len(params) > 0 {
			return Classification{Kind: KindParameterIncompat, Parameters: params}
		}

		switch code {
		case "AccessDeniedException":
			return Classification{Kind: KindAccessDenied}
		case "ValidationException":
			return Classification{Kind: KindValidation}
		}
	}

	if m := contentIncompatRe.FindStringSubmatch(msg); m != nil {
		return Classification{Kind: KindContentIncompatible, ContentType: m[1]}
	}
	if strings.Contains(msg, "Guardrail configuration is not supported") {
		return Classification{Kind: KindFeatureIncompatible, Feature: "guardrails"}
	}
	if params := extractParameterNames(msg); len(params) > 0 {
		return Classification{Kind: KindParameterIncompat, Parameters: params}
	}

	lower := strings.ToLower(msg)
	for _, p := range transientPatterns {
		if strings.Contains(lower, p) {
			return Classification{Kind: KindRetryableTransient}
		}
	}

	return Classification{Kind: KindFatal}
}

// extractParameterNames best-effort extracts parameter names from
// "unsupported parameter 'P'" or "parameters P1, P2" phrasing.
func extractParameterNames(msg string) []string {
	if m := singleParamRe.FindStringSubmatch(msg); m != nil {
		return []string{m[1]}
	}
	if m := multiParamRe.FindStringSubmatch(msg); m != nil {
		var names []string
		for _, raw := range strings.Split(m[1], ",") {
			name := strings.TrimSpace(raw)
			if name != "" {
				names = append(names, name)
			}
		}
		return names
	}
	return nil
}
