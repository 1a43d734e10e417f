package classify

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"
)

type fakeAPIError struct {
	code string
	msg  string
}

func (f fakeAPIError) Error() string        { return f.code + ": " + f.msg }
func (f fakeAPIError) ErrorCode() string    { return f.code }
func (f fakeAPIError) ErrorMessage() string { return f.msg }
func (f fakeAPIError) ErrorFault() smithy.ErrorFault {
	return smithy.FaultUnknown
}

func TestClassifyProfileRequired(t *testing.T) {
	err := errors.New(`ValidationException: Invocation of model ID anthropic.claude-3-opus-20240229-v1:0 with on-demand throughput isn't supported. Retry with inference profile.`)
	c := Classify(err)
	if c.Kind != KindProfileRequired {
		t.Fatalf("kind = %q, want profile_required", c.Kind)
	}
	if c.ProfileRequiredModelID != "anthropic.claude-3-opus-20240229-v1:0" {
		t.Errorf("model id = %q", c.ProfileRequiredModelID)
	}
}

func TestClassifyProfileRequiredRequiresInferenceProfileMention(t *testing.T) {
	err := errors.New(`ValidationException: Invocation of model ID anthropic.claude-3-opus-20240229-v1:0 with on-demand throughput isn't supported.`)
	c := Classify(err)
	if c.Kind == KindProfileRequired {
		t.Fatalf("kind = %q, want anything but profile_required without an inference-profile mention", c.Kind)
	}
}

func TestClassifyThrottled(t *testing.T) {
	c := Classify(fakeAPIError{code: "ThrottlingException", msg: "Too many requests"})
	if c.Kind != KindThrottled {
		t.Errorf("kind = %q, want throttled", c.Kind)
	}
}

func TestClassifyContentIncompatible(t *testing.T) {
	c := Classify(fakeAPIError{code: "ValidationException", msg: "This model doesn't support the image content block"})
	if c.Kind != KindContentIncompatible || c.ContentType != "image" {
		t.Errorf("got %+v, want content_incompatible/image", c)
	}
}

func TestClassifyFeatureIncompatible(t *testing.T) {
	c := Classify(fakeAPIError{code: "ValidationException", msg: "Guardrail configuration is not supported for this model."})
	if c.Kind != KindFeatureIncompatible || c.Feature != "guardrails" {
		t.Errorf("got %+v, want feature_incompatible/guardrails", c)
	}
}

func TestClassifyParameterIncompatibleSingle(t *testing.T) {
	c := Classify(fakeAPIError{code: "ValidationException", msg: "unsupported parameter 'anthropic_beta'"})
	if c.Kind != KindParameterIncompat {
		t.Fatalf("kind = %q, want parameter_incompatible", c.Kind)
	}
	if len(c.Parameters) != 1 || c.Parameters[0] != "anthropic_beta" {
		t.Errorf("parameters = %v", c.Parameters)
	}
}

func TestClassifyAccessDenied(t *testing.T) {
	c := Classify(fakeAPIError{code: "AccessDeniedException", msg: "not authorized"})
	if c.Kind != KindAccessDenied {
		t.Errorf("kind = %q, want access_denied", c.Kind)
	}
}

func TestClassifyValidation(t *testing.T) {
	c := Classify(fakeAPIError{code: "ValidationException", msg: "messages must not be empty"})
	if c.Kind != KindValidation {
		t.Errorf("kind = %q, want validation", c.Kind)
	}
}

func TestClassifyRetryableTransient(t *testing.T) {
	c := Classify(errors.New("dial tcp: i/o timeout"))
	if c.Kind != KindRetryableTransient {
		t.Errorf("kind = %q, want retryable_transient", c.Kind)
	}
}

func TestClassifyFatalFallback(t *testing.T) {
	c := Classify(errors.New("something entirely unexpected happened"))
	if c.Kind != KindFatal {
		t.Errorf("kind = %q, want fatal", c.Kind)
	}
}

func TestClassifyNil(t *testing.T) {
	c := Classify(nil)
	if c.Kind != KindFatal {
		t.Errorf("kind = %q, want fatal for nil error", c.Kind)
	}
}
