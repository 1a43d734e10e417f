// Package transport defines the contract between the retry engine and
// the external inference service call, plus one concrete adapter
// (bedrock.go) implementing it against AWS Bedrock's Converse API.
// Adapted from core/provider/provider.go: narrow interfaces over a
// plain request/response data shape, kept provider-agnostic so the
// retry engine never imports an AWS SDK type directly.
package transport

import (
	"context"
	"errors"
)

// Sentinel errors a Caller implementation may wrap into its returned
// error via fmt.Errorf("%w", ...). The classify package inspects the
// underlying smithy.APIError directly, so these exist for callers that
// want a provider-agnostic check without reaching into AWS-specific
// types.
var (
	ErrThrottled     = errors.New("transport: request throttled")
	ErrAccessDenied  = errors.New("transport: access denied")
	ErrModelNotFound = errors.New("transport: model not found")
)

// ContentBlock is one unit of message content. Exactly one of Text,
// Image, Document, Video, ToolUse, or ToolResult is populated,
// depending on Type.
type ContentBlock struct {
	Type       string
	Text       string
	Image      *MediaBlock
	Document   *MediaBlock
	Video      *MediaBlock
	ToolUse    *ToolUseBlock
	ToolResult *ToolResultBlock
}

// MediaBlock carries inline bytes for an image/document/video content
// block.
type MediaBlock struct {
	Format string
	Bytes  []byte
}

// ToolUseBlock is a model-issued tool invocation request.
type ToolUseBlock struct {
	ToolUseID string
	Name      string
	Input     map[string]any
}

// ToolResultBlock carries a tool's output back to the model.
type ToolResultBlock struct {
	ToolUseID string
	Content   []ContentBlock
	IsError   bool
}

// Message is one conversation turn.
type Message struct {
	Role    string // "user" | "assistant"
	Content []ContentBlock
}

// InferenceConfig holds the Converse API's model-tuning knobs.
type InferenceConfig struct {
	MaxTokens   *int
	Temperature *float64
	TopP        *float64
}

// ToolConfig describes the tools a model may invoke.
type ToolConfig struct {
	Tools      []ToolDefinition
	ToolChoice map[string]any
}

// ToolDefinition describes one callable tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Args bundles everything sent to the inference service for one
// round-trip. Mirrors spec.md §6's args_map shape.
type Args struct {
	Messages                         []Message
	System                           []string
	InferenceConfig                  *InferenceConfig
	ToolConfig                       *ToolConfig
	GuardrailConfig                  map[string]any
	AdditionalModelRequestFields     map[string]any
	PromptVariables                  map[string]any
	AdditionalModelResponseFieldPaths []string
	RequestMetadata                  map[string]string
	PerformanceConfig                map[string]any
}

// Clone returns a deep-enough copy of Args for the retry engine to
// mutate safely when stripping a feature or parameter between attempts
// without affecting the caller's original request.
func (a Args) Clone() Args {
	out := a
	if a.System != nil {
		out.System = append([]string(nil), a.System...)
	}
	if a.AdditionalModelRequestFields != nil {
		out.AdditionalModelRequestFields = cloneMap(a.AdditionalModelRequestFields)
	}
	if a.GuardrailConfig != nil {
		out.GuardrailConfig = cloneMap(a.GuardrailConfig)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Usage holds token accounting from a single response.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	TotalTokens     int
	CacheReadTokens  int
	CacheWriteTokens int
}

// Metrics holds timing data from a single response.
type Metrics struct {
	LatencyMs int64
}

// Response is the logical shape of a successful Converse call.
type Response struct {
	OutputRole                    string
	OutputContent                 []ContentBlock
	Usage                         Usage
	Metrics                       Metrics
	StopReason                    string
	AdditionalModelResponseFields map[string]any
}

// Caller is the external collaborator the retry engine drives: take
// (region, model_id, args), return a Response or an inspectable error.
type Caller interface {
	Call(ctx context.Context, region, modelID string, args Args) (Response, error)
}
