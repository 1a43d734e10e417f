package transport

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brdocument "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// buildConverseInput marshals Args into a bedrockruntime.ConverseInput
// for the given model_id. Adapted from providers/bedrock/convert.go's
// buildConverseStreamInput, generalized from a single text+tools
// request shape to the full Args contract (system blocks, guardrails,
// additional request fields) and retargeted at the non-streaming
// Converse operation (spec.md §1's Non-goal excludes streaming-response
// processing beyond the retry points already covered).
func buildConverseInput(modelID string, args Args) (*bedrockruntime.ConverseInput, error) {
	msgs, err := toBedrockMessages(args.Messages)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(modelID),
		Messages: msgs,
	}

	if len(args.System) > 0 {
		for _, s := range args.System {
			input.System = append(input.System, &brtypes.SystemContentBlockMemberText{Value: s})
		}
	}

	if args.InferenceConfig != nil {
		ic := &brtypes.InferenceConfiguration{}
		if args.InferenceConfig.MaxTokens != nil {
			ic.MaxTokens = aws.Int32(int32(*args.InferenceConfig.MaxTokens))
		}
		if args.InferenceConfig.Temperature != nil {
			ic.Temperature = aws.Float32(float32(*args.InferenceConfig.Temperature))
		}
		if args.InferenceConfig.TopP != nil {
			ic.TopP = aws.Float32(float32(*args.InferenceConfig.TopP))
		}
		input.InferenceConfig = ic
	}

	if args.ToolConfig != nil && len(args.ToolConfig.Tools) > 0 {
		tc, err := toBedrockToolConfig(args.ToolConfig.Tools)
		if err != nil {
			return nil, err
		}
		input.ToolConfig = tc
	}

	if args.GuardrailConfig != nil {
		input.GuardrailConfig = toBedrockGuardrailConfig(args.GuardrailConfig)
	}

	if args.AdditionalModelRequestFields != nil {
		input.AdditionalModelRequestFields = brdocument.NewLazyDocument(args.AdditionalModelRequestFields)
	}

	if len(args.AdditionalModelResponseFieldPaths) > 0 {
		input.AdditionalModelResponseFieldPaths = append([]string(nil), args.AdditionalModelResponseFieldPaths...)
	}

	if args.RequestMetadata != nil {
		input.RequestMetadata = args.RequestMetadata
	}

	if args.PromptVariables != nil {
		input.PromptVariables = toBedrockPromptVariables(args.PromptVariables)
	}

	return input, nil
}

func toBedrockGuardrailConfig(cfg map[string]any) *brtypes.GuardrailConfigurationMemberGuardrailConfig {
	var out brtypes.GuardrailConfiguration
	if id, ok := cfg["guardrailIdentifier"].(string); ok {
		out.GuardrailIdentifier = aws.String(id)
	}
	if ver, ok := cfg["guardrailVersion"].(string); ok {
		out.GuardrailVersion = aws.String(ver)
	}
	if trace, ok := cfg["trace"].(string); ok {
		out.Trace = brtypes.GuardrailTrace(trace)
	}
	return &brtypes.GuardrailConfigurationMemberGuardrailConfig{Value: out}
}

func toBedrockPromptVariables(vars map[string]any) map[string]brtypes.PromptVariableValues {
	out := make(map[string]brtypes.PromptVariableValues, len(vars))
	for k, v := range vars {
		if s, ok := v.(string); ok {
			out[k] = &brtypes.PromptVariableValuesMemberText{Value: s}
		}
	}
	return out
}

func toBedrockMessages(msgs []Message) ([]brtypes.Message, error) {
	out := make([]brtypes.Message, 0, len(msgs))
	for _, m := range msgs {
		bm, err := toBedrockMessage(m)
		if err != nil {
			return nil, err
		}
		out = append(out, bm)
	}
	return out, nil
}

func toBedrockMessage(m Message) (brtypes.Message, error) {
	role, err := toBedrockRole(m.Role)
	if err != nil {
		return brtypes.Message{}, err
	}

	msg := brtypes.Message{Role: role}
	for _, block := range m.Content {
		converted, err := toBedrockContentBlock(block)
		if err != nil {
			return brtypes.Message{}, err
		}
		msg.Content = append(msg.Content, converted)
	}

	if len(msg.Content) == 0 {
		return brtypes.Message{}, fmt.Errorf("message with role %q has no content", m.Role)
	}
	return msg, nil
}

func toBedrockContentBlock(b ContentBlock) (brtypes.ContentBlock, error) {
	switch b.Type {
	case "text":
		return &brtypes.ContentBlockMemberText{Value: b.Text}, nil
	case "image":
		if b.Image == nil {
			return nil, fmt.Errorf("image content block missing image data")
		}
		return &brtypes.ContentBlockMemberImage{Value: brtypes.ImageBlock{
			Format: brtypes.ImageFormat(b.Image.Format),
			Source: &brtypes.ImageSourceMemberBytes{Value: b.Image.Bytes},
		}}, nil
	case "document":
		if b.Document == nil {
			return nil, fmt.Errorf("document content block missing document data")
		}
		return &brtypes.ContentBlockMemberDocument{Value: brtypes.DocumentBlock{
			Format: brtypes.DocumentFormat(b.Document.Format),
			Source: &brtypes.DocumentSourceMemberBytes{Value: b.Document.Bytes},
		}}, nil
	case "video":
		if b.Video == nil {
			return nil, fmt.Errorf("video content block missing video data")
		}
		return &brtypes.ContentBlockMemberVideo{Value: brtypes.VideoBlock{
			Format: brtypes.VideoFormat(b.Video.Format),
			Source: &brtypes.VideoSourceMemberBytes{Value: b.Video.Bytes},
		}}, nil
	case "tool_use":
		if b.ToolUse == nil {
			return nil, fmt.Errorf("tool_use content block missing data")
		}
		return &brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
			ToolUseId: aws.String(b.ToolUse.ToolUseID),
			Name:      aws.String(b.ToolUse.Name),
			Input:     brdocument.NewLazyDocument(b.ToolUse.Input),
		}}, nil
	case "tool_result":
		if b.ToolResult == nil {
			return nil, fmt.Errorf("tool_result content block missing data")
		}
		status := brtypes.ToolResultStatusSuccess
		if b.ToolResult.IsError {
			status = brtypes.ToolResultStatusError
		}
		var content []brtypes.ToolResultContentBlock
		for _, c := range b.ToolResult.Content {
			converted, err := toBedrockContentBlock(c)
			if err != nil {
				return nil, err
			}
			if textBlock, ok := converted.(*brtypes.ContentBlockMemberText); ok {
				content = append(content, &brtypes.ToolResultContentBlockMemberText{Value: textBlock.Value})
			}
		}
		return &brtypes.ContentBlockMemberToolResult{Value: brtypes.ToolResultBlock{
			ToolUseId: aws.String(b.ToolResult.ToolUseID),
			Status:    status,
			Content:   content,
		}}, nil
	default:
		return nil, fmt.Errorf("unknown content block type: %q", b.Type)
	}
}

func toBedrockRole(r string) (brtypes.ConversationRole, error) {
	switch r {
	case "user":
		return brtypes.ConversationRoleUser, nil
	case "assistant":
		return brtypes.ConversationRoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown message role: %q", r)
	}
}

func toBedrockToolConfig(tools []ToolDefinition) (*brtypes.ToolConfiguration, error) {
	brTools := make([]brtypes.Tool, len(tools))
	for i, t := range tools {
		brTools[i] = &brtypes.ToolMemberToolSpec{
			Value: brtypes.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{
					Value: brdocument.NewLazyDocument(t.InputSchema),
				},
			},
		}
	}
	return &brtypes.ToolConfiguration{Tools: brTools}, nil
}

// fromConverseOutput maps a bedrockruntime.ConverseOutput back to our
// Response shape.
func fromConverseOutput(out *bedrockruntime.ConverseOutput) (Response, error) {
	resp := Response{}

	if out.StopReason != "" {
		resp.StopReason = string(out.StopReason)
	}

	if msgMember, ok := out.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		resp.OutputRole = string(msgMember.Value.Role)
		for _, block := range msgMember.Value.Content {
			resp.OutputContent = append(resp.OutputContent, fromBedrockContentBlock(block))
		}
	}

	if out.Usage != nil {
		resp.Usage = Usage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:  int(aws.ToInt32(out.Usage.TotalTokens)),
		}
		if out.Usage.CacheReadInputTokens != nil {
			resp.Usage.CacheReadTokens = int(*out.Usage.CacheReadInputTokens)
		}
		if out.Usage.CacheWriteInputTokens != nil {
			resp.Usage.CacheWriteTokens = int(*out.Usage.CacheWriteInputTokens)
		}
	}

	if out.Metrics != nil {
		resp.Metrics = Metrics{LatencyMs: aws.ToInt64(out.Metrics.LatencyMs)}
	}

	if out.AdditionalModelResponseFields != nil {
		var fields map[string]any
		if err := out.AdditionalModelResponseFields.UnmarshalSmithyDocument(&fields); err == nil {
			resp.AdditionalModelResponseFields = fields
		}
	}

	return resp, nil
}

func fromBedrockContentBlock(b brtypes.ContentBlock) ContentBlock {
	switch v := b.(type) {
	case *brtypes.ContentBlockMemberText:
		return ContentBlock{Type: "text", Text: v.Value}
	case *brtypes.ContentBlockMemberToolUse:
		var input map[string]any
		_ = v.Value.Input.UnmarshalSmithyDocument(&input)
		return ContentBlock{Type: "tool_use", ToolUse: &ToolUseBlock{
			ToolUseID: aws.ToString(v.Value.ToolUseId),
			Name:      aws.ToString(v.Value.Name),
			Input:     input,
		}}
	default:
		return ContentBlock{Type: "unknown"}
	}
}
