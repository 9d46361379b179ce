package provider

import (
	"encoding/json"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// chatParams lowers a canonical request to a chat completions call. Only
// knobs the caller actually set are sent.
func chatParams(req *types.CanonicalRequest, model string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: chatMessages(req.Messages),
	}

	if tools := chatTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
		choice := req.ToolChoice
		if choice == "" {
			choice = "auto"
		}
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String(choice)}
	}

	c := req.Constraints
	if c.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*c.MaxTokens))
	}
	if c.Temperature != nil {
		params.Temperature = openai.Float(*c.Temperature)
	}
	if c.TopP != nil {
		params.TopP = openai.Float(*c.TopP)
	}
	if c.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*c.PresencePenalty)
	}
	if c.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*c.FrequencyPenalty)
	}
	return params
}

func chatMessages(msgs []types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(flattenText(m.Content)))
		case types.RoleAssistant:
			out = append(out, openai.AssistantMessage(flattenText(m.Content)))
		case types.RoleTool:
			out = append(out, openai.ToolMessage(flattenText(m.Content), m.ToolCallID))
		default:
			out = append(out, openai.UserMessage(userParts(m.Content)))
		}
	}
	return out
}

// userParts keeps images as image parts. Audio and file parts become text
// markers since chat completions only accept text and images.
func userParts(content types.Content) []openai.ChatCompletionContentPartUnionParam {
	if len(content) == 0 {
		return []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart("")}
	}
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(content))
	for _, p := range content {
		if img, ok := p.(types.ImagePart); ok {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: img.URL}))
			continue
		}
		parts = append(parts, openai.TextContentPart(partText(p)))
	}
	return parts
}

// flattenText renders content for roles that only take text.
func flattenText(content types.Content) string {
	lines := make([]string, 0, len(content))
	for _, p := range content {
		lines = append(lines, partText(p))
	}
	return strings.Join(lines, "\n")
}

func partText(p types.ContentPart) string {
	switch v := p.(type) {
	case types.TextPart:
		return v.Text
	case types.ImagePart:
		return "[image] " + v.URL
	case types.AudioPart:
		return "[audio] " + v.URL
	case types.FilePart:
		return "[file " + v.MimeType + "] " + v.URL
	}
	return ""
}

// chatTools declares every tool as a function. A missing or unparsable
// schema becomes an empty object.
func chatTools(tools []types.Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := shared.FunctionParameters{}
		if len(t.Parameters) > 0 {
			if err := json.Unmarshal(t.Parameters, &schema); err != nil || schema == nil {
				schema = shared.FunctionParameters{}
			}
		}
		fn := shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  schema,
		}
		if t.Strict {
			fn.Strict = openai.Bool(true)
		}
		out = append(out, openai.ChatCompletionFunctionTool(fn))
	}
	return out
}
