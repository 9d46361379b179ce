package upstream

import (
	"encoding/json"
	"fmt"

	"github.com/c04ch1337/pagi-gateway-core/internal/rpc"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// ToWire converts a canonical request into the adapter wire message. Unset
// optional numerics stay absent and JSON schemas become compact strings.
// Integer constraints must already fit in int32; the codec enforces that.
// It panics on a content part or role it does not know, so a new variant
// cannot be dropped silently.
func ToWire(req *types.CanonicalRequest) *rpc.Request {
	out := &rpc.Request{
		RequestID:      req.RequestID,
		AgentID:        req.AgentID,
		SessionID:      req.SessionID,
		Messages:       make([]*rpc.Message, 0, len(req.Messages)),
		Tools:          make([]*rpc.Tool, 0, len(req.Tools)),
		ToolChoice:     req.ToolChoice,
		Constraints:    constraintsToWire(req.Constraints),
		PreferredModel: req.PreferredModel,
		Metadata:       make(map[string]string, len(req.Metadata)),
	}
	for _, m := range req.Messages {
		wm := &rpc.Message{
			Role:       roleToWire(m.Role),
			Content:    make([]*rpc.ContentPart, 0, len(m.Content)),
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, p := range m.Content {
			wm.Content = append(wm.Content, partToWire(p))
		}
		out.Messages = append(out.Messages, wm)
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, &rpc.Tool{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJSONSchema: string(t.Parameters),
			Strict:               t.Strict,
		})
	}
	for k, v := range req.Metadata {
		out.Metadata[k] = v
	}
	if len(req.ResponseFormat) > 0 {
		out.ResponseFormatJSONSchema = string(req.ResponseFormat)
	}
	return out
}

func roleToWire(r types.Role) int32 {
	switch r {
	case types.RoleSystem:
		return rpc.RoleSystem
	case types.RoleUser:
		return rpc.RoleUser
	case types.RoleAssistant:
		return rpc.RoleAssistant
	case types.RoleTool:
		return rpc.RoleTool
	}
	panic(fmt.Sprintf("upstream: unknown role %q", r))
}

func partToWire(p types.ContentPart) *rpc.ContentPart {
	switch v := p.(type) {
	case types.TextPart:
		return &rpc.ContentPart{Text: &rpc.TextPart{Text: v.Text}}
	case types.ImagePart:
		return &rpc.ContentPart{Image: &rpc.ImagePart{URL: v.URL}}
	case types.AudioPart:
		return &rpc.ContentPart{Audio: &rpc.AudioPart{URL: v.URL}}
	case types.FilePart:
		return &rpc.ContentPart{File: &rpc.FilePart{URL: v.URL, MimeType: v.MimeType}}
	}
	panic(fmt.Sprintf("upstream: unknown content part %T", p))
}

func constraintsToWire(c types.GenerationConstraints) *rpc.GenerationConstraints {
	return &rpc.GenerationConstraints{
		MaxTokens:        int32Ptr(c.MaxTokens),
		Temperature:      float32Ptr(c.Temperature),
		TopP:             float32Ptr(c.TopP),
		TopK:             int32Ptr(c.TopK),
		StopSequences:    append([]string{}, c.StopSequences...),
		PresencePenalty:  float32Ptr(c.PresencePenalty),
		FrequencyPenalty: float32Ptr(c.FrequencyPenalty),
		ReasoningEffort:  c.ReasoningEffort,
		Stream:           c.Stream,
	}
}

// FromWire is the adapter-side inverse of ToWire. Absent numerics read back
// as unset, unknown roles as user, and empty oneofs are skipped.
func FromWire(in *rpc.Request) *types.CanonicalRequest {
	req := types.New()
	req.RequestID = in.RequestID
	req.AgentID = in.AgentID
	req.SessionID = in.SessionID
	req.ToolChoice = in.ToolChoice
	req.PreferredModel = in.PreferredModel
	for k, v := range in.Metadata {
		req.Metadata[k] = v
	}
	for _, m := range in.Messages {
		if m == nil {
			continue
		}
		msg := types.Message{
			Role:       roleFromWire(m.Role),
			Content:    make(types.Content, 0, len(m.Content)),
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, p := range m.Content {
			if cp, ok := partFromWire(p); ok {
				msg.Content = append(msg.Content, cp)
			}
		}
		req.Messages = append(req.Messages, msg)
	}
	for _, t := range in.Tools {
		if t == nil {
			continue
		}
		tool := types.Tool{Name: t.Name, Description: t.Description, Strict: t.Strict}
		if json.Valid([]byte(t.ParametersJSONSchema)) {
			tool.Parameters = json.RawMessage(t.ParametersJSONSchema)
		}
		req.Tools = append(req.Tools, tool)
	}
	if c := in.Constraints; c != nil {
		req.Constraints = types.GenerationConstraints{
			MaxTokens:        intFromWire(c.MaxTokens),
			Temperature:      floatFromWire(c.Temperature),
			TopP:             floatFromWire(c.TopP),
			TopK:             intFromWire(c.TopK),
			StopSequences:    append([]string{}, c.StopSequences...),
			PresencePenalty:  floatFromWire(c.PresencePenalty),
			FrequencyPenalty: floatFromWire(c.FrequencyPenalty),
			ReasoningEffort:  c.ReasoningEffort,
			Stream:           c.Stream,
		}
	}
	if json.Valid([]byte(in.ResponseFormatJSONSchema)) {
		req.ResponseFormat = json.RawMessage(in.ResponseFormatJSONSchema)
	}
	return req
}

func roleFromWire(r int32) types.Role {
	switch r {
	case rpc.RoleSystem:
		return types.RoleSystem
	case rpc.RoleAssistant:
		return types.RoleAssistant
	case rpc.RoleTool:
		return types.RoleTool
	default:
		return types.RoleUser
	}
}

func partFromWire(p *rpc.ContentPart) (types.ContentPart, bool) {
	switch {
	case p == nil:
		return nil, false
	case p.Text != nil:
		return types.TextPart{Text: p.Text.Text}, true
	case p.Image != nil:
		return types.ImagePart{URL: p.Image.URL}, true
	case p.Audio != nil:
		return types.AudioPart{URL: p.Audio.URL}, true
	case p.File != nil:
		return types.FilePart{URL: p.File.URL, MimeType: p.File.MimeType}, true
	}
	return nil, false
}

func int32Ptr(p *int) *int32 {
	if p == nil {
		return nil
	}
	v := int32(*p)
	return &v
}

func float32Ptr(p *float64) *float32 {
	if p == nil {
		return nil
	}
	v := float32(*p)
	return &v
}

func intFromWire(p *int32) *int {
	if p == nil {
		return nil
	}
	return types.IntPtr(int(*p))
}

func floatFromWire(p *float32) *float64 {
	if p == nil {
		return nil
	}
	return types.Float64Ptr(float64(*p))
}
