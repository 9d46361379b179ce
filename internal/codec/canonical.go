package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// CanonicalDecoder decodes an object carrying any subset of the canonical
// request fields. Content parts may use the shorthand forms handled by
// LowerContentPart.
type CanonicalDecoder struct{}

func (d *CanonicalDecoder) Format() Format { return FormatCanonical }

type canonicalIngress struct {
	RequestID      *string                      `json:"request_id"`
	AgentID        *string                      `json:"agent_id"`
	SessionID      *string                      `json:"session_id"`
	Messages       []messageIngress             `json:"messages"`
	Tools          []toolIngress                `json:"tools"`
	ToolChoice     *string                      `json:"tool_choice"`
	Constraints    *types.GenerationConstraints `json:"constraints"`
	PreferredModel *string                      `json:"preferred_model"`
	Metadata       map[string]string            `json:"metadata"`
	ResponseFormat json.RawMessage              `json:"response_format"`
}

type messageIngress struct {
	Role       *types.Role       `json:"role"`
	Content    []json.RawMessage `json:"content"`
	Name       *string           `json:"name"`
	ToolCallID *string           `json:"tool_call_id"`
}

type toolIngress struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Parameters  json.RawMessage `json:"parameters_json_schema"`
	Strict      bool            `json:"strict"`
}

func (d *CanonicalDecoder) Decode(body []byte) (*types.CanonicalRequest, error) {
	var in canonicalIngress
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("canonical request: %w", err)
	}

	req := types.New()
	if in.RequestID != nil && *in.RequestID != "" {
		req.RequestID = *in.RequestID
	}
	req.AgentID = deref(in.AgentID)
	req.SessionID = deref(in.SessionID)
	req.ToolChoice = deref(in.ToolChoice)
	req.PreferredModel = deref(in.PreferredModel)
	req.ResponseFormat = nonNullJSON(in.ResponseFormat)

	for i, m := range in.Messages {
		msg, err := lowerMessage(m)
		if err != nil {
			return nil, fmt.Errorf("messages[%d]: %w", i, err)
		}
		req.Messages = append(req.Messages, msg)
	}

	seen := make(map[string]struct{}, len(in.Tools))
	for i, t := range in.Tools {
		if t.Name == nil {
			return nil, fmt.Errorf("tools[%d]: missing name", i)
		}
		if _, dup := seen[*t.Name]; dup {
			return nil, fmt.Errorf("tools[%d]: duplicate tool name %q", i, *t.Name)
		}
		seen[*t.Name] = struct{}{}
		req.Tools = append(req.Tools, types.Tool{
			Name:        *t.Name,
			Description: deref(t.Description),
			Parameters:  nonNullJSON(t.Parameters),
			Strict:      t.Strict,
		})
	}

	if in.Constraints != nil {
		if err := checkConstraints(in.Constraints); err != nil {
			return nil, fmt.Errorf("constraints: %w", err)
		}
		req.Constraints = *in.Constraints
		if req.Constraints.StopSequences == nil {
			req.Constraints.StopSequences = []string{}
		}
	}

	for k, v := range in.Metadata {
		req.Metadata[k] = v
	}
	return req, nil
}

func lowerMessage(m messageIngress) (types.Message, error) {
	if m.Role == nil {
		return types.Message{}, fmt.Errorf("missing role")
	}
	if !m.Role.Valid() {
		return types.Message{}, fmt.Errorf("unknown role %q", *m.Role)
	}
	content := make(types.Content, 0, len(m.Content))
	for i, raw := range m.Content {
		p, err := LowerContentPart(raw)
		if err != nil {
			return types.Message{}, fmt.Errorf("content[%d]: %w", i, err)
		}
		content = append(content, p)
	}
	return types.Message{
		Role:       *m.Role,
		Content:    content,
		Name:       deref(m.Name),
		ToolCallID: deref(m.ToolCallID),
	}, nil
}

// LowerContentPart converts one ingress content part into the canonical
// union. The canonical tagged form is tried first, then the shorthands
// {text}, {image:{url}}, {audio:{url}} and {file:{url, mime_type}}.
func LowerContentPart(raw []byte) (types.ContentPart, error) {
	if p, err := types.DecodeTaggedPart(raw); err == nil {
		return p, nil
	}

	part := gjson.ParseBytes(raw)
	if !part.IsObject() {
		return nil, fmt.Errorf("content part must be an object")
	}
	if t := part.Get("text"); t.Type == gjson.String {
		return types.TextPart{Text: t.String()}, nil
	}
	if u := part.Get("image.url"); part.Get("image").IsObject() && u.Type == gjson.String {
		return types.ImagePart{URL: u.String()}, nil
	}
	if u := part.Get("audio.url"); part.Get("audio").IsObject() && u.Type == gjson.String {
		return types.AudioPart{URL: u.String()}, nil
	}
	if f := part.Get("file"); f.IsObject() {
		u, mt := f.Get("url"), f.Get("mime_type")
		if u.Type == gjson.String && mt.Type == gjson.String {
			return types.FilePart{URL: u.String(), MimeType: mt.String()}, nil
		}
	}
	return nil, fmt.Errorf("unrecognized content part %s", part.Raw)
}

// checkConstraints bounds the integer fields to what the adapter wire
// carries (int32).
func checkConstraints(c *types.GenerationConstraints) error {
	for _, f := range []struct {
		name string
		v    *int
	}{
		{"max_tokens", c.MaxTokens},
		{"top_k", c.TopK},
	} {
		switch {
		case f.v == nil:
		case *f.v < 0:
			return fmt.Errorf("%s must not be negative", f.name)
		case *f.v > math.MaxInt32:
			return fmt.Errorf("%s exceeds %d", f.name, math.MaxInt32)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nonNullJSON drops absent or null values and compacts the rest.
func nonNullJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || gjson.ParseBytes(raw).Type == gjson.Null {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
