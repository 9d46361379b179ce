package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// MetadataLegacyIntent carries the intent string of a legacy-intent request.
const MetadataLegacyIntent = "legacy_intent"

// LegacyMinimalDecoder decodes {agent_id, payload: "<text>"} into a single
// user message.
type LegacyMinimalDecoder struct{}

func (d *LegacyMinimalDecoder) Format() Format { return FormatLegacyMinimal }

func (d *LegacyMinimalDecoder) Decode(body []byte) (*types.CanonicalRequest, error) {
	var in struct {
		AgentID string `json:"agent_id"`
		Payload string `json:"payload"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("legacy request: %w", err)
	}
	return types.ChatText(in.AgentID, in.Payload), nil
}

// LegacyIntentDecoder decodes {agent_id, intent, payload: {text}|{json}}.
// The intent is kept verbatim in metadata.
type LegacyIntentDecoder struct{}

func (d *LegacyIntentDecoder) Format() Format { return FormatLegacyIntent }

func (d *LegacyIntentDecoder) Decode(body []byte) (*types.CanonicalRequest, error) {
	var in struct {
		AgentID string          `json:"agent_id"`
		Intent  string          `json:"intent"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("legacy intent request: %w", err)
	}

	text, err := legacyPayloadText(in.Payload)
	if err != nil {
		return nil, err
	}

	req := types.ChatText(in.AgentID, text)
	req.Metadata[MetadataLegacyIntent] = in.Intent
	return req, nil
}

// legacyPayloadText prefers {text} over {json}; structured JSON payloads are
// flattened to their compact serialization.
func legacyPayloadText(raw []byte) (string, error) {
	payload := gjson.ParseBytes(raw)
	if t := payload.Get("text"); t.Type == gjson.String {
		return t.String(), nil
	}
	j := payload.Get("json")
	if !j.Exists() {
		return "", fmt.Errorf("legacy payload must contain text or json")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(j.Raw)); err != nil {
		return "", fmt.Errorf("legacy json payload: %w", err)
	}
	return buf.String(), nil
}
