package rpc

// Wire messages of the pagi.v1 contract. Field names follow the proto
// definitions. Optional generation numerics are nullable; an absent field
// means unset, so an explicit zero survives the hop.

// Role values on the wire.
const (
	RoleUnspecified int32 = 0
	RoleSystem      int32 = 1
	RoleUser        int32 = 2
	RoleAssistant   int32 = 3
	RoleTool        int32 = 4
)

type Request struct {
	RequestID                string                 `json:"request_id"`
	AgentID                  string                 `json:"agent_id"`
	SessionID                string                 `json:"session_id"`
	Messages                 []*Message             `json:"messages"`
	Tools                    []*Tool                `json:"tools"`
	ToolChoice               string                 `json:"tool_choice"`
	Constraints              *GenerationConstraints `json:"constraints"`
	PreferredModel           string                 `json:"preferred_model"`
	Metadata                 map[string]string      `json:"metadata"`
	ResponseFormatJSONSchema string                 `json:"response_format_json_schema"`
}

type Message struct {
	Role       int32          `json:"role"`
	Content    []*ContentPart `json:"content"`
	Name       string         `json:"name"`
	ToolCallID string         `json:"tool_call_id"`
}

// ContentPart is a oneof: exactly one field is set.
type ContentPart struct {
	Text  *TextPart  `json:"text,omitempty"`
	Image *ImagePart `json:"image,omitempty"`
	Audio *AudioPart `json:"audio,omitempty"`
	File  *FilePart  `json:"file,omitempty"`
}

type TextPart struct {
	Text string `json:"text"`
}

type ImagePart struct {
	URL string `json:"url"`
}

type AudioPart struct {
	URL string `json:"url"`
}

type FilePart struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

type Tool struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	ParametersJSONSchema string `json:"parameters_json_schema"`
	Strict               bool   `json:"strict"`
}

type GenerationConstraints struct {
	MaxTokens        *int32   `json:"max_tokens,omitempty"`
	Temperature      *float32 `json:"temperature,omitempty"`
	TopP             *float32 `json:"top_p,omitempty"`
	TopK             *int32   `json:"top_k,omitempty"`
	StopSequences    []string `json:"stop_sequences"`
	PresencePenalty  *float32 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float32 `json:"frequency_penalty,omitempty"`
	ReasoningEffort  string   `json:"reasoning_effort"`
	Stream           bool     `json:"stream"`
}

// Response carries the adapter's opaque JSON payload.
type Response struct {
	RequestID string `json:"request_id"`
	AdapterID string `json:"adapter_id"`
	JSON      string `json:"json"`
}

type AdapterCapabilities struct {
	Streaming  bool `json:"streaming"`
	TokenCount bool `json:"token_count"`
	ModelRoute bool `json:"model_route"`
	EmbedCache bool `json:"embed_cache"`
}

type AdapterInfo struct {
	AdapterID    string               `json:"adapter_id"`
	Endpoint     string               `json:"endpoint"`
	Capabilities *AdapterCapabilities `json:"capabilities"`
	Version      string               `json:"version"`
}

type RegisterAdapterRequest struct {
	AdapterID    string               `json:"adapter_id"`
	Endpoint     string               `json:"endpoint"`
	Capabilities *AdapterCapabilities `json:"capabilities"`
	Version      string               `json:"version"`
}

type RegisterAdapterResponse struct {
	OK bool `json:"ok"`
}

type ListAdaptersRequest struct{}

type ListAdaptersResponse struct {
	Adapters []*AdapterInfo `json:"adapters"`
}
