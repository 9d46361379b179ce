package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MetadataAdapterID is the metadata key that pins a request to one adapter.
const MetadataAdapterID = "adapter_id"

// Role is the normalized author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

var (
	// ErrNoMessages is returned by Validate when a request carries no messages.
	ErrNoMessages = errors.New("messages required")

	// ErrInvalidMessage is wrapped by Validate for a message with an unknown
	// role or a nil content part.
	ErrInvalidMessage = errors.New("invalid message")
)

// CanonicalRequest is the provider-agnostic representation of a completion
// request. Every ingress shape is normalized into it before routing, and it
// is treated as read-only once handed to the dispatcher.
type CanonicalRequest struct {
	RequestID string `json:"request_id"`

	// AgentID identifies the calling agent, if any.
	AgentID string `json:"agent_id,omitempty"`

	// SessionID is the conversation/persistence key.
	SessionID string `json:"session_id,omitempty"`

	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools"`

	// ToolChoice is "auto", "required", "none" or a tool name.
	ToolChoice string `json:"tool_choice,omitempty"`

	Constraints GenerationConstraints `json:"constraints"`

	// PreferredModel is a routing hint such as "gpt-5" or "claude-sonnet-4".
	PreferredModel string `json:"preferred_model,omitempty"`

	// Metadata is a free-form side channel; MetadataAdapterID pins routing.
	Metadata map[string]string `json:"metadata"`

	// ResponseFormat is a structured-output JSON schema.
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

// Message is one conversational turn.
type Message struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`

	// Name is an optional author name (tool or function name).
	Name string `json:"name,omitempty"`

	// ToolCallID correlates a tool-role message with a prior tool invocation.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Tool is a function the backend may call. Name is unique within a request.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters_json_schema,omitempty"`
	Strict      bool            `json:"strict"`
}

// GenerationConstraints holds optional sampling knobs. A nil pointer means
// "let the backend decide", which is distinct from zero.
type GenerationConstraints struct {
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	TopK             *int     `json:"top_k,omitempty"`
	StopSequences    []string `json:"stop_sequences"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`

	// ReasoningEffort is provider specific, e.g. "low", "medium", "high".
	ReasoningEffort string `json:"reasoning_effort,omitempty"`

	Stream bool `json:"stream"`
}

// DefaultConstraints returns constraints with every knob unset.
func DefaultConstraints() GenerationConstraints {
	return GenerationConstraints{StopSequences: []string{}}
}

// New returns an empty but valid request with a fresh request ID.
func New() *CanonicalRequest {
	return &CanonicalRequest{
		RequestID:   NewRequestID(),
		Messages:    []Message{},
		Tools:       []Tool{},
		Constraints: DefaultConstraints(),
		Metadata:    map[string]string{},
	}
}

// ChatText returns a single-turn request holding one user text message.
func ChatText(agentID, text string) *CanonicalRequest {
	req := New()
	req.AgentID = agentID
	req.Messages = append(req.Messages, Message{
		Role:    RoleUser,
		Content: Content{TextPart{Text: text}},
	})
	return req
}

// NewRequestID generates a request identifier. It is a variable so tests
// can pin the generated value.
var NewRequestID = func() string {
	return uuid.NewString()
}

// Validate checks the invariants that must hold before dispatch.
func (r *CanonicalRequest) Validate() error {
	if len(r.Messages) == 0 {
		return ErrNoMessages
	}
	for i, m := range r.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: messages[%d]: unknown role %q", ErrInvalidMessage, i, m.Role)
		}
		for j, p := range m.Content {
			if p == nil {
				return fmt.Errorf("%w: messages[%d].content[%d] is nil", ErrInvalidMessage, i, j)
			}
		}
	}
	return nil
}

// TargetAdapter returns the explicitly requested adapter, if any.
func (r *CanonicalRequest) TargetAdapter() (string, bool) {
	id, ok := r.Metadata[MetadataAdapterID]
	return id, ok
}
