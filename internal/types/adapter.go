package types

// Capabilities are the feature flags an adapter declares at registration.
type Capabilities struct {
	Streaming  bool `json:"streaming" yaml:"streaming"`
	TokenCount bool `json:"token_count" yaml:"token_count"`
	ModelRoute bool `json:"model_route" yaml:"model_route"`
	EmbedCache bool `json:"embed_cache" yaml:"embed_cache"`
}

// AdapterInfo describes a registered backend adapter. A later registration
// with the same AdapterID replaces it wholesale.
type AdapterInfo struct {
	AdapterID    string       `json:"adapter_id"`
	Endpoint     string       `json:"endpoint"`
	Capabilities Capabilities `json:"capabilities"`
	Version      string       `json:"version,omitempty"`
}

// ForwardResponse is the result of a successful dispatch. JSON is the
// backend-defined payload, passed through untouched.
type ForwardResponse struct {
	RequestID string `json:"request_id"`
	AdapterID string `json:"adapter_id"`
	JSON      string `json:"json"`
}
