// Package provider is the reference adapter: it serves AdapterService.Process
// in front of an OpenAI-compatible chat completions API (OpenRouter, Ollama
// or OpenAI).
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/c04ch1337/pagi-gateway-core/internal/auth"
	"github.com/c04ch1337/pagi-gateway-core/internal/config"
	"github.com/c04ch1337/pagi-gateway-core/internal/rpc"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
	"github.com/c04ch1337/pagi-gateway-core/internal/upstream"
)

// MetadataRoutedModel names a model chosen by an upstream router.
const MetadataRoutedModel = "routed_model"

const stubNote = "no provider credentials configured; returning stub response"

// placeholderAPIKey is sent to keyless providers. Authenticated clients get
// their Authorization header from the transport instead.
const placeholderAPIKey = "pagi"

// Adapter implements rpc.AdapterServiceHandler. A nil client means no
// credentials are configured and every call returns a stub payload.
type Adapter struct {
	cfg    *config.ProviderConfig
	client *openai.Client
	now    func() time.Time
}

var _ rpc.AdapterServiceHandler = (*Adapter)(nil)

// New builds the adapter for cfg.
func New(ctx context.Context, cfg *config.ProviderConfig) (*Adapter, error) {
	a := &Adapter{cfg: cfg, now: time.Now}
	if !cfg.HasCredentials() {
		slog.Warn("provider credentials missing; serving stub responses", "adapter_id", cfg.AdapterID, "kind", cfg.Kind)
		return a, nil
	}

	httpClient, err := auth.NewHTTPClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("provider http client: %w", err)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = placeholderAPIKey
	}
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		// failover is the gateway's job
		option.WithMaxRetries(0),
	}
	for k, v := range cfg.DefaultHeaders() {
		opts = append(opts, option.WithHeader(k, v))
	}
	client := openai.NewClient(opts...)
	a.client = &client
	return a, nil
}

type completionPayload struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	ActualModel string `json:"actual_model"`
	LatencyMS   int64  `json:"latency_ms"`
	Text        string `json:"text"`
}

type stubPayload struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Note     string `json:"note"`
}

// Process runs one chat completion. Provider failures map to
// CodeUnavailable so the gateway moves on to its next candidate.
func (a *Adapter) Process(ctx context.Context, req *connect.Request[rpc.Request]) (*connect.Response[rpc.Response], error) {
	creq := upstream.FromWire(req.Msg)
	model := a.ResolveModel(creq)

	var payload any
	if a.client == nil {
		payload = stubPayload{Provider: a.cfg.Kind, Model: model, Note: stubNote}
	} else {
		start := a.now()
		resp, err := a.client.Chat.Completions.New(ctx, chatParams(creq, model))
		if err != nil {
			slog.Error("provider.call.failed",
				"adapter_id", a.cfg.AdapterID,
				"request_id", creq.RequestID,
				"model", model,
				"error", err,
			)
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
		var text string
		if len(resp.Choices) > 0 {
			text = resp.Choices[0].Message.Content
		}
		latency := a.now().Sub(start)
		payload = completionPayload{
			Provider:    a.cfg.Kind,
			Model:       model,
			ActualModel: resp.Model,
			LatencyMS:   latency.Milliseconds(),
			Text:        text,
		}
		if a.cfg.Verbose {
			slog.Info("provider.call",
				"adapter_id", a.cfg.AdapterID,
				"request_id", creq.RequestID,
				"model", model,
				"actual_model", resp.Model,
				"duration", latency,
			)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&rpc.Response{
		RequestID: creq.RequestID,
		AdapterID: a.cfg.AdapterID,
		JSON:      string(body),
	}), nil
}

// ResolveModel picks the model for req: the kind-specific metadata key,
// then routed_model, then preferred_model, then the configured default.
func (a *Adapter) ResolveModel(req *types.CanonicalRequest) string {
	if a.cfg.ModelKey != "" {
		if m := req.Metadata[a.cfg.ModelKey]; m != "" {
			return m
		}
	}
	if m := req.Metadata[MetadataRoutedModel]; m != "" {
		return m
	}
	if req.PreferredModel != "" {
		return req.PreferredModel
	}
	return a.cfg.DefaultModel
}
