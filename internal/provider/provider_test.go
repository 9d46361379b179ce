package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/tidwall/gjson"

	"github.com/c04ch1337/pagi-gateway-core/internal/config"
	"github.com/c04ch1337/pagi-gateway-core/internal/rpc"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
	"github.com/c04ch1337/pagi-gateway-core/internal/upstream"
)

type fakeProvider struct {
	mu      sync.Mutex
	bodies  []string
	headers []http.Header
	status  int
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies = append(f.bodies, string(body))
	f.headers = append(f.headers, r.Header.Clone())
	status := f.status
	f.mu.Unlock()

	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{
	  "id": "chatcmpl-1",
	  "object": "chat.completion",
	  "created": 1700000000,
	  "model": "actual/model-2024",
	  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "hi back"}}]
	}`))
}

func newTestAdapter(t *testing.T, fake *fakeProvider, mutate func(*config.ProviderConfig)) *Adapter {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	cfg := &config.ProviderConfig{
		Kind:         "openrouter",
		AdapterID:    "openrouter",
		Version:      "test",
		DefaultModel: "default/model",
		BaseURL:      srv.URL,
		APIKey:       "sk-test",
		Referer:      "http://localhost:8282",
		Title:        "PAGI Gateway",
	}
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func process(t *testing.T, a *Adapter, req *types.CanonicalRequest) (*rpc.Response, error) {
	t.Helper()
	resp, err := a.Process(context.Background(), connect.NewRequest(upstream.ToWire(req)))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func TestProcessCallsProvider(t *testing.T) {
	fake := &fakeProvider{}
	a := newTestAdapter(t, fake, nil)

	req := types.ChatText("agent", "hello")
	req.RequestID = "req-1"
	resp, err := process(t, a, req)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.RequestID != "req-1" || resp.AdapterID != "openrouter" {
		t.Fatalf("response ids: %+v", resp)
	}

	payload := gjson.Parse(resp.JSON)
	if payload.Get("provider").String() != "openrouter" ||
		payload.Get("model").String() != "default/model" ||
		payload.Get("actual_model").String() != "actual/model-2024" ||
		payload.Get("text").String() != "hi back" ||
		!payload.Get("latency_ms").Exists() {
		t.Fatalf("payload: %s", resp.JSON)
	}

	if len(fake.bodies) != 1 {
		t.Fatalf("provider calls: got %d, want 1", len(fake.bodies))
	}
	sent := gjson.Parse(fake.bodies[0])
	if sent.Get("model").String() != "default/model" {
		t.Fatalf("sent model: %s", fake.bodies[0])
	}
	if sent.Get("messages.0.role").String() != "user" || sent.Get("messages.0.content.0.text").String() != "hello" {
		t.Fatalf("sent messages: %s", fake.bodies[0])
	}
	for _, key := range []string{"max_tokens", "temperature", "tools", "tool_choice"} {
		if sent.Get(key).Exists() {
			t.Fatalf("unset %s must not be sent: %s", key, fake.bodies[0])
		}
	}

	h := fake.headers[0]
	if got := h.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("Authorization: %q", got)
	}
	if h.Get("HTTP-Referer") != "http://localhost:8282" || h.Get("X-Title") != "PAGI Gateway" {
		t.Fatalf("attribution headers: %v", h)
	}
	if !strings.HasPrefix(h.Get("User-Agent"), "pagi-adapter-openrouter/test") {
		t.Fatalf("User-Agent: %q", h.Get("User-Agent"))
	}
}

func TestProcessSendsToolsAndConstraints(t *testing.T) {
	fake := &fakeProvider{}
	a := newTestAdapter(t, fake, nil)

	req := types.New()
	req.Messages = []types.Message{
		{Role: types.RoleSystem, Content: types.Content{types.TextPart{Text: "be brief"}}},
		{Role: types.RoleUser, Content: types.Content{
			types.TextPart{Text: "look"},
			types.ImagePart{URL: "https://img/1.png"},
			types.AudioPart{URL: "https://a/1.wav"},
			types.FilePart{URL: "https://f/1.pdf", MimeType: "application/pdf"},
		}},
		{Role: types.RoleTool, Content: types.Content{types.TextPart{Text: "42"}}, ToolCallID: "call_1"},
	}
	req.Tools = []types.Tool{
		{Name: "calc", Description: "adds", Parameters: json.RawMessage(`{"type":"object"}`)},
		{Name: "noop"},
	}
	req.Constraints.MaxTokens = types.IntPtr(64)
	req.Constraints.Temperature = types.Float64Ptr(0.5)

	if _, err := process(t, a, req); err != nil {
		t.Fatalf("Process: %v", err)
	}
	sent := gjson.Parse(fake.bodies[0])

	if sent.Get("max_tokens").Int() != 64 || sent.Get("temperature").Float() != 0.5 {
		t.Fatalf("constraints: %s", fake.bodies[0])
	}
	if sent.Get("tool_choice").String() != "auto" {
		t.Fatalf("tool_choice: %s", sent.Get("tool_choice").Raw)
	}
	if sent.Get("tools.0.type").String() != "function" ||
		sent.Get("tools.0.function.name").String() != "calc" ||
		sent.Get("tools.0.function.parameters.type").String() != "object" {
		t.Fatalf("tools: %s", sent.Get("tools").Raw)
	}
	if !sent.Get("tools.1.function.parameters").IsObject() {
		t.Fatalf("missing schema must become {}: %s", sent.Get("tools.1").Raw)
	}

	user := sent.Get("messages.1.content")
	if user.Get("0.text").String() != "look" || user.Get("1.image_url.url").String() != "https://img/1.png" {
		t.Fatalf("text/image parts: %s", user.Raw)
	}
	if got := user.Get("2.text").String(); got != "[audio] https://a/1.wav" {
		t.Fatalf("audio marker: %q", got)
	}
	if got := user.Get("3.text").String(); got != "[file application/pdf] https://f/1.pdf" {
		t.Fatalf("file marker: %q", got)
	}
	if sent.Get("messages.2.role").String() != "tool" || sent.Get("messages.2.tool_call_id").String() != "call_1" {
		t.Fatalf("tool message: %s", sent.Get("messages.2").Raw)
	}
}

func TestProcessForwardsExplicitZeroTemperature(t *testing.T) {
	fake := &fakeProvider{}
	a := newTestAdapter(t, fake, nil)

	req := types.ChatText("a", "hi")
	req.Constraints.Temperature = types.Float64Ptr(0)
	if _, err := process(t, a, req); err != nil {
		t.Fatalf("Process: %v", err)
	}
	temp := gjson.Get(fake.bodies[0], "temperature")
	if !temp.Exists() || temp.Float() != 0 {
		t.Fatalf("temperature 0 must reach the provider: %s", fake.bodies[0])
	}
}

func TestProcessProviderFailureIsUnavailable(t *testing.T) {
	fake := &fakeProvider{status: http.StatusInternalServerError}
	a := newTestAdapter(t, fake, nil)

	_, err := process(t, a, types.ChatText("", "hi"))
	if err == nil {
		t.Fatal("expected error")
	}
	if code := connect.CodeOf(err); code != connect.CodeUnavailable {
		t.Fatalf("code: got %v, want %v", code, connect.CodeUnavailable)
	}
	if len(fake.bodies) != 1 {
		t.Fatalf("provider must not be retried, got %d calls", len(fake.bodies))
	}
}

func TestProcessStubWithoutCredentials(t *testing.T) {
	fake := &fakeProvider{}
	a := newTestAdapter(t, fake, func(c *config.ProviderConfig) { c.APIKey = "" })

	req := types.ChatText("", "hi")
	req.PreferredModel = "gpt-5"
	resp, err := process(t, a, req)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	payload := gjson.Parse(resp.JSON)
	if payload.Get("note").String() != stubNote || payload.Get("model").String() != "gpt-5" {
		t.Fatalf("stub payload: %s", resp.JSON)
	}
	if len(fake.bodies) != 0 {
		t.Fatal("stub adapter must not call the provider")
	}
}

func TestProcessKeylessProvider(t *testing.T) {
	fake := &fakeProvider{}
	a := newTestAdapter(t, fake, func(c *config.ProviderConfig) {
		c.Kind, c.AdapterID, c.APIKey, c.Keyless, c.ModelKey = "ollama", "ollama", "", true, "ollama_model"
	})
	resp, err := process(t, a, types.ChatText("", "hi"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if gjson.Get(resp.JSON, "text").String() != "hi back" {
		t.Fatalf("payload: %s", resp.JSON)
	}
	if h := fake.headers[0]; h.Get("X-Title") != "" {
		t.Fatalf("attribution headers are OpenRouter only: %v", h)
	}
}

func TestResolveModel(t *testing.T) {
	a := &Adapter{cfg: &config.ProviderConfig{DefaultModel: "def", ModelKey: "ollama_model"}}
	cases := []struct {
		name      string
		metadata  map[string]string
		preferred string
		want      string
	}{
		{"default", nil, "", "def"},
		{"preferred", nil, "pref", "pref"},
		{"routed beats preferred", map[string]string{"routed_model": "routed"}, "pref", "routed"},
		{"kind key beats routed", map[string]string{"routed_model": "routed", "ollama_model": "llama"}, "pref", "llama"},
		{"empty values ignored", map[string]string{"routed_model": "", "ollama_model": ""}, "", "def"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := types.New()
			for k, v := range tc.metadata {
				req.Metadata[k] = v
			}
			req.PreferredModel = tc.preferred
			if got := a.ResolveModel(req); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
