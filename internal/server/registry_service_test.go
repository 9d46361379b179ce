package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/c04ch1337/pagi-gateway-core/internal/config"
	"github.com/c04ch1337/pagi-gateway-core/internal/rpc"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

func newRegistryClient(t *testing.T, s *Server) *rpc.AdapterRegistryClient {
	t.Helper()
	srv := httptest.NewServer(s.RPCHandler())
	t.Cleanup(srv.Close)
	return rpc.NewAdapterRegistryClient(srv.Client(), srv.URL)
}

func TestRegisterRejectsIncompleteAdapter(t *testing.T) {
	s := newTestServer(t, nil)
	client := newRegistryClient(t, s)

	for _, req := range []*rpc.RegisterAdapterRequest{
		{Endpoint: "http://127.0.0.1:6002"},
		{AdapterID: "openrouter"},
	} {
		_, err := client.Register(context.Background(), req)
		if code := connect.CodeOf(err); code != connect.CodeInvalidArgument {
			t.Fatalf("code: got %v, want %v (err=%v)", code, connect.CodeInvalidArgument, err)
		}
		if !strings.Contains(err.Error(), "adapter_id and endpoint required") {
			t.Fatalf("message: %v", err)
		}
	}
	if s.Directory.Len() != 0 {
		t.Fatalf("directory must stay empty, has %d", s.Directory.Len())
	}
}

func TestRegisterThenList(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Adapters = []config.AdapterConfig{{ID: "ollama", Endpoint: "http://127.0.0.1:6003"}}
	})
	client := newRegistryClient(t, s)
	ctx := context.Background()

	resp, err := client.Register(ctx, &rpc.RegisterAdapterRequest{
		AdapterID:    "openrouter",
		Endpoint:     "http://127.0.0.1:6002",
		Capabilities: &rpc.AdapterCapabilities{Streaming: true},
		Version:      "0.1.0",
	})
	if err != nil || !resp.OK {
		t.Fatalf("Register: %+v %v", resp, err)
	}
	// no capabilities means all false
	if _, err := client.Register(ctx, &rpc.RegisterAdapterRequest{AdapterID: "bare", Endpoint: "http://127.0.0.1:7000"}); err != nil {
		t.Fatalf("Register bare: %v", err)
	}

	list, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, a := range list.Adapters {
		ids = append(ids, a.AdapterID)
	}
	if strings.Join(ids, ",") != "bare,ollama,openrouter" {
		t.Fatalf("ids: %v", ids)
	}
	if or := list.Adapters[2]; !or.Capabilities.Streaming || or.Version != "0.1.0" {
		t.Fatalf("openrouter entry: %+v", or)
	}
	if bare := list.Adapters[0]; *bare.Capabilities != (rpc.AdapterCapabilities{}) {
		t.Fatalf("bare capabilities: %+v", bare.Capabilities)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/adapters", nil))
	var body struct {
		Adapters []types.AdapterInfo `json:"adapters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || len(body.Adapters) != 3 {
		t.Fatalf("/v1/adapters: %s (%v)", rec.Body.String(), err)
	}

	if got := scrape(t, s); !strings.Contains(got, "pagi_adapters_registered 3") {
		t.Fatalf("adapters gauge missing:\n%s", got)
	}
}

func TestNewRejectsInvalidConfiguredAdapter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Adapters = []config.AdapterConfig{{ID: "broken"}}
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for adapter without endpoint")
	}
}

func TestOptionsPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/ai:call", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: %d %v", rec.Code, rec.Header())
	}
}
