package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/c04ch1337/pagi-gateway-core/internal/config"
)

func echoAuthServer(t *testing.T) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var seen atomic.Value
	seen.Store("")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestNewHTTPClientStaticKey(t *testing.T) {
	srv, seen := echoAuthServer(t)
	client, err := NewHTTPClient(context.Background(), &config.ProviderConfig{Kind: "openrouter", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if got := seen.Load().(string); got != "Bearer sk-test" {
		t.Fatalf("Authorization: got %q", got)
	}
}

func TestNewHTTPClientKeyless(t *testing.T) {
	srv, seen := echoAuthServer(t)
	client, err := NewHTTPClient(context.Background(), &config.ProviderConfig{Kind: "ollama", Keyless: true})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if got := seen.Load().(string); got != "" {
		t.Fatalf("keyless client sent Authorization %q", got)
	}
}

func TestNewHTTPClientNoCredentials(t *testing.T) {
	_, err := NewHTTPClient(context.Background(), &config.ProviderConfig{Kind: "openai"})
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("got %v, want ErrNoCredentials", err)
	}
}

func TestNewHTTPClientClientCredentials(t *testing.T) {
	var tokenCalls atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"cc-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	srv, seen := echoAuthServer(t)
	client, err := NewHTTPClient(context.Background(), &config.ProviderConfig{
		Kind:         "openai",
		AdapterID:    "openai",
		APIKey:       "ignored",
		TokenURL:     tokenSrv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		resp.Body.Close()
	}
	if got := seen.Load().(string); got != "Bearer cc-token" {
		t.Fatalf("Authorization: got %q", got)
	}
	if n := tokenCalls.Load(); n != 1 {
		t.Fatalf("token endpoint called %d times, want 1", n)
	}
}
