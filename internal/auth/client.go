package auth

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/c04ch1337/pagi-gateway-core/internal/config"
	"github.com/c04ch1337/pagi-gateway-core/internal/upstream"
)

// providerHTTPTimeout bounds one provider call.
const providerHTTPTimeout = 2 * time.Minute

// NewHTTPClient returns the client the reference adapter uses to reach its
// provider. OAuth2 client credentials take precedence over a static API
// key; keyless providers get a plain client. Debug mode dumps every
// exchange, token requests included.
func NewHTTPClient(ctx context.Context, cfg *config.ProviderConfig) (*http.Client, error) {
	var base http.RoundTripper = http.DefaultTransport
	if cfg.Debug {
		base = &upstream.DebugTransport{Base: base}
	}

	switch {
	case cfg.UsesClientCredentials():
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: base, Timeout: providerHTTPTimeout})
		src := &loggingTokenSource{src: cc.TokenSource(tokenCtx), adapterID: cfg.AdapterID}
		return &http.Client{
			Transport: &oauth2.Transport{Source: src, Base: base},
			Timeout:   providerHTTPTimeout,
		}, nil

	case cfg.APIKey != "":
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
		return &http.Client{
			Transport: &oauth2.Transport{Source: src, Base: base},
			Timeout:   providerHTTPTimeout,
		}, nil

	case cfg.Keyless:
		return &http.Client{Transport: base, Timeout: providerHTTPTimeout}, nil
	}
	return nil, ErrNoCredentials
}

// loggingTokenSource logs each newly issued access token with its expiry.
// The wrapped source is already cached by clientcredentials.
type loggingTokenSource struct {
	src       oauth2.TokenSource
	adapterID string

	mu   sync.Mutex
	last string
}

func (s *loggingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		slog.Error("provider.token.failed", "adapter_id", s.adapterID, "error", err)
		return nil, err
	}

	s.mu.Lock()
	fresh := tok.AccessToken != s.last
	s.last = tok.AccessToken
	s.mu.Unlock()

	if fresh {
		expiry := tok.Expiry
		if expiry.IsZero() {
			expiry, _ = JWTExpiry(tok.AccessToken)
		}
		slog.Info("provider.token.issued", "adapter_id", s.adapterID, "expires_at", expiry)
	}
	return tok, nil
}
