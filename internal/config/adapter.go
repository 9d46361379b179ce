package config

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
)

// AdapterClientVersion is reported by the reference adapter when
// PAGI_ADAPTER_VERSION is unset.
const AdapterClientVersion = "0.1.0"

// providerProfile holds the per-kind defaults of the reference adapter.
type providerProfile struct {
	bind         string
	defaultModel string
	baseURL      string
	baseURLEnv   string
	apiKeyEnv    string
	// modelKey is an extra metadata key that names a model for this kind
	// ahead of routed_model.
	modelKey string
	// keyless providers accept any bearer token.
	keyless bool
}

var providerProfiles = map[string]providerProfile{
	"openrouter": {
		bind:         "127.0.0.1:6002",
		defaultModel: "anthropic/claude-3.5-sonnet",
		baseURL:      "https://openrouter.ai/api/v1",
		baseURLEnv:   "OPENROUTER_BASE_URL",
		apiKeyEnv:    "OPENROUTER_API_KEY",
	},
	"ollama": {
		bind:         "127.0.0.1:6003",
		defaultModel: "llama3.2:3b",
		baseURL:      "http://127.0.0.1:11434/v1",
		baseURLEnv:   "OLLAMA_BASE_URL",
		modelKey:     "ollama_model",
		keyless:      true,
	},
	"openai": {
		bind:         "127.0.0.1:6001",
		defaultModel: "gpt-4o-mini",
		baseURL:      "https://api.openai.com/v1",
		baseURLEnv:   "OPENAI_BASE_URL",
		apiKeyEnv:    "OPENAI_API_KEY",
	},
}

// ProviderKinds lists the supported reference adapter kinds.
func ProviderKinds() []string {
	kinds := make([]string, 0, len(providerProfiles))
	for k := range providerProfiles {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ProviderConfig configures the reference adapter process.
type ProviderConfig struct {
	Kind         string
	AdapterID    string
	Bind         string
	CoreGRPC     string
	Version      string
	DefaultModel string
	BaseURL      string

	// APIKey is a static bearer token. TokenURL, ClientID and ClientSecret
	// select OAuth2 client credentials instead.
	APIKey       string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// ModelKey is the kind-specific metadata key consulted before
	// routed_model, if any.
	ModelKey string
	Keyless  bool

	// Referer and Title are sent to OpenRouter for attribution.
	Referer string
	Title   string

	Verbose bool
	Debug   bool
}

// ProviderFromEnv builds the reference adapter config for kind from PAGI_*
// variables and the provider's own conventional variables.
func ProviderFromEnv(kind string) (*ProviderConfig, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = strings.ToLower(envOrDefault("PAGI_ADAPTER_KIND", "openrouter"))
	}
	p, ok := providerProfiles[kind]
	if !ok {
		return nil, fmt.Errorf("unknown adapter kind %q (want one of %s)", kind, strings.Join(ProviderKinds(), ", "))
	}

	baseURL := p.baseURL
	if p.baseURLEnv != "" {
		baseURL = envOrDefault(p.baseURLEnv, baseURL)
	}
	apiKey := strings.TrimSpace(os.Getenv("PAGI_PROVIDER_API_KEY"))
	if apiKey == "" && p.apiKeyEnv != "" {
		apiKey = strings.TrimSpace(os.Getenv(p.apiKeyEnv))
	}

	var scopes []string
	for _, s := range strings.Split(os.Getenv("PAGI_PROVIDER_SCOPES"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}

	return &ProviderConfig{
		Kind:         kind,
		AdapterID:    envOrDefault("PAGI_ADAPTER_ID", kind),
		Bind:         envOrDefault("PAGI_ADAPTER_BIND", p.bind),
		CoreGRPC:     envOrDefault("PAGI_CORE_GRPC", DefaultBindGRPC),
		Version:      envOrDefault("PAGI_ADAPTER_VERSION", AdapterClientVersion),
		DefaultModel: envOrDefault("PAGI_DEFAULT_MODEL", p.defaultModel),
		BaseURL:      envOrDefault("PAGI_PROVIDER_BASE_URL", baseURL),
		APIKey:       apiKey,
		TokenURL:     strings.TrimSpace(os.Getenv("PAGI_PROVIDER_TOKEN_URL")),
		ClientID:     strings.TrimSpace(os.Getenv("PAGI_PROVIDER_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("PAGI_PROVIDER_CLIENT_SECRET")),
		Scopes:       scopes,
		ModelKey:     p.modelKey,
		Keyless:      p.keyless,
		Referer:      envOrDefault("OPENROUTER_HTTP_REFERER", "http://localhost:8282"),
		Title:        envOrDefault("OPENROUTER_APP_TITLE", "PAGI Gateway"),
		Verbose:      envBool("PAGI_VERBOSE"),
		Debug:        envBool("PAGI_DEBUG"),
	}, nil
}

// RegistryURL is the base URL of the core's registry service.
func (c *ProviderConfig) RegistryURL() string {
	return withScheme(c.CoreGRPC)
}

// Endpoint is the address this adapter registers with the core.
func (c *ProviderConfig) Endpoint() string {
	return withScheme(c.Bind)
}

// HasCredentials reports whether the provider can be called for real.
func (c *ProviderConfig) HasCredentials() bool {
	return c.Keyless || c.APIKey != "" || c.UsesClientCredentials()
}

// UsesClientCredentials reports whether OAuth2 client credentials are set.
func (c *ProviderConfig) UsesClientCredentials() bool {
	return c.TokenURL != "" && c.ClientID != ""
}

// DefaultHeaders returns the headers sent with every provider request.
func (c *ProviderConfig) DefaultHeaders() map[string]string {
	h := map[string]string{"User-Agent": c.UserAgent()}
	if c.Kind == "openrouter" {
		h["HTTP-Referer"] = c.Referer
		h["X-Title"] = c.Title
	}
	return h
}

// UserAgent is pagi-adapter-<kind>/<version> (<os>; <arch>).
func (c *ProviderConfig) UserAgent() string {
	return fmt.Sprintf("pagi-adapter-%s/%s (%s; %s)", c.Kind, c.Version, runtime.GOOS, runtime.GOARCH)
}

func withScheme(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	return "http://" + addr
}
