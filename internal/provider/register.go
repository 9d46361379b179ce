package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/c04ch1337/pagi-gateway-core/internal/config"
	"github.com/c04ch1337/pagi-gateway-core/internal/rpc"
)

// ErrRegistrationRejected is returned when the core answers Register with ok=false.
var ErrRegistrationRejected = errors.New("core rejected adapter registration")

// Register announces this adapter to the core's registry. The reference
// adapter declares no optional capabilities.
func Register(ctx context.Context, cfg *config.ProviderConfig, httpClient *http.Client) error {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := rpc.NewAdapterRegistryClient(httpClient, cfg.RegistryURL())
	resp, err := client.Register(ctx, &rpc.RegisterAdapterRequest{
		AdapterID:    cfg.AdapterID,
		Endpoint:     cfg.Endpoint(),
		Capabilities: &rpc.AdapterCapabilities{},
		Version:      cfg.Version,
	})
	if err != nil {
		return err
	}
	if !resp.OK {
		return ErrRegistrationRejected
	}
	slog.Info("registered with core", "adapter_id", cfg.AdapterID, "core", cfg.RegistryURL(), "endpoint", cfg.Endpoint())
	return nil
}
