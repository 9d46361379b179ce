package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/c04ch1337/pagi-gateway-core/internal/rpc"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// adapterHTTPTimeout bounds a single Process call including connection setup.
const adapterHTTPTimeout = 2 * time.Minute

// AdapterClient executes a canonical request against one adapter.
type AdapterClient interface {
	Process(ctx context.Context, req *types.CanonicalRequest) (*rpc.Response, error)
}

// Client calls one adapter's AdapterService over connect.
type Client struct {
	AdapterID string
	Endpoint  string
	Verbose   bool

	rpc *rpc.AdapterServiceClient
}

// NewClient creates a client for info. A nil httpClient gets a default with
// adapterHTTPTimeout.
func NewClient(info types.AdapterInfo, httpClient *http.Client, verbose bool) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: adapterHTTPTimeout}
	}
	return &Client{
		AdapterID: info.AdapterID,
		Endpoint:  info.Endpoint,
		Verbose:   verbose,
		rpc:       rpc.NewAdapterServiceClient(httpClient, info.Endpoint),
	}
}

// Process translates req to the wire form and calls the adapter. Any failure
// is returned as *TransportError.
func (c *Client) Process(ctx context.Context, req *types.CanonicalRequest) (*rpc.Response, error) {
	wire := ToWire(req)
	if c.Verbose {
		slog.Info("upstream.request",
			"adapter_id", c.AdapterID,
			"endpoint", c.Endpoint,
			"request_id", wire.RequestID,
			"messages", len(wire.Messages),
			"tools", len(wire.Tools),
			"preferred_model", wire.PreferredModel,
		)
	}

	start := time.Now()
	resp, err := c.rpc.Process(ctx, wire)
	if err != nil {
		return nil, &TransportError{AdapterID: c.AdapterID, Endpoint: c.Endpoint, Err: err}
	}
	if resp == nil {
		return nil, &TransportError{AdapterID: c.AdapterID, Endpoint: c.Endpoint, Err: fmt.Errorf("empty response")}
	}
	if c.Verbose {
		slog.Info("upstream.response",
			"adapter_id", c.AdapterID,
			"request_id", resp.RequestID,
			"bytes", len(resp.JSON),
			"duration", time.Since(start),
		)
	}
	return resp, nil
}

// Pool hands out one Client per adapter registration. A client is rebuilt
// when the adapter re-registers under a different endpoint.
type Pool struct {
	mu         sync.Mutex
	clients    map[string]*Client
	httpClient *http.Client
	verbose    bool
}

// NewPool creates a Pool sharing httpClient across adapters.
func NewPool(httpClient *http.Client, verbose bool) *Pool {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: adapterHTTPTimeout}
	}
	return &Pool{
		clients:    make(map[string]*Client),
		httpClient: httpClient,
		verbose:    verbose,
	}
}

// Client returns the cached client for info, creating it on first use.
func (p *Pool) Client(info types.AdapterInfo) AdapterClient {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[info.AdapterID]; ok && c.Endpoint == info.Endpoint {
		return c
	}
	c := NewClient(info, p.httpClient, p.verbose)
	p.clients[info.AdapterID] = c
	return c
}
