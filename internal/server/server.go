package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/c04ch1337/pagi-gateway-core/internal/codec"
	"github.com/c04ch1337/pagi-gateway-core/internal/config"
	"github.com/c04ch1337/pagi-gateway-core/internal/limits"
	"github.com/c04ch1337/pagi-gateway-core/internal/metrics"
	"github.com/c04ch1337/pagi-gateway-core/internal/pipeline"
	"github.com/c04ch1337/pagi-gateway-core/internal/registry"
	"github.com/c04ch1337/pagi-gateway-core/internal/replay"
	"github.com/c04ch1337/pagi-gateway-core/internal/router"
	"github.com/c04ch1337/pagi-gateway-core/internal/rpc"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
	"github.com/c04ch1337/pagi-gateway-core/internal/upstream"
)

// maxBodyBytes limits the size of incoming request bodies.
const maxBodyBytes = 10 * 1024 * 1024 // 10 MB

// adapterTimeout bounds one adapter call made by the dispatcher.
const adapterTimeout = 2 * time.Minute

// Server runs the REST front door and the adapter registry RPC listener.
type Server struct {
	Config     *config.Config
	Directory  *registry.Directory
	Dispatcher *pipeline.Dispatcher
	Metrics    *metrics.Metrics

	limiter    *limits.KeyedLimiter
	httpServer *http.Server
	rpcServer  *http.Server
}

// New wires the gateway from cfg and registers the adapters it lists.
func New(cfg *config.Config) (*Server, error) {
	dir := registry.New(slog.Default())
	m := metrics.New()

	var sink replay.Sink = replay.Nop{}
	if cfg.Core.RequestReplay.Enabled {
		sink = replay.NewFileSink(cfg.Core.RequestReplay.Path)
		slog.Info("request replay enabled", "path", cfg.Core.RequestReplay.Path)
	}

	adapterHTTP := &http.Client{Timeout: adapterTimeout}
	if cfg.Debug {
		adapterHTTP.Transport = &upstream.DebugTransport{}
	}

	var breakers *pipeline.Breakers
	if cb := cfg.Core.CircuitBreaker; cb.Enabled {
		breakers = pipeline.NewBreakers(cb.MaxFailures, cb.OpenTimeout)
	}

	s := &Server{
		Config:    cfg,
		Directory: dir,
		Metrics:   m,
		Dispatcher: &pipeline.Dispatcher{
			Directory: dir,
			Router:    router.New(cfg.Core.Routing.Priority),
			Clients:   upstream.NewPool(adapterHTTP, cfg.Verbose),
			Replay:    sink,
			Breakers:  breakers,
			Observer:  m,
		},
		limiter: limits.NewKeyedLimiter(cfg.Core.RateLimit.PerSecond),
	}

	for _, a := range cfg.Adapters {
		if err := s.registerAdapter(a.Info()); err != nil {
			return nil, fmt.Errorf("adapter %q: %w", a.ID, err)
		}
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Core.BindHTTP,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.rpcServer = &http.Server{
		Addr:        cfg.Core.BindGRPC,
		Handler:     s.RPCHandler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	return s, nil
}

// Handler returns the REST front door with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET "+s.Config.Core.Observability.MetricsPath, s.Metrics.Handler())

	mux.HandleFunc("POST /v1/ai:call", s.handleCall)
	mux.HandleFunc("POST /api/call", s.handleCall)
	mux.HandleFunc("GET /v1/adapters", s.handleListAdapters)

	mux.HandleFunc("OPTIONS /", s.handleOptions)

	return corsMiddleware(verboseMiddleware(s.Config.Verbose, debugMiddleware(s.Config.Debug, mux)))
}

// RPCHandler returns the adapter registry service.
func (s *Server) RPCHandler() http.Handler {
	mux := http.NewServeMux()
	path, handler := rpc.NewAdapterRegistryHandler(&registryService{s: s})
	mux.Handle(path, handler)
	return verboseMiddleware(s.Config.Verbose, mux)
}

// ListenAndServe serves both listeners and returns when either stops.
func (s *Server) ListenAndServe() error {
	errc := make(chan error, 2)
	go func() {
		slog.Info("registry listening", "addr", s.rpcServer.Addr)
		errc <- s.rpcServer.ListenAndServe()
	}()
	go func() {
		slog.Info("gateway listening", "addr", s.httpServer.Addr)
		errc <- s.httpServer.ListenAndServe()
	}()
	return <-errc
}

// Shutdown gracefully stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	return errors.Join(s.httpServer.Shutdown(ctx), s.rpcServer.Shutdown(ctx))
}

// registerAdapter is the single path into the directory, shared by startup
// config and the Register RPC.
func (s *Server) registerAdapter(info types.AdapterInfo) error {
	if err := s.Directory.Register(info); err != nil {
		return err
	}
	s.Metrics.SetAdapters(s.Directory.Len())
	return nil
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

func writeError(w http.ResponseWriter, status int, message string) {
	codec.WriteError(w, status, errorType(status), message)
}

func errorType(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "rate_limit_error"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "server_error"
	}
	return "invalid_request_error"
}
