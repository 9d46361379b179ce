package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/c04ch1337/pagi-gateway-core/internal/config"
	"github.com/c04ch1337/pagi-gateway-core/internal/provider"
	"github.com/c04ch1337/pagi-gateway-core/internal/rpc"
	"github.com/c04ch1337/pagi-gateway-core/internal/server"
)

const usage = "Commands: serve, adapter, adapters, call"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pagi-gateway <command> [flags]")
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		os.Exit(cmdServe(os.Args[2:]))
	case "adapter":
		os.Exit(cmdAdapter(os.Args[2:]))
	case "adapters":
		os.Exit(cmdAdapters(os.Args[2:]))
	case "call":
		os.Exit(cmdCall(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}

func cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default $PAGI_CONFIG or "+config.DefaultPath+")")
	bindHTTP := fs.String("bind-http", "", "REST listen address")
	bindGRPC := fs.String("bind-grpc", "", "Registry RPC listen address")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	debug := fs.Bool("debug", false, "Dump inbound and adapter traffic to stderr")
	fs.Parse(args)

	path, explicit := config.ResolvePath(*configPath)
	cfg, err := config.Load(path, explicit)
	if err != nil {
		slog.Error("config error", "error", err)
		return 1
	}
	if *bindHTTP != "" {
		cfg.Core.BindHTTP = *bindHTTP
	}
	if *bindGRPC != "" {
		cfg.Core.BindGRPC = *bindGRPC
	}
	cfg.Verbose = cfg.Verbose || *verbose
	cfg.Debug = cfg.Debug || *debug
	slog.SetDefault(newLogger(os.Stderr, cfg.Verbose || cfg.Debug))

	srv, err := server.New(cfg)
	if err != nil {
		slog.Error("server setup failed", "error", err)
		return 1
	}

	go shutdownOnSignal(srv.Shutdown)

	slog.Info("PAGI gateway starting",
		"http", cfg.Core.BindHTTP,
		"rpc", cfg.Core.BindGRPC,
		"adapters", srv.Directory.Len(),
		"replay", cfg.Core.RequestReplay.Enabled,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		return 1
	}
	return 0
}

func cmdAdapter(args []string) int {
	fs := flag.NewFlagSet("adapter", flag.ExitOnError)
	kind := fs.String("kind", "", "Provider kind ("+strings.Join(config.ProviderKinds(), "|")+"), default $PAGI_ADAPTER_KIND")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	debug := fs.Bool("debug", false, "Dump provider traffic to stderr")
	fs.Parse(args)

	cfg, err := config.ProviderFromEnv(*kind)
	if err != nil {
		slog.Error("config error", "error", err)
		return 1
	}
	cfg.Verbose = cfg.Verbose || *verbose
	cfg.Debug = cfg.Debug || *debug
	slog.SetDefault(newLogger(os.Stderr, cfg.Verbose || cfg.Debug))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter, err := provider.New(ctx, cfg)
	if err != nil {
		slog.Error("adapter setup failed", "error", err)
		return 1
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.NewAdapterServiceHandler(adapter))
	httpServer := &http.Server{
		Addr:        cfg.Bind,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- httpServer.ListenAndServe() }()

	slog.Info("adapter starting", "adapter_id", cfg.AdapterID, "kind", cfg.Kind, "bind", cfg.Bind, "core", cfg.RegistryURL())

	regCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = provider.Register(regCtx, cfg, &http.Client{Timeout: 10 * time.Second})
	cancel()
	if err != nil {
		slog.Error("registration failed", "error", err)
		httpServer.Close()
		return 1
	}

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("adapter server error", "error", err)
			return 1
		}
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}
	return 0
}

func cmdAdapters(args []string) int {
	fs := flag.NewFlagSet("adapters", flag.ExitOnError)
	core := fs.String("core", envOr("PAGI_CORE_GRPC", config.DefaultBindGRPC), "Registry RPC address")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	base := *core
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	client := rpc.NewAdapterRegistryClient(&http.Client{Timeout: 10 * time.Second}, base)
	resp, err := client.List(ctx)
	if err != nil {
		slog.Error("list adapters failed", "error", err)
		return 1
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADAPTER\tENDPOINT\tVERSION\tCAPABILITIES")
	for _, a := range resp.Adapters {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.AdapterID, a.Endpoint, a.Version, capabilityList(a.Capabilities))
	}
	tw.Flush()
	return 0
}

func capabilityList(c *rpc.AdapterCapabilities) string {
	if c == nil {
		return "-"
	}
	var out []string
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"streaming", c.Streaming},
		{"token_count", c.TokenCount},
		{"model_route", c.ModelRoute},
		{"embed_cache", c.EmbedCache},
	} {
		if f.on {
			out = append(out, f.name)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ",")
}

func shutdownOnSignal(shutdown func(context.Context) error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Fprintln(os.Stderr, "\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
