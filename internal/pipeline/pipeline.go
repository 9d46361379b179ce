package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/c04ch1337/pagi-gateway-core/internal/replay"
	"github.com/c04ch1337/pagi-gateway-core/internal/router"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
	"github.com/c04ch1337/pagi-gateway-core/internal/upstream"
)

var tracer = otel.Tracer("github.com/c04ch1337/pagi-gateway-core/internal/pipeline")

// Directory is the read side of the adapter registry.
type Directory interface {
	List() []types.AdapterInfo
}

// ClientFactory returns the client used to reach one adapter.
type ClientFactory interface {
	Client(info types.AdapterInfo) upstream.AdapterClient
}

// AttemptObserver is told about every candidate attempt. err is nil on
// success.
type AttemptObserver interface {
	ObserveAttempt(adapterID string, err error)
}

// Dispatcher forwards canonical requests to adapters: replay, route, then
// try each candidate in order until one succeeds.
type Dispatcher struct {
	Directory Directory
	Router    *router.Router
	Clients   ClientFactory

	// Replay receives every forwarded request. Nil disables replay.
	Replay replay.Sink

	// Breakers guards each adapter with a circuit breaker. Nil disables it.
	Breakers *Breakers

	// Observer may be nil.
	Observer AttemptObserver
}

// Forward dispatches req. A request that fails Validate is rejected with
// ErrInvalidRequest before it is replayed or routed. Otherwise it is written
// to the replay sink exactly once before routing; replay failures are logged
// and otherwise ignored. When every candidate fails, or there are none, the
// result is a *NoAdapterError matching ErrNoAdapterAvailable.
func (d *Dispatcher) Forward(ctx context.Context, req *types.CanonicalRequest) (*types.ForwardResponse, error) {
	ctx, span := tracer.Start(ctx, "dispatch.forward")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", req.RequestID))

	if err := req.Validate(); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("dispatch.rejected", "request_id", req.RequestID, "error", err)
		return nil, err
	}

	d.writeReplay(req)

	snapshot := d.Directory.List()
	byID := make(map[string]types.AdapterInfo, len(snapshot))
	for _, a := range snapshot {
		byID[a.AdapterID] = a
	}
	candidates := d.Router.Candidates(req, snapshot)
	span.SetAttributes(attribute.StringSlice("dispatch.candidates", candidates))

	if len(candidates) == 0 {
		reason := "no adapters registered"
		if id, pinned := req.TargetAdapter(); pinned && len(snapshot) > 0 {
			reason = "requested adapter " + id + " is not registered"
		}
		err := &NoAdapterError{Reason: reason}
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("dispatch.no_candidates", "request_id", req.RequestID, "reason", reason)
		return nil, err
	}

	var (
		attempted []string
		last      error
	)
	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			last = err
			break
		}
		attempted = append(attempted, id)

		resp, err := d.attempt(ctx, req, byID[id])
		if d.Observer != nil {
			d.Observer.ObserveAttempt(id, err)
		}
		if err != nil {
			last = err
			slog.Warn("dispatch.attempt.failed",
				"request_id", req.RequestID,
				"adapter_id", id,
				"error", err,
			)
			continue
		}

		requestID := resp.RequestID
		if requestID == "" {
			requestID = req.RequestID
		}
		span.SetAttributes(attribute.String("dispatch.adapter_id", id))
		return &types.ForwardResponse{RequestID: requestID, AdapterID: id, JSON: resp.JSON}, nil
	}

	err := &NoAdapterError{Attempts: attempted, Last: last}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func (d *Dispatcher) attempt(ctx context.Context, req *types.CanonicalRequest, info types.AdapterInfo) (*rpcResult, error) {
	ctx, span := tracer.Start(ctx, "dispatch.attempt")
	defer span.End()
	span.SetAttributes(
		attribute.String("adapter.id", info.AdapterID),
		attribute.String("adapter.endpoint", info.Endpoint),
	)

	start := time.Now()
	call := func() (*rpcResult, error) {
		resp, err := d.Clients.Client(info).Process(ctx, req)
		if err != nil {
			return nil, err
		}
		return &rpcResult{RequestID: resp.RequestID, JSON: resp.JSON}, nil
	}

	var (
		res *rpcResult
		err error
	)
	if d.Breakers != nil {
		res, err = d.Breakers.execute(info.AdapterID, call)
	} else {
		res, err = call()
	}
	span.SetAttributes(attribute.Int64("duration_ms", time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

type rpcResult struct {
	RequestID string
	JSON      string
}

func (d *Dispatcher) writeReplay(req *types.CanonicalRequest) {
	if d.Replay == nil {
		return
	}
	line, err := json.Marshal(req)
	if err != nil {
		slog.Warn("replay.encode.failed", "request_id", req.RequestID, "error", err)
		return
	}
	if err := d.Replay.AppendLine(string(line)); err != nil {
		slog.Warn("replay.append.failed", "request_id", req.RequestID, "error", err)
	}
}
