package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/c04ch1337/pagi-gateway-core/internal/codec"
	"github.com/c04ch1337/pagi-gateway-core/internal/limits"
	"github.com/c04ch1337/pagi-gateway-core/internal/normalize"
	"github.com/c04ch1337/pagi-gateway-core/internal/pipeline"
)

const protocolREST = "rest"

// handleCall handles POST /v1/ai:call and POST /api/call.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	defer s.Metrics.InFlight(protocolREST)()
	start := time.Now()

	if !s.limiter.Allow(limits.ClientKey(r)) {
		s.Metrics.IncRateLimited(protocolREST)
		s.fail(w, http.StatusTooManyRequests, "rate limited")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.fail(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	req, err := normalize.Normalize(body)
	if err != nil {
		status, msg := http.StatusBadRequest, "invalid json"
		var nerr *normalize.Error
		if errors.As(err, &nerr) {
			status, msg = nerr.StatusCode, nerr.Message
		}
		slog.Debug("ingress.rejected", "error", err)
		s.fail(w, status, msg)
		return
	}

	resp, err := s.Dispatcher.Forward(r.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidRequest) {
			slog.Debug("dispatch.rejected", "request_id", req.RequestID, "error", err)
			s.fail(w, http.StatusBadRequest, "invalid request")
			return
		}
		if errors.Is(err, pipeline.ErrNoAdapterAvailable) {
			slog.Warn("dispatch.failed", "request_id", req.RequestID, "error", err)
			s.fail(w, http.StatusServiceUnavailable, "no adapter available")
			return
		}
		slog.Error("dispatch.error", "request_id", req.RequestID, "error", err)
		s.fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.Metrics.ObserveLatency(protocolREST, time.Since(start))
	s.Metrics.IncRequests(protocolREST, http.StatusOK)
	codec.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) fail(w http.ResponseWriter, status int, message string) {
	s.Metrics.IncRequests(protocolREST, status)
	writeError(w, status, message)
}
