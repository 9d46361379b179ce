package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.IncRequests("rest", 200)
	m.IncRequests("rest", 200)
	m.IncRequests("rest", 503)
	m.ObserveLatency("rest", 150*time.Millisecond)
	m.ObserveAttempt("ollama", nil)
	m.ObserveAttempt("openrouter", errors.New("down"))
	m.IncRateLimited("rest")
	m.SetAdapters(2)
	done := m.InFlight("rest")
	done()

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("rest", "200")); got != 2 {
		t.Fatalf("requests 200: got %v", got)
	}
	if got := testutil.ToFloat64(m.dispatchAttempts.WithLabelValues("openrouter", "failure")); got != 1 {
		t.Fatalf("failed attempts: got %v", got)
	}
	if got := testutil.ToFloat64(m.requestsInFlight.WithLabelValues("rest")); got != 0 {
		t.Fatalf("in flight: got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`pagi_requests_total{protocol="rest",status="503"} 1`,
		`pagi_request_latency_seconds_count{protocol="rest"} 1`,
		`pagi_adapters_registered 2`,
		`pagi_rate_limited_total{protocol="rest"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestInstancesAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.IncRequests("rest", 200)
	if got := testutil.ToFloat64(b.requestsTotal.WithLabelValues("rest", "200")); got != 0 {
		t.Fatalf("second instance saw %v", got)
	}
}
