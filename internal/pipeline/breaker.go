package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Breakers holds one circuit breaker per adapter ID. An open breaker fails
// the attempt immediately and the dispatcher moves to the next candidate.
type Breakers struct {
	maxFailures uint32
	openTimeout time.Duration

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakers trips an adapter's breaker after maxFailures consecutive
// failures and lets one trial request through after openTimeout.
func NewBreakers(maxFailures uint32, openTimeout time.Duration) *Breakers {
	if maxFailures == 0 {
		maxFailures = 5
	}
	return &Breakers{
		maxFailures: maxFailures,
		openTimeout: openTimeout,
		breakers:    make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (b *Breakers) get(adapterID string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[adapterID]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        adapterID,
		MaxRequests: 1,
		Timeout:     b.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("dispatch.breaker.state", "adapter_id", name, "from", from.String(), "to", to.String())
		},
	})
	b.breakers[adapterID] = cb
	return cb
}

// state reports the breaker state for adapterID.
func (b *Breakers) state(adapterID string) gobreaker.State {
	return b.get(adapterID).State()
}

// execute runs fn through adapterID's breaker.
func (b *Breakers) execute(adapterID string, fn func() (*rpcResult, error)) (*rpcResult, error) {
	out, err := b.get(adapterID).Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return out.(*rpcResult), nil
}
