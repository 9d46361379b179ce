package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// ErrInvalidAdapter is returned by Register when adapter_id or endpoint is
// empty. The directory is left unchanged.
var ErrInvalidAdapter = errors.New("adapter_id and endpoint required")

// Directory maps adapter IDs to their registration. Registrations are
// last-write-wins; nothing is ever removed implicitly.
type Directory struct {
	mu       sync.RWMutex
	adapters map[string]types.AdapterInfo
	logger   *slog.Logger
}

// New creates an empty Directory. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		adapters: make(map[string]types.AdapterInfo),
		logger:   logger,
	}
}

// Register inserts or replaces info under its adapter ID.
func (d *Directory) Register(info types.AdapterInfo) error {
	if info.AdapterID == "" || info.Endpoint == "" {
		return fmt.Errorf("%w: id=%q endpoint=%q", ErrInvalidAdapter, info.AdapterID, info.Endpoint)
	}

	d.mu.Lock()
	_, replaced := d.adapters[info.AdapterID]
	d.adapters[info.AdapterID] = info
	d.mu.Unlock()

	d.logger.Info("adapter registered",
		"adapter_id", info.AdapterID,
		"endpoint", info.Endpoint,
		"version", info.Version,
		"replaced", replaced,
	)
	return nil
}

// List returns a snapshot of every registration ordered by adapter ID.
func (d *Directory) List() []types.AdapterInfo {
	d.mu.RLock()
	out := make([]types.AdapterInfo, 0, len(d.adapters))
	for _, info := range d.adapters {
		out = append(out, info)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].AdapterID < out[j].AdapterID })
	return out
}

// Lookup returns the registration for id.
func (d *Directory) Lookup(id string) (types.AdapterInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.adapters[id]
	return info, ok
}

// Len reports how many adapters are registered.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.adapters)
}
