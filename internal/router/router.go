package router

import (
	"sort"

	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// DefaultPriority is the adapter order tried when a request does not pin an
// adapter.
var DefaultPriority = []string{"openrouter", "ollama"}

// Router turns a request and a directory snapshot into the ordered list of
// adapter IDs to attempt.
type Router struct {
	// Priority overrides DefaultPriority when non-nil.
	Priority []string
}

// New returns a Router using priority, or DefaultPriority when it is empty.
func New(priority []string) *Router {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	return &Router{Priority: append([]string(nil), priority...)}
}

func (r *Router) priority() []string {
	if r == nil || r.Priority == nil {
		return DefaultPriority
	}
	return r.Priority
}

// Candidates returns adapter IDs in attempt order without duplicates.
//
// A request that names an adapter in metadata gets that adapter alone, or
// nothing when it is not registered. Otherwise registered adapters from the
// priority list are used in order; if none of them is registered the
// lexicographically first adapter is the single fallback.
func (r *Router) Candidates(req *types.CanonicalRequest, snapshot []types.AdapterInfo) []string {
	registered := make(map[string]struct{}, len(snapshot))
	for _, a := range snapshot {
		registered[a.AdapterID] = struct{}{}
	}

	if id, ok := req.TargetAdapter(); ok {
		if _, found := registered[id]; found {
			return []string{id}
		}
		return []string{}
	}

	out := make([]string, 0, len(r.priority()))
	seen := make(map[string]struct{}, len(r.priority()))
	for _, id := range r.priority() {
		if _, found := registered[id]; !found {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > 0 || len(snapshot) == 0 {
		return out
	}

	ids := make([]string, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return []string{ids[0]}
}
