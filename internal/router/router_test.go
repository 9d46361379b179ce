package router

import (
	"reflect"
	"testing"

	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

func snapshot(ids ...string) []types.AdapterInfo {
	out := make([]types.AdapterInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.AdapterInfo{AdapterID: id, Endpoint: "http://" + id})
	}
	return out
}

func pinned(id string) *types.CanonicalRequest {
	req := types.ChatText("a", "hi")
	req.Metadata[types.MetadataAdapterID] = id
	return req
}

func TestCandidates(t *testing.T) {
	plain := types.ChatText("a", "hi")
	cases := []struct {
		name     string
		req      *types.CanonicalRequest
		snapshot []types.AdapterInfo
		want     []string
	}{
		{"priority order", plain, snapshot("z", "ollama", "openrouter"), []string{"openrouter", "ollama"}},
		{"priority skips unregistered", plain, snapshot("ollama", "z"), []string{"ollama"}},
		{"lexicographic fallback", plain, snapshot("zeta", "alpha"), []string{"alpha"}},
		{"single other adapter", plain, snapshot("z"), []string{"z"}},
		{"empty registry", plain, nil, []string{}},
		{"explicit override", pinned("z"), snapshot("openrouter", "ollama", "z"), []string{"z"}},
		{"explicit override fails closed", pinned("missing"), snapshot("openrouter", "ollama"), []string{}},
		{"explicit empty id fails closed", pinned(""), snapshot("openrouter"), []string{}},
	}
	r := New(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Candidates(tc.req, tc.snapshot)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCandidatesCustomPriorityDeduplicates(t *testing.T) {
	r := New([]string{"b", "a", "b", "c"})
	got := r.Candidates(types.ChatText("x", "hi"), snapshot("a", "b"))
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("got %v", got)
	}
}

func TestZeroRouterUsesDefaultPriority(t *testing.T) {
	var r Router
	got := r.Candidates(types.ChatText("x", "hi"), snapshot("ollama", "openrouter"))
	if !reflect.DeepEqual(got, []string{"openrouter", "ollama"}) {
		t.Fatalf("got %v", got)
	}
}
