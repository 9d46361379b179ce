package server

import (
	"net/http"

	"github.com/c04ch1337/pagi-gateway-core/internal/codec"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleListAdapters is the REST view of the directory.
func (s *Server) handleListAdapters(w http.ResponseWriter, r *http.Request) {
	codec.WriteJSON(w, http.StatusOK, struct {
		Adapters []types.AdapterInfo `json:"adapters"`
	}{Adapters: s.Directory.List()})
}
