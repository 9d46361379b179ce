package server

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/c04ch1337/pagi-gateway-core/internal/registry"
	"github.com/c04ch1337/pagi-gateway-core/internal/rpc"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// registryService serves AdapterRegistry over connect.
type registryService struct {
	s *Server
}

var _ rpc.AdapterRegistryHandler = (*registryService)(nil)

func (r *registryService) Register(ctx context.Context, req *connect.Request[rpc.RegisterAdapterRequest]) (*connect.Response[rpc.RegisterAdapterResponse], error) {
	msg := req.Msg
	info := types.AdapterInfo{
		AdapterID: msg.AdapterID,
		Endpoint:  msg.Endpoint,
		Version:   msg.Version,
	}
	if c := msg.Capabilities; c != nil {
		info.Capabilities = types.Capabilities{
			Streaming:  c.Streaming,
			TokenCount: c.TokenCount,
			ModelRoute: c.ModelRoute,
			EmbedCache: c.EmbedCache,
		}
	}

	if err := r.s.registerAdapter(info); err != nil {
		if errors.Is(err, registry.ErrInvalidAdapter) {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("adapter_id and endpoint required"))
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&rpc.RegisterAdapterResponse{OK: true}), nil
}

func (r *registryService) List(ctx context.Context, _ *connect.Request[rpc.ListAdaptersRequest]) (*connect.Response[rpc.ListAdaptersResponse], error) {
	snapshot := r.s.Directory.List()
	out := make([]*rpc.AdapterInfo, 0, len(snapshot))
	for _, a := range snapshot {
		out = append(out, &rpc.AdapterInfo{
			AdapterID: a.AdapterID,
			Endpoint:  a.Endpoint,
			Version:   a.Version,
			Capabilities: &rpc.AdapterCapabilities{
				Streaming:  a.Capabilities.Streaming,
				TokenCount: a.Capabilities.TokenCount,
				ModelRoute: a.Capabilities.ModelRoute,
				EmbedCache: a.Capabilities.EmbedCache,
			},
		})
	}
	return connect.NewResponse(&rpc.ListAdaptersResponse{Adapters: out}), nil
}
