package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	AdapterRegistryName = "pagi.v1.AdapterRegistry"
	AdapterServiceName  = "pagi.v1.AdapterService"

	AdapterRegistryRegisterProcedure = "/" + AdapterRegistryName + "/Register"
	AdapterRegistryListProcedure     = "/" + AdapterRegistryName + "/List"
	AdapterServiceProcessProcedure   = "/" + AdapterServiceName + "/Process"
)

// AdapterRegistryHandler is implemented by the gateway core.
type AdapterRegistryHandler interface {
	Register(context.Context, *connect.Request[RegisterAdapterRequest]) (*connect.Response[RegisterAdapterResponse], error)
	List(context.Context, *connect.Request[ListAdaptersRequest]) (*connect.Response[ListAdaptersResponse], error)
}

// AdapterServiceHandler is implemented by adapters.
type AdapterServiceHandler interface {
	Process(context.Context, *connect.Request[Request]) (*connect.Response[Response], error)
}

// NewAdapterRegistryHandler returns the mount path and handler for svc.
func NewAdapterRegistryHandler(svc AdapterRegistryHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	register := connect.NewUnaryHandler(AdapterRegistryRegisterProcedure, svc.Register, opts...)
	list := connect.NewUnaryHandler(AdapterRegistryListProcedure, svc.List, opts...)
	return "/" + AdapterRegistryName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AdapterRegistryRegisterProcedure:
			register.ServeHTTP(w, r)
		case AdapterRegistryListProcedure:
			list.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewAdapterServiceHandler returns the mount path and handler for svc.
func NewAdapterServiceHandler(svc AdapterServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	process := connect.NewUnaryHandler(AdapterServiceProcessProcedure, svc.Process, opts...)
	return "/" + AdapterServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != AdapterServiceProcessProcedure {
			http.NotFound(w, r)
			return
		}
		process.ServeHTTP(w, r)
	})
}

// AdapterRegistryClient calls the gateway's registry service.
type AdapterRegistryClient struct {
	register *connect.Client[RegisterAdapterRequest, RegisterAdapterResponse]
	list     *connect.Client[ListAdaptersRequest, ListAdaptersResponse]
}

// NewAdapterRegistryClient creates a registry client for baseURL, e.g.
// "http://127.0.0.1:50051".
func NewAdapterRegistryClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AdapterRegistryClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &AdapterRegistryClient{
		register: connect.NewClient[RegisterAdapterRequest, RegisterAdapterResponse](httpClient, baseURL+AdapterRegistryRegisterProcedure, opts...),
		list:     connect.NewClient[ListAdaptersRequest, ListAdaptersResponse](httpClient, baseURL+AdapterRegistryListProcedure, opts...),
	}
}

func (c *AdapterRegistryClient) Register(ctx context.Context, req *RegisterAdapterRequest) (*RegisterAdapterResponse, error) {
	resp, err := c.register.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *AdapterRegistryClient) List(ctx context.Context) (*ListAdaptersResponse, error) {
	resp, err := c.list.CallUnary(ctx, connect.NewRequest(&ListAdaptersRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// AdapterServiceClient calls one adapter's Process method.
type AdapterServiceClient struct {
	process *connect.Client[Request, Response]
}

func NewAdapterServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AdapterServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &AdapterServiceClient{
		process: connect.NewClient[Request, Response](httpClient, baseURL+AdapterServiceProcessProcedure, opts...),
	}
}

func (c *AdapterServiceClient) Process(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.process.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
