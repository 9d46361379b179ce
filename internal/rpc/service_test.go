package rpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
)

type fakeRegistry struct {
	registered []*RegisterAdapterRequest
}

func (f *fakeRegistry) Register(_ context.Context, req *connect.Request[RegisterAdapterRequest]) (*connect.Response[RegisterAdapterResponse], error) {
	if req.Msg.AdapterID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("adapter_id and endpoint required"))
	}
	f.registered = append(f.registered, req.Msg)
	return connect.NewResponse(&RegisterAdapterResponse{OK: true}), nil
}

func (f *fakeRegistry) List(context.Context, *connect.Request[ListAdaptersRequest]) (*connect.Response[ListAdaptersResponse], error) {
	out := &ListAdaptersResponse{}
	for _, r := range f.registered {
		out.Adapters = append(out.Adapters, &AdapterInfo{AdapterID: r.AdapterID, Endpoint: r.Endpoint, Capabilities: r.Capabilities, Version: r.Version})
	}
	return connect.NewResponse(out), nil
}

type echoAdapter struct{}

func (echoAdapter) Process(_ context.Context, req *connect.Request[Request]) (*connect.Response[Response], error) {
	text := ""
	if len(req.Msg.Messages) > 0 && len(req.Msg.Messages[0].Content) > 0 && req.Msg.Messages[0].Content[0].Text != nil {
		text = req.Msg.Messages[0].Content[0].Text.Text
	}
	return connect.NewResponse(&Response{RequestID: req.Msg.RequestID, AdapterID: "echo", JSON: `{"text":"` + text + `"}`}), nil
}

func TestAdapterRegistryRoundTrip(t *testing.T) {
	reg := &fakeRegistry{}
	mux := http.NewServeMux()
	mux.Handle(NewAdapterRegistryHandler(reg))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewAdapterRegistryClient(srv.Client(), srv.URL+"/")
	resp, err := client.Register(context.Background(), &RegisterAdapterRequest{
		AdapterID:    "ollama",
		Endpoint:     "http://127.0.0.1:6003",
		Capabilities: &AdapterCapabilities{Streaming: true},
		Version:      "0.1.0",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !resp.OK {
		t.Fatal("expected ok")
	}

	list, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Adapters) != 1 || list.Adapters[0].AdapterID != "ollama" || !list.Adapters[0].Capabilities.Streaming {
		t.Fatalf("unexpected list: %+v", list.Adapters)
	}
}

func TestAdapterRegistryInvalidArgument(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle(NewAdapterRegistryHandler(&fakeRegistry{}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := NewAdapterRegistryClient(srv.Client(), srv.URL).Register(context.Background(), &RegisterAdapterRequest{})
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("got %v, want invalid_argument", err)
	}
}

func TestAdapterServiceProcess(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle(NewAdapterServiceHandler(echoAdapter{}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := NewAdapterServiceClient(srv.Client(), srv.URL).Process(context.Background(), &Request{
		RequestID: "r1",
		Messages:  []*Message{{Role: RoleUser, Content: []*ContentPart{{Text: &TextPart{Text: "hi"}}}}},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.RequestID != "r1" || resp.JSON != `{"text":"hi"}` {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUnknownProcedureIsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle(NewAdapterServiceHandler(echoAdapter{}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/"+AdapterServiceName+"/Nope", "application/json", nil)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
}
