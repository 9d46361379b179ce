package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec carries plain Go structs as JSON. It registers under the "json"
// name so both sides negotiate application/json without generated types.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// WithJSON is the option every client and handler in this package uses.
func WithJSON() connect.Option { return connect.WithCodec(jsonCodec{}) }
