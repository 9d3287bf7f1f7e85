package service

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec encodes the plain Go messages of this package. It is registered
// under the name "json" so it replaces connect's protobuf-only JSON codec.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, message)
}

// WithJSON returns the option that makes a client or handler speak this
// package's JSON messages.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

func withJSONHandler(opts []connect.HandlerOption) []connect.HandlerOption {
	out := make([]connect.HandlerOption, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, WithJSON())
}
