package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype clients must select with
// grpc.CallContentSubtype.
const CodecName = "json"

// codec marshals messages as JSON so the service needs no generated protobuf
// code and the HTTP gateway can bind the same structs.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal %T: %w", v, err)
	}
	return b, nil
}

func (codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal %T: %w", v, err)
	}
	return nil
}

func (codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(codec{})
}
