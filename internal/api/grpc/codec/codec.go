// Package codec is the gRPC codec of the reminder API.
//
// Protobuf messages (the well-known emptypb and wrapperspb types) are encoded
// with protobuf; every other value is encoded as JSON. The codec registers
// itself under the content-subtype Name, so clients select it with
// grpc.CallContentSubtype(codec.Name).
package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// Name is the content-subtype of the codec.
const Name = "reminder"

func init() { //nolint:gochecknoinits // gRPC codecs are registered at init time.
	encoding.RegisterCodec(Codec{})
}

// Codec implements encoding.Codec.
type Codec struct{}

// Marshal encodes v.
func (Codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		data, err := proto.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal protobuf: %w", err)
		}

		return data, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}

	return data, nil
}

// Unmarshal decodes data into v.
func (Codec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		if err := proto.Unmarshal(data, m); err != nil {
			return fmt.Errorf("unmarshal protobuf: %w", err)
		}

		return nil
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}

	return nil
}

// Name returns the content-subtype.
func (Codec) Name() string {
	return Name
}
