package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TestCodec_Registered ensures gRPC can find the codec by name.
func TestCodec_Registered(t *testing.T) {
	t.Parallel()

	require.NotNil(t, encoding.GetCodec(Name))
}

// TestCodec_ProtoAndJSON checks both encodings pick the right path.
func TestCodec_ProtoAndJSON(t *testing.T) {
	t.Parallel()

	c := Codec{}

	data, err := c.Marshal(wrapperspb.Bool(true))
	require.NoError(t, err)

	got := new(wrapperspb.BoolValue)
	require.NoError(t, c.Unmarshal(data, got))
	require.True(t, got.GetValue())

	type message struct {
		ID string `json:"id"`
	}

	data, err = c.Marshal(&message{ID: "r1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"r1"}`, string(data))

	var decoded message
	require.NoError(t, c.Unmarshal(data, &decoded))
	require.Equal(t, "r1", decoded.ID)

	require.Error(t, c.Unmarshal([]byte("{"), &decoded))
}
