package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	From   string `json:"from" msgpack:"from"`
	Status string `json:"status" msgpack:"status"`
}

func TestByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", NameJSON, NameMsgPack} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			codec, err := ByName(name)
			require.NoError(t, err)

			data, err := codec.Marshal(&sample{From: "0x1", Status: "initiated"})
			require.NoError(t, err)

			var got sample
			require.NoError(t, codec.Unmarshal(data, &got))
			assert.Equal(t, sample{From: "0x1", Status: "initiated"}, got)
		})
	}

	_, err := ByName("xml")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestJSONWireShape(t *testing.T) {
	t.Parallel()

	codec, err := ByName(NameJSON)
	require.NoError(t, err)

	data, err := codec.Marshal(&sample{From: "0x0", Status: "error"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"0x0","status":"error"}`, string(data))
}
