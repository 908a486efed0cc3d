package encoding

import (
	"errors"
	"fmt"

	"github.com/philippgille/gokv/encoding"
)

const (
	NameJSON    = "json"
	NameMsgPack = "msgpack"
)

var ErrUnknownCodec = errors.New("unknown codec")

type Codec = encoding.Codec

// ByName returns the codec registered under the name. An empty name selects JSON.
func ByName(name string) (Codec, error) {
	switch name {
	case "", NameJSON:
		return encoding.JSON, nil
	case NameMsgPack:
		return MsgPack, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, name)
	}
}
