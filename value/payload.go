package value

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Payload codec content types
const (
	ContentTypeCBOR = "application/cbor"
	ContentTypeJSON = "application/json"
)

// PayloadCodec encodes the payload section of a wire value. Both ends of a
// connection must use the same codec; the wire header does not record it.
type PayloadCodec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR returns a deterministic CBOR codec using the canonical encoding
// options, so equal values always produce equal payload bytes.
func CBOR() (PayloadCodec, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build cbor encoder: %w", err)
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build cbor decoder: %w", err)
	}
	return cborCodec{enc: em, dec: dm}, nil
}

func (c cborCodec) ContentType() string                { return ContentTypeCBOR }
func (c cborCodec) Marshal(v any) ([]byte, error)      { return c.enc.Marshal(v) }
func (c cborCodec) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }

type jsonCodec struct{}

// JSON returns a codec writing JSON payloads. It is mostly useful when
// inspecting traffic by hand.
func JSON() PayloadCodec { return jsonCodec{} }

func (jsonCodec) ContentType() string                { return ContentTypeJSON }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// CodecByName resolves the codec names accepted in configuration.
func CodecByName(name string) (PayloadCodec, error) {
	switch name {
	case "", "cbor":
		return CBOR()
	case "json":
		return JSON(), nil
	default:
		return nil, fmt.Errorf("unsupported payload codec: %s", name)
	}
}

// mustCBOR is used for the default registry options; the canonical options
// are static so building the modes cannot fail.
func mustCBOR() PayloadCodec {
	c, err := CBOR()
	if err != nil {
		panic(err)
	}
	return c
}
