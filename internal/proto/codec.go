package proto

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of the HydroSync codec.
const CodecName = "hydrowire"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("hydrowire: cannot marshal %T", v)
	}
	return m.MarshalWire()
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("hydrowire: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

func (codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(codec{})
}
