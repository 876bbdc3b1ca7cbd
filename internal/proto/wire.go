package proto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every HydroSync request and response.
type Message interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire([]byte) error
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendMessage(b []byte, num protowire.Number, m Message) ([]byte, error) {
	inner, err := m.MarshalWire()
	if err != nil {
		return nil, err
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner), nil
}

// field is one decoded tag-value pair handed to a message's decoder.
type field struct {
	num protowire.Number
	typ protowire.Type
	raw []byte
}

func (f field) wantType(t protowire.Type) error {
	if f.typ != t {
		return fmt.Errorf("field %d: unexpected wire type %d", f.num, f.typ)
	}
	return nil
}

func (f field) asString() (string, error) {
	if err := f.wantType(protowire.BytesType); err != nil {
		return "", err
	}
	s, n := protowire.ConsumeString(f.raw)
	if n < 0 {
		return "", protowire.ParseError(n)
	}
	return s, nil
}

func (f field) asBytes() ([]byte, error) {
	if err := f.wantType(protowire.BytesType); err != nil {
		return nil, err
	}
	v, n := protowire.ConsumeBytes(f.raw)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return v, nil
}

func (f field) asInt64() (int64, error) {
	if err := f.wantType(protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(f.raw)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return int64(v), nil
}

func (f field) asBool() (bool, error) {
	v, err := f.asInt64()
	return v != 0, err
}

// walk calls fn for every field in b. Unknown fields are ignored by fn
// returning nil; the raw value is skipped either way.
func walk(b []byte, fn func(field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return protowire.ParseError(m)
		}
		if err := fn(field{num: num, typ: typ, raw: b[:m]}); err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}
