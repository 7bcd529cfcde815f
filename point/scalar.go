package point

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/foxtail-io/fxtnode/fxterr"
)

// codec supplies the type-specific encode/decode/JSON conversion a
// ScalarPoint[T] needs; the slot mechanics in common are identical for
// every scalar type.
type codec[T any] struct {
	size     int
	encode   func(T, []byte)
	decode   func([]byte) T
	toJSON   func(T) any
	fromJSON func(any) (T, bool)
}

// ScalarPoint is a Point holding a single scalar value of type T (bool or
// a fixed-width integer/float). Concrete type GUIDs are assigned to the
// package-level constructors below (NewBoolPoint, NewUint8Point, ...).
type ScalarPoint[T any] struct {
	common
	codec codec[T]
}

func newScalar[T any](id ID, name, typeGUID string, c codec[T]) *ScalarPoint[T] {
	return &ScalarPoint[T]{
		common: common{id: id, name: name, typeGUID: typeGUID, size: headerSize + c.size},
		codec:  c,
	}
}

func (p *ScalarPoint[T]) valueBytes() []byte { return p.slot[headerSize : headerSize+p.codec.size] }

// Read returns the current value and whether it is valid. An invalid read
// yields the zero value of T and false, matching "reads do not deliver a
// value" when valid = false.
func (p *ScalarPoint[T]) Read() (T, bool) {
	var zero T
	if p.IsNotValid() {
		return zero, false
	}
	return p.codec.decode(p.valueBytes()), true
}

// Write stores newValue and marks the Point valid, subject to the lock
// contract: a no-op if locked and lr != Unlock.
func (p *ScalarPoint[T]) Write(newValue T, lr LockRequest) {
	if !p.writeAllowed(lr) {
		return
	}
	p.codec.encode(newValue, p.valueBytes())
	p.setValid(true)
	p.applyLockRequest(lr)
}

// UpdateFromSetter copies the setter's value into this Point, or marks this
// Point invalid when the setter is invalid; a Point with no setter is an
// accepted no-op.
func (p *ScalarPoint[T]) UpdateFromSetter(lr LockRequest) *fxterr.Error {
	if p.setter == nil {
		return nil
	}
	sp, ok := p.setter.(*ScalarPoint[T])
	if !ok {
		return ErrTypeMismatch.Withf("setter of %s has mismatched concrete type", p.typeGUID)
	}
	if sp.IsNotValid() {
		p.SetInvalid(lr)
		return nil
	}
	v, _ := sp.Read()
	p.Write(v, lr)
	return nil
}

type scalarEnvelope struct {
	Val    json.RawMessage `json:"val,omitempty"`
	Valid  *bool           `json:"valid,omitempty"`
	Locked *bool           `json:"locked,omitempty"`
	Name   string          `json:"name,omitempty"`
}

// ToJSON renders {locked, valid, val, name?} per the Point JSON contract.
func (p *ScalarPoint[T]) ToJSON(verbose bool) (json.RawMessage, bool) {
	valid := p.IsValid()
	env := scalarEnvelopeOut{Locked: p.IsLocked(), Valid: valid}
	if valid {
		v, _ := p.Read()
		env.Val = p.codec.toJSON(v)
	}
	if verbose {
		env.Name = p.name
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, false
	}
	return b, true
}

type scalarEnvelopeOut struct {
	Locked bool   `json:"locked"`
	Valid  bool   `json:"valid"`
	Val    any    `json:"val,omitempty"`
	Name   string `json:"name,omitempty"`
}

// FromJSON applies {val?, valid?, locked?}. An explicit "locked" in the
// JSON overrides lr for this call (it expresses the desired end-state
// directly); its absence defers entirely to lr.
func (p *ScalarPoint[T]) FromJSON(data []byte, lr LockRequest) *fxterr.Error {
	var env scalarEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ErrBadJSON.With(err)
	}

	effective := lr
	if env.Locked != nil {
		if *env.Locked {
			effective = Lock
		} else {
			effective = Unlock
		}
	}

	if len(env.Val) > 0 {
		var raw any
		if err := json.Unmarshal(env.Val, &raw); err != nil {
			return fmtTypeMismatch(p.typeGUID, err)
		}
		v, ok := p.codec.fromJSON(raw)
		if !ok {
			return fmtTypeMismatch(p.typeGUID, fmt.Errorf("value %v is not a valid %s", raw, p.typeGUID))
		}
		p.Write(v, effective)
		return nil
	}

	if env.Valid != nil && !*env.Valid {
		p.SetInvalid(effective)
		return nil
	}

	// No value and no explicit invalidation: only the lock state (if any)
	// changes.
	if !p.writeAllowed(effective) {
		return nil
	}
	if env.Locked != nil {
		p.applyLockRequest(effective)
	}
	if env.Valid != nil && *env.Valid {
		p.setValid(true)
	}
	return nil
}

// --- concrete scalar type GUIDs and constructors ---

const (
	GUIDBool    = "f574ca64-b5f2-41ae-bdbf-d7cb7d52aeb0"
	GUIDInt8    = "a184a633-8a0a-48be-92c0-3e7a5b35b4f1"
	GUIDInt16   = "6c2b5f4b-5b2a-4f43-8f1c-0ed9a6bcb9e9"
	GUIDInt32   = "0a3e2c63-2fc1-4b6d-9cbb-2a7d2d2e4ea8"
	GUIDInt64   = "9f2c1dca-3a7c-4e68-9c1f-3dbb55b0f0a7"
	GUIDUint8   = "3df6b8a4-7c15-4b26-9d9f-4b8a9a9c1c52"
	GUIDUint16  = "e7b9b10e-29a2-4a6b-9ec2-6f0bb1e4baf3"
	GUIDUint32  = "2d9d9a06-2d9f-4e44-8f39-5b8c5e9f6b4b"
	GUIDUint64  = "7a0c9b1e-5b4c-4a9d-9a6a-1c2a6f9b0e3d"
	GUIDFloat32 = "c1a6f8a9-8b39-4c66-9a8b-7c9d2e3f4a5b"
	GUIDFloat64 = "5e6f7a8b-9c0d-4e1f-8a2b-3c4d5e6f7a8b"
)

func boolCodec() codec[bool] {
	return codec[bool]{
		size:   1,
		encode: func(v bool, b []byte) { b[0] = boolToByte(v) },
		decode: func(b []byte) bool { return b[0] != 0 },
		toJSON: func(v bool) any { return v },
		fromJSON: func(a any) (bool, bool) {
			v, ok := a.(bool)
			return v, ok
		},
	}
}

func boolToByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// NewBoolPoint constructs a boolean Point.
func NewBoolPoint(id ID, name string) *ScalarPoint[bool] {
	return newScalar(id, name, GUIDBool, boolCodec())
}

func int8Codec() codec[int8] {
	return codec[int8]{
		size:   1,
		encode: func(v int8, b []byte) { b[0] = byte(v) },
		decode: func(b []byte) int8 { return int8(b[0]) },
		toJSON: func(v int8) any { return v },
		fromJSON: func(a any) (int8, bool) {
			n, ok := jsonNumber(a)
			if !ok || n < math.MinInt8 || n > math.MaxInt8 {
				return 0, false
			}
			return int8(n), true
		},
	}
}

// NewInt8Point constructs a signed 8-bit integer Point.
func NewInt8Point(id ID, name string) *ScalarPoint[int8] {
	return newScalar(id, name, GUIDInt8, int8Codec())
}

func int16Codec() codec[int16] {
	return codec[int16]{
		size:   2,
		encode: func(v int16, b []byte) { binary.BigEndian.PutUint16(b, uint16(v)) },
		decode: func(b []byte) int16 { return int16(binary.BigEndian.Uint16(b)) },
		toJSON: func(v int16) any { return v },
		fromJSON: func(a any) (int16, bool) {
			n, ok := jsonNumber(a)
			if !ok || n < math.MinInt16 || n > math.MaxInt16 {
				return 0, false
			}
			return int16(n), true
		},
	}
}

// NewInt16Point constructs a signed 16-bit integer Point.
func NewInt16Point(id ID, name string) *ScalarPoint[int16] {
	return newScalar(id, name, GUIDInt16, int16Codec())
}

func int32Codec() codec[int32] {
	return codec[int32]{
		size:   4,
		encode: func(v int32, b []byte) { binary.BigEndian.PutUint32(b, uint32(v)) },
		decode: func(b []byte) int32 { return int32(binary.BigEndian.Uint32(b)) },
		toJSON: func(v int32) any { return v },
		fromJSON: func(a any) (int32, bool) {
			n, ok := jsonNumber(a)
			if !ok || n < math.MinInt32 || n > math.MaxInt32 {
				return 0, false
			}
			return int32(n), true
		},
	}
}

// NewInt32Point constructs a signed 32-bit integer Point.
func NewInt32Point(id ID, name string) *ScalarPoint[int32] {
	return newScalar(id, name, GUIDInt32, int32Codec())
}

func int64Codec() codec[int64] {
	return codec[int64]{
		size:   8,
		encode: func(v int64, b []byte) { binary.BigEndian.PutUint64(b, uint64(v)) },
		decode: func(b []byte) int64 { return int64(binary.BigEndian.Uint64(b)) },
		toJSON: func(v int64) any { return v },
		fromJSON: func(a any) (int64, bool) {
			n, ok := jsonNumber(a)
			if !ok {
				return 0, false
			}
			return int64(n), true
		},
	}
}

// NewInt64Point constructs a signed 64-bit integer Point.
func NewInt64Point(id ID, name string) *ScalarPoint[int64] {
	return newScalar(id, name, GUIDInt64, int64Codec())
}

func uint8Codec() codec[uint8] {
	return codec[uint8]{
		size:   1,
		encode: func(v uint8, b []byte) { b[0] = v },
		decode: func(b []byte) uint8 { return b[0] },
		toJSON: func(v uint8) any { return v },
		fromJSON: func(a any) (uint8, bool) {
			n, ok := jsonNumber(a)
			if !ok || n < 0 || n > math.MaxUint8 {
				return 0, false
			}
			return uint8(n), true
		},
	}
}

// NewUint8Point constructs an unsigned 8-bit integer Point.
func NewUint8Point(id ID, name string) *ScalarPoint[uint8] {
	return newScalar(id, name, GUIDUint8, uint8Codec())
}

func uint16Codec() codec[uint16] {
	return codec[uint16]{
		size:   2,
		encode: func(v uint16, b []byte) { binary.BigEndian.PutUint16(b, v) },
		decode: func(b []byte) uint16 { return binary.BigEndian.Uint16(b) },
		toJSON: func(v uint16) any { return v },
		fromJSON: func(a any) (uint16, bool) {
			n, ok := jsonNumber(a)
			if !ok || n < 0 || n > math.MaxUint16 {
				return 0, false
			}
			return uint16(n), true
		},
	}
}

// NewUint16Point constructs an unsigned 16-bit integer Point.
func NewUint16Point(id ID, name string) *ScalarPoint[uint16] {
	return newScalar(id, name, GUIDUint16, uint16Codec())
}

func uint32Codec() codec[uint32] {
	return codec[uint32]{
		size:   4,
		encode: func(v uint32, b []byte) { binary.BigEndian.PutUint32(b, v) },
		decode: func(b []byte) uint32 { return binary.BigEndian.Uint32(b) },
		toJSON: func(v uint32) any { return v },
		fromJSON: func(a any) (uint32, bool) {
			n, ok := jsonNumber(a)
			if !ok || n < 0 || n > math.MaxUint32 {
				return 0, false
			}
			return uint32(n), true
		},
	}
}

// NewUint32Point constructs an unsigned 32-bit integer Point.
func NewUint32Point(id ID, name string) *ScalarPoint[uint32] {
	return newScalar(id, name, GUIDUint32, uint32Codec())
}

func uint64Codec() codec[uint64] {
	return codec[uint64]{
		size:   8,
		encode: func(v uint64, b []byte) { binary.BigEndian.PutUint64(b, v) },
		decode: func(b []byte) uint64 { return binary.BigEndian.Uint64(b) },
		toJSON: func(v uint64) any { return v },
		fromJSON: func(a any) (uint64, bool) {
			n, ok := jsonNumber(a)
			if !ok || n < 0 {
				return 0, false
			}
			return uint64(n), true
		},
	}
}

// NewUint64Point constructs an unsigned 64-bit integer Point.
func NewUint64Point(id ID, name string) *ScalarPoint[uint64] {
	return newScalar(id, name, GUIDUint64, uint64Codec())
}

func float32Codec() codec[float32] {
	return codec[float32]{
		size:   4,
		encode: func(v float32, b []byte) { binary.BigEndian.PutUint32(b, math.Float32bits(v)) },
		decode: func(b []byte) float32 { return math.Float32frombits(binary.BigEndian.Uint32(b)) },
		toJSON: func(v float32) any { return v },
		fromJSON: func(a any) (float32, bool) {
			n, ok := jsonNumber(a)
			if !ok {
				return 0, false
			}
			return float32(n), true
		},
	}
}

// NewFloat32Point constructs a 32-bit float Point.
func NewFloat32Point(id ID, name string) *ScalarPoint[float32] {
	return newScalar(id, name, GUIDFloat32, float32Codec())
}

func float64Codec() codec[float64] {
	return codec[float64]{
		size:   8,
		encode: func(v float64, b []byte) { binary.BigEndian.PutUint64(b, math.Float64bits(v)) },
		decode: func(b []byte) float64 { return math.Float64frombits(binary.BigEndian.Uint64(b)) },
		toJSON: func(v float64) any { return v },
		fromJSON: func(a any) (float64, bool) {
			n, ok := jsonNumber(a)
			return n, ok
		},
	}
}

// NewFloat64Point constructs a 64-bit float Point.
func NewFloat64Point(id ID, name string) *ScalarPoint[float64] {
	return newScalar(id, name, GUIDFloat64, float64Codec())
}

func jsonNumber(a any) (float64, bool) {
	switch v := a.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
