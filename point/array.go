package point

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/foxtail-io/fxtnode/fxterr"
)

// GUIDInt32Array is the type GUID for a fixed-length []int32 Point.
const GUIDInt32Array = "b2d3e4f5-6a7b-4c8d-9e0f-1a2b3c4d5e6f"

// Int32ArrayPoint is a Point holding a fixed-length array of int32 values,
// the "aggregate" value kind named alongside scalars in the data model.
type Int32ArrayPoint struct {
	common
	length int
}

// NewInt32ArrayPoint constructs a fixed-length []int32 Point of the given
// length; length is immutable for the life of the Point.
func NewInt32ArrayPoint(id ID, name string, length int) *Int32ArrayPoint {
	return &Int32ArrayPoint{
		common: common{id: id, name: name, typeGUID: GUIDInt32Array, size: headerSize + 4*length},
		length: length,
	}
}

func (p *Int32ArrayPoint) Length() int { return p.length }

func (p *Int32ArrayPoint) valueBytes() []byte { return p.slot[headerSize : headerSize+4*p.length] }

// Read returns a copy of the current array and whether it is valid.
func (p *Int32ArrayPoint) Read() ([]int32, bool) {
	if p.IsNotValid() {
		return nil, false
	}
	out := make([]int32, p.length)
	buf := p.valueBytes()
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(buf[i*4 : i*4+4]))
	}
	return out, true
}

// Write stores values, which must have exactly Length() elements, subject
// to the same lock contract as scalar Points. A length mismatch is a no-op
// that reports false.
func (p *Int32ArrayPoint) Write(values []int32, lr LockRequest) bool {
	if len(values) != p.length {
		return false
	}
	if !p.writeAllowed(lr) {
		return true
	}
	buf := p.valueBytes()
	for i, v := range values {
		binary.BigEndian.PutUint32(buf[i*4:i*4+4], uint32(v))
	}
	p.setValid(true)
	p.applyLockRequest(lr)
	return true
}

func (p *Int32ArrayPoint) UpdateFromSetter(lr LockRequest) *fxterr.Error {
	if p.setter == nil {
		return nil
	}
	sp, ok := p.setter.(*Int32ArrayPoint)
	if !ok || sp.length != p.length {
		return ErrTypeMismatch.Withf("setter of %s has mismatched concrete type or length", p.typeGUID)
	}
	if sp.IsNotValid() {
		p.SetInvalid(lr)
		return nil
	}
	v, _ := sp.Read()
	p.Write(v, lr)
	return nil
}

func (p *Int32ArrayPoint) ToJSON(verbose bool) (json.RawMessage, bool) {
	valid := p.IsValid()
	env := scalarEnvelopeOut{Locked: p.IsLocked(), Valid: valid}
	if valid {
		v, _ := p.Read()
		env.Val = v
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

func (p *Int32ArrayPoint) FromJSON(data []byte, lr LockRequest) *fxterr.Error {
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
		var raw []float64
		if err := json.Unmarshal(env.Val, &raw); err != nil {
			return fmtTypeMismatch(p.typeGUID, err)
		}
		if len(raw) != p.length {
			return fmtTypeMismatch(p.typeGUID, fmt.Errorf("expected array of length %d, got %d", p.length, len(raw)))
		}
		values := make([]int32, p.length)
		for i, f := range raw {
			if f < math.MinInt32 || f > math.MaxInt32 {
				return fmtTypeMismatch(p.typeGUID, fmt.Errorf("element %d (%v) out of int32 range", i, f))
			}
			values[i] = int32(f)
		}
		p.Write(values, effective)
		return nil
	}

	if env.Valid != nil && !*env.Valid {
		p.SetInvalid(effective)
		return nil
	}

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
