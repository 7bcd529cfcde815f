// Package analog implements SimpleScaler8: an integer-domain
// scale-and-offset with clamping, grounded on
// Component/Analog/SimpleScaler8.cpp/h.
package analog

import (
	"encoding/json"
	"math"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/component"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/point"
)

const GUIDSimpleScaler8 = "7a8b9c0d-1e2f-4a3b-8c4d-5e6f7a8b9c0d"

const maxPairs = 8

type pairDescriptor struct {
	IDRef point.ID `json:"idRef"`
	M     float64  `json:"m"`
	B     float64  `json:"b"`
}

// SimpleScaler8 applies y = clamp(m*x + b, MinInt8, MaxInt8) across matched
// float32-input/int8-output pairs. An invalid input invalidates its paired
// output instead of an error.
type SimpleScaler8 struct {
	component.Base
	inputs  []component.Ref
	outputs []component.Ref
	m, b    []float64
}

func newSimpleScaler8(raw []byte) (*SimpleScaler8, *fxterr.Error) {
	var d struct {
		Inputs  []pairDescriptor  `json:"inputs"`
		Outputs []json.RawMessage `json:"outputs"`
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, component.ErrBadJSON.With(err)
	}
	if len(d.Inputs) == 0 || len(d.Inputs) > maxPairs {
		return nil, component.ErrTooManyInputs.Withf("%d inputs, want [1,%d]", len(d.Inputs), maxPairs)
	}
	if len(d.Outputs) != len(d.Inputs) {
		return nil, fxterr.Code(fxterr.CategoryComponent, 8, "MISMATCHED_INPUTS_OUTPUTS").Withf("%d inputs vs %d outputs", len(d.Inputs), len(d.Outputs))
	}

	s := &SimpleScaler8{
		Base:    component.NewBase(GUIDSimpleScaler8, "Fxt::Component::Analog::SimpleScaler8"),
		inputs:  make([]component.Ref, len(d.Inputs)),
		outputs: make([]component.Ref, len(d.Outputs)),
		m:       make([]float64, len(d.Inputs)),
		b:       make([]float64, len(d.Inputs)),
	}
	for i, in := range d.Inputs {
		s.inputs[i] = component.UnresolvedRef(in.IDRef)
		s.m[i] = in.M
		s.b[i] = in.B
	}
	for i, outRaw := range d.Outputs {
		var out struct {
			IDRef point.ID `json:"idRef"`
		}
		if err := json.Unmarshal(outRaw, &out); err != nil {
			return nil, component.ErrBadJSON.With(err)
		}
		s.outputs[i] = component.UnresolvedRef(out.IDRef)
	}
	return s, nil
}

func (s *SimpleScaler8) ResolveReferences(db *point.Database) *fxterr.Error {
	for i := range s.inputs {
		if ferr := s.inputs[i].Resolve(db, point.GUIDFloat32); ferr != nil {
			return s.Latch(ferr)
		}
	}
	for i := range s.outputs {
		if ferr := s.outputs[i].Resolve(db, point.GUIDInt8); ferr != nil {
			return s.Latch(ferr)
		}
	}
	return nil
}

func (s *SimpleScaler8) Start(t0 int64) *fxterr.Error { return nil }
func (s *SimpleScaler8) Stop()                        {}

func (s *SimpleScaler8) Execute(tNow int64) *fxterr.Error {
	for i := range s.inputs {
		x, valid := s.inputs[i].Point().(*point.ScalarPoint[float32]).Read()
		out := s.outputs[i].Point().(*point.ScalarPoint[int8])
		if !valid {
			out.SetInvalid(point.NoRequest)
			continue
		}
		y := s.m[i]*float64(x) + s.b[i]
		out.Write(clampInt8(y), point.NoRequest)
	}
	return nil
}

func clampInt8(y float64) int8 {
	if y > math.MaxInt8 {
		return math.MaxInt8
	}
	if y < math.MinInt8 {
		return math.MinInt8
	}
	return int8(y)
}

// Register installs SimpleScaler8 into f.
func Register(f *component.Factory) {
	f.Register(GUIDSimpleScaler8, func(raw []byte, _, _ *arena.Arena) (component.Component, *fxterr.Error) {
		return newSimpleScaler8(raw)
	})
}
