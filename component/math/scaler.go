// Package math implements the linear-scaling component family: y = m*x + b
// over matched input/output float pairs, grounded on
// Component/Math/Scaler64Base.cpp and Scaler64Float.h.
package math

import (
	"encoding/json"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/component"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/point"
)

const (
	GUIDScaler32Float = "5e6f7a8b-9c0d-4e1f-8a2b-3c4d5e6f7a80"
	GUIDScaler64Float = "6f7a8b9c-0d1e-4f2a-8b3c-4d5e6f7a8b9c"
)

const maxPairs = 16

// pairDescriptor is one {input, output, m, b} entry: the input's JSON
// carries the scaling konstants, matching the original source's
// inputs[i]["m"]/["b"] layout.
type pairDescriptor struct {
	IDRef point.ID `json:"idRef"`
	M     float64  `json:"m"`
	B     float64  `json:"b"`
}

// Scaler applies y = m*x + b across matched input/output pairs. If an
// input is invalid, the paired output is invalidated instead of written —
// not an error.
type Scaler struct {
	component.Base
	inputs  []component.Ref
	outputs []component.Ref
	m, b    []float64
	valGUID string
}

func newScaler(typeGUID, valGUID string, raw []byte) (*Scaler, *fxterr.Error) {
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

	s := &Scaler{
		Base:    component.NewBase(typeGUID, "Fxt::Component::Math::Scaler"),
		inputs:  make([]component.Ref, len(d.Inputs)),
		outputs: make([]component.Ref, len(d.Outputs)),
		m:       make([]float64, len(d.Inputs)),
		b:       make([]float64, len(d.Inputs)),
		valGUID: valGUID,
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

func (s *Scaler) ResolveReferences(db *point.Database) *fxterr.Error {
	for i := range s.inputs {
		if ferr := s.inputs[i].Resolve(db, s.valGUID); ferr != nil {
			return s.Latch(ferr)
		}
	}
	for i := range s.outputs {
		if ferr := s.outputs[i].Resolve(db, s.valGUID); ferr != nil {
			return s.Latch(ferr)
		}
	}
	return nil
}

func (s *Scaler) Start(t0 int64) *fxterr.Error { return nil }
func (s *Scaler) Stop()                        {}

func (s *Scaler) Execute(tNow int64) *fxterr.Error {
	switch s.valGUID {
	case point.GUIDFloat32:
		for i := range s.inputs {
			x, valid := s.inputs[i].Point().(*point.ScalarPoint[float32]).Read()
			out := s.outputs[i].Point().(*point.ScalarPoint[float32])
			if !valid {
				out.SetInvalid(point.NoRequest)
				continue
			}
			out.Write(float32(s.m[i]*float64(x)+s.b[i]), point.NoRequest)
		}
	case point.GUIDFloat64:
		for i := range s.inputs {
			x, valid := s.inputs[i].Point().(*point.ScalarPoint[float64]).Read()
			out := s.outputs[i].Point().(*point.ScalarPoint[float64])
			if !valid {
				out.SetInvalid(point.NoRequest)
				continue
			}
			out.Write(s.m[i]*x+s.b[i], point.NoRequest)
		}
	}
	return nil
}

// Register installs Scaler32Float and Scaler64Float into f.
func Register(f *component.Factory) {
	f.Register(GUIDScaler32Float, func(raw []byte, _, _ *arena.Arena) (component.Component, *fxterr.Error) {
		return newScaler(GUIDScaler32Float, point.GUIDFloat32, raw)
	})
	f.Register(GUIDScaler64Float, func(raw []byte, _, _ *arena.Arena) (component.Component, *fxterr.Error) {
		return newScaler(GUIDScaler64Float, point.GUIDFloat64, raw)
	})
}
