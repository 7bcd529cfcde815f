// Package digital implements the boolean-domain component family: AND/NOT
// gates and the Demux/Mux bit-packing pair, grounded on
// Component/Digital/AndGateBase.cpp, Not64Gate.cpp, Demux.cpp, MuxBase.h.
package digital

import (
	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/component"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/point"
)

const (
	GUIDAnd8Gate  = "e62e395c-d27a-4821-bba9-aa1e6de42a05"
	GUIDAnd16Gate = "3b1f6c2a-7d4e-4b8f-9a1c-2d3e4f5a6b7c"
	GUIDAnd64Gate = "8c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"

	GUIDNot8Gate  = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
	GUIDNot16Gate = "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6e"
	GUIDNot64Gate = "3c4d5e6f-7a8b-4c9d-0e1f-2a3b4c5d6e7f"

	GUIDDemux8Uint8 = "4d5e6f7a-8b9c-4d0e-1f2a-3b4c5d6e7f8a"
	GUIDMux         = "d60f2daf-9709-42d6-ba92-b76f641eb930"
)

// andGateMaxInputs bounds each gate size, matching the original source's
// N-bit family (8/16/64 input gates).
var andGateMaxInputs = map[string]int{
	GUIDAnd8Gate:  8,
	GUIDAnd16Gate: 16,
	GUIDAnd64Gate: 64,
}

var notGateMaxInputs = map[string]int{
	GUIDNot8Gate:  8,
	GUIDNot16Gate: 16,
	GUIDNot64Gate: 64,
}

// AndGate ANDs up to N boolean inputs, producing up to 2 outputs (the AND
// result and, optionally, its complement per each output's negate flag). If
// any input is invalid, every output is invalidated instead — not an error.
type AndGate struct {
	component.Base
	inputs  []component.Ref
	outputs []component.Ref
	negate  []bool
}

func newAndGate(typeGUID string, raw []byte) (*AndGate, *fxterr.Error) {
	inputs, outputs, negate, _, ferr := component.ParseRefs(raw, 1, andGateMaxInputs[typeGUID], 1, 2)
	if ferr != nil {
		return nil, ferr
	}
	return &AndGate{
		Base:    component.NewBase(typeGUID, "Fxt::Component::Digital::AndGate"),
		inputs:  inputs,
		outputs: outputs,
		negate:  negate,
	}, nil
}

func (g *AndGate) ResolveReferences(db *point.Database) *fxterr.Error {
	return resolveBoolRefs(db, g.inputs, g.outputs, &g.Base)
}

func (g *AndGate) Start(t0 int64) *fxterr.Error { return nil }
func (g *AndGate) Stop()                        {}

func (g *AndGate) Execute(tNow int64) *fxterr.Error {
	result := true
	for _, in := range g.inputs {
		v, valid := in.Point().(*point.ScalarPoint[bool]).Read()
		if !valid {
			invalidateOutputs(g.outputs)
			return nil
		}
		result = result && v
	}
	for i, out := range g.outputs {
		final := result
		if g.negate[i] {
			final = !result
		}
		out.Point().(*point.ScalarPoint[bool]).Write(final, point.NoRequest)
	}
	return nil
}

// NotGate logically complements a single boolean input across up to N
// outputs (the per-output negate flag lets an output pass the input
// through unchanged instead, matching the gate family's shared
// negate-qualifier convention).
type NotGate struct {
	component.Base
	input   component.Ref
	outputs []component.Ref
	negate  []bool
}

func newNotGate(typeGUID string, raw []byte) (*NotGate, *fxterr.Error) {
	inputs, outputs, negate, _, ferr := component.ParseRefs(raw, 1, 1, 1, notGateMaxInputs[typeGUID])
	if ferr != nil {
		return nil, ferr
	}
	return &NotGate{
		Base:    component.NewBase(typeGUID, "Fxt::Component::Digital::NotGate"),
		input:   inputs[0],
		outputs: outputs,
		negate:  negate,
	}, nil
}

func (g *NotGate) ResolveReferences(db *point.Database) *fxterr.Error {
	inputs := []component.Ref{g.input}
	ferr := resolveBoolRefs(db, inputs, g.outputs, &g.Base)
	g.input = inputs[0]
	return ferr
}

func (g *NotGate) Start(t0 int64) *fxterr.Error { return nil }
func (g *NotGate) Stop()                        {}

func (g *NotGate) Execute(tNow int64) *fxterr.Error {
	v, valid := g.input.Point().(*point.ScalarPoint[bool]).Read()
	if !valid {
		invalidateOutputs(g.outputs)
		return nil
	}
	for i, out := range g.outputs {
		final := !v
		if g.negate[i] {
			final = v
		}
		out.Point().(*point.ScalarPoint[bool]).Write(final, point.NoRequest)
	}
	return nil
}

func resolveBoolRefs(db *point.Database, inputs, outputs []component.Ref, base *component.Base) *fxterr.Error {
	for i := range inputs {
		if ferr := inputs[i].Resolve(db, point.GUIDBool); ferr != nil {
			return base.Latch(ferr)
		}
	}
	for i := range outputs {
		if ferr := outputs[i].Resolve(db, point.GUIDBool); ferr != nil {
			return base.Latch(ferr)
		}
	}
	return nil
}

func invalidateOutputs(outputs []component.Ref) {
	for _, out := range outputs {
		out.Point().SetInvalid(point.NoRequest)
	}
}

// Register installs every digital-family Constructor into f.
func Register(f *component.Factory) {
	for guid := range andGateMaxInputs {
		g := guid
		f.Register(g, func(raw []byte, _, _ *arena.Arena) (component.Component, *fxterr.Error) {
			return newAndGate(g, raw)
		})
	}
	for guid := range notGateMaxInputs {
		g := guid
		f.Register(g, func(raw []byte, _, _ *arena.Arena) (component.Component, *fxterr.Error) {
			return newNotGate(g, raw)
		})
	}
	f.Register(GUIDDemux8Uint8, func(raw []byte, _, _ *arena.Arena) (component.Component, *fxterr.Error) {
		return newDemux8Uint8(raw)
	})
	f.Register(GUIDMux, func(raw []byte, _, _ *arena.Arena) (component.Component, *fxterr.Error) {
		return newMux(raw)
	})
}
