package digital

import (
	"encoding/json"

	"github.com/foxtail-io/fxtnode/component"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/point"
)

// Demux8Uint8 splits a single uint8 input into up to 8 boolean output bits
// (bit 0 = least significant), each with its own negate qualifier. If the
// input is invalid every output is invalidated instead of being written.
type Demux8Uint8 struct {
	component.Base
	input      component.Ref
	outputs    []component.Ref
	bitOffsets []int
	negate     []bool
}

type demuxOutputDescriptor struct {
	Type   string   `json:"type"`
	IDRef  point.ID `json:"idRef"`
	Bit    int      `json:"bit"`
	Negate bool     `json:"negate"`
}

func newDemux8Uint8(raw []byte) (*Demux8Uint8, *fxterr.Error) {
	var d struct {
		Inputs  []json.RawMessage       `json:"inputs"`
		Outputs []demuxOutputDescriptor `json:"outputs"`
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, component.ErrBadJSON.With(err)
	}
	if len(d.Inputs) != 1 {
		return nil, component.ErrTooManyInputs.Withf("demux requires exactly 1 input, got %d", len(d.Inputs))
	}
	if len(d.Outputs) == 0 || len(d.Outputs) > 8 {
		return nil, component.ErrTooManyOutputs.Withf("demux8 supports 1-8 outputs, got %d", len(d.Outputs))
	}

	var inDesc struct {
		IDRef point.ID `json:"idRef"`
	}
	if err := json.Unmarshal(d.Inputs[0], &inDesc); err != nil {
		return nil, component.ErrBadJSON.With(err)
	}

	demux := &Demux8Uint8{
		Base:       component.NewBase(GUIDDemux8Uint8, "Fxt::Component::Digital::Demux8Uint8"),
		input:      component.UnresolvedRef(inDesc.IDRef),
		outputs:    make([]component.Ref, len(d.Outputs)),
		bitOffsets: make([]int, len(d.Outputs)),
		negate:     make([]bool, len(d.Outputs)),
	}
	for i, out := range d.Outputs {
		if out.Bit < 0 || out.Bit >= 8 {
			return nil, fxterr.Code(fxterr.CategoryComponent, 7, "DEMUX_INVALID_BIT_OFFSET").Withf("bit %d", out.Bit)
		}
		demux.outputs[i] = component.UnresolvedRef(out.IDRef)
		demux.bitOffsets[i] = out.Bit
		demux.negate[i] = out.Negate
	}
	return demux, nil
}

func (d *Demux8Uint8) ResolveReferences(db *point.Database) *fxterr.Error {
	if ferr := d.input.Resolve(db, point.GUIDUint8); ferr != nil {
		return d.Latch(ferr)
	}
	return resolveBoolRefs(db, nil, d.outputs, &d.Base)
}

func (d *Demux8Uint8) Start(t0 int64) *fxterr.Error { return nil }
func (d *Demux8Uint8) Stop()                        {}

func (d *Demux8Uint8) Execute(tNow int64) *fxterr.Error {
	v, valid := d.input.Point().(*point.ScalarPoint[uint8]).Read()
	if !valid {
		invalidateOutputs(d.outputs)
		return nil
	}
	for i, out := range d.outputs {
		bit := (v>>uint(d.bitOffsets[i]))&0x01 != 0
		if d.negate[i] {
			bit = !bit
		}
		out.Point().(*point.ScalarPoint[bool]).Write(bit, point.NoRequest)
	}
	return nil
}

// Mux packs up to 8 boolean inputs (each with an optional negate and bit
// offset) into a single uint8 output. If any input is invalid the output
// is invalidated instead.
type Mux struct {
	component.Base
	inputs     []component.Ref
	bitOffsets []int
	negate     []bool
	output     component.Ref
}

type muxInputDescriptor struct {
	Type   string   `json:"type"`
	IDRef  point.ID `json:"idRef"`
	Bit    int      `json:"bit"`
	Negate bool     `json:"negate"`
}

func newMux(raw []byte) (*Mux, *fxterr.Error) {
	var d struct {
		Inputs  []muxInputDescriptor `json:"inputs"`
		Outputs []json.RawMessage    `json:"outputs"`
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, component.ErrBadJSON.With(err)
	}
	if len(d.Inputs) == 0 || len(d.Inputs) > 8 {
		return nil, component.ErrTooManyInputs.Withf("mux supports 1-8 inputs, got %d", len(d.Inputs))
	}
	if len(d.Outputs) != 1 {
		return nil, component.ErrTooManyOutputs.Withf("mux requires exactly 1 output, got %d", len(d.Outputs))
	}

	var outDesc struct {
		IDRef point.ID `json:"idRef"`
	}
	if err := json.Unmarshal(d.Outputs[0], &outDesc); err != nil {
		return nil, component.ErrBadJSON.With(err)
	}

	mux := &Mux{
		Base:       component.NewBase(GUIDMux, "Fxt::Component::Digital::Mux"),
		inputs:     make([]component.Ref, len(d.Inputs)),
		bitOffsets: make([]int, len(d.Inputs)),
		negate:     make([]bool, len(d.Inputs)),
		output:     component.UnresolvedRef(outDesc.IDRef),
	}
	for i, in := range d.Inputs {
		if in.Bit < 0 || in.Bit >= 8 {
			return nil, fxterr.Code(fxterr.CategoryComponent, 7, "MUX_INVALID_BIT_OFFSET").Withf("bit %d", in.Bit)
		}
		mux.inputs[i] = component.UnresolvedRef(in.IDRef)
		mux.bitOffsets[i] = in.Bit
		mux.negate[i] = in.Negate
	}
	return mux, nil
}

func (m *Mux) ResolveReferences(db *point.Database) *fxterr.Error {
	if ferr := resolveBoolRefs(db, m.inputs, nil, &m.Base); ferr != nil {
		return ferr
	}
	if ferr := m.output.Resolve(db, point.GUIDUint8); ferr != nil {
		return m.Latch(ferr)
	}
	return nil
}

func (m *Mux) Start(t0 int64) *fxterr.Error { return nil }
func (m *Mux) Stop()                        {}

func (m *Mux) Execute(tNow int64) *fxterr.Error {
	var result uint8
	for i, in := range m.inputs {
		v, valid := in.Point().(*point.ScalarPoint[bool]).Read()
		if !valid {
			m.output.Point().SetInvalid(point.NoRequest)
			return nil
		}
		if m.negate[i] {
			v = !v
		}
		if v {
			result |= 1 << uint(m.bitOffsets[i])
		}
	}
	m.output.Point().(*point.ScalarPoint[uint8]).Write(result, point.NoRequest)
	return nil
}
