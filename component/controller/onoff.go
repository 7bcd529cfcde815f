// Package controller implements Controller.OnOff: a stateful hysteresis
// on/off controller with minimum on/off dwell times, grounded on
// Component/Controller/OnOff.h.
package controller

import (
	"encoding/json"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/component"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/point"
)

const GUIDOnOff = "fec7f73f-982b-4adb-a6c7-837a457b2822"

// config is the parsed JSON shape: PV/SP required, HON/HOFF/MON/MOFF/RST
// optional, O/"not O" outputs (1 or 2).
type config struct {
	PV, SP, HON, HOFF, MON, MOFF, RST *point.ID
	Outputs                           []point.ID
}

type varRef struct {
	Var   string   `json:"var"`
	Type  string   `json:"type"`
	IDRef point.ID `json:"idRef"`
}

func parseConfig(raw []byte) (config, *fxterr.Error) {
	var d struct {
		Inputs  []varRef `json:"inputs"`
		Outputs []varRef `json:"outputs"`
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return config{}, component.ErrBadJSON.With(err)
	}

	var c config
	for _, in := range d.Inputs {
		id := in.IDRef
		switch in.Var {
		case "PV":
			c.PV = &id
		case "SP":
			c.SP = &id
		case "HON":
			c.HON = &id
		case "HOFF":
			c.HOFF = &id
		case "MON":
			c.MON = &id
		case "MOFF":
			c.MOFF = &id
		case "RST":
			c.RST = &id
		}
	}
	if c.PV == nil || c.SP == nil {
		return config{}, fxterr.Code(fxterr.CategoryComponent, 9, "MISSING_REQUIRED_FIELD").Withf("OnOff requires PV and SP inputs")
	}
	if len(d.Outputs) == 0 || len(d.Outputs) > 2 {
		return config{}, component.ErrTooManyOutputs.Withf("OnOff supports 1-2 outputs, got %d", len(d.Outputs))
	}
	for _, out := range d.Outputs {
		c.Outputs = append(c.Outputs, out.IDRef)
	}
	return c, nil
}

// OnOff is a hysteresis on/off controller: turns on when PV > SP+HON (after
// MON elapsed since the last transition), off when PV < SP-HOFF (after
// MOFF). A rising edge on RST resets to the initial state
// (state = PV > SP). Outputs are invalidated, not written, if any required
// input is invalid.
type OnOff struct {
	component.Base
	cfg config

	pv, sp, hon, hoff component.Ref
	mon, moff         component.Ref
	rst               component.Ref
	outputs           []component.Ref
	negate            []bool

	// internal stateful Points, per §4.6 "stateful components"
	state     *point.ScalarPoint[bool]
	timerMark *point.ScalarPoint[uint64]
	prevReset *point.ScalarPoint[bool]
}

func newOnOff(raw []byte, haArena *arena.Arena) (*OnOff, *fxterr.Error) {
	cfg, ferr := parseConfig(raw)
	if ferr != nil {
		return nil, ferr
	}

	c := &OnOff{
		Base:    component.NewBase(GUIDOnOff, "Fxt::Component::Controller::OnOff"),
		cfg:     cfg,
		pv:      component.UnresolvedRef(*cfg.PV),
		sp:      component.UnresolvedRef(*cfg.SP),
		outputs: make([]component.Ref, len(cfg.Outputs)),
		negate:  make([]bool, len(cfg.Outputs)),
	}
	if cfg.HON != nil {
		c.hon = component.UnresolvedRef(*cfg.HON)
	}
	if cfg.HOFF != nil {
		c.hoff = component.UnresolvedRef(*cfg.HOFF)
	}
	if cfg.MON != nil {
		c.mon = component.UnresolvedRef(*cfg.MON)
	}
	if cfg.MOFF != nil {
		c.moff = component.UnresolvedRef(*cfg.MOFF)
	}
	if cfg.RST != nil {
		c.rst = component.UnresolvedRef(*cfg.RST)
	}
	for i, id := range cfg.Outputs {
		c.outputs[i] = component.UnresolvedRef(id)
		c.negate[i] = i == 1 // by convention the second output is "/O"
	}

	c.state = point.NewBoolPoint(0, "state")
	c.timerMark = point.NewUint64Point(0, "timerMark")
	c.prevReset = point.NewBoolPoint(0, "prevReset")
	for _, p := range []point.Point{c.state, c.timerMark, c.prevReset} {
		if ferr := point.BindStateful(p, haArena); ferr != nil {
			return nil, ferr
		}
	}
	return c, nil
}

func (c *OnOff) ResolveReferences(db *point.Database) *fxterr.Error {
	if ferr := c.pv.Resolve(db, point.GUIDFloat64); ferr != nil {
		return c.Latch(ferr)
	}
	if ferr := c.sp.Resolve(db, point.GUIDFloat64); ferr != nil {
		return c.Latch(ferr)
	}
	if c.cfg.HON != nil {
		if ferr := c.hon.Resolve(db, point.GUIDFloat64); ferr != nil {
			return c.Latch(ferr)
		}
	}
	if c.cfg.HOFF != nil {
		if ferr := c.hoff.Resolve(db, point.GUIDFloat64); ferr != nil {
			return c.Latch(ferr)
		}
	}
	if c.cfg.MON != nil {
		if ferr := c.mon.Resolve(db, point.GUIDUint64); ferr != nil {
			return c.Latch(ferr)
		}
	}
	if c.cfg.MOFF != nil {
		if ferr := c.moff.Resolve(db, point.GUIDUint64); ferr != nil {
			return c.Latch(ferr)
		}
	}
	if c.cfg.RST != nil {
		if ferr := c.rst.Resolve(db, point.GUIDBool); ferr != nil {
			return c.Latch(ferr)
		}
	}
	for i := range c.outputs {
		if ferr := c.outputs[i].Resolve(db, point.GUIDBool); ferr != nil {
			return c.Latch(ferr)
		}
	}
	return nil
}

func (c *OnOff) Start(t0 int64) *fxterr.Error {
	pv, validPV := c.pv.Point().(*point.ScalarPoint[float64]).Read()
	sp, validSP := c.sp.Point().(*point.ScalarPoint[float64]).Read()
	initial := validPV && validSP && pv > sp
	c.state.Write(initial, point.NoRequest)
	c.timerMark.Write(uint64(t0), point.NoRequest)
	c.prevReset.Write(false, point.NoRequest)
	return nil
}

func (c *OnOff) Stop() {}

func (c *OnOff) Execute(tNow int64) *fxterr.Error {
	pv, validPV := c.pv.Point().(*point.ScalarPoint[float64]).Read()
	sp, validSP := c.sp.Point().(*point.ScalarPoint[float64]).Read()
	if !validPV || !validSP {
		for _, out := range c.outputs {
			out.Point().SetInvalid(point.NoRequest)
		}
		return nil
	}

	if c.rst.Resolved() {
		rst, _ := c.rst.Point().(*point.ScalarPoint[bool]).Read()
		prev, _ := c.prevReset.Read()
		if rst && !prev {
			c.state.Write(pv > sp, point.NoRequest)
			c.timerMark.Write(uint64(tNow), point.NoRequest)
		}
		c.prevReset.Write(rst, point.NoRequest)
	}

	hon := optionalFloat(c.hon)
	hoff := optionalFloat(c.hoff)
	mon := optionalUint64(c.mon)
	moff := optionalUint64(c.moff)

	state, _ := c.state.Read()
	mark, _ := c.timerMark.Read()
	elapsed := uint64(tNow) - mark

	if !state && pv > sp+hon && elapsed >= mon {
		state = true
		c.state.Write(true, point.NoRequest)
		c.timerMark.Write(uint64(tNow), point.NoRequest)
	} else if state && pv < sp-hoff && elapsed >= moff {
		state = false
		c.state.Write(false, point.NoRequest)
		c.timerMark.Write(uint64(tNow), point.NoRequest)
	}

	for i, out := range c.outputs {
		v := state
		if c.negate[i] {
			v = !state
		}
		out.Point().(*point.ScalarPoint[bool]).Write(v, point.NoRequest)
	}
	return nil
}

func optionalFloat(r component.Ref) float64 {
	if !r.Resolved() {
		return 0
	}
	v, _ := r.Point().(*point.ScalarPoint[float64]).Read()
	return v
}

func optionalUint64(r component.Ref) uint64 {
	if !r.Resolved() {
		return 0
	}
	v, _ := r.Point().(*point.ScalarPoint[uint64]).Read()
	return v
}

// Register installs Controller.OnOff into f.
func Register(f *component.Factory) {
	f.Register(GUIDOnOff, func(raw []byte, _, haArena *arena.Arena) (component.Component, *fxterr.Error) {
		return newOnOff(raw, haArena)
	})
}
