// Package logicchain implements LogicChain: an ordered group of Components
// sharing connection and auto Points, per specification §4.7.
package logicchain

import (
	"github.com/foxtail-io/fxtnode/component"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/point"
)

var (
	ErrNoComponents  = fxterr.Code(fxterr.CategoryLogicChain, 1, "NO_COMPONENTS")
	ErrResolveFailed = fxterr.Code(fxterr.CategoryLogicChain, 2, "FAILED_POINT_RESOLVE")
	ErrExecuteFailed = fxterr.Code(fxterr.CategoryLogicChain, 3, "COMPONENT_EXECUTE_ERROR")
)

// LogicChain owns an ordered list of Components plus the chain's auto
// Points — Points re-seeded from their setter at the start of every
// execute, per §4.7. Connection Points (wiring between Components within
// the chain) live in the shared PointDatabase like any other Point and
// need no special handling here beyond being resolved through it.
type LogicChain struct {
	name       string
	id         int
	components []component.Component
	autoPoints []point.Point
	err        *fxterr.Error
}

// New builds a LogicChain from already-constructed Components and the
// chain's auto Points (already created and bound; wiring them is the
// caller's job since they come from the node descriptor's logicChain.autoPts
// list). A chain with no Components is latched into error immediately.
func New(name string, id int, components []component.Component, autoPoints []point.Point) *LogicChain {
	lc := &LogicChain{name: name, id: id, components: components, autoPoints: autoPoints}
	if len(components) == 0 {
		lc.err = ErrNoComponents
	}
	return lc
}

func (lc *LogicChain) Name() string                       { return lc.name }
func (lc *LogicChain) ID() int                            { return lc.id }
func (lc *LogicChain) Components() []component.Component { return lc.components }
func (lc *LogicChain) ErrorCode() *fxterr.Error           { return lc.err }

func (lc *LogicChain) Latch(err *fxterr.Error) {
	if lc.err == nil {
		lc.err = err
	}
}

// ResolveReferences resolves every Component's references in insertion
// order, aborting at the first failure.
func (lc *LogicChain) ResolveReferences(db *point.Database) *fxterr.Error {
	for _, c := range lc.components {
		if ferr := c.ResolveReferences(db); ferr != nil {
			lc.Latch(ErrResolveFailed.With(ferr))
			return lc.err
		}
	}
	return nil
}

// Start starts every Component in insertion order; refuses if the chain is
// already in a terminal error state.
func (lc *LogicChain) Start(t0 int64) bool {
	if lc.err != nil {
		return false
	}
	for _, c := range lc.components {
		if ferr := c.Start(t0); ferr != nil {
			lc.Latch(ferr)
			return false
		}
	}
	return true
}

func (lc *LogicChain) Stop() {
	for _, c := range lc.components {
		c.Stop()
	}
}

// Execute re-asserts every auto Point from its setter, then runs each
// Component's execute in insertion order. The first Component to error
// aborts the remaining Components and latches the chain's error, per
// §4.7.
func (lc *LogicChain) Execute(tNow int64) bool {
	if lc.err != nil {
		return false
	}
	for _, p := range lc.autoPoints {
		if p.HasSetter() {
			p.UpdateFromSetter(point.NoRequest)
		}
	}
	for _, c := range lc.components {
		if ferr := c.Execute(tNow); ferr != nil {
			lc.Latch(ErrExecuteFailed.With(ferr))
			return false
		}
	}
	return true
}
