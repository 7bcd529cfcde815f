// Package mock implements an in-memory Card with no real IO, used by tests
// and by the end-to-end Testable Property scenarios that don't need actual
// hardware. Grounded on the original source's Card/HW/Mock/Digital(8).cpp
// pattern and the teacher's own MockClient test double in
// localio/manager_test.go.
package mock

import (
	"github.com/foxtail-io/fxtnode/bank"
	"github.com/foxtail-io/fxtnode/card"
	"github.com/foxtail-io/fxtnode/fxterr"
)

const TypeGUID = "d4b6a1f0-9c2e-4a3b-8f7d-1e2c3a4b5c6d"
const TypeName = "mock"

// Card is a Card whose register Banks are plain in-process Banks: Start
// applies setters, ScanInputs/FlushOutputs just run the base copy (there is
// no hardware transport to populate/drain from).
type Card struct {
	*card.Base
}

// New constructs a mock Card over already-built register/virtual Bank
// pairs. Tests typically populate registerInputs directly to simulate
// hardware state, then call ScanInputs to observe it propagate.
func New(slot int, id string, registerInputs, virtualInputs, virtualOutputs, registerOutputs *bank.Bank) *Card {
	return &Card{Base: card.NewBase(slot, id, TypeGUID, TypeName, registerInputs, virtualInputs, virtualOutputs, registerOutputs)}
}

// Start applies each IO-register Point's setter to establish initial
// register state, then transitions to started iff no prior error, per the
// Card contract's Start behavior.
func (c *Card) Start(t0 int64) bool {
	if c.ErrorCode() != nil {
		return false
	}
	for _, p := range c.RegisterInputs().Points() {
		if p.HasSetter() {
			p.UpdateFromSetter(0)
		}
	}
	for _, p := range c.RegisterOutputs().Points() {
		if p.HasSetter() {
			p.UpdateFromSetter(0)
		}
	}
	return c.MarkStarted()
}

func (c *Card) Stop() { c.MarkStopped() }

func (c *Card) ScanInputs(tNow int64) bool   { return c.Base.ScanInputs() }
func (c *Card) FlushOutputs(tNow int64) bool { return c.Base.FlushOutputs() }

// Register installs this mock driver's Constructor into fd.
func Register(fd *card.FactoryDatabase) {
	fd.Register(TypeGUID, func(slot int, id string, _ []byte, registerInputs, virtualInputs, virtualOutputs, registerOutputs *bank.Bank) (card.Card, *fxterr.Error) {
		return New(slot, id, registerInputs, virtualInputs, virtualOutputs, registerOutputs), nil
	})
}
