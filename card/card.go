// Package card defines the Card capability interface: a hardware (or
// simulated) IO module whose register state is exposed to the rest of a
// Chassis through a pair of Banks, per the specification's Card contract.
package card

import (
	"github.com/foxtail-io/fxtnode/bank"
	"github.com/foxtail-io/fxtnode/fxterr"
)

// Local error codes for the card category.
var (
	ErrBankSizeMismatch  = fxterr.Code(fxterr.CategoryCard, 1, "BANK_SIZE_MISMATCH")
	ErrTerminalState     = fxterr.Code(fxterr.CategoryCard, 2, "TERMINAL_ERROR_STATE")
	ErrTransport         = fxterr.Code(fxterr.CategoryCard, 3, "TRANSPORT_ERROR")
	ErrUnknownTypeGUID   = fxterr.Code(fxterr.CategoryCard, 4, "UNKNOWN_TYPE_GUID")
	ErrMalformedInitial  = fxterr.Code(fxterr.CategoryCard, 5, "MALFORMED_INITIAL_CONFIG")
)

// Card is the capability interface every IO module driver satisfies,
// whether a real transport (card/modbus) or a test double (card/mock).
type Card interface {
	Start(t0 int64) bool
	Stop()

	// ScanInputs block-copies the card's IO-register-inputs Bank into its
	// virtual-inputs Bank under the card's mutex. Driver code populates
	// IO-register-inputs from hardware outside the mutex.
	ScanInputs(tNow int64) bool

	// FlushOutputs block-copies the card's virtual-outputs Bank into its
	// IO-register-outputs Bank under the card's mutex. Driver code moves
	// IO-register-outputs to hardware under the same mutex.
	FlushOutputs(tNow int64) bool

	Slot() int
	ID() string
	TypeGUID() string
	TypeName() string
	ErrorCode() *fxterr.Error

	// VirtualInputs/VirtualOutputs are the Banks a Scanner's owning
	// Chassis wires into Components via Point references.
	VirtualInputs() *bank.Bank
	VirtualOutputs() *bank.Bank
}

// Base implements the scan/flush Bank copies and terminal-error latch
// shared by every concrete Card, per the specification's Scan/Flush
// algorithm and Failure semantics. Base holds no mutex: a driver whose
// register Banks are touched from another goroutine takes its own lock
// around the copies (card/modbus does; card/mock does not lock). Concrete
// drivers embed Base and supply their own hardware-facing
// Start/populate/drain hooks.
type Base struct {
	slot     int
	id       string
	typeGUID string
	typeName string

	registerInputs  *bank.Bank
	virtualInputs   *bank.Bank
	virtualOutputs  *bank.Bank
	registerOutputs *bank.Bank

	err     *fxterr.Error
	started bool
}

// NewBase validates that the register/virtual Bank pairs are layout
// equivalent (the Scan/Flush precondition) and returns a Base latched into
// a terminal error state if they are not, per Failure semantics.
func NewBase(slot int, id, typeGUID, typeName string, registerInputs, virtualInputs, virtualOutputs, registerOutputs *bank.Bank) *Base {
	b := &Base{
		slot: slot, id: id, typeGUID: typeGUID, typeName: typeName,
		registerInputs: registerInputs, virtualInputs: virtualInputs,
		virtualOutputs: virtualOutputs, registerOutputs: registerOutputs,
	}
	if !registerInputs.IsLayoutEquivalentTo(virtualInputs) || !virtualOutputs.IsLayoutEquivalentTo(registerOutputs) {
		b.err = ErrBankSizeMismatch
	}
	return b
}

func (b *Base) Slot() int              { return b.slot }
func (b *Base) ID() string             { return b.id }
func (b *Base) TypeGUID() string       { return b.typeGUID }
func (b *Base) TypeName() string       { return b.typeName }
func (b *Base) ErrorCode() *fxterr.Error { return b.err }

func (b *Base) VirtualInputs() *bank.Bank  { return b.virtualInputs }
func (b *Base) VirtualOutputs() *bank.Bank { return b.virtualOutputs }

// Started reports whether the card has passed Start without a terminal
// error. Concrete drivers consult this before touching hardware.
func (b *Base) Started() bool { return b.started }

// MarkStarted transitions to started, refusing if the card is already in a
// terminal error state, per Failure semantics.
func (b *Base) MarkStarted() bool {
	if b.err != nil {
		return false
	}
	b.started = true
	return true
}

func (b *Base) MarkStopped() { b.started = false }

// Latch records err as the card's terminal error state if not already set;
// the first error wins, matching the "first component to error" latch
// idiom used throughout the execution substrate.
func (b *Base) Latch(err *fxterr.Error) {
	if b.err == nil {
		b.err = err
	}
}

// ScanInputs performs the register-inputs → virtual-inputs copy; it is a
// no-op returning false if the card is not started.
func (b *Base) ScanInputs() bool {
	if !b.started {
		return false
	}
	if ferr := b.virtualInputs.CopyStatefulMemoryFrom(b.registerInputs); ferr != nil {
		b.Latch(ferr)
		return false
	}
	return true
}

// FlushOutputs performs the virtual-outputs → register-outputs copy; it is
// a no-op returning false if the card is not started.
func (b *Base) FlushOutputs() bool {
	if !b.started {
		return false
	}
	if ferr := b.registerOutputs.CopyStatefulMemoryFrom(b.virtualOutputs); ferr != nil {
		b.Latch(ferr)
		return false
	}
	return true
}

// RegisterInputs and RegisterOutputs expose the hardware-facing Banks to a
// concrete driver's populate/drain hooks, which run outside the card's
// own mutex except when touching the register slab itself (per the
// Scan/Flush algorithm's concurrency note).
func (b *Base) RegisterInputs() *bank.Bank  { return b.registerInputs }
func (b *Base) RegisterOutputs() *bank.Bank { return b.registerOutputs }

// Constructor builds a concrete Card from its JSON descriptor and
// pre-built Banks (a Scanner/Chassis owns Bank construction via the
// node descriptor's point lists; the Card only wires behavior over them).
type Constructor func(slot int, id string, raw []byte, registerInputs, virtualInputs, virtualOutputs, registerOutputs *bank.Bank) (Card, *fxterr.Error)

// FactoryDatabase maps a Card type GUID to its Constructor, mirroring
// point.FactoryDatabase.
type FactoryDatabase struct {
	factories map[string]Constructor
}

func NewFactoryDatabase() *FactoryDatabase {
	return &FactoryDatabase{factories: make(map[string]Constructor)}
}

func (fd *FactoryDatabase) Register(typeGUID string, ctor Constructor) {
	fd.factories[typeGUID] = ctor
}

func (fd *FactoryDatabase) Lookup(typeGUID string) (Constructor, bool) {
	ctor, ok := fd.factories[typeGUID]
	return ctor, ok
}
