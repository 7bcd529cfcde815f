// Package component defines the Component capability interface and the
// Ref Point-reference type used by every concrete component, per the
// specification's Component contract.
package component

import (
	"encoding/json"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/point"
)

// Local error codes for the component category.
var (
	ErrUnresolvedReference = fxterr.Code(fxterr.CategoryComponent, 1, "UNRESOLVED_REFERENCE")
	ErrReferenceBadType    = fxterr.Code(fxterr.CategoryComponent, 2, "REFERENCE_BAD_TYPE")
	ErrBadJSON             = fxterr.Code(fxterr.CategoryComponent, 3, "MALFORMED_JSON")
	ErrUnknownTypeGUID     = fxterr.Code(fxterr.CategoryComponent, 4, "UNKNOWN_TYPE_GUID")
	ErrTooManyInputs       = fxterr.Code(fxterr.CategoryComponent, 5, "TOO_MANY_INPUT_POINTS")
	ErrTooManyOutputs      = fxterr.Code(fxterr.CategoryComponent, 6, "TOO_MANY_OUTPUT_POINTS")
)

// Ref is a Point reference slot: initially unresolved (holding only a raw
// Point ID, exactly as a JSON "idRef" names it), resolved once
// resolveReferences looks it up in the PointDatabase. This sum type
// replaces the original source's trick of stuffing a raw ID into a pointer
// slot until resolution — Go has no idiomatic equivalent of that cast, so
// Ref carries both states explicitly instead.
type Ref struct {
	id       point.ID
	resolved point.Point
}

// UnresolvedRef constructs a Ref naming id, not yet looked up.
func UnresolvedRef(id point.ID) Ref { return Ref{id: id} }

// Resolve looks id up in db, storing the result if found and its type GUID
// matches wantTypeGUID. It fails with ErrUnresolvedReference on a lookup
// miss or ErrReferenceBadType on a type mismatch, leaving the Ref
// unresolved either way.
func (r *Ref) Resolve(db *point.Database, wantTypeGUID string) *fxterr.Error {
	p := db.Lookup(r.id)
	if p == nil {
		return ErrUnresolvedReference.Withf("point id %d", r.id)
	}
	if p.TypeGUID() != wantTypeGUID {
		return ErrReferenceBadType.Withf("point id %d: want type %s, got %s", r.id, wantTypeGUID, p.TypeGUID())
	}
	r.resolved = p
	return nil
}

// Resolved reports whether Resolve has succeeded.
func (r *Ref) Resolved() bool { return r.resolved != nil }

// Point returns the resolved Point, or nil if still unresolved.
func (r *Ref) Point() point.Point { return r.resolved }

// ID returns the raw Point ID this Ref names, resolved or not.
func (r *Ref) ID() point.ID { return r.id }

// Component is the capability interface every concrete function block
// satisfies.
type Component interface {
	ResolveReferences(db *point.Database) *fxterr.Error
	Start(t0 int64) *fxterr.Error
	Execute(tNow int64) *fxterr.Error
	Stop()

	TypeGUID() string
	TypeName() string
	ErrorCode() *fxterr.Error
}

// Base carries the bookkeeping shared by every concrete Component: its
// type identity and latched error state.
type Base struct {
	typeGUID string
	typeName string
	err      *fxterr.Error
}

func NewBase(typeGUID, typeName string) Base { return Base{typeGUID: typeGUID, typeName: typeName} }

func (b *Base) TypeGUID() string         { return b.typeGUID }
func (b *Base) TypeName() string         { return b.typeName }
func (b *Base) ErrorCode() *fxterr.Error { return b.err }

// Latch records err as the component's error state if not already set,
// matching the "first error wins" latch idiom used throughout the
// execution substrate.
func (b *Base) Latch(err *fxterr.Error) *fxterr.Error {
	if b.err == nil {
		b.err = err
	}
	return b.err
}

// refDescriptor is the wire shape of one entry in a component's "inputs" or
// "outputs" array: { name?, type, typeName?, idRef, negate? }. negate is
// consumed by the Digital gate family; other component families ignore it.
type refDescriptor struct {
	Name   string   `json:"name,omitempty"`
	Type   string   `json:"type"`
	IDRef  point.ID `json:"idRef"`
	Negate bool     `json:"negate,omitempty"`
}

// descriptor is the common wire shape of a component JSON descriptor:
// { name?, type, typeName?, inputs: [...], outputs: [...] }.
type descriptor struct {
	Name    string          `json:"name,omitempty"`
	Type    string          `json:"type"`
	Inputs  []refDescriptor `json:"inputs"`
	Outputs []refDescriptor `json:"outputs"`
}

// ParseRefs is the shared descriptor-parsing helper every concrete
// component's constructor uses: it extracts the input/output Ref lists and
// (for gate-family components) their negate flags, bounds-checking against
// min/max per the specification's per-component input/output limits.
func ParseRefs(raw []byte, minIn, maxIn, minOut, maxOut int) (inputs, outputs []Ref, outNegate []bool, name string, ferr *fxterr.Error) {
	var d descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, nil, nil, "", ErrBadJSON.With(err)
	}
	if len(d.Inputs) < minIn || len(d.Inputs) > maxIn {
		return nil, nil, nil, "", ErrTooManyInputs.Withf("%d inputs, want [%d,%d]", len(d.Inputs), minIn, maxIn)
	}
	if len(d.Outputs) < minOut || len(d.Outputs) > maxOut {
		return nil, nil, nil, "", ErrTooManyOutputs.Withf("%d outputs, want [%d,%d]", len(d.Outputs), minOut, maxOut)
	}

	inputs = make([]Ref, len(d.Inputs))
	for i, in := range d.Inputs {
		inputs[i] = UnresolvedRef(in.IDRef)
	}
	outputs = make([]Ref, len(d.Outputs))
	outNegate = make([]bool, len(d.Outputs))
	for i, out := range d.Outputs {
		outputs[i] = UnresolvedRef(out.IDRef)
		outNegate[i] = out.Negate
	}
	return inputs, outputs, outNegate, d.Name, nil
}

// Constructor builds a concrete Component from its JSON descriptor,
// charging genArena for stateful internal Points it allocates (per §4.6
// "stateful components") from haArena.
type Constructor func(raw []byte, genArena, haArena *arena.Arena) (Component, *fxterr.Error)

// Factory maps a Component type GUID to its Constructor.
type Factory struct {
	factories map[string]Constructor
}

func NewFactory() *Factory { return &Factory{factories: make(map[string]Constructor)} }

func (f *Factory) Register(typeGUID string, ctor Constructor) { f.factories[typeGUID] = ctor }

func (f *Factory) Lookup(typeGUID string) (Constructor, bool) {
	ctor, ok := f.factories[typeGUID]
	return ctor, ok
}
