package point

import (
	"encoding/json"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/fxterr"
)

// Constructor builds a concrete Point from its JSON descriptor. raw is the
// whole point descriptor (not just "initial"), so a constructor can read
// type-specific fields (e.g. a fixed array's "length").
type Constructor func(id ID, name string, raw json.RawMessage) (Point, *fxterr.Error)

// defaultFactories holds the Constructors every concrete Point type in this
// package registers at module init, mirroring the original source's static
// FactoryDatabase population.
var defaultFactories = map[string]Constructor{}

func registerDefault(guid string, ctor Constructor) { defaultFactories[guid] = ctor }

func init() {
	registerDefault(GUIDBool, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewBoolPoint(id, name), nil
	})
	registerDefault(GUIDInt8, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewInt8Point(id, name), nil
	})
	registerDefault(GUIDInt16, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewInt16Point(id, name), nil
	})
	registerDefault(GUIDInt32, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewInt32Point(id, name), nil
	})
	registerDefault(GUIDInt64, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewInt64Point(id, name), nil
	})
	registerDefault(GUIDUint8, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewUint8Point(id, name), nil
	})
	registerDefault(GUIDUint16, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewUint16Point(id, name), nil
	})
	registerDefault(GUIDUint32, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewUint32Point(id, name), nil
	})
	registerDefault(GUIDUint64, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewUint64Point(id, name), nil
	})
	registerDefault(GUIDFloat32, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewFloat32Point(id, name), nil
	})
	registerDefault(GUIDFloat64, func(id ID, name string, _ json.RawMessage) (Point, *fxterr.Error) {
		return NewFloat64Point(id, name), nil
	})
	registerDefault(GUIDInt32Array, func(id ID, name string, raw json.RawMessage) (Point, *fxterr.Error) {
		var d struct {
			Length int `json:"length"`
		}
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, ErrMalformedInitial.With(err)
		}
		if d.Length <= 0 {
			return nil, ErrMalformedInitial.Withf("%s requires a positive \"length\" field", GUIDInt32Array)
		}
		return NewInt32ArrayPoint(id, name, d.Length), nil
	})
}

// FactoryDatabase maps a Point type GUID to the Constructor used to build
// that type from a JSON descriptor.
type FactoryDatabase struct {
	factories map[string]Constructor
}

// NewFactoryDatabase returns a FactoryDatabase pre-populated with every
// concrete Point type this package defines. Callers may Register additional
// application-specific types (e.g. Component-internal stateful Point kinds)
// before building a Node.
func NewFactoryDatabase() *FactoryDatabase {
	fd := &FactoryDatabase{factories: make(map[string]Constructor, len(defaultFactories))}
	for guid, ctor := range defaultFactories {
		fd.factories[guid] = ctor
	}
	return fd
}

// Register adds or replaces the Constructor for typeGUID.
func (fd *FactoryDatabase) Register(typeGUID string, ctor Constructor) {
	fd.factories[typeGUID] = ctor
}

// descriptor is the wire shape of a point descriptor, per the node
// configuration format: { id, type, name?, initial?: {val?, valid?, id} }.
type descriptor struct {
	ID      ID              `json:"id"`
	Type    string          `json:"type"`
	Name    string          `json:"name,omitempty"`
	Initial json.RawMessage `json:"initial,omitempty"`
}

type initialDescriptor struct {
	ID ID `json:"id"`
}

// nominalStructSize is the accounting unit charged against the general
// arena per structural object created. Go's GC owns the actual Point
// struct; the arena charge exists only so general-arena exhaustion is still
// detectable the way the specification's budgeted arenas require.
const nominalStructSize = 64

// CreatePointFromJSON parses a point descriptor, constructs the concrete
// Point via the registered factory, allocates its stateful memory from
// statefulArena, registers it in db, and — if the descriptor carries an
// "initial" sub-object — constructs and wires a paired setter Point from
// the same factory.
func CreatePointFromJSON(raw []byte, fd *FactoryDatabase, genArena, statefulArena *arena.Arena, db *Database) (Point, *fxterr.Error) {
	var desc descriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, ErrBadJSON.With(err)
	}

	ctor, ok := fd.factories[desc.Type]
	if !ok {
		return nil, ErrUnknownTypeGUID.Withf("%s", desc.Type)
	}

	p, ferr := ctor(desc.ID, desc.Name, raw)
	if ferr != nil {
		return nil, ferr
	}

	if ferr := allocateStateful(p, genArena, statefulArena); ferr != nil {
		return nil, ferr
	}

	if ferr := db.Add(desc.ID, p); ferr != nil {
		return nil, ferr
	}

	if len(desc.Initial) > 0 {
		var initDesc initialDescriptor
		if err := json.Unmarshal(desc.Initial, &initDesc); err != nil {
			return nil, ErrMalformedInitial.With(err)
		}

		setter, ferr := ctor(initDesc.ID, desc.Name+".initial", raw)
		if ferr != nil {
			return nil, ferr
		}
		if ferr := allocateStateful(setter, genArena, statefulArena); ferr != nil {
			return nil, ferr
		}
		if ferr := db.Add(initDesc.ID, setter); ferr != nil {
			return nil, ferr
		}
		if ferr := setter.FromJSON(desc.Initial, NoRequest); ferr != nil {
			return nil, ferr
		}
		p.SetSetter(setter)
	}

	return p, nil
}

// BindStateful allocates p's stateful memory from a and binds it, without
// registering p in any Database. Components use this to create their own
// internal stateful Points (per §4.6 "stateful components") directly in
// the HA-stateful arena, bypassing the JSON descriptor path entirely since
// these Points are never addressed by idRef.
func BindStateful(p Point, a *arena.Arena) *fxterr.Error {
	mem, aerr := a.Alloc(p.StatefulSize())
	if aerr != nil {
		return fxterr.Code(fxterr.CategoryPoint, 9, "STATEFUL_ARENA_EXHAUSTED").With(aerr)
	}
	p.bindSlot(mem)
	return nil
}

func allocateStateful(p Point, genArena, statefulArena *arena.Arena) *fxterr.Error {
	if _, aerr := genArena.Alloc(nominalStructSize); aerr != nil {
		return fxterr.Code(fxterr.CategoryPoint, 8, "GENERAL_ARENA_EXHAUSTED").With(aerr)
	}
	mem, aerr := statefulArena.Alloc(p.StatefulSize())
	if aerr != nil {
		return fxterr.Code(fxterr.CategoryPoint, 9, "STATEFUL_ARENA_EXHAUSTED").With(aerr)
	}
	p.bindSlot(mem)
	return nil
}
