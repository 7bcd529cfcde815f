package point

import "github.com/foxtail-io/fxtnode/fxterr"

// Database is the dense mapping from a stable 32-bit Point ID to a Point
// reference, up to a configuration-time maximum. Lookup is O(1).
type Database struct {
	max   ID
	slots []Point
	order []ID // registration order, for rollback on half-built Node failure
}

// NewDatabase returns a Database accepting IDs in [0, max).
func NewDatabase(max ID) *Database {
	return &Database{max: max, slots: make([]Point, max)}
}

// Add registers p under id. It fails on a duplicate or out-of-range ID,
// leaving the Database unchanged.
func (d *Database) Add(id ID, p Point) *fxterr.Error {
	if id >= d.max {
		return ErrOutOfRange.Withf("id %d >= max %d", id, d.max)
	}
	if d.slots[id] != nil {
		return ErrDuplicateID.Withf("id %d already registered", id)
	}
	d.slots[id] = p
	d.order = append(d.order, id)
	return nil
}

// Lookup returns the Point registered under id, or nil if none.
func (d *Database) Lookup(id ID) Point {
	if id >= d.max {
		return nil
	}
	return d.slots[id]
}

// Mark returns a rollback point for the current registration log, taken
// before beginning a construction phase that might fail partway through.
func (d *Database) Mark() int { return len(d.order) }

// CleanupPointsAfterNodeCreateFailure invalidates every entry registered
// since mark, rolling the Database back to the state it had at that mark.
func (d *Database) CleanupPointsAfterNodeCreateFailure(mark int) {
	if mark < 0 || mark > len(d.order) {
		return
	}
	for i := mark; i < len(d.order); i++ {
		d.slots[d.order[i]] = nil
	}
	d.order = d.order[:mark]
}

// ClearPoints removes every registered entry.
func (d *Database) ClearPoints() {
	for _, id := range d.order {
		d.slots[id] = nil
	}
	d.order = nil
}

// ForEach invokes fn for every registered Point in ascending ID order.
func (d *Database) ForEach(fn func(ID, Point)) {
	for id, p := range d.slots {
		if p != nil {
			fn(ID(id), p)
		}
	}
}

// Len reports how many Points are currently registered.
func (d *Database) Len() int { return len(d.order) }
