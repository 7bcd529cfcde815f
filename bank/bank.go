// Package bank implements Bank: an ordered collection of Points whose
// stateful memory (value + valid/locked flags) is treated as one
// contiguous slab for bulk copy, per the specification's Bank contract.
//
// Two Banks are layout-equivalent iff their Point sequences name identical
// type GUIDs in the same order — the only precondition for a bulk copy.
// This implementation copies per-Point rather than assuming the Points'
// underlying arena slices are physically adjacent; that is bit-for-bit
// equivalent to a single memcpy across a truly contiguous slab (each
// Point's slot is itself a contiguous run of header+value bytes) and does
// not depend on construction order the way a raw pointer into the arena
// would.
package bank

import (
	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/point"
)

var (
	ErrSizeMismatch   = fxterr.Code(fxterr.CategoryBank, 1, "SIZE_MISMATCH")
	ErrLayoutMismatch = fxterr.Code(fxterr.CategoryBank, 2, "LAYOUT_MISMATCH")
)

// Bank is a contiguous-in-spirit slab of Point stateful memory plus the
// ordered list of Points that own it.
type Bank struct {
	points []point.Point
}

// New returns an empty Bank.
func New() *Bank { return &Bank{} }

// CreatePoint parses a point descriptor, builds the concrete Point via fd,
// allocates its stateful memory from statefulArena (charging genArena for
// the structural object), registers it in dbForPoints, and appends it to
// the Bank's owned Point list.
func (b *Bank) CreatePoint(fd *point.FactoryDatabase, descriptorJSON []byte, genArena, statefulArena *arena.Arena, dbForPoints *point.Database) (point.Point, *fxterr.Error) {
	p, ferr := point.CreatePointFromJSON(descriptorJSON, fd, genArena, statefulArena, dbForPoints)
	if ferr != nil {
		return nil, ferr
	}
	b.points = append(b.points, p)
	return p, nil
}

// Points returns the Bank's owned Points in insertion order. The returned
// slice must not be mutated by the caller.
func (b *Bank) Points() []point.Point { return b.points }

// GetStatefulAllocatedSize returns the sum of every owned Point's stateful
// size.
func (b *Bank) GetStatefulAllocatedSize() int {
	total := 0
	for _, p := range b.points {
		total += p.StatefulSize()
	}
	return total
}

// GetStartOfStatefulMemory returns a snapshot of the Bank's stateful memory,
// concatenated in Point order, for external bulk read (e.g. an HA
// collaborator taking a point-in-time copy). It is a copy, not a live view;
// mutating it has no effect on the Bank.
func (b *Bank) GetStartOfStatefulMemory() []byte {
	out := make([]byte, 0, b.GetStatefulAllocatedSize())
	for _, p := range b.points {
		out = append(out, pointSlotBytes(p)...)
	}
	return out
}

// CopyStatefulMemoryTo writes a bit-exact copy of the Bank's stateful
// memory into dst, which must be exactly GetStatefulAllocatedSize() bytes
// (bounded by maxDstSizeInBytes).
func (b *Bank) CopyStatefulMemoryTo(dst []byte, maxDstSizeInBytes int) bool {
	size := b.GetStatefulAllocatedSize()
	if size > maxDstSizeInBytes || len(dst) != size {
		return false
	}
	offset := 0
	for _, p := range b.points {
		sb := pointSlotBytes(p)
		copy(dst[offset:offset+len(sb)], sb)
		offset += len(sb)
	}
	return true
}

// CopyStatefulMemoryFromBytes overwrites the Bank's stateful memory from
// src, which must exactly match GetStatefulAllocatedSize() in length.
func (b *Bank) CopyStatefulMemoryFromBytes(src []byte) bool {
	if len(src) != b.GetStatefulAllocatedSize() {
		return false
	}
	offset := 0
	for _, p := range b.points {
		sb := pointSlotBytes(p)
		copy(sb, src[offset:offset+len(sb)])
		offset += len(sb)
	}
	return true
}

// IsLayoutEquivalentTo reports whether other names identical type GUIDs in
// the same order as this Bank — the only precondition for bulk copy.
func (b *Bank) IsLayoutEquivalentTo(other *Bank) bool {
	if len(b.points) != len(other.points) {
		return false
	}
	for i, p := range b.points {
		if p.TypeGUID() != other.points[i].TypeGUID() {
			return false
		}
	}
	return true
}

// CopyStatefulMemoryFrom performs a bit-exact block copy from src into this
// Bank. It requires src to be layout-equivalent to this Bank; otherwise it
// fails without mutating this Bank.
func (b *Bank) CopyStatefulMemoryFrom(src *Bank) *fxterr.Error {
	if !b.IsLayoutEquivalentTo(src) {
		return ErrLayoutMismatch.Withf("%d points vs %d points, or type GUID sequence differs", len(b.points), len(src.points))
	}
	for i, p := range b.points {
		copy(pointSlotBytes(p), pointSlotBytes(src.points[i]))
	}
	return nil
}

func pointSlotBytes(p point.Point) []byte { return p.SlotBytes() }
