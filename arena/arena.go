// Package arena implements the bump allocator backing every Node: general
// (structure), card-stateful (IO-register/internal Card slots), and
// HA-stateful (virtual-output, shared, auto, and component-internal slots),
// per the ownership summary in the specification's data model section.
//
// An Arena never frees piecewise, matching the "bumped, never freed
// individually" lifetime rule. Memory is released only wholesale by Reset or
// by Truncate back to a Mark when a Node build fails; Node itself never
// calls Reset.
package arena

import "github.com/foxtail-io/fxtnode/fxterr"

var (
	// ErrExhausted is returned by Alloc when the arena has no room left for
	// the requested size.
	ErrExhausted = fxterr.Code(fxterr.CategoryNode, 1, "ARENA_EXHAUSTED")
)

// Arena is a fixed-capacity bump allocator over a single backing slice.
// It is not safe for concurrent use; all allocation happens during
// single-threaded Node construction.
type Arena struct {
	buf    []byte
	offset int
}

// New returns an Arena with capacity bytes pre-allocated.
func New(capacity int) *Arena {
	return &Arena{buf: make([]byte, capacity)}
}

// Alloc reserves n zeroed bytes and returns a slice aliasing the arena's
// backing array. The slice is valid until the Arena is Reset.
func (a *Arena) Alloc(n int) ([]byte, *fxterr.Error) {
	if n < 0 {
		n = 0
	}
	if a.offset+n > len(a.buf) {
		return nil, ErrExhausted.Withf("requested %d bytes, %d available", n, len(a.buf)-a.offset)
	}
	start := a.offset
	a.offset += n
	return a.buf[start:a.offset:a.offset], nil
}

// Used reports how many bytes have been bumped out of the arena so far.
func (a *Arena) Used() int { return a.offset }

// Capacity reports the arena's total size.
func (a *Arena) Capacity() int { return len(a.buf) }

// Reset bumps the allocation pointer back to zero, invalidating every slice
// previously returned by Alloc. Node does not call it.
func (a *Arena) Reset() {
	a.offset = 0
	for i := range a.buf {
		a.buf[i] = 0
	}
}

// Mark returns the current bump offset, to be passed to Truncate later.
// Used by two-phase configuration parsing: a half-built Node can roll its
// general arena back to a mark taken before the failed phase began.
func (a *Arena) Mark() int { return a.offset }

// Truncate resets the bump offset back to a previously recorded Mark,
// releasing everything allocated since. It must only be used to unwind a
// construction failure before any of the reclaimed region has been handed
// to a long-lived object that survived the failure.
func (a *Arena) Truncate(mark int) {
	if mark < 0 || mark > a.offset {
		return
	}
	for i := mark; i < a.offset; i++ {
		a.buf[i] = 0
	}
	a.offset = mark
}
