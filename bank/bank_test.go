package bank

import (
	"fmt"
	"testing"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/point"
)

func descriptor(id int, typeGUID string) []byte {
	return []byte(fmt.Sprintf(`{"id":%d,"type":"%s"}`, id, typeGUID))
}

func newTestBank(t *testing.T, layout []string) (*Bank, *point.Database) {
	t.Helper()
	fd := point.NewFactoryDatabase()
	gen := arena.New(4096)
	stateful := arena.New(4096)
	db := point.NewDatabase(point.ID(len(layout) + 1))

	b := New()
	for i, typeGUID := range layout {
		if _, ferr := b.CreatePoint(fd, descriptor(i, typeGUID), gen, stateful, db); ferr != nil {
			t.Fatalf("CreatePoint(%d, %s): %v", i, typeGUID, ferr)
		}
	}
	return b, db
}

func TestBankStatefulAllocatedSize(t *testing.T) {
	b, _ := newTestBank(t, []string{point.GUIDBool, point.GUIDUint32})
	want := (2 + 1) + (2 + 4) // headerSize + payload, per Point
	if got := b.GetStatefulAllocatedSize(); got != want {
		t.Errorf("GetStatefulAllocatedSize() = %d; want %d", got, want)
	}
}

func TestBankLayoutEquivalence(t *testing.T) {
	a, _ := newTestBank(t, []string{point.GUIDBool, point.GUIDUint32})
	b, _ := newTestBank(t, []string{point.GUIDBool, point.GUIDUint32})
	c, _ := newTestBank(t, []string{point.GUIDUint32, point.GUIDBool})

	if !a.IsLayoutEquivalentTo(b) {
		t.Errorf("identical type-GUID sequences should be layout-equivalent")
	}
	if a.IsLayoutEquivalentTo(c) {
		t.Errorf("different ordering should not be layout-equivalent")
	}
}

func TestBankCopyStatefulMemoryFromIsBitExact(t *testing.T) {
	src, _ := newTestBank(t, []string{point.GUIDUint32, point.GUIDBool})
	dst, _ := newTestBank(t, []string{point.GUIDUint32, point.GUIDBool})

	srcU := src.Points()[0].(*point.ScalarPoint[uint32])
	srcU.Write(0xCAFEF00D, point.NoRequest)
	srcB := src.Points()[1].(*point.ScalarPoint[bool])
	srcB.Write(true, point.Lock)

	if ferr := dst.CopyStatefulMemoryFrom(src); ferr != nil {
		t.Fatalf("CopyStatefulMemoryFrom: %v", ferr)
	}

	dstU := dst.Points()[0].(*point.ScalarPoint[uint32])
	if v, valid := dstU.Read(); !valid || v != 0xCAFEF00D {
		t.Errorf("copied uint32 = (%#x, %v); want (0xCAFEF00D, true)", v, valid)
	}
	dstB := dst.Points()[1].(*point.ScalarPoint[bool])
	if v, valid := dstB.Read(); !valid || !v {
		t.Errorf("copied bool = (%v, %v); want (true, true)", v, valid)
	}
	if !dstB.IsLocked() {
		t.Errorf("bulk copy must carry the locked flag along with the value")
	}
}

func TestBankCopyStatefulMemoryFromRejectsLayoutMismatch(t *testing.T) {
	src, _ := newTestBank(t, []string{point.GUIDUint32})
	dst, _ := newTestBank(t, []string{point.GUIDBool})

	if ferr := dst.CopyStatefulMemoryFrom(src); ferr == nil {
		t.Errorf("expected a layout-mismatch error")
	}
}

func TestBankStartOfStatefulMemorySnapshotIsIndependent(t *testing.T) {
	b, _ := newTestBank(t, []string{point.GUIDUint32})
	u := b.Points()[0].(*point.ScalarPoint[uint32])
	u.Write(1, point.NoRequest)

	snap := b.GetStartOfStatefulMemory()
	u.Write(2, point.NoRequest)

	snapAfter := b.GetStartOfStatefulMemory()
	equal := len(snap) == len(snapAfter)
	for i := range snap {
		if equal && snap[i] != snapAfter[i] {
			equal = false
		}
	}
	if equal {
		t.Errorf("snapshot taken before the second write unexpectedly matches the post-write snapshot")
	}
}

func TestBankCopyStatefulMemoryToAndFromBytes(t *testing.T) {
	src, _ := newTestBank(t, []string{point.GUIDUint32})
	u := src.Points()[0].(*point.ScalarPoint[uint32])
	u.Write(99, point.NoRequest)

	buf := make([]byte, src.GetStatefulAllocatedSize())
	if !src.CopyStatefulMemoryTo(buf, len(buf)) {
		t.Fatalf("CopyStatefulMemoryTo failed")
	}

	dst, _ := newTestBank(t, []string{point.GUIDUint32})
	if !dst.CopyStatefulMemoryFromBytes(buf) {
		t.Fatalf("CopyStatefulMemoryFromBytes failed")
	}
	dstU := dst.Points()[0].(*point.ScalarPoint[uint32])
	if v, valid := dstU.Read(); !valid || v != 99 {
		t.Errorf("round-tripped through external buffer = (%d, %v); want (99, true)", v, valid)
	}
}
