package digital

import (
	"fmt"
	"testing"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/point"
)

func newBoolPointDB(t *testing.T, n int) (*point.Database, []*point.ScalarPoint[bool]) {
	t.Helper()
	db := point.NewDatabase(point.ID(n))
	gen := arena.New(4096)
	stateful := arena.New(4096)
	fd := point.NewFactoryDatabase()
	pts := make([]*point.ScalarPoint[bool], n)
	for i := 0; i < n; i++ {
		p, ferr := point.CreatePointFromJSON([]byte(fmt.Sprintf(`{"id":%d,"type":"%s"}`, i, point.GUIDBool)), fd, gen, stateful, db)
		if ferr != nil {
			t.Fatalf("create point %d: %v", i, ferr)
		}
		pts[i] = p.(*point.ScalarPoint[bool])
	}
	return db, pts
}

func and8Descriptor(in1, in2, out int) []byte {
	return []byte(fmt.Sprintf(`{"type":"%s","inputs":[{"type":"%s","idRef":%d},{"type":"%s","idRef":%d}],"outputs":[{"type":"%s","idRef":%d}]}`,
		GUIDAnd8Gate, point.GUIDBool, in1, point.GUIDBool, in2, point.GUIDBool, out))
}

func TestAndGateExecuteAllTrue(t *testing.T) {
	db, pts := newBoolPointDB(t, 3)
	pts[0].Write(true, point.NoRequest)
	pts[1].Write(true, point.NoRequest)

	g, ferr := newAndGate(GUIDAnd8Gate, and8Descriptor(0, 1, 2))
	if ferr != nil {
		t.Fatalf("newAndGate: %v", ferr)
	}
	if ferr := g.ResolveReferences(db); ferr != nil {
		t.Fatalf("ResolveReferences: %v", ferr)
	}
	if ferr := g.Execute(0); ferr != nil {
		t.Fatalf("Execute: %v", ferr)
	}
	v, valid := pts[2].Read()
	if !valid || !v {
		t.Errorf("AND(true,true) output = (%v,%v); want (true,true)", v, valid)
	}
}

func TestAndGateInvalidInputInvalidatesOutputs(t *testing.T) {
	db, pts := newBoolPointDB(t, 3)
	pts[0].Write(true, point.NoRequest)
	// pts[1] left invalid

	g, _ := newAndGate(GUIDAnd8Gate, and8Descriptor(0, 1, 2))
	g.ResolveReferences(db)
	if ferr := g.Execute(0); ferr != nil {
		t.Fatalf("Execute should never fail: %v", ferr)
	}
	if pts[2].IsValid() {
		t.Errorf("output should be invalidated when an input is invalid")
	}
}

func TestAndGateNegatedOutput(t *testing.T) {
	db, pts := newBoolPointDB(t, 3)
	pts[0].Write(true, point.NoRequest)
	pts[1].Write(true, point.NoRequest)

	raw := []byte(fmt.Sprintf(`{"type":"%s","inputs":[{"type":"%s","idRef":0},{"type":"%s","idRef":1}],"outputs":[{"type":"%s","idRef":2,"negate":true}]}`,
		GUIDAnd8Gate, point.GUIDBool, point.GUIDBool, point.GUIDBool))
	g, _ := newAndGate(GUIDAnd8Gate, raw)
	g.ResolveReferences(db)
	g.Execute(0)

	v, _ := pts[2].Read()
	if v {
		t.Errorf("negated AND(true,true) should be false")
	}
}

func TestAndGateUnresolvedReferenceFails(t *testing.T) {
	db, _ := newBoolPointDB(t, 2)
	g, _ := newAndGate(GUIDAnd8Gate, and8Descriptor(0, 1, 99))
	if ferr := g.ResolveReferences(db); ferr == nil {
		t.Errorf("expected unresolved-reference error for a non-existent output point id")
	}
	if g.ErrorCode() == nil {
		t.Errorf("ResolveReferences failure should latch the component's error state")
	}
}

func TestNotGateComplements(t *testing.T) {
	db, pts := newBoolPointDB(t, 2)
	pts[0].Write(true, point.NoRequest)

	raw := []byte(fmt.Sprintf(`{"type":"%s","inputs":[{"type":"%s","idRef":0}],"outputs":[{"type":"%s","idRef":1}]}`,
		GUIDNot8Gate, point.GUIDBool, point.GUIDBool))
	g, ferr := newNotGate(GUIDNot8Gate, raw)
	if ferr != nil {
		t.Fatalf("newNotGate: %v", ferr)
	}
	if ferr := g.ResolveReferences(db); ferr != nil {
		t.Fatalf("ResolveReferences: %v", ferr)
	}
	g.Execute(0)

	v, valid := pts[1].Read()
	if !valid || v {
		t.Errorf("NOT(true) = (%v,%v); want (false,true)", v, valid)
	}
}

func TestDemux8Uint8SplitsBits(t *testing.T) {
	db := point.NewDatabase(3)
	gen := arena.New(4096)
	stateful := arena.New(4096)
	fd := point.NewFactoryDatabase()

	inP, ferr := point.CreatePointFromJSON([]byte(fmt.Sprintf(`{"id":0,"type":"%s"}`, point.GUIDUint8)), fd, gen, stateful, db)
	if ferr != nil {
		t.Fatalf("create input: %v", ferr)
	}
	out0, _ := point.CreatePointFromJSON([]byte(fmt.Sprintf(`{"id":1,"type":"%s"}`, point.GUIDBool)), fd, gen, stateful, db)
	out1, _ := point.CreatePointFromJSON([]byte(fmt.Sprintf(`{"id":2,"type":"%s"}`, point.GUIDBool)), fd, gen, stateful, db)

	raw := []byte(fmt.Sprintf(`{"type":"%s","inputs":[{"idRef":0}],"outputs":[{"type":"%s","idRef":1,"bit":0},{"type":"%s","idRef":2,"bit":1}]}`,
		GUIDDemux8Uint8, point.GUIDBool, point.GUIDBool))
	d, ferr := newDemux8Uint8(raw)
	if ferr != nil {
		t.Fatalf("newDemux8Uint8: %v", ferr)
	}
	if ferr := d.ResolveReferences(db); ferr != nil {
		t.Fatalf("ResolveReferences: %v", ferr)
	}

	inP.(*point.ScalarPoint[uint8]).Write(0x02, point.NoRequest) // bit1 set, bit0 clear
	d.Execute(0)

	v0, _ := out0.(*point.ScalarPoint[bool]).Read()
	v1, _ := out1.(*point.ScalarPoint[bool]).Read()
	if v0 || !v1 {
		t.Errorf("demux(0x02) bits = (%v,%v); want (false,true)", v0, v1)
	}
}

func TestMuxPacksBits(t *testing.T) {
	db := point.NewDatabase(3)
	gen := arena.New(4096)
	stateful := arena.New(4096)
	fd := point.NewFactoryDatabase()

	in0, _ := point.CreatePointFromJSON([]byte(fmt.Sprintf(`{"id":0,"type":"%s"}`, point.GUIDBool)), fd, gen, stateful, db)
	in1, _ := point.CreatePointFromJSON([]byte(fmt.Sprintf(`{"id":1,"type":"%s"}`, point.GUIDBool)), fd, gen, stateful, db)
	outP, _ := point.CreatePointFromJSON([]byte(fmt.Sprintf(`{"id":2,"type":"%s"}`, point.GUIDUint8)), fd, gen, stateful, db)

	raw := []byte(fmt.Sprintf(`{"type":"%s","inputs":[{"type":"%s","idRef":0,"bit":0},{"type":"%s","idRef":1,"bit":1}],"outputs":[{"idRef":2}]}`,
		GUIDMux, point.GUIDBool, point.GUIDBool))
	m, ferr := newMux(raw)
	if ferr != nil {
		t.Fatalf("newMux: %v", ferr)
	}
	if ferr := m.ResolveReferences(db); ferr != nil {
		t.Fatalf("ResolveReferences: %v", ferr)
	}

	in0.(*point.ScalarPoint[bool]).Write(false, point.NoRequest)
	in1.(*point.ScalarPoint[bool]).Write(true, point.NoRequest)
	m.Execute(0)

	v, valid := outP.(*point.ScalarPoint[uint8]).Read()
	if !valid || v != 0x02 {
		t.Errorf("mux output = (%#x,%v); want (0x02,true)", v, valid)
	}
}
