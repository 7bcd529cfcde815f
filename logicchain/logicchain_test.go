package logicchain

import (
	"fmt"
	"testing"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/component"
	"github.com/foxtail-io/fxtnode/component/digital"
	"github.com/foxtail-io/fxtnode/point"
)

func newDB(t *testing.T, n int) (*point.Database, *arena.Arena, *arena.Arena, []*point.ScalarPoint[bool]) {
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
	return db, gen, stateful, pts
}

func andGate(t *testing.T, in1, in2, out int) component.Component {
	t.Helper()
	f := component.NewFactory()
	digital.Register(f)
	ctor, ok := f.Lookup(digital.GUIDAnd8Gate)
	if !ok {
		t.Fatalf("AND gate constructor not registered")
	}
	raw := []byte(fmt.Sprintf(`{"type":"%s","inputs":[{"type":"%s","idRef":%d},{"type":"%s","idRef":%d}],"outputs":[{"type":"%s","idRef":%d}]}`,
		digital.GUIDAnd8Gate, point.GUIDBool, in1, point.GUIDBool, in2, point.GUIDBool, out))
	gen := arena.New(4096)
	ha := arena.New(4096)
	c, ferr := ctor(raw, gen, ha)
	if ferr != nil {
		t.Fatalf("build AND gate: %v", ferr)
	}
	return c
}

func TestLogicChainExecutesComponentsInOrder(t *testing.T) {
	db, _, _, pts := newDB(t, 3)
	pts[0].Write(true, point.NoRequest)
	pts[1].Write(true, point.NoRequest)

	g := andGate(t, 0, 1, 2)
	if ferr := g.ResolveReferences(db); ferr != nil {
		t.Fatalf("ResolveReferences: %v", ferr)
	}

	lc := New("chain", 1, []component.Component{g}, nil)
	if !lc.Start(0) {
		t.Fatalf("Start failed: %v", lc.ErrorCode())
	}
	if !lc.Execute(0) {
		t.Fatalf("Execute failed: %v", lc.ErrorCode())
	}

	v, valid := pts[2].Read()
	if !valid || !v {
		t.Errorf("output = (%v,%v), want (true,true)", v, valid)
	}
}

func TestLogicChainRejectsEmptyComponentList(t *testing.T) {
	lc := New("chain", 1, nil, nil)
	if lc.ErrorCode() == nil {
		t.Errorf("expected a chain with no components to latch an error")
	}
	if lc.Execute(0) {
		t.Errorf("Execute should refuse on a chain already in error")
	}
}

func TestLogicChainReassertsAutoPointsEachExecute(t *testing.T) {
	db := point.NewDatabase(2)
	gen := arena.New(4096)
	stateful := arena.New(4096)
	fd := point.NewFactoryDatabase()

	autoRaw := []byte(fmt.Sprintf(`{"id":0,"type":"%s","initial":{"id":1,"val":true}}`, point.GUIDBool))
	autoP, ferr := point.CreatePointFromJSON(autoRaw, fd, gen, stateful, db)
	if ferr != nil {
		t.Fatalf("create auto point: %v", ferr)
	}
	bp := autoP.(*point.ScalarPoint[bool])

	f := component.NewFactory()
	digital.Register(f)
	ctor, ok := f.Lookup(digital.GUIDAnd8Gate)
	if !ok {
		t.Fatalf("AND gate constructor not registered")
	}
	andRaw := []byte(fmt.Sprintf(`{"type":"%s","inputs":[{"type":"%s","idRef":0},{"type":"%s","idRef":0}],"outputs":[{"type":"%s","idRef":0}]}`,
		digital.GUIDAnd8Gate, point.GUIDBool, point.GUIDBool, point.GUIDBool))
	g, ferr := ctor(andRaw, gen, stateful)
	if ferr != nil {
		t.Fatalf("build AND gate: %v", ferr)
	}
	if ferr := g.ResolveReferences(db); ferr != nil {
		t.Fatalf("ResolveReferences: %v", ferr)
	}

	lc := New("chain", 1, []component.Component{g}, []point.Point{bp})
	bp.Write(false, point.NoRequest) // drift away from the auto value
	if !lc.Execute(0) {
		t.Fatalf("Execute failed: %v", lc.ErrorCode())
	}

	v, valid := bp.Read()
	if !valid || !v {
		t.Errorf("auto point should have been re-asserted to true before execute, got (%v,%v)", v, valid)
	}
}
