package executionset

import (
	"fmt"
	"testing"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/component"
	"github.com/foxtail-io/fxtnode/component/digital"
	"github.com/foxtail-io/fxtnode/logicchain"
	"github.com/foxtail-io/fxtnode/point"
)

func buildAndChain(t *testing.T, name string, in1, in2, out int, db *point.Database) *logicchain.LogicChain {
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
	g, ferr := ctor(raw, gen, ha)
	if ferr != nil {
		t.Fatalf("build AND gate: %v", ferr)
	}
	if ferr := g.ResolveReferences(db); ferr != nil {
		t.Fatalf("ResolveReferences: %v", ferr)
	}
	return logicchain.New(name, 1, []component.Component{g}, nil)
}

func TestExecutionSetRejectsEmptyChainList(t *testing.T) {
	es := New("es", 1, 2, nil)
	if es.ErrorCode() == nil {
		t.Errorf("expected an ExecutionSet with no chains to latch an error")
	}
}

func TestExecutionSetPeriodDuration(t *testing.T) {
	es := New("es", 1, 4, []*logicchain.LogicChain{logicchain.New("c", 1, nil, nil)})
	p := NewPeriod(es, 1000)
	if p.Duration() != 4000 {
		t.Errorf("period duration = %d, want 4000", p.Duration())
	}
}

func TestExecutionSetExecutesChainsInOrder(t *testing.T) {
	db := point.NewDatabase(4)
	gen := arena.New(4096)
	stateful := arena.New(4096)
	fd := point.NewFactoryDatabase()

	pts := make([]*point.ScalarPoint[bool], 4)
	for i := 0; i < 4; i++ {
		p, ferr := point.CreatePointFromJSON([]byte(fmt.Sprintf(`{"id":%d,"type":"%s"}`, i, point.GUIDBool)), fd, gen, stateful, db)
		if ferr != nil {
			t.Fatalf("create point %d: %v", i, ferr)
		}
		pts[i] = p.(*point.ScalarPoint[bool])
	}
	pts[0].Write(true, point.NoRequest)
	pts[1].Write(true, point.NoRequest)

	chain := buildAndChain(t, "chain", 0, 1, 2, db)
	es := New("es", 1, 1, []*logicchain.LogicChain{chain})
	if !es.Start(0) {
		t.Fatalf("Start failed: %v", es.ErrorCode())
	}
	if !es.ExecuteAll(0) {
		t.Fatalf("ExecuteAll failed: %v", es.ErrorCode())
	}

	v, valid := pts[2].Read()
	if !valid || !v {
		t.Errorf("output = (%v,%v), want (true,true)", v, valid)
	}
}

func TestExecutionSetLatchesOnChainFailure(t *testing.T) {
	badChain := logicchain.New("bad", 1, nil, nil) // no components -> immediately in error
	es := New("es", 1, 1, []*logicchain.LogicChain{badChain})
	if es.ExecuteAll(0) {
		t.Errorf("ExecuteAll should report failure when a chain is in error")
	}
	if es.ErrorCode() == nil {
		t.Errorf("ExecutionSet should latch an error when a chain fails")
	}
}
