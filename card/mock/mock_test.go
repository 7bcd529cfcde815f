package mock

import (
	"fmt"
	"testing"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/bank"
	"github.com/foxtail-io/fxtnode/point"
)

func buildBank(t *testing.T, guid string) *bank.Bank {
	t.Helper()
	fd := point.NewFactoryDatabase()
	gen := arena.New(4096)
	stateful := arena.New(4096)
	db := point.NewDatabase(2)

	b := bank.New()
	if _, ferr := b.CreatePoint(fd, []byte(fmt.Sprintf(`{"id":0,"type":"%s","initial":{"id":1,"val":true}}`, guid)), gen, stateful, db); ferr != nil {
		t.Fatalf("CreatePoint: %v", ferr)
	}
	return b
}

func TestMockCardStartAppliesSetters(t *testing.T) {
	ri := buildBank(t, point.GUIDBool)
	vi := buildBank(t, point.GUIDBool)
	vo := buildBank(t, point.GUIDBool)
	ro := buildBank(t, point.GUIDBool)

	c := New(0, "mock-0", ri, vi, vo, ro)
	if !c.Start(0) {
		t.Fatalf("Start failed: %v", c.ErrorCode())
	}

	v, valid := ri.Points()[0].(*point.ScalarPoint[bool]).Read()
	if !valid || !v {
		t.Errorf("register input after Start = (%v, %v); want (true, true) from its setter", v, valid)
	}
}

func TestMockCardScanAndFlushRoundTrip(t *testing.T) {
	ri := buildBank(t, point.GUIDBool)
	vi := buildBank(t, point.GUIDBool)
	vo := buildBank(t, point.GUIDBool)
	ro := buildBank(t, point.GUIDBool)

	c := New(0, "mock-0", ri, vi, vo, ro)
	c.Start(0)

	if !c.ScanInputs(1) {
		t.Fatalf("ScanInputs failed")
	}
	v, _ := vi.Points()[0].(*point.ScalarPoint[bool]).Read()
	if !v {
		t.Errorf("virtual input should mirror register input after scan")
	}

	vo.Points()[0].(*point.ScalarPoint[bool]).Write(false, point.NoRequest)
	if !c.FlushOutputs(2) {
		t.Fatalf("FlushOutputs failed")
	}
	rv, _ := ro.Points()[0].(*point.ScalarPoint[bool]).Read()
	if rv {
		t.Errorf("register output should mirror virtual output after flush")
	}
}
