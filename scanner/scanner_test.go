package scanner

import (
	"testing"

	"github.com/foxtail-io/fxtnode/bank"
	"github.com/foxtail-io/fxtnode/card"
	"github.com/foxtail-io/fxtnode/card/mock"
)

func newMockCard(t *testing.T, slot int) *mock.Card {
	t.Helper()
	return mock.New(slot, "c", bank.New(), bank.New(), bank.New(), bank.New())
}

func TestScannerRejectsEmptyCardList(t *testing.T) {
	s := New("s", 1, 2, nil)
	if s.ErrorCode() == nil {
		t.Errorf("expected a Scanner with no Cards to latch an error")
	}
}

func TestScannerStartScanFlushAllCards(t *testing.T) {
	c1 := newMockCard(t, 0)
	c2 := newMockCard(t, 1)
	s := New("s", 1, 2, []card.Card{c1, c2})

	if !s.Start(0) {
		t.Fatalf("Start failed: %v", s.ErrorCode())
	}
	if !s.ScanAll(0) {
		t.Fatalf("ScanAll failed: %v", s.ErrorCode())
	}
	if !s.FlushAll(0) {
		t.Fatalf("FlushAll failed: %v", s.ErrorCode())
	}
}

func TestPeriodDurationIsSRMTimesFER(t *testing.T) {
	c := newMockCard(t, 0)
	s := New("s", 1, 3, []card.Card{c})
	in := NewInputPeriod(s, 1000)
	out := NewOutputPeriod(s, 1000)
	if in.Duration() != 3000 {
		t.Errorf("InputPeriod duration = %d, want 3000", in.Duration())
	}
	if out.Duration() != 3000 {
		t.Errorf("OutputPeriod duration = %d, want 3000", out.Duration())
	}
}
