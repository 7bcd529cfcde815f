package system

import "testing"

type fakePeriod struct {
	duration  int64
	intervals []int64
	ret       bool
}

func newFakePeriod(duration int64) *fakePeriod {
	return &fakePeriod{duration: duration, ret: true}
}

func (p *fakePeriod) Duration() int64 { return p.duration }

func (p *fakePeriod) Execute(tNow, mark int64) bool {
	p.intervals = append(p.intervals, mark)
	return p.ret
}

func TestSchedulerMonotonicityNoSlip(t *testing.T) {
	p := newFakePeriod(10)
	s := NewPeriodicScheduler(nil)
	s.Start([]Period{p})

	s.ExecuteScheduler(0)
	for tNow := int64(1); tNow <= 35; tNow++ {
		s.ExecuteScheduler(tNow)
	}

	if len(p.intervals) < 2 {
		t.Fatalf("expected multiple executions, got %d", len(p.intervals))
	}
	for i := 1; i < len(p.intervals); i++ {
		if d := p.intervals[i] - p.intervals[i-1]; d != p.duration {
			t.Errorf("interval %d: gap = %d, want %d", i, d, p.duration)
		}
	}
}

func TestSchedulerSlipReanchor(t *testing.T) {
	p := newFakePeriod(10)
	var slipped []int64
	s := NewPeriodicScheduler(func(_ Period, tNow, mark int64) bool {
		slipped = append(slipped, mark)
		return true
	})
	s.Start([]Period{p})

	s.ExecuteScheduler(0) // first_execution: mark := 0, 0-0 < 10, no fire

	const t0, k, r = int64(0), int64(3), int64(4)
	tNow := t0 + k*p.duration + r // 34
	s.ExecuteScheduler(tNow)

	if len(slipped) != 1 {
		t.Fatalf("expected exactly one slippage report, got %d", len(slipped))
	}
	// The report carries the mark of the pass just executed; re-anchoring
	// to the greatest multiple of the duration not above tNow follows it.
	if want := t0 + p.duration; slipped[0] != want {
		t.Errorf("slippage mark = %d, want %d", slipped[0], want)
	}
	want := (tNow / p.duration) * p.duration
	if s.marks[0] != want {
		t.Errorf("re-anchored mark = %d, want %d", s.marks[0], want)
	}

	// one more call just after tNow should not slip again: mark is now
	// caught up to the re-anchored value.
	s.ExecuteScheduler(tNow + 1)
	if len(slipped) != 1 {
		t.Errorf("slippage should report exactly once per slip event, got %d reports", len(slipped))
	}
}

func TestSchedulerStopsOnExecuteFalse(t *testing.T) {
	p1 := newFakePeriod(10)
	p1.ret = false
	p2 := newFakePeriod(10)

	s := NewPeriodicScheduler(nil)
	s.Start([]Period{p1, p2})
	s.ExecuteScheduler(0)
	s.ExecuteScheduler(10)

	if s.Running() {
		t.Errorf("scheduler should have stopped after a Period returned false")
	}
	if len(p2.intervals) != 0 {
		t.Errorf("periods after the one that stopped the scheduler should not execute")
	}
}

func TestSchedulerExecuteScheduledIsNoopWhenNotRunning(t *testing.T) {
	s := NewPeriodicScheduler(nil)
	s.ExecuteScheduler(1000) // should not panic despite no Start
}

// TestSchedulerS5ThreePeriods reproduces the end-to-end scheduler scenario:
// periods [10, 20, 7] ms, ticks at [0, 5, 10, 15, 20, 21] ms (the leading 0
// is the scheduler's arming tick), expecting execution counts 2, 1, 3.
func TestSchedulerS5ThreePeriods(t *testing.T) {
	p10 := newFakePeriod(10)
	p20 := newFakePeriod(20)
	p7 := newFakePeriod(7)

	s := NewPeriodicScheduler(nil)
	s.Start([]Period{p10, p20, p7})
	for _, tick := range []int64{0, 5, 10, 15, 20, 21} {
		s.ExecuteScheduler(tick)
	}

	if n := len(p10.intervals); n != 2 {
		t.Errorf("10ms period executed %d times, want 2", n)
	}
	if n := len(p20.intervals); n != 1 {
		t.Errorf("20ms period executed %d times, want 1", n)
	}
	if n := len(p7.intervals); n != 3 {
		t.Errorf("7ms period executed %d times, want 3", n)
	}
}
