// Package system implements the tick-driven scheduling core that binds a
// Chassis's ordered Scanner/ExecutionSet periods to wall-clock time, grounded
// on Fxt/System/PeriodicScheduler.cpp. It also provides Server, the
// cooperative single-threaded main loop that drives the scheduler from a
// tick source and a mailbox of control messages.
package system

import "github.com/foxtail-io/fxtnode/fxterr"

var ErrSchedulerNotRunning = fxterr.Code(fxterr.CategorySystem, 1, "SCHEDULER_NOT_RUNNING")

// Period is one entry in a scheduler's ordered array: a Scanner's input or
// output period, or an ExecutionSet's execution period. Duration is fixed
// for the Period's lifetime; Execute is called once each time the Period's
// boundary elapses and returns false to request the scheduler stop.
type Period interface {
	Duration() int64
	Execute(tNow, mark int64) bool
}

// SlippageFunc is invoked when a Period is already behind by another full
// duration immediately after executing. Returning false stops the
// scheduler, same as Execute returning false.
type SlippageFunc func(p Period, tNow, mark int64) bool

// PeriodicScheduler walks an ordered array of Periods once per
// ExecuteScheduler call, firing each whose duration has elapsed and
// re-anchoring its mark to wall time if it falls behind by more than one
// full period. Periods do not carry their own mark state — Go interfaces
// have no mutable fields visible to the scheduler — so the scheduler keeps
// a parallel marks slice indexed identically to periods.
type PeriodicScheduler struct {
	periods        []Period
	marks          []int64
	firstExecution bool
	alive          bool
	reportSlippage SlippageFunc
}

// NewPeriodicScheduler builds a scheduler that invokes reportSlippage (if
// non-nil) whenever a Period falls a full duration behind.
func NewPeriodicScheduler(reportSlippage SlippageFunc) *PeriodicScheduler {
	return &PeriodicScheduler{reportSlippage: reportSlippage}
}

// Start records periods (already sorted by the caller — buildSchedule's
// job, not the scheduler's) and arms the scheduler so the first
// ExecuteScheduler call initializes every mark to that call's t_now.
func (s *PeriodicScheduler) Start(periods []Period) {
	s.periods = periods
	s.marks = make([]int64, len(periods))
	s.firstExecution = true
	s.alive = true
}

// Stop disarms the scheduler. A subsequent Start re-initializes marks from
// scratch.
func (s *PeriodicScheduler) Stop() {
	s.periods = nil
	s.marks = nil
	s.alive = false
}

// Running reports whether the scheduler is armed.
func (s *PeriodicScheduler) Running() bool { return s.alive }

// ExecuteScheduler runs one pass over the period array at tNow. It is a
// no-op if the scheduler is not running (Stop was called, or never
// Start-ed). A Period or the slippage callback returning false stops the
// scheduler mid-pass; periods after it in the array are skipped for this
// and all future passes.
func (s *PeriodicScheduler) ExecuteScheduler(tNow int64) {
	if !s.alive {
		return
	}
	for i, p := range s.periods {
		if s.firstExecution {
			s.marks[i] = tNow
		}

		dur := p.Duration()
		if dur <= 0 {
			continue
		}

		if tNow-s.marks[i] < dur {
			continue
		}

		s.marks[i] += dur
		if !p.Execute(tNow, s.marks[i]) {
			s.Stop()
			return
		}

		if tNow-s.marks[i] >= dur {
			if s.reportSlippage != nil && !s.reportSlippage(p, tNow, s.marks[i]) {
				s.Stop()
				return
			}
			s.marks[i] = (tNow / dur) * dur
		}
	}
	s.firstExecution = false
}
