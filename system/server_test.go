package system

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingPeriod struct {
	duration int64
	count    int32
}

func (p *countingPeriod) Duration() int64 { return p.duration }
func (p *countingPeriod) Execute(tNow, mark int64) bool {
	atomic.AddInt32(&p.count, 1)
	return true
}

func TestServerOpenRunsSchedulerUntilClose(t *testing.T) {
	var clock int64
	sched := NewPeriodicScheduler(nil)
	srv := NewServer(time.Millisecond, sched, func() int64 { return atomic.LoadInt64(&clock) })
	srv.Run()
	defer srv.Halt()

	p := &countingPeriod{duration: 1}
	srv.Open([]Period{p})

	for i := int64(1); i <= 5; i++ {
		atomic.StoreInt64(&clock, i)
		time.Sleep(5 * time.Millisecond)
	}

	srv.Close()
	countAfterClose := atomic.LoadInt32(&p.count)
	if countAfterClose == 0 {
		t.Fatalf("expected the period to have executed at least once before Close")
	}

	time.Sleep(10 * time.Millisecond)
	if atomic.LoadInt32(&p.count) != countAfterClose {
		t.Errorf("period executed after Close: before=%d after=%d", countAfterClose, atomic.LoadInt32(&p.count))
	}
}

func TestServerHaltStopsLoop(t *testing.T) {
	sched := NewPeriodicScheduler(nil)
	srv := NewServer(time.Millisecond, sched, func() int64 { return 0 })
	srv.Run()
	srv.Halt() // must return, not deadlock
}
