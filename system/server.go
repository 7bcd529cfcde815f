package system

import (
	"sync"
	"time"
)

type messageKind int

const (
	msgOpen messageKind = iota
	msgClose
)

type message struct {
	kind    messageKind
	periods []Period
	done    chan struct{}
}

// Server is the cooperative single-threaded main loop binding a
// PeriodicScheduler to a tick source, grounded on the reference service's
// localio.Manager.StartCycle/StopCycle goroutine-plus-stopChan idiom but
// restructured around a mailbox so chassis-level open/close can be
// delivered without racing the scheduler pass. Each Chassis owns exactly
// one Server.
type Server struct {
	tickInterval time.Duration
	scheduler    *PeriodicScheduler
	now          func() int64

	mailbox  chan message
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewServer builds a Server that ticks every tickInterval and drives
// scheduler. now supplies the scheduler's t_now on each tick; pass nil to
// default to time.Now().UnixMicro (FER is specified in microseconds).
func NewServer(tickInterval time.Duration, scheduler *PeriodicScheduler, now func() int64) *Server {
	if now == nil {
		now = func() int64 { return time.Now().UnixMicro() }
	}
	return &Server{
		tickInterval: tickInterval,
		scheduler:    scheduler,
		now:          now,
		mailbox:      make(chan message, 4),
		stopChan:     make(chan struct{}),
	}
}

// Run starts the main loop goroutine (startMainLoop). It returns
// immediately; the loop runs until Halt is called.
func (s *Server) Run() {
	s.wg.Add(1)
	go s.loop()
}

// Halt signals the main loop to exit and blocks until it has
// (stopMainLoop).
func (s *Server) Halt() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Server) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
		}
		s.processMessages()
		s.scheduler.ExecuteScheduler(s.now())
	}
}

func (s *Server) processMessages() {
	for {
		select {
		case msg := <-s.mailbox:
			s.handle(msg)
		default:
			return
		}
	}
}

func (s *Server) handle(msg message) {
	switch msg.kind {
	case msgOpen:
		s.scheduler.Start(msg.periods)
	case msgClose:
		s.scheduler.Stop()
	}
	if msg.done != nil {
		close(msg.done)
	}
}

// Open delivers the Chassis's combined, ordered period array (input
// periods, then execution periods, then output periods — buildSchedule's
// job) into the loop and arms the scheduler. It blocks until the open has
// been applied on the loop goroutine.
func (s *Server) Open(periods []Period) {
	done := make(chan struct{})
	s.mailbox <- message{kind: msgOpen, periods: periods, done: done}
	<-done
}

// Close disarms the scheduler. It blocks until applied.
func (s *Server) Close() {
	done := make(chan struct{})
	s.mailbox <- message{kind: msgClose, done: done}
	<-done
}
