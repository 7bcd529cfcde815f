// Package scanner implements Scanner: an ordered group of Cards sharing a
// scan-rate multiplier, producing the InputPeriod/OutputPeriod pair a
// Chassis schedules, per specification §4.9.
package scanner

import (
	"github.com/foxtail-io/fxtnode/card"
	"github.com/foxtail-io/fxtnode/fxterr"
)

var (
	ErrNoCards    = fxterr.Code(fxterr.CategoryScanner, 1, "NO_CARDS")
	ErrCardCreate = fxterr.Code(fxterr.CategoryScanner, 2, "CARD_CREATE_ERROR")
	ErrCardStart  = fxterr.Code(fxterr.CategoryScanner, 3, "CARD_START_ERROR")
	ErrCardScan   = fxterr.Code(fxterr.CategoryScanner, 4, "CARD_SCAN_ERROR")
	ErrCardFlush  = fxterr.Code(fxterr.CategoryScanner, 5, "CARD_FLUSH_ERROR")
)

// Scanner owns an ordered list of Cards that all scan/flush at the same
// rate. ScanRateMultiplier (SRM) combines with a Chassis's Fundamental
// Execution Rate to give each of its two Periods a duration of SRM × FER.
type Scanner struct {
	name               string
	id                 int
	scanRateMultiplier int
	cards              []card.Card
	err                *fxterr.Error
}

// New builds a Scanner from already-constructed Cards (card construction —
// parsing the node descriptor's per-card point lists and Bank pairs — is
// the caller's job, typically a Chassis/Node builder). A Scanner with no
// Cards is latched into a terminal error immediately: every Scanner must
// own at least one Card to be meaningful.
func New(name string, id, scanRateMultiplier int, cards []card.Card) *Scanner {
	s := &Scanner{name: name, id: id, scanRateMultiplier: scanRateMultiplier, cards: cards}
	if len(cards) == 0 {
		s.err = ErrNoCards
	}
	for _, c := range cards {
		if c.ErrorCode() != nil {
			s.err = ErrCardCreate.With(c.ErrorCode())
			break
		}
	}
	return s
}

func (s *Scanner) Name() string             { return s.name }
func (s *Scanner) ID() int                  { return s.id }
func (s *Scanner) ScanRateMultiplier() int  { return s.scanRateMultiplier }
func (s *Scanner) Cards() []card.Card       { return s.cards }
func (s *Scanner) ErrorCode() *fxterr.Error { return s.err }

func (s *Scanner) Latch(err *fxterr.Error) {
	if s.err == nil {
		s.err = err
	}
}

// Start starts every Card in insertion order. A Card that fails to start
// latches ErrCardStart on the Scanner but does not stop subsequent Cards
// from attempting to start — each Card's own ErrorCode reports which
// failed.
func (s *Scanner) Start(t0 int64) bool {
	if s.err != nil {
		return false
	}
	ok := true
	for _, c := range s.cards {
		if !c.Start(t0) {
			s.Latch(ErrCardStart.With(c.ErrorCode()))
			ok = false
		}
	}
	return ok
}

func (s *Scanner) Stop() {
	for _, c := range s.cards {
		c.Stop()
	}
}

// ScanAll runs ScanInputs on every Card in insertion order. A failing Card
// aborts the remaining Cards in this pass and latches the Scanner's error,
// per §4.9's "a per-card error aborts that Period".
func (s *Scanner) ScanAll(tNow int64) bool {
	for _, c := range s.cards {
		if !c.ScanInputs(tNow) {
			s.Latch(ErrCardScan.With(c.ErrorCode()))
			return false
		}
	}
	return true
}

// FlushAll runs FlushOutputs on every Card in insertion order, aborting
// and latching on the first failure, symmetric with ScanAll.
func (s *Scanner) FlushAll(tNow int64) bool {
	for _, c := range s.cards {
		if !c.FlushOutputs(tNow) {
			s.Latch(ErrCardFlush.With(c.ErrorCode()))
			return false
		}
	}
	return true
}

// InputPeriod adapts a Scanner's ScanAll into the system.Period interface
// for scheduling. Duration is SRM × FER in the same time unit as the
// Chassis's Fundamental Execution Rate.
type InputPeriod struct {
	s        *Scanner
	duration int64
}

func NewInputPeriod(s *Scanner, fer int64) *InputPeriod {
	return &InputPeriod{s: s, duration: int64(s.scanRateMultiplier) * fer}
}

func (p *InputPeriod) Duration() int64 { return p.duration }
func (p *InputPeriod) Execute(tNow, mark int64) bool {
	return p.s.ScanAll(tNow)
}

// OutputPeriod adapts a Scanner's FlushAll into the system.Period
// interface, same duration as its InputPeriod.
type OutputPeriod struct {
	s        *Scanner
	duration int64
}

func NewOutputPeriod(s *Scanner, fer int64) *OutputPeriod {
	return &OutputPeriod{s: s, duration: int64(s.scanRateMultiplier) * fer}
}

func (p *OutputPeriod) Duration() int64 { return p.duration }
func (p *OutputPeriod) Execute(tNow, mark int64) bool {
	return p.s.FlushAll(tNow)
}
