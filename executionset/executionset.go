// Package executionset implements ExecutionSet: an ordered group of
// LogicChains sharing an execution-rate multiplier, producing the
// execution Period a Chassis schedules, per specification §4.8.
package executionset

import (
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/logicchain"
)

var (
	ErrNoChains  = fxterr.Code(fxterr.CategoryExecutionSet, 1, "NO_LOGIC_CHAINS")
	ErrChainFail = fxterr.Code(fxterr.CategoryExecutionSet, 2, "LOGIC_CHAIN_ERROR")
)

// ExecutionSet owns an ordered list of LogicChains that all execute at the
// same rate. ExeRateMultiplier (ERM) combines with a Chassis's Fundamental
// Execution Rate to give its Period a duration of ERM × FER.
type ExecutionSet struct {
	name              string
	id                int
	exeRateMultiplier int
	chains            []*logicchain.LogicChain
	err               *fxterr.Error
}

func New(name string, id, exeRateMultiplier int, chains []*logicchain.LogicChain) *ExecutionSet {
	es := &ExecutionSet{name: name, id: id, exeRateMultiplier: exeRateMultiplier, chains: chains}
	if len(chains) == 0 {
		es.err = ErrNoChains
	}
	return es
}

func (es *ExecutionSet) Name() string                     { return es.name }
func (es *ExecutionSet) ID() int                          { return es.id }
func (es *ExecutionSet) ExeRateMultiplier() int           { return es.exeRateMultiplier }
func (es *ExecutionSet) Chains() []*logicchain.LogicChain { return es.chains }
func (es *ExecutionSet) ErrorCode() *fxterr.Error         { return es.err }

func (es *ExecutionSet) Latch(err *fxterr.Error) {
	if es.err == nil {
		es.err = err
	}
}

func (es *ExecutionSet) Start(t0 int64) bool {
	if es.err != nil {
		return false
	}
	ok := true
	for _, c := range es.chains {
		if !c.Start(t0) {
			es.Latch(ErrChainFail.With(c.ErrorCode()))
			ok = false
		}
	}
	return ok
}

func (es *ExecutionSet) Stop() {
	for _, c := range es.chains {
		c.Stop()
	}
}

// ExecuteAll runs every LogicChain in insertion order. A failing chain
// latches the ExecutionSet's error but, per §4.8, does not itself block
// subsequent chains in the set — each chain latches its own error
// independently and is skipped on future passes via its own terminal
// state check inside Execute.
func (es *ExecutionSet) ExecuteAll(tNow int64) bool {
	ok := true
	for _, c := range es.chains {
		if !c.Execute(tNow) {
			es.Latch(ErrChainFail.With(c.ErrorCode()))
			ok = false
		}
	}
	return ok
}

// Period adapts an ExecutionSet's ExecuteAll into the system.Period
// interface for scheduling. Duration is ERM × FER.
type Period struct {
	es       *ExecutionSet
	duration int64
}

func NewPeriod(es *ExecutionSet, fer int64) *Period {
	return &Period{es: es, duration: int64(es.exeRateMultiplier) * fer}
}

func (p *Period) Duration() int64 { return p.duration }
func (p *Period) Execute(tNow, mark int64) bool {
	return p.es.ExecuteAll(tNow)
}
