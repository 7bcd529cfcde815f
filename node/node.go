// Package node implements Node: the top-level object that parses a JSON
// node descriptor (per specification §6) into a fully wired tree of
// Chassis, Scanners, Cards, ExecutionSets, LogicChains, and Components
// sharing one PointDatabase and the three arenas, and exposes the
// programmatic surface an operator CLI drives: createFromJSON, start,
// stop, isStarted, getErrorCode, getChassis.
package node

import (
	"encoding/json"

	"github.com/foxtail-io/fxtnode/arena"
	"github.com/foxtail-io/fxtnode/bank"
	"github.com/foxtail-io/fxtnode/card"
	"github.com/foxtail-io/fxtnode/chassis"
	"github.com/foxtail-io/fxtnode/component"
	"github.com/foxtail-io/fxtnode/executionset"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/logicchain"
	"github.com/foxtail-io/fxtnode/point"
	"github.com/foxtail-io/fxtnode/scanner"
)

var (
	ErrBadJSON        = fxterr.Code(fxterr.CategoryNode, 2, "MALFORMED_JSON")
	ErrUnknownCard    = fxterr.Code(fxterr.CategoryNode, 3, "UNKNOWN_CARD_TYPE")
	ErrUnknownComp    = fxterr.Code(fxterr.CategoryNode, 4, "UNKNOWN_COMPONENT_TYPE")
	ErrCardBuild      = fxterr.Code(fxterr.CategoryNode, 5, "CARD_CREATE_ERROR")
	ErrComponentBuild = fxterr.Code(fxterr.CategoryNode, 6, "COMPONENT_CREATE_ERROR")
	ErrPointBuild     = fxterr.Code(fxterr.CategoryNode, 7, "POINT_CREATE_ERROR")
	ErrResolve        = fxterr.Code(fxterr.CategoryNode, 8, "FAILED_POINT_RESOLVE")
	ErrChassisStart   = fxterr.Code(fxterr.CategoryNode, 9, "CHASSIS_START_ERROR")
)

// Registries bundles the factories a Node consults while parsing a
// descriptor: concrete Point types, Card drivers, and Components. A
// caller builds one, registers every driver/component package's types
// into it (point.NewFactoryDatabase already seeds the built-in scalar
// types), and passes it to CreateFromJSON.
type Registries struct {
	Points     *point.FactoryDatabase
	Cards      *card.FactoryDatabase
	Components *component.Factory
}

// NewRegistries returns a Registries with the built-in Point types
// pre-registered and empty Card/Component factories, ready for callers to
// Register their driver and component packages into.
func NewRegistries() *Registries {
	return &Registries{
		Points:     point.NewFactoryDatabase(),
		Cards:      card.NewFactoryDatabase(),
		Components: component.NewFactory(),
	}
}

// Node owns the three arenas, the shared PointDatabase, and the Chassis
// tree built from a descriptor. Node has no Close or teardown method: Stop
// leaves the arenas and the PointDatabase as they are, and nothing in Node
// calls Arena.Reset.
type Node struct {
	typeGUID string
	arenas   struct {
		general      *arena.Arena
		cardStateful *arena.Arena
		haStateful   *arena.Arena
	}
	db      *point.Database
	chassis []*chassis.Chassis
	started bool
	err     *fxterr.Error
}

// Config sizes the three arenas and the PointDatabase's ID space. Callers
// size these generously relative to their descriptor; exhaustion during
// CreateFromJSON is reported as an error, not a panic.
type Config struct {
	GeneralArenaSize      int
	CardStatefulArenaSize int
	HAStatefulArenaSize   int
	MaxPointID            point.ID
}

// DefaultConfig returns arena/database sizes generous enough for small to
// medium node descriptors; production deployments should size Config from
// their own descriptor's point count.
func DefaultConfig() Config {
	return Config{
		GeneralArenaSize:      1 << 20,
		CardStatefulArenaSize: 1 << 18,
		HAStatefulArenaSize:   1 << 18,
		MaxPointID:            4096,
	}
}

type nodeDesc struct {
	Type    string            `json:"type"`
	Chassis []json.RawMessage `json:"chassis"`
}

type chassisDesc struct {
	Name          string            `json:"name"`
	ID            int               `json:"id"`
	FER           int64             `json:"fer"`
	SharedPts     []json.RawMessage `json:"sharedPts"`
	Scanners      []json.RawMessage `json:"scanners"`
	ExecutionSets []json.RawMessage `json:"executionSets"`
}

type scannerDesc struct {
	Name               string            `json:"name"`
	ID                 int               `json:"id"`
	ScanRateMultiplier int               `json:"scanRateMultiplier"`
	Cards              []json.RawMessage `json:"cards"`
}

type cardDesc struct {
	Name   string      `json:"name"`
	ID     json.Number `json:"id"`
	Type   string      `json:"type"`
	Slot   int         `json:"slot"`
	Points struct {
		Inputs  []json.RawMessage `json:"inputs"`
		Outputs []json.RawMessage `json:"outputs"`
	} `json:"points"`
}

type executionSetDesc struct {
	Name              string            `json:"name"`
	ID                int               `json:"id"`
	ExeRateMultiplier int               `json:"exeRateMultiplier"`
	LogicChains       []json.RawMessage `json:"logicChains"`
}

type logicChainDesc struct {
	Name          string            `json:"name"`
	ID            int               `json:"id"`
	Components    []json.RawMessage `json:"components"`
	ConnectionPts []json.RawMessage `json:"connectionPts"`
	AutoPts       []json.RawMessage `json:"autoPts"`
}

type componentDesc struct {
	Type string `json:"type"`
}

// CreateFromJSON parses raw (a node descriptor per §6) using regs, sizing
// the Node's arenas and PointDatabase from cfg. Construction is two-phase:
// on any failure, every arena is truncated back to its pre-call mark and
// every Point registered during this call is removed from db, so a failed
// build leaves no orphaned state (per §7's recovery/two-phase policy).
func CreateFromJSON(raw []byte, regs *Registries, cfg Config) (*Node, *fxterr.Error) {
	n := &Node{db: point.NewDatabase(cfg.MaxPointID)}
	n.arenas.general = arena.New(cfg.GeneralArenaSize)
	n.arenas.cardStateful = arena.New(cfg.CardStatefulArenaSize)
	n.arenas.haStateful = arena.New(cfg.HAStatefulArenaSize)

	genMark := n.arenas.general.Mark()
	cardMark := n.arenas.cardStateful.Mark()
	haMark := n.arenas.haStateful.Mark()
	dbMark := n.db.Mark()

	ch, ferr := n.build(raw, regs)
	if ferr != nil {
		n.arenas.general.Truncate(genMark)
		n.arenas.cardStateful.Truncate(cardMark)
		n.arenas.haStateful.Truncate(haMark)
		n.db.CleanupPointsAfterNodeCreateFailure(dbMark)
		return nil, ferr
	}
	n.chassis = ch
	return n, nil
}

func (n *Node) build(raw []byte, regs *Registries) ([]*chassis.Chassis, *fxterr.Error) {
	var nd nodeDesc
	if err := json.Unmarshal(raw, &nd); err != nil {
		return nil, ErrBadJSON.With(err)
	}
	n.typeGUID = nd.Type

	chassisList := make([]*chassis.Chassis, 0, len(nd.Chassis))
	for _, chRaw := range nd.Chassis {
		c, ferr := n.buildChassis(chRaw, regs)
		if ferr != nil {
			return nil, ferr
		}
		chassisList = append(chassisList, c)
	}
	return chassisList, nil
}

func (n *Node) buildChassis(raw []byte, regs *Registries) (*chassis.Chassis, *fxterr.Error) {
	var cd chassisDesc
	if err := json.Unmarshal(raw, &cd); err != nil {
		return nil, ErrBadJSON.With(err)
	}

	shared, ferr := n.buildPoints(cd.SharedPts, regs.Points, n.arenas.haStateful)
	if ferr != nil {
		return nil, ferr
	}

	scanners := make([]*scanner.Scanner, 0, len(cd.Scanners))
	for _, sRaw := range cd.Scanners {
		s, ferr := n.buildScanner(sRaw, regs)
		if ferr != nil {
			return nil, ferr
		}
		scanners = append(scanners, s)
	}

	execSets := make([]*executionset.ExecutionSet, 0, len(cd.ExecutionSets))
	for _, esRaw := range cd.ExecutionSets {
		es, ferr := n.buildExecutionSet(esRaw, regs)
		if ferr != nil {
			return nil, ferr
		}
		execSets = append(execSets, es)
	}

	return chassis.New(cd.Name, cd.ID, cd.FER, scanners, execSets, shared), nil
}

// buildPoints creates each point descriptor in raw into db/genArena/
// statefulArena via fd, returning the built Points in order.
func (n *Node) buildPoints(raw []json.RawMessage, fd *point.FactoryDatabase, statefulArena *arena.Arena) ([]point.Point, *fxterr.Error) {
	pts := make([]point.Point, 0, len(raw))
	for _, r := range raw {
		p, ferr := point.CreatePointFromJSON(r, fd, n.arenas.general, statefulArena, n.db)
		if ferr != nil {
			return nil, ErrPointBuild.With(ferr)
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func (n *Node) buildScanner(raw []byte, regs *Registries) (*scanner.Scanner, *fxterr.Error) {
	var sd scannerDesc
	if err := json.Unmarshal(raw, &sd); err != nil {
		return nil, ErrBadJSON.With(err)
	}

	cards := make([]card.Card, 0, len(sd.Cards))
	for _, cRaw := range sd.Cards {
		c, ferr := n.buildCard(cRaw, regs)
		if ferr != nil {
			return nil, ferr
		}
		cards = append(cards, c)
	}
	return scanner.New(sd.Name, sd.ID, sd.ScanRateMultiplier, cards), nil
}

func (n *Node) buildCard(raw []byte, regs *Registries) (card.Card, *fxterr.Error) {
	var cd cardDesc
	if err := json.Unmarshal(raw, &cd); err != nil {
		return nil, ErrBadJSON.With(err)
	}

	ctor, ok := regs.Cards.Lookup(cd.Type)
	if !ok {
		return nil, ErrUnknownCard.Withf("%s", cd.Type)
	}

	// The IO-register Banks are this Card's own private mirror of
	// hardware state: their Points are never addressed by idRef, so they
	// get a throwaway per-card Database distinct from the Node's shared
	// one, per the Card contract's "internal" Bank role. It is sized to hold
	// the largest point id or setter id among this Card's point descriptors.
	var maxID point.ID
	for _, r := range append(append([]json.RawMessage(nil), cd.Points.Inputs...), cd.Points.Outputs...) {
		var ids struct {
			ID      point.ID `json:"id"`
			Initial struct {
				ID point.ID `json:"id"`
			} `json:"initial"`
		}
		if err := json.Unmarshal(r, &ids); err != nil {
			return nil, ErrBadJSON.With(err)
		}
		maxID = max(maxID, ids.ID, ids.Initial.ID)
	}
	registerDB := point.NewDatabase(maxID + 1)

	registerInputs := bank.New()
	virtualInputs := bank.New()
	for _, r := range cd.Points.Inputs {
		if _, ferr := registerInputs.CreatePoint(regs.Points, r, n.arenas.general, n.arenas.cardStateful, registerDB); ferr != nil {
			return nil, ErrPointBuild.With(ferr)
		}
		if _, ferr := virtualInputs.CreatePoint(regs.Points, r, n.arenas.general, n.arenas.haStateful, n.db); ferr != nil {
			return nil, ErrPointBuild.With(ferr)
		}
	}

	registerOutputs := bank.New()
	virtualOutputs := bank.New()
	for _, r := range cd.Points.Outputs {
		if _, ferr := virtualOutputs.CreatePoint(regs.Points, r, n.arenas.general, n.arenas.haStateful, n.db); ferr != nil {
			return nil, ErrPointBuild.With(ferr)
		}
		if _, ferr := registerOutputs.CreatePoint(regs.Points, r, n.arenas.general, n.arenas.cardStateful, registerDB); ferr != nil {
			return nil, ErrPointBuild.With(ferr)
		}
	}

	c, ferr := ctor(cd.Slot, cd.ID.String(), raw, registerInputs, virtualInputs, virtualOutputs, registerOutputs)
	if ferr != nil {
		return nil, ErrCardBuild.With(ferr)
	}
	return c, nil
}

func (n *Node) buildExecutionSet(raw []byte, regs *Registries) (*executionset.ExecutionSet, *fxterr.Error) {
	var ed executionSetDesc
	if err := json.Unmarshal(raw, &ed); err != nil {
		return nil, ErrBadJSON.With(err)
	}

	chains := make([]*logicchain.LogicChain, 0, len(ed.LogicChains))
	for _, lcRaw := range ed.LogicChains {
		lc, ferr := n.buildLogicChain(lcRaw, regs)
		if ferr != nil {
			return nil, ferr
		}
		chains = append(chains, lc)
	}
	return executionset.New(ed.Name, ed.ID, ed.ExeRateMultiplier, chains), nil
}

func (n *Node) buildLogicChain(raw []byte, regs *Registries) (*logicchain.LogicChain, *fxterr.Error) {
	var lcd logicChainDesc
	if err := json.Unmarshal(raw, &lcd); err != nil {
		return nil, ErrBadJSON.With(err)
	}

	if _, ferr := n.buildPoints(lcd.ConnectionPts, regs.Points, n.arenas.haStateful); ferr != nil {
		return nil, ferr
	}
	autoPts, ferr := n.buildPoints(lcd.AutoPts, regs.Points, n.arenas.haStateful)
	if ferr != nil {
		return nil, ferr
	}

	components := make([]component.Component, 0, len(lcd.Components))
	for _, compRaw := range lcd.Components {
		var compd componentDesc
		if err := json.Unmarshal(compRaw, &compd); err != nil {
			return nil, ErrBadJSON.With(err)
		}
		ctor, ok := regs.Components.Lookup(compd.Type)
		if !ok {
			return nil, ErrUnknownComp.Withf("%s", compd.Type)
		}
		comp, ferr := ctor(compRaw, n.arenas.general, n.arenas.haStateful)
		if ferr != nil {
			return nil, ErrComponentBuild.With(ferr)
		}
		if ferr := comp.ResolveReferences(n.db); ferr != nil {
			return nil, ErrResolve.With(ferr)
		}
		components = append(components, comp)
	}

	return logicchain.New(lcd.Name, lcd.ID, components, autoPts), nil
}

// Start starts every Chassis in order. A Chassis that fails to start
// latches the Node's error but does not prevent other Chassis from
// attempting to start, matching the Scanner/ExecutionSet "keep going,
// report independently" convention.
func (n *Node) Start(t0 int64) bool {
	ok := true
	for _, c := range n.chassis {
		if !c.Start(t0) {
			if n.err == nil {
				n.err = ErrChassisStart.With(c.ErrorCode())
			}
			ok = false
		}
	}
	if ok {
		n.started = true
	}
	return ok
}

// Stop stops every Chassis.
func (n *Node) Stop() {
	for _, c := range n.chassis {
		c.Stop()
	}
	n.started = false
}

func (n *Node) IsStarted() bool         { return n.started }
func (n *Node) ErrorCode() *fxterr.Error { return n.err }
func (n *Node) TypeGUID() string        { return n.typeGUID }

// GetChassis returns the Chassis at index, or nil if out of range.
func (n *Node) GetChassis(index int) *chassis.Chassis {
	if index < 0 || index >= len(n.chassis) {
		return nil
	}
	return n.chassis[index]
}

// Chassis returns every Chassis this Node owns, in descriptor order.
func (n *Node) Chassis() []*chassis.Chassis { return n.chassis }

// PointDatabase exposes the Node's shared PointDatabase, e.g. for a
// status API to look up a Point by ID for display.
func (n *Node) PointDatabase() *point.Database { return n.db }
