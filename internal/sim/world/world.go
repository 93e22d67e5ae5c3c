package world

import (
	"fmt"
	"sync/atomic"

	"isocity.dev/internal/persistence/snapshot"
	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/feature/advisor"
	"isocity.dev/internal/sim/world/feature/dispatch"
	"isocity.dev/internal/sim/world/feature/economy"
	"isocity.dev/internal/sim/world/feature/history"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
	"isocity.dev/internal/sim/world/logic/roadaccess"
	"isocity.dev/internal/sim/world/terrain/gen"
)

// CommandRequest carries a command into the loop; the result is sent on
// Resp (buffered, may be nil) once the command has been applied.
type CommandRequest struct {
	Cmd  protocol.CommandMsg
	Resp chan CommandResult
}

type RecordedCommand struct {
	Cmd     protocol.CommandMsg `json:"cmd"`
	Changed bool                `json:"changed"`
	Code    string              `json:"code,omitempty"`
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	tick atomic.Uint64

	grid   *model.Grid
	water  []gen.WaterBody
	cov    *coverage.Coverage
	oracle *roadaccess.Oracle

	econ      economy.State
	agg       economy.Aggregates
	qol       economy.QoL
	disasters bool

	dispatch *dispatch.Controller
	history  *history.Log
	advice   []advisor.Message

	lastDigest string

	inbox     chan CommandRequest
	inspect   chan inspectReq
	subscribe chan subscribeReq
	stop      chan struct{}
	// Closed when Run returns.
	done chan struct{}

	subs map[string]chan []byte

	// Optional logger (may be nil). Implemented in internal/persistence/log.
	tickLogger TickLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	stats atomic.Pointer[protocol.StatsMsg]
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick     uint64            `json:"tick"`
	Commands []RecordedCommand `json:"commands,omitempty"`

	Spawned      int `json:"spawned,omitempty"`
	Completed    int `json:"completed,omitempty"`
	Upgraded     int `json:"upgraded,omitempty"`
	Consolidated int `json:"consolidated,omitempty"`
	Abandoned    int `json:"abandoned,omitempty"`
	Recovered    int `json:"recovered,omitempty"`

	Ignited    []model.Point `json:"ignited,omitempty"`
	Suppressed []model.Point `json:"suppressed,omitempty"`
	Destroyed  []model.Point `json:"destroyed,omitempty"`

	Dispatched int `json:"dispatched,omitempty"`
	Resolved   int `json:"resolved,omitempty"`
	Expired    int `json:"expired,omitempty"`

	// Set on ticks that close a quarter.
	Quarter *history.Entry `json:"quarter,omitempty"`

	Repaired int    `json:"repaired,omitempty"`
	Digest   string `json:"digest"`
}

// New generates a fresh city: terrain, lakes, oceans and trees from the seed,
// with an empty treasury at the configured starting money.
func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	cfg.applyDefaults()
	for _, id := range []string{model.KindGrass, model.KindWater, model.KindRoad, model.KindTree, model.KindPlaceholder} {
		if _, ok := cats.Buildings.Get(id); !ok {
			return nil, fmt.Errorf("missing terrain kind in catalog: %s", id)
		}
	}

	w := &World{
		cfg:       cfg,
		catalogs:  cats,
		grid:      model.NewGrid(cfg.Size),
		oracle:    roadaccess.New(),
		econ:      economy.NewState(cfg.StartingMoney, cfg.TaxRate),
		disasters: !cfg.NoDisasters,
		dispatch:  dispatch.New(cfg.Dispatch),
		history:   history.New(cfg.HistoryCapacity),
		inbox:     make(chan CommandRequest, 1024),
		inspect:   make(chan inspectReq, 64),
		subscribe: make(chan subscribeReq, 64),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		subs:      map[string]chan []byte{},
	}
	w.water = gen.Generate(w.grid, cfg.Seed, *cfg.Terrain)
	w.refreshDerived(true)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- CommandRequest { return w.inbox }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }

func (w *World) buildings() *catalogs.BuildingCatalog { return &w.catalogs.Buildings }

// refreshDerived recomputes coverage and aggregates from the grid without
// advancing time, so the read model is populated before the first tick.
func (w *World) refreshDerived(fields bool) {
	cat := w.buildings()
	w.cov = coverage.Compute(w.grid, cat)
	if fields {
		economy.UpdateFields(w.grid, cat, w.cov)
	}
	w.agg = economy.Aggregate(w.grid, cat, w.cov)
	w.qol = economy.ComputeQoL(w.agg, &w.econ)
	w.advice = advisor.Advise(advisor.Input{Agg: w.agg, QoL: w.qol, State: &w.econ})
	w.publishStats(w.tick.Load())
}
