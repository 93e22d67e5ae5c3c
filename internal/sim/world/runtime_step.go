package world

import (
	"isocity.dev/internal/sim/world/feature/advisor"
	"isocity.dev/internal/sim/world/feature/disaster"
	"isocity.dev/internal/sim/world/feature/economy"
	"isocity.dev/internal/sim/world/feature/growth"
	"isocity.dev/internal/sim/world/feature/history"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
	"isocity.dev/internal/sim/world/logic/mathx"
)

func (w *World) step(reqs []CommandRequest) {
	nowTick := w.tick.Load()
	cat := w.buildings()

	// Commands apply at the tick boundary in receive order.
	recorded := make([]RecordedCommand, 0, len(reqs))
	for _, req := range reqs {
		res := w.Apply(req.Cmd)
		res.Tick = nowTick
		recorded = append(recorded, RecordedCommand{Cmd: req.Cmd, Changed: res.Changed, Code: res.Code})
		if req.Resp != nil {
			select {
			case req.Resp <- res:
			default:
			}
		}
	}

	repaired := w.grid.RepairOrphans()

	w.cov = coverage.Compute(w.grid, cat)
	growth.ApplyUtilities(w.grid, w.cov)

	roll := mathx.Roller{Seed: w.cfg.Seed, Tick: nowTick}
	gsum := growth.Step(w.growthEnv(roll))
	dsum := disaster.Step(w.grid, w.cov, roll, w.disasters, w.cfg.Disaster)

	economy.UpdateFields(w.grid, cat, w.cov)
	w.agg = economy.Aggregate(w.grid, cat, w.cov)
	_, quarterClosed := w.econ.Tick(nowTick, w.cfg.TicksPerMonth, w.agg, w.grid.Counts(), cat)
	w.qol = economy.ComputeQoL(w.agg, &w.econ)

	xsum := w.dispatch.Step(nowTick, w.grid, cat, w.cov, roll)

	var quarter *history.Entry
	if quarterClosed {
		e := w.historyEntry(nowTick)
		w.history.Record(e)
		quarter = &e
	}
	w.advice = advisor.Advise(advisor.Input{Agg: w.agg, QoL: w.qol, State: &w.econ})

	digest := w.stateDigest(nowTick)
	w.lastDigest = digest
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:         nowTick,
			Commands:     recorded,
			Spawned:      gsum.Spawned,
			Completed:    gsum.Completed,
			Upgraded:     gsum.Upgraded,
			Consolidated: gsum.Consolidated,
			Abandoned:    gsum.Abandoned,
			Recovered:    gsum.Recovered,
			Ignited:      dsum.Ignited,
			Suppressed:   dsum.Suppressed,
			Destroyed:    dsum.Destroyed,
			Dispatched:   xsum.Dispatched,
			Resolved:     xsum.Resolved,
			Expired:      xsum.Expired,
			Quarter:      quarter,
			Repaired:     repaired,
			Digest:       digest,
		})
	}

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 {
		if nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
			snap := w.ExportSnapshot(nowTick)
			select {
			case w.snapshotSink <- snap:
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	w.publishStats(nowTick)
	w.tick.Add(1)
}

// growthEnv describes the current tick for growth and diagnostics.
func (w *World) growthEnv(roll mathx.Roller) growth.Env {
	demand := w.econ.Demand
	return growth.Env{
		Grid:   w.grid,
		Cat:    w.buildings(),
		Cov:    w.cov,
		Roll:   roll,
		Oracle: w.oracle,
		Demand: func(z model.Zone) float64 { return demand.For(z) },
		Params: w.cfg.Growth,
	}
}

func (w *World) historyEntry(nowTick uint64) history.Entry {
	quarter := w.econ.Month / 3
	year := w.econ.Year
	if quarter == 0 {
		// The month counter already wrapped into the next year.
		quarter = 4
		year--
	}
	return history.Entry{
		Tick:              nowTick,
		Year:              year,
		Quarter:           quarter,
		Population:        w.agg.Population,
		Jobs:              w.agg.Jobs,
		Money:             w.econ.Money,
		Income:            w.econ.Income,
		Expenses:          w.econ.Expenses,
		Happiness:         w.qol.Happiness,
		ResidentialDemand: w.econ.Demand.Residential,
		CommercialDemand:  w.econ.Demand.Commercial,
		IndustrialDemand:  w.econ.Demand.Industrial,
	}
}
