package world

import (
	"fmt"

	"isocity.dev/internal/persistence/snapshot"
	"isocity.dev/internal/sim/world/feature/dispatch"
	"isocity.dev/internal/sim/world/feature/economy"
	"isocity.dev/internal/sim/world/feature/history"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/terrain/gen"
)

func p2(p model.Point) [2]int { return [2]int{p.X, p.Y} }
func pt(a [2]int) model.Point { return model.Point{X: a[0], Y: a[1]} }

func points2(ps []model.Point) [][2]int {
	if len(ps) == 0 {
		return nil
	}
	out := make([][2]int, len(ps))
	for i, p := range ps {
		out[i] = p2(p)
	}
	return out
}

func pointsFrom(as [][2]int) []model.Point {
	if len(as) == 0 {
		return nil
	}
	out := make([]model.Point, len(as))
	for i, a := range as {
		out[i] = pt(a)
	}
	return out
}

// ExportSnapshot captures the full simulation state after tick nowTick.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	s := snapshot.SnapshotV1{
		Header:             snapshot.Header{Version: snapshot.Version, WorldID: w.cfg.ID, Tick: nowTick},
		Seed:               w.cfg.Seed,
		Size:               w.grid.Size(),
		TickRate:           w.cfg.TickRateHz,
		TicksPerMonth:      w.cfg.TicksPerMonth,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		HistoryCapacity:    w.cfg.HistoryCapacity,
		DisastersEnabled:   w.disasters,
		BuildingsDigest:    w.catalogs.Buildings.Digest,
		Counters:           snapshot.CountersV1{NextVehicle: w.dispatch.NextID},
	}

	s.Tiles = make([]snapshot.TileV1, 0, w.grid.Size()*w.grid.Size())
	w.grid.Each(func(t *model.Tile) {
		b := &t.Building
		tv := snapshot.TileV1{
			Kind:                 b.Kind,
			Zone:                 string(t.Zone),
			Level:                b.Level,
			Population:           b.Population,
			Jobs:                 b.Jobs,
			Powered:              b.Powered,
			Watered:              b.Watered,
			OnFire:               b.OnFire,
			FireProgress:         b.FireProgress,
			Age:                  b.Age,
			ConstructionProgress: b.ConstructionProgress,
			Abandoned:            b.Abandoned,
			Flipped:              b.Flipped,
			Width:                b.Width,
			Height:               b.Height,
			LandValue:            t.LandValue,
			Pollution:            t.Pollution,
			Subway:               t.HasSubway,
			HasOrigin:            t.HasOrigin,
		}
		if t.HasOrigin {
			tv.Origin = p2(t.Origin)
		}
		s.Tiles = append(s.Tiles, tv)
	})

	for _, wb := range w.water {
		s.WaterBodies = append(s.WaterBodies, snapshot.WaterBodyV1{
			Name:      wb.Name,
			Kind:      wb.Kind,
			Tiles:     points2(wb.Tiles),
			Anchor:    p2(wb.Anchor),
			CentroidX: wb.CentroidX,
			CentroidY: wb.CentroidY,
		})
	}

	budget := make(map[string]float64, len(w.econ.Budget))
	for k, v := range w.econ.Budget {
		budget[k] = v
	}
	s.Economy = snapshot.EconomyV1{
		Money:             w.econ.Money,
		TaxRate:           w.econ.TaxRate,
		EffectiveTax:      w.econ.EffectiveTax,
		Budget:            budget,
		Income:            w.econ.Income,
		Expenses:          w.econ.Expenses,
		Month:             w.econ.Month,
		Year:              w.econ.Year,
		ResidentialDemand: w.econ.Demand.Residential,
		CommercialDemand:  w.econ.Demand.Commercial,
		IndustrialDemand:  w.econ.Demand.Industrial,
	}

	for _, inc := range w.dispatch.SortedIncidents() {
		s.Incidents = append(s.Incidents, snapshot.IncidentV1{
			Type:      string(inc.Type),
			Pos:       p2(inc.Pos),
			Remaining: inc.Remaining,
			ClaimedBy: inc.ClaimedBy,
		})
	}
	for _, v := range w.dispatch.Vehicles {
		s.Vehicles = append(s.Vehicles, snapshot.VehicleV1{
			ID:           v.ID,
			Kind:         string(v.Kind),
			Tile:         p2(v.Tile),
			Progress:     v.Progress,
			Route:        points2(v.Route),
			RouteIndex:   v.RouteIndex,
			Phase:        string(v.Phase),
			Station:      p2(v.Station),
			StationRoad:  p2(v.StationRoad),
			Target:       p2(v.Target),
			ResponseLeft: v.ResponseLeft,
			Heading:      v.Heading,
		})
	}

	for _, e := range w.history.List() {
		s.History = append(s.History, snapshot.HistoryV1{
			Tick:              e.Tick,
			Year:              e.Year,
			Quarter:           e.Quarter,
			Population:        e.Population,
			Jobs:              e.Jobs,
			Money:             e.Money,
			Income:            e.Income,
			Expenses:          e.Expenses,
			Happiness:         e.Happiness,
			ResidentialDemand: e.ResidentialDemand,
			CommercialDemand:  e.CommercialDemand,
			IndustrialDemand:  e.IndustrialDemand,
		})
	}
	return s
}

// ImportSnapshot replaces the current in-memory world state with the snapshot.
// It sets the world's tick to snapshotTick+1 (the next tick to simulate).
//
// This must be called only when the world is stopped or from the world loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}
	if w.cfg.Seed != s.Seed {
		return fmt.Errorf("snapshot seed mismatch: cfg=%d snap=%d", w.cfg.Seed, s.Seed)
	}
	if s.Size <= 0 || len(s.Tiles) != s.Size*s.Size {
		return fmt.Errorf("snapshot tiles: have %d, want %d", len(s.Tiles), s.Size*s.Size)
	}
	for i, tv := range s.Tiles {
		if _, ok := w.catalogs.Buildings.Get(tv.Kind); !ok {
			return fmt.Errorf("snapshot tile %d: unknown kind %q", i, tv.Kind)
		}
		if _, ok := model.ParseZone(tv.Zone); !ok {
			return fmt.Errorf("snapshot tile %d: unknown zone %q", i, tv.Zone)
		}
	}

	// Operational parameters: the snapshot is authoritative.
	w.cfg.Size = s.Size
	if s.TicksPerMonth > 0 {
		w.cfg.TicksPerMonth = s.TicksPerMonth
	}
	if s.SnapshotEveryTicks > 0 {
		w.cfg.SnapshotEveryTicks = s.SnapshotEveryTicks
	}
	if s.HistoryCapacity > 0 {
		w.cfg.HistoryCapacity = s.HistoryCapacity
	}

	g := model.NewGrid(s.Size)
	for i, tv := range s.Tiles {
		x, y := i%s.Size, i/s.Size
		t := g.At(x, y)
		t.Building = model.Building{
			Kind:                 tv.Kind,
			Level:                tv.Level,
			Population:           tv.Population,
			Jobs:                 tv.Jobs,
			Powered:              tv.Powered,
			Watered:              tv.Watered,
			OnFire:               tv.OnFire,
			FireProgress:         tv.FireProgress,
			Age:                  tv.Age,
			ConstructionProgress: tv.ConstructionProgress,
			Abandoned:            tv.Abandoned,
			Flipped:              tv.Flipped,
			Width:                tv.Width,
			Height:               tv.Height,
		}
		t.Zone = model.Zone(tv.Zone)
		t.LandValue = tv.LandValue
		t.Pollution = tv.Pollution
		t.HasSubway = tv.Subway
		t.HasOrigin = tv.HasOrigin
		if tv.HasOrigin {
			t.Origin = pt(tv.Origin)
		}
	}
	g.Touch()
	w.grid = g

	w.water = w.water[:0]
	for _, wb := range s.WaterBodies {
		w.water = append(w.water, gen.WaterBody{
			Name:      wb.Name,
			Kind:      wb.Kind,
			Tiles:     pointsFrom(wb.Tiles),
			Anchor:    pt(wb.Anchor),
			CentroidX: wb.CentroidX,
			CentroidY: wb.CentroidY,
		})
	}

	e := s.Economy
	w.econ = economy.NewState(e.Money, e.TaxRate)
	w.econ.EffectiveTax = e.EffectiveTax
	for k, v := range e.Budget {
		w.econ.SetFunding(k, v)
	}
	w.econ.Income = e.Income
	w.econ.Expenses = e.Expenses
	w.econ.Month = e.Month
	w.econ.Year = e.Year
	w.econ.Demand = economy.Demand{Residential: e.ResidentialDemand, Commercial: e.CommercialDemand, Industrial: e.IndustrialDemand}
	w.disasters = s.DisastersEnabled

	d := dispatch.New(w.cfg.Dispatch)
	d.NextID = s.Counters.NextVehicle
	if d.NextID <= 0 {
		d.NextID = 1
	}
	for _, inc := range s.Incidents {
		p := pt(inc.Pos)
		d.Incidents[p] = &dispatch.Incident{
			Type:      dispatch.IncidentType(inc.Type),
			Pos:       p,
			Remaining: inc.Remaining,
			ClaimedBy: inc.ClaimedBy,
		}
	}
	for _, v := range s.Vehicles {
		d.Vehicles = append(d.Vehicles, &dispatch.Vehicle{
			ID:           v.ID,
			Kind:         dispatch.VehicleKind(v.Kind),
			Tile:         pt(v.Tile),
			Progress:     v.Progress,
			Route:        pointsFrom(v.Route),
			RouteIndex:   v.RouteIndex,
			Phase:        dispatch.Phase(v.Phase),
			Station:      pt(v.Station),
			StationRoad:  pt(v.StationRoad),
			Target:       pt(v.Target),
			ResponseLeft: v.ResponseLeft,
			Heading:      v.Heading,
		})
	}
	w.dispatch = d

	w.history = history.New(w.cfg.HistoryCapacity)
	for _, h := range s.History {
		w.history.Record(history.Entry{
			Tick:              h.Tick,
			Year:              h.Year,
			Quarter:           h.Quarter,
			Population:        h.Population,
			Jobs:              h.Jobs,
			Money:             h.Money,
			Income:            h.Income,
			Expenses:          h.Expenses,
			Happiness:         h.Happiness,
			ResidentialDemand: h.ResidentialDemand,
			CommercialDemand:  h.CommercialDemand,
			IndustrialDemand:  h.IndustrialDemand,
		})
	}

	w.tick.Store(s.Header.Tick + 1)
	w.lastDigest = w.stateDigest(s.Header.Tick)
	// Land value and pollution come from the snapshot; only coverage and
	// aggregates are rebuilt.
	w.refreshDerived(false)
	return nil
}
