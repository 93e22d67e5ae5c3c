package world

import (
	"fmt"

	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/encoding"
	"isocity.dev/internal/sim/world/feature/advisor"
	"isocity.dev/internal/sim/world/feature/diagnose"
	"isocity.dev/internal/sim/world/feature/dispatch"
	"isocity.dev/internal/sim/world/feature/history"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
	"isocity.dev/internal/sim/world/logic/mathx"
	"isocity.dev/internal/sim/world/terrain/gen"
)

// OutOfBoundsError is returned by coordinate queries outside the map.
type OutOfBoundsError struct {
	X, Y, Size int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: (%d,%d) outside %dx%d map", protocol.ErrOutOfBounds, e.X, e.Y, e.Size, e.Size)
}

func (e *OutOfBoundsError) Code() string { return protocol.ErrOutOfBounds }

type TileView struct {
	X    int        `json:"x"`
	Y    int        `json:"y"`
	Kind string     `json:"kind"`
	Zone model.Zone `json:"zone,omitempty"`

	Level        int     `json:"level"`
	Population   int     `json:"population"`
	Jobs         int     `json:"jobs"`
	Powered      bool    `json:"powered"`
	Watered      bool    `json:"watered"`
	OnFire       bool    `json:"on_fire,omitempty"`
	FireProgress float64 `json:"fire_progress,omitempty"`
	Age          uint64  `json:"age"`
	Construction float64 `json:"construction"`
	Abandoned    bool    `json:"abandoned,omitempty"`
	Flipped      bool    `json:"flipped,omitempty"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`

	LandValue float64 `json:"land_value"`
	Pollution float64 `json:"pollution"`
	Subway    bool    `json:"subway,omitempty"`

	// Origin is set on placeholder tiles only.
	Origin *model.Point `json:"origin,omitempty"`

	Police    float64 `json:"police"`
	Fire      float64 `json:"fire"`
	Health    float64 `json:"health"`
	Education float64 `json:"education"`
}

// StateView is the JSON read model served by the host.
type StateView struct {
	WorldID     string              `json:"world_id"`
	Tick        uint64              `json:"tick"`
	Digest      string              `json:"digest"`
	Size        int                 `json:"size"`
	Stats       protocol.CityStats  `json:"stats"`
	Budget      map[string]float64  `json:"budget"`
	Disasters   bool                `json:"disasters"`
	History     []history.Entry     `json:"history"`
	Advice      []advisor.Message   `json:"advice"`
	Vehicles    []dispatch.Vehicle  `json:"vehicles"`
	Incidents   []dispatch.Incident `json:"incidents"`
	WaterBodies []gen.WaterBody     `json:"water_bodies"`
	Tiles       []TileView          `json:"tiles,omitempty"`
	Layers      *MapLayers          `json:"layers,omitempty"`
}

// MapLayers is the compact whole-map form of the kind and zone of every tile.
type MapLayers struct {
	Kind encoding.Layer `json:"kind"`
	Zone encoding.Layer `json:"zone"`
}

func (w *World) tileView(t *model.Tile) TileView {
	b := &t.Building
	bw, bh := b.Size()
	i := w.grid.Index(t.X, t.Y)
	v := TileView{
		X:            t.X,
		Y:            t.Y,
		Kind:         b.Kind,
		Zone:         t.Zone,
		Level:        b.Level,
		Population:   b.Population,
		Jobs:         b.Jobs,
		Powered:      b.Powered,
		Watered:      b.Watered,
		OnFire:       b.OnFire,
		FireProgress: b.FireProgress,
		Age:          b.Age,
		Construction: b.ConstructionProgress,
		Abandoned:    b.Abandoned,
		Flipped:      b.Flipped,
		Width:        bw,
		Height:       bh,
		LandValue:    t.LandValue,
		Pollution:    t.Pollution,
		Subway:       t.HasSubway,
		Police:       w.cov.Police[i],
		Fire:         w.cov.Fire[i],
		Health:       w.cov.Health[i],
		Education:    w.cov.Education[i],
	}
	if t.IsPlaceholder() && t.HasOrigin {
		o := t.Origin
		v.Origin = &o
	}
	return v
}

func (w *World) TileView(x, y int) (TileView, error) {
	t := w.grid.At(x, y)
	if t == nil {
		return TileView{}, &OutOfBoundsError{X: x, Y: y, Size: w.grid.Size()}
	}
	return w.tileView(t), nil
}

// Tiles lists every tile in row-major order.
func (w *World) Tiles() []TileView {
	out := make([]TileView, 0, w.grid.Size()*w.grid.Size())
	w.grid.Each(func(t *model.Tile) {
		out = append(out, w.tileView(t))
	})
	return out
}

// Coverage returns a copy of the coverage computed on the last tick.
func (w *World) Coverage() *coverage.Coverage {
	c := &coverage.Coverage{
		Size:      w.cov.Size,
		Police:    append([]float64(nil), w.cov.Police...),
		Fire:      append([]float64(nil), w.cov.Fire...),
		Health:    append([]float64(nil), w.cov.Health...),
		Education: append([]float64(nil), w.cov.Education...),
		Power:     append([]bool(nil), w.cov.Power...),
		Water:     append([]bool(nil), w.cov.Water...),
	}
	return c
}

func (w *World) Stats() protocol.CityStats {
	a := w.agg
	return protocol.CityStats{
		Population:  a.Population,
		Jobs:        a.Jobs,
		Money:       w.econ.Money,
		Income:      w.econ.Income,
		Expenses:    w.econ.Expenses,
		Safety:      w.qol.Safety,
		Health:      w.qol.Health,
		Education:   w.qol.Education,
		Environment: w.qol.Environment,
		Happiness:   w.qol.Happiness,
		Demand: protocol.Demand{
			Residential: w.econ.Demand.Residential,
			Commercial:  w.econ.Demand.Commercial,
			Industrial:  w.econ.Demand.Industrial,
		},
		TaxRate:        w.econ.TaxRate,
		EffectiveTax:   w.econ.EffectiveTax,
		Month:          w.econ.Month,
		Year:           w.econ.Year,
		Trees:          a.Trees,
		WaterTiles:     a.WaterTiles,
		Parks:          a.Parks,
		SubwayTiles:    a.SubwayTiles,
		SubwayStations: a.SubwayStations,
		Abandoned:      a.Abandoned,
		Burning:        a.Burning,
	}
}

// History is oldest first.
func (w *World) History() []history.Entry { return w.history.List() }

func (w *World) Advice() []advisor.Message {
	return append([]advisor.Message(nil), w.advice...)
}

func (w *World) Vehicles() []dispatch.Vehicle {
	out := make([]dispatch.Vehicle, 0, len(w.dispatch.Vehicles))
	for _, v := range w.dispatch.Vehicles {
		c := *v
		c.Route = append([]model.Point(nil), v.Route...)
		out = append(out, c)
	}
	return out
}

func (w *World) Incidents() []dispatch.Incident {
	sorted := w.dispatch.SortedIncidents()
	out := make([]dispatch.Incident, 0, len(sorted))
	for _, inc := range sorted {
		out = append(out, *inc)
	}
	return out
}

func (w *World) WaterBodies() []gen.WaterBody {
	out := make([]gen.WaterBody, 0, len(w.water))
	for _, b := range w.water {
		c := b
		c.Tiles = append([]model.Point(nil), b.Tiles...)
		out = append(out, c)
	}
	return out
}

func (w *World) DisastersEnabled() bool { return w.disasters }

// Diagnose explains why (x, y) is or isn't developing, using the coverage
// and demand of the last tick.
func (w *World) Diagnose(x, y int) (diagnose.Report, error) {
	if !w.grid.InBounds(x, y) {
		return diagnose.Report{}, &OutOfBoundsError{X: x, Y: y, Size: w.grid.Size()}
	}
	roll := mathx.Roller{Seed: w.cfg.Seed, Tick: w.tick.Load()}
	return diagnose.Explain(w.growthEnv(roll), x, y), nil
}

// View assembles the read model; tiles are included on request.
func (w *World) View(withTiles bool) StateView {
	budget := make(map[string]float64, len(w.econ.Budget))
	for k, v := range w.econ.Budget {
		budget[k] = v
	}
	v := StateView{
		WorldID:     w.cfg.ID,
		Tick:        w.tick.Load(),
		Digest:      w.lastDigest,
		Size:        w.grid.Size(),
		Stats:       w.Stats(),
		Budget:      budget,
		Disasters:   w.disasters,
		History:     w.History(),
		Advice:      w.Advice(),
		Vehicles:    w.Vehicles(),
		Incidents:   w.Incidents(),
		WaterBodies: w.WaterBodies(),
	}
	if withTiles {
		v.Tiles = w.Tiles()
	}
	return v
}

func (w *World) MapLayers() MapLayers {
	n := w.grid.Size() * w.grid.Size()
	kinds := make([]string, 0, n)
	zones := make([]string, 0, n)
	w.grid.Each(func(t *model.Tile) {
		kinds = append(kinds, t.Building.Kind)
		zones = append(zones, string(t.Zone))
	})
	return MapLayers{Kind: encoding.EncodeLayer(kinds), Zone: encoding.EncodeLayer(zones)}
}
