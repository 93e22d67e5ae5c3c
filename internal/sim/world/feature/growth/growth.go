package growth

import (
	"math"

	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
	"isocity.dev/internal/sim/world/logic/mathx"
	"isocity.dev/internal/sim/world/logic/roadaccess"
)

type Params struct {
	RoadRadius int

	// Tier-2 candidates need at least this land value.
	Tier2LandValue float64
	// Leveling waits this many ticks after completion or the last level.
	MinLevelAge uint64
	// Consolidation may absorb small neighbours at or above this demand.
	AbsorbDemand float64

	AbandonAge    uint64
	AbandonDemand float64
	RecoverDemand float64

	OutputFactor float64
}

func DefaultParams() Params {
	return Params{
		RoadRadius:     roadaccess.DefaultRadius,
		Tier2LandValue: 45,
		MinLevelAge:    60,
		AbsorbDemand:   60,
		AbandonAge:     30,
		AbandonDemand:  -20,
		RecoverDemand:  10,
		OutputFactor:   0.8,
	}
}

// Env is what one growth pass reads. Demand returns the current demand for a
// zone in [-100, 100].
type Env struct {
	Grid   *model.Grid
	Cat    *catalogs.BuildingCatalog
	Cov    *coverage.Coverage
	Roll   mathx.Roller
	Oracle *roadaccess.Oracle
	Demand func(model.Zone) float64
	Params Params
}

type Summary struct {
	Spawned      int
	Completed    int
	Upgraded     int
	Consolidated int
	Abandoned    int
	Recovered    int
}

// SpawnChance is 0 at demand <= -30, 5% at >= 50 and linear between.
func SpawnChance(demand float64) float64 {
	switch {
	case demand <= -30:
		return 0
	case demand >= 50:
		return 0.05
	}
	return (demand + 30) / 80 * 0.05
}

// AbandonChance per tick for an active building; missing counts absent
// utilities.
func AbandonChance(demand float64, missing, level int) float64 {
	p := math.Min(0.015, (-20-demand)/80*0.015)
	if p < 0 {
		p = 0
	}
	p += 0.0025 * float64(missing)
	if level > 1 {
		p += 0.0005 * float64(level-1)
	}
	return math.Min(p, 0.02)
}

func RecoverChance(demand float64) float64 {
	return math.Max(0, math.Min(0.12, (demand-10)*0.003))
}

// TargetLevel scores a building's surroundings into a level in [1, 5].
func TargetLevel(landValue, avgCoverage float64, age uint64, demand float64) int {
	s := landValue*0.5 + avgCoverage*0.3 +
		math.Min(float64(age)/200, 1)*20 +
		mathx.Clamp(demand/100*15, 0, 15)
	return mathx.ClampInt(1+int(math.Floor(s/20)), 1, 5)
}

// ApplyUtilities copies power/water coverage onto buildings. Placeholders
// keep their own flags; an origin counts as served when any tile of its
// footprint is.
func ApplyUtilities(g *model.Grid, cov *coverage.Coverage) {
	g.Each(func(t *model.Tile) {
		t.Building.Powered = cov.PowerAt(t.X, t.Y)
		t.Building.Watered = cov.WaterAt(t.X, t.Y)
	})
	g.Each(func(t *model.Tile) {
		if !t.IsOrigin() || t.Building.Area() == 1 {
			return
		}
		for _, p := range g.Footprint(t.Point()) {
			if cov.PowerAt(p.X, p.Y) {
				t.Building.Powered = true
			}
			if cov.WaterAt(p.X, p.Y) {
				t.Building.Watered = true
			}
		}
	})
}

// Step runs one growth pass in row-major order. Buildings created during the
// pass are not processed again until the next tick.
func Step(env Env) Summary {
	var sum Summary
	g := env.Grid
	size := g.Size()
	fresh := make([]bool, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if fresh[g.Index(x, y)] {
				continue
			}
			t := g.At(x, y)
			switch {
			case t.Building.Vacant():
				if t.Zone != model.ZoneNone && env.trySpawn(x, y, t.Zone) {
					fresh[g.Index(x, y)] = true
					sum.Spawned++
				}
			case t.IsOrigin():
				env.stepBuilding(x, y, t, fresh, &sum)
			}
		}
	}
	return sum
}

func (env Env) trySpawn(x, y int, zone model.Zone) bool {
	g := env.Grid
	t := g.At(x, y)
	if !env.Oracle.HasRoadAccess(g, x, y, env.Params.RoadRadius) {
		return false
	}
	cand, ok := env.Candidate(t)
	if !ok {
		return false
	}
	if !env.Roll.Chance(x, y, mathx.SaltSpawn, SpawnChance(env.Demand(zone))) {
		return false
	}
	if fits, _ := env.fitsVacant(x, y, cand, zone); !fits {
		starter, ok := env.Cat.Starter(string(zone))
		if !ok || starter.ID == cand.ID {
			return false
		}
		if fits, _ := env.fitsVacant(x, y, starter, zone); !fits {
			return false
		}
		cand = starter
	}
	b := model.NewBuilding(cand.ID, cand.Width, cand.Height)
	b.Powered, b.Watered = t.Building.Powered, t.Building.Watered
	b.Flipped = env.Roll.Float(x, y, mathx.SaltFlip) < 0.5
	g.Place(x, y, b, zone)
	return true
}

// Candidate picks the kind a vacant zoned tile would grow: the tier-2 kind
// when the tile has both utilities and enough land value, else the starter.
func (env Env) Candidate(t *model.Tile) (catalogs.BuildingDef, bool) {
	zone := string(t.Zone)
	starter, ok := env.Cat.Starter(zone)
	if !ok {
		return catalogs.BuildingDef{}, false
	}
	served := env.Cov.PowerAt(t.X, t.Y) && env.Cov.WaterAt(t.X, t.Y)
	if served && t.LandValue >= env.Params.Tier2LandValue {
		if tier2, ok := env.Cat.Tier(zone, 2); ok {
			return tier2, true
		}
	}
	return starter, true
}

func (env Env) fitsVacant(x, y int, def catalogs.BuildingDef, zone model.Zone) (bool, []model.Point) {
	return env.Grid.Fits(x, y, def.Width, def.Height, func(t *model.Tile) bool {
		return t.Zone == zone && t.Building.Vacant()
	})
}

func (env Env) stepBuilding(x, y int, t *model.Tile, fresh []bool, sum *Summary) {
	b := &t.Building
	if b.OnFire {
		return
	}
	def, ok := env.Cat.Get(b.Kind)
	if !ok {
		return
	}
	if !b.Complete() {
		b.ClearOutput()
		if env.construct(x, y, b, def) {
			sum.Completed++
			env.updateOutput(b, def)
		}
		return
	}
	zoned := def.Category == catalogs.CategoryZoned
	if b.Abandoned {
		if zoned && env.tryRecover(x, y, t) {
			sum.Recovered++
		}
		return
	}
	b.Age++
	if !zoned {
		return
	}
	if env.tryAbandon(x, y, b) {
		sum.Abandoned++
		return
	}
	switch env.tryLevel(x, y, t, def, fresh) {
	case levelInPlace:
		sum.Upgraded++
	case levelConsolidated:
		sum.Consolidated++
		return
	}
	if d, ok := env.Cat.Get(t.Building.Kind); ok {
		env.updateOutput(&t.Building, d)
	}
}

// construct advances construction and reports completion.
func (env Env) construct(x, y int, b *model.Building, def catalogs.BuildingDef) bool {
	canBuild := (b.Powered && b.Watered) || def.Starter || def.Category == catalogs.CategoryUtility
	if !canBuild {
		return false
	}
	rate := env.Roll.Range(x, y, mathx.SaltBuildRate, 3, 7) / math.Sqrt(float64(b.Area()))
	b.ConstructionProgress += rate
	if b.ConstructionProgress >= 100 {
		b.ConstructionProgress = 100
		b.Age = 0
		return true
	}
	return false
}

func (env Env) updateOutput(b *model.Building, def catalogs.BuildingDef) {
	if !b.Active() || def.Category != catalogs.CategoryZoned {
		b.ClearOutput()
		return
	}
	eff := 0.0
	if b.Powered {
		eff += 0.5
	}
	if b.Watered {
		eff += 0.5
	}
	scale := float64(b.Level) * eff * env.Params.OutputFactor
	b.Population = int(math.Floor(float64(def.MaxPop) * scale))
	b.Jobs = int(math.Floor(float64(def.MaxJobs) * scale))
}

func (env Env) tryAbandon(x, y int, b *model.Building) bool {
	if b.Age <= env.Params.AbandonAge {
		return false
	}
	demand := env.Demand(env.Grid.At(x, y).Zone)
	if demand >= env.Params.AbandonDemand {
		return false
	}
	missing := 0
	if !b.Powered {
		missing++
	}
	if !b.Watered {
		missing++
	}
	if !env.Roll.Chance(x, y, mathx.SaltAbandon, AbandonChance(demand, missing, b.Level)) {
		return false
	}
	b.Abandoned = true
	b.ClearOutput()
	return true
}

func (env Env) tryRecover(x, y int, t *model.Tile) bool {
	demand := env.Demand(t.Zone)
	if demand <= env.Params.RecoverDemand {
		return false
	}
	if !env.Roll.Chance(x, y, mathx.SaltRecover, RecoverChance(demand)) {
		return false
	}
	env.Grid.ClearFootprint(model.Point{X: x, Y: y}, true)
	return true
}
