package disaster

import (
	"testing"

	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
	"isocity.dev/internal/sim/world/logic/mathx"
)

func burningHouse(g *model.Grid, x, y int) {
	b := model.NewBuilding("house_small", 1, 1)
	b.ConstructionProgress = 100
	b.OnFire = true
	g.Place(x, y, b, model.ZoneResidential)
}

func TestFireBurnsOutIn150Ticks(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(8)
	burningHouse(g, 3, 3)
	cov := coverage.Compute(g, cat)

	for tick := uint64(1); tick < 150; tick++ {
		sum := Step(g, cov, mathx.Roller{Seed: 1, Tick: tick}, false, DefaultParams())
		if len(sum.Destroyed) != 0 {
			t.Fatalf("destroyed early at tick %d", tick)
		}
	}
	sum := Step(g, cov, mathx.Roller{Seed: 1, Tick: 150}, false, DefaultParams())
	if len(sum.Destroyed) != 1 {
		t.Fatalf("fire did not burn out on tick 150 (progress %v)", g.At(3, 3).Building.FireProgress)
	}
	tl := g.At(3, 3)
	if tl.Building.Kind != model.KindGrass || tl.Zone != model.ZoneNone {
		t.Fatalf("burnt tile = %q zone %q", tl.Building.Kind, tl.Zone)
	}
}

func TestFireDestroysOnlyOriginTile(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(8)
	b := model.NewBuilding("mansion", 2, 2)
	b.ConstructionProgress = 100
	b.OnFire = true
	b.FireProgress = 99.5
	g.Place(2, 2, b, model.ZoneResidential)

	Step(g, coverage.Compute(g, cat), mathx.Roller{Seed: 3, Tick: 1}, false, DefaultParams())
	if !g.At(3, 3).IsPlaceholder() {
		t.Fatalf("placeholder should survive until the repair pass")
	}
	if healed := g.RepairOrphans(); healed != 3 {
		t.Fatalf("healed %d placeholders, want 3", healed)
	}
	if err := g.CheckFootprints(); err != nil {
		t.Fatalf("footprints after repair: %v", err)
	}
}

func TestSuppressionWithFullCoverage(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(10)
	station := model.NewBuilding("fire_station", 1, 1)
	station.ConstructionProgress = 100
	g.Place(4, 4, station, model.ZoneNone)
	burningHouse(g, 5, 4)
	cov := coverage.Compute(g, cat)

	for tick := uint64(1); tick <= 150; tick++ {
		sum := Step(g, cov, mathx.Roller{Seed: 9, Tick: tick}, false, DefaultParams())
		if len(sum.Suppressed) > 0 {
			if g.At(5, 4).Building.OnFire {
				t.Fatalf("suppressed building still burning")
			}
			return
		}
	}
	t.Fatalf("a covered fire should be suppressed well before it burns out")
}

func TestDisabledNeverIgnites(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			b := model.NewBuilding("shop_small", 1, 1)
			b.ConstructionProgress = 100
			g.Place(x, y, b, model.ZoneCommercial)
		}
	}
	cov := coverage.Compute(g, cat)
	p := DefaultParams()
	p.IgniteChance = 0.5
	for tick := uint64(1); tick <= 20; tick++ {
		if sum := Step(g, cov, mathx.Roller{Seed: 2, Tick: tick}, false, p); len(sum.Ignited) != 0 {
			t.Fatalf("ignition with disasters disabled")
		}
	}
	if sum := Step(g, cov, mathx.Roller{Seed: 2, Tick: 21}, true, p); len(sum.Ignited) == 0 {
		t.Fatalf("expected ignitions when enabled at 50%%")
	}
}

func TestSpreadToNeighbours(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(5)
	burningHouse(g, 2, 2)
	for _, p := range []model.Point{{X: 1, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 3}} {
		b := model.NewBuilding("house_small", 1, 1)
		b.ConstructionProgress = 100
		g.Place(p.X, p.Y, b, model.ZoneResidential)
	}
	cov := coverage.Compute(g, cat)
	p := DefaultParams()
	p.IgniteChance = 0
	p.SpreadChance = 1
	sum := Step(g, cov, mathx.Roller{Seed: 4, Tick: 1}, true, p)
	if len(sum.Ignited) != 4 {
		t.Fatalf("ignited %d neighbours, want 4", len(sum.Ignited))
	}
	if g.At(1, 2).Building.FireProgress != 0 {
		t.Fatalf("fresh fires must not progress on the tick they start")
	}
}
