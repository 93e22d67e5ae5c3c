package disaster

import (
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
	"isocity.dev/internal/sim/world/logic/mathx"
)

type Params struct {
	IgniteChance    float64
	SpreadChance    float64
	SuppressDivisor float64
	BurnRate        float64
}

func DefaultParams() Params {
	return Params{
		IgniteChance:    0.00003,
		SpreadChance:    0.005,
		SuppressDivisor: 300,
		BurnRate:        2.0 / 3.0,
	}
}

type Summary struct {
	Ignited    []model.Point
	Suppressed []model.Point
	Destroyed  []model.Point
}

// Step advances fires by one tick. Ignition and spread only happen when
// enabled; fires already burning keep progressing either way. Buildings that
// catch fire this tick start burning next tick.
func Step(g *model.Grid, cov *coverage.Coverage, roll mathx.Roller, enabled bool, p Params) Summary {
	var sum Summary

	var burning []model.Point
	g.Each(func(t *model.Tile) {
		if t.IsOrigin() && t.Building.OnFire {
			burning = append(burning, t.Point())
		}
	})

	if enabled {
		g.Each(func(t *model.Tile) {
			if !t.IsOrigin() || t.Building.OnFire {
				return
			}
			if roll.Chance(t.X, t.Y, mathx.SaltIgnite, p.IgniteChance) {
				ignite(t)
				sum.Ignited = append(sum.Ignited, t.Point())
			}
		})
		for _, src := range burning {
			for _, d := range model.Neighbors4 {
				n := src.Add(d.X, d.Y)
				o, ok := g.OriginOf(n.X, n.Y)
				if !ok || o == src {
					continue
				}
				t := g.AtPoint(o)
				if !t.IsOrigin() || t.Building.OnFire {
					continue
				}
				chance := p.SpreadChance * (1 - cov.FireAt(n.X, n.Y)/100)
				if roll.Chance(n.X, n.Y, mathx.SaltSpread, chance) {
					ignite(t)
					sum.Ignited = append(sum.Ignited, o)
				}
			}
		}
	}

	for _, pt := range burning {
		t := g.AtPoint(pt)
		b := &t.Building
		if roll.Chance(pt.X, pt.Y, mathx.SaltSuppress, cov.FireAt(pt.X, pt.Y)/p.SuppressDivisor) {
			b.OnFire = false
			b.FireProgress = 0
			sum.Suppressed = append(sum.Suppressed, pt)
			continue
		}
		b.FireProgress += p.BurnRate
		if mathx.NearlyAtLeast(b.FireProgress, 100) {
			Destroy(g, pt)
			sum.Destroyed = append(sum.Destroyed, pt)
		}
	}
	return sum
}

func ignite(t *model.Tile) {
	t.Building.OnFire = true
	t.Building.FireProgress = 0
}

// Extinguish puts out a fire at the origin p.
func Extinguish(g *model.Grid, p model.Point) bool {
	t := g.AtPoint(p)
	if t == nil || !t.IsOrigin() || !t.Building.OnFire {
		return false
	}
	t.Building.OnFire = false
	t.Building.FireProgress = 0
	return true
}

// Destroy reverts the origin tile to unzoned grass. Remaining placeholders
// become orphans for the repair pass.
func Destroy(g *model.Grid, p model.Point) {
	g.SetKind(p.X, p.Y, model.KindGrass)
	g.SetZone(p.X, p.Y, model.ZoneNone)
}
