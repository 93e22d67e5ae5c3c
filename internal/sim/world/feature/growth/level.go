package growth

import (
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
)

type levelOutcome int

const (
	levelNone levelOutcome = iota
	levelInPlace
	levelBumped
	levelConsolidated
)

// Plan is a legal consolidation footprint.
type Plan struct {
	Origin   model.Point
	Next     catalogs.BuildingDef
	Absorbed []model.Point
	Score    int
}

func (env Env) tryLevel(x, y int, t *model.Tile, def catalogs.BuildingDef, fresh []bool) levelOutcome {
	b := &t.Building
	if b.Age < env.Params.MinLevelAge || b.Level >= 5 {
		return levelNone
	}
	demand := env.Demand(t.Zone)
	target := TargetLevel(t.LandValue, env.Cov.Average(x, y), b.Age, demand)
	if target <= b.Level {
		return levelNone
	}
	next, ok := env.Cat.Tier(string(t.Zone), b.Level+1)
	if !ok {
		return levelNone
	}
	w, h := b.Size()
	switch {
	case next.Width == w && next.Height == h:
		b.Kind = next.ID
		b.Level++
		b.Age = 0
		env.Grid.Touch()
		return levelInPlace
	case next.Width >= w && next.Height >= h && b.Powered && b.Watered:
		if plan, ok, _ := env.PlanConsolidation(x, y); ok {
			env.consolidate(model.Point{X: x, Y: y}, plan, fresh)
			return levelConsolidated
		}
	}
	b.Level++
	b.Age = 0
	return levelBumped
}

// PlanConsolidation searches every origin offset whose footprint contains
// the building at (x, y) and returns the best legal one for its next tier.
// When none is legal, blocked lists the obstructing tiles of the candidate
// with the fewest obstructions.
func (env Env) PlanConsolidation(x, y int) (plan Plan, ok bool, blocked []model.Point) {
	g := env.Grid
	t := g.At(x, y)
	if t == nil || !t.IsOrigin() {
		return Plan{}, false, nil
	}
	b := &t.Building
	next, found := env.Cat.Tier(string(t.Zone), b.Level+1)
	if !found {
		return Plan{}, false, nil
	}
	ow, oh := b.Size()
	nw, nh := next.Width, next.Height
	if nw < ow || nh < oh || (nw == ow && nh == oh) {
		return Plan{}, false, nil
	}
	self := model.Point{X: x, Y: y}
	absorb := env.Demand(t.Zone) >= env.Params.AbsorbDemand

	for oy := y - nh + 1; oy <= y; oy++ {
		for ox := x - nw + 1; ox <= x; ox++ {
			// The new footprint must contain the whole existing one.
			if ox > x || oy > y || ox+nw < x+ow || oy+nh < y+oh {
				continue
			}
			var absorbed, bad []model.Point
			for dy := 0; dy < nh; dy++ {
				for dx := 0; dx < nw; dx++ {
					p := model.Point{X: ox + dx, Y: oy + dy}
					switch env.classify(p, self, t.Zone, absorb) {
					case tileOwn, tileVacant:
					case tileAbsorb:
						absorbed = append(absorbed, p)
					default:
						bad = append(bad, p)
					}
				}
			}
			if len(bad) > 0 {
				if blocked == nil || len(bad) < len(blocked) {
					blocked = bad
				}
				continue
			}
			// Every offset shares the same footprint, so the size penalty is
			// the number of buildings torn down to make room.
			score := adjacentRoads(g, ox, oy, nw, nh) - len(absorbed)
			if !ok || score > plan.Score {
				plan = Plan{Origin: model.Point{X: ox, Y: oy}, Next: next, Absorbed: absorbed, Score: score}
				ok = true
			}
		}
	}
	if ok {
		blocked = nil
	}
	return plan, ok, blocked
}

type tileClass int

const (
	tileBlocked tileClass = iota
	tileOwn
	tileVacant
	tileAbsorb
)

func (env Env) classify(p, self model.Point, zone model.Zone, absorb bool) tileClass {
	g := env.Grid
	t := g.AtPoint(p)
	if t == nil || t.Zone != zone {
		return tileBlocked
	}
	if o, ok := g.OriginOf(p.X, p.Y); ok && o == self && (t.IsPlaceholder() || p == self) {
		return tileOwn
	}
	if t.Building.Vacant() {
		return tileVacant
	}
	if !absorb || !t.IsOrigin() {
		return tileBlocked
	}
	b := &t.Building
	if b.Area() != 1 || !b.Complete() || b.OnFire || b.Abandoned {
		return tileBlocked
	}
	def, ok := env.Cat.Get(b.Kind)
	if !ok || !def.Consolidatable || model.Zone(def.Zone) != zone {
		return tileBlocked
	}
	return tileAbsorb
}

func adjacentRoads(g *model.Grid, ox, oy, w, h int) int {
	n := 0
	check := func(x, y int) {
		if t := g.At(x, y); t != nil && t.IsRoad() {
			n++
		}
	}
	for dx := 0; dx < w; dx++ {
		check(ox+dx, oy-1)
		check(ox+dx, oy+h)
	}
	for dy := 0; dy < h; dy++ {
		check(ox-1, oy+dy)
		check(ox+w, oy+dy)
	}
	return n
}

func (env Env) consolidate(self model.Point, plan Plan, fresh []bool) {
	g := env.Grid
	old := g.AtPoint(self).Building
	zone := g.AtPoint(self).Zone
	g.ClearFootprint(self, true)
	for _, p := range plan.Absorbed {
		g.ClearFootprint(p, true)
	}
	b := model.NewBuilding(plan.Next.ID, plan.Next.Width, plan.Next.Height)
	b.Level = old.Level + 1
	b.Powered, b.Watered = old.Powered, old.Watered
	b.Flipped = old.Flipped
	g.Place(plan.Origin.X, plan.Origin.Y, b, zone)
	fresh[g.Index(plan.Origin.X, plan.Origin.Y)] = true
}
