package diagnose

import (
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/feature/growth"
	"isocity.dev/internal/sim/world/kernel/model"
)

// Reason codes.
const (
	NotZoned              = "NOT_ZONED"
	NoRoadAccess          = "NO_ROAD_ACCESS"
	NoPower               = "NO_POWER"
	NoWater               = "NO_WATER"
	FootprintBlocked      = "FOOTPRINT_BLOCKED"
	WaitingForDevelopment = "WAITING_FOR_DEVELOPMENT"
	UnderConstruction     = "UNDER_CONSTRUCTION"
	Abandoned             = "ABANDONED"
	Developed             = "DEVELOPED"
	Water                 = "WATER"
)

type Reason struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Blocking []model.Point `json:"blocking,omitempty"`
}

type Report struct {
	X       int         `json:"x"`
	Y       int         `json:"y"`
	Kind    string      `json:"kind"`
	Zone    model.Zone  `json:"zone"`
	Origin  model.Point `json:"origin"`
	Reasons []Reason    `json:"reasons"`
}

func (r *Report) add(code, msg string, blocking ...model.Point) {
	r.Reasons = append(r.Reasons, Reason{Code: code, Message: msg, Blocking: blocking})
}

// Has reports whether code is among the reasons.
func (r Report) Has(code string) bool {
	for _, rs := range r.Reasons {
		if rs.Code == code {
			return true
		}
	}
	return false
}

// Explain answers "why isn't this tile developing". env must describe the
// current tick (grid, coverage, demand).
func Explain(env growth.Env, x, y int) Report {
	g := env.Grid
	t := g.At(x, y)
	rep := Report{X: x, Y: y, Origin: model.Point{X: x, Y: y}}
	if t == nil {
		return rep
	}
	rep.Kind = t.Building.Kind
	rep.Zone = t.Zone

	if t.IsWater() {
		rep.add(Water, "water cannot be developed")
		return rep
	}

	if t.IsPlaceholder() || t.IsOrigin() {
		if o, ok := g.OriginOf(x, y); ok {
			rep.Origin = o
			t = g.AtPoint(o)
			rep.Kind = t.Building.Kind
		}
		explainBuilding(env, t, &rep)
		return rep
	}

	if t.Zone == model.ZoneNone {
		rep.add(NotZoned, "tile is not zoned")
		return rep
	}
	if t.IsRoad() {
		rep.add(NotZoned, "roads are never developed")
		return rep
	}

	ready := true
	if !env.Oracle.HasRoadAccess(g, x, y, env.Params.RoadRadius) {
		rep.add(NoRoadAccess, "no road within reach through this zone")
		ready = false
	}
	if !env.Cov.PowerAt(x, y) {
		rep.add(NoPower, "no power; only starter buildings can grow")
	}
	if !env.Cov.WaterAt(x, y) {
		rep.add(NoWater, "no water; only starter buildings can grow")
	}
	if cand, ok := env.Candidate(t); ok {
		if fits, blocked := fitsAt(g, t, cand); !fits {
			// Growth falls back to the starter when the candidate is too big.
			starter, sok := env.Cat.Starter(string(t.Zone))
			if !sok {
				rep.add(FootprintBlocked, "no room for "+cand.ID, blocked...)
				ready = false
			} else if sfits, sblocked := fitsAt(g, t, starter); !sfits {
				rep.add(FootprintBlocked, "no room for "+starter.ID, sblocked...)
				ready = false
			}
		}
	}
	if ready {
		rep.add(WaitingForDevelopment, "eligible; waiting on demand")
	}
	return rep
}

func fitsAt(g *model.Grid, t *model.Tile, def catalogs.BuildingDef) (bool, []model.Point) {
	return g.Fits(t.X, t.Y, def.Width, def.Height, func(ft *model.Tile) bool {
		return ft.Zone == t.Zone && ft.Building.Vacant()
	})
}

func explainBuilding(env growth.Env, t *model.Tile, rep *Report) {
	b := &t.Building
	def, _ := env.Cat.Get(b.Kind)
	switch {
	case !b.Complete():
		rep.add(UnderConstruction, "under construction")
		needs := def.Category != catalogs.CategoryUtility && !def.Starter
		if needs && !b.Powered {
			rep.add(NoPower, "construction halted without power")
		}
		if needs && !b.Watered {
			rep.add(NoWater, "construction halted without water")
		}
	case b.Abandoned:
		rep.add(Abandoned, "abandoned")
	default:
		rep.add(Developed, "developed")
		if def.Category != catalogs.CategoryZoned || b.Level >= 5 {
			return
		}
		if !b.Powered {
			rep.add(NoPower, "cannot grow further without power")
		}
		if !b.Watered {
			rep.add(NoWater, "cannot grow further without water")
		}
		if _, ok, blocked := env.PlanConsolidation(t.X, t.Y); !ok && len(blocked) > 0 {
			rep.add(FootprintBlocked, "next tier does not fit", blocked...)
		}
	}
}
