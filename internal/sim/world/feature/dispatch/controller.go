package dispatch

import (
	"sort"

	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/feature/disaster"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
	"isocity.dev/internal/sim/world/logic/mathx"
	"isocity.dev/internal/sim/world/logic/pathfind"
)

// Controller owns incidents and vehicles. It is driven from the tick
// goroutine only.
type Controller struct {
	Incidents map[model.Point]*Incident
	Vehicles  []*Vehicle
	NextID    int
	Params    Params

	finder *pathfind.Finder
}

func New(p Params) *Controller {
	return &Controller{
		Incidents: map[model.Point]*Incident{},
		NextID:    1,
		Params:    p,
		finder:    pathfind.New(),
	}
}

type Summary struct {
	Dispatched int
	Resolved   int
	Removed    int
	Expired    int
}

// ReportCrime registers a crime at p lasting duration ticks. It reports
// false when an incident already exists there.
func (c *Controller) ReportCrime(p model.Point, duration int) bool {
	if _, ok := c.Incidents[p]; ok {
		return false
	}
	if duration <= 0 {
		duration = c.Params.CrimeDuration
	}
	c.Incidents[p] = &Incident{Type: IncidentCrime, Pos: p, Remaining: duration}
	return true
}

// Step runs incident sync, crime decay, the periodic scan and vehicle
// movement, in that order.
func (c *Controller) Step(tick uint64, g *model.Grid, cat *catalogs.BuildingCatalog, cov *coverage.Coverage, roll mathx.Roller) Summary {
	var sum Summary
	c.syncFires(g)
	c.spawnCrimes(g, cat, cov, roll)
	sum.Expired = c.decayCrimes()
	if c.Params.EveryTicks > 0 && tick%c.Params.EveryTicks == 0 {
		sum.Dispatched = c.scan(g, cat)
	}
	resolved, removed := c.move(g)
	sum.Resolved += resolved
	sum.Removed += removed
	return sum
}

func (c *Controller) syncFires(g *model.Grid) {
	g.Each(func(t *model.Tile) {
		if !t.IsOrigin() || !t.Building.OnFire {
			return
		}
		p := t.Point()
		if _, ok := c.Incidents[p]; !ok {
			c.Incidents[p] = &Incident{Type: IncidentFire, Pos: p}
		}
	})
	for p, inc := range c.Incidents {
		if inc.Type != IncidentFire {
			continue
		}
		t := g.AtPoint(p)
		if t == nil || !t.IsOrigin() || !t.Building.OnFire {
			delete(c.Incidents, p)
		}
	}
}

func (c *Controller) spawnCrimes(g *model.Grid, cat *catalogs.BuildingCatalog, cov *coverage.Coverage, roll mathx.Roller) {
	if c.Params.CrimeChance <= 0 || cov == nil {
		return
	}
	g.Each(func(t *model.Tile) {
		if !t.IsOrigin() || !t.Building.Active() || t.Zone == model.ZoneNone {
			return
		}
		p := t.Point()
		if _, ok := c.Incidents[p]; ok {
			return
		}
		chance := c.Params.CrimeChance * (1 - cov.PoliceAt(p.X, p.Y)/100)
		if roll.Chance(p.X, p.Y, mathx.SaltCrime, chance) {
			c.ReportCrime(p, c.Params.CrimeDuration)
		}
	})
}

// decayCrimes counts down unanswered crimes. A crime stops aging once its
// police car is on the scene.
func (c *Controller) decayCrimes() int {
	onScene := map[int]bool{}
	for _, v := range c.Vehicles {
		if v.Phase == PhaseResponding {
			onScene[v.ID] = true
		}
	}
	expired := 0
	for p, inc := range c.Incidents {
		if inc.Type != IncidentCrime || onScene[inc.ClaimedBy] {
			continue
		}
		inc.Remaining--
		if inc.Remaining <= 0 {
			delete(c.Incidents, p)
			expired++
		}
	}
	return expired
}

// SortedIncidents lists incidents in (y, x) order.
func (c *Controller) SortedIncidents() []*Incident {
	out := make([]*Incident, 0, len(c.Incidents))
	for _, inc := range c.Incidents {
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Pos, out[j].Pos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

type station struct {
	origin model.Point
	w, h   int
}

func (c *Controller) scan(g *model.Grid, cat *catalogs.BuildingCatalog) int {
	stations := map[string][]station{}
	g.Each(func(t *model.Tile) {
		if !t.IsOrigin() || !t.Building.Active() || t.Building.OnFire {
			return
		}
		k := t.Building.Kind
		if k != "fire_station" && k != "police_station" {
			return
		}
		w, h := t.Building.Size()
		stations[k] = append(stations[k], station{origin: t.Point(), w: w, h: h})
	})
	busy := map[model.Point]int{}
	for _, v := range c.Vehicles {
		busy[v.Station]++
	}
	capacity := func(kind string) int {
		if c.Params.VehiclesPerStation > 0 {
			return c.Params.VehiclesPerStation
		}
		if def, ok := cat.Get(kind); ok {
			return def.Vehicles
		}
		return 0
	}

	dispatched := 0
	for _, inc := range c.SortedIncidents() {
		if inc.ClaimedBy != 0 {
			continue
		}
		best, found := station{}, false
		bestDist := 0
		kind := stationKind(inc.Type)
		for _, s := range stations[kind] {
			if busy[s.origin] >= capacity(kind) {
				continue
			}
			d := mathx.Manhattan(s.origin.X, s.origin.Y, inc.Pos.X, inc.Pos.Y)
			if !found || d < bestDist {
				best, bestDist, found = s, d, true
			}
		}
		if !found {
			continue
		}
		from, ok := pathfind.NearestRoad(g, best.origin, best.w, best.h)
		if !ok {
			continue
		}
		to, ok := incidentRoad(g, inc.Pos)
		if !ok {
			continue
		}
		route, ok := c.finder.Find(g, from, to)
		if !ok {
			continue
		}
		v := &Vehicle{
			ID:          c.NextID,
			Kind:        vehicleKind(inc.Type),
			Tile:        from,
			Route:       route,
			Phase:       PhaseDispatching,
			Station:     best.origin,
			StationRoad: from,
			Target:      inc.Pos,
			Heading:     "N",
		}
		c.NextID++
		c.Vehicles = append(c.Vehicles, v)
		inc.ClaimedBy = v.ID
		busy[best.origin]++
		dispatched++
	}
	return dispatched
}

// incidentRoad is the road a vehicle parks on: the tile itself when it is a
// road, otherwise the first road touching the covering footprint.
func incidentRoad(g *model.Grid, p model.Point) (model.Point, bool) {
	t := g.AtPoint(p)
	if t == nil {
		return model.Point{}, false
	}
	if t.IsRoad() {
		return p, true
	}
	origin, ok := g.OriginOf(p.X, p.Y)
	if !ok {
		origin = p
	}
	w, h := g.AtPoint(origin).Building.Size()
	return pathfind.NearestRoad(g, origin, w, h)
}

func (c *Controller) release(v *Vehicle) {
	if inc, ok := c.Incidents[v.Target]; ok && inc.ClaimedBy == v.ID {
		inc.ClaimedBy = 0
	}
}

func (c *Controller) move(g *model.Grid) (resolved, removed int) {
	kept := c.Vehicles[:0]
	for _, v := range c.Vehicles {
		alive, done := c.advance(g, v)
		if done {
			resolved++
		}
		if !alive {
			c.release(v)
			removed++
			continue
		}
		kept = append(kept, v)
	}
	for i := len(kept); i < len(c.Vehicles); i++ {
		c.Vehicles[i] = nil
	}
	c.Vehicles = kept
	return resolved, removed
}

// advance moves one vehicle. alive=false removes it; done reports a
// resolved incident.
func (c *Controller) advance(g *model.Grid, v *Vehicle) (alive, done bool) {
	if t := g.AtPoint(v.Tile); t == nil || !t.IsRoad() {
		return false, false
	}
	switch v.Phase {
	case PhaseDispatching:
		if !c.follow(g, v) {
			return false, false
		}
		if v.RouteIndex < len(v.Route)-1 {
			return true, false
		}
		inc, ok := c.Incidents[v.Target]
		if !ok || inc.ClaimedBy != v.ID {
			return c.turnBack(g, v), false
		}
		v.Phase = PhaseResponding
		v.ResponseLeft = c.Params.responseTicks(v.Kind)
		return true, false

	case PhaseResponding:
		inc, ok := c.Incidents[v.Target]
		if !ok || inc.ClaimedBy != v.ID {
			return c.turnBack(g, v), false
		}
		v.ResponseLeft--
		if v.ResponseLeft > 0 {
			return true, false
		}
		if inc.Type == IncidentFire {
			disaster.Extinguish(g, v.Target)
		}
		delete(c.Incidents, v.Target)
		return c.turnBack(g, v), true

	case PhaseReturning:
		if !c.follow(g, v) {
			return false, false
		}
		return v.RouteIndex < len(v.Route)-1, false
	}
	return false, false
}

// follow consumes route at Speed tiles per tick. It reports false when the
// vehicle ends up off the road network.
func (c *Controller) follow(g *model.Grid, v *Vehicle) bool {
	v.Progress += c.Params.Speed
	for v.Progress >= 1 && v.RouteIndex < len(v.Route)-1 {
		v.Progress--
		next := v.Route[v.RouteIndex+1]
		v.Heading = heading(v.Tile, next)
		v.Tile = next
		v.RouteIndex++
		if t := g.AtPoint(v.Tile); t == nil || !t.IsRoad() {
			return false
		}
	}
	if v.RouteIndex >= len(v.Route)-1 {
		v.Progress = 0
	}
	return true
}

func (c *Controller) turnBack(g *model.Grid, v *Vehicle) bool {
	route, ok := c.finder.Find(g, v.Tile, v.StationRoad)
	if !ok {
		return false
	}
	v.Phase = PhaseReturning
	v.Route = route
	v.RouteIndex = 0
	v.Progress = 0
	v.ResponseLeft = 0
	return len(route) > 1
}

func heading(from, to model.Point) string {
	switch {
	case to.Y < from.Y:
		return "N"
	case to.X > from.X:
		return "E"
	case to.Y > from.Y:
		return "S"
	}
	return "W"
}
