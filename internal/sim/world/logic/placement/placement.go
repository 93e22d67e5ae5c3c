package placement

import (
	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
)

// Result reports whether a request changed the grid. Illegal requests leave
// the grid untouched and carry a protocol reason code.
type Result struct {
	Changed bool
	Code    string
	Cost    float64
	Origin  model.Point
	Blocked []model.Point
}

func noop(code string) Result { return Result{Code: code} }

// Place builds kind with its origin at (x, y). Callers bounds-check first.
func Place(g *model.Grid, cat *catalogs.BuildingCatalog, x, y int, kind string) Result {
	if kind == model.KindGrass {
		return Bulldoze(g, x, y)
	}
	def, ok := cat.Get(kind)
	if !ok || kind == model.KindPlaceholder {
		return noop(protocol.ErrUnknownKind)
	}
	t := g.At(x, y)
	if t == nil {
		return noop(protocol.ErrOutOfBounds)
	}
	if t.IsWater() {
		return noop(protocol.ErrBlocked)
	}

	w, h := def.Width, def.Height
	if model.IsTerrainKind(kind) {
		w, h = 1, 1
	}
	fits, blocked := g.Fits(x, y, w, h, func(ft *model.Tile) bool {
		return ft.Building.Vacant()
	})
	if !fits {
		r := noop(protocol.ErrOccupied)
		r.Blocked = blocked
		return r
	}
	if def.Waterfront && !touchesWater(g, x, y, w, h) {
		return noop(protocol.ErrWaterfront)
	}

	zone := model.Zone(def.Zone)
	b := model.NewBuilding(kind, w, h)
	if model.IsTerrainKind(kind) {
		// Roads and terrain drop the zone; trees keep it so zoned lots stay zoned.
		z := t.Zone
		if kind != model.KindTree {
			z = model.ZoneNone
		}
		g.Place(x, y, b, z)
	} else {
		g.Place(x, y, b, zone)
	}
	return Result{Changed: true, Cost: def.Cost, Origin: model.Point{X: x, Y: y}}
}

func touchesWater(g *model.Grid, x, y, w, h int) bool {
	for dy := -1; dy <= h; dy++ {
		for dx := -1; dx <= w; dx++ {
			inside := dx >= 0 && dy >= 0 && dx < w && dy < h
			corner := (dx == -1 || dx == w) && (dy == -1 || dy == h)
			if inside || corner {
				continue
			}
			if t := g.At(x+dx, y+dy); t != nil && t.IsWater() {
				return true
			}
		}
	}
	return false
}

// Bulldoze clears whatever covers (x, y): a whole footprint when the tile is
// part of a building, otherwise the single terrain tile. The zone goes too.
func Bulldoze(g *model.Grid, x, y int) Result {
	t := g.At(x, y)
	if t == nil {
		return noop(protocol.ErrOutOfBounds)
	}
	if t.IsWater() {
		return noop(protocol.ErrBlocked)
	}
	if t.IsPlaceholder() || t.IsOrigin() {
		origin, ok := g.OriginOf(x, y)
		if !ok {
			g.SetKind(x, y, model.KindGrass)
			g.SetZone(x, y, model.ZoneNone)
			return Result{Changed: true, Origin: model.Point{X: x, Y: y}}
		}
		g.ClearFootprint(origin, false)
		return Result{Changed: true, Origin: origin}
	}
	if t.Building.Kind == model.KindGrass && t.Zone == model.ZoneNone {
		return noop(protocol.ErrNoop)
	}
	g.SetKind(x, y, model.KindGrass)
	g.SetZone(x, y, model.ZoneNone)
	return Result{Changed: true, Origin: model.Point{X: x, Y: y}}
}

// Zone tags (x, y) with z. ZoneNone dezones, demolishing a zoned building
// standing on the tile.
func Zone(g *model.Grid, x, y int, z model.Zone) Result {
	t := g.At(x, y)
	if t == nil {
		return noop(protocol.ErrOutOfBounds)
	}
	if t.IsWater() || t.IsRoad() {
		return noop(protocol.ErrInvalidTarget)
	}
	if z == model.ZoneNone {
		if t.Zone == model.ZoneNone {
			return noop(protocol.ErrNoop)
		}
		if t.IsPlaceholder() || t.IsOrigin() {
			if origin, ok := g.OriginOf(x, y); ok {
				g.ClearFootprint(origin, false)
				return Result{Changed: true, Origin: origin}
			}
			g.SetKind(x, y, model.KindGrass)
		}
		g.SetZone(x, y, model.ZoneNone)
		return Result{Changed: true, Origin: model.Point{X: x, Y: y}}
	}
	if t.IsPlaceholder() || t.IsOrigin() {
		return noop(protocol.ErrOccupied)
	}
	if t.Zone == z {
		return noop(protocol.ErrNoop)
	}
	g.SetZone(x, y, z)
	return Result{Changed: true, Origin: model.Point{X: x, Y: y}}
}

// Subway lays or removes a subway tunnel under (x, y).
func Subway(g *model.Grid, x, y int, on bool) Result {
	t := g.At(x, y)
	if t == nil {
		return noop(protocol.ErrOutOfBounds)
	}
	if t.IsWater() {
		return noop(protocol.ErrBlocked)
	}
	if t.HasSubway == on {
		return noop(protocol.ErrNoop)
	}
	g.SetSubway(x, y, on)
	return Result{Changed: true, Origin: model.Point{X: x, Y: y}}
}
