package model

import "fmt"

// maxFootprint bounds the reverse search used to repair placeholders that
// lost their back-reference.
const maxFootprint = 4

// Fits reports whether a w×h footprint at (ox, oy) is in bounds and every
// tile satisfies ok. Blocking tiles are returned in row-major order.
func (g *Grid) Fits(ox, oy, w, h int, ok func(t *Tile) bool) (bool, []Point) {
	var blocked []Point
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			t := g.At(ox+dx, oy+dy)
			if t == nil {
				blocked = append(blocked, Point{X: ox + dx, Y: oy + dy})
				continue
			}
			if !ok(t) {
				blocked = append(blocked, t.Point())
			}
		}
	}
	return len(blocked) == 0, blocked
}

// Place writes b at origin (ox, oy) and fills the rest of its footprint with
// placeholders pointing back at the origin. Callers must check Fits first.
func (g *Grid) Place(ox, oy int, b Building, zone Zone) {
	w, h := b.Size()
	b.Width, b.Height = w, h
	origin := Point{X: ox, Y: oy}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			t := g.At(ox+dx, oy+dy)
			if t == nil {
				continue
			}
			t.Zone = zone
			if dx == 0 && dy == 0 {
				t.Building = b
				t.HasOrigin = false
				t.Origin = Point{}
				continue
			}
			t.Building = NewBuilding(KindPlaceholder, 1, 1)
			t.HasOrigin = true
			t.Origin = origin
		}
	}
	g.touch()
}

// OriginOf resolves a tile to the origin of the building covering it.
func (g *Grid) OriginOf(x, y int) (Point, bool) {
	t := g.At(x, y)
	if t == nil {
		return Point{}, false
	}
	if t.IsPlaceholder() {
		if !t.HasOrigin {
			return Point{}, false
		}
		return t.Origin, true
	}
	return Point{X: x, Y: y}, true
}

// Footprint lists the tiles of the building whose origin is p, using the
// size stored on the origin building.
func (g *Grid) Footprint(p Point) []Point {
	t := g.AtPoint(p)
	if t == nil {
		return nil
	}
	w, h := t.Building.Size()
	out := make([]Point, 0, w*h)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if g.InBounds(p.X+dx, p.Y+dy) {
				out = append(out, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return out
}

// ClearFootprint reverts the origin at p and every placeholder that points to
// it back to grass. Zone tags survive when keepZone is set.
func (g *Grid) ClearFootprint(p Point, keepZone bool) {
	o := g.AtPoint(p)
	if o == nil {
		return
	}
	for _, fp := range g.Footprint(p) {
		t := g.AtPoint(fp)
		if fp != p && !(t.IsPlaceholder() && t.HasOrigin && t.Origin == p) {
			continue
		}
		t.Building = NewBuilding(KindGrass, 1, 1)
		t.HasOrigin = false
		t.Origin = Point{}
		if !keepZone {
			t.Zone = ZoneNone
		}
	}
	g.touch()
}

func (g *Grid) covers(origin Point, x, y int) bool {
	o := g.AtPoint(origin)
	if o == nil || !o.IsOrigin() {
		return false
	}
	w, h := o.Building.Size()
	return x >= origin.X && y >= origin.Y && x < origin.X+w && y < origin.Y+h
}

// RepairOrphans heals placeholders whose origin no longer covers them (or
// whose zone differs) back to grass. A placeholder missing its
// back-reference is first re-linked by searching up and left for a covering
// origin. Returns the number of healed tiles.
func (g *Grid) RepairOrphans() int {
	healed := 0
	for i := range g.tiles {
		t := &g.tiles[i]
		if !t.IsPlaceholder() {
			continue
		}
		if !t.HasOrigin {
			if p, ok := g.searchOrigin(t.X, t.Y); ok {
				t.Origin = p
				t.HasOrigin = true
				continue
			}
		} else if g.covers(t.Origin, t.X, t.Y) && g.AtPoint(t.Origin).Zone == t.Zone {
			continue
		}
		t.Building = NewBuilding(KindGrass, 1, 1)
		t.HasOrigin = false
		t.Origin = Point{}
		healed++
	}
	if healed > 0 {
		g.touch()
	}
	return healed
}

func (g *Grid) searchOrigin(x, y int) (Point, bool) {
	self := g.At(x, y)
	for dy := 0; dy < maxFootprint; dy++ {
		for dx := 0; dx < maxFootprint; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			p := Point{X: x - dx, Y: y - dy}
			if g.covers(p, x, y) && g.AtPoint(p).Zone == self.Zone {
				return p, true
			}
		}
	}
	return Point{}, false
}

// CheckFootprints verifies that every placeholder traces back to exactly one
// origin of the same zone and that no two footprints overlap.
func (g *Grid) CheckFootprints() error {
	owner := make(map[Point]Point, len(g.tiles))
	for i := range g.tiles {
		t := &g.tiles[i]
		if !t.IsOrigin() {
			continue
		}
		o := t.Point()
		for _, fp := range g.Footprint(o) {
			if prev, dup := owner[fp]; dup {
				return fmt.Errorf("tile %v claimed by %v and %v", fp, prev, o)
			}
			owner[fp] = o
			ft := g.AtPoint(fp)
			if fp == o {
				continue
			}
			if !ft.IsPlaceholder() || !ft.HasOrigin || ft.Origin != o {
				return fmt.Errorf("tile %v in footprint of %v is %q", fp, o, ft.Building.Kind)
			}
			if ft.Zone != t.Zone {
				return fmt.Errorf("tile %v zone %q differs from origin %v zone %q", fp, ft.Zone, o, t.Zone)
			}
		}
	}
	for i := range g.tiles {
		t := &g.tiles[i]
		if !t.IsPlaceholder() {
			continue
		}
		if o, ok := owner[t.Point()]; !ok || o != t.Origin {
			return fmt.Errorf("orphan placeholder at %v", t.Point())
		}
	}
	return nil
}
