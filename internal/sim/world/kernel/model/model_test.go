package model

import "testing"

func placeAt(g *Grid, x, y int, kind string, w, h int, z Zone) {
	b := NewBuilding(kind, w, h)
	b.ConstructionProgress = 100
	g.Place(x, y, b, z)
}

func TestPlaceAndClearFootprint(t *testing.T) {
	g := NewGrid(8)
	placeAt(g, 2, 2, "mansion", 2, 2, ZoneResidential)
	if err := g.CheckFootprints(); err != nil {
		t.Fatalf("integrity: %v", err)
	}
	o, ok := g.OriginOf(3, 3)
	if !ok || o != (Point{X: 2, Y: 2}) {
		t.Fatalf("origin of (3,3): %v %v", o, ok)
	}
	g.ClearFootprint(Point{X: 2, Y: 2}, true)
	for _, p := range []Point{{2, 2}, {3, 2}, {2, 3}, {3, 3}} {
		tl := g.AtPoint(p)
		if tl.Building.Kind != KindGrass || tl.Zone != ZoneResidential {
			t.Fatalf("tile %v not reverted: %+v", p, tl.Building)
		}
	}
}

func TestRepairOrphansHealsPlaceholders(t *testing.T) {
	g := NewGrid(8)
	placeAt(g, 1, 1, "apartment_high", 3, 3, ZoneResidential)
	// Destroy the origin only, as a fire would.
	g.SetKind(1, 1, KindGrass)
	if err := g.CheckFootprints(); err == nil {
		t.Fatalf("expected orphans before repair")
	}
	if n := g.RepairOrphans(); n != 8 {
		t.Fatalf("expected 8 healed tiles, got %d", n)
	}
	if err := g.CheckFootprints(); err != nil {
		t.Fatalf("integrity after repair: %v", err)
	}
	if g.At(2, 2).Zone != ZoneResidential {
		t.Fatalf("repair must keep zone")
	}
}

func TestRepairRelinksMissingBackReference(t *testing.T) {
	g := NewGrid(8)
	placeAt(g, 4, 4, "mansion", 2, 2, ZoneResidential)
	g.At(5, 5).HasOrigin = false
	if n := g.RepairOrphans(); n != 0 {
		t.Fatalf("expected relink, healed %d", n)
	}
	if o, ok := g.OriginOf(5, 5); !ok || o != (Point{X: 4, Y: 4}) {
		t.Fatalf("relink failed: %v %v", o, ok)
	}
}

func TestRepairHealsZoneMismatch(t *testing.T) {
	g := NewGrid(6)
	placeAt(g, 0, 0, "mansion", 2, 2, ZoneResidential)
	g.At(1, 0).Zone = ZoneIndustrial
	if n := g.RepairOrphans(); n != 1 {
		t.Fatalf("expected 1 healed, got %d", n)
	}
}

func TestCountsCacheFollowsVersion(t *testing.T) {
	g := NewGrid(4)
	g.SetKind(0, 0, KindRoad)
	if c := g.Counts(); c.Roads != 1 {
		t.Fatalf("roads=%d", c.Roads)
	}
	v := g.Version()
	_ = g.Counts()
	if g.Version() != v {
		t.Fatalf("reads must not bump version")
	}
	g.SetKind(1, 0, KindRoad)
	if c := g.Counts(); c.Roads != 2 {
		t.Fatalf("cache not invalidated: roads=%d", c.Roads)
	}
}

func TestFitsReportsBlockingTiles(t *testing.T) {
	g := NewGrid(4)
	g.SetKind(1, 1, KindWater)
	ok, blocked := g.Fits(0, 0, 2, 2, func(t *Tile) bool { return t.Building.Vacant() })
	if ok || len(blocked) != 1 || blocked[0] != (Point{X: 1, Y: 1}) {
		t.Fatalf("unexpected fit result %v %v", ok, blocked)
	}
	ok, blocked = g.Fits(3, 3, 2, 2, func(t *Tile) bool { return true })
	if ok || len(blocked) != 3 {
		t.Fatalf("out of bounds tiles must block: %v", blocked)
	}
}
