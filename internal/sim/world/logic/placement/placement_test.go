package placement

import (
	"testing"

	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
)

func buildingCatalog(t *testing.T) *catalogs.BuildingCatalog {
	t.Helper()
	c, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return &c.Buildings
}

func TestPlace_MultiTileFootprint(t *testing.T) {
	cat := buildingCatalog(t)
	g := model.NewGrid(10)
	r := Place(g, cat, 2, 2, "hospital")
	if !r.Changed {
		t.Fatalf("hospital placement failed: %s", r.Code)
	}
	if got := g.At(2, 2).Building.Kind; got != "hospital" {
		t.Fatalf("origin kind = %q", got)
	}
	if got := g.At(2, 2).Building.ConstructionProgress; got != 0 {
		t.Fatalf("new building progress = %v, want 0", got)
	}
	if p := g.At(3, 3); !p.IsPlaceholder() || p.Origin != (model.Point{X: 2, Y: 2}) {
		t.Fatalf("placeholder wrong: %+v", p)
	}
	if err := g.CheckFootprints(); err != nil {
		t.Fatalf("footprint integrity: %v", err)
	}
}

func TestPlace_IllegalIsNoop(t *testing.T) {
	cat := buildingCatalog(t)
	g := model.NewGrid(10)
	g.SetKind(5, 5, model.KindWater)
	Place(g, cat, 0, 0, "police_station")

	before := g.Version()
	cases := []struct {
		name string
		x, y int
		kind string
		code string
	}{
		{"on water", 5, 5, "road", protocol.ErrBlocked},
		{"collision", 0, 0, "road", protocol.ErrOccupied},
		{"footprint overlaps water", 4, 4, "hospital", protocol.ErrOccupied},
		{"footprint off map", 9, 9, "hospital", protocol.ErrOccupied},
		{"unknown", 1, 1, "castle", protocol.ErrUnknownKind},
		{"placeholder kind", 1, 1, model.KindPlaceholder, protocol.ErrUnknownKind},
		{"waterfront inland", 0, 8, "pier", protocol.ErrWaterfront},
	}
	for _, c := range cases {
		r := Place(g, cat, c.x, c.y, c.kind)
		if r.Changed || r.Code != c.code {
			t.Fatalf("%s: got changed=%v code=%q, want no-op %q", c.name, r.Changed, r.Code, c.code)
		}
	}
	if g.Version() != before {
		t.Fatalf("illegal placements mutated the grid")
	}
}

func TestPlace_WaterfrontNeedsAdjacentWater(t *testing.T) {
	cat := buildingCatalog(t)
	g := model.NewGrid(10)
	g.SetKind(5, 4, model.KindWater)
	if r := Place(g, cat, 5, 5, "pier"); !r.Changed {
		t.Fatalf("pier beside water rejected: %s", r.Code)
	}
	// Diagonal contact does not count.
	g2 := model.NewGrid(10)
	g2.SetKind(4, 4, model.KindWater)
	if r := Place(g2, cat, 5, 5, "pier"); r.Changed {
		t.Fatalf("diagonal water accepted")
	}
}

func TestBulldoze_ResolvesPlaceholder(t *testing.T) {
	cat := buildingCatalog(t)
	g := model.NewGrid(10)
	Place(g, cat, 3, 3, "university")
	r := Bulldoze(g, 5, 5)
	if !r.Changed || r.Origin != (model.Point{X: 3, Y: 3}) {
		t.Fatalf("bulldoze placeholder: %+v", r)
	}
	for y := 3; y < 6; y++ {
		for x := 3; x < 6; x++ {
			if k := g.At(x, y).Building.Kind; k != model.KindGrass {
				t.Fatalf("tile %d,%d = %q after bulldoze", x, y, k)
			}
		}
	}
	if r := Bulldoze(g, 0, 0); r.Changed || r.Code != protocol.ErrNoop {
		t.Fatalf("bulldozing bare grass should be a no-op, got %+v", r)
	}
}

func TestZone_Rules(t *testing.T) {
	cat := buildingCatalog(t)
	g := model.NewGrid(10)
	g.SetKind(0, 0, model.KindWater)
	g.SetKind(1, 0, model.KindRoad)
	Place(g, cat, 4, 4, "school")

	if r := Zone(g, 0, 0, model.ZoneResidential); r.Changed {
		t.Fatalf("zoned water")
	}
	if r := Zone(g, 1, 0, model.ZoneResidential); r.Changed {
		t.Fatalf("zoned road")
	}
	if r := Zone(g, 5, 5, model.ZoneCommercial); r.Changed || r.Code != protocol.ErrOccupied {
		t.Fatalf("zoning over a building must be rejected, got %+v", r)
	}
	if r := Zone(g, 2, 2, model.ZoneIndustrial); !r.Changed {
		t.Fatalf("zoning grass failed: %s", r.Code)
	}
	if r := Zone(g, 2, 2, model.ZoneIndustrial); r.Changed {
		t.Fatalf("rezoning to the same zone should be a no-op")
	}
}

func TestZone_DezoneDemolishesZonedBuilding(t *testing.T) {
	g := model.NewGrid(10)
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			Zone(g, x, y, model.ZoneResidential)
		}
	}
	b := model.NewBuilding("mansion", 2, 2)
	b.ConstructionProgress = 100
	g.Place(2, 2, b, model.ZoneResidential)

	r := Zone(g, 3, 3, model.ZoneNone)
	if !r.Changed {
		t.Fatalf("dezone failed: %s", r.Code)
	}
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			tl := g.At(x, y)
			if tl.Building.Kind != model.KindGrass || tl.Zone != model.ZoneNone {
				t.Fatalf("tile %d,%d = %q/%q", x, y, tl.Building.Kind, tl.Zone)
			}
		}
	}
}

func TestSubway_Toggle(t *testing.T) {
	g := model.NewGrid(4)
	if r := Subway(g, 1, 1, true); !r.Changed || !g.At(1, 1).HasSubway {
		t.Fatalf("subway not laid")
	}
	if r := Subway(g, 1, 1, true); r.Changed {
		t.Fatalf("second lay should be a no-op")
	}
	if r := Subway(g, 1, 1, false); !r.Changed || g.At(1, 1).HasSubway {
		t.Fatalf("subway not removed")
	}
}
