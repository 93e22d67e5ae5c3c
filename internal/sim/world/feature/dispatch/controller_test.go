package dispatch

import (
	"testing"

	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/mathx"
)

type fixture struct {
	g   *model.Grid
	cat *catalogs.BuildingCatalog
	c   *Controller
}

// A 20x20 map with one east-west road on row 5.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	g := model.NewGrid(20)
	for x := 0; x < 20; x++ {
		g.SetKind(x, 5, model.KindRoad)
	}
	p := DefaultParams()
	p.CrimeChance = 0
	return &fixture{g: g, cat: &cats.Buildings, c: New(p)}
}

func (f *fixture) station(kind string, x, y int) {
	b := model.NewBuilding(kind, 1, 1)
	b.ConstructionProgress = 100
	f.g.Place(x, y, b, model.ZoneNone)
}

func (f *fixture) step(tick uint64) Summary {
	return f.c.Step(tick, f.g, f.cat, nil, mathx.Roller{Seed: 1, Tick: tick})
}

func TestFireLifecycle(t *testing.T) {
	f := newFixture(t)
	f.station("fire_station", 2, 4)
	house := model.NewBuilding("house_small", 1, 1)
	house.ConstructionProgress = 100
	house.OnFire = true
	f.g.Place(15, 4, house, model.ZoneResidential)

	resolved := 0
	sawResponding := false
	for tick := uint64(1); tick <= 200; tick++ {
		resolved += f.step(tick).Resolved
		for _, v := range f.c.Vehicles {
			if v.Phase == PhaseResponding {
				sawResponding = true
				if v.Tile != (model.Point{X: 15, Y: 5}) {
					t.Fatalf("responding away from the incident road: %v", v.Tile)
				}
			}
		}
	}
	if !sawResponding || resolved != 1 {
		t.Fatalf("responding=%v resolved=%d", sawResponding, resolved)
	}
	if f.g.At(15, 4).Building.OnFire {
		t.Fatalf("fire not extinguished")
	}
	if len(f.c.Incidents) != 0 || len(f.c.Vehicles) != 0 {
		t.Fatalf("leftovers: incidents=%d vehicles=%d", len(f.c.Incidents), len(f.c.Vehicles))
	}
}

func TestDispatchOnlyOnScanTicks(t *testing.T) {
	f := newFixture(t)
	f.station("police_station", 2, 4)
	f.c.ReportCrime(model.Point{X: 10, Y: 4}, 500)
	for tick := uint64(1); tick < 5; tick++ {
		if f.step(tick).Dispatched != 0 {
			t.Fatalf("dispatched on tick %d", tick)
		}
	}
	if f.step(5).Dispatched != 1 {
		t.Fatalf("expected dispatch on the scan tick")
	}
	if v := f.c.Vehicles[0]; v.Kind != PoliceCar || v.StationRoad != (model.Point{X: 2, Y: 5}) {
		t.Fatalf("vehicle %+v", v)
	}
}

func TestClaimsAreExclusive(t *testing.T) {
	f := newFixture(t)
	f.station("police_station", 1, 4)
	f.station("police_station", 18, 6)
	for x := 4; x < 16; x += 2 {
		f.c.ReportCrime(model.Point{X: x, Y: 4}, 1000)
	}
	for tick := uint64(1); tick <= 300; tick++ {
		f.step(tick)
		claims := map[int]model.Point{}
		perStation := map[model.Point]int{}
		for _, inc := range f.c.Incidents {
			if inc.ClaimedBy == 0 {
				continue
			}
			if prev, dup := claims[inc.ClaimedBy]; dup {
				t.Fatalf("vehicle %d claims %v and %v", inc.ClaimedBy, prev, inc.Pos)
			}
			claims[inc.ClaimedBy] = inc.Pos
		}
		for _, v := range f.c.Vehicles {
			perStation[v.Station]++
			if p, ok := claims[v.ID]; ok && p != v.Target {
				t.Fatalf("vehicle %d targets %v but claims %v", v.ID, v.Target, p)
			}
		}
		for s, n := range perStation {
			if n > 2 {
				t.Fatalf("station %v has %d vehicles out", s, n)
			}
		}
	}
	if len(f.c.Incidents) != 0 {
		t.Fatalf("%d crimes left unanswered", len(f.c.Incidents))
	}
}

func TestVehicleRemovedWhenRoadBulldozed(t *testing.T) {
	f := newFixture(t)
	f.station("police_station", 2, 4)
	crime := model.Point{X: 17, Y: 4}
	f.c.ReportCrime(crime, 1000)
	for tick := uint64(1); tick <= 10; tick++ {
		f.step(tick)
	}
	if len(f.c.Vehicles) != 1 {
		t.Fatalf("expected one vehicle en route")
	}
	under := f.c.Vehicles[0].Tile
	f.g.SetKind(under.X, under.Y, model.KindGrass)

	sum := f.step(11)
	if sum.Removed != 1 || len(f.c.Vehicles) != 0 {
		t.Fatalf("vehicle on a bulldozed road must be removed")
	}
	if f.c.Incidents[crime].ClaimedBy != 0 {
		t.Fatalf("claim not released")
	}
	// The road is cut; the next scan cannot route and leaves it unclaimed.
	for tick := uint64(12); tick <= 20; tick++ {
		f.step(tick)
	}
	if f.c.Incidents[crime].ClaimedBy != 0 || len(f.c.Vehicles) != 0 {
		t.Fatalf("dispatched over a broken road")
	}
}

func TestCrimeTimesOut(t *testing.T) {
	f := newFixture(t)
	p := model.Point{X: 3, Y: 3}
	if !f.c.ReportCrime(p, 3) {
		t.Fatalf("report rejected")
	}
	if f.c.ReportCrime(p, 3) {
		t.Fatalf("duplicate report accepted")
	}
	expired := 0
	for tick := uint64(1); tick <= 3; tick++ {
		expired += f.step(tick).Expired
	}
	if expired != 1 || len(f.c.Incidents) != 0 {
		t.Fatalf("crime should expire after 3 ticks (expired=%d left=%d)", expired, len(f.c.Incidents))
	}
}

func TestIncidentVanishesBeforeArrival(t *testing.T) {
	f := newFixture(t)
	f.station("fire_station", 2, 4)
	house := model.NewBuilding("house_small", 1, 1)
	house.ConstructionProgress = 100
	house.OnFire = true
	f.g.Place(16, 4, house, model.ZoneResidential)
	for tick := uint64(1); tick <= 8; tick++ {
		f.step(tick)
	}
	if len(f.c.Vehicles) != 1 {
		t.Fatalf("truck not dispatched")
	}
	f.g.At(16, 4).Building.OnFire = false

	for tick := uint64(9); tick <= 120; tick++ {
		f.step(tick)
		for _, v := range f.c.Vehicles {
			if v.Phase == PhaseResponding {
				t.Fatalf("responded to a fire that was already out")
			}
		}
	}
	if len(f.c.Vehicles) != 0 {
		t.Fatalf("truck never returned")
	}
}

func TestCrimeHeldWhilePoliceOnScene(t *testing.T) {
	f := newFixture(t)
	f.station("police_station", 2, 4)
	crime := model.Point{X: 12, Y: 4}
	// Long enough to be answered, too short to outlast the response.
	f.c.ReportCrime(crime, 30)

	var resolved, expired int
	arrived := false
	for tick := uint64(1); tick <= 120; tick++ {
		sum := f.step(tick)
		resolved += sum.Resolved
		expired += sum.Expired
		for _, v := range f.c.Vehicles {
			if v.Phase == PhaseResponding {
				arrived = true
			}
		}
	}
	if !arrived {
		t.Fatalf("police never reached the crime")
	}
	if resolved != 1 || expired != 0 {
		t.Fatalf("resolved=%d expired=%d", resolved, expired)
	}
	if _, ok := f.c.Incidents[crime]; ok {
		t.Fatalf("crime still open")
	}
}
