package coverage

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
)

func place(g *model.Grid, x, y int, kind string, w, h int, done bool) {
	b := model.NewBuilding(kind, w, h)
	if done {
		b.ConstructionProgress = 100
	}
	g.Place(x, y, b, model.ZoneNone)
}

func TestCompute_Falloff(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(40)
	place(g, 20, 20, "police_station", 1, 1, true) // radius 13

	c := Compute(g, cat)
	assert.InDelta(t, 100.0, c.PoliceAt(20, 20), 1e-9)
	assert.InDelta(t, (1-5.0/13.0)*100, c.PoliceAt(25, 20), 1e-9)
	assert.Equal(t, 0.0, c.PoliceAt(20, 33), "tile at exactly the radius contributes zero")
	assert.Equal(t, 0.0, c.PoliceAt(34, 20))
	assert.Equal(t, 0.0, c.FireAt(20, 20))
}

func TestCompute_OverlapClampsAt100(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(30)
	place(g, 10, 10, "fire_station", 1, 1, true)
	place(g, 11, 10, "fire_station", 1, 1, true)

	c := Compute(g, cat)
	assert.Equal(t, 100.0, c.FireAt(10, 10))
	assert.InDelta(t, 100.0, c.FireAt(14, 10), 1e-9, "two stations at d=4 and d=3 overlap past 100")
	assert.InDelta(t, 100.0/18.0, c.FireAt(28, 10), 1e-9, "only the nearer station reaches d=17")
}

func TestCompute_UtilitiesAreBoolean(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(40)
	place(g, 5, 5, "power_plant", 2, 2, true) // radius 15, centre (5.5, 5.5)
	place(g, 30, 30, "water_tower", 1, 1, true)

	c := Compute(g, cat)
	require.True(t, c.PowerAt(20, 5))
	require.False(t, c.PowerAt(21, 5))
	require.True(t, c.WaterAt(30, 18))
	require.False(t, c.WaterAt(30, 17))
	require.False(t, c.WaterAt(5, 5))
}

func TestCompute_IgnoresIncompleteAndAbandoned(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(20)
	place(g, 5, 5, "police_station", 1, 1, false)
	place(g, 15, 15, "hospital", 2, 2, true)
	g.At(15, 15).Building.Abandoned = true

	c := Compute(g, cat)
	assert.Equal(t, 0.0, c.PoliceAt(5, 5))
	assert.Equal(t, 0.0, c.Health[c.idx(15, 15)])
}

func TestCompute_Pure(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(32)
	place(g, 3, 3, "school", 2, 2, true)
	place(g, 20, 8, "hospital", 2, 2, true)
	place(g, 12, 25, "power_plant", 2, 2, true)

	a := Compute(g, cat)
	b := Compute(g, cat)
	require.True(t, reflect.DeepEqual(a, b), "coverage must be a pure function of placements")
}
