package pathfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isocity.dev/internal/sim/world/kernel/model"
)

func roads(g *model.Grid, pts ...model.Point) {
	for _, p := range pts {
		g.SetKind(p.X, p.Y, model.KindRoad)
	}
}

func line(x0, y0, x1, y1 int) []model.Point {
	var out []model.Point
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			out = append(out, model.Point{X: x, Y: y})
		}
	}
	return out
}

func TestFind_Straight(t *testing.T) {
	g := model.NewGrid(10)
	roads(g, line(0, 0, 9, 0)...)

	p, ok := New().Find(g, model.Point{X: 0, Y: 0}, model.Point{X: 9, Y: 0})
	require.True(t, ok)
	assert.Len(t, p, 10)
	assert.Equal(t, model.Point{X: 0, Y: 0}, p[0])
	assert.Equal(t, model.Point{X: 9, Y: 0}, p[9])
}

func TestFind_SameTile(t *testing.T) {
	g := model.NewGrid(4)
	roads(g, model.Point{X: 1, Y: 1})
	p, ok := New().Find(g, model.Point{X: 1, Y: 1}, model.Point{X: 1, Y: 1})
	require.True(t, ok)
	assert.Equal(t, []model.Point{{X: 1, Y: 1}}, p)
}

func TestFind_ShortestAndContiguous(t *testing.T) {
	g := model.NewGrid(12)
	// A ring with a shortcut across the middle.
	roads(g, line(0, 0, 10, 0)...)
	roads(g, line(0, 10, 10, 10)...)
	roads(g, line(0, 0, 0, 10)...)
	roads(g, line(10, 0, 10, 10)...)
	roads(g, line(0, 5, 10, 5)...)

	from, to := model.Point{X: 0, Y: 5}, model.Point{X: 10, Y: 5}
	p, ok := New().Find(g, from, to)
	require.True(t, ok)
	assert.Len(t, p, 11, "shortcut is 10 hops")
	for i := 1; i < len(p); i++ {
		d := absInt(p[i].X-p[i-1].X) + absInt(p[i].Y-p[i-1].Y)
		require.Equal(t, 1, d, "step %d not orthogonally adjacent", i)
		require.True(t, g.AtPoint(p[i]).IsRoad())
	}
}

func TestFind_Deterministic(t *testing.T) {
	g := model.NewGrid(6)
	// Two equal-length routes around a block.
	roads(g, line(0, 0, 2, 0)...)
	roads(g, line(0, 2, 2, 2)...)
	roads(g, line(0, 0, 0, 2)...)
	roads(g, line(2, 0, 2, 2)...)

	f := New()
	a, ok := f.Find(g, model.Point{X: 0, Y: 0}, model.Point{X: 2, Y: 2})
	require.True(t, ok)
	b, _ := f.Find(g, model.Point{X: 0, Y: 0}, model.Point{X: 2, Y: 2})
	assert.Equal(t, a, b)
	// East is expanded before south.
	assert.Equal(t, model.Point{X: 1, Y: 0}, a[1])
}

func TestFind_Failure(t *testing.T) {
	g := model.NewGrid(8)
	roads(g, line(0, 0, 2, 0)...)
	roads(g, line(5, 0, 7, 0)...)
	f := New()

	_, ok := f.Find(g, model.Point{X: 0, Y: 0}, model.Point{X: 7, Y: 0})
	assert.False(t, ok, "disconnected networks")

	_, ok = f.Find(g, model.Point{X: 0, Y: 0}, model.Point{X: 3, Y: 3})
	assert.False(t, ok, "goal is not a road")

	_, ok = f.Find(g, model.Point{X: 4, Y: 4}, model.Point{X: 0, Y: 0})
	assert.False(t, ok, "start is not a road")

	_, ok = f.Find(g, model.Point{X: -1, Y: 0}, model.Point{X: 0, Y: 0})
	assert.False(t, ok)
}

func TestNearestRoad(t *testing.T) {
	g := model.NewGrid(8)
	roads(g, model.Point{X: 4, Y: 3})
	p, ok := NearestRoad(g, model.Point{X: 2, Y: 2}, 2, 2)
	require.True(t, ok)
	assert.Equal(t, model.Point{X: 4, Y: 3}, p)

	_, ok = NearestRoad(g, model.Point{X: 0, Y: 6}, 1, 1)
	assert.False(t, ok)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
