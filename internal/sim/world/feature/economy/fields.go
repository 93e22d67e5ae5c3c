package economy

import (
	"math"

	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
	"isocity.dev/internal/sim/world/logic/mathx"
)

// Field tuning.
const (
	pollutionRadius = 4
	greenRadius     = 2
	greenScrub      = 6.0

	baseLandValue  = 30.0
	waterReach     = 5
	waterBonusStep = 4.0
	parkReach      = 4
	parkBonusStep  = 3.0
	coverageWeight = 0.3
	pollutionDrag  = 0.5
)

// UpdateFields recomputes per-tile pollution and land value.
func UpdateFields(g *model.Grid, cat *catalogs.BuildingCatalog, cov *coverage.Coverage) {
	size := g.Size()
	pol := make([]float64, size*size)
	park := make([]float64, size*size)

	g.Each(func(t *model.Tile) {
		def, ok := cat.Get(t.Building.Kind)
		if !ok || t.IsPlaceholder() {
			return
		}
		if def.Pollution > 0 && t.Building.Active() {
			p := def.Pollution
			if def.Category == catalogs.CategoryZoned {
				p *= float64(t.Building.Level)
			}
			r := pollutionRadius
			if t.IsRoad() {
				r = 1
			}
			spread(pol, size, t.X, t.Y, r, p, +1)
		}
		if def.Green {
			spread(pol, size, t.X, t.Y, greenRadius, greenScrub, -1)
			if def.Category == catalogs.CategoryPark {
				spread(park, size, t.X, t.Y, parkReach, parkBonusStep*float64(parkReach+1), +1)
			}
		}
	})

	water := waterDistance(g, waterReach)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := y*size + x
			t := g.At(x, y)
			t.Pollution = mathx.Clamp(pol[i], 0, 100)

			lv := baseLandValue
			if d := water[i]; d > 0 {
				lv += float64(waterReach+1-d) * waterBonusStep
			}
			lv += math.Min(park[i], 20)
			if cov != nil {
				lv += cov.Average(x, y) * coverageWeight
			}
			lv -= t.Pollution * pollutionDrag
			t.LandValue = mathx.Clamp(lv, 0, 100)
		}
	}
}

// spread adds amount with linear falloff to 0 just past radius r.
func spread(field []float64, size, cx, cy, r int, amount, sign float64) {
	for dy := -r; dy <= r; dy++ {
		y := cy + dy
		if y < 0 || y >= size {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			x := cx + dx
			if x < 0 || x >= size {
				continue
			}
			d := math.Sqrt(float64(dx*dx + dy*dy))
			if d > float64(r) {
				continue
			}
			field[y*size+x] += sign * amount * (1 - d/float64(r+1))
		}
	}
}

// waterDistance returns hop distance to the nearest water tile (1 for a
// shore tile), 0 when water is further than reach or the tile is water.
func waterDistance(g *model.Grid, reach int) []int {
	size := g.Size()
	dist := make([]int, size*size)
	q := make([]int, 0, size)
	g.Each(func(t *model.Tile) {
		if t.IsWater() {
			dist[g.Index(t.X, t.Y)] = -1
			q = append(q, g.Index(t.X, t.Y))
		}
	})
	for head := 0; head < len(q); head++ {
		i := q[head]
		x, y := i%size, i/size
		d := dist[i]
		if d < 0 {
			d = 0
		}
		if d >= reach {
			continue
		}
		for _, n := range [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
			nx, ny := x+n[0], y+n[1]
			if !g.InBounds(nx, ny) {
				continue
			}
			j := ny*size + nx
			if dist[j] != 0 {
				continue
			}
			dist[j] = d + 1
			q = append(q, j)
		}
	}
	for i := range dist {
		if dist[i] < 0 {
			dist[i] = 0
		}
	}
	return dist
}
