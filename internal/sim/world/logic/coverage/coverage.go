package coverage

import (
	"math"

	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
)

// Coverage holds per-tile service reach, indexed y*size+x.
type Coverage struct {
	Size int

	Police    []float64
	Fire      []float64
	Health    []float64
	Education []float64

	Power []bool
	Water []bool
}

func New(size int) *Coverage {
	n := size * size
	return &Coverage{
		Size:      size,
		Police:    make([]float64, n),
		Fire:      make([]float64, n),
		Health:    make([]float64, n),
		Education: make([]float64, n),
		Power:     make([]bool, n),
		Water:     make([]bool, n),
	}
}

func (c *Coverage) idx(x, y int) int { return y*c.Size + x }

// Average of the four percentage services at a tile.
func (c *Coverage) Average(x, y int) float64 {
	i := c.idx(x, y)
	return (c.Police[i] + c.Fire[i] + c.Health[i] + c.Education[i]) / 4
}

func (c *Coverage) FireAt(x, y int) float64   { return c.Fire[c.idx(x, y)] }
func (c *Coverage) PowerAt(x, y int) bool     { return c.Power[c.idx(x, y)] }
func (c *Coverage) WaterAt(x, y int) bool     { return c.Water[c.idx(x, y)] }
func (c *Coverage) PoliceAt(x, y int) float64 { return c.Police[c.idx(x, y)] }

// Compute derives coverage from completed, non-abandoned service and utility
// buildings. It reads nothing but placements, so repeated calls on an
// unchanged grid are identical.
func Compute(g *model.Grid, cat *catalogs.BuildingCatalog) *Coverage {
	size := g.Size()
	c := New(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t := g.At(x, y)
			if !t.IsOrigin() || !t.Building.Active() {
				continue
			}
			def, ok := cat.Get(t.Building.Kind)
			if !ok || def.Service == "" || def.Radius <= 0 {
				continue
			}
			w, h := t.Building.Size()
			cx := float64(x) + float64(w-1)/2
			cy := float64(y) + float64(h-1)/2
			c.apply(def.Service, cx, cy, def.Radius)
		}
	}
	return c
}

func (c *Coverage) apply(service string, cx, cy float64, radius int) {
	r := float64(radius)
	r2 := r * r
	x0 := int(math.Floor(cx - r))
	x1 := int(math.Ceil(cx + r))
	y0 := int(math.Floor(cy - r))
	y1 := int(math.Ceil(cy + r))

	for y := y0; y <= y1; y++ {
		if y < 0 || y >= c.Size {
			continue
		}
		dy := float64(y) - cy
		for x := x0; x <= x1; x++ {
			if x < 0 || x >= c.Size {
				continue
			}
			dx := float64(x) - cx
			d2 := dx*dx + dy*dy
			if d2 > r2 {
				continue
			}
			i := c.idx(x, y)
			switch service {
			case catalogs.ServicePower:
				c.Power[i] = true
				continue
			case catalogs.ServiceWater:
				c.Water[i] = true
				continue
			}
			v := (1 - math.Sqrt(d2)/r) * 100
			if v <= 0 {
				continue
			}
			var field []float64
			switch service {
			case catalogs.ServicePolice:
				field = c.Police
			case catalogs.ServiceFire:
				field = c.Fire
			case catalogs.ServiceHealth:
				field = c.Health
			case catalogs.ServiceEducation:
				field = c.Education
			default:
				return
			}
			field[i] = math.Min(100, field[i]+v)
		}
	}
}
