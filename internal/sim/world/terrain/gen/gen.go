// Package gen builds the initial tile grid: grass everywhere, a few lakes,
// optional oceans along the map edges, and trees.
package gen

import (
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"isocity.dev/internal/sim/world/kernel/model"
)

const (
	BodyLake  = "lake"
	BodyOcean = "ocean"
)

type WaterBody struct {
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Tiles     []model.Point `json:"tiles"`
	Anchor    model.Point   `json:"anchor"`
	CentroidX float64       `json:"centroid_x"`
	CentroidY float64       `json:"centroid_y"`
}

type Config struct {
	MinLakes        int
	MaxLakes        int
	MinLakeDistance float64
	MinEdgeDistance int
	OceanChance     float64
	TreeThreshold   float64
	ShoreTreeBonus  float64
}

func DefaultConfig(size int) Config {
	return Config{
		MinLakes:        2,
		MaxLakes:        3,
		MinLakeDistance: math.Max(8, float64(size)/4),
		MinEdgeDistance: maxInt(4, size/8),
		OceanChance:     0.35,
		TreeThreshold:   0.68,
		ShoreTreeBonus:  0.13,
	}
}

var lakeNames = []string{
	"Lake Azure", "Mirror Lake", "Heron Pond", "Silver Lake", "Crescent Lake",
	"Willow Pond", "Stillwater", "Blue Hollow", "Fox Lake",
}

var oceanNames = [4]string{"North Bay", "East Sea", "South Sound", "West Ocean"}

// Generate mutates g in place and returns the water bodies it created.
func Generate(g *model.Grid, seed int64, cfg Config) []WaterBody {
	size := g.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			g.SetKind(x, y, model.KindGrass)
			g.SetZone(x, y, model.ZoneNone)
		}
	}
	if cfg.MinLakes <= 0 {
		cfg = DefaultConfig(size)
	}

	rng := rand.New(rand.NewSource(seed))
	lakeNoise := opensimplex.NewNormalized(seed)
	oceanNoise := opensimplex.NewNormalized(seed + 1)
	treeNoise := opensimplex.NewNormalized(seed + 2)

	owner := make([]int, size*size)
	for i := range owner {
		owner[i] = -1
	}

	var bodies []WaterBody
	names := rng.Perm(len(lakeNames))
	for i, a := range lakeAnchors(size, rng, lakeNoise, cfg) {
		body := WaterBody{Name: lakeNames[names[i%len(names)]], Kind: BodyLake, Anchor: a}
		body.Tiles = growLake(g, owner, len(bodies), a, lakeTarget(size, rng), lakeRadius(cfg), lakeNoise)
		body.CentroidX, body.CentroidY = centroid(body.Tiles)
		bodies = append(bodies, body)
	}

	for edge := 0; edge < 4; edge++ {
		if rng.Float64() >= cfg.OceanChance {
			continue
		}
		tiles := carveOcean(g, owner, len(bodies), edge, rng, oceanNoise)
		if len(tiles) == 0 {
			continue
		}
		body := WaterBody{Name: oceanNames[edge], Kind: BodyOcean, Tiles: tiles, Anchor: tiles[0]}
		body.CentroidX, body.CentroidY = centroid(tiles)
		bodies = append(bodies, body)
	}

	scatterTrees(g, treeNoise, cfg)
	return bodies
}

type anchorCandidate struct {
	p model.Point
	v float64
}

// lakeAnchors picks lake centres at noise minima honouring edge and
// inter-lake spacing, then tops up from fixed positions.
func lakeAnchors(size int, rng *rand.Rand, noise opensimplex.Noise, cfg Config) []model.Point {
	want := cfg.MinLakes
	if cfg.MaxLakes > cfg.MinLakes {
		want += rng.Intn(cfg.MaxLakes - cfg.MinLakes + 1)
	}
	edge := cfg.MinEdgeDistance

	var cands []anchorCandidate
	for y := edge; y < size-edge; y += 2 {
		for x := edge; x < size-edge; x += 2 {
			v := octave(noise, float64(x), float64(y), 3, 0.08, 0.5)
			if v < 0.45 {
				cands = append(cands, anchorCandidate{p: model.Point{X: x, Y: y}, v: v})
			}
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].v < cands[j].v })

	var picked []model.Point
	spaced := func(p model.Point) bool {
		for _, q := range picked {
			if dist(p, q) < cfg.MinLakeDistance {
				return false
			}
		}
		return true
	}
	for _, c := range cands {
		if len(picked) >= want {
			break
		}
		if spaced(c.p) {
			picked = append(picked, c.p)
		}
	}

	fallback := []model.Point{
		{X: size / 4, Y: size / 4},
		{X: 3 * size / 4, Y: 3 * size / 4},
		{X: size / 4, Y: 3 * size / 4},
		{X: 3 * size / 4, Y: size / 4},
	}
	for _, p := range fallback {
		if len(picked) >= cfg.MinLakes {
			break
		}
		if inset(p, size, edge) && spaced(p) {
			picked = append(picked, p)
		}
	}
	return picked
}

func lakeTarget(size int, rng *rand.Rand) int {
	base := size * size / 90
	if base < 12 {
		base = 12
	}
	if base > 400 {
		base = 400
	}
	return base + rng.Intn(base/2+1)
}

// lakeRadius keeps neighbouring lakes from touching.
func lakeRadius(cfg Config) float64 {
	return math.Max(2, cfg.MinLakeDistance/2-1)
}

// growLake expands radially from the anchor, preferring candidates that are
// close and sit in low noise. It never overwrites water and never grows next
// to another body.
func growLake(g *model.Grid, owner []int, id int, anchor model.Point, target int, radius float64, noise opensimplex.Noise) []model.Point {
	size := g.Size()
	var members []model.Point
	queued := map[model.Point]bool{anchor: true}
	frontier := []model.Point{anchor}

	for len(members) < target && len(frontier) > 0 {
		best, bestScore := 0, math.Inf(1)
		for i, c := range frontier {
			s := dist(c, anchor)/radius + (noise.Eval2(float64(c.X)*0.2, float64(c.Y)*0.2)-0.5)*0.8
			if s < bestScore {
				best, bestScore = i, s
			}
		}
		c := frontier[best]
		frontier = append(frontier[:best], frontier[best+1:]...)

		t := g.AtPoint(c)
		if t == nil || t.IsWater() || dist(c, anchor) > radius || touchesOther(g, owner, id, c) {
			continue
		}
		g.SetKind(c.X, c.Y, model.KindWater)
		owner[c.Y*size+c.X] = id
		members = append(members, c)
		for _, d := range model.Neighbors4 {
			n := c.Add(d.X, d.Y)
			if g.InBounds(n.X, n.Y) && !queued[n] {
				queued[n] = true
				frontier = append(frontier, n)
			}
		}
	}
	return members
}

func touchesOther(g *model.Grid, owner []int, id int, p model.Point) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := p.X+dx, p.Y+dy
			if !g.InBounds(x, y) {
				continue
			}
			if o := owner[y*g.Size()+x]; o >= 0 && o != id {
				return true
			}
		}
	}
	return false
}

// carveOcean floods a partial span of one edge (0=N, 1=E, 2=S, 3=W) to a
// noise-varied depth.
func carveOcean(g *model.Grid, owner []int, id int, edge int, rng *rand.Rand, noise opensimplex.Noise) []model.Point {
	size := g.Size()
	third := maxInt(1, size/3)
	start := rng.Intn(third)
	end := size - rng.Intn(third)
	baseDepth := 2 + rng.Intn(maxInt(1, size/12))
	maxDepth := maxInt(2, size/6)

	var tiles []model.Point
	for i := start; i < end; i++ {
		n := octave(noise, float64(i)*0.15, float64(edge)*100, 2, 1, 0.5)
		depth := baseDepth + int((n-0.5)*float64(size)/10)
		if depth < 1 {
			depth = 1
		}
		if depth > maxDepth {
			depth = maxDepth
		}
		for d := 0; d < depth; d++ {
			var x, y int
			switch edge {
			case 0:
				x, y = i, d
			case 1:
				x, y = size-1-d, i
			case 2:
				x, y = i, size-1-d
			default:
				x, y = d, i
			}
			t := g.At(x, y)
			if t == nil || t.IsWater() || touchesOther(g, owner, id, t.Point()) {
				continue
			}
			g.SetKind(x, y, model.KindWater)
			owner[y*size+x] = id
			tiles = append(tiles, t.Point())
		}
	}
	return tiles
}

func scatterTrees(g *model.Grid, noise opensimplex.Noise, cfg Config) {
	size := g.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t := g.At(x, y)
			if t.Building.Kind != model.KindGrass {
				continue
			}
			threshold := cfg.TreeThreshold
			if nearWater(g, x, y, 2) {
				threshold -= cfg.ShoreTreeBonus
			}
			if octave(noise, float64(x), float64(y), 2, 0.12, 0.5) > threshold {
				g.SetKind(x, y, model.KindTree)
			}
		}
	}
}

func nearWater(g *model.Grid, x, y, r int) bool {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if t := g.At(x+dx, y+dy); t != nil && t.IsWater() {
				return true
			}
		}
	}
	return false
}

// octave layers noise frequencies; output stays in [0,1).
func octave(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func centroid(ps []model.Point) (float64, float64) {
	if len(ps) == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, p := range ps {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	return sx / float64(len(ps)), sy / float64(len(ps))
}

func dist(a, b model.Point) float64 {
	dx, dy := float64(a.X-b.X), float64(a.Y-b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func inset(p model.Point, size, edge int) bool {
	return p.X >= edge && p.Y >= edge && p.X < size-edge && p.Y < size-edge
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
