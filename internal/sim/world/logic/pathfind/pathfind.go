package pathfind

import "isocity.dev/internal/sim/world/kernel/model"

// Finder runs breadth-first searches over road tiles. Neighbors are expanded
// N, E, S, W so equal-length routes always resolve the same way. A Finder
// keeps scratch buffers and is not safe for concurrent use; separate Finders
// may search the same grid concurrently.
type Finder struct {
	size int
	prev []int32
	seen []uint32
	gen  uint32
	q    []int
}

func New() *Finder { return &Finder{} }

var dirs = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

func (f *Finder) reset(size int) {
	if f.size != size || f.seen == nil {
		f.size = size
		f.prev = make([]int32, size*size)
		f.seen = make([]uint32, size*size)
		f.gen = 0
	}
	f.gen++
	if f.gen == 0 {
		for i := range f.seen {
			f.seen[i] = 0
		}
		f.gen = 1
	}
	f.q = f.q[:0]
}

// Find returns the shortest road route from -> to, endpoints included.
func (f *Finder) Find(g *model.Grid, from, to model.Point) ([]model.Point, bool) {
	a, b := g.AtPoint(from), g.AtPoint(to)
	if a == nil || b == nil || !a.IsRoad() || !b.IsRoad() {
		return nil, false
	}
	if from == to {
		return []model.Point{from}, true
	}

	size := g.Size()
	f.reset(size)
	start, goal := g.Index(from.X, from.Y), g.Index(to.X, to.Y)
	f.seen[start] = f.gen
	f.prev[start] = -1
	f.q = append(f.q, start)

	found := false
	for head := 0; head < len(f.q) && !found; head++ {
		cur := f.q[head]
		cx, cy := cur%size, cur/size
		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			t := g.At(nx, ny)
			if t == nil || !t.IsRoad() {
				continue
			}
			i := g.Index(nx, ny)
			if f.seen[i] == f.gen {
				continue
			}
			f.seen[i] = f.gen
			f.prev[i] = int32(cur)
			if i == goal {
				found = true
				break
			}
			f.q = append(f.q, i)
		}
	}
	if !found {
		return nil, false
	}

	var path []model.Point
	for cur := goal; cur != -1; cur = int(f.prev[cur]) {
		path = append(path, model.Point{X: cur % size, Y: cur / size})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// NearestRoad returns the first road tile orthogonally adjacent to the w×h
// footprint at origin, scanning the perimeter top, right, bottom, left.
func NearestRoad(g *model.Grid, origin model.Point, w, h int) (model.Point, bool) {
	check := func(x, y int) (model.Point, bool) {
		t := g.At(x, y)
		if t != nil && t.IsRoad() {
			return model.Point{X: x, Y: y}, true
		}
		return model.Point{}, false
	}
	for dx := 0; dx < w; dx++ {
		if p, ok := check(origin.X+dx, origin.Y-1); ok {
			return p, true
		}
	}
	for dy := 0; dy < h; dy++ {
		if p, ok := check(origin.X+w, origin.Y+dy); ok {
			return p, true
		}
	}
	for dx := 0; dx < w; dx++ {
		if p, ok := check(origin.X+dx, origin.Y+h); ok {
			return p, true
		}
	}
	for dy := 0; dy < h; dy++ {
		if p, ok := check(origin.X-1, origin.Y+dy); ok {
			return p, true
		}
	}
	return model.Point{}, false
}
