package roadaccess

import "isocity.dev/internal/sim/world/kernel/model"

const DefaultRadius = 8

// Oracle answers "can this zoned tile reach a road through its own zone".
// Scratch buffers are reused between queries; an Oracle is not safe for
// concurrent use.
type Oracle struct {
	size    int
	visited []bool
	touched []int
	queue   []node
}

type node struct {
	x, y  int
	depth int
}

func New() *Oracle { return &Oracle{} }

func (o *Oracle) reset(size int) {
	if o.size != size || o.visited == nil {
		o.size = size
		o.visited = make([]bool, size*size)
		o.touched = o.touched[:0]
		return
	}
	for _, i := range o.touched {
		o.visited[i] = false
	}
	o.touched = o.touched[:0]
}

func (o *Oracle) mark(i int) {
	o.visited[i] = true
	o.touched = append(o.touched, i)
}

var dirs = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// HasRoadAccess runs a bounded BFS from (x, y) through tiles of the same zone
// that are neither water nor road. A road reached from a tile at depth d
// (start tile depth 0) counts as d+1 hops and succeeds iff that is within
// radius.
func (o *Oracle) HasRoadAccess(g *model.Grid, x, y, radius int) bool {
	start := g.At(x, y)
	if start == nil || radius <= 0 {
		return false
	}
	zone := start.Zone
	o.reset(g.Size())
	o.queue = o.queue[:0]
	o.queue = append(o.queue, node{x: x, y: y})
	o.mark(g.Index(x, y))

	for head := 0; head < len(o.queue); head++ {
		n := o.queue[head]
		for _, d := range dirs {
			nx, ny := n.x+d[0], n.y+d[1]
			t := g.At(nx, ny)
			if t == nil {
				continue
			}
			if t.IsRoad() {
				return true
			}
			i := g.Index(nx, ny)
			if o.visited[i] || t.IsWater() || t.Zone != zone {
				continue
			}
			if n.depth+1 >= radius {
				continue
			}
			o.mark(i)
			o.queue = append(o.queue, node{x: nx, y: ny, depth: n.depth + 1})
		}
	}
	return false
}
