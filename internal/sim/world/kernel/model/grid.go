package model

// Grid is the tile store. All structural mutations go through its methods
// so Version stays accurate for caches.
type Grid struct {
	size    int
	tiles   []Tile
	version uint64
	counts  countCache
}

func NewGrid(size int) *Grid {
	if size < 1 {
		size = 1
	}
	g := &Grid{size: size, tiles: make([]Tile, size*size)}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t := &g.tiles[y*size+x]
			t.X, t.Y = x, y
			t.Building = NewBuilding(KindGrass, 1, 1)
		}
	}
	return g
}

func (g *Grid) Size() int       { return g.size }
func (g *Grid) Version() uint64 { return g.version }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.size && y < g.size
}

func (g *Grid) Index(x, y int) int { return y*g.size + x }

// At returns nil out of bounds.
func (g *Grid) At(x, y int) *Tile {
	if !g.InBounds(x, y) {
		return nil
	}
	return &g.tiles[y*g.size+x]
}

func (g *Grid) AtPoint(p Point) *Tile { return g.At(p.X, p.Y) }

// Each visits tiles in row-major order.
func (g *Grid) Each(fn func(t *Tile)) {
	for i := range g.tiles {
		fn(&g.tiles[i])
	}
}

func (g *Grid) touch() { g.version++ }

// SetKind replaces a single tile's building with a fresh stub of kind and
// clears any placeholder back-reference.
func (g *Grid) SetKind(x, y int, kind string) {
	t := g.At(x, y)
	if t == nil {
		return
	}
	t.Building = NewBuilding(kind, 1, 1)
	t.HasOrigin = false
	t.Origin = Point{}
	g.touch()
}

func (g *Grid) SetZone(x, y int, z Zone) {
	t := g.At(x, y)
	if t == nil || t.Zone == z {
		return
	}
	t.Zone = z
	g.touch()
}

// Touch records an out-of-band structural change (snapshot import).
func (g *Grid) Touch() { g.touch() }

func (g *Grid) SetSubway(x, y int, on bool) {
	t := g.At(x, y)
	if t == nil || t.HasSubway == on {
		return
	}
	t.HasSubway = on
	g.touch()
}
