package model

// Counts are structural tallies over origin tiles.
type Counts struct {
	ByKind map[string]int
	Roads  int
	Water  int
	Trees  int
	Subway int
}

type countCache struct {
	valid   bool
	version uint64
	counts  Counts
}

// Counts returns tallies memoized on the grid version.
func (g *Grid) Counts() Counts {
	if g.counts.valid && g.counts.version == g.version {
		return g.counts.counts
	}
	c := Counts{ByKind: map[string]int{}}
	for i := range g.tiles {
		t := &g.tiles[i]
		switch t.Building.Kind {
		case KindRoad:
			c.Roads++
		case KindWater:
			c.Water++
		case KindTree:
			c.Trees++
		case KindGrass, KindPlaceholder:
		default:
			c.ByKind[t.Building.Kind]++
		}
		if t.HasSubway {
			c.Subway++
		}
	}
	g.counts = countCache{valid: true, version: g.version, counts: c}
	return c
}
