package model

type Tile struct {
	X, Y int

	Building Building
	Zone     Zone

	LandValue float64
	Pollution float64
	HasSubway bool

	// Origin is meaningful only for placeholder tiles.
	Origin    Point
	HasOrigin bool
}

func (t *Tile) Point() Point { return Point{X: t.X, Y: t.Y} }

func (t *Tile) IsWater() bool       { return t.Building.Kind == KindWater }
func (t *Tile) IsRoad() bool        { return t.Building.Kind == KindRoad }
func (t *Tile) IsPlaceholder() bool { return t.Building.Kind == KindPlaceholder }

// IsOrigin reports a real (non-terrain) building record.
func (t *Tile) IsOrigin() bool { return !IsTerrainKind(t.Building.Kind) }
