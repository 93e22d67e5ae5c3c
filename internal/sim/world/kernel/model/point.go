package model

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(dx, dy int) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

// Neighbors4 is the fixed N, E, S, W order used by every grid search.
var Neighbors4 = [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
