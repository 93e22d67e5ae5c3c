package model

type Zone string

const (
	ZoneNone        Zone = ""
	ZoneResidential Zone = "residential"
	ZoneCommercial  Zone = "commercial"
	ZoneIndustrial  Zone = "industrial"
)

var Zones = []Zone{ZoneResidential, ZoneCommercial, ZoneIndustrial}

func ParseZone(s string) (Zone, bool) {
	switch Zone(s) {
	case ZoneNone, ZoneResidential, ZoneCommercial, ZoneIndustrial:
		return Zone(s), true
	}
	return ZoneNone, false
}

// Terrain and reserved kinds.
const (
	KindGrass       = "grass"
	KindWater       = "water"
	KindRoad        = "road"
	KindTree        = "tree"
	KindPlaceholder = "empty"
)

type Building struct {
	Kind  string
	Level int

	Population int
	Jobs       int

	Powered bool
	Watered bool

	OnFire       bool
	FireProgress float64

	Age                  uint64
	ConstructionProgress float64
	Abandoned            bool
	Flipped              bool

	// Footprint size recorded when the building was created.
	Width  int
	Height int
}

// IsTerrainKind covers kinds that are born complete and never grow.
func IsTerrainKind(kind string) bool {
	switch kind {
	case KindGrass, KindWater, KindRoad, KindTree, KindPlaceholder:
		return true
	}
	return false
}

// Vacant reports whether a zoned tile with this building could be built on.
func (b *Building) Vacant() bool {
	return b.Kind == KindGrass || b.Kind == KindTree
}

func (b *Building) Complete() bool { return b.ConstructionProgress >= 100 }

// Active buildings produce population and jobs.
func (b *Building) Active() bool { return b.Complete() && !b.Abandoned }

func (b *Building) Area() int {
	w, h := b.Size()
	return w * h
}

func (b *Building) Size() (int, int) {
	w, h := b.Width, b.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

// NewBuilding creates a stub: complete for terrain kinds, 0% otherwise.
func NewBuilding(kind string, w, h int) Building {
	b := Building{Kind: kind, Level: 1, Width: w, Height: h}
	if IsTerrainKind(kind) {
		b.ConstructionProgress = 100
		b.Width, b.Height = 1, 1
	}
	return b
}

// ClearOutput zeroes population/jobs, keeping the stats invariant when a
// building is incomplete or abandoned.
func (b *Building) ClearOutput() {
	b.Population = 0
	b.Jobs = 0
}
