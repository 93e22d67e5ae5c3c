package mathx

// Salt separates independent random streams that share (tick, x, y).
type Salt uint64

const (
	SaltSpawn Salt = iota + 1
	SaltBuildRate
	SaltAbandon
	SaltRecover
	SaltIgnite
	SaltSpread
	SaltSuppress
	SaltFlip
	SaltCrime
)

// Roller produces stateless per-tile rolls for one tick. Two rollers with the
// same seed and tick return identical values, so a world resumed from a
// snapshot replays the same outcomes.
type Roller struct {
	Seed int64
	Tick uint64
}

func (r Roller) Float(x, y int, salt Salt) float64 {
	s := r.Seed ^ int64(mix64(uint64(salt)))
	return Unit(Hash3(s, int(r.Tick), x, y))
}

// Chance rolls once and reports whether the outcome fell below p.
func (r Roller) Chance(x, y int, salt Salt, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float(x, y, salt) < p
}

// Range returns a value in [lo, hi).
func (r Roller) Range(x, y int, salt Salt, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float(x, y, salt)
}
