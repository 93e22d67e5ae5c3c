package economy

import (
	"math"

	"isocity.dev/internal/sim/world/logic/mathx"
)

// QoL holds the quality-of-life indices, each in [0, 100].
type QoL struct {
	Safety      float64 `json:"safety"`
	Health      float64 `json:"health"`
	Education   float64 `json:"education"`
	Environment float64 `json:"environment"`
	Happiness   float64 `json:"happiness"`
}

// Employment is jobs per resident as a percentage, 50 for an empty city.
func Employment(a Aggregates) float64 {
	if a.Population == 0 {
		return 50
	}
	return math.Min(1, float64(a.Jobs)/float64(a.Population)) * 100
}

func ComputeQoL(a Aggregates, s *State) QoL {
	var q QoL
	q.Safety = mathx.Clamp(a.AvgPolice*s.Funding("police")/100*0.8+a.AvgFire*s.Funding("fire")/100*0.2, 0, 100)
	q.Health = mathx.Clamp(a.AvgHealth*s.Funding("health")/100*0.8+(100-a.AvgPollution)*0.2, 0, 100)
	q.Education = mathx.Clamp(a.AvgEducation*s.Funding("education")/100, 0, 100)
	q.Environment = mathx.Clamp(70-a.AvgPollution*1.5+a.GreenRatio()*150, 0, 100)
	q.Happiness = mathx.Clamp(
		q.Safety*0.2+q.Health*0.2+q.Education*0.15+q.Environment*0.2+Employment(a)*0.25,
		0, 100)
	return q
}
