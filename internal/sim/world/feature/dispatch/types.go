package dispatch

import "isocity.dev/internal/sim/world/kernel/model"

type IncidentType string

const (
	IncidentFire  IncidentType = "fire"
	IncidentCrime IncidentType = "crime"
)

type Incident struct {
	Type IncidentType `json:"type"`
	Pos  model.Point  `json:"pos"`
	// Remaining ticks before a crime goes cold; unused for fires.
	Remaining int `json:"remaining,omitempty"`
	// ClaimedBy is the responding vehicle id, 0 when unclaimed.
	ClaimedBy int `json:"claimed_by,omitempty"`
}

type VehicleKind string

const (
	FireTruck VehicleKind = "fire_truck"
	PoliceCar VehicleKind = "police_car"
)

type Phase string

const (
	PhaseDispatching Phase = "dispatching"
	PhaseResponding  Phase = "responding"
	PhaseReturning   Phase = "returning"
)

type Vehicle struct {
	ID           int           `json:"id"`
	Kind         VehicleKind   `json:"kind"`
	Tile         model.Point   `json:"tile"`
	Progress     float64       `json:"progress"`
	Route        []model.Point `json:"route,omitempty"`
	RouteIndex   int           `json:"route_index"`
	Phase        Phase         `json:"phase"`
	Station      model.Point   `json:"station"`
	StationRoad  model.Point   `json:"station_road"`
	Target       model.Point   `json:"target"`
	ResponseLeft int           `json:"response_left,omitempty"`
	Heading      string        `json:"heading"`
}

type Params struct {
	EveryTicks         uint64
	VehiclesPerStation int
	Speed              float64
	FireResponseTicks  int
	CrimeResponseTicks int
	CrimeDuration      int
	// Per-tick chance that an active zoned building reports a crime,
	// scaled by missing police coverage.
	CrimeChance float64
}

func DefaultParams() Params {
	return Params{
		EveryTicks:         5,
		VehiclesPerStation: 2,
		Speed:              0.5,
		FireResponseTicks:  20,
		CrimeResponseTicks: 15,
		CrimeDuration:      120,
		CrimeChance:        0.00002,
	}
}

func stationKind(t IncidentType) string {
	if t == IncidentFire {
		return "fire_station"
	}
	return "police_station"
}

func vehicleKind(t IncidentType) VehicleKind {
	if t == IncidentFire {
		return FireTruck
	}
	return PoliceCar
}

func (p Params) responseTicks(k VehicleKind) int {
	if k == FireTruck {
		return p.FireResponseTicks
	}
	return p.CrimeResponseTicks
}
