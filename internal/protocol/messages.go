package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// Subscribe to per-tick STATS pushes.
	WantStats bool `json:"want_stats,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	WorldID         string         `json:"world_id"`
	Tick            uint64         `json:"tick"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	TickRateHz    int   `json:"tick_rate_hz"`
	Size          int   `json:"size"`
	Seed          int64 `json:"seed"`
	TicksPerMonth int   `json:"ticks_per_month"`
}

type CatalogDigests struct {
	BuildingsDigest string `json:"buildings_digest"`
	BuildingCount   int    `json:"building_count"`
	TuningDigest    string `json:"tuning_digest,omitempty"`
}

// Command ops.
const (
	OpPlace        = "PLACE"
	OpBulldoze     = "BULLDOZE"
	OpZone         = "ZONE"
	OpSubway       = "SUBWAY"
	OpSetTax       = "SET_TAX"
	OpSetBudget    = "SET_BUDGET"
	OpSetDisasters = "SET_DISASTERS"
	OpReportCrime  = "REPORT_CRIME"
)

// COMMAND (client -> server). Fields are interpreted per Op.
type CommandMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Op              string `json:"op"`

	X int `json:"x"`
	Y int `json:"y"`

	Kind     string  `json:"kind,omitempty"`     // PLACE
	Zone     string  `json:"zone,omitempty"`     // ZONE; "" dezones
	Category string  `json:"category,omitempty"` // SET_BUDGET
	Value    float64 `json:"value,omitempty"`    // SET_TAX rate, SET_BUDGET funding
	Enabled  bool    `json:"enabled,omitempty"`  // SUBWAY, SET_DISASTERS
	Duration int     `json:"duration,omitempty"` // REPORT_CRIME, ticks
}

// COMMAND_RESULT (server -> client)
type CommandResultMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	Tick            uint64  `json:"tick"`
	Changed         bool    `json:"changed"`
	Code            string  `json:"code,omitempty"`
	Message         string  `json:"message,omitempty"`
	Cost            float64 `json:"cost,omitempty"`
}

// STATS (server -> client), pushed once per tick to subscribed sessions.
type StatsMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Tick            uint64    `json:"tick"`
	Digest          string    `json:"digest,omitempty"`
	Stats           CityStats `json:"stats"`
}

type CityStats struct {
	Population int     `json:"population"`
	Jobs       int     `json:"jobs"`
	Money      float64 `json:"money"`
	Income     float64 `json:"income"`
	Expenses   float64 `json:"expenses"`

	Safety      float64 `json:"safety"`
	Health      float64 `json:"health"`
	Education   float64 `json:"education"`
	Environment float64 `json:"environment"`
	Happiness   float64 `json:"happiness"`

	Demand       Demand  `json:"demand"`
	TaxRate      float64 `json:"tax_rate"`
	EffectiveTax float64 `json:"effective_tax"`

	Month int `json:"month"`
	Year  int `json:"year"`

	Trees          int `json:"trees"`
	WaterTiles     int `json:"water_tiles"`
	Parks          int `json:"parks"`
	SubwayTiles    int `json:"subway_tiles"`
	SubwayStations int `json:"subway_stations"`
	Abandoned      int `json:"abandoned"`
	Burning        int `json:"burning"`
}

type Demand struct {
	Residential float64 `json:"residential"`
	Commercial  float64 `json:"commercial"`
	Industrial  float64 `json:"industrial"`
}

// ERROR (server -> client) for messages that never reached the world.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
