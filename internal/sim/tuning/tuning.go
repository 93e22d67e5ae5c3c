package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	MapSize            int `yaml:"map_size"`
	TicksPerMonth      int `yaml:"ticks_per_month"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	HistoryCapacity    int `yaml:"history_capacity"`

	Economy   Economy   `yaml:"economy"`
	Growth    Growth    `yaml:"growth"`
	Disasters Disasters `yaml:"disasters"`
	Dispatch  Dispatch  `yaml:"dispatch"`

	RateLimits RateLimits `yaml:"rate_limits"`

	// Digest of the file contents; empty for Defaults.
	Digest string `yaml:"-"`
}

type Economy struct {
	StartingMoney float64 `yaml:"starting_money"`
	TaxRate       float64 `yaml:"tax_rate"`
}

type Growth struct {
	RoadRadius     int     `yaml:"road_radius"`
	Tier2LandValue float64 `yaml:"tier2_land_value"`
	MinLevelAge    uint64  `yaml:"min_level_age"`
	AbsorbDemand   float64 `yaml:"absorb_demand"`
	AbandonAge     uint64  `yaml:"abandon_age"`
	AbandonDemand  float64 `yaml:"abandon_demand"`
	RecoverDemand  float64 `yaml:"recover_demand"`
	OutputFactor   float64 `yaml:"output_factor"`
}

type Disasters struct {
	Enabled         bool    `yaml:"enabled"`
	IgniteChance    float64 `yaml:"ignite_chance"`
	SpreadChance    float64 `yaml:"spread_chance"`
	SuppressDivisor float64 `yaml:"suppress_divisor"`
	BurnRate        float64 `yaml:"burn_rate"`
}

type Dispatch struct {
	EveryTicks         uint64  `yaml:"every_ticks"`
	VehiclesPerStation int     `yaml:"vehicles_per_station"`
	Speed              float64 `yaml:"speed"`
	FireResponseTicks  int     `yaml:"fire_response_ticks"`
	CrimeResponseTicks int     `yaml:"crime_response_ticks"`
	CrimeDuration      int     `yaml:"crime_duration"`
	CrimeChance        float64 `yaml:"crime_chance"`
}

// RateLimits bound per-session command traffic on the websocket.
type RateLimits struct {
	CommandWindowTicks uint64 `yaml:"command_window_ticks"`
	CommandMax         int    `yaml:"command_max"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         10,
		MapSize:            64,
		TicksPerMonth:      30,
		SnapshotEveryTicks: 3000,
		HistoryCapacity:    100,
		Economy: Economy{
			StartingMoney: 20000,
			TaxRate:       9,
		},
		Growth: Growth{
			RoadRadius:     8,
			Tier2LandValue: 45,
			MinLevelAge:    60,
			AbsorbDemand:   60,
			AbandonAge:     30,
			AbandonDemand:  -20,
			RecoverDemand:  10,
			OutputFactor:   0.8,
		},
		Disasters: Disasters{
			Enabled:         true,
			IgniteChance:    0.00003,
			SpreadChance:    0.005,
			SuppressDivisor: 300,
			BurnRate:        2.0 / 3.0,
		},
		Dispatch: Dispatch{
			EveryTicks:         5,
			VehiclesPerStation: 2,
			Speed:              0.5,
			FireResponseTicks:  20,
			CrimeResponseTicks: 15,
			CrimeDuration:      120,
			CrimeChance:        0.00002,
		},
		RateLimits: RateLimits{
			CommandWindowTicks: 10,
			CommandMax:         40,
		},
	}
}

// Load reads a YAML tuning file over Defaults; keys absent from the file
// keep their default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	sum := sha256.Sum256(raw)
	t.Digest = hex.EncodeToString(sum[:])
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0")
	case t.MapSize < 8:
		return fmt.Errorf("map_size must be >= 8")
	case t.TicksPerMonth <= 0:
		return fmt.Errorf("ticks_per_month must be > 0")
	case t.Economy.TaxRate < 0 || t.Economy.TaxRate > 100:
		return fmt.Errorf("economy.tax_rate must be within [0,100]")
	case t.Dispatch.Speed <= 0:
		return fmt.Errorf("dispatch.speed must be > 0")
	case t.Disasters.BurnRate <= 0:
		return fmt.Errorf("disasters.burn_rate must be > 0")
	}
	return nil
}
