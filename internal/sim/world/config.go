package world

import (
	"isocity.dev/internal/sim/tuning"
	"isocity.dev/internal/sim/world/feature/disaster"
	"isocity.dev/internal/sim/world/feature/dispatch"
	"isocity.dev/internal/sim/world/feature/growth"
	"isocity.dev/internal/sim/world/feature/history"
	"isocity.dev/internal/sim/world/terrain/gen"
)

type WorldConfig struct {
	ID            string
	Seed          int64
	Size          int
	TickRateHz    int
	TicksPerMonth int

	StartingMoney float64
	TaxRate       float64

	// NoDisasters starts the world with ignition and spread switched off.
	NoDisasters bool

	// Operational parameters. These are included in snapshots for deterministic resume.
	SnapshotEveryTicks int
	HistoryCapacity    int

	// Terrain tuning; nil uses gen.DefaultConfig for Size.
	Terrain *gen.Config

	Growth   growth.Params
	Disaster disaster.Params
	Dispatch dispatch.Params
}

// ConfigFromTuning maps the YAML tuning file onto a world config.
func ConfigFromTuning(id string, seed int64, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                 id,
		Seed:               seed,
		Size:               t.MapSize,
		TickRateHz:         t.TickRateHz,
		TicksPerMonth:      t.TicksPerMonth,
		StartingMoney:      t.Economy.StartingMoney,
		TaxRate:            t.Economy.TaxRate,
		NoDisasters:        !t.Disasters.Enabled,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
		HistoryCapacity:    t.HistoryCapacity,
		Growth: growth.Params{
			RoadRadius:     t.Growth.RoadRadius,
			Tier2LandValue: t.Growth.Tier2LandValue,
			MinLevelAge:    t.Growth.MinLevelAge,
			AbsorbDemand:   t.Growth.AbsorbDemand,
			AbandonAge:     t.Growth.AbandonAge,
			AbandonDemand:  t.Growth.AbandonDemand,
			RecoverDemand:  t.Growth.RecoverDemand,
			OutputFactor:   t.Growth.OutputFactor,
		},
		Disaster: disaster.Params{
			IgniteChance:    t.Disasters.IgniteChance,
			SpreadChance:    t.Disasters.SpreadChance,
			SuppressDivisor: t.Disasters.SuppressDivisor,
			BurnRate:        t.Disasters.BurnRate,
		},
		Dispatch: dispatch.Params{
			EveryTicks:         t.Dispatch.EveryTicks,
			VehiclesPerStation: t.Dispatch.VehiclesPerStation,
			Speed:              t.Dispatch.Speed,
			FireResponseTicks:  t.Dispatch.FireResponseTicks,
			CrimeResponseTicks: t.Dispatch.CrimeResponseTicks,
			CrimeDuration:      t.Dispatch.CrimeDuration,
			CrimeChance:        t.Dispatch.CrimeChance,
		},
	}
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "city_1"
	}
	if c.Size <= 0 {
		c.Size = 64
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 10
	}
	if c.TicksPerMonth <= 0 {
		c.TicksPerMonth = 30
	}
	if c.StartingMoney == 0 {
		c.StartingMoney = 20000
	}
	if c.TaxRate <= 0 {
		c.TaxRate = 9
	}
	if c.SnapshotEveryTicks <= 0 {
		c.SnapshotEveryTicks = 3000
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = history.DefaultCapacity
	}
	if c.Terrain == nil {
		tc := gen.DefaultConfig(c.Size)
		c.Terrain = &tc
	}
	if c.Growth == (growth.Params{}) {
		c.Growth = growth.DefaultParams()
	}
	if c.Disaster == (disaster.Params{}) {
		c.Disaster = disaster.DefaultParams()
	}
	if c.Dispatch == (dispatch.Params{}) {
		c.Dispatch = dispatch.DefaultParams()
	}
}
