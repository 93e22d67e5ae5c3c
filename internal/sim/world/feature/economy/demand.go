package economy

import (
	"math"

	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/mathx"
)

// BaselineTax is the rate at which the fine-tune term vanishes.
const BaselineTax = 9.0

// Demand per zone, each in [-100, 100].
type Demand struct {
	Residential float64 `json:"residential"`
	Commercial  float64 `json:"commercial"`
	Industrial  float64 `json:"industrial"`
}

func (d Demand) For(z model.Zone) float64 {
	switch z {
	case model.ZoneResidential:
		return d.Residential
	case model.ZoneCommercial:
		return d.Commercial
	case model.ZoneIndustrial:
		return d.Industrial
	}
	return 0
}

// TaxMultiplier is 1 at 0%, ~0.99 at the 9% baseline and 0 at 100%.
func TaxMultiplier(tax float64) float64 {
	t := mathx.Clamp(tax, 0, 100) / 100
	return 1 - t*t
}

// FineTune is a small additive term centred on the baseline rate.
func FineTune(tax float64) float64 {
	return mathx.Clamp((BaselineTax-tax)*2, -40, 18)
}

// ApplyTax scales only the positive part of raw demand, then adds FineTune.
func ApplyTax(raw, tax float64) float64 {
	d := raw
	if d > 0 {
		d *= TaxMultiplier(tax)
	}
	d += FineTune(tax)
	return mathx.Clamp(d, -100, 100)
}

// ComputeDemand turns the population/job balance into zone demand.
func ComputeDemand(a Aggregates, tax float64) Demand {
	pop := float64(a.Population)
	jobs := float64(a.Jobs)
	total := math.Max(pop+jobs, 50)

	res := (jobs*1.2-pop*0.6)/total*100 + 30
	com := (pop*0.3-float64(a.CommercialJobs))/total*100 + subwayBonus(a)
	ind := (pop*0.35-float64(a.IndustrialJobs))/total*100 + 10

	return Demand{
		Residential: ApplyTax(res, tax),
		Commercial:  ApplyTax(com, tax),
		Industrial:  ApplyTax(ind, tax),
	}
}

func subwayBonus(a Aggregates) float64 {
	if a.SubwayStations == 0 {
		return 0
	}
	return math.Min(15, float64(a.SubwayStations)*2+float64(a.SubwayTiles)*0.05)
}
