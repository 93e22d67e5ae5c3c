package economy

import (
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/mathx"
)

const (
	// TaxLag is the share of the nominal/effective gap closed per tick.
	TaxLag = 0.03

	// Per resident and per job, per tax percent, per month.
	popTaxYield = 0.04
	jobTaxYield = 0.02
)

// State is the persistent city treasury and policy.
type State struct {
	Money        float64            `json:"money"`
	TaxRate      float64            `json:"tax_rate"`
	EffectiveTax float64            `json:"effective_tax"`
	Budget       map[string]float64 `json:"budget"`

	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`

	Month int `json:"month"`
	Year  int `json:"year"`

	Demand Demand `json:"demand"`
}

func NewState(money, tax float64) State {
	s := State{Money: money, TaxRate: tax, EffectiveTax: tax, Budget: map[string]float64{}}
	for _, c := range catalogs.BudgetCategories {
		s.Budget[c] = 100
	}
	return s
}

// Funding returns the category funding percentage, 100 when unset.
func (s *State) Funding(category string) float64 {
	if v, ok := s.Budget[category]; ok {
		return v
	}
	return 100
}

func (s *State) SetTax(rate float64) { s.TaxRate = mathx.Clamp(rate, 0, 100) }

// SetFunding reports false for unknown categories.
func (s *State) SetFunding(category string, pct float64) bool {
	for _, c := range catalogs.BudgetCategories {
		if c == category {
			if s.Budget == nil {
				s.Budget = map[string]float64{}
			}
			s.Budget[c] = mathx.Clamp(pct, 0, 100)
			return true
		}
	}
	return false
}

// LagTax moves the effective rate toward the nominal one.
func (s *State) LagTax() {
	s.EffectiveTax += (s.TaxRate - s.EffectiveTax) * TaxLag
}

func MonthlyIncome(a Aggregates, tax float64) float64 {
	return float64(a.Population)*tax*popTaxYield + float64(a.Jobs)*tax*jobTaxYield
}

// MonthlyExpenses sums catalog maintenance per budget category, scaled by
// that category's funding.
func MonthlyExpenses(c model.Counts, cat *catalogs.BuildingCatalog, s *State) float64 {
	base := map[string]float64{}
	for kind, n := range c.ByKind {
		def, ok := cat.Get(kind)
		if !ok || def.Budget == "" {
			continue
		}
		base[def.Budget] += def.Maintenance * float64(n)
	}
	if road, ok := cat.Get(model.KindRoad); ok && road.Budget != "" {
		base[road.Budget] += road.Maintenance * float64(c.Roads)
	}
	total := 0.0
	for _, bc := range catalogs.BudgetCategories {
		total += base[bc] * s.Funding(bc) / 100
	}
	return total
}

// Tick advances the treasury by one tick. At month boundaries income and
// expenses are booked; it reports whether a month (and a quarter) closed.
func (s *State) Tick(tick uint64, ticksPerMonth int, a Aggregates, c model.Counts, cat *catalogs.BuildingCatalog) (monthClosed, quarterClosed bool) {
	s.LagTax()
	s.Demand = ComputeDemand(a, s.EffectiveTax)
	if ticksPerMonth <= 0 || tick == 0 || tick%uint64(ticksPerMonth) != 0 {
		return false, false
	}
	s.Income = MonthlyIncome(a, s.EffectiveTax)
	s.Expenses = MonthlyExpenses(c, cat, s)
	s.Money += s.Income - s.Expenses
	s.Month++
	if s.Month >= 12 {
		s.Month = 0
		s.Year++
	}
	return true, s.Month%3 == 0
}
