package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
)

func TestTaxMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, TaxMultiplier(0))
	assert.InDelta(t, 0.9919, TaxMultiplier(9), 1e-9)
	assert.Equal(t, 0.0, TaxMultiplier(100))
	assert.Equal(t, 0.0, FineTune(BaselineTax))
	assert.Equal(t, 18.0, FineTune(0))
	assert.Equal(t, -40.0, FineTune(100))
}

func TestDemand_TaxMonotonic(t *testing.T) {
	for _, raw := range []float64{-150, -60, -5, 0, 12, 45, 90, 160} {
		prev := ApplyTax(raw, 0)
		for tax := 1.0; tax <= 100; tax++ {
			d := ApplyTax(raw, tax)
			require.LessOrEqual(t, d, prev+1e-12, "raw=%v tax=%v", raw, tax)
			require.GreaterOrEqual(t, d, -100.0)
			require.LessOrEqual(t, d, 100.0)
			prev = d
		}
	}
	// Positive demand collapses under full taxation.
	assert.Equal(t, -40.0, ApplyTax(80, 100))
}

func TestComputeDemand_EmptyCityWantsHomes(t *testing.T) {
	d := ComputeDemand(Aggregates{}, BaselineTax)
	assert.Greater(t, d.Residential, 20.0)
	assert.Greater(t, d.Industrial, 0.0)
	assert.InDelta(t, 0.0, d.Commercial, 1e-9)

	crowded := ComputeDemand(Aggregates{Population: 1000, Jobs: 100}, BaselineTax)
	assert.Less(t, crowded.Residential, 0.0)
	assert.Greater(t, crowded.Commercial, 0.0)
}

func TestLagTax_Converges(t *testing.T) {
	s := NewState(0, 9)
	s.SetTax(20)
	s.LagTax()
	assert.InDelta(t, 9.33, s.EffectiveTax, 1e-9)
	n := 1
	for s.EffectiveTax < 20*0.9 {
		s.LagTax()
		n++
	}
	assert.GreaterOrEqual(t, n, 50)
	assert.LessOrEqual(t, n, 80)
}

func TestState_SetFunding(t *testing.T) {
	s := NewState(0, 9)
	assert.True(t, s.SetFunding("fire", 140))
	assert.Equal(t, 100.0, s.Funding("fire"))
	assert.True(t, s.SetFunding("fire", 40))
	assert.Equal(t, 40.0, s.Funding("fire"))
	assert.False(t, s.SetFunding("casino", 10))
}

func TestMonthlyIncome_TaxInPercent(t *testing.T) {
	agg := Aggregates{Population: 1000, Jobs: 500}
	assert.InDelta(t, 1000*9*0.04+500*9*0.02, MonthlyIncome(agg, 9), 1e-9)
	assert.Equal(t, 0.0, MonthlyIncome(agg, 0))
	assert.InDelta(t, 2*MonthlyIncome(agg, 9), MonthlyIncome(agg, 18), 1e-9)
}

func TestTick_MonthBoundary(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(8)
	g.SetKind(0, 0, model.KindRoad)
	g.SetKind(1, 0, model.KindRoad)
	b := model.NewBuilding("police_station", 1, 1)
	b.ConstructionProgress = 100
	g.Place(3, 3, b, model.ZoneNone)

	s := NewState(1000, 10)
	s.SetFunding("police", 50)
	agg := Aggregates{Population: 100, Jobs: 50}
	for tick := uint64(1); tick < 30; tick++ {
		closed, _ := s.Tick(tick, 30, agg, g.Counts(), cat)
		require.False(t, closed)
	}
	require.Equal(t, 1000.0, s.Money)

	closed, _ := s.Tick(30, 30, agg, g.Counts(), cat)
	require.True(t, closed)
	wantExp := 25*0.5 + 0.2*2
	assert.InDelta(t, wantExp, s.Expenses, 1e-9)
	assert.InDelta(t, MonthlyIncome(agg, s.EffectiveTax), s.Income, 1e-9)
	assert.InDelta(t, 1000+s.Income-s.Expenses, s.Money, 1e-9)
	assert.Equal(t, 1, s.Month)
}

func TestTick_QuarterCloses(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(4)
	s := NewState(0, 9)
	quarters := 0
	for tick := uint64(1); tick <= 30*12; tick++ {
		if _, q := s.Tick(tick, 30, Aggregates{}, g.Counts(), cat); q {
			quarters++
		}
	}
	assert.Equal(t, 4, quarters)
	assert.Equal(t, 1, s.Year)
}

func TestUpdateFields_PollutionAndLandValue(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(20)
	f := model.NewBuilding("factory_small", 1, 1)
	f.ConstructionProgress = 100
	g.Place(3, 3, f, model.ZoneIndustrial)
	g.SetKind(15, 15, model.KindWater)

	UpdateFields(g, cat, coverage.Compute(g, cat))

	assert.Greater(t, g.At(3, 3).Pollution, g.At(5, 3).Pollution)
	assert.Equal(t, 0.0, g.At(12, 3).Pollution)
	assert.Greater(t, g.At(15, 14).LandValue, g.At(10, 10).LandValue, "shore beats inland")
	assert.Less(t, g.At(3, 4).LandValue, g.At(10, 10).LandValue, "pollution drags land value")
	g.Each(func(tl *model.Tile) {
		require.GreaterOrEqual(t, tl.LandValue, 0.0)
		require.LessOrEqual(t, tl.LandValue, 100.0)
	})
}

func TestAggregate_SubwayBonus(t *testing.T) {
	cat := &catalogs.MustDefault().Buildings
	g := model.NewGrid(6)
	shop := model.NewBuilding("shop_medium", 1, 1)
	shop.ConstructionProgress = 100
	shop.Jobs = 100
	shop.Powered, shop.Watered = true, true
	g.Place(1, 1, shop, model.ZoneCommercial)
	g.Place(2, 1, shop, model.ZoneCommercial)
	g.SetSubway(1, 1, true)

	a := Aggregate(g, cat, nil)
	assert.Equal(t, 215, a.CommercialJobs)
	assert.Equal(t, 2, a.Developed)
	assert.Equal(t, 1, a.SubwayTiles)
}

func TestComputeQoL_Clamped(t *testing.T) {
	s := NewState(0, 9)
	q := ComputeQoL(Aggregates{AvgPolice: 400, AvgPollution: 500, Tiles: 10, Trees: 10}, &s)
	for _, v := range []float64{q.Safety, q.Health, q.Education, q.Environment, q.Happiness} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}
