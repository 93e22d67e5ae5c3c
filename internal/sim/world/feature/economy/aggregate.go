package economy

import (
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/kernel/model"
	"isocity.dev/internal/sim/world/logic/coverage"
)

// SubwayJobBonusPct scales commercial jobs on subway tiles.
const SubwayJobBonusPct = 115

// Aggregates are one-pass tallies over the grid.
type Aggregates struct {
	Population     int
	Jobs           int
	CommercialJobs int
	IndustrialJobs int

	AvgPollution float64
	AvgLandValue float64

	// Coverage averages over developed zoned buildings.
	AvgPolice    float64
	AvgFire      float64
	AvgHealth    float64
	AvgEducation float64

	Tiles          int
	Trees          int
	WaterTiles     int
	ParkTiles      int
	Parks          int
	SubwayTiles    int
	SubwayStations int
	Abandoned      int
	Burning        int
	Developed      int
	Unpowered      int
	Unwatered      int
}

// GreenRatio is the share of map tiles that are trees or parks.
func (a Aggregates) GreenRatio() float64 {
	if a.Tiles == 0 {
		return 0
	}
	return float64(a.Trees+a.ParkTiles) / float64(a.Tiles)
}

func Aggregate(g *model.Grid, cat *catalogs.BuildingCatalog, cov *coverage.Coverage) Aggregates {
	var a Aggregates
	var polSum, lvSum float64
	g.Each(func(t *model.Tile) {
		a.Tiles++
		polSum += t.Pollution
		lvSum += t.LandValue
		if t.HasSubway {
			a.SubwayTiles++
		}
		switch t.Building.Kind {
		case model.KindTree:
			a.Trees++
			return
		case model.KindWater:
			a.WaterTiles++
			return
		case model.KindPlaceholder:
			if o, ok := g.OriginOf(t.X, t.Y); ok {
				if def, ok := cat.Get(g.AtPoint(o).Building.Kind); ok && def.Category == catalogs.CategoryPark {
					a.ParkTiles++
				}
			}
			return
		}
		if !t.IsOrigin() {
			return
		}
		b := &t.Building
		def, ok := cat.Get(b.Kind)
		if !ok {
			return
		}
		if b.OnFire {
			a.Burning++
		}
		switch def.Category {
		case catalogs.CategoryPark:
			a.Parks++
			a.ParkTiles++
		case catalogs.CategorySpecial:
			if def.Subway {
				a.SubwayStations++
			}
		case catalogs.CategoryZoned:
			if b.Abandoned {
				a.Abandoned++
				return
			}
			if !b.Complete() {
				return
			}
			a.Developed++
			if !b.Powered {
				a.Unpowered++
			}
			if !b.Watered {
				a.Unwatered++
			}
			a.Population += b.Population
			jobs := b.Jobs
			switch model.Zone(def.Zone) {
			case model.ZoneCommercial:
				if t.HasSubway {
					jobs = jobs * SubwayJobBonusPct / 100
				}
				a.CommercialJobs += jobs
			case model.ZoneIndustrial:
				a.IndustrialJobs += jobs
			}
			a.Jobs += jobs
			if cov != nil {
				i := t.Y*cov.Size + t.X
				a.AvgPolice += cov.Police[i]
				a.AvgFire += cov.Fire[i]
				a.AvgHealth += cov.Health[i]
				a.AvgEducation += cov.Education[i]
			}
		}
	})
	if a.Tiles > 0 {
		a.AvgPollution = polSum / float64(a.Tiles)
		a.AvgLandValue = lvSum / float64(a.Tiles)
	}
	if a.Developed > 0 {
		n := float64(a.Developed)
		a.AvgPolice /= n
		a.AvgFire /= n
		a.AvgHealth /= n
		a.AvgEducation /= n
	}
	return a
}
