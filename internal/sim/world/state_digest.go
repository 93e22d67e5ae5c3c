package world

import (
	"crypto/sha256"
	"encoding/hex"

	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world/io/digestcodec"
	"isocity.dev/internal/sim/world/kernel/model"
)

// stateDigest hashes every piece of state that influences later ticks.
// Derived fields (coverage, aggregates) are left out since they are
// recomputed from the grid.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestcodec.WriteU64(h, &tmp, nowTick)
	digestcodec.WriteI64(h, &tmp, w.cfg.Seed)
	digestcodec.WriteU64(h, &tmp, uint64(w.grid.Size()))
	w.digestTiles(h, &tmp)
	w.digestEconomy(h, &tmp)
	w.digestDispatch(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestTiles(h digestcodec.Writer, tmp *[8]byte) {
	w.grid.Each(func(t *model.Tile) {
		b := &t.Building
		digestcodec.WriteString(h, tmp, b.Kind)
		digestcodec.WriteString(h, tmp, string(t.Zone))
		digestcodec.WriteI64(h, tmp, int64(b.Level))
		digestcodec.WriteI64(h, tmp, int64(b.Population))
		digestcodec.WriteI64(h, tmp, int64(b.Jobs))
		digestcodec.WriteBools(h, b.Powered, b.Watered, b.OnFire, b.Abandoned, b.Flipped, t.HasSubway, t.HasOrigin)
		digestcodec.WriteF64(h, tmp, b.FireProgress)
		digestcodec.WriteU64(h, tmp, b.Age)
		digestcodec.WriteF64(h, tmp, b.ConstructionProgress)
		digestcodec.WriteI64(h, tmp, int64(b.Width))
		digestcodec.WriteI64(h, tmp, int64(b.Height))
		digestcodec.WriteF64(h, tmp, t.LandValue)
		digestcodec.WriteF64(h, tmp, t.Pollution)
		if t.HasOrigin {
			digestcodec.WriteI64(h, tmp, int64(t.Origin.X))
			digestcodec.WriteI64(h, tmp, int64(t.Origin.Y))
		}
	})
}

func (w *World) digestEconomy(h digestcodec.Writer, tmp *[8]byte) {
	e := &w.econ
	digestcodec.WriteF64(h, tmp, e.Money)
	digestcodec.WriteF64(h, tmp, e.TaxRate)
	digestcodec.WriteF64(h, tmp, e.EffectiveTax)
	digestcodec.WriteKeyedFloats(h, tmp, catalogs.BudgetCategories, e.Funding)
	digestcodec.WriteF64(h, tmp, e.Income)
	digestcodec.WriteF64(h, tmp, e.Expenses)
	digestcodec.WriteI64(h, tmp, int64(e.Month))
	digestcodec.WriteI64(h, tmp, int64(e.Year))
	digestcodec.WriteF64(h, tmp, e.Demand.Residential)
	digestcodec.WriteF64(h, tmp, e.Demand.Commercial)
	digestcodec.WriteF64(h, tmp, e.Demand.Industrial)
	digestcodec.WriteBools(h, w.disasters)
}

func (w *World) digestDispatch(h digestcodec.Writer, tmp *[8]byte) {
	d := w.dispatch
	digestcodec.WriteI64(h, tmp, int64(d.NextID))
	for _, inc := range d.SortedIncidents() {
		digestcodec.WriteString(h, tmp, string(inc.Type))
		digestcodec.WriteI64(h, tmp, int64(inc.Pos.X))
		digestcodec.WriteI64(h, tmp, int64(inc.Pos.Y))
		digestcodec.WriteI64(h, tmp, int64(inc.Remaining))
		digestcodec.WriteI64(h, tmp, int64(inc.ClaimedBy))
	}
	for _, v := range d.Vehicles {
		digestcodec.WriteI64(h, tmp, int64(v.ID))
		digestcodec.WriteString(h, tmp, string(v.Kind))
		digestcodec.WriteString(h, tmp, string(v.Phase))
		digestcodec.WriteI64(h, tmp, int64(v.Tile.X))
		digestcodec.WriteI64(h, tmp, int64(v.Tile.Y))
		digestcodec.WriteF64(h, tmp, v.Progress)
		digestcodec.WriteI64(h, tmp, int64(v.RouteIndex))
		digestcodec.WriteI64(h, tmp, int64(len(v.Route)))
		digestcodec.WriteI64(h, tmp, int64(v.Target.X))
		digestcodec.WriteI64(h, tmp, int64(v.Target.Y))
		digestcodec.WriteI64(h, tmp, int64(v.ResponseLeft))
	}
}
