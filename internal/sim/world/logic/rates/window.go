package rates

// Window counts events in fixed, tick-aligned windows of a given size. The
// zero value is an empty window starting at tick 0.
type Window struct {
	Start uint64
	Count int
}

// Allow records one event at nowTick. It reports whether the event fits in
// the current window and, if not, how many ticks remain until the next one.
// A zero size or non-positive max disables limiting.
func (w *Window) Allow(nowTick, size uint64, max int) (ok bool, cooldownTicks uint64) {
	if size == 0 || max <= 0 {
		return true, 0
	}
	if nowTick < w.Start || nowTick-w.Start >= size {
		w.Start = nowTick
		w.Count = 0
	}
	w.Count++
	if w.Count <= max {
		return true, 0
	}
	return false, (w.Start + size) - nowTick
}
