package world

import (
	"context"
	"encoding/json"
	"time"

	"isocity.dev/internal/protocol"
)

type inspectReq struct {
	fn   func(w *World)
	done chan struct{}
}

// subscribeReq with a nil out removes id. Both directions share one channel
// so a caller's subscribe is always applied before its unsubscribe.
type subscribeReq struct {
	id  string
	out chan []byte
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(w.done)

	var pending []CommandRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.inspect:
			req.fn(w)
			close(req.done)
		case req := <-w.subscribe:
			if req.out == nil {
				delete(w.subs, req.id)
			} else {
				w.subs[req.id] = req.out
			}
		case req := <-w.inbox:
			pending = append(pending, req)
		case <-ticker.C:
			w.step(pending)
			pending = pending[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Submit queues cmd for the next tick boundary and waits for its result.
func (w *World) Submit(ctx context.Context, cmd protocol.CommandMsg) (CommandResult, error) {
	resp := make(chan CommandResult, 1)
	select {
	case w.inbox <- CommandRequest{Cmd: cmd, Resp: resp}:
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}
}

// Inspect runs fn on the loop goroutine between ticks. fn must not retain
// pointers into world state.
func (w *World) Inspect(ctx context.Context, fn func(w *World)) error {
	req := inspectReq{fn: fn, done: make(chan struct{})}
	select {
	case w.inspect <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers out for per-tick STATS frames. Slow subscribers only
// ever see the latest frame.
func (w *World) Subscribe(id string, out chan []byte) {
	select {
	case w.subscribe <- subscribeReq{id: id, out: out}:
	case <-w.done:
	}
}

// Unsubscribe blocks until the loop takes the request or has exited.
func (w *World) Unsubscribe(id string) {
	select {
	case w.subscribe <- subscribeReq{id: id}:
	case <-w.done:
	}
}

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(cmds []protocol.CommandMsg) (tick uint64, digest string) {
	tick = w.tick.Load()
	reqs := make([]CommandRequest, 0, len(cmds))
	for _, c := range cmds {
		reqs = append(reqs, CommandRequest{Cmd: c})
	}
	w.step(reqs)
	return tick, w.lastDigest
}

// LatestStats is safe to call from any goroutine.
func (w *World) LatestStats() protocol.StatsMsg {
	if s := w.stats.Load(); s != nil {
		return *s
	}
	return protocol.StatsMsg{Type: protocol.TypeStats, ProtocolVersion: protocol.Version}
}

func (w *World) publishStats(tick uint64) {
	msg := protocol.StatsMsg{
		Type:            protocol.TypeStats,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Digest:          w.lastDigest,
		Stats:           w.Stats(),
	}
	w.stats.Store(&msg)
	if len(w.subs) == 0 {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, out := range w.subs {
		sendLatest(out, b)
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
