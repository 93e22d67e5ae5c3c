package log

import (
	"path/filepath"
	"strings"
	"testing"

	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/world"
)

func replayConfig() world.WorldConfig {
	return world.WorldConfig{ID: "r1", Seed: 11, Size: 24, TicksPerMonth: 10}
}

func roadCmd(x, y int) protocol.CommandMsg {
	return protocol.CommandMsg{Type: protocol.TypeCommand, ProtocolVersion: protocol.Version, Op: protocol.OpPlace, X: x, Y: y, Kind: "road"}
}

func recordRun(t *testing.T, dir string, ticks int) {
	t.Helper()
	w, err := world.New(replayConfig(), catalogs.MustDefault())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	l := NewTickLogger(dir)
	w.SetTickLogger(l)
	for i := 0; i < ticks; i++ {
		var cmds []protocol.CommandMsg
		if i%5 == 0 {
			cmds = append(cmds, roadCmd(i%24, 3))
		}
		w.StepOnce(cmds)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestReplay_VerifiesDigests(t *testing.T) {
	dir := t.TempDir()
	recordRun(t, dir, 40)

	w, err := world.New(replayConfig(), catalogs.MustDefault())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	checked, err := Replay(w, filepath.Join(dir, "events"), 0, 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 40 {
		t.Fatalf("checked=%d want 40", checked)
	}
}

func TestReplay_StopsAtToTick(t *testing.T) {
	dir := t.TempDir()
	recordRun(t, dir, 20)

	w, err := world.New(replayConfig(), catalogs.MustDefault())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	checked, err := Replay(w, filepath.Join(dir, "events"), 5, 9)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 5 || w.CurrentTick() != 10 {
		t.Fatalf("checked=%d tick=%d", checked, w.CurrentTick())
	}
}

func TestReplay_DetectsDivergence(t *testing.T) {
	dir := t.TempDir()
	recordRun(t, dir, 10)

	cfg := replayConfig()
	cfg.Seed = 12
	w, err := world.New(cfg, catalogs.MustDefault())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	_, err = Replay(w, filepath.Join(dir, "events"), 0, 0)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected digest mismatch, got %v", err)
	}
}
