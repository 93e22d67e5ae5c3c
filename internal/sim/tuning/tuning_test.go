package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	raw := []byte("map_size: 96\neconomy:\n  tax_rate: 12\ndisasters:\n  enabled: false\n")
	if err := os.WriteFile(p, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.MapSize != 96 || tu.Economy.TaxRate != 12 || tu.Disasters.Enabled {
		t.Fatalf("overrides not applied: %+v", tu)
	}
	if tu.TicksPerMonth != 30 || tu.Economy.StartingMoney != 20000 || tu.Dispatch.EveryTicks != 5 {
		t.Fatalf("defaults lost: %+v", tu)
	}
	if len(tu.Digest) != 64 {
		t.Fatalf("digest=%q", tu.Digest)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(p, []byte("economy:\n  tax_rate: 140\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected tax_rate validation error")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestRepoTuningFileLoads(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("configs/tuning.yaml: %v", err)
	}
	if tu.Growth.MinLevelAge != 60 || tu.Dispatch.VehiclesPerStation != 2 || tu.RateLimits.CommandMax != 40 {
		t.Fatalf("unexpected repo tuning: %+v", tu)
	}
}
