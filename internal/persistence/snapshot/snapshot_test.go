package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", FileName(120))
	in := SnapshotV1{
		Header:        Header{Version: Version, WorldID: "c1", Tick: 120},
		Seed:          9,
		Size:          2,
		TicksPerMonth: 30,
		Tiles: []TileV1{
			{Kind: "road"},
			{Kind: "house_small", Zone: "residential", Level: 1, Population: 4, Width: 1, Height: 1, ConstructionProgress: 1},
			{Kind: "grass"},
			{Kind: "water"},
		},
		Economy:  EconomyV1{Money: 1500, TaxRate: 9, Budget: map[string]float64{"police": 80}},
		Vehicles: []VehicleV1{{ID: 1, Kind: "fire_truck", Route: [][2]int{{0, 0}, {1, 0}}}},
		Counters: CountersV1{NextVehicle: 2},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Header != in.Header || out.Seed != 9 || len(out.Tiles) != 4 {
		t.Fatalf("header/seed/tiles mismatch: %+v", out.Header)
	}
	if out.Tiles[1].Population != 4 || out.Economy.Budget["police"] != 80 {
		t.Fatalf("content mismatch: %+v %+v", out.Tiles[1], out.Economy)
	}
	if len(out.Vehicles) != 1 || len(out.Vehicles[0].Route) != 2 || out.Counters.NextVehicle != 2 {
		t.Fatalf("vehicles mismatch: %+v", out.Vehicles)
	}
}

func TestReadSnapshot_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	if _, _, ok, err := Latest(filepath.Join(dir, "missing")); ok || err != nil {
		t.Fatalf("missing dir: ok=%v err=%v", ok, err)
	}
	for _, name := range []string{FileName(900), FileName(12000), FileName(3000), "notes.txt", "x.snap.zst"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path, tick, ok, err := Latest(dir)
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if tick != 12000 || filepath.Base(path) != "12000.snap.zst" {
		t.Fatalf("got tick=%d path=%s", tick, path)
	}
}
