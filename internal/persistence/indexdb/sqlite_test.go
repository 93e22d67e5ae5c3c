package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"isocity.dev/internal/persistence/snapshot"
	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/tuning"
	"isocity.dev/internal/sim/world"
	"isocity.dev/internal/sim/world/feature/history"
	"isocity.dev/internal/sim/world/kernel/model"
)

func TestSQLiteIndex_WriteTick(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	entry := world.TickLogEntry{
		Tick: 90,
		Commands: []world.RecordedCommand{
			{Cmd: protocol.CommandMsg{Op: protocol.OpPlace, X: 3, Y: 4, Kind: "road"}, Changed: true},
			{Cmd: protocol.CommandMsg{Op: protocol.OpZone, X: 5, Y: 5, Zone: "residential"}, Code: protocol.ErrNoop},
		},
		Spawned: 2,
		Ignited: []model.Point{{X: 1, Y: 1}},
		Quarter: &history.Entry{Tick: 90, Year: 0, Quarter: 1, Population: 40, Jobs: 12, Money: 19000, Happiness: 55},
		Digest:  "abc",
	}
	if err := idx.WriteTick(entry); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		digest           string
		cmds, sp, ignite int
	)
	if err := db.QueryRow(`SELECT digest,commands,spawned,ignited FROM ticks WHERE tick=90`).Scan(&digest, &cmds, &sp, &ignite); err != nil {
		t.Fatalf("ticks: %v", err)
	}
	if digest != "abc" || cmds != 2 || sp != 2 || ignite != 1 {
		t.Fatalf("tick row mismatch: digest=%q cmds=%d spawned=%d ignited=%d", digest, cmds, sp, ignite)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM commands WHERE tick=90`).Scan(&n); err != nil {
		t.Fatalf("commands: %v", err)
	}
	if n != 2 {
		t.Fatalf("commands rows=%d want=2", n)
	}
	var code string
	if err := db.QueryRow(`SELECT code FROM commands WHERE tick=90 AND seq=1`).Scan(&code); err != nil {
		t.Fatalf("command code: %v", err)
	}
	if code != protocol.ErrNoop {
		t.Fatalf("code=%q", code)
	}

	var pop, quarter int
	if err := db.QueryRow(`SELECT population,quarter FROM history WHERE tick=90`).Scan(&pop, &quarter); err != nil {
		t.Fatalf("history: %v", err)
	}
	if pop != 40 || quarter != 1 {
		t.Fatalf("history row mismatch: pop=%d quarter=%d", pop, quarter)
	}
}

func TestSQLiteIndex_RecordSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	snap := snapshot.SnapshotV1{
		Header:    snapshot.Header{Version: snapshot.Version, WorldID: "c1", Tick: 3000},
		Seed:      42,
		Size:      2,
		Tiles:     []snapshot.TileV1{{Kind: "house_small", Population: 3}, {Kind: "grass"}, {Kind: "road"}, {Kind: "house_small", Population: 4}},
		Economy:   snapshot.EconomyV1{Money: 1234},
		Incidents: []snapshot.IncidentV1{{Type: "fire", Pos: [2]int{1, 1}}},
	}
	idx.RecordSnapshot("/abs/3000.snap.zst", snap)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		p         string
		seed      int64
		pop, incs int
		money     float64
	)
	row := db.QueryRow(`SELECT path,seed,population,money,incidents FROM snapshots WHERE tick=3000`)
	if err := row.Scan(&p, &seed, &pop, &money, &incs); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if p != "/abs/3000.snap.zst" || seed != 42 || pop != 7 || money != 1234 || incs != 1 {
		t.Fatalf("row mismatch: path=%q seed=%d pop=%d money=%v incidents=%d", p, seed, pop, money, incs)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	cats := catalogs.MustDefault()
	if err := idx.UpsertCatalogs(cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	var digest string
	if err := idx.db.QueryRow(`SELECT digest FROM catalogs WHERE name='buildings'`).Scan(&digest); err != nil {
		t.Fatalf("catalog row: %v", err)
	}
	if digest != cats.Buildings.Digest {
		t.Fatalf("digest=%q want %q", digest, cats.Buildings.Digest)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick, tick: world.TickLogEntry{Tick: 1}}

	_ = s.WriteTick(world.TickLogEntry{Tick: 2})
	s.RecordSnapshot("/tmp/2.snap.zst", snapshot.SnapshotV1{})

	st := s.Stats()
	if st.DropTickTotal != 1 {
		t.Fatalf("DropTickTotal=%d want=1", st.DropTickTotal)
	}
	if st.DropSnapshotTotal != 1 {
		t.Fatalf("DropSnapshotTotal=%d want=1", st.DropSnapshotTotal)
	}
	if st.QueueDepth != 1 || st.QueueCap != 1 {
		t.Fatalf("queue depth/cap = %d/%d", st.QueueDepth, st.QueueCap)
	}
}
