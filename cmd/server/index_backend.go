package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"isocity.dev/internal/persistence/indexdb"
	"isocity.dev/internal/persistence/snapshot"
	"isocity.dev/internal/sim/catalogs"
	"isocity.dev/internal/sim/tuning"
	"isocity.dev/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	Close() error
	Stats() indexdb.QueueStats
	UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

// openRuntimeIndex picks the read-model index from ISOCITY_INDEX_BACKEND
// (sqlite by default). A nil index with a nil error means indexing is off.
func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("ISOCITY_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(worldDir, "index", "city.sqlite"))
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported ISOCITY_INDEX_BACKEND: %s", backend)
	}
}
