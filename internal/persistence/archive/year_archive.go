package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"isocity.dev/internal/persistence/snapshot"
)

type YearArchiveMeta struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Tick       uint64  `json:"tick"`
	Seed       int64   `json:"seed"`
	Snapshot   string  `json:"snapshot"`
	CreatedAt  string  `json:"created_at"`
	Population int     `json:"population"`
	Money      float64 `json:"money"`
}

// ArchiveYearSnapshot copies the first snapshot taken in each city year into
// `worldDir/archives/year_<NNN>/`. Later snapshots of an already archived year
// are skipped, so the archive holds one early-year state per year.
func ArchiveYearSnapshot(worldDir, snapshotPath string, snap snapshot.SnapshotV1) (year int, archivedPath string, archived bool, err error) {
	year = snap.Economy.Year
	if year < 0 {
		return 0, "", false, nil
	}
	archiveDir := filepath.Join(worldDir, "archives", fmt.Sprintf("year_%03d", year))
	metaPath := filepath.Join(archiveDir, "meta.json")
	if _, err := os.Stat(metaPath); err == nil {
		return year, "", false, nil
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return 0, "", false, err
	}

	pop := 0
	for _, t := range snap.Tiles {
		pop += t.Population
	}
	meta := YearArchiveMeta{
		Year:       year,
		Month:      snap.Economy.Month,
		Tick:       snap.Header.Tick,
		Seed:       snap.Seed,
		Snapshot:   filepath.Base(dst),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Population: pop,
		Money:      snap.Economy.Money,
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, "", false, err
	}
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		return 0, "", false, err
	}
	return year, dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
