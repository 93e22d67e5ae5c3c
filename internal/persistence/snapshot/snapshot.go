package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed          int64 `json:"seed"`
	Size          int   `json:"size"`
	TickRate      int   `json:"tick_rate_hz"`
	TicksPerMonth int   `json:"ticks_per_month"`

	// Operational parameters (captured for deterministic resume).
	SnapshotEveryTicks int  `json:"snapshot_every_ticks,omitempty"`
	HistoryCapacity    int  `json:"history_capacity,omitempty"`
	DisastersEnabled   bool `json:"disasters_enabled"`

	BuildingsDigest string `json:"buildings_digest"`

	Tiles       []TileV1      `json:"tiles"`
	WaterBodies []WaterBodyV1 `json:"water_bodies,omitempty"`
	Economy     EconomyV1     `json:"economy"`
	Incidents   []IncidentV1  `json:"incidents,omitempty"`
	Vehicles    []VehicleV1   `json:"vehicles,omitempty"`
	History     []HistoryV1   `json:"history,omitempty"`
	Counters    CountersV1    `json:"counters"`
}

// TileV1 is one grid cell in row-major order.
type TileV1 struct {
	Kind  string `json:"kind"`
	Zone  string `json:"zone,omitempty"`
	Level int    `json:"level"`

	Population int `json:"population,omitempty"`
	Jobs       int `json:"jobs,omitempty"`

	Powered      bool    `json:"powered,omitempty"`
	Watered      bool    `json:"watered,omitempty"`
	OnFire       bool    `json:"on_fire,omitempty"`
	FireProgress float64 `json:"fire_progress,omitempty"`

	Age                  uint64  `json:"age,omitempty"`
	ConstructionProgress float64 `json:"construction_progress"`
	Abandoned            bool    `json:"abandoned,omitempty"`
	Flipped              bool    `json:"flipped,omitempty"`
	Width                int     `json:"width,omitempty"`
	Height               int     `json:"height,omitempty"`

	LandValue float64 `json:"land_value,omitempty"`
	Pollution float64 `json:"pollution,omitempty"`
	Subway    bool    `json:"subway,omitempty"`

	HasOrigin bool   `json:"has_origin,omitempty"`
	Origin    [2]int `json:"origin,omitempty"`
}

type WaterBodyV1 struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Tiles     [][2]int `json:"tiles"`
	Anchor    [2]int   `json:"anchor"`
	CentroidX float64  `json:"centroid_x"`
	CentroidY float64  `json:"centroid_y"`
}

type EconomyV1 struct {
	Money        float64            `json:"money"`
	TaxRate      float64            `json:"tax_rate"`
	EffectiveTax float64            `json:"effective_tax"`
	Budget       map[string]float64 `json:"budget"`
	Income       float64            `json:"income"`
	Expenses     float64            `json:"expenses"`
	Month        int                `json:"month"`
	Year         int                `json:"year"`

	ResidentialDemand float64 `json:"residential_demand"`
	CommercialDemand  float64 `json:"commercial_demand"`
	IndustrialDemand  float64 `json:"industrial_demand"`
}

type IncidentV1 struct {
	Type      string `json:"type"`
	Pos       [2]int `json:"pos"`
	Remaining int    `json:"remaining,omitempty"`
	ClaimedBy int    `json:"claimed_by,omitempty"`
}

type VehicleV1 struct {
	ID           int      `json:"id"`
	Kind         string   `json:"kind"`
	Tile         [2]int   `json:"tile"`
	Progress     float64  `json:"progress"`
	Route        [][2]int `json:"route,omitempty"`
	RouteIndex   int      `json:"route_index"`
	Phase        string   `json:"phase"`
	Station      [2]int   `json:"station"`
	StationRoad  [2]int   `json:"station_road"`
	Target       [2]int   `json:"target"`
	ResponseLeft int      `json:"response_left,omitempty"`
	Heading      string   `json:"heading"`
}

type HistoryV1 struct {
	Tick       uint64  `json:"tick"`
	Year       int     `json:"year"`
	Quarter    int     `json:"quarter"`
	Population int     `json:"population"`
	Jobs       int     `json:"jobs"`
	Money      float64 `json:"money"`
	Income     float64 `json:"income"`
	Expenses   float64 `json:"expenses"`
	Happiness  float64 `json:"happiness"`

	ResidentialDemand float64 `json:"residential_demand"`
	CommercialDemand  float64 `json:"commercial_demand"`
	IndustrialDemand  float64 `json:"industrial_demand"`
}

type CountersV1 struct {
	NextVehicle int `json:"next_vehicle"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is advisory; gob carries it too.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// FileName is the on-disk name for a snapshot taken at tick.
func FileName(tick uint64) string {
	return fmt.Sprintf("%d.snap.zst", tick)
}

// Latest returns the snapshot with the highest tick in dir.
func Latest(dir string) (path string, tick uint64, ok bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, false, nil
		}
		return "", 0, false, err
	}
	var ticks []uint64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".snap.zst") {
			continue
		}
		n, perr := strconv.ParseUint(strings.TrimSuffix(e.Name(), ".snap.zst"), 10, 64)
		if perr != nil {
			continue
		}
		ticks = append(ticks, n)
	}
	if len(ticks) == 0 {
		return "", 0, false, nil
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	tick = ticks[len(ticks)-1]
	return filepath.Join(dir, FileName(tick)), tick, true, nil
}
