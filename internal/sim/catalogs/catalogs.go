package catalogs

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed defaults/buildings.json defaults/buildings.schema.json
var defaultsFS embed.FS

const schemaURL = "https://isocity.dev/schemas/buildings.schema.json"

// Building categories.
const (
	CategoryTerrain     = "terrain"
	CategoryPlaceholder = "placeholder"
	CategoryZoned       = "zoned"
	CategoryService     = "service"
	CategoryUtility     = "utility"
	CategoryPark        = "park"
	CategorySpecial     = "special"
)

// Coverage services.
const (
	ServicePolice    = "police"
	ServiceFire      = "fire"
	ServiceHealth    = "health"
	ServiceEducation = "education"
	ServicePower     = "power"
	ServiceWater     = "water"
)

// Budget categories.
var BudgetCategories = []string{
	"police", "fire", "health", "education", "transportation", "parks", "power", "water",
}

type Catalogs struct {
	Buildings BuildingCatalog
}

type BuildingCatalog struct {
	ByID   map[string]BuildingDef
	IDs    []string
	Zones  map[string][]string
	Digest string
}

type BuildingDef struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	Zone           string  `json:"zone,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	MaxPop         int     `json:"max_pop,omitempty"`
	MaxJobs        int     `json:"max_jobs,omitempty"`
	Service        string  `json:"service,omitempty"`
	Radius         int     `json:"radius,omitempty"`
	Cost           float64 `json:"cost,omitempty"`
	Maintenance    float64 `json:"maintenance,omitempty"`
	Budget         string  `json:"budget,omitempty"`
	Pollution      float64 `json:"pollution,omitempty"`
	Vehicles       int     `json:"vehicles,omitempty"`
	Starter        bool    `json:"starter,omitempty"`
	Consolidatable bool    `json:"consolidatable,omitempty"`
	Green          bool    `json:"green,omitempty"`
	Subway         bool    `json:"subway,omitempty"`
	Waterfront     bool    `json:"waterfront,omitempty"`
}

func (d BuildingDef) Area() int { return d.Width * d.Height }

func (d BuildingDef) IsTerrain() bool {
	return d.Category == CategoryTerrain || d.Category == CategoryPlaceholder
}

type buildingsFile struct {
	Buildings []BuildingDef       `json:"buildings"`
	Zones     map[string][]string `json:"zones"`
}

// Load reads <configDir>/buildings.json when present and falls back to the
// embedded defaults otherwise.
func Load(configDir string) (*Catalogs, error) {
	raw, err := os.ReadFile(filepath.Join(configDir, "buildings.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return Default()
		}
		return nil, err
	}
	return parse(raw)
}

func Default() (*Catalogs, error) {
	raw, err := defaultsFS.ReadFile("defaults/buildings.json")
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

// MustDefault is for tests and tools that cannot proceed without a catalog.
func MustDefault() *Catalogs {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

func parse(raw []byte) (*Catalogs, error) {
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("buildings.json: %w", err)
	}
	var f buildingsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("buildings.json: %w", err)
	}

	var c Catalogs
	c.Buildings.Digest = sha256Hex(raw)
	c.Buildings.ByID = make(map[string]BuildingDef, len(f.Buildings))
	for _, d := range f.Buildings {
		if _, dup := c.Buildings.ByID[d.ID]; dup {
			return nil, fmt.Errorf("buildings.json: duplicate id %q", d.ID)
		}
		c.Buildings.ByID[d.ID] = d
		c.Buildings.IDs = append(c.Buildings.IDs, d.ID)
	}
	sort.Strings(c.Buildings.IDs)

	for _, id := range []string{"grass", "water", "road", "tree", "empty"} {
		if _, ok := c.Buildings.ByID[id]; !ok {
			return nil, fmt.Errorf("buildings.json: missing required kind %q", id)
		}
	}
	c.Buildings.Zones = f.Zones
	for zone, tiers := range f.Zones {
		for i, id := range tiers {
			d, ok := c.Buildings.ByID[id]
			if !ok {
				return nil, fmt.Errorf("buildings.json: zone %s tier %d: unknown kind %q", zone, i+1, id)
			}
			if d.Zone != zone {
				return nil, fmt.Errorf("buildings.json: zone %s tier %d: kind %q belongs to %q", zone, i+1, id, d.Zone)
			}
		}
		if !c.Buildings.ByID[tiers[0]].Starter {
			return nil, fmt.Errorf("buildings.json: zone %s: tier 1 kind must be a starter", zone)
		}
	}
	return &c, nil
}

func validate(raw []byte) error {
	schemaRaw, err := defaultsFS.ReadFile("defaults/buildings.schema.json")
	if err != nil {
		return err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaRaw)); err != nil {
		return err
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return sch.Validate(doc)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (c *BuildingCatalog) Get(id string) (BuildingDef, bool) {
	d, ok := c.ByID[id]
	return d, ok
}

// Tier returns the kind for a zone at level 1..5.
func (c *BuildingCatalog) Tier(zone string, level int) (BuildingDef, bool) {
	tiers := c.Zones[zone]
	if level < 1 || level > len(tiers) {
		return BuildingDef{}, false
	}
	return c.ByID[tiers[level-1]], true
}

func (c *BuildingCatalog) Starter(zone string) (BuildingDef, bool) {
	return c.Tier(zone, 1)
}

// Size returns the footprint for a kind, 1x1 for unknown kinds.
func (c *BuildingCatalog) Size(id string) (w, h int) {
	d, ok := c.ByID[id]
	if !ok || d.Width <= 0 || d.Height <= 0 {
		return 1, 1
	}
	return d.Width, d.Height
}
