package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if c.Buildings.Digest == "" {
		t.Fatalf("expected digest")
	}
	for _, zone := range []string{"residential", "commercial", "industrial"} {
		st, ok := c.Buildings.Starter(zone)
		if !ok || !st.Starter || st.Area() != 1 {
			t.Fatalf("zone %s: bad starter %+v", zone, st)
		}
	}
	if fs, _ := c.Buildings.Get("factory_small"); !fs.Starter {
		t.Fatalf("factory_small must be a starter kind")
	}
	if w, h := c.Buildings.Size("power_plant"); w != 2 || h != 2 {
		t.Fatalf("power_plant size: %dx%d", w, h)
	}
	if w, h := c.Buildings.Size("nope"); w != 1 || h != 1 {
		t.Fatalf("unknown kinds default to 1x1")
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := c.Buildings.Get("house_small"); !ok {
		t.Fatalf("expected embedded catalog")
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	bad := `{"buildings":[{"id":"grass","category":"lava","width":1,"height":1}],"zones":{}}`
	if err := os.WriteFile(filepath.Join(dir, "buildings.json"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected schema validation error")
	}
}
