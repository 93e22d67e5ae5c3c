package mathx

import "testing"

func TestRollerDeterministic(t *testing.T) {
	a := Roller{Seed: 7, Tick: 12}
	b := Roller{Seed: 7, Tick: 12}
	for x := 0; x < 20; x++ {
		if a.Float(x, 3, SaltSpawn) != b.Float(x, 3, SaltSpawn) {
			t.Fatalf("roll mismatch at x=%d", x)
		}
	}
	if a.Float(1, 1, SaltSpawn) == a.Float(1, 1, SaltAbandon) {
		t.Fatalf("expected salts to separate streams")
	}
}

func TestRollerRange(t *testing.T) {
	r := Roller{Seed: 99, Tick: 4}
	for x := 0; x < 200; x++ {
		v := r.Range(x, x, SaltBuildRate, 3, 7)
		if v < 3 || v >= 7 {
			t.Fatalf("range out of bounds: %v", v)
		}
	}
}

func TestChanceEdges(t *testing.T) {
	r := Roller{Seed: 1}
	if r.Chance(0, 0, SaltIgnite, 0) {
		t.Fatalf("p=0 must never fire")
	}
	if !r.Chance(0, 0, SaltIgnite, 1) {
		t.Fatalf("p=1 must always fire")
	}
}

func TestNearlyAtLeast(t *testing.T) {
	v := 0.0
	for i := 0; i < 150; i++ {
		v += 2.0 / 3.0
	}
	if !NearlyAtLeast(v, 100) {
		t.Fatalf("expected 150 * 2/3 to reach 100, got %v", v)
	}
	v = 0
	for i := 0; i < 149; i++ {
		v += 2.0 / 3.0
	}
	if NearlyAtLeast(v, 100) {
		t.Fatalf("149 steps must stay below 100, got %v", v)
	}
}
