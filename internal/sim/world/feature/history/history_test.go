package history

import "testing"

func TestLog_BoundedOldestFirst(t *testing.T) {
	l := New(3)
	if got := l.List(); len(got) != 0 {
		t.Fatalf("empty log listed %d", len(got))
	}
	for i := 1; i <= 5; i++ {
		l.Record(Entry{Tick: uint64(i * 90), Population: i})
	}
	got := l.List()
	if len(got) != 3 {
		t.Fatalf("len=%d want 3", len(got))
	}
	for i, want := range []int{3, 4, 5} {
		if got[i].Population != want {
			t.Fatalf("entry %d population=%d want %d", i, got[i].Population, want)
		}
	}
}

func TestLog_DefaultCapacity(t *testing.T) {
	l := New(0)
	for i := 0; i < 250; i++ {
		l.Record(Entry{Tick: uint64(i)})
	}
	if l.Len() != DefaultCapacity {
		t.Fatalf("len=%d want %d", l.Len(), DefaultCapacity)
	}
	if first := l.List()[0].Tick; first != 150 {
		t.Fatalf("oldest tick=%d want 150", first)
	}
}
