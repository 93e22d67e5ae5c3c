package history

// Entry is one quarterly sample for charting.
type Entry struct {
	Tick    uint64 `json:"tick"`
	Year    int    `json:"year"`
	Quarter int    `json:"quarter"`

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

const DefaultCapacity = 100

// Log is a fixed-size ring of quarterly entries; the oldest entry is
// overwritten once it is full.
type Log struct {
	Entries []Entry
	Next    int
	Full    bool
}

func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{Entries: make([]Entry, capacity)}
}

func (l *Log) Record(e Entry) {
	if l == nil || len(l.Entries) == 0 {
		return
	}
	l.Entries[l.Next] = e
	l.Next = (l.Next + 1) % len(l.Entries)
	if l.Next == 0 {
		l.Full = true
	}
}

func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	if l.Full {
		return len(l.Entries)
	}
	return l.Next
}

// List returns entries oldest first.
func (l *Log) List() []Entry {
	n := l.Len()
	out := make([]Entry, 0, n)
	if n == 0 {
		return out
	}
	start := 0
	if l.Full {
		start = l.Next
	}
	for i := 0; i < n; i++ {
		out = append(out, l.Entries[(start+i)%len(l.Entries)])
	}
	return out
}
