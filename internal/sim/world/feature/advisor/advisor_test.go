package advisor

import (
	"testing"

	"isocity.dev/internal/sim/world/feature/economy"
)

func codes(ms []Message) map[string]Severity {
	out := map[string]Severity{}
	for _, m := range ms {
		out[m.Code] = m.Severity
	}
	return out
}

func TestAdvise_HealthyCityIsQuiet(t *testing.T) {
	s := economy.NewState(10000, 9)
	in := Input{
		Agg:   economy.Aggregates{Population: 100, Jobs: 90, Developed: 20},
		QoL:   economy.QoL{Safety: 80, Health: 80, Education: 80, Environment: 80, Happiness: 80},
		State: &s,
	}
	if got := Advise(in); len(got) != 0 {
		t.Fatalf("unexpected advice: %+v", got)
	}
}

func TestAdvise_Problems(t *testing.T) {
	s := economy.NewState(-50, 9)
	in := Input{
		Agg: economy.Aggregates{
			Population: 200, Jobs: 40, Developed: 10,
			Unpowered: 5, Unwatered: 1, Abandoned: 12,
		},
		QoL:   economy.QoL{Safety: 10, Health: 35, Education: 90, Environment: 90},
		State: &s,
	}
	got := codes(Advise(in))
	want := map[string]Severity{
		"POWER_SHORTFALL":     Critical,
		"WATER_SHORTFALL":     Warning,
		"BUDGET_DEFICIT":      Critical,
		"LOW_SAFETY":          Warning,
		"LOW_HEALTH":          Info,
		"UNEMPLOYMENT":        Critical,
		"ABANDONED_BUILDINGS": Warning,
	}
	for code, sev := range want {
		if got[code] != sev {
			t.Fatalf("%s: got %q want %q (all=%v)", code, got[code], sev, got)
		}
	}
	if _, ok := got["LOW_EDUCATION"]; ok {
		t.Fatalf("education is fine")
	}
}
