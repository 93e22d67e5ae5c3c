package advisor

import (
	"fmt"

	"isocity.dev/internal/sim/world/feature/economy"
)

type Severity string

const (
	Info     Severity = "info"
	Warning  Severity = "warning"
	Critical Severity = "critical"
)

type Message struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// Input is the read-only city picture advice is derived from.
type Input struct {
	Agg   economy.Aggregates
	QoL   economy.QoL
	State *economy.State
}

// Advise returns messages in a fixed order: utilities, money, services,
// jobs, blight.
func Advise(in Input) []Message {
	var out []Message
	add := func(code string, sev Severity, format string, args ...any) {
		out = append(out, Message{Code: code, Severity: sev, Text: fmt.Sprintf(format, args...)})
	}
	a := in.Agg

	if a.Developed > 0 {
		if share := float64(a.Unpowered) / float64(a.Developed); share > 0 {
			add("POWER_SHORTFALL", severity(share, 0.1, 0.4), "%d buildings have no power", a.Unpowered)
		}
		if share := float64(a.Unwatered) / float64(a.Developed); share > 0 {
			add("WATER_SHORTFALL", severity(share, 0.1, 0.4), "%d buildings have no water", a.Unwatered)
		}
	}

	if s := in.State; s != nil {
		net := s.Income - s.Expenses
		switch {
		case s.Money < 0:
			add("BUDGET_DEFICIT", Critical, "the treasury is in debt (%.0f)", s.Money)
		case net < 0 && s.Money < -net*6:
			add("BUDGET_DEFICIT", Warning, "monthly deficit of %.0f; funds last under six months", -net)
		}
	}

	if a.Population > 0 {
		low := []struct {
			code  string
			value float64
			what  string
		}{
			{"LOW_SAFETY", in.QoL.Safety, "safety"},
			{"LOW_HEALTH", in.QoL.Health, "health"},
			{"LOW_EDUCATION", in.QoL.Education, "education"},
			{"LOW_ENVIRONMENT", in.QoL.Environment, "environment"},
		}
		for _, l := range low {
			if l.value < 20 {
				add(l.code, Warning, "%s is poor (%.0f)", l.what, l.value)
			} else if l.value < 40 {
				add(l.code, Info, "%s could be better (%.0f)", l.what, l.value)
			}
		}
		if emp := economy.Employment(a); emp < 60 {
			add("UNEMPLOYMENT", severity(1-emp/100, 0.4, 0.7), "only %.0f jobs per 100 residents", emp)
		}
	}

	if a.Abandoned > 0 {
		sev := Info
		if a.Abandoned >= 10 {
			sev = Warning
		}
		add("ABANDONED_BUILDINGS", sev, "%d buildings stand abandoned", a.Abandoned)
	}
	return out
}

func severity(share, warn, crit float64) Severity {
	switch {
	case share >= crit:
		return Critical
	case share >= warn:
		return Warning
	}
	return Info
}
