package analytics

import (
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// Filter selects observations. Zero fields do not constrain.
type Filter struct {
	Continent string
	Countries []string
	From      time.Time
	To        time.Time
}

// Apply returns the matching observations as a new, possibly empty, slice.
func (f Filter) Apply(obs []domain.Observation) []domain.Observation {
	var countries map[string]struct{}
	if len(f.Countries) > 0 {
		countries = make(map[string]struct{}, len(f.Countries))
		for _, c := range f.Countries {
			countries[c] = struct{}{}
		}
	}

	out := make([]domain.Observation, 0)
	for _, o := range obs {
		if f.Continent != "" && o.Continent != f.Continent {
			continue
		}
		if countries != nil {
			if _, ok := countries[o.Country]; !ok {
				continue
			}
		}
		if !f.From.IsZero() && o.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && o.Date.After(f.To) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// KPI summarises the latest date of a selection.
type KPI struct {
	// Date is the latest date in the selection, zero when it is empty.
	Date         time.Time   `json:"date"`
	Confirmed    int64       `json:"confirmed"`
	Deaths       int64       `json:"deaths"`
	Recovered    int64       `json:"recovered"`
	Active       int64       `json:"active_cases"`
	FatalityRate domain.Rate `json:"fatality_rate"`
	// Deltas are the change against the previous date in the selection.
	Deltas Totals `json:"deltas"`
}

// KPIs sums the core metrics over the latest date of obs and compares them
// with the previous date. Empty input yields zero counts and deltas with an
// undefined fatality rate. A single date yields zero deltas.
func KPIs(obs []domain.Observation) KPI {
	days := DailyTotals(obs)
	if len(days) == 0 {
		return KPI{FatalityRate: domain.Undefined}
	}

	last := days[len(days)-1]
	kpi := KPI{
		Date:         last.Date,
		Confirmed:    last.Confirmed,
		Deaths:       last.Deaths,
		Recovered:    last.Recovered,
		Active:       last.Active,
		FatalityRate: domain.Percent(float64(last.Deaths), float64(last.Confirmed)),
	}
	if len(days) > 1 {
		kpi.Deltas = last.sub(days[len(days)-2].Totals)
	}
	return kpi
}
