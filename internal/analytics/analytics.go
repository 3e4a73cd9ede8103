// Package analytics implements read-only queries over cleaned and enriched
// observations. Every function treats its input as immutable.
//
// Counts in an observation are cumulative, so per-country figures over a date
// range are built in two steps: rows of the same country and date are summed
// across regions, then the daily country totals are reduced over the range
// (maximum or latest value, never a sum across days).
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// ErrUnknownMetric is returned for a metric name outside Metrics().
var ErrUnknownMetric = errors.New("unknown metric")

// Metric names one of the four core count fields.
type Metric string

const (
	Confirmed Metric = domain.ColConfirmed
	Deaths    Metric = domain.ColDeaths
	Recovered Metric = domain.ColRecovered
	Active    Metric = domain.ColActive
)

// Metrics returns the core metrics in canonical order.
func Metrics() []Metric {
	return []Metric{Confirmed, Deaths, Recovered, Active}
}

// ParseMetric accepts a metric name case-insensitively. "active" is accepted
// as a short form of active_cases.
func ParseMetric(s string) (Metric, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "active" {
		return Active, nil
	}
	for _, m := range Metrics() {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Totals holds the four core counts.
type Totals struct {
	Confirmed int64 `json:"confirmed"`
	Deaths    int64 `json:"deaths"`
	Recovered int64 `json:"recovered"`
	Active    int64 `json:"active_cases"`
}

func totalsOf(o domain.Observation) Totals {
	return Totals{Confirmed: o.Confirmed, Deaths: o.Deaths, Recovered: o.Recovered, Active: o.Active}
}

func (t Totals) add(o Totals) Totals {
	return Totals{
		Confirmed: t.Confirmed + o.Confirmed,
		Deaths:    t.Deaths + o.Deaths,
		Recovered: t.Recovered + o.Recovered,
		Active:    t.Active + o.Active,
	}
}

func (t Totals) sub(o Totals) Totals {
	return Totals{
		Confirmed: t.Confirmed - o.Confirmed,
		Deaths:    t.Deaths - o.Deaths,
		Recovered: t.Recovered - o.Recovered,
		Active:    t.Active - o.Active,
	}
}

// Get returns the value of metric m.
func (t Totals) Get(m Metric) int64 {
	switch m {
	case Deaths:
		return t.Deaths
	case Recovered:
		return t.Recovered
	case Active:
		return t.Active
	default:
		return t.Confirmed
	}
}

// dayTotal is one date of a country's (or the world's) summed series.
type dayTotal struct {
	date time.Time
	Totals
}

// countrySeries is the daily total series of one country, in date order.
type countrySeries struct {
	country string
	days    []dayTotal
}

func (s countrySeries) latest() dayTotal { return s.days[len(s.days)-1] }

func (s countrySeries) max(m Metric) int64 {
	best := s.days[0].Get(m)
	for _, d := range s.days[1:] {
		if v := d.Get(m); v > best {
			best = v
		}
	}
	return best
}

// at returns the total for date, if the country reported on that date.
func (s countrySeries) at(date time.Time) (Totals, bool) {
	i := sort.Search(len(s.days), func(i int) bool { return !s.days[i].date.Before(date) })
	if i < len(s.days) && s.days[i].date.Equal(date) {
		return s.days[i].Totals, true
	}
	return Totals{}, false
}

// byCountry sums observations per (country, date) and returns one series
// per country in first-encounter order.
func byCountry(obs []domain.Observation) []countrySeries {
	index := make(map[string]int)
	var out []countrySeries
	days := make([]map[int64]*dayTotal, 0)

	for _, o := range obs {
		i, ok := index[o.Country]
		if !ok {
			i = len(out)
			index[o.Country] = i
			out = append(out, countrySeries{country: o.Country})
			days = append(days, make(map[int64]*dayTotal))
		}
		key := o.Date.Unix()
		if d, ok := days[i][key]; ok {
			d.Totals = d.add(totalsOf(o))
			continue
		}
		days[i][key] = &dayTotal{date: o.Date, Totals: totalsOf(o)}
	}

	for i := range out {
		out[i].days = sortedDays(days[i])
	}
	return out
}

func sortedDays(m map[int64]*dayTotal) []dayTotal {
	out := make([]dayTotal, 0, len(m))
	for _, d := range m {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}

// CountryValue is a country with one metric value.
type CountryValue struct {
	Country string `json:"country"`
	Value   int64  `json:"value"`
}

// TopN returns the n countries with the largest maximum daily total of
// metric over the observed range, in descending order. Ties keep the order
// in which the countries were first encountered. n <= 0 returns every country.
func TopN(obs []domain.Observation, m Metric, n int) ([]CountryValue, error) {
	if _, err := ParseMetric(string(m)); err != nil {
		return nil, err
	}
	series := byCountry(obs)
	out := make([]CountryValue, len(series))
	for i, s := range series {
		out[i] = CountryValue{Country: s.country, Value: s.max(m)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

// MortalityRow is the fatality rate of one country at its latest reported date.
type MortalityRow struct {
	Country   string      `json:"country"`
	Date      time.Time   `json:"date"`
	Confirmed int64       `json:"confirmed"`
	Deaths    int64       `json:"deaths"`
	Rate      domain.Rate `json:"mortality_rate"`
}

// Mortality computes deaths / confirmed * 100 per country, rounded to two
// decimals. Countries with zero confirmed cases get an undefined rate and are
// listed after every defined rate.
func Mortality(obs []domain.Observation) []MortalityRow {
	series := byCountry(obs)
	out := make([]MortalityRow, len(series))
	for i, s := range series {
		last := s.latest()
		out[i] = MortalityRow{
			Country:   s.country,
			Date:      last.date,
			Confirmed: last.Confirmed,
			Deaths:    last.Deaths,
			Rate:      domain.Percent(float64(last.Deaths), float64(last.Confirmed)),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return rateLess(out[j].Rate, out[i].Rate) })
	return out
}

// rateLess orders undefined rates below every defined one.
func rateLess(a, b domain.Rate) bool {
	switch {
	case !a.Defined:
		return b.Defined
	case !b.Defined:
		return false
	default:
		return a.Value < b.Value
	}
}

// CountriesWithoutRecovered lists, in encounter order, the countries that
// report no recovered cases on any date of the range.
func CountriesWithoutRecovered(obs []domain.Observation) []string {
	var out []string
	for _, s := range byCountry(obs) {
		if s.max(Recovered) == 0 {
			out = append(out, s.country)
		}
	}
	return out
}

// LatinAmerica is the fixed list of canonical Latin American country names.
var LatinAmerica = []string{
	"Argentina", "Bolivia", "Brazil", "Chile", "Colombia",
	"Costa Rica", "Cuba", "Ecuador", "El Salvador", "Guatemala",
	"Honduras", "Mexico", "Nicaragua", "Panama", "Paraguay",
	"Peru", "Dominican Republic", "Uruguay", "Venezuela",
}

// Subset keeps the observations whose country is exactly one of countries.
// Matching is case and punctuation sensitive.
func Subset(obs []domain.Observation, countries []string) []domain.Observation {
	set := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		set[c] = struct{}{}
	}
	out := make([]domain.Observation, 0)
	for _, o := range obs {
		if _, ok := set[o.Country]; ok {
			out = append(out, o)
		}
	}
	return out
}

// RegionalRanking ranks the countries of region by metric, as TopN does.
func RegionalRanking(obs []domain.Observation, region []string, m Metric) ([]CountryValue, error) {
	return TopN(Subset(obs, region), m, 0)
}
