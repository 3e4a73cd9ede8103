package analytics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// DailyTotal is the sum of every observation of one date.
type DailyTotal struct {
	Date time.Time `json:"date"`
	Totals
}

// DailyTotals aggregates observations by date across all countries, in date order.
func DailyTotals(obs []domain.Observation) []DailyTotal {
	byDate := make(map[int64]*dayTotal)
	for _, o := range obs {
		key := o.Date.Unix()
		if d, ok := byDate[key]; ok {
			d.Totals = d.add(totalsOf(o))
			continue
		}
		byDate[key] = &dayTotal{date: o.Date, Totals: totalsOf(o)}
	}
	days := sortedDays(byDate)
	out := make([]DailyTotal, len(days))
	for i, d := range days {
		out[i] = DailyTotal{Date: d.date, Totals: d.Totals}
	}
	return out
}

// Coefficient is a Pearson r in [-1, 1], rounded to two decimals. It shares
// Rate's undefined handling but is not a percentage.
type Coefficient = domain.Rate

// CorrelationMatrix holds pairwise Pearson coefficients of the core metrics.
// Values[i][j] correlates Metrics[i] with Metrics[j].
type CorrelationMatrix struct {
	Metrics []Metric        `json:"metrics"`
	Values  [][]Coefficient `json:"values"`
	Days    int             `json:"days"`
}

// At returns the coefficient of a and b.
func (c CorrelationMatrix) At(a, b Metric) Coefficient {
	i, j := metricIndex(c.Metrics, a), metricIndex(c.Metrics, b)
	if i < 0 || j < 0 {
		return domain.Undefined
	}
	return c.Values[i][j]
}

func metricIndex(ms []Metric, m Metric) int {
	for i, x := range ms {
		if x == m {
			return i
		}
	}
	return -1
}

// Correlation computes the Pearson correlation of the four core metrics over
// the date-aggregated series. Coefficients are undefined with fewer than two
// dates, and for any pair involving a series of zero variance.
func Correlation(obs []domain.Observation) CorrelationMatrix {
	days := DailyTotals(obs)
	metrics := Metrics()

	series := make([][]float64, len(metrics))
	for i, m := range metrics {
		series[i] = make([]float64, len(days))
		for d, day := range days {
			series[i][d] = float64(day.Get(m))
		}
	}

	out := CorrelationMatrix{Metrics: metrics, Values: make([][]Coefficient, len(metrics)), Days: len(days)}
	for i := range metrics {
		out.Values[i] = make([]Coefficient, len(metrics))
		for j := range metrics {
			out.Values[i][j] = pearson(series[i], series[j])
		}
	}
	return out
}

func pearson(x, y []float64) Coefficient {
	if len(x) < 2 {
		return domain.Undefined
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return domain.Undefined
	}
	return domain.DefinedRate(stat.Correlation(x, y, nil))
}

// Peak is the date with the most new confirmed cases.
type Peak struct {
	Date     time.Time `json:"date"`
	NewCases int64     `json:"new_cases"`
}

// PeakDate finds the date whose day-over-day increase of the global
// confirmed total is largest. The earliest date wins a tie. It reports false
// when fewer than two dates are present.
func PeakDate(obs []domain.Observation) (Peak, bool) {
	days := DailyTotals(obs)
	if len(days) < 2 {
		return Peak{}, false
	}
	best := Peak{Date: days[1].Date, NewCases: days[1].Confirmed - days[0].Confirmed}
	for i := 2; i < len(days); i++ {
		if n := days[i].Confirmed - days[i-1].Confirmed; n > best.NewCases {
			best = Peak{Date: days[i].Date, NewCases: n}
		}
	}
	return best, true
}

// Rebound is a day of unusually high new cases following a decline.
type Rebound struct {
	Country   string    `json:"country"`
	Date      time.Time `json:"date"`
	NewCases  int64     `json:"new_cases"`
	Threshold float64   `json:"threshold"`
}

// ReboundQuantile is the quantile of a country's new-case series that a
// rebound day must exceed.
const ReboundQuantile = 0.9

// Rebounds reports, per country, the days whose new confirmed cases exceed
// the country's ReboundQuantile of new cases while the previous day's new
// cases had fallen. New cases are day-over-day differences between
// consecutive reported dates. Countries with fewer than three differences
// are skipped.
func Rebounds(obs []domain.Observation) []Rebound {
	var out []Rebound
	for _, s := range byCountry(obs) {
		if len(s.days) < 4 {
			continue
		}
		news := make([]float64, len(s.days)-1)
		for i := 1; i < len(s.days); i++ {
			news[i-1] = float64(s.days[i].Confirmed - s.days[i-1].Confirmed)
		}
		sorted := append([]float64(nil), news...)
		sort.Float64s(sorted)
		threshold := stat.Quantile(ReboundQuantile, stat.Empirical, sorted, nil)

		for i := 2; i < len(news); i++ {
			if news[i-1] < news[i-2] && news[i] > threshold {
				out = append(out, Rebound{
					Country:   s.country,
					Date:      s.days[i+1].date,
					NewCases:  int64(news[i]),
					Threshold: threshold,
				})
			}
		}
	}
	return out
}
