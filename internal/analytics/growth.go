package analytics

import (
	"sort"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// GrowthStatus says whether both ends of a growth computation were observed.
type GrowthStatus string

const (
	GrowthOK           GrowthStatus = "ok"
	GrowthMissingStart GrowthStatus = "missing_start"
	GrowthMissingEnd   GrowthStatus = "missing_end"
)

// Growth is the confirmed-case growth of one country between two dates.
type Growth struct {
	Country string       `json:"country"`
	Start   int64        `json:"start_cases"`
	End     int64        `json:"end_cases"`
	Rate    domain.Rate  `json:"growth_rate"`
	Status  GrowthStatus `json:"status"`
}

// GrowthRate computes (end - start) / start * 100 of confirmed cases per
// country. A country observed on only one of the two dates is flagged with
// its status and an undefined rate. A zero start value also yields an
// undefined rate. When start equals end every observed country grows by 0.
//
// Rows are ordered by rate descending, undefined rates last, with ties kept
// in encounter order.
func GrowthRate(obs []domain.Observation, start, end time.Time) ([]Growth, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}

	var out []Growth
	for _, s := range byCountry(obs) {
		first, okStart := s.at(start)
		last, okEnd := s.at(end)
		g := Growth{Country: s.country, Start: first.Confirmed, End: last.Confirmed}
		switch {
		case !okStart && !okEnd:
			continue
		case !okStart:
			g.Status = GrowthMissingStart
		case !okEnd:
			g.Status = GrowthMissingEnd
		default:
			g.Status = GrowthOK
			g.Rate = domain.Percent(float64(g.End-g.Start), float64(g.Start))
		}
		out = append(out, g)
	}

	sort.SliceStable(out, func(i, j int) bool { return rateLess(out[j].Rate, out[i].Rate) })
	return out, nil
}
