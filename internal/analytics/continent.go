package analytics

import (
	"sort"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// UnknownContinent labels the bucket of countries with no continent.
const UnknownContinent = "Unknown"

// ContinentTotal is the rollup of one continent.
type ContinentTotal struct {
	Continent string `json:"continent"`
	// Missing marks the bucket of countries without a continent.
	Missing   bool `json:"missing"`
	Countries int  `json:"countries"`
	Totals
}

// ContinentRollup sums the core metrics per continent. Each country
// contributes its totals at its latest reported date. Countries with no
// continent are collected in a bucket labeled UnknownContinent, which is
// always last. The other buckets are ordered by confirmed cases descending.
func ContinentRollup(obs []domain.Observation) []ContinentTotal {
	index := make(map[string]int)
	var out []ContinentTotal
	var unknown *ContinentTotal

	continentOf := make(map[string]string)
	for _, o := range obs {
		if o.Continent != "" {
			continentOf[o.Country] = o.Continent
		}
	}

	for _, s := range byCountry(obs) {
		continent, ok := continentOf[s.country]
		if !ok {
			if unknown == nil {
				unknown = &ContinentTotal{Continent: UnknownContinent, Missing: true}
			}
			unknown.Countries++
			unknown.Totals = unknown.add(s.latest().Totals)
			continue
		}
		i, seen := index[continent]
		if !seen {
			i = len(out)
			index[continent] = i
			out = append(out, ContinentTotal{Continent: continent})
		}
		out[i].Countries++
		out[i].Totals = out[i].add(s.latest().Totals)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confirmed > out[j].Confirmed })
	if unknown != nil {
		out = append(out, *unknown)
	}
	return out
}
