package domain

import "sort"

// ContinentTable maps canonical country names to continents.
// A nil table means the reference data was unavailable.
type ContinentTable map[string]string

// EnrichResult is the output of continent enrichment.
type EnrichResult struct {
	Observations []Observation
	// Unmapped lists, sorted, the distinct countries with no continent entry.
	Unmapped []string
	// ReferenceLoaded is false when the reference table was nil or empty and
	// every observation was left without a continent.
	ReferenceLoaded bool
}

// EnrichContinents sets each observation's continent from ref by exact
// country name. Countries missing from ref keep an empty continent and are
// reported in Unmapped. The input slice is not modified.
func EnrichContinents(obs []Observation, ref ContinentTable) EnrichResult {
	out := make([]Observation, len(obs))
	unmapped := make(map[string]struct{})
	for i, o := range obs {
		continent, ok := ref[o.Country]
		if !ok || continent == "" {
			o.Continent = ""
			unmapped[o.Country] = struct{}{}
		} else {
			o.Continent = continent
		}
		out[i] = o
	}

	names := make([]string, 0, len(unmapped))
	for c := range unmapped {
		names = append(names, c)
	}
	sort.Strings(names)

	return EnrichResult{
		Observations:    out,
		Unmapped:        names,
		ReferenceLoaded: len(ref) > 0,
	}
}
