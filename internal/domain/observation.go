package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Canonical column names of a cleaned table.
const (
	ColDate       = "date"
	ColCountry    = "country_region"
	ColRegion     = "province_state"
	ColLastUpdate = "last_update"
	ColConfirmed  = "confirmed"
	ColDeaths     = "deaths"
	ColRecovered  = "recovered"
	ColActive     = "active_cases"
	ColContinent  = "continent"
)

// DateLayout is the text form of an observation date.
const DateLayout = "2006-01-02"

// ErrInvalidRange is returned when a date range ends before it starts.
var ErrInvalidRange = errors.New("invalid date range")

// ValidateRange returns ErrInvalidRange when end is before start.
func ValidateRange(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("%w: %s after %s", ErrInvalidRange, start.Format(DateLayout), end.Format(DateLayout))
	}
	return nil
}

// Observation is one cleaned daily record for a country or sub-national region.
// Counts are cumulative as of Date.
type Observation struct {
	Date       time.Time  `json:"date"`
	Country    string     `json:"country"`
	Region     string     `json:"region,omitempty"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	Confirmed  int64      `json:"confirmed"`
	Deaths     int64      `json:"deaths"`
	Recovered  int64      `json:"recovered"`
	Active     int64      `json:"active_cases"`

	// Continent is empty when the reference table has no entry for Country.
	Continent string `json:"continent,omitempty"`
}

// Key identifies an observation: date, country and region.
func (o Observation) Key() string {
	return o.Date.Format(DateLayout) + "|" + o.Country + "|" + o.Region
}

// FileFailure records a source file that could not be parsed.
type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// LoadReport collects the recoverable problems met while building a dataset.
type LoadReport struct {
	RunID             string        `json:"run_id"`
	Start             time.Time     `json:"start"`
	End               time.Time     `json:"end"`
	FilesLoaded       int           `json:"files_loaded"`
	MissingDates      []time.Time   `json:"missing_dates,omitempty"`
	FailedFiles       []FileFailure `json:"failed_files,omitempty"`
	Rows              int           `json:"rows"`
	ContinentsLoaded  bool          `json:"continents_loaded"`
	UnmappedCountries []string      `json:"unmapped_countries,omitempty"`
	FromSnapshot      bool          `json:"from_snapshot,omitempty"`
}

// Skipped returns the number of days in range with no source file.
func (r LoadReport) Skipped() int { return len(r.MissingDates) }

// Dataset is the consolidated, cleaned and enriched result of one load.
// It is never mutated after construction.
type Dataset struct {
	Observations []Observation `json:"observations"`
	Report       LoadReport    `json:"report"`
	ProcessedAt  time.Time     `json:"processed_at"`
}

// Empty reports whether the dataset holds no observations.
func (d *Dataset) Empty() bool { return d == nil || len(d.Observations) == 0 }

// Rate is a percentage that may be undefined, e.g. a fatality rate for a
// country with zero confirmed cases. Undefined rates marshal as JSON null.
type Rate struct {
	Value   float64
	Defined bool
}

// Undefined is the explicit marker for a rate that cannot be computed.
var Undefined = Rate{}

// Percent returns num/den*100 rounded to two decimals, or Undefined when den is zero.
func Percent(num, den float64) Rate {
	if den == 0 || math.IsNaN(num) || math.IsNaN(den) {
		return Undefined
	}
	return DefinedRate(num / den * 100)
}

// DefinedRate rounds v to two decimals. NaN and infinities become Undefined.
func DefinedRate(v float64) Rate {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return Rate{Value: round2(v), Defined: true}
}

func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Undefined
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Rate{Value: v, Defined: true}
	return nil
}

// String renders the rate with two decimals, or "n/a" when undefined.
func (r Rate) String() string {
	if !r.Defined {
		return "n/a"
	}
	return formatFloat2(r.Value)
}

func formatFloat2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
