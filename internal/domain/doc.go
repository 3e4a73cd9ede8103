// Package domain models the Johns Hopkins CSSE COVID-19 daily report data and
// the pure cleaning stages that turn raw report tables into observations.
//
// # Data Source
//
// Daily reports come from the JHU CSSE repository
// (csse_covid_19_data/csse_covid_19_daily_reports). There is one CSV per
// calendar day, named by date in MM-DD-YYYY form, e.g. "03-22-2020.csv".
// Every row is a cumulative snapshot for one country or sub-national region as
// of that day.
//
// # Schema Drift
//
// The header changed over the life of the dataset:
//
//	until 03-21-2020: Province/State, Country/Region, Last Update, Confirmed,
//	                  Deaths, Recovered (Latitude, Longitude from 03-01-2020)
//	from 03-22-2020:  FIPS, Admin2, Province_State, Country_Region, Last_Update,
//	                  Lat, Long_, Confirmed, Deaths, Recovered, Active,
//	                  Combined_Key (Incident_Rate, Case_Fatality_Ratio later)
//
// Per-file reconciliation renames known legacy headers through a finite alias
// table (see [DefaultHeaderAliases]). Column standardisation may still collapse
// two raw headers into one name ("Last Update" and "Last_Update" both become
// "last_update"); such duplicates are consolidated by taking the first
// non-missing value per row.
//
// # Count Conventions
//
// Confirmed, Deaths and Recovered are cumulative counts. Empty or unparsable
// values are read as zero: a country with no reported deaths is
// indistinguishable from a country with zero deaths after cleaning. Recovered
// stopped being reported for most countries in August 2021, so it is zero for
// many rows late in the series.
//
// Active cases are always recomputed as confirmed - deaths - recovered. The
// source "Active" column is ignored. Reporting noise can make the result
// negative; [ActiveRaw] keeps it, [ActiveClamped] clips it at zero.
//
// Last update:
//
//	Layouts seen in the wild: "1/22/2020 17:00", "1/22/20 17:00",
//	"2020-02-01T19:53:03", "2020-03-22 23:45:00". Cleaned values are written
//	back as RFC 3339. Unparsable values become missing.
//
// # Country Names
//
// Country labels vary across files ("Mainland China" vs "China", "Korea, South",
// "US"). [Normalizer] maps variants to one canonical name; labels it does not
// know pass through unchanged.
package domain
