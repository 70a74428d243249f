// Package domain models per-city particulate matter (PM10 / PM2.5) readings
// and the rules that turn raw dataset rows into typed records.
//
// # Data Source
//
// The input is the WHO ambient air quality extract, one row per city:
//
//	region, subregion, country, city, pm10, pm10_year, pm25, pm25_year
//
// e.g. "Europe,Southern Europe,Italy,Rome,25.5,2023,15.3,2023". Rows are often
// ragged: trailing cells may be missing entirely, and pollutant cells may be
// empty or hold non-numeric notes.
//
// # Field Policy
//
// Required:
//
//	region and city. A row without either is rejected with a
//	[MissingFieldError] and skipped by the loader.
//
// Optional identifiers:
//
//	subregion and country fall back to [PlaceholderToken] ("N/A").
//
// Measurements:
//
//	An empty or non-numeric magnitude yields [Missing]. A valid magnitude with an
//	unusable year borrows the other pollutant's year cell (pm10 <- pm25_year,
//	pm25 <- pm10_year); if that fails too the measurement is [Missing]. Zero is a
//	real reading, never a sentinel.
//
// Years:
//
//	Four-digit calendar years (1000-9999). Values outside that range are treated
//	like unparsable cells. Readings have annual resolution, so only the bare year
//	is stored; [Measurement.Date] gives January 1 of the year when a date value is
//	needed.
//
// # Anomalies
//
// [Normalize] is pure: instead of logging it returns the [Anomaly] list for a
// row, and the caller decides how to report it.
package domain
