package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column positions of a raw dataset row.
const (
	ColRegion = iota
	ColSubregion
	ColCountry
	ColCity
	ColPM10
	ColPM10Year
	ColPM25
	ColPM25Year
)

// columnNames indexes field names by column position.
var columnNames = [...]string{
	ColRegion:    "region",
	ColSubregion: "subregion",
	ColCountry:   "country",
	ColCity:      "city",
	ColPM10:      "pm10",
	ColPM10Year:  "pm10_year",
	ColPM25:      "pm25",
	ColPM25Year:  "pm25_year",
}

// ColumnName returns the field name of a column position.
func ColumnName(col int) string {
	if col < 0 || col >= len(columnNames) {
		return fmt.Sprintf("column_%d", col)
	}
	return columnNames[col]
}

// ErrMissingRequiredField is matched by every MissingFieldError.
var ErrMissingRequiredField = errors.New("missing required field")

// MissingFieldError reports a row lacking region or city.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingRequiredField, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingRequiredField }

// AnomalyKind classifies a recoverable problem found in a row.
type AnomalyKind string

const (
	AnomalyMissingOptional AnomalyKind = "missing_optional_field"
	AnomalyMissingValue    AnomalyKind = "missing_value"
	AnomalyMalformed       AnomalyKind = "malformed_numeric"
	AnomalyYearFallback    AnomalyKind = "year_fallback"
	AnomalyMissingYear     AnomalyKind = "missing_year"
)

// Anomaly is a field-level problem that was recovered by substitution.
type Anomaly struct {
	Field string
	Kind  AnomalyKind
	Raw   string
	Err   error
}

// RawRow is one delimited input line split into cells, in column order.
// Rows may be shorter than the full column set.
type RawRow []string

// Cell returns the trimmed cell at col and whether it holds any text.
func (r RawRow) Cell(col int) (string, bool) {
	if col < 0 || col >= len(r) {
		return "", false
	}
	s := strings.TrimSpace(r[col])
	return s, s != ""
}

// Normalize maps a raw row onto a Record, substituting placeholders and
// Missing measurements where cells are absent or malformed. It fails only
// when region or city is absent.
func Normalize(row RawRow) (Record, []Anomaly, error) {
	region, ok := row.Cell(ColRegion)
	if !ok {
		return Record{}, nil, &MissingFieldError{Field: ColumnName(ColRegion)}
	}
	city, ok := row.Cell(ColCity)
	if !ok {
		return Record{}, nil, &MissingFieldError{Field: ColumnName(ColCity)}
	}

	var anomalies []Anomaly
	rec := Record{
		Region:    region,
		Subregion: optionalField(row, ColSubregion, &anomalies),
		Country:   optionalField(row, ColCountry, &anomalies),
		City:      city,
	}
	rec.PM10 = parseMeasurement(row, ColPM10, ColPM10Year, ColPM25Year, &anomalies)
	rec.PM25 = parseMeasurement(row, ColPM25, ColPM25Year, ColPM10Year, &anomalies)
	return rec, anomalies, nil
}

func optionalField(row RawRow, col int, anomalies *[]Anomaly) string {
	if v, ok := row.Cell(col); ok {
		return v
	}
	*anomalies = append(*anomalies, Anomaly{Field: ColumnName(col), Kind: AnomalyMissingOptional})
	return PlaceholderToken
}

// parseMeasurement reads a magnitude cell and its year, borrowing the year
// from fallbackCol when the own year cell is unusable.
func parseMeasurement(row RawRow, valueCol, yearCol, fallbackCol int, anomalies *[]Anomaly) Measurement {
	raw, ok := row.Cell(valueCol)
	if !ok {
		*anomalies = append(*anomalies, Anomaly{Field: ColumnName(valueCol), Kind: AnomalyMissingValue})
		return Missing
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
		err = fmt.Errorf("non-finite value %q", raw)
	}
	if err != nil {
		*anomalies = append(*anomalies, Anomaly{Field: ColumnName(valueCol), Kind: AnomalyMalformed, Raw: raw, Err: err})
		return Missing
	}

	year, yearErr := parseYear(row, yearCol)
	if yearErr == nil {
		return Present(value, year)
	}

	year, err = parseYear(row, fallbackCol)
	if err != nil {
		*anomalies = append(*anomalies, Anomaly{
			Field: ColumnName(yearCol),
			Kind:  AnomalyMissingYear,
			Raw:   cellText(row, yearCol),
			Err:   errors.Join(yearErr, err),
		})
		return Missing
	}
	*anomalies = append(*anomalies, Anomaly{
		Field: ColumnName(yearCol),
		Kind:  AnomalyYearFallback,
		Raw:   cellText(row, yearCol),
		Err:   yearErr,
	})
	return Present(value, year)
}

var errYearAbsent = errors.New("year cell absent")

// parseYear parses a four-digit calendar year from the cell at col.
func parseYear(row RawRow, col int) (int, error) {
	raw, ok := row.Cell(col)
	if !ok {
		return 0, fmt.Errorf("%s: %w", ColumnName(col), errYearAbsent)
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ColumnName(col), err)
	}
	if year < 1000 || year > 9999 {
		return 0, fmt.Errorf("%s: year %d out of range", ColumnName(col), year)
	}
	return year, nil
}

func cellText(row RawRow, col int) string {
	s, _ := row.Cell(col)
	return s
}
