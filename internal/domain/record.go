package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// PlaceholderToken replaces an absent subregion or country.
const PlaceholderToken = "N/A"

// MissingToken is how a Missing measurement renders.
const MissingToken = "missing"

// Measurement is one pollutant reading: either present with a value and the
// year it was observed, or missing.
type Measurement struct {
	value   float64
	year    int
	present bool
}

// Missing is the sentinel for an absent or unparsable reading.
var Missing = Measurement{}

// Present builds a reading with a value and its calendar year.
func Present(value float64, year int) Measurement {
	return Measurement{value: value, year: year, present: true}
}

// IsPresent reports whether the measurement carries a value.
func (m Measurement) IsPresent() bool { return m.present }

// Value returns the magnitude and whether it is present.
func (m Measurement) Value() (float64, bool) { return m.value, m.present }

// Year returns the observation year and whether it is present.
func (m Measurement) Year() (int, bool) { return m.year, m.present }

// Date returns January 1 of the observation year in UTC, or the zero time for
// a missing measurement.
func (m Measurement) Date() time.Time {
	if !m.present {
		return time.Time{}
	}
	return time.Date(m.year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func (m Measurement) String() string {
	if !m.present {
		return MissingToken
	}
	return fmt.Sprintf("%s, year: %d", strconv.FormatFloat(m.value, 'f', -1, 64), m.year)
}

type measurementJSON struct {
	Value      float64 `json:"value"`
	Year       int     `json:"year"`
	ObservedOn string  `json:"observed_on"`
}

// MarshalJSON encodes a present measurement as an object and a missing one as null.
func (m Measurement) MarshalJSON() ([]byte, error) {
	if !m.present {
		return []byte("null"), nil
	}
	return json.Marshal(measurementJSON{
		Value:      m.value,
		Year:       m.year,
		ObservedOn: m.Date().Format(time.DateOnly),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Missing
		return nil
	}
	var v measurementJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode measurement: %w", err)
	}
	*m = Present(v.Value, v.Year)
	return nil
}

// Record is one city's normalized observation.
type Record struct {
	Region    string      `json:"region"`
	Subregion string      `json:"subregion"`
	Country   string      `json:"country"`
	City      string      `json:"city"`
	PM10      Measurement `json:"pm10"`
	PM25      Measurement `json:"pm25"`
}

// String renders the record as a single human-readable line.
func (r Record) String() string {
	return fmt.Sprintf("<region %s> <subregion %s> <country %s> <city> %s | %s %s",
		r.Region, r.Subregion, r.Country, r.City, r.PM10, r.PM25)
}

// StoredRecord is a Record read back from storage together with its row ID.
type StoredRecord struct {
	ID int64 `json:"id"`
	Record
}
