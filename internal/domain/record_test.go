package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurement(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		m := Present(25.5, 2023)

		assert.True(t, m.IsPresent())
		v, ok := m.Value()
		assert.True(t, ok)
		assert.Equal(t, 25.5, v)
		y, ok := m.Year()
		assert.True(t, ok)
		assert.Equal(t, 2023, y)
		assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), m.Date())
		assert.Equal(t, 1, m.Date().YearDay())
	})

	t.Run("missing", func(t *testing.T) {
		assert.False(t, Missing.IsPresent())
		_, ok := Missing.Value()
		assert.False(t, ok)
		assert.True(t, Missing.Date().IsZero())
	})

	t.Run("zero value is not missing", func(t *testing.T) {
		assert.NotEqual(t, Missing, Present(0, 2020))
	})
}

func TestMeasurementString(t *testing.T) {
	tests := []struct {
		name     string
		m        Measurement
		expected string
	}{
		{"decimal", Present(25.5, 2023), "25.5, year: 2023"},
		{"integer value", Present(10.0, 2022), "10, year: 2022"},
		{"zero", Present(0, 2020), "0, year: 2020"},
		{"missing", Missing, MissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.m.String())
		})
	}
}

func TestMeasurementJSON(t *testing.T) {
	data, err := json.Marshal(Present(15.3, 2023))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":15.3,"year":2023,"observed_on":"2023-01-01"}`, string(data))

	var m Measurement
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, Present(15.3, 2023), m)

	data, err = json.Marshal(Missing)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	m = Present(1, 2000)
	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.Equal(t, Missing, m)
}

func TestRecordString(t *testing.T) {
	rec := Record{
		Region:    testRegion,
		Subregion: testSubregion,
		Country:   testCountry,
		City:      testCity,
		PM10:      Present(25.5, 2023),
		PM25:      Missing,
	}

	assert.Equal(t,
		"<region Europe> <subregion Southern Europe> <country Italy> <city> Rome | 25.5, year: 2023 missing",
		rec.String())

	stored := StoredRecord{ID: 7, Record: rec}
	assert.Equal(t, rec.String(), stored.String())
}
