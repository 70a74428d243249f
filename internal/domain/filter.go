package domain

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// FilterKey names a column a lookup may filter on.
type FilterKey string

const (
	FilterID        FilterKey = "id"
	FilterRegion    FilterKey = "region"
	FilterSubregion FilterKey = "subregion"
	FilterCountry   FilterKey = "country"
	FilterCity      FilterKey = "city"
)

// FilterKeys lists every supported key in the order clauses are generated.
var FilterKeys = []FilterKey{FilterID, FilterRegion, FilterSubregion, FilterCountry, FilterCity}

// ErrInvalidFilter is returned for unknown keys or values of the wrong type.
var ErrInvalidFilter = errors.New("invalid filter")

// FilterSpec holds the optional equality filters of one lookup.
type FilterSpec struct {
	values map[FilterKey]string
}

// Set records a filter value. Empty values clear the key.
func (f *FilterSpec) Set(key FilterKey, value string) error {
	if !slices.Contains(FilterKeys, key) {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidFilter, key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		delete(f.values, key)
		return nil
	}
	if key == FilterID {
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("%w: id %q is not an integer", ErrInvalidFilter, value)
		}
	}
	if f.values == nil {
		f.values = make(map[FilterKey]string, len(FilterKeys))
	}
	f.values[key] = value
	return nil
}

// Get returns the value for key and whether it is set.
func (f FilterSpec) Get(key FilterKey) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Len returns the number of set filters.
func (f FilterSpec) Len() int { return len(f.values) }

// ID returns the id filter as an integer.
func (f FilterSpec) ID() (int64, bool) {
	v, ok := f.values[FilterID]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	return id, err == nil
}

// ParseFilterSpec builds a FilterSpec from query parameters. Parameters other
// than the supported keys are ignored.
func ParseFilterSpec(q url.Values) (FilterSpec, error) {
	var spec FilterSpec
	for _, key := range FilterKeys {
		if err := spec.Set(key, q.Get(string(key))); err != nil {
			return FilterSpec{}, err
		}
	}
	return spec, nil
}
