package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Region,Subregion,Country,City,PM10,PM10 Year,PM2.5,PM2.5 Year\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runValidate(t *testing.T, input string) (string, error) {
	t.Helper()
	reader, err := csvfile.NewReader(strings.NewReader(input), csvfile.DefaultOptions())
	require.NoError(t, err)

	var out bytes.Buffer
	err = validate(context.Background(), reader, &out, discardLogger())
	return out.String(), err
}

func TestValidate_AllRowsLoadable(t *testing.T) {
	out, err := runValidate(t, header+
		"Europe,Southern Europe,Italy,Rome,25.5,2023,15.3,2023\n"+
		"Europe,,Italy,Milan,10.0,2022,,2022\n")

	require.NoError(t, err)
	assert.Regexp(t, `rows read\s+2`, out)
	assert.Regexp(t, `rows skipped\s+0`, out)
	assert.Regexp(t, `pm25 missing_value\s+1`, out)
	assert.Regexp(t, `subregion missing_optional_field\s+1`, out)
	assert.Less(t, strings.Index(out, "pm25 missing_value"), strings.Index(out, "subregion missing_optional_field"))
	assert.Contains(t, out, "All rows loadable.")
}

func TestValidate_SkippedRowsFail(t *testing.T) {
	out, err := runValidate(t, header+
		"Europe,Southern Europe,Italy,,1,2020,1,2020\n"+
		"Europe,Southern Europe,Italy,Rome,25.5,2023,15.3,2023\n")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 rows would be skipped")
	assert.Regexp(t, `rows loadable\s+1`, out)
	assert.Contains(t, out, "Validation FAILED.")
}

func TestValidate_EmptyInput(t *testing.T) {
	out, err := runValidate(t, header)

	require.NoError(t, err)
	assert.Regexp(t, `rows read\s+0`, out)
	assert.NotContains(t, out, "--- anomalies ---")
}
