package csvfile

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Region,Subregion,Country,City,PM10,PM10 Year,PM2.5,PM2.5 Year\n"

// readAll drains r, collecting rows and the count of malformed lines.
func readAll(t *testing.T, r *Reader) ([]domain.RawRow, int) {
	t.Helper()
	var rows []domain.RawRow
	malformed := 0
	for {
		row, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return rows, malformed
		}
		if errors.Is(err, ErrMalformedRow) {
			malformed++
			continue
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestReader_CommaNoQuoting(t *testing.T) {
	input := header +
		"Europe,Southern Europe,Italy,Rome,25.5,2023,15.3,2023\n" +
		"Europe,,Italy,Rome,10.0,2022,,2022\r\n" +
		"\n" +
		"Africa,\"Northern Africa\",Egypt,Cairo\n"
	r, err := NewReader(strings.NewReader(input), DefaultOptions())
	require.NoError(t, err)

	rows, malformed := readAll(t, r)

	assert.Zero(t, malformed)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.RawRow{"Europe", "Southern Europe", "Italy", "Rome", "25.5", "2023", "15.3", "2023"}, rows[0])
	assert.Equal(t, domain.RawRow{"Europe", "", "Italy", "Rome", "10.0", "2022", "", "2022"}, rows[1])
	assert.Equal(t, domain.RawRow{"Africa", `"Northern Africa"`, "Egypt", "Cairo"}, rows[2], "quotes are literal when quoting is off")
}

func TestReader_TabDelimited(t *testing.T) {
	input := "Asia\tSouthern Asia\tIndia\tDelhi\t200\t2018\t98\t2018\n"
	r, err := NewReader(strings.NewReader(input), Options{Delimiter: '\t'})
	require.NoError(t, err)

	rows, _ := readAll(t, r)

	require.Len(t, rows, 1)
	assert.Equal(t, "Delhi", rows[0][domain.ColCity])
	assert.Equal(t, 1, r.Line())
}

func TestReader_Quoting(t *testing.T) {
	input := header +
		"Europe,\"Western Europe\",\"Netherlands, The\",Amsterdam,20,2020,11,2020\n" +
		"Europe,Western Europe,Fr\"ance,Paris,20,2020\n" +
		"Asia,Eastern Asia,Japan,Tokyo\n"
	r, err := NewReader(strings.NewReader(input), Options{Delimiter: ',', Quoting: true, HasHeader: true})
	require.NoError(t, err)

	rows, malformed := readAll(t, r)

	assert.Equal(t, 1, malformed)
	require.Len(t, rows, 2)
	assert.Equal(t, "Netherlands, The", rows[0][domain.ColCountry])
	assert.Len(t, rows[1], 4, "rows may have fewer cells than the header")
}

func TestReader_LineNumbers(t *testing.T) {
	input := header + "a,b,c,d\n\ne,f,g,h\n"
	r, err := NewReader(strings.NewReader(input), DefaultOptions())
	require.NoError(t, err)

	_, err = r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, r.Line())

	_, err = r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, r.Line())
}

func TestReader_HeaderOnly(t *testing.T) {
	r, err := NewReader(strings.NewReader(header), DefaultOptions())
	require.NoError(t, err)

	_, err = r.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_CancelledContext(t *testing.T) {
	r, err := NewReader(strings.NewReader(header+"a,b,c,d\n"), DefaultOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewReader_InvalidDelimiter(t *testing.T) {
	for _, d := range []byte{0, '"', '\n', 0xE9} {
		_, err := NewReader(strings.NewReader(""), Options{Delimiter: d})
		assert.Error(t, err, "delimiter %q", d)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"Europe,Southern Europe,Italy,Rome,25.5,2023,15.3,2023\n"), 0o600))

	r, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	defer r.Close()

	rows, _ := readAll(t, r)
	assert.Len(t, rows, 1)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.csv"), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open input")
}
