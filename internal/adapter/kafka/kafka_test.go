package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rome = domain.Record{
	Region:    "Europe",
	Subregion: "Southern Europe",
	Country:   "Italy",
	City:      "Rome",
	PM10:      domain.Present(25.5, 2023),
	PM25:      domain.Missing,
}

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

	msg, err := serializeToMessage(rome, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("Italy/Rome"), msg.Key)
	assert.JSONEq(t, `{
		"region": "Europe",
		"subregion": "Southern Europe",
		"country": "Italy",
		"city": "Rome",
		"pm10": {"value": 25.5, "year": 2023, "observed_on": "2023-01-01"},
		"pm25": null
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "region", msg.Headers[0].Key)
	assert.Equal(t, []byte("Europe"), msg.Headers[0].Value)
	assert.Equal(t, "published_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_RoundTrip(t *testing.T) {
	msg, err := serializeToMessage(rome, time.Now())
	require.NoError(t, err)

	var got domain.Record
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, rome, got)
}

func TestWriter_Load(t *testing.T) {
	fw := &fakeWriter{}
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	w := newWriter(fw, discardLogger(), metrics, clock)

	require.NoError(t, w.Load(context.Background(), rome))

	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("2024-01-02T03:04:05Z"), fw.msgs[0].Headers[1].Value)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsPublished))

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_LoadError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	metrics := observability.NewMetricsForTesting()
	w := newWriter(fw, discardLogger(), metrics, clockwork.NewFakeClock())

	err := w.Load(context.Background(), rome)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish record")
	assert.Zero(t, testutil.ToFloat64(metrics.RecordsPublished))
}
