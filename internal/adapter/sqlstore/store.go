// Package sqlstore persists air-quality records in a relational table and
// serves filtered reads over it.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/query"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// Postgres may still be starting when the service comes up.
const (
	pingAttempts   = 5
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

const selectColumns = `SELECT id, region, subregion, country, city, pm10, pm10_year, pm25, pm25_year FROM air_quality`

// Store reads and writes the air_quality table.
// It implements pipeline.Loader and query.Source.
type Store struct {
	db      *sql.DB
	dialect dialect
	insert  string
}

// Open connects to the database named by driver ("sqlite" or "postgres") and
// dsn (a file path for sqlite, a connection URL for postgres).
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	if d.name == DriverSQLite {
		if dsn == "" {
			dsn = "air_quality.db"
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if d.name == DriverSQLite {
		// sqlite allows a single writer; one connection also keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	}
	if err := ping(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	return &Store{db: db, dialect: d, insert: d.insertSQL()}, nil
}

// ping checks the connection, retrying with exponential backoff for server
// databases. sqlite is tried once.
func ping(ctx context.Context, db *sql.DB, d dialect) error {
	attempts := 1
	if d.name == DriverPostgres {
		attempts = pingAttempts
	}
	backoff := initialBackoff
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts-1 || !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return err
}

// Recreate drops the air_quality table if present and creates it empty.
func (s *Store) Recreate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS air_quality`); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Insert writes one record and returns its generated ID. Missing
// measurements are stored as NULL value and NULL year.
func (s *Store) Insert(ctx context.Context, rec domain.Record) (int64, error) {
	pm10, pm10Year := measurementArgs(rec.PM10)
	pm25, pm25Year := measurementArgs(rec.PM25)

	var id int64
	err := s.db.QueryRowContext(ctx, s.insert,
		rec.Region, rec.Subregion, rec.Country, rec.City,
		pm10, pm10Year, pm25, pm25Year,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

// Load implements pipeline.Loader.
func (s *Store) Load(ctx context.Context, rec domain.Record) error {
	_, err := s.Insert(ctx, rec)
	return err
}

// Select returns the records matching p in insertion order.
func (s *Store) Select(ctx context.Context, p query.Predicate) ([]domain.StoredRecord, error) {
	where, args := p.Where(s.dialect.placeholder)

	rows, err := s.db.QueryContext(ctx, selectColumns+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM air_quality`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func measurementArgs(m domain.Measurement) (sql.NullFloat64, sql.NullInt64) {
	v, ok := m.Value()
	if !ok {
		return sql.NullFloat64{}, sql.NullInt64{}
	}
	y, _ := m.Year()
	return sql.NullFloat64{Float64: v, Valid: true}, sql.NullInt64{Int64: int64(y), Valid: true}
}

func scanRecord(rows *sql.Rows) (domain.StoredRecord, error) {
	var (
		rec                domain.StoredRecord
		pm10, pm25         sql.NullFloat64
		pm10Year, pm25Year sql.NullInt64
	)
	err := rows.Scan(&rec.ID, &rec.Region, &rec.Subregion, &rec.Country, &rec.City,
		&pm10, &pm10Year, &pm25, &pm25Year)
	if err != nil {
		return domain.StoredRecord{}, fmt.Errorf("scan record: %w", err)
	}
	rec.PM10 = columnMeasurement(pm10, pm10Year, pm25Year)
	rec.PM25 = columnMeasurement(pm25, pm25Year, pm10Year)
	return rec, nil
}

// columnMeasurement rebuilds a Measurement from nullable columns using the
// same year fallback as ingestion.
func columnMeasurement(value sql.NullFloat64, year, fallback sql.NullInt64) domain.Measurement {
	if !value.Valid {
		return domain.Missing
	}
	switch {
	case year.Valid:
		return domain.Present(value.Float64, int(year.Int64))
	case fallback.Valid:
		return domain.Present(value.Float64, int(fallback.Int64))
	default:
		return domain.Missing
	}
}
