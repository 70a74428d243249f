package sqlstore

import (
	"fmt"

	"github.com/couchcryptid/air-quality-etl/internal/query"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Supported values for the driver argument of Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	name        string
	sqlDriver   string
	placeholder query.Placeholder
	createTable string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:        DriverSQLite,
		sqlDriver:   "sqlite",
		placeholder: query.QuestionMark,
		createTable: `CREATE TABLE air_quality (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			region TEXT NOT NULL,
			subregion TEXT NOT NULL,
			country TEXT NOT NULL,
			city TEXT NOT NULL,
			pm10 REAL,
			pm10_year INTEGER,
			pm25 REAL,
			pm25_year INTEGER
		)`,
	},
	DriverPostgres: {
		name:        DriverPostgres,
		sqlDriver:   "pgx",
		placeholder: query.Dollar,
		createTable: `CREATE TABLE air_quality (
			id BIGSERIAL PRIMARY KEY,
			region TEXT NOT NULL,
			subregion TEXT NOT NULL,
			country TEXT NOT NULL,
			city TEXT NOT NULL,
			pm10 DOUBLE PRECISION,
			pm10_year INTEGER,
			pm25 DOUBLE PRECISION,
			pm25_year INTEGER
		)`,
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
	return d, nil
}

// insertSQL returns the single-row INSERT statement for the dialect.
func (d dialect) insertSQL() string {
	ph := make([]any, 8)
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf(`INSERT INTO air_quality
		(region, subregion, country, city, pm10, pm10_year, pm25, pm25_year)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)
		RETURNING id`, ph...)
}
