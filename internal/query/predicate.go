// Package query turns lookup filters into parameterized predicates and runs
// them against the record store.
package query

import (
	"strconv"
	"strings"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// columns maps each filter key to its storage column. Only these names are
// ever written into SQL text.
var columns = map[domain.FilterKey]string{
	domain.FilterID:        "id",
	domain.FilterRegion:    "region",
	domain.FilterSubregion: "subregion",
	domain.FilterCountry:   "country",
	domain.FilterCity:      "city",
}

// Clause is a single equality test against a column.
type Clause struct {
	Column string
	Value  any
}

// Predicate is a conjunction of equality clauses. The zero value matches
// every record.
type Predicate struct {
	Clauses []Clause
}

// Placeholder renders the bind marker for the n-th argument, starting at 1.
type Placeholder func(n int) string

// QuestionMark is the placeholder style of SQLite.
func QuestionMark(int) string { return "?" }

// Dollar is the placeholder style of PostgreSQL.
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Build converts a filter spec into a predicate with one clause per set key,
// in domain.FilterKeys order.
func Build(spec domain.FilterSpec) Predicate {
	var p Predicate
	for _, key := range domain.FilterKeys {
		v, ok := spec.Get(key)
		if !ok {
			continue
		}
		var value any = v
		if key == domain.FilterID {
			id, ok := spec.ID()
			if !ok {
				continue
			}
			value = id
		}
		p.Clauses = append(p.Clauses, Clause{Column: columns[key], Value: value})
	}
	return p
}

// Where renders the predicate as a WHERE clause with bind placeholders and
// returns the matching arguments. An empty predicate renders as "".
func (p Predicate) Where(ph Placeholder) (string, []any) {
	if len(p.Clauses) == 0 {
		return "", nil
	}
	var b strings.Builder
	args := make([]any, 0, len(p.Clauses))
	b.WriteString(" WHERE ")
	for i, c := range p.Clauses {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(c.Column)
		b.WriteString(" = ")
		b.WriteString(ph(i + 1))
		args = append(args, c.Value)
	}
	return b.String(), args
}
