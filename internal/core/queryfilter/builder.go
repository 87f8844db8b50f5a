// Package queryfilter turns optional, independently specifiable request
// filters into a parameterized SQL predicate with ordered bound values.
//
// Clauses are appended in a fixed family order (date range, exact match,
// multi-value) on top of an always-true base predicate, so the resulting
// query shape is deterministic regardless of which filters are present.
// Filter values only ever travel as bound parameters.
package queryfilter

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

// Builder accumulates filter clauses for one query.
type Builder struct {
	conj sq.And
	err  error
}

// New returns a Builder seeded with an always-true predicate.
func New() *Builder {
	return &Builder{conj: sq.And{sq.Expr("1=1")}}
}

// DateRange adds inclusive lower/upper bounds on a date column. Either bound
// may be empty. Malformed dates and inverted ranges record a validation
// error surfaced by Predicate.
func (b *Builder) DateRange(column, start, end string) *Builder {
	if b.err != nil {
		return b
	}

	var startAt, endAt time.Time

	if start != "" {
		t, err := time.Parse(domain.DateLayout, start)
		if err != nil {
			b.err = coreerrors.NewValidation("start_date", start, "must be YYYY-MM-DD")
			return b
		}

		startAt = t
	}

	if end != "" {
		t, err := time.Parse(domain.DateLayout, end)
		if err != nil {
			b.err = coreerrors.NewValidation("end_date", end, "must be YYYY-MM-DD")
			return b
		}

		endAt = t
	}

	if start != "" && end != "" && startAt.After(endAt) {
		b.err = coreerrors.NewValidation(
			"date_range",
			fmt.Sprintf("%s..%s", start, end),
			"start_date is after end_date",
		)

		return b
	}

	if start != "" {
		b.conj = append(b.conj, sq.GtOrEq{column: start})
	}

	if end != "" {
		b.conj = append(b.conj, sq.LtOrEq{column: end})
	}

	return b
}

// Equals adds an exact-match clause when value is non-empty.
func (b *Builder) Equals(column, value string) *Builder {
	if b.err != nil || value == "" {
		return b
	}

	b.conj = append(b.conj, sq.Eq{column: value})

	return b
}

// AnyContains adds one ORed group of case-insensitive substring matches on
// column, one term per element of the comma-separated list. Terms are
// trimmed; blank terms are dropped. No clause is added when every term is
// blank.
func (b *Builder) AnyContains(column, csv string) *Builder {
	if b.err != nil || csv == "" {
		return b
	}

	group := sq.Or{}

	for _, term := range strings.Split(csv, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}

		group = append(group, sq.ILike{column: "%" + term + "%"})
	}

	if len(group) > 0 {
		b.conj = append(b.conj, group)
	}

	return b
}

// Predicate returns the accumulated conjunction, or the first validation
// error recorded while building.
func (b *Builder) Predicate() (sq.Sqlizer, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.conj, nil
}

// ToSQL renders the predicate fragment with `?` placeholders plus its bound
// values in clause order. Mostly useful for tests; storage composes the
// predicate into a full statement instead.
func (b *Builder) ToSQL() (string, []interface{}, error) {
	pred, err := b.Predicate()
	if err != nil {
		return "", nil, err
	}

	return pred.ToSql()
}
