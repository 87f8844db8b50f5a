package storage

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

// Row is one result row keyed by column name. Date and timestamp columns are
// normalized to YYYY-MM-DD strings before a Row leaves this package; the
// storage engine's native date representation never reaches callers.
type Row map[string]any

// FetchRows executes a parameterized statement and returns all rows as
// field-name-keyed mappings. Execution failures come back as a QueryError
// carrying the statement text (never the bound values). A zero-row result is
// a valid empty slice, distinct from an error.
func (db *DB) FetchRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := db.q.Query(ctx, query, args...)
	if err != nil {
		return nil, coreerrors.NewQuery(query, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()

	out := make([]Row, 0)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, coreerrors.NewQuery(query, err)
		}

		row := make(Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = normalizeValue(values[i])
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, coreerrors.NewQuery(query, err)
	}

	return out, nil
}

// FetchSelect renders a squirrel select and fetches its rows.
func (db *DB) FetchSelect(ctx context.Context, builder sq.SelectBuilder) ([]Row, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, coreerrors.NewQuery("", err)
	}

	return db.FetchRows(ctx, query, args...)
}

// CountSelect renders a squirrel count query and returns the single value.
func (db *DB) CountSelect(ctx context.Context, builder sq.SelectBuilder) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, coreerrors.NewQuery("", err)
	}

	var count int64
	if err := db.q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, coreerrors.NewQuery(query, err)
	}

	return count, nil
}

// normalizeValue rewrites storage-native date/time values into the wire date
// format. Other values pass through unchanged.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(domain.DateLayout)
	case pgtype.Date:
		if !t.Valid {
			return nil
		}

		return t.Time.Format(domain.DateLayout)
	case pgtype.Timestamptz:
		if !t.Valid {
			return nil
		}

		return t.Time.Format(domain.DateLayout)
	case pgtype.Text:
		if !t.Valid {
			return nil
		}

		return t.String
	case [16]byte:
		// pgx returns UUID columns as raw bytes when no codec is registered.
		return uuidString(t)
	default:
		return v
	}
}

func uuidString(b [16]byte) string {
	const hexDigits = "0123456789abcdef"

	buf := make([]byte, 36)
	i := 0

	for j, v := range b {
		switch j {
		case 4, 6, 8, 10:
			buf[i] = '-'
			i++
		}

		buf[i] = hexDigits[v>>4]
		buf[i+1] = hexDigits[v&0x0f]
		i += 2
	}

	return string(buf)
}
