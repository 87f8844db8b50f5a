package queryfilter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

func TestEmptyBuilderIsAlwaysTrue(t *testing.T) {
	sql, args, err := New().ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "(1=1)", sql)
	assert.Empty(t, args)
}

func TestClauseOrderIsDeterministic(t *testing.T) {
	build := func() (string, []interface{}) {
		sql, args, err := New().
			DateRange("publication_date", "2025-01-01", "2025-02-01").
			Equals("source", "arstechnica").
			AnyContains("keywords", "AI, ML").
			ToSQL()
		require.NoError(t, err)

		return sql, args
	}

	sql1, args1 := build()
	sql2, args2 := build()

	assert.Equal(t, sql1, sql2)
	assert.Equal(t, args1, args2)

	// Families appear in fixed order: dates, exact match, multi-value group.
	assert.Equal(t,
		"(1=1 AND publication_date >= ? AND publication_date <= ? AND source = ? AND (keywords ILIKE ? OR keywords ILIKE ?))",
		sql1)
	assert.Equal(t, []interface{}{"2025-01-01", "2025-02-01", "arstechnica", "%AI%", "%ML%"}, args1)
}

func TestMalformedDateFailsNamingValue(t *testing.T) {
	_, _, err := New().DateRange("publication_date", "2024-13-40", "").ToSQL()
	require.Error(t, err)
	assert.True(t, coreerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "2024-13-40")
}

func TestInvertedRangeFails(t *testing.T) {
	_, _, err := New().DateRange("publication_date", "2025-01-01", "2024-01-01").ToSQL()
	require.Error(t, err)
	assert.True(t, coreerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "after")
}

func TestSingleBoundIsAccepted(t *testing.T) {
	sql, args, err := New().DateRange("publication_date", "", "2025-06-30").ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "(1=1 AND publication_date <= ?)", sql)
	assert.Equal(t, []interface{}{"2025-06-30"}, args)
}

func TestInjectionStaysInBoundValues(t *testing.T) {
	hostile := "x'; DROP TABLE articles; --"

	sql, args, err := New().
		Equals("source", hostile).
		AnyContains("keywords", hostile).
		ToSQL()
	require.NoError(t, err)

	assert.False(t, strings.Contains(sql, "DROP TABLE"), "filter value leaked into query text: %s", sql)
	assert.Contains(t, args, hostile)
	assert.Contains(t, args, "%"+hostile+"%")
}

func TestBlankTermsAreDropped(t *testing.T) {
	sql, _, err := New().AnyContains("keywords", " , ,").ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "(1=1)", sql)
}
