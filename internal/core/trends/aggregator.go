// Package trends computes grouped keyword counts and trending rankings over
// delimiter-encoded keyword fields.
package trends

import (
	"fmt"
	"sort"
	"time"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
	"github.com/aipulse/aipulse/internal/core/prefs"
)

// Window is the inclusive time range keyword occurrences are counted over.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow builds the counting window from the two mutually exclusive
// input modes. lastDays takes precedence when supplied alongside explicit
// dates; explicit dates are then ignored, not combined. Supplying neither
// mode is a validation error, as is an inverted explicit range.
func ResolveWindow(startDate, endDate string, lastDays int, now time.Time) (Window, error) {
	if lastDays > 0 {
		return Window{Start: now.AddDate(0, 0, -lastDays), End: now}, nil
	}

	if startDate == "" && endDate == "" {
		return Window{}, coreerrors.NewValidation("window", "", "either start_date/end_date or last_days is required")
	}

	var w Window

	if startDate != "" {
		t, err := time.Parse(domain.DateLayout, startDate)
		if err != nil {
			return Window{}, coreerrors.NewValidation("start_date", startDate, "must be YYYY-MM-DD")
		}

		w.Start = t
	}

	if endDate != "" {
		t, err := time.Parse(domain.DateLayout, endDate)
		if err != nil {
			return Window{}, coreerrors.NewValidation("end_date", endDate, "must be YYYY-MM-DD")
		}

		// End bound is inclusive over the whole day.
		w.End = t.Add(24*time.Hour - time.Nanosecond)
	} else {
		w.End = now
	}

	if startDate != "" && endDate != "" && w.Start.After(w.End) {
		return Window{}, coreerrors.NewValidation(
			"date_range",
			fmt.Sprintf("%s..%s", startDate, endDate),
			"start_date is after end_date",
		)
	}

	return w, nil
}

// CountKeywords decodes each row's delimiter-encoded keyword field, flattens
// across rows, and counts occurrences per distinct term. A row holding
// "AI;ML" contributes one count to "AI" and one to "ML", never one to the
// composite string. The returned order is first encounter.
func CountKeywords(keywordFields []string) []domain.KeywordCount {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, field := range keywordFields {
		f := field
		for _, term := range prefs.Decode(&f) {
			if _, seen := counts[term]; !seen {
				order = append(order, term)
			}

			counts[term]++
		}
	}

	out := make([]domain.KeywordCount, 0, len(order))
	for _, term := range order {
		out = append(out, domain.KeywordCount{Keyword: term, Count: counts[term]})
	}

	return out
}

// Rank sorts counts descending and applies limit/offset pagination. Ties keep
// first-encountered input order (stable sort), not lexicographic order.
func Rank(counts []domain.KeywordCount, limit, offset int) []domain.KeywordCount {
	ranked := make([]domain.KeywordCount, len(counts))
	copy(ranked, counts)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if offset > 0 {
		if offset >= len(ranked) {
			return nil
		}

		ranked = ranked[offset:]
	}

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	return ranked
}

// IntersectAllowList narrows an already-ranked list to terms present in the
// allow list. The intersection runs after ranking and pagination, so the
// allow list filters a fixed top-N rather than re-ranking the narrowed set.
// A nil allow list passes everything through.
func IntersectAllowList(ranked []domain.KeywordCount, allow []string) []domain.KeywordCount {
	if allow == nil {
		return ranked
	}

	keep := make(map[string]struct{}, len(allow))
	for _, term := range allow {
		keep[term] = struct{}{}
	}

	out := make([]domain.KeywordCount, 0, len(ranked))

	for _, kc := range ranked {
		if _, ok := keep[kc.Keyword]; ok {
			out = append(out, kc)
		}
	}

	return out
}

// CountBySource counts rows per exact source value, keeping first-encounter
// order. Unlike CountKeywords the grouping key is the whole field.
func CountBySource(sources []string) []domain.KeywordCount {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, s := range sources {
		if s == "" {
			continue
		}

		if _, seen := counts[s]; !seen {
			order = append(order, s)
		}

		counts[s]++
	}

	out := make([]domain.KeywordCount, 0, len(order))
	for _, s := range order {
		out = append(out, domain.KeywordCount{Keyword: s, Count: counts[s]})
	}

	return out
}
