// Package prefs encodes and decodes multi-valued preference sets stored as a
// single delimiter-joined text column. The delimiter never appears inside an
// element; callers validate elements before merging.
package prefs

import "strings"

// Delimiter joins preference elements inside a single column.
const Delimiter = ";"

// Encode joins a set of elements into a single column value. An empty set
// encodes to nil, never to an empty string, so storage can distinguish
// "no preference" from "explicitly empty". Blank elements are dropped and
// duplicates collapse on exact string equality, keeping first-seen order.
func Encode(set []string) *string {
	deduped := dedupe(set)
	if len(deduped) == 0 {
		return nil
	}

	joined := strings.Join(deduped, Delimiter)

	return &joined
}

// Decode splits a column value into its elements. Nil or empty input decodes
// to an empty set.
func Decode(encoded *string) []string {
	if encoded == nil || *encoded == "" {
		return nil
	}

	return dedupe(strings.Split(*encoded, Delimiter))
}

// Merge unions additions into an existing encoded value and re-encodes.
// Existing elements keep their position; new elements append in input order.
func Merge(existing *string, additions []string) *string {
	merged := Decode(existing)

	seen := make(map[string]struct{}, len(merged))
	for _, el := range merged {
		seen[el] = struct{}{}
	}

	for _, el := range additions {
		if el == "" {
			continue
		}

		if _, ok := seen[el]; ok {
			continue
		}

		seen[el] = struct{}{}
		merged = append(merged, el)
	}

	return Encode(merged)
}

// Subtract removes every exact-match element of removals from an existing
// encoded value. A result with no elements encodes to nil.
func Subtract(existing *string, removals []string) *string {
	current := Decode(existing)
	if len(current) == 0 {
		return nil
	}

	drop := make(map[string]struct{}, len(removals))
	for _, el := range removals {
		drop[el] = struct{}{}
	}

	kept := current[:0]

	for _, el := range current {
		if _, ok := drop[el]; !ok {
			kept = append(kept, el)
		}
	}

	return Encode(kept)
}

// dedupe drops empty elements and exact duplicates, preserving first-seen order.
func dedupe(set []string) []string {
	if len(set) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(set))
	out := make([]string, 0, len(set))

	for _, el := range set {
		if el == "" {
			continue
		}

		if _, ok := seen[el]; ok {
			continue
		}

		seen[el] = struct{}{}
		out = append(out, el)
	}

	return out
}
