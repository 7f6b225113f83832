// Package listing is the filter, paginate and refresh contract shared by the
// console's list screens.
package listing

import (
	"strings"
)

// Predicate reports whether an item stays in a filtered list. A nil
// Predicate keeps everything.
type Predicate[T any] func(T) bool

// Field extracts the text a predicate looks at.
type Field[T any] func(T) string

// IsAll reports whether a filter value is one of the "match everything"
// sentinels.
func IsAll(value string) bool {
	switch strings.TrimSpace(value) {
	case "", "All", "all":
		return true
	}
	return false
}

// Search matches items where any field contains term, ignoring case. A blank
// term matches everything.
func Search[T any](term string, fields ...Field[T]) Predicate[T] {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || len(fields) == 0 {
		return nil
	}
	return func(item T) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(item)), term) {
				return true
			}
		}
		return false
	}
}

// Exact matches items whose field equals value. Sentinel values match
// everything.
func Exact[T any](value string, field Field[T]) Predicate[T] {
	if IsAll(value) {
		return nil
	}
	value = strings.TrimSpace(value)
	return func(item T) bool {
		return field(item) == value
	}
}

// Custom wraps an arbitrary predicate that only applies while active.
func Custom[T any](active bool, fn func(T) bool) Predicate[T] {
	if !active || fn == nil {
		return nil
	}
	return fn
}

// Apply keeps the items every predicate accepts, in input order.
// The input slice is not modified.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	out := make([]T, 0, len(items))
next:
	for _, item := range items {
		for _, p := range active {
			if !p(item) {
				continue next
			}
		}
		out = append(out, item)
	}
	return out
}
