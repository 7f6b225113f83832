package listing

import (
	"net/url"
	"strconv"
	"strings"
)

const DefaultPageSize = 10

type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

// Paginate returns the zero-based page of items. Pages outside the list
// come back empty rather than failing.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	out := Page[T]{
		Items:    []T{},
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    (total + pageSize - 1) / pageSize,
	}
	if page < 0 {
		return out
	}
	start := page * pageSize
	if start >= total {
		return out
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	out.Items = items[start:end]
	return out
}

// Query is the list filter state of one request: a free-text search, named
// field filters, and the page window.
type Query struct {
	Search   string
	Fields   map[string]string
	Page     int
	PageSize int
}

var reserved = map[string]bool{"search": true, "page": true, "pageSize": true}

// ParseQuery reads ?search=&page=&pageSize= plus any other parameter as a
// field filter. Malformed numbers fall back to the first page and the
// default size.
func ParseQuery(values url.Values) Query {
	q := Query{
		Search:   strings.TrimSpace(values.Get("search")),
		Fields:   map[string]string{},
		PageSize: DefaultPageSize,
	}
	if n, err := strconv.Atoi(values.Get("page")); err == nil {
		q.Page = n
	}
	if n, err := strconv.Atoi(values.Get("pageSize")); err == nil && n > 0 {
		q.PageSize = n
	}
	for key := range values {
		if reserved[key] {
			continue
		}
		q.Fields[key] = strings.TrimSpace(values.Get(key))
	}
	return q
}

// Field returns a field filter, "" when unset.
func (q Query) Field(name string) string {
	return q.Fields[name]
}
