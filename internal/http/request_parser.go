package http

import (
	"net/url"
	"strconv"
	"strings"

	"salesdash/internal/query"
	"salesdash/internal/services"
)

// ListParams are the query parameters of GET /transactions.
type ListParams struct {
	Page       int
	PerPage    int
	Month      string
	SearchText string
}

// ParseListParams reads page, perPage, month and searchText. Missing or
// non-numeric paging values fall back to the defaults.
func ParseListParams(q url.Values) ListParams {
	return ListParams{
		Page:       parsePositiveInt(q.Get("page"), services.DefaultPage),
		PerPage:    parsePositiveInt(q.Get("perPage"), services.DefaultPerPage),
		Month:      sanitizeInput(q.Get("month")),
		SearchText: sanitizeInput(q.Get("searchText")),
	}
}

// Predicate builds the listing predicate. Fails only on an unknown month.
func (p ListParams) Predicate() (query.Predicate, error) {
	return query.Listing(p.Month, p.SearchText)
}

// Selection is the month filter shared by the aggregate endpoints.
type Selection struct {
	// Key is the canonical month name, or "all".
	Key       string
	Predicate query.Predicate
}

// ParseSelection reads the month parameter of an aggregate request.
func ParseSelection(q url.Values) (Selection, error) {
	month := sanitizeInput(q.Get("month"))
	p, err := query.Aggregate(month)
	if err != nil {
		return Selection{}, err
	}
	key := "all"
	if m, ok := p.(query.Month); ok {
		key = m.Month.String()
	}
	return Selection{Key: key, Predicate: p}, nil
}

func parsePositiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s))
}
