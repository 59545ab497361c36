package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Offset   int `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:     1,
		PageSize: DefaultPageSize,
		Offset:   0,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Out-of-range or non-numeric values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if size := r.URL.Query().Get("pageSize"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 && v <= MaxPageSize {
			p.PageSize = v
		}
	}

	p.Offset = (p.Page - 1) * p.PageSize
	return p
}

// Limit is the number of rows a store should fetch: one more than the page
// size, so that NewPage can tell whether another page exists.
func (p Params) Limit() int {
	return p.PageSize + 1
}

// Page is one page of a listing.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}

// NewPage builds a Page from rows fetched with params.Limit().
func NewPage[T any](rows []T, params Params) Page[T] {
	hasMore := len(rows) > params.PageSize
	if hasMore {
		rows = rows[:params.PageSize]
	}
	if rows == nil {
		rows = []T{}
	}

	return Page[T]{
		Items:    rows,
		Page:     params.Page,
		PageSize: params.PageSize,
		HasMore:  hasMore,
	}
}
