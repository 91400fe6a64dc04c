// Package pagination computes limit/skip windows for list endpoints.
package pagination

import (
	"net/url"
	"strconv"
)

// DefaultLimit is used when the request carries no usable limit
const DefaultLimit = 10

// Params is a parsed limit/skip pair
type Params struct {
	Limit int
	Skip  int
}

// Parse reads limit and skip from query values. Missing, malformed or
// non-positive limits fall back to DefaultLimit; negative skips become 0.
func Parse(q url.Values) Params {
	p := Params{Limit: DefaultLimit}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("skip")); err == nil && v > 0 {
		p.Skip = v
	}
	return p
}

// ClampSkip restarts at the first row when skip is at or beyond total
func (p Params) ClampSkip(total int) Params {
	if p.Skip >= total {
		p.Skip = 0
	}
	return p
}

// Page returns the window of items containing skip and the unpaged total.
//
// The window is derived from the page index floor(skip/limit), so a skip that is
// not a multiple of limit is rounded down to the start of its page:
// Page(items[0:25], 10, 15) returns items[10:20].
func Page[T any](items []T, limit, skip int) ([]T, int) {
	total := len(items)
	if limit <= 0 {
		limit = DefaultLimit
	}
	if skip < 0 {
		skip = 0
	}

	page := skip / limit
	start := page * limit
	if start >= total {
		return []T{}, total
	}
	end := min(start+limit, total)
	return items[start:end], total
}
