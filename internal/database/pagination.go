package database

import "math"

// DefaultPerPage is the browse window size used when none is requested.
const DefaultPerPage = 10

// Pagination describes a browse window. It is derived per request and
// never cached, since the underlying table may change between requests.
type Pagination struct {
	Page       int
	PerPage    int
	Offset     int64
	TotalCount int64
	TotalPages int
}

// NewPagination clamps page to at least 1 and derives offset and total
// pages. A non-positive perPage means a single unbounded page. Pages past
// the end stay as requested, except that page is capped so the offset
// still fits in an int64.
func NewPagination(page, perPage int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = 0
	}

	p := Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalCount: total,
		TotalPages: 1,
	}
	if perPage > 0 {
		if maxPage := math.MaxInt64 / int64(perPage); int64(page-1) > maxPage {
			p.Page = int(maxPage) + 1
		}
		p.Offset = int64(p.Page-1) * int64(perPage)
		p.TotalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return p
}

// Bounded reports whether the window has a row limit.
func (p Pagination) Bounded() bool {
	return p.PerPage > 0
}

// PageCount is TotalPages for display: an empty table still shows as
// one page.
func (p Pagination) PageCount() int {
	return max(p.TotalPages, 1)
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// PrevPage returns the previous page number, never below 1.
func (p Pagination) PrevPage() int {
	if p.Page <= 1 {
		return 1
	}
	return p.Page - 1
}

// NextPage returns the following page number.
func (p Pagination) NextPage() int {
	if p.Page == math.MaxInt {
		return p.Page
	}
	return p.Page + 1
}
