// Package pagination derives the page bar shown under server-driven tables.
package pagination

import (
	"github.com/DukeRupert/catalogadmin/internal/tablequery"
)

// Ellipsis marks a gap in a page range.
const Ellipsis = -1

// Link is one entry of the page bar. Number is one-based for display;
// Ellipsis entries carry no URL.
type Link struct {
	Number  int
	URL     string
	Current bool
}

// IsEllipsis reports whether the link is a gap marker.
func (l Link) IsEllipsis() bool {
	return l.Number == Ellipsis
}

// Data contains pagination information for display.
type Data struct {
	CurrentPage int // One-based
	TotalPages  int
	PerPage     int
	HasPrevious bool
	HasNext     bool
	PrevURL     string
	NextURL     string
	Links       []Link
}

// New builds the page bar for a table in state s with pageCount pages.
// Links point at baseURL with the state encoded in the query string, so
// following one re-issues exactly one table query.
func New(baseURL string, s tablequery.State, pageCount int) Data {
	s = s.Normalize()
	current := s.Page + 1

	d := Data{
		CurrentPage: current,
		TotalPages:  pageCount,
		PerPage:     s.PageSize,
		HasPrevious: s.Page > 0,
		HasNext:     current < pageCount,
	}
	if d.HasPrevious {
		d.PrevURL = pageURL(baseURL, s, s.Page-1)
	}
	if d.HasNext {
		d.NextURL = pageURL(baseURL, s, s.Page+1)
	}

	for _, n := range PageRange(current, pageCount) {
		if n == Ellipsis {
			d.Links = append(d.Links, Link{Number: Ellipsis})
			continue
		}
		d.Links = append(d.Links, Link{
			Number:  n,
			URL:     pageURL(baseURL, s, n-1),
			Current: n == current,
		})
	}
	return d
}

func pageURL(baseURL string, s tablequery.State, page int) string {
	return baseURL + "?" + s.WithPage(page).Values().Encode()
}

// PageRange returns one-based page numbers for pagination display.
// Returns Ellipsis for gap positions.
func PageRange(currentPage, totalPages int) []int {
	if totalPages <= 7 {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	pages := []int{1}

	start := currentPage - 1
	end := currentPage + 1

	if start <= 2 {
		start = 2
	}
	if end >= totalPages {
		end = totalPages - 1
	}

	if start > 2 {
		pages = append(pages, Ellipsis)
	}

	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}

	if end < totalPages-1 {
		pages = append(pages, Ellipsis)
	}

	pages = append(pages, totalPages)

	return pages
}
