// Package tablequery translates server-driven table UI state into the
// catalog API's list query and interprets the paginated response.
//
// UI pages are zero-based; the wire contract is one-based. BuildQuery is the
// only place that translation happens.
package tablequery

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/remote"
)

// DefaultPageSize is used when the UI does not request a page size.
const DefaultPageSize = 5

// Sort is one sort key. The first key in State.Sorted is the primary key.
type Sort struct {
	Field string `json:"id"`
	Desc  bool   `json:"desc"`
}

// Filter is one column filter, transported verbatim to the API.
type Filter struct {
	Field string `json:"id"`
	Value string `json:"value"`
}

// State is the table UI state for one interaction.
type State struct {
	Page     int      // Zero-based
	PageSize int      // Always > 0 after Normalize
	Sorted   []Sort   // Priority order
	Filtered []Filter // Order preserved on the wire
}

// DefaultState returns the initial catalog table state: first page, sorted
// by tenant name ascending.
func DefaultState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Page:     0,
		PageSize: pageSize,
		Sorted:   []Sort{{Field: "name", Desc: false}},
		Filtered: []Filter{},
	}
}

// Normalize clamps out-of-range values.
func (s State) Normalize() State {
	if s.Page < 0 {
		s.Page = 0
	}
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Filtered == nil {
		s.Filtered = []Filter{}
	}
	return s
}

// WithPage returns a copy of s positioned on page.
func (s State) WithPage(page int) State {
	s.Page = page
	return s.Normalize()
}

// WithSort returns a copy of s sorted by field. Sorting by the current
// primary key again flips its direction; any other field becomes the sole
// ascending key. The page resets to the first one.
func (s State) WithSort(field string) State {
	desc := false
	if len(s.Sorted) > 0 && s.Sorted[0].Field == field {
		desc = !s.Sorted[0].Desc
	}
	s.Sorted = []Sort{{Field: field, Desc: desc}}
	s.Page = 0
	return s.Normalize()
}

// WithFilter returns a copy of s with field filtered by value. An empty value
// removes the filter. The page resets to the first one.
func (s State) WithFilter(field, value string) State {
	filtered := make([]Filter, 0, len(s.Filtered)+1)
	replaced := false
	for _, f := range s.Filtered {
		if f.Field != field {
			filtered = append(filtered, f)
			continue
		}
		if value != "" && !replaced {
			filtered = append(filtered, Filter{Field: field, Value: value})
		}
		replaced = true
	}
	if !replaced && value != "" {
		filtered = append(filtered, Filter{Field: field, Value: value})
	}
	s.Filtered = filtered
	s.Page = 0
	return s.Normalize()
}

// =============================================================================
// Wire Contract
// =============================================================================

// BuildQuery derives the canonical list query from UI state.
func BuildQuery(s State) remote.ListQuery {
	s = s.Normalize()
	return remote.ListQuery{
		Page:   s.Page + 1,
		Limit:  s.PageSize,
		Sort:   SortSpec(s.Sorted),
		Filter: FilterSpec(s.Filtered),
	}
}

// SortSpec serializes sort keys as space-terminated tokens, with a "-"
// prefix for descending keys: [{name desc}] becomes "-name ".
func SortSpec(sorted []Sort) string {
	var b strings.Builder
	for _, s := range sorted {
		if s.Desc {
			b.WriteByte('-')
		}
		b.WriteString(s.Field)
		b.WriteByte(' ')
	}
	return b.String()
}

// FilterSpec serializes filters as a JSON array. Empty input yields "[]".
func FilterSpec(filtered []Filter) string {
	if len(filtered) == 0 {
		return "[]"
	}
	b, err := json.Marshal(filtered)
	if err != nil {
		// Filter holds only strings.
		return "[]"
	}
	return string(b)
}

// View is the interpreted form of one paginated response.
type View[T any] struct {
	Rows      []T
	PageCount int
}

// Interpret turns a paginated response into table rows and a page count.
func Interpret[T any](resp *domain.PaginatedResponse[T]) View[T] {
	if resp == nil {
		return View[T]{Rows: []T{}}
	}
	rows := resp.Docs
	if rows == nil {
		rows = []T{}
	}
	pages := resp.Pages
	if pages < 0 {
		pages = 0
	}
	return View[T]{Rows: rows, PageCount: pages}
}

// =============================================================================
// URL State
// =============================================================================

// ParseState reads table UI state from URL query parameters:
// page (zero-based), pageSize, sort (repeated, "field" or "-field") and
// filter (JSON array). Absent or malformed numbers fall back to defaults;
// a malformed filter is an EINVALID error.
func ParseState(v url.Values, defaults State) (State, error) {
	const op = "tablequery.parse_state"

	s := defaults
	if n, err := strconv.Atoi(v.Get("page")); err == nil {
		s.Page = n
	}
	if n, err := strconv.Atoi(v.Get("pageSize")); err == nil {
		s.PageSize = n
	}
	if tokens, ok := v["sort"]; ok {
		s.Sorted = parseSortTokens(tokens)
	}
	if raw := v.Get("filter"); raw != "" {
		var filtered []Filter
		if err := json.Unmarshal([]byte(raw), &filtered); err != nil {
			return defaults.Normalize(), domain.Invalid(op, "The table filter is not valid.")
		}
		s.Filtered = filtered
	}
	return s.Normalize(), nil
}

func parseSortTokens(tokens []string) []Sort {
	sorted := []Sort{}
	for _, raw := range tokens {
		for _, tok := range strings.Fields(raw) {
			desc := strings.HasPrefix(tok, "-")
			field := strings.TrimPrefix(tok, "-")
			if field == "" {
				continue
			}
			sorted = append(sorted, Sort{Field: field, Desc: desc})
		}
	}
	return sorted
}

// Values encodes s in the form ParseState reads, for page and sort links.
func (s State) Values() url.Values {
	s = s.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(s.Page))
	v.Set("pageSize", strconv.Itoa(s.PageSize))
	for _, srt := range s.Sorted {
		if srt.Desc {
			v.Add("sort", "-"+srt.Field)
		} else {
			v.Add("sort", srt.Field)
		}
	}
	if len(s.Filtered) > 0 {
		v.Set("filter", FilterSpec(s.Filtered))
	}
	return v
}

// SortDirection returns "asc" or "desc" if field is sorted, else "".
func (s State) SortDirection(field string) string {
	for _, srt := range s.Sorted {
		if srt.Field == field {
			if srt.Desc {
				return "desc"
			}
			return "asc"
		}
	}
	return ""
}

// FilterValue returns the active filter value for field.
func (s State) FilterValue(field string) string {
	for _, f := range s.Filtered {
		if f.Field == field {
			return f.Value
		}
	}
	return ""
}
