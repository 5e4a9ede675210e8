package pagination

import (
	"net/url"
	"testing"

	"github.com/DukeRupert/catalogadmin/internal/tablequery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRange(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{"no pages", 1, 0, []int{}},
		{"few pages", 2, 5, []int{1, 2, 3, 4, 5}},
		{"start of many", 1, 20, []int{1, 2, Ellipsis, 20}},
		{"middle of many", 10, 20, []int{1, Ellipsis, 9, 10, 11, Ellipsis, 20}},
		{"end of many", 20, 20, []int{1, Ellipsis, 19, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageRange(tt.current, tt.total))
		})
	}
}

func TestNew(t *testing.T) {
	s := tablequery.DefaultState(5).WithPage(1)
	d := New("/catalog", s, 3)

	assert.Equal(t, 2, d.CurrentPage)
	assert.Equal(t, 3, d.TotalPages)
	assert.True(t, d.HasPrevious)
	assert.True(t, d.HasNext)
	require.Len(t, d.Links, 3)
	assert.True(t, d.Links[1].Current)

	u, err := url.Parse(d.NextURL)
	require.NoError(t, err)
	assert.Equal(t, "/catalog", u.Path)
	assert.Equal(t, "2", u.Query().Get("page"), "links carry the zero-based UI page")
	assert.Equal(t, "name", u.Query().Get("sort"))
}

func TestNew_FirstPage(t *testing.T) {
	d := New("/catalog", tablequery.DefaultState(5), 1)

	assert.False(t, d.HasPrevious)
	assert.False(t, d.HasNext)
	assert.Empty(t, d.PrevURL)
	assert.Empty(t, d.NextURL)
}
