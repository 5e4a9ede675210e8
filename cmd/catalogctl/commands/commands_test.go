package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/DukeRupert/catalogadmin/internal/tablequery"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalogAPI serves three pages of one product each. A filter value of
// "boom" fails with a 502. Subdomain lookups echo the escaped segment in the
// SKU, and the subdomain "missing" has no product.
type fakeCatalogAPI struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeCatalogAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.RawQuery)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if sub, ok := strings.CutPrefix(r.URL.EscapedPath(), "/api/catalog/subdomain/"); ok {
		if sub == "missing" {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": nil})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "7f1c2a9e-3b7d-4c55-9a0e-0c9d2a1b5e11", "sku": "SUB-" + sub, "title": "Lamp"},
		})
		return
	}

	q := r.URL.Query()
	if strings.Contains(q.Get("filter"), "boom") {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "errors": []string{"catalog down"}})
		return
	}

	page := q.Get("page")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"docs": []map[string]any{{
			"id":    "7f1c2a9e-3b7d-4c55-9a0e-0c9d2a1b5e11",
			"sku":   "SKU-" + page,
			"title": "Lamp",
			"name":  "Acme",
		}},
		"pages": 3,
	})
}

func (f *fakeCatalogAPI) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func runCLI(t *testing.T, api *fakeCatalogAPI, stdin string, args ...string) (string, string, error) {
	t.Helper()

	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(append(args, "--api-url", srv.URL))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseSortFlag(t *testing.T) {
	tests := []struct {
		token   string
		want    tablequery.Sort
		wantErr bool
	}{
		{token: "title", want: tablequery.Sort{Field: "title"}},
		{token: "-title", want: tablequery.Sort{Field: "title", Desc: true}},
		{token: " sku ", want: tablequery.Sort{Field: "sku"}},
		{token: "-", wantErr: true},
		{token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := parseSortFlag(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilterFlag(t *testing.T) {
	field, value, err := parseFilterFlag("sku=AB")
	require.NoError(t, err)
	assert.Equal(t, "sku", field)
	assert.Equal(t, "AB", value)

	field, value, err = parseFilterFlag("sku=")
	require.NoError(t, err)
	assert.Equal(t, "sku", field)
	assert.Empty(t, value)

	_, _, err = parseFilterFlag("sku")
	assert.Error(t, err)

	_, _, err = parseFilterFlag("=AB")
	assert.Error(t, err)
}

func TestListState(t *testing.T) {
	state, err := listState(&listOptions{
		page:    2,
		limit:   10,
		sorts:   []string{"-title", "sku"},
		filters: []string{"sku=AB"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, state.Page)
	assert.Equal(t, 10, state.PageSize)
	assert.Equal(t, []tablequery.Sort{{Field: "title", Desc: true}, {Field: "sku"}}, state.Sorted)
	assert.Equal(t, []tablequery.Filter{{Field: "sku", Value: "AB"}}, state.Filtered)

	q := tablequery.BuildQuery(state)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, "-title sku ", q.Sort)
}

func TestListState_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts listOptions
	}{
		{name: "page zero", opts: listOptions{page: 0, limit: 5}},
		{name: "zero limit", opts: listOptions{page: 1, limit: 0}},
		{name: "bad sort", opts: listOptions{page: 1, limit: 5, sorts: []string{"-"}}},
		{name: "bad filter", opts: listOptions{page: 1, limit: 5, filters: []string{"nope"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := listState(&tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestList(t *testing.T) {
	api := &fakeCatalogAPI{}

	out, _, err := runCLI(t, api, "", "list", "--page", "2", "--sort", "-title")
	require.NoError(t, err)

	assert.Contains(t, out, "SKU-2")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Page 2 of 3")

	queries := api.Queries()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "page=2")
	assert.Contains(t, queries[0], "limit=5")
	assert.Contains(t, queries[0], "sort=-title+")
}

func TestList_JSON(t *testing.T) {
	out, _, err := runCLI(t, &fakeCatalogAPI{}, "", "list", "--json")
	require.NoError(t, err)

	var got listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Pages)
	assert.Equal(t, 1, got.Page)
	require.Len(t, got.Docs, 1)
	assert.Equal(t, "SKU-1", got.Docs[0].SKU)
}

func TestList_FetchFailure(t *testing.T) {
	out, errOut, err := runCLI(t, &fakeCatalogAPI{}, "", "list", "--filter", "sku=boom")
	require.Error(t, err)

	assert.Empty(t, out)
	assert.Contains(t, errOut, "catalog down")
}

func TestList_RequiresAPIURL(t *testing.T) {
	t.Setenv("CATALOG_API_URL", "")

	var errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"list"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&errOut)

	require.Error(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "CATALOG_API_URL")
}

func TestBrowse_Navigation(t *testing.T) {
	api := &fakeCatalogAPI{}

	out, _, err := runCLI(t, api, "p\nn\nn\nn\ns title\nq\n", "browse")
	require.NoError(t, err)

	assert.Contains(t, out, "Already on the first page")
	assert.Contains(t, out, "SKU-3")
	assert.Contains(t, out, "Page 3 of 3")
	assert.Contains(t, out, "Already on the last page")

	// initial, two moves forward, one sort
	queries := api.Queries()
	require.Len(t, queries, 4)
	assert.Contains(t, queries[0], "page=1")
	assert.Contains(t, queries[2], "page=3")
	assert.Contains(t, queries[3], "page=1")
	assert.Contains(t, queries[3], "sort=title+")
}

func TestBrowse_FailureKeepsRows(t *testing.T) {
	out, errOut, err := runCLI(t, &fakeCatalogAPI{}, "n\nf sku=boom\n", "browse")
	require.NoError(t, err)

	assert.Contains(t, errOut, "catalog down")

	// The page shown after the failure is still page 2.
	last := out[strings.LastIndex(out, "SKU-"):]
	assert.True(t, strings.HasPrefix(last, "SKU-2"))
	assert.Contains(t, last, "Page 2 of 3")
}

func TestBrowse_NextAfterFailureStepsFromVisiblePage(t *testing.T) {
	api := &fakeCatalogAPI{}
	out, _, err := runCLI(t, api, "n\nf sku=boom\nn\n", "browse")
	require.NoError(t, err)

	queries := api.Queries()
	require.Len(t, queries, 4)
	last := queries[3]
	assert.Contains(t, last, "page=3", "next moves one page past the visible page 2")
	assert.NotContains(t, last, "boom", "the failed filter is not carried forward")
	assert.Contains(t, out[strings.LastIndex(out, "SKU-"):], "Page 3 of 3")
}

func TestBrowse_UnknownCommand(t *testing.T) {
	out, _, err := runCLI(t, &fakeCatalogAPI{}, "x\nf nope\nq\n", "browse")
	require.NoError(t, err)

	assert.Contains(t, out, `Unknown command "x"`)
	assert.Contains(t, out, "invalid filter")
}

func TestShow_BySubdomain(t *testing.T) {
	api := &fakeCatalogAPI{}

	out, _, err := runCLI(t, api, "", "show", "--subdomain", "a/b", "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "SUB-a%2Fb", got["sku"], "the subdomain travels as one escaped path segment")
}

func TestShow_NotFound(t *testing.T) {
	api := &fakeCatalogAPI{}

	_, errOut, err := runCLI(t, api, "", "show", "--subdomain", "missing")
	require.Error(t, err)
	assert.Contains(t, errOut, `product with ID "missing" not found`)
}

func TestShow_RequiresExactlyOneKey(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "neither", args: []string{"show"}},
		{name: "both", args: []string{"show", "7f1c2a9e-3b7d-4c55-9a0e-0c9d2a1b5e11", "--subdomain", "acme"}},
		{name: "bad id", args: []string{"show", "not-a-uuid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeCatalogAPI{}
			_, errOut, err := runCLI(t, api, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, errOut, "Invalid arguments")
			assert.Empty(t, api.Queries())
		})
	}
}
