package commands

import (
	"encoding/json"
	"fmt"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/tablequery"
	"github.com/spf13/cobra"
)

type listOptions struct {
	page    int
	limit   int
	sorts   []string
	filters []string
	asJSON  bool
}

func newListCmd(global *globalOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of the catalog",
		Example: `  catalogctl list
  catalogctl list --page 2 --limit 20 --sort -title
  catalogctl list --filter sku=AB --filter condition=new --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, global, opts)
		},
	}

	cmd.Flags().IntVar(&opts.page, "page", 1, "Page to show, starting at 1")
	cmd.Flags().IntVar(&opts.limit, "limit", tablequery.DefaultPageSize, "Rows per page")
	cmd.Flags().StringArrayVar(&opts.sorts, "sort", nil, "Sort key, \"-field\" for descending (repeatable, first wins)")
	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "Column filter as field=value (repeatable)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the page as JSON")

	return cmd
}

// listState converts list flags into table state.
func listState(opts *listOptions) (tablequery.State, error) {
	if opts.page < 1 {
		return tablequery.State{}, fmt.Errorf("invalid --page %d: pages start at 1", opts.page)
	}
	if opts.limit < 1 {
		return tablequery.State{}, fmt.Errorf("invalid --limit %d: must be positive", opts.limit)
	}

	state := tablequery.DefaultState(opts.limit)

	if len(opts.sorts) > 0 {
		state.Sorted = make([]tablequery.Sort, 0, len(opts.sorts))
		for _, token := range opts.sorts {
			s, err := parseSortFlag(token)
			if err != nil {
				return tablequery.State{}, err
			}
			state.Sorted = append(state.Sorted, s)
		}
	}

	for _, token := range opts.filters {
		field, value, err := parseFilterFlag(token)
		if err != nil {
			return tablequery.State{}, err
		}
		state = state.WithFilter(field, value)
	}

	// WithFilter resets the page, so position last.
	return state.WithPage(opts.page - 1), nil
}

// listOutput is the --json shape, matching the admin UI's JSON list.
type listOutput struct {
	Docs  []domain.Product `json:"docs"`
	Pages int              `json:"pages"`
	Page  int              `json:"page"`
}

func runList(cmd *cobra.Command, global *globalOptions, opts *listOptions) error {
	p := newPrinter(cmd)

	state, err := listState(opts)
	if err != nil {
		return p.Error("Invalid arguments", err.Error(), []string{"Run 'catalogctl list --help' for usage"})
	}

	table, err := newCatalogTable(global, cmd.ErrOrStderr(), state)
	if err != nil {
		return p.Error("Cannot reach the catalog API", err.Error(), nil)
	}

	if err := table.Fetch(cmd.Context(), state); err != nil {
		p.Errors(table.Errors())
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(listOutput{Docs: table.Rows(), Pages: table.PageCount(), Page: state.Page + 1})
	}

	return p.Catalog(table.Rows(), state.Page, table.PageCount())
}
