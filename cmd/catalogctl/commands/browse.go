package commands

import (
	"bufio"
	"context"
	"strings"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/printer"
	"github.com/DukeRupert/catalogadmin/internal/tablequery"
	"github.com/spf13/cobra"
)

const browseHelp = "n next · p previous · s <field> sort · f field=value filter · r refresh · q quit"

func newBrowseCmd(global *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through the catalog interactively",
		Long: `Browse the catalog one page at a time. Commands:

  n              next page
  p              previous page
  s <field>      sort by field; repeat to flip the direction
  f field=value  filter a column; an empty value clears it
  r              refresh the current page
  q              quit

When a request fails the previous rows stay on screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)

			if limit < 1 {
				return p.Error("Invalid arguments", "--limit must be positive", nil)
			}
			state := tablequery.DefaultState(limit)

			table, err := newCatalogTable(global, cmd.ErrOrStderr(), state)
			if err != nil {
				return p.Error("Cannot reach the catalog API", err.Error(), nil)
			}

			s := &browseSession{table: table, printer: p}
			return s.run(cmd.Context(), bufio.NewScanner(cmd.InOrStdin()))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", tablequery.DefaultPageSize, "Rows per page")
	return cmd
}

// browseSession drives one table from line commands. Every command steps
// from the state of the visible rows, so a failed request is never built on.
type browseSession struct {
	table   *tablequery.Table[domain.Product]
	printer *printer.Printer
}

func (s *browseSession) run(ctx context.Context, in *bufio.Scanner) error {
	s.fetch(ctx, s.table.State())

	for {
		s.printer.Step("%s\n> ", browseHelp)
		if !in.Scan() {
			s.printer.Info("")
			return in.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(in.Text()), " ")
		arg = strings.TrimSpace(arg)
		state := s.table.Shown()

		switch cmd {
		case "":
			continue
		case "q", "quit":
			return nil
		case "n", "next":
			if state.Page+1 >= s.table.PageCount() {
				s.printer.Warning("Already on the last page")
				continue
			}
			s.fetch(ctx, state.WithPage(state.Page+1))
		case "p", "prev":
			if state.Page == 0 {
				s.printer.Warning("Already on the first page")
				continue
			}
			s.fetch(ctx, state.WithPage(state.Page-1))
		case "s", "sort":
			if arg == "" {
				s.printer.Warning("Usage: s <field>")
				continue
			}
			s.fetch(ctx, state.WithSort(arg))
		case "f", "filter":
			field, value, err := parseFilterFlag(arg)
			if err != nil {
				s.printer.Warning("%s", err.Error())
				continue
			}
			s.fetch(ctx, state.WithFilter(field, value))
		case "r", "refresh":
			s.fetch(ctx, state)
		default:
			s.printer.Warning("Unknown command %q", cmd)
		}
	}
}

// fetch moves the table and redraws it. A failed fetch prints the errors
// above the rows of the last successful page.
func (s *browseSession) fetch(ctx context.Context, state tablequery.State) {
	if err := s.table.Fetch(ctx, state); err != nil {
		s.printer.Errors(s.table.Errors())
	}
	if err := s.printer.Catalog(s.table.Rows(), s.table.Shown().Page, s.table.PageCount()); err != nil {
		s.printer.Errors([]string{err.Error()})
	}
}
