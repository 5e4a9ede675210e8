// Package printer formats catalogctl output: colored status lines and the
// catalog table.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

func init() {
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

var (
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer writes formatted output to Out and errors to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New creates a Printer.
func New(out, err io.Writer) *Printer {
	return &Printer{Out: out, Err: err}
}

// Info prints an informational message in the default color.
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.Out, format+"\n", a...)
}

// Step prints a prompt or progress line in cyan.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.Out, "→ %s", fmt.Sprintf(format, a...))
}

// Warning prints a warning message in yellow.
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.Out, "! %s\n", fmt.Sprintf(format, a...))
}

// Errors prints each message on its own line in red, to Err.
func (p *Printer) Errors(messages []string) {
	for _, m := range messages {
		red.Fprintf(p.Err, "✗ %s\n", m)
	}
}

// Error prints a titled error with suggestions and returns a plain error
// for cobra, which is configured not to print it again.
func (p *Printer) Error(title, explanation string, suggestions []string) error {
	red.Fprintf(p.Err, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(p.Err, "%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(p.Err, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(p.Err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(p.Err, "Either:\n")
			for i, s := range suggestions {
				fmt.Fprintf(p.Err, "  %d. %s\n", i+1, s)
			}
		}
	}

	return fmt.Errorf("%s", title)
}

// CatalogHeader lists the catalog table columns.
var CatalogHeader = []string{"ID", "SKU", "Title", "Condition", "In Stock", "Unit Cost", "Tenant"}

// CatalogRow converts a product to a table row.
func CatalogRow(pr domain.Product) []string {
	return []string{
		pr.ID.String(),
		pr.SKU,
		pr.Title,
		pr.Condition,
		pr.InStock,
		pr.UnitCost,
		pr.CompanyName,
	}
}

// Catalog renders one page of products followed by a page footer.
// page is zero-based.
func (p *Printer) Catalog(rows []domain.Product, page, pageCount int) error {
	if len(rows) == 0 {
		p.Info("No products found.")
	} else {
		header := make([]any, len(CatalogHeader))
		for i, h := range CatalogHeader {
			header[i] = h
		}

		table := tablewriter.NewWriter(p.Out)
		table.Header(header...)
		for _, pr := range rows {
			if err := table.Append(CatalogRow(pr)); err != nil {
				return fmt.Errorf("append catalog row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("render catalog table: %w", err)
		}
	}

	if pageCount > 0 {
		p.Info("Page %d of %d", page+1, pageCount)
	}
	return nil
}
