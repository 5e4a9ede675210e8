package commands

import (
	"encoding/json"
	"fmt"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type showOptions struct {
	subdomain string
	asJSON    bool
}

func newShowCmd(global *globalOptions) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print a single product",
		Example: `  catalogctl show 7f1c2a9e-3b7d-4c55-9a0e-0c9d2a1b5e11
  catalogctl show --subdomain acme --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.subdomain, "subdomain", "", "Look the product up by its published subdomain")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the product as JSON")

	return cmd
}

func runShow(cmd *cobra.Command, global *globalOptions, opts *showOptions, args []string) error {
	p := newPrinter(cmd)

	if (len(args) == 1) == (opts.subdomain != "") {
		return p.Error("Invalid arguments", "Pass either a product ID or --subdomain.", []string{"Run 'catalogctl show --help' for usage"})
	}

	catalog, _, err := newCatalogService(global, cmd.ErrOrStderr())
	if err != nil {
		return p.Error("Cannot reach the catalog API", err.Error(), nil)
	}

	var product *domain.Product
	if opts.subdomain != "" {
		product, err = catalog.GetProductBySubdomain(cmd.Context(), opts.subdomain)
	} else {
		id, parseErr := uuid.Parse(args[0])
		if parseErr != nil {
			return p.Error("Invalid arguments", fmt.Sprintf("%q is not a product ID.", args[0]), nil)
		}
		product, err = catalog.GetProduct(cmd.Context(), id)
	}
	if err != nil {
		p.Errors(domain.ErrorMessages(err))
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(product)
	}
	return p.Catalog([]domain.Product{*product}, 0, 1)
}
