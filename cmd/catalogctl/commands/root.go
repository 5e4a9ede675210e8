// Package commands implements the catalogctl command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DukeRupert/catalogadmin/internal"
	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/printer"
	"github.com/DukeRupert/catalogadmin/internal/remote"
	"github.com/DukeRupert/catalogadmin/internal/tablequery"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var versionString = "dev"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	apiURL   string
	token    string
	timeout  time.Duration
	logLevel string
}

// NewRootCmd builds the catalogctl command tree. Flag defaults come from
// the environment, so load any .env file before calling it.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "catalogctl - browse the product catalog from a terminal",
		Long: `catalogctl talks to the catalog API directly and renders the same
server-driven table the admin UI shows: one page at a time, sorted and
filtered by the API.`,
		Version: versionString,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", os.Getenv("CATALOG_API_URL"), "Catalog API base URL (env CATALOG_API_URL)")
	flags.StringVar(&opts.token, "token", os.Getenv("CATALOG_API_TOKEN"), "Bearer token for the catalog API (env CATALOG_API_TOKEN)")
	flags.DurationVar(&opts.timeout, "timeout", remote.DefaultTimeout, "Per-request timeout")
	flags.StringVar(&opts.logLevel, "log-level", "error", "Diagnostic log level written to stderr")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newBrowseCmd(opts))
	cmd.AddCommand(newShowCmd(opts))

	return cmd
}

// Execute runs catalogctl until it finishes or is interrupted.
func Execute() error {
	// A missing .env file is normal outside development
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// newCatalogService connects to the catalog API named by the global flags.
func newCatalogService(opts *globalOptions, errOut io.Writer) (remote.CatalogService, *slog.Logger, error) {
	if strings.TrimSpace(opts.apiURL) == "" {
		return nil, nil, fmt.Errorf("no catalog API URL: pass --api-url or set CATALOG_API_URL")
	}

	logger := internal.NewLogger(errOut, "development", opts.logLevel)
	client, err := remote.NewClient(remote.Config{
		BaseURL: opts.apiURL,
		Token:   opts.token,
		Timeout: opts.timeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return remote.NewCatalogService(client), logger, nil
}

// newCatalogTable connects to the catalog API and positions a table at
// initial. Nothing is fetched yet.
func newCatalogTable(opts *globalOptions, errOut io.Writer, initial tablequery.State) (*tablequery.Table[domain.Product], error) {
	catalog, logger, err := newCatalogService(opts, errOut)
	if err != nil {
		return nil, err
	}
	return tablequery.NewTable[domain.Product](catalog.GetCatalog, initial, logger), nil
}

// parseSortFlag turns "-title" into a descending sort on title.
func parseSortFlag(token string) (tablequery.Sort, error) {
	token = strings.TrimSpace(token)
	desc := strings.HasPrefix(token, "-")
	field := strings.TrimPrefix(token, "-")
	if field == "" {
		return tablequery.Sort{}, fmt.Errorf("invalid sort %q: expected field or -field", token)
	}
	return tablequery.Sort{Field: field, Desc: desc}, nil
}

// parseFilterFlag splits "field=value". An empty value is allowed and
// clears the filter.
func parseFilterFlag(token string) (field, value string, err error) {
	field, value, ok := strings.Cut(token, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return "", "", fmt.Errorf("invalid filter %q: expected field=value", token)
	}
	return field, strings.TrimSpace(value), nil
}

func newPrinter(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}
