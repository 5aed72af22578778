// Command sqcbreport prints SQCB dashboard aggregates from the upstream API
// or a JSON export, without running the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sqcb_dashboard/backend/internal/config"
	"github.com/sqcb_dashboard/backend/internal/service"
	"github.com/sqcb_dashboard/backend/internal/sqcbapi"
)

type summaryOptions struct {
	file   string
	url    string
	plant  string
	search string
	now    string
	asJSON bool
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error().Err(err).Msg("sqcbreport failed")
		os.Exit(1)
	}
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "sqcbreport",
		Short:         "Summarise SQCB supplier quality records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSummaryCmd(logger), newSitesCmd())
	return root
}

func newSummaryCmd(logger zerolog.Logger) *cobra.Command {
	var opts summaryOptions
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Classify records and print the dashboard counters",
		Long: `Loads SQCB records, applies the plant and search filters and prints the
count per dashboard category. Records come from --file, else --url, else
SQCB_FIXTURE_PATH or SQCB_API_URL.

Example:
  sqcbreport summary --file export.json --plant Thailand --now 2025-03-10T00:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.Context(), cmd.OutOrStdout(), opts, logger)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.file, "file", "", "read records from a JSON export")
	f.StringVar(&opts.url, "url", "", "upstream API base URL")
	f.StringVar(&opts.plant, "plant", service.SiteAll, "site filter: all, "+strings.Join(service.SiteNames(), ", "))
	f.StringVar(&opts.search, "search", "", "case-insensitive search term")
	f.StringVar(&opts.now, "now", "", "evaluation time, RFC3339 (default current time)")
	f.BoolVar(&opts.asJSON, "json", false, "print the full aggregate as JSON")
	return cmd
}

func newSitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List sites and their plant codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SITE\tPLANT CODES")
			for _, name := range service.SiteNames() {
				fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(service.Sites[name], ", "))
			}
			return w.Flush()
		},
	}
}

func runSummary(ctx context.Context, out io.Writer, opts summaryOptions, logger zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.plant != service.SiteAll && opts.plant != "" {
		if _, ok := service.Sites[opts.plant]; !ok {
			return fmt.Errorf("unknown plant %q", opts.plant)
		}
	}
	now := time.Now().UTC()
	if opts.now != "" {
		t, err := time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		now = t.UTC()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	src, err := pickSource(opts, cfg)
	if err != nil {
		return err
	}

	records, err := src.ListRecords(ctx)
	if err != nil {
		return err
	}
	logger.Debug().Int("records", len(records)).Msg("records loaded")

	result := service.NewClassifier(cfg.WindowDays).Evaluate(records,
		service.Filter{Plant: opts.plant, Search: opts.search}, now)

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeSummary(out, result)
}

func pickSource(opts summaryOptions, cfg config.Config) (service.RecordSource, error) {
	switch {
	case opts.file != "":
		return sqcbapi.FileSource{Path: opts.file}, nil
	case opts.url != "":
		return sqcbapi.NewClient(opts.url, cfg.SQCBAPITimeout), nil
	case cfg.FixturePath != "":
		return sqcbapi.FileSource{Path: cfg.FixturePath}, nil
	case cfg.SQCBAPIURL != "":
		return sqcbapi.NewClient(cfg.SQCBAPIURL, cfg.SQCBAPITimeout), nil
	}
	return nil, errors.New("no record source: pass --file or --url")
}

func writeSummary(out io.Writer, result service.AggregateResult) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "CATEGORY\tCOUNT\tAMOUNT\t\n")
	for _, name := range service.Categories() {
		c := result.Categories[name]
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", c.Title, c.Count, c.TotalAmount.StringFixed(2))
	}
	fmt.Fprintf(w, "Total records\t%d\t\t\n", result.Total)
	return w.Flush()
}
