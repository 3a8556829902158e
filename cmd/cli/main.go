package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"molintel/adapters/excel"
	"molintel/domain/compound"
	"molintel/internal/config"
	"molintel/internal/container"
	"molintel/internal/dashboard"
	"molintel/internal/export"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "molintel-cli",
		Short: "Query and export the compound registry from the terminal",
	}

	rootCmd.AddCommand(
		newQueryCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// filterFlags mirror the dashboard's query parameters
type filterFlags struct {
	search   string
	names    []string
	namesSet bool
	mwMin    string
	mwMax    string
	logpMin  string
	logpMax  string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "Case-insensitive substring of the compound name")
	cmd.Flags().StringArrayVar(&f.names, "name", nil, "Restrict to these compound names (repeatable, commas are part of the name)")
	cmd.Flags().BoolVar(&f.namesSet, "names-set", false, "Treat the name list as present even when empty (matches nothing)")
	cmd.Flags().StringVar(&f.mwMin, "mw-min", "", "Minimum molecular weight (inclusive)")
	cmd.Flags().StringVar(&f.mwMax, "mw-max", "", "Maximum molecular weight (inclusive)")
	cmd.Flags().StringVar(&f.logpMin, "logp-min", "", "Minimum LogP (inclusive)")
	cmd.Flags().StringVar(&f.logpMax, "logp-max", "", "Maximum LogP (inclusive)")
}

func (f *filterFlags) criteria() (compound.Criteria, error) {
	values := url.Values{}
	values.Set(dashboard.ParamSearch, f.search)
	values[dashboard.ParamNames] = f.names
	if f.namesSet {
		values.Set(dashboard.ParamNameSet, "1")
	}
	values.Set(dashboard.ParamMWMin, f.mwMin)
	values.Set(dashboard.ParamMWMax, f.mwMax)
	values.Set(dashboard.ParamLogPMin, f.logpMin)
	values.Set(dashboard.ParamLogPMax, f.logpMax)
	return dashboard.ParseCriteria(values)
}

func newQueryCmd() *cobra.Command {
	var filters filterFlags
	var limit int
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print metrics and the filtered compound table",
		Long: `Run one dashboard pass and print it.

Example: molintel-cli query --search caf --mw-min 150 --mw-max 200
         molintel-cli query --watch 60s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}
			return runQuery(cmd.Context(), cmd.OutOrStdout(), criteria, limit, watch)
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum rows to print (0 prints all)")
	cmd.Flags().DurationVar(&watch, "watch", 0, "Re-run the pass on this interval until interrupted")
	return cmd
}

func newExportCmd() *cobra.Command {
	var filters filterFlags
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered view as CSV or XLSX",
		Long: `Export the filtered compound view.

Example: molintel-cli export --format xlsx --logp-min 0 --out report.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), criteria, format, out)
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "Output path (defaults to chemical_master_report.<format>)")
	return cmd
}

func setup(ctx context.Context) (*container.Container, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return container.New(ctx, cfg)
}

func runQuery(ctx context.Context, w io.Writer, criteria compound.Criteria, limit int, watch time.Duration) error {
	c, err := setup(ctx)
	if err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	if watch <= 0 {
		result := c.Dashboard.Run(ctx, dashboard.Request{Criteria: criteria})
		renderPass(w, result, limit)
		if result.Outcome.Status == dashboard.StatusFatal {
			return fmt.Errorf("%s", result.Outcome.Message)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	ticker := time.NewTicker(watch)
	defer ticker.Stop()
	for {
		renderPass(w, c.Dashboard.Run(ctx, dashboard.Request{Criteria: criteria}), limit)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprintln(w)
		}
	}
}

// renderPass prints the metric cards, any diagnostic and the table
func renderPass(w io.Writer, result dashboard.PassResult, limit int) {
	health := "LIVE"
	if !result.Outcome.OK() {
		health = "DEGRADED"
	}
	fmt.Fprintf(w, "Pass %s at %s (%s)\n", result.ID, result.StartedAt.Format(time.RFC3339), result.Elapsed.Round(time.Millisecond))
	if result.Outcome.Message != "" {
		fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(string(result.Outcome.Status)), result.Outcome.Message)
	}

	metrics := tablewriter.NewWriter(w)
	metrics.SetHeader([]string{"Active Records", "Avg Mol. Weight", "Peak LogP", "Pipeline Health"})
	metrics.Append([]string{
		strconv.Itoa(result.Metrics.Count),
		result.Metrics.MeanMW.Round(1),
		result.Metrics.MaxLogP.Round(2),
		health,
	})
	metrics.Render()

	rows := result.View.Compounds
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(result.View.Columns)
	for _, c := range rows {
		record := make([]string, len(result.View.Columns))
		for i, col := range result.View.Columns {
			record[i] = c.Value(col)
		}
		table.Append(record)
	}
	table.Render()

	if len(rows) < result.View.Len() {
		fmt.Fprintf(w, "... %d more rows (use --limit 0 to print all)\n", result.View.Len()-len(rows))
	}
	if result.Load.Dropped > 0 {
		fmt.Fprintf(w, "%d rows dropped for non-numeric MW or LogP\n", result.Load.Dropped)
	}
}

func runExport(ctx context.Context, criteria compound.Criteria, format, out string) error {
	format = strings.ToLower(format)
	var write func(io.Writer, compound.View) error
	switch format {
	case "csv":
		write = export.WriteCSV
		if out == "" {
			out = export.CSVFileName
		}
	case "xlsx":
		write = excel.WriteWorkbook
		if out == "" {
			out = excel.WorkbookFileName
		}
	default:
		return fmt.Errorf("unsupported format %q (use csv or xlsx)", format)
	}

	c, err := setup(ctx)
	if err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	result := c.Dashboard.Run(ctx, dashboard.Request{Criteria: criteria})
	if result.Outcome.Status == dashboard.StatusFatal {
		return fmt.Errorf("%s", result.Outcome.Message)
	}
	if result.Outcome.Message != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", result.Outcome.Message)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := write(f, result.View); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}

	fmt.Printf("Wrote %d compounds to %s\n", result.View.Len(), out)
	return nil
}
