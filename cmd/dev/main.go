package main

import (
	"context"
	"fmt"
	"os"

	"molintel/adapters/sqlstore"
	"molintel/internal/cache"
	"molintel/internal/config"
	"molintel/internal/dashboard"
	"molintel/internal/engine"
	"molintel/internal/loader"
	"molintel/internal/migration"
	"molintel/internal/testkit"
	"molintel/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "molintel-dev",
		Short: "Molecular Intelligence development tools",
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newSmokeTestCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMigrateCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the compound table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, db *sqlx.DB, cfg *config.Config) error {
				runner := migration.NewRunner(cfg.Database.Table)
				if reset {
					if err := runner.Reset(ctx, db); err != nil {
						return err
					}
					fmt.Printf("Dropped %s\n", cfg.Database.Table)
				}
				if err := runner.Run(ctx, db); err != nil {
					return err
				}
				fmt.Printf("Migrated %s (schema %s)\n", cfg.Database.Table, runner.Version())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop the table before creating it")
	return cmd
}

func newSeedCmd() *cobra.Command {
	genConfig := testkit.DefaultCompoundConfig()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert deterministic demo compounds",
		Long: `Insert the reference compounds plus synthetic ones. A share of the
synthetic rows carry non-numeric MW or LogP so the loader's coercion
has something to drop.

Example: molintel-dev seed --count 500 --invalid-rate 0.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, db *sqlx.DB, cfg *config.Config) error {
				runner := migration.NewRunner(cfg.Database.Table)
				if err := runner.Run(ctx, db); err != nil {
					return err
				}
				table := testkit.NewCompoundGenerator(genConfig).GenerateTable()
				n, err := runner.Seed(ctx, db, table)
				if err != nil {
					return err
				}
				fmt.Printf("Seeded %d rows into %s\n", n, cfg.Database.Table)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&genConfig.SyntheticCount, "count", genConfig.SyntheticCount, "Number of synthetic compounds")
	cmd.Flags().Float64Var(&genConfig.InvalidRate, "invalid-rate", genConfig.InvalidRate, "Share of synthetic rows with unparseable MW or LogP")
	cmd.Flags().BoolVar(&genConfig.IncludeReference, "reference", genConfig.IncludeReference, "Include the reference compounds")
	cmd.Flags().Int64Var(&genConfig.Seed, "seed", genConfig.Seed, "Random seed for deterministic output")
	return cmd
}

func newSmokeTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Run smoke tests against the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), runSmokeTests)
		},
	}
}

func withDatabase(ctx context.Context, fn func(context.Context, *sqlx.DB, *config.Config) error) error {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db, cfg)
}

func runSmokeTests(ctx context.Context, db *sqlx.DB, cfg *config.Config) error {
	fmt.Println("Running smoke tests...")

	source := sqlstore.NewCompoundSource(db, cfg.Database.Table)

	tests := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"fetch_all", func(ctx context.Context) error {
			raw, err := source.FetchAll(ctx)
			if err != nil {
				return err
			}
			if len(raw.Rows) == 0 {
				return fmt.Errorf("%s is empty", cfg.Database.Table)
			}
			return nil
		}},
		{"dashboard_pass", func(ctx context.Context) error {
			result, err := dashboardPass(ctx, source, cfg)
			if err != nil {
				return err
			}
			if result.Metrics.Count == 0 {
				return fmt.Errorf("no compounds survived coercion")
			}
			return nil
		}},
		{"full_range_is_identity", func(ctx context.Context) error {
			full, err := dashboardPass(ctx, source, cfg)
			if err != nil {
				return err
			}
			bounded, _ := engine.Apply(full.View.AsDataset(), engine.DefaultCriteria(full.Bounds))
			if bounded.Len() != full.View.Len() {
				return fmt.Errorf("default ranges kept %d of %d compounds", bounded.Len(), full.View.Len())
			}
			return nil
		}},
	}

	passed := 0
	for _, test := range tests {
		fmt.Printf("  Running %s...", test.name)
		if err := test.fn(ctx); err != nil {
			fmt.Printf(" FAILED: %v\n", err)
		} else {
			fmt.Println(" PASSED")
			passed++
		}
	}

	fmt.Printf("\nSmoke tests: %d/%d passed\n", passed, len(tests))
	if passed < len(tests) {
		return fmt.Errorf("some smoke tests failed")
	}
	return nil
}

// dashboardPass runs one uncached pass the way the server does
func dashboardPass(ctx context.Context, source ports.CompoundSource, cfg *config.Config) (dashboard.PassResult, error) {
	service := dashboard.NewService(cache.NewMemo(loader.New(source, cfg.Dashboard.SortByMW), 0))
	result := service.Run(ctx, dashboard.Request{})
	if !result.Outcome.OK() {
		return result, fmt.Errorf("%s", result.Outcome.Message)
	}
	return result, nil
}
