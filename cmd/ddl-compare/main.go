// Package main implements a command-line tool for comparing the column-level
// DDL of two Oracle databases. It connects to both databases, fetches column
// metadata for the configured schemas, computes the differences, and writes
// them to a multi-sheet Excel workbook.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/agustin/oracle_ddl_compare/pkg/compare"
	"github.com/agustin/oracle_ddl_compare/pkg/config"
	"github.com/agustin/oracle_ddl_compare/pkg/report"
	"github.com/agustin/oracle_ddl_compare/pkg/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ddl-compare",
	Short: "Compare the column DDL of two Oracle databases",
	Long: `A tool to compare table column definitions between two Oracle databases
and write the differences to an Excel report.

The configuration file names the two databases (oracle_db1, oracle_db2),
selects which of them is the primary reference side, and sets the output
path. The report has three sheets: columns that differ, columns only in
the primary database, and columns only in the secondary database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(viper.GetBool("verbose"))

		cfg, err := config.Load(viper.GetString("config"))
		if err != nil {
			return err
		}

		// The primary configuration always maps to DB1 in the report.
		primaryCfg, secondaryCfg := cfg.Roles(logger)

		ctx := context.Background()

		primary, err := schema.Connect(ctx, primaryCfg, logger)
		if err != nil {
			return err
		}
		defer primary.Close()

		secondary, err := schema.Connect(ctx, secondaryCfg, logger)
		if err != nil {
			return err
		}
		defer secondary.Close()

		first, err := primary.FetchColumns(ctx)
		if err != nil {
			return err
		}
		second, err := secondary.FetchColumns(ctx)
		if err != nil {
			return err
		}

		result := compare.New(logger).Compare(first, second)

		configured := viper.GetString("output")
		if configured == "" {
			configured = cfg.ResultExcelPath
		}
		path, err := report.ResolvePath(configured)
		if err != nil {
			return err
		}

		return report.NewWriter(logger).Write(result, path)
	},
}

// newLogger builds the logger handed to every component of the pipeline.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// init initializes the command-line flags and binds them to viper so they
// can also be set through DDLCOMPARE_* environment variables.
func init() {
	rootCmd.Flags().String("config", "config.yaml", "Path to the YAML configuration file")
	rootCmd.Flags().String("output", "", "Result path, overrides result_excel_path from the config")
	rootCmd.Flags().Bool("verbose", false, "Enable debug logging")

	viper.BindPFlags(rootCmd.Flags())
	viper.SetEnvPrefix("DDLCOMPARE")
	viper.AutomaticEnv()
}

// main is the entry point of the application.
func main() {
	// load the .env file if it exists
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		slog.Error("comparison run failed", "error", err)
		os.Exit(1)
	}
}
