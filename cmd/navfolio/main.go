// navfolio values a mutual fund transaction history: FIFO cost basis,
// realized and unrealized gains, and the annualised return (XIRR).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/navfolio/internal/app"
	"github.com/bobmcallan/navfolio/internal/common"
)

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()
	common.LoadVersionFromBuildInfo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "navfolio",
		Short: "Fund portfolio valuation",
		Long: `navfolio reads a consolidated account statement, matches redemptions
against purchase lots first-in first-out, prices the remaining units and
reports gains and the annualised return.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.AddCommand(valueCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

type valueOptions struct {
	configPath string
	format     string
	chartPath  string
	asOf       string
	workers    int
	quiet      bool
}

func valueCmd() *cobra.Command {
	var opts valueOptions

	cmd := &cobra.Command{
		Use:   "value <statement>",
		Short: "Value a statement (.json, .yaml or .pdf)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValue(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file (defaults to NAVFOLIO_CONFIG or navfolio.toml)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Report format: markdown, plain or json")
	cmd.Flags().StringVar(&opts.chartPath, "chart", "", "Write an invested-vs-value PNG chart to this path")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "Valuation date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Concurrent price lookups")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the banner")

	return cmd
}

func runValue(cmd *cobra.Command, path string, opts valueOptions) error {
	a, err := app.NewApp(opts.configPath, func(c *common.Config) {
		if opts.format != "" {
			c.Report.Format = opts.format
		}
		if opts.chartPath != "" {
			c.Report.ChartPath = opts.chartPath
		}
		if opts.asOf != "" {
			c.Valuation.AsOf = opts.asOf
		}
		if opts.workers > 0 {
			c.Prices.Workers = opts.workers
		}
	})
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	if !opts.quiet && a.Config.Report.Format != common.ReportFormatJSON {
		common.PrintBanner(cmd.ErrOrStderr(), a.Config, a.Logger, path)
	}

	return a.Run(cmd.Context(), path, cmd.OutOrStdout())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "navfolio %s\n", common.GetFullVersion())
		},
	}
}
