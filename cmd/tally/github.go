package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/tally/internal/config"
	"github.com/alecgard/tally/internal/focus"
	"github.com/alecgard/tally/internal/run"
)

var (
	githubDate   string
	githubYear   int
	githubMonth  int
	githubDryRun bool
)

var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "Collect GitHub billing costs",
	Long:  "Fetches the organization's billing usage from GitHub, attributes repository costs to services via repository topics, and uploads FOCUS cost records to Datadog. Defaults to yesterday; --year/--month processes a whole month.",
	RunE:  runGitHub,
}

func init() {
	githubCmd.Flags().StringVar(&githubDate, "date", "", "date to process (YYYY-MM-DD, default: yesterday)")
	githubCmd.Flags().IntVar(&githubYear, "year", 0, "year to process (with --month)")
	githubCmd.Flags().IntVar(&githubMonth, "month", 0, "month to process (1-12, with --year)")
	githubCmd.Flags().BoolVar(&githubDryRun, "dry-run", false, "compute and print records without uploading")
	rootCmd.AddCommand(githubCmd)
}

func runGitHub(cmd *cobra.Command, args []string) error {
	setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(config.JobGitHub, githubDryRun); err != nil {
		return err
	}

	period, err := githubPeriod()
	if err != nil {
		return err
	}

	src, err := buildSource(cfg, config.JobGitHub)
	if err != nil {
		return err
	}

	return execute(cmd.Context(), cfg, src, period, githubDryRun)
}

func githubPeriod() (focus.Period, error) {
	monthly := githubYear != 0 || githubMonth != 0
	switch {
	case githubDate != "" && monthly:
		return focus.Period{}, fmt.Errorf("--date and --year/--month are mutually exclusive")
	case githubDate != "":
		return run.ParseDay(githubDate)
	case monthly:
		return run.ParseMonth(githubYear, githubMonth)
	default:
		return run.Yesterday(time.Now()), nil
	}
}
