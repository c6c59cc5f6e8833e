package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/tally/internal/config"
	"github.com/alecgard/tally/internal/run"
)

var (
	neonDate   string
	neonDryRun bool
)

var neonCmd = &cobra.Command{
	Use:   "neon",
	Short: "Collect Neon database costs",
	Long:  "Fetches per-project consumption from the Neon API for one day, prices it with the published usage-based rates, and uploads FOCUS cost records to Datadog. Defaults to yesterday.",
	RunE:  runNeon,
}

func init() {
	neonCmd.Flags().StringVar(&neonDate, "date", "", "date to process (YYYY-MM-DD, default: yesterday)")
	neonCmd.Flags().BoolVar(&neonDryRun, "dry-run", false, "compute and print records without uploading")
	rootCmd.AddCommand(neonCmd)
}

func runNeon(cmd *cobra.Command, args []string) error {
	setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(config.JobNeon, neonDryRun); err != nil {
		return err
	}

	period := run.Yesterday(time.Now())
	if neonDate != "" {
		period, err = run.ParseDay(neonDate)
		if err != nil {
			return err
		}
	}

	src, err := buildSource(cfg, config.JobNeon)
	if err != nil {
		return err
	}

	return execute(cmd.Context(), cfg, src, period, neonDryRun)
}
