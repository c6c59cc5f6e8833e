package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/tally/internal/config"
	"github.com/alecgard/tally/internal/run"
)

var (
	jobDate   string
	jobDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the job selected by the JOB environment variable",
	Long:  "Container entrypoint: dispatches to the GitHub or Neon collector based on the JOB environment variable (GITHUB or NEON). Defaults to processing yesterday.",
	RunE:  runJob,
}

func init() {
	runCmd.Flags().StringVar(&jobDate, "date", "", "date to process (YYYY-MM-DD, default: yesterday)")
	runCmd.Flags().BoolVar(&jobDryRun, "dry-run", false, "compute and print records without uploading")
	rootCmd.AddCommand(runCmd)
}

func runJob(cmd *cobra.Command, args []string) error {
	setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(cfg.Job, jobDryRun); err != nil {
		return err
	}

	period := run.Yesterday(time.Now())
	if jobDate != "" {
		period, err = run.ParseDay(jobDate)
		if err != nil {
			return err
		}
	}

	src, err := buildSource(cfg, cfg.Job)
	if err != nil {
		return err
	}

	return execute(cmd.Context(), cfg, src, period, jobDryRun)
}
