package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "SaaS cost collector for Datadog Cloud Cost Management",
	Long:  "Tally fetches billing and usage data from SaaS providers (GitHub, Neon), normalizes it into FOCUS cost records, and uploads it to Datadog Cloud Cost Management. Each invocation processes one billing period for one provider and exits.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional, env vars override)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
