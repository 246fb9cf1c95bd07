// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sniffkit/sniffd/internal/config"
	"github.com/sniffkit/sniffd/internal/log"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "sniffd",
	Short: "sniffd - continuous packet capture with hourly rotation and offline analysis",
	Long: `sniffd continuously captures traffic on a network interface, writes it
to hourly-rotated pcap files under a date-partitioned directory tree,
and schedules pluggable analysis modules against each closed capture
file.

Examples:
  sniffd capture -i eth0                    # capture with defaults
  sniffd capture -c /etc/sniffd/config.yaml # capture with config file
  sniffd inspect data/2026-08-30/eth0_2026-08-30_10.pcap
  sniffd analyze data/2026-08-30/eth0_2026-08-30_10.pcap
  sniffd modules                            # list analysis modules`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path")
}

// loadConfig returns the file-based config when --config was given,
// otherwise the built-in defaults.
func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

// initLogging applies the log section. Errors are reported but not
// fatal; the default logger keeps working.
func initLogging(cfg *config.Config) {
	if err := log.Init(cfg.Log); err != nil {
		log.WithError(err).Warn("log init failed, using defaults")
	}
}
