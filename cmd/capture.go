package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sniffkit/sniffd/internal/analysis"
	_ "github.com/sniffkit/sniffd/internal/analysis/protostats"
	"github.com/sniffkit/sniffd/internal/capture"
	"github.com/sniffkit/sniffd/internal/log"
	"github.com/sniffkit/sniffd/internal/rotator"
)

var (
	captureIface   string
	captureFilter  string
	captureSnaplen uint32
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture continuously, rotating pcap files hourly",
	Long: `Capture packets on an interface and write them to hourly-rotated
pcap files under {data_dir}/{YYYY-MM-DD}/. Each closed file is queued
for the enabled analysis modules. Runs until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if captureIface != "" {
			cfg.Capture.Interface = captureIface
		}
		if captureFilter != "" {
			cfg.Capture.BPFFilter = captureFilter
		}
		if captureSnaplen != 0 {
			cfg.Capture.Snaplen = captureSnaplen
		}
		if cfg.Capture.Interface == "" {
			return fmt.Errorf("no capture interface: set --interface or capture.interface")
		}
		initLogging(cfg)

		runner := analysis.NewRunner(analysis.Options{
			OutputDir:      cfg.Analysis.OutputDir,
			EnabledModules: cfg.Analysis.EnabledModules,
			Workers:        cfg.Analysis.Workers,
			QueueSize:      cfg.Analysis.QueueSize,
		})
		if err := runner.Start(); err != nil {
			return err
		}

		rot := rotator.New(rotator.Options{
			BaseDir:       cfg.Storage.DataDir,
			Interface:     cfg.Capture.Interface,
			Snaplen:       cfg.Capture.Snaplen,
			RetentionDays: cfg.Storage.RetentionDays,
			BatchSize:     cfg.Storage.BatchSize,
			OnRotate: func(path, iface, window string) {
				_ = runner.Enqueue(analysis.NewJob(path, iface, window, 0))
			},
		})

		source := capture.NewPcapSource(capture.PcapSourceConfig{
			Interface:   cfg.Capture.Interface,
			Snaplen:     int(cfg.Capture.Snaplen),
			Promiscuous: cfg.Capture.Promiscuous,
			BPFFilter:   cfg.Capture.BPFFilter,
			BufferSize:  cfg.BufferSize(),
		})

		engine := capture.NewEngine(source, capture.Options{
			Interface: cfg.Capture.Interface,
			QueueSize: cfg.QueueSize(),
			Rotator:   rot,
		})
		if err := engine.Setup(); err != nil {
			return fmt.Errorf("capture setup: %w", err)
		}
		if err := engine.Start(); err != nil {
			return err
		}

		log.WithFields(map[string]interface{}{
			"interface": cfg.Capture.Interface,
			"data_dir":  cfg.Storage.DataDir,
			"profile":   cfg.Capture.Profile,
		}).Info("capture started")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("shutting down")

		engine.Stop()
		rot.Close()
		runner.Stop(true, 10*time.Second)

		stats := engine.Stats()
		log.WithFields(map[string]interface{}{
			"packets": stats.Packets,
			"bytes":   stats.Bytes,
			"dropped": stats.Dropped,
		}).Info("capture finished")
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureIface, "interface", "i", "", "interface to capture on")
	captureCmd.Flags().StringVarP(&captureFilter, "filter", "f", "", "BPF filter expression")
	captureCmd.Flags().Uint32Var(&captureSnaplen, "snaplen", 0, "per-packet capture length")
	rootCmd.AddCommand(captureCmd)
}
