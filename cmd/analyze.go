package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sniffkit/sniffd/internal/analysis"
	_ "github.com/sniffkit/sniffd/internal/analysis/protostats"
	"github.com/sniffkit/sniffd/internal/log"
)

var (
	analyzeIface  string
	analyzeWindow string
	analyzeOutput string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.pcap>",
	Short: "Run the enabled analysis modules against a capture file",
	Long: `Run analysis modules once against a single capture file. Interface
and time window default to values parsed from a rotated filename of
the form {iface}_{YYYY-MM-DD}_{HH}.pcap.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		initLogging(cfg)

		path := args[0]
		iface, window := analyzeIface, analyzeWindow
		if iface == "" || window == "" {
			pIface, pWindow, ok := parseCaptureName(filepath.Base(path))
			if iface == "" {
				iface = pIface
			}
			if window == "" {
				window = pWindow
			}
			if !ok && (iface == "" || window == "") {
				return fmt.Errorf("cannot derive interface/window from %q: set --interface and --window", path)
			}
		}

		outputDir := analyzeOutput
		if outputDir == "" {
			outputDir = cfg.Analysis.OutputDir
		}

		modules := analysis.List()
		if len(cfg.Analysis.EnabledModules) > 0 {
			modules = modules[:0]
			for _, name := range cfg.Analysis.EnabledModules {
				m, err := analysis.Get(name)
				if err != nil {
					log.WithField("module", name).Warn("enabled module not registered, skipping")
					continue
				}
				modules = append(modules, m)
			}
		}

		out := cmd.OutOrStdout()
		for _, m := range modules {
			summary, err := m.Analyze(path, outputDir, iface, window)
			if err != nil {
				log.WithError(err).WithField("module", m.Name()).Error("module failed")
				continue
			}
			fmt.Fprintf(out, "%s: %d packets analyzed, %d hits (%.2fs)\n",
				m.Name(), summary.AnalyzedPackets, summary.TotalHits, summary.DurationSec)
		}
		return nil
	},
}

// parseCaptureName splits {iface}_{YYYY-MM-DD}_{HH}.pcap. The
// interface itself may contain underscores.
func parseCaptureName(name string) (iface, window string, ok bool) {
	stem, found := strings.CutSuffix(name, ".pcap")
	if !found {
		return "", "", false
	}
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return "", "", false
	}
	date, hour := parts[len(parts)-2], parts[len(parts)-1]
	iface = strings.Join(parts[:len(parts)-2], "_")
	if iface == "" {
		return "", "", false
	}
	return iface, date + "_" + hour, true
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeIface, "interface", "i", "", "interface label for artifacts")
	analyzeCmd.Flags().StringVarP(&analyzeWindow, "window", "w", "", "time window label (YYYY-MM-DD_HH)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "artifact output directory")
	rootCmd.AddCommand(analyzeCmd)
}
