package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sniffkit/sniffd/internal/pcapfile"
	"github.com/sniffkit/sniffd/internal/rotator"
)

var (
	filesIface string
	filesDate  string
	filesCount bool
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List rotated capture files under the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		entries, err := rotator.ListFiles(cfg.Storage.DataDir, filesIface, filesDate)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		if filesCount {
			fmt.Fprintln(w, "FILE\tSIZE\tPACKETS")
			for _, e := range entries {
				n, err := pcapfile.CountFrames(e.Path)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\n", e.Path, e.SizeBytes, n)
			}
		} else {
			fmt.Fprintln(w, "FILE\tINTERFACE\tWINDOW\tSIZE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s_%s\t%d\n", e.Path, e.Interface, e.Date, e.Hour, e.SizeBytes)
			}
		}
		return w.Flush()
	},
}

func init() {
	filesCmd.Flags().StringVarP(&filesIface, "interface", "i", "", "filter by interface")
	filesCmd.Flags().StringVarP(&filesDate, "date", "d", "", "filter by date (YYYY-MM-DD)")
	filesCmd.Flags().BoolVar(&filesCount, "count", false, "include per-file packet counts")
	rootCmd.AddCommand(filesCmd)
}
