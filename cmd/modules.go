package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sniffkit/sniffd/internal/analysis"
	_ "github.com/sniffkit/sniffd/internal/analysis/protostats"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the registered analysis modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tDESCRIPTION")
		for _, m := range analysis.List() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name(), m.Version(), m.Description())
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}
