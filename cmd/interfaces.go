package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sniffkit/sniffd/internal/capture"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List capturable network interfaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATE\tMAC")
		for _, name := range capture.ListInterfaces() {
			info, err := capture.GetInterfaceInfo(name)
			if err != nil {
				continue
			}
			state := "down"
			if info.Up {
				state = "up"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, state, info.MAC)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}
