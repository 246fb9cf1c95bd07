package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sniffkit/sniffd/internal/core/decoder"
	"github.com/sniffkit/sniffd/internal/pcapfile"
)

var inspectCountOnly bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.pcap>",
	Short: "Decode and print the packets of a capture file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		if inspectCountOnly {
			n, err := pcapfile.CountFrames(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n)
			return nil
		}

		r, err := pcapfile.OpenReader(path)
		if err != nil {
			return err
		}
		defer r.Close()

		out := cmd.OutOrStdout()
		for {
			frame, err := r.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}

			pkt := decoder.Decode(frame.Data)
			ts := time.Unix(int64(frame.TsSec), int64(frame.TsUsec)*1000).UTC()

			src, dst := pkt.SrcAddr, pkt.DstAddr
			if src == "" {
				src = "-"
			}
			if dst == "" {
				dst = "-"
			}
			fmt.Fprintf(out, "%6d  %s  %-8s %s → %s  %s\n",
				frame.Seq,
				ts.Format("15:04:05.000000"),
				pkt.ProtocolName,
				src, dst,
				pkt.Info,
			)
		}
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectCountOnly, "count", false, "print only the packet count")
	rootCmd.AddCommand(inspectCmd)
}
