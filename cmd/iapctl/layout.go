package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLayoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Show the flash layout in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := opts.region()
			if err != nil {
				return err
			}

			if opts.jsonOut {
				return printJSON(cmd, region)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Flash base:   0x%08X\n", region.FlashBase)
			fmt.Fprintf(out, "App start:    0x%08X (page %d)\n", region.AppStart, region.AppFirstPage())
			fmt.Fprintf(out, "End:          0x%08X (last page %d)\n", region.End, region.LastPage())
			fmt.Fprintf(out, "Page size:    %d\n", region.PageSize)
			fmt.Fprintf(out, "Program unit: %d\n", region.ProgramUnit)
			fmt.Fprintf(out, "Write limit:  0x%08X\n", region.WriteLimit())
			return nil
		},
	}
}
