package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-stm32iap/hal"
	"github.com/moffa90/go-stm32iap/iap"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the write protection status of the application region",
		Long: `Show the write protection status of the application region.

Only WRP is evaluated; "none" does not rule out PCROP or RDP read-out protection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, region, err := opts.openDevice()
			if err != nil {
				return err
			}

			prot, err := iap.NewProtection(dev, region)
			if err != nil {
				return err
			}

			status := prot.Status()
			ob := dev.ReadOptionBytes(hal.WRPZoneA)

			if opts.jsonOut {
				return printJSON(cmd, map[string]interface{}{
					"protection": status.String(),
					"wrp_start":  ob.WRP.StartOffset,
					"wrp_end":    ob.WRP.EndOffset,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Protection: %s\n", status)
			opts.printVerbose(cmd, "WRP zone A: start=%d end=%d\n", ob.WRP.StartOffset, ob.WRP.EndOffset)
			return nil
		},
	}
}
