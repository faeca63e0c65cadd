package main

import (
	"github.com/spf13/cobra"

	"github.com/moffa90/go-stm32iap/iap"
)

func newEraseCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "erase [ADDR]",
		Short: "Erase from ADDR (default: application start) to the end of the region",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, region, err := opts.openDevice()
			if err != nil {
				return err
			}

			start := region.AppStart
			if len(args) == 1 {
				if start, err = parseAddress(args[0]); err != nil {
					return err
				}
			}

			drv, err := iap.NewDriver(dev, region, iap.WithLogger(opts.logger(cmd.ErrOrStderr())))
			if err != nil {
				return err
			}

			if err := drv.Erase(start); err != nil {
				return err
			}
			if err := dev.Save(opts.deviceDir); err != nil {
				return err
			}

			opts.printInfo(cmd, "Erased %d pages from 0x%08X\n", region.PageCount(start), start)
			return nil
		},
	}
}
