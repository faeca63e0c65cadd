package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-stm32iap/iap"
)

func newProtectCmd(opts *globalOptions) *cobra.Command {
	var launch bool

	cmd := &cobra.Command{
		Use:       "protect enable|disable",
		Short:     "Enable or disable write protection of the application region",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"enable", "disable"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enable bool
			switch args[0] {
			case "enable", "on":
				enable = true
			case "disable", "off":
				enable = false
			default:
				return fmt.Errorf("unknown protection state %q: want enable or disable", args[0])
			}

			dev, region, err := opts.openDevice()
			if err != nil {
				return err
			}

			prot, err := iap.NewProtection(dev, region,
				iap.WithLogger(opts.logger(cmd.ErrOrStderr())),
				iap.WithLaunchAfterProtect(launch),
			)
			if err != nil {
				return err
			}

			if err := prot.SetProtection(enable); err != nil {
				return err
			}
			if err := dev.Save(opts.deviceDir); err != nil {
				return err
			}

			opts.printInfo(cmd, "Write protection: %s\n", prot.Status())
			return nil
		},
	}

	cmd.Flags().BoolVar(&launch, "launch", false, "Reload option bytes after programming them (resets the device)")
	return cmd
}
