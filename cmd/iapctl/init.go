package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-stm32iap/sim"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a blank simulated device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sim.Exists(opts.deviceDir) && !force {
				return fmt.Errorf("device already exists in %s (use --force to overwrite)", opts.deviceDir)
			}

			region, err := opts.region()
			if err != nil {
				return err
			}
			dev, err := sim.New(region)
			if err != nil {
				return err
			}
			if err := dev.Save(opts.deviceDir); err != nil {
				return err
			}

			opts.printInfo(cmd, "Created blank device in %s\n", opts.deviceDir)
			opts.printVerbose(cmd, "Layout: %s\n", region)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing device")
	return cmd
}
