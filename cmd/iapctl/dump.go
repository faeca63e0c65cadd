package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-stm32iap/iap"
)

func newDumpCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump ADDR LEN",
		Short: "Hex dump flash content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			length, err := strconv.ParseUint(args[1], 0, 32)
			if err != nil {
				return fmt.Errorf("invalid length %q: %w", args[1], err)
			}

			dev, region, err := opts.openDevice()
			if err != nil {
				return err
			}
			drv, err := iap.NewDriver(dev, region)
			if err != nil {
				return err
			}

			buf := make([]byte, length)
			n, err := drv.Read(addr, buf)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "0x%08X:\n%s", addr, hex.Dump(buf[:n]))
			return nil
		},
	}
}
