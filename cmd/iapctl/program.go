package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-stm32iap/iap"
	"github.com/moffa90/go-stm32iap/image"
)

func newProgramCmd(opts *globalOptions) *cobra.Command {
	var (
		addrFlag  string
		protect   bool
		unprotect bool
		noVerify  bool
		chunkSize int
	)

	cmd := &cobra.Command{
		Use:   "program FILE",
		Short: "Erase the application region and install an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, region, err := opts.openDevice()
			if err != nil {
				return err
			}

			base := region.AppStart
			if addrFlag != "" {
				if base, err = parseAddress(addrFlag); err != nil {
					return err
				}
			}

			img, err := image.Parse(args[0], base)
			if err != nil {
				return err
			}

			prog, err := iap.NewProgrammer(dev, region,
				iap.WithLogger(opts.logger(cmd.ErrOrStderr())),
				iap.WithChunkSize(chunkSize),
				iap.WithVerifyAfterProgram(!noVerify),
				iap.WithProtectAfterProgram(protect),
				iap.WithUnprotect(unprotect),
				iap.WithProgressCallback(func(p iap.Progress) {
					opts.printVerbose(cmd, "[%-12s] %5.1f%% 0x%08X %d/%d bytes\n",
						p.Phase, p.Percentage, p.Address, p.BytesWritten, p.TotalBytes)
				}),
			)
			if err != nil {
				return err
			}

			progErr := prog.Program(cmd.Context(), img)
			if err := dev.Save(opts.deviceDir); err != nil {
				return err
			}
			if progErr != nil {
				return progErr
			}

			if opts.jsonOut {
				lo, hi := img.Bounds()
				return printJSON(cmd, map[string]interface{}{
					"start":      lo,
					"end":        hi,
					"bytes":      img.Size(),
					"crc16":      fmt.Sprintf("0x%04X", img.CRC16()),
					"protection": prog.Protection().Status().String(),
				})
			}
			opts.printInfo(cmd, "Programmed %d bytes, protection: %s\n", img.Size(), prog.Protection().Status())
			opts.printVerbose(cmd, "Image CRC-16: 0x%04X\n", img.CRC16())
			return nil
		},
	}

	cmd.Flags().StringVarP(&addrFlag, "addr", "a", "", "Load address for raw binary files (default: application start)")
	cmd.Flags().BoolVar(&protect, "protect", false, "Enable write protection after programming")
	cmd.Flags().BoolVar(&unprotect, "unprotect", false, "Remove write protection before erasing")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip the full read-back pass")
	cmd.Flags().IntVar(&chunkSize, "chunk", iap.DefaultChunkSize, "Bytes per driver write")

	return cmd
}
