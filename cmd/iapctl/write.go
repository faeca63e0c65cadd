package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-stm32iap/flashmap"
	"github.com/moffa90/go-stm32iap/hal"
	"github.com/moffa90/go-stm32iap/iap"
	"github.com/moffa90/go-stm32iap/image"
)

func newWriteCmd(opts *globalOptions) *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "write FILE",
		Short: "Program an image into already-erased flash without erasing",
		Long: `Program FILE (Intel HEX, or raw binary placed at --addr) with a single
driver write per run of program units. The target must already be erased.`,
		Args: cobra.ExactArgs(1),
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

			drv, err := iap.NewDriver(dev, region, iap.WithLogger(opts.logger(cmd.ErrOrStderr())))
			if err != nil {
				return err
			}

			total := 0
			var writeErr error
			for _, run := range unitRuns(img.Segments(), region) {
				data := img.Flatten(run.start, run.end, hal.ErasedByte)

				n, err := drv.Write(run.start, data)
				total += n
				if err != nil {
					writeErr = err
					break
				}
				if n < len(data) {
					writeErr = fmt.Errorf("write stopped at 0x%08X: %d of %d bytes programmed", run.start+uint32(n), n, len(data))
					break
				}
				opts.printVerbose(cmd, "Wrote %d bytes at 0x%08X\n", n, run.start)
			}

			// Keep whatever prefix was programmed, as the hardware would
			if err := dev.Save(opts.deviceDir); err != nil {
				return err
			}
			if writeErr != nil {
				return writeErr
			}

			opts.printInfo(cmd, "Programmed %d bytes\n", total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&addrFlag, "addr", "a", "", "Load address for raw binary files (default: application start)")
	return cmd
}

// unitRun is a span of image data starting on a program-unit boundary.
type unitRun struct {
	start, end uint32
}

// unitRuns groups address-ordered segments into runs so that no program unit is
// shared by two runs. Each unit is then programmed exactly once.
func unitRuns(segs []image.Segment, region flashmap.Region) []unitRun {
	alignDown := func(addr uint32) uint32 {
		return addr - (addr-region.FlashBase)%region.ProgramUnit
	}

	var runs []unitRun
	for _, seg := range segs {
		if len(seg.Data) == 0 {
			continue
		}
		start := alignDown(seg.Address)
		end := seg.Address + uint32(len(seg.Data))

		if n := len(runs); n > 0 && start <= alignDown(runs[n-1].end-1) {
			if end > runs[n-1].end {
				runs[n-1].end = end
			}
			continue
		}
		runs = append(runs, unitRun{start: start, end: end})
	}
	return runs
}
