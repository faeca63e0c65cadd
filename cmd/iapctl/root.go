package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-stm32iap/flashmap"
	"github.com/moffa90/go-stm32iap/iap"
	"github.com/moffa90/go-stm32iap/sim"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	deviceDir string
	boardPath string
	verbose   bool
	quiet     bool
	jsonOut   bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "iapctl",
		Short: "Erase, program and protect the application flash of a simulated STM32G0",
		Long: `iapctl runs the in-application-programming flash core against a simulated
STM32G0 flash peripheral stored in a directory (flash.hex + options.yaml).
It erases, programs and verifies the application region and manages its
write protection the same way the on-device loader does.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.deviceDir, "device", "d", "device", "Simulated device directory")
	rootCmd.PersistentFlags().StringVarP(&opts.boardPath, "board", "b", "", "Board layout YAML file (default STM32G0x1)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		newInitCmd(opts),
		newEraseCmd(opts),
		newWriteCmd(opts),
		newProgramCmd(opts),
		newProtectCmd(opts),
		newStatusCmd(opts),
		newDumpCmd(opts),
		newLayoutCmd(opts),
	)

	return rootCmd
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if code, ok := iap.CodeOf(err); ok && code != iap.Ok {
			fmt.Fprintln(os.Stderr, "Code:", code)
		}
		stop()
		os.Exit(1)
	}
}

// region returns the board layout selected by --board.
func (o *globalOptions) region() (flashmap.Region, error) {
	if o.boardPath == "" {
		return flashmap.STM32G0x1, nil
	}
	cfg, err := flashmap.LoadConfig(o.boardPath)
	if err != nil {
		return flashmap.Region{}, err
	}
	return cfg.Flash, nil
}

// openDevice loads the simulated device and its layout.
func (o *globalOptions) openDevice() (*sim.Device, flashmap.Region, error) {
	region, err := o.region()
	if err != nil {
		return nil, region, err
	}
	if !sim.Exists(o.deviceDir) {
		return nil, region, fmt.Errorf("no device in %s, run 'iapctl init' first", o.deviceDir)
	}
	dev, err := sim.Load(o.deviceDir, region)
	if err != nil {
		return nil, region, err
	}
	return dev, region, nil
}

// logger builds the IAP logger for the selected verbosity.
func (o *globalOptions) logger(w io.Writer) iap.Logger {
	level := slog.LevelWarn
	switch {
	case o.quiet:
		level = slog.LevelError
	case o.verbose:
		level = slog.LevelDebug
	}
	return iap.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// printInfo prints an info message if not in quiet mode
func (o *globalOptions) printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	if !o.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func (o *globalOptions) printVerbose(cmd *cobra.Command, format string, args ...interface{}) {
	if o.verbose && !o.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// parseAddress parses a decimal or 0x-prefixed 32-bit address
func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}
