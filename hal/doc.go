// Package hal defines the flash-controller capabilities the IAP core orchestrates.
//
// # Overview
//
// The register-level primitives of an STM32G0 flash controller are modelled as two
// interfaces rather than package-level functions:
//   - Controller: unlock/lock, status-flag clearing, multi-page erase, program-unit
//     programming and memory-mapped read-back (io.ReaderAt, offsets are absolute addresses)
//   - OptionByteController: unlock/lock of the option-byte interface, reading and
//     programming the option bytes, and the option-byte reload request
//
// Device combines both, matching a single physical flash peripheral.
//
// Every method blocks until the hardware action completes. Implementations are not
// required to be safe for concurrent use; callers serialize access.
//
// # Errors
//
// A controller that completes an operation with error bits set in its status register
// returns a *StatusError naming the operation and the flags:
//
//	if err := ctrl.Program(addr, unit); err != nil {
//	    var se *hal.StatusError
//	    if errors.As(err, &se) && se.Flags.Has(hal.FlagWRPERR) {
//	        // target page is write protected
//	    }
//	}
//
// Operations attempted while the controller is locked fail with ErrLocked.
package hal
