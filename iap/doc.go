// Package iap erases, programs, verifies and write-protects the application region
// of an STM32G0 flash for an in-application-programming loader.
//
// # Overview
//
// Three pieces cooperate:
//   - Driver: Erase and Write over a hal.Controller, each call a complete
//     unlock, operate, lock cycle with read-back verification of every program unit
//   - Protection: Status and SetProtection of the WRP zone covering the application
//   - Programmer: the full update sequence (unprotect, erase, chunked write, verify,
//     protect) on top of the two
//
// The address map comes from flashmap.Region; nothing about the board is hard-coded.
//
// # Basic Usage
//
// A transfer protocol receiving firmware in blocks drives the Driver directly:
//
//	drv, err := iap.NewDriver(ctrl, flashmap.STM32G0x1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := drv.Erase(flashmap.STM32G0x1.AppStart); err != nil {
//	    log.Fatal(err)
//	}
//
//	addr := flashmap.STM32G0x1.AppStart
//	for block := range blocks {
//	    n, err := drv.Write(addr, block)
//	    if err != nil {
//	        // addr+n is the first address not programmed
//	        log.Fatal(err)
//	    }
//	    addr += uint32(n)
//	}
//
// With a complete image at hand, Programmer does the same in one call:
//
//	img, _ := image.Parse("app.hex", flashmap.STM32G0x1.AppStart)
//	prog, _ := iap.NewProgrammer(dev, flashmap.STM32G0x1,
//	    iap.WithUnprotect(true),
//	    iap.WithProtectAfterProgram(true),
//	)
//	err := prog.Program(ctx, img)
//
// # Error Handling
//
// Failures are reported as *OpError values carrying one code of a closed set:
//   - EraseFailed: erase rejected by precondition or failed by the controller
//   - ProgramControlError: the controller rejected a program operation
//   - ProgramVerifyError: a unit did not read back as written
//   - ProtectionError: option-byte programming failed
//
// Test for a code with errors.Is or extract it with CodeOf:
//
//	if errors.Is(err, iap.ProgramVerifyError) {
//	    // data at the failing unit is suspect
//	}
//	code, _ := iap.CodeOf(err)
//
// Nothing is retried and nothing is rolled back: erased pages stay erased and a
// programmed prefix stays programmed. Regardless of outcome, the controller is
// locked when an operation returns.
//
// # Protection Status
//
// Status only evaluates the WRP mechanism. ProtectionPCROP and ProtectionRDP
// exist in the flag set but are never reported, so ProtectionNone is not proof
// that the region is unprotected in every sense.
//
// # Logging
//
// Plug any logger in through the Logger interface, or use log/slog:
//
//	drv, _ := iap.NewDriver(ctrl, region, iap.WithLogger(iap.NewSlogLogger(slog.Default())))
package iap
