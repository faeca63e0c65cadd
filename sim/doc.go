// Package sim simulates an STM32G0 flash peripheral.
//
// Device implements hal.Device over an in-memory flash array and option-byte
// set with the behaviour the IAP core depends on:
//   - the control register is locked at reset; erase and program fail with
//     hal.ErrLocked until Unlock
//   - erased bytes read 0xFF; programming a unit that is not erased fails with PROGERR
//   - pages inside an enabled WRP zone reject erase and program with WRPERR
//   - option bytes need both the flash and the option-byte interface unlocked
//
// Faults can be injected per operation, and every call is counted so tests can
// check the lock discipline of the code under test.
//
// A device can be persisted to a directory (flash.hex + options.yaml) and loaded
// back, which is how cmd/iapctl keeps state between invocations.
package sim
