package hal

import "io"

// Controller is the flash controller of the main flash array.
//
// ReadAt reads memory-mapped flash; off is an absolute address.
type Controller interface {
	io.ReaderAt

	// Unlock enables write access to the flash control register.
	Unlock() error

	// Lock disables write access to the flash control register.
	Lock()

	// ClearFlags clears the given status flags.
	ClearFlags(flags Flags)

	// ErasePages erases count pages of bank starting at page index first.
	// On failure the returned error identifies the failing page when the controller
	// reports one.
	ErasePages(bank Bank, first, count uint32) error

	// Program programs one program unit at addr. len(unit) is the controller's
	// program unit size.
	Program(addr uint32, unit []byte) error
}

// OptionByteController gives access to the option bytes.
type OptionByteController interface {
	// UnlockOptionBytes enables write access to the option-byte registers.
	// The flash controller must already be unlocked.
	UnlockOptionBytes() error

	// LockOptionBytes disables write access to the option-byte registers.
	LockOptionBytes()

	// ReadOptionBytes returns the current option bytes with the WRP range of zone.
	ReadOptionBytes(zone WRPZone) OptionBytes

	// ProgramOptionBytes writes the fields of ob selected by types.
	ProgramOptionBytes(types OptionType, ob OptionBytes) error

	// LaunchOptionBytes reloads the option bytes. On hardware this resets the device.
	LaunchOptionBytes() error
}

// Device is a flash peripheral exposing both the main array and the option bytes.
type Device interface {
	Controller
	OptionByteController
}
