package iap

import (
	"bytes"
	"fmt"
	"io"

	"github.com/moffa90/go-stm32iap/flashmap"
	"github.com/moffa90/go-stm32iap/hal"
)

// Driver erases and programs the application region of the main flash array.
//
// Every Erase and Write is a complete unlock, operate, lock cycle. The controller
// is relocked on every return path. Driver holds no state between calls and
// is not safe for concurrent use.
type Driver struct {
	ctrl   hal.Controller
	region flashmap.Region
	config Config
}

// NewDriver creates a Driver for region on ctrl.
//
// Example:
//
//	drv, err := iap.NewDriver(ctrl, flashmap.STM32G0x1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := drv.Erase(flashmap.STM32G0x1.AppStart); err != nil {
//	    log.Fatal(err)
//	}
func NewDriver(ctrl hal.Controller, region flashmap.Region, opts ...Option) (*Driver, error) {
	if ctrl == nil {
		panic("controller cannot be nil")
	}
	if err := region.Validate(); err != nil {
		return nil, fmt.Errorf("invalid region: %w", err)
	}

	return &Driver{
		ctrl:   ctrl,
		region: region,
		config: newConfig(opts),
	}, nil
}

// Region returns the managed region.
func (d *Driver) Region() flashmap.Region {
	return d.region
}

// Init unlocks the controller and clears stale status flags. It is idempotent and
// leaves the controller unlocked; Erase and Write perform it themselves.
func (d *Driver) Init() error {
	if err := d.ctrl.Unlock(); err != nil {
		return fmt.Errorf("unlock flash: %w", err)
	}
	d.ctrl.ClearFlags(hal.StaleFlags)
	return nil
}

// acquire runs Init and returns the matching release. The release relocks the
// controller even when Init failed, so callers defer it before checking err.
func (d *Driver) acquire() (release func(), err error) {
	return d.ctrl.Lock, d.Init()
}

// Erase erases the pages from start to the end of the region in one multi-page
// request. start must be page aligned and inside the application region;
// otherwise EraseFailed is returned without touching the controller.
func (d *Driver) Erase(start uint32) error {
	if err := d.checkAddress(start, d.region.PageSize, "page"); err != nil {
		return d.fail("erase", EraseFailed, start, err)
	}

	first := d.region.PageIndex(start)
	count := d.region.PageCount(start)

	release, err := d.acquire()
	defer release()
	if err != nil {
		return d.fail("erase", EraseFailed, start, err)
	}

	d.config.logDebug("erasing pages",
		"bank", d.region.Bank,
		"first", first,
		"count", count,
	)

	if err := d.ctrl.ErasePages(d.region.Bank, first, count); err != nil {
		return d.fail("erase", EraseFailed, start, err)
	}

	d.config.logInfo("erase complete",
		"start", fmt.Sprintf("0x%08X", start),
		"pages", count,
	)
	return nil
}

// Write programs src at dst one program unit at a time and verifies every unit
// by reading it back. A trailing partial unit is padded with the erased value.
//
// Write stops before any unit that would extend past End - ProgramUnit and
// returns the bytes programmed so far with a nil error. On failure it returns
// the bytes programmed before the failing unit together with an *OpError:
// ProgramControlError when the controller rejects the unit, ProgramVerifyError
// when the read-back differs. Nothing is retried or rolled back.
func (d *Driver) Write(dst uint32, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, nil
	}
	if err := d.checkAddress(dst, d.region.ProgramUnit, "program unit"); err != nil {
		return 0, d.fail("write", ProgramControlError, dst, err)
	}

	release, err := d.acquire()
	defer release()
	if err != nil {
		return 0, d.fail("write", ProgramControlError, dst, err)
	}

	unitSize := d.region.ProgramUnit
	limit := d.region.WriteLimit()
	unit := make([]byte, unitSize)
	readback := make([]byte, unitSize)

	written := 0
	for written < len(src) {
		if dst+unitSize > limit {
			d.config.logDebug("write stopped at region guard",
				"addr", fmt.Sprintf("0x%08X", dst),
				"written", written,
				"requested", len(src),
			)
			break
		}

		n := copy(unit, src[written:])
		for i := n; i < len(unit); i++ {
			unit[i] = hal.ErasedByte
		}

		if err := d.ctrl.Program(dst, unit); err != nil {
			return written, d.fail("write", ProgramControlError, dst, err)
		}

		if _, err := d.ctrl.ReadAt(readback, int64(dst)); err != nil {
			return written, d.fail("write", ProgramVerifyError, dst, fmt.Errorf("read back: %w", err))
		}
		if !bytes.Equal(readback, unit) {
			return written, d.fail("write", ProgramVerifyError, dst, &VerifyMismatchError{
				Addr:     dst,
				Expected: bytes.Clone(unit),
				Actual:   bytes.Clone(readback),
			})
		}

		written += n
		dst += unitSize
	}

	return written, nil
}

// Read reads flash between the flash base and the region end. Reads running past
// the end are truncated and return io.EOF.
func (d *Driver) Read(addr uint32, p []byte) (int, error) {
	if addr < d.region.FlashBase || addr >= d.region.End {
		return 0, &AddressRangeError{
			Addr:   addr,
			Min:    d.region.FlashBase,
			Max:    d.region.End - 1,
			Reason: "is outside flash",
		}
	}

	var eof bool
	if avail := d.region.End - addr; uint32(len(p)) > avail {
		p = p[:avail]
		eof = true
	}

	n, err := d.ctrl.ReadAt(p, int64(addr))
	if err != nil {
		return n, fmt.Errorf("read 0x%08X: %w", addr, err)
	}
	if eof {
		return n, io.EOF
	}
	return n, nil
}

// checkAddress validates that addr is inside the application region and aligned to align.
func (d *Driver) checkAddress(addr, align uint32, what string) error {
	if !d.region.Contains(addr) {
		return &AddressRangeError{
			Addr:   addr,
			Min:    d.region.AppStart,
			Max:    d.region.End - 1,
			Reason: "is outside the application region",
		}
	}
	if (addr-d.region.FlashBase)%align != 0 {
		return &AddressRangeError{
			Addr:   addr,
			Min:    d.region.AppStart,
			Max:    d.region.End - 1,
			Reason: fmt.Sprintf("is not %s aligned", what),
		}
	}
	return nil
}

func (d *Driver) fail(op string, code ErrorCode, addr uint32, err error) error {
	d.config.logError(op+" failed",
		"addr", fmt.Sprintf("0x%08X", addr),
		"code", code.String(),
		"error", err,
	)
	return &OpError{Op: op, Code: code, Addr: addr, Err: err}
}
