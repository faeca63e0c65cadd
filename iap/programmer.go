package iap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-stm32iap/flashmap"
	"github.com/moffa90/go-stm32iap/hal"
	"github.com/moffa90/go-stm32iap/image"
)

// Programmer runs the complete update sequence on a flash device:
// unprotect, erase, chunked write, verify, protect.
//
// Programmer is not safe for concurrent use.
type Programmer struct {
	driver     *Driver
	protection *Protection
	config     Config
}

// NewProgrammer creates a Programmer for region on dev.
//
// Example:
//
//	prog, err := iap.NewProgrammer(dev, flashmap.STM32G0x1,
//	    iap.WithProgressCallback(progressFunc),
//	    iap.WithProtectAfterProgram(true),
//	)
func NewProgrammer(dev hal.Device, region flashmap.Region, opts ...Option) (*Programmer, error) {
	if dev == nil {
		panic("device cannot be nil")
	}

	driver, err := NewDriver(dev, region, opts...)
	if err != nil {
		return nil, err
	}
	protection, err := NewProtection(dev, region, opts...)
	if err != nil {
		return nil, err
	}

	cfg := newConfig(opts)
	if unit := int(region.ProgramUnit); cfg.ChunkSize%unit != 0 {
		cfg.ChunkSize += unit - cfg.ChunkSize%unit
	}

	return &Programmer{
		driver:     driver,
		protection: protection,
		config:     cfg,
	}, nil
}

// Driver returns the flash driver used by the programmer.
func (p *Programmer) Driver() *Driver {
	return p.driver
}

// Protection returns the protection manager used by the programmer.
func (p *Programmer) Protection() *Protection {
	return p.protection
}

// Program installs img in the application region:
//  1. Check the image fits between the application start and the write guard
//  2. Remove write protection if it is set and WithUnprotect was given
//  3. Erase from the application start to the end of the region
//  4. Write the image in ChunkSize pieces, each unit verified on the fly
//  5. Re-read the whole image (unless WithVerifyAfterProgram(false))
//  6. Enable write protection if WithProtectAfterProgram was given
//
// The context is checked between chunks; a chunk in progress always completes.
// A failed or cancelled Program leaves the region partially programmed.
func (p *Programmer) Program(ctx context.Context, img *image.Image) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}

	region := p.driver.Region()
	if err := img.Fits(region); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled before erase: %w", err)
	}

	startTime := time.Now()

	// Flatten from the unit boundary below the image start
	lo, hi := img.Bounds()
	lo -= (lo - region.FlashBase) % region.ProgramUnit
	data := img.Flatten(lo, hi, hal.ErasedByte)
	total := len(data)

	// Phase 1: protection
	if p.protection.Status()&ProtectionWRP != 0 {
		if !p.config.Unprotect {
			return &OpError{Op: "program", Code: ProtectionError, Addr: region.AppStart, Err: ErrWriteProtected}
		}

		p.config.reportProgress(Progress{Phase: PhaseUnprotecting, Address: lo, TotalBytes: total})
		if err := p.protection.SetProtection(false); err != nil {
			return fmt.Errorf("unprotect: %w", err)
		}
	}

	// Phase 2: erase
	p.config.reportProgress(Progress{
		Phase:       PhaseErasing,
		Address:     region.AppStart,
		TotalBytes:  total,
		Percentage:  0,
		ElapsedTime: time.Since(startTime),
	})

	if err := p.driver.Erase(region.AppStart); err != nil {
		return fmt.Errorf("erase application: %w", err)
	}

	// Phase 3: program
	written := 0
	for written < total {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled at 0x%08X: %w", lo+uint32(written), err)
		}

		end := written + p.config.ChunkSize
		if end > total {
			end = total
		}
		chunk := data[written:end]
		addr := lo + uint32(written)

		// Erased chunks already hold their final value
		if !isErased(chunk) {
			n, err := p.driver.Write(addr, chunk)
			if err != nil {
				return fmt.Errorf("program chunk: %w", err)
			}
			if n < len(chunk) {
				return &OpError{Op: "program", Code: ProgramControlError, Addr: addr + uint32(n), Err: io.ErrShortWrite}
			}
		}

		written = end

		// Report progress (5% to 90%)
		p.config.reportProgress(Progress{
			Phase:        PhaseProgramming,
			Address:      lo + uint32(written),
			BytesWritten: written,
			TotalBytes:   total,
			Percentage:   5 + float64(written)/float64(total)*85,
			ElapsedTime:  time.Since(startTime),
		})
	}

	// Phase 4: verify
	if p.config.VerifyAfterProgram {
		p.config.reportProgress(Progress{
			Phase:        PhaseVerifying,
			Address:      lo,
			BytesWritten: written,
			TotalBytes:   total,
			Percentage:   92,
			ElapsedTime:  time.Since(startTime),
		})

		if err := p.Verify(img); err != nil {
			return fmt.Errorf("verify application: %w", err)
		}
	}

	// Phase 5: protect
	if p.config.ProtectAfterProgram {
		p.config.reportProgress(Progress{
			Phase:        PhaseProtecting,
			BytesWritten: written,
			TotalBytes:   total,
			Percentage:   96,
			ElapsedTime:  time.Since(startTime),
		})

		if err := p.protection.SetProtection(true); err != nil {
			return fmt.Errorf("protect: %w", err)
		}
	}

	p.config.reportProgress(Progress{
		Phase:        PhaseComplete,
		Address:      hi,
		BytesWritten: written,
		TotalBytes:   total,
		Percentage:   100,
		ElapsedTime:  time.Since(startTime),
	})

	p.config.logInfo("programming complete",
		"start", fmt.Sprintf("0x%08X", lo),
		"bytes", total,
		"crc16", fmt.Sprintf("0x%04X", image.CRC16(data)),
		"elapsed", time.Since(startTime).String(),
	)

	return nil
}

// Verify compares every segment of img with flash content.
func (p *Programmer) Verify(img *image.Image) error {
	for _, seg := range img.Segments() {
		actual := make([]byte, len(seg.Data))
		if _, err := p.driver.Read(seg.Address, actual); err != nil {
			return &OpError{Op: "verify", Code: ProgramVerifyError, Addr: seg.Address, Err: err}
		}

		if bytes.Equal(actual, seg.Data) {
			continue
		}

		for i := range actual {
			if actual[i] != seg.Data[i] {
				addr := seg.Address + uint32(i)
				return &OpError{Op: "verify", Code: ProgramVerifyError, Addr: addr, Err: &VerifyMismatchError{
					Addr:     addr,
					Expected: []byte{seg.Data[i]},
					Actual:   []byte{actual[i]},
				}}
			}
		}
	}
	return nil
}

func isErased(b []byte) bool {
	for _, v := range b {
		if v != hal.ErasedByte {
			return false
		}
	}
	return true
}
