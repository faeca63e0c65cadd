package flashmap

import (
	"fmt"

	"github.com/moffa90/go-stm32iap/hal"
)

// MaxPages is the number of pages addressable by an 8-bit WRP offset.
const MaxPages = 256

// STM32G0x1 is the layout of a 128 KiB single-bank STM32G0 with a 32 KiB IAP
// loader in pages 0-15.
var STM32G0x1 = Region{
	FlashBase:   0x08000000,
	AppStart:    0x08008000,
	End:         0x08020000,
	PageSize:    2048,
	ProgramUnit: 8,
	Bank:        hal.Bank1,
}

// Region is the flash region under management.
type Region struct {
	// FlashBase is the address of page 0 of the bank
	FlashBase uint32 `yaml:"base" json:"base"`

	// AppStart is the first address of the user application; nothing below it is
	// erased or programmed
	AppStart uint32 `yaml:"app_start" json:"app_start"`

	// End is the first address past the managed region
	End uint32 `yaml:"end" json:"end"`

	// PageSize is the erase granularity in bytes
	PageSize uint32 `yaml:"page_size" json:"page_size"`

	// ProgramUnit is the atomic programming granularity in bytes (8 = double-word)
	ProgramUnit uint32 `yaml:"program_unit" json:"program_unit"`

	// Bank is the flash bank holding the application
	Bank hal.Bank `yaml:"bank" json:"bank"`
}

// Validate checks the region invariants.
func (r Region) Validate() error {
	if r.PageSize == 0 {
		return fmt.Errorf("page size must be non-zero")
	}
	if r.ProgramUnit == 0 {
		return fmt.Errorf("program unit must be non-zero")
	}
	if r.PageSize%r.ProgramUnit != 0 {
		return fmt.Errorf("program unit %d does not divide page size %d", r.ProgramUnit, r.PageSize)
	}
	if r.FlashBase > r.AppStart {
		return fmt.Errorf("application start 0x%08X is below flash base 0x%08X", r.AppStart, r.FlashBase)
	}
	if r.AppStart >= r.End {
		return fmt.Errorf("application start 0x%08X is not below end 0x%08X", r.AppStart, r.End)
	}

	for _, a := range []struct {
		name string
		addr uint32
	}{
		{"application start", r.AppStart},
		{"end", r.End},
	} {
		if (a.addr-r.FlashBase)%r.PageSize != 0 {
			return fmt.Errorf("%s 0x%08X is not page aligned", a.name, a.addr)
		}
	}

	// WRP status reads a range as enabled only when start < end
	if (r.End-r.AppStart)/r.PageSize < 2 {
		return fmt.Errorf("application region must span at least 2 pages")
	}

	if pages := (r.End - r.FlashBase) / r.PageSize; pages > MaxPages {
		return fmt.Errorf("region spans %d pages, at most %d are addressable", pages, MaxPages)
	}

	return nil
}

// Contains reports whether addr lies in [AppStart, End).
func (r Region) Contains(addr uint32) bool {
	return addr >= r.AppStart && addr < r.End
}

// PageAligned reports whether addr is on a page boundary.
func (r Region) PageAligned(addr uint32) bool {
	return addr >= r.FlashBase && (addr-r.FlashBase)%r.PageSize == 0
}

// UnitAligned reports whether addr is on a program-unit boundary.
func (r Region) UnitAligned(addr uint32) bool {
	return addr >= r.FlashBase && (addr-r.FlashBase)%r.ProgramUnit == 0
}

// PageIndex returns the hardware page index holding addr.
func (r Region) PageIndex(addr uint32) uint32 {
	return (addr - r.FlashBase) / r.PageSize
}

// PageCount returns the number of pages from start to End.
func (r Region) PageCount(start uint32) uint32 {
	if start >= r.End {
		return 0
	}
	return (r.End - start) / r.PageSize
}

// WriteLimit is the highest address a program unit may extend to.
func (r Region) WriteLimit() uint32 {
	return r.End - r.ProgramUnit
}

// AppFirstPage is the page index of AppStart.
func (r Region) AppFirstPage() uint32 {
	return r.PageIndex(r.AppStart)
}

// LastPage is the page index of the last page before End.
func (r Region) LastPage() uint32 {
	return r.PageIndex(r.End) - 1
}

// Size is the application area size in bytes.
func (r Region) Size() uint32 {
	return r.End - r.AppStart
}

func (r Region) String() string {
	return fmt.Sprintf("app 0x%08X-0x%08X (pages %d-%d, page %d B, unit %d B, bank %d)",
		r.AppStart, r.End, r.AppFirstPage(), r.LastPage(), r.PageSize, r.ProgramUnit, r.Bank)
}
