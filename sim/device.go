package sim

import (
	"fmt"
	"io"

	"github.com/moffa90/go-stm32iap/flashmap"
	"github.com/moffa90/go-stm32iap/hal"
)

// DefaultUserConfig is the USER option word of a blank device.
const DefaultUserConfig = 0xDEFFE1AA

// Stats counts calls made on a Device.
type Stats struct {
	Unlocks        int
	Locks          int
	OptionUnlocks  int
	OptionLocks    int
	Erases         int
	Programs       int
	OptionPrograms int
	Launches       int
}

// Device is a simulated flash peripheral. It is not safe for concurrent use.
type Device struct {
	region flashmap.Region
	mem    []byte

	locked    bool
	optLocked bool
	status    hal.Flags
	stats     Stats

	rdp   hal.RDPLevel
	user  uint32
	wrp   map[hal.WRPZone]hal.WRPRange
	pcrop hal.PCROPRange

	eraseFault   hal.Flags
	programFault map[uint32]hal.Flags
	corrupt      map[uint32]bool
	optionFault  hal.Flags
}

// New returns a blank device: flash erased, controller locked, no protection.
func New(region flashmap.Region) (*Device, error) {
	if err := region.Validate(); err != nil {
		return nil, fmt.Errorf("invalid region: %w", err)
	}

	mem := make([]byte, region.End-region.FlashBase)
	for i := range mem {
		mem[i] = hal.ErasedByte
	}

	last := uint8(region.LastPage())
	return &Device{
		region:    region,
		mem:       mem,
		locked:    true,
		optLocked: true,
		rdp:       hal.RDPLevel0,
		user:      DefaultUserConfig,
		wrp: map[hal.WRPZone]hal.WRPRange{
			hal.WRPZoneA: {Zone: hal.WRPZoneA, StartOffset: last, EndOffset: 0},
			hal.WRPZoneB: {Zone: hal.WRPZoneB, StartOffset: last, EndOffset: 0},
		},
		programFault: make(map[uint32]hal.Flags),
		corrupt:      make(map[uint32]bool),
	}, nil
}

// Region returns the simulated flash layout.
func (d *Device) Region() flashmap.Region {
	return d.region
}

// Stats returns the call counters.
func (d *Device) Stats() Stats {
	return d.stats
}

// ResetStats zeroes the call counters.
func (d *Device) ResetStats() {
	d.stats = Stats{}
}

// Locked reports whether the flash control register is locked.
func (d *Device) Locked() bool {
	return d.locked
}

// OptionBytesLocked reports whether the option-byte interface is locked.
func (d *Device) OptionBytesLocked() bool {
	return d.optLocked
}

// Status returns the status register flags.
func (d *Device) Status() hal.Flags {
	return d.status
}

// InjectEraseFault makes the next erase fail with flags.
func (d *Device) InjectEraseFault(flags hal.Flags) {
	d.eraseFault = flags
}

// InjectProgramFault makes programming the unit at addr fail with flags.
func (d *Device) InjectProgramFault(addr uint32, flags hal.Flags) {
	d.programFault[addr] = flags
}

// InjectReadCorruption makes reads starting at addr return a flipped first byte.
func (d *Device) InjectReadCorruption(addr uint32) {
	d.corrupt[addr] = true
}

// InjectOptionFault makes the next option-byte program fail with flags.
func (d *Device) InjectOptionFault(flags hal.Flags) {
	d.optionFault = flags
}

// ClearFaults removes every injected fault.
func (d *Device) ClearFaults() {
	d.eraseFault = 0
	d.optionFault = 0
	d.programFault = make(map[uint32]hal.Flags)
	d.corrupt = make(map[uint32]bool)
}

// Unlock implements hal.Controller.
func (d *Device) Unlock() error {
	d.stats.Unlocks++
	d.locked = false
	return nil
}

// Lock implements hal.Controller. Locking the flash also locks the option bytes.
func (d *Device) Lock() {
	d.stats.Locks++
	d.locked = true
	d.optLocked = true
}

// ClearFlags implements hal.Controller.
func (d *Device) ClearFlags(flags hal.Flags) {
	d.status &^= flags
}

// ErasePages implements hal.Controller.
func (d *Device) ErasePages(bank hal.Bank, first, count uint32) error {
	if d.locked {
		return hal.ErrLocked
	}
	d.stats.Erases++

	pages := d.region.LastPage() + 1
	if bank != d.region.Bank || count == 0 || first >= pages || count > pages-first {
		return d.fail("erase", hal.FlagPGSERR, int(first))
	}

	if d.eraseFault != 0 {
		flags := d.eraseFault
		d.eraseFault = 0
		return d.fail("erase", flags, int(first))
	}

	for page := first; page < first+count; page++ {
		if d.protected(page) {
			return d.fail("erase", hal.FlagWRPERR, int(page))
		}
	}

	for page := first; page < first+count; page++ {
		off := page * d.region.PageSize
		for i := off; i < off+d.region.PageSize; i++ {
			d.mem[i] = hal.ErasedByte
		}
	}

	d.status |= hal.FlagEOP
	return nil
}

// Program implements hal.Controller.
func (d *Device) Program(addr uint32, unit []byte) error {
	if d.locked {
		return hal.ErrLocked
	}
	d.stats.Programs++

	if uint32(len(unit)) != d.region.ProgramUnit {
		return d.fail("program", hal.FlagSIZERR, -1)
	}
	if addr < d.region.FlashBase || addr >= d.region.End || addr+d.region.ProgramUnit > d.region.End {
		return d.fail("program", hal.FlagPGSERR, -1)
	}
	if (addr-d.region.FlashBase)%d.region.ProgramUnit != 0 {
		return d.fail("program", hal.FlagPGAERR, -1)
	}
	if flags, ok := d.programFault[addr]; ok {
		return d.fail("program", flags, -1)
	}
	if d.protected(d.region.PageIndex(addr)) {
		return d.fail("program", hal.FlagWRPERR, -1)
	}

	off := addr - d.region.FlashBase
	for _, b := range d.mem[off : off+d.region.ProgramUnit] {
		if b != hal.ErasedByte {
			return d.fail("program", hal.FlagPROGERR, -1)
		}
	}

	copy(d.mem[off:], unit)
	d.status |= hal.FlagEOP
	return nil
}

// ReadAt implements io.ReaderAt with absolute addresses as offsets.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < int64(d.region.FlashBase) || off >= int64(d.region.End) {
		return 0, io.EOF
	}

	start := uint32(off) - d.region.FlashBase
	n := copy(p, d.mem[start:])
	if d.corrupt[uint32(off)] && n > 0 {
		p[0] ^= 0xFF
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// UnlockOptionBytes implements hal.OptionByteController.
func (d *Device) UnlockOptionBytes() error {
	d.stats.OptionUnlocks++
	if d.locked {
		return hal.ErrLocked
	}
	d.optLocked = false
	return nil
}

// LockOptionBytes implements hal.OptionByteController.
func (d *Device) LockOptionBytes() {
	d.stats.OptionLocks++
	d.optLocked = true
}

// ReadOptionBytes implements hal.OptionByteController.
func (d *Device) ReadOptionBytes(zone hal.WRPZone) hal.OptionBytes {
	return hal.OptionBytes{
		WRP:        d.wrp[zone],
		RDPLevel:   d.rdp,
		UserConfig: d.user,
		PCROP:      d.pcrop,
	}
}

// ProgramOptionBytes implements hal.OptionByteController.
func (d *Device) ProgramOptionBytes(types hal.OptionType, ob hal.OptionBytes) error {
	if d.locked || d.optLocked {
		return hal.ErrLocked
	}
	d.stats.OptionPrograms++

	if d.optionFault != 0 {
		flags := d.optionFault
		d.optionFault = 0
		return d.fail("option program", flags, -1)
	}

	if types&hal.OptionWRP != 0 {
		if ob.WRP.Zone != hal.WRPZoneA && ob.WRP.Zone != hal.WRPZoneB {
			return d.fail("option program", hal.FlagOPTVERR, -1)
		}
		d.wrp[ob.WRP.Zone] = ob.WRP
	}
	if types&hal.OptionRDP != 0 {
		d.rdp = ob.RDPLevel
	}
	if types&hal.OptionUser != 0 {
		d.user = ob.UserConfig
	}
	if types&hal.OptionPCROP != 0 {
		d.pcrop = ob.PCROP
	}

	d.status |= hal.FlagEOP
	return nil
}

// LaunchOptionBytes implements hal.OptionByteController. The simulated reset
// relocks both interfaces.
func (d *Device) LaunchOptionBytes() error {
	if d.locked || d.optLocked {
		return hal.ErrLocked
	}
	d.stats.Launches++
	d.locked = true
	d.optLocked = true
	return nil
}

// protected reports whether page lies inside an enabled WRP zone.
func (d *Device) protected(page uint32) bool {
	for _, r := range d.wrp {
		if r.StartOffset <= r.EndOffset && page >= uint32(r.StartOffset) && page <= uint32(r.EndOffset) {
			return true
		}
	}
	return false
}

func (d *Device) fail(op string, flags hal.Flags, page int) error {
	d.status |= flags
	return &hal.StatusError{Operation: op, Flags: flags, Page: page}
}
