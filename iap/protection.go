package iap

import (
	"fmt"
	"strings"

	"github.com/moffa90/go-stm32iap/flashmap"
	"github.com/moffa90/go-stm32iap/hal"
)

// ProtectionFlags is a set of protection kinds.
type ProtectionFlags uint32

const (
	ProtectionNone  ProtectionFlags = 0
	ProtectionPCROP ProtectionFlags = 0x1
	ProtectionWRP   ProtectionFlags = 0x2
	ProtectionRDP   ProtectionFlags = 0x4
)

func (f ProtectionFlags) String() string {
	if f == ProtectionNone {
		return "none"
	}

	var kinds []string
	if f&ProtectionPCROP != 0 {
		kinds = append(kinds, "pcrop")
	}
	if f&ProtectionWRP != 0 {
		kinds = append(kinds, "wrp")
	}
	if f&ProtectionRDP != 0 {
		kinds = append(kinds, "rdp")
	}
	return strings.Join(kinds, "|")
}

// Protection reads and writes the write protection of the application region
// through WRP zone A.
type Protection struct {
	dev    hal.Device
	region flashmap.Region
	config Config
}

// NewProtection creates a Protection for region on dev.
func NewProtection(dev hal.Device, region flashmap.Region, opts ...Option) (*Protection, error) {
	if dev == nil {
		panic("device cannot be nil")
	}
	if err := region.Validate(); err != nil {
		return nil, fmt.Errorf("invalid region: %w", err)
	}

	return &Protection{
		dev:    dev,
		region: region,
		config: newConfig(opts),
	}, nil
}

// Status reports ProtectionWRP when WRP zone A is enabled, ProtectionNone otherwise.
//
// Only the WRP mechanism is evaluated. PCROP and RDP are never reported, so
// ProtectionNone does not prove the absence of read-out protection.
func (p *Protection) Status() ProtectionFlags {
	ob := p.dev.ReadOptionBytes(hal.WRPZoneA)
	if decodeWRP(ob.WRP) {
		return ProtectionWRP
	}
	return ProtectionNone
}

// SetProtection enables or disables write protection from the application start
// to the end of the region. All other option-byte fields are preserved.
//
// On hardware, programming option bytes is disruptive: the new values take effect
// at the next option-byte load, which resets the device.
func (p *Protection) SetProtection(enable bool) error {
	defer p.dev.Lock()
	if err := p.dev.Unlock(); err != nil {
		return p.fail("set protection", fmt.Errorf("unlock flash: %w", err))
	}

	defer p.dev.LockOptionBytes()
	if err := p.dev.UnlockOptionBytes(); err != nil {
		return p.fail("set protection", fmt.Errorf("unlock option bytes: %w", err))
	}

	ob := p.dev.ReadOptionBytes(hal.WRPZoneA)
	ob.WRP = encodeWRP(enable, p.region)

	p.config.logDebug("programming option bytes",
		"enable", enable,
		"wrp_start", ob.WRP.StartOffset,
		"wrp_end", ob.WRP.EndOffset,
		"user_config", fmt.Sprintf("0x%08X", ob.UserConfig),
	)

	if err := p.dev.ProgramOptionBytes(hal.OptionWRP, ob); err != nil {
		return p.fail("set protection", err)
	}

	if p.config.LaunchAfterProtect {
		if err := p.dev.LaunchOptionBytes(); err != nil {
			return p.fail("set protection", fmt.Errorf("launch option bytes: %w", err))
		}
	}

	p.config.logInfo("write protection updated", "enabled", enable)
	return nil
}

// Launch reloads the option bytes so that programmed values take effect. On
// hardware the reload resets the device and Launch does not return.
func (p *Protection) Launch() error {
	defer p.dev.Lock()
	if err := p.dev.Unlock(); err != nil {
		return p.fail("launch", fmt.Errorf("unlock flash: %w", err))
	}

	defer p.dev.LockOptionBytes()
	if err := p.dev.UnlockOptionBytes(); err != nil {
		return p.fail("launch", fmt.Errorf("unlock option bytes: %w", err))
	}

	p.config.logInfo("launching option bytes")
	if err := p.dev.LaunchOptionBytes(); err != nil {
		return p.fail("launch", err)
	}
	return nil
}

func (p *Protection) fail(op string, err error) error {
	p.config.logError(op+" failed", "error", err)
	return &OpError{Op: op, Code: ProtectionError, Addr: p.region.AppStart, Err: err}
}

// encodeWRP returns the zone A offsets for the requested state. Enabled covers the
// application pages through the last page; disabled is the reversed pair the
// option-byte hardware treats as an empty zone.
func encodeWRP(enable bool, region flashmap.Region) hal.WRPRange {
	first := uint8(region.AppFirstPage())
	last := uint8(region.LastPage())

	if enable {
		return hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: first, EndOffset: last}
	}
	return hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: last, EndOffset: 0}
}

// decodeWRP reports whether r encodes enabled protection.
func decodeWRP(r hal.WRPRange) bool {
	return r.Zone != 0 && r.StartOffset < r.EndOffset
}
