package sim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcinbor85/gohex"
	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-stm32iap/flashmap"
	"github.com/moffa90/go-stm32iap/hal"
)

// Files making up a persisted device.
const (
	FlashFile   = "flash.hex"
	OptionsFile = "options.yaml"
)

type wrpState struct {
	Start uint8 `yaml:"start"`
	End   uint8 `yaml:"end"`
}

type optionState struct {
	RDPLevel   uint8    `yaml:"rdp_level"`
	UserConfig uint32   `yaml:"user_config"`
	WRPA       wrpState `yaml:"wrp_a"`
	WRPB       wrpState `yaml:"wrp_b"`
	PCROP      struct {
		Start    uint32 `yaml:"start"`
		End      uint32 `yaml:"end"`
		RDPErase bool   `yaml:"rdp_erase"`
	} `yaml:"pcrop"`
}

// Save writes the flash content and option bytes to dir, creating it if needed.
// Only programmed (non-erased) program units are stored.
func (d *Device) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create device directory: %w", err)
	}

	mem := gohex.NewMemory()
	unit := d.region.ProgramUnit
	runStart := -1
	flush := func(end int) error {
		if runStart < 0 {
			return nil
		}
		addr := d.region.FlashBase + uint32(runStart)
		err := mem.AddBinary(addr, d.mem[runStart:end])
		runStart = -1
		return err
	}

	for off := 0; off < len(d.mem); off += int(unit) {
		if isErased(d.mem[off : off+int(unit)]) {
			if err := flush(off); err != nil {
				return fmt.Errorf("failed to encode flash: %w", err)
			}
			continue
		}
		if runStart < 0 {
			runStart = off
		}
	}
	if err := flush(len(d.mem)); err != nil {
		return fmt.Errorf("failed to encode flash: %w", err)
	}

	if err := writeFile(filepath.Join(dir, FlashFile), func(f *os.File) error {
		return mem.DumpIntelHex(f, 16)
	}); err != nil {
		return err
	}

	var st optionState
	st.RDPLevel = uint8(d.rdp)
	st.UserConfig = d.user
	st.WRPA = wrpState{Start: d.wrp[hal.WRPZoneA].StartOffset, End: d.wrp[hal.WRPZoneA].EndOffset}
	st.WRPB = wrpState{Start: d.wrp[hal.WRPZoneB].StartOffset, End: d.wrp[hal.WRPZoneB].EndOffset}
	st.PCROP.Start = d.pcrop.StartAddr
	st.PCROP.End = d.pcrop.EndAddr
	st.PCROP.RDPErase = d.pcrop.RDPErase

	return writeFile(filepath.Join(dir, OptionsFile), func(f *os.File) error {
		enc := yaml.NewEncoder(f)
		defer func() { _ = enc.Close() }()
		return enc.Encode(&st)
	})
}

// Load restores a device saved with Save. The device comes back locked, as
// after a reset.
func Load(dir string, region flashmap.Region) (*Device, error) {
	d, err := New(region)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(dir, FlashFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open flash image: %w", err)
	}
	defer func() { _ = f.Close() }()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return nil, fmt.Errorf("failed to parse flash image: %w", err)
	}
	for _, seg := range mem.GetDataSegments() {
		end := uint64(seg.Address) + uint64(len(seg.Data))
		if seg.Address < region.FlashBase || end > uint64(region.End) {
			return nil, fmt.Errorf("flash image segment 0x%08X-0x%08X is outside the device", seg.Address, end)
		}
		copy(d.mem[seg.Address-region.FlashBase:], seg.Data)
	}

	raw, err := os.ReadFile(filepath.Join(dir, OptionsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read option bytes: %w", err)
	}
	var st optionState
	if err := yaml.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to decode option bytes: %w", err)
	}

	d.rdp = hal.RDPLevel(st.RDPLevel)
	d.user = st.UserConfig
	d.wrp[hal.WRPZoneA] = hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: st.WRPA.Start, EndOffset: st.WRPA.End}
	d.wrp[hal.WRPZoneB] = hal.WRPRange{Zone: hal.WRPZoneB, StartOffset: st.WRPB.Start, EndOffset: st.WRPB.End}
	d.pcrop = hal.PCROPRange{StartAddr: st.PCROP.Start, EndAddr: st.PCROP.End, RDPErase: st.PCROP.RDPErase}

	return d, nil
}

// Exists reports whether dir holds a saved device.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FlashFile))
	return !errors.Is(err, os.ErrNotExist)
}

func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func isErased(b []byte) bool {
	for _, v := range b {
		if v != hal.ErasedByte {
			return false
		}
	}
	return true
}
