package sim

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-stm32iap/flashmap"
	"github.com/moffa90/go-stm32iap/hal"
)

var region = flashmap.STM32G0x1

func newDevice(t *testing.T) *Device {
	t.Helper()
	d, err := New(region)
	require.NoError(t, err)
	return d
}

func unitOf(b byte) []byte {
	return bytes.Repeat([]byte{b}, int(region.ProgramUnit))
}

func statusFlags(t *testing.T, err error) hal.Flags {
	t.Helper()
	var se *hal.StatusError
	require.True(t, errors.As(err, &se), "want *hal.StatusError, got %v", err)
	return se.Flags
}

func TestNewDevice(t *testing.T) {
	d := newDevice(t)

	require.True(t, d.Locked())
	require.True(t, d.OptionBytesLocked())
	require.Equal(t, region, d.Region())

	buf := make([]byte, 16)
	_, err := d.ReadAt(buf, int64(region.AppStart))
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{0xFF}, 16), buf)

	_, err = New(flashmap.Region{})
	require.Error(t, err)
}

func TestLockedControllerRejectsOperations(t *testing.T) {
	d := newDevice(t)

	require.ErrorIs(t, d.ErasePages(hal.Bank1, 16, 1), hal.ErrLocked)
	require.ErrorIs(t, d.Program(region.AppStart, unitOf(0)), hal.ErrLocked)
	require.ErrorIs(t, d.UnlockOptionBytes(), hal.ErrLocked)
	require.Zero(t, d.Stats().Programs)
}

func TestProgram(t *testing.T) {
	d := newDevice(t)
	require.NoError(t, d.Unlock())

	require.NoError(t, d.Program(region.AppStart, unitOf(0x42)))
	require.True(t, d.Status().Has(hal.FlagEOP))

	got := make([]byte, region.ProgramUnit)
	_, err := d.ReadAt(got, int64(region.AppStart))
	require.NoError(t, err)
	require.Equal(t, unitOf(0x42), got)

	tests := []struct {
		name string
		addr uint32
		unit []byte
		want hal.Flags
	}{
		{"not erased", region.AppStart, unitOf(0x00), hal.FlagPROGERR},
		{"misaligned", region.AppStart + 4, unitOf(0x00), hal.FlagPGAERR},
		{"wrong size", region.AppStart + 8, []byte{1, 2, 3, 4}, hal.FlagSIZERR},
		{"past end", region.End, unitOf(0x00), hal.FlagPGSERR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Program(tt.addr, tt.unit)
			require.Equal(t, tt.want, statusFlags(t, err))
		})
	}

	d.ClearFlags(hal.ErrorFlags | hal.FlagEOP)
	require.Zero(t, d.Status())
}

func TestErasePages(t *testing.T) {
	d := newDevice(t)
	require.NoError(t, d.Unlock())
	require.NoError(t, d.Program(region.AppStart, unitOf(0x11)))
	require.NoError(t, d.Program(region.FlashBase, unitOf(0x22)))

	require.NoError(t, d.ErasePages(hal.Bank1, region.AppFirstPage(), region.PageCount(region.AppStart)))

	got := make([]byte, region.ProgramUnit)
	_, _ = d.ReadAt(got, int64(region.AppStart))
	require.Equal(t, unitOf(0xFF), got, "application erased")
	_, _ = d.ReadAt(got, int64(region.FlashBase))
	require.Equal(t, unitOf(0x22), got, "loader untouched")

	require.Equal(t, hal.FlagPGSERR, statusFlags(t, d.ErasePages(hal.Bank2, 16, 1)))
	require.Equal(t, hal.FlagPGSERR, statusFlags(t, d.ErasePages(hal.Bank1, 60, 5)))
	require.Equal(t, hal.FlagPGSERR, statusFlags(t, d.ErasePages(hal.Bank1, 16, 0)))
}

func TestWriteProtection(t *testing.T) {
	d := newDevice(t)
	require.NoError(t, d.Unlock())
	require.NoError(t, d.UnlockOptionBytes())

	ob := d.ReadOptionBytes(hal.WRPZoneA)
	ob.WRP = hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: 16, EndOffset: 63}
	require.NoError(t, d.ProgramOptionBytes(hal.OptionWRP, ob))
	require.Equal(t, ob.WRP, d.ReadOptionBytes(hal.WRPZoneA).WRP)
	require.Equal(t, uint32(DefaultUserConfig), d.ReadOptionBytes(hal.WRPZoneA).UserConfig)

	err := d.ErasePages(hal.Bank1, 16, 48)
	var se *hal.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, hal.FlagWRPERR, se.Flags)
	require.Equal(t, 16, se.Page)

	require.Equal(t, hal.FlagWRPERR, statusFlags(t, d.Program(region.AppStart, unitOf(0))))
	require.NoError(t, d.Program(region.FlashBase, unitOf(0)), "loader pages are not protected")

	ob.WRP = hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: 63, EndOffset: 0}
	require.NoError(t, d.ProgramOptionBytes(hal.OptionWRP, ob))
	require.NoError(t, d.ErasePages(hal.Bank1, 16, 48))
}

func TestOptionBytes(t *testing.T) {
	d := newDevice(t)
	require.NoError(t, d.Unlock())

	ob := d.ReadOptionBytes(hal.WRPZoneA)
	require.ErrorIs(t, d.ProgramOptionBytes(hal.OptionWRP, ob), hal.ErrLocked)

	require.NoError(t, d.UnlockOptionBytes())

	ob.RDPLevel = hal.RDPLevel1
	ob.UserConfig = 0x12345678
	ob.WRP.StartOffset = 0
	require.NoError(t, d.ProgramOptionBytes(hal.OptionRDP, ob))

	got := d.ReadOptionBytes(hal.WRPZoneA)
	require.Equal(t, hal.RDPLevel1, got.RDPLevel)
	require.Equal(t, uint32(DefaultUserConfig), got.UserConfig, "user word not selected")
	require.Equal(t, uint8(63), got.WRP.StartOffset, "wrp not selected")

	ob.WRP.Zone = 0
	require.Equal(t, hal.FlagOPTVERR, statusFlags(t, d.ProgramOptionBytes(hal.OptionWRP, ob)))

	require.NoError(t, d.LaunchOptionBytes())
	require.True(t, d.Locked())
	require.True(t, d.OptionBytesLocked())
	require.Equal(t, 1, d.Stats().Launches)
}

func TestFaultInjection(t *testing.T) {
	d := newDevice(t)
	require.NoError(t, d.Unlock())

	d.InjectEraseFault(hal.FlagOPERR)
	require.Equal(t, hal.FlagOPERR, statusFlags(t, d.ErasePages(hal.Bank1, 16, 1)))
	require.NoError(t, d.ErasePages(hal.Bank1, 16, 1), "erase fault is one-shot")

	d.InjectProgramFault(region.AppStart, hal.FlagPROGERR)
	require.Equal(t, hal.FlagPROGERR, statusFlags(t, d.Program(region.AppStart, unitOf(1))))

	d.InjectReadCorruption(region.AppStart + 8)
	require.NoError(t, d.Program(region.AppStart+8, unitOf(0x5A)))
	got := make([]byte, region.ProgramUnit)
	_, _ = d.ReadAt(got, int64(region.AppStart+8))
	require.Equal(t, byte(0xA5), got[0])

	require.NoError(t, d.UnlockOptionBytes())
	d.InjectOptionFault(hal.FlagOPTVERR)
	require.Error(t, d.ProgramOptionBytes(hal.OptionWRP, d.ReadOptionBytes(hal.WRPZoneA)))

	d.ClearFaults()
	require.NoError(t, d.Program(region.AppStart, unitOf(1)))
	_, _ = d.ReadAt(got, int64(region.AppStart+8))
	require.Equal(t, byte(0x5A), got[0])
}

func TestReadAtBounds(t *testing.T) {
	d := newDevice(t)
	buf := make([]byte, 8)

	n, err := d.ReadAt(buf, int64(region.End-4))
	require.Equal(t, 4, n)
	require.ErrorIs(t, err, io.EOF)

	_, err = d.ReadAt(buf, int64(region.FlashBase-8))
	require.ErrorIs(t, err, io.EOF)
}

func TestStats(t *testing.T) {
	d := newDevice(t)
	require.NoError(t, d.Unlock())
	require.NoError(t, d.UnlockOptionBytes())
	d.LockOptionBytes()
	d.Lock()

	require.Equal(t, Stats{Unlocks: 1, Locks: 1, OptionUnlocks: 1, OptionLocks: 1}, d.Stats())

	d.ResetStats()
	require.Equal(t, Stats{}, d.Stats())
}
