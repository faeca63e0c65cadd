package iap

import (
	"io"

	"github.com/moffa90/go-stm32iap/flashmap"
	"github.com/moffa90/go-stm32iap/hal"
)

type eraseCall struct {
	bank  hal.Bank
	first uint32
	count uint32
}

// MockController simulates a flash peripheral and records every call
type MockController struct {
	base uint32
	mem  []byte

	locked      bool
	unlockCalls int
	lockCalls   int
	cleared     hal.Flags

	erases   []eraseCall
	programs []uint32

	unlockErr error
	eraseErr  error
	programAt map[uint32]error
	corruptAt map[uint32]bool
	readErr   error

	ob            hal.OptionBytes
	obLocked      bool
	obUnlockCalls int
	obLockCalls   int
	obUnlockErr   error
	obProgramErr  error
	obTypes       hal.OptionType
	launchCalls   int
}

func NewMockController(region flashmap.Region) *MockController {
	mem := make([]byte, region.End-region.FlashBase)
	for i := range mem {
		mem[i] = hal.ErasedByte
	}
	return &MockController{
		base:      region.FlashBase,
		mem:       mem,
		locked:    true,
		obLocked:  true,
		programAt: make(map[uint32]error),
		corruptAt: make(map[uint32]bool),
		ob: hal.OptionBytes{
			WRP:        hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: 63, EndOffset: 0},
			RDPLevel:   hal.RDPLevel0,
			UserConfig: 0xDEFFE1AA,
		},
	}
}

func (m *MockController) Unlock() error {
	m.unlockCalls++
	if m.unlockErr != nil {
		return m.unlockErr
	}
	m.locked = false
	return nil
}

func (m *MockController) Lock() {
	m.lockCalls++
	m.locked = true
}

func (m *MockController) ClearFlags(flags hal.Flags) {
	m.cleared |= flags
}

func (m *MockController) ErasePages(bank hal.Bank, first, count uint32) error {
	if m.locked {
		return hal.ErrLocked
	}
	m.erases = append(m.erases, eraseCall{bank: bank, first: first, count: count})
	if m.eraseErr != nil {
		return m.eraseErr
	}
	return nil
}

func (m *MockController) Program(addr uint32, unit []byte) error {
	if m.locked {
		return hal.ErrLocked
	}
	m.programs = append(m.programs, addr)
	if err := m.programAt[addr]; err != nil {
		return err
	}
	copy(m.mem[addr-m.base:], unit)
	return nil
}

func (m *MockController) ReadAt(p []byte, off int64) (int, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	start := int(uint32(off) - m.base)
	if start < 0 || start >= len(m.mem) {
		return 0, io.EOF
	}
	n := copy(p, m.mem[start:])
	if m.corruptAt[uint32(off)] && n > 0 {
		p[0] ^= 0xFF
	}
	return n, nil
}

func (m *MockController) UnlockOptionBytes() error {
	m.obUnlockCalls++
	if m.locked {
		return hal.ErrLocked
	}
	if m.obUnlockErr != nil {
		return m.obUnlockErr
	}
	m.obLocked = false
	return nil
}

func (m *MockController) LockOptionBytes() {
	m.obLockCalls++
	m.obLocked = true
}

func (m *MockController) ReadOptionBytes(zone hal.WRPZone) hal.OptionBytes {
	ob := m.ob
	if zone != hal.WRPZoneA {
		ob.WRP = hal.WRPRange{Zone: zone, StartOffset: 0xFF, EndOffset: 0}
	}
	return ob
}

func (m *MockController) ProgramOptionBytes(types hal.OptionType, ob hal.OptionBytes) error {
	if m.locked || m.obLocked {
		return hal.ErrLocked
	}
	m.obTypes = types
	if m.obProgramErr != nil {
		return m.obProgramErr
	}
	if types&hal.OptionWRP != 0 {
		m.ob.WRP = ob.WRP
	}
	if types&hal.OptionUser != 0 {
		m.ob.UserConfig = ob.UserConfig
	}
	return nil
}

func (m *MockController) LaunchOptionBytes() error {
	m.launchCalls++
	return nil
}

// balanced reports whether the controller ended locked with matching unlock/lock counts
func (m *MockController) balanced() bool {
	return m.locked && m.obLocked && m.unlockCalls == m.lockCalls && m.obUnlockCalls == m.obLockCalls
}

// MockLogger records logged messages
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}
