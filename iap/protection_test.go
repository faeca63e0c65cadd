package iap

import (
	"errors"
	"testing"

	"github.com/moffa90/go-stm32iap/hal"
)

func newTestProtection(t *testing.T, opts ...Option) (*Protection, *MockController) {
	t.Helper()
	ctrl := NewMockController(testRegion)
	p, err := NewProtection(ctrl, testRegion, opts...)
	if err != nil {
		t.Fatalf("NewProtection() error: %v", err)
	}
	return p, ctrl
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		wrp  hal.WRPRange
		want ProtectionFlags
	}{
		{"enabled range", hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: 16, EndOffset: 63}, ProtectionWRP},
		{"reversed range", hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: 63, EndOffset: 0}, ProtectionNone},
		{"single page", hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: 20, EndOffset: 20}, ProtectionNone},
		{"no zone", hal.WRPRange{Zone: 0, StartOffset: 16, EndOffset: 63}, ProtectionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ctrl := newTestProtection(t)
			ctrl.ob.WRP = tt.wrp

			if got := p.Status(); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusIgnoresReadOutProtection(t *testing.T) {
	p, ctrl := newTestProtection(t)
	ctrl.ob.RDPLevel = hal.RDPLevel1
	ctrl.ob.PCROP = hal.PCROPRange{StartAddr: 0x08008000, EndAddr: 0x08009000}

	if got := p.Status(); got != ProtectionNone {
		t.Errorf("Status() = %s, want none", got)
	}
}

func TestSetProtection(t *testing.T) {
	p, ctrl := newTestProtection(t)

	if err := p.SetProtection(true); err != nil {
		t.Fatalf("SetProtection(true) error: %v", err)
	}
	if got := p.Status(); got != ProtectionWRP {
		t.Errorf("Status() after enable = %s, want wrp", got)
	}
	want := hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: 16, EndOffset: 63}
	if ctrl.ob.WRP != want {
		t.Errorf("WRP = %+v, want %+v", ctrl.ob.WRP, want)
	}
	if ctrl.obTypes != hal.OptionWRP {
		t.Errorf("option types = %d, want OptionWRP only", ctrl.obTypes)
	}

	if err := p.SetProtection(false); err != nil {
		t.Fatalf("SetProtection(false) error: %v", err)
	}
	if got := p.Status(); got != ProtectionNone {
		t.Errorf("Status() after disable = %s, want none", got)
	}
	want = hal.WRPRange{Zone: hal.WRPZoneA, StartOffset: 63, EndOffset: 0}
	if ctrl.ob.WRP != want {
		t.Errorf("WRP = %+v, want %+v", ctrl.ob.WRP, want)
	}

	if !ctrl.balanced() {
		t.Errorf("locks not balanced: flash %d/%d, ob %d/%d",
			ctrl.unlockCalls, ctrl.lockCalls, ctrl.obUnlockCalls, ctrl.obLockCalls)
	}
	if ctrl.ob.UserConfig != 0xDEFFE1AA || ctrl.ob.RDPLevel != hal.RDPLevel0 {
		t.Error("unrelated option bytes were modified")
	}
	if ctrl.launchCalls != 0 {
		t.Error("option bytes launched without WithLaunchAfterProtect")
	}
}

func TestSetProtectionFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *MockController)
	}{
		{"flash unlock fails", func(m *MockController) { m.unlockErr = errors.New("key rejected") }},
		{"option unlock fails", func(m *MockController) { m.obUnlockErr = errors.New("key rejected") }},
		{"program fails", func(m *MockController) {
			m.obProgramErr = &hal.StatusError{Operation: "option program", Flags: hal.FlagOPTVERR, Page: -1}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ctrl := newTestProtection(t)
			tt.setup(ctrl)

			err := p.SetProtection(true)
			if !errors.Is(err, ProtectionError) {
				t.Fatalf("error = %v, want ProtectionError", err)
			}
			if !ctrl.locked || !ctrl.obLocked {
				t.Error("controller left unlocked")
			}
			if ctrl.unlockCalls != ctrl.lockCalls {
				t.Errorf("flash unlock/lock = %d/%d", ctrl.unlockCalls, ctrl.lockCalls)
			}
			if p.Status() != ProtectionNone {
				t.Error("protection changed despite failure")
			}
		})
	}
}

func TestSetProtectionLaunch(t *testing.T) {
	p, ctrl := newTestProtection(t, WithLaunchAfterProtect(true))

	if err := p.SetProtection(true); err != nil {
		t.Fatal(err)
	}
	if ctrl.launchCalls != 1 {
		t.Errorf("launch calls = %d, want 1", ctrl.launchCalls)
	}
}

func TestLaunch(t *testing.T) {
	p, ctrl := newTestProtection(t)

	if err := p.Launch(); err != nil {
		t.Fatalf("Launch() error: %v", err)
	}
	if ctrl.launchCalls != 1 {
		t.Errorf("launch calls = %d, want 1", ctrl.launchCalls)
	}
	if !ctrl.balanced() {
		t.Error("controller left unlocked after Launch")
	}

	ctrl.obUnlockErr = errors.New("key rejected")
	if err := p.Launch(); !errors.Is(err, ProtectionError) {
		t.Errorf("error = %v, want ProtectionError", err)
	}
	if ctrl.launchCalls != 1 {
		t.Error("launch requested without option-byte access")
	}
}

func TestWRPEncoding(t *testing.T) {
	for _, enable := range []bool{true, false} {
		r := encodeWRP(enable, testRegion)
		if r.Zone != hal.WRPZoneA {
			t.Errorf("encodeWRP(%v) zone = %d", enable, r.Zone)
		}
		if got := decodeWRP(r); got != enable {
			t.Errorf("decodeWRP(encodeWRP(%v)) = %v", enable, got)
		}
	}
}

func TestProtectionFlagsString(t *testing.T) {
	tests := []struct {
		flags ProtectionFlags
		want  string
	}{
		{ProtectionNone, "none"},
		{ProtectionWRP, "wrp"},
		{ProtectionPCROP | ProtectionWRP | ProtectionRDP, "pcrop|wrp|rdp"},
	}
	for _, tt := range tests {
		if got := tt.flags.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
