package hal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLocked is returned by operations attempted on a locked controller.
var ErrLocked = errors.New("flash controller is locked")

// StatusError reports a hardware operation that ended with error flags set.
type StatusError struct {
	// Operation is the hardware action that failed
	Operation string

	// Flags are the status register error bits at completion
	Flags Flags

	// Page is the failing page index for erase operations, -1 otherwise
	Page int
}

func (e *StatusError) Error() string {
	if e.Page >= 0 {
		return fmt.Sprintf("%s failed at page %d: %s (0x%04X)", e.Operation, e.Page, e.Flags, uint32(e.Flags))
	}
	return fmt.Sprintf("%s failed: %s (0x%04X)", e.Operation, e.Flags, uint32(e.Flags))
}

// IsStatusError returns true if err is or wraps a StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// Has reports whether all bits of f are set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// String returns the set flag names joined by '|'.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}

	var names []string
	for bit := Flags(1); bit != 0 && bit <= f; bit <<= 1 {
		if f&bit == 0 {
			continue
		}
		names = append(names, getFlagName(bit))
	}
	return strings.Join(names, "|")
}

// getFlagName returns the reference-manual name of a single status bit.
func getFlagName(bit Flags) string {
	switch bit {
	case FlagEOP:
		return "EOP"
	case FlagOPERR:
		return "OPERR"
	case FlagPROGERR:
		return "PROGERR"
	case FlagWRPERR:
		return "WRPERR"
	case FlagPGAERR:
		return "PGAERR"
	case FlagSIZERR:
		return "SIZERR"
	case FlagPGSERR:
		return "PGSERR"
	case FlagMISSERR:
		return "MISSERR"
	case FlagFASTERR:
		return "FASTERR"
	case FlagRDERR:
		return "RDERR"
	case FlagOPTVERR:
		return "OPTVERR"
	default:
		return fmt.Sprintf("BIT%d", bitIndex(bit))
	}
}

func bitIndex(bit Flags) int {
	n := 0
	for bit > 1 {
		bit >>= 1
		n++
	}
	return n
}
