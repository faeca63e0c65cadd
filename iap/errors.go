package iap

import (
	"errors"
	"fmt"
)

// ErrorCode is the closed set of outcomes of a flash operation.
type ErrorCode uint32

const (
	// Ok means the operation completed. It is never returned as an error.
	Ok ErrorCode = iota

	// EraseFailed means the erase request was rejected or the controller failed it
	EraseFailed

	// ProgramControlError means the controller rejected a program operation
	ProgramControlError

	// ProgramVerifyError means a programmed unit did not read back as written
	ProgramVerifyError

	// ProtectionError means option-byte programming failed
	ProtectionError
)

func (c ErrorCode) String() string {
	switch c {
	case Ok:
		return "ok"
	case EraseFailed:
		return "erase failed"
	case ProgramControlError:
		return "program control error"
	case ProgramVerifyError:
		return "program verify error"
	case ProtectionError:
		return "protection error"
	default:
		return fmt.Sprintf("unknown error code %d", uint32(c))
	}
}

// Error lets an ErrorCode be used as an errors.Is target.
func (c ErrorCode) Error() string {
	return c.String()
}

// OpError is the error returned by Driver, Protection and Programmer operations.
type OpError struct {
	// Op is the operation that failed
	Op string

	// Code classifies the failure
	Code ErrorCode

	// Addr is the address the operation stopped at
	Addr uint32

	// Err is the underlying cause, if any
	Err error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at 0x%08X: %s", e.Op, e.Addr, e.Code)
	}
	return fmt.Sprintf("%s at 0x%08X: %s: %v", e.Op, e.Addr, e.Code, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the ErrorCode of e.
func (e *OpError) Is(target error) bool {
	code, ok := target.(ErrorCode)
	return ok && code == e.Code
}

// CodeOf returns the ErrorCode carried by err. A nil error yields Ok. The second
// result is false when err is not an IAP operation error.
func CodeOf(err error) (ErrorCode, bool) {
	if err == nil {
		return Ok, true
	}

	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code, true
	}

	var code ErrorCode
	if errors.As(err, &code) {
		return code, true
	}

	return Ok, false
}

// AddressRangeError indicates a request outside the managed region or off its
// required alignment. No hardware access was made.
type AddressRangeError struct {
	Addr   uint32
	Min    uint32
	Max    uint32
	Reason string
}

func (e *AddressRangeError) Error() string {
	return fmt.Sprintf("address 0x%08X %s: valid range is 0x%08X-0x%08X",
		e.Addr, e.Reason, e.Min, e.Max)
}

// VerifyMismatchError indicates a program unit whose read-back differs from the source.
type VerifyMismatchError struct {
	Addr     uint32
	Expected []byte
	Actual   []byte
}

func (e *VerifyMismatchError) Error() string {
	return fmt.Sprintf("read-back mismatch at 0x%08X: expected % X, got % X",
		e.Addr, e.Expected, e.Actual)
}

// ErrWriteProtected is returned by Programmer when the application region is
// write protected and unprotecting was not requested.
var ErrWriteProtected = errors.New("application region is write protected")
