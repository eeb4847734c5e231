package userdata

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInvalidStep      = &Error{"step out of range 0-2"}
	ErrAlreadyWritten   = &Error{"step already written"}
	ErrHwReadFailed     = &Error{"flash read failed"}
	ErrEraseFailed      = &Error{"flash erase failed"}
	ErrWriteFailed      = &Error{"flash write failed"}
	ErrWriteCrcFailed   = &Error{"flash checksum write failed"}
	ErrChecksumMismatch = &Error{"record checksum mismatch"}
)

// Error represents a user-data engine error
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// VerifyError indicates that a word read back after programming differs from
// the value written.
type VerifyError struct {
	Address  uint32
	Expected uint32
	Actual   uint32
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify failed at 0x%08X: wrote 0x%08X, read 0x%08X",
		e.Address, e.Expected, e.Actual)
}

// ResultString returns the short result names printed by the firmware shell
func ResultString(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrChecksumMismatch):
		return "crc failed"
	case errors.Is(err, ErrAlreadyWritten):
		return "already"
	case errors.Is(err, ErrEraseFailed):
		return "erase failed"
	case errors.Is(err, ErrWriteCrcFailed):
		return "write crc failed"
	case errors.Is(err, ErrWriteFailed):
		return "write failed"
	case errors.Is(err, ErrInvalidStep):
		return "no step"
	case errors.Is(err, ErrHwReadFailed):
		return "read failed"
	default:
		return "undefined error"
	}
}
