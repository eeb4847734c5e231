package flash

import "fmt"

// Device is the set of hardware primitives the record engine needs from the
// flash controller. Addresses are absolute byte addresses.
type Device interface {
	// ErasePage erases the page starting at addr; every word reads as 0 afterwards
	ErasePage(addr uint32) error

	// ProgramWord programs one 32-bit word
	ProgramWord(addr uint32, value uint32) error

	// ReadWord reads one 32-bit word
	ReadWord(addr uint32) (uint32, error)

	// Unlock enables erase and program operations
	Unlock() error

	// Lock disables erase and program operations
	Lock() error
}

// Op names a device primitive, for counters, fault injection and the journal
type Op string

const (
	OpErase   Op = "erase"
	OpProgram Op = "program"
	OpRead    Op = "read"
	OpUnlock  Op = "unlock"
	OpLock    Op = "lock"
)

// Errors
var (
	ErrLocked     = &Error{"flash controller is locked"}
	ErrNotErased  = &Error{"word already programmed since last erase"}
	ErrOutOfRange = &Error{"address outside flash region"}
	ErrUnaligned  = &Error{"address not word aligned"}
)

// Error represents a flash controller error
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Region is the address window a simulated device exposes: one page
type Region struct {
	Base uint32 // Page start address
	Size uint32 // Page size in bytes
}

// Check validates that addr is a word-aligned address inside the region
func (r Region) Check(addr uint32) error {
	if addr%4 != 0 {
		return fmt.Errorf("%w: 0x%08X", ErrUnaligned, addr)
	}
	if addr < r.Base || addr-r.Base >= r.Size {
		return fmt.Errorf("%w: 0x%08X not in [0x%08X, 0x%08X)", ErrOutOfRange, addr, r.Base, r.Base+r.Size)
	}
	return nil
}

// CheckPage validates that addr is the start of the region's page
func (r Region) CheckPage(addr uint32) error {
	if addr != r.Base {
		return fmt.Errorf("%w: page 0x%08X, region starts at 0x%08X", ErrOutOfRange, addr, r.Base)
	}
	return nil
}

// index returns the word index of a checked address
func (r Region) index(addr uint32) int {
	return int((addr - r.Base) / 4)
}
