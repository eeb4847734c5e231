package userdata

import "github.com/ssargent/udflash/pkg/codec"

// State is the lifecycle position of the record, derived from its contents
type State int

const (
	StateErased   State = iota // every word at the erase value
	StatePartial0              // step 0 committed
	StatePartial1              // steps 0 and 1 committed
	StateSealed                // checksum written and valid
	StateCorrupt               // anything else, e.g. step 2 written without a seal
)

func (s State) String() string {
	switch s {
	case StateErased:
		return "erased"
	case StatePartial0:
		return "partial0"
	case StatePartial1:
		return "partial1"
	case StateSealed:
		return "sealed"
	default:
		return "corrupt"
	}
}

// NextStep returns the step the protocol expects next, or false when no
// step can be written without an erase.
func (s State) NextStep() (uint32, bool) {
	switch s {
	case StateErased:
		return 0, true
	case StatePartial0:
		return 1, true
	case StatePartial1:
		return 2, true
	default:
		return 0, false
	}
}

// StateOf derives the record state from a read result
func StateOf(res ReadResult) State {
	rec := res.Record
	if rec.IsErased() {
		return StateErased
	}
	if res.Valid {
		return StateSealed
	}
	if rec.Checksum != 0 {
		return StateCorrupt
	}
	for _, w := range rec.Data[codec.StepWords:] {
		if w != 0 {
			return StateCorrupt
		}
	}

	d := rec.Data
	switch {
	case d[0] != 0 && d[1] == 0 && d[2] == 0:
		return StatePartial0
	case d[0] != 0 && d[1] != 0 && d[2] == 0:
		return StatePartial1
	default:
		return StateCorrupt
	}
}
