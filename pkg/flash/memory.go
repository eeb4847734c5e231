package flash

import (
	"fmt"
	"sync"
)

// MemDeviceConfig holds configuration for an in-memory flash device
type MemDeviceConfig struct {
	Region          Region
	StrictWriteOnce bool // Reject programming a word that is not erased
}

// MemDevice simulates one page of on-chip flash in RAM. It enforces the
// controller lock, counts every primitive call and can inject failures.
type MemDevice struct {
	config  MemDeviceConfig
	words   []uint32
	locked  bool
	faults  map[Op][]error
	counts  map[Op]int
	ids     idSource
	journal []JournalEntry
	mutex   sync.Mutex
}

// NewMemDevice creates an erased, locked device
func NewMemDevice(config MemDeviceConfig) *MemDevice {
	return &MemDevice{
		config: config,
		words:  make([]uint32, config.Region.Size/4),
		locked: true,
		faults: make(map[Op][]error),
		counts: make(map[Op]int),
	}
}

// FailNext makes the next call of op fail with err. Calls queue up.
func (d *MemDevice) FailNext(op Op, err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.faults[op] = append(d.faults[op], err)
}

// Count returns how many times op was called
func (d *MemDevice) Count(op Op) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.counts[op]
}

// Accesses returns the total number of primitive calls
func (d *MemDevice) Accesses() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	total := 0
	for _, n := range d.counts {
		total += n
	}
	return total
}

// ResetCounters clears the access counters
func (d *MemDevice) ResetCounters() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.counts = make(map[Op]int)
}

// Locked reports the controller lock state
func (d *MemDevice) Locked() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.locked
}

// Poke overwrites a word bypassing lock and write-once rules; used to
// stage corrupted images
func (d *MemDevice) Poke(addr, value uint32) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if err := d.config.Region.Check(addr); err != nil {
		return err
	}
	d.words[d.config.Region.index(addr)] = value
	return nil
}

// ErasePage implements Device
func (d *MemDevice) ErasePage(addr uint32) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	err := d.erase(addr)
	d.journal = append(d.journal, d.ids.entry(OpErase, addr, 0, err))
	return err
}

func (d *MemDevice) erase(addr uint32) error {
	if err := d.begin(OpErase); err != nil {
		return err
	}
	if d.locked {
		return ErrLocked
	}
	if err := d.config.Region.CheckPage(addr); err != nil {
		return err
	}
	for i := range d.words {
		d.words[i] = 0
	}
	return nil
}

// ProgramWord implements Device
func (d *MemDevice) ProgramWord(addr uint32, value uint32) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	err := d.program(addr, value)
	d.journal = append(d.journal, d.ids.entry(OpProgram, addr, value, err))
	return err
}

func (d *MemDevice) program(addr uint32, value uint32) error {
	if err := d.begin(OpProgram); err != nil {
		return err
	}
	if d.locked {
		return ErrLocked
	}
	if err := d.config.Region.Check(addr); err != nil {
		return err
	}

	i := d.config.Region.index(addr)
	if d.words[i] != 0 && d.config.StrictWriteOnce {
		return fmt.Errorf("%w: 0x%08X", ErrNotErased, addr)
	}
	// Bits only move away from the erase value without an erase
	d.words[i] |= value
	return nil
}

// ReadWord implements Device
func (d *MemDevice) ReadWord(addr uint32) (uint32, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.begin(OpRead); err != nil {
		return 0, err
	}
	if err := d.config.Region.Check(addr); err != nil {
		return 0, err
	}
	return d.words[d.config.Region.index(addr)], nil
}

// Unlock implements Device
func (d *MemDevice) Unlock() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.begin(OpUnlock); err != nil {
		return err
	}
	d.locked = false
	return nil
}

// Lock implements Device
func (d *MemDevice) Lock() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.begin(OpLock); err != nil {
		return err
	}
	d.locked = true
	return nil
}

// Journal implements Journaler
func (d *MemDevice) Journal(limit int) ([]JournalEntry, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	out := make([]JournalEntry, len(d.journal))
	copy(out, d.journal)
	return tail(out, limit), nil
}

// begin counts a call of op and pops an injected failure, if any
func (d *MemDevice) begin(op Op) error {
	d.counts[op]++
	if queued := d.faults[op]; len(queued) > 0 {
		d.faults[op] = queued[1:]
		return queued[0]
	}
	return nil
}
