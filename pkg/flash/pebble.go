package flash

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

const (
	wordPrefix    = "word/"
	journalPrefix = "journal/"
)

// PebbleDeviceConfig holds configuration for a persistent flash image
type PebbleDeviceConfig struct {
	Dir             string // Directory of the pebble database
	Region          Region
	StrictWriteOnce bool
}

// PebbleDevice keeps a flash page image in a pebble database so that its
// contents survive process restarts, which stand in for power cycles.
// Erased words are absent keys. The controller lock is not persisted: a
// freshly opened device is locked, as after reset.
type PebbleDevice struct {
	db     *pebble.DB
	config PebbleDeviceConfig
	locked bool
	ids    idSource
	mutex  sync.Mutex
}

// OpenPebbleDevice opens or creates the image stored in config.Dir
func OpenPebbleDevice(config PebbleDeviceConfig) (*PebbleDevice, error) {
	db, err := pebble.Open(config.Dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open flash image: %w", err)
	}
	return &PebbleDevice{db: db, config: config, locked: true}, nil
}

// journalKey orders entries by time first; ids from separate processes
// opened within the same second do not sort by issue order on their own.
func journalKey(e JournalEntry) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", journalPrefix, e.At.UnixNano(), e.ID))
}

func wordKey(addr uint32) []byte {
	return []byte(fmt.Sprintf("%s%08x", wordPrefix, addr))
}

// ErasePage implements Device
func (d *PebbleDevice) ErasePage(addr uint32) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	err := d.erase(addr)
	return d.record(OpErase, addr, 0, err)
}

func (d *PebbleDevice) erase(addr uint32) error {
	if d.locked {
		return ErrLocked
	}
	if err := d.config.Region.CheckPage(addr); err != nil {
		return err
	}
	if d.config.Region.Size < 4 {
		return nil
	}
	// Upper bound just past the last word; Base+Size wraps for the top page
	last := d.config.Region.Base + d.config.Region.Size - 4
	return d.db.DeleteRange(wordKey(addr), append(wordKey(last), 0), pebble.Sync)
}

// ProgramWord implements Device
func (d *PebbleDevice) ProgramWord(addr uint32, value uint32) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	err := d.program(addr, value)
	return d.record(OpProgram, addr, value, err)
}

func (d *PebbleDevice) program(addr uint32, value uint32) error {
	if d.locked {
		return ErrLocked
	}
	if err := d.config.Region.Check(addr); err != nil {
		return err
	}

	current, err := d.read(addr)
	if err != nil {
		return err
	}
	if current != 0 && d.config.StrictWriteOnce {
		return fmt.Errorf("%w: 0x%08X", ErrNotErased, addr)
	}

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, current|value)
	return d.db.Set(wordKey(addr), buf, pebble.Sync)
}

// ReadWord implements Device
func (d *PebbleDevice) ReadWord(addr uint32) (uint32, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.config.Region.Check(addr); err != nil {
		return 0, err
	}
	return d.read(addr)
}

func (d *PebbleDevice) read(addr uint32) (uint32, error) {
	data, closer, err := d.db.Get(wordKey(addr))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	if len(data) != 4 {
		return 0, fmt.Errorf("corrupt word image at 0x%08X: %d bytes", addr, len(data))
	}
	return binary.LittleEndian.Uint32(data), nil
}

// Unlock implements Device
func (d *PebbleDevice) Unlock() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.locked = false
	return nil
}

// Lock implements Device
func (d *PebbleDevice) Lock() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.locked = true
	return nil
}

// Locked reports the controller lock state
func (d *PebbleDevice) Locked() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.locked
}

// record appends a journal entry for the operation and returns opErr. A
// journal write failure is only reported when the operation itself succeeded.
func (d *PebbleDevice) record(op Op, addr, value uint32, opErr error) error {
	entry := d.ids.entry(op, addr, value, opErr)
	data, err := json.Marshal(entry)
	if err == nil {
		err = d.db.Set(journalKey(entry), data, pebble.Sync)
	}
	if opErr != nil {
		return opErr
	}
	if err != nil {
		return fmt.Errorf("failed to journal %s: %w", op, err)
	}
	return nil
}

// Journal implements Journaler
func (d *PebbleDevice) Journal(limit int) ([]JournalEntry, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	iter, err := d.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(journalPrefix),
		UpperBound: []byte(journalPrefix + "\xff"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []JournalEntry
	for iter.First(); iter.Valid(); iter.Next() {
		var e JournalEntry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("corrupt journal entry %s: %w", iter.Key(), err)
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return tail(entries, limit), nil
}

// Close flushes and closes the image
func (d *PebbleDevice) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.db.Close()
}
