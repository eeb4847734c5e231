package userdata

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ssargent/udflash/pkg/codec"
	"github.com/ssargent/udflash/pkg/crc"
	"github.com/ssargent/udflash/pkg/flash"
)

// StepCount is the number of steps in the write protocol
const StepCount = codec.StepWords

const lastStep = StepCount - 1

// ReadResult is the outcome of reading the record region. Valid is false on
// a checksum mismatch; Record and Raw still hold what was read, and the
// caller decides whether that means empty or corrupt.
type ReadResult struct {
	Record   codec.Record
	Raw      []byte // 128-byte flash image
	Valid    bool
	Computed uint32 // checksum recomputed over the data words
}

// Err returns nil for a valid record and an ErrChecksumMismatch otherwise
func (r ReadResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrChecksumMismatch,
		&codec.ChecksumMismatchError{Stored: r.Record.Checksum, Computed: r.Computed})
}

// Engine persists the user-data record with the three-step write protocol.
// It performs no locking of its own; callers serialize access.
type Engine struct {
	dev    flash.Device
	crc    crc.Engine
	codec  *codec.RecordCodec
	config Config
	log    *slog.Logger
}

// New creates an engine over the given flash device and CRC engine
func New(dev flash.Device, engine crc.Engine, opts ...Option) (*Engine, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.BaseAddress%codec.WordSize != 0 {
		return nil, fmt.Errorf("base address 0x%08X not word aligned", config.BaseAddress)
	}
	if config.BaseAddress > ^uint32(0)-codec.RecordSize+1 {
		return nil, fmt.Errorf("record at 0x%08X overflows the address space", config.BaseAddress)
	}

	return &Engine{
		dev:    dev,
		crc:    engine,
		codec:  codec.NewRecordCodec(),
		config: config,
		log:    config.Logger.With("base", hex32(config.BaseAddress)),
	}, nil
}

// BaseAddress returns the flash address of the record
func (e *Engine) BaseAddress() uint32 {
	return e.config.BaseAddress
}

// Read reads and validates the record. Only device failures are returned
// as errors, wrapping ErrHwReadFailed.
func (e *Engine) Read() (ReadResult, error) {
	start := time.Now()
	res, err := e.read()
	if err == nil {
		e.observe("read", res.Err(), start)
	} else {
		e.observe("read", err, start)
	}
	return res, err
}

// Erase erases the record page. The controller is locked again on every path.
func (e *Engine) Erase() (err error) {
	start := time.Now()
	defer func() { e.observe("erase", err, start) }()

	g, err := flash.Unlock(e.dev)
	if err != nil {
		e.log.Warn("unlock failed", "op", "erase", "error", err)
		return fmt.Errorf("%w: unlock: %w", ErrEraseFailed, err)
	}
	defer e.release(g)

	e.log.Debug("erase page")
	if err := e.dev.ErasePage(e.config.BaseAddress); err != nil {
		e.log.Warn("erase failed", "error", err)
		return fmt.Errorf("%w: %w", ErrEraseFailed, err)
	}
	return nil
}

// WriteStep programs data word step (0, 1 or 2) with value. Writing step 2
// also seals the record with its checksum. A step whose word, or any later
// step word, or the checksum is already non-zero is refused with
// ErrAlreadyWritten.
//
// The erase value is 0, so a step written with value 0 cannot be told
// apart from an unwritten one: writing 0 at step 0 or 1 is unsupported.
func (e *Engine) WriteStep(step, value uint32) (err error) {
	start := time.Now()
	defer func() { e.observe("write_step", err, start) }()

	if step > lastStep {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}

	res, err := e.read()
	if err != nil {
		return err
	}

	if stepDone(step, res.Record) {
		e.log.Debug("step already written", "step", step)
		return fmt.Errorf("%w: step %d", ErrAlreadyWritten, step)
	}

	offset, err := codec.WordOffset(int(step))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStep, err)
	}

	g, err := flash.Unlock(e.dev)
	if err != nil {
		e.log.Warn("unlock failed", "op", "write_step", "error", err)
		return fmt.Errorf("%w: unlock: %w", ErrWriteFailed, err)
	}
	defer e.release(g)

	if err := e.program(e.config.BaseAddress+offset, value); err != nil {
		e.log.Warn("step write failed", "step", step, "error", err)
		return fmt.Errorf("%w: step %d: %w", ErrWriteFailed, step, err)
	}

	if step != lastStep {
		return nil
	}

	rec := res.Record
	rec.Data[lastStep] = value
	sum := rec.ComputeChecksum(e.crc)
	if err := e.program(e.config.BaseAddress+codec.ChecksumOffset, sum); err != nil {
		e.log.Warn("checksum write failed", "checksum", hex32(sum), "error", err)
		return fmt.Errorf("%w: %w", ErrWriteCrcFailed, err)
	}

	e.log.Debug("record sealed", "checksum", hex32(sum))
	return nil
}

// State reads the record and derives its lifecycle state
func (e *Engine) State() (State, error) {
	res, err := e.Read()
	if err != nil {
		return StateCorrupt, err
	}
	return StateOf(res), nil
}

// Inspect validates a record that did not come from the device, e.g. a
// decoded flash dump
func (e *Engine) Inspect(rec codec.Record) ReadResult {
	computed := rec.ComputeChecksum(e.crc)
	return ReadResult{
		Record:   rec,
		Raw:      e.codec.Encode(rec),
		Valid:    computed == rec.Checksum,
		Computed: computed,
	}
}

func (e *Engine) read() (ReadResult, error) {
	var words [codec.TotalWords]uint32
	for i := range words {
		addr := e.config.BaseAddress + uint32(i*codec.WordSize)
		w, err := e.dev.ReadWord(addr)
		if err != nil {
			e.log.Warn("read failed", "address", hex32(addr), "error", err)
			return ReadResult{}, fmt.Errorf("%w: word %d at 0x%08X: %w", ErrHwReadFailed, i, addr, err)
		}
		words[i] = w
	}
	return e.Inspect(codec.FromWords(words)), nil
}

func (e *Engine) program(addr, value uint32) error {
	e.log.Debug("program word", "address", hex32(addr), "value", hex32(value))
	if err := e.dev.ProgramWord(addr, value); err != nil {
		return err
	}
	if !e.config.VerifyAfterProgram {
		return nil
	}

	got, err := e.dev.ReadWord(addr)
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	if got != value {
		return &VerifyError{Address: addr, Expected: value, Actual: got}
	}
	return nil
}

func (e *Engine) release(g *flash.Guard) {
	if err := g.Release(); err != nil {
		e.log.Warn("lock failed", "error", err)
	}
}

func (e *Engine) observe(op string, err error, start time.Time) {
	if e.config.Observer != nil {
		e.config.Observer.ObserveOperation(op, err, time.Since(start))
	}
}

// stepDone reports whether step, or anything after it, was already
// programmed: a non-zero checksum or a non-zero data word in step..2.
func stepDone(step uint32, rec codec.Record) bool {
	done := rec.Checksum != 0
	for i := step; i < StepCount; i++ {
		done = done || rec.Data[i] != 0
	}
	return done
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
