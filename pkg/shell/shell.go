// Package shell maps single operator characters to user-data operations,
// the same command set the firmware serves on its UART console.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/udflash/pkg/codec"
	"github.com/ssargent/udflash/pkg/userdata"
)

// DefaultStepValues are the test patterns the firmware writes for keys 0, 1 and 2
var DefaultStepValues = [userdata.StepCount]uint32{0xAAAAAAAA, 0xBBBBBBBB, 0xCCCCCCCC}

// Store is the subset of the engine the shell drives
type Store interface {
	Read() (userdata.ReadResult, error)
	Erase() error
	WriteStep(step, value uint32) error
}

// Dispatcher prints the outcome of each command to its writer
type Dispatcher struct {
	store  Store
	out    io.Writer
	values [userdata.StepCount]uint32
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithStepValues overrides the values written by keys 0, 1 and 2
func WithStepValues(values [userdata.StepCount]uint32) Option {
	return func(d *Dispatcher) {
		d.values = values
	}
}

// New creates a dispatcher writing to out
func New(store Store, out io.Writer, opts ...Option) *Dispatcher {
	d := &Dispatcher{store: store, out: out, values: DefaultStepValues}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle runs the command bound to ch. Unknown characters are only echoed.
//
//	r  read and hexdump the record
//	0  write step 0
//	1  write step 1
//	2  write step 2 and seal
//	e  erase the record
func (d *Dispatcher) Handle(ch byte) error {
	if _, err := fmt.Fprintf(d.out, "rx: %x\n", ch); err != nil {
		return err
	}

	switch ch {
	case 'r':
		res, err := d.store.Read()
		result := userdata.ResultString(err)
		if err == nil {
			result = userdata.ResultString(res.Err())
		}
		if _, err := fmt.Fprintf(d.out, "flash read: %s\n", result); err != nil {
			return err
		}
		raw := res.Raw
		if raw == nil {
			raw = make([]byte, codec.RecordSize)
		}
		return codec.Dump(d.out, raw)

	case '0', '1', '2':
		step := uint32(ch - '0')
		err := d.store.WriteStep(step, d.values[step])
		_, werr := fmt.Fprintf(d.out, "flash write step %d: %s\n", step, userdata.ResultString(err))
		return werr

	case 'e':
		err := d.store.Erase()
		_, werr := fmt.Fprintf(d.out, "flash erase: %s\n", userdata.ResultString(err))
		return werr
	}
	return nil
}

// Run feeds every byte of in to Handle until EOF or ctx is cancelled.
// Line endings are skipped so the console can be driven from a terminal.
func (d *Dispatcher) Run(ctx context.Context, in io.Reader) error {
	r := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ch, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ch == '\n' || ch == '\r' {
			continue
		}

		if err := d.Handle(ch); err != nil {
			return err
		}
	}
}
