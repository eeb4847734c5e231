package userdata

import (
	"io"
	"log/slog"
	"time"
)

// DefaultBaseAddress is the start of the last usable page of the STM32L0
// flash sector reserved for user data.
const DefaultBaseAddress = 0x0802FD00

// Observer receives the outcome of every engine operation (optional)
type Observer interface {
	ObserveOperation(operation string, err error, duration time.Duration)
}

// Config holds the engine configuration.
type Config struct {
	// BaseAddress is the flash address of the record page
	BaseAddress uint32

	// Logger receives Debug logs for every primitive call and Warn logs for failures
	Logger *slog.Logger

	// Observer is notified after each Read, Erase and WriteStep (optional)
	Observer Observer

	// VerifyAfterProgram reads every programmed word back and compares it
	VerifyAfterProgram bool
}

func defaultConfig() Config {
	return Config{
		BaseAddress: DefaultBaseAddress,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithBaseAddress sets the flash address of the record page.
func WithBaseAddress(addr uint32) Option {
	return func(c *Config) {
		c.BaseAddress = addr
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithObserver sets an operation observer, typically metrics.
func WithObserver(observer Observer) Option {
	return func(c *Config) {
		c.Observer = observer
	}
}

// WithVerifyAfterProgram enables or disables read-back verification of
// every programmed word. Default is false.
func WithVerifyAfterProgram(verify bool) Option {
	return func(c *Config) {
		c.VerifyAfterProgram = verify
	}
}
