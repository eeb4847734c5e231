// Package di provides dependency injection container
package di

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssargent/udflash/pkg/api" //nolint:depguard
	"github.com/ssargent/udflash/pkg/codec"
	"github.com/ssargent/udflash/pkg/config"
	"github.com/ssargent/udflash/pkg/crc"
	"github.com/ssargent/udflash/pkg/flash"
	"github.com/ssargent/udflash/pkg/userdata"
)

// DeviceFactory opens the flash device described by the configuration
type DeviceFactory interface {
	// OpenDevice returns the device and a function releasing it
	OpenDevice(cfg config.Flash) (flash.Device, func() error, error)
}

// DefaultDeviceFactory opens memory or pebble backed devices
type DefaultDeviceFactory struct{}

// NewDeviceFactory creates a new device factory
func NewDeviceFactory() DeviceFactory {
	return &DefaultDeviceFactory{}
}

// OpenDevice implements DeviceFactory
func (f *DefaultDeviceFactory) OpenDevice(cfg config.Flash) (flash.Device, func() error, error) {
	region := flash.Region{Base: uint32(cfg.BaseAddress), Size: codec.RecordSize}

	switch cfg.Backend {
	case config.BackendMemory:
		dev := flash.NewMemDevice(flash.MemDeviceConfig{
			Region:          region,
			StrictWriteOnce: cfg.StrictWriteOnce,
		})
		return dev, func() error { return nil }, nil
	case config.BackendPebble:
		dev, err := flash.OpenPebbleDevice(flash.PebbleDeviceConfig{
			Dir:             cfg.DataDir,
			Region:          region,
			StrictWriteOnce: cfg.StrictWriteOnce,
		})
		if err != nil {
			return nil, nil, err
		}
		return dev, dev.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown flash backend %q", cfg.Backend)
	}
}

// Runtime is the wired record engine and everything it depends on
type Runtime struct {
	Engine   *userdata.Engine
	Device   flash.Device
	Journal  flash.Journaler // nil when the device keeps no journal
	Metrics  *api.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger
	close    func() error
}

// Close releases the flash device
func (r *Runtime) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

// Container holds all the dependencies for the application
type Container struct {
	deviceFactory DeviceFactory
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		deviceFactory: NewDeviceFactory(),
		serverFactory: api.NewServerFactory(),
	}
}

// GetDeviceFactory returns the device factory
func (c *Container) GetDeviceFactory() DeviceFactory {
	return c.deviceFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetDeviceFactory allows overriding the device factory (for testing)
func (c *Container) SetDeviceFactory(factory DeviceFactory) {
	c.deviceFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// Build wires the record engine for cfg. Logs are written to logOut.
func (c *Container) Build(cfg *config.Config, logOut io.Writer) (*Runtime, error) {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	engine, err := crc.ByName(cfg.CRC.Algorithm)
	if err != nil {
		return nil, err
	}

	dev, closeDev, err := c.deviceFactory.OpenDevice(cfg.Flash)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := api.NewMetrics(registry)

	rec, err := userdata.New(dev, engine,
		userdata.WithBaseAddress(uint32(cfg.Flash.BaseAddress)),
		userdata.WithLogger(logger),
		userdata.WithObserver(metrics),
		userdata.WithVerifyAfterProgram(cfg.VerifyAfterProgram),
	)
	if err != nil {
		_ = closeDev()
		return nil, err
	}

	rt := &Runtime{
		Engine:   rec,
		Device:   dev,
		Metrics:  metrics,
		Registry: registry,
		Logger:   logger,
		close:    closeDev,
	}
	if j, ok := dev.(flash.Journaler); ok {
		rt.Journal = j
	}
	return rt, nil
}
