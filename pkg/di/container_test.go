package di

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/udflash/pkg/config"
	"github.com/ssargent/udflash/pkg/flash"
	"github.com/ssargent/udflash/pkg/userdata"
)

func memoryConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Flash.Backend = config.BackendMemory
	return cfg
}

func TestContainer_BuildMemory(t *testing.T) {
	rt, err := NewContainer().Build(memoryConfig(), io.Discard)
	require.NoError(t, err)
	defer rt.Close()

	assert.IsType(t, &flash.MemDevice{}, rt.Device)
	assert.NotNil(t, rt.Journal)
	assert.Equal(t, uint32(userdata.DefaultBaseAddress), rt.Engine.BaseAddress())

	require.NoError(t, rt.Engine.WriteStep(0, 0xAAAAAAAA))
	state, err := rt.Engine.State()
	require.NoError(t, err)
	assert.Equal(t, userdata.StatePartial0, state)
}

func TestContainer_BuildPebblePersists(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Flash.DataDir = t.TempDir()

	rt, err := NewContainer().Build(cfg, io.Discard)
	require.NoError(t, err)
	require.NoError(t, rt.Engine.WriteStep(0, 0xAAAAAAAA))
	require.NoError(t, rt.Close())

	rt, err = NewContainer().Build(cfg, io.Discard)
	require.NoError(t, err)
	defer rt.Close()

	res, err := rt.Engine.Read()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAAAAAAAA), res.Record.Data[0])
}

func TestContainer_BuildErrors(t *testing.T) {
	t.Run("unknown algorithm", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.CRC.Algorithm = "adler"
		_, err := NewContainer().Build(cfg, io.Discard)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Flash.Backend = "nor"
		_, err := NewContainer().Build(cfg, io.Discard)
		assert.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Logging.Level = "loud"
		_, err := NewContainer().Build(cfg, io.Discard)
		assert.Error(t, err)
	})
}

type failingDeviceFactory struct{}

func (failingDeviceFactory) OpenDevice(config.Flash) (flash.Device, func() error, error) {
	return nil, nil, errors.New("no device")
}

func TestContainer_SetDeviceFactory(t *testing.T) {
	c := NewContainer()
	c.SetDeviceFactory(failingDeviceFactory{})

	_, err := c.Build(memoryConfig(), io.Discard)
	assert.EqualError(t, err, "no device")
}

func TestRuntime_CloseNil(t *testing.T) {
	var rt *Runtime
	assert.NoError(t, rt.Close())
}
