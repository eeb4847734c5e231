package flash

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestPebbleDevice(t *testing.T, dir string) *PebbleDevice {
	t.Helper()
	dev, err := OpenPebbleDevice(PebbleDeviceConfig{
		Dir:             dir,
		Region:          Region{Base: testBase, Size: 128},
		StrictWriteOnce: true,
	})
	require.NoError(t, err)
	return dev
}

func TestPebbleDevice_SurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "flash")

	dev := openTestPebbleDevice(t, dir)
	require.NoError(t, dev.Unlock())
	require.NoError(t, dev.ProgramWord(testBase, 0xAAAAAAAA))
	require.NoError(t, dev.ProgramWord(testBase+124, 0x12345678))
	require.NoError(t, dev.Lock())
	require.NoError(t, dev.Close())

	dev = openTestPebbleDevice(t, dir)
	defer dev.Close()

	assert.True(t, dev.Locked(), "device must come up locked")

	v, err := dev.ReadWord(testBase)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAAAAAAAA), v)

	v, err = dev.ReadWord(testBase + 124)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)

	v, err = dev.ReadWord(testBase + 4)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestPebbleDevice_EraseAndWriteOnce(t *testing.T) {
	dev := openTestPebbleDevice(t, t.TempDir())
	defer dev.Close()

	assert.ErrorIs(t, dev.ProgramWord(testBase, 1), ErrLocked)

	require.NoError(t, dev.Unlock())
	require.NoError(t, dev.ProgramWord(testBase, 1))
	assert.ErrorIs(t, dev.ProgramWord(testBase, 2), ErrNotErased)

	require.NoError(t, dev.ErasePage(testBase))
	for addr := uint32(testBase); addr < testBase+128; addr += 4 {
		v, err := dev.ReadWord(addr)
		require.NoError(t, err)
		assert.Zero(t, v)
	}
	assert.NoError(t, dev.ProgramWord(testBase, 2))

	assert.ErrorIs(t, dev.ErasePage(testBase+128), ErrOutOfRange)
	_, err := dev.ReadWord(testBase + 3)
	assert.ErrorIs(t, err, ErrUnaligned)
}

func TestPebbleDevice_Journal(t *testing.T) {
	dir := t.TempDir()
	dev := openTestPebbleDevice(t, dir)

	require.NoError(t, dev.Unlock())
	require.NoError(t, dev.ErasePage(testBase))
	require.NoError(t, dev.ProgramWord(testBase, 0xAAAAAAAA))
	assert.Error(t, dev.ProgramWord(testBase, 0xAAAAAAAA))
	require.NoError(t, dev.Close())

	dev = openTestPebbleDevice(t, dir)
	defer dev.Close()

	entries, err := dev.Journal(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, OpErase, entries[0].Op)
	assert.Equal(t, OpProgram, entries[1].Op)
	assert.True(t, entries[1].OK)
	assert.False(t, entries[2].OK)

	last, err := dev.Journal(2)
	require.NoError(t, err)
	assert.Len(t, last, 2)
	assert.Equal(t, entries[1].ID, last[0].ID)
}

func TestPebbleDevice_EraseTopOfAddressSpace(t *testing.T) {
	const top = 0xFFFFFF80
	dev, err := OpenPebbleDevice(PebbleDeviceConfig{
		Dir:             t.TempDir(),
		Region:          Region{Base: top, Size: 128},
		StrictWriteOnce: true,
	})
	require.NoError(t, err)
	defer dev.Close()

	require.NoError(t, dev.Unlock())
	require.NoError(t, dev.ProgramWord(top, 0xAAAAAAAA))
	require.NoError(t, dev.ProgramWord(top+124, 0x12345678))

	require.NoError(t, dev.ErasePage(top))
	for _, addr := range []uint32{top, top + 124} {
		v, err := dev.ReadWord(addr)
		require.NoError(t, err)
		assert.Zero(t, v, "word at 0x%08X after erase", addr)
	}
	assert.NoError(t, dev.ProgramWord(top, 1))
}
