package userdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/udflash/pkg/codec"
	"github.com/ssargent/udflash/pkg/crc"
)

func TestStateOf(t *testing.T) {
	e, _ := newTestEngine(t)

	sealed := func(data ...uint32) codec.Record {
		var r codec.Record
		copy(r.Data[:], data)
		r.Checksum = r.ComputeChecksum(crc.STM32{})
		return r
	}
	partial := func(data ...uint32) codec.Record {
		var r codec.Record
		copy(r.Data[:], data)
		return r
	}

	testCases := []struct {
		name string
		rec  codec.Record
		want State
	}{
		{"erased", codec.Record{}, StateErased},
		{"step 0", partial(valueA), StatePartial0},
		{"steps 0 and 1", partial(valueA, valueB), StatePartial1},
		{"sealed", sealed(valueA, valueB, valueC), StateSealed},
		{"step 2 without seal", partial(valueA, valueB, valueC), StateCorrupt},
		{"gap at step 0", partial(0, valueB), StateCorrupt},
		{"bad checksum", codec.Record{Checksum: 0x1234}, StateCorrupt},
		{"word past the steps", partial(valueA, 0, 0, 1), StateCorrupt},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StateOf(e.Inspect(tc.rec)))
		})
	}
}

func TestEngine_StateFollowsProtocol(t *testing.T) {
	e, _ := newTestEngine(t)

	expect := func(want State) {
		t.Helper()
		got, err := e.State()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	expect(StateErased)
	require.NoError(t, e.WriteStep(0, valueA))
	expect(StatePartial0)
	require.NoError(t, e.WriteStep(1, valueB))
	expect(StatePartial1)
	require.NoError(t, e.WriteStep(2, valueC))
	expect(StateSealed)
	require.NoError(t, e.Erase())
	expect(StateErased)
}

func TestState_NextStep(t *testing.T) {
	testCases := []struct {
		state State
		step  uint32
		ok    bool
	}{
		{StateErased, 0, true},
		{StatePartial0, 1, true},
		{StatePartial1, 2, true},
		{StateSealed, 0, false},
		{StateCorrupt, 0, false},
	}

	for _, tc := range testCases {
		step, ok := tc.state.NextStep()
		assert.Equal(t, tc.ok, ok, tc.state.String())
		assert.Equal(t, tc.step, step, tc.state.String())
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "erased", StateErased.String())
	assert.Equal(t, "partial0", StatePartial0.String())
	assert.Equal(t, "partial1", StatePartial1.String())
	assert.Equal(t, "sealed", StateSealed.String())
	assert.Equal(t, "corrupt", StateCorrupt.String())
}
