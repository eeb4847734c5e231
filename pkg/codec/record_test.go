package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/ssargent/udflash/pkg/crc"
)

func sealedRecord(engine crc.Engine, data ...uint32) Record {
	var r Record
	copy(r.Data[:], data)
	r.Checksum = r.ComputeChecksum(engine)
	return r
}

func TestRecordCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewRecordCodec()

	testCases := []struct {
		name   string
		record Record
	}{
		{
			name:   "erased",
			record: Record{},
		},
		{
			name:   "sealed step values",
			record: sealedRecord(crc.STM32{}, 0xAAAAAAAA, 0xBBBBBBBB, 0xCCCCCCCC),
		},
		{
			name:   "partial without checksum",
			record: Record{Data: [DataWords]uint32{0xAAAAAAAA}},
		},
		{
			name: "every word set",
			record: func() Record {
				var r Record
				for i := range r.Data {
					r.Data[i] = uint32(i)*0x01010101 + 1
				}
				r.Checksum = 0xFFFFFFFF
				return r
			}(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := codec.Encode(tc.record)
			if len(encoded) != RecordSize {
				t.Fatalf("Encoded size: got %d, want %d", len(encoded), RecordSize)
			}

			decoded, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if decoded != tc.record {
				t.Errorf("Record mismatch: got %+v, want %+v", decoded, tc.record)
			}

			if !bytes.Equal(codec.Encode(decoded), encoded) {
				t.Error("Re-encoded image differs from original")
			}
		})
	}
}

func TestRecordCodec_DecodeArbitraryBytes(t *testing.T) {
	codec := NewRecordCodec()

	raw := make([]byte, RecordSize)
	for i := range raw {
		raw[i] = byte(i * 7)
	}

	record, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(codec.Encode(record), raw) {
		t.Error("Arbitrary image did not survive round trip")
	}
}

func TestRecordCodec_Layout(t *testing.T) {
	codec := NewRecordCodec()
	r := Record{Checksum: 0x11223344}
	r.Data[0] = 0xAABBCCDD

	encoded := codec.Encode(r)
	if got := binary.LittleEndian.Uint32(encoded[0:4]); got != 0xAABBCCDD {
		t.Errorf("Word 0: got 0x%08X", got)
	}
	if !bytes.Equal(encoded[ChecksumOffset:], []byte{0x44, 0x33, 0x22, 0x11}) {
		t.Errorf("Checksum bytes: got % x", encoded[ChecksumOffset:])
	}

	be := NewRecordCodecWithOrder(binary.BigEndian).Encode(r)
	if !bytes.Equal(be[ChecksumOffset:], []byte{0x11, 0x22, 0x33, 0x44}) {
		t.Errorf("Big-endian checksum bytes: got % x", be[ChecksumOffset:])
	}
}

func TestRecordCodec_DecodeWrongLength(t *testing.T) {
	codec := NewRecordCodec()

	for _, n := range []int{0, 4, RecordSize - 1, RecordSize + 1} {
		if _, err := codec.Decode(make([]byte, n)); err == nil {
			t.Errorf("Expected error decoding %d bytes", n)
		}
	}
}

func TestRecord_Validate(t *testing.T) {
	engine := crc.STM32{}

	t.Run("sealed record validates", func(t *testing.T) {
		r := sealedRecord(engine, 0xAAAAAAAA, 0xBBBBBBBB, 0xCCCCCCCC)
		if err := r.Validate(engine); err != nil {
			t.Errorf("Sealed record failed validation: %v", err)
		}
	})

	t.Run("erased record does not validate", func(t *testing.T) {
		err := Record{}.Validate(engine)
		var mismatch *ChecksumMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Expected ChecksumMismatchError, got %v", err)
		}
		if mismatch.Stored != 0 {
			t.Errorf("Stored: got 0x%08X", mismatch.Stored)
		}
	})

	t.Run("corrupted data word fails", func(t *testing.T) {
		r := sealedRecord(engine, 0xAAAAAAAA, 0xBBBBBBBB, 0xCCCCCCCC)
		r.Data[30] ^= 1
		if err := r.Validate(engine); err == nil {
			t.Error("Expected validation to fail for corrupted data")
		}
	})

	t.Run("engine matters", func(t *testing.T) {
		r := sealedRecord(engine, 0xAAAAAAAA, 0xBBBBBBBB, 0xCCCCCCCC)
		if err := r.Validate(crc.IEEE{}); err == nil {
			t.Error("Expected IEEE engine to reject STM32 checksum")
		}
	})
}

func TestRecord_IsErased(t *testing.T) {
	if !(Record{}).IsErased() {
		t.Error("Zero record should be erased")
	}
	if (Record{Checksum: 1}).IsErased() {
		t.Error("Record with checksum should not be erased")
	}
}

func TestWordOffset(t *testing.T) {
	testCases := []struct {
		index   int
		want    uint32
		wantErr bool
	}{
		{0, 0, false},
		{1, 4, false},
		{2, 8, false},
		{30, 120, false},
		{31, 0, true},
		{-1, 0, true},
	}

	for _, tc := range testCases {
		got, err := WordOffset(tc.index)
		if tc.wantErr {
			if err == nil {
				t.Errorf("WordOffset(%d): expected error", tc.index)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("WordOffset(%d) = %d, %v; want %d", tc.index, got, err, tc.want)
		}
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	raw := make([]byte, 32)
	raw[0] = 0xAB
	raw[31] = 0x01

	if err := Dump(&buf, raw); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	want := "ab " + strings.Repeat("00 ", 15) + "\n" +
		strings.Repeat("00 ", 15) + "01 \n" +
		"\n"
	if buf.String() != want {
		t.Errorf("Dump output:\n%q\nwant\n%q", buf.String(), want)
	}
}
