package codec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ssargent/udflash/pkg/crc"
)

// Layout of the user-data record.
const (
	WordSize       = 4                     // bytes per programmable word
	DataWords      = 31                    // words 0..30 hold data
	TotalWords     = DataWords + 1         // data plus checksum
	RecordSize     = TotalWords * WordSize // 128 bytes, one flash page
	ChecksumIndex  = DataWords             // word 31
	ChecksumOffset = ChecksumIndex * WordSize
	StepWords      = 3 // words written by the step protocol
)

// Record is the in-memory image of the flash region
type Record struct {
	Data     [DataWords]uint32 // Data words 0..30
	Checksum uint32            // CRC32 of Data, word 31
}

// ChecksumMismatchError reports a stored checksum that does not match the
// recomputed one.
type ChecksumMismatchError struct {
	Stored   uint32
	Computed uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: stored 0x%08X, computed 0x%08X", e.Stored, e.Computed)
}

// RecordCodec translates between the raw region bytes and a Record
type RecordCodec struct {
	order binary.ByteOrder
}

// NewRecordCodec creates a codec for little-endian targets
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{order: binary.LittleEndian}
}

// NewRecordCodecWithOrder creates a codec using the target's word order
func NewRecordCodecWithOrder(order binary.ByteOrder) *RecordCodec {
	return &RecordCodec{order: order}
}

// Encode serializes a record into its 128-byte flash image
// Format: [Data0(4)]...[Data30(4)][CRC32(4)]
func (c *RecordCodec) Encode(r Record) []byte {
	buf := make([]byte, RecordSize)
	words := r.Words()
	for i, w := range words {
		c.order.PutUint32(buf[i*WordSize:], w)
	}
	return buf
}

// Decode reinterprets a 128-byte flash image as a record. Any bit pattern
// decodes; validity is checked separately with Validate.
func (c *RecordCodec) Decode(raw []byte) (Record, error) {
	if len(raw) != RecordSize {
		return Record{}, fmt.Errorf("record image must be %d bytes, got %d", RecordSize, len(raw))
	}

	var words [TotalWords]uint32
	for i := range words {
		words[i] = c.order.Uint32(raw[i*WordSize:])
	}
	return FromWords(words), nil
}

// FromWords builds a record from the 32 words read out of the region
func FromWords(words [TotalWords]uint32) Record {
	var r Record
	copy(r.Data[:], words[:DataWords])
	r.Checksum = words[ChecksumIndex]
	return r
}

// Words returns the record as it is laid out in flash
func (r Record) Words() [TotalWords]uint32 {
	var words [TotalWords]uint32
	copy(words[:], r.Data[:])
	words[ChecksumIndex] = r.Checksum
	return words
}

// IsErased reports whether every word holds the erase value
func (r Record) IsErased() bool {
	return r == Record{}
}

// ComputeChecksum returns the checksum the record should carry
func (r Record) ComputeChecksum(engine crc.Engine) uint32 {
	return engine.Checksum(r.Data[:])
}

// Validate checks the stored checksum against the data words
func (r Record) Validate(engine crc.Engine) error {
	if computed := r.ComputeChecksum(engine); computed != r.Checksum {
		return &ChecksumMismatchError{Stored: r.Checksum, Computed: computed}
	}
	return nil
}

// WordOffset returns the byte offset of data word index within the region
func WordOffset(index int) (uint32, error) {
	if index < 0 || index >= DataWords {
		return 0, fmt.Errorf("data word index %d out of range 0-%d", index, DataWords-1)
	}
	return uint32(index * WordSize), nil
}

// Dump writes a hexdump of raw, 16 bytes per line, followed by a blank line
func Dump(w io.Writer, raw []byte) error {
	for i, b := range raw {
		if _, err := fmt.Fprintf(w, "%02x ", b); err != nil {
			return err
		}
		if (i+1)%16 == 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}
