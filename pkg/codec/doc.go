// Package codec defines the flash layout of the user-data record.
//
// # Record Format
//
// The record occupies exactly one 128-byte flash page:
//
//	[Data0(4)][Data1(4)] ... [Data30(4)][CRC32(4)]
//
// Fields:
//   - Data0..Data30: 31 data words. The step protocol only writes Data0,
//     Data1 and Data2; the remaining words stay at the erase value.
//   - CRC32: checksum of the 31 data words, computed by a crc.Engine.
//
// Words are stored in the target's byte order, little-endian by default.
//
// # Validity
//
// Decoding never fails on content: any 128-byte image is a legal Record.
// Validity is a property computed afterwards:
//
//	rec, err := codec.NewRecordCodec().Decode(raw)
//	if err != nil {
//	    return err // wrong length
//	}
//	if err := rec.Validate(crc.STM32{}); err != nil {
//	    // incomplete or corrupted
//	}
//
// An erased page reads as all zero words, whose checksum never matches,
// so an erased record is reported as a checksum mismatch rather than valid.
package codec
