// Package userdata persists a single 128-byte configuration record in the
// last page of on-chip flash.
//
// # Write Protocol
//
// The record is filled in three steps that may happen in separate power
// cycles:
//
//	WriteStep(0, v0) // data word 0
//	WriteStep(1, v1) // data word 1
//	WriteStep(2, v2) // data word 2, then the CRC32 of words 0..30 into word 31
//
// Only after step 2 is the record sealed and Read reports it valid. A step
// is refused with ErrAlreadyWritten when its word, a later step word, or the
// checksum is non-zero; the only way back is Erase.
//
// Because the erase value is 0, writing the literal value 0 at step 0 or 1
// leaves the record looking unwritten. Such values are unsupported.
//
// # Reading
//
// Read returns the raw record together with a Valid flag. A checksum
// mismatch is a result, not an error: an erased, half-written or damaged
// record all read as invalid and the caller decides what that means.
// StateOf tells those cases apart.
//
// # Hardware
//
// The engine drives a flash.Device and a crc.Engine passed to New. Every
// erase and program runs inside a flash.Guard so the controller is locked
// again on every return path. The engine does not serialize callers.
package userdata
