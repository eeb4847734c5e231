// Package crc provides the 32-bit checksum engines used to seal the
// user-data record.
package crc

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Engine computes a 32-bit checksum over an ordered sequence of words.
type Engine interface {
	Checksum(words []uint32) uint32
}

const (
	// AlgorithmSTM32 names the default configuration of the STM32 CRC unit.
	AlgorithmSTM32 = "stm32"
	// AlgorithmIEEE names the reflected IEEE 802.3 CRC over little-endian bytes.
	AlgorithmIEEE = "ieee"
)

const (
	mpeg2Poly = 0x04C11DB7
	mpeg2Init = 0xFFFFFFFF
)

// STM32 reproduces the STM32 hardware CRC peripheral in its reset
// configuration: CRC-32/MPEG-2, fed one 32-bit word at a time, most
// significant bit first, no input or output reflection and no final xor.
type STM32 struct{}

// Checksum implements Engine.
func (STM32) Checksum(words []uint32) uint32 {
	crc := uint32(mpeg2Init)
	for _, w := range words {
		crc ^= w
		for i := 0; i < 32; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ mpeg2Poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// STM32Bytes computes CRC-32/MPEG-2 over a byte stream. Feeding the
// big-endian bytes of each word gives the same result as STM32.Checksum.
func STM32Bytes(data []byte) uint32 {
	crc := uint32(mpeg2Init)
	for _, b := range data {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ mpeg2Poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// IEEE checksums the little-endian byte image of the words with the
// standard reflected CRC-32 used by zlib and Ethernet.
type IEEE struct{}

// Checksum implements Engine.
func (IEEE) Checksum(words []uint32) uint32 {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return crc32.ChecksumIEEE(buf)
}

// ByName returns the engine registered under name.
func ByName(name string) (Engine, error) {
	switch name {
	case AlgorithmSTM32, "":
		return STM32{}, nil
	case AlgorithmIEEE:
		return IEEE{}, nil
	default:
		return nil, fmt.Errorf("unknown crc algorithm %q", name)
	}
}
