// Package memory implements the fixed-size backing stores addressed
// through the bus: main RAM, the scratchpad, and the BIOS ROM. Each is a
// flat byte array with width-generic load/store; region decoding,
// mirroring, and cycle charges live in the bus package.
package memory

import "fmt"

// RamSize is the size of main RAM: 2 MiB.
const RamSize = 2 * 1024 * 1024

// ScratchpadSize is the size of the scratchpad: 1 KiB.
const ScratchpadSize = 1024

// BiosSize is the size of the BIOS ROM: 512 KiB.
const BiosSize = 512 * 1024

// Ram is the console's 2 MiB of main memory.
type Ram struct {
	data [RamSize]byte
}

// NewRam returns a zero-initialized RAM bank. Real hardware powers up with
// indeterminate contents; zeroing is the common emulator convention and
// keeps boot behavior deterministic.
func NewRam() *Ram {
	return &Ram{}
}

func (r *Ram) LoadByte(offset uint32) uint8    { return r.data[offset%RamSize] }
func (r *Ram) LoadHalfWord(offset uint32) uint16 {
	o := offset % RamSize
	return uint16(r.data[o]) | uint16(r.data[o+1])<<8
}
func (r *Ram) LoadWord(offset uint32) uint32 {
	o := offset % RamSize
	return uint32(r.data[o]) | uint32(r.data[o+1])<<8 | uint32(r.data[o+2])<<16 | uint32(r.data[o+3])<<24
}

func (r *Ram) StoreByte(offset uint32, val uint8) { r.data[offset%RamSize] = val }
func (r *Ram) StoreHalfWord(offset uint32, val uint16) {
	o := offset % RamSize
	r.data[o] = byte(val)
	r.data[o+1] = byte(val >> 8)
}
func (r *Ram) StoreWord(offset uint32, val uint32) {
	o := offset % RamSize
	r.data[o] = byte(val)
	r.data[o+1] = byte(val >> 8)
	r.data[o+2] = byte(val >> 16)
	r.data[o+3] = byte(val >> 24)
}

// Scratchpad is the 1 KiB on-chip "cache-as-RAM" bank.
type Scratchpad struct {
	data [ScratchpadSize]byte
}

func NewScratchpad() *Scratchpad {
	return &Scratchpad{}
}

func (s *Scratchpad) LoadByte(offset uint32) uint8 { return s.data[offset%ScratchpadSize] }
func (s *Scratchpad) LoadHalfWord(offset uint32) uint16 {
	o := offset % ScratchpadSize
	return uint16(s.data[o]) | uint16(s.data[o+1])<<8
}
func (s *Scratchpad) LoadWord(offset uint32) uint32 {
	o := offset % ScratchpadSize
	return uint32(s.data[o]) | uint32(s.data[o+1])<<8 | uint32(s.data[o+2])<<16 | uint32(s.data[o+3])<<24
}

func (s *Scratchpad) StoreByte(offset uint32, val uint8) { s.data[offset%ScratchpadSize] = val }
func (s *Scratchpad) StoreHalfWord(offset uint32, val uint16) {
	o := offset % ScratchpadSize
	s.data[o] = byte(val)
	s.data[o+1] = byte(val >> 8)
}
func (s *Scratchpad) StoreWord(offset uint32, val uint32) {
	o := offset % ScratchpadSize
	s.data[o] = byte(val)
	s.data[o+1] = byte(val >> 8)
	s.data[o+2] = byte(val >> 16)
	s.data[o+3] = byte(val >> 24)
}

// Bios is the read-only 512 KiB firmware image.
type Bios struct {
	data [BiosSize]byte
}

// NewBios builds a Bios from an exact-size image. Boot-time loader errors
// are surfaced to the caller once, with no retry, per the emulator's
// startup contract.
func NewBios(image []byte) (*Bios, error) {
	if len(image) != BiosSize {
		return nil, fmt.Errorf("memory: invalid bios size %d, want %d", len(image), BiosSize)
	}
	b := &Bios{}
	copy(b.data[:], image)
	return b, nil
}

func (b *Bios) LoadByte(offset uint32) uint8 { return b.data[offset%BiosSize] }
func (b *Bios) LoadHalfWord(offset uint32) uint16 {
	o := offset % BiosSize
	return uint16(b.data[o]) | uint16(b.data[o+1])<<8
}
func (b *Bios) LoadWord(offset uint32) uint32 {
	o := offset % BiosSize
	return uint32(b.data[o]) | uint32(b.data[o+1])<<8 | uint32(b.data[o+2])<<16 | uint32(b.data[o+3])<<24
}
