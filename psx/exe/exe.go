// Package exe loads PS-X EXE executables directly into RAM, bypassing the
// BIOS boot path. It is a boot-time convenience only: real software on
// real hardware never sees this format touched by anything but the BIOS's
// own loader.
package exe

import (
	"encoding/binary"
	"fmt"

	"github.com/gopsx/core/psx/cpu"
	"github.com/gopsx/core/psx/memory"
)

const (
	headerSize = 2048
	magic      = "PS-X EXE"

	offPC       = 0x10
	offGP       = 0x14
	offTextBase = 0x18
	offTextSize = 0x1c
	offBssBase  = 0x28
	offBssSize  = 0x2c
	offSPBase   = 0x30
	offSPOffset = 0x34
)

const (
	regGP cpu.RegIdx = 28
	regSP cpu.RegIdx = 29
)

// defaultSP is the stack pointer used when the header's sp_base field is
// zero, matching the BIOS's own default user stack.
const defaultSP = 0x801ffff0

// Header holds the fields of a PS-X EXE header relevant to loading.
type Header struct {
	PC       uint32
	GP       uint32
	TextBase uint32
	TextSize uint32
	BssBase  uint32
	BssSize  uint32
	SPBase   uint32
	SPOffset uint32
}

func parseHeader(image []byte) (Header, error) {
	if len(image) < headerSize {
		return Header{}, fmt.Errorf("exe: image too small: %d bytes, want at least %d", len(image), headerSize)
	}
	if string(image[0:8]) != magic {
		return Header{}, fmt.Errorf("exe: bad magic %q, want %q", image[0:8], magic)
	}

	le := binary.LittleEndian
	h := Header{
		PC:       le.Uint32(image[offPC:]),
		GP:       le.Uint32(image[offGP:]),
		TextBase: le.Uint32(image[offTextBase:]),
		TextSize: le.Uint32(image[offTextSize:]),
		BssBase:  le.Uint32(image[offBssBase:]),
		BssSize:  le.Uint32(image[offBssSize:]),
		SPBase:   le.Uint32(image[offSPBase:]),
		SPOffset: le.Uint32(image[offSPOffset:]),
	}
	return h, nil
}

// ramMask strips a KSEG0/KSEG1 segment prefix off a header address,
// translating it down to a physical RAM offset the same way the bus's
// region decoding does; KUSEG addresses (the common case for EXE headers)
// pass through unchanged.
func ramMask(addr uint32) uint32 {
	return addr & 0x1fffffff
}

func withinRam(base, size uint32) (uint32, bool) {
	phys := ramMask(base)
	if size == 0 {
		return phys, true
	}
	end := uint64(phys) + uint64(size)
	return phys, end <= memory.RamSize
}

// Load parses a PS-X EXE image, copies its text segment into RAM and
// zero-fills its bss segment, then seeds the CPU's PC, GP, and SP/FP
// registers and jumps to the entry point. text_base/text_size and
// bss_base/bss_size must each lie entirely within the console's 2 MiB of
// RAM, checked before anything is written.
func Load(image []byte, ram *memory.Ram, c *cpu.Cpu) error {
	h, err := parseHeader(image)
	if err != nil {
		return err
	}
	textPhys, textOK := withinRam(h.TextBase, h.TextSize)
	if !textOK {
		return fmt.Errorf("exe: text segment [%#x, %#x) out of range", h.TextBase, h.TextBase+h.TextSize)
	}
	bssPhys, bssOK := withinRam(h.BssBase, h.BssSize)
	if !bssOK {
		return fmt.Errorf("exe: bss segment [%#x, %#x) out of range", h.BssBase, h.BssBase+h.BssSize)
	}

	body := image[headerSize:]
	if uint32(len(body)) < h.TextSize {
		return fmt.Errorf("exe: image shorter than declared text size %d", h.TextSize)
	}
	for i := uint32(0); i < h.TextSize; i += 4 {
		word := binary.LittleEndian.Uint32(body[i:])
		ram.StoreWord(textPhys+i, word)
	}
	for i := uint32(0); i < h.BssSize; i += 4 {
		ram.StoreWord(bssPhys+i, 0)
	}

	sp := h.SPBase + h.SPOffset
	if h.SPBase == 0 {
		sp = defaultSP
	}

	c.SetReg(regGP, h.GP)
	c.SetReg(regSP, sp)
	c.SetReg(30, sp) // $fp mirrors $sp at entry, as the BIOS's own loader leaves it
	c.SetPC(h.PC)
	return nil
}
