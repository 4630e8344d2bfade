package gpu

import "github.com/gopsx/core/psx/bit"

// cmdIsImm reports whether a GP0 command executes immediately, bypassing
// FIFO queuing entirely: display-control style commands rather than
// drawing primitives.
func cmdIsImm(cmd uint8) bool {
	switch {
	case cmd == 0x00, cmd == 0x01, cmd == 0x1f:
		return true
	case cmd >= 0xe1 && cmd <= 0xe6:
		return true
	default:
		return false
	}
}

// cmdFifoLen returns the total word count (including the command word
// itself) of the GP0 command starting with this opcode byte. Polygon, line,
// and rectangle primitives encode modifier flags in the low bits of the
// opcode that change their length; everything else has a single fixed
// length.
func cmdFifoLen(cmd uint8) uint8 {
	switch {
	case cmd == 0x02:
		return 3 // fill rectangle in VRAM
	case cmd >= 0x20 && cmd <= 0x3f:
		return polygonLen(cmd)
	case cmd >= 0x40 && cmd <= 0x5f:
		return lineLen(cmd)
	case cmd >= 0x60 && cmd <= 0x7f:
		return rectLen(cmd)
	case cmd >= 0x80 && cmd <= 0x9f:
		return 4 // VRAM to VRAM copy
	case cmd >= 0xa0 && cmd <= 0xbf:
		return 3 // CPU to VRAM copy header (pixel payload follows outside the FIFO)
	case cmd >= 0xc0 && cmd <= 0xdf:
		return 3 // VRAM to CPU copy header
	default:
		return 1
	}
}

func polygonLen(cmd uint8) uint8 {
	textured := bit.IsSet(2, uint32(cmd))
	quad := bit.IsSet(3, uint32(cmd))
	gouraud := bit.IsSet(4, uint32(cmd))

	verts := uint8(3)
	if quad {
		verts = 4
	}

	words := uint8(1)
	for i := uint8(0); i < verts; i++ {
		if i > 0 && gouraud {
			words++
		}
		words++
		if textured {
			words++
		}
	}
	return words
}

func lineLen(cmd uint8) uint8 {
	polyLine := bit.IsSet(3, uint32(cmd))
	gouraud := bit.IsSet(4, uint32(cmd))
	if polyLine {
		// Terminated by a 0x5555_5555 sentinel word rather than a fixed
		// length; the FIFO dispatcher handles these as a degenerate
		// single-segment line, matching the original's documented
		// limitation of not emulating the variable-length poly-line form.
		return 3
	}
	if gouraud {
		return 4
	}
	return 3
}

func rectLen(cmd uint8) uint8 {
	textured := bit.IsSet(2, uint32(cmd))
	size := bit.Range(uint32(cmd), 3, 4)

	words := uint8(2) // command word + vertex word
	if textured {
		words++
	}
	if size == 0 {
		words++ // variable size: explicit width/height word follows
	}
	return words
}
