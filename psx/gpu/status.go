package gpu

import "github.com/gopsx/core/psx/bit"

// VideoMode selects the scanline timing the GPU scans out at.
type VideoMode int

const (
	Ntsc VideoMode = iota
	Pal
)

// status is the 32-bit GPUSTAT register.
type status uint32

func (s status) texPageX() uint32    { return bit.Range(uint32(s), 0, 3) * 64 }
func (s status) texPageY() uint32    { return bit.Range(uint32(s), 4, 4) * 256 }
func (s status) horizontalRes1() uint32 { return bit.Range(uint32(s), 17, 18) }
func (s status) horizontalRes2() uint32 { return bit.Range(uint32(s), 16, 16) }
func (s status) verticalRes() uint32    { return bit.Range(uint32(s), 19, 19) }
func (s status) displayDisabled() bool  { return bit.IsSet(23, uint32(s)) }
func (s status) colorDepth24() bool     { return bit.IsSet(21, uint32(s)) }
func (s status) interruptRequest() bool { return bit.IsSet(24, uint32(s)) }
func (s status) dmaDirection() uint32   { return bit.Range(uint32(s), 29, 30) }

// videoMode reads GPUSTAT bit 20: 0 = NTSC, 1 = PAL.
func (s status) videoMode() VideoMode {
	if bit.IsSet(20, uint32(s)) {
		return Pal
	}
	return Ntsc
}

func (s status) setBit(index uint, val bool) status {
	return status(bit.SetTo(index, uint32(s), val))
}

func (s status) setRange(lo, hi uint, val uint32) status {
	return status(bit.SetRange(uint32(s), lo, hi, val))
}

// horizontalResolution returns the display's pixel width, derived from the
// two horizontal-resolution fields the way gp1_display_mode packs them.
func (s status) horizontalResolution() int {
	if s.horizontalRes2() == 1 {
		return 368
	}
	switch s.horizontalRes1() {
	case 0:
		return 256
	case 1:
		return 320
	case 2:
		return 512
	default:
		return 640
	}
}

func (s status) verticalResolution() int {
	if s.verticalRes() == 1 {
		return 480
	}
	return 240
}
