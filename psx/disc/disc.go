// Package disc defines the narrow contracts the core needs from its
// external collaborators: a CD sector source, a video frame sink, and an
// audio sample sink. Parsing CUE/BIN images and driving an actual display
// or audio device are out of scope; the core only needs to call these
// interfaces.
package disc

import "github.com/gopsx/core/psx/bit"

// SectorSize is the raw size of a CD-ROM sector (mode 2, form 1, 2352 raw
// bytes including sync/header/subheader/ECC — the CDROM data FIFO holds
// one of these at a time).
const SectorSize = 2352

// Sector is one raw CD-ROM sector as delivered by a SectorProvider.
type Sector struct {
	Data [SectorSize]byte
}

// SectorProvider loads a single raw sector by its MSF address. Disc image
// parsing (CUE/BIN, track layout, subchannel data) lives entirely on the
// caller's side of this interface.
type SectorProvider interface {
	LoadSector(msf bit.Msf) (Sector, error)
}

// ColorDepth identifies the GPU's display color format.
type ColorDepth uint8

const (
	ColorDepth15Bit ColorDepth = iota
	ColorDepth24Bit
)

// Point is a VRAM or display coordinate.
type Point struct {
	X, Y int
}

// FrameSink receives a completed frame's worth of VRAM pixels at vblank.
// Converting VRAM into on-screen pixels (scaling, color conversion,
// presentation) is entirely the sink's responsibility.
type FrameSink interface {
	Present(vram []uint16, origin Point, width, height int, depth ColorDepth)
}

// SampleSink receives one stereo audio sample pair from the SPU.
type SampleSink interface {
	Write(left, right int16)
}
