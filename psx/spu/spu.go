// Package spu is a stub for the Sound Processing Unit register surface.
// The actual DSP (ADPCM decode, voice mixing, reverb) is out of scope; the
// bus still needs somewhere to route SPU register accesses so BIOS/game
// code that probes or configures the SPU does not fault.
package spu

// BusBegin and BusEnd bound the SPU's 640-byte register window.
const (
	BusBegin uint32 = 0x1f801c00
	BusEnd   uint32 = BusBegin + 640 - 1
)

// A real SPU would stream two-channel 16-bit samples at 44.1 kHz to a
// disc.SampleSink; this stub never produces any since voice mixing isn't
// implemented.

// Spu is a no-op register sink: every store is discarded, every load
// returns zero.
type Spu struct{}

func New() *Spu { return &Spu{} }

func (s *Spu) Store(addr uint32, val uint32) {}

func (s *Spu) Load(addr uint32) uint32 { return 0 }
