package bit

import "fmt"

// FramesPerSecond and SecondsPerMinute are the CD-ROM sector addressing
// constants: 75 sectors (frames) per second, 60 seconds per minute.
const (
	FramesPerSecond = 75
	SecondsPerMinute = 60
)

// Msf is a Minute-Second-Frame CD-ROM sector address.
type Msf struct {
	Min   Bcd
	Sec   Bcd
	Frame Bcd
}

// MsfZero is the address of the very first sector on a disc.
var MsfZero = Msf{}

// MsfFromBinary builds an Msf from binary minute/second/frame components.
func MsfFromBinary(min, sec, frame uint8) (Msf, bool) {
	m, ok := BcdFromBinary(min)
	if !ok {
		return Msf{}, false
	}
	s, ok := BcdFromBinary(sec)
	if !ok {
		return Msf{}, false
	}
	f, ok := BcdFromBinary(frame)
	if !ok {
		return Msf{}, false
	}
	return Msf{Min: m, Sec: s, Frame: f}, true
}

// MsfFromSector converts an absolute sector number into an Msf. It returns
// false if the sector number cannot be represented (>= 60*75*100).
func MsfFromSector(sector int) (Msf, bool) {
	if sector < 0 {
		return Msf{}, false
	}
	min := sector / (SecondsPerMinute * FramesPerSecond)
	rest := sector % (SecondsPerMinute * FramesPerSecond)
	return MsfFromBinary(uint8(min), uint8(rest/FramesPerSecond), uint8(rest%FramesPerSecond))
}

// Sector returns the absolute sector number this address refers to.
func (m Msf) Sector() int {
	min := int(m.Min.AsBinary())
	sec := int(m.Sec.AsBinary())
	frame := int(m.Frame.AsBinary())
	return (SecondsPerMinute*FramesPerSecond)*min + FramesPerSecond*sec + frame
}

// NextSector returns the address immediately following this one, or false if
// this is the last representable address.
func (m Msf) NextSector() (Msf, bool) {
	if m.Frame.Raw() < 0x74 {
		return Msf{Min: m.Min, Sec: m.Sec, Frame: m.Frame.Add(BcdOne)}, true
	}
	if m.Sec.Raw() < 0x59 {
		return Msf{Min: m.Min, Sec: m.Sec.Add(BcdOne), Frame: BcdZero}, true
	}
	if m.Min.Raw() < 0x99 {
		return Msf{Min: m.Min.Add(BcdOne), Sec: BcdZero, Frame: BcdZero}, true
	}
	return Msf{}, false
}

func (m Msf) String() string {
	return fmt.Sprintf("%02x:%02x:%02x", m.Min.Raw(), m.Sec.Raw(), m.Frame.Raw())
}
