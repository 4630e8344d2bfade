package bit

// Bcd is a single byte holding two packed decimal digits, as used by the
// CDROM's minute/second/frame addressing.
type Bcd uint8

// BcdZero and BcdOne are the BCD values for the binary numbers 0 and 1.
const (
	BcdZero Bcd = 0
	BcdOne  Bcd = 1
)

// Raw returns the packed byte.
func (b Bcd) Raw() uint8 {
	return uint8(b)
}

// BcdFromBinary packs a binary value 0..99 into BCD. It returns false if val
// is out of range.
func BcdFromBinary(val uint8) (Bcd, bool) {
	if val > 99 {
		return 0, false
	}
	return Bcd(((val / 10) << 4) + val%10), true
}

// BcdFromRaw validates an already-packed BCD byte, rejecting a low nibble
// greater than 9 (malformed BCD).
func BcdFromRaw(val uint8) (Bcd, bool) {
	if val > 0x99 || val&0xF > 0x9 {
		return 0, false
	}
	return Bcd(val), true
}

// AsBinary converts back to a binary value. It assumes the receiver holds
// well-formed BCD (low nibble <= 9); malformed values should be rejected by
// BcdFromRaw at the boundary rather than handled here.
func (b Bcd) AsBinary() uint8 {
	raw := uint8(b)
	return (raw>>4)*10 + raw%16
}

// Add sums two BCD values, returning the BCD encoding of the binary sum. It
// panics if the sum overflows 99, mirroring the reference implementation's
// "Overflow" expectation — callers add Bcd values that are known in range
// (e.g. MSF component carries which are pre-checked).
func (b Bcd) Add(other Bcd) Bcd {
	sum := b.AsBinary() + other.AsBinary()
	result, ok := BcdFromBinary(sum)
	if !ok {
		panic("bcd: addition overflow")
	}
	return result
}
