// Package bit provides the bit-field, BCD, and MSF arithmetic shared by
// every other package in the core: extracting/inserting register fields,
// and the minute-second-frame sector addressing used by the CDROM.
package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Low returns the low (LSB) byte of a 16 bit value.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) byte of a 16 bit value.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet checks if the bit at the specified index is set to 1.
func IsSet(index uint, value uint32) bool {
	return (value>>index)&1 == 1
}

// Set returns value with the bit at index set to 1.
func Set(index uint, value uint32) uint32 {
	return value | (1 << index)
}

// Clear returns value with the bit at index set to 0.
func Clear(index uint, value uint32) uint32 {
	return value &^ (1 << index)
}

// SetTo returns value with the bit at index set to the given boolean.
func SetTo(index uint, value uint32, set bool) uint32 {
	if set {
		return Set(index, value)
	}
	return Clear(index, value)
}

// Range extracts the bits from lowBit to highBit (inclusive).
//
// Example: Range(0b11010110, 4, 6) -> 0b101 (bits 6,5,4)
func Range(value uint32, lowBit, highBit uint) uint32 {
	width := highBit - lowBit + 1
	mask := uint32((1 << width) - 1)
	return (value >> lowBit) & mask
}

// SetRange returns value with bits lowBit..highBit (inclusive) replaced by the
// low bits of insert.
func SetRange(value uint32, lowBit, highBit uint, insert uint32) uint32 {
	width := highBit - lowBit + 1
	mask := uint32((1 << width) - 1)
	return (value &^ (mask << lowBit)) | ((insert & mask) << lowBit)
}

// SignExtend16 sign-extends a 16 bit value held in the low bits of a uint32.
func SignExtend16(value uint32) uint32 {
	return uint32(int32(int16(value)))
}

// SignExtend8 sign-extends an 8 bit value held in the low bits of a uint32.
func SignExtend8(value uint32) uint32 {
	return uint32(int32(int8(value)))
}
