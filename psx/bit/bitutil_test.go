package bit

import "testing"

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
	}

	for _, tt := range tests {
		if got := Combine(tt.high, tt.low); got != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, got, tt.expected)
		}
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		value            uint32
		lowBit, highBit  uint
		expected         uint32
	}{
		{0b11010110, 4, 6, 0b101},
		{0xFFFFFFFF, 0, 31, 0xFFFFFFFF},
		{0x1f, 0, 1, 0x3},
	}

	for _, tt := range tests {
		if got := Range(tt.value, tt.lowBit, tt.highBit); got != tt.expected {
			t.Errorf("Range(%b, %d, %d) = %b; want %b", tt.value, tt.lowBit, tt.highBit, got, tt.expected)
		}
	}
}

func TestSetRange(t *testing.T) {
	if got := SetRange(0, 3, 4, 0b11); got != 0b11000 {
		t.Errorf("SetRange = %b; want %b", got, 0b11000)
	}
	if got := SetRange(0, 1, 2, 0b11); got != 0b110 {
		t.Errorf("SetRange = %b; want %b", got, 0b110)
	}
}

func TestIsSetSetClear(t *testing.T) {
	v := uint32(0b1010)
	if IsSet(0, v) {
		t.Error("bit 0 should be clear")
	}
	if !IsSet(1, v) {
		t.Error("bit 1 should be set")
	}
	v = Set(0, v)
	if !IsSet(0, v) {
		t.Error("bit 0 should now be set")
	}
	v = Clear(1, v)
	if IsSet(1, v) {
		t.Error("bit 1 should now be clear")
	}
}

func TestSignExtend(t *testing.T) {
	if got := SignExtend16(0xFFFF); got != 0xFFFFFFFF {
		t.Errorf("SignExtend16(0xFFFF) = %x; want 0xFFFFFFFF", got)
	}
	if got := SignExtend16(0x7FFF); got != 0x7FFF {
		t.Errorf("SignExtend16(0x7FFF) = %x; want 0x7FFF", got)
	}
}

// TestBcdRoundTrip covers scenario 11 / invariant 11 from the spec:
// from_binary(v).as_binary() == v for 0 <= v <= 99.
func TestBcdRoundTrip(t *testing.T) {
	for v := uint8(0); v <= 99; v++ {
		b, ok := BcdFromBinary(v)
		if !ok {
			t.Fatalf("BcdFromBinary(%d) failed unexpectedly", v)
		}
		if got := b.AsBinary(); got != v {
			t.Errorf("round trip failed for %d: got %d", v, got)
		}
	}
}

// TestBcdEdge covers scenario 4 from the spec.
func TestBcdEdge(t *testing.T) {
	b, ok := BcdFromBinary(99)
	if !ok || b.Raw() != 0x99 {
		t.Fatalf("BcdFromBinary(99) = (%x, %v); want (0x99, true)", b.Raw(), ok)
	}

	if _, ok := BcdFromBinary(100); ok {
		t.Error("BcdFromBinary(100) should fail")
	}

	if _, ok := BcdFromRaw(0x9A); ok {
		t.Error("BcdFromRaw(0x9A) should fail: low nibble > 9")
	}
}

// TestMsfRoundTrip covers invariant 10 from the spec.
func TestMsfRoundTrip(t *testing.T) {
	for n := 0; n < 60*75*100; n += 37 {
		m, ok := MsfFromSector(n)
		if !ok {
			t.Fatalf("MsfFromSector(%d) failed unexpectedly", n)
		}
		if got := m.Sector(); got != n {
			t.Errorf("round trip failed for sector %d: got %d", n, got)
		}
	}
}

func TestMsfNextSector(t *testing.T) {
	m, _ := MsfFromBinary(0, 0, 74)
	next, ok := m.NextSector()
	if !ok {
		t.Fatal("expected a next sector")
	}
	if next.Sec.AsBinary() != 1 || next.Frame.AsBinary() != 0 {
		t.Errorf("unexpected rollover: %+v", next)
	}
}
