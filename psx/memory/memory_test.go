package memory

import "testing"

func TestRamWordRoundTrip(t *testing.T) {
	r := NewRam()
	r.StoreWord(0x100, 0xDEADBEEF)
	if got := r.LoadWord(0x100); got != 0xDEADBEEF {
		t.Errorf("LoadWord = %x; want 0xDEADBEEF", got)
	}
}

func TestRamByteAndHalfWord(t *testing.T) {
	r := NewRam()
	r.StoreHalfWord(0x10, 0xCAFE)
	if got := r.LoadHalfWord(0x10); got != 0xCAFE {
		t.Errorf("LoadHalfWord = %x; want 0xCAFE", got)
	}
	if got := r.LoadByte(0x10); got != 0xFE {
		t.Errorf("LoadByte (low) = %x; want 0xFE", got)
	}
	if got := r.LoadByte(0x11); got != 0xCA {
		t.Errorf("LoadByte (high) = %x; want 0xCA", got)
	}
}

func TestRamWrapsAtSize(t *testing.T) {
	r := NewRam()
	r.StoreByte(RamSize, 0x42)
	if got := r.LoadByte(0); got != 0x42 {
		t.Errorf("offset RamSize should wrap to 0, got %x", got)
	}
}

func TestScratchpadRoundTrip(t *testing.T) {
	s := NewScratchpad()
	s.StoreWord(0, 0x12345678)
	if got := s.LoadWord(0); got != 0x12345678 {
		t.Errorf("LoadWord = %x; want 0x12345678", got)
	}
}

func TestNewBiosRejectsWrongSize(t *testing.T) {
	if _, err := NewBios(make([]byte, 10)); err == nil {
		t.Fatal("expected an error for an undersized bios image")
	}
}

func TestBiosLoad(t *testing.T) {
	image := make([]byte, BiosSize)
	image[0x10] = 0xAB
	b, err := NewBios(image)
	if err != nil {
		t.Fatalf("NewBios: %v", err)
	}
	if got := b.LoadByte(0x10); got != 0xAB {
		t.Errorf("LoadByte(0x10) = %x; want 0xAB", got)
	}
}
