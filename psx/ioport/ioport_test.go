package ioport

import "testing"

func TestDigitalControllerHandshake(t *testing.T) {
	d := NewDigitalController()

	resp, more := d.transfer(0x01)
	if resp != 0xFF || !more {
		t.Fatalf("Idle+0x01 = (%x,%v); want (0xFF,true)", resp, more)
	}

	resp, more = d.transfer(0x42)
	if resp != 0x41 || !more {
		t.Fatalf("Ready+0x42 = (%x,%v); want (0x41,true)", resp, more)
	}

	resp, more = d.transfer(0x00)
	if resp != 0x5A || !more {
		t.Fatalf("IdHigh = (%x,%v); want (0x5a,true)", resp, more)
	}

	resp, more = d.transfer(0x00)
	if resp != byte(AllReleased&0xFF) || !more {
		t.Fatalf("ButtonsLow = (%x,%v); want (%x,true)", resp, more, byte(AllReleased&0xFF))
	}

	resp, more = d.transfer(0x00)
	if resp != byte(AllReleased>>8) || more {
		t.Fatalf("ButtonsHigh = (%x,%v); want (%x,false)", resp, more, byte(AllReleased>>8))
	}
}

func TestUnexpectedByteResetsToIdle(t *testing.T) {
	d := NewDigitalController()
	resp, more := d.transfer(0x99)
	if resp != 0xFF || more {
		t.Fatalf("unexpected byte at Idle = (%x,%v); want (0xFF,false)", resp, more)
	}
}

func TestPressedButtonClearsBit(t *testing.T) {
	d := NewDigitalController()
	d.Buttons &^= 1 // press button 0

	d.transfer(0x01)
	d.transfer(0x42)
	d.transfer(0x00)
	resp, _ := d.transfer(0x00)
	if resp&1 != 0 {
		t.Error("pressed button should read as 0")
	}
}
