package dma

import "testing"

func TestChannelControlDecode(t *testing.T) {
	c := ChannelControl(0x11000002)
	if c.Direction() != ToRam {
		t.Errorf("Direction() = %v; want ToRam", c.Direction())
	}
	if c.Step() != Backward {
		t.Errorf("Step() = %v; want Backward", c.Step())
	}
	if c.SyncMode() != SyncManual {
		t.Errorf("SyncMode() = %v; want SyncManual", c.SyncMode())
	}
	if !c.Start() {
		t.Error("Start() should be true")
	}
	if !c.Active() {
		t.Error("Active() should be true: manual sync, busy and started")
	}
}

func TestChannelRegisterRoundTrip(t *testing.T) {
	var ch Channel
	ch.Store(0, 0xABCDEF)
	ch.Store(4, 0x00010008)
	ch.Store(8, 0x11000002)

	if got := ch.Load(0); got != 0xABCDEF {
		t.Errorf("base = %x; want 0xABCDEF", got)
	}
	if got := BlockControl(ch.Load(4)); got.BlockSize() != 8 || got.BlockCount() != 1 {
		t.Errorf("block control decode wrong: size=%d count=%d", got.BlockSize(), got.BlockCount())
	}
}

func TestInterruptMasterFlag(t *testing.T) {
	var i Interrupt
	i = i.Store(1<<23 | 1<<16) // enable master irq, enable channel 0's irq line
	i = i.SetChannelIrqFlag(MdecIn)
	i = i.UpdateMasterIrqFlag()
	if !i.MasterIrqFlag() {
		t.Error("MasterIrqFlag should be set once an enabled channel's flag fires")
	}
}

func TestInterruptForceIrqOverridesEnable(t *testing.T) {
	var i Interrupt
	i = i.Store(1 << 15)
	if !i.MasterIrqFlag() {
		t.Error("force-irq bit alone should set the master flag")
	}
}

func TestDmaLoadStoreRouting(t *testing.T) {
	d := New()
	if got := d.Load(0x70); got != uint32(DefaultControl) {
		t.Errorf("DPCR default = %x; want %x", got, DefaultControl)
	}

	d.Store(0x60, 16) // channel 6 (Otc) base, offset 0x60 = ch6*0x10+0
	d.Store(0x64, 5)
	d.Store(0x68, 0x11000002)

	if got := d.Load(0x60); got != 16 {
		t.Errorf("OTC base readback = %x; want 16", got)
	}
	if got := d.Channels[Otc].Control.Direction(); got != ToRam {
		t.Errorf("OTC direction = %v; want ToRam", got)
	}
}
