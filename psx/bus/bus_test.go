package bus

import (
	"testing"

	"github.com/gopsx/core/psx/dma"
	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/memory"
	"github.com/gopsx/core/psx/schedule"
)

func newTestBus(t *testing.T) (*Bus, *schedule.Schedule) {
	t.Helper()
	bios, err := memory.NewBios(make([]byte, memory.BiosSize))
	if err != nil {
		t.Fatalf("NewBios: %v", err)
	}
	sched := schedule.New()
	return New(bios, nil, sched, nil), sched
}

// storeDmaReg writes a DMA register through the bus's physical address
// space, offset from the controller's base like a real CPU store would.
func storeDmaReg(b *Bus, offset uint32, val uint32) {
	b.StoreWord(dmaBegin+offset, val)
}

func TestOtcDmaClear(t *testing.T) {
	b, _ := newTestBus(t)

	const base = 16
	const blockSize = 5

	ch := uint32(dma.Otc)
	storeDmaReg(b, ch*16+0, base)        // MADR
	storeDmaReg(b, ch*16+4, blockSize)   // BCR
	storeDmaReg(b, ch*16+8, 0x11000002)  // CHCR: start, sync manual, backward step
	b.Drain()

	if got := b.ram.LoadWord(16); got != 12 {
		t.Errorf("word@16 = %d; want 12", got)
	}
	if got := b.ram.LoadWord(12); got != 8 {
		t.Errorf("word@12 = %d; want 8", got)
	}
	if got := b.ram.LoadWord(8); got != 4 {
		t.Errorf("word@8 = %d; want 4", got)
	}
	if got := b.ram.LoadWord(4); got != 0 {
		t.Errorf("word@4 = %d; want 0", got)
	}
	if got := b.ram.LoadWord(0); got != 0x00ffffff {
		t.Errorf("word@0 = %#x; want 0x00ffffff", got)
	}

	if b.dmaCtl.Channels[dma.Otc].Control.Active() {
		t.Error("OTC channel still active after transfer completed")
	}
}

func TestDmaMasterIrqRisesOnce(t *testing.T) {
	b, _ := newTestBus(t)

	// Enable the OTC channel's IRQ and the master IRQ enable bit, so
	// completion should flip the master flag false -> true exactly once.
	storeDmaReg(b, 7*16+4, uint32(1)<<uint(dma.Otc)<<16|1<<23)

	if b.dmaCtl.Interrupt.MasterIrqFlag() {
		t.Fatal("master IRQ flag set before any transfer ran")
	}

	ch := uint32(dma.Otc)
	storeDmaReg(b, ch*16+0, 16)
	storeDmaReg(b, ch*16+4, 5)
	storeDmaReg(b, ch*16+8, 0x11000002)

	var irqEvents int
	for {
		ev, ok := b.sched.NextReady()
		if !ok {
			break
		}
		if ev.Kind == schedule.IrqCheck {
			irqEvents++
		}
		b.handleEvent(ev)
	}

	if !b.dmaCtl.Interrupt.MasterIrqFlag() {
		t.Error("master IRQ flag not set after transfer completed")
	}
	if !b.irqState.IsTriggered(irq.Dma) {
		t.Error("irq.Dma line not triggered on DMA completion")
	}
	if irqEvents != 1 {
		t.Errorf("IrqCheck fired %d times; want exactly 1", irqEvents)
	}
}

func TestBusMirrorsRam(t *testing.T) {
	b, _ := newTestBus(t)

	b.StoreWord(0x00000010, 0xdeadbeef)
	if v, ok := b.LoadWord(0x00200010); !ok || v != 0xdeadbeef {
		t.Errorf("mirrored RAM read = %#x, %v; want 0xdeadbeef, true", v, ok)
	}
	if v, ok := b.LoadWord(0x80000010); !ok || v != 0xdeadbeef {
		t.Errorf("KSEG0 RAM read = %#x, %v; want 0xdeadbeef, true", v, ok)
	}
	if v, ok := b.LoadWord(0xa0000010); !ok || v != 0xdeadbeef {
		t.Errorf("KSEG1 RAM read = %#x, %v; want 0xdeadbeef, true", v, ok)
	}
}
