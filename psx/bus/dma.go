package bus

import (
	"github.com/gopsx/core/psx/dma"
	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/schedule"
)

// linkedListEnd is the 24-bit terminator value a GPU linked-list node's
// next-pointer field holds when it is the list's last node.
const linkedListEnd = 0x00ffffff

// storeDma writes through to the register model, then starts a transfer if
// the write just armed a channel (set its busy bit, or the manual-sync
// start bit with busy already set).
func (b *Bus) storeDma(offset uint32, val uint32) {
	ch := dma.ChannelID((offset & 0x70) >> 4)
	reg := offset & 0xc

	b.dmaCtl.Store(offset, val)

	if ch > dma.Otc || reg != 8 {
		return
	}
	if b.dmaCtl.Channels[ch].Control.Active() {
		b.sched.Trigger(schedule.RunDmaChanEvent(uint32(ch)))
	}
}

// runDmaChan executes a channel's entire transfer synchronously: the core
// is single-threaded and cooperative, so there is no benefit to chopping a
// transfer across multiple scheduler events the way real hardware's bus
// arbitration would.
func (b *Bus) runDmaChan(ch dma.ChannelID) {
	c := &b.dmaCtl.Channels[ch]
	if !c.Control.Active() {
		return
	}

	switch ch {
	case dma.Otc:
		b.runOtcDma(c)
	case dma.GpuChan:
		b.runGpuDma(c)
	case dma.CdRomChan:
		b.runCdRomDma(c)
	default:
		// MdecIn, MdecOut, Spu, and Pio have no backing device in this
		// core; their transfers complete instantly with no RAM traffic.
	}

	b.completeDma(ch)
}

// runOtcDma fills the "other" ordering table with a backward linked list of
// word addresses terminated by linkedListEnd, the BIOS's standard idiom for
// clearing a GPU display list before first use.
func (b *Bus) runOtcDma(c *dma.Channel) {
	size := c.Block.BlockSize()
	if size == 0 {
		size = 0x10000
	}

	addr := c.Base
	for i := uint32(0); i < size; i++ {
		if i == size-1 {
			b.ram.StoreWord(addr, linkedListEnd)
		} else {
			b.ram.StoreWord(addr, addr-4)
		}
		addr -= 4
	}
}

// runGpuDma moves a block (Manual/Request sync) or a chain of command
// lists (LinkedList sync) between RAM and the GPU's GP0/GPUREAD ports.
func (b *Bus) runGpuDma(c *dma.Channel) {
	if c.Control.SyncMode() == dma.SyncLinkedList {
		b.runGpuLinkedListDma(c)
		return
	}
	b.runBlockDma(c, b.gpu.Gp0, b.gpu.GpuRead)
}

func (b *Bus) runGpuLinkedListDma(c *dma.Channel) {
	addr := c.Base & 0x1ffffc
	for {
		header := b.ram.LoadWord(addr)
		count := header >> 24

		node := addr
		for i := uint32(0); i < count; i++ {
			node = (node + 4) & 0x1ffffc
			b.gpu.Gp0(b.ram.LoadWord(node))
		}

		next := header & linkedListEnd
		if next == linkedListEnd {
			return
		}
		addr = next & 0x1ffffc
	}
}

// runCdRomDma drains the CDROM's data FIFO into RAM one word (four FIFO
// bytes) at a time; the CDROM is always the source, never the destination.
func (b *Bus) runCdRomDma(c *dma.Channel) {
	b.runBlockDma(c, nil, b.cdrom.PopDataWord)
}

// runBlockDma steps a Manual- or Request-sync transfer word by word between
// RAM and a device, in the direction and step the channel's control
// register names. toDevice is used for FromRam transfers, fromDevice for
// ToRam transfers; the caller only needs to supply the one its channel
// exercises.
func (b *Bus) runBlockDma(c *dma.Channel, toDevice func(uint32), fromDevice func() uint32) {
	size := c.Block.BlockSize()
	if c.Control.SyncMode() == dma.SyncRequest {
		size *= c.Block.BlockCount()
	}
	if size == 0 {
		size = 0x10000
	}

	step := int32(4)
	if c.Control.Step() == dma.Backward {
		step = -4
	}

	addr := c.Base & 0x1ffffc
	for i := uint32(0); i < size; i++ {
		switch c.Control.Direction() {
		case dma.FromRam:
			toDevice(b.ram.LoadWord(addr))
		case dma.ToRam:
			b.ram.StoreWord(addr, fromDevice())
		}
		addr = uint32(int32(addr) + step)
	}
}

// completeDma clears the channel's busy/start bits and re-derives the
// master DMA IRQ flag, raising irq.Dma exactly once on its false-to-true
// transition.
func (b *Bus) completeDma(ch dma.ChannelID) {
	c := &b.dmaCtl.Channels[ch]
	c.Control = c.Control.ClearBusy()

	before := b.dmaCtl.Interrupt.MasterIrqFlag()
	if b.dmaCtl.Interrupt.ChannelIrqEnabled(ch) {
		b.dmaCtl.Interrupt = b.dmaCtl.Interrupt.SetChannelIrqFlag(ch)
	}
	b.dmaCtl.Interrupt = b.dmaCtl.Interrupt.UpdateMasterIrqFlag()
	after := b.dmaCtl.Interrupt.MasterIrqFlag()

	if !before && after {
		b.irqState.Trigger(irq.Dma)
		b.sched.Trigger(schedule.IrqCheckEvent)
	}
}
