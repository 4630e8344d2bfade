// Package dma holds the DMA controller's register state and the bit-level
// decoding of that state. It does not move any bytes: actual transfer
// execution lives in the bus package, the only component with references
// to every device a transfer might touch (RAM, GPU, CDROM, SPU...).
package dma

import "github.com/gopsx/core/psx/bit"

// ChannelID names one of the seven DMA channels.
type ChannelID uint32

const (
	MdecIn ChannelID = iota
	MdecOut
	GpuChan
	CdRomChan
	SpuChan
	Pio
	Otc
)

// Direction is the transfer direction recorded in ChannelControl bit 0.
type Direction uint32

const (
	ToRam Direction = iota
	FromRam
)

// Step is the RAM address step direction recorded in ChannelControl bit 1.
type Step uint32

const (
	Forward Step = iota
	Backward
)

// SyncMode is the transfer synchronization mode recorded in ChannelControl
// bits 9..10.
type SyncMode uint32

const (
	SyncManual SyncMode = iota
	SyncRequest
	SyncLinkedList
)

// ChannelControl is the per-channel CHCR register (offset 8 of a channel's
// 16-byte window).
type ChannelControl uint32

func (c ChannelControl) Direction() Direction    { return Direction(bit.Range(uint32(c), 0, 0)) }
func (c ChannelControl) Step() Step              { return Step(bit.Range(uint32(c), 1, 1)) }
func (c ChannelControl) ChoppingEnabled() bool   { return bit.IsSet(8, uint32(c)) }
func (c ChannelControl) SyncMode() SyncMode      { return SyncMode(bit.Range(uint32(c), 9, 10)) }
func (c ChannelControl) DmaChoppingWindow() uint32 {
	return 1 << bit.Range(uint32(c), 16, 18)
}
func (c ChannelControl) CpuChoppingWindow() uint32 {
	return 1 << bit.Range(uint32(c), 20, 22)
}
func (c ChannelControl) TransferBusy() bool { return bit.IsSet(24, uint32(c)) }
func (c ChannelControl) Start() bool        { return bit.IsSet(28, uint32(c)) }

// Active reports whether this channel has a transfer pending: the busy bit
// must be set, and a manual-sync channel also needs the one-shot start bit.
func (c ChannelControl) Active() bool {
	if c.SyncMode() == SyncManual {
		return c.TransferBusy() && c.Start()
	}
	return c.TransferBusy()
}

// ClearBusy returns c with the transfer-busy and start bits cleared, as
// happens when a transfer completes.
func (c ChannelControl) ClearBusy() ChannelControl {
	return ChannelControl(bit.Clear(24, bit.Clear(28, uint32(c))))
}

// BlockControl is the per-channel BCR register: block size and, for the
// Request sync mode, block count.
type BlockControl uint32

func (b BlockControl) BlockSize() uint32  { return bit.Range(uint32(b), 0, 15) }
func (b BlockControl) BlockCount() uint32 { return bit.Range(uint32(b), 16, 31) }

// Channel is one DMA channel's three registers: MADR (base address), BCR
// (block control), CHCR (channel control).
type Channel struct {
	Base    uint32
	Block   BlockControl
	Control ChannelControl
}

// Load reads the channel register at the given offset (0, 4, or 8 within
// the channel's 16-byte window).
func (c *Channel) Load(offset uint32) uint32 {
	switch offset {
	case 0:
		return c.Base
	case 4:
		return uint32(c.Block)
	case 8:
		return uint32(c.Control)
	default:
		return 0
	}
}

// Store writes the channel register at the given offset.
func (c *Channel) Store(offset uint32, val uint32) {
	switch offset {
	case 0:
		c.Base = val & 0xFFFFFF
	case 4:
		c.Block = BlockControl(val)
	case 8:
		c.Control = ChannelControl(val)
	}
}

// Control is the master DMA control register (DPCR), prioritizing and
// gating each channel.
type Control uint32

func (c Control) ChannelPriority(ch ChannelID) uint32 {
	return bit.Range(uint32(c), uint(ch)*4, uint(ch)*4+2)
}
func (c Control) ChannelEnabled(ch ChannelID) bool {
	return bit.IsSet(uint(ch)*4+3, uint32(c))
}

// DefaultControl is DPCR's power-on value (channel n at priority n+1, every
// channel disabled), matching the reference implementation's reset state.
const DefaultControl Control = 0x07654321

// Interrupt is the master DMA interrupt register (DICR).
type Interrupt uint32

func (i Interrupt) ForceIrq() bool        { return bit.IsSet(15, uint32(i)) }
func (i Interrupt) ChannelIrqEnabled(ch ChannelID) bool {
	return bit.IsSet(uint(ch)+16, uint32(i))
}
func (i Interrupt) MasterIrqEnabled() bool { return bit.IsSet(23, uint32(i)) }
func (i Interrupt) ChannelIrqFlag(ch ChannelID) bool {
	return bit.IsSet(uint(ch)+24, uint32(i))
}
func (i Interrupt) MasterIrqFlag() bool { return bit.IsSet(31, uint32(i)) }

// SetChannelIrqFlag returns i with channel ch's IRQ flag set, as happens
// when that channel completes a transfer.
func (i Interrupt) SetChannelIrqFlag(ch ChannelID) Interrupt {
	return Interrupt(bit.Set(uint(ch)+24, uint32(i)))
}

// UpdateMasterIrqFlag recomputes bit 31 from the force-irq bit and the
// enabled/flagged channel bits, the formula the bus re-runs after every
// DICR store and every channel completion.
func (i Interrupt) UpdateMasterIrqFlag() Interrupt {
	enabled := bit.Range(uint32(i), 16, 22)
	flagged := bit.Range(uint32(i), 24, 30)
	active := i.ForceIrq() || (i.MasterIrqEnabled() && (enabled&flagged) > 0)
	return Interrupt(bit.SetTo(31, uint32(i), active))
}

// Store writes a DICR value. Channel IRQ flag bits (24..30) are
// write-1-to-clear, unlike IrqState's status register, where writing 0
// clears a bit; every other field is a plain overwrite.
func (i Interrupt) Store(val uint32) Interrupt {
	keepMask := uint32(0xFF000000)
	ackMask := bit.Range(val, 24, 30) << 24
	cleared := uint32(i)&keepMask &^ ackMask
	result := Interrupt((val &^ keepMask) | cleared)
	return result.UpdateMasterIrqFlag()
}

// Dma is the complete DMA controller: master control/interrupt registers
// plus the seven channels.
type Dma struct {
	Control   Control
	Interrupt Interrupt
	Channels  [7]Channel
}

// New returns a DMA controller in its power-on state.
func New() *Dma {
	return &Dma{Control: DefaultControl}
}

// Load reads the DMA register at the given bus offset (0..0x7F).
func (d *Dma) Load(offset uint32) uint32 {
	ch := (offset & 0x70) >> 4
	reg := offset & 0xC
	if ch == 7 {
		if reg == 0 {
			return uint32(d.Control)
		}
		return uint32(d.Interrupt)
	}
	return d.Channels[ch].Load(reg)
}

// Store writes the DMA register at the given bus offset.
func (d *Dma) Store(offset uint32, val uint32) {
	ch := (offset & 0x70) >> 4
	reg := offset & 0xC
	if ch == 7 {
		if reg == 0 {
			d.Control = Control(val)
		} else {
			d.Interrupt = d.Interrupt.Store(val)
		}
		return
	}
	d.Channels[ch].Store(reg, val)
}
