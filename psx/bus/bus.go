// Package bus implements the machine's single address space: region
// decoding (KUSEG/KSEG0/KSEG1/KSEG2), per-device dispatch, and the cycle
// charges each access incurs. It is the only component holding references
// to every device, so it is also where the scheduler's due events are
// handed to their owning device.
package bus

import (
	"log/slog"

	"github.com/gopsx/core/psx/cdrom"
	"github.com/gopsx/core/psx/disc"
	"github.com/gopsx/core/psx/dma"
	"github.com/gopsx/core/psx/gpu"
	"github.com/gopsx/core/psx/ioport"
	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/memory"
	"github.com/gopsx/core/psx/schedule"
	"github.com/gopsx/core/psx/spu"
	"github.com/gopsx/core/psx/timer"
)

// regionMasks maps the top three address bits (addr>>29) to the mask that
// strips KSEG0/KSEG1's cache/uncached aliasing, translating a virtual
// address down to its physical one. KUSEG and KSEG2 pass through unchanged.
var regionMasks = [8]uint32{
	0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff, // KUSEG
	0x7fffffff, // KSEG0 (cached mirror of physical memory)
	0x1fffffff, // KSEG1 (uncached mirror of physical memory)
	0xffffffff, 0xffffffff, // KSEG2
}

func physAddr(addr uint32) uint32 {
	return addr & regionMasks[addr>>29]
}

// Address ranges from the memory map: base and inclusive end, in physical
// address space.
const (
	ramBegin, ramMirrorEnd = 0x00000000, 0x007fffff // 2 MiB RAM, mirrored 4x
	exp1Begin, exp1End     = 0x1f000000, 0x1f07ffff
	scratchBegin, scratchEnd = 0x1f800000, 0x1f8003ff
	memCtrlBegin, memCtrlEnd = 0x1f801000, 0x1f801023
	ramSizeBegin, ramSizeEnd = 0x1f801060, 0x1f801063
	exp2Begin, exp2End       = 0x1f802000, 0x1f802041
	biosBegin, biosEnd       = 0x1fc00000, 0x1fc7ffff
	cacheCtrlBegin, cacheCtrlEnd = 0xfffe0130, 0xfffe0133

	dmaBegin, dmaEnd = 0x1f801080, 0x1f8010ff
	gpuBegin, gpuEnd = 0x1f801810, 0x1f801817
)

// Bus owns every addressable device plus the schedule and interrupt
// controller the devices share.
type Bus struct {
	ram        *memory.Ram
	scratchpad *memory.Scratchpad
	bios       *memory.Bios

	memCtrl    [9]uint32
	ramSizeReg uint32
	cacheCtrl  uint32

	irqState *irq.State
	dmaCtl   *dma.Dma
	timers   *timer.Timers
	ioport   *ioport.Port
	cdrom    *cdrom.CdRom
	gpu      *gpu.Gpu
	spu      *spu.Spu

	frameSink disc.FrameSink

	sched *schedule.Schedule
	log   *slog.Logger
}

// SetFrameSink installs the collaborator that receives a completed frame's
// VRAM contents on every VBlank. Pass nil to run headless.
func (b *Bus) SetFrameSink(sink disc.FrameSink) { b.frameSink = sink }

// New builds a Bus around an already-loaded BIOS image and an optional disc
// collaborator. sched is the single timeline every device shares; callers
// drive the machine by alternating cpu.Step(bus, sched) with bus.Drain().
func New(bios *memory.Bios, provider disc.SectorProvider, sched *schedule.Schedule, log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		ram:        memory.NewRam(),
		scratchpad: memory.NewScratchpad(),
		bios:       bios,
		irqState:   irq.New(),
		dmaCtl:     dma.New(),
		timers:     timer.New(),
		ioport:     ioport.New(),
		cdrom:      cdrom.New(provider, log),
		gpu:        gpu.New(log),
		spu:        spu.New(),
		sched:      sched,
		log:        log,
	}
}

// Accessors for the system/debug/exe layers, which need direct device
// handles the narrow cpu.Bus interface doesn't expose.
func (b *Bus) Ram() *memory.Ram         { return b.ram }
func (b *Bus) Gpu() *gpu.Gpu            { return b.gpu }
func (b *Bus) CdRom() *cdrom.CdRom      { return b.cdrom }
func (b *Bus) Timers() *timer.Timers    { return b.timers }
func (b *Bus) IoPort() *ioport.Port     { return b.ioport }
func (b *Bus) IrqState() *irq.State     { return b.irqState }
func (b *Bus) Schedule() *schedule.Schedule { return b.sched }

// IrqActive reports whether the CPU's external interrupt line is currently
// asserted: any unmasked IRQ line is pending.
func (b *Bus) IrqActive() bool { return b.irqState.Active() }

// LoadByte, LoadHalfWord, and LoadWord implement cpu.Bus. Each charges the
// target device's per-access cycle cost before returning.
func (b *Bus) LoadByte(addr uint32) (uint8, bool) {
	v, ok := b.load(addr, 1)
	return uint8(v), ok
}

func (b *Bus) LoadHalfWord(addr uint32) (uint16, bool) {
	v, ok := b.load(addr, 2)
	return uint16(v), ok
}

func (b *Bus) LoadWord(addr uint32) (uint32, bool) {
	return b.load(addr, 4)
}

func (b *Bus) StoreByte(addr uint32, val uint8) bool {
	return b.store(addr, uint32(val), 1)
}

func (b *Bus) StoreHalfWord(addr uint32, val uint16) bool {
	return b.store(addr, uint32(val), 2)
}

func (b *Bus) StoreWord(addr uint32, val uint32) bool {
	return b.store(addr, val, 4)
}

func (b *Bus) load(addr uint32, width uint32) (uint32, bool) {
	pa := physAddr(addr)
	off := pa

	switch {
	case pa <= ramMirrorEnd:
		b.sched.Tick(3)
		o := off % memory.RamSize
		switch width {
		case 1:
			return uint32(b.ram.LoadByte(o)), true
		case 2:
			return uint32(b.ram.LoadHalfWord(o)), true
		default:
			return b.ram.LoadWord(o), true
		}
	case pa >= scratchBegin && pa <= scratchEnd:
		o := pa - scratchBegin
		switch width {
		case 1:
			return uint32(b.scratchpad.LoadByte(o)), true
		case 2:
			return uint32(b.scratchpad.LoadHalfWord(o)), true
		default:
			return b.scratchpad.LoadWord(o), true
		}
	case pa >= biosBegin && pa <= biosEnd:
		b.sched.Tick(uint64(6 * width))
		o := pa - biosBegin
		switch width {
		case 1:
			return uint32(b.bios.LoadByte(o)), true
		case 2:
			return uint32(b.bios.LoadHalfWord(o)), true
		default:
			return b.bios.LoadWord(o), true
		}
	case pa >= exp1Begin && pa <= exp1End:
		b.sched.Tick(uint64(7 * width))
		return 0xff, true
	case pa >= exp2Begin && pa <= exp2End:
		b.sched.Tick(uint64(10 * width))
		return 0xff, true
	case pa >= memCtrlBegin && pa <= memCtrlEnd:
		b.sched.Tick(3)
		return b.memCtrl[(pa-memCtrlBegin)/4], true
	case pa >= ramSizeBegin && pa <= ramSizeEnd:
		b.sched.Tick(3)
		return b.ramSizeReg, true
	case pa >= cacheCtrlBegin && pa <= cacheCtrlEnd:
		b.sched.Tick(2)
		return b.cacheCtrl, true
	case pa >= irq.BusBegin && pa <= irq.BusEnd:
		b.sched.Tick(3)
		return b.irqState.Load(pa - irq.BusBegin), true
	case pa >= dmaBegin && pa <= dmaEnd:
		b.sched.Tick(3)
		return b.dmaCtl.Load(pa - dmaBegin), true
	case pa >= timer.BusBegin && pa <= timer.BusEnd:
		b.sched.Tick(3)
		return uint32(b.timers.Load(pa - timer.BusBegin)), true
	case pa >= ioport.BusBegin && pa <= ioport.BusEnd:
		b.sched.Tick(3)
		return b.ioport.Load(pa - ioport.BusBegin), true
	case pa >= cdrom.BusBegin && pa <= cdrom.BusEnd:
		b.sched.Tick(6)
		return uint32(b.cdrom.Load(pa - cdrom.BusBegin)), true
	case pa >= gpuBegin && pa <= gpuEnd:
		b.sched.Tick(3)
		return b.loadGpu(pa - gpuBegin), true
	case pa >= spu.BusBegin && pa <= spu.BusEnd:
		b.sched.Tick(spuCycles(width))
		return b.spu.Load(pa - spu.BusBegin), true
	default:
		b.log.Warn("bus: load from unmapped address", "addr", addr, "width", width)
		return 0, false
	}
}

func (b *Bus) loadGpu(offset uint32) uint32 {
	switch offset {
	case 0:
		return b.gpu.GpuRead()
	default:
		return b.gpu.Status()
	}
}

func spuCycles(width uint32) uint64 {
	if width == 4 {
		return 39
	}
	return 18
}

func (b *Bus) store(addr uint32, val uint32, width uint32) bool {
	pa := physAddr(addr)

	switch {
	case pa <= ramMirrorEnd:
		b.sched.Tick(3)
		o := pa % memory.RamSize
		switch width {
		case 1:
			b.ram.StoreByte(o, uint8(val))
		case 2:
			b.ram.StoreHalfWord(o, uint16(val))
		default:
			b.ram.StoreWord(o, val)
		}
		return true
	case pa >= scratchBegin && pa <= scratchEnd:
		o := pa - scratchBegin
		switch width {
		case 1:
			b.scratchpad.StoreByte(o, uint8(val))
		case 2:
			b.scratchpad.StoreHalfWord(o, uint16(val))
		default:
			b.scratchpad.StoreWord(o, val)
		}
		return true
	case pa >= exp1Begin && pa <= exp1End:
		b.sched.Tick(uint64(7 * width))
		return true // writes ignored
	case pa >= exp2Begin && pa <= exp2End:
		b.sched.Tick(uint64(10 * width))
		return true // writes ignored
	case pa >= memCtrlBegin && pa <= memCtrlEnd:
		b.sched.Tick(3)
		b.memCtrl[(pa-memCtrlBegin)/4] = val
		return true
	case pa >= ramSizeBegin && pa <= ramSizeEnd:
		b.sched.Tick(3)
		b.ramSizeReg = val
		return true
	case pa >= cacheCtrlBegin && pa <= cacheCtrlEnd:
		b.sched.Tick(2)
		b.cacheCtrl = val
		return true
	case pa >= irq.BusBegin && pa <= irq.BusEnd:
		b.sched.Tick(3)
		b.irqState.Store(b.sched, pa-irq.BusBegin, val)
		return true
	case pa >= dmaBegin && pa <= dmaEnd:
		b.sched.Tick(3)
		b.storeDma(pa-dmaBegin, val)
		return true
	case pa >= timer.BusBegin && pa <= timer.BusEnd:
		b.sched.Tick(3)
		b.timers.Store(b.sched, pa-timer.BusBegin, uint16(val))
		return true
	case pa >= ioport.BusBegin && pa <= ioport.BusEnd:
		b.sched.Tick(3)
		b.ioport.Store(b.sched, b.irqState, pa-ioport.BusBegin, val)
		return true
	case pa >= cdrom.BusBegin && pa <= cdrom.BusEnd:
		b.sched.Tick(6)
		b.cdrom.Store(b.sched, pa-cdrom.BusBegin, byte(val))
		return true
	case pa >= gpuBegin && pa <= gpuEnd:
		b.sched.Tick(3)
		b.storeGpu(pa-gpuBegin, val)
		return true
	case pa >= spu.BusBegin && pa <= spu.BusEnd:
		b.sched.Tick(spuCycles(width))
		b.spu.Store(pa-spu.BusBegin, val)
		return true
	default:
		b.log.Warn("bus: store to unmapped address", "addr", addr, "val", val, "width", width)
		return false
	}
}

func (b *Bus) storeGpu(offset uint32, val uint32) {
	switch offset {
	case 0:
		b.gpu.Gp0(val)
	default:
		b.gpu.Gp1(b.sched, val)
	}
}

// Drain hands every event whose deadline has arrived to its owning device,
// in deadline order, until none remain ready. Called once per CPU
// instruction, after Step, so devices observe a fully-settled state before
// the next fetch (ordering guarantee (a)).
func (b *Bus) Drain() {
	for {
		ev, ok := b.sched.NextReady()
		if !ok {
			return
		}
		b.handleEvent(ev)
	}
}

func (b *Bus) handleEvent(ev schedule.Event) {
	switch ev.Kind {
	case schedule.RunGpu:
		wasVblank := b.gpu.InVblank()
		b.gpu.Run(b.sched, b.irqState)
		if !wasVblank && b.gpu.InVblank() {
			b.gpu.Present(b.frameSink)
		}
	case schedule.GpuCmdDone:
		// GP0 commands in this core resolve synchronously when their last
		// word arrives; nothing to do when this event fires.
	case schedule.RunCdRom:
		b.cdrom.HandleRunCdRom(b.sched)
	case schedule.CdRomResponse:
		b.cdrom.HandleResponse(b.sched, b.irqState, uint8(ev.Arg))
	case schedule.RunDmaChan:
		b.runDmaChan(dma.ChannelID(ev.Arg))
	case schedule.RunTimer:
		b.timers.HandleRunTimer(b.sched, b.irqState, timer.ID(ev.Arg))
	case schedule.TimerIrqEnable:
		b.timers.HandleTimerIrqEnable(timer.ID(ev.Arg))
	case schedule.IrqTrigger:
		b.irqState.Trigger(irq.Irq(ev.Arg))
		b.sched.Trigger(schedule.IrqCheckEvent)
	case schedule.IrqCheck:
		// Sentinel: IrqActive() is computed on demand, nothing to update.
	}
}
