// Package irq implements the interrupt controller: a 10-line status/mask
// register pair shared by every device that can raise a CPU interrupt.
package irq

import (
	"fmt"

	"github.com/gopsx/core/psx/schedule"
)

// Irq identifies one of the ten interrupt lines wired into the controller.
type Irq uint32

const (
	VBlank Irq = iota
	Gpu
	CdRom
	Dma
	Tmr0
	Tmr1
	Tmr2
	CtrlAndMemCard
	Sio
	Spu
)

func (i Irq) String() string {
	switch i {
	case VBlank:
		return "VBlank"
	case Gpu:
		return "Gpu"
	case CdRom:
		return "CdRom"
	case Dma:
		return "Dma"
	case Tmr0:
		return "Tmr0"
	case Tmr1:
		return "Tmr1"
	case Tmr2:
		return "Tmr2"
	case CtrlAndMemCard:
		return "CtrlAndMemCard"
	case Sio:
		return "Sio"
	case Spu:
		return "Spu"
	default:
		return fmt.Sprintf("Irq(%d)", uint32(i))
	}
}

// BusBegin and BusEnd bound the interrupt controller's two registers in the
// CPU's physical address space: I_STAT at +0, I_MASK at +4.
const (
	BusBegin uint32 = 0x1f801070
	BusEnd   uint32 = BusBegin + 8 - 1
)

// State holds the ten-line status and mask registers. Only the low ten bits
// of each are meaningful; higher bits always read back as zero.
type State struct {
	status uint32
	mask   uint32
}

// New returns a controller with no lines pending and every line masked
// (the mask register starts at zero).
func New() *State {
	return &State{}
}

// Trigger raises line irq's status bit, regardless of its mask bit. A
// caller typically follows this with an IrqCheck event so the CPU observes
// the change on its next poll.
func (s *State) Trigger(irq Irq) {
	s.status |= 1 << uint32(irq)
}

// Active reports whether any unmasked line is currently pending: the signal
// the CPU's COP0 Cause register IP2 bit reflects.
func (s *State) Active() bool {
	return s.status&s.mask != 0
}

// IsTriggered reports whether irq's status bit is set, independent of mask.
func (s *State) IsTriggered(irq Irq) bool {
	return s.status&(1<<uint32(irq)) != 0
}

// IsMasked reports whether irq is currently masked off.
func (s *State) IsMasked(irq Irq) bool {
	return s.mask&(1<<uint32(irq)) == 0
}

// Load reads I_STAT (offset 0) or I_MASK (offset 4). Any other offset is a
// misuse by the caller; the bus only ever routes offsets 0 and 4 here.
func (s *State) Load(offset uint32) uint32 {
	switch offset {
	case 0:
		return s.status
	case 4:
		return s.mask
	default:
		return 0
	}
}

// Store writes I_STAT or I_MASK. I_STAT is write-0-to-clear: a bit written
// as 0 clears the corresponding status bit, a bit written as 1 leaves it
// alone. Every store re-triggers IrqCheck, since clearing or re-masking a
// line can change whether the CPU's interrupt line is currently active.
func (s *State) Store(sched *schedule.Schedule, offset uint32, val uint32) {
	switch offset {
	case 0:
		s.status &= val
	case 4:
		s.mask = val & 0x3ff
	}
	sched.Trigger(schedule.IrqCheckEvent)
}
