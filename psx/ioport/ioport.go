// Package ioport implements the serial I/O port: a single-master shift
// register toward one of two controller/memory-card slots, with a Digital
// controller as the canonical peripheral.
package ioport

import (
	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/schedule"
	"github.com/gopsx/core/psx/systime"
)

// BusBegin and BusEnd bound the I/O port registers.
const (
	BusBegin uint32 = 0x1f801040
	BusEnd   uint32 = BusBegin + 32 - 1
)

// ackDelay is the cycle delay before a successful transfer's acknowledge
// IRQ fires.
const ackDelay = 450

// TransferState is the Digital controller's shift-register state.
type TransferState int

const (
	Idle TransferState = iota
	Ready
	IdHigh
	ButtonsLow
	ButtonsHigh
)

// ButtonState is a 16-bit bitmap where a pressed button reads as 0, per
// the controller's active-low convention.
type ButtonState uint16

// AllReleased is the bitmap with every button unpressed.
const AllReleased ButtonState = 0xFFFF

// DigitalController is the canonical slot peripheral: a standard digital
// gamepad with no analog sticks.
type DigitalController struct {
	Buttons ButtonState
	state   TransferState
}

// NewDigitalController returns a controller with every button released.
func NewDigitalController() *DigitalController {
	return &DigitalController{Buttons: AllReleased}
}

// transfer feeds one byte into the controller's shift register, returning
// the response byte and whether the slot has more to send.
func (d *DigitalController) transfer(val byte) (response byte, more bool) {
	switch d.state {
	case Idle:
		if val == 0x01 {
			d.state = Ready
			return 0xFF, true
		}
	case Ready:
		if val == 0x42 {
			d.state = IdHigh
			return 0x41, true
		}
	case IdHigh:
		d.state = ButtonsLow
		return 0x5A, true
	case ButtonsLow:
		d.state = ButtonsHigh
		return byte(d.Buttons), true
	case ButtonsHigh:
		d.state = Idle
		return byte(d.Buttons >> 8), false
	}
	d.state = Idle
	return 0xFF, false
}

// Slot identifies one of the two controller/memory-card ports.
type Slot int

const (
	Slot1 Slot = iota
	Slot2
)

// Port is the register surface and two controller slots.
type Port struct {
	control  uint16
	mode     uint16
	baud     uint16
	rxData   byte
	rxReady  bool
	slot     Slot
	selected Slot

	controllers [2]*DigitalController
}

// New returns an I/O port with a digital controller in slot 1 and nothing
// connected to slot 2.
func New() *Port {
	return &Port{controllers: [2]*DigitalController{NewDigitalController(), nil}}
}

// Load reads a JOY register by its offset within the port's 32-byte window.
func (p *Port) Load(offset uint32) uint32 {
	switch offset {
	case 0x0: // JOY_DATA
		p.rxReady = false
		return uint32(p.rxData)
	case 0x4: // JOY_STAT
		var s uint32
		if p.rxReady {
			s |= 1 << 1
		}
		s |= 1 << 2 // TX always ready: transfers complete synchronously
		return s
	case 0x8:
		return uint32(p.mode)
	case 0xA:
		return uint32(p.control)
	case 0xE:
		return uint32(p.baud)
	}
	return 0
}

// Store writes a JOY register. A write to JOY_DATA (offset 0) issues a
// transfer to the currently selected slot.
func (p *Port) Store(sched *schedule.Schedule, irqState *irq.State, offset uint32, val uint32) {
	switch offset {
	case 0x0:
		p.issueTransfer(sched, irqState, byte(val))
	case 0x8:
		p.mode = uint16(val)
	case 0xA:
		p.control = uint16(val)
		p.selected = Slot((val >> 13) & 1)
	case 0xE:
		p.baud = uint16(val)
	}
}

func (p *Port) issueTransfer(sched *schedule.Schedule, irqState *irq.State, val byte) {
	ctrl := p.controllers[p.selected]
	if ctrl == nil {
		p.rxData = 0xFF
		p.rxReady = true
		return
	}
	resp, _ := ctrl.transfer(val)
	p.rxData = resp
	p.rxReady = true
	sched.ScheduleIn(systime.FromCPUCycles(ackDelay), schedule.IrqTriggerEvent(uint32(irq.CtrlAndMemCard)))
}

// The acknowledge interrupt scheduled by issueTransfer arrives as a generic
// schedule.IrqTrigger event; the bus raises it the same way it raises every
// other device's IRQ line, so there is no port-specific handler here.
