package cpu

import (
	"github.com/gopsx/core/psx/bit"
	"github.com/gopsx/core/psx/schedule"
)

// Exception is a COP0 exception cause code (CAUSE register bits 2..6).
type Exception uint32

const (
	ExcInterrupt            Exception = 0x0
	ExcAddressLoadError      Exception = 0x4
	ExcAddressStoreError     Exception = 0x5
	ExcBusInstructionError   Exception = 0x6
	ExcBusDataError          Exception = 0x7
	ExcSyscall               Exception = 0x8
	ExcBreakpoint            Exception = 0x9
	ExcReservedInstruction   Exception = 0xa
	ExcCopUnusable           Exception = 0xb
	ExcArithmeticOverflow    Exception = 0xc
)

// cop0 register numbers with architectural meaning; the rest are present
// only as inert storage (breakpoint/debug registers no game depends on).
const (
	cop0SR   = 12
	cop0Cause = 13
	cop0EPC  = 14
	cop0PRID = 15
)

// cop0 holds the 16 coprocessor-0 registers: the exception/interrupt
// pipeline control surface.
type cop0 struct {
	regs [16]uint32
}

// newCop0 returns COP0 in its power-on state: every register zero except
// PRID, which identifies the CPU core.
func newCop0() *cop0 {
	c := &cop0{}
	c.regs[cop0PRID] = 0x00000002
	return c
}

func (c *cop0) readReg(reg uint32) uint32 { return c.regs[reg&0xF] }

func (c *cop0) writeReg(reg uint32, val uint32) { c.regs[reg&0xF] = val }

// cacheIsolated reports whether SR bit 16 is set: stores should update the
// (unemulated) cache only, not memory.
func (c *cop0) cacheIsolated() bool { return bit.IsSet(16, c.regs[cop0SR]) }

// bevInRAM reports whether SR.BEV (bit 22) is set. When it is, exception
// vectors live at the BIOS ROM address 0xbfc00180 rather than in RAM.
func (c *cop0) bevInRAM() bool { return bit.IsSet(22, c.regs[cop0SR]) }

func (c *cop0) irqEnabled() bool { return bit.IsSet(0, c.regs[cop0SR]) }

// interruptPending reports whether any CAUSE.IP bit is set together with
// its SR.IM enable bit, i.e. whether a pending IRQ line is allowed to trap.
func (c *cop0) interruptPending() bool {
	ip := bit.Range(c.regs[cop0Cause], 8, 15)
	im := bit.Range(c.regs[cop0SR], 8, 15)
	return ip&im != 0
}

// setHardwareInterruptPending mirrors the IrqState-active line into
// CAUSE.IP2 (bit 10 overall, bit 2 of the IP field), which is how the
// external interrupt controller reaches the CPU's CAUSE register.
func (c *cop0) setHardwareInterruptPending(active bool) {
	c.regs[cop0Cause] = bit.SetTo(10, c.regs[cop0Cause], active)
}

// enterException pushes the interrupt/kernel-mode stack, records the
// exception cause and faulting address, and returns the handler entry
// point. lastPC is the address of the faulting instruction; inDelay
// reports whether it occupied a branch-delay slot.
func (c *cop0) enterException(sched *schedule.Schedule, lastPC uint32, inDelay bool, ex Exception) uint32 {
	flags := bit.Range(c.regs[cop0SR], 0, 5)
	c.regs[cop0SR] = bit.SetRange(c.regs[cop0SR], 0, 5, flags<<2)

	c.regs[cop0Cause] = bit.SetRange(c.regs[cop0Cause], 2, 6, uint32(ex))
	c.regs[cop0Cause] = bit.SetTo(31, c.regs[cop0Cause], inDelay)

	addr := lastPC
	if inDelay {
		addr = lastPC - 4
	}
	c.regs[cop0EPC] = addr

	sched.Trigger(schedule.IrqCheckEvent)

	if c.bevInRAM() {
		return 0xbfc00180
	}
	return 0x80000080
}

// exitException pops the interrupt/kernel-mode stack, implementing RFE.
func (c *cop0) exitException(sched *schedule.Schedule) {
	flags := bit.Range(c.regs[cop0SR], 0, 5)
	c.regs[cop0SR] = bit.SetRange(c.regs[cop0SR], 0, 3, flags>>2)
	sched.Trigger(schedule.IrqCheckEvent)
}
