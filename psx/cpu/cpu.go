// Package cpu implements the MIPS R3000A interpreter: instruction fetch,
// decode, and execute, the load-delay and branch-delay pipeline hazards,
// and the COP0 exception/interrupt pipeline. COP2 (GTE) is a register-only
// stub; it does not perform the real geometry math.
package cpu

import (
	"log/slog"
	"math"

	"github.com/gopsx/core/psx/bit"
	"github.com/gopsx/core/psx/schedule"
)

// resetPC is the address the CPU starts fetching from: the BIOS entry
// point, mapped through KSEG1 (uncached).
const resetPC = 0xbfc00000

// Bus is the CPU's narrow view of the rest of the machine: region-decoded,
// width-specific loads and stores, and the interrupt controller's combined
// active line. A concrete implementation lives in the bus package, which
// owns every device plus the Schedule and IrqState; the CPU only ever sees
// this interface, never the devices themselves.
type Bus interface {
	LoadByte(addr uint32) (uint8, bool)
	LoadHalfWord(addr uint32) (uint16, bool)
	LoadWord(addr uint32) (uint32, bool)
	StoreByte(addr uint32, val uint8) bool
	StoreHalfWord(addr uint32, val uint16) bool
	StoreWord(addr uint32, val uint32) bool
	IrqActive() bool
}

// Debugger receives instruction/load/store/irq hooks from Step, and can
// request execution stop after the current instruction. A nil Debugger
// disables all hooks at no cost beyond a nil check.
type Debugger interface {
	Instruction(c *Cpu, addr uint32, word uint32)
	Load(c *Cpu, addr uint32, width int, val uint32)
	Store(c *Cpu, addr uint32, width int, val uint32)
	Irq(c *Cpu, line uint32)
	ShouldBreak() bool
}

// Cpu is the MIPS R3000A core: register file, COP0, and a GTE register
// stub.
type Cpu struct {
	regs registers
	cop0 *cop0
	gte  *gte

	fetchPC   uint32
	delaySlot bool
	branching bool

	dbg Debugger
	log *slog.Logger
}

// New returns a Cpu reset to its power-on state, fetching from the BIOS
// entry point.
func New(log *slog.Logger) *Cpu {
	if log == nil {
		log = slog.Default()
	}
	c := &Cpu{cop0: newCop0(), gte: newGte(log), log: log}
	c.regs.pc = resetPC
	c.regs.nextPC = resetPC + 4
	return c
}

// SetDebugger installs a Debugger whose hooks fire around every Step. Pass
// nil to disable.
func (c *Cpu) SetDebugger(dbg Debugger) { c.dbg = dbg }

// PC returns the address of the next instruction to fetch.
func (c *Cpu) PC() uint32 { return c.regs.pc }

// SetPC overrides the fetch address, e.g. for a loaded executable's entry
// point. It resets the branch-delay pipeline so the overridden address is
// not mistaken for a delay slot.
func (c *Cpu) SetPC(pc uint32) {
	c.regs.pc = pc
	c.regs.nextPC = pc + 4
	c.branching = false
}

// Reg returns a general-purpose register's current value, for debug/test
// introspection.
func (c *Cpu) Reg(i RegIdx) uint32 { return c.regs.reg(i) }

// SetReg writes a general-purpose register immediately, visible to the
// very next read. Used by tests and by the executable loader to seed
// $sp/$gp before the first instruction runs.
func (c *Cpu) SetReg(i RegIdx, val uint32) {
	c.regs.cur[i&31] = val
	c.regs.out[i&31] = val
	if i == 0 {
		c.regs.cur[0] = 0
		c.regs.out[0] = 0
	}
}

// Hi and Lo return the multiply/divide result registers.
func (c *Cpu) Hi() uint32 { return c.regs.hi }
func (c *Cpu) Lo() uint32 { return c.regs.lo }

// SR returns COP0's status register.
func (c *Cpu) SR() uint32 { return c.cop0.readReg(cop0SR) }

// COP0Reg returns a raw COP0 register, for debug introspection.
func (c *Cpu) COP0Reg(n uint32) uint32 { return c.cop0.readReg(n) }

// Step fetches, decodes, and executes exactly one instruction, then checks
// for a pending hardware interrupt at the resulting instruction boundary.
func (c *Cpu) Step(bus Bus, sched *schedule.Schedule) {
	fetchPC := c.regs.pc
	c.fetchPC = fetchPC
	c.delaySlot = c.branching
	c.branching = false

	if fetchPC%4 != 0 {
		c.raiseException(sched, fetchPC, c.delaySlot, ExcBusInstructionError)
		return
	}

	word, ok := bus.LoadWord(fetchPC)
	if !ok {
		c.raiseException(sched, fetchPC, c.delaySlot, ExcBusInstructionError)
		return
	}

	if c.dbg != nil {
		c.dbg.Instruction(c, fetchPC, word)
	}

	c.regs.pc = c.regs.nextPC
	c.regs.nextPC = c.regs.pc + 4

	c.regs.commitLoad()

	c.execute(bus, sched, opcode(word))

	c.regs.sync()

	c.checkInterrupt(bus, sched)
}

func (c *Cpu) checkInterrupt(bus Bus, sched *schedule.Schedule) {
	c.cop0.setHardwareInterruptPending(bus.IrqActive())
	if c.cop0.irqEnabled() && c.cop0.interruptPending() {
		if c.dbg != nil {
			c.dbg.Irq(c, 0)
		}
		c.raiseException(sched, c.regs.pc, c.branching, ExcInterrupt)
	}
}

// raiseException enters the COP0 exception handler and redirects fetch to
// it, discarding whatever next_pc the faulting instruction computed.
func (c *Cpu) raiseException(sched *schedule.Schedule, lastPC uint32, inDelay bool, ex Exception) {
	handler := c.cop0.enterException(sched, lastPC, inDelay, ex)
	c.regs.pc = handler
	c.regs.nextPC = handler + 4
	c.branching = false
}

func (c *Cpu) branchTo(offset uint32) {
	c.regs.nextPC = c.regs.pc + (offset << 2)
	c.branching = true
}

// execute dispatches on the primary opcode field.
func (c *Cpu) execute(bus Bus, sched *schedule.Schedule, o opcode) {
	switch o.op() {
	case 0x0:
		c.executeSpecial(sched, o)
	case 0x1:
		c.executeRegimm(o)
	case 0x2:
		c.opJ(o)
	case 0x3:
		c.opJal(o)
	case 0x4:
		c.opBeq(o)
	case 0x5:
		c.opBne(o)
	case 0x6:
		c.opBlez(o)
	case 0x7:
		c.opBgtz(o)
	case 0x8:
		c.opAddi(sched, o)
	case 0x9:
		c.opAddiu(o)
	case 0xa:
		c.opSlti(o)
	case 0xb:
		c.opSltiu(o)
	case 0xc:
		c.opAndi(o)
	case 0xd:
		c.opOri(o)
	case 0xe:
		c.opXori(o)
	case 0xf:
		c.opLui(o)
	case 0x10:
		c.executeCop0(sched, o)
	case 0x12:
		c.executeCop2(o)
	case 0x11, 0x13:
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcCopUnusable)
	case 0x20:
		c.opLb(bus, sched, o)
	case 0x21:
		c.opLh(bus, sched, o)
	case 0x22:
		c.opLwl(bus, sched, o)
	case 0x23:
		c.opLw(bus, sched, o)
	case 0x24:
		c.opLbu(bus, sched, o)
	case 0x25:
		c.opLhu(bus, sched, o)
	case 0x26:
		c.opLwr(bus, sched, o)
	case 0x28:
		c.opSb(bus, sched, o)
	case 0x29:
		c.opSh(bus, sched, o)
	case 0x2a:
		c.opSwl(bus, sched, o)
	case 0x2b:
		c.opSw(bus, sched, o)
	case 0x2e:
		c.opSwr(bus, sched, o)
	case 0x32:
		c.opLwc2(bus, sched, o)
	case 0x3a:
		c.opSwc2(bus, sched, o)
	case 0x30, 0x31, 0x33, 0x38, 0x39, 0x3b:
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcCopUnusable)
	default:
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcReservedInstruction)
	}
}

// --- Unconditional jumps and branches ---

func (c *Cpu) opJ(o opcode) {
	// Architecturally the jump target's top 4 bits come from the address of
	// the instruction in the delay slot, which by this point in Step is
	// c.regs.pc (nextPC has already been advanced one further, to the
	// instruction after the delay slot).
	target := (c.regs.pc & 0xF0000000) | (o.target() << 2)
	c.regs.nextPC = target
	c.branching = true
}

func (c *Cpu) opJal(o opcode) {
	c.regs.setReg(regRA, c.regs.pc+4)
	c.opJ(o)
}

func (c *Cpu) opBeq(o opcode) {
	if c.regs.reg(o.rs()) == c.regs.reg(o.rt()) {
		c.branchTo(o.signedImm())
	}
}

func (c *Cpu) opBne(o opcode) {
	if c.regs.reg(o.rs()) != c.regs.reg(o.rt()) {
		c.branchTo(o.signedImm())
	}
}

func (c *Cpu) opBlez(o opcode) {
	if int32(c.regs.reg(o.rs())) <= 0 {
		c.branchTo(o.signedImm())
	}
}

func (c *Cpu) opBgtz(o opcode) {
	if int32(c.regs.reg(o.rs())) > 0 {
		c.branchTo(o.signedImm())
	}
}

// executeRegimm handles the BCONDZ family: BLTZ/BGEZ/BLTZAL/BGEZAL.
func (c *Cpu) executeRegimm(o opcode) {
	test := int32(c.regs.reg(o.rs()))
	taken := test >= 0
	if !o.bgez() {
		taken = test < 0
	}
	if o.linkOnBranch() {
		c.regs.setReg(regRA, c.regs.pc+4)
	}
	if taken {
		c.branchTo(o.signedImm())
	}
}

// --- Immediate ALU ops (I-format, destination is rt) ---

func (c *Cpu) opAddi(sched *schedule.Schedule, o opcode) {
	a := int64(int32(c.regs.reg(o.rs())))
	b := int64(int32(o.signedImm()))
	sum := a + b
	if sum < math.MinInt32 || sum > math.MaxInt32 {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcArithmeticOverflow)
		return
	}
	c.regs.setReg(o.rt(), uint32(int32(sum)))
}

func (c *Cpu) opAddiu(o opcode) {
	c.regs.setReg(o.rt(), c.regs.reg(o.rs())+o.signedImm())
}

func (c *Cpu) opSlti(o opcode) {
	v := uint32(0)
	if int32(c.regs.reg(o.rs())) < int32(o.signedImm()) {
		v = 1
	}
	c.regs.setReg(o.rt(), v)
}

func (c *Cpu) opSltiu(o opcode) {
	v := uint32(0)
	if c.regs.reg(o.rs()) < o.signedImm() {
		v = 1
	}
	c.regs.setReg(o.rt(), v)
}

func (c *Cpu) opAndi(o opcode) { c.regs.setReg(o.rt(), c.regs.reg(o.rs())&o.imm()) }
func (c *Cpu) opOri(o opcode)  { c.regs.setReg(o.rt(), c.regs.reg(o.rs())|o.imm()) }
func (c *Cpu) opXori(o opcode) { c.regs.setReg(o.rt(), c.regs.reg(o.rs())^o.imm()) }
func (c *Cpu) opLui(o opcode)  { c.regs.setReg(o.rt(), o.imm()<<16) }

// --- Loads and stores ---

func (c *Cpu) loadWord(bus Bus, sched *schedule.Schedule, addr uint32) (uint32, bool) {
	if addr%4 != 0 {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcAddressLoadError)
		return 0, false
	}
	val, ok := bus.LoadWord(addr)
	if !ok {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
		return 0, false
	}
	return val, true
}

func (c *Cpu) loadHalfWord(bus Bus, sched *schedule.Schedule, addr uint32) (uint16, bool) {
	if addr%2 != 0 {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcAddressLoadError)
		return 0, false
	}
	val, ok := bus.LoadHalfWord(addr)
	if !ok {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
		return 0, false
	}
	return val, true
}

func (c *Cpu) loadByte(bus Bus, sched *schedule.Schedule, addr uint32) (uint8, bool) {
	val, ok := bus.LoadByte(addr)
	if !ok {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
		return 0, false
	}
	return val, true
}

// storeWord, storeHalfWord, and storeByte suppress the actual bus write
// when COP0 SR bit 16 (cache isolation) is set: the BIOS uses isolated
// stores to flush the instruction cache, and this core has no cache to
// flush, so the write simply doesn't happen, matching the observable
// behavior a non-cached store would have.
func (c *Cpu) storeWord(bus Bus, sched *schedule.Schedule, addr uint32, val uint32) {
	if addr%4 != 0 {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcAddressStoreError)
		return
	}
	if c.cop0.cacheIsolated() {
		return
	}
	if !bus.StoreWord(addr, val) {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
	}
}

func (c *Cpu) storeHalfWord(bus Bus, sched *schedule.Schedule, addr uint32, val uint16) {
	if addr%2 != 0 {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcAddressStoreError)
		return
	}
	if c.cop0.cacheIsolated() {
		return
	}
	if !bus.StoreHalfWord(addr, val) {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
	}
}

func (c *Cpu) storeByte(bus Bus, sched *schedule.Schedule, addr uint32, val uint8) {
	if c.cop0.cacheIsolated() {
		return
	}
	if !bus.StoreByte(addr, val) {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
	}
}

func (c *Cpu) opLb(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	val, ok := c.loadByte(bus, sched, addr)
	if !ok {
		return
	}
	if c.dbg != nil {
		c.dbg.Load(c, addr, 1, uint32(val))
	}
	c.regs.setPendingLoad(o.rt(), bit.SignExtend8(uint32(val)))
}

func (c *Cpu) opLbu(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	val, ok := c.loadByte(bus, sched, addr)
	if !ok {
		return
	}
	if c.dbg != nil {
		c.dbg.Load(c, addr, 1, uint32(val))
	}
	c.regs.setPendingLoad(o.rt(), uint32(val))
}

func (c *Cpu) opLh(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	val, ok := c.loadHalfWord(bus, sched, addr)
	if !ok {
		return
	}
	if c.dbg != nil {
		c.dbg.Load(c, addr, 2, uint32(val))
	}
	c.regs.setPendingLoad(o.rt(), bit.SignExtend16(uint32(val)))
}

func (c *Cpu) opLhu(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	val, ok := c.loadHalfWord(bus, sched, addr)
	if !ok {
		return
	}
	if c.dbg != nil {
		c.dbg.Load(c, addr, 2, uint32(val))
	}
	c.regs.setPendingLoad(o.rt(), uint32(val))
}

func (c *Cpu) opLw(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	val, ok := c.loadWord(bus, sched, addr)
	if !ok {
		return
	}
	if c.dbg != nil {
		c.dbg.Load(c, addr, 4, val)
	}
	c.regs.setPendingLoad(o.rt(), val)
}

func (c *Cpu) opSb(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	val := uint8(c.regs.reg(o.rt()))
	if c.dbg != nil {
		c.dbg.Store(c, addr, 1, uint32(val))
	}
	c.storeByte(bus, sched, addr, val)
}

func (c *Cpu) opSh(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	val := uint16(c.regs.reg(o.rt()))
	if c.dbg != nil {
		c.dbg.Store(c, addr, 2, uint32(val))
	}
	c.storeHalfWord(bus, sched, addr, val)
}

func (c *Cpu) opSw(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	val := c.regs.reg(o.rt())
	if c.dbg != nil {
		c.dbg.Store(c, addr, 4, val)
	}
	c.storeWord(bus, sched, addr, val)
}

// opLwl and opLwr load the naturally-aligned word containing an unaligned
// address and merge it, byte-wise, into the target register — combining
// with any load still in flight for that register rather than its stale
// committed value.
func (c *Cpu) opLwl(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	aligned := addr &^ 3
	word, ok := bus.LoadWord(aligned)
	if !ok {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
		return
	}
	cur := c.regs.outReg(o.rt())
	var v uint32
	switch addr & 3 {
	case 0:
		v = (cur & 0x00ffffff) | (word << 24)
	case 1:
		v = (cur & 0x0000ffff) | (word << 16)
	case 2:
		v = (cur & 0x000000ff) | (word << 8)
	default:
		v = word
	}
	c.regs.setPendingLoad(o.rt(), v)
}

func (c *Cpu) opLwr(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	aligned := addr &^ 3
	word, ok := bus.LoadWord(aligned)
	if !ok {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
		return
	}
	cur := c.regs.outReg(o.rt())
	var v uint32
	switch addr & 3 {
	case 0:
		v = word
	case 1:
		v = (cur & 0xff000000) | (word >> 8)
	case 2:
		v = (cur & 0xffff0000) | (word >> 16)
	default:
		v = (cur & 0xffffff00) | (word >> 24)
	}
	c.regs.setPendingLoad(o.rt(), v)
}

func (c *Cpu) opSwl(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	aligned := addr &^ 3
	word, ok := bus.LoadWord(aligned)
	if !ok {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
		return
	}
	v := c.regs.reg(o.rt())
	var merged uint32
	switch addr & 3 {
	case 0:
		merged = (word & 0xffffff00) | (v >> 24)
	case 1:
		merged = (word & 0xffff0000) | (v >> 16)
	case 2:
		merged = (word & 0xff000000) | (v >> 8)
	default:
		merged = v
	}
	if c.cop0.cacheIsolated() {
		return
	}
	if !bus.StoreWord(aligned, merged) {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
	}
}

func (c *Cpu) opSwr(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	aligned := addr &^ 3
	word, ok := bus.LoadWord(aligned)
	if !ok {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
		return
	}
	v := c.regs.reg(o.rt())
	var merged uint32
	switch addr & 3 {
	case 0:
		merged = v
	case 1:
		merged = (word & 0x000000ff) | (v << 8)
	case 2:
		merged = (word & 0x0000ffff) | (v << 16)
	default:
		merged = (word & 0x00ffffff) | (v << 24)
	}
	if c.cop0.cacheIsolated() {
		return
	}
	if !bus.StoreWord(aligned, merged) {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBusDataError)
	}
}

// --- Special (secondary opcode) ---

func (c *Cpu) executeSpecial(sched *schedule.Schedule, o opcode) {
	switch o.special() {
	case 0x00:
		c.regs.setReg(o.rd(), c.regs.reg(o.rt())<<o.shamt())
	case 0x02:
		c.regs.setReg(o.rd(), c.regs.reg(o.rt())>>o.shamt())
	case 0x03:
		c.regs.setReg(o.rd(), uint32(int32(c.regs.reg(o.rt()))>>o.shamt()))
	case 0x04:
		c.regs.setReg(o.rd(), c.regs.reg(o.rt())<<(c.regs.reg(o.rs())&0x1f))
	case 0x06:
		c.regs.setReg(o.rd(), c.regs.reg(o.rt())>>(c.regs.reg(o.rs())&0x1f))
	case 0x07:
		c.regs.setReg(o.rd(), uint32(int32(c.regs.reg(o.rt()))>>(c.regs.reg(o.rs())&0x1f)))
	case 0x08:
		c.regs.nextPC = c.regs.reg(o.rs())
		c.branching = true
	case 0x09:
		c.regs.setReg(o.rd(), c.regs.pc+4)
		c.regs.nextPC = c.regs.reg(o.rs())
		c.branching = true
	case 0x0c:
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcSyscall)
	case 0x0d:
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcBreakpoint)
	case 0x10:
		c.regs.setReg(o.rd(), c.regs.hi)
	case 0x11:
		c.regs.hi = c.regs.reg(o.rs())
	case 0x12:
		c.regs.setReg(o.rd(), c.regs.lo)
	case 0x13:
		c.regs.lo = c.regs.reg(o.rs())
	case 0x18:
		a := int64(int32(c.regs.reg(o.rs())))
		b := int64(int32(c.regs.reg(o.rt())))
		result := uint64(a * b)
		c.regs.hi = uint32(result >> 32)
		c.regs.lo = uint32(result)
	case 0x19:
		a := uint64(c.regs.reg(o.rs()))
		b := uint64(c.regs.reg(o.rt()))
		result := a * b
		c.regs.hi = uint32(result >> 32)
		c.regs.lo = uint32(result)
	case 0x1a:
		c.opDiv(o)
	case 0x1b:
		c.opDivu(o)
	case 0x20:
		c.opAdd(sched, o)
	case 0x21:
		c.regs.setReg(o.rd(), c.regs.reg(o.rs())+c.regs.reg(o.rt()))
	case 0x22:
		c.opSub(sched, o)
	case 0x23:
		c.regs.setReg(o.rd(), c.regs.reg(o.rs())-c.regs.reg(o.rt()))
	case 0x24:
		c.regs.setReg(o.rd(), c.regs.reg(o.rs())&c.regs.reg(o.rt()))
	case 0x25:
		c.regs.setReg(o.rd(), c.regs.reg(o.rs())|c.regs.reg(o.rt()))
	case 0x26:
		c.regs.setReg(o.rd(), c.regs.reg(o.rs())^c.regs.reg(o.rt()))
	case 0x27:
		c.regs.setReg(o.rd(), ^(c.regs.reg(o.rs()) | c.regs.reg(o.rt())))
	case 0x2a:
		v := uint32(0)
		if int32(c.regs.reg(o.rs())) < int32(c.regs.reg(o.rt())) {
			v = 1
		}
		c.regs.setReg(o.rd(), v)
	case 0x2b:
		v := uint32(0)
		if c.regs.reg(o.rs()) < c.regs.reg(o.rt()) {
			v = 1
		}
		c.regs.setReg(o.rd(), v)
	default:
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcReservedInstruction)
	}
}

func (c *Cpu) opAdd(sched *schedule.Schedule, o opcode) {
	a := int64(int32(c.regs.reg(o.rs())))
	b := int64(int32(c.regs.reg(o.rt())))
	sum := a + b
	if sum < math.MinInt32 || sum > math.MaxInt32 {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcArithmeticOverflow)
		return
	}
	c.regs.setReg(o.rd(), uint32(int32(sum)))
}

func (c *Cpu) opSub(sched *schedule.Schedule, o opcode) {
	a := int64(int32(c.regs.reg(o.rs())))
	b := int64(int32(c.regs.reg(o.rt())))
	diff := a - b
	if diff < math.MinInt32 || diff > math.MaxInt32 {
		c.raiseException(sched, c.fetchPC, c.delaySlot, ExcArithmeticOverflow)
		return
	}
	c.regs.setReg(o.rd(), uint32(int32(diff)))
}

// opDiv implements DIV's divide-by-zero and MIN_INT/-1 special cases,
// which real R3000A hardware defines rather than traps.
func (c *Cpu) opDiv(o opcode) {
	n := int32(c.regs.reg(o.rs()))
	d := int32(c.regs.reg(o.rt()))
	switch {
	case d == 0:
		c.regs.hi = uint32(n)
		if n < 0 {
			c.regs.lo = 1
		} else {
			c.regs.lo = 0xFFFFFFFF
		}
	case n == math.MinInt32 && d == -1:
		c.regs.lo = uint32(n)
		c.regs.hi = 0
	default:
		c.regs.lo = uint32(n / d)
		c.regs.hi = uint32(n % d)
	}
}

func (c *Cpu) opDivu(o opcode) {
	n := c.regs.reg(o.rs())
	d := c.regs.reg(o.rt())
	if d == 0 {
		c.regs.lo = 0xFFFFFFFF
		c.regs.hi = n
		return
	}
	c.regs.lo = n / d
	c.regs.hi = n % d
}

// --- COP0 and COP2 (GTE) ---

func (c *Cpu) executeCop0(sched *schedule.Schedule, o opcode) {
	if bit.IsSet(25, uint32(o)) {
		if o.special() == 0x10 {
			c.cop0.exitException(sched)
		}
		return
	}
	switch o.copOp() {
	case 0x0: // MFC0
		val := c.cop0.readReg(uint32(o.rd()))
		c.regs.setPendingLoad(o.rt(), val)
	case 0x4: // MTC0
		reg := uint32(o.rd())
		c.cop0.writeReg(reg, c.regs.reg(o.rt()))
		if reg == cop0SR {
			sched.Trigger(schedule.IrqCheckEvent)
		}
	}
}

func (c *Cpu) executeCop2(o opcode) {
	if bit.IsSet(25, uint32(o)) {
		c.gte.runCommand(uint32(o))
		return
	}
	switch o.copOp() {
	case 0x0: // MFC2
		c.regs.setPendingLoad(o.rt(), c.gte.readData(uint32(o.rd())))
	case 0x2: // CFC2
		c.regs.setPendingLoad(o.rt(), c.gte.readCtrl(uint32(o.rd())))
	case 0x4: // MTC2
		c.gte.writeData(uint32(o.rd()), c.regs.reg(o.rt()))
	case 0x6: // CTC2
		c.gte.writeCtrl(uint32(o.rd()), c.regs.reg(o.rt()))
	}
}

func (c *Cpu) opLwc2(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	val, ok := c.loadWord(bus, sched, addr)
	if !ok {
		return
	}
	c.gte.writeData(uint32(o.rt()), val)
}

func (c *Cpu) opSwc2(bus Bus, sched *schedule.Schedule, o opcode) {
	addr := c.regs.reg(o.rs()) + o.signedImm()
	c.storeWord(bus, sched, addr, c.gte.readData(uint32(o.rt())))
}
