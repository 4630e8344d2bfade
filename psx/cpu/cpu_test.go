package cpu

import (
	"testing"

	"github.com/gopsx/core/psx/bit"
	"github.com/gopsx/core/psx/schedule"
)

// fakeBus is a flat, always-mapped memory used only to exercise the CPU in
// isolation from the real region-decoded bus.
type fakeBus struct {
	mem       [0x10000]byte
	irqActive bool
}

func (b *fakeBus) LoadByte(addr uint32) (uint8, bool) { return b.mem[addr&0xFFFF], true }

func (b *fakeBus) LoadHalfWord(addr uint32) (uint16, bool) {
	a := addr & 0xFFFF
	return uint16(b.mem[a]) | uint16(b.mem[a+1])<<8, true
}

func (b *fakeBus) LoadWord(addr uint32) (uint32, bool) {
	a := addr & 0xFFFF
	return uint32(b.mem[a]) | uint32(b.mem[a+1])<<8 | uint32(b.mem[a+2])<<16 | uint32(b.mem[a+3])<<24, true
}

func (b *fakeBus) StoreByte(addr uint32, val uint8) bool {
	b.mem[addr&0xFFFF] = val
	return true
}

func (b *fakeBus) StoreHalfWord(addr uint32, val uint16) bool {
	a := addr & 0xFFFF
	b.mem[a] = byte(val)
	b.mem[a+1] = byte(val >> 8)
	return true
}

func (b *fakeBus) StoreWord(addr uint32, val uint32) bool {
	a := addr & 0xFFFF
	b.mem[a] = byte(val)
	b.mem[a+1] = byte(val >> 8)
	b.mem[a+2] = byte(val >> 16)
	b.mem[a+3] = byte(val >> 24)
	return true
}

func (b *fakeBus) IrqActive() bool { return b.irqActive }

func encodeI(op, rs, rt, imm uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | (imm & 0xFFFF)
}

func encodeR(rs, rt, rd, shamt, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

func encodeJ(op, target uint32) uint32 {
	return op<<26 | (target & 0x3FFFFFF)
}

const (
	tZero = 0
	tT0   = 8
	tT1   = 9
	tRA   = 31
)

// TestRegisterZeroStaysZero covers invariant 1.
func TestRegisterZeroStaysZero(t *testing.T) {
	c := New(nil)
	c.SetReg(tZero, 0xFFFFFFFF)
	if c.Reg(tZero) != 0 {
		t.Errorf("$zero = %#x; want 0", c.Reg(tZero))
	}
}

// TestUnalignedFetchRaisesBusInstructionError covers invariant 2.
func TestUnalignedFetchRaisesBusInstructionError(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	c.SetPC(1)
	c.Step(bus, sched)

	excCode := bit.Range(c.COP0Reg(cop0Cause), 2, 6)
	if excCode != uint32(ExcBusInstructionError) {
		t.Errorf("ExcCode = %d; want %d", excCode, ExcBusInstructionError)
	}
	if c.PC() != 0x80000080 {
		t.Errorf("PC = %#x; want exception vector", c.PC())
	}
}

// TestLoadDelaySlot covers invariant 6 / scenario 2: a load's value is not
// visible to the instruction immediately following it, only the one after.
func TestLoadDelaySlot(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	bus.StoreWord(0x100, 0xDEADBEEF)
	lw := encodeI(0x23, tZero, tT0, 0x100)   // lw $t0, 0x100($zero)
	addu := encodeR(tT0, tZero, tT1, 0, 0x21) // addu $t1, $t0, $zero
	nop := uint32(0)
	bus.StoreWord(0, lw)
	bus.StoreWord(4, addu)
	bus.StoreWord(8, nop)

	c.SetPC(0)
	c.SetReg(tT0, 0xCAFEBABE)

	c.Step(bus, sched) // lw
	c.Step(bus, sched) // addu: should observe the pre-load value of $t0

	if got := c.Reg(tT1); got != 0xCAFEBABE {
		t.Errorf("$t1 = %#x; want old $t0 = 0xCAFEBABE", got)
	}

	c.Step(bus, sched) // nop: load has now committed
	if got := c.Reg(tT0); got != 0xDEADBEEF {
		t.Errorf("$t0 = %#x; want 0xDEADBEEF", got)
	}
}

// TestCacheIsolatedStoreSuppressed covers invariant 3 / scenario 3.
func TestCacheIsolatedStoreSuppressed(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	bus.StoreWord(0x200, 0xAAAAAAAA)
	c.cop0.writeReg(cop0SR, bit.Set(16, 0))

	c.storeWord(bus, sched, 0x200, 0x12345678)

	got, _ := bus.LoadWord(0x200)
	if got != 0xAAAAAAAA {
		t.Errorf("isolated store wrote through: got %#x", got)
	}

	c.cop0.writeReg(cop0SR, 0)
	got, _ = bus.LoadWord(0x200)
	if got != 0xAAAAAAAA {
		t.Errorf("load after clearing isolation = %#x; want unchanged 0xAAAAAAAA", got)
	}
}

// TestInterruptEntersExceptionZero covers invariant 5.
func TestInterruptEntersExceptionZero(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{irqActive: true}
	sched := schedule.New()

	c.cop0.writeReg(cop0SR, 1|(1<<10)) // IE=1, IM bit for IP2 set
	c.SetPC(0)
	bus.StoreWord(0, 0) // nop

	c.Step(bus, sched)

	excCode := bit.Range(c.COP0Reg(cop0Cause), 2, 6)
	if excCode != uint32(ExcInterrupt) {
		t.Errorf("ExcCode = %d; want Interrupt(%d)", excCode, ExcInterrupt)
	}
}

// TestInterruptRequiresEnableAndMask covers the negative half of invariant 5.
func TestInterruptRequiresEnableAndMask(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{irqActive: true}
	sched := schedule.New()

	c.cop0.writeReg(cop0SR, 0) // IE=0
	c.SetPC(0)
	bus.StoreWord(0, 0)

	c.Step(bus, sched)

	if c.PC() == 0x80000080 {
		t.Error("interrupt entered despite IE=0")
	}
}

func TestBranchDelaySlotAlwaysExecutesNextInstruction(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	// j 0x40 ; addiu $t0,$zero,7 (delay slot, must execute) ; ...
	j := encodeJ(0x2, 0x40/4)
	addiu := encodeI(0x9, tZero, tT0, 7)
	bus.StoreWord(0, j)
	bus.StoreWord(4, addiu)

	c.SetPC(0)
	c.Step(bus, sched) // j
	if c.PC() != 4 {
		t.Fatalf("PC after jump instruction = %#x; want delay slot at 4", c.PC())
	}
	c.Step(bus, sched) // delay slot executes
	if got := c.Reg(tT0); got != 7 {
		t.Errorf("$t0 = %d; want 7 (delay slot should execute)", got)
	}
	if c.PC() != 0x40 {
		t.Errorf("PC = %#x; want jump target 0x40", c.PC())
	}
}

func TestRegimmAlwaysLinksRegardlessOfBranchTaken(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	// bgezal $zero, 0 ($zero >= 0 is always taken, but verify link happens anyway)
	bgezal := encodeI(0x1, tZero, 0x11, 0)
	bus.StoreWord(0, bgezal)

	c.SetPC(0)
	c.Step(bus, sched)
	if got := c.Reg(tRA); got != 8 {
		t.Errorf("$ra = %#x; want link value 8", got)
	}
}

func TestRegimmAlNotTakenStillLinks(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	c.SetReg(tT0, 5) // positive: bltz is not taken
	bltzal := encodeI(0x1, tT0, 0x10, 100)
	bus.StoreWord(0, bltzal)

	c.SetPC(0)
	c.Step(bus, sched)

	if got := c.Reg(tRA); got != 8 {
		t.Errorf("$ra = %#x; want link value 8 even though branch not taken", got)
	}
	if c.PC() != 4 {
		t.Errorf("PC = %#x; want sequential 4, branch should not have been taken", c.PC())
	}
}

func TestAddOverflowTraps(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	c.SetReg(tT0, 0x7FFFFFFF)
	c.SetReg(tT1, 1)
	add := encodeR(tT0, tT1, 10, 0, 0x20) // add $t2, $t0, $t1
	bus.StoreWord(0, add)

	c.SetPC(0)
	c.Step(bus, sched)

	excCode := bit.Range(c.COP0Reg(cop0Cause), 2, 6)
	if excCode != uint32(ExcArithmeticOverflow) {
		t.Errorf("ExcCode = %d; want ArithmeticOverflow", excCode)
	}
}

func TestAdduWrapsWithoutTrap(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	c.SetReg(tT0, 0xFFFFFFFF)
	c.SetReg(tT1, 1)
	addu := encodeR(tT0, tT1, 10, 0, 0x21)
	bus.StoreWord(0, addu)

	c.SetPC(0)
	c.Step(bus, sched)

	if got := c.Reg(10); got != 0 {
		t.Errorf("addu wraparound = %#x; want 0", got)
	}
}

func TestDivByZero(t *testing.T) {
	c := New(nil)
	o := opcode(encodeR(tT0, tT1, 0, 0, 0x1a))
	c.SetReg(tT0, 10)
	c.SetReg(tT1, 0)
	c.regs.sync()
	c.opDiv(o)
	if c.regs.lo != 0xFFFFFFFF || c.regs.hi != 10 {
		t.Errorf("div by zero (positive) = lo=%#x hi=%#x; want lo=0xffffffff hi=10", c.regs.lo, c.regs.hi)
	}
}

func TestDivMinIntByNegOne(t *testing.T) {
	c := New(nil)
	o := opcode(encodeR(tT0, tT1, 0, 0, 0x1a))
	c.SetReg(tT0, 0x80000000)
	c.SetReg(tT1, 0xFFFFFFFF)
	c.regs.sync()
	c.opDiv(o)
	if c.regs.lo != 0x80000000 || c.regs.hi != 0 {
		t.Errorf("div MIN_INT/-1 = lo=%#x hi=%#x; want lo=0x80000000 hi=0", c.regs.lo, c.regs.hi)
	}
}

func TestDivuByZero(t *testing.T) {
	c := New(nil)
	o := opcode(encodeR(tT0, tT1, 0, 0, 0x1b))
	c.SetReg(tT0, 42)
	c.SetReg(tT1, 0)
	c.regs.sync()
	c.opDivu(o)
	if c.regs.lo != 0xFFFFFFFF || c.regs.hi != 42 {
		t.Errorf("divu by zero = lo=%#x hi=%#x; want lo=0xffffffff hi=42", c.regs.lo, c.regs.hi)
	}
}

func TestLwlAtByteThreeLoadsWholeWord(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	bus.StoreWord(0x100, 0x11223344)
	c.SetReg(tT0, 0xAAAAAAAA)

	// lwl $t0, 0x103($zero): addr&3==3, takes the whole aligned word.
	lwl := encodeI(0x22, tZero, tT0, 0x103)
	bus.StoreWord(0, lwl)
	bus.StoreWord(4, 0) // nop to let the load commit

	c.SetPC(0)
	c.Step(bus, sched)
	c.Step(bus, sched)

	if got := c.Reg(tT0); got != 0x11223344 {
		t.Errorf("lwl result = %#x; want 0x11223344", got)
	}
}

func TestSyscallEntersException(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	syscall := encodeR(0, 0, 0, 0, 0x0c)
	bus.StoreWord(0, syscall)

	c.SetPC(0)
	c.Step(bus, sched)

	excCode := bit.Range(c.COP0Reg(cop0Cause), 2, 6)
	if excCode != uint32(ExcSyscall) {
		t.Errorf("ExcCode = %d; want Syscall", excCode)
	}
	if c.PC() != 0x80000080 {
		t.Errorf("PC = %#x; want exception vector", c.PC())
	}
}

func TestMtc0ToSRTriggersIrqCheck(t *testing.T) {
	c := New(nil)
	bus := &fakeBus{}
	sched := schedule.New()

	c.SetReg(tT0, 1)
	mtc0 := encodeR(0x4, tT0, cop0SR, 0, 0) | (0x10 << 26) // cop0 mtc0 $t0, SR
	bus.StoreWord(0, mtc0)

	c.SetPC(0)
	c.Step(bus, sched)

	if c.COP0Reg(cop0SR) != 1 {
		t.Errorf("SR = %#x; want 1", c.COP0Reg(cop0SR))
	}
	if sched.Pending() == 0 {
		t.Error("expected an IrqCheck event to have been scheduled")
	}
}

func TestRfeRestoresInterruptStack(t *testing.T) {
	c := New(nil)
	sched := schedule.New()

	c.cop0.writeReg(cop0SR, 0x07) // non-symmetric 3-level stack so the shift is observable
	before := c.COP0Reg(cop0SR)

	c.cop0.exitException(sched)

	after := c.COP0Reg(cop0SR)
	if after == before {
		t.Error("rfe should have shifted the interrupt/mode stack")
	}
}
