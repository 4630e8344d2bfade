package cpu

// RegIdx is the index of one of the 32 general-purpose registers. A named
// type mostly for readability in disassembly and tests.
type RegIdx uint8

// ABI register names, used only for disassembly.
var registerNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

func (r RegIdx) String() string { return "$" + registerNames[r&31] }

// Conventional register indices referenced directly by the interpreter.
const (
	regZero RegIdx = 0
	regRA   RegIdx = 31
)

// pendingLoad is the (register, value) pair produced by a load instruction
// that has not yet become visible to regular register reads.
type pendingLoad struct {
	reg RegIdx
	val uint32
}

// registers is the MIPS R3000A register file plus the bookkeeping needed to
// reproduce its load-delay slot.
//
// Reads go through reg(), which consults "cur" — the register file as it
// stood at the end of the *previous* instruction. Writes go through
// setReg(), which lands in "out" only. At the end of every instruction
// cur is replaced by out, so an ALU write performed this instruction is not
// observable by this instruction's own reads but is observable by the
// next one. Loads are handled separately: they park their value in the
// pending-load slot, which commitLoad moves into out at the start of the
// following instruction, so the loaded value is first readable by the
// instruction after that — the load-delay slot.
type registers struct {
	cur [32]uint32
	out [32]uint32

	hi, lo uint32

	pc, nextPC uint32

	load pendingLoad
}

func (r *registers) reg(i RegIdx) uint32 { return r.cur[i&31] }

func (r *registers) setReg(i RegIdx, val uint32) {
	r.out[i&31] = val
	r.out[0] = 0
}

// commitLoad lands any pending load into out before the instruction that
// follows it executes, then clears the slot.
func (r *registers) commitLoad() {
	r.setReg(r.load.reg, r.load.val)
	r.load = pendingLoad{}
}

// sync copies out into cur at the end of an instruction, making this
// instruction's writes visible to the next one.
func (r *registers) sync() {
	r.cur = r.out
}

// setPendingLoad arms the load-delay slot for the next instruction. It does
// not touch cur or out directly.
func (r *registers) setPendingLoad(reg RegIdx, val uint32) {
	r.load = pendingLoad{reg: reg, val: val}
}

// outReg reads the in-flight register value for this instruction, i.e.
// after any load committed this step but before this instruction's own
// writes. LWL/LWR read through here so they combine with a load delivered
// on the immediately preceding instruction rather than the stale value
// reg() would return.
func (r *registers) outReg(i RegIdx) uint32 { return r.out[i&31] }
