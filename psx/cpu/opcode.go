package cpu

import (
	"fmt"

	"github.com/gopsx/core/psx/bit"
)

// opcode wraps a raw 32-bit instruction word with the field accessors
// every decode path needs: primary/secondary opcode, the three register
// fields, shift amount, and the two immediate encodings.
type opcode uint32

func (o opcode) op() uint32      { return bit.Range(uint32(o), 26, 31) }
func (o opcode) special() uint32 { return bit.Range(uint32(o), 0, 5) }
func (o opcode) copOp() uint32   { return uint32(o.rs()) }
func (o opcode) imm() uint32     { return bit.Range(uint32(o), 0, 15) }
func (o opcode) signedImm() uint32 {
	return bit.SignExtend16(bit.Range(uint32(o), 0, 15))
}
func (o opcode) target() uint32 { return bit.Range(uint32(o), 0, 25) }
func (o opcode) shamt() uint32  { return bit.Range(uint32(o), 6, 10) }

func (o opcode) rd() RegIdx { return RegIdx(bit.Range(uint32(o), 11, 15)) }
func (o opcode) rt() RegIdx { return RegIdx(bit.Range(uint32(o), 16, 20)) }
func (o opcode) rs() RegIdx { return RegIdx(bit.Range(uint32(o), 21, 25)) }

// bgez reports the sign test for a REGIMM (BCONDZ) branch: true tests >= 0,
// false tests < 0.
func (o opcode) bgez() bool { return bit.IsSet(16, uint32(o)) }

// linkOnBranch reports whether a REGIMM branch also writes $ra (the "AL"
// variants: BLTZAL/BGEZAL).
func (o opcode) linkOnBranch() bool { return bit.Range(uint32(o), 17, 20) == 0x8 }

// Disassemble renders a single instruction word in a plain MIPS assembly
// syntax, for debug logging and tracing.
func Disassemble(word uint32) string {
	o := opcode(word)
	switch o.op() {
	case 0x0:
		switch o.special() {
		case 0x0:
			return fmt.Sprintf("sll %s %s %d", o.rd(), o.rt(), o.shamt())
		case 0x2:
			return fmt.Sprintf("srl %s %s %d", o.rd(), o.rt(), o.shamt())
		case 0x3:
			return fmt.Sprintf("sra %s %s %d", o.rd(), o.rt(), o.shamt())
		case 0x4:
			return fmt.Sprintf("sllv %s %s %s", o.rd(), o.rt(), o.rs())
		case 0x6:
			return fmt.Sprintf("srlv %s %s %s", o.rd(), o.rt(), o.rs())
		case 0x7:
			return fmt.Sprintf("srav %s %s %s", o.rd(), o.rt(), o.rs())
		case 0x8:
			return fmt.Sprintf("jr %s", o.rs())
		case 0x9:
			return fmt.Sprintf("jalr %s %s", o.rd(), o.rs())
		case 0xc:
			return "syscall"
		case 0xd:
			return "break"
		case 0x10:
			return fmt.Sprintf("mfhi %s", o.rd())
		case 0x11:
			return fmt.Sprintf("mthi %s", o.rs())
		case 0x12:
			return fmt.Sprintf("mflo %s", o.rd())
		case 0x13:
			return fmt.Sprintf("mtlo %s", o.rs())
		case 0x18:
			return fmt.Sprintf("mult %s %s", o.rs(), o.rt())
		case 0x19:
			return fmt.Sprintf("multu %s %s", o.rs(), o.rt())
		case 0x1a:
			return fmt.Sprintf("div %s %s", o.rs(), o.rt())
		case 0x1b:
			return fmt.Sprintf("divu %s %s", o.rs(), o.rt())
		case 0x20:
			return fmt.Sprintf("add %s %s %s", o.rd(), o.rs(), o.rt())
		case 0x21:
			return fmt.Sprintf("addu %s %s %s", o.rd(), o.rs(), o.rt())
		case 0x22:
			return fmt.Sprintf("sub %s %s %s", o.rd(), o.rs(), o.rt())
		case 0x23:
			return fmt.Sprintf("subu %s %s %s", o.rd(), o.rs(), o.rt())
		case 0x24:
			return fmt.Sprintf("and %s %s %s", o.rd(), o.rs(), o.rt())
		case 0x25:
			return fmt.Sprintf("or %s %s %s", o.rd(), o.rs(), o.rt())
		case 0x26:
			return fmt.Sprintf("xor %s %s %s", o.rd(), o.rs(), o.rt())
		case 0x27:
			return fmt.Sprintf("nor %s %s %s", o.rd(), o.rs(), o.rt())
		case 0x2a:
			return fmt.Sprintf("slt %s %s %s", o.rd(), o.rs(), o.rt())
		case 0x2b:
			return fmt.Sprintf("sltu %s %s %s", o.rd(), o.rs(), o.rt())
		default:
			return "illegal"
		}
	case 0x1:
		name := map[[2]bool]string{
			{true, true}:   "bgezal",
			{true, false}:  "bltzal",
			{false, true}:  "bgez",
			{false, false}: "bltz",
		}[[2]bool{o.linkOnBranch(), o.bgez()}]
		return fmt.Sprintf("%s %s %d", name, o.rs(), int32(o.signedImm()))
	case 0x2:
		return fmt.Sprintf("j %08x", o.target())
	case 0x3:
		return fmt.Sprintf("jal %08x", o.target())
	case 0x4:
		return fmt.Sprintf("beq %s %s %d", o.rs(), o.rt(), int32(o.signedImm()))
	case 0x5:
		return fmt.Sprintf("bne %s %s %d", o.rs(), o.rt(), int32(o.signedImm()))
	case 0x6:
		return fmt.Sprintf("blez %s %d", o.rs(), int32(o.signedImm()))
	case 0x7:
		return fmt.Sprintf("bgtz %s %d", o.rs(), int32(o.signedImm()))
	case 0x8:
		return fmt.Sprintf("addi %s %s %d", o.rt(), o.rs(), int32(o.signedImm()))
	case 0x9:
		return fmt.Sprintf("addiu %s %s %d", o.rt(), o.rs(), int32(o.signedImm()))
	case 0xa:
		return fmt.Sprintf("slti %s %s %d", o.rt(), o.rs(), int32(o.signedImm()))
	case 0xb:
		return fmt.Sprintf("sltiu %s %s %d", o.rt(), o.rs(), int32(o.signedImm()))
	case 0xc:
		return fmt.Sprintf("andi %s %s %#x", o.rt(), o.rs(), o.imm())
	case 0xd:
		return fmt.Sprintf("ori %s %s %#x", o.rt(), o.rs(), o.imm())
	case 0xe:
		return fmt.Sprintf("xori %s %s %#x", o.rt(), o.rs(), o.imm())
	case 0xf:
		return fmt.Sprintf("lui %s %#x", o.rt(), o.imm())
	case 0x10:
		return disassembleCop0(o)
	case 0x12:
		return fmt.Sprintf("cop2 %#x", o.copOp())
	case 0x20:
		return fmt.Sprintf("lb %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x21:
		return fmt.Sprintf("lh %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x22:
		return fmt.Sprintf("lwl %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x23:
		return fmt.Sprintf("lw %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x24:
		return fmt.Sprintf("lbu %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x25:
		return fmt.Sprintf("lhu %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x26:
		return fmt.Sprintf("lwr %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x28:
		return fmt.Sprintf("sb %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x29:
		return fmt.Sprintf("sh %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x2a:
		return fmt.Sprintf("swl %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x2b:
		return fmt.Sprintf("sw %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x2e:
		return fmt.Sprintf("swr %s %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x32:
		return fmt.Sprintf("lwc2 %d %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	case 0x3a:
		return fmt.Sprintf("swc2 %d %d(%s)", o.rt(), int32(o.signedImm()), o.rs())
	default:
		return "illegal"
	}
}

func disassembleCop0(o opcode) string {
	switch o.copOp() {
	case 0x0:
		return fmt.Sprintf("mfc0 %s %d", o.rt(), o.rd())
	case 0x4:
		return fmt.Sprintf("mtc0 %s %d", o.rt(), o.rd())
	case 0x10:
		return "rfe"
	default:
		return fmt.Sprintf("cop0 %#x", o.copOp())
	}
}
