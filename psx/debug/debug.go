// Package debug provides concrete cpu.Debugger implementations: a no-op
// stand-in and a breakpoint tracker that halts execution on a matching
// fetch address, watched store address, or raised IRQ line.
package debug

import "github.com/gopsx/core/psx/cpu"

// NoOp satisfies cpu.Debugger with empty hooks. Installing it has the same
// effect as leaving the Cpu's debugger unset (nil); it exists for callers
// that want a concrete, always-present value to swap in and out of rather
// than toggling a nil pointer.
type NoOp struct{}

func (NoOp) Instruction(c *cpu.Cpu, addr uint32, word uint32)     {}
func (NoOp) Load(c *cpu.Cpu, addr uint32, width int, val uint32)  {}
func (NoOp) Store(c *cpu.Cpu, addr uint32, width int, val uint32) {}
func (NoOp) Irq(c *cpu.Cpu, line uint32)                          {}
func (NoOp) ShouldBreak() bool                                    { return false }

// Breakpoints tracks instruction and store-watch breakpoints and reports
// ShouldBreak once any of them fires during the instruction just executed.
// It also keeps a running instruction count, which is cheap enough to
// always maintain and useful for both TUI and headless front ends.
type Breakpoints struct {
	instructions map[uint32]bool
	watches      map[uint32]bool
	breakOnIrq   bool

	Steps uint64

	hit     bool
	hitAddr uint32
	hitKind HitKind
}

// HitKind identifies what kind of breakpoint fired.
type HitKind int

const (
	HitNone HitKind = iota
	HitInstruction
	HitWatch
	HitIrq
)

// New returns a Breakpoints tracker with no breakpoints armed.
func New() *Breakpoints {
	return &Breakpoints{
		instructions: make(map[uint32]bool),
		watches:      make(map[uint32]bool),
	}
}

// BreakAt arms an instruction-fetch breakpoint at addr.
func (b *Breakpoints) BreakAt(addr uint32) { b.instructions[addr] = true }

// RemoveBreakAt disarms a previously armed instruction-fetch breakpoint.
func (b *Breakpoints) RemoveBreakAt(addr uint32) { delete(b.instructions, addr) }

// WatchAddr arms a breakpoint on any store that touches addr.
func (b *Breakpoints) WatchAddr(addr uint32) { b.watches[addr] = true }

// BreakOnIrq arms (or disarms) a break whenever any interrupt is taken.
func (b *Breakpoints) BreakOnIrq(enabled bool) { b.breakOnIrq = enabled }

// LastHit reports what fired the most recent break, if ShouldBreak
// returned true.
func (b *Breakpoints) LastHit() (addr uint32, kind HitKind) { return b.hitAddr, b.hitKind }

func (b *Breakpoints) Instruction(c *cpu.Cpu, addr uint32, word uint32) {
	b.Steps++
	if b.instructions[addr] {
		b.hit, b.hitAddr, b.hitKind = true, addr, HitInstruction
	}
}

func (b *Breakpoints) Load(c *cpu.Cpu, addr uint32, width int, val uint32) {}

func (b *Breakpoints) Store(c *cpu.Cpu, addr uint32, width int, val uint32) {
	for i := 0; i < width; i++ {
		if b.watches[addr+uint32(i)] {
			b.hit, b.hitAddr, b.hitKind = true, addr, HitWatch
			return
		}
	}
}

func (b *Breakpoints) Irq(c *cpu.Cpu, line uint32) {
	if b.breakOnIrq {
		b.hit, b.hitAddr, b.hitKind = true, line, HitIrq
	}
}

// ShouldBreak reports whether a breakpoint fired during the instruction
// just executed, clearing the latched hit so the next Step starts fresh.
func (b *Breakpoints) ShouldBreak() bool {
	hit := b.hit
	b.hit = false
	return hit
}
