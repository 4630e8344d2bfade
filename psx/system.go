// Package psx wires the CPU, bus, and every peripheral device into a
// single runnable machine, and loads the BIOS image (and, optionally, a
// PS-X EXE side-loaded over it) that machine boots from.
package psx

import (
	"context"
	"log/slog"
	"time"

	"github.com/gopsx/core/psx/bus"
	"github.com/gopsx/core/psx/cdrom"
	"github.com/gopsx/core/psx/cpu"
	"github.com/gopsx/core/psx/disc"
	"github.com/gopsx/core/psx/exe"
	"github.com/gopsx/core/psx/gpu"
	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/ioport"
	"github.com/gopsx/core/psx/memory"
	"github.com/gopsx/core/psx/schedule"
	"github.com/gopsx/core/psx/systime"
	"github.com/gopsx/core/psx/timer"
)

// StopReason reports why a run loop returned.
type StopReason int

const (
	// StopTime means the requested cycle budget was exhausted.
	StopTime StopReason = iota
	// StopBreak means a Debugger's ShouldBreak fired.
	StopBreak
	// StopContext means the caller's context was cancelled.
	StopContext
)

func (r StopReason) String() string {
	switch r {
	case StopTime:
		return "time"
	case StopBreak:
		return "break"
	case StopContext:
		return "context"
	default:
		return "unknown"
	}
}

// System is the complete machine: a CPU fetching through a Bus that owns
// every peripheral, the shared Schedule, and the shared interrupt
// controller. Constructing one requires only a BIOS image; a disc is an
// optional argument to New, and a frame sink can be wired in afterward.
type System struct {
	cpu   *cpu.Cpu
	bus   *bus.Bus
	sched *schedule.Schedule
}

// New builds a System from an exact-size BIOS image. provider may be nil to
// run without a mounted disc.
func New(biosImage []byte, provider disc.SectorProvider, log *slog.Logger) (*System, error) {
	bios, err := memory.NewBios(biosImage)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	sched := schedule.New()
	b := bus.New(bios, provider, sched, log)
	c := cpu.New(log)

	// Arm the GPU's scanline event so its state machine advances without
	// anything else having to kick it off; the CDROM is driven by commands.
	sched.Trigger(schedule.Event{Kind: schedule.RunGpu})

	return &System{cpu: c, bus: b, sched: sched}, nil
}

// LoadExe side-loads a PS-X EXE image, bypassing the BIOS boot path: its
// text segment is copied into RAM, its bss zero-filled, and the CPU is
// redirected to its entry point with gp/sp seeded from the header.
func (s *System) LoadExe(image []byte) error {
	return exe.Load(image, s.bus.Ram(), s.cpu)
}

// SetFrameSink installs the collaborator that receives a completed frame's
// VRAM contents on every VBlank.
func (s *System) SetFrameSink(sink disc.FrameSink) { s.bus.SetFrameSink(sink) }

// SetDebugger installs a cpu.Debugger whose hooks fire around every
// executed instruction. Pass nil to run without one.
func (s *System) SetDebugger(dbg cpu.Debugger) { s.cpu.SetDebugger(dbg) }

func (s *System) Gpu() *gpu.Gpu          { return s.bus.Gpu() }
func (s *System) CdRom() *cdrom.CdRom    { return s.bus.CdRom() }
func (s *System) Timers() *timer.Timers  { return s.bus.Timers() }
func (s *System) IoPort() *ioport.Port   { return s.bus.IoPort() }
func (s *System) IrqState() *irq.State   { return s.bus.IrqState() }
func (s *System) Schedule() *schedule.Schedule { return s.sched }

// step executes one instruction and drains every event it or prior
// instructions made due, the single suspension point the whole machine
// ever has (ordering guarantee (a) in the scheduler's contract).
func (s *System) step() {
	s.cpu.Step(s.bus, s.sched)
	s.bus.Drain()
}

// Run executes instructions until budget of wall-clock time has elapsed
// (converted to a cycle budget at the CPU's native clock) or ctx is
// cancelled, whichever comes first.
func (s *System) Run(ctx context.Context, budget time.Duration) StopReason {
	deadline := s.sched.SinceStartup().Add(systime.FromDuration(budget))
	const pollInterval = 4096

	for i := 0; ; i++ {
		if i%pollInterval == 0 {
			select {
			case <-ctx.Done():
				return StopContext
			default:
			}
		}
		if s.sched.SinceStartup().After(deadline) {
			return StopTime
		}
		s.step()
	}
}

// RunDebug runs under a Debugger until it requests a break or budget of
// wall-clock time elapses.
func (s *System) RunDebug(dbg cpu.Debugger, budget time.Duration) StopReason {
	s.SetDebugger(dbg)
	defer s.SetDebugger(nil)

	deadline := s.sched.SinceStartup().Add(systime.FromDuration(budget))
	for {
		if s.sched.SinceStartup().After(deadline) {
			return StopTime
		}
		s.step()
		if dbg.ShouldBreak() {
			return StopBreak
		}
	}
}

// StepDebug runs exactly steps instructions (or fewer, if dbg requests an
// early break) under the given Debugger.
func (s *System) StepDebug(steps int, dbg cpu.Debugger) StopReason {
	s.SetDebugger(dbg)
	defer s.SetDebugger(nil)

	for i := 0; i < steps; i++ {
		s.step()
		if dbg.ShouldBreak() {
			return StopBreak
		}
	}
	return StopTime
}
