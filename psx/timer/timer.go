// Package timer implements the three hardware timers: 16-bit counters with
// configurable clock sources, target/overflow latching, and a sticky
// "negated" master IRQ line, all driven by RunTimer scheduler events.
package timer

import (
	"github.com/gopsx/core/psx/bit"
	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/schedule"
	"github.com/gopsx/core/psx/systime"
)

// ID names one of the three timers.
type ID uint32

const (
	Tmr0 ID = iota
	Tmr1
	Tmr2
)

var timerIrq = [3]irq.Irq{irq.Tmr0, irq.Tmr1, irq.Tmr2}

// BusBegin and BusEnd bound the timer registers: 3 timers x 16 bytes.
const (
	BusBegin uint32 = 0x1f801100
	BusEnd   uint32 = BusBegin + 48 - 1
)

// SyncMode is the two-bit sync-mode field, meaning depends on the timer id
// and whether sync is enabled (mode bit 0).
type SyncMode uint32

// ClockSource is the two-bit clock-source selector (mode bits 8..9).
type ClockSource uint32

// Mode is the 16-bit counter mode register (one per timer).
type Mode uint32

func (m Mode) SyncEnabled() bool   { return bit.IsSet(0, uint32(m)) }
func (m Mode) SyncMode() SyncMode  { return SyncMode(bit.Range(uint32(m), 1, 2)) }
func (m Mode) ResetOnTarget() bool { return bit.IsSet(3, uint32(m)) }
func (m Mode) IrqOnTarget() bool   { return bit.IsSet(4, uint32(m)) }
func (m Mode) IrqOnOverflow() bool { return bit.IsSet(5, uint32(m)) }
func (m Mode) IrqRepeat() bool     { return bit.IsSet(6, uint32(m)) }
func (m Mode) IrqToggleMode() bool { return bit.IsSet(7, uint32(m)) }
func (m Mode) ClockSource() ClockSource {
	return ClockSource(bit.Range(uint32(m), 8, 9))
}
func (m Mode) MasterIrqFlag() bool   { return bit.IsSet(10, uint32(m)) }
func (m Mode) TargetReached() bool   { return bit.IsSet(11, uint32(m)) }
func (m Mode) OverflowReached() bool { return bit.IsSet(12, uint32(m)) }

func (m Mode) setBit(i uint, v bool) Mode { return Mode(bit.SetTo(i, uint32(m), v)) }

// Timer is a single counter/target/mode register triple.
type Timer struct {
	Counter uint16
	Target  uint16
	Mode    Mode

	id ID
}

// Timers owns all three hardware timers.
type Timers struct {
	timers [3]Timer
}

// New returns the three timers in their power-on state: mode bit 10 (the
// negated master IRQ line) set, counters and targets zero.
func New() *Timers {
	t := &Timers{}
	for i := range t.timers {
		t.timers[i].id = ID(i)
		t.timers[i].Mode = Mode(0).setBit(10, true)
	}
	return t
}

// Timer returns a pointer to the given timer's state, for debug/test
// introspection.
func (t *Timers) Timer(id ID) *Timer { return &t.timers[id] }

// Load reads a timer register: offset 0 = counter, 4 = mode, 8 = target,
// within each timer's 16-byte window.
func (t *Timers) Load(offset uint32) uint16 {
	id := ID((offset & 0x30) >> 4)
	reg := offset & 0xC
	tm := &t.timers[id]
	switch reg {
	case 0:
		return tm.Counter
	case 4:
		mode := tm.Mode
		// Reading MODE clears the latched target/overflow flags.
		tm.Mode = mode.setBit(11, false).setBit(12, false)
		return uint16(mode)
	case 8:
		return tm.Target
	}
	return 0
}

// Store writes a timer register. Writing MODE resets the counter to 0 and
// re-arms the negated master IRQ line, matching real hardware.
func (t *Timers) Store(sched *schedule.Schedule, offset uint32, val uint16) {
	id := ID((offset & 0x30) >> 4)
	reg := offset & 0xC
	tm := &t.timers[id]
	switch reg {
	case 0:
		tm.Counter = val
	case 4:
		tm.Mode = Mode(val & 0x3FF).setBit(10, true)
		tm.Counter = 0
	case 8:
		tm.Target = val
	}
	t.rescheduleRun(sched, id)
}

func clockDivider(id ID, src ClockSource) int {
	switch id {
	case Tmr2:
		if src == 2 || src == 3 {
			return 8
		}
		return 1
	default:
		return 1
	}
}

// usesGpuSource reports whether the timer's currently-selected clock
// source ticks from the GPU dot clock or hblank rather than the system
// clock.
func usesGpuSource(id ID, src ClockSource) bool {
	switch id {
	case Tmr0:
		return src == 1 || src == 3
	case Tmr1:
		return src == 1 || src == 3
	default:
		return false
	}
}

// rescheduleRun cancels this timer's pending RunTimer event and arms a
// fresh one at its fixed per-tick cadence (one system-clock cycle times the
// divider), the same single-step-per-event style as the GPU's
// rescheduleRun/cyclesPerScanline: HandleRunTimer advances the counter by
// exactly one tick per firing, so the next event must be one tick away, not
// the full remaining distance to the target/overflow edge. GPU-sourced
// (dot-clock/hblank) timers get no RunTimer event; they advance only
// through Tick, which no device calls, so their counters do not count.
func (t *Timers) rescheduleRun(sched *schedule.Schedule, id ID) {
	sched.Unschedule(func(ev schedule.Event) bool {
		return ev.Kind == schedule.RunTimer && ev.Arg == uint32(id)
	})

	tm := &t.timers[id]
	src := tm.Mode.ClockSource()
	if usesGpuSource(id, src) {
		return
	}
	divider := clockDivider(id, src)

	sched.ScheduleIn(systime.FromCPUCycles(uint64(divider)), schedule.RunTimerEvent(uint32(id)))
}

// Tick advances a GPU-dot-clock or hblank sourced timer by n source ticks,
// outside the scheduler. No device in this module calls it.
func (t *Timers) Tick(sched *schedule.Schedule, irqState *irq.State, id ID, n uint16) {
	tm := &t.timers[id]
	for i := uint16(0); i < n; i++ {
		t.advance(sched, irqState, tm)
	}
}

// HandleRunTimer recomputes a system-clock-sourced timer's counter at its
// scheduled edge and reschedules the next one.
func (t *Timers) HandleRunTimer(sched *schedule.Schedule, irqState *irq.State, id ID) {
	tm := &t.timers[id]
	t.advance(sched, irqState, tm)
	t.rescheduleRun(sched, id)
}

func (t *Timers) advance(sched *schedule.Schedule, irqState *irq.State, tm *Timer) {
	tm.Counter++

	atTarget := tm.Target != 0 && tm.Counter == tm.Target
	if atTarget {
		tm.Mode = tm.Mode.setBit(11, true)
		if tm.Mode.ResetOnTarget() {
			tm.Counter = 0
		}
	}

	overflowed := tm.Counter == 0 && !atTarget
	if overflowed {
		tm.Mode = tm.Mode.setBit(12, true)
	}

	shouldIrq := (atTarget && tm.Mode.IrqOnTarget()) ||
		(overflowed && tm.Mode.IrqOnOverflow())

	if shouldIrq {
		t.raiseTimerIrq(sched, irqState, tm)
	}
}

// raiseTimerIrq toggles the sticky, negated master IRQ bit and triggers the
// hardware interrupt line, honoring the repeat/toggle-mode semantics.
func (t *Timers) raiseTimerIrq(sched *schedule.Schedule, irqState *irq.State, tm *Timer) {
	if tm.Mode.IrqToggleMode() {
		tm.Mode = tm.Mode.setBit(10, !tm.Mode.MasterIrqFlag())
	} else {
		tm.Mode = tm.Mode.setBit(10, false)
	}

	if !tm.Mode.MasterIrqFlag() {
		irqState.Trigger(timerIrq[tm.id])
		sched.Trigger(schedule.IrqCheckEvent)
	}

	if !tm.Mode.IrqRepeat() {
		return
	}

	if !tm.Mode.IrqToggleMode() {
		sched.ScheduleIn(systime.FromCPUCycles(1), schedule.TimerIrqEnableEvent(uint32(tm.id)))
	}
}

// HandleTimerIrqEnable re-arms a repeating pulse-mode (repeat set, toggle
// clear) timer's negated master IRQ line one cycle after it fired, so the
// next target/overflow edge can fire again.
func (t *Timers) HandleTimerIrqEnable(id ID) {
	tm := &t.timers[id]
	tm.Mode = tm.Mode.setBit(10, true)
}
