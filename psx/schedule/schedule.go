// Package schedule implements the single timeline the whole machine runs
// on: a monotonic cycle counter and a min-priority queue of future events
// keyed by absolute deadline. The CPU advances `now`; the bus drains
// whatever has become due and hands it to the owning device.
package schedule

import (
	"container/heap"

	"github.com/gopsx/core/psx/systime"
)

// EventKind identifies the kind of work a scheduled Event represents. The
// Arg field carries kind-specific payload (a DMA port, timer id, CDROM
// command id, or IRQ line number) so Event stays a single flat type instead
// of needing one struct per kind.
type EventKind uint8

const (
	// RunGpu advances the GPU's scan-out state machine.
	RunGpu EventKind = iota
	// GpuCmdDone signals that a queued GP0 command has finished executing.
	GpuCmdDone
	// RunCdRom advances the CDROM command/sector-reader state machine.
	RunCdRom
	// CdRomResponse delivers the Arg'th command's scheduled response.
	CdRomResponse
	// RunDmaChan continues (or starts) a DMA transfer on channel Arg.
	RunDmaChan
	// RunTimer recomputes timer Arg's counter and latched flags.
	RunTimer
	// TimerIrqEnable re-arms timer Arg's sticky master IRQ flag.
	TimerIrqEnable
	// IrqCheck re-evaluates the CPU-visible IRQ line. It is ordered like
	// any other event, by deadline and then insertion order, so it is not
	// necessarily the last event of a drain; the CPU samples the IRQ line
	// itself at the start of its next instruction, after the whole drain.
	IrqCheck
	// IrqTrigger raises IRQ line Arg.
	IrqTrigger
)

// Event is a unit of future work: do `Kind`, with `Arg` disambiguating which
// channel/timer/command/irq it concerns.
type Event struct {
	Kind EventKind
	Arg  uint32
}

// RunDmaChanEvent builds a RunDmaChan event for the given channel port.
func RunDmaChanEvent(port uint32) Event { return Event{Kind: RunDmaChan, Arg: port} }

// RunTimerEvent builds a RunTimer event for the given timer id.
func RunTimerEvent(id uint32) Event { return Event{Kind: RunTimer, Arg: id} }

// TimerIrqEnableEvent builds a TimerIrqEnable event for the given timer id.
func TimerIrqEnableEvent(id uint32) Event { return Event{Kind: TimerIrqEnable, Arg: id} }

// CdRomResponseEvent builds a CdRomResponse event for the given command id.
func CdRomResponseEvent(cmdID uint32) Event { return Event{Kind: CdRomResponse, Arg: cmdID} }

// IrqTriggerEvent builds an IrqTrigger event for the given IRQ line.
func IrqTriggerEvent(irq uint32) Event { return Event{Kind: IrqTrigger, Arg: irq} }

// IrqCheckEvent is the sentinel re-evaluation event.
var IrqCheckEvent = Event{Kind: IrqCheck}

type entry struct {
	deadline systime.Timestamp
	seq      uint64
	event    Event
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline.Before(h[j].deadline)
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Schedule is the machine's single timeline: a monotonic `now` plus a
// min-heap of pending events ordered by (deadline, insertion order).
type Schedule struct {
	now     systime.Timestamp
	pending entryHeap
	nextSeq uint64
}

// New creates a schedule starting at time zero with no pending events.
func New() *Schedule {
	s := &Schedule{}
	heap.Init(&s.pending)
	return s
}

// Tick advances `now` by n CPU cycles. `now` is monotonic non-decreasing.
func (s *Schedule) Tick(n uint64) {
	s.now = s.now.Add(systime.FromCPUCycles(n))
}

// SinceStartup returns the current point on the timeline.
func (s *Schedule) SinceStartup() systime.Timestamp {
	return s.now
}

// ScheduleAt queues ev to fire at the absolute timestamp ts. If an
// equivalent event is already pending, callers should Unschedule it first;
// ScheduleAt never merges or replaces entries on its own.
func (s *Schedule) ScheduleAt(ts systime.Timestamp, ev Event) {
	heap.Push(&s.pending, &entry{deadline: ts, seq: s.nextSeq, event: ev})
	s.nextSeq++
}

// ScheduleIn queues ev to fire `delta` cycles from now.
func (s *Schedule) ScheduleIn(delta systime.SysTime, ev Event) {
	s.ScheduleAt(s.now.Add(delta), ev)
}

// Trigger queues ev to fire immediately (at the current `now`).
func (s *Schedule) Trigger(ev Event) {
	s.ScheduleAt(s.now, ev)
}

// Reschedule removes any pending event matching pred and inserts ev at ts,
// the idiom for "move this logical event's deadline".
func (s *Schedule) Reschedule(pred func(Event) bool, ts systime.Timestamp, ev Event) {
	s.Unschedule(pred)
	s.ScheduleAt(ts, ev)
}

// Unschedule removes every pending event for which pred returns true. It is
// O(n) in the number of pending events; callers include video mode
// switches, DMA/timer reconfiguration, and every RunTimer firing.
func (s *Schedule) Unschedule(pred func(Event) bool) {
	kept := s.pending[:0]
	for _, e := range s.pending {
		if pred(e.event) {
			continue
		}
		kept = append(kept, e)
	}
	s.pending = kept
	heap.Init(&s.pending)
}

// NextReady pops and returns the earliest pending event if its deadline has
// arrived (deadline <= now). Events sharing a deadline are returned in the
// order they were scheduled (FIFO tie-break via the insertion sequence).
func (s *Schedule) NextReady() (Event, bool) {
	if len(s.pending) == 0 {
		return Event{}, false
	}
	top := s.pending[0]
	if top.deadline.After(s.now) {
		return Event{}, false
	}
	e := heap.Pop(&s.pending).(*entry)
	return e.event, true
}

// Pending reports the number of events currently queued. Exposed for tests
// and debug introspection only.
func (s *Schedule) Pending() int {
	return len(s.pending)
}
