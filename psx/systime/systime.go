// Package systime implements the fixed-point cycle counter shared by the
// CPU, bus, and scheduler: SysTime is a duration in CPU cycles with 16
// fractional bits, and Timestamp is an absolute point on that timeline
// since system startup.
package systime

import "time"

const fracBits = 16

const (
	cpuHz  = 33_868_800.0
	palHz  = 53_203_425.0
	ntscHz = 53_693_181.818
)

var scalingFactor = float64(int64(1) << fracBits)

var (
	palCyclesPerCPUCycle  = uint64((palHz / cpuHz) * scalingFactor)
	ntscCyclesPerCPUCycle = uint64((ntscHz / cpuHz) * scalingFactor)
	cpuCyclesPerPALCycle  = uint64((cpuHz * scalingFactor) / palHz)
	cpuCyclesPerNTSCCycle = uint64((cpuHz * scalingFactor) / ntscHz)
	nanosPerCPUCycle      = uint64((1e9 * scalingFactor) / cpuHz)
	cpuCyclesPerNano      = uint64((cpuHz * scalingFactor) / 1e9)
)

// SysTime is a duration measured in CPU cycles, with 16 fractional bits of
// sub-cycle precision so that GPU-cycle and wall-clock conversions don't
// accumulate rounding error.
type SysTime uint64

// Zero is a duration of no time at all.
const Zero SysTime = 0

// Forever is a duration that will never elapse.
const Forever SysTime = ^SysTime(0)

// FromCPUCycles builds a SysTime from a whole number of CPU cycles.
func FromCPUCycles(cycles uint64) SysTime {
	return SysTime(cycles << fracBits)
}

// FromGpuPalCycles builds a SysTime from a number of GPU dot cycles running
// in PAL mode (53.203425 MHz).
func FromGpuPalCycles(cycles uint64) SysTime {
	return SysTime(cycles * cpuCyclesPerPALCycle)
}

// FromGpuNtscCycles builds a SysTime from a number of GPU dot cycles running
// in NTSC mode (53.693182 MHz).
func FromGpuNtscCycles(cycles uint64) SysTime {
	return SysTime(cycles * cpuCyclesPerNTSCCycle)
}

// FromDuration builds a SysTime from a wall-clock Duration, assuming the
// system runs at native CPU speed (33.8688 MHz).
func FromDuration(d time.Duration) SysTime {
	return SysTime(uint64(d.Nanoseconds()) * cpuCyclesPerNano)
}

// AsCPUCycles truncates to a whole number of CPU cycles.
func (t SysTime) AsCPUCycles() uint64 {
	return uint64(t) >> fracBits
}

// AsGpuPalCycles converts to a whole number of PAL GPU dot cycles.
func (t SysTime) AsGpuPalCycles() uint64 {
	return (uint64(t) * palCyclesPerCPUCycle) >> (2 * fracBits)
}

// AsGpuNtscCycles converts to a whole number of NTSC GPU dot cycles.
func (t SysTime) AsGpuNtscCycles() uint64 {
	return (uint64(t) * ntscCyclesPerCPUCycle) >> (2 * fracBits)
}

// AsDuration converts to a wall-clock Duration at native CPU speed.
func (t SysTime) AsDuration() time.Duration {
	nanos := (uint64(t) * nanosPerCPUCycle) >> (2 * fracBits)
	return time.Duration(nanos)
}

// Add returns t + other.
func (t SysTime) Add(other SysTime) SysTime {
	return t + other
}

// Sub returns t - other. Callers must ensure t >= other; use SaturatingSub
// when that isn't guaranteed.
func (t SysTime) Sub(other SysTime) SysTime {
	return t - other
}

// SaturatingSub returns t - other, or Zero if that would underflow.
func (t SysTime) SaturatingSub(other SysTime) SysTime {
	if other > t {
		return Zero
	}
	return t - other
}

// Mul returns t scaled by a whole-number factor.
func (t SysTime) Mul(factor uint64) SysTime {
	return SysTime(uint64(t) * factor)
}

// Timestamp is an absolute point on the system's cycle timeline, measured
// from startup.
type Timestamp SysTime

// Startup is the timestamp at system construction.
const Startup Timestamp = Timestamp(Zero)

// Never is a timestamp that will never be reached; used as a sentinel
// deadline for events that are not currently scheduled.
const Never Timestamp = Timestamp(Forever)

// New builds a Timestamp that is `elapsed` since startup.
func New(elapsed SysTime) Timestamp {
	return Timestamp(elapsed)
}

// Add advances a timestamp by a SysTime duration.
func (ts Timestamp) Add(d SysTime) Timestamp {
	return Timestamp(SysTime(ts) + d)
}

// SinceStartup returns the elapsed SysTime since startup.
func (ts Timestamp) SinceStartup() SysTime {
	return SysTime(ts)
}

// TimeSince returns the duration between earlier and ts. Panics if ts is
// before earlier, since a negative time-since makes no sense on this
// monotonic timeline.
func (ts Timestamp) TimeSince(earlier Timestamp) SysTime {
	if ts < earlier {
		panic("systime: timestamp earlier than reference point")
	}
	return SysTime(ts - earlier)
}

// Before reports whether ts happens before other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts < other
}

// After reports whether ts happens after other.
func (ts Timestamp) After(other Timestamp) bool {
	return ts > other
}
