// Package cdrom implements the CD-ROM controller: its index-multiplexed
// register window, command/response/data FIFOs, and the asynchronous
// command and sector-reader state machines driven by the scheduler.
package cdrom

import (
	"log/slog"

	"github.com/gopsx/core/psx/bit"
	"github.com/gopsx/core/psx/disc"
	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/schedule"
	"github.com/gopsx/core/psx/systime"
)

// BusBegin and BusEnd bound the CDROM's four index-multiplexed registers.
const (
	BusBegin uint32 = 0x1f801800
	BusEnd   uint32 = BusBegin + 4 - 1
)

// IRQ flag codes the controller raises on Irq.CdRom, matching the values
// documented for real CDROM command completion.
const (
	IrqData   uint8 = 1 // sector data ready
	IrqSecond uint8 = 2 // second response of a two-response command
	IrqFirst  uint8 = 3 // first (acknowledge) response
	IrqError  uint8 = 5 // unrecognized command or command error
)

// Timing constants, in CPU cycles. Not measured against real hardware
// timing tables; chosen to be "soon, but not free" so command completion
// is visibly asynchronous without modeling exact BIOS-observed latencies.
const (
	commandDelay  = 20_000
	responseDelay = 15_000
)

// sector ticks: one sector every 1/75s at 1x speed, 1/150s at 2x.
const sectorsPerSecond1x = 75

type response struct {
	bytes []byte
	flag  uint8
}

// pendingCmd holds a command awaiting RunCdRom dispatch.
type pendingCmd struct {
	cmd  uint8
	args []byte
}

// CdRom is the complete CD-ROM controller.
type CdRom struct {
	index    uint8
	irqMask  uint8
	irqFlags uint8

	argFifo  fifo
	respFifo fifo

	data     disc.Sector
	dataLen  int
	dataPos  int

	pending   *pendingCmd
	responses []response

	motorOn  bool
	reading  bool
	doubleSpeed bool

	targetMsf  bit.Msf
	currentMsf bit.Msf

	provider disc.SectorProvider
	log      *slog.Logger
}

// New returns a CD-ROM controller with the motor off and no disc mounted.
func New(provider disc.SectorProvider, log *slog.Logger) *CdRom {
	if log == nil {
		log = slog.Default()
	}
	return &CdRom{provider: provider, log: log}
}

func (c *CdRom) statusByte() byte {
	var s byte
	if c.motorOn {
		s |= 1 << 1
	}
	if c.reading {
		s |= 1 << 5
	}
	return s
}

// Load reads one of the four index-multiplexed registers.
func (c *CdRom) Load(offset uint32) byte {
	switch offset {
	case 0:
		s := c.index
		s |= boolBit(c.argFifo.isEmpty(), 3)
		s |= boolBit(!c.argFifo.isFull(), 4)
		s |= boolBit(!c.respFifo.isEmpty(), 5)
		s |= boolBit(c.dataPos < c.dataLen, 6)
		return s
	case 1:
		return c.respFifo.pop()
	case 2:
		return c.popData()
	case 3:
		if c.index == 0 {
			return c.irqMask | 0xe0
		}
		return c.irqFlags | 0xe0
	}
	return 0xff
}

func (c *CdRom) popData() byte {
	if c.dataPos >= c.dataLen {
		return 0
	}
	b := c.data.Data[c.dataPos]
	c.dataPos++
	return b
}

// PopDataWord pops four bytes off the data FIFO and assembles them
// little-endian, the granularity the DMA engine reads the data FIFO at.
func (c *CdRom) PopDataWord() uint32 {
	b0 := uint32(c.popData())
	b1 := uint32(c.popData())
	b2 := uint32(c.popData())
	b3 := uint32(c.popData())
	return b0 | b1<<8 | b2<<16 | b3<<24
}

func boolBit(v bool, index uint) byte {
	if v {
		return 1 << index
	}
	return 0
}

// Store writes to one of the four index-multiplexed registers.
func (c *CdRom) Store(sched *schedule.Schedule, offset uint32, val byte) {
	switch offset {
	case 0:
		c.index = val & 0x3
	case 1:
		if c.index == 0 {
			c.issueCommand(sched, val)
		}
	case 2:
		if c.index == 0 {
			c.argFifo.push(val)
		} else if c.index == 1 {
			c.irqMask = val & 0x7
		}
	case 3:
		if c.index == 1 {
			c.irqFlags &^= val & 0x7
			if val&(1<<6) != 0 {
				c.argFifo.clear()
			}
		}
	}
}

func (c *CdRom) issueCommand(sched *schedule.Schedule, cmd byte) {
	args := make([]byte, 0, c.argFifo.len())
	for !c.argFifo.isEmpty() {
		args = append(args, c.argFifo.pop())
	}
	c.pending = &pendingCmd{cmd: cmd, args: args}
	sched.ScheduleIn(systime.FromCPUCycles(commandDelay), schedule.Event{Kind: schedule.RunCdRom})
}

// HandleRunCdRom advances command dispatch and, while reading, delivers the
// next sector.
func (c *CdRom) HandleRunCdRom(sched *schedule.Schedule) {
	if c.pending != nil {
		p := c.pending
		c.pending = nil
		c.responses = c.exec(p.cmd, p.args)
		c.scheduleNextResponse(sched, p.cmd)
		return
	}
	if c.reading {
		c.deliverSector(sched)
	}
}

// HandleResponse pops the next queued response, delivers it, and raises
// Irq.CdRom with its flag code.
func (c *CdRom) HandleResponse(sched *schedule.Schedule, irqState *irq.State, cmd uint8) {
	if len(c.responses) == 0 {
		return
	}
	r := c.responses[0]
	c.responses = c.responses[1:]
	c.respFifo.pushSlice(r.bytes)
	c.raiseIrq(sched, irqState, r.flag)

	if len(c.responses) > 0 {
		c.scheduleNextResponse(sched, cmd)
	} else if c.reading {
		c.scheduleNextSector(sched)
	}
}

func (c *CdRom) scheduleNextResponse(sched *schedule.Schedule, cmd uint8) {
	sched.ScheduleIn(systime.FromCPUCycles(responseDelay), schedule.CdRomResponseEvent(uint32(cmd)))
}

func (c *CdRom) raiseIrq(sched *schedule.Schedule, irqState *irq.State, flag uint8) {
	c.irqFlags = flag & 0x7
	if c.irqFlags&c.irqMask != 0 {
		irqState.Trigger(irq.CdRom)
		sched.Trigger(schedule.IrqCheckEvent)
	}
}

func (c *CdRom) sectorInterval() systime.SysTime {
	hz := uint64(sectorsPerSecond1x)
	if c.doubleSpeed {
		hz *= 2
	}
	return systime.FromCPUCycles(33_868_800 / hz)
}

func (c *CdRom) scheduleNextSector(sched *schedule.Schedule) {
	sched.ScheduleIn(c.sectorInterval(), schedule.Event{Kind: schedule.RunCdRom})
}

func (c *CdRom) deliverSector(sched *schedule.Schedule) {
	if c.provider == nil {
		c.scheduleNextSector(sched)
		return
	}
	sector, err := c.provider.LoadSector(c.currentMsf)
	if err != nil {
		c.log.Warn("cdrom: failed to load sector", "msf", c.currentMsf.String(), "err", err)
		c.scheduleNextSector(sched)
		return
	}
	c.data = sector
	c.dataLen = len(sector.Data)
	c.dataPos = 0
	if next, ok := c.currentMsf.NextSector(); ok {
		c.currentMsf = next
	}
	c.responses = []response{{bytes: nil, flag: IrqData}}
	c.scheduleNextResponse(sched, 0x06)
}

// exec dispatches a fully-assembled command to its handler, returning the
// queued response(s).
func (c *CdRom) exec(cmd uint8, args []byte) []response {
	switch cmd {
	case 0x01: // Getstat
		return []response{{bytes: []byte{c.statusByte()}, flag: IrqFirst}}
	case 0x02: // Setloc
		return c.execSetloc(args)
	case 0x06: // ReadN
		c.motorOn = true
		c.reading = true
		c.currentMsf = c.targetMsf
		return []response{{bytes: []byte{c.statusByte()}, flag: IrqFirst}}
	case 0x09: // Pause
		c.reading = false
		return []response{
			{bytes: []byte{c.statusByte()}, flag: IrqFirst},
			{bytes: []byte{c.statusByte()}, flag: IrqSecond},
		}
	case 0x0a: // Init
		c.reading = false
		c.doubleSpeed = false
		c.motorOn = true
		return []response{
			{bytes: []byte{c.statusByte()}, flag: IrqFirst},
			{bytes: []byte{c.statusByte()}, flag: IrqSecond},
		}
	case 0x0e: // Setmode
		if len(args) > 0 {
			c.doubleSpeed = args[0]&(1<<7) != 0
		}
		return []response{{bytes: []byte{c.statusByte()}, flag: IrqFirst}}
	case 0x15: // SeekL
		c.currentMsf = c.targetMsf
		return []response{
			{bytes: []byte{c.statusByte()}, flag: IrqFirst},
			{bytes: []byte{c.statusByte()}, flag: IrqSecond},
		}
	case 0x19: // Test
		return c.execTest(args)
	case 0x1a: // GetID
		return c.execGetID()
	default:
		c.log.Warn("cdrom: unrecognized command", "cmd", cmd)
		return []response{{bytes: []byte{c.statusByte() | 1}, flag: IrqError}}
	}
}

func (c *CdRom) execSetloc(args []byte) []response {
	if len(args) < 3 {
		return []response{{bytes: []byte{c.statusByte() | 1}, flag: IrqError}}
	}
	m, okM := bit.BcdFromRaw(args[0])
	s, okS := bit.BcdFromRaw(args[1])
	f, okF := bit.BcdFromRaw(args[2])
	if !okM || !okS || !okF {
		return []response{{bytes: []byte{c.statusByte() | 1}, flag: IrqError}}
	}
	c.targetMsf = bit.Msf{Min: m, Sec: s, Frame: f}
	return []response{{bytes: []byte{c.statusByte()}, flag: IrqFirst}}
}

func (c *CdRom) execTest(args []byte) []response {
	if len(args) > 0 && args[0] == 0x20 {
		return []response{{bytes: []byte{0x99, 0x02, 0x01, 0xc3}, flag: IrqFirst}}
	}
	return []response{{bytes: []byte{c.statusByte() | 1}, flag: IrqError}}
}

func (c *CdRom) execGetID() []response {
	if c.provider == nil {
		return []response{
			{bytes: []byte{c.statusByte() | 1 | 1<<6}, flag: IrqFirst},
			{bytes: []byte{0x08, 0x40, 0, 0, 0, 0, 0, 0}, flag: IrqError},
		}
	}
	return []response{
		{bytes: []byte{c.statusByte()}, flag: IrqFirst},
		{bytes: []byte{0x02, 0x00, 0x20, 0x00, 'S', 'C', 'E', 'A'}, flag: IrqSecond},
	}
}
