// Package gpu implements the GPU's command surface: the GP0 command FIFO
// and GP1 control port, VRAM storage, the GPUSTAT register, and the
// scanline timing state machine that raises VBlank. Actual polygon/line/
// rectangle rasterization is stubbed per the emulator's scope: commands are
// decoded and consume the right number of FIFO words (their execution takes
// no emulated cycles), but pixels are written with flat fills rather than a
// full rasterizer.
package gpu

import (
	"log/slog"

	"github.com/gopsx/core/psx/disc"
	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/schedule"
	"github.com/gopsx/core/psx/systime"
)

// Scanline timing constants, in GPU dot-clock cycles, matching the
// reference implementation's PAL/NTSC tables.
const (
	palScanlinesPerFrame  = 314
	ntscScanlinesPerFrame = 263
	palCyclesPerScanline  = 3406
	ntscCyclesPerScanline = 3413

	palVblankStartLine  = 270
	ntscVblankStartLine = 240
)

type transfer struct {
	active       bool
	x, y         int
	w, h         int
	cursorX      int
	cursorY      int
}

// Gpu is the complete GPU device: command processing, VRAM, and scan-out
// timing.
type Gpu struct {
	fifo   fifo
	vram   vram
	clut   *clutCache
	status status

	vramXStart, vramYStart uint16
	disXStart, disXEnd     uint16
	disYStart, disYEnd     uint16

	texXFlip, texYFlip     bool
	texWinX, texWinY       uint32
	texWinW, texWinH       uint32

	daXMin, daXMax int
	daYMin, daYMax int
	xOffset, yOffset int32

	line    int
	dot     uint64
	vblank  bool

	cpuToVram transfer
	vramToCpu transfer

	log *slog.Logger
}

// New returns a GPU in its post-GP1(0) reset state.
func New(log *slog.Logger) *Gpu {
	if log == nil {
		log = slog.Default()
	}
	g := &Gpu{clut: newClutCache(), log: log}
	g.Gp1Reset()
	return g
}

// Status returns the current GPUSTAT value.
func (g *Gpu) Status() uint32 {
	s := g.status
	// Bits 26 and 27 are always reported ready: the stub rasterizer never
	// blocks the FIFO. Bit 28 is set while the command FIFO has room.
	s = s.setBit(26, true)
	s = s.setBit(27, true)
	s = s.setBit(28, !g.fifo.isFull())
	return uint32(s)
}

// GpuRead returns the GPUREAD port's value: pending VRAM->CPU transfer
// data, or 0 if no transfer is active.
func (g *Gpu) GpuRead() uint32 {
	if !g.vramToCpu.active {
		return 0
	}
	lo := g.vram.load16(g.vramToCpu.x+g.vramToCpu.cursorX, g.vramToCpu.y+g.vramToCpu.cursorY)
	g.advanceTransferCursor(&g.vramToCpu)
	var hi uint16
	if g.vramToCpu.active {
		hi = g.vram.load16(g.vramToCpu.x+g.vramToCpu.cursorX, g.vramToCpu.y+g.vramToCpu.cursorY)
		g.advanceTransferCursor(&g.vramToCpu)
	}
	return uint32(lo) | uint32(hi)<<16
}

// Present hands the display area's current VRAM contents to sink, in the
// resolution and color depth GP1 display-mode/area configuration last set.
// Called by the system driving loop on each VBlank so a front end never has
// to reach into VRAM itself.
func (g *Gpu) Present(sink disc.FrameSink) {
	if sink == nil || g.status.displayDisabled() {
		return
	}
	depth := disc.ColorDepth15Bit
	if g.status.colorDepth24() {
		depth = disc.ColorDepth24Bit
	}
	w := g.status.horizontalResolution()
	h := g.status.verticalResolution()
	sink.Present(g.vram.pixels(), disc.Point{X: int(g.vramXStart), Y: int(g.vramYStart)}, w, h, depth)
}

func (g *Gpu) advanceTransferCursor(tr *transfer) {
	tr.cursorX++
	if tr.cursorX >= tr.w {
		tr.cursorX = 0
		tr.cursorY++
		if tr.cursorY >= tr.h {
			tr.active = false
		}
	}
}

// Gp0 handles a store to the GP0 (command/data) port.
func (g *Gpu) Gp0(val uint32) {
	if g.cpuToVram.active {
		lo := uint16(val)
		hi := uint16(val >> 16)
		x, y := g.cpuToVram.x+g.cpuToVram.cursorX, g.cpuToVram.y+g.cpuToVram.cursorY
		g.vram.store16(x, y, lo)
		g.advanceTransferCursor(&g.cpuToVram)
		if g.cpuToVram.active {
			x, y = g.cpuToVram.x+g.cpuToVram.cursorX, g.cpuToVram.y+g.cpuToVram.cursorY
			g.vram.store16(x, y, hi)
			g.advanceTransferCursor(&g.cpuToVram)
		}
		return
	}

	switch g.fifo.pushCmd(val) {
	case pushImmCmd:
		g.execImm(val)
	case pushFullCmd:
		g.execQueued()
	}
}

func (g *Gpu) execImm(val uint32) {
	cmd := uint8(val >> 24)
	switch cmd {
	case 0x00: // NOP
	case 0x01: // clear texture cache
		g.clut.clear()
	case 0x1f: // request IRQ1
		g.status = g.status.setBit(24, true)
	case 0xe1:
		g.gp0DrawMode(val)
	case 0xe2:
		g.gp0TexWindow(val)
	case 0xe3:
		g.daXMin, g.daYMin = int(val&0x3ff), int((val>>10)&0x1ff)
	case 0xe4:
		g.daXMax, g.daYMax = int(val&0x3ff), int((val>>10)&0x1ff)
	case 0xe5:
		g.gp0DrawOffset(val)
	case 0xe6:
		mask := val & 0x3
		g.status = g.status.setRange(11, 12, mask)
	default:
		g.log.Warn("gpu: unhandled immediate GP0 command", "cmd", cmd)
	}
}

func (g *Gpu) gp0DrawMode(val uint32) {
	g.status = g.status.setRange(0, 10, val&0x7ff)
	g.status = g.status.setBit(15, (val>>11)&1 == 1)
	g.texXFlip = (val>>12)&1 == 1
	g.texYFlip = (val>>13)&1 == 1
}

func (g *Gpu) gp0TexWindow(val uint32) {
	g.texWinW = val & 0x1f
	g.texWinH = (val >> 5) & 0x1f
	g.texWinX = (val >> 10) & 0x1f
	g.texWinY = (val >> 15) & 0x1f
}

func (g *Gpu) gp0DrawOffset(val uint32) {
	x := int32(val&0x7ff) << 21 >> 21
	y := int32((val>>11)&0x7ff) << 21 >> 21
	g.xOffset, g.yOffset = x, y
}

// execQueued runs a fully-assembled queued command (polygon/line/rect draw,
// fill rectangle, or a VRAM transfer setup). The rasterizer is a stub: draw
// commands clear their target area to the command's flat color rather than
// computing per-pixel coverage, texturing, or shading.
func (g *Gpu) execQueued() {
	words := make([]uint32, 0, 16)
	for !g.fifo.isEmpty() {
		words = append(words, g.fifo.pop())
	}
	if len(words) == 0 {
		return
	}
	cmd := uint8(words[0] >> 24)

	switch {
	case cmd == 0x02:
		g.execFillRect(words)
	case cmd >= 0x20 && cmd <= 0x3f:
		g.execPolygon(words, cmd)
	case cmd >= 0x40 && cmd <= 0x5f:
		g.execLine(words, cmd)
	case cmd >= 0x60 && cmd <= 0x7f:
		g.execRect(words, cmd)
	case cmd >= 0x80 && cmd <= 0x9f:
		g.execVramToVram(words)
	case cmd >= 0xa0 && cmd <= 0xbf:
		g.execCpuToVram(words)
	case cmd >= 0xc0 && cmd <= 0xdf:
		g.execVramToCpu(words)
	default:
		g.log.Warn("gpu: unhandled queued GP0 command", "cmd", cmd)
	}
}

func color16(word uint32) uint16 {
	r := uint16((word >> 3) & 0x1f)
	gch := uint16((word >> 11) & 0x1f)
	b := uint16((word >> 19) & 0x1f)
	return r | gch<<5 | b<<10
}

func (g *Gpu) execFillRect(words []uint32) {
	c := color16(words[0])
	x, y := int(words[1]&0x3ff), int((words[1]>>16)&0x1ff)
	w, h := int(words[2]&0x3ff), int((words[2]>>16)&0x1ff)
	g.fillRect(x, y, w, h, c)
}

func (g *Gpu) fillRect(x, y, w, h int, c uint16) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			g.vram.store16(x+dx, y+dy, c)
		}
	}
}

// execPolygon fills the primitive's bounding box with its first vertex
// color. This stands in for the unimplemented scan-conversion rasterizer.
func (g *Gpu) execPolygon(words []uint32, cmd uint8) {
	textured := (cmd>>2)&1 == 1
	quad := (cmd>>3)&1 == 1
	gouraud := (cmd>>4)&1 == 1

	c := color16(words[0])
	verts := 3
	if quad {
		verts = 4
	}

	minX, minY := int(1<<30), int(1<<30)
	maxX, maxY := -(1 << 30), -(1 << 30)
	idx := 1
	for i := 0; i < verts; i++ {
		if i > 0 && gouraud {
			idx++ // skip per-vertex color word
		}
		vx := int(int16(words[idx] & 0xffff))
		vy := int(int16((words[idx] >> 16) & 0xffff))
		idx++
		if textured {
			idx++
		}
		vx += int(g.xOffset)
		vy += int(g.yOffset)
		if vx < minX {
			minX = vx
		}
		if vx > maxX {
			maxX = vx
		}
		if vy < minY {
			minY = vy
		}
		if vy > maxY {
			maxY = vy
		}
	}
	if maxX >= minX && maxY >= minY {
		g.fillRect(minX, minY, maxX-minX+1, maxY-minY+1, c)
	}
}

func (g *Gpu) execLine(words []uint32, cmd uint8) {
	gouraud := (cmd>>4)&1 == 1
	c := color16(words[0])
	idx := 1
	if idx >= len(words) {
		return
	}
	vx := int(int16(words[idx] & 0xffff))
	vy := int(int16((words[idx] >> 16) & 0xffff))
	idx++
	if gouraud && idx < len(words) {
		idx++ // second vertex's color word
	}
	if idx >= len(words) {
		g.vram.store16(vx+int(g.xOffset), vy+int(g.yOffset), c)
		return
	}
	vx2 := int(int16(words[idx] & 0xffff))
	vy2 := int(int16((words[idx] >> 16) & 0xffff))
	g.vram.store16(vx+int(g.xOffset), vy+int(g.yOffset), c)
	g.vram.store16(vx2+int(g.xOffset), vy2+int(g.yOffset), c)
}

func (g *Gpu) execRect(words []uint32, cmd uint8) {
	textured := (cmd>>2)&1 == 1
	size := (cmd >> 3) & 0x3

	c := color16(words[0])
	x := int(int16(words[1] & 0xffff))
	y := int(int16((words[1] >> 16) & 0xffff))
	idx := uint8(2)
	if textured {
		idx++
	}
	var w, h int
	switch size {
	case 1:
		w, h = 1, 1
	case 2:
		w, h = 8, 8
	case 3:
		w, h = 16, 16
	default:
		if int(idx) < len(words) {
			w = int(words[idx] & 0x3ff)
			h = int((words[idx] >> 16) & 0x1ff)
		}
	}
	g.fillRect(x+int(g.xOffset), y+int(g.yOffset), w, h, c)
}

func (g *Gpu) execVramToVram(words []uint32) {
	if len(words) < 4 {
		return
	}
	srcX, srcY := int(words[1]&0x3ff), int((words[1]>>16)&0x1ff)
	dstX, dstY := int(words[2]&0x3ff), int((words[2]>>16)&0x1ff)
	w, h := int(words[3]&0x3ff), int((words[3]>>16)&0x1ff)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			g.vram.store16(dstX+dx, dstY+dy, g.vram.load16(srcX+dx, srcY+dy))
		}
	}
}

func (g *Gpu) execCpuToVram(words []uint32) {
	if len(words) < 3 {
		return
	}
	x, y := int(words[1]&0x3ff), int((words[1]>>16)&0x1ff)
	w, h := int(words[2]&0x3ff), int((words[2]>>16)&0x1ff)
	g.cpuToVram = transfer{active: true, x: x, y: y, w: w, h: h}
}

func (g *Gpu) execVramToCpu(words []uint32) {
	if len(words) < 3 {
		return
	}
	x, y := int(words[1]&0x3ff), int((words[1]>>16)&0x1ff)
	w, h := int(words[2]&0x3ff), int((words[2]>>16)&0x1ff)
	g.vramToCpu = transfer{active: true, x: x, y: y, w: w, h: h}
}

// Gp1 handles a store to the GP1 (control) port.
func (g *Gpu) Gp1(sched *schedule.Schedule, val uint32) {
	cmd := uint8(val >> 24)
	switch cmd {
	case 0x00:
		g.Gp1Reset()
		g.rescheduleRun(sched)
	case 0x01:
		g.fifo.clear()
	case 0x02:
		g.status = g.status.setBit(24, false)
	case 0x03:
		g.status = g.status.setBit(23, val&1 == 1)
	case 0x04:
		g.status = g.status.setRange(29, 30, val&0x3)
	case 0x05:
		g.vramXStart = uint16(val & 0x3ff)
		g.vramYStart = uint16((val >> 10) & 0x1ff)
	case 0x06:
		g.disXStart = uint16(val & 0xfff)
		g.disXEnd = uint16((val >> 12) & 0xfff)
	case 0x07:
		g.disYStart = uint16(val & 0xfff)
		g.disYEnd = uint16((val >> 12) & 0xfff)
	case 0x08:
		g.status = g.status.setRange(17, 22, val&0x3f)
		g.status = g.status.setBit(16, (val>>6)&1 == 1)
		g.status = g.status.setBit(14, (val>>7)&1 == 1)
		g.rescheduleRun(sched)
	default:
		g.log.Debug("gpu: unhandled GP1 command", "cmd", cmd)
	}
}

// Gp1Reset implements GP1(0): the GPU's full reset state.
func (g *Gpu) Gp1Reset() {
	g.fifo.clear()
	g.status = status(0x14802000)

	g.vramXStart, g.vramYStart = 0, 0
	g.disXStart, g.disXEnd = 0x200, 0xc00
	g.disYStart, g.disYEnd = 0x10, 0x100

	g.texXFlip, g.texYFlip = false, false
	g.texWinW, g.texWinH, g.texWinX, g.texWinY = 0, 0, 0, 0
	g.daXMin, g.daXMax, g.daYMin, g.daYMax = 0, 0, 0, 0
	g.xOffset, g.yOffset = 0, 0

	g.line, g.dot, g.vblank = 0, 0, false
	g.cpuToVram = transfer{}
	g.vramToCpu = transfer{}
}

func (g *Gpu) cyclesPerScanline() uint64 {
	if g.status.videoMode() == Pal {
		return palCyclesPerScanline
	}
	return ntscCyclesPerScanline
}

func (g *Gpu) scanlinesPerFrame() int {
	if g.status.videoMode() == Pal {
		return palScanlinesPerFrame
	}
	return ntscScanlinesPerFrame
}

func (g *Gpu) vblankStartLine() int {
	if g.status.videoMode() == Pal {
		return palVblankStartLine
	}
	return ntscVblankStartLine
}

// rescheduleRun cancels any pending RunGpu event and arms a fresh one at the
// scanline cadence for the (possibly just-changed) video mode.
func (g *Gpu) rescheduleRun(sched *schedule.Schedule) {
	sched.Unschedule(func(ev schedule.Event) bool { return ev.Kind == schedule.RunGpu })
	g.armNextScanline(sched)
}

func (g *Gpu) armNextScanline(sched *schedule.Schedule) {
	var delta systime.SysTime
	if g.status.videoMode() == Pal {
		delta = systime.FromGpuPalCycles(g.cyclesPerScanline())
	} else {
		delta = systime.FromGpuNtscCycles(g.cyclesPerScanline())
	}
	sched.ScheduleIn(delta, schedule.Event{Kind: schedule.RunGpu})
}

// Run advances the scan-out state machine by one scanline: called when a
// RunGpu event fires. It flips the vblank status bit and raises Irq::VBlank
// at the top of the vertical blanking interval.
func (g *Gpu) Run(sched *schedule.Schedule, irqState *irq.State) {
	g.line++
	if g.line >= g.scanlinesPerFrame() {
		g.line = 0
	}

	g.vblank = g.line >= g.vblankStartLine()

	if g.line == g.vblankStartLine() {
		irqState.Trigger(irq.VBlank)
		sched.Trigger(schedule.IrqCheckEvent)
	}

	g.armNextScanline(sched)
}

// InHblank and InVblank expose the scan-out position. The bus reads
// InVblank to detect the frame edge; the Timers device reads neither, so
// no timer clock source follows these lines.
func (g *Gpu) InVblank() bool {
	return g.vblank
}

func (g *Gpu) InHblank() bool {
	return false // dot-level hblank tracking is not modeled; only line-level timing is
}
