package gpu

import (
	"testing"

	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/schedule"
)

func TestFifoPushAndPop(t *testing.T) {
	var f fifo
	for i := uint32(1); i <= 16; i++ {
		f.push(i)
	}
	if !f.isFull() {
		t.Fatal("fifo should be full after 16 pushes")
	}
	f.push(17) // dropped: fifo is full
	if got := f.pop(); got != 1 {
		t.Errorf("pop() = %d; want 1", got)
	}
}

// TestCmdFifoLen mirrors the reference implementation's fifo tests: GP0
// opcode 0x3f (textured+gouraud+quad) has a 12-word body.
func TestCmdFifoLen(t *testing.T) {
	if got := cmdFifoLen(0x3f); got != 12 {
		t.Errorf("cmdFifoLen(0x3f) = %d; want 12", got)
	}
	if got := cmdFifoLen(0x20); got != 4 {
		t.Errorf("cmdFifoLen(0x20) flat tri = %d; want 4", got)
	}
	if got := cmdFifoLen(0x28); got != 5 {
		t.Errorf("cmdFifoLen(0x28) flat quad = %d; want 5", got)
	}
	if got := cmdFifoLen(0x02); got != 3 {
		t.Errorf("cmdFifoLen(fill rect) = %d; want 3", got)
	}
}

func TestPushCmdAccumulatesFullCommand(t *testing.T) {
	var f fifo
	header := uint32(0x30) << 24 // gouraud tri, 6 words total
	if got := f.pushCmd(header); got != pushNone {
		t.Fatalf("pushCmd(header) = %v; want pushNone", got)
	}
	for i := 0; i < 4; i++ {
		if got := f.pushCmd(0); got != pushNone {
			t.Fatalf("intermediate pushCmd should return pushNone, got %v", got)
		}
	}
	if got := f.pushCmd(0); got != pushFullCmd {
		t.Fatalf("final pushCmd = %v; want pushFullCmd", got)
	}
}

func TestGp0FillRect(t *testing.T) {
	g := New(nil)
	g.Gp0(uint32(0x02) << 24) // fill rectangle, color 0
	g.Gp0(0)                  // x=0,y=0
	g.Gp0(4 | 4<<16)          // w=4,h=4

	if got := g.vram.load16(1, 1); got != 0 {
		t.Errorf("filled pixel = %x; want 0", got)
	}
}

func TestGp1ResetRestoresDefaults(t *testing.T) {
	g := New(nil)
	g.vramXStart = 123
	g.Gp1(schedule.New(), 0)
	if g.vramXStart != 0 {
		t.Error("GP1(0) should reset vram_x_start to 0")
	}
	if uint32(g.status) != 0x14802000 {
		t.Errorf("status after reset = %x; want 0x14802000", uint32(g.status))
	}
}

// TestRunRaisesVblank covers the scan-out state machine reaching the top of
// the vertical blanking interval.
func TestRunRaisesVblank(t *testing.T) {
	g := New(nil)
	sched := schedule.New()
	irqState := irq.New()

	for i := 0; i < ntscVblankStartLine+1; i++ {
		g.Run(sched, irqState)
	}

	if !g.InVblank() {
		t.Error("expected to be in vblank")
	}
	if !irqState.IsTriggered(irq.VBlank) {
		t.Error("expected VBlank irq to be triggered")
	}
}

func TestClutCacheEviction(t *testing.T) {
	c := newClutCache()
	for i := 0; i < clutCacheSize+10; i++ {
		c.store(clutKey{x: i, y: 0, depth: Depth4Bit}, [16]uint16{})
	}
	if len(c.entries) != clutCacheSize {
		t.Errorf("cache size = %d; want %d", len(c.entries), clutCacheSize)
	}
	if _, ok := c.lookup(clutKey{x: 0, y: 0, depth: Depth4Bit}); ok {
		t.Error("oldest entry should have been evicted")
	}
}
