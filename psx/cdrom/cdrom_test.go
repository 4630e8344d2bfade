package cdrom

import (
	"testing"

	"github.com/gopsx/core/psx/bit"
	"github.com/gopsx/core/psx/disc"
	"github.com/gopsx/core/psx/irq"
	"github.com/gopsx/core/psx/schedule"
)

type fakeProvider struct{}

func (fakeProvider) LoadSector(msf bit.Msf) (disc.Sector, error) {
	var s disc.Sector
	s.Data[0] = byte(msf.Sector())
	return s, nil
}

func runUntilNoEvents(t *testing.T, sched *schedule.Schedule, c *CdRom, irqState *irq.State, max int) {
	t.Helper()
	for i := 0; i < max; i++ {
		ev, ok := sched.NextReady()
		if !ok {
			return
		}
		switch ev.Kind {
		case schedule.RunCdRom:
			c.HandleRunCdRom(sched)
		case schedule.CdRomResponse:
			c.HandleResponse(sched, irqState, uint8(ev.Arg))
		}
	}
}

// TestGetstatRoundTrip checks that a Getstat command's response reaches the
// response FIFO and raises Irq.CdRom once the CDROM interrupt is unmasked.
func TestGetstatRoundTrip(t *testing.T) {
	c := New(fakeProvider{}, nil)
	sched := schedule.New()
	irqState := irq.New()

	c.Store(sched, 0, 1)   // select index 1
	c.Store(sched, 2, 0x7) // unmask every CDROM interrupt flag
	c.Store(sched, 0, 0) // select index 0
	c.Store(sched, 1, 0x01) // Getstat

	sched.Tick(commandDelay + 1)
	runUntilNoEvents(t, sched, c, irqState, 10)
	sched.Tick(responseDelay + 1)
	runUntilNoEvents(t, sched, c, irqState, 10)

	if c.respFifo.isEmpty() {
		t.Fatal("expected a Getstat response in the response fifo")
	}
	if !irqState.IsTriggered(irq.CdRom) {
		t.Error("expected Irq.CdRom to be triggered")
	}
}

// TestTestCommandSubfunction20 covers the version/date sub-function.
func TestTestCommandSubfunction20(t *testing.T) {
	c := New(fakeProvider{}, nil)
	sched := schedule.New()
	irqState := irq.New()

	c.Store(sched, 0, 0)
	c.Store(sched, 2, 0x20) // push sub-function argument
	c.Store(sched, 1, 0x19) // Test command

	sched.Tick(commandDelay + 1)
	runUntilNoEvents(t, sched, c, irqState, 10)
	sched.Tick(responseDelay + 1)
	runUntilNoEvents(t, sched, c, irqState, 10)

	got := []byte{c.respFifo.pop(), c.respFifo.pop(), c.respFifo.pop(), c.respFifo.pop()}
	want := []byte{0x99, 0x02, 0x01, 0xc3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("response[%d] = %x; want %x", i, got[i], want[i])
		}
	}
}

// TestUnrecognizedCommandRaisesError covers the error-stat / flag-5 path.
func TestUnrecognizedCommandRaisesError(t *testing.T) {
	c := New(fakeProvider{}, nil)
	sched := schedule.New()
	irqState := irq.New()

	c.Store(sched, 0, 0)
	c.Store(sched, 1, 0xff) // not a recognized command

	sched.Tick(commandDelay + 1)
	runUntilNoEvents(t, sched, c, irqState, 10)
	sched.Tick(responseDelay + 1)
	runUntilNoEvents(t, sched, c, irqState, 10)

	if got := c.respFifo.pop(); got&1 == 0 {
		t.Errorf("expected error bit set in status byte, got %x", got)
	}
	if c.irqFlags != IrqError {
		t.Errorf("irqFlags = %d; want %d", c.irqFlags, IrqError)
	}
}

func TestIrqFlagsWriteOneToClear(t *testing.T) {
	c := New(fakeProvider{}, nil)
	sched := schedule.New()
	c.irqFlags = 0x7
	c.Store(sched, 0, 1) // select index 1
	c.Store(sched, 3, 0x1)
	if c.irqFlags != 0x6 {
		t.Errorf("irqFlags = %x; want 0x6", c.irqFlags)
	}
}
