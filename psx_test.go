package psx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gopsx/core/psx/memory"
)

// A minimal BIOS image that spins: a branch to itself followed by its
// delay-slot instruction (nop), enough to exercise the full step/drain loop
// without needing real firmware.
func blankBios() []byte {
	img := make([]byte, memory.BiosSize)
	// beq $0, $0, -1 ; nop  (branches back to itself forever)
	img[0], img[1], img[2], img[3] = 0xff, 0xff, 0x00, 0x10
	return img
}

func TestSystemRunsForBudgetedTime(t *testing.T) {
	sys, err := New(blankBios(), nil, nil)
	assert.NoError(t, err)

	reason := sys.Run(context.Background(), time.Millisecond)
	assert.Equal(t, StopTime, reason)
}

func TestSystemRunStopsOnContextCancel(t *testing.T) {
	sys, err := New(blankBios(), nil, nil)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reason := sys.Run(ctx, time.Second)
	assert.Equal(t, StopContext, reason)
}
