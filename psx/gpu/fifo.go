package gpu

import "github.com/gopsx/core/psx/bit"

// fifoSize is the GP0 command FIFO's depth.
const fifoSize = 16

// fifo is the 16-entry x 32-bit GP0 command buffer.
type fifo struct {
	data         [fifoSize]uint32
	head, tail   uint32
	cmdWordsLeft *uint8
}

func (f *fifo) len() uint8 { return uint8(f.head - f.tail) }

func (f *fifo) isEmpty() bool { return f.head == f.tail }
func (f *fifo) isFull() bool  { return int(f.len()) == fifoSize }

func (f *fifo) clear() {
	f.tail = f.head
	f.cmdWordsLeft = nil
}

func (f *fifo) pushInternal(val uint32) {
	f.data[f.head%fifoSize] = val
	f.head++
}

// push appends raw pixel/argument data that is not part of command-length
// tracking (used for CPU->VRAM transfer payloads).
func (f *fifo) push(val uint32) {
	if !f.isFull() {
		f.pushInternal(val)
	}
}

// pushAction reports what happened to a pushCmd call.
type pushAction int

const (
	pushNone pushAction = iota
	pushImmCmd
	pushFullCmd
)

// pushCmd pushes a GP0 word as part of command assembly, returning whether
// an immediate command fired or a full queued command is now ready.
func (f *fifo) pushCmd(val uint32) pushAction {
	if f.isFull() {
		cmd := uint8(bit.Range(val, 24, 31))
		if cmdIsImm(cmd) {
			return pushImmCmd
		}
		return pushNone
	}

	var wordsLeft uint8
	if f.cmdWordsLeft != nil {
		wordsLeft = *f.cmdWordsLeft
		f.cmdWordsLeft = nil
	} else {
		cmd := uint8(bit.Range(val, 24, 31))
		if cmdIsImm(cmd) {
			return pushImmCmd
		}
		wordsLeft = cmdFifoLen(cmd)
	}

	f.pushInternal(val)

	wordsLeft--
	if wordsLeft == 0 {
		return pushFullCmd
	}
	f.cmdWordsLeft = &wordsLeft
	return pushNone
}

func (f *fifo) pop() uint32 {
	if f.isEmpty() {
		return 0
	}
	val := f.at(0)
	f.tail++
	return val
}

func (f *fifo) at(index uint8) uint32 {
	idx := (f.tail + uint32(index)) % fifoSize
	return f.data[idx]
}

func (f *fifo) nextCmd() (uint8, bool) {
	if f.isEmpty() {
		return 0, false
	}
	return uint8(bit.Range(f.at(0), 24, 31)), true
}

func (f *fifo) hasFullCmd() bool {
	cmd, ok := f.nextCmd()
	if !ok {
		return false
	}
	return cmdFifoLen(cmd) <= f.len()
}
