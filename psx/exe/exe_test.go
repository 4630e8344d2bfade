package exe

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gopsx/core/psx/cpu"
	"github.com/gopsx/core/psx/memory"
)

func buildImage(t *testing.T, h Header, text []byte) []byte {
	t.Helper()
	img := make([]byte, headerSize+len(text))
	copy(img[0:8], magic)
	le := binary.LittleEndian
	le.PutUint32(img[offPC:], h.PC)
	le.PutUint32(img[offGP:], h.GP)
	le.PutUint32(img[offTextBase:], h.TextBase)
	le.PutUint32(img[offTextSize:], h.TextSize)
	le.PutUint32(img[offBssBase:], h.BssBase)
	le.PutUint32(img[offBssSize:], h.BssSize)
	le.PutUint32(img[offSPBase:], h.SPBase)
	le.PutUint32(img[offSPOffset:], h.SPOffset)
	copy(img[headerSize:], text)
	return img
}

func TestLoadSetsRegistersAndCopiesText(t *testing.T) {
	text := make([]byte, 16)
	binary.LittleEndian.PutUint32(text[0:], 0x11223344)
	binary.LittleEndian.PutUint32(text[4:], 0x55667788)

	h := Header{
		PC:       0x80010000,
		GP:       0x80020000,
		TextBase: 0x80010000,
		TextSize: uint32(len(text)),
		BssBase:  0x80030000,
		BssSize:  16,
		SPBase:   0x801ffff0,
		SPOffset: 0,
	}
	img := buildImage(t, h, text)

	ram := memory.NewRam()
	c := cpu.New(nil)
	assert.NoError(t, Load(img, ram, c))

	assert.Equal(t, uint32(0x11223344), ram.LoadWord(0x00010000), "word@text_base")
	assert.Zero(t, ram.LoadWord(0x00030000), "bss not zeroed")
	assert.Equal(t, h.PC, c.PC())
	assert.Equal(t, h.GP, c.Reg(regGP))
	assert.Equal(t, h.SPBase, c.Reg(regSP))
}

func TestLoadDefaultsStackWhenSPBaseZero(t *testing.T) {
	h := Header{PC: 0x80010000, TextBase: 0x80010000, TextSize: 4}
	img := buildImage(t, h, []byte{0, 0, 0, 0})

	ram := memory.NewRam()
	c := cpu.New(nil)
	assert.NoError(t, Load(img, ram, c))
	assert.Equal(t, uint32(defaultSP), c.Reg(regSP))
}

func TestLoadRejectsBadMagic(t *testing.T) {
	img := make([]byte, headerSize)
	copy(img[0:8], "NOT-EXE!")

	assert.Error(t, Load(img, memory.NewRam(), cpu.New(nil)))
}

func TestLoadRejectsTooSmallImage(t *testing.T) {
	img := make([]byte, headerSize-1)
	assert.Error(t, Load(img, memory.NewRam(), cpu.New(nil)))
}

func TestLoadRejectsOutOfRangeText(t *testing.T) {
	h := Header{PC: 0, TextBase: memory.RamSize - 2, TextSize: 16}
	img := buildImage(t, h, make([]byte, 16))

	assert.Error(t, Load(img, memory.NewRam(), cpu.New(nil)))
}
