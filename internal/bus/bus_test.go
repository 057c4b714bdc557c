package bus

import (
	"hash/crc32"
	"testing"

	"cyclenes/internal/cartridge"
	"cyclenes/internal/cpu"
	"cyclenes/internal/ppu"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bootProgram waits two vblanks, loads background palette 0, zeroes the
// scroll and turns the background on, left column included.
var bootProgram = []uint8{
	0x78,       // 8000 SEI
	0xD8,       // 8001 CLD
	0xA2, 0xFF, // 8002 LDX #$FF
	0x9A,             // 8004 TXS
	0x2C, 0x02, 0x20, // 8005 BIT $2002
	0x10, 0xFB, //       8008 BPL $8005
	0x2C, 0x02, 0x20, // 800A BIT $2002
	0x10, 0xFB, //       800D BPL $800A
	0xA9, 0x3F, //       800F LDA #$3F
	0x8D, 0x06, 0x20, // 8011 STA $2006
	0xA9, 0x00, //       8014 LDA #$00
	0x8D, 0x06, 0x20, // 8016 STA $2006
	0xA9, 0x21, //       8019 LDA #$21
	0x8D, 0x07, 0x20, // 801B STA $2007
	0xA9, 0x16, //       801E LDA #$16
	0x8D, 0x07, 0x20, // 8020 STA $2007
	0xA9, 0x2A, //       8023 LDA #$2A
	0x8D, 0x07, 0x20, // 8025 STA $2007
	0xA9, 0x12, //       8028 LDA #$12
	0x8D, 0x07, 0x20, // 802A STA $2007
	0xA9, 0x00, //       802D LDA #$00
	0x8D, 0x05, 0x20, // 802F STA $2005
	0x8D, 0x05, 0x20, // 8032 STA $2005
	0x8D, 0x00, 0x20, // 8035 STA $2000
	0xA9, 0x0A, //       8038 LDA #$0A
	0x8D, 0x01, 0x20, // 803A STA $2001
	0x4C, 0x3D, 0x80, // 803D JMP $803D
}

const bootIdle = 0x803D

var bootPalette = [4]uint8{0x21, 0x16, 0x2A, 0x12}

// bootTile is CHR tile 0, which fills every nametable: colors 3 and 1 in
// the top half, 2 and backdrop in the bottom half.
var bootTile = []uint8{
	0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00, // low plane
	0xF0, 0xF0, 0xF0, 0xF0, 0xF0, 0xF0, 0xF0, 0xF0, // high plane
}

func newTestBus(t *testing.T, code ...uint8) *Bus {
	t.Helper()
	b, err := NewForTesting(cartridge.NewTestROMBuilder().WithCode(0x8000, code...).WithCHRData(bootTile), Options{})
	require.NoError(t, err)
	return b
}

func tracePCs(b *Bus, instructions int) []uint16 {
	var pcs []uint16
	b.SetInstructionHook(func(c *cpu.CPU) {
		pcs = append(pcs, c.PC)
	})
	defer b.SetInstructionHook(nil)
	for len(pcs) < instructions {
		b.StepCycle()
	}
	return pcs
}

func TestBus_PowerOn_ShouldReachResetVectorAfterSevenCycles(t *testing.T) {
	b := newTestBus(t, 0xEA)

	b.RunCycles(7)
	assert.True(t, b.CPU.AtInstructionBoundary())
	assert.Equal(t, uint16(0x8000), b.CPU.PC)
	assert.Equal(t, uint64(7), b.Cycles())
}

func TestBus_StepCycle_ShouldRunThreeDotsPerCPUCycle(t *testing.T) {
	b := newTestBus(t, 0x4C, 0x00, 0x80)

	b.RunCycles(100)
	assert.Equal(t, uint64(300), b.PPU.Dots())
}

func TestBus_Program_ShouldWriteRAM(t *testing.T) {
	b := newTestBus(t,
		0xA9, 0x42, // LDA #$42
		0x85, 0x10, // STA $10
		0x4C, 0x04, 0x80, // JMP $8004
	)

	b.RunCycles(7 + 2 + 3)
	assert.Equal(t, uint8(0x42), b.Memory.Peek(0x0010))
}

type boundary struct {
	pc     uint16
	cycles uint64
}

func TestBus_PCTrace_ShouldExitVBlankLoopOnSchedule(t *testing.T) {
	b := newTestBus(t, bootProgram...)
	var got []boundary
	b.SetInstructionHook(func(c *cpu.CPU) {
		got = append(got, boundary{c.PC, b.Cycles()})
	})
	ok := b.RunUntil(cyclesPerFrameBound, func() bool {
		return len(got) > 0 && got[len(got)-1].pc == 0x800A
	})
	require.True(t, ok, "first vblank loop never exited")

	// Reset takes 7 cycles. BIT reads $2002 on cycles 19+7n, and vblank is
	// set on dot 241*341+1 = 82182. Reads of cycle k see dot 3(k-1), so the
	// first read to find the flag is on cycle 27396, iteration 3911.
	want := []boundary{{0x8000, 7}, {0x8001, 9}, {0x8002, 11}, {0x8004, 13}}
	for n := uint64(0); n <= 3911; n++ {
		want = append(want, boundary{0x8005, 15 + 7*n}, boundary{0x8008, 19 + 7*n})
	}
	want = append(want, boundary{0x800A, 27398})

	require.Len(t, got, len(want)+1, "the first boundary opens the reset sequence")
	assert.Equal(t, want, got[1:])
	assert.Zero(t, b.Frame())
	scanline, _ := b.PPU.Position()
	assert.Equal(t, 241, scanline)
}

func TestBus_PCTrace_ShouldBeDeterministic(t *testing.T) {
	first := newTestBus(t, bootProgram...)
	second := newTestBus(t, bootProgram...)

	assert.Equal(t, tracePCs(first, 20000), tracePCs(second, 20000))
}

func TestBus_EndToEnd_ShouldRenderTilePattern(t *testing.T) {
	b := newTestBus(t, bootProgram...)

	ok := b.RunUntil(5*cyclesPerFrameBound, func() bool { return b.CPU.PC == bootIdle })
	require.True(t, ok, "boot program never reached its idle loop")
	assert.LessOrEqual(t, b.Frame(), uint64(3))

	b.StepFrame()
	b.StepFrame()

	want := make([]uint32, ppu.ScreenWidth*ppu.ScreenHeight)
	for y := 0; y < ppu.ScreenHeight; y++ {
		for x := 0; x < ppu.ScreenWidth; x++ {
			bit := 7 - x%8
			lo := bootTile[y%8] >> bit & 1
			hi := bootTile[8+y%8] >> bit & 1
			want[y*ppu.ScreenWidth+x] = ppu.NESColorToRGB(bootPalette[hi<<1|lo])
		}
	}
	got := b.FrameBuffer()
	assert.Equal(t, checksum(want), checksum(got[:]))
	// spot checks that stay readable on failure
	assert.Equal(t, ppu.NESColorToRGB(0x12), got[0], "top left is color 3")
	assert.Equal(t, ppu.NESColorToRGB(0x16), got[4], "color 1")
	assert.Equal(t, ppu.NESColorToRGB(0x2A), got[4*ppu.ScreenWidth], "color 2")
	assert.Equal(t, ppu.NESColorToRGB(0x21), got[4*ppu.ScreenWidth+4], "backdrop")
	assert.Equal(t, want[len(want)-1], got[len(got)-1])
}

func TestBus_StepFrame_ShouldAdvanceOneFrame(t *testing.T) {
	b := newTestBus(t, 0x4C, 0x00, 0x80)

	b.StepFrame()
	require.Equal(t, uint64(1), b.Frame())
	start := b.Cycles()

	b.StepFrame()
	assert.Equal(t, uint64(2), b.Frame())
	// 89342 dots, or 89341 on an odd rendered frame
	assert.InDelta(t, 29781, float64(b.Cycles()-start), 1)
}

func TestBus_AudioSamples_ShouldDrainOncePerCall(t *testing.T) {
	b := newTestBus(t, 0x4C, 0x00, 0x80)
	b.StepFrame()
	b.AudioSamples()

	b.StepFrame()
	count := 0
	for sample := range b.AudioSamples() {
		assert.GreaterOrEqual(t, sample, float32(0))
		count++
	}
	assert.InDelta(t, 734, count, 2)

	again := 0
	for range b.AudioSamples() {
		again++
	}
	assert.Zero(t, again)
}

func TestBus_SetControllerState_ShouldReachControllerPort(t *testing.T) {
	b := newTestBus(t, 0x4C, 0x00, 0x80)
	b.SetControllerState(0, 0x09) // A + Start

	b.Memory.Write(0x4016, 1)
	b.Memory.Write(0x4016, 0)

	var bits []uint8
	for i := 0; i < 8; i++ {
		bits = append(bits, b.Memory.Read(0x4016)&1)
	}
	assert.Equal(t, []uint8{1, 0, 0, 1, 0, 0, 0, 0}, bits)
}

func TestBus_FrameIRQ_ShouldAssertIRQLine(t *testing.T) {
	b := newTestBus(t, 0x4C, 0x00, 0x80)

	b.RunCycles(30000)
	assert.NotZero(t, b.IRQSources()&cpu.IRQFrameCounter)

	b.Memory.Read(0x4015)
	b.StepCycle()
	assert.Zero(t, b.IRQSources()&cpu.IRQFrameCounter)
}

func TestBus_IRQ_ShouldVectorWhenEnabled(t *testing.T) {
	b, err := NewForTesting(cartridge.NewTestROMBuilder().
		WithCode(0x8000,
			0x58,             // CLI
			0x4C, 0x01, 0x80, // JMP $8001
		).
		WithCode(0x9000,
			0xAD, 0x15, 0x40, // LDA $4015
			0x40, //             RTI
		).
		WithIRQVector(0x9000), Options{})
	require.NoError(t, err)

	ok := b.RunUntil(40000, func() bool { return b.CPU.PC == 0x9000 })
	assert.True(t, ok)
}

// fme7Program loads the FME-7 counter with 100, starts it with the IRQ
// enabled and spins. The handler acknowledges, stops the counter and counts
// its calls in $10.
var fme7Program = []uint8{
	0x78,       // E000 SEI
	0xA9, 0x0E, //       E001 LDA #$0E
	0x8D, 0x00, 0x80, // E003 STA $8000
	0xA9, 0x64, //       E006 LDA #100
	0x8D, 0x00, 0xA0, // E008 STA $A000
	0xA9, 0x0F, //       E00B LDA #$0F
	0x8D, 0x00, 0x80, // E00D STA $8000
	0xA9, 0x00, //       E010 LDA #$00
	0x8D, 0x00, 0xA0, // E012 STA $A000
	0xA9, 0x0D, //       E015 LDA #$0D
	0x8D, 0x00, 0x80, // E017 STA $8000
	0xA9, 0x81, //       E01A LDA #$81
	0x8D, 0x00, 0xA0, // E01C STA $A000
	0x58,             // E01F CLI
	0x4C, 0x20, 0xE0, // E020 JMP $E020
}

var fme7Handler = []uint8{
	0xA9, 0x00, //       E100 LDA #$00
	0x8D, 0x00, 0xA0, // E102 STA $A000
	0xE6, 0x10, //       E105 INC $10
	0x40, //             E107 RTI
}

func TestBus_MapperCycleIRQ_ShouldFireAfterCounterCycles(t *testing.T) {
	b, err := NewForTesting(cartridge.NewTestROMBuilder().
		WithMapper(69).
		WithCode(0xE000, fme7Program...).
		WithCode(0xE100, fme7Handler...).
		WithResetVector(0xE000).
		WithIRQVector(0xE100), Options{})
	require.NoError(t, err)

	// The hook at $E01F runs one cycle after the STA that started the
	// counter, which already counted that cycle.
	var started uint64
	b.SetInstructionHook(func(c *cpu.CPU) {
		if c.PC == 0xE01F && started == 0 {
			started = b.Cycles()
		}
	})
	ok := b.RunUntil(1000, func() bool { return b.IRQSources()&cpu.IRQMapper != 0 })
	require.True(t, ok, "mapper IRQ never asserted")
	require.NotZero(t, started)
	assert.Equal(t, started+100, b.Cycles(), "IRQ on the 101st counted cycle, when $0000 wraps")

	ok = b.RunUntil(20, func() bool { return b.CPU.PC == 0xE100 })
	require.True(t, ok, "CPU did not take the IRQ")

	b.RunCycles(2000)
	assert.Equal(t, uint8(1), b.Memory.Peek(0x0010), "handler ran once")
	assert.Zero(t, b.IRQSources()&cpu.IRQMapper)
}

func TestBus_Reset_ShouldKeepRAMAndRestart(t *testing.T) {
	b := newTestBus(t,
		0xA9, 0x42, // LDA #$42
		0x85, 0x10, // STA $10
		0x4C, 0x04, 0x80, // JMP $8004
	)
	b.RunCycles(100)

	b.Reset()
	b.RunCycles(7)
	assert.Equal(t, uint16(0x8000), b.CPU.PC)
	assert.Equal(t, uint8(0x42), b.Memory.Peek(0x0010))
}

func TestBus_JAM_ShouldKeepClockRunning(t *testing.T) {
	b := newTestBus(t, 0x02)

	b.StepFrame()
	assert.True(t, b.CPU.Jammed())
	b.StepFrame()
	assert.Equal(t, uint64(2), b.Frame())
}

func TestBus_NoCartridge_ShouldStillStep(t *testing.T) {
	b := New(Options{})

	assert.NotPanics(t, func() { b.StepFrame() })
	assert.Equal(t, uint64(1), b.Frame())
}

// upper bound on CPU cycles per frame
const cyclesPerFrameBound = 29782

func checksum(pixels []uint32) uint32 {
	buf := make([]byte, 0, len(pixels)*4)
	for _, p := range pixels {
		buf = append(buf, byte(p), byte(p>>8), byte(p>>16), byte(p>>24))
	}
	return crc32.ChecksumIEEE(buf)
}
