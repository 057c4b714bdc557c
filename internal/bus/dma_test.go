package bus

import (
	"testing"

	"cyclenes/internal/cartridge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	// $4014 written on an even cycle
	oamEvenProgram = []uint8{
		0xA9, 0x02, //       LDA #$02
		0x8D, 0x14, 0x40, // STA $4014
		0x4C, 0x05, 0x80, // JMP $8005
	}
	// a three cycle LDA shifts the write to an odd cycle
	oamOddProgram = []uint8{
		0xA5, 0x00, //       LDA $00
		0xA9, 0x02, //       LDA #$02
		0x8D, 0x14, 0x40, // STA $4014
		0x4C, 0x07, 0x80, // JMP $8007
	}
)

// measureOAMDMA runs until the $4014 write and returns the cycle index of
// the write and the cycles the transfer took.
func measureOAMDMA(t *testing.T, b *Bus) (writeCycle uint64, length uint64) {
	t.Helper()
	require.True(t, b.RunUntil(100, b.DMAActive), "no OAM DMA started")
	writeCycle = b.Cycles() - 1
	start := b.DMACycles()
	pc := b.CPU.PC

	for b.DMAActive() {
		b.StepCycle()
		require.Equal(t, pc, b.CPU.PC, "CPU advanced during DMA")
	}
	return writeCycle, b.DMACycles() - start
}

func TestDMA_OAMOnEvenCycle_ShouldTake513Cycles(t *testing.T) {
	b := newTestBus(t, oamEvenProgram...)

	write, n := measureOAMDMA(t, b)
	assert.Zero(t, write&1)
	assert.Equal(t, uint64(513), n)
}

func TestDMA_OAMOnOddCycle_ShouldTake514Cycles(t *testing.T) {
	b := newTestBus(t, oamOddProgram...)

	write, n := measureOAMDMA(t, b)
	assert.Equal(t, uint64(1), write&1)
	assert.Equal(t, uint64(514), n)
}

func TestDMA_OAM_ShouldCopyPageIntoOAM(t *testing.T) {
	b := newTestBus(t, oamEvenProgram...)
	measureOAMDMA(t, b)

	oam := b.PPU.OAM()
	for i := 0; i < 256; i++ {
		require.Equal(t, b.Memory.Peek(0x0200+uint16(i)), oam[i], "OAM byte %d", i)
	}
}

func TestDMA_OAM_ShouldResumeCPUAfterTransfer(t *testing.T) {
	b := newTestBus(t, oamEvenProgram...)
	measureOAMDMA(t, b)

	b.RunCycles(3)
	assert.Equal(t, uint16(0x8005), b.CPU.PC)
	assert.True(t, b.CPU.AtInstructionBoundary())
}

func TestDMA_DMCLoad_ShouldStealThreeOrFourCycles(t *testing.T) {
	b := newTestBus(t,
		0xA9, 0x00, //       LDA #$00
		0x8D, 0x13, 0x40, // STA $4013
		0xA9, 0x10, //       LDA #$10
		0x8D, 0x15, 0x40, // STA $4015
		0x4C, 0x0A, 0x80, // JMP $800A
	)
	require.True(t, b.RunUntil(100, func() bool {
		return b.CPU.PC == 0x800A && b.CPU.AtInstructionBoundary()
	}))
	require.NotZero(t, b.APU.ReadStatus()&0x10, "DMC should be active before its fetch")

	start := b.DMACycles()
	b.RunCycles(50)

	stolen := b.DMACycles() - start
	assert.Contains(t, []uint64{3, 4}, stolen)
	assert.Zero(t, b.APU.ReadStatus()&0x10, "one-byte sample should be fetched")
}

func TestDMA_DMCDuringOAM_ShouldAddTwoCycles(t *testing.T) {
	b := newTestBus(t, oamEvenProgram...)
	_, base := measureOAMDMA(t, b)

	b = newTestBus(t, oamEvenProgram...)
	require.True(t, b.RunUntil(100, b.DMAActive))
	b.APU.WriteRegister(0x4013, 0x00)
	b.APU.WriteRegister(0x4015, 0x10)
	start := b.DMACycles()
	for b.DMAActive() {
		b.StepCycle()
	}

	assert.Equal(t, base+2, b.DMACycles()-start)
	assert.Zero(t, b.APU.ReadStatus()&0x10)
}

// haltOnControllerRead stops with the CPU about to read $4016, latches the
// controllers and runs an OAM DMA over that read. It returns how many bits
// were shifted out once the CPU has made its read.
func haltOnControllerRead(t *testing.T, mode HaltRead) uint8 {
	t.Helper()
	b, err := NewForTesting(cartridge.NewTestROMBuilder().WithCode(0x8000,
		0xAD, 0x16, 0x40, // LDA $4016
		0x4C, 0x00, 0x80, // JMP $8000
	), Options{DMAHaltRead: mode})
	require.NoError(t, err)

	b.RunCycles(7)
	ok := b.RunUntil(20, func() bool {
		address, write := b.CPU.NextAccess()
		return address == 0x4016 && !write
	})
	require.True(t, ok)

	b.Input.Write(1)
	b.Input.Write(0)
	b.startOAMDMA(0x02)
	for b.DMAActive() {
		b.StepCycle()
	}
	b.StepCycle()
	return b.Input.SaveState().Ports[0].Reads
}

func TestDMA_HaltReadsCPUAddress_ShouldDoubleClockController(t *testing.T) {
	assert.GreaterOrEqual(t, haltOnControllerRead(t, HaltReadsCPUAddress), uint8(2))
}

func TestDMA_HaltReadsOpenBus_ShouldClockControllerOnce(t *testing.T) {
	assert.Equal(t, uint8(1), haltOnControllerRead(t, HaltReadsOpenBus))
}

func TestDMA_HaltOnWriteCycle_ShouldWaitForRead(t *testing.T) {
	b := newTestBus(t,
		0x8D, 0x00, 0x03, // STA $0300
		0x4C, 0x00, 0x80, // JMP $8000
	)
	b.RunCycles(7 + 3)
	_, write := b.CPU.NextAccess()
	require.True(t, write)

	b.startOAMDMA(0x02)
	b.StepCycle()
	assert.Zero(t, b.DMACycles(), "DMA must not halt on a write cycle")
	assert.False(t, b.dma.halted)

	b.StepCycle()
	assert.Equal(t, uint64(1), b.DMACycles())
}

func TestParseHaltRead_ShouldAcceptConfigNames(t *testing.T) {
	h, err := ParseHaltRead("openbus")
	require.NoError(t, err)
	assert.Equal(t, HaltReadsOpenBus, h)

	h, err = ParseHaltRead("")
	require.NoError(t, err)
	assert.Equal(t, HaltReadsCPUAddress, h)
	assert.Equal(t, "cpu", h.String())

	_, err = ParseHaltRead("sometimes")
	assert.Error(t, err)
}
