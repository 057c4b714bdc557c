package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// markedBuilder returns a builder whose PRG banks of bankSize bytes start
// with their own index.
func markedBuilder(mapper uint16, prgUnits uint16, bankSize int) *TestROMBuilder {
	b := NewTestROMBuilder().WithMapper(mapper).WithPRGSize(prgUnits)
	for i := 0; i < int(prgUnits)*prgUnit/bankSize; i++ {
		b.WithPRGData(i*bankSize, uint8(i))
	}
	return b
}

// markedCHR fills a CHR image so that every byte holds the index of the
// bankSize bank it sits in.
func markedCHR(size, bankSize int) []uint8 {
	chr := make([]uint8, size)
	for i := range chr {
		chr[i] = uint8(i / bankSize)
	}
	return chr
}

func readPRG(t *testing.T, c *Cartridge, address uint16) uint8 {
	t.Helper()
	v, ok := c.ReadPRG(address)
	require.True(t, ok, "open bus at $%04X", address)
	return v
}

func TestMapper000_ReadPRG_16KBROMShouldMirror(t *testing.T) {
	cart, err := NewTestROMBuilder().WithPRGData(0x0000, 0x11).WithPRGData(0x3FF0, 0x22).BuildCartridge()
	require.NoError(t, err)

	assert.Equal(t, uint8(0x11), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(0x11), readPRG(t, cart, 0xC000))
	assert.Equal(t, uint8(0x22), readPRG(t, cart, 0xFFF0))
}

func TestMapper000_ReadPRG_32KBROMShouldNotMirror(t *testing.T) {
	cart, err := markedBuilder(0, 2, 16*kb).BuildCartridge()
	require.NoError(t, err)

	assert.Equal(t, uint8(0), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(1), readPRG(t, cart, 0xC000))
}

func TestMapper000_PRGRAMAndOpenBus(t *testing.T) {
	cart, err := NewTestROMBuilder().BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0x6000, 0x42)
	cart.WritePRG(0x8000, 0x99)
	assert.Equal(t, uint8(0x42), readPRG(t, cart, 0x6000))
	assert.Equal(t, uint8(0x00), readPRG(t, cart, 0x8000))

	_, ok := cart.ReadPRG(0x5000)
	assert.False(t, ok)
}

// mmc1Write loads a register through the serial port, with idle cycles
// between writes.
func mmc1Write(c *Cartridge, address uint16, value uint8) {
	m := c.Mapper()
	for i := 0; i < 5; i++ {
		m.WritePRG(address, value>>i&1)
		m.CPUCycle()
		m.CPUCycle()
	}
}

func TestMapper001_PowerOnShouldFixLastBank(t *testing.T) {
	cart, err := markedBuilder(1, 8, 16*kb).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)

	assert.Equal(t, uint8(0), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(7), readPRG(t, cart, 0xC000))
}

func TestMapper001_SerialWritesShouldSwitchBanks(t *testing.T) {
	cart, err := markedBuilder(1, 8, 16*kb).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)

	mmc1Write(cart, 0xE000, 3)
	assert.Equal(t, uint8(3), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(7), readPRG(t, cart, 0xC000))

	// mode 2: $8000 fixed to the first bank, $C000 switchable
	mmc1Write(cart, 0x8000, 0x08)
	assert.Equal(t, uint8(0), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(3), readPRG(t, cart, 0xC000))

	// 32K mode ignores the low bit
	mmc1Write(cart, 0x8000, 0x00)
	assert.Equal(t, uint8(2), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(3), readPRG(t, cart, 0xC000))
}

func TestMapper001_ConsecutiveWritesShouldBeIgnored(t *testing.T) {
	cart, err := markedBuilder(1, 8, 16*kb).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)
	m := cart.Mapper().(*Mapper001)

	m.WritePRG(0x8000, 1)
	m.CPUCycle()
	m.WritePRG(0x8000, 1) // second write of a read-modify-write
	m.CPUCycle()

	assert.Equal(t, uint8(0x18), m.regs.Shift)
}

func TestMapper001_ResetBitShouldClearShiftAndForceMode3(t *testing.T) {
	cart, err := markedBuilder(1, 8, 16*kb).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)
	m := cart.Mapper().(*Mapper001)

	mmc1Write(cart, 0x8000, 0x00)
	m.WritePRG(0x8000, 1)
	m.CPUCycle()
	m.CPUCycle()
	m.WritePRG(0x8000, 0x80)

	assert.Equal(t, uint8(mmc1ShiftEmpty), m.regs.Shift)
	assert.Equal(t, uint8(0x0C), m.regs.Control&0x0C)
}

func TestMapper001_MirroringAndRAMEnable(t *testing.T) {
	cart, err := markedBuilder(1, 8, 16*kb).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)

	mmc1Write(cart, 0x8000, 0x0E)
	assert.Equal(t, MirrorVertical, cart.GetMirrorMode())
	mmc1Write(cart, 0x8000, 0x0C)
	assert.Equal(t, MirrorSingleScreen0, cart.GetMirrorMode())

	cart.WritePRG(0x6000, 0x55)
	assert.Equal(t, uint8(0x55), readPRG(t, cart, 0x6000))

	mmc1Write(cart, 0xE000, 0x10)
	_, ok := cart.ReadPRG(0x6000)
	assert.False(t, ok, "disabled RAM reads open bus")
}

func TestMapper001_CHR4KMode(t *testing.T) {
	cart, err := NewTestROMBuilder().WithMapper(1).WithPRGSize(2).WithCHRSize(4).
		WithCHRData(markedCHR(32*kb, 4*kb)).BuildCartridge()
	require.NoError(t, err)

	mmc1Write(cart, 0x8000, 0x1C)
	mmc1Write(cart, 0xA000, 5)
	mmc1Write(cart, 0xC000, 2)
	assert.Equal(t, uint8(5), cart.ReadCHR(0x0000))
	assert.Equal(t, uint8(2), cart.ReadCHR(0x1000))

	mmc1Write(cart, 0x8000, 0x0C)
	assert.Equal(t, uint8(4), cart.ReadCHR(0x0000))
	assert.Equal(t, uint8(5), cart.ReadCHR(0x1000))
}

func TestMapper001_SaveStateRoundTrip(t *testing.T) {
	build := func() *Cartridge {
		cart, err := markedBuilder(1, 8, 16*kb).WithCHRRAM().BuildCartridge()
		require.NoError(t, err)
		return cart
	}
	cart := build()
	mmc1Write(cart, 0xE000, 5)
	mmc1Write(cart, 0x8000, 0x0F)

	data, err := cart.Mapper().SaveState()
	require.NoError(t, err)

	other := build()
	require.NoError(t, other.Mapper().LoadState(data))
	assert.Equal(t, uint8(5), readPRG(t, other, 0x8000))
	assert.Equal(t, MirrorHorizontal, other.GetMirrorMode())

	uxrom, err := NewTestROMBuilder().WithMapper(2).BuildCartridge()
	require.NoError(t, err)
	assert.Error(t, uxrom.Mapper().LoadState(data), "state from another board")
}

func TestMapper002_BankSwitchAndFixedLastBank(t *testing.T) {
	cart, err := markedBuilder(2, 8, 16*kb).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0x8000, 2)
	assert.Equal(t, uint8(2), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(7), readPRG(t, cart, 0xC000))

	cart.WritePRG(0xFFFF, 9)
	assert.Equal(t, uint8(1), readPRG(t, cart, 0x8000), "bank index wraps")
}

func TestMapper002_OpenBusPolicyOverride(t *testing.T) {
	p := Uniform(BankOpenBus)
	cart, err := markedBuilder(2, 8, 16*kb).WithCHRRAM().BuildCartridgeWithOptions(Options{Policies: &p})
	require.NoError(t, err)

	cart.WritePRG(0x8000, 9)
	_, ok := cart.ReadPRG(0x8000)
	assert.False(t, ok)
	assert.Equal(t, uint8(7), readPRG(t, cart, 0xC000))
}

func TestMapper003_CHRBankSwitch(t *testing.T) {
	cart, err := NewTestROMBuilder().WithMapper(3).WithCHRSize(4).
		WithCHRData(markedCHR(32*kb, 8*kb)).BuildCartridge()
	require.NoError(t, err)

	assert.Equal(t, uint8(0), cart.ReadCHR(0x1000))
	cart.WritePRG(0x8000, 2)
	assert.Equal(t, uint8(2), cart.ReadCHR(0x1000))
	cart.WritePRG(0x8000, 6)
	assert.Equal(t, uint8(2), cart.ReadCHR(0x0000))
}

func TestMapper007_BankAndSingleScreen(t *testing.T) {
	cart, err := markedBuilder(7, 8, 32*kb).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)

	assert.Equal(t, MirrorSingleScreen0, cart.GetMirrorMode())
	cart.WritePRG(0x8000, 0x12)
	assert.Equal(t, uint8(2), readPRG(t, cart, 0x8000))
	assert.Equal(t, MirrorSingleScreen1, cart.GetMirrorMode())
	assert.Equal(t, 1, cart.Mapper().NametablePage(0))
	assert.Equal(t, 1, cart.Mapper().NametablePage(3))
}

func TestMapper011_OutOfRangeBanksReadOpenBus(t *testing.T) {
	cart, err := markedBuilder(11, 4, 32*kb).WithCHRSize(2).
		WithCHRData(markedCHR(16*kb, 8*kb)).BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0x8000, 0x11)
	assert.Equal(t, uint8(1), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(1), cart.ReadCHR(0x0000))

	cart.WritePRG(0x8000, 0x23)
	_, ok := cart.ReadPRG(0x8000)
	assert.False(t, ok)
	assert.Equal(t, uint8(0x34), cart.ReadCHR(0x0034), "undriven CHR reads return the address low byte")
}

func TestMapper066_Register(t *testing.T) {
	cart, err := markedBuilder(66, 8, 32*kb).WithCHRSize(4).
		WithCHRData(markedCHR(32*kb, 8*kb)).BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0x8000, 0x21)
	assert.Equal(t, uint8(2), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(1), cart.ReadCHR(0x0000))
}

func TestMapper034_BNROM(t *testing.T) {
	cart, err := markedBuilder(34, 8, 32*kb).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0x8000, 3)
	assert.Equal(t, uint8(3), readPRG(t, cart, 0x8000))

	cart.WriteCHR(0x1234, 0x77)
	assert.Equal(t, uint8(0x77), cart.ReadCHR(0x1234))
}

func TestMapper034_NINA001(t *testing.T) {
	cart, err := markedBuilder(34, 4, 32*kb).WithCHRSize(8).
		WithCHRData(markedCHR(64*kb, 4*kb)).BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0x7FFD, 1)
	cart.WritePRG(0x7FFE, 3)
	cart.WritePRG(0x7FFF, 5)
	cart.WritePRG(0x8000, 0) // not a register on this board

	assert.Equal(t, uint8(1), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(3), cart.ReadCHR(0x0000))
	assert.Equal(t, uint8(5), cart.ReadCHR(0x1000))
	assert.Equal(t, uint8(5), readPRG(t, cart, 0x7FFF), "registers also land in RAM")
}

func TestMapper071_Camerica(t *testing.T) {
	cart, err := markedBuilder(71, 8, 16*kb).WithCHRRAM().WithSubmapper(1).BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0xC000, 4)
	assert.Equal(t, uint8(4), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(7), readPRG(t, cart, 0xC000))

	cart.WritePRG(0x9000, 0x10)
	assert.Equal(t, MirrorSingleScreen1, cart.GetMirrorMode())

	plain, err := markedBuilder(71, 8, 16*kb).WithCHRRAM().WithMirroring(MirrorVertical).BuildCartridge()
	require.NoError(t, err)
	plain.WritePRG(0x9000, 0x10)
	assert.Equal(t, MirrorVertical, plain.GetMirrorMode())
}

func TestMapper009_LatchSwitchesAfterFetch(t *testing.T) {
	chr := markedCHR(32*kb, 4*kb)
	cart, err := markedBuilder(9, 8, 8*kb).WithCHRSize(4).WithCHRData(chr).BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0xB000, 1) // $0000 when latch is $FD
	cart.WritePRG(0xC000, 2) // $0000 when latch is $FE
	cart.WritePRG(0xD000, 3)
	cart.WritePRG(0xE000, 4)

	assert.Equal(t, uint8(2), cart.ReadCHR(0x0000))
	assert.Equal(t, uint8(2), cart.ReadCHR(0x0FD8), "trigger fetch uses the old bank")
	assert.Equal(t, uint8(1), cart.ReadCHR(0x0000))

	assert.Equal(t, uint8(1), cart.ReadCHR(0x0FD9), "MMC2 only decodes $0FD8")
	cart.ReadCHR(0x0FE8)
	assert.Equal(t, uint8(2), cart.ReadCHR(0x0000))

	assert.Equal(t, uint8(4), cart.ReadCHR(0x1000))
	cart.ReadCHR(0x1FDA)
	assert.Equal(t, uint8(3), cart.ReadCHR(0x1000))
}

func TestMapper009_PRGLayout(t *testing.T) {
	cart, err := markedBuilder(9, 8, 8*kb).WithCHRSize(4).BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0xA000, 5)
	assert.Equal(t, uint8(5), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(13), readPRG(t, cart, 0xA000))
	assert.Equal(t, uint8(14), readPRG(t, cart, 0xC000))
	assert.Equal(t, uint8(15), readPRG(t, cart, 0xE000))

	cart.WritePRG(0xF000, 1)
	assert.Equal(t, MirrorHorizontal, cart.GetMirrorMode())
}

func TestMapper010_LatchDecodesWholeRow(t *testing.T) {
	cart, err := markedBuilder(10, 8, 16*kb).WithCHRSize(4).
		WithCHRData(markedCHR(32*kb, 4*kb)).BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0xB000, 1)
	cart.WritePRG(0xC000, 2)
	cart.ReadCHR(0x0FDB)
	assert.Equal(t, uint8(1), cart.ReadCHR(0x0000))

	cart.WritePRG(0xA000, 3)
	assert.Equal(t, uint8(3), readPRG(t, cart, 0x8000))
	assert.Equal(t, uint8(7), readPRG(t, cart, 0xC000))
}
