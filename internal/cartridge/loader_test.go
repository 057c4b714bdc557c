package cartridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NROM16K_ShouldParseHeader(t *testing.T) {
	cart, err := NewTestROMBuilder().WithMirroring(MirrorVertical).BuildCartridge()
	require.NoError(t, err)

	assert.Equal(t, uint16(0), cart.MapperID())
	assert.Equal(t, "NROM", cart.Mapper().Name())
	assert.Equal(t, 16*1024, cart.PRGROMSize())
	assert.Equal(t, 8*1024, cart.CHRSize())
	assert.False(t, cart.HasCHRRAM())
	assert.Equal(t, MirrorVertical, cart.GetMirrorMode())
	assert.Empty(t, cart.Diagnostics)
}

func TestLoad_HeaderTooShort_ShouldFail(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("NES"), make([]byte, 15)} {
		_, err := LoadFromBytes(data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrHeaderTooShort), "got %v", err)

		var le *LoadError
		assert.True(t, errors.As(err, &le))
	}
}

func TestLoad_BadMagic_ShouldFail(t *testing.T) {
	data, err := NewTestROMBuilder().Build()
	require.NoError(t, err)
	data[3] = 0x00

	_, err = LoadFromBytes(data)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestLoad_ZeroPRG_ShouldFail(t *testing.T) {
	data := make([]byte, 16+8192)
	copy(data, "NES\x1A")
	data[5] = 1

	_, err := LoadFromBytes(data)
	assert.ErrorIs(t, err, ErrEmptyPRG)
}

func TestLoad_TruncatedRegions_ShouldFail(t *testing.T) {
	data, err := NewTestROMBuilder().Build()
	require.NoError(t, err)

	_, err = LoadFromBytes(data[:16+100])
	assert.ErrorIs(t, err, ErrTruncatedPRG)

	_, err = LoadFromBytes(data[:16+16384+10])
	assert.ErrorIs(t, err, ErrTruncatedCHR)

	trained, err := NewTestROMBuilder().WithTrainer([]uint8{0xAA}).Build()
	require.NoError(t, err)
	_, err = LoadFromBytes(trained[:16+200])
	assert.ErrorIs(t, err, ErrTruncatedTrain)
}

func TestLoad_UnknownMapper_ShouldReturnUnsupportedMapperError(t *testing.T) {
	_, err := NewTestROMBuilder().WithMapper(200).BuildCartridge()
	var ume *UnsupportedMapperError
	require.True(t, errors.As(err, &ume), "got %v", err)
	assert.Equal(t, uint16(200), ume.Mapper)

	_, err = NewTestROMBuilder().WithMapper(300).WithSubmapper(2).BuildCartridge()
	require.True(t, errors.As(err, &ume), "got %v", err)
	assert.Equal(t, uint16(300), ume.Mapper)
	assert.Equal(t, uint8(2), ume.Submapper)
	assert.Contains(t, ume.Error(), "submapper 2")
}

func TestLoad_NoCHR_ShouldAllocateCHRRAM(t *testing.T) {
	cart, err := NewTestROMBuilder().WithMapper(2).WithPRGSize(8).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)

	assert.True(t, cart.HasCHRRAM())
	assert.Equal(t, 8*1024, cart.CHRSize())

	cart.WriteCHR(0x0123, 0x5A)
	assert.Equal(t, uint8(0x5A), cart.ReadCHR(0x0123))
}

func TestLoad_CHRROM_ShouldIgnoreWrites(t *testing.T) {
	cart, err := NewTestROMBuilder().WithCHRData([]uint8{0x11, 0x22}).BuildCartridge()
	require.NoError(t, err)

	cart.WriteCHR(0x0000, 0xFF)
	assert.Equal(t, uint8(0x11), cart.ReadCHR(0x0000))
}

func TestLoad_Trainer_ShouldBeKept(t *testing.T) {
	cart, err := NewTestROMBuilder().WithTrainer([]uint8{0xAA, 0xBB}).WithCode(0x8000, 0xEA).BuildCartridge()
	require.NoError(t, err)

	require.Len(t, cart.Trainer(), 512)
	assert.Equal(t, uint8(0xBB), cart.Trainer()[1])
	v, ok := cart.ReadPRG(0x8000)
	assert.True(t, ok)
	assert.Equal(t, uint8(0xEA), v)
}

func TestLoad_TrailingData_ShouldDiagnose(t *testing.T) {
	cart, err := NewTestROMBuilder().WithTrailing(make([]uint8, 128)).BuildCartridge()
	require.NoError(t, err)

	require.Len(t, cart.Diagnostics, 1)
	assert.Equal(t, DiagTrailingData, cart.Diagnostics[0].Kind)
}

func TestLoad_NROMWithOversizedCHR_ShouldDiagnose(t *testing.T) {
	cart, err := NewTestROMBuilder().WithCHRSize(2).BuildCartridge()
	require.NoError(t, err)

	require.NotEmpty(t, cart.Diagnostics)
	assert.Equal(t, DiagCHRSize, cart.Diagnostics[0].Kind)
}

func TestLoad_GarbageTail_ShouldIgnoreUpperMapperNibble(t *testing.T) {
	data, err := NewTestROMBuilder().WithMapper(0x42).Build()
	require.NoError(t, err)
	copy(data[7:16], "\x40DiskDude")
	data[7] = 0x40

	cart, err := LoadFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), cart.MapperID())
}

func TestLoad_NES2_ShouldReadSubmapperAndRAMSizes(t *testing.T) {
	cart, err := NewTestROMBuilder().WithMapper(71).WithSubmapper(1).WithCHRRAM().BuildCartridge()
	require.NoError(t, err)

	assert.True(t, cart.Header.IsNES2)
	assert.Equal(t, uint8(1), cart.Header.Submapper)
	assert.Equal(t, 8*1024, cart.Header.PRGRAMSize)
	assert.Equal(t, 8*1024, cart.Header.CHRRAMSize)
}

func TestNES2Size_ExponentNotation(t *testing.T) {
	assert.Equal(t, 2*prgUnit, nes2Size(2, 0, prgUnit))
	assert.Equal(t, 0x102*chrUnit, nes2Size(2, 1, chrUnit))
	// 2^10 * (1*2+1)
	assert.Equal(t, 3*1024, nes2Size(10<<2|1, 0x0F, prgUnit))
}

func TestBatteryRAM_ShouldRoundTrip(t *testing.T) {
	cart, err := NewTestROMBuilder().WithBattery().BuildCartridge()
	require.NoError(t, err)

	cart.WritePRG(0x6010, 0x99)
	saved := append([]uint8(nil), cart.BatteryRAM()...)

	other, err := NewTestROMBuilder().WithBattery().BuildCartridge()
	require.NoError(t, err)
	require.NoError(t, other.LoadBatteryRAM(saved))

	v, ok := other.ReadPRG(0x6010)
	assert.True(t, ok)
	assert.Equal(t, uint8(0x99), v)

	assert.Error(t, other.LoadBatteryRAM(saved[:10]))

	plain, err := NewTestROMBuilder().BuildCartridge()
	require.NoError(t, err)
	assert.Nil(t, plain.BatteryRAM())
	assert.Error(t, plain.LoadBatteryRAM(saved))
}

func TestSupportedMappers_ShouldListRegistry(t *testing.T) {
	names := SupportedMappers()
	for _, id := range []uint16{0, 1, 2, 3, 4, 5, 7, 9, 10, 11, 34, 66, 69, 71} {
		assert.True(t, Supported(id), "mapper %d", id)
		assert.NotEmpty(t, names[id])
	}
	assert.False(t, Supported(6))
}

func TestParseBankPolicy(t *testing.T) {
	p, err := ParseBankPolicy("openbus")
	require.NoError(t, err)
	assert.Equal(t, BankOpenBus, p)
	assert.Equal(t, "wrap", BankWrap.String())

	_, err = ParseBankPolicy("mirror")
	assert.Error(t, err)
}

func TestBankOffset(t *testing.T) {
	tests := []struct {
		name   string
		bank   int
		policy BankPolicy
		want   int
		ok     bool
	}{
		{"first", 0, BankWrap, 0x10, true},
		{"last by negative index", -1, BankWrap, 3*0x4000 + 0x10, true},
		{"second last", -2, BankWrap, 2*0x4000 + 0x10, true},
		{"wraps", 5, BankWrap, 1*0x4000 + 0x10, true},
		{"open bus past end", 4, BankOpenBus, 0, false},
		{"open bus in range", 3, BankOpenBus, 3*0x4000 + 0x10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bankOffset(0x10000, 0x4000, tt.bank, 0x8010, tt.policy)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	_, ok := bankOffset(0, 0x2000, 0, 0, BankWrap)
	assert.False(t, ok, "empty region")
}
