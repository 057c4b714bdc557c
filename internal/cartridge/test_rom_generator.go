package cartridge

import (
	"bytes"
	"fmt"
)

// TestROMConfig describes a synthetic cartridge image.
type TestROMConfig struct {
	PRGSize     uint16     // PRG ROM size in 16KB units
	CHRSize     uint16     // CHR ROM size in 8KB units (0 = CHR RAM)
	MapperID    uint16     // Mapper number
	Submapper   uint8      // Submapper, written only in NES 2.0 headers
	NES2        bool       // Emit a NES 2.0 header
	Mirroring   MirrorMode // Nametable mirroring
	HasBattery  bool       // Battery-backed PRG RAM
	TrainerData []uint8    // 512-byte trainer, nil for none
	Code        []codeBlock
	PRGFill     []prgBlock
	ResetVector uint16
	IRQVector   uint16
	NMIVector   uint16
	CHRData     []uint8 // CHR ROM initial data
	Trailing    []uint8 // bytes appended after CHR
}

type codeBlock struct {
	address uint16
	data    []uint8
}

type prgBlock struct {
	offset int
	data   []uint8
}

// TestROMBuilder provides a fluent interface for building test ROMs
type TestROMBuilder struct {
	config TestROMConfig
}

// NewTestROMBuilder returns a builder for a 16K NROM image with CHR ROM and
// every vector pointing at $8000.
func NewTestROMBuilder() *TestROMBuilder {
	return &TestROMBuilder{
		config: TestROMConfig{
			PRGSize:     1,
			CHRSize:     1,
			Mirroring:   MirrorHorizontal,
			ResetVector: 0x8000,
			IRQVector:   0x8000,
			NMIVector:   0x8000,
		},
	}
}

// WithPRGSize sets the PRG ROM size in 16KB units
func (b *TestROMBuilder) WithPRGSize(size uint16) *TestROMBuilder {
	b.config.PRGSize = size
	return b
}

// WithCHRSize sets the CHR ROM size in 8KB units (0 = CHR RAM)
func (b *TestROMBuilder) WithCHRSize(size uint16) *TestROMBuilder {
	b.config.CHRSize = size
	return b
}

// WithCHRRAM configures the ROM to use CHR RAM instead of CHR ROM
func (b *TestROMBuilder) WithCHRRAM() *TestROMBuilder {
	b.config.CHRSize = 0
	return b
}

// WithMapper sets the mapper ID
func (b *TestROMBuilder) WithMapper(mapperID uint16) *TestROMBuilder {
	b.config.MapperID = mapperID
	return b
}

// WithSubmapper sets the submapper and switches to a NES 2.0 header.
func (b *TestROMBuilder) WithSubmapper(sub uint8) *TestROMBuilder {
	b.config.Submapper = sub
	b.config.NES2 = true
	return b
}

// WithNES2 emits a NES 2.0 header.
func (b *TestROMBuilder) WithNES2() *TestROMBuilder {
	b.config.NES2 = true
	return b
}

// WithMirroring sets the nametable mirroring mode
func (b *TestROMBuilder) WithMirroring(mirroring MirrorMode) *TestROMBuilder {
	b.config.Mirroring = mirroring
	return b
}

// WithBattery marks PRG RAM as battery backed
func (b *TestROMBuilder) WithBattery() *TestROMBuilder {
	b.config.HasBattery = true
	return b
}

// WithTrainer adds a 512-byte trainer
func (b *TestROMBuilder) WithTrainer(data []uint8) *TestROMBuilder {
	b.config.TrainerData = make([]uint8, trainerSize)
	copy(b.config.TrainerData, data)
	return b
}

// WithCode places bytes at a CPU address as seen through the last PRG bank.
// For 16K images $8000 and $C000 are the same bytes.
func (b *TestROMBuilder) WithCode(address uint16, code ...uint8) *TestROMBuilder {
	b.config.Code = append(b.config.Code, codeBlock{address: address, data: append([]uint8(nil), code...)})
	return b
}

// WithPRGData places bytes at a raw PRG ROM offset.
func (b *TestROMBuilder) WithPRGData(offset int, data ...uint8) *TestROMBuilder {
	b.config.PRGFill = append(b.config.PRGFill, prgBlock{offset: offset, data: append([]uint8(nil), data...)})
	return b
}

// WithResetVector sets the reset vector
func (b *TestROMBuilder) WithResetVector(address uint16) *TestROMBuilder {
	b.config.ResetVector = address
	return b
}

// WithIRQVector sets the IRQ vector
func (b *TestROMBuilder) WithIRQVector(address uint16) *TestROMBuilder {
	b.config.IRQVector = address
	return b
}

// WithNMIVector sets the NMI vector
func (b *TestROMBuilder) WithNMIVector(address uint16) *TestROMBuilder {
	b.config.NMIVector = address
	return b
}

// WithCHRData sets the CHR ROM data
func (b *TestROMBuilder) WithCHRData(data []uint8) *TestROMBuilder {
	b.config.CHRData = append([]uint8(nil), data...)
	return b
}

// WithTrailing appends bytes after the last declared region.
func (b *TestROMBuilder) WithTrailing(data []uint8) *TestROMBuilder {
	b.config.Trailing = append([]uint8(nil), data...)
	return b
}

// Build generates the ROM image
func (b *TestROMBuilder) Build() ([]byte, error) {
	return GenerateTestROM(b.config)
}

// BuildCartridge generates and loads the ROM as a cartridge
func (b *TestROMBuilder) BuildCartridge() (*Cartridge, error) {
	return b.BuildCartridgeWithOptions(Options{})
}

// BuildCartridgeWithOptions generates the ROM and loads it with options.
func (b *TestROMBuilder) BuildCartridgeWithOptions(opts Options) (*Cartridge, error) {
	romData, err := b.Build()
	if err != nil {
		return nil, err
	}
	return LoadWithOptions(bytes.NewReader(romData), opts)
}

// GenerateTestROM creates an image from a configuration.
func GenerateTestROM(config TestROMConfig) ([]byte, error) {
	header, err := createINESHeader(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create iNES header: %w", err)
	}

	result := append([]byte{}, header...)
	result = append(result, config.TrainerData...)

	prgROM, err := createPRGROM(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create PRG ROM: %w", err)
	}
	result = append(result, prgROM...)

	if config.CHRSize > 0 {
		chrROM := make([]byte, int(config.CHRSize)*chrUnit)
		copy(chrROM, config.CHRData)
		result = append(result, chrROM...)
	}
	return append(result, config.Trailing...), nil
}

func createINESHeader(config TestROMConfig) ([]byte, error) {
	if config.PRGSize == 0 {
		return nil, fmt.Errorf("PRG ROM size cannot be zero")
	}
	if !config.NES2 && (config.PRGSize > 0xFF || config.CHRSize > 0xFF || config.MapperID > 0xFF) {
		return nil, fmt.Errorf("sizes or mapper %d need a NES 2.0 header", config.MapperID)
	}

	header := make([]byte, headerSize)
	copy(header[0:4], "NES\x1A")
	header[4] = uint8(config.PRGSize)
	header[5] = uint8(config.CHRSize)

	var flags6 uint8
	if config.Mirroring == MirrorVertical {
		flags6 |= 0x01
	}
	if config.HasBattery {
		flags6 |= 0x02
	}
	if config.TrainerData != nil {
		flags6 |= 0x04
	}
	if config.Mirroring == MirrorFourScreen {
		flags6 |= 0x08
	}
	flags6 |= uint8(config.MapperID&0x0F) << 4
	header[6] = flags6
	header[7] = uint8(config.MapperID & 0xF0)

	if config.NES2 {
		header[7] |= 0x08
		header[8] = uint8(config.MapperID>>8&0x0F) | config.Submapper<<4
		header[9] = uint8(config.PRGSize>>8&0x0F) | uint8(config.CHRSize>>8&0x0F)<<4
		header[10] = 0x07 // 8K PRG RAM
		if config.CHRSize == 0 {
			header[11] = 0x07 // 8K CHR RAM
		}
	}
	return header, nil
}

func createPRGROM(config TestROMConfig) ([]byte, error) {
	size := int(config.PRGSize) * prgUnit
	prgROM := make([]byte, size)

	for _, blk := range config.PRGFill {
		if blk.offset < 0 || blk.offset+len(blk.data) > size {
			return nil, fmt.Errorf("PRG data at offset %#x does not fit", blk.offset)
		}
		copy(prgROM[blk.offset:], blk.data)
	}
	for _, blk := range config.Code {
		if blk.address < 0x8000 {
			return nil, fmt.Errorf("code address %#04x is below $8000", blk.address)
		}
		for i, v := range blk.data {
			prgROM[cpuOffset(blk.address+uint16(i), size)] = v
		}
	}

	vectors := []uint16{config.NMIVector, config.ResetVector, config.IRQVector}
	for i, v := range vectors {
		off := size - 6 + i*2
		prgROM[off] = uint8(v)
		prgROM[off+1] = uint8(v >> 8)
	}
	return prgROM, nil
}

// cpuOffset maps a CPU address onto the end of a PRG image.
func cpuOffset(address uint16, size int) int {
	off := (int(address) - 0x10000) % size
	if off < 0 {
		off += size
	}
	return off
}
