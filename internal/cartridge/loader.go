package cartridge

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"cyclenes/internal/logger"
)

const (
	headerSize  = 16
	trainerSize = 512
	prgUnit     = 16 * 1024
	chrUnit     = 8 * 1024
)

// Options tune how a cartridge is assembled from an image.
type Options struct {
	// Policies overrides the board's bank policies when non-nil.
	Policies *BankPolicies
	// MMC3IRQ overrides the MMC3 IRQ revision selected from the submapper.
	MMC3IRQ MMC3IRQVariant
}

// LoadFromFile loads a cartridge from an iNES file
func LoadFromFile(filename string) (*Cartridge, error) {
	return LoadFromFileWithOptions(filename, Options{})
}

// LoadFromFileWithOptions loads a cartridge from an iNES file with options.
func LoadFromFileWithOptions(filename string, opts Options) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &LoadError{Op: "open", Err: err}
	}
	defer file.Close()

	return LoadWithOptions(file, opts)
}

// LoadFromBytes loads a cartridge from an in-memory image.
func LoadFromBytes(data []byte) (*Cartridge, error) {
	return LoadWithOptions(bytes.NewReader(data), Options{})
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	return LoadWithOptions(r, Options{})
}

// LoadWithOptions parses an iNES or NES 2.0 image and attaches its board.
func LoadWithOptions(r io.Reader, opts Options) (*Cartridge, error) {
	raw := make([]byte, headerSize)
	n, err := io.ReadFull(r, raw)
	if err != nil {
		if n < headerSize {
			return nil, &LoadError{Op: "header", Err: ErrHeaderTooShort}
		}
		return nil, &LoadError{Op: "header", Err: err}
	}

	header, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	info, ok := registry[header.MapperID]
	if !ok {
		return nil, &UnsupportedMapperError{Mapper: header.MapperID, Submapper: header.Submapper}
	}

	cart := &Cartridge{Header: header}

	if header.HasTrainer {
		cart.trainer = make([]uint8, trainerSize)
		if _, err := io.ReadFull(r, cart.trainer); err != nil {
			return nil, &LoadError{Op: "trainer", Err: ErrTruncatedTrain}
		}
	}

	cart.prgROM = make([]uint8, header.PRGROMBytes)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, &LoadError{Op: "prg", Err: fmt.Errorf("%w: want %d bytes", ErrTruncatedPRG, len(cart.prgROM))}
	}

	if header.CHRROMBytes > 0 {
		cart.chr = make([]uint8, header.CHRROMBytes)
		if _, err := io.ReadFull(r, cart.chr); err != nil {
			return nil, &LoadError{Op: "chr", Err: fmt.Errorf("%w: want %d bytes", ErrTruncatedCHR, len(cart.chr))}
		}
	} else {
		size := header.CHRRAMSize
		if size == 0 {
			size = chrUnit
		}
		cart.chr = make([]uint8, size)
		cart.chrIsRAM = true
	}

	if extra, _ := io.Copy(io.Discard, r); extra > 0 {
		cart.diagnose(DiagTrailingData, "%d bytes after CHR region ignored", extra)
	}

	ramSize := header.PRGRAMSize
	if ramSize < info.ramSize {
		ramSize = info.ramSize
	}
	cart.prgRAM = make([]uint8, ramSize)

	cart.checkSizes(info)

	policies := info.policies
	if opts.Policies != nil {
		policies = *opts.Policies
	}

	cart.mapper = info.new(cart, newBase(cart, info.name, policies), opts)

	logger.Logf(logger.TagCartridge, "mapper %d (%s) prg=%dK chr=%dK%s ram=%dK mirroring=%s battery=%v",
		header.MapperID, info.name, len(cart.prgROM)/1024, len(cart.chr)/1024,
		map[bool]string{true: " (RAM)", false: ""}[cart.chrIsRAM],
		len(cart.prgRAM)/1024, header.Mirroring, header.HasBattery)
	for _, d := range cart.Diagnostics {
		logger.Logf(logger.TagCartridge, "diagnostic %s", d)
	}

	return cart, nil
}

func parseHeader(raw []byte) (Header, error) {
	var h Header

	if string(raw[0:4]) != "NES\x1A" {
		return h, &LoadError{Op: "header", Err: ErrInvalidMagic}
	}

	flags6 := raw[6]
	flags7 := raw[7]

	h.HasBattery = flags6&0x02 != 0
	h.HasTrainer = flags6&0x04 != 0
	h.IsNES2 = flags7&0x0C == 0x08

	switch {
	case flags6&0x08 != 0:
		h.Mirroring = MirrorFourScreen
	case flags6&0x01 != 0:
		h.Mirroring = MirrorVertical
	default:
		h.Mirroring = MirrorHorizontal
	}

	if h.IsNES2 {
		h.MapperID = uint16(flags6>>4) | uint16(flags7&0xF0) | uint16(raw[8]&0x0F)<<8
		h.Submapper = raw[8] >> 4
		h.PRGROMBytes = nes2Size(raw[4], raw[9]&0x0F, prgUnit)
		h.CHRROMBytes = nes2Size(raw[5], raw[9]>>4, chrUnit)
		h.PRGRAMSize = shiftSize(raw[10]&0x0F) + shiftSize(raw[10]>>4)
		h.CHRRAMSize = shiftSize(raw[11]&0x0F) + shiftSize(raw[11]>>4)
	} else {
		h.MapperID = uint16(flags6 >> 4)
		// Images with garbage in bytes 12-15 predate the upper nibble.
		if raw[12]|raw[13]|raw[14]|raw[15] == 0 {
			h.MapperID |= uint16(flags7 & 0xF0)
		}
		h.PRGROMBytes = int(raw[4]) * prgUnit
		h.CHRROMBytes = int(raw[5]) * chrUnit
		h.PRGRAMSize = int(raw[8]) * 8 * 1024
	}

	h.PRGBanks = (h.PRGROMBytes + prgUnit - 1) / prgUnit
	h.CHRBanks = (h.CHRROMBytes + chrUnit - 1) / chrUnit

	if h.PRGBanks == 0 {
		return h, &LoadError{Op: "header", Err: ErrEmptyPRG}
	}
	return h, nil
}

// nes2Size decodes a NES 2.0 ROM size field into bytes.
func nes2Size(lsb, msb uint8, unit int) int {
	if msb != 0x0F {
		return (int(msb)<<8 | int(lsb)) * unit
	}
	exp := uint(lsb >> 2)
	mul := int(lsb&0x03)*2 + 1
	if exp > 30 {
		exp = 30
	}
	return (1 << exp) * mul
}

func shiftSize(n uint8) int {
	if n == 0 {
		return 0
	}
	return 64 << n
}

func (c *Cartridge) diagnose(kind DiagnosticKind, format string, args ...any) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// checkSizes reports regions that do not fit the board's bank units and
// zero-fills them up to the next whole unit.
func (c *Cartridge) checkSizes(info boardInfo) {
	if rem := len(c.prgROM) % info.prgBank; rem != 0 {
		c.diagnose(DiagPRGSize, "PRG ROM %d bytes is not a multiple of %d byte banks", len(c.prgROM), info.prgBank)
		c.prgROM = append(c.prgROM, make([]uint8, info.prgBank-rem)...)
	}
	if rem := len(c.chr) % info.chrBank; rem != 0 {
		c.diagnose(DiagCHRSize, "CHR %d bytes is not a multiple of %d byte banks", len(c.chr), info.chrBank)
		c.chr = append(c.chr, make([]uint8, info.chrBank-rem)...)
	}
	if info.maxCHR > 0 && len(c.chr) > info.maxCHR {
		c.diagnose(DiagCHRSize, "CHR %d bytes exceeds the %d bytes %s can address", len(c.chr), info.maxCHR, info.name)
	}
	if !c.chrIsRAM && len(c.chr) < chrUnit {
		c.diagnose(DiagCHRSize, "CHR ROM %d bytes is smaller than one 8K pattern set", len(c.chr))
	}
}
