package cartridge

import "fmt"

const (
	mmc5ExRAMSize = 1024

	// Fetch indexes within a scanline, counted from the nametable read that
	// completes scanline detection. Each tile is four accesses.
	mmc5SpriteFetchStart = 128
	mmc5SpriteFetchEnd   = 160
)

// ExRAM modes ($5104).
const (
	mmc5ExRAMNametable = iota
	mmc5ExRAMExtAttr
	mmc5ExRAMReadWrite
	mmc5ExRAMReadOnly
)

// Nametable sources ($5105).
const (
	mmc5NTCIRAMA = iota
	mmc5NTCIRAMB
	mmc5NTExRAM
	mmc5NTFill
)

// Mapper005 implements ExROM boards built around the MMC5.
//
// The MMC5 has no view of the PPU's dot counter. It infers scanlines from
// the PPU bus: three reads in a row of the same nametable address happen
// only at the end of each rendered line. Once a line has been detected it
// counts accesses to tell background fetches from sprite fetches. The
// expansion audio channels are not emulated.
type Mapper005 struct {
	baseMapper
	regs mmc5Registers

	bgFetch     bool
	spriteFetch bool
}

type mmc5Registers struct {
	PRGMode    uint8
	CHRMode    uint8
	RAMProtect [2]uint8
	ExRAMMode  uint8
	NTMapping  uint8
	FillTile   uint8
	FillColor  uint8
	PRG        [5]uint8 // $5113-$5117
	CHRA       [8]uint16
	CHRB       [4]uint16
	UpperCHR   uint8
	LastWriteB bool

	Multiplicand uint8
	Multiplier   uint8

	IRQTarget  uint8
	IRQEnabled bool
	IRQPending bool
	InFrame    bool
	Scanline   uint8
	MatchCount uint8
	PrevAddr   uint16
	FetchIndex int
	IdleCycles uint8
	PPURead    bool
	ExAttr     uint8

	Sprites8x16 bool
	Rendering   bool

	ExRAM []byte
}

func newMapper005(cart *Cartridge, b baseMapper, opts Options) Mapper {
	m := &Mapper005{baseMapper: b}
	m.mirroring = MirrorMapperControlled
	m.regs.PRGMode = 3
	m.regs.PRG[4] = 0xFF
	m.regs.Multiplicand = 0xFF
	m.regs.Multiplier = 0xFF
	m.regs.ExRAM = make([]byte, mmc5ExRAMSize)
	return m
}

// prgTarget resolves a $6000-$FFFF address to a bank register value and the
// bank's size in 8K units.
func (m *Mapper005) prgTarget(address uint16) (reg uint8, units int) {
	if address < 0x8000 {
		return m.regs.PRG[0] & 0x7F, 1
	}
	switch m.regs.PRGMode & 3 {
	case 0:
		return m.regs.PRG[4] | 0x80, 4
	case 1:
		if address < 0xC000 {
			return m.regs.PRG[2], 2
		}
		return m.regs.PRG[4] | 0x80, 2
	case 2:
		switch {
		case address < 0xC000:
			return m.regs.PRG[2], 2
		case address < 0xE000:
			return m.regs.PRG[3], 1
		}
		return m.regs.PRG[4] | 0x80, 1
	}
	slot := int(address-0x8000) / (8 * kb)
	reg = m.regs.PRG[1+slot]
	if slot == 3 {
		reg |= 0x80
	}
	return reg, 1
}

// prgBank returns the 8K bank for an address and whether it is ROM. RAM
// banks use the low three bits.
func (m *Mapper005) prgBank(address uint16) (bank int, rom bool) {
	reg, units := m.prgTarget(address)
	base := int(reg&0x7F) &^ (units - 1)
	within := int(address&0x7FFF) / (8 * kb) % units
	if address < 0x8000 {
		within = 0
	}
	if reg&0x80 == 0 {
		return (base + within) & 7, false
	}
	return base + within, true
}

func (m *Mapper005) ramWritable() bool {
	return m.regs.RAMProtect[0]&3 == 2 && m.regs.RAMProtect[1]&3 == 1
}

func (m *Mapper005) ReadPRG(address uint16) (uint8, bool) {
	switch {
	case address >= 0x6000:
		bank, rom := m.prgBank(address)
		if rom {
			return m.readPRGROM(bank, 8*kb, address)
		}
		return m.readRAM(bank, 8*kb, address)
	case address >= 0x5C00:
		if m.regs.ExRAMMode < mmc5ExRAMReadWrite {
			return 0, false
		}
		return m.regs.ExRAM[address-0x5C00], true
	case address == 0x5204:
		var v uint8
		if m.regs.IRQPending {
			v |= 0x80
		}
		if m.regs.InFrame {
			v |= 0x40
		}
		m.regs.IRQPending = false
		return v, true
	case address == 0x5205:
		return uint8(uint16(m.regs.Multiplicand) * uint16(m.regs.Multiplier)), true
	case address == 0x5206:
		return uint8(uint16(m.regs.Multiplicand) * uint16(m.regs.Multiplier) >> 8), true
	}
	return 0, false
}

func (m *Mapper005) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x6000:
		if !m.ramWritable() {
			return
		}
		bank, rom := m.prgBank(address)
		if !rom {
			m.writeRAM(bank, 8*kb, address, value)
		}
	case address >= 0x5C00:
		m.writeExRAM(address-0x5C00, value)
	case address >= 0x5120 && address <= 0x5127:
		m.regs.CHRA[address-0x5120] = uint16(value) | uint16(m.regs.UpperCHR)<<8
		m.regs.LastWriteB = false
	case address >= 0x5128 && address <= 0x512B:
		m.regs.CHRB[address-0x5128] = uint16(value) | uint16(m.regs.UpperCHR)<<8
		m.regs.LastWriteB = true
	case address >= 0x5113 && address <= 0x5117:
		m.regs.PRG[address-0x5113] = value
	default:
		m.writeRegister(address, value)
	}
}

func (m *Mapper005) writeRegister(address uint16, value uint8) {
	switch address {
	case 0x5100:
		m.regs.PRGMode = value & 3
	case 0x5101:
		m.regs.CHRMode = value & 3
	case 0x5102:
		m.regs.RAMProtect[0] = value
	case 0x5103:
		m.regs.RAMProtect[1] = value
	case 0x5104:
		m.regs.ExRAMMode = value & 3
	case 0x5105:
		m.regs.NTMapping = value
	case 0x5106:
		m.regs.FillTile = value
	case 0x5107:
		m.regs.FillColor = value & 3
	case 0x5130:
		m.regs.UpperCHR = value & 3
	case 0x5203:
		m.regs.IRQTarget = value
	case 0x5204:
		m.regs.IRQEnabled = value&0x80 != 0
	case 0x5205:
		m.regs.Multiplicand = value
	case 0x5206:
		m.regs.Multiplier = value
	}
}

func (m *Mapper005) writeExRAM(offset uint16, value uint8) {
	switch m.regs.ExRAMMode {
	case mmc5ExRAMNametable, mmc5ExRAMExtAttr:
		// only writable while the PPU is rendering
		if !m.regs.InFrame {
			value = 0
		}
		m.regs.ExRAM[offset] = value
	case mmc5ExRAMReadWrite:
		m.regs.ExRAM[offset] = value
	}
}

func (m *Mapper005) ntSource(address uint16) int {
	quadrant := int(address>>10) & 3
	return int(m.regs.NTMapping>>(2*quadrant)) & 3
}

func (m *Mapper005) NametablePage(quadrant int) int {
	if int(m.regs.NTMapping>>(2*quadrant))&3 == mmc5NTCIRAMB {
		return 1
	}
	return 0
}

func (m *Mapper005) ReadNametable(address uint16) (uint8, bool) {
	offset := address & 0x3FF
	attribute := offset >= 0x3C0

	if m.regs.ExRAMMode == mmc5ExRAMExtAttr && m.bgFetch {
		if attribute {
			return (m.regs.ExAttr >> 6) * 0x55, true
		}
		m.regs.ExAttr = m.regs.ExRAM[offset]
	}

	switch m.ntSource(address) {
	case mmc5NTExRAM:
		if m.regs.ExRAMMode >= mmc5ExRAMReadWrite {
			return 0, true
		}
		return m.regs.ExRAM[offset], true
	case mmc5NTFill:
		if attribute {
			return m.regs.FillColor * 0x55, true
		}
		return m.regs.FillTile, true
	}
	return 0, false
}

func (m *Mapper005) WriteNametable(address uint16, value uint8) bool {
	switch m.ntSource(address) {
	case mmc5NTExRAM:
		if m.regs.ExRAMMode < mmc5ExRAMReadWrite {
			m.regs.ExRAM[address&0x3FF] = value
		}
		return true
	case mmc5NTFill:
		return true
	}
	return false
}

// chrBank resolves a pattern address through register set A (sprites) or
// B (background).
func (m *Mapper005) chrBank(address uint16, setB bool) (int, int) {
	mode := m.regs.CHRMode & 3
	size := 8 * kb >> mode
	var idx int
	switch mode {
	case 0:
		idx = 7
	case 1:
		idx = int(address>>12)*4 + 3
	case 2:
		idx = int(address>>11)*2 + 1
	case 3:
		idx = int(address >> 10)
	}
	if setB {
		return int(m.regs.CHRB[idx&3]), size
	}
	return int(m.regs.CHRA[idx]), size
}

func (m *Mapper005) useSetB() bool {
	if m.regs.Sprites8x16 && m.regs.InFrame {
		return !m.spriteFetch
	}
	return m.regs.LastWriteB
}

func (m *Mapper005) ReadCHR(address uint16) uint8 {
	if m.regs.ExRAMMode == mmc5ExRAMExtAttr && m.bgFetch {
		bank := int(m.regs.ExAttr&0x3F) | int(m.regs.UpperCHR)<<6
		return m.readCHRBank(bank, 4*kb, address)
	}
	bank, size := m.chrBank(address, m.useSetB())
	return m.readCHRBank(bank, size, address)
}

func (m *Mapper005) WriteCHR(address uint16, value uint8) {
	bank, size := m.chrBank(address, m.useSetB())
	m.writeCHRBank(bank, size, address, value)
}

// NotifyPPUAddress runs scanline detection and fetch classification.
func (m *Mapper005) NotifyPPUAddress(address uint16, stamp uint64) {
	address &= 0x3FFF
	m.regs.PPURead = true

	if address >= 0x2000 && address < 0x3000 && address == m.regs.PrevAddr {
		m.regs.MatchCount++
		if m.regs.MatchCount == 2 {
			m.detectScanline()
		}
	} else {
		m.regs.MatchCount = 0
	}
	m.regs.PrevAddr = address

	idx := m.regs.FetchIndex
	m.regs.FetchIndex++
	m.spriteFetch = m.regs.InFrame && idx >= mmc5SpriteFetchStart && idx < mmc5SpriteFetchEnd
	m.bgFetch = m.regs.InFrame && !m.spriteFetch
}

func (m *Mapper005) detectScanline() {
	if m.regs.InFrame {
		m.regs.Scanline++
		if m.regs.Scanline == m.regs.IRQTarget {
			m.regs.IRQPending = true
		}
	} else {
		m.regs.InFrame = true
		m.regs.Scanline = 0
		m.regs.IRQPending = false
	}
	// the detecting read is the first background fetch of the line
	m.regs.FetchIndex = 0
}

func (m *Mapper005) leaveFrame() {
	m.regs.InFrame = false
	m.regs.MatchCount = 0
	m.regs.PrevAddr = 0
	m.bgFetch = false
	m.spriteFetch = false
}

func (m *Mapper005) SnoopCPU(address uint16, value uint8, write bool) {
	if !write {
		if address == 0xFFFA || address == 0xFFFB {
			m.leaveFrame()
			m.regs.IRQPending = false
		}
		return
	}
	if address < 0x2000 || address >= 0x4000 {
		return
	}
	switch address & 7 {
	case 0:
		m.regs.Sprites8x16 = value&0x20 != 0
	case 1:
		m.regs.Rendering = value&0x18 != 0
		if !m.regs.Rendering {
			m.leaveFrame()
		}
	}
}

// CPUCycle ends the frame after three CPU cycles without a PPU read.
func (m *Mapper005) CPUCycle() {
	if m.regs.PPURead {
		m.regs.PPURead = false
		m.regs.IdleCycles = 0
		return
	}
	if m.regs.IdleCycles < 3 {
		m.regs.IdleCycles++
	}
	if m.regs.IdleCycles == 3 && m.regs.InFrame {
		m.leaveFrame()
	}
}

func (m *Mapper005) IRQ() bool { return m.regs.IRQEnabled && m.regs.IRQPending }

func (m *Mapper005) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper005) LoadState(data []byte) error {
	if err := m.unmarshal(data, &m.regs); err != nil {
		return err
	}
	if len(m.regs.ExRAM) != mmc5ExRAMSize {
		return fmt.Errorf("%s: ExRAM is %d bytes, want %d", m.name, len(m.regs.ExRAM), mmc5ExRAMSize)
	}
	return nil
}
