package cartridge

// mmc2Latches is the CHR switching shared by the MMC2 and MMC4. Each pattern
// table half has two bank registers; a latch picks between them and flips
// when the PPU fetches tile $FD or $FE from that half. The flip happens after
// the fetch, so the triggering tile still comes from the old bank.
type mmc2Latches struct {
	CHR    [4]uint8 // $FD/$FE banks for $0000 then $FD/$FE banks for $1000
	Latch0 uint8    // 0xFD or 0xFE
	Latch1 uint8
}

func (l *mmc2Latches) init() {
	l.Latch0 = 0xFE
	l.Latch1 = 0xFE
}

func (l *mmc2Latches) bank(address uint16) int {
	if address < 0x1000 {
		if l.Latch0 == 0xFD {
			return int(l.CHR[0])
		}
		return int(l.CHR[1])
	}
	if l.Latch1 == 0xFD {
		return int(l.CHR[2])
	}
	return int(l.CHR[3])
}

// update flips the latches after a pattern fetch. The MMC2 only decodes the
// exact byte $0FD8/$0FE8 for the low half; the MMC4 takes the whole 8 byte
// row in both halves.
func (l *mmc2Latches) update(address uint16, wideLow bool) {
	switch {
	case address == 0x0FD8 || (wideLow && address >= 0x0FD8 && address <= 0x0FDF):
		l.Latch0 = 0xFD
	case address == 0x0FE8 || (wideLow && address >= 0x0FE8 && address <= 0x0FEF):
		l.Latch0 = 0xFE
	case address >= 0x1FD8 && address <= 0x1FDF:
		l.Latch1 = 0xFD
	case address >= 0x1FE8 && address <= 0x1FEF:
		l.Latch1 = 0xFE
	}
}

// write handles $B000-$EFFF and reports whether the address was a CHR
// register.
func (l *mmc2Latches) write(address uint16, value uint8) bool {
	switch address & 0xF000 {
	case 0xB000:
		l.CHR[0] = value & 0x1F
	case 0xC000:
		l.CHR[1] = value & 0x1F
	case 0xD000:
		l.CHR[2] = value & 0x1F
	case 0xE000:
		l.CHR[3] = value & 0x1F
	default:
		return false
	}
	return true
}

func mmc2Mirroring(value uint8) MirrorMode {
	if value&1 == 0 {
		return MirrorVertical
	}
	return MirrorHorizontal
}

// Mapper009 implements PxROM (MMC2): one switchable 8K PRG bank at $8000
// and three fixed ones after it.
type Mapper009 struct {
	baseMapper
	regs struct {
		PRG     uint8
		Latches mmc2Latches
	}
}

func newMapper009(cart *Cartridge, b baseMapper, opts Options) Mapper {
	m := &Mapper009{baseMapper: b}
	m.regs.Latches.init()
	return m
}

func (m *Mapper009) ReadPRG(address uint16) (uint8, bool) {
	switch {
	case address >= 0xA000:
		return m.readPRGROM(int(address-0xA000)/(8*kb)-3, 8*kb, address)
	case address >= 0x8000:
		return m.readPRGROM(int(m.regs.PRG), 8*kb, address)
	case address >= 0x6000:
		return m.readRAM(0, 8*kb, address)
	}
	return 0, false
}

func (m *Mapper009) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x6000 && address < 0x8000:
		m.writeRAM(0, 8*kb, address, value)
	case address&0xF000 == 0xA000:
		m.regs.PRG = value & 0x0F
	case address&0xF000 == 0xF000:
		m.mirroring = mmc2Mirroring(value)
	default:
		m.regs.Latches.write(address, value)
	}
}

func (m *Mapper009) ReadCHR(address uint16) uint8 {
	v := m.readCHRBank(m.regs.Latches.bank(address), 4*kb, address)
	m.regs.Latches.update(address, false)
	return v
}

func (m *Mapper009) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(m.regs.Latches.bank(address), 4*kb, address, value)
}

func (m *Mapper009) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper009) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
