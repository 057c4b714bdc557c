package cartridge

// Mapper034 covers two unrelated boards sharing the number. BNROM switches
// 32K of PRG through any write to $8000-$FFFF and uses CHR RAM. NINA-001
// puts its registers in the PRG RAM range: $7FFD selects 32K of PRG and
// $7FFE/$7FFF select the two 4K CHR halves.
type Mapper034 struct {
	baseMapper
	regs struct {
		PRG  uint8
		CHR0 uint8
		CHR1 uint8
	}
	nina bool
}

func newMapper034(cart *Cartridge, b baseMapper, opts Options) Mapper {
	nina := cart.Header.Submapper == 1 || (cart.Header.Submapper == 0 && !cart.chrIsRAM && len(cart.chr) > 8*kb)
	m := &Mapper034{baseMapper: b, nina: nina}
	m.regs.CHR1 = 1
	return m
}

func (m *Mapper034) ReadPRG(address uint16) (uint8, bool) {
	switch {
	case address >= 0x8000:
		return m.readPRGROM(int(m.regs.PRG), 32*kb, address)
	case address >= 0x6000 && m.nina:
		return m.readRAM(0, 8*kb, address)
	}
	return 0, false
}

func (m *Mapper034) WritePRG(address uint16, value uint8) {
	if !m.nina {
		if address >= 0x8000 {
			m.regs.PRG = value
		}
		return
	}

	if address >= 0x6000 && address < 0x8000 {
		m.writeRAM(0, 8*kb, address, value)
	}
	switch address {
	case 0x7FFD:
		m.regs.PRG = value & 0x01
	case 0x7FFE:
		m.regs.CHR0 = value & 0x0F
	case 0x7FFF:
		m.regs.CHR1 = value & 0x0F
	}
}

func (m *Mapper034) chrBank(address uint16) int {
	if !m.nina {
		return int(address >> 12 & 1)
	}
	if address < 0x1000 {
		return int(m.regs.CHR0)
	}
	return int(m.regs.CHR1)
}

func (m *Mapper034) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(m.chrBank(address), 4*kb, address)
}

func (m *Mapper034) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(m.chrBank(address), 4*kb, address, value)
}

func (m *Mapper034) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper034) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
