package cartridge

// Mapper010 implements FxROM (MMC4): the MMC2 latch scheme with a 16K PRG
// switch and battery-backed RAM.
type Mapper010 struct {
	baseMapper
	regs struct {
		PRG     uint8
		Latches mmc2Latches
	}
}

func newMapper010(cart *Cartridge, b baseMapper, opts Options) Mapper {
	m := &Mapper010{baseMapper: b}
	m.regs.Latches.init()
	return m
}

func (m *Mapper010) ReadPRG(address uint16) (uint8, bool) {
	switch {
	case address >= 0xC000:
		return m.readPRGROM(-1, 16*kb, address)
	case address >= 0x8000:
		return m.readPRGROM(int(m.regs.PRG), 16*kb, address)
	case address >= 0x6000:
		return m.readRAM(0, 8*kb, address)
	}
	return 0, false
}

func (m *Mapper010) WritePRG(address uint16, value uint8) {
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

func (m *Mapper010) ReadCHR(address uint16) uint8 {
	v := m.readCHRBank(m.regs.Latches.bank(address), 4*kb, address)
	m.regs.Latches.update(address, true)
	return v
}

func (m *Mapper010) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(m.regs.Latches.bank(address), 4*kb, address, value)
}

func (m *Mapper010) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper010) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
