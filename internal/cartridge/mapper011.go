package cartridge

// Mapper011 implements the Color Dreams board: PRG bank in bits 0-1, CHR bank
// in bits 4-7. Unlicensed boards vary in how many lines they decode, so banks
// past the end of the image read open bus rather than wrapping.
type Mapper011 struct {
	baseMapper
	regs struct {
		Value uint8
	}
}

func newMapper011(cart *Cartridge, b baseMapper, opts Options) Mapper {
	return &Mapper011{baseMapper: b}
}

func (m *Mapper011) ReadPRG(address uint16) (uint8, bool) {
	if address < 0x8000 {
		return 0, false
	}
	return m.readPRGROM(int(m.regs.Value&0x03), 32*kb, address)
}

func (m *Mapper011) WritePRG(address uint16, value uint8) {
	if address >= 0x8000 {
		m.regs.Value = value
	}
}

func (m *Mapper011) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(int(m.regs.Value>>4), 8*kb, address)
}

func (m *Mapper011) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(int(m.regs.Value>>4), 8*kb, address, value)
}

func (m *Mapper011) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper011) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
