package cartridge

// Mapper066 implements GxROM: 32K PRG bank in bits 4-5, 8K CHR bank in
// bits 0-1.
type Mapper066 struct {
	baseMapper
	regs struct {
		Value uint8
	}
}

func newMapper066(cart *Cartridge, b baseMapper, opts Options) Mapper {
	return &Mapper066{baseMapper: b}
}

func (m *Mapper066) ReadPRG(address uint16) (uint8, bool) {
	if address < 0x8000 {
		return 0, false
	}
	return m.readPRGROM(int(m.regs.Value>>4)&0x03, 32*kb, address)
}

func (m *Mapper066) WritePRG(address uint16, value uint8) {
	if address >= 0x8000 {
		m.regs.Value = value
	}
}

func (m *Mapper066) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(int(m.regs.Value&0x03), 8*kb, address)
}

func (m *Mapper066) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(int(m.regs.Value&0x03), 8*kb, address, value)
}

func (m *Mapper066) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper066) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
