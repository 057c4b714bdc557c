package cartridge

// Mapper003 implements CNROM: fixed 16/32K PRG and a switchable 8K CHR bank.
type Mapper003 struct {
	baseMapper
	regs struct {
		CHR uint8
	}
}

func newMapper003(cart *Cartridge, b baseMapper, opts Options) Mapper {
	return &Mapper003{baseMapper: b}
}

func (m *Mapper003) ReadPRG(address uint16) (uint8, bool) {
	if address < 0x8000 {
		return 0, false
	}
	if len(m.cart.prgROM) <= 16*kb {
		return m.readPRGROM(0, 16*kb, address)
	}
	return m.readPRGROM(0, 32*kb, address)
}

func (m *Mapper003) WritePRG(address uint16, value uint8) {
	if address >= 0x8000 {
		m.regs.CHR = value
	}
}

func (m *Mapper003) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(int(m.regs.CHR), 8*kb, address)
}

func (m *Mapper003) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(int(m.regs.CHR), 8*kb, address, value)
}

func (m *Mapper003) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper003) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
