package cartridge

// Mapper002 implements UxROM: a switchable 16K bank at $8000 and the last
// 16K bank fixed at $C000. CHR is usually 8K RAM.
type Mapper002 struct {
	baseMapper
	regs struct {
		Bank uint8
	}
}

func newMapper002(cart *Cartridge, b baseMapper, opts Options) Mapper {
	return &Mapper002{baseMapper: b}
}

func (m *Mapper002) ReadPRG(address uint16) (uint8, bool) {
	if address < 0x8000 {
		return 0, false
	}
	if address < 0xC000 {
		return m.readPRGROM(int(m.regs.Bank), 16*kb, address)
	}
	return m.readPRGROM(-1, 16*kb, address)
}

func (m *Mapper002) WritePRG(address uint16, value uint8) {
	if address >= 0x8000 {
		m.regs.Bank = value
	}
}

func (m *Mapper002) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(0, 8*kb, address)
}

func (m *Mapper002) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(0, 8*kb, address, value)
}

func (m *Mapper002) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper002) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
