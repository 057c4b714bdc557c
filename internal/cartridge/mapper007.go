package cartridge

// Mapper007 implements AxROM: a switchable 32K PRG bank and one-screen
// mirroring selected by bit 4 of the same register.
type Mapper007 struct {
	baseMapper
	regs struct {
		Bank uint8
	}
}

func newMapper007(cart *Cartridge, b baseMapper, opts Options) Mapper {
	m := &Mapper007{baseMapper: b}
	m.mirroring = MirrorSingleScreen0
	return m
}

func (m *Mapper007) ReadPRG(address uint16) (uint8, bool) {
	if address < 0x8000 {
		return 0, false
	}
	return m.readPRGROM(int(m.regs.Bank&0x07), 32*kb, address)
}

func (m *Mapper007) WritePRG(address uint16, value uint8) {
	if address < 0x8000 {
		return
	}
	m.regs.Bank = value
	if value&0x10 != 0 {
		m.mirroring = MirrorSingleScreen1
	} else {
		m.mirroring = MirrorSingleScreen0
	}
}

func (m *Mapper007) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(0, 8*kb, address)
}

func (m *Mapper007) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(0, 8*kb, address, value)
}

func (m *Mapper007) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper007) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
