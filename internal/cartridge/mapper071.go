package cartridge

// Mapper071 implements the Camerica/Codemasters boards: UxROM-style PRG
// banking through $C000-$FFFF. Submapper 1 (Fire Hawk) also selects a
// one-screen page through bit 4 of writes to $8000-$9FFF.
type Mapper071 struct {
	baseMapper
	regs struct {
		Bank uint8
	}
	fireHawk bool
}

func newMapper071(cart *Cartridge, b baseMapper, opts Options) Mapper {
	return &Mapper071{baseMapper: b, fireHawk: cart.Header.Submapper == 1}
}

func (m *Mapper071) ReadPRG(address uint16) (uint8, bool) {
	if address < 0x8000 {
		return 0, false
	}
	if address < 0xC000 {
		return m.readPRGROM(int(m.regs.Bank), 16*kb, address)
	}
	return m.readPRGROM(-1, 16*kb, address)
}

func (m *Mapper071) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0xC000:
		m.regs.Bank = value
	case address >= 0x8000 && address < 0xA000 && m.fireHawk:
		if value&0x10 != 0 {
			m.mirroring = MirrorSingleScreen1
		} else {
			m.mirroring = MirrorSingleScreen0
		}
	}
}

func (m *Mapper071) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(0, 8*kb, address)
}

func (m *Mapper071) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(0, 8*kb, address, value)
}

func (m *Mapper071) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper071) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
