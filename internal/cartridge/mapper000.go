package cartridge

// Mapper000 implements NROM (mapper 0)
// NROM has no bank switching:
// - 16KB or 32KB PRG ROM (16KB is mirrored to fill 32KB address space)
// - 8KB CHR ROM or CHR RAM
// - 8KB PRG RAM at 0x6000-0x7FFF (Family BASIC carts)
type Mapper000 struct {
	baseMapper
}

func newMapper000(cart *Cartridge, b baseMapper, opts Options) Mapper {
	return &Mapper000{baseMapper: b}
}

// ReadPRG reads from PRG ROM/RAM
func (m *Mapper000) ReadPRG(address uint16) (uint8, bool) {
	switch {
	case address >= 0x8000:
		if len(m.cart.prgROM) <= 16*kb {
			// NROM-128: $C000 mirrors $8000
			return m.readPRGROM(0, 16*kb, address)
		}
		return m.readPRGROM(0, 32*kb, address)
	case address >= 0x6000:
		return m.readRAM(0, 8*kb, address)
	}
	return 0, false
}

// WritePRG writes to PRG RAM. ROM writes are ignored.
func (m *Mapper000) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.writeRAM(0, 8*kb, address, value)
	}
}

// ReadCHR reads from CHR ROM/RAM
func (m *Mapper000) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(0, 8*kb, address)
}

// WriteCHR writes to CHR RAM
func (m *Mapper000) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(0, 8*kb, address, value)
}

func (m *Mapper000) SaveState() ([]byte, error) {
	return m.marshal(struct{}{})
}

func (m *Mapper000) LoadState(data []byte) error {
	return m.unmarshal(data, &struct{}{})
}
