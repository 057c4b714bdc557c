package cartridge

const mmc1ShiftEmpty = 0x10

// Mapper001 implements SxROM boards built around the MMC1.
//
// Registers are loaded serially: five writes to $8000-$FFFF shift one bit
// each into a shift register, and the fifth write's address selects the
// target register. A write with bit 7 set clears the shift register and
// forces PRG mode 3. The MMC1 ignores a write on the cycle after another
// write, which is what makes read-modify-write instructions load only once.
type Mapper001 struct {
	baseMapper
	regs mmc1Registers
}

type mmc1Registers struct {
	Shift   uint8
	Control uint8
	CHR0    uint8
	CHR1    uint8
	PRG     uint8

	WroteThisCycle bool
	WroteLastCycle bool
}

func newMapper001(cart *Cartridge, b baseMapper, opts Options) Mapper {
	m := &Mapper001{baseMapper: b}
	m.regs.Shift = mmc1ShiftEmpty
	m.regs.Control = 0x0C
	m.updateMirroring()
	return m
}

func (m *Mapper001) Reset() {
	m.regs.Shift = mmc1ShiftEmpty
	m.regs.Control |= 0x0C
}

func (m *Mapper001) CPUCycle() {
	m.regs.WroteLastCycle = m.regs.WroteThisCycle
	m.regs.WroteThisCycle = false
}

func (m *Mapper001) ramEnabled() bool {
	return m.regs.PRG&0x10 == 0
}

// ramBank picks the 8K PRG RAM bank. SOROM and SXROM repurpose CHR bank
// lines as RAM bank select.
func (m *Mapper001) ramBank() int {
	switch bankCount(len(m.cart.prgRAM), 8*kb) {
	case 4:
		return int(m.regs.CHR0>>2) & 3
	case 2:
		return int(m.regs.CHR0>>3) & 1
	}
	return 0
}

// outerPRG is the 256K outer bank used by SUROM/SXROM images over 256K.
func (m *Mapper001) outerPRG() int {
	if len(m.cart.prgROM) > 256*kb {
		return int(m.regs.CHR0 & 0x10)
	}
	return 0
}

func (m *Mapper001) prgBank(address uint16) int {
	bank := int(m.regs.PRG & 0x0F)
	outer := m.outerPRG()
	upper := address >= 0xC000

	switch (m.regs.Control >> 2) & 3 {
	case 0, 1:
		bank &^= 1
		if upper {
			bank |= 1
		}
	case 2:
		if !upper {
			bank = 0
		}
	case 3:
		if upper {
			bank = 0x0F
		}
	}
	return outer | bank
}

func (m *Mapper001) ReadPRG(address uint16) (uint8, bool) {
	switch {
	case address >= 0x8000:
		return m.readPRGROM(m.prgBank(address), 16*kb, address)
	case address >= 0x6000:
		if !m.ramEnabled() {
			return 0, false
		}
		return m.readRAM(m.ramBank(), 8*kb, address)
	}
	return 0, false
}

func (m *Mapper001) WritePRG(address uint16, value uint8) {
	if address < 0x6000 {
		return
	}
	if address < 0x8000 {
		if m.ramEnabled() {
			m.writeRAM(m.ramBank(), 8*kb, address, value)
		}
		return
	}

	ignored := m.regs.WroteLastCycle
	m.regs.WroteThisCycle = true
	if ignored {
		return
	}

	if value&0x80 != 0 {
		m.regs.Shift = mmc1ShiftEmpty
		m.regs.Control |= 0x0C
		return
	}

	complete := m.regs.Shift&1 == 1
	m.regs.Shift = m.regs.Shift>>1 | (value&1)<<4
	if !complete {
		return
	}

	loaded := m.regs.Shift
	m.regs.Shift = mmc1ShiftEmpty

	switch (address >> 13) & 3 {
	case 0:
		m.regs.Control = loaded
		m.updateMirroring()
	case 1:
		m.regs.CHR0 = loaded
	case 2:
		m.regs.CHR1 = loaded
	case 3:
		m.regs.PRG = loaded
	}
}

func (m *Mapper001) updateMirroring() {
	switch m.regs.Control & 3 {
	case 0:
		m.mirroring = MirrorSingleScreen0
	case 1:
		m.mirroring = MirrorSingleScreen1
	case 2:
		m.mirroring = MirrorVertical
	case 3:
		m.mirroring = MirrorHorizontal
	}
}

func (m *Mapper001) chrBank(address uint16) int {
	if m.regs.Control&0x10 == 0 {
		// 8K mode ignores the low bit
		return int(m.regs.CHR0&0x1E) | int(address>>12)&1
	}
	if address < 0x1000 {
		return int(m.regs.CHR0 & 0x1F)
	}
	return int(m.regs.CHR1 & 0x1F)
}

func (m *Mapper001) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(m.chrBank(address), 4*kb, address)
}

func (m *Mapper001) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(m.chrBank(address), 4*kb, address, value)
}

func (m *Mapper001) SaveState() ([]byte, error) {
	return m.marshal(m.regs)
}

func (m *Mapper001) LoadState(data []byte) error {
	return m.unmarshal(data, &m.regs)
}
