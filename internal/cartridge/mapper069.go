package cartridge

// Mapper069 implements the Sunsoft FME-7: four 8 KiB PRG windows ($6000 can
// hold ROM or RAM), eight 1 KiB CHR banks and a 16-bit IRQ counter clocked
// by the CPU. The 5B sound channels are not emulated.
type Mapper069 struct {
	baseMapper
	regs fme7Registers
}

type fme7Registers struct {
	Command uint8
	CHR     [8]uint8
	PRG     [4]uint8 // $6000 (with the RAM bits), $8000, $A000, $C000

	IRQCounter     uint16
	CounterEnabled bool
	IRQEnabled     bool
	IRQPending     bool
}

// $6000 window control, command 8.
const (
	fme7RAMEnable = 0x80
	fme7RAMSelect = 0x40
	fme7BankMask  = 0x3F
)

func newMapper069(cart *Cartridge, b baseMapper, opts Options) Mapper {
	return &Mapper069{baseMapper: b}
}

func (m *Mapper069) ReadPRG(address uint16) (uint8, bool) {
	switch {
	case address >= 0xE000:
		return m.readPRGROM(-1, 8*kb, address)
	case address >= 0x8000:
		slot := int(address-0x6000) / (8 * kb)
		return m.readPRGROM(int(m.regs.PRG[slot]&fme7BankMask), 8*kb, address)
	case address >= 0x6000:
		ctl := m.regs.PRG[0]
		bank := int(ctl & fme7BankMask)
		if ctl&fme7RAMSelect == 0 {
			return m.readPRGROM(bank, 8*kb, address)
		}
		if ctl&fme7RAMEnable == 0 {
			return 0, false
		}
		return m.readRAM(bank, 8*kb, address)
	}
	return 0, false
}

func (m *Mapper069) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0xC000:
	case address >= 0xA000:
		m.writeParameter(value)
	case address >= 0x8000:
		m.regs.Command = value & 0x0F
	case address >= 0x6000:
		ctl := m.regs.PRG[0]
		if ctl&(fme7RAMEnable|fme7RAMSelect) == fme7RAMEnable|fme7RAMSelect {
			m.writeRAM(int(ctl&fme7BankMask), 8*kb, address, value)
		}
	}
}

func (m *Mapper069) writeParameter(value uint8) {
	switch cmd := m.regs.Command; {
	case cmd < 8:
		m.regs.CHR[cmd] = value
	case cmd < 0xC:
		m.regs.PRG[cmd-8] = value
	case cmd == 0xC:
		m.mirroring = [4]MirrorMode{
			MirrorVertical, MirrorHorizontal, MirrorSingleScreen0, MirrorSingleScreen1,
		}[value&3]
	case cmd == 0xD:
		m.regs.IRQPending = false
		m.regs.IRQEnabled = value&0x01 != 0
		m.regs.CounterEnabled = value&0x80 != 0
	case cmd == 0xE:
		m.regs.IRQCounter = m.regs.IRQCounter&0xFF00 | uint16(value)
	default:
		m.regs.IRQCounter = m.regs.IRQCounter&0x00FF | uint16(value)<<8
	}
}

func (m *Mapper069) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(int(m.regs.CHR[address/kb]), kb, address)
}

func (m *Mapper069) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(int(m.regs.CHR[address/kb]), kb, address, value)
}

// CPUCycle decrements the counter. The IRQ fires when it wraps from $0000
// to $FFFF.
func (m *Mapper069) CPUCycle() {
	if !m.regs.CounterEnabled {
		return
	}
	m.regs.IRQCounter--
	if m.regs.IRQCounter == 0xFFFF && m.regs.IRQEnabled {
		m.regs.IRQPending = true
	}
}

func (m *Mapper069) IRQ() bool { return m.regs.IRQPending }

func (m *Mapper069) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper069) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
