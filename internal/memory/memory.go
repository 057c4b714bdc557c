// Package memory implements the CPU address map and the PPU address space.
package memory

// PPUInterface is the register window at $2000-$3FFF.
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APUInterface is the APU register window.
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface is the controller port pair. Read returns the serial data
// bit for $4016 or $4017 in bit 0.
type InputInterface interface {
	Read(address uint16) uint8
	Write(value uint8)
}

// CartridgeInterface is the CPU side of the cartridge connector.
type CartridgeInterface interface {
	ReadPRG(address uint16) (uint8, bool)
	WritePRG(address uint16, value uint8)
	SnoopCPU(address uint16, value uint8, write bool)
}

// Memory is the CPU bus: 2KB work RAM, the register windows, the cartridge
// and the open-bus latch.
type Memory struct {
	ram [0x800]uint8

	ppuRegisters PPUInterface
	apuRegisters APUInterface
	inputSystem  InputInterface
	cartridge    CartridgeInterface

	// Called on $4014 writes with the source page
	dmaCallback func(uint8)

	// Last value driven on the data bus
	openBusValue uint8
}

// New creates the CPU memory map. cart may be nil until a cartridge is
// inserted.
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	mem := &Memory{
		ppuRegisters: ppu,
		apuRegisters: apu,
		cartridge:    cart,
	}
	mem.initializePowerUpRAM()
	return mem
}

// SetInputSystem connects the controller ports
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetCartridge inserts a cartridge
func (m *Memory) SetCartridge(cart CartridgeInterface) {
	m.cartridge = cart
}

// SetDMACallback sets the OAM DMA request hook
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// PowerOn restores the power-up RAM pattern and clears the open-bus latch
func (m *Memory) PowerOn() {
	m.initializePowerUpRAM()
	m.openBusValue = 0
}

// initializePowerUpRAM fills RAM with alternating runs of four $00 and four
// $FF bytes, a pattern commonly seen on consoles at power-on.
func (m *Memory) initializePowerUpRAM() {
	for i := range m.ram {
		if i&4 != 0 {
			m.ram[i] = 0xFF
		} else {
			m.ram[i] = 0x00
		}
	}
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		// Internal RAM (mirrored)
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		// PPU registers (mirrored every 8 bytes)
		value = m.ppuRegisters.ReadRegister(0x2000 + (address & 0x0007))

	case address == 0x4015:
		// Internal to the 2A03: bit 5 floats and the external bus keeps its value
		value = m.apuRegisters.ReadStatus() | m.openBusValue&0x20
		if m.cartridge != nil {
			m.cartridge.SnoopCPU(address, value, false)
		}
		return value

	case address == 0x4016 || address == 0x4017:
		value = m.openBusValue & 0xE0
		if m.inputSystem != nil {
			value |= m.inputSystem.Read(address) & 0x01
		}

	case address < 0x4020:
		// Write-only APU and test registers
		value = m.openBusValue

	default:
		// Cartridge space ($4020-$FFFF)
		value = m.openBusValue
		if m.cartridge != nil {
			if v, ok := m.cartridge.ReadPRG(address); ok {
				value = v
			}
		}
	}

	m.openBusValue = value
	if m.cartridge != nil {
		m.cartridge.SnoopCPU(address, value, false)
	}
	return value
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	m.openBusValue = value

	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppuRegisters.WriteRegister(0x2000+(address&0x0007), value)

	case address == 0x4014:
		if m.dmaCallback != nil {
			m.dmaCallback(value)
		}

	case address == 0x4016:
		if m.inputSystem != nil {
			m.inputSystem.Write(value)
		}

	case address <= 0x4013, address == 0x4015, address == 0x4017:
		m.apuRegisters.WriteRegister(address, value)

	case address < 0x4020:
		// Test mode registers are ignored

	default:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}
	}

	if m.cartridge != nil {
		m.cartridge.SnoopCPU(address, value, true)
	}
}

// Peek reads without side effects. Registers and the expansion area return
// the open-bus latch.
func (m *Memory) Peek(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return m.ram[address&0x07FF]
	case address >= 0x6000 && m.cartridge != nil:
		if v, ok := m.cartridge.ReadPRG(address); ok {
			return v
		}
	}
	return m.openBusValue
}

// OpenBus returns the last value driven on the data bus.
func (m *Memory) OpenBus() uint8 {
	return m.openBusValue
}

// State is the serialisable part of the CPU memory map.
type State struct {
	RAM     []uint8 `json:"ram"`
	OpenBus uint8   `json:"open_bus"`
}

// SaveState captures work RAM and the open-bus latch.
func (m *Memory) SaveState() State {
	return State{RAM: append([]uint8(nil), m.ram[:]...), OpenBus: m.openBusValue}
}

// LoadState restores a snapshot taken by SaveState.
func (m *Memory) LoadState(s State) error {
	if len(s.RAM) != len(m.ram) {
		return &SizeError{What: "work RAM", Want: len(m.ram), Got: len(s.RAM)}
	}
	copy(m.ram[:], s.RAM)
	m.openBusValue = s.OpenBus
	return nil
}
