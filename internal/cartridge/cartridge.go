// Package cartridge implements NES cartridges: the ROM image, its RAM regions
// and the board logic (mappers) that bank them into the CPU and PPU address
// spaces.
package cartridge

import "fmt"

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
	// MirrorMapperControlled means the board maps nametables itself and
	// NametablePage must be queried per quadrant.
	MirrorMapperControlled
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingleScreen0:
		return "single-screen-0"
	case MirrorSingleScreen1:
		return "single-screen-1"
	case MirrorFourScreen:
		return "four-screen"
	case MirrorMapperControlled:
		return "mapper-controlled"
	}
	return fmt.Sprintf("MirrorMode(%d)", uint8(m))
}

// Header holds the parsed iNES / NES 2.0 header fields.
type Header struct {
	MapperID  uint16
	Submapper uint8
	PRGBanks  int // 16 KiB units, rounded up
	CHRBanks  int // 8 KiB units, rounded up

	PRGROMBytes int
	CHRROMBytes int
	PRGRAMSize  int
	CHRRAMSize  int

	Mirroring  MirrorMode
	HasBattery bool
	HasTrainer bool
	IsNES2     bool
}

// Cartridge represents a NES cartridge. The byte regions are owned here;
// the mapper only ever holds bank indices into them.
type Cartridge struct {
	Header Header

	prgROM []uint8
	chr    []uint8
	prgRAM []uint8

	chrIsRAM bool
	trainer  []uint8

	mapper Mapper

	// Diagnostics lists non-fatal anomalies found at load time.
	Diagnostics []Diagnostic
}

// Mapper returns the board attached to the cartridge.
func (c *Cartridge) Mapper() Mapper {
	return c.mapper
}

// MapperID returns the iNES mapper number.
func (c *Cartridge) MapperID() uint16 {
	return c.Header.MapperID
}

// PRGROMSize returns the PRG ROM size in bytes.
func (c *Cartridge) PRGROMSize() int { return len(c.prgROM) }

// CHRSize returns the CHR ROM or RAM size in bytes.
func (c *Cartridge) CHRSize() int { return len(c.chr) }

// PRGRAMSize returns the PRG RAM size in bytes.
func (c *Cartridge) PRGRAMSize() int { return len(c.prgRAM) }

// HasCHRRAM reports whether CHR memory is writable.
func (c *Cartridge) HasCHRRAM() bool { return c.chrIsRAM }

// HasBattery reports whether PRG RAM is battery backed.
func (c *Cartridge) HasBattery() bool { return c.Header.HasBattery }

// Trainer returns the 512 byte trainer, or nil.
func (c *Cartridge) Trainer() []uint8 { return c.trainer }

// BatteryRAM returns the battery-backed PRG RAM region, or nil when the board
// has no battery. The slice aliases live memory.
func (c *Cartridge) BatteryRAM() []uint8 {
	if !c.Header.HasBattery {
		return nil
	}
	return c.prgRAM
}

// LoadBatteryRAM restores a previously saved battery region.
func (c *Cartridge) LoadBatteryRAM(data []uint8) error {
	if !c.Header.HasBattery {
		return fmt.Errorf("cartridge has no battery-backed RAM")
	}
	if len(data) != len(c.prgRAM) {
		return fmt.Errorf("battery RAM size mismatch: have %d bytes, got %d", len(c.prgRAM), len(data))
	}
	copy(c.prgRAM, data)
	return nil
}

// ReadPRG reads the CPU cartridge space ($4020-$FFFF). ok is false when no
// device drives the bus.
func (c *Cartridge) ReadPRG(address uint16) (value uint8, ok bool) {
	return c.mapper.ReadPRG(address)
}

// WritePRG writes to the CPU cartridge space
func (c *Cartridge) WritePRG(address uint16, value uint8) {
	c.mapper.WritePRG(address, value)
}

// ReadCHR reads the pattern table space ($0000-$1FFF)
func (c *Cartridge) ReadCHR(address uint16) uint8 {
	return c.mapper.ReadCHR(address)
}

// WriteCHR writes the pattern table space
func (c *Cartridge) WriteCHR(address uint16, value uint8) {
	c.mapper.WriteCHR(address, value)
}

// GetMirrorMode returns the live mirroring mode
func (c *Cartridge) GetMirrorMode() MirrorMode {
	return c.mapper.Mirroring()
}

// The methods below forward the board's bus hooks.

func (c *Cartridge) NotifyPPUAddress(address uint16, stamp uint64) {
	c.mapper.NotifyPPUAddress(address, stamp)
}

func (c *Cartridge) SnoopCPU(address uint16, value uint8, write bool) {
	c.mapper.SnoopCPU(address, value, write)
}

func (c *Cartridge) CPUCycle() { c.mapper.CPUCycle() }

func (c *Cartridge) IRQ() bool { return c.mapper.IRQ() }

func (c *Cartridge) NametablePage(quadrant int) int {
	return c.mapper.NametablePage(quadrant)
}

func (c *Cartridge) ReadNametable(address uint16) (uint8, bool) {
	return c.mapper.ReadNametable(address)
}

func (c *Cartridge) WriteNametable(address uint16, value uint8) bool {
	return c.mapper.WriteNametable(address, value)
}

// RAMState is the mutable memory of a cartridge, used by save states.
type RAMState struct {
	PRGRAM []uint8 `json:"prg_ram,omitempty"`
	CHRRAM []uint8 `json:"chr_ram,omitempty"`
}

// SaveRAM captures PRG RAM and CHR RAM.
func (c *Cartridge) SaveRAM() RAMState {
	s := RAMState{PRGRAM: append([]uint8(nil), c.prgRAM...)}
	if c.chrIsRAM {
		s.CHRRAM = append([]uint8(nil), c.chr...)
	}
	return s
}

// LoadRAM restores memory captured with SaveRAM.
func (c *Cartridge) LoadRAM(s RAMState) error {
	if len(s.PRGRAM) != len(c.prgRAM) {
		return fmt.Errorf("PRG RAM size mismatch: have %d, state has %d", len(c.prgRAM), len(s.PRGRAM))
	}
	copy(c.prgRAM, s.PRGRAM)
	if c.chrIsRAM {
		if len(s.CHRRAM) != len(c.chr) {
			return fmt.Errorf("CHR RAM size mismatch: have %d, state has %d", len(c.chr), len(s.CHRRAM))
		}
		copy(c.chr, s.CHRRAM)
	}
	return nil
}
