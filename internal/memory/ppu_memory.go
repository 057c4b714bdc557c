package memory

import "fmt"

// PPUCartridge is the PPU side of the cartridge connector.
type PPUCartridge interface {
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	NotifyPPUAddress(address uint16, stamp uint64)
	NametablePage(quadrant int) int
	ReadNametable(address uint16) (uint8, bool)
	WriteNametable(address uint16, value uint8) bool
}

// PPUMemory is the PPU address space: CHR through the cartridge, CIRAM
// and palette RAM.
type PPUMemory struct {
	vram       [0x1000]uint8 // CIRAM, the upper 2KB only reachable on four-screen boards
	paletteRAM [32]uint8
	cartridge  PPUCartridge
}

// SizeError reports a snapshot region of the wrong length.
type SizeError struct {
	What      string
	Want, Got int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s size mismatch: want %d bytes, got %d", e.What, e.Want, e.Got)
}

// NewPPUMemory creates a new PPU memory instance
func NewPPUMemory(cart PPUCartridge) *PPUMemory {
	mem := &PPUMemory{cartridge: cart}

	// Background color entries start black
	for i := 0; i < 32; i += 4 {
		mem.paletteRAM[i] = 0x0F
	}
	return mem
}

// SetCartridge inserts a cartridge
func (pm *PPUMemory) SetCartridge(cart PPUCartridge) {
	pm.cartridge = cart
}

// Fetch puts an address on the PPU bus, letting the board observe it, and
// returns the byte read.
func (pm *PPUMemory) Fetch(address uint16, stamp uint64) uint8 {
	address &= 0x3FFF
	if pm.cartridge != nil {
		pm.cartridge.NotifyPPUAddress(address, stamp)
	}
	return pm.Read(address)
}

// Store is the write counterpart of Fetch.
func (pm *PPUMemory) Store(address uint16, value uint8, stamp uint64) {
	address &= 0x3FFF
	if pm.cartridge != nil {
		pm.cartridge.NotifyPPUAddress(address, stamp)
	}
	pm.Write(address, value)
}

// Notify reports an address change that does not access memory.
func (pm *PPUMemory) Notify(address uint16, stamp uint64) {
	if pm.cartridge != nil {
		pm.cartridge.NotifyPPUAddress(address&0x3FFF, stamp)
	}
}

// Read reads from PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.cartridge == nil {
			return 0
		}
		return pm.cartridge.ReadCHR(address)
	case address < 0x3F00:
		return pm.readNametable(0x2000 | address&0x0FFF)
	default:
		return pm.paletteRAM[paletteIndex(address)]
	}
}

// Write writes to PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.cartridge != nil {
			pm.cartridge.WriteCHR(address, value)
		}
	case address < 0x3F00:
		pm.writeNametable(0x2000|address&0x0FFF, value)
	default:
		pm.paletteRAM[paletteIndex(address)] = value & 0x3F
	}
}

// ReadPalette reads a palette entry without touching the external bus.
func (pm *PPUMemory) ReadPalette(index uint8) uint8 {
	return pm.paletteRAM[paletteIndex(0x3F00|uint16(index))]
}

func (pm *PPUMemory) readNametable(address uint16) uint8 {
	if pm.cartridge != nil {
		if v, ok := pm.cartridge.ReadNametable(address); ok {
			return v
		}
	}
	return pm.vram[pm.nametableIndex(address)]
}

func (pm *PPUMemory) writeNametable(address uint16, value uint8) {
	if pm.cartridge != nil && pm.cartridge.WriteNametable(address, value) {
		return
	}
	pm.vram[pm.nametableIndex(address)] = value
}

// nametableIndex resolves a $2000-$2FFF address to a CIRAM offset through
// the board's quadrant mapping.
func (pm *PPUMemory) nametableIndex(address uint16) int {
	quadrant := int(address>>10) & 3
	page := quadrant >> 1 // horizontal arrangement without a board
	if pm.cartridge != nil {
		page = pm.cartridge.NametablePage(quadrant)
	}
	return (page&3)*0x400 + int(address&0x03FF)
}

// paletteIndex folds $3F10/$3F14/$3F18/$3F1C onto the background entries.
func paletteIndex(address uint16) uint16 {
	index := address & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return index
}

// PPUState is the serialisable part of PPU memory.
type PPUState struct {
	VRAM    []uint8 `json:"vram"`
	Palette []uint8 `json:"palette"`
}

// SaveState captures CIRAM and palette RAM.
func (pm *PPUMemory) SaveState() PPUState {
	return PPUState{
		VRAM:    append([]uint8(nil), pm.vram[:]...),
		Palette: append([]uint8(nil), pm.paletteRAM[:]...),
	}
}

// LoadState restores a snapshot taken by SaveState.
func (pm *PPUMemory) LoadState(s PPUState) error {
	if len(s.VRAM) != len(pm.vram) {
		return &SizeError{What: "CIRAM", Want: len(pm.vram), Got: len(s.VRAM)}
	}
	if len(s.Palette) != len(pm.paletteRAM) {
		return &SizeError{What: "palette RAM", Want: len(pm.paletteRAM), Got: len(s.Palette)}
	}
	copy(pm.vram[:], s.VRAM)
	copy(pm.paletteRAM[:], s.Palette)
	return nil
}
