package cartridge

import (
	"encoding/json"
	"fmt"
)

// Mapper is the board logic of a cartridge. The set of boards is closed: every
// implementation lives in this package and embeds baseMapper, which supplies
// default hooks.
type Mapper interface {
	// Name returns the board name.
	Name() string

	// ReadPRG reads $4020-$FFFF. ok is false when the board leaves the data
	// bus undriven (open bus).
	ReadPRG(address uint16) (value uint8, ok bool)
	// WritePRG handles register and RAM writes to $4020-$FFFF.
	WritePRG(address uint16, value uint8)

	// ReadCHR reads the pattern tables ($0000-$1FFF).
	ReadCHR(address uint16) uint8
	// WriteCHR writes the pattern tables. Ignored for CHR ROM.
	WriteCHR(address uint16, value uint8)

	// NotifyPPUAddress is called with every address the PPU puts on its bus,
	// before the access resolves. stamp is a monotonic PPU dot counter.
	NotifyPPUAddress(address uint16, stamp uint64)
	// SnoopCPU sees every CPU bus access.
	SnoopCPU(address uint16, value uint8, write bool)
	// CPUCycle is called at the end of every CPU cycle.
	CPUCycle()

	// Mirroring returns the current nametable arrangement.
	Mirroring() MirrorMode
	// NametablePage returns the CIRAM page (0-3) backing a nametable quadrant.
	NametablePage(quadrant int) int
	// ReadNametable lets the board drive nametable reads itself.
	ReadNametable(address uint16) (value uint8, ok bool)
	// WriteNametable lets the board absorb nametable writes.
	WriteNametable(address uint16, value uint8) bool

	// IRQ returns the level of the board's IRQ output.
	IRQ() bool
	// Reset is called when the console reset line is pulled.
	Reset()

	SaveState() ([]byte, error)
	LoadState(data []byte) error

	base() *baseMapper
}

// boardInfo is a registry entry.
type boardInfo struct {
	name     string
	policies BankPolicies
	prgBank  int // smallest PRG bank the board switches
	chrBank  int // smallest CHR bank the board switches
	maxCHR   int // bytes of CHR the board can address, 0 for no limit
	ramSize  int // PRG RAM to allocate when the header does not ask for more
	new      func(cart *Cartridge, b baseMapper, opts Options) Mapper
}

const kb = 1024

var registry = map[uint16]boardInfo{
	0:  {name: "NROM", policies: Uniform(BankWrap), prgBank: 16 * kb, chrBank: 8 * kb, maxCHR: 8 * kb, ramSize: 8 * kb, new: newMapper000},
	1:  {name: "SxROM (MMC1)", policies: Uniform(BankWrap), prgBank: 16 * kb, chrBank: 4 * kb, ramSize: 8 * kb, new: newMapper001},
	2:  {name: "UxROM", policies: Uniform(BankWrap), prgBank: 16 * kb, chrBank: 8 * kb, maxCHR: 8 * kb, new: newMapper002},
	3:  {name: "CNROM", policies: Uniform(BankWrap), prgBank: 16 * kb, chrBank: 8 * kb, new: newMapper003},
	4:  {name: "TxROM (MMC3)", policies: Uniform(BankWrap), prgBank: 8 * kb, chrBank: 1 * kb, ramSize: 8 * kb, new: newMapper004},
	5:  {name: "ExROM (MMC5)", policies: BankPolicies{PRG: BankWrap, CHR: BankWrap, RAM: BankOpenBus}, prgBank: 8 * kb, chrBank: 1 * kb, ramSize: 64 * kb, new: newMapper005},
	7:  {name: "AxROM", policies: Uniform(BankWrap), prgBank: 32 * kb, chrBank: 8 * kb, maxCHR: 8 * kb, new: newMapper007},
	9:  {name: "PxROM (MMC2)", policies: Uniform(BankWrap), prgBank: 8 * kb, chrBank: 4 * kb, ramSize: 8 * kb, new: newMapper009},
	10: {name: "FxROM (MMC4)", policies: Uniform(BankWrap), prgBank: 16 * kb, chrBank: 4 * kb, ramSize: 8 * kb, new: newMapper010},
	11: {name: "Color Dreams", policies: Uniform(BankOpenBus), prgBank: 32 * kb, chrBank: 8 * kb, new: newMapper011},
	34: {name: "BNROM / NINA-001", policies: Uniform(BankWrap), prgBank: 32 * kb, chrBank: 4 * kb, ramSize: 8 * kb, new: newMapper034},
	66: {name: "GxROM", policies: Uniform(BankWrap), prgBank: 32 * kb, chrBank: 8 * kb, new: newMapper066},
	69: {name: "Sunsoft FME-7", policies: Uniform(BankWrap), prgBank: 8 * kb, chrBank: 1 * kb, ramSize: 8 * kb, new: newMapper069},
	71: {name: "Camerica", policies: Uniform(BankWrap), prgBank: 16 * kb, chrBank: 8 * kb, maxCHR: 8 * kb, new: newMapper071},
}

// Supported reports whether a mapper number is in the registry.
func Supported(id uint16) bool {
	_, ok := registry[id]
	return ok
}

// SupportedMappers lists the registered mapper numbers and board names.
func SupportedMappers() map[uint16]string {
	m := make(map[uint16]string, len(registry))
	for id, info := range registry {
		m[id] = info.name
	}
	return m
}

// baseMapper holds what every board shares: the cartridge arenas, the bank
// policies and the current mirroring.
type baseMapper struct {
	cart      *Cartridge
	name      string
	policies  BankPolicies
	mirroring MirrorMode
}

func newBase(cart *Cartridge, name string, policies BankPolicies) baseMapper {
	return baseMapper{
		cart:      cart,
		name:      name,
		policies:  policies,
		mirroring: cart.Header.Mirroring,
	}
}

func (b *baseMapper) base() *baseMapper { return b }

func (b *baseMapper) Name() string { return b.name }

func (b *baseMapper) NotifyPPUAddress(address uint16, stamp uint64) {}

func (b *baseMapper) SnoopCPU(address uint16, value uint8, write bool) {}

func (b *baseMapper) CPUCycle() {}

func (b *baseMapper) Mirroring() MirrorMode { return b.mirroring }

func (b *baseMapper) NametablePage(quadrant int) int {
	return mirrorPage(b.mirroring, quadrant)
}

func (b *baseMapper) ReadNametable(address uint16) (uint8, bool) { return 0, false }

func (b *baseMapper) WriteNametable(address uint16, value uint8) bool { return false }

func (b *baseMapper) IRQ() bool { return false }

func (b *baseMapper) Reset() {}

// mirrorPage maps a nametable quadrant (0-3) to a CIRAM page.
func mirrorPage(m MirrorMode, quadrant int) int {
	switch m {
	case MirrorHorizontal:
		return quadrant >> 1
	case MirrorVertical:
		return quadrant & 1
	case MirrorSingleScreen0:
		return 0
	case MirrorSingleScreen1:
		return 1
	case MirrorFourScreen:
		return quadrant & 3
	}
	return quadrant & 1
}

// readPRGROM reads PRG ROM through a bank of bankSize bytes.
func (b *baseMapper) readPRGROM(bank, bankSize int, address uint16) (uint8, bool) {
	off, ok := bankOffset(len(b.cart.prgROM), bankSize, bank, int(address), b.policies.PRG)
	if !ok {
		return 0, false
	}
	return b.cart.prgROM[off], true
}

// readRAM reads PRG RAM through an 8 KiB (or smaller) bank.
func (b *baseMapper) readRAM(bank, bankSize int, address uint16) (uint8, bool) {
	off, ok := bankOffset(len(b.cart.prgRAM), bankSize, bank, int(address), b.policies.RAM)
	if !ok {
		return 0, false
	}
	return b.cart.prgRAM[off], true
}

func (b *baseMapper) writeRAM(bank, bankSize int, address uint16, value uint8) {
	off, ok := bankOffset(len(b.cart.prgRAM), bankSize, bank, int(address), b.policies.RAM)
	if ok {
		b.cart.prgRAM[off] = value
	}
}

// readCHRBank reads CHR through a bank of bankSize bytes. Undriven reads
// return the low address byte left on the PPU's multiplexed bus.
func (b *baseMapper) readCHRBank(bank, bankSize int, address uint16) uint8 {
	off, ok := bankOffset(len(b.cart.chr), bankSize, bank, int(address), b.policies.CHR)
	if !ok {
		return uint8(address)
	}
	return b.cart.chr[off]
}

func (b *baseMapper) writeCHRBank(bank, bankSize int, address uint16, value uint8) {
	if !b.cart.chrIsRAM {
		return
	}
	off, ok := bankOffset(len(b.cart.chr), bankSize, bank, int(address), b.policies.CHR)
	if ok {
		b.cart.chr[off] = value
	}
}

// boardState is the serialized form shared by every board.
type boardState struct {
	Board     string          `json:"board"`
	Mirroring MirrorMode      `json:"mirroring"`
	Registers json.RawMessage `json:"registers"`
}

func (b *baseMapper) marshal(regs any) ([]byte, error) {
	raw, err := json.Marshal(regs)
	if err != nil {
		return nil, fmt.Errorf("%s registers: %w", b.name, err)
	}
	return json.Marshal(boardState{Board: b.name, Mirroring: b.mirroring, Registers: raw})
}

func (b *baseMapper) unmarshal(data []byte, regs any) error {
	var s boardState
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%s state: %w", b.name, err)
	}
	if s.Board != b.name {
		return fmt.Errorf("state belongs to board %q, cartridge is %q", s.Board, b.name)
	}
	if err := json.Unmarshal(s.Registers, regs); err != nil {
		return fmt.Errorf("%s registers: %w", b.name, err)
	}
	b.mirroring = s.Mirroring
	return nil
}
