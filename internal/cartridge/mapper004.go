package cartridge

import "fmt"

// MMC3IRQVariant selects how the MMC3 scanline counter raises its IRQ.
type MMC3IRQVariant uint8

const (
	// MMC3IRQAuto picks the variant from the NES 2.0 submapper.
	MMC3IRQAuto MMC3IRQVariant = iota
	// MMC3IRQSharp is the common later revision: the IRQ fires whenever the
	// counter is zero after a clock.
	MMC3IRQSharp
	// MMC3IRQNEC is the early (rev A) revision: the IRQ fires only when the
	// counter reaches zero by decrementing or by an explicit reload.
	MMC3IRQNEC
)

func (v MMC3IRQVariant) String() string {
	switch v {
	case MMC3IRQAuto:
		return "auto"
	case MMC3IRQSharp:
		return "sharp"
	case MMC3IRQNEC:
		return "nec"
	}
	return fmt.Sprintf("MMC3IRQVariant(%d)", uint8(v))
}

// ParseMMC3IRQVariant converts a config string to a variant.
func ParseMMC3IRQVariant(s string) (MMC3IRQVariant, error) {
	switch s {
	case "", "auto":
		return MMC3IRQAuto, nil
	case "sharp", "new":
		return MMC3IRQSharp, nil
	case "nec", "old":
		return MMC3IRQNEC, nil
	}
	return MMC3IRQAuto, fmt.Errorf("unknown MMC3 IRQ variant %q", s)
}

// mmc3A12Filter is how many PPU dots A12 must stay low for a rising edge to
// clock the counter. It spans the gaps between pattern fetches inside one
// scanline but not the gap between the sprite and background fetch blocks.
const mmc3A12Filter = 10

// Mapper004 implements TxROM boards built around the MMC3, and HKROM
// (submapper 1) built around the MMC6.
type Mapper004 struct {
	baseMapper
	regs    mmc3Registers
	variant MMC3IRQVariant
	mmc6    bool
}

type mmc3Registers struct {
	BankSelect uint8
	Banks      [8]uint8
	RAMProtect uint8

	IRQLatch   uint8
	IRQCounter uint8
	IRQReload  bool
	IRQEnabled bool
	IRQPending bool

	A12High  bool
	LastHigh uint64
}

// MMC6 work RAM: 1 KiB at $7000-$7FFF, mirrored, in two 512 byte halves.
const (
	mmc6RAMSize     = kb
	mmc6RAMEnable   = 0x20 // $8000 bit 5
	mmc6ReadHigh    = 0x80 // $A001 bits for $7200-$73FF
	mmc6WriteHigh   = 0x40
	mmc6ReadLow     = 0x20 // $A001 bits for $7000-$71FF
	mmc6WriteLow    = 0x10
	mmc6ReadEnables = mmc6ReadHigh | mmc6ReadLow
)

func newMapper004(cart *Cartridge, b baseMapper, opts Options) Mapper {
	m := &Mapper004{baseMapper: b, variant: opts.MMC3IRQ}
	m.mmc6 = cart.Header.IsNES2 && cart.Header.Submapper == 1
	if m.variant == MMC3IRQAuto {
		m.variant = MMC3IRQSharp
		if cart.Header.IsNES2 && (cart.Header.Submapper == 1 || cart.Header.Submapper == 4) {
			m.variant = MMC3IRQNEC
		}
	}
	if m.mmc6 {
		m.name = "HKROM (MMC6)"
	} else {
		m.regs.RAMProtect = 0x80
	}
	m.regs.Banks = [8]uint8{0, 2, 4, 5, 6, 7, 0, 1}
	return m
}

// Variant returns the IRQ revision in effect.
func (m *Mapper004) Variant() MMC3IRQVariant { return m.variant }

// IsMMC6 reports whether the board is an HKROM.
func (m *Mapper004) IsMMC6() bool { return m.mmc6 }

func (m *Mapper004) prgBank(address uint16) int {
	slot := int(address-0x8000) / (8 * kb)
	swap := m.regs.BankSelect&0x40 != 0
	switch slot {
	case 0:
		if swap {
			return -2
		}
		return int(m.regs.Banks[6])
	case 1:
		return int(m.regs.Banks[7])
	case 2:
		if swap {
			return int(m.regs.Banks[6])
		}
		return -2
	}
	return -1
}

func (m *Mapper004) chrBank(address uint16) int {
	if m.regs.BankSelect&0x80 != 0 {
		address ^= 0x1000
	}
	slot := int(address / kb)
	switch {
	case slot < 2:
		return int(m.regs.Banks[0]&0xFE) | slot
	case slot < 4:
		return int(m.regs.Banks[1]&0xFE) | (slot & 1)
	}
	return int(m.regs.Banks[slot-2])
}

func (m *Mapper004) ReadPRG(address uint16) (uint8, bool) {
	switch {
	case address >= 0x8000:
		return m.readPRGROM(m.prgBank(address), 8*kb, address)
	case address >= 0x6000 && m.mmc6:
		return m.readMMC6RAM(address)
	case address >= 0x6000:
		if m.regs.RAMProtect&0x80 == 0 {
			return 0, false
		}
		return m.readRAM(0, 8*kb, address)
	}
	return 0, false
}

// mmc6Half returns the read and write enable bits for the 512 byte half
// that address falls in.
func mmc6Half(address uint16) (read, write uint8) {
	if address&0x200 != 0 {
		return mmc6ReadHigh, mmc6WriteHigh
	}
	return mmc6ReadLow, mmc6WriteLow
}

// readMMC6RAM: $6000-$6FFF is open bus. With neither half readable
// $7000-$7FFF is open bus too; with only the other half readable this one
// reads 0.
func (m *Mapper004) readMMC6RAM(address uint16) (uint8, bool) {
	if address < 0x7000 || m.regs.BankSelect&mmc6RAMEnable == 0 {
		return 0, false
	}
	enables := m.regs.RAMProtect
	if enables&mmc6ReadEnables == 0 {
		return 0, false
	}
	read, _ := mmc6Half(address)
	if enables&read == 0 {
		return 0, true
	}
	return m.readRAM(0, mmc6RAMSize, address)
}

func (m *Mapper004) writeMMC6RAM(address uint16, value uint8) {
	if address < 0x7000 || m.regs.BankSelect&mmc6RAMEnable == 0 {
		return
	}
	read, write := mmc6Half(address)
	if m.regs.RAMProtect&(read|write) == read|write {
		m.writeRAM(0, mmc6RAMSize, address, value)
	}
}

func (m *Mapper004) WritePRG(address uint16, value uint8) {
	if address < 0x6000 {
		return
	}
	if address < 0x8000 {
		if m.mmc6 {
			m.writeMMC6RAM(address, value)
			return
		}
		if m.regs.RAMProtect&0xC0 == 0x80 {
			m.writeRAM(0, 8*kb, address, value)
		}
		return
	}

	even := address&1 == 0
	switch address & 0xE000 {
	case 0x8000:
		if even {
			m.regs.BankSelect = value
			if m.mmc6 && value&mmc6RAMEnable == 0 {
				// a disabled MMC6 holds its protect register at 0
				m.regs.RAMProtect = 0
			}
		} else {
			m.regs.Banks[m.regs.BankSelect&7] = value
		}
	case 0xA000:
		if !even {
			if m.mmc6 && m.regs.BankSelect&mmc6RAMEnable == 0 {
				return
			}
			m.regs.RAMProtect = value
			return
		}
		if m.cart.Header.Mirroring == MirrorFourScreen {
			return
		}
		if value&1 == 0 {
			m.mirroring = MirrorVertical
		} else {
			m.mirroring = MirrorHorizontal
		}
	case 0xC000:
		if even {
			m.regs.IRQLatch = value
		} else {
			m.regs.IRQCounter = 0
			m.regs.IRQReload = true
		}
	case 0xE000:
		if even {
			m.regs.IRQEnabled = false
			m.regs.IRQPending = false
		} else {
			m.regs.IRQEnabled = true
		}
	}
}

func (m *Mapper004) ReadCHR(address uint16) uint8 {
	return m.readCHRBank(m.chrBank(address), kb, address)
}

func (m *Mapper004) WriteCHR(address uint16, value uint8) {
	m.writeCHRBank(m.chrBank(address), kb, address, value)
}

// NotifyPPUAddress watches PPU A12 for filtered rising edges.
func (m *Mapper004) NotifyPPUAddress(address uint16, stamp uint64) {
	if address&0x1000 == 0 {
		m.regs.A12High = false
		return
	}
	if !m.regs.A12High && stamp-m.regs.LastHigh >= mmc3A12Filter {
		m.clockCounter()
	}
	m.regs.A12High = true
	m.regs.LastHigh = stamp
}

func (m *Mapper004) clockCounter() {
	previous := m.regs.IRQCounter
	reloaded := m.regs.IRQReload
	if m.regs.IRQCounter == 0 || m.regs.IRQReload {
		m.regs.IRQCounter = m.regs.IRQLatch
		m.regs.IRQReload = false
	} else {
		m.regs.IRQCounter--
	}

	if m.regs.IRQCounter != 0 || !m.regs.IRQEnabled {
		return
	}
	if m.variant == MMC3IRQNEC && previous == 0 && !reloaded {
		return
	}
	m.regs.IRQPending = true
}

func (m *Mapper004) IRQ() bool { return m.regs.IRQPending }

func (m *Mapper004) SaveState() ([]byte, error) { return m.marshal(m.regs) }

func (m *Mapper004) LoadState(data []byte) error { return m.unmarshal(data, &m.regs) }
