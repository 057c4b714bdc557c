package ppu

// ctrlRegister is PPUCTRL ($2000).
type ctrlRegister uint8

func (c ctrlRegister) nametable() uint16 { return uint16(c) & 0x03 }

// increment is the VRAM address step after a $2007 access
func (c ctrlRegister) increment() uint16 {
	if c&0x04 != 0 {
		return 32
	}
	return 1
}

func (c ctrlRegister) spriteTable() uint16 {
	if c&0x08 != 0 {
		return 0x1000
	}
	return 0
}

func (c ctrlRegister) backgroundTable() uint16 {
	if c&0x10 != 0 {
		return 0x1000
	}
	return 0
}

func (c ctrlRegister) tallSprites() bool { return c&0x20 != 0 }
func (c ctrlRegister) nmiEnabled() bool  { return c&0x80 != 0 }

func (c ctrlRegister) spriteHeight() int {
	if c.tallSprites() {
		return 16
	}
	return 8
}

// maskRegister is PPUMASK ($2001).
type maskRegister uint8

func (m maskRegister) greyscale() bool        { return m&0x01 != 0 }
func (m maskRegister) backgroundLeft() bool   { return m&0x02 != 0 }
func (m maskRegister) spritesLeft() bool      { return m&0x04 != 0 }
func (m maskRegister) showBackground() bool   { return m&0x08 != 0 }
func (m maskRegister) showSprites() bool      { return m&0x10 != 0 }
func (m maskRegister) renderingEnabled() bool { return m&0x18 != 0 }

// emphasis returns the red/green/blue emphasis bits as 0-7
func (m maskRegister) emphasis() uint8 { return uint8(m) >> 5 }

// statusRegister holds the three real bits of PPUSTATUS ($2002).
type statusRegister uint8

const (
	statusOverflow   statusRegister = 0x20
	statusSpriteZero statusRegister = 0x40
	statusVBlank     statusRegister = 0x80
)

func (s statusRegister) vblank() bool { return s&statusVBlank != 0 }

func (s *statusRegister) set(bits statusRegister, on bool) {
	if on {
		*s |= bits
	} else {
		*s &^= bits
	}
}

// loopyAddress is the 15-bit v/t register layout:
//
//	yyy NN YYYYY XXXXX
//	fine Y, nametable, coarse Y, coarse X
type loopyAddress uint16

func (l loopyAddress) coarseX() uint16   { return uint16(l) & 0x001F }
func (l loopyAddress) coarseY() uint16   { return uint16(l) >> 5 & 0x001F }
func (l loopyAddress) nametable() uint16 { return uint16(l) >> 10 & 0x0003 }
func (l loopyAddress) fineY() uint16     { return uint16(l) >> 12 & 0x0007 }

func (l *loopyAddress) setCoarseX(x uint8) {
	*l = *l&^0x001F | loopyAddress(x&0x1F)
}

func (l *loopyAddress) setCoarseY(y uint8) {
	*l = *l&^0x03E0 | loopyAddress(y&0x1F)<<5
}

func (l *loopyAddress) setNametable(n uint8) {
	*l = *l&^0x0C00 | loopyAddress(n&0x03)<<10
}

func (l *loopyAddress) setFineY(y uint8) {
	*l = *l&^0x7000 | loopyAddress(y&0x07)<<12
}

// tileAddress is the nametable byte addressed by v
func (l loopyAddress) tileAddress() uint16 {
	return 0x2000 | uint16(l)&0x0FFF
}

// attributeAddress is the attribute byte covering the tile addressed by v
func (l loopyAddress) attributeAddress() uint16 {
	return 0x23C0 | uint16(l)&0x0C00 | l.coarseY()>>2<<3 | l.coarseX()>>2
}

// incrementX advances coarse X, wrapping into the horizontally adjacent
// nametable.
func (l *loopyAddress) incrementX() {
	if l.coarseX() == 31 {
		*l &^= 0x001F
		*l ^= 0x0400
	} else {
		*l++
	}
}

// incrementY advances fine Y, carrying into coarse Y. Row 29 wraps into the
// vertically adjacent nametable; rows 30 and 31 wrap without switching.
func (l *loopyAddress) incrementY() {
	if l.fineY() < 7 {
		*l += 0x1000
		return
	}
	*l &^= 0x7000
	y := l.coarseY()
	switch y {
	case 29:
		y = 0
		*l ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	l.setCoarseY(uint8(y))
}

// copyX copies coarse X and the horizontal nametable bit from t
func (l *loopyAddress) copyX(t loopyAddress) {
	*l = *l&0x7BE0 | t&0x041F
}

// copyY copies fine Y, coarse Y and the vertical nametable bit from t
func (l *loopyAddress) copyY(t loopyAddress) {
	*l = *l&0x041F | t&0x7BE0
}
