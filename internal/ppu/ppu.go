// Package ppu implements the Picture Processing Unit (2C02) as a dot-level
// state machine.
package ppu

import (
	"math/bits"

	"cyclenes/internal/logger"
)

// Frame geometry
const (
	ScreenWidth  = 256
	ScreenHeight = 240

	dotsPerLine   = 341
	linesPerFrame = 262
	vblankLine    = 241
	preRenderLine = 261
)

// Bus is the PPU address space. Fetch, Store and Notify expose the address
// to the cartridge before the access resolves.
type Bus interface {
	Fetch(address uint16, stamp uint64) uint8
	Store(address uint16, value uint8, stamp uint64)
	Notify(address uint16, stamp uint64)
	ReadPalette(index uint8) uint8
}

// NMIOutput is the /NMI line driven by the PPU.
type NMIOutput interface {
	SetNMI(level bool)
}

// SpriteSlot is one of the eight sprite output units.
type SpriteSlot struct {
	Y           uint8 `json:"y"`
	Tile        uint8 `json:"tile"`
	Attr        uint8 `json:"attr"`
	X           uint8 `json:"x"`
	PatternLow  uint8 `json:"pattern_low"`
	PatternHigh uint8 `json:"pattern_high"`
}

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	// CPU-visible registers
	ctrl    ctrlRegister
	mask    maskRegister
	status  statusRegister
	oamAddr uint8

	// Internal scroll registers
	v loopyAddress
	t loopyAddress
	x uint8 // fine X
	w bool  // shared $2005/$2006 write toggle

	ioLatch    uint8 // last value written to or read from a register
	readBuffer uint8 // $2007 read buffer

	// Timing. scanline and dot name the next dot to run.
	scanline      int
	dot           int
	frame         uint64
	oddFrame      bool
	dots          uint64
	nmiSuppressed bool

	// Background pipeline
	ntLatch     uint8
	atLatch     uint8
	ptLowLatch  uint8
	ptHighLatch uint8
	patternLow  uint16
	patternHigh uint16
	attrLow     uint16
	attrHigh    uint16

	// Sprites
	oam            [256]uint8
	secondaryOAM   [32]uint8
	oamLatch       uint8
	secIndex       int
	spritesFound   int
	evalDone       bool
	spriteZeroNext bool // sprite 0 is in the next line's set
	spriteZeroLine bool // slot 0 holds sprite 0 on the current line
	spriteCount    int
	sprites        [8]SpriteSlot

	frameBuffer [ScreenWidth * ScreenHeight]uint32

	bus Bus
	nmi NMIOutput
}

// New creates a PPU connected to its memory and the CPU's NMI input.
func New(bus Bus, nmi NMIOutput) *PPU {
	return &PPU{bus: bus, nmi: nmi}
}

// PowerOn clears all state, OAM and the frame buffer included.
func (p *PPU) PowerOn() {
	*p = PPU{bus: p.bus, nmi: p.nmi}
	p.updateNMI()
	logger.Log(logger.TagPPU, "power on")
}

// Reset models the reset line: the control registers, the write toggle and
// the read buffer clear and the frame restarts. OAM and VRAM are kept.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.w = false
	p.x = 0
	p.readBuffer = 0
	p.scanline = 0
	p.dot = 0
	p.oddFrame = false
	p.nmiSuppressed = false
	p.updateNMI()
	logger.Log(logger.TagPPU, "reset")
}

// FrameBuffer returns the 0x00RRGGBB frame. Callers must not modify it.
func (p *PPU) FrameBuffer() *[ScreenWidth * ScreenHeight]uint32 {
	return &p.frameBuffer
}

// Frame returns the number of completed frames
func (p *PPU) Frame() uint64 {
	return p.frame
}

// Position returns the scanline and dot the next Step will run.
func (p *PPU) Position() (scanline, dot int) {
	return p.scanline, p.dot
}

// Dots returns the number of dots run since power-on
func (p *PPU) Dots() uint64 {
	return p.dots
}

// OAM returns a copy of sprite memory
func (p *PPU) OAM() [256]uint8 {
	return p.oam
}

// Step runs one dot.
func (p *PPU) Step() {
	rendering := p.mask.renderingEnabled()
	visible := p.scanline < ScreenHeight
	preRender := p.scanline == preRenderLine

	if visible && p.dot >= 1 && p.dot <= 256 {
		p.renderPixel(rendering)
	}
	if rendering && (visible || preRender) {
		p.renderCycle(visible, preRender)
	}

	if p.dot == 1 {
		switch p.scanline {
		case vblankLine:
			p.status.set(statusVBlank, true)
			p.updateNMI()
		case preRenderLine:
			p.status.set(statusVBlank|statusSpriteZero|statusOverflow, false)
			p.nmiSuppressed = false
			p.updateNMI()
		}
	}

	p.advance(rendering)
}

func (p *PPU) advance(rendering bool) {
	p.dots++
	p.dot++
	skip := p.dot == 340 && p.scanline == preRenderLine && p.oddFrame && rendering
	if p.dot < dotsPerLine && !skip {
		return
	}
	p.dot = 0
	p.scanline++
	if p.scanline == linesPerFrame {
		p.scanline = 0
		p.frame++
		p.oddFrame = !p.oddFrame
	}
}

// renderCycle runs the fetch pipelines for one dot of a rendering line.
func (p *PPU) renderCycle(visible, preRender bool) {
	dot := p.dot

	if (dot >= 1 && dot <= 256) || (dot >= 321 && dot <= 336) {
		p.shiftBackground()
		switch dot & 7 {
		case 1:
			p.ntLatch = p.bus.Fetch(p.v.tileAddress(), p.dots)
		case 3:
			at := p.bus.Fetch(p.v.attributeAddress(), p.dots)
			shift := (p.v.coarseY()&2)<<1 | p.v.coarseX()&2
			p.atLatch = at >> shift & 3
		case 5:
			p.ptLowLatch = p.bus.Fetch(p.backgroundPatternAddress(), p.dots)
		case 7:
			p.ptHighLatch = p.bus.Fetch(p.backgroundPatternAddress()+8, p.dots)
		case 0:
			p.loadBackground()
			p.v.incrementX()
		}
	}

	switch {
	case dot == 256:
		p.v.incrementY()
	case dot == 257:
		p.v.copyX(p.t)
		p.spriteCount = p.spritesFound
		p.spriteZeroLine = p.spriteZeroNext
	case dot == 337 || dot == 339:
		p.ntLatch = p.bus.Fetch(p.v.tileAddress(), p.dots)
	}

	if dot >= 257 && dot <= 320 {
		p.oamAddr = 0
		p.fetchSprites(dot - 257)
	}
	if preRender {
		if dot == 1 {
			p.spritesFound = 0
			p.spriteZeroNext = false
		}
		if dot >= 280 && dot <= 304 {
			p.v.copyY(p.t)
		}
	}
	if visible && dot >= 1 && dot <= 256 {
		p.evaluateSprites(dot)
	}
}

func (p *PPU) backgroundPatternAddress() uint16 {
	return p.ctrl.backgroundTable() | uint16(p.ntLatch)<<4 | p.v.fineY()
}

func (p *PPU) shiftBackground() {
	p.patternLow <<= 1
	p.patternHigh <<= 1
	p.attrLow <<= 1
	p.attrHigh <<= 1
}

func (p *PPU) loadBackground() {
	p.patternLow = p.patternLow&0xFF00 | uint16(p.ptLowLatch)
	p.patternHigh = p.patternHigh&0xFF00 | uint16(p.ptHighLatch)
	p.attrLow &= 0xFF00
	p.attrHigh &= 0xFF00
	if p.atLatch&1 != 0 {
		p.attrLow |= 0x00FF
	}
	if p.atLatch&2 != 0 {
		p.attrHigh |= 0x00FF
	}
}

// renderPixel outputs the pixel for the current dot.
func (p *PPU) renderPixel(rendering bool) {
	x := p.dot - 1
	out := &p.frameBuffer[p.scanline*ScreenWidth+x]

	if !rendering {
		// Forced blank shows the backdrop, or the palette entry v points at
		addr := uint16(p.v) & 0x3FFF
		if addr >= 0x3F00 {
			*out = p.colorToRGB(p.bus.ReadPalette(uint8(addr)))
		} else {
			*out = p.colorToRGB(p.bus.ReadPalette(0))
		}
		return
	}

	var bgPixel, bgPalette uint8
	if p.mask.showBackground() && (x >= 8 || p.mask.backgroundLeft()) {
		shift := 15 - p.x
		bgPixel = uint8(p.patternHigh>>shift&1)<<1 | uint8(p.patternLow>>shift&1)
		bgPalette = uint8(p.attrHigh>>shift&1)<<1 | uint8(p.attrLow>>shift&1)
	}

	var spPixel, spAttr uint8
	if p.mask.showSprites() && (x >= 8 || p.mask.spritesLeft()) {
		for i := 0; i < p.spriteCount; i++ {
			s := &p.sprites[i]
			offset := x - int(s.X)
			if offset < 0 || offset > 7 {
				continue
			}
			shift := 7 - offset
			pixel := (s.PatternHigh>>shift&1)<<1 | s.PatternLow>>shift&1
			if pixel == 0 {
				continue
			}
			if i == 0 && p.spriteZeroLine && bgPixel != 0 && x != 255 {
				p.status.set(statusSpriteZero, true)
			}
			spPixel = pixel
			spAttr = s.Attr
			break
		}
	}

	var color uint8
	switch {
	case bgPixel == 0 && spPixel == 0:
		color = p.bus.ReadPalette(0)
	case bgPixel == 0, spPixel != 0 && spAttr&0x20 == 0:
		color = p.bus.ReadPalette(0x10 | (spAttr&3)<<2 | spPixel)
	default:
		color = p.bus.ReadPalette(bgPalette<<2 | bgPixel)
	}
	*out = p.colorToRGB(color)
}

// evaluateSprites runs secondary OAM clear (dots 1-64) and the odd-read,
// even-write evaluation for the next line (dots 65-256).
func (p *PPU) evaluateSprites(dot int) {
	switch {
	case dot <= 64:
		if dot&1 == 0 {
			p.secondaryOAM[dot/2-1] = 0xFF
		}
		p.oamLatch = 0xFF
		return
	case dot == 65:
		p.secIndex = 0
		p.spritesFound = 0
		p.evalDone = false
		p.spriteZeroNext = false
	}

	if dot&1 == 1 {
		p.oamLatch = p.oam[p.oamAddr]
		return
	}
	if p.evalDone {
		return
	}

	if p.spritesFound < 8 {
		p.secondaryOAM[p.secIndex] = p.oamLatch
		if p.oamAddr&3 == 0 {
			if !p.inRange(p.oamLatch) {
				p.nextSprite()
				return
			}
			if p.oamAddr < 4 {
				p.spriteZeroNext = true
			}
		}
		p.secIndex++
		p.oamAddr++
		if p.oamAddr&3 == 0 {
			p.spritesFound++
			if p.oamAddr == 0 {
				p.evalDone = true
			}
		}
		return
	}

	// Eight sprites found: the overflow search treats whatever byte it reads
	// as a Y coordinate and advances n and m together.
	if p.inRange(p.oamLatch) {
		p.status.set(statusOverflow, true)
		p.evalDone = true
		return
	}
	previous := p.oamAddr
	p.oamAddr = (p.oamAddr+4)&0xFC | (p.oamAddr+1)&3
	if p.oamAddr&0xFC < previous&0xFC {
		p.evalDone = true
	}
}

func (p *PPU) nextSprite() {
	previous := p.oamAddr
	p.oamAddr = (p.oamAddr + 4) & 0xFC
	if p.oamAddr < previous {
		p.evalDone = true
	}
}

func (p *PPU) inRange(y uint8) bool {
	row := p.scanline - int(y)
	return row >= 0 && row < p.ctrl.spriteHeight()
}

// fetchSprites runs step n (0-63) of the sprite fetch window.
func (p *PPU) fetchSprites(n int) {
	i := n / 8
	s := &p.sprites[i]
	switch n & 7 {
	case 0:
		p.bus.Fetch(p.v.tileAddress(), p.dots)
		if i < p.spritesFound {
			s.Y = p.secondaryOAM[i*4]
			s.Tile = p.secondaryOAM[i*4+1]
			s.Attr = p.secondaryOAM[i*4+2]
			s.X = p.secondaryOAM[i*4+3]
		} else {
			*s = SpriteSlot{Y: 0xFF, Tile: 0xFF, Attr: 0xFF, X: 0xFF}
		}
	case 2:
		p.bus.Fetch(p.v.attributeAddress(), p.dots)
	case 4:
		s.PatternLow = p.fetchSpritePattern(i, 0)
	case 6:
		s.PatternHigh = p.fetchSpritePattern(i, 8)
	}
}

func (p *PPU) fetchSpritePattern(i int, plane uint16) uint8 {
	s := &p.sprites[i]
	height := uint16(p.ctrl.spriteHeight())
	row := uint16(uint8(p.scanline)-s.Y) & (height - 1)
	if s.Attr&0x80 != 0 {
		row = height - 1 - row
	}

	var addr uint16
	if height == 16 {
		tile := uint16(s.Tile & 0xFE)
		if row >= 8 {
			tile++
			row -= 8
		}
		addr = uint16(s.Tile&1)<<12 | tile<<4 | row
	} else {
		addr = p.ctrl.spriteTable() | uint16(s.Tile)<<4 | row
	}

	data := p.bus.Fetch(addr+plane, p.dots)
	if i >= p.spritesFound {
		return 0
	}
	if s.Attr&0x40 != 0 {
		data = bits.Reverse8(data)
	}
	return data
}

func (p *PPU) updateNMI() {
	if p.nmi != nil {
		p.nmi.SetNMI(p.ctrl.nmiEnabled() && p.status.vblank() && !p.nmiSuppressed)
	}
}

// renderingLine reports whether the pipelines own the PPU bus right now.
func (p *PPU) renderingLine() bool {
	return p.mask.renderingEnabled() && (p.scanline < ScreenHeight || p.scanline == preRenderLine)
}

// ReadRegister reads from a PPU register (CPU $2000-$2007)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address & 7 {
	case 2: // PPUSTATUS
		if p.scanline == vblankLine && p.dot == 1 {
			// one dot early: the flag still reads clear and this frame's NMI is lost
			p.nmiSuppressed = true
		}
		value := uint8(p.status)&0xE0 | p.ioLatch&0x1F
		p.status.set(statusVBlank, false)
		p.w = false
		p.updateNMI()
		p.ioLatch = value
		return value
	case 4: // OAMDATA
		p.ioLatch = p.readOAMData()
		return p.ioLatch
	case 7: // PPUDATA
		p.ioLatch = p.readData()
		return p.ioLatch
	default: // write-only
		return p.ioLatch
	}
}

// WriteRegister writes to a PPU register (CPU $2000-$2007)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.ioLatch = value

	switch address & 7 {
	case 0: // PPUCTRL
		p.ctrl = ctrlRegister(value)
		p.t.setNametable(value)
		p.updateNMI()
	case 1: // PPUMASK
		p.mask = maskRegister(value)
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		if p.renderingLine() {
			p.oamAddr += 4
			return
		}
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5: // PPUSCROLL
		if !p.w {
			p.t.setCoarseX(value >> 3)
			p.x = value & 7
		} else {
			p.t.setFineY(value)
			p.t.setCoarseY(value >> 3)
		}
		p.w = !p.w
	case 6: // PPUADDR
		if !p.w {
			p.t = p.t&0x00FF | loopyAddress(value&0x3F)<<8
		} else {
			p.t = p.t&0x7F00 | loopyAddress(value)
			p.v = p.t
			p.bus.Notify(uint16(p.v), p.dots)
		}
		p.w = !p.w
	case 7: // PPUDATA
		p.bus.Store(uint16(p.v)&0x3FFF, value, p.dots)
		p.incrementAddress()
	}
}

func (p *PPU) readOAMData() uint8 {
	if p.scanline < ScreenHeight && p.mask.renderingEnabled() && p.dot >= 1 && p.dot <= 64 {
		return 0xFF
	}
	value := p.oam[p.oamAddr]
	if p.oamAddr&3 == 2 {
		value &= 0xE3
	}
	return value
}

func (p *PPU) readData() uint8 {
	addr := uint16(p.v) & 0x3FFF
	var value uint8
	if addr >= 0x3F00 {
		// Palette reads bypass the buffer, which is refilled from the
		// nametable underneath
		palette := p.bus.ReadPalette(uint8(addr))
		if p.mask.greyscale() {
			palette &= 0x30
		}
		value = p.ioLatch&0xC0 | palette
		p.readBuffer = p.bus.Fetch(addr-0x1000, p.dots)
	} else {
		value = p.readBuffer
		p.readBuffer = p.bus.Fetch(addr, p.dots)
	}
	p.incrementAddress()
	return value
}

// incrementAddress steps v after a $2007 access. While rendering, the
// access clocks the scroll counters instead.
func (p *PPU) incrementAddress() {
	if p.renderingLine() {
		p.v.incrementX()
		p.v.incrementY()
	} else {
		p.v = (p.v + loopyAddress(p.ctrl.increment())) & 0x7FFF
	}
	p.bus.Notify(uint16(p.v), p.dots)
}
