package ppu

// State is a snapshot of the PPU. The frame buffer is not included; it is
// fully redrawn by the next frame.
type State struct {
	Ctrl       uint8  `json:"ctrl"`
	Mask       uint8  `json:"mask"`
	Status     uint8  `json:"status"`
	OAMAddr    uint8  `json:"oam_addr"`
	V          uint16 `json:"v"`
	T          uint16 `json:"t"`
	FineX      uint8  `json:"fine_x"`
	W          bool   `json:"w"`
	IOLatch    uint8  `json:"io_latch"`
	ReadBuffer uint8  `json:"read_buffer"`

	Scanline      int    `json:"scanline"`
	Dot           int    `json:"dot"`
	Frame         uint64 `json:"frame"`
	OddFrame      bool   `json:"odd_frame"`
	Dots          uint64 `json:"dots"`
	NMISuppressed bool   `json:"nmi_suppressed"`

	NTLatch     uint8  `json:"nt_latch"`
	ATLatch     uint8  `json:"at_latch"`
	PTLowLatch  uint8  `json:"pt_low_latch"`
	PTHighLatch uint8  `json:"pt_high_latch"`
	PatternLow  uint16 `json:"pattern_low"`
	PatternHigh uint16 `json:"pattern_high"`
	AttrLow     uint16 `json:"attr_low"`
	AttrHigh    uint16 `json:"attr_high"`

	OAM            []uint8       `json:"oam"`
	SecondaryOAM   []uint8       `json:"secondary_oam"`
	OAMLatch       uint8         `json:"oam_latch"`
	SecIndex       int           `json:"sec_index"`
	SpritesFound   int           `json:"sprites_found"`
	EvalDone       bool          `json:"eval_done"`
	SpriteZeroNext bool          `json:"sprite_zero_next"`
	SpriteZeroLine bool          `json:"sprite_zero_line"`
	SpriteCount    int           `json:"sprite_count"`
	Sprites        [8]SpriteSlot `json:"sprites"`
}

// SaveState captures the PPU.
func (p *PPU) SaveState() State {
	return State{
		Ctrl:       uint8(p.ctrl),
		Mask:       uint8(p.mask),
		Status:     uint8(p.status),
		OAMAddr:    p.oamAddr,
		V:          uint16(p.v),
		T:          uint16(p.t),
		FineX:      p.x,
		W:          p.w,
		IOLatch:    p.ioLatch,
		ReadBuffer: p.readBuffer,

		Scanline:      p.scanline,
		Dot:           p.dot,
		Frame:         p.frame,
		OddFrame:      p.oddFrame,
		Dots:          p.dots,
		NMISuppressed: p.nmiSuppressed,

		NTLatch:     p.ntLatch,
		ATLatch:     p.atLatch,
		PTLowLatch:  p.ptLowLatch,
		PTHighLatch: p.ptHighLatch,
		PatternLow:  p.patternLow,
		PatternHigh: p.patternHigh,
		AttrLow:     p.attrLow,
		AttrHigh:    p.attrHigh,

		OAM:            append([]uint8(nil), p.oam[:]...),
		SecondaryOAM:   append([]uint8(nil), p.secondaryOAM[:]...),
		OAMLatch:       p.oamLatch,
		SecIndex:       p.secIndex,
		SpritesFound:   p.spritesFound,
		EvalDone:       p.evalDone,
		SpriteZeroNext: p.spriteZeroNext,
		SpriteZeroLine: p.spriteZeroLine,
		SpriteCount:    p.spriteCount,
		Sprites:        p.sprites,
	}
}

// LoadState restores a snapshot taken by SaveState and re-drives the NMI
// line.
func (p *PPU) LoadState(s State) {
	p.ctrl = ctrlRegister(s.Ctrl)
	p.mask = maskRegister(s.Mask)
	p.status = statusRegister(s.Status)
	p.oamAddr = s.OAMAddr
	p.v = loopyAddress(s.V)
	p.t = loopyAddress(s.T)
	p.x = s.FineX
	p.w = s.W
	p.ioLatch = s.IOLatch
	p.readBuffer = s.ReadBuffer

	p.scanline = s.Scanline
	p.dot = s.Dot
	p.frame = s.Frame
	p.oddFrame = s.OddFrame
	p.dots = s.Dots
	p.nmiSuppressed = s.NMISuppressed

	p.ntLatch = s.NTLatch
	p.atLatch = s.ATLatch
	p.ptLowLatch = s.PTLowLatch
	p.ptHighLatch = s.PTHighLatch
	p.patternLow = s.PatternLow
	p.patternHigh = s.PatternHigh
	p.attrLow = s.AttrLow
	p.attrHigh = s.AttrHigh

	copy(p.oam[:], s.OAM)
	copy(p.secondaryOAM[:], s.SecondaryOAM)
	p.oamLatch = s.OAMLatch
	p.secIndex = s.SecIndex
	p.spritesFound = s.SpritesFound
	p.evalDone = s.EvalDone
	p.spriteZeroNext = s.SpriteZeroNext
	p.spriteZeroLine = s.SpriteZeroLine
	p.spriteCount = s.SpriteCount
	p.sprites = s.Sprites

	p.updateNMI()
}
