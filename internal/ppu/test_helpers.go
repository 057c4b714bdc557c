package ppu

// Test helper methods for PPU testing

// SetPositionForTesting moves the beam to the given scanline and dot
func (p *PPU) SetPositionForTesting(scanline, dot int) {
	p.scanline = scanline
	p.dot = dot
}

// SetOAMForTesting fills sprite memory
func (p *PPU) SetOAMForTesting(oam [256]uint8) {
	p.oam = oam
}
