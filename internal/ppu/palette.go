package ppu

// NES 2C02 Color Palette (NTSC), 0x00RRGGBB
var nesColorPalette = [64]uint32{
	// Row 0 (0x00-0x0F)
	0x666666, 0x002A88, 0x1412A7, 0x3B00A4, 0x5C007E, 0x6E0040, 0x6C0600, 0x561D00,
	0x333500, 0x0B4800, 0x005200, 0x004F08, 0x00404D, 0x000000, 0x000000, 0x000000,
	// Row 1 (0x10-0x1F)
	0xADADAD, 0x155FD9, 0x4240FF, 0x7527FE, 0xA01ACC, 0xB71E7B, 0xB53120, 0x994E00,
	0x6B6D00, 0x388700, 0x0C9300, 0x008F32, 0x007C8D, 0x000000, 0x000000, 0x000000,
	// Row 2 (0x20-0x2F)
	0xFFFEFF, 0x64B0FF, 0x9290FF, 0xC676FF, 0xF36AFF, 0xFE6ECC, 0xFE8170, 0xEA9E22,
	0xBCBE00, 0x88D800, 0x5CE430, 0x45E082, 0x48CDDE, 0x4F4F4F, 0x000000, 0x000000,
	// Row 3 (0x30-0x3F)
	0xFFFEFF, 0xC0DFFF, 0xD3D2FF, 0xE8C8FF, 0xFBC2FF, 0xFEC4EA, 0xFECCC5, 0xF7D8A5,
	0xE4E594, 0xCFF29B, 0xBEFBB3, 0xB8F8D8, 0xB8F8F8, 0x000000, 0x000000, 0x000000,
}

// emphasisAttenuation scales the channels an emphasis bit does not select.
const emphasisAttenuation = 0.816

// emphasisPalette[e][c] is color c under PPUMASK emphasis bits e.
var emphasisPalette [8][64]uint32

func init() {
	for e := 0; e < 8; e++ {
		for c, rgb := range nesColorPalette {
			r := float64(rgb >> 16 & 0xFF)
			g := float64(rgb >> 8 & 0xFF)
			b := float64(rgb & 0xFF)
			if e&1 != 0 { // red
				g *= emphasisAttenuation
				b *= emphasisAttenuation
			}
			if e&2 != 0 { // green
				r *= emphasisAttenuation
				b *= emphasisAttenuation
			}
			if e&4 != 0 { // blue
				r *= emphasisAttenuation
				g *= emphasisAttenuation
			}
			emphasisPalette[e][c] = uint32(r)<<16 | uint32(g)<<8 | uint32(b)
		}
	}
}

// NESColorToRGB converts a NES color index to RGB value
func NESColorToRGB(colorIndex uint8) uint32 {
	return nesColorPalette[colorIndex&0x3F]
}

// colorToRGB applies greyscale and emphasis to a palette entry
func (p *PPU) colorToRGB(color uint8) uint32 {
	if p.mask.greyscale() {
		color &= 0x30
	}
	return emphasisPalette[p.mask.emphasis()][color&0x3F]
}
