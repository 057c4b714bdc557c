package graphics

import "math"

// VideoProcessor applies brightness, contrast and saturation to frames
// before they are presented. It does not touch the core's frame buffer.
type VideoProcessor struct {
	brightness float32
	contrast   float32
	saturation float32
	out        Frame
}

// NewVideoProcessor creates a new video processor
func NewVideoProcessor(brightness, contrast, saturation float32) *VideoProcessor {
	return &VideoProcessor{
		brightness: brightness,
		contrast:   contrast,
		saturation: saturation,
	}
}

// Identity reports whether Process would return its input unchanged.
func (vp *VideoProcessor) Identity() bool {
	return vp.brightness == 1 && vp.contrast == 1 && vp.saturation == 1
}

// Process returns the adjusted frame. The result is owned by the processor
// and overwritten by the next call.
func (vp *VideoProcessor) Process(frame *Frame) *Frame {
	if vp.Identity() {
		return frame
	}
	for i, px := range frame {
		r := float32(px>>16&0xFF) / 255
		g := float32(px>>8&0xFF) / 255
		b := float32(px&0xFF) / 255

		r, g, b = vp.adjust(r), vp.adjust(g), vp.adjust(b)
		if vp.saturation != 1 {
			h, s, l := rgbToHSL(r, g, b)
			r, g, b = hslToRGB(h, min(s*vp.saturation, 1), l)
		}
		vp.out[i] = channel(r)<<16 | channel(g)<<8 | channel(b)
	}
	return &vp.out
}

func (vp *VideoProcessor) adjust(c float32) float32 {
	c *= vp.brightness
	return (c-0.5)*vp.contrast + 0.5
}

func channel(c float32) uint32 {
	return uint32(math.Round(float64(max(0, min(c, 1)) * 255)))
}

func rgbToHSL(r, g, b float32) (h, s, l float32) {
	hi := max(r, g, b)
	lo := min(r, g, b)
	l = (hi + lo) / 2
	if hi == lo {
		return 0, 0, l
	}

	d := hi - lo
	if l > 0.5 {
		s = d / (2 - hi - lo)
	} else {
		s = d / (hi + lo)
	}
	switch hi {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, l
}

func hslToRGB(h, s, l float32) (r, g, b float32) {
	if s == 0 {
		return l, l, l
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}
