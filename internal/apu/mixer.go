package apu

import "math"

// Non-linear mixer lookup tables:
//
//	pulseTable[n] = 95.52 / (8128/n + 100)
//	tndTable[n]   = 163.67 / (24329/n + 100)
var (
	pulseTable [31]float32
	tndTable   [203]float32
)

func init() {
	for n := 1; n < len(pulseTable); n++ {
		pulseTable[n] = float32(95.52 / (8128.0/float64(n) + 100))
	}
	for n := 1; n < len(tndTable); n++ {
		tndTable[n] = float32(163.67 / (24329.0/float64(n) + 100))
	}
}

// mix combines channel outputs into a level in [0,1]
func mix(pulse1, pulse2, triangle, noise, dmc uint8) float32 {
	return pulseTable[pulse1+pulse2] + tndTable[3*int(triangle)+2*int(noise)+int(dmc)]
}

// onePole is a first order high-pass or low-pass filter.
type onePole struct {
	alpha    float32
	highPass bool
	prevIn   float32
	prevOut  float32
}

func newOnePole(cutoff float64, sampleRate int, highPass bool) onePole {
	rc := 1 / (2 * math.Pi * cutoff)
	dt := 1 / float64(sampleRate)
	alpha := dt / (rc + dt)
	if highPass {
		alpha = rc / (rc + dt)
	}
	return onePole{alpha: float32(alpha), highPass: highPass}
}

func (f *onePole) apply(x float32) float32 {
	var y float32
	if f.highPass {
		y = f.alpha * (f.prevOut + x - f.prevIn)
	} else {
		y = f.prevOut + f.alpha*(x-f.prevOut)
	}
	f.prevIn = x
	f.prevOut = y
	return y
}

// filterChain approximates the console's output stage: two high-pass
// stages at 90Hz and 440Hz and a 14kHz low-pass.
type filterChain [3]onePole

func newFilterChain(sampleRate int) filterChain {
	return filterChain{
		newOnePole(90, sampleRate, true),
		newOnePole(440, sampleRate, true),
		newOnePole(14000, sampleRate, false),
	}
}

func (c *filterChain) apply(x float32) float32 {
	for i := range c {
		x = c[i].apply(x)
	}
	return x
}
