// Package apu implements the Audio Processing Unit for the NES.
package apu

import "cyclenes/internal/logger"

const (
	// CPUFrequency is the NTSC CPU clock in Hz
	CPUFrequency = 1789773
	// DefaultSampleRate is the output rate when none is configured
	DefaultSampleRate = 44100

	// undrained samples beyond this are dropped
	maxBufferedSamples = 1 << 16
)

// Config holds the output stream settings.
type Config struct {
	SampleRate int
	// Filter enables the high-pass/low-pass output stage. Off by default so
	// callers see the raw mixer level.
	Filter bool
}

// APU represents the NES Audio Processing Unit
type APU struct {
	pulse1   PulseChannel
	pulse2   PulseChannel
	triangle TriangleChannel
	noise    NoiseChannel
	dmc      DMCChannel
	frame    FrameCounter

	cycles uint64

	// Output stream
	sampleRate  int
	accumulator uint64
	filter      *filterChain
	samples     []float32
	dropped     uint64
}

// New creates a new APU instance
func New(config Config) *APU {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	apu := &APU{
		sampleRate: config.SampleRate,
		samples:    make([]float32, 0, 4096),
	}
	if config.Filter {
		chain := newFilterChain(config.SampleRate)
		apu.filter = &chain
	}
	apu.PowerOn()
	return apu
}

// PowerOn silences every channel and restarts the frame sequencer in
// 4-step mode.
func (apu *APU) PowerOn() {
	apu.pulse1 = PulseChannel{OnesComplement: true}
	apu.pulse2 = PulseChannel{}
	apu.triangle = TriangleChannel{}
	apu.noise = NoiseChannel{Shift: 1}
	apu.dmc = DMCChannel{
		Silence:       true,
		BitsRemaining: 8,
		Timer:         dmcRateTable[0] - 1,
		SampleAddress: 0xC000,
		SampleLength:  1,
	}
	apu.frame = FrameCounter{}
	apu.cycles = 0
	apu.accumulator = 0
	apu.samples = apu.samples[:0]
	if apu.filter != nil {
		*apu.filter = newFilterChain(apu.sampleRate)
	}
	logger.Log(logger.TagAPU, "power on")
}

// Reset behaves like a $4015 write of 0 followed by rewriting $4017 with its
// last value.
func (apu *APU) Reset() {
	apu.WriteRegister(0x4015, 0)
	var mode uint8
	if apu.frame.FiveStep {
		mode |= 0x80
	}
	if apu.frame.Inhibit {
		mode |= 0x40
	}
	apu.frame.IRQ = false
	apu.frame.write(mode, apu.evenCycle())
	logger.Log(logger.TagAPU, "reset")
}

func (apu *APU) evenCycle() bool {
	return apu.cycles&1 == 0
}

// Step advances the APU by one CPU cycle
func (apu *APU) Step() {
	quarter, half := apu.frame.step()
	if quarter {
		apu.pulse1.Envelope.clock()
		apu.pulse2.Envelope.clock()
		apu.noise.Envelope.clock()
		apu.triangle.clockLinear()
	}
	if half {
		apu.pulse1.Length.clock()
		apu.pulse1.clockSweep()
		apu.pulse2.Length.clock()
		apu.pulse2.clockSweep()
		apu.triangle.Length.clock()
		apu.noise.Length.clock()
	}

	apu.triangle.clockTimer()
	if apu.evenCycle() {
		apu.pulse1.clockTimer()
		apu.pulse2.clockTimer()
		apu.noise.clockTimer()
	}
	apu.dmc.clockTimer()

	apu.cycles++
	apu.generateSample()
}

// generateSample decimates the mixer output to the configured rate
func (apu *APU) generateSample() {
	apu.accumulator += uint64(apu.sampleRate)
	if apu.accumulator < CPUFrequency {
		return
	}
	apu.accumulator -= CPUFrequency

	sample := apu.Output()
	if apu.filter != nil {
		sample = apu.filter.apply(sample)
	}
	if len(apu.samples) >= maxBufferedSamples {
		apu.dropped++
		return
	}
	apu.samples = append(apu.samples, sample)
}

// Output returns the current mixer level in [0,1]
func (apu *APU) Output() float32 {
	return mix(apu.pulse1.output(), apu.pulse2.output(), apu.triangle.output(),
		apu.noise.output(), apu.dmc.output())
}

// DrainSamples returns the samples produced since the last call.
func (apu *APU) DrainSamples() []float32 {
	out := make([]float32, len(apu.samples))
	copy(out, apu.samples)
	apu.samples = apu.samples[:0]
	return out
}

// Dropped returns how many samples were discarded because nobody drained
// the buffer.
func (apu *APU) Dropped() uint64 {
	return apu.dropped
}

// SampleRate returns the output sample rate
func (apu *APU) SampleRate() int {
	return apu.sampleRate
}

// WriteRegister writes to an APU register
func (apu *APU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x4000:
		apu.pulse1.writeControl(value)
	case 0x4001:
		apu.pulse1.writeSweep(value)
	case 0x4002:
		apu.pulse1.writeTimerLow(value)
	case 0x4003:
		apu.pulse1.writeTimerHigh(value)
	case 0x4004:
		apu.pulse2.writeControl(value)
	case 0x4005:
		apu.pulse2.writeSweep(value)
	case 0x4006:
		apu.pulse2.writeTimerLow(value)
	case 0x4007:
		apu.pulse2.writeTimerHigh(value)
	case 0x4008:
		apu.triangle.writeControl(value)
	case 0x400A:
		apu.triangle.writeTimerLow(value)
	case 0x400B:
		apu.triangle.writeTimerHigh(value)
	case 0x400C:
		apu.noise.writeControl(value)
	case 0x400E:
		apu.noise.writePeriod(value)
	case 0x400F:
		apu.noise.writeLength(value)
	case 0x4010:
		apu.dmc.writeControl(value)
	case 0x4011:
		apu.dmc.writeLevel(value)
	case 0x4012:
		apu.dmc.writeAddress(value)
	case 0x4013:
		apu.dmc.writeLength(value)
	case 0x4015:
		apu.pulse1.Length.setEnabled(value&0x01 != 0)
		apu.pulse2.Length.setEnabled(value&0x02 != 0)
		apu.triangle.Length.setEnabled(value&0x04 != 0)
		apu.noise.Length.setEnabled(value&0x08 != 0)
		apu.dmc.setEnabled(value&0x10 != 0, apu.evenCycle())
	case 0x4017:
		apu.frame.write(value, apu.evenCycle())
	}
}

// ReadStatus reads $4015 and acknowledges the frame IRQ. Bit 5 is not
// driven.
func (apu *APU) ReadStatus() uint8 {
	var status uint8
	if apu.pulse1.Length.active() {
		status |= 0x01
	}
	if apu.pulse2.Length.active() {
		status |= 0x02
	}
	if apu.triangle.Length.active() {
		status |= 0x04
	}
	if apu.noise.Length.active() {
		status |= 0x08
	}
	if apu.dmc.BytesRemaining > 0 {
		status |= 0x10
	}
	if apu.frame.IRQ {
		status |= 0x40
	}
	if apu.dmc.IRQ {
		status |= 0x80
	}
	apu.frame.IRQ = false
	return status
}

// FrameIRQ returns the frame counter IRQ flag
func (apu *APU) FrameIRQ() bool {
	return apu.frame.IRQ
}

// DMCIRQ returns the DMC IRQ flag
func (apu *APU) DMCIRQ() bool {
	return apu.dmc.IRQ
}

// DMCRequest reports whether the DMC is waiting for a sample byte and where
// it should be read from.
func (apu *APU) DMCRequest() (DMCRequest, uint16) {
	return apu.dmc.request(), apu.dmc.Address
}

// FillSampleBuffer delivers the byte fetched for a DMC request.
func (apu *APU) FillSampleBuffer(value uint8) {
	apu.dmc.fill(value)
}

// ChannelOutputs returns the raw pulse 1, pulse 2, triangle, noise and DMC
// levels, for debugging.
func (apu *APU) ChannelOutputs() [5]uint8 {
	return [5]uint8{
		apu.pulse1.output(),
		apu.pulse2.output(),
		apu.triangle.output(),
		apu.noise.output(),
		apu.dmc.output(),
	}
}
