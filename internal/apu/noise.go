package apu

// Noise period table (NTSC), in CPU cycles
var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160,
	202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// NoiseChannel represents the noise channel
type NoiseChannel struct {
	Envelope Envelope      `json:"envelope"`
	Length   LengthCounter `json:"length"`

	Mode        bool   `json:"mode"` // short 93-step sequence
	PeriodIndex uint8  `json:"period_index"`
	Timer       uint16 `json:"timer"`
	Shift       uint16 `json:"shift"` // 15-bit LFSR
}

// writeControl handles $400C
func (n *NoiseChannel) writeControl(value uint8) {
	n.Length.Halt = value&0x20 != 0
	n.Envelope.write(value)
}

// writePeriod handles $400E
func (n *NoiseChannel) writePeriod(value uint8) {
	n.Mode = value&0x80 != 0
	n.PeriodIndex = value & 0x0F
}

// writeLength handles $400F
func (n *NoiseChannel) writeLength(value uint8) {
	n.Length.load(value >> 3)
	n.Envelope.Start = true
}

// clockTimer runs once per APU cycle
func (n *NoiseChannel) clockTimer() {
	if n.Timer > 0 {
		n.Timer--
		return
	}
	n.Timer = noisePeriodTable[n.PeriodIndex]/2 - 1

	tap := uint16(1)
	if n.Mode {
		tap = 6
	}
	feedback := (n.Shift ^ n.Shift>>tap) & 1
	n.Shift = n.Shift>>1 | feedback<<14
}

func (n *NoiseChannel) output() uint8 {
	if !n.Length.active() || n.Shift&1 != 0 {
		return 0
	}
	return n.Envelope.output()
}
