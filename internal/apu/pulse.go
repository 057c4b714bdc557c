package apu

// Duty cycle lookup table (8 steps each)
var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 75%
}

// PulseChannel represents a pulse wave channel
type PulseChannel struct {
	Envelope Envelope      `json:"envelope"`
	Length   LengthCounter `json:"length"`

	Duty   uint8  `json:"duty"`
	Step   uint8  `json:"step"`
	Period uint16 `json:"period"` // 11-bit timer reload
	Timer  uint16 `json:"timer"`

	SweepEnabled bool  `json:"sweep_enabled"`
	SweepPeriod  uint8 `json:"sweep_period"`
	SweepNegate  bool  `json:"sweep_negate"`
	SweepShift   uint8 `json:"sweep_shift"`
	SweepReload  bool  `json:"sweep_reload"`
	SweepDivider uint8 `json:"sweep_divider"`

	// Pulse 1 negates in ones' complement, pulse 2 in two's complement
	OnesComplement bool `json:"ones_complement"`
}

// writeControl handles $4000/$4004
func (p *PulseChannel) writeControl(value uint8) {
	p.Duty = value >> 6
	p.Length.Halt = value&0x20 != 0
	p.Envelope.write(value)
}

// writeSweep handles $4001/$4005
func (p *PulseChannel) writeSweep(value uint8) {
	p.SweepEnabled = value&0x80 != 0
	p.SweepPeriod = value >> 4 & 0x07
	p.SweepNegate = value&0x08 != 0
	p.SweepShift = value & 0x07
	p.SweepReload = true
}

// writeTimerLow handles $4002/$4006
func (p *PulseChannel) writeTimerLow(value uint8) {
	p.Period = p.Period&0x0700 | uint16(value)
}

// writeTimerHigh handles $4003/$4007. The sequencer and envelope restart.
func (p *PulseChannel) writeTimerHigh(value uint8) {
	p.Period = p.Period&0x00FF | uint16(value&0x07)<<8
	p.Length.load(value >> 3)
	p.Step = 0
	p.Envelope.Start = true
}

// clockTimer runs once per APU cycle (every other CPU cycle)
func (p *PulseChannel) clockTimer() {
	if p.Timer == 0 {
		p.Timer = p.Period
		p.Step = (p.Step - 1) & 7
	} else {
		p.Timer--
	}
}

func (p *PulseChannel) targetPeriod() int {
	change := int(p.Period >> p.SweepShift)
	if !p.SweepNegate {
		return int(p.Period) + change
	}
	target := int(p.Period) - change
	if p.OnesComplement {
		target--
	}
	if target < 0 {
		target = 0
	}
	return target
}

// muted reports the sweep unit's silencing, which applies even with the
// sweep disabled.
func (p *PulseChannel) muted() bool {
	return p.Period < 8 || p.targetPeriod() > 0x7FF
}

// clockSweep runs on half frames
func (p *PulseChannel) clockSweep() {
	if p.SweepDivider == 0 && p.SweepEnabled && p.SweepShift > 0 && !p.muted() {
		p.Period = uint16(p.targetPeriod())
	}
	if p.SweepDivider == 0 || p.SweepReload {
		p.SweepDivider = p.SweepPeriod
		p.SweepReload = false
	} else {
		p.SweepDivider--
	}
}

func (p *PulseChannel) output() uint8 {
	if !p.Length.active() || p.muted() || dutyTable[p.Duty][p.Step] == 0 {
		return 0
	}
	return p.Envelope.output()
}
