package apu

// Triangle wave sequence (32 steps)
var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// TriangleChannel represents the triangle wave channel
type TriangleChannel struct {
	Length LengthCounter `json:"length"`

	// Control doubles as the length counter halt flag
	Control      bool  `json:"control"`
	LinearLoad   uint8 `json:"linear_load"`
	Linear       uint8 `json:"linear"`
	LinearReload bool  `json:"linear_reload"`

	Period uint16 `json:"period"`
	Timer  uint16 `json:"timer"`
	Step   uint8  `json:"step"`
}

// writeControl handles $4008
func (t *TriangleChannel) writeControl(value uint8) {
	t.Control = value&0x80 != 0
	t.Length.Halt = t.Control
	t.LinearLoad = value & 0x7F
}

// writeTimerLow handles $400A
func (t *TriangleChannel) writeTimerLow(value uint8) {
	t.Period = t.Period&0x0700 | uint16(value)
}

// writeTimerHigh handles $400B
func (t *TriangleChannel) writeTimerHigh(value uint8) {
	t.Period = t.Period&0x00FF | uint16(value&0x07)<<8
	t.Length.load(value >> 3)
	t.LinearReload = true
}

// clockTimer runs every CPU cycle. With either counter at zero the
// sequencer stops and the output holds its level.
func (t *TriangleChannel) clockTimer() {
	if t.Timer > 0 {
		t.Timer--
		return
	}
	t.Timer = t.Period
	if t.Length.active() && t.Linear > 0 {
		t.Step = (t.Step + 1) & 31
	}
}

// clockLinear runs on quarter frames
func (t *TriangleChannel) clockLinear() {
	if t.LinearReload {
		t.Linear = t.LinearLoad
	} else if t.Linear > 0 {
		t.Linear--
	}
	if !t.Control {
		t.LinearReload = false
	}
}

func (t *TriangleChannel) output() uint8 {
	return triangleTable[t.Step]
}
