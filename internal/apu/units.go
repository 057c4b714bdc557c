package apu

// Length counter lookup table
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

// Envelope is the volume unit shared by the pulse and noise channels.
type Envelope struct {
	Start    bool  `json:"start"`
	Loop     bool  `json:"loop"`
	Constant bool  `json:"constant"`
	Volume   uint8 `json:"volume"`
	Divider  uint8 `json:"divider"`
	Decay    uint8 `json:"decay"`
}

func (e *Envelope) write(value uint8) {
	e.Loop = value&0x20 != 0
	e.Constant = value&0x10 != 0
	e.Volume = value & 0x0F
}

// clock runs on quarter frames
func (e *Envelope) clock() {
	if e.Start {
		e.Start = false
		e.Decay = 15
		e.Divider = e.Volume
		return
	}
	if e.Divider > 0 {
		e.Divider--
		return
	}
	e.Divider = e.Volume
	if e.Decay > 0 {
		e.Decay--
	} else if e.Loop {
		e.Decay = 15
	}
}

func (e *Envelope) output() uint8 {
	if e.Constant {
		return e.Volume
	}
	return e.Decay
}

// LengthCounter silences its channel when it reaches zero.
type LengthCounter struct {
	Enabled bool  `json:"enabled"`
	Halt    bool  `json:"halt"`
	Value   uint8 `json:"value"`
}

func (l *LengthCounter) load(index uint8) {
	if l.Enabled {
		l.Value = lengthTable[index&0x1F]
	}
}

func (l *LengthCounter) setEnabled(on bool) {
	l.Enabled = on
	if !on {
		l.Value = 0
	}
}

// clock runs on half frames
func (l *LengthCounter) clock() {
	if !l.Halt && l.Value > 0 {
		l.Value--
	}
}

func (l *LengthCounter) active() bool {
	return l.Value > 0
}
