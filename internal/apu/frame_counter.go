package apu

// Frame sequencer steps in CPU cycles (NTSC)
const (
	frameStep1     = 7457
	frameStep2     = 14913
	frameStep3     = 22371
	frameStep4     = 29829
	frameIRQFirst  = 29828
	frameIRQLast   = 29830 // 4-step period
	frameStep5     = 37281
	fiveStepPeriod = 37282
)

// FrameCounter is the frame sequencer driving envelopes, length counters
// and the frame IRQ.
type FrameCounter struct {
	FiveStep   bool   `json:"five_step"`
	Inhibit    bool   `json:"inhibit"`
	Cycle      uint32 `json:"cycle"`
	IRQ        bool   `json:"irq"`
	ResetDelay uint8  `json:"reset_delay"`
}

// write handles $4017. The sequencer restarts after a 3 or 4 cycle delay.
func (f *FrameCounter) write(value uint8, evenCycle bool) {
	f.FiveStep = value&0x80 != 0
	f.Inhibit = value&0x40 != 0
	if f.Inhibit {
		f.IRQ = false
	}
	f.ResetDelay = 4
	if evenCycle {
		f.ResetDelay = 3
	}
}

// step advances one CPU cycle and reports the quarter and half frame clocks
// it produced.
func (f *FrameCounter) step() (quarter, half bool) {
	if f.ResetDelay > 0 {
		f.ResetDelay--
		if f.ResetDelay == 0 {
			f.Cycle = 0
			if f.FiveStep {
				return true, true
			}
			return false, false
		}
	}

	f.Cycle++
	switch f.Cycle {
	case frameStep1, frameStep3:
		quarter = true
	case frameStep2:
		quarter, half = true, true
	}

	if f.FiveStep {
		switch f.Cycle {
		case frameStep5:
			quarter, half = true, true
		case fiveStepPeriod:
			f.Cycle = 0
		}
		return quarter, half
	}

	switch f.Cycle {
	case frameIRQFirst:
		f.setIRQ()
	case frameStep4:
		quarter, half = true, true
		f.setIRQ()
	case frameIRQLast:
		f.setIRQ()
		f.Cycle = 0
	}
	return quarter, half
}

func (f *FrameCounter) setIRQ() {
	if !f.Inhibit {
		f.IRQ = true
	}
}
