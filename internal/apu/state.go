package apu

// State is a snapshot of the APU. Buffered output samples are not included.
type State struct {
	Pulse1      PulseChannel    `json:"pulse1"`
	Pulse2      PulseChannel    `json:"pulse2"`
	Triangle    TriangleChannel `json:"triangle"`
	Noise       NoiseChannel    `json:"noise"`
	DMC         DMCChannel      `json:"dmc"`
	Frame       FrameCounter    `json:"frame_counter"`
	Cycles      uint64          `json:"cycles"`
	Accumulator uint64          `json:"accumulator"`
	Filter      []FilterStage   `json:"filter,omitempty"`
}

// FilterStage is the history of one output filter stage. State.Filter is
// empty when filtering is off.
type FilterStage struct {
	In  float32 `json:"in"`
	Out float32 `json:"out"`
}

// SaveState captures the APU.
func (apu *APU) SaveState() State {
	return State{
		Pulse1:      apu.pulse1,
		Pulse2:      apu.pulse2,
		Triangle:    apu.triangle,
		Noise:       apu.noise,
		DMC:         apu.dmc,
		Frame:       apu.frame,
		Cycles:      apu.cycles,
		Accumulator: apu.accumulator,
		Filter:      apu.filter.history(),
	}
}

// LoadState restores a snapshot taken by SaveState.
func (apu *APU) LoadState(s State) {
	apu.pulse1 = s.Pulse1
	apu.pulse2 = s.Pulse2
	apu.triangle = s.Triangle
	apu.noise = s.Noise
	apu.dmc = s.DMC
	apu.frame = s.Frame
	apu.cycles = s.Cycles
	apu.accumulator = s.Accumulator
	apu.samples = apu.samples[:0]
	if apu.filter != nil {
		apu.filter.restore(s.Filter)
	}
}

func (c *filterChain) history() []FilterStage {
	if c == nil {
		return nil
	}
	stages := make([]FilterStage, len(c))
	for i := range c {
		stages[i] = FilterStage{In: c[i].prevIn, Out: c[i].prevOut}
	}
	return stages
}

// restore loads a saved history. A snapshot taken with filtering off starts
// the chain from rest.
func (c *filterChain) restore(stages []FilterStage) {
	for i := range c {
		c[i].prevIn, c[i].prevOut = 0, 0
		if i < len(stages) {
			c[i].prevIn, c[i].prevOut = stages[i].In, stages[i].Out
		}
	}
}
