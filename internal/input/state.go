package input

// ControllerState is the serialized form of a Controller
type ControllerState struct {
	Buttons       uint8 `json:"buttons"`
	ShiftRegister uint8 `json:"shift_register"`
	Strobe        bool  `json:"strobe"`
	Reads         uint8 `json:"reads"`
}

// State holds both ports
type State struct {
	Ports [2]ControllerState `json:"ports"`
}

// SaveState captures the controller
func (c *Controller) SaveState() ControllerState {
	return ControllerState{
		Buttons:       c.buttons,
		ShiftRegister: c.shiftRegister,
		Strobe:        c.strobe,
		Reads:         c.reads,
	}
}

// LoadState restores the controller
func (c *Controller) LoadState(s ControllerState) {
	c.buttons = s.Buttons
	c.shiftRegister = s.ShiftRegister
	c.strobe = s.Strobe
	c.reads = s.Reads
}

// SaveState captures both ports
func (is *InputState) SaveState() State {
	return State{Ports: [2]ControllerState{
		is.Controller1.SaveState(),
		is.Controller2.SaveState(),
	}}
}

// LoadState restores both ports
func (is *InputState) LoadState(s State) {
	is.Controller1.LoadState(s.Ports[0])
	is.Controller2.LoadState(s.Ports[1])
}
