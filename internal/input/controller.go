// Package input implements controller handling for the NES.
package input

import "cyclenes/internal/logger"

// Button represents NES controller buttons
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller represents a standard NES joypad: an 8-bit parallel-in,
// serial-out shift register.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool
	// bits shifted out since the last latch; after 8 the register reads 1
	reads uint8
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a single button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons replaces all button states. Bit 0 is A, then B, Select,
// Start, Up, Down, Left, Right.
func (c *Controller) SetButtons(mask uint8) {
	c.buttons = mask
}

// Buttons returns the current button mask
func (c *Controller) Buttons() uint8 {
	return c.buttons
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles the strobe bit of $4016. The falling edge latches the
// buttons into the shift register.
func (c *Controller) Write(value uint8) {
	wasStrobe := c.strobe
	c.strobe = value&1 != 0
	if c.strobe || wasStrobe {
		c.latch()
	}
}

func (c *Controller) latch() {
	c.shiftRegister = c.buttons
	c.reads = 0
}

// Read shifts out the next button. Only bit 0 is driven.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.buttons & 1
	}
	if c.reads >= 8 {
		return 1
	}
	bit := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.reads++
	return bit
}

// Reset releases all buttons and clears the shift register
func (c *Controller) Reset() {
	*c = Controller{}
}

// InputState holds the two controller ports
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates a new input state with two controllers
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets all input devices
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
	logger.Log(logger.TagInput, "controllers reset")
}

// Port returns the controller on port 0 or 1, or nil.
func (is *InputState) Port(port int) *Controller {
	switch port {
	case 0:
		return is.Controller1
	case 1:
		return is.Controller2
	}
	return nil
}

// SetButtons sets the button mask of a port. Unknown ports are ignored.
func (is *InputState) SetButtons(port int, mask uint8) {
	c := is.Port(port)
	if c == nil {
		logger.Logf(logger.TagInput, "ignoring buttons for port %d", port)
		return
	}
	c.SetButtons(mask)
}

// Read returns bit 0 of $4016 or $4017. The memory map supplies the
// open-bus bits.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read()
	}
	return 0
}

// Write strobes both controllers
func (is *InputState) Write(value uint8) {
	is.Controller1.Write(value)
	is.Controller2.Write(value)
}
