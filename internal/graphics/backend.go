// Package graphics provides the host side of the emulator: windows, keyboard
// input, audio output and still images of the frame buffer.
package graphics

import (
	"fmt"
	"iter"
)

// Width and Height are the NES frame dimensions.
const (
	Width  = 256
	Height = 240
)

// Frame is one PPU frame of 0x00RRGGBB pixels.
type Frame = [Width * Height]uint32

// Backend represents a graphics backend
type Backend interface {
	// Initialize applies the configuration. It must be called once before
	// CreateWindow.
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	Cleanup() error

	// IsHeadless reports whether frames are never shown on screen
	IsHeadless() bool

	GetName() string
}

// Window represents a rendering window
type Window interface {
	SetTitle(title string)
	GetSize() (width, height int)

	// ShouldClose returns true once the user asked to quit
	ShouldClose() bool

	// PollEvents returns the input events seen since the last call
	PollEvents() []InputEvent

	// RenderFrame presents a frame. The window copies it; the caller may
	// keep writing to frame afterwards.
	RenderFrame(frame *Frame) error

	// QueueAudio hands mono samples in [0,1] to the audio output
	QueueAudio(samples iter.Seq[float32])

	Cleanup() error
}

// Runner is implemented by windows that own the host event loop. Run blocks
// until the window closes, calling update once per host frame.
type Runner interface {
	Run(update func() error) error
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool
	Filter       string // "nearest" or "linear"

	// Keyboard layout per controller port, by ebiten key name
	Player1Keys KeyMap
	Player2Keys KeyMap

	// Audio output; SampleRate 0 disables it
	SampleRate int
	Volume     float64

	Headless bool
}

// KeyMap names the host key for each controller button.
type KeyMap struct {
	A, B, Select, Start, Up, Down, Left, Right string
}

// Names returns the key names in controller bit order.
func (k KeyMap) Names() [8]string {
	return [8]string{k.A, k.B, k.Select, k.Start, k.Up, k.Down, k.Left, k.Right}
}

// InputEventType represents the type of input event
type InputEventType int

const (
	// InputEventTypeButton carries a controller button change
	InputEventTypeButton InputEventType = iota
	// InputEventTypeAction carries a front end hotkey
	InputEventTypeAction
	InputEventTypeQuit
)

// Action is a front end command bound to a function key.
type Action int

const (
	ActionNone Action = iota
	ActionReset
	ActionPowerCycle
	ActionSaveState
	ActionLoadState
	ActionNextSlot
	ActionPreviousSlot
	ActionPause
	ActionScreenshot
)

func (a Action) String() string {
	switch a {
	case ActionReset:
		return "reset"
	case ActionPowerCycle:
		return "power-cycle"
	case ActionSaveState:
		return "save-state"
	case ActionLoadState:
		return "load-state"
	case ActionNextSlot:
		return "next-slot"
	case ActionPreviousSlot:
		return "previous-slot"
	case ActionPause:
		return "pause"
	case ActionScreenshot:
		return "screenshot"
	}
	return "none"
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Port    int   // controller port for button events
	Button  uint8 // controller bit mask for button events
	Action  Action
	Pressed bool
}

// BackendType names a graphics backend
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine, "":
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	}
	return nil, fmt.Errorf("unknown graphics backend %q", backendType)
}
