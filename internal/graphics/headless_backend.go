package graphics

import (
	"errors"
	"iter"
)

// HeadlessBackend implements the Backend interface without a display
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow returns a window that keeps the last frame in memory
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}
	return &HeadlessWindow{title: title, width: width, height: height}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// HeadlessWindow records what would have been presented.
type HeadlessWindow struct {
	title   string
	width   int
	height  int
	closed  bool
	frames  int
	samples int
	last    Frame

	// AudioSink, when set, receives every queued sample
	AudioSink func(float32)
}

func (w *HeadlessWindow) SetTitle(title string) { w.title = title }

func (w *HeadlessWindow) GetSize() (width, height int) { return w.width, w.height }

// ShouldClose returns true after Cleanup
func (w *HeadlessWindow) ShouldClose() bool { return w.closed }

// PollEvents returns nil; there is no input without a window
func (w *HeadlessWindow) PollEvents() []InputEvent { return nil }

// RenderFrame keeps a copy of the frame
func (w *HeadlessWindow) RenderFrame(frame *Frame) error {
	if frame == nil {
		return errors.New("nil frame")
	}
	w.last = *frame
	w.frames++
	return nil
}

// QueueAudio counts samples and passes them to AudioSink
func (w *HeadlessWindow) QueueAudio(samples iter.Seq[float32]) {
	for s := range samples {
		w.samples++
		if w.AudioSink != nil {
			w.AudioSink(s)
		}
	}
}

func (w *HeadlessWindow) Cleanup() error {
	w.closed = true
	return nil
}

// LastFrame returns the most recently rendered frame
func (w *HeadlessWindow) LastFrame() *Frame { return &w.last }

// FrameCount returns how many frames were rendered
func (w *HeadlessWindow) FrameCount() int { return w.frames }

// SampleCount returns how many audio samples were queued
func (w *HeadlessWindow) SampleCount() int { return w.samples }
