//go:build headless

package graphics

import (
	"errors"
	"iter"
)

var errNoEbitengine = errors.New("ebitengine backend not available in headless build")

// EbitengineBackend is a stand-in for builds without a display.
type EbitengineBackend struct{}

// EbitengineWindow is never created in headless builds.
type EbitengineWindow struct{}

// NewEbitengineBackend returns a backend whose Initialize always fails
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

func (b *EbitengineBackend) Initialize(Config) error { return errNoEbitengine }

func (b *EbitengineBackend) CreateWindow(string, int, int) (Window, error) {
	return nil, errNoEbitengine
}

func (b *EbitengineBackend) Cleanup() error   { return nil }
func (b *EbitengineBackend) IsHeadless() bool { return true }
func (b *EbitengineBackend) GetName() string  { return "Ebitengine-Stub" }

func (w *EbitengineWindow) SetTitle(string)              {}
func (w *EbitengineWindow) GetSize() (int, int)          { return 0, 0 }
func (w *EbitengineWindow) ShouldClose() bool            { return true }
func (w *EbitengineWindow) PollEvents() []InputEvent     { return nil }
func (w *EbitengineWindow) RenderFrame(*Frame) error     { return errNoEbitengine }
func (w *EbitengineWindow) QueueAudio(iter.Seq[float32]) {}
func (w *EbitengineWindow) Cleanup() error               { return nil }
func (w *EbitengineWindow) Run(func() error) error       { return errNoEbitengine }
