//go:build !headless

package graphics

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"cyclenes/internal/logger"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// audio buffered ahead of the player, in samples
const audioQueueSamples = 8192

var hotkeys = map[ebiten.Key]Action{
	ebiten.KeyF1:  ActionReset,
	ebiten.KeyF2:  ActionPowerCycle,
	ebiten.KeyF5:  ActionSaveState,
	ebiten.KeyF6:  ActionPreviousSlot,
	ebiten.KeyF7:  ActionNextSlot,
	ebiten.KeyF9:  ActionLoadState,
	ebiten.KeyF12: ActionScreenshot,
	ebiten.KeyP:   ActionPause,
}

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("ebitengine backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow configures the ebiten window. Nothing is shown until Run.
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}
	if b.config.Headless {
		return nil, errors.New("cannot create window in headless mode")
	}

	keys, err := parseKeyMaps(b.config.Player1Keys, b.config.Player2Keys)
	if err != nil {
		return nil, err
	}

	w := &EbitengineWindow{
		title:  title,
		width:  width,
		height: height,
		keys:   keys,
		image:  ebiten.NewImage(Width, Height),
		pixels: make([]byte, Width*Height*4),
	}

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetFullscreen(b.config.Fullscreen)
	ebiten.SetScreenFilterEnabled(b.config.Filter == "linear")

	if b.config.SampleRate > 0 {
		if err := w.openAudio(b.config.SampleRate, b.config.Volume); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// parseKeyMaps resolves ebiten key names for both controller ports.
func parseKeyMaps(maps ...KeyMap) ([2][8]ebiten.Key, error) {
	var keys [2][8]ebiten.Key
	for port, m := range maps[:2] {
		for bit, name := range m.Names() {
			var k ebiten.Key
			if err := k.UnmarshalText([]byte(name)); err != nil {
				return keys, fmt.Errorf("player %d: unknown key %q: %w", port+1, name, err)
			}
			keys[port][bit] = k
		}
	}
	return keys, nil
}

// EbitengineWindow implements Window and Runner on top of ebiten's game
// loop.
type EbitengineWindow struct {
	title  string
	width  int
	height int
	keys   [2][8]ebiten.Key

	image  *ebiten.Image
	pixels []byte

	events  []InputEvent
	closing bool
	update  func() error

	queue  *SampleQueue
	player *audio.Player
}

func (w *EbitengineWindow) openAudio(sampleRate int, volume float64) error {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(sampleRate)
	} else if ctx.SampleRate() != sampleRate {
		return fmt.Errorf("audio context already running at %d Hz", ctx.SampleRate())
	}
	w.queue = NewSampleQueue(audioQueueSamples)
	player, err := ctx.NewPlayer(w.queue)
	if err != nil {
		return fmt.Errorf("audio player: %w", err)
	}
	player.SetBufferSize(40 * time.Millisecond)
	player.SetVolume(volume)
	player.Play()
	w.player = player
	logger.Logf(logger.TagApp, "audio output at %d Hz", sampleRate)
	return nil
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return w.closing
}

// PollEvents returns and clears the pending events
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame converts the frame to RGBA and uploads it
func (w *EbitengineWindow) RenderFrame(frame *Frame) error {
	if frame == nil {
		return errors.New("nil frame")
	}
	for i, px := range frame {
		w.pixels[i*4] = uint8(px >> 16)
		w.pixels[i*4+1] = uint8(px >> 8)
		w.pixels[i*4+2] = uint8(px)
		w.pixels[i*4+3] = 0xFF
	}
	w.image.WritePixels(w.pixels)
	return nil
}

// QueueAudio forwards samples to the audio player
func (w *EbitengineWindow) QueueAudio(samples iter.Seq[float32]) {
	if w.queue == nil {
		for range samples {
		}
		return
	}
	w.queue.Push(samples)
}

// Cleanup stops audio and asks the loop to exit
func (w *EbitengineWindow) Cleanup() error {
	w.closing = true
	if w.player != nil {
		err := w.player.Close()
		w.player = nil
		return err
	}
	return nil
}

// Run starts the ebiten loop and blocks until the window closes
func (w *EbitengineWindow) Run(update func() error) error {
	w.update = update
	err := ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update implements ebiten.Game
func (w *EbitengineWindow) Update() error {
	w.pollKeyboard()
	if w.update != nil {
		if err := w.update(); err != nil {
			return err
		}
	}
	if w.closing {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game
func (w *EbitengineWindow) Draw(screen *ebiten.Image) {
	screen.DrawImage(w.image, nil)
}

// Layout implements ebiten.Game. ebiten scales the 256x240 screen to the
// window and letterboxes it.
func (w *EbitengineWindow) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.width, w.height = outsideWidth, outsideHeight
	return Width, Height
}

func (w *EbitengineWindow) pollKeyboard() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.events = append(w.events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	}
	for key, action := range hotkeys {
		if inpututil.IsKeyJustPressed(key) {
			w.events = append(w.events, InputEvent{Type: InputEventTypeAction, Action: action, Pressed: true})
		}
	}
	for port := range w.keys {
		for bit, key := range w.keys[port] {
			switch {
			case inpututil.IsKeyJustPressed(key):
				w.events = append(w.events, InputEvent{
					Type: InputEventTypeButton, Port: port, Button: 1 << bit, Pressed: true,
				})
			case inpututil.IsKeyJustReleased(key):
				w.events = append(w.events, InputEvent{
					Type: InputEventTypeButton, Port: port, Button: 1 << bit,
				})
			}
		}
	}
}
