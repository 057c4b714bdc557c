package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"cyclenes/internal/bus"
	"cyclenes/internal/cartridge"
	"cyclenes/internal/debug"
	"cyclenes/internal/graphics"
	"cyclenes/internal/logger"
)

// Application represents the emulator front end
type Application struct {
	bus      *bus.Bus
	emulator *Emulator
	states   *StateManager
	config   *Config

	backend   graphics.Backend
	window    graphics.Window
	processor *graphics.VideoProcessor

	rom       ROMInfo
	cartridge *cartridge.Cartridge
	headless  bool

	paused  bool
	slot    int
	buttons [2]uint8

	tracer    *debug.Tracer
	traceFile *os.File
	stopStats func()

	lastTitle time.Time
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication loads the configuration at configPath, falling back to
// defaults when it cannot be used, and builds the machine.
func NewApplication(configPath string, headless bool) (*Application, error) {
	config := NewConfig()
	if configPath != "" {
		if err := config.LoadFromFile(configPath); err != nil {
			logger.Logf(logger.TagConfig, "using defaults, %s unusable: %v", configPath, err)
			config = NewConfig()
		}
	}
	return NewApplicationWithConfig(config, headless)
}

// NewApplicationWithConfig builds the machine and front end from config
func NewApplicationWithConfig(config *Config, headless bool) (*Application, error) {
	if config.Video.Backend == string(graphics.BackendHeadless) {
		headless = true
	}
	opts, err := config.BusOptions()
	if err != nil {
		return nil, &ApplicationError{Component: "config", Operation: "bus options", Err: err}
	}

	app := &Application{
		bus:      bus.New(opts),
		config:   config,
		headless: headless,
		processor: graphics.NewVideoProcessor(
			config.Video.Brightness,
			config.Video.Contrast,
			config.Video.Saturation,
		),
	}
	app.emulator = NewEmulator(app.bus)

	app.states, err = NewStateManager(config.Paths.SaveStates, config.Emulation.SaveStateSlots)
	if err != nil {
		return nil, &ApplicationError{Component: "states", Operation: "initialize", Err: err}
	}

	if config.Debug.EnableLogging {
		logger.SetEcho(os.Stderr)
	}
	if config.Debug.StatsView {
		app.stopStats = debug.LaunchStatsView(os.Stderr)
	}
	return app, nil
}

// initializeGraphics creates the window. Without a display the ebitengine
// backend cannot start, so headless is used instead.
func (app *Application) initializeGraphics() error {
	backendType := graphics.BackendType(app.config.Video.Backend)
	if app.headless {
		backendType = graphics.BackendHeadless
	}
	backend, err := graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}

	gc := app.config.GraphicsConfig(app.headless)
	if err := backend.Initialize(gc); err != nil {
		if backendType != graphics.BackendEbitengine {
			return err
		}
		logger.Logf(logger.TagApp, "ebitengine unavailable (%v), running headless", err)
		app.headless = true
		gc.Headless = true
		backend = graphics.NewHeadlessBackend()
		if err := backend.Initialize(gc); err != nil {
			return err
		}
	}

	window, err := backend.CreateWindow(gc.WindowTitle, gc.WindowWidth, gc.WindowHeight)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	app.backend = backend
	app.window = window
	app.updateTitle()
	return nil
}

// LoadROM inserts the image at romPath and restores its battery save
func (app *Application) LoadROM(romPath string) error {
	rom, err := NewROMInfo(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "read ROM", Err: err}
	}
	cart, err := app.bus.LoadROMFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}
	app.rom = rom
	app.cartridge = cart

	if err := LoadBattery(cart, app.batteryPath()); err != nil {
		logger.Logf(logger.TagApp, "battery save ignored: %v", err)
	}
	if n := app.config.Debug.CPUTrace; n > 0 {
		if err := app.startTrace(n); err != nil {
			return &ApplicationError{Component: "debug", Operation: "open trace", Err: err}
		}
	}

	app.emulator.ResetStats()
	logger.Logf(logger.TagApp, "loaded %s (%s, %d KiB PRG)", filepath.Base(romPath),
		cart.Mapper().Name(), cart.PRGROMSize()/1024)
	app.updateTitle()
	return nil
}

func (app *Application) batteryPath() string {
	return BatteryPath(app.config.Paths.SaveData, app.rom)
}

func (app *Application) startTrace(limit int) error {
	f, err := os.Create(app.config.Debug.TraceFile)
	if err != nil {
		return err
	}
	app.traceFile = f
	app.tracer = debug.AttachTracer(app.bus, f, limit)
	return nil
}

// Run runs the GUI until the window closes or ctx is cancelled. Without a
// display it runs headless with no frame limit.
func (app *Application) Run(ctx context.Context) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	if app.window == nil {
		if err := app.initializeGraphics(); err != nil {
			return &ApplicationError{Component: "graphics", Operation: "initialize", Err: err}
		}
	}
	runner, ok := app.window.(graphics.Runner)
	if !ok {
		return app.RunHeadless(ctx, HeadlessOptions{})
	}
	return runner.Run(func() error { return app.update(ctx) })
}

// update runs once per host frame
func (app *Application) update(ctx context.Context) error {
	if ctx.Err() != nil {
		return app.window.Cleanup()
	}
	for _, ev := range app.window.PollEvents() {
		app.handleEvent(ev)
	}
	if app.window.ShouldClose() {
		return nil
	}
	if !app.paused {
		app.emulator.StepFrame()
		app.window.QueueAudio(app.bus.AudioSamples())
	}
	if time.Since(app.lastTitle) > time.Second {
		app.updateTitle()
	}
	return app.window.RenderFrame(app.processor.Process(app.bus.FrameBuffer()))
}

func (app *Application) handleEvent(ev graphics.InputEvent) {
	switch ev.Type {
	case graphics.InputEventTypeQuit:
		app.window.Cleanup()
	case graphics.InputEventTypeButton:
		if ev.Port < 0 || ev.Port > 1 {
			return
		}
		if ev.Pressed {
			app.buttons[ev.Port] |= ev.Button
		} else {
			app.buttons[ev.Port] &^= ev.Button
		}
		app.bus.SetControllerState(ev.Port, app.buttons[ev.Port])
	case graphics.InputEventTypeAction:
		if err := app.perform(ev.Action); err != nil {
			logger.Logf(logger.TagApp, "%s: %v", ev.Action, err)
		}
	}
}

func (app *Application) perform(action graphics.Action) error {
	switch action {
	case graphics.ActionReset:
		app.Reset()
	case graphics.ActionPowerCycle:
		app.PowerCycle()
	case graphics.ActionSaveState:
		return app.SaveState(app.slot)
	case graphics.ActionLoadState:
		return app.LoadState(app.slot)
	case graphics.ActionNextSlot:
		app.slot = (app.slot + 1) % app.states.Slots()
		logger.Logf(logger.TagApp, "slot %d", app.slot)
	case graphics.ActionPreviousSlot:
		app.slot = (app.slot + app.states.Slots() - 1) % app.states.Slots()
		logger.Logf(logger.TagApp, "slot %d", app.slot)
	case graphics.ActionPause:
		app.paused = !app.paused
	case graphics.ActionScreenshot:
		_, err := app.Screenshot()
		return err
	}
	app.updateTitle()
	return nil
}

func (app *Application) updateTitle() {
	app.lastTitle = time.Now()
	if app.window == nil {
		return
	}
	title := "cyclenes"
	if app.cartridge != nil {
		title += " - " + app.rom.Name()
	}
	title += fmt.Sprintf(" [slot %d]", app.slot)
	if app.paused {
		title += " [paused]"
	}
	if app.config.Debug.ShowFPS {
		title += fmt.Sprintf(" %.1f fps", app.emulator.Stats().FPS())
	}
	app.window.SetTitle(title)
}

// HeadlessOptions control a run without a window
type HeadlessOptions struct {
	// Frames to run; 0 runs until the context is cancelled
	Frames int
	// Screenshot receives the last frame as a PNG
	Screenshot string
	// WAV receives every audio sample
	WAV string
	// DumpFrames receives every DumpInterval-th frame as a PNG
	DumpFrames   string
	DumpInterval uint64
}

// RunHeadless emulates on a producer goroutine and consumes frames on
// another, writing the outputs named in opts.
func (app *Application) RunHeadless(ctx context.Context, opts HeadlessOptions) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}

	var recorder *WAVRecorder
	if opts.WAV != "" {
		r, err := NewWAVRecorder(opts.WAV, app.bus.APU.SampleRate())
		if err != nil {
			return err
		}
		recorder = r
	}
	var dumper *debug.FrameDumper
	if opts.DumpFrames != "" {
		d, err := debug.NewFrameDumper(opts.DumpFrames)
		if err != nil {
			return err
		}
		d.SetInterval(opts.DumpInterval)
		d.SetMaxDumps(1 << 30)
		dumper = d
	}

	var last *FramePacket
	err := app.emulator.Run(ctx, opts.Frames, func(p *FramePacket) error {
		last = p
		if app.window != nil {
			if err := app.window.RenderFrame(app.processor.Process(&p.Pixels)); err != nil {
				return err
			}
			app.window.QueueAudio(slices.Values(p.Samples))
		}
		if recorder != nil {
			if err := recorder.Write(slices.Values(p.Samples)); err != nil {
				return err
			}
		}
		if dumper != nil {
			if _, err := dumper.Dump(&p.Pixels, p.Index); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if recorder != nil {
		if cerr := recorder.Close(); err == nil {
			err = cerr
		}
	}
	if opts.Screenshot != "" && last != nil {
		if serr := graphics.SavePNG(opts.Screenshot, app.processor.Process(&last.Pixels), app.config.Window.Scale); err == nil {
			err = serr
		}
	}

	stats := app.emulator.Stats()
	logger.Logf(logger.TagApp, "ran %d frames at %.2fx speed", stats.Frames, stats.Speed())
	return err
}

// Screenshot writes the current frame to the screenshots directory
func (app *Application) Screenshot() (string, error) {
	name := fmt.Sprintf("%s_%s.png", app.rom.Name(), time.Now().Format("20060102_150405"))
	path := filepath.Join(app.config.Paths.Screenshots, name)
	if err := os.MkdirAll(app.config.Paths.Screenshots, 0755); err != nil {
		return "", err
	}
	if err := graphics.SavePNG(path, app.processor.Process(app.bus.FrameBuffer()), app.config.Window.Scale); err != nil {
		return "", err
	}
	logger.Logf(logger.TagApp, "screenshot %s", path)
	return path, nil
}

// SaveState saves the machine to a slot
func (app *Application) SaveState(slot int) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	return app.states.Save(app.bus, slot, app.rom)
}

// LoadState restores a slot
func (app *Application) LoadState(slot int) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	if err := app.states.Load(app.bus, slot, app.rom); err != nil {
		return err
	}
	app.emulator.ResetStats()
	return nil
}

// Reset presses the console's reset button
func (app *Application) Reset() {
	app.bus.Reset()
}

// PowerCycle turns the console off and on. Battery RAM survives.
func (app *Application) PowerCycle() {
	var battery []uint8
	if app.cartridge != nil {
		battery = slices.Clone(app.cartridge.BatteryRAM())
	}
	app.bus.PowerOn()
	if battery != nil {
		if err := app.cartridge.LoadBatteryRAM(battery); err != nil {
			logger.Logf(logger.TagApp, "battery RAM lost on power cycle: %v", err)
		}
	}
	app.emulator.ResetStats()
}

// TogglePause pauses or resumes emulation in the GUI
func (app *Application) TogglePause() {
	app.paused = !app.paused
}

// IsPaused reports whether the GUI is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// Bus returns the machine
func (app *Application) Bus() *bus.Bus {
	return app.bus
}

// Config returns the active configuration
func (app *Application) Config() *Config {
	return app.config
}

// States returns the save slot manager
func (app *Application) States() *StateManager {
	return app.states
}

// ROM returns the loaded image's identity
func (app *Application) ROM() ROMInfo {
	return app.rom
}

// Stats returns the emulation counters
func (app *Application) Stats() Stats {
	return app.emulator.Stats()
}

// Cleanup saves battery RAM and releases the window, trace file and stats
// server. It returns the first error but attempts every step.
func (app *Application) Cleanup() error {
	var errs []error
	if app.cartridge != nil && app.config.Emulation.SaveBattery {
		errs = append(errs, SaveBattery(app.cartridge, app.batteryPath()))
	}
	if app.tracer != nil {
		errs = append(errs, app.tracer.Flush(), app.traceFile.Close())
		app.bus.SetInstructionHook(nil)
		app.tracer = nil
	}
	if app.window != nil {
		errs = append(errs, app.window.Cleanup())
	}
	if app.backend != nil {
		errs = append(errs, app.backend.Cleanup())
	}
	if app.stopStats != nil {
		app.stopStats()
		app.stopStats = nil
	}
	return errors.Join(errs...)
}
