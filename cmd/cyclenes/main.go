// Package main implements the cyclenes NES emulator executable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cyclenes/internal/app"
	"cyclenes/internal/debug"
	"cyclenes/internal/version"
)

func main() {
	var (
		romFile     = flag.String("rom", "", "Path to NES ROM file")
		configFile  = flag.String("config", "", "Path to configuration file")
		debugMode   = flag.Bool("debug", false, "Echo the emulator log and show FPS")
		nogui       = flag.Bool("nogui", false, "Run without GUI (headless mode)")
		frames      = flag.Int("frames", 0, "Frames to run headless (0 runs until interrupted)")
		screenshot  = flag.String("screenshot", "", "Write the last headless frame to this PNG")
		wavFile     = flag.String("wav", "", "Record headless audio to this WAV file")
		dumpFrames  = flag.String("dumpframes", "", "Directory for periodic headless frame dumps")
		dumpEvery   = flag.Uint64("dumpevery", 60, "Frame interval for -dumpframes")
		dumpState   = flag.String("dumpstate", "", "Write the machine state to this file on exit")
		trace       = flag.Int("trace", 0, "Log this many CPU instructions from power on")
		statsServer = flag.Bool("statsview", false, "Serve runtime statistics over HTTP")
		help        = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}
	if *showVersion {
		version.Print(os.Stdout)
		return
	}
	if *romFile == "" {
		printUsage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		rom:       *romFile,
		config:    *configFile,
		debug:     *debugMode,
		headless:  *nogui,
		statsview: *statsServer,
		trace:     *trace,
		dumpState: *dumpState,
	}
	opts.headlessOpts = app.HeadlessOptions{
		Frames:       *frames,
		Screenshot:   *screenshot,
		WAV:          *wavFile,
		DumpFrames:   *dumpFrames,
		DumpInterval: *dumpEvery,
	}
	if err := run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	rom          string
	config       string
	debug        bool
	headless     bool
	statsview    bool
	trace        int
	dumpState    string
	headlessOpts app.HeadlessOptions
}

func run(ctx context.Context, opts options) (err error) {
	configPath := opts.config
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		log.Printf("using default configuration: %v", err)
		config = app.NewConfig()
	}
	if opts.debug {
		config.Debug.EnableLogging = true
		config.Debug.ShowFPS = true
	}
	if opts.statsview {
		config.Debug.StatsView = true
	}
	if opts.trace > 0 {
		config.Debug.CPUTrace = opts.trace
	}

	application, err := app.NewApplicationWithConfig(config, opts.headless)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if cerr := application.Cleanup(); cerr != nil {
			log.Printf("cleanup: %v", cerr)
		}
	}()

	if err := application.LoadROM(opts.rom); err != nil {
		return err
	}
	fmt.Printf("cyclenes %s: %s\n", version.Short(), application.ROM().Name())

	if opts.headless {
		err = application.RunHeadless(ctx, opts.headlessOpts)
	} else {
		err = application.Run(ctx)
	}

	stats := application.Stats()
	fmt.Printf("%d frames, %.1f fps, %.2fx speed\n", stats.Frames, stats.FPS(), stats.Speed())

	if opts.dumpState != "" {
		if derr := writeStateDump(opts.dumpState, application); err == nil {
			err = derr
		}
	}
	return err
}

func writeStateDump(path string, application *app.Application) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := debug.DumpState(f, application.Bus(), false); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -rom <file.nes> [options]\n\n", os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, `
Controls (default):
  Player 1: WASD move, J = A, K = B, Enter = Start, Space = Select
  Player 2: arrows move, N = A, M = B, right Shift = Start, right Ctrl = Select
  F1 reset, F2 power cycle, F5 save, F9 load, F6/F7 change slot
  F12 screenshot, P pause, Esc quit`)
}
