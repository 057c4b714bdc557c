// Package app ties the emulator core to a host: configuration, the frame
// pump, save slots and battery saves.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cyclenes/internal/bus"
	"cyclenes/internal/cartridge"
	"cyclenes/internal/graphics"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // NES resolution multiplier
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	VSync      bool    `json:"vsync"`
	Filter     string  `json:"filter"`  // "nearest", "linear"
	Backend    string  `json:"backend"` // "ebitengine", "headless"
	Brightness float32 `json:"brightness"`
	Contrast   float32 `json:"contrast"`
	Saturation float32 `json:"saturation"`
}

// AudioConfig contains audio configuration
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sample_rate"`
	Volume     float32 `json:"volume"`
	// Filter runs the high-pass/low-pass stage of the console's output
	Filter bool `json:"filter"`
}

// InputConfig contains input configuration
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping names the keyboard key for each controller button
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig holds the core tunables
type EmulationConfig struct {
	// DMAHaltRead is "cpu" or "openbus"
	DMAHaltRead string `json:"dma_halt_read"`
	// MMC3IRQ is "auto", "sharp" or "nec"
	MMC3IRQ string `json:"mmc3_irq"`
	// BankPolicy is "board", "wrap" or "openbus"
	BankPolicy     string `json:"bank_policy"`
	SaveStateSlots int    `json:"save_state_slots"`
	// SaveBattery writes battery RAM to <rom>.sav on exit
	SaveBattery bool `json:"save_battery"`
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	ShowFPS       bool `json:"show_fps"`
	EnableLogging bool `json:"enable_logging"`
	// CPUTrace logs this many instructions from power on to the trace file
	CPUTrace  int    `json:"cpu_trace"`
	TraceFile string `json:"trace_file"`
	StatsView bool   `json:"stats_view"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	SaveData    string `json:"save_data"`
	SaveStates  string `json:"save_states"`
	Screenshots string `json:"screenshots"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Scale: 2,
		},
		Video: VideoConfig{
			VSync:      true,
			Filter:     "nearest",
			Backend:    string(graphics.BackendEbitengine),
			Brightness: 1.0,
			Contrast:   1.0,
			Saturation: 1.0,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Volume:     0.8,
			Filter:     true,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up:     "W",
				Down:   "S",
				Left:   "A",
				Right:  "D",
				A:      "J",
				B:      "K",
				Start:  "Enter",
				Select: "Space",
			},
			Player2Keys: KeyMapping{
				Up:     "ArrowUp",
				Down:   "ArrowDown",
				Left:   "ArrowLeft",
				Right:  "ArrowRight",
				A:      "N",
				B:      "M",
				Start:  "ShiftRight",
				Select: "ControlRight",
			},
		},
		Emulation: EmulationConfig{
			DMAHaltRead:    bus.HaltReadsCPUAddress.String(),
			MMC3IRQ:        cartridge.MMC3IRQAuto.String(),
			BankPolicy:     "board",
			SaveStateSlots: 10,
			SaveBattery:    true,
		},
		Debug: DebugConfig{
			TraceFile: "cpu_trace.log",
		},
		Paths: PathsConfig{
			SaveData:    "./saves",
			SaveStates:  "./states",
			Screenshots: "./screenshots",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.createDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// validate repairs out of range numbers and rejects unknown names
func (c *Config) validate() error {
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}
	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}
	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}
	switch graphics.BackendType(c.Video.Backend) {
	case graphics.BackendEbitengine, graphics.BackendHeadless:
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: errors.New("unknown backend")}
	}

	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.Volume < 0.0 || c.Audio.Volume > 1.0 {
		c.Audio.Volume = 0.8
	}

	if c.Emulation.SaveStateSlots <= 0 || c.Emulation.SaveStateSlots > MaxStateSlots {
		c.Emulation.SaveStateSlots = MaxStateSlots
	}
	if _, err := c.BusOptions(); err != nil {
		return err
	}

	if c.Debug.CPUTrace < 0 {
		c.Debug.CPUTrace = 0
	}
	return nil
}

// BusOptions converts the emulation and audio sections into core options.
func (c *Config) BusOptions() (bus.Options, error) {
	halt, err := bus.ParseHaltRead(c.Emulation.DMAHaltRead)
	if err != nil {
		return bus.Options{}, &ConfigError{Field: "emulation.dma_halt_read", Value: c.Emulation.DMAHaltRead, Err: err}
	}
	variant, err := cartridge.ParseMMC3IRQVariant(c.Emulation.MMC3IRQ)
	if err != nil {
		return bus.Options{}, &ConfigError{Field: "emulation.mmc3_irq", Value: c.Emulation.MMC3IRQ, Err: err}
	}

	opts := bus.Options{
		DMAHaltRead: halt,
		SampleRate:  c.Audio.SampleRate,
		AudioFilter: c.Audio.Filter,
		Cartridge:   cartridge.Options{MMC3IRQ: variant},
	}
	switch c.Emulation.BankPolicy {
	case "", "board":
	default:
		policy, err := cartridge.ParseBankPolicy(c.Emulation.BankPolicy)
		if err != nil {
			return bus.Options{}, &ConfigError{Field: "emulation.bank_policy", Value: c.Emulation.BankPolicy, Err: err}
		}
		policies := cartridge.Uniform(policy)
		opts.Cartridge.Policies = &policies
	}
	return opts, nil
}

// GraphicsConfig converts the window, video, audio and input sections.
func (c *Config) GraphicsConfig(headless bool) graphics.Config {
	width, height := c.GetWindowResolution()
	gc := graphics.Config{
		WindowTitle:  "cyclenes",
		WindowWidth:  width,
		WindowHeight: height,
		Fullscreen:   c.Window.Fullscreen,
		VSync:        c.Video.VSync,
		Filter:       c.Video.Filter,
		Player1Keys:  c.Input.Player1Keys.keyMap(),
		Player2Keys:  c.Input.Player2Keys.keyMap(),
		Volume:       float64(c.Audio.Volume),
		Headless:     headless,
	}
	if c.Audio.Enabled {
		gc.SampleRate = c.Audio.SampleRate
	}
	return gc
}

func (k KeyMapping) keyMap() graphics.KeyMap {
	return graphics.KeyMap{
		A: k.A, B: k.B, Select: k.Select, Start: k.Start,
		Up: k.Up, Down: k.Down, Left: k.Left, Right: k.Right,
	}
}

func (c *Config) createDirectories() error {
	for _, dir := range []string{c.Paths.SaveData, c.Paths.SaveStates, c.Paths.Screenshots} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetWindowResolution returns the window resolution based on scale
func (c *Config) GetWindowResolution() (int, int) {
	return graphics.Width * c.Window.Scale, graphics.Height * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}
	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}
	clone.configPath = c.configPath
	clone.loaded = c.loaded
	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/cyclenes.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
