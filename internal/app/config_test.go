package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"cyclenes/internal/bus"
	"cyclenes/internal/cartridge"
	"cyclenes/internal/graphics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults_ShouldProduceDefaultBusOptions(t *testing.T) {
	config := NewConfig()

	opts, err := config.BusOptions()
	require.NoError(t, err)
	assert.Equal(t, bus.HaltReadsCPUAddress, opts.DMAHaltRead)
	assert.Equal(t, cartridge.MMC3IRQAuto, opts.Cartridge.MMC3IRQ)
	assert.Nil(t, opts.Cartridge.Policies, "board policies are the mapper's own")
	assert.Equal(t, 44100, opts.SampleRate)
	assert.True(t, opts.AudioFilter)
}

func TestConfig_BusOptions_ShouldMapEmulationSection(t *testing.T) {
	config := NewConfig()
	config.Emulation.DMAHaltRead = "openbus"
	config.Emulation.MMC3IRQ = "nec"
	config.Emulation.BankPolicy = "openbus"
	config.Audio.Filter = false

	opts, err := config.BusOptions()
	require.NoError(t, err)
	assert.Equal(t, bus.HaltReadsOpenBus, opts.DMAHaltRead)
	assert.Equal(t, cartridge.MMC3IRQNEC, opts.Cartridge.MMC3IRQ)
	require.NotNil(t, opts.Cartridge.Policies)
	assert.Equal(t, cartridge.Uniform(cartridge.BankOpenBus), *opts.Cartridge.Policies)
	assert.False(t, opts.AudioFilter)
}

func TestConfig_BusOptions_ShouldRejectUnknownNames(t *testing.T) {
	cases := []struct {
		field string
		set   func(*Config)
	}{
		{"emulation.dma_halt_read", func(c *Config) { c.Emulation.DMAHaltRead = "bogus" }},
		{"emulation.mmc3_irq", func(c *Config) { c.Emulation.MMC3IRQ = "bogus" }},
		{"emulation.bank_policy", func(c *Config) { c.Emulation.BankPolicy = "bogus" }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			config := NewConfig()
			tc.set(config)

			_, err := config.BusOptions()
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.field, cerr.Field)
		})
	}
}

func TestConfig_LoadFromFile_ShouldCreateMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "cyclenes.json")
	config := NewConfig()

	require.NoError(t, config.LoadFromFile(path))
	assert.FileExists(t, path)
	assert.Equal(t, path, config.GetConfigPath())
	assert.False(t, config.IsLoaded())
}

func TestConfig_LoadFromFile_ShouldRepairOutOfRangeValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cyclenes.json")
	config := NewConfig()
	config.Window.Scale = 0
	config.Audio.SampleRate = 5
	config.Audio.Volume = 4
	config.Emulation.SaveStateSlots = 99
	config.Debug.CPUTrace = -3
	config.Paths = PathsConfig{
		SaveData:    filepath.Join(dir, "saves"),
		SaveStates:  filepath.Join(dir, "states"),
		Screenshots: filepath.Join(dir, "shots"),
	}
	require.NoError(t, config.SaveToFile(path))

	loaded := NewConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.True(t, loaded.IsLoaded())
	assert.Equal(t, 1, loaded.Window.Scale)
	assert.Equal(t, 44100, loaded.Audio.SampleRate)
	assert.Equal(t, float32(0.8), loaded.Audio.Volume)
	assert.Equal(t, MaxStateSlots, loaded.Emulation.SaveStateSlots)
	assert.Zero(t, loaded.Debug.CPUTrace)
	assert.DirExists(t, filepath.Join(dir, "states"))
	assert.DirExists(t, filepath.Join(dir, "shots"))
}

func TestConfig_LoadFromFile_ShouldRejectUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cyclenes.json")
	config := NewConfig()
	config.Video.Backend = "terminal"
	data, err := json.Marshal(config)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	err = NewConfig().LoadFromFile(path)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "video.backend", cerr.Field)
}

func TestConfig_LoadFromFile_ShouldReportMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cyclenes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	assert.Error(t, NewConfig().LoadFromFile(path))
}

func TestConfig_Save_ShouldRequirePath(t *testing.T) {
	assert.Error(t, NewConfig().Save())
}

func TestConfig_Clone_ShouldBeIndependent(t *testing.T) {
	config := NewConfig()
	clone := config.Clone()
	clone.Input.Player1Keys.A = "Z"
	clone.Window.Scale = 5

	assert.Equal(t, "J", config.Input.Player1Keys.A)
	assert.Equal(t, 2, config.Window.Scale)
}

func TestConfig_GraphicsConfig_ShouldScaleAndMapKeys(t *testing.T) {
	config := NewConfig()
	config.Window.Scale = 3

	gc := config.GraphicsConfig(true)
	assert.Equal(t, graphics.Width*3, gc.WindowWidth)
	assert.Equal(t, graphics.Height*3, gc.WindowHeight)
	assert.True(t, gc.Headless)
	assert.Equal(t, "J", gc.Player1Keys.A)
	assert.Equal(t, "ArrowUp", gc.Player2Keys.Up)
	assert.Equal(t, 44100, gc.SampleRate)

	config.Audio.Enabled = false
	assert.Zero(t, config.GraphicsConfig(true).SampleRate)
}
