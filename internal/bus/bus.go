// Package bus implements the system bus for communication between NES components.
package bus

import (
	"iter"
	"slices"

	"cyclenes/internal/apu"
	"cyclenes/internal/cartridge"
	"cyclenes/internal/cpu"
	"cyclenes/internal/input"
	"cyclenes/internal/logger"
	"cyclenes/internal/memory"
	"cyclenes/internal/ppu"
)

// Options are the core tunables.
type Options struct {
	// DMAHaltRead selects what the bus sees while DMA holds the CPU.
	DMAHaltRead HaltRead
	SampleRate  int
	AudioFilter bool
	// Cartridge is applied by LoadROMFile.
	Cartridge cartridge.Options
}

// InstructionHook is called before the CPU starts each instruction.
type InstructionHook func(c *cpu.CPU)

// Bus connects all NES components together and runs them in lockstep: one
// CPU cycle, three PPU dots and one APU cycle per StepCycle.
type Bus struct {
	// Core components
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Memory    *memory.Memory
	PPUMemory *memory.PPUMemory
	Input     *input.InputState
	Cartridge *cartridge.Cartridge

	lines     cpu.InterruptLines
	dma       dmaUnit
	dmaCycles uint64
	options   Options
	hook      InstructionHook
}

// New creates a powered-on console with no cartridge inserted.
func New(opts Options) *Bus {
	b := &Bus{
		APU:     apu.New(apu.Config{SampleRate: opts.SampleRate, Filter: opts.AudioFilter}),
		Input:   input.NewInputState(),
		options: opts,
	}

	b.PPUMemory = memory.NewPPUMemory(nil)
	b.PPU = ppu.New(b.PPUMemory, &b.lines)
	b.Memory = memory.New(b.PPU, b.APU, nil)
	b.Memory.SetInputSystem(b.Input)
	b.Memory.SetDMACallback(b.startOAMDMA)
	b.CPU = cpu.New(b.Memory, &b.lines)

	b.PowerOn()
	return b
}

// Options returns the tunables the bus was built with.
func (b *Bus) Options() Options {
	return b.options
}

// LoadROMFile loads an iNES image with the configured cartridge options and
// inserts it.
func (b *Bus) LoadROMFile(path string) (*cartridge.Cartridge, error) {
	cart, err := cartridge.LoadFromFileWithOptions(path, b.options.Cartridge)
	if err != nil {
		return nil, err
	}
	b.LoadCartridge(cart)
	return cart, nil
}

// LoadCartridge inserts a cartridge and powers the console on.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cartridge = cart
	b.Memory.SetCartridge(cart)
	b.PPUMemory.SetCartridge(cart)
	logger.Logf(logger.TagBus, "inserted %s cartridge", cart.Mapper().Name())
	b.PowerOn()
}

// PowerOn is the cold boot: every component returns to its power-up state
// and the CPU runs its reset sequence on the following cycles.
func (b *Bus) PowerOn() {
	b.lines = cpu.InterruptLines{}
	b.dma = dmaUnit{}
	b.dmaCycles = 0
	b.Memory.PowerOn()
	b.PPU.PowerOn()
	b.APU.PowerOn()
	b.Input.Reset()
	if b.Cartridge != nil {
		b.Cartridge.Mapper().Reset()
	}
	b.CPU.PowerOn()
	logger.Log(logger.TagBus, "power on")
}

// Reset pulls the reset line. RAM and cartridge memory are kept.
func (b *Bus) Reset() {
	b.dma = dmaUnit{}
	b.PPU.Reset()
	b.APU.Reset()
	if b.Cartridge != nil {
		b.Cartridge.Mapper().Reset()
	}
	b.CPU.Reset()
	b.updateIRQ()
	logger.Logf(logger.TagBus, "reset after %d cycles", b.CPU.Cycles())
}

// SetInstructionHook installs a callback run at every instruction boundary,
// or removes it when nil.
func (b *Bus) SetInstructionHook(hook InstructionHook) {
	b.hook = hook
}

// StepCycle advances the console by one CPU cycle.
func (b *Bus) StepCycle() {
	b.pollDMC()
	if !b.stepDMA() {
		if b.hook != nil && b.CPU.AtInstructionBoundary() {
			b.hook(b.CPU)
		}
		b.CPU.Step()
	}

	b.PPU.Step()
	b.PPU.Step()
	b.PPU.Step()

	b.APU.Step()
	if b.Cartridge != nil {
		b.Cartridge.CPUCycle()
	}
	b.updateIRQ()
}

// updateIRQ drives the wired-OR IRQ line from its three sources. The CPU
// samples it at the end of its next cycle.
func (b *Bus) updateIRQ() {
	b.lines.SetIRQ(cpu.IRQFrameCounter, b.APU.FrameIRQ())
	b.lines.SetIRQ(cpu.IRQDMC, b.APU.DMCIRQ())
	b.lines.SetIRQ(cpu.IRQMapper, b.Cartridge != nil && b.Cartridge.IRQ())
}

// RunCycles runs n CPU cycles.
func (b *Bus) RunCycles(n int) {
	for i := 0; i < n; i++ {
		b.StepCycle()
	}
}

// StepFrame runs cycles until the PPU completes a frame.
func (b *Bus) StepFrame() {
	frame := b.PPU.Frame()
	for b.PPU.Frame() == frame {
		b.StepCycle()
	}
}

// FrameBuffer returns the last rendered picture as 0x00RRGGBB pixels. The
// array is owned by the PPU and must not be written.
func (b *Bus) FrameBuffer() *[ppu.ScreenWidth * ppu.ScreenHeight]uint32 {
	return b.PPU.FrameBuffer()
}

// AudioSamples drains the samples produced since the previous call.
func (b *Bus) AudioSamples() iter.Seq[float32] {
	return slices.Values(b.APU.DrainSamples())
}

// SetControllerState sets the buttons held on port 0 or 1. Bit 0 is A, then
// B, Select, Start, Up, Down, Left, Right.
func (b *Bus) SetControllerState(port int, mask uint8) {
	b.Input.SetButtons(port, mask)
}

// Cycles returns the number of CPU cycles since power on, DMA included.
func (b *Bus) Cycles() uint64 {
	return b.CPU.Cycles()
}

// Frame returns the number of completed frames.
func (b *Bus) Frame() uint64 {
	return b.PPU.Frame()
}

// IRQSources reports which devices hold the IRQ line.
func (b *Bus) IRQSources() cpu.IRQSource {
	return b.lines.Sources()
}

// DMACycles returns the number of cycles DMA has taken from the CPU since
// power on.
func (b *Bus) DMACycles() uint64 {
	return b.dmaCycles
}

// DMAActive reports whether a DMA transfer owns the bus.
func (b *Bus) DMAActive() bool {
	return b.dma.oamActive || b.dma.dmcActive
}
