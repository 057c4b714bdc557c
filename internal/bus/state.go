package bus

import (
	"encoding/json"
	"errors"
	"fmt"

	"cyclenes/internal/apu"
	"cyclenes/internal/cartridge"
	"cyclenes/internal/cpu"
	"cyclenes/internal/input"
	"cyclenes/internal/logger"
	"cyclenes/internal/memory"
	"cyclenes/internal/ppu"
)

// StateVersion is bumped whenever State changes incompatibly.
const StateVersion = 1

var (
	ErrStateVersion   = errors.New("unsupported save state version")
	ErrNoCartridge    = errors.New("no cartridge inserted")
	ErrMapperMismatch = errors.New("save state is for a different board")
)

// StateError reports a save state that could not be captured or restored.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("save state %s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// DMAState is the serialized DMA controller.
type DMAState struct {
	Halted      bool   `json:"halted"`
	HaltAddress uint16 `json:"halt_address"`
	OAMActive   bool   `json:"oam_active"`
	OAMPage     uint8  `json:"oam_page"`
	OAMIndex    uint16 `json:"oam_index"`
	OAMLatch    uint8  `json:"oam_latch"`
	OAMLoaded   bool   `json:"oam_loaded"`
	DMCActive   bool   `json:"dmc_active"`
	DMCWait     uint8  `json:"dmc_wait"`
	DMCKind     uint8  `json:"dmc_kind"`
}

// State is a complete machine snapshot. It marshals to JSON.
type State struct {
	Version   int                `json:"version"`
	MapperID  uint16             `json:"mapper_id"`
	CPU       cpu.State          `json:"cpu"`
	PPU       ppu.State          `json:"ppu"`
	APU       apu.State          `json:"apu"`
	Memory    memory.State       `json:"memory"`
	PPUMemory memory.PPUState    `json:"ppu_memory"`
	Cartridge cartridge.RAMState `json:"cartridge"`
	Mapper    json.RawMessage    `json:"mapper,omitempty"`
	Input     input.State        `json:"input"`
	DMA       DMAState           `json:"dma"`
}

// SaveState captures the whole machine. Buffered audio is not included.
func (b *Bus) SaveState() (*State, error) {
	s := &State{
		Version:   StateVersion,
		CPU:       b.CPU.SaveState(),
		PPU:       b.PPU.SaveState(),
		APU:       b.APU.SaveState(),
		Memory:    b.Memory.SaveState(),
		PPUMemory: b.PPUMemory.SaveState(),
		Input:     b.Input.SaveState(),
		DMA:       b.dma.save(),
	}
	if b.Cartridge != nil {
		mapperState, err := b.Cartridge.Mapper().SaveState()
		if err != nil {
			return nil, &StateError{Op: "save", Err: err}
		}
		s.MapperID = b.Cartridge.MapperID()
		s.Mapper = mapperState
		s.Cartridge = b.Cartridge.SaveRAM()
	}
	return s, nil
}

// LoadState restores a snapshot taken by SaveState on the same cartridge.
// A snapshot whose memory sizes do not match is rejected before anything
// changes.
func (b *Bus) LoadState(s *State) error {
	if err := b.checkState(s); err != nil {
		return &StateError{Op: "load", Err: err}
	}

	mem := memory.New(nil, nil, nil)
	if err := mem.LoadState(s.Memory); err != nil {
		return &StateError{Op: "load", Err: err}
	}
	vram := memory.NewPPUMemory(nil)
	if err := vram.LoadState(s.PPUMemory); err != nil {
		return &StateError{Op: "load", Err: err}
	}

	if b.Cartridge != nil {
		if err := b.Cartridge.LoadRAM(s.Cartridge); err != nil {
			return &StateError{Op: "load", Err: err}
		}
		if err := b.Cartridge.Mapper().LoadState(s.Mapper); err != nil {
			return &StateError{Op: "load", Err: err}
		}
	}
	if err := b.Memory.LoadState(s.Memory); err != nil {
		return &StateError{Op: "load", Err: err}
	}
	if err := b.PPUMemory.LoadState(s.PPUMemory); err != nil {
		return &StateError{Op: "load", Err: err}
	}

	b.CPU.LoadState(s.CPU)
	b.PPU.LoadState(s.PPU)
	b.APU.LoadState(s.APU)
	b.Input.LoadState(s.Input)
	b.dma.load(s.DMA)
	b.updateIRQ()

	logger.Logf(logger.TagState, "restored state at cycle %d", s.CPU.Cycles)
	return nil
}

func (b *Bus) checkState(s *State) error {
	if s == nil {
		return errors.New("nil state")
	}
	if s.Version != StateVersion {
		return fmt.Errorf("%w: %d", ErrStateVersion, s.Version)
	}
	if len(s.Mapper) > 0 && b.Cartridge == nil {
		return ErrNoCartridge
	}
	if b.Cartridge != nil && s.MapperID != b.Cartridge.MapperID() {
		return fmt.Errorf("%w: state mapper %d, cartridge mapper %d", ErrMapperMismatch, s.MapperID, b.Cartridge.MapperID())
	}
	return nil
}

func (d *dmaUnit) save() DMAState {
	return DMAState{
		Halted:      d.halted,
		HaltAddress: d.haltAddress,
		OAMActive:   d.oamActive,
		OAMPage:     d.oamPage,
		OAMIndex:    d.oamIndex,
		OAMLatch:    d.oamLatch,
		OAMLoaded:   d.oamLoaded,
		DMCActive:   d.dmcActive,
		DMCWait:     d.dmcWait,
		DMCKind:     uint8(d.dmcKind),
	}
}

func (d *dmaUnit) load(s DMAState) {
	*d = dmaUnit{
		halted:      s.Halted,
		haltAddress: s.HaltAddress,
		oamActive:   s.OAMActive,
		oamPage:     s.OAMPage,
		oamIndex:    s.OAMIndex,
		oamLatch:    s.OAMLatch,
		oamLoaded:   s.OAMLoaded,
		dmcActive:   s.DMCActive,
		dmcWait:     s.DMCWait,
		dmcKind:     apu.DMCRequest(s.DMCKind),
	}
}
