package app

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cyclenes/internal/bus"
	"cyclenes/internal/logger"
)

// MaxStateSlots is the number of numbered save slots per ROM.
const MaxStateSlots = 10

// stateFileVersion is bumped when SaveFile's layout changes.
const stateFileVersion = 1

var (
	ErrInvalidSlot = errors.New("invalid save slot")
	ErrSlotEmpty   = errors.New("save slot is empty")
	ErrROMMismatch = errors.New("save state belongs to a different ROM")
)

// ROMInfo identifies the image a save state was taken from.
type ROMInfo struct {
	Path     string
	Checksum string
}

// NewROMInfo hashes the image at path.
func NewROMInfo(path string) (ROMInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ROMInfo{}, err
	}
	sum := sha1.Sum(data)
	return ROMInfo{Path: path, Checksum: hex.EncodeToString(sum[:])}, nil
}

// Name returns the ROM file name without directory or extension.
func (r ROMInfo) Name() string {
	base := filepath.Base(r.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SaveFile is the on-disk layout of a save slot.
type SaveFile struct {
	Version     int        `json:"version"`
	Timestamp   time.Time  `json:"timestamp"`
	ROMName     string     `json:"rom_name"`
	ROMChecksum string     `json:"rom_checksum"`
	Slot        int        `json:"slot"`
	Frame       uint64     `json:"frame"`
	Cycles      uint64     `json:"cycles"`
	State       *bus.State `json:"state"`
}

// SlotInfo describes one slot for menus and listings
type SlotInfo struct {
	Slot      int
	Used      bool
	Timestamp time.Time
	Frame     uint64
	Path      string
	Size      int64
}

// StateManager manages the numbered save slots in one directory
type StateManager struct {
	dir   string
	slots int
}

// NewStateManager creates the directory if needed. slots is clamped to
// MaxStateSlots.
func NewStateManager(dir string, slots int) (*StateManager, error) {
	if slots <= 0 || slots > MaxStateSlots {
		slots = MaxStateSlots
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &StateManager{dir: dir, slots: slots}, nil
}

// Slots returns the number of slots
func (sm *StateManager) Slots() int {
	return sm.slots
}

// SlotPath returns <dir>/<rom>.slotN.json
func (sm *StateManager) SlotPath(slot int, rom ROMInfo) string {
	return filepath.Join(sm.dir, fmt.Sprintf("%s.slot%d.json", rom.Name(), slot))
}

func (sm *StateManager) checkSlot(slot int) error {
	if slot < 0 || slot >= sm.slots {
		return fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidSlot, slot, sm.slots-1)
	}
	return nil
}

// Save snapshots the machine into a slot
func (sm *StateManager) Save(b *bus.Bus, slot int, rom ROMInfo) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	if err := sm.Export(b, sm.SlotPath(slot, rom), slot, rom); err != nil {
		return err
	}
	logger.Logf(logger.TagState, "saved slot %d at frame %d", slot, b.Frame())
	return nil
}

// Load restores a slot. The machine is left untouched when anything about
// the file is wrong.
func (sm *StateManager) Load(b *bus.Bus, slot int, rom ROMInfo) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	path := sm.SlotPath(slot, rom)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %d", ErrSlotEmpty, slot)
	}
	if err := sm.Import(b, path, rom); err != nil {
		return err
	}
	logger.Logf(logger.TagState, "loaded slot %d", slot)
	return nil
}

// Export writes a snapshot to an arbitrary path. slot is recorded in the
// file; -1 marks an export outside the slot list.
func (sm *StateManager) Export(b *bus.Bus, path string, slot int, rom ROMInfo) error {
	state, err := b.SaveState()
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	file := SaveFile{
		Version:     stateFileVersion,
		Timestamp:   time.Now(),
		ROMName:     rom.Name(),
		ROMChecksum: rom.Checksum,
		Slot:        slot,
		Frame:       b.Frame(),
		Cycles:      b.Cycles(),
		State:       state,
	}
	data, err := json.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return writeFileAtomic(path, data)
}

// Import restores a snapshot written by Export
func (sm *StateManager) Import(b *bus.Bus, path string, rom ROMInfo) error {
	file, err := readSaveFile(path)
	if err != nil {
		return err
	}
	if file.Version != stateFileVersion {
		return fmt.Errorf("%s: unsupported save file version %d", path, file.Version)
	}
	if rom.Checksum != "" && file.ROMChecksum != rom.Checksum {
		return fmt.Errorf("%w: %s", ErrROMMismatch, file.ROMName)
	}
	if err := b.LoadState(file.State); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	return nil
}

func readSaveFile(path string) (*SaveFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	var file SaveFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	if file.State == nil {
		return nil, fmt.Errorf("%s: no machine state", path)
	}
	return &file, nil
}

// SlotInfo lists every slot for a ROM
func (sm *StateManager) SlotInfo(rom ROMInfo) []SlotInfo {
	infos := make([]SlotInfo, sm.slots)
	for i := range infos {
		infos[i].Slot = i
		path := sm.SlotPath(i, rom)
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}
		infos[i].Used = true
		infos[i].Path = path
		infos[i].Size = stat.Size()
		infos[i].Timestamp = stat.ModTime()
		if file, err := readSaveFile(path); err == nil {
			infos[i].Timestamp = file.Timestamp
			infos[i].Frame = file.Frame
		}
	}
	return infos
}

// Has reports whether a slot holds a file
func (sm *StateManager) Has(slot int, rom ROMInfo) bool {
	if sm.checkSlot(slot) != nil {
		return false
	}
	_, err := os.Stat(sm.SlotPath(slot, rom))
	return err == nil
}

// Delete removes a slot's file
func (sm *StateManager) Delete(slot int, rom ROMInfo) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	err := os.Remove(sm.SlotPath(slot, rom))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %d", ErrSlotEmpty, slot)
	}
	return err
}

// writeFileAtomic replaces path so that a crash never leaves half a file.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
