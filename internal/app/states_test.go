package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"cyclenes/internal/bus"
	"cyclenes/internal/cartridge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStateTestBus(t *testing.T) *bus.Bus {
	t.Helper()
	b, err := bus.NewForTesting(cartridge.NewTestROMBuilder().WithCode(0x8000, loopProgram...), bus.Options{})
	require.NoError(t, err)
	return b
}

func marshalState(t *testing.T, b *bus.Bus) []byte {
	t.Helper()
	state, err := b.SaveState()
	require.NoError(t, err)
	data, err := json.Marshal(state)
	require.NoError(t, err)
	return data
}

var testROM = ROMInfo{Path: "/roms/loop.nes", Checksum: "abc123"}

func TestStateManager_SaveLoad_ShouldRestoreMachine(t *testing.T) {
	sm, err := NewStateManager(t.TempDir(), 4)
	require.NoError(t, err)
	b := newStateTestBus(t)
	b.StepFrame()
	b.RunCycles(777)

	require.NoError(t, sm.Save(b, 2, testROM))
	want := marshalState(t, b)
	b.StepFrame()
	b.StepFrame()

	require.NoError(t, sm.Load(b, 2, testROM))
	assert.JSONEq(t, string(want), string(marshalState(t, b)))
}

func TestStateManager_SlotPath_ShouldUseROMName(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewStateManager(dir, 0)
	require.NoError(t, err)

	assert.Equal(t, MaxStateSlots, sm.Slots())
	assert.Equal(t, filepath.Join(dir, "loop.slot3.json"), sm.SlotPath(3, testROM))
}

func TestStateManager_InvalidSlot_ShouldFail(t *testing.T) {
	sm, err := NewStateManager(t.TempDir(), 2)
	require.NoError(t, err)
	b := newStateTestBus(t)

	assert.ErrorIs(t, sm.Save(b, 2, testROM), ErrInvalidSlot)
	assert.ErrorIs(t, sm.Save(b, -1, testROM), ErrInvalidSlot)
	assert.ErrorIs(t, sm.Load(b, 5, testROM), ErrInvalidSlot)
	assert.False(t, sm.Has(9, testROM))
}

func TestStateManager_Load_ShouldReportEmptySlot(t *testing.T) {
	sm, err := NewStateManager(t.TempDir(), 2)
	require.NoError(t, err)

	assert.ErrorIs(t, sm.Load(newStateTestBus(t), 1, testROM), ErrSlotEmpty)
}

func TestStateManager_Load_ShouldRejectOtherROM(t *testing.T) {
	sm, err := NewStateManager(t.TempDir(), 2)
	require.NoError(t, err)
	b := newStateTestBus(t)
	b.StepFrame()
	require.NoError(t, sm.Save(b, 0, testROM))
	before := marshalState(t, b)

	other := ROMInfo{Path: testROM.Path, Checksum: "def456"}
	assert.ErrorIs(t, sm.Load(b, 0, other), ErrROMMismatch)
	assert.JSONEq(t, string(before), string(marshalState(t, b)), "a rejected load leaves the machine alone")
}

func TestStateManager_Import_ShouldRejectCorruptFile(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewStateManager(dir, 2)
	require.NoError(t, err)
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1}`), 0644))

	assert.Error(t, sm.Import(newStateTestBus(t), path, testROM))

	require.NoError(t, os.WriteFile(path, []byte(`{"version":7,"state":{}}`), 0644))
	assert.Error(t, sm.Import(newStateTestBus(t), path, testROM))
}

func TestStateManager_SlotInfo_ShouldListUsedSlots(t *testing.T) {
	sm, err := NewStateManager(t.TempDir(), 3)
	require.NoError(t, err)
	b := newStateTestBus(t)
	b.StepFrame()
	require.NoError(t, sm.Save(b, 1, testROM))

	infos := sm.SlotInfo(testROM)
	require.Len(t, infos, 3)
	assert.False(t, infos[0].Used)
	assert.True(t, infos[1].Used)
	assert.Equal(t, b.Frame(), infos[1].Frame)
	assert.Positive(t, infos[1].Size)
	assert.False(t, infos[1].Timestamp.IsZero())
	assert.False(t, infos[2].Used)
}

func TestStateManager_Delete_ShouldEmptySlot(t *testing.T) {
	sm, err := NewStateManager(t.TempDir(), 3)
	require.NoError(t, err)
	b := newStateTestBus(t)
	require.NoError(t, sm.Save(b, 0, testROM))
	require.True(t, sm.Has(0, testROM))

	require.NoError(t, sm.Delete(0, testROM))
	assert.False(t, sm.Has(0, testROM))
	assert.ErrorIs(t, sm.Delete(0, testROM), ErrSlotEmpty)
}

func TestROMInfo_NewROMInfo_ShouldHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.nes")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	info, err := NewROMInfo(path)
	require.NoError(t, err)
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", info.Checksum)
	assert.Equal(t, "game", info.Name())
}

func TestApplication_SaveLoadState_ShouldUseSlots(t *testing.T) {
	app := newTestApp(t, testConfig(t),
		writeROM(t, "loop.nes", cartridge.NewTestROMBuilder().WithCode(0x8000, loopProgram...)))
	app.emulator.StepFrame()
	require.NoError(t, app.SaveState(1))
	want := marshalState(t, app.Bus())

	app.emulator.StepFrame()
	require.NoError(t, app.LoadState(1))

	assert.JSONEq(t, string(want), string(marshalState(t, app.Bus())))
	assert.True(t, app.States().Has(1, app.ROM()))
}
