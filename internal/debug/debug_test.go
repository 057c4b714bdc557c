package debug

import (
	"bytes"
	"image/png"
	"os"
	"strings"
	"testing"

	"cyclenes/internal/bus"
	"cyclenes/internal/cartridge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoopBus(t *testing.T) *bus.Bus {
	t.Helper()
	b, err := bus.NewForTesting(cartridge.NewTestROMBuilder().WithCode(0x8000,
		0xA9, 0x01, //       LDA #$01
		0x4C, 0x02, 0x80, // JMP $8002
	), bus.Options{})
	require.NoError(t, err)
	b.RunCycles(7)
	return b
}

func TestTracer_ShouldLogInstructionsUpToLimit(t *testing.T) {
	b := newLoopBus(t)
	var out bytes.Buffer
	tr := AttachTracer(b, &out, 3)

	b.RunCycles(100)
	require.NoError(t, tr.Flush())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, tr.Done())
	assert.Equal(t, 3, tr.Lines())
	assert.True(t, strings.HasPrefix(lines[0], "8000  A9 01"), lines[0])
	assert.Contains(t, lines[0], "LDA #$01")
	assert.Contains(t, lines[1], "JMP $8002")
	assert.True(t, strings.HasPrefix(lines[2], "8002"), lines[2])
}

func TestTracer_ShouldRunWithoutLimit(t *testing.T) {
	b := newLoopBus(t)
	var out bytes.Buffer
	tr := AttachTracer(b, &out, 0)

	b.RunCycles(2 + 3*10)
	require.NoError(t, tr.Flush())
	assert.False(t, tr.Done())
	assert.Equal(t, 11, tr.Lines())
}

func TestFrameDumper_ShouldHonourIntervalAndLimit(t *testing.T) {
	dir := t.TempDir()
	fd, err := NewFrameDumper(dir)
	require.NoError(t, err)
	fd.SetInterval(2)
	fd.SetMaxDumps(2)

	b := newLoopBus(t)
	var written []uint64
	for frame := uint64(1); frame <= 8; frame++ {
		ok, err := fd.Dump(b.FrameBuffer(), frame)
		require.NoError(t, err)
		if ok {
			written = append(written, frame)
		}
	}
	assert.Equal(t, []uint64{2, 4}, written)
	assert.Equal(t, 2, fd.Dumped())

	f, err := os.Open(fd.Path(4))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestDumpState_ShouldWriteGraphviz(t *testing.T) {
	b := newLoopBus(t)
	var out bytes.Buffer

	require.NoError(t, DumpState(&out, b, false))
	assert.Contains(t, out.String(), "digraph")
}
