// Package debug holds development tools that sit beside the emulator:
// instruction traces, frame dumps, state graphs and runtime statistics.
package debug

import (
	"fmt"
	"os"
	"path/filepath"

	"cyclenes/internal/graphics"
)

// FrameDumper writes every Nth frame as a PNG until a limit is reached.
type FrameDumper struct {
	outputDir string
	interval  uint64
	maxDumps  int
	scale     int
	dumped    int
}

// NewFrameDumper creates the output directory and dumps every frame, up
// to 10, at scale 1.
func NewFrameDumper(outputDir string) (*FrameDumper, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("frame dump directory: %w", err)
	}
	return &FrameDumper{outputDir: outputDir, interval: 1, maxDumps: 10, scale: 1}, nil
}

// SetInterval dumps only frames whose number is a multiple of n
func (fd *FrameDumper) SetInterval(n uint64) {
	if n > 0 {
		fd.interval = n
	}
}

// SetMaxDumps caps the number of files written
func (fd *FrameDumper) SetMaxDumps(n int) {
	fd.maxDumps = n
}

// SetScale sets the PNG scale factor
func (fd *FrameDumper) SetScale(n int) {
	fd.scale = n
}

// Dumped returns how many files were written
func (fd *FrameDumper) Dumped() int {
	return fd.dumped
}

// Path returns the file name used for a frame number
func (fd *FrameDumper) Path(frameNum uint64) string {
	return filepath.Join(fd.outputDir, fmt.Sprintf("frame_%06d.png", frameNum))
}

// Dump writes frame if frameNum is due. It reports whether a file was
// written.
func (fd *FrameDumper) Dump(frame *graphics.Frame, frameNum uint64) (bool, error) {
	if fd.dumped >= fd.maxDumps || frameNum%fd.interval != 0 {
		return false, nil
	}
	if err := graphics.SavePNG(fd.Path(frameNum), frame, fd.scale); err != nil {
		return false, err
	}
	fd.dumped++
	return true, nil
}
