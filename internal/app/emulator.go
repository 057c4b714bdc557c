package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"cyclenes/internal/apu"
	"cyclenes/internal/bus"
	"cyclenes/internal/graphics"

	"golang.org/x/sync/errgroup"
)

// frames the producer may run ahead of the consumer
const framePipelineDepth = 3

// FramePacket is one emulated frame handed to a consumer.
type FramePacket struct {
	Index   uint64
	Pixels  graphics.Frame
	Samples []float32
}

// Emulator drives a bus one frame at a time and keeps run statistics.
type Emulator struct {
	bus *bus.Bus

	frames    uint64
	startTime time.Time
	busyTime  time.Duration
	startCyc  uint64
}

// NewEmulator creates an emulator around b
func NewEmulator(b *bus.Bus) *Emulator {
	e := &Emulator{bus: b}
	e.ResetStats()
	return e
}

// Bus returns the machine being driven
func (e *Emulator) Bus() *bus.Bus {
	return e.bus
}

// ResetStats restarts the frame and speed counters
func (e *Emulator) ResetStats() {
	e.frames = 0
	e.startTime = time.Now()
	e.busyTime = 0
	e.startCyc = e.bus.Cycles()
}

// StepFrame runs the machine to the next frame boundary
func (e *Emulator) StepFrame() {
	start := time.Now()
	e.bus.StepFrame()
	e.busyTime += time.Since(start)
	e.frames++
}

// Packet runs one frame and copies its output
func (e *Emulator) Packet() *FramePacket {
	e.StepFrame()
	p := &FramePacket{
		Index:   e.bus.Frame(),
		Samples: slices.Collect(e.bus.AudioSamples()),
	}
	p.Pixels = *e.bus.FrameBuffer()
	return p
}

// Run emulates frames on its own goroutine and passes them to consume on
// another. frames <= 0 runs until ctx is cancelled. The first error from
// either side stops both.
func (e *Emulator) Run(ctx context.Context, frames int, consume func(*FramePacket) error) error {
	g, ctx := errgroup.WithContext(ctx)
	packets := make(chan *FramePacket, framePipelineDepth)

	g.Go(func() error {
		defer close(packets)
		for n := 0; frames <= 0 || n < frames; n++ {
			p := e.Packet()
			select {
			case packets <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for p := range packets {
			if err := consume(p); err != nil {
				return fmt.Errorf("frame %d: %w", p.Index, err)
			}
		}
		return nil
	})

	return g.Wait()
}

// Stats summarizes a run
type Stats struct {
	Frames  uint64
	Cycles  uint64
	Elapsed time.Duration
	Busy    time.Duration
}

// Speed is emulated time over wall time; 1 is real time.
func (s Stats) Speed() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Cycles) / apu.CPUFrequency / s.Elapsed.Seconds()
}

// FPS is frames per wall second
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Stats returns the counters since the last ResetStats
func (e *Emulator) Stats() Stats {
	return Stats{
		Frames:  e.frames,
		Cycles:  e.bus.Cycles() - e.startCyc,
		Elapsed: time.Since(e.startTime),
		Busy:    e.busyTime,
	}
}
