package app

import (
	"fmt"
	"iter"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavChunk is how many samples are buffered before an encoder write
const wavChunk = 4096

// WAVRecorder writes the core's mono output as 16-bit PCM.
type WAVRecorder struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	written int
}

// NewWAVRecorder creates path and writes the header.
func NewWAVRecorder(path string, sampleRate int) (*WAVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return &WAVRecorder{
		file:    f,
		encoder: wav.NewEncoder(f, sampleRate, 16, 1, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			Data:           make([]int, 0, wavChunk),
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends samples in [0,1]
func (r *WAVRecorder) Write(samples iter.Seq[float32]) error {
	for s := range samples {
		r.buf.Data = append(r.buf.Data, int(toPCM16(s)))
		if len(r.buf.Data) == wavChunk {
			if err := r.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *WAVRecorder) flush() error {
	if len(r.buf.Data) == 0 {
		return nil
	}
	if err := r.encoder.Write(r.buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	r.written += len(r.buf.Data)
	r.buf.Data = r.buf.Data[:0]
	return nil
}

// Samples returns how many samples reached the encoder
func (r *WAVRecorder) Samples() int {
	return r.written + len(r.buf.Data)
}

// Close flushes, patches the header sizes and closes the file
func (r *WAVRecorder) Close() error {
	err := r.flush()
	if cerr := r.encoder.Close(); err == nil {
		err = cerr
	}
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func toPCM16(s float32) int16 {
	v := (s*2 - 1) * 32767
	return int16(max(-32768, min(v, 32767)))
}
