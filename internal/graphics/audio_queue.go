package graphics

import (
	"encoding/binary"
	"iter"
	"sync"
)

// SampleQueue buffers mono emulator samples and serves them as 16-bit
// little-endian stereo PCM, the format ebiten's audio players read.
type SampleQueue struct {
	mu        sync.Mutex
	ring      []int16
	head      int
	count     int
	last      int16
	underruns uint64
	overruns  uint64
}

// NewSampleQueue creates a queue holding at most capacity samples.
func NewSampleQueue(capacity int) *SampleQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleQueue{ring: make([]int16, capacity)}
}

// toPCM maps a mixer level in [0,1] to a signed sample.
func toPCM(s float32) int16 {
	v := (s*2 - 1) * 32767
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// Push appends samples. Samples that do not fit are discarded.
func (q *SampleQueue) Push(samples iter.Seq[float32]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for s := range samples {
		if q.count == len(q.ring) {
			q.overruns++
			continue
		}
		q.ring[(q.head+q.count)%len(q.ring)] = toPCM(s)
		q.count++
	}
}

// Len returns the number of buffered samples.
func (q *SampleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Underruns returns how many reads ran out of samples.
func (q *SampleQueue) Underruns() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.underruns
}

// Overruns returns how many samples Push discarded.
func (q *SampleQueue) Overruns() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.overruns
}

// Read implements io.Reader. It never blocks: once the queue is empty the
// last sample is held until more arrive.
func (q *SampleQueue) Read(p []byte) (int, error) {
	if len(p) < 4 {
		clear(p)
		return len(p), nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	frames := len(p) / 4
	if q.count < frames {
		q.underruns++
	}
	for i := 0; i < frames; i++ {
		if q.count > 0 {
			q.last = q.ring[q.head]
			q.head = (q.head + 1) % len(q.ring)
			q.count--
		}
		binary.LittleEndian.PutUint16(p[i*4:], uint16(q.last))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(q.last))
	}
	return frames * 4, nil
}
