// Package audio streams a sample source to the sound card through ebiten's
// audio context or directly through oto.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"
)

// SampleSource fills dst with interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// StreamReader adapts a SampleSource to the float32 little-endian byte
// stream both backends consume.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
	frames atomic.Int64
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math32.Float32bits(r.buf[i]))
	}
	r.frames.Add(int64(frames))
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

// Frames is the number of stereo frames handed to the backend so far.
func (r *StreamReader) Frames() int64 { return r.frames.Load() }

func (r *StreamReader) Close() error { return nil }

// Backend names an output implementation.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
)

// Output is a running stream on the sound card.
type Output interface {
	Play()
	Pause()
	IsPlaying() bool
	// Position is what the listener hears right now.
	Position() time.Duration
	Stop() error
}

// Open starts an output on the chosen backend. Each backend owns one
// process-wide context, so every Open must use the same sample rate.
func Open(backend Backend, sampleRate int, source SampleSource) (Output, error) {
	switch backend {
	case BackendEbiten, "":
		return NewEbitenPlayer(sampleRate, source)
	case BackendOto:
		return NewOtoPlayer(sampleRate, source)
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}

func checkRate(name string, initRate, sampleRate int) error {
	if initRate != sampleRate {
		return fmt.Errorf("%s context already initialized at %d Hz (requested %d Hz)", name, initRate, sampleRate)
	}
	return nil
}
