// Package bank holds the fixed pool of voices. Callers pick the slot; the
// bank never allocates or steals.
package bank

import (
	"github.com/cbegin/polysynth-go/internal/params"
	"github.com/cbegin/polysynth-go/internal/voice"
)

const (
	// Size is the number of voice slots.
	Size = 32
	// MaxBlock is the scratch length; longer blocks are rendered in chunks.
	MaxBlock = 1024
)

// Slot addresses one voice. Values outside [0, Size) are ignored.
type Slot int

func (s Slot) valid() bool { return s >= 0 && s < Size }

type Bank struct {
	voices  [Size]*voice.Voice
	alive   [Size]bool
	scratch [][]float32
}

// New builds Size voices sharing the live parameter snapshot.
func New(sampleRate float64, live *params.Params) *Bank {
	b := &Bank{
		scratch: [][]float32{make([]float32, MaxBlock), make([]float32, MaxBlock)},
	}
	for i := range b.voices {
		b.voices[i] = voice.New(sampleRate, live)
	}
	return b
}

// Start (re)triggers the voice in slot.
func (b *Bank) Start(slot Slot, pitch int, velocity float32) {
	if !slot.valid() {
		return
	}
	b.voices[slot].OnStartNote(pitch, velocity)
	b.alive[slot] = true
}

// Stop releases the voice in slot. The slot frees itself once the release
// has finished rendering.
func (b *Bank) Stop(slot Slot, velocity float32) {
	if !slot.valid() || !b.alive[slot] {
		return
	}
	if b.voices[slot].OnStopNote(velocity) {
		b.alive[slot] = false
	}
}

func (b *Bank) Alive(slot Slot) bool {
	return slot.valid() && b.alive[slot]
}

func (b *Bank) ActiveCount() int {
	n := 0
	for _, a := range b.alive {
		if a {
			n++
		}
	}
	return n
}

// FirstFree returns the lowest slot that is not sounding.
func (b *Bank) FirstFree() (Slot, bool) {
	for i, a := range b.alive {
		if !a {
			return Slot(i), true
		}
	}
	return 0, false
}

// Voice exposes the voice in slot, nil when out of range.
func (b *Bank) Voice(slot Slot) *voice.Voice {
	if !slot.valid() {
		return nil
	}
	return b.voices[slot]
}

// Process adds n frames of every alive voice into out. out is not cleared.
func (b *Bank) Process(out [2][]float32, n int) {
	if n > len(out[0]) {
		n = len(out[0])
	}
	if n > len(out[1]) {
		n = len(out[1])
	}
	for i := range b.voices {
		if !b.alive[i] {
			continue
		}
		v := b.voices[i]
		for off := 0; off < n && b.alive[i]; off += MaxBlock {
			m := min(n-off, MaxBlock)
			b.alive[i] = v.Process(b.scratch, 2, m)
			l, r := out[0][off:off+m], out[1][off:off+m]
			for j := 0; j < m; j++ {
				l[j] += b.scratch[0][j]
				r[j] += b.scratch[1][j]
			}
		}
	}
}
