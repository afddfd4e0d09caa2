package osc

import "math"

const twoPi = math.Pi * 2

// Sine is a phase-accumulating sine oscillator. Phase is kept in [0, 1).
type Sine struct {
	sampleRate float64
	freq       float64
	phase      float64
	inc        float64
}

func NewSine(sampleRate float64) Sine {
	return Sine{sampleRate: sampleRate}
}

func (s *Sine) Reset() {
	s.phase = 0
}

// SetFrequency changes the rate without touching the phase, so retuning
// mid-note stays continuous. Negative frequencies run the phase backwards.
func (s *Sine) SetFrequency(freq float64) {
	s.freq = freq
	if s.sampleRate > 0 {
		s.inc = freq / s.sampleRate
	}
}

func (s *Sine) Frequency() float64 { return s.freq }

// Tick returns the sample at the current phase and advances one sample.
func (s *Sine) Tick() float64 {
	out := math.Sin(twoPi * s.phase)
	s.phase += s.inc
	if s.phase >= 1 || s.phase < 0 {
		s.phase -= math.Floor(s.phase)
	}
	return out
}
