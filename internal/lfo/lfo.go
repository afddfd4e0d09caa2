package lfo

import "math"

// LFO is a sine low-frequency oscillator used as a modulation source.
// Each voice owns one, and the effects bus owns another for delay flanging.
type LFO struct {
	depth  float64 // peak deviation of Sample
	rateHz float64
	phase  float64 // [0, 1)
}

// Set configures depth and rate. Phase is kept so rate changes stay smooth.
func (l *LFO) Set(depth, rateHz float64) {
	l.depth = depth
	l.rateHz = rateHz
}

// Sample returns depth*sin(2*pi*phase) and advances one sample.
// Returns 0 if depth or rate is zero.
func (l *LFO) Sample(sampleRate float64) float64 {
	if l.depth == 0 || l.rateHz == 0 || sampleRate == 0 {
		return 0
	}
	v := math.Sin(2*math.Pi*l.phase) * l.depth
	l.phase += l.rateHz / sampleRate
	if l.phase >= 1 || l.phase < 0 {
		l.phase -= math.Floor(l.phase)
	}
	return v
}

// Unipolar is Sample offset to sit around 0.5, the gain form voices and the
// delay use: depth 0 gives a constant 0.5.
func (l *LFO) Unipolar(sampleRate float64) float64 {
	return l.Sample(sampleRate) + 0.5
}

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
}
