// Package filter holds the voice filter: a first-order low-pass.
package filter

import "math"

// OnePole is a one-pole low-pass: y += alpha*(x-y) with the RC-derived
// alpha = dt/(rc+dt). A non-positive cutoff closes the filter completely.
type OnePole struct {
	sampleRate float64
	cutoff     float64
	alpha      float64
	y          float64
}

func NewOnePole(sampleRate float64) OnePole {
	return OnePole{sampleRate: sampleRate}
}

// SetCutoff is cheap to call every sample; alpha is only recomputed when
// the cutoff changes.
func (f *OnePole) SetCutoff(hz float64) {
	if hz == f.cutoff && f.alpha != 0 {
		return
	}
	f.cutoff = hz
	if hz <= 0 || f.sampleRate <= 0 {
		f.alpha = 0
		return
	}
	rc := 1.0 / (2 * math.Pi * hz)
	dt := 1.0 / f.sampleRate
	f.alpha = dt / (rc + dt)
}

func (f *OnePole) Tick(x float64) float64 {
	f.y += f.alpha * (x - f.y)
	return f.y
}

func (f *OnePole) Reset() {
	f.y = 0
}
