package analysis

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

var ErrTooShort = errors.New("analysis: need at least 16 samples")

// Spectrum is a Hann-windowed magnitude spectrum scaled so that a sine of
// amplitude A centred on a bin reads A at that bin.
type Spectrum struct {
	SampleRate float64
	Size       int
	Magnitude  []float64 // bins 0..Size/2
}

// Analyze transforms the longest power-of-two prefix of samples.
func Analyze(samples []float64, sampleRate float64) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("analysis: sample rate must be positive: %f", sampleRate)
	}
	n := floorPow2(len(samples))
	if n < 16 {
		return nil, ErrTooShort
	}

	buf := make([]float64, n)
	copy(buf, samples[:n])
	win, err := window.Hann(n, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("analysis: window: %w", err)
	}
	vecmath.MulBlockInPlace(buf, win)

	var winSum float64
	for _, w := range win {
		winSum += w
	}

	in := make([]complex128, n)
	for i, v := range buf {
		in[i] = complex(v, 0)
	}
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("analysis: fft plan: %w", err)
	}
	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("analysis: fft: %w", err)
	}

	bins := n/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := 0; i < bins; i++ {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}
	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)
	scale := 2 / winSum
	for i := range mag {
		mag[i] *= scale
	}
	return &Spectrum{SampleRate: sampleRate, Size: n, Magnitude: mag}, nil
}

// BinFrequency returns the centre frequency of bin i in Hz.
func (s *Spectrum) BinFrequency(i int) float64 {
	return float64(i) * s.SampleRate / float64(s.Size)
}

// LevelAt returns the largest magnitude within one bin of freq.
func (s *Spectrum) LevelAt(freq float64) float64 {
	centre := int(math.Round(freq * float64(s.Size) / s.SampleRate))
	var best float64
	for i := centre - 1; i <= centre+1; i++ {
		if i < 0 || i >= len(s.Magnitude) {
			continue
		}
		if s.Magnitude[i] > best {
			best = s.Magnitude[i]
		}
	}
	return best
}

// Harmonics returns the levels of the first count multiples of fundamental.
// Multiples at or above Nyquist read 0.
func (s *Spectrum) Harmonics(fundamental float64, count int) []float64 {
	levels := make([]float64, count)
	for h := range levels {
		f := fundamental * float64(h+1)
		if f >= s.SampleRate/2 {
			break
		}
		levels[h] = s.LevelAt(f)
	}
	return levels
}

// Peak returns the frequency and level of the strongest non-DC bin.
func (s *Spectrum) Peak() (float64, float64) {
	best := 1
	for i := 2; i < len(s.Magnitude); i++ {
		if s.Magnitude[i] > s.Magnitude[best] {
			best = i
		}
	}
	if best >= len(s.Magnitude) {
		return 0, 0
	}
	return s.BinFrequency(best), s.Magnitude[best]
}

func floorPow2(n int) int {
	if n <= 0 {
		return 0
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}
