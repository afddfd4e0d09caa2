package effects

import (
	"github.com/chewxy/math32"

	"github.com/cbegin/polysynth-go/internal/params"
)

// MeterWindow is the peak window in seconds.
const MeterWindow = 0.02

var log41 = math32.Log10(41)

// Meter tracks per-channel peaks over a short window and publishes a
// log-compressed level with a slow fall and instant rise. It passes audio
// through untouched.
type Meter struct {
	window int
	count  int

	peakL, peakR float32
	prevL, prevR float32
	levL, levR   float32

	sink *params.Vector
}

// NewMeter builds a meter. When sink is non-nil each window's levels are
// written to its MeterLeft and MeterRight slots.
func NewMeter(sampleRate int, sink *params.Vector) *Meter {
	w := int(MeterWindow * float64(sampleRate))
	if w < 1 {
		w = 1
	}
	return &Meter{window: w, sink: sink}
}

func (m *Meter) Process(l, r float32) (float32, float32) {
	if a := math32.Abs(l); a > m.peakL {
		m.peakL = a
	}
	if a := math32.Abs(r); a > m.peakR {
		m.peakR = a
	}
	m.count++
	if m.count >= m.window {
		m.levL, m.prevL = smooth(compress(m.peakL), m.prevL)
		m.levR, m.prevR = smooth(compress(m.peakR), m.prevR)
		if m.sink != nil {
			m.sink.Set(params.MeterLeft, m.levL)
			m.sink.Set(params.MeterRight, m.levR)
		}
		m.peakL, m.peakR, m.count = 0, 0, 0
	}
	return l, r
}

// Levels returns the most recently published left and right levels.
func (m *Meter) Levels() (float32, float32) { return m.levL, m.levR }

func (m *Meter) Window() int { return m.window }

func (m *Meter) Reset() {
	m.count = 0
	m.peakL, m.peakR = 0, 0
	m.prevL, m.prevR = 0, 0
	m.levL, m.levR = 0, 0
}

// compress maps a linear peak onto a log scale where 1.0 stays 1.0.
func compress(peak float32) float32 {
	return math32.Log10(peak*40+1) / log41
}

// smooth falls slowly and rises at once. prev is the previous unsmoothed
// value; it returns the reported level and the next prev.
func smooth(cur, prev float32) (float32, float32) {
	if cur < prev {
		return cur*0.1 + prev*0.9, cur
	}
	return cur, cur
}
