package osc

// MaxHarmonics is the number of sine partials summed by an Additive oscillator.
const MaxHarmonics = 16

// Rule selects which partials contribute to an Additive oscillator's output.
type Rule int

const (
	// AllHarmonics sums every partial at 1/n, a band-limited sawtooth.
	AllHarmonics Rule = iota
	// OddHarmonics sums only odd partials at 1/n, a band-limited square.
	OddHarmonics
)

// Additive builds a waveform from MaxHarmonics sine partials, partial h running
// at f*(h+1) with weight 1/(h+1).
type Additive struct {
	rule      Rule
	harmonics [MaxHarmonics]Sine
}

// NewAdditive returns an oscillator at 0 Hz; call SetFrequency before Tick.
func NewAdditive(sampleRate float64, rule Rule) *Additive {
	a := &Additive{rule: rule}
	for h := range a.harmonics {
		a.harmonics[h] = NewSine(sampleRate)
	}
	return a
}

// NewSaw is an Additive with AllHarmonics.
func NewSaw(sampleRate float64) *Additive { return NewAdditive(sampleRate, AllHarmonics) }

// NewSquare is an Additive with OddHarmonics.
func NewSquare(sampleRate float64) *Additive { return NewAdditive(sampleRate, OddHarmonics) }

func (a *Additive) Reset() {
	for h := range a.harmonics {
		a.harmonics[h].Reset()
	}
}

func (a *Additive) SetFrequency(freq float64) {
	for h := range a.harmonics {
		n := h + 1
		a.harmonics[h].SetFrequency(freq * float64(n))
	}
}

// Tick advances every partial, including the ones the rule leaves out, so
// all partials stay phase-aligned with the fundamental.
func (a *Additive) Tick() float64 {
	var mix float64
	for h := range a.harmonics {
		n := h + 1
		s := a.harmonics[h].Tick()
		if a.rule == OddHarmonics && n%2 == 0 {
			continue
		}
		mix += s / float64(n)
	}
	return mix
}

// Weight returns the amplitude partial h contributes under the rule.
func (a *Additive) Weight(h int) float64 {
	if h < 0 || h >= MaxHarmonics {
		return 0
	}
	n := h + 1
	if a.rule == OddHarmonics && n%2 == 0 {
		return 0
	}
	return 1 / float64(n)
}
