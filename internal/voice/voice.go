// Package voice renders a single note: a sine primary oscillator and an
// FM-detuned additive saw secondary, each gated by its own envelope, with an
// LFO routed to one of them and a one-pole filter on the secondary path.
package voice

import (
	"math"

	"github.com/cbegin/polysynth-go/internal/envelope"
	"github.com/cbegin/polysynth-go/internal/filter"
	"github.com/cbegin/polysynth-go/internal/lfo"
	"github.com/cbegin/polysynth-go/internal/osc"
	"github.com/cbegin/polysynth-go/internal/params"
)

// Headroom scales the summed voice before it reaches the bus.
const Headroom = 0.4

// Voice holds one slot's oscillators and envelopes. Settings other than the
// secondary repeat toggle and the FM amounts are latched at note start.
type Voice struct {
	sampleRate float64
	live       *params.Params

	freq  float64
	level float64

	shape     params.EnvelopeShape
	modTarget params.ModTarget

	osc1Level float64
	release   float64

	osc2Level  float64
	osc2Cutoff float64
	osc2Repeat bool
	osc2Loop   float64

	env1 *envelope.Envelope
	env2 *envelope.Envelope
	sine osc.Sine
	saw  *osc.Additive
	lfo  lfo.LFO
	filt filter.OnePole

	lfoValue float64
	fmFreq   float64
	fmIndex  int
	sawFreq  float64
}

// New builds an idle voice. live is the synth's per-block parameter
// snapshot; the voice reads it at note start and at the top of every
// Process call and never writes it.
func New(sampleRate float64, live *params.Params) *Voice {
	return &Voice{
		sampleRate: sampleRate,
		live:       live,
		freq:       440,
		level:      1,
		env1:       envelope.New(sampleRate),
		env2:       envelope.New(sampleRate),
		sine:       osc.NewSine(sampleRate),
		saw:        osc.NewSaw(sampleRate),
		filt:       filter.NewOnePole(sampleRate),
	}
}

// MIDIToFreq converts a MIDI note number to Hz, A4 (69) = 440.
func MIDIToFreq(pitch int) float64 {
	return 440 * math.Pow(2, float64(pitch-69)/12)
}

// OnStartNote latches the live parameters, builds the primary envelope for
// the selected shape and restarts the oscillators, LFO and filter.
// velocity scales the primary path.
func (v *Voice) OnStartNote(pitch int, velocity float32) {
	p := v.live
	v.freq = MIDIToFreq(pitch)
	v.level = float64(velocity)

	v.shape = p.Shape
	if v.shape < params.ShapeADSR || v.shape > params.ShapeAR {
		v.shape = params.ShapeADSR
	}
	v.modTarget = p.ModTarget
	v.osc1Level = p.Osc1Level
	v.release = p.Release
	v.osc2Level = p.Osc2Level
	v.osc2Cutoff = p.Osc2Cutoff
	v.osc2Repeat = p.Osc2Repeat

	a, d, s := p.Attack, p.Decay, p.Sustain
	switch v.shape {
	case params.ShapeADSR:
		v.env1.Set(envelope.Point{}, envelope.Point{Time: a, Level: 1}, envelope.Point{Time: a + d, Level: s})
		v.env1.SetLoop(a+d+1, a+d+1)
	case params.ShapeASR:
		v.env1.Set(envelope.Point{}, envelope.Point{Time: a, Level: s})
		v.env1.SetLoop(a+1, a+1)
	case params.ShapeAR:
		v.env1.Set(envelope.Point{}, envelope.Point{Time: a, Level: s}, envelope.Point{Time: a + v.release, Level: 0})
	}

	a2, r2 := p.Osc2Attack, p.Osc2Release
	v.osc2Loop = a2 + r2
	v.env2.Set(envelope.Point{}, envelope.Point{Time: a2, Level: 1}, envelope.Point{Time: a2 + r2, Level: 0})
	v.applyRepeat()

	v.sine.Reset()
	v.sine.SetFrequency(v.freq)
	v.saw.Reset()
	v.sawFreq = math.NaN()
	v.lfo.Reset()
	v.lfo.Set(p.LFODepth, p.LFORate)
	v.filt.Reset()
	v.filt.SetCutoff(v.osc2Cutoff)
}

// OnStopNote releases the primary envelope for ADSR and ASR shapes; AR
// notes run out on their own. It always reports false: the note is never cut
// here, Process decides when it is finished.
func (v *Voice) OnStopNote(velocity float32) bool {
	if v.shape == params.ShapeADSR || v.shape == params.ShapeASR {
		v.env1.Release(v.release)
	}
	return false
}

func (v *Voice) OnPitchWheel(value int) {}

func (v *Voice) OnControlChange(controller, value int) {}

// Process renders samples frames into the first channels buffers of out,
// overwriting them. It reports whether the note is still sounding.
func (v *Voice) Process(out [][]float32, channels, samples int) bool {
	if channels > len(out) {
		channels = len(out)
	}
	for c := 0; c < channels; c++ {
		if len(out[c]) < samples {
			samples = len(out[c])
		}
	}

	p := v.live
	if p.Osc2Repeat != v.osc2Repeat {
		v.osc2Repeat = p.Osc2Repeat
		v.applyRepeat()
	}
	fmOffset := p.FMOffset
	v.fmIndex = p.FMIndex

	for i := 0; i < samples; i++ {
		v.lfoValue = v.lfo.Unipolar(v.sampleRate)

		v.fmFreq = fmOffset
		if v.modTarget == params.TargetFM {
			v.fmFreq *= v.lfoValue
		}
		deviation := float64(v.fmIndex) * v.fmFreq
		if f := v.fmFreq*deviation + v.freq; f != v.sawFreq {
			v.sawFreq = f
			v.saw.SetFrequency(f)
		}

		primary := v.sine.Tick() * v.osc1Level * v.env1.Tick() * v.level
		secondary := v.saw.Tick() * v.env2.Tick() * v.osc2Level
		switch v.modTarget {
		case params.TargetSine:
			primary *= v.lfoValue
		case params.TargetSaw:
			secondary *= v.lfoValue
		}

		mix := primary + v.filt.Tick(secondary)
		s := float32(mix * Headroom)
		for c := 0; c < channels; c++ {
			out[c][i] = s
		}
	}
	return v.env1.Stage() != envelope.StageOff
}

func (v *Voice) applyRepeat() {
	if v.osc2Repeat {
		v.env2.SetLoop(0, v.osc2Loop)
	} else {
		v.env2.ResetLoop()
	}
}

// LFO returns the most recent LFO output, 0.5 +- depth.
func (v *Voice) LFO() float32 { return float32(v.lfoValue) }

func (v *Voice) Frequency() float64 { return v.freq }

// SecondaryFrequency is the FM-deviated saw frequency of the last sample.
func (v *Voice) SecondaryFrequency() float64 { return v.sawFreq }

func (v *Voice) Stage() envelope.Stage { return v.env1.Stage() }
