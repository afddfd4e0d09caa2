package voice

import (
	"math"
	"testing"

	"github.com/cbegin/polysynth-go/internal/envelope"
	"github.com/cbegin/polysynth-go/internal/params"
)

const testRate = 48000

func newBuffers(n int) [][]float32 {
	return [][]float32{make([]float32, n), make([]float32, n)}
}

func peak(buf []float32) float64 {
	m := 0.0
	for _, s := range buf {
		if a := math.Abs(float64(s)); a > m {
			m = a
		}
	}
	return m
}

func adsrParams() params.Params {
	var v [params.Count]float32
	v[params.Osc1Level] = 1
	v[params.Attack] = 0.01
	v[params.Decay] = 0.05
	v[params.Sustain] = 0.5
	v[params.Release] = 0.1
	v[params.FMFreq] = 0.5
	// the LFO scales whichever path it targets by 0.5 at zero depth
	v[params.LFOTarget] = float32(params.TargetFM)
	return params.FromValues(v)
}

func TestMIDIToFreq(t *testing.T) {
	tests := []struct {
		pitch int
		want  float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
	}
	for _, tt := range tests {
		if got := MIDIToFreq(tt.pitch); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MIDIToFreq(%d) = %f, want %f", tt.pitch, got, tt.want)
		}
	}
}

func TestNoteLifecycle(t *testing.T) {
	p := adsrParams()
	v := New(testRate, &p)
	v.OnStartNote(69, 1)

	const block = 256
	out := newBuffers(block)

	// first block covers the start of the attack
	if !v.Process(out, 2, block) {
		t.Fatal("voice finished during attack")
	}
	if out[0][0] != 0 {
		t.Errorf("first sample = %f, want 0", out[0][0])
	}
	earlyPeak := peak(out[0])
	if earlyPeak > 0.4*float64(block)/480+0.01 {
		t.Errorf("attack rose too fast: peak %f in first block", earlyPeak)
	}
	for i := range out[0] {
		if out[0][i] != out[1][i] {
			t.Fatalf("channels differ at %d", i)
		}
	}

	// through the attack peak, 0.4 headroom at full level
	rendered := block
	maxLevel := 0.0
	for rendered < 960 {
		v.Process(out, 2, block)
		rendered += block
		maxLevel = math.Max(maxLevel, peak(out[0]))
	}
	if maxLevel < 0.3 || maxLevel > Headroom+1e-6 {
		t.Errorf("attack peak = %f, want near %f", maxLevel, Headroom)
	}

	// sustain holds at s * headroom
	for rendered < testRate/2 {
		if !v.Process(out, 2, block) {
			t.Fatal("voice finished while held")
		}
		rendered += block
	}
	if got := peak(out[0]); math.Abs(got-0.2) > 0.01 {
		t.Errorf("sustain peak = %f, want ~0.2", got)
	}
	// the hold point sits one second past the decay
	for rendered < int(1.2*testRate) {
		v.Process(out, 2, block)
		rendered += block
	}
	if v.Stage() != envelope.StageLoop {
		t.Errorf("held stage = %v, want loop", v.Stage())
	}
	if got := peak(out[0]); math.Abs(got-0.2) > 0.01 {
		t.Errorf("held peak = %f, want ~0.2", got)
	}

	if v.OnStopNote(0) {
		t.Error("OnStopNote reported the note should be cut")
	}
	afterStop := 0
	for v.Process(out, 2, block) {
		afterStop += block
		if afterStop > testRate {
			t.Fatal("voice never finished after release")
		}
	}
	afterStop += block
	releaseSamples := int(0.1 * testRate)
	if afterStop < releaseSamples || afterStop > releaseSamples+block {
		t.Errorf("finished %d samples after stop, want within one block of %d", afterStop, releaseSamples)
	}
	if got := peak(out[0][block-16:]); got > 1e-9 {
		t.Errorf("tail after release = %g, want silence", got)
	}
}

func TestSineTargetHalvesLevel(t *testing.T) {
	p := adsrParams()
	p.ModTarget = params.TargetSine
	v := New(testRate, &p)
	v.OnStartNote(69, 1)

	const block = 480
	out := newBuffers(block)
	for rendered := 0; rendered < testRate/2; rendered += block {
		v.Process(out, 2, block)
	}
	if got := v.LFO(); got != 0.5 {
		t.Errorf("lfo = %f, want 0.5 at zero depth", got)
	}
	// sustain 0.5 * headroom 0.4 * lfo 0.5
	if got := peak(out[0]); math.Abs(got-0.1) > 0.005 {
		t.Errorf("sustain peak = %f, want ~0.1", got)
	}
}

func TestARSelfTerminates(t *testing.T) {
	p := adsrParams()
	p.Shape = params.ShapeAR
	p.Attack = 0.01
	p.Release = 0.02
	v := New(testRate, &p)
	v.OnStartNote(60, 1)

	out := newBuffers(128)
	total := 0
	for v.Process(out, 2, 128) {
		total += 128
		if total > testRate {
			t.Fatal("AR note did not end on its own")
		}
	}
	if total < int(0.03*testRate)-128 {
		t.Errorf("AR note ended after %d samples, want ~%d", total, int(0.03*testRate))
	}
}

func TestStopKeepsAREnvelope(t *testing.T) {
	p := adsrParams()
	p.Shape = params.ShapeAR
	p.Attack = 0.1
	p.Release = 0.1
	v := New(testRate, &p)
	v.OnStartNote(60, 1)
	out := newBuffers(64)
	v.Process(out, 2, 64)
	if v.OnStopNote(0) {
		t.Error("OnStopNote returned true")
	}
	if v.Stage() == envelope.StageRelease || v.Stage() == envelope.StageOff {
		t.Errorf("AR stage after stop = %v, want unchanged", v.Stage())
	}
}

func TestVelocityScalesPrimary(t *testing.T) {
	p := adsrParams()
	full := New(testRate, &p)
	half := New(testRate, &p)
	full.OnStartNote(64, 1)
	half.OnStartNote(64, 0.5)

	a, b := newBuffers(512), newBuffers(512)
	full.Process(a, 2, 512)
	half.Process(b, 2, 512)
	for i := range a[0] {
		if math.Abs(float64(a[0][i])*0.5-float64(b[0][i])) > 1e-6 {
			t.Fatalf("sample %d: %f vs %f", i, a[0][i], b[0][i])
		}
	}
}

func TestLFORouting(t *testing.T) {
	base := adsrParams()
	base.Osc2Level = 0.2
	base.Osc2Attack = 0.01
	base.Osc2Release = 0.5
	base.Osc2Cutoff = 5000

	render := func(p params.Params) []float32 {
		v := New(testRate, &p)
		v.OnStartNote(57, 1)
		out := newBuffers(1024)
		v.Process(out, 2, 1024)
		return out[0]
	}

	t.Run("sine", func(t *testing.T) {
		p := base
		p.Osc2Level = 0
		ref := p
		ref.ModTarget = params.TargetDelay
		p.ModTarget = params.TargetSine
		got, want := render(p), render(ref)
		for i := range got {
			if math.Abs(float64(got[i])-0.5*float64(want[i])) > 1e-6 {
				t.Fatalf("sample %d: %f, want %f", i, got[i], 0.5*want[i])
			}
		}
	})

	t.Run("saw", func(t *testing.T) {
		p := base
		p.Osc1Level = 0
		ref := p
		ref.ModTarget = params.TargetDelay
		p.ModTarget = params.TargetSaw
		got, want := render(p), render(ref)
		if peak(want) == 0 {
			t.Fatal("secondary path is silent")
		}
		for i := range got {
			if math.Abs(float64(got[i])-0.5*float64(want[i])) > 1e-6 {
				t.Fatalf("sample %d: %f, want %f", i, got[i], 0.5*want[i])
			}
		}
	})
}

func TestFMFrequency(t *testing.T) {
	p := adsrParams()
	p.ModTarget = params.TargetSaw
	p.FMOffset = 25
	p.FMIndex = 5

	v := New(testRate, &p)
	v.OnStartNote(69, 1)
	out := newBuffers(16)
	v.Process(out, 2, 16)
	if got, want := v.SecondaryFrequency(), 25*5*25+440.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("secondary frequency = %f, want %f", got, want)
	}

	p.ModTarget = params.TargetFM
	v.OnStartNote(69, 1)
	v.Process(out, 2, 16)
	if got := v.LFO(); got != 0.5 {
		t.Errorf("lfo = %f, want 0.5 with zero depth", got)
	}
	if got, want := v.SecondaryFrequency(), 12.5*5*12.5+440.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("modulated secondary frequency = %f, want %f", got, want)
	}
}

func TestSecondaryRepeat(t *testing.T) {
	p := adsrParams()
	p.Osc1Level = 0
	p.Osc2Level = 0.2
	p.Osc2Cutoff = 20000
	p.Osc2Attack = 0.005
	p.Osc2Release = 0.005

	v := New(testRate, &p)
	v.OnStartNote(69, 1)
	out := newBuffers(4800)
	v.Process(out, 2, 4800)
	v.Process(out, 2, 4800)
	if got := peak(out[0]); got > 1e-6 {
		t.Errorf("one-shot secondary still sounding: %g", got)
	}

	p.Osc2Repeat = true
	v.OnStartNote(69, 1)
	v.Process(out, 2, 4800)
	v.Process(out, 2, 4800)
	if got := peak(out[0]); got < 0.01 {
		t.Errorf("repeating secondary silent: %g", got)
	}

	// toggled off live
	p.Osc2Repeat = false
	v.Process(out, 2, 4800)
	v.Process(out, 2, 4800)
	if got := peak(out[0]); got > 1e-6 {
		t.Errorf("repeat switched off but secondary still sounding: %g", got)
	}
}

func TestProcessClampsToBuffer(t *testing.T) {
	p := adsrParams()
	v := New(testRate, &p)
	v.OnStartNote(69, 1)
	out := [][]float32{make([]float32, 8)}
	v.Process(out, 2, 64)
	v.OnPitchWheel(100)
	v.OnControlChange(1, 64)
}
