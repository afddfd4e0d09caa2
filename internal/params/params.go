// Package params defines the synth's flat parameter vector and the named,
// scaled view the DSP code reads from it.
package params

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/chewxy/math32"
)

// Indices into the parameter vector.
const (
	MeterLeft = iota
	MeterRight
	EnvType
	LFOTarget
	Osc2Repeat
	LFORate
	LFODepth
	Osc2Level
	FMFreq
	FMIndex
	DelayMix
	DelayTime
	Osc2Cutoff
	Osc2Attack
	Osc2Release
	Attack
	Decay
	Sustain
	Release
	Osc1Level

	Count
)

var names = [Count]string{
	"meter-left", "meter-right", "env-type", "lfo-target", "osc2-repeat",
	"lfo-rate", "lfo-depth", "osc2-level", "fm-freq", "fm-index",
	"delay-mix", "delay-time", "osc2-cutoff", "osc2-attack", "osc2-release",
	"attack", "decay", "sustain", "release", "osc1-level",
}

// Name returns the flag-style name of parameter i.
func Name(i int) string {
	if i < 0 || i >= Count {
		return ""
	}
	return names[i]
}

// Index resolves a parameter name to its vector index.
func Index(name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown parameter %q", name)
}

// ParseSetting parses "name=value" into a vector index and raw value. The
// meter slots are written by the meter and cannot be set.
func ParseSetting(s string) (int, float32, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return -1, 0, fmt.Errorf("setting %q: want name=value", s)
	}
	i, err := Index(name)
	if err != nil {
		return -1, 0, err
	}
	if i == MeterLeft || i == MeterRight {
		return -1, 0, fmt.Errorf("setting %q: %s is read-only", s, names[i])
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
	if err != nil {
		return -1, 0, fmt.Errorf("setting %q: %w", s, err)
	}
	return i, float32(v), nil
}

// Vector is the raw parameter array shared between the host and the audio
// goroutine. Each slot is stored as atomic float bits: writers never block
// the audio path, and a reader may observe a mix of old and new slots.
type Vector struct {
	slots [Count]atomic.Uint32
}

func NewVector(values [Count]float32) *Vector {
	v := &Vector{}
	v.Load(values)
	return v
}

func (v *Vector) Get(i int) float32 {
	if i < 0 || i >= Count {
		return 0
	}
	return math32.Float32frombits(v.slots[i].Load())
}

func (v *Vector) Set(i int, x float32) {
	if i < 0 || i >= Count {
		return
	}
	v.slots[i].Store(math32.Float32bits(x))
}

// Load replaces every slot, as a preset load does.
func (v *Vector) Load(values [Count]float32) {
	for i, x := range values {
		v.Set(i, x)
	}
}

func (v *Vector) Values() [Count]float32 {
	var out [Count]float32
	for i := range out {
		out[i] = v.Get(i)
	}
	return out
}

// Params reads the vector into p without allocating.
func (v *Vector) Params(p *Params) {
	vals := v.Values()
	p.From(vals)
}
