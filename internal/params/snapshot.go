package params

// EnvelopeShape selects the primary envelope path.
type EnvelopeShape int

const (
	ShapeADSR EnvelopeShape = iota
	ShapeASR
	ShapeAR
)

func (s EnvelopeShape) String() string {
	switch s {
	case ShapeADSR:
		return "ADSR"
	case ShapeASR:
		return "ASR"
	case ShapeAR:
		return "AR"
	default:
		return "unknown"
	}
}

// ModTarget is where the LFO is routed.
type ModTarget int

const (
	TargetSine ModTarget = iota
	TargetSaw
	TargetFM
	TargetDelay
)

func (m ModTarget) String() string {
	switch m {
	case TargetSine:
		return "sine"
	case TargetSaw:
		return "saw"
	case TargetFM:
		return "fm"
	case TargetDelay:
		return "delay"
	default:
		return "none"
	}
}

// Params is the named view of a Vector with the host-facing scaling
// applied. Times are seconds, rates Hz, levels linear.
type Params struct {
	MeterLeft  float32
	MeterRight float32

	Shape     EnvelopeShape
	ModTarget ModTarget

	LFORate  float64 // raw*10
	LFODepth float64

	Osc1Level float64
	Attack    float64
	Decay     float64
	Sustain   float64
	Release   float64

	Osc2Repeat  bool
	Osc2Level   float64 // raw*0.2
	Osc2Cutoff  float64
	Osc2Attack  float64
	Osc2Release float64

	FMOffset float64 // (raw-0.5)*100, +-50 Hz
	FMIndex  int     // raw*10, truncated

	DelayMix  float32
	DelayTime float32 // raw*0.5 seconds
}

// From fills p from raw vector values.
func (p *Params) From(v [Count]float32) {
	p.MeterLeft = v[MeterLeft]
	p.MeterRight = v[MeterRight]
	p.Shape = EnvelopeShape(int(v[EnvType]))
	p.ModTarget = ModTarget(int(v[LFOTarget]))
	p.LFORate = float64(v[LFORate]) * 10
	p.LFODepth = float64(v[LFODepth])
	p.Osc1Level = float64(v[Osc1Level])
	p.Attack = float64(v[Attack])
	p.Decay = float64(v[Decay])
	p.Sustain = float64(v[Sustain])
	p.Release = float64(v[Release])
	p.Osc2Repeat = v[Osc2Repeat] != 0
	p.Osc2Level = float64(v[Osc2Level]) * 0.2
	p.Osc2Cutoff = float64(v[Osc2Cutoff])
	p.Osc2Attack = float64(v[Osc2Attack])
	p.Osc2Release = float64(v[Osc2Release])
	p.FMOffset = (float64(v[FMFreq]) - 0.5) * 100
	p.FMIndex = int(v[FMIndex] * 10)
	p.DelayMix = v[DelayMix]
	p.DelayTime = v[DelayTime] * 0.5
}

// FromValues is a convenience for tests and offline tools.
func FromValues(v [Count]float32) Params {
	var p Params
	p.From(v)
	return p
}
