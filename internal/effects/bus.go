package effects

import "github.com/cbegin/polysynth-go/internal/params"

// Bus is the shared post-processing stage after the voice mix: a mono
// delay followed by the peak meter.
type Bus struct {
	live  *params.Params
	delay *Delay
	meter *Meter
	chain *Chain
}

// NewBus reads its settings from live at the top of every block and
// publishes meter levels into vec.
func NewBus(sampleRate int, live *params.Params, vec *params.Vector) *Bus {
	b := &Bus{
		live:  live,
		delay: NewDelay(sampleRate),
		meter: NewMeter(sampleRate, vec),
	}
	b.chain = NewChain(b.delay, b.meter)
	return b
}

// PostProcess runs n frames of in through the bus into out. in and out may
// be the same buffers.
func (b *Bus) PostProcess(in, out [2][]float32, n int) {
	n = min(n, len(in[0]), len(in[1]), len(out[0]), len(out[1]))
	p := b.live
	b.delay.Configure(p.DelayTime, p.DelayMix, p.ModTarget == params.TargetDelay)
	// the flange LFO advances every sample at the scaled rate, not once per block
	b.delay.Modulate(p.LFODepth, p.LFORate)
	for i := 0; i < n; i++ {
		out[0][i], out[1][i] = b.chain.Process(in[0][i], in[1][i])
	}
}

func (b *Bus) Levels() (float32, float32) { return b.meter.Levels() }

func (b *Bus) Reset() { b.chain.Reset() }
