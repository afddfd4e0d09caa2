package effects

import "github.com/cbegin/polysynth-go/internal/lfo"

// Delay is a mono feedback delay over a circular buffer two seconds long.
// Both channels are folded to mono on input and the result is written back
// into the buffer, so echoes repeat with gain amount. With flange enabled the
// echo is scaled by the delay's own LFO.
type Delay struct {
	sampleRate float32
	buf        []float32
	write      int

	delaySamples float32
	amount       float32
	flange       bool

	lfo lfo.LFO
}

func NewDelay(sampleRate int) *Delay {
	size := 2 * sampleRate
	if size < 2 {
		size = 2
	}
	return &Delay{
		sampleRate: float32(sampleRate),
		buf:        make([]float32, size),
	}
}

// Configure sets the delay time in seconds, the echo gain and whether the
// LFO modulates the echo.
func (d *Delay) Configure(seconds, amount float32, flange bool) {
	d.delaySamples = d.sampleRate * seconds
	d.amount = amount
	d.flange = flange
}

// Modulate sets the flange LFO. Its phase carries across calls.
func (d *Delay) Modulate(depth, rateHz float64) {
	d.lfo.Set(depth, rateHz)
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	mod := float32(d.lfo.Unipolar(float64(d.sampleRate)))

	mix := (l + r) * 0.5
	wet := d.buf[ReadPosition(d.write, d.delaySamples, len(d.buf))] * d.amount
	if d.flange {
		wet *= mod
	}
	out := mix + wet
	d.buf[d.write] = out

	// the last slot is never written; the cursor wraps one early
	d.write++
	if d.write >= len(d.buf)-1 {
		d.write = 0
	}
	return out, out
}

func (d *Delay) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.write = 0
	d.lfo.Reset()
}

// ReadPosition is the buffer index delay samples behind write, folded into
// [0, size). A fractional delay is truncated after the subtraction.
func ReadPosition(write int, delay float32, size int) int {
	read := int(float32(write)-delay) % size
	if read < 0 {
		read += size
	}
	return read
}
