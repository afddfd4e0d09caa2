// Package envelope implements a breakpoint envelope with an optional loop
// region and an externally triggered linear release.
package envelope

import "math"

// MaxPoints bounds the breakpoint path so Set never allocates.
const MaxPoints = 8

// Stage is where the envelope currently is along its lifetime.
type Stage int

const (
	// StageAttack follows the breakpoint path before any loop region.
	StageAttack Stage = iota
	// StageLoop holds or cycles the playhead inside the loop region.
	StageLoop
	// StageRelease ramps linearly from the release level to zero.
	StageRelease
	// StageOff means the envelope has finished and outputs zero.
	StageOff
)

func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageLoop:
		return "loop"
	case StageRelease:
		return "release"
	case StageOff:
		return "off"
	default:
		return "unknown"
	}
}

// Point is a breakpoint: Level reached at Time seconds after Set.
type Point struct {
	Time  float64
	Level float64
}

// Envelope walks a breakpoint path one sample per Tick. An optional loop
// region repeats until Release, which ramps linearly from the current level
// to zero.
type Envelope struct {
	sampleRate float64
	points     [MaxPoints]Point
	numPoints  int
	endPos     int64

	pos   int64 // playhead in samples
	stage Stage

	looping   bool
	loopStart int64
	loopEnd   int64

	relStart float64
	relLen   int64
	relPos   int64
}

// New returns an envelope in StageOff; Tick yields 0 until Set.
func New(sampleRate float64) *Envelope {
	return &Envelope{sampleRate: sampleRate, stage: StageOff}
}

// Set replaces the path, rewinds the playhead and clears loop and release.
// Points beyond MaxPoints are ignored; times are expected non-decreasing.
func (e *Envelope) Set(points ...Point) {
	n := copy(e.points[:], points)
	e.numPoints = n
	e.endPos = 0
	if n > 0 {
		e.endPos = e.samples(e.points[n-1].Time)
	}
	e.pos = 0
	e.stage = StageAttack
	e.looping = false
	e.relStart, e.relLen, e.relPos = 0, 0, 0
}

// SetLoop keeps the playhead inside [start, end] seconds until Release.
// A zero-length region holds the playhead at start.
func (e *Envelope) SetLoop(start, end float64) {
	e.looping = true
	e.loopStart = e.samples(start)
	e.loopEnd = e.samples(end)
}

// ResetLoop makes the path play through once.
func (e *Envelope) ResetLoop() {
	e.looping = false
}

// Release starts a linear fade from the current level to zero lasting
// seconds. The envelope is off once the fade completes.
func (e *Envelope) Release(seconds float64) {
	if e.stage == StageOff {
		return
	}
	e.relStart = e.Level()
	e.relLen = e.samples(seconds)
	e.relPos = 0
	if e.relLen <= 0 {
		e.stage = StageOff
		return
	}
	e.stage = StageRelease
}

func (e *Envelope) Stage() Stage { return e.stage }

// Level returns the value the next Tick will produce.
func (e *Envelope) Level() float64 {
	switch e.stage {
	case StageOff:
		return 0
	case StageRelease:
		return e.relStart * (1 - float64(e.relPos)/float64(e.relLen))
	}
	return e.levelAt(e.pos)
}

// Tick returns the current level and advances one sample.
func (e *Envelope) Tick() float64 {
	switch e.stage {
	case StageOff:
		return 0
	case StageRelease:
		v := e.relStart * (1 - float64(e.relPos)/float64(e.relLen))
		e.relPos++
		if e.relPos >= e.relLen {
			e.stage = StageOff
		}
		return v
	}
	v := e.levelAt(e.pos)
	e.advance()
	return v
}

func (e *Envelope) advance() {
	e.pos++
	if !e.looping {
		if e.pos > e.endPos {
			e.stage = StageOff
		}
		return
	}
	if e.pos >= e.loopStart {
		e.stage = StageLoop
	}
	if e.pos >= e.loopEnd {
		span := e.loopEnd - e.loopStart
		if span <= 0 {
			e.pos = e.loopStart
		} else {
			e.pos = e.loopStart + (e.pos-e.loopStart)%span
		}
	}
}

// levelAt interpolates linearly along the path, clamping past either end.
func (e *Envelope) levelAt(pos int64) float64 {
	if e.numPoints == 0 {
		return 0
	}
	t := float64(pos) / e.sampleRate
	prev := e.points[0]
	if t <= prev.Time {
		return prev.Level
	}
	for i := 1; i < e.numPoints; i++ {
		p := e.points[i]
		if t <= p.Time {
			span := p.Time - prev.Time
			if span <= 0 {
				return p.Level
			}
			return prev.Level + (p.Level-prev.Level)*(t-prev.Time)/span
		}
		prev = p
	}
	return prev.Level
}

func (e *Envelope) samples(seconds float64) int64 {
	if seconds <= 0 || e.sampleRate <= 0 {
		return 0
	}
	return int64(math.Round(seconds * e.sampleRate))
}
