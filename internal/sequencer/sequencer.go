// Package sequencer plays a Score against a voice engine with sample
// accurate note timing.
package sequencer

import (
	"math"
	"sort"
)

// VoiceEngine is what the sequencer drives. Render adds nothing of its own:
// it fills out with n frames of whatever is sounding.
type VoiceEngine interface {
	// NoteOn returns an id for NoteOff, or -1 if the note was dropped.
	NoteOn(pitch int, velocity float32) int
	NoteOff(id int)
	Render(out [2][]float32, n int)
	// ActiveVoiceCount returns the number of voices still sounding, release
	// tails included. Used to detect when playback has fully ended.
	ActiveVoiceCount() int
}

// EventKind identifies sequencer lifecycle events.
type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
)

type Options struct {
	LoopWholeScore    bool
	OnEvent           func(EventKind)
	ReleaseTailFrames int // extra frames to render after last voice ends (0 = use 0.5s default)
	MasterTranspose   int // octaves
}

// ChunkFrames is the longest stretch rendered between event checks.
const ChunkFrames = 1024

type event struct {
	frame int64
	on    bool
	note  int
	rank  int
}

type Sequencer struct {
	engine     VoiceEngine
	sampleRate int
	notes      []Note
	events     []event
	ids        []int
	next       int
	pos        int64

	loopWholeScore     bool
	onEvent            func(EventKind)
	releaseTailFrames  int
	tailCountdown      int
	playbackEndedFired bool
	transpose          int

	scratch [2][]float32
}

func New(score *Score, engine VoiceEngine, sampleRate int) *Sequencer {
	return NewWithOptions(score, engine, sampleRate, Options{})
}

func NewWithOptions(score *Score, engine VoiceEngine, sampleRate int, opts Options) *Sequencer {
	tailFrames := opts.ReleaseTailFrames
	if tailFrames <= 0 {
		tailFrames = sampleRate / 2
	}
	s := &Sequencer{
		engine:            engine,
		sampleRate:        sampleRate,
		loopWholeScore:    opts.LoopWholeScore,
		onEvent:           opts.OnEvent,
		releaseTailFrames: tailFrames,
		tailCountdown:     tailFrames,
		transpose:         opts.MasterTranspose * 12,
		scratch:           [2][]float32{make([]float32, ChunkFrames), make([]float32, ChunkFrames)},
	}
	if score != nil {
		s.notes = append(s.notes, score.Notes...)
	}
	s.ids = make([]int, len(s.notes))
	for i, n := range s.notes {
		on := s.frameAt(n.Start)
		off := s.frameAt(n.Start + n.Length)
		// at one frame: offs of earlier notes, then ons, then zero-length offs
		offRank := 0
		if off == on {
			offRank = 2
		}
		s.events = append(s.events, event{frame: on, on: true, note: i, rank: 1}, event{frame: off, note: i, rank: offRank})
		s.ids[i] = -1
	}
	sort.SliceStable(s.events, func(i, j int) bool {
		a, b := s.events[i], s.events[j]
		if a.frame != b.frame {
			return a.frame < b.frame
		}
		return a.rank < b.rank
	})
	return s
}

func (s *Sequencer) frameAt(seconds float64) int64 {
	return int64(math.Round(seconds * float64(s.sampleRate)))
}

// Position is the number of frames rendered since the start (or last loop).
func (s *Sequencer) Position() int64 { return s.pos }

// Finished reports whether every note has played and the release tail has
// run out. It never becomes true when looping.
func (s *Sequencer) Finished() bool { return s.playbackEndedFired }

// Render fills n frames of out.
func (s *Sequencer) Render(out [2][]float32, n int) {
	n = min(n, len(out[0]), len(out[1]))
	done := 0
	for done < n {
		s.dispatch()
		chunk := n - done
		if s.next < len(s.events) {
			if until := s.events[s.next].frame - s.pos; until < int64(chunk) {
				chunk = int(until)
			}
		}
		active := s.engine.ActiveVoiceCount()
		if s.next >= len(s.events) && active == 0 && !s.playbackEndedFired {
			chunk = min(chunk, s.tailCountdown)
		}
		chunk = min(chunk, ChunkFrames)
		s.engine.Render([2][]float32{out[0][done : done+chunk], out[1][done : done+chunk]}, chunk)
		s.pos += int64(chunk)
		done += chunk
		s.checkEnd(chunk, active)
	}
}

// Process fills dst with interleaved stereo frames.
func (s *Sequencer) Process(dst []float32) {
	frames := len(dst) / 2
	for off := 0; off < frames; off += ChunkFrames {
		n := min(frames-off, ChunkFrames)
		l, r := s.scratch[0][:n], s.scratch[1][:n]
		s.Render([2][]float32{l, r}, n)
		for i := 0; i < n; i++ {
			dst[(off+i)*2] = l[i]
			dst[(off+i)*2+1] = r[i]
		}
	}
}

func (s *Sequencer) dispatch() {
	for s.next < len(s.events) && s.events[s.next].frame <= s.pos {
		ev := s.events[s.next]
		s.next++
		n := s.notes[ev.note]
		if ev.on {
			s.ids[ev.note] = s.engine.NoteOn(n.Pitch+s.transpose, n.Velocity)
			continue
		}
		if id := s.ids[ev.note]; id >= 0 {
			s.engine.NoteOff(id)
			s.ids[ev.note] = -1
		}
	}
}

// checkEnd counts down the silent tail once the score is exhausted. active
// is the voice count at the start of the chunk just rendered.
func (s *Sequencer) checkEnd(frames, active int) {
	if s.playbackEndedFired || s.next < len(s.events) {
		return
	}
	if active > 0 || s.engine.ActiveVoiceCount() > 0 {
		s.tailCountdown = s.releaseTailFrames
		return
	}
	s.tailCountdown -= frames
	if s.tailCountdown > 0 {
		return
	}
	s.tailCountdown = s.releaseTailFrames
	if s.loopWholeScore {
		s.next = 0
		s.pos = 0
		if s.onEvent != nil {
			s.onEvent(EventLoopCompleted)
		}
		return
	}
	s.playbackEndedFired = true
	if s.onEvent != nil {
		s.onEvent(EventPlaybackEnded)
	}
}
