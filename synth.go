// Package polysynth is a 32-voice polyphonic synthesizer: a sine and an
// FM-detuned additive saw per voice, summed into a shared delay and peak
// meter, all driven by a flat 20-slot parameter vector.
package polysynth

import (
	"errors"
	"fmt"

	"github.com/cbegin/polysynth-go/internal/bank"
	"github.com/cbegin/polysynth-go/internal/effects"
	"github.com/cbegin/polysynth-go/internal/host"
	"github.com/cbegin/polysynth-go/internal/params"
)

// ErrUnknownPreset is returned for preset names not in the factory list.
var ErrUnknownPreset = params.ErrUnknownPreset

type Option func(*config)

type config struct {
	values [params.Count]float32
	preset string
}

func defaultConfig() config {
	return config{values: params.Defaults()}
}

// WithPreset starts the synth from a factory preset.
func WithPreset(name string) Option {
	return func(cfg *config) {
		cfg.preset = name
	}
}

// WithValues starts the synth from a raw parameter vector.
func WithValues(values [params.Count]float32) Option {
	return func(cfg *config) {
		cfg.values = values
		cfg.preset = ""
	}
}

// Synth owns the voice bank, the effects bus and the parameter vector.
// Render and the note methods belong to the audio goroutine; the vector and
// the controller's queue may be touched from anywhere.
type Synth struct {
	sampleRate int
	vector     *params.Vector
	live       params.Params
	bank       *bank.Bank
	bus        *effects.Bus
	ctl        *host.Controller
	scratch    [2][]float32
}

func New(sampleRate int, opts ...Option) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.preset != "" {
		p, err := params.LookupPreset(cfg.preset)
		if err != nil {
			return nil, err
		}
		cfg.values = p.Values
	}
	s := &Synth{
		sampleRate: sampleRate,
		vector:     params.NewVector(cfg.values),
		scratch:    [2][]float32{make([]float32, bank.MaxBlock), make([]float32, bank.MaxBlock)},
	}
	s.vector.Params(&s.live)
	s.bank = bank.New(float64(sampleRate), &s.live)
	s.bus = effects.NewBus(sampleRate, &s.live, s.vector)
	s.ctl = host.NewController(s)
	return s, nil
}

func (s *Synth) SampleRate() int { return s.sampleRate }

// Parameters is the live parameter vector. Slots 0 and 1 carry the meter.
func (s *Synth) Parameters() *params.Vector { return s.vector }

func (s *Synth) SetParameter(index int, value float32) { s.vector.Set(index, value) }

// LoadPreset copies a factory preset into the vector. Voices already
// sounding keep their note-start settings.
func (s *Synth) LoadPreset(name string) error {
	p, err := params.LookupPreset(name)
	if err != nil {
		return fmt.Errorf("load preset: %w", err)
	}
	s.vector.Load(p.Values)
	return nil
}

// Controller is the thread-safe way to play notes by pitch.
func (s *Synth) Controller() *host.Controller { return s.ctl }

// StartNote starts slot with the current parameters.
func (s *Synth) StartNote(slot bank.Slot, pitch int, velocity float32) {
	s.vector.Params(&s.live)
	s.bank.Start(slot, pitch, velocity)
}

func (s *Synth) StopNote(slot bank.Slot, velocity float32) { s.bank.Stop(slot, velocity) }

func (s *Synth) Alive(slot bank.Slot) bool { return s.bank.Alive(slot) }

func (s *Synth) FirstFree() (bank.Slot, bool) { return s.bank.FirstFree() }

func (s *Synth) ActiveVoiceCount() int { return s.bank.ActiveCount() }

// NoteOn starts pitch at once and returns an id for NoteOff, or -1 if
// every slot is busy.
func (s *Synth) NoteOn(pitch int, velocity float32) int {
	note, ok := s.ctl.Play(pitch, velocity)
	if !ok {
		return -1
	}
	return int(note)
}

// NoteOff releases a note returned by NoteOn. It does nothing once the
// note's slot has moved on to another note.
func (s *Synth) NoteOff(id int) { s.ctl.Release(host.Note(id), 0) }

// Render applies queued note events then fills n frames of out.
func (s *Synth) Render(out [2][]float32, n int) {
	n = min(n, len(out[0]), len(out[1]))
	s.ctl.Drain()
	s.vector.Params(&s.live)
	clear(out[0][:n])
	clear(out[1][:n])
	s.bank.Process(out, n)
	s.bus.PostProcess(out, out, n)
}

// Process fills dst with interleaved stereo frames.
func (s *Synth) Process(dst []float32) {
	frames := len(dst) / 2
	for off := 0; off < frames; off += bank.MaxBlock {
		n := min(frames-off, bank.MaxBlock)
		s.Render(s.scratch, n)
		for i := 0; i < n; i++ {
			dst[(off+i)*2] = s.scratch[0][i]
			dst[(off+i)*2+1] = s.scratch[1][i]
		}
	}
}

// Meter returns the published left and right output levels.
func (s *Synth) Meter() (float32, float32) {
	return s.vector.Get(params.MeterLeft), s.vector.Get(params.MeterRight)
}
