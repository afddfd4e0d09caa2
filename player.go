package polysynth

import (
	"errors"
	"sync"
	"sync/atomic"

	intaudio "github.com/cbegin/polysynth-go/internal/audio"
	intseq "github.com/cbegin/polysynth-go/internal/sequencer"
)

// PlaybackEvent carries score playback events from Watch().
type PlaybackEvent struct {
	Kind int // EventLoopCompleted or EventPlaybackEnded
}

const (
	EventLoopCompleted int = iota
	EventPlaybackEnded
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	backend      intaudio.Backend
	loopPlayback bool
	sampleTap    func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{backend: intaudio.BackendEbiten}
}

// WithBackend picks the audio output: "ebiten" (default) or "oto".
func WithBackend(name string) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = intaudio.Backend(name)
	}
}

func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopPlayback = enabled
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// Player streams a Synth to the sound card, either live from note input or
// from a Score.
type Player struct {
	mu           sync.Mutex
	synth        *Synth
	backend      intaudio.Backend
	audio        intaudio.Output
	loopPlayback bool
	sampleTap    func([]float32)
	done         chan struct{}
	eventCh      chan PlaybackEvent
	eventChMu    sync.Mutex
}

// liveSource renders whatever the controller has queued.
type liveSource struct {
	synth     *Synth
	sampleTap func([]float32)
}

func (l *liveSource) Process(dst []float32) {
	l.synth.Process(dst)
	if l.sampleTap != nil {
		l.sampleTap(dst)
	}
}

// eventWrapper wraps a sequencer and implements SampleSource + FinishingSource
// to report playback events and signal when non-looping playback ends.
type eventWrapper struct {
	seq       *intseq.Sequencer
	finished  atomic.Bool
	sampleTap func([]float32)
}

func (w *eventWrapper) Process(dst []float32) {
	w.seq.Process(dst)
	if w.sampleTap != nil {
		w.sampleTap(dst)
	}
}

func (w *eventWrapper) Finished() bool {
	return w.finished.Load()
}

func NewPlayer(synth *Synth, opts ...PlayerOption) (*Player, error) {
	if synth == nil {
		return nil, errors.New("synth must not be nil")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player{
		synth:        synth,
		backend:      cfg.backend,
		loopPlayback: cfg.loopPlayback,
		sampleTap:    cfg.sampleTap,
	}, nil
}

func (p *Player) Synth() *Synth { return p.synth }

// Start opens a live stream that plays notes posted through NoteOn/NoteOff.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open(&liveSource{synth: p.synth, sampleTap: p.sampleTap})
}

func (p *Player) NoteOn(pitch int, velocity float32) {
	p.synth.Controller().NoteOn(pitch, velocity)
}

func (p *Player) NoteOff(pitch int) {
	p.synth.Controller().NoteOff(pitch, 0)
}

// PlayNotes parses a note list (see sequencer.ParseScore) and plays it.
func (p *Player) PlayNotes(text string) error {
	score, err := intseq.ParseScore(text)
	if err != nil {
		return err
	}
	return p.Play(score)
}

func (p *Player) Play(score *intseq.Score) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Signal any existing Wait() that the previous playback was replaced
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})

	wrapper := &eventWrapper{sampleTap: p.sampleTap}
	onEvent := func(kind intseq.EventKind) {
		if kind == intseq.EventPlaybackEnded {
			wrapper.finished.Store(true)
		}
		p.sendEvent(PlaybackEvent{Kind: int(kind)})
		if kind == intseq.EventPlaybackEnded {
			p.signalDone()
		}
	}
	// release live notes once nothing is rendering
	if p.audio != nil {
		_ = p.audio.Stop()
		p.audio = nil
	}
	p.synth.Controller().StopAll()
	wrapper.seq = intseq.NewWithOptions(score, p.synth, p.synth.SampleRate(), intseq.Options{
		LoopWholeScore: p.loopPlayback,
		OnEvent:        onEvent,
	})
	return p.open(wrapper)
}

// open replaces the running output. p.mu must be held.
func (p *Player) open(source intaudio.SampleSource) error {
	backend, err := intaudio.Open(p.backend, p.synth.SampleRate(), source)
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.audio.Play()
	return nil
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full or closed; drop event
		}
	}
}

func (p *Player) signalDone() {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	done := p.done
	p.done = nil
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	if done != nil {
		close(done)
	}
	return err
}

// Wait blocks until the current score playback ends. When loop playback is
// enabled, Wait blocks indefinitely (use Watch for loop-counting instead).
// Wait returns immediately if no score is playing or if it was stopped.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events. Events are sent when:
//   - EventLoopCompleted: a whole-score loop iteration finished (when looping)
//   - EventPlaybackEnded: playback finished (when not looping)
//
// The channel is buffered (cap 8); receive in a goroutine to avoid blocking the sequencer.
// Only the most recent Watch() channel receives events; call Watch before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// PlaybackPosition returns the current output position of the audio driver,
// i.e. what the listener actually hears right now. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	pos := a.Position()
	return int64(pos.Seconds() * float64(p.synth.SampleRate()))
}
