package host

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var ErrNotTerminal = errors.New("stdin is not a terminal")

// keyOffsets lays a piano octave and a half over the home row, black keys
// on the row above.
var keyOffsets = map[byte]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5, 't': 6, 'g': 7,
	'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12, 'o': 13, 'l': 14, 'p': 15,
}

const (
	keyCtrlC = 0x03
	keyEsc   = 0x1b
)

// Keyboard plays notes from raw terminal key presses. Terminals report no
// key-up, so each press holds its note for the gate time; auto-repeat of a
// held key extends it.
type Keyboard struct {
	ctl    *Controller
	logger *slog.Logger

	mu       sync.Mutex
	base     int
	gate     time.Duration
	velocity float32
	gates    map[int]*gate
}

// gate is one held key's release timer. A timer that fired but lost the
// race to a repeat finds itself replaced and does nothing.
type gate struct {
	timer *time.Timer
}

type KeyboardOption func(*Keyboard)

func WithGate(d time.Duration) KeyboardOption {
	return func(k *Keyboard) { k.gate = d }
}

func WithBaseNote(pitch int) KeyboardOption {
	return func(k *Keyboard) { k.base = pitch }
}

func WithKeyboardLogger(l *slog.Logger) KeyboardOption {
	return func(k *Keyboard) { k.logger = l }
}

func NewKeyboard(ctl *Controller, opts ...KeyboardOption) *Keyboard {
	k := &Keyboard{
		ctl:      ctl,
		logger:   slog.Default(),
		base:     60,
		gate:     400 * time.Millisecond,
		velocity: 0.8,
		gates:    map[int]*gate{},
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// HandleKey acts on one byte of input and reports whether it asked to quit.
// z and x shift the octave.
func (k *Keyboard) HandleKey(b byte) bool {
	switch b {
	case 'q', keyCtrlC, keyEsc:
		return true
	case 'z':
		k.shift(-12)
		return false
	case 'x':
		k.shift(12)
		return false
	}
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	off, ok := keyOffsets[b]
	if !ok {
		return false
	}
	k.mu.Lock()
	pitch := k.base + off
	if g, held := k.gates[pitch]; held {
		if !g.timer.Stop() {
			// already fired; its release is waiting on mu
			k.gates[pitch] = k.startGate(pitch)
		} else {
			g.timer.Reset(k.gate)
		}
		k.mu.Unlock()
		return false
	}
	k.gates[pitch] = k.startGate(pitch)
	vel := k.velocity
	k.mu.Unlock()

	k.logger.Debug("key note on", "key", string(b), "pitch", pitch)
	k.ctl.NoteOn(pitch, vel)
	return false
}

// startGate arms a release for pitch. Call with mu held.
func (k *Keyboard) startGate(pitch int) *gate {
	g := &gate{}
	g.timer = time.AfterFunc(k.gate, func() { k.release(pitch, g) })
	return g
}

func (k *Keyboard) release(pitch int, g *gate) {
	k.mu.Lock()
	if k.gates[pitch] != g {
		k.mu.Unlock()
		return
	}
	delete(k.gates, pitch)
	k.mu.Unlock()
	k.ctl.NoteOff(pitch, 0)
}

func (k *Keyboard) shift(semitones int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.base = min(max(k.base+semitones, 0), 127-15)
	k.logger.Info("octave", "base", k.base)
}

func (k *Keyboard) Base() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.base
}

// Run reads r until a quit key or EOF, then releases everything still held.
func (k *Keyboard) Run(r io.Reader) error {
	defer k.releaseAll()
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if k.HandleKey(b) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (k *Keyboard) releaseAll() {
	k.mu.Lock()
	for pitch, g := range k.gates {
		g.timer.Stop()
		delete(k.gates, pitch)
	}
	k.mu.Unlock()
	k.ctl.AllNotesOff()
}

// MakeRaw puts f into raw mode to disable echo and line buffering. The
// returned func restores the previous state.
func MakeRaw(f *os.File) (func() error, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error { return term.Restore(fd, old) }, nil
}
