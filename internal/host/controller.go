// Package host turns note input from other goroutines into slot-addressed
// voice starts and stops applied on the audio goroutine.
package host

import (
	"sync"
	"sync/atomic"

	"github.com/cbegin/polysynth-go/internal/bank"
)

// Target is the voice pool the controller drives.
type Target interface {
	StartNote(slot bank.Slot, pitch int, velocity float32)
	StopNote(slot bank.Slot, velocity float32)
	FirstFree() (bank.Slot, bool)
	Alive(slot bank.Slot) bool
}

type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	AllNotesOff
)

type Event struct {
	Kind     EventKind
	Pitch    int
	Velocity float32
}

const numPitches = 128

// Note identifies one started note: its slot in the low part and the
// slot's start count above it, so a later note in the same slot differs.
type Note int

func (n Note) Slot() bank.Slot { return bank.Slot(int(n) % bank.Size) }

// Controller maps pitches to the first free slot. When every slot is busy
// the note is dropped; nothing is stolen.
type Controller struct {
	target Target

	mu      sync.Mutex
	pending []Event
	spare   []Event

	slotOf  [numPitches]bank.Slot
	pitchOf [bank.Size]int
	starts  [bank.Size]int
	dropped atomic.Int64
}

func NewController(target Target) *Controller {
	c := &Controller{
		target:  target,
		pending: make([]Event, 0, 64),
		spare:   make([]Event, 0, 64),
	}
	for i := range c.slotOf {
		c.slotOf[i] = -1
	}
	for i := range c.pitchOf {
		c.pitchOf[i] = -1
	}
	return c
}

// Post queues an event for the next Drain. Safe from any goroutine.
func (c *Controller) Post(ev Event) {
	c.mu.Lock()
	c.pending = append(c.pending, ev)
	c.mu.Unlock()
}

func (c *Controller) NoteOn(pitch int, velocity float32) {
	c.Post(Event{Kind: NoteOn, Pitch: pitch, Velocity: velocity})
}

func (c *Controller) NoteOff(pitch int, velocity float32) {
	c.Post(Event{Kind: NoteOff, Pitch: pitch, Velocity: velocity})
}

func (c *Controller) AllNotesOff() {
	c.Post(Event{Kind: AllNotesOff})
}

// Drain applies queued events. Call it on the audio goroutine at the top of
// a block.
func (c *Controller) Drain() {
	c.mu.Lock()
	events := c.pending
	c.pending = c.spare[:0]
	c.mu.Unlock()

	for _, ev := range events {
		switch ev.Kind {
		case NoteOn:
			c.Start(ev.Pitch, ev.Velocity)
		case NoteOff:
			c.Stop(ev.Pitch, ev.Velocity)
		case AllNotesOff:
			c.StopAll()
		}
	}

	c.mu.Lock()
	c.spare = events[:0]
	c.mu.Unlock()
}

// Start assigns pitch to a slot and starts it immediately. A pitch that is
// already held is released first.
func (c *Controller) Start(pitch int, velocity float32) (bank.Slot, bool) {
	if pitch < 0 || pitch >= numPitches {
		return -1, false
	}
	c.Stop(pitch, 0)
	slot, ok := c.target.FirstFree()
	if !ok {
		c.dropped.Add(1)
		return -1, false
	}
	if old := c.pitchOf[slot]; old >= 0 && c.slotOf[old] == slot {
		c.slotOf[old] = -1
	}
	c.target.StartNote(slot, pitch, velocity)
	c.slotOf[pitch] = slot
	c.pitchOf[slot] = pitch
	c.starts[slot]++
	return slot, true
}

// Play is Start returning a Note that stays valid for Release only until
// the slot starts another note.
func (c *Controller) Play(pitch int, velocity float32) (Note, bool) {
	slot, ok := c.Start(pitch, velocity)
	if !ok {
		return -1, false
	}
	return c.current(slot), true
}

func (c *Controller) current(slot bank.Slot) Note {
	return Note(c.starts[slot]*bank.Size + int(slot))
}

// Stop releases the slot holding pitch, if any.
func (c *Controller) Stop(pitch int, velocity float32) {
	if pitch < 0 || pitch >= numPitches {
		return
	}
	slot := c.slotOf[pitch]
	if slot < 0 {
		return
	}
	c.slotOf[pitch] = -1
	if c.pitchOf[slot] == pitch {
		c.pitchOf[slot] = -1
		if c.target.Alive(slot) {
			c.target.StopNote(slot, velocity)
		}
	}
}

// Release stops n if its slot has not been reused since Play returned it.
func (c *Controller) Release(n Note, velocity float32) {
	if n < 0 {
		return
	}
	slot := n.Slot()
	if c.current(slot) != n {
		return
	}
	if p := c.pitchOf[slot]; p >= 0 {
		c.Stop(p, velocity)
	}
}

func (c *Controller) StopAll() {
	for p := range c.slotOf {
		c.Stop(p, 0)
	}
}

// Slot returns the slot currently holding pitch.
func (c *Controller) Slot(pitch int) (bank.Slot, bool) {
	if pitch < 0 || pitch >= numPitches || c.slotOf[pitch] < 0 {
		return -1, false
	}
	return c.slotOf[pitch], true
}

// Dropped counts notes lost because every slot was busy.
func (c *Controller) Dropped() int64 { return c.dropped.Load() }
