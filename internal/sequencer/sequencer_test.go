package sequencer

import (
	"errors"
	"testing"
)

type call struct {
	on    bool
	pitch int
	id    int
	frame int64
}

// countingEngine records note calls with the frame they landed on and keeps
// each note sounding for a fixed number of frames after NoteOff.
type countingEngine struct {
	calls   []call
	frame   int64
	nextID  int
	release int64
	offAt   map[int]int64
	held    map[int]bool
	full    bool
}

func newCountingEngine(release int64) *countingEngine {
	return &countingEngine{release: release, offAt: map[int]int64{}, held: map[int]bool{}}
}

func (e *countingEngine) NoteOn(pitch int, velocity float32) int {
	if e.full {
		e.calls = append(e.calls, call{on: true, pitch: pitch, id: -1, frame: e.frame})
		return -1
	}
	id := e.nextID
	e.nextID++
	e.held[id] = true
	e.calls = append(e.calls, call{on: true, pitch: pitch, id: id, frame: e.frame})
	return id
}

func (e *countingEngine) NoteOff(id int) {
	delete(e.held, id)
	e.offAt[id] = e.frame + e.release
	e.calls = append(e.calls, call{id: id, frame: e.frame})
}

func (e *countingEngine) Render(out [2][]float32, n int) {
	for i := 0; i < n; i++ {
		v := float32(e.ActiveVoiceCount())
		out[0][i], out[1][i] = v, -v
		e.frame++
	}
}

func (e *countingEngine) ActiveVoiceCount() int {
	n := len(e.held)
	for _, at := range e.offAt {
		if at > e.frame {
			n++
		}
	}
	return n
}

func mustParse(t *testing.T, src string) *Score {
	t.Helper()
	s, err := ParseScore(src)
	if err != nil {
		t.Fatalf("ParseScore(%q): %v", src, err)
	}
	return s
}

func TestParsePitch(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"60", 60},
		{"C4", 60},
		{"A4", 69},
		{"a4", 69},
		{"F#3", 54},
		{"Bb5", 82},
		{"C-1", 0},
	}
	for _, tt := range tests {
		got, err := ParsePitch(tt.in)
		if err != nil {
			t.Errorf("ParsePitch(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePitch(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"", "H4", "C", "128", "-1", "G9#"} {
		if _, err := ParsePitch(bad); err == nil {
			t.Errorf("ParsePitch(%q) succeeded", bad)
		}
	}
}

func TestParseScore(t *testing.T) {
	s := mustParse(t, "64:0.5:0.25:0.8, C4:0:1")
	if len(s.Notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(s.Notes))
	}
	if s.Notes[0].Pitch != 60 || s.Notes[0].Velocity != 1 {
		t.Errorf("first note = %+v, want C4 sorted first with velocity 1", s.Notes[0])
	}
	if s.Notes[1].Velocity != 0.8 || s.Notes[1].Length != 0.25 {
		t.Errorf("second note = %+v", s.Notes[1])
	}
	if d := s.Duration(); d != 1 {
		t.Errorf("duration = %f, want 1", d)
	}

	for _, bad := range []string{"60:0", "60:x:1", "60:0:-1", "60:0:1:2", "Q4:0:1"} {
		if _, err := ParseScore(bad); !errors.Is(err, ErrBadNote) {
			t.Errorf("ParseScore(%q) error = %v, want ErrBadNote", bad, err)
		}
	}
}

func TestSequencerSampleAccurateEvents(t *testing.T) {
	const sr = 1000
	engine := newCountingEngine(0)
	seq := New(mustParse(t, "60:0.011:0.1 62:0.5:0.2"), engine, sr)

	out := [2][]float32{make([]float32, 1000), make([]float32, 1000)}
	seq.Render(out, 1000)

	want := []call{
		{on: true, pitch: 60, id: 0, frame: 11},
		{id: 0, frame: 111},
		{on: true, pitch: 62, id: 1, frame: 500},
		{id: 1, frame: 700},
	}
	if len(engine.calls) != len(want) {
		t.Fatalf("calls = %+v", engine.calls)
	}
	for i, c := range want {
		if engine.calls[i] != c {
			t.Errorf("call %d = %+v, want %+v", i, engine.calls[i], c)
		}
	}
	if out[0][10] != 0 || out[0][11] != 1 || out[1][11] != -1 {
		t.Errorf("note did not start at frame 11: %v", out[0][9:13])
	}
}

func TestSequencerRetriggerOrdersOffFirst(t *testing.T) {
	engine := newCountingEngine(0)
	seq := New(mustParse(t, "60:0:0.1 60:0.1:0.1"), engine, 1000)
	seq.Process(make([]float32, 600))
	if len(engine.calls) != 4 {
		t.Fatalf("calls = %+v", engine.calls)
	}
	if engine.calls[1].on || !engine.calls[2].on {
		t.Errorf("at frame 100 got %+v then %+v, want off before on", engine.calls[1], engine.calls[2])
	}
}

func TestSequencerZeroLengthNoteReleases(t *testing.T) {
	engine := newCountingEngine(0)
	seq := NewWithOptions(mustParse(t, "69:0.5:0 60:0.5:0.1"), engine, 1000, Options{ReleaseTailFrames: 20})
	seq.Process(make([]float32, 2*1000))
	if len(engine.held) != 0 {
		t.Errorf("held = %d after the score, want 0", len(engine.held))
	}
	if !seq.Finished() {
		t.Error("zero-length note kept playback from ending")
	}
	var on69, off69 int = -1, -1
	for i, c := range engine.calls {
		if c.on && c.pitch == 69 {
			on69 = i
		}
		if !c.on && on69 >= 0 && c.id == engine.calls[on69].id && off69 < 0 {
			off69 = i
		}
	}
	if on69 < 0 || off69 < 0 || engine.calls[off69].frame != 500 {
		t.Errorf("zero-length note calls = %+v, want on and off at frame 500", engine.calls)
	}
}

func TestSequencerDroppedNoteSkipsOff(t *testing.T) {
	engine := newCountingEngine(0)
	engine.full = true
	seq := New(mustParse(t, "60:0:0.1"), engine, 1000)
	seq.Process(make([]float32, 400))
	if len(engine.calls) != 1 {
		t.Errorf("calls = %+v, want only the dropped note on", engine.calls)
	}
}

func TestSequencerEndsAfterReleaseTail(t *testing.T) {
	var events []EventKind
	engine := newCountingEngine(50)
	seq := NewWithOptions(mustParse(t, "60:0:0.1"), engine, 1000, Options{
		ReleaseTailFrames: 20,
		OnEvent:           func(k EventKind) { events = append(events, k) },
	})

	seq.Process(make([]float32, 2*150))
	if seq.Finished() {
		t.Fatal("finished while the release was sounding")
	}
	seq.Process(make([]float32, 2*100))
	if !seq.Finished() {
		t.Fatal("not finished after release and tail")
	}
	if len(events) != 1 || events[0] != EventPlaybackEnded {
		t.Errorf("events = %v, want [PlaybackEnded]", events)
	}
}

func TestSequencerLoopsWholeScoreWhenEnabled(t *testing.T) {
	loops := 0
	engine := newCountingEngine(0)
	seq := NewWithOptions(mustParse(t, "60:0:0.05"), engine, 1000, Options{
		LoopWholeScore:    true,
		ReleaseTailFrames: 10,
		OnEvent: func(k EventKind) {
			if k == EventLoopCompleted {
				loops++
			}
		},
	})
	seq.Process(make([]float32, 2*1000))
	ons := 0
	for _, c := range engine.calls {
		if c.on {
			ons++
		}
	}
	if ons < 2 || loops < 1 {
		t.Fatalf("got %d note-ons and %d loops, want retriggers", ons, loops)
	}
	if seq.Finished() {
		t.Error("looping sequencer reported finished")
	}
}

func TestSequencerTranspose(t *testing.T) {
	engine := newCountingEngine(0)
	seq := NewWithOptions(mustParse(t, "60:0:0.01"), engine, 1000, Options{MasterTranspose: -1})
	seq.Process(make([]float32, 20))
	if engine.calls[0].pitch != 48 {
		t.Errorf("pitch = %d, want 48", engine.calls[0].pitch)
	}
}
