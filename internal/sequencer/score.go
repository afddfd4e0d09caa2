package sequencer

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Note is one scheduled note. Start and Length are seconds.
type Note struct {
	Pitch    int
	Velocity float32
	Start    float64
	Length   float64
}

// Score is a flat list of notes in any order.
type Score struct {
	Notes []Note
}

var ErrBadNote = errors.New("bad note")

// Duration is the time at which the last note is released.
func (s *Score) Duration() float64 {
	end := 0.0
	for _, n := range s.Notes {
		end = max(end, n.Start+n.Length)
	}
	return end
}

// ParseScore reads notes written as pitch:start:length[:velocity],
// separated by commas or whitespace. Pitch is a MIDI number or a name such
// as C4, F#3 or Bb5 (C4 = 60). Velocity defaults to 1.
func ParseScore(src string) (*Score, error) {
	fields := strings.FieldsFunc(src, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	score := &Score{}
	for _, f := range fields {
		n, err := parseNote(f)
		if err != nil {
			return nil, err
		}
		score.Notes = append(score.Notes, n)
	}
	sort.SliceStable(score.Notes, func(i, j int) bool { return score.Notes[i].Start < score.Notes[j].Start })
	return score, nil
}

func parseNote(field string) (Note, error) {
	parts := strings.Split(field, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Note{}, fmt.Errorf("%w %q: want pitch:start:length[:velocity]", ErrBadNote, field)
	}
	pitch, err := ParsePitch(parts[0])
	if err != nil {
		return Note{}, fmt.Errorf("%w %q: %v", ErrBadNote, field, err)
	}
	start, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || start < 0 {
		return Note{}, fmt.Errorf("%w %q: start %q", ErrBadNote, field, parts[1])
	}
	length, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || length < 0 {
		return Note{}, fmt.Errorf("%w %q: length %q", ErrBadNote, field, parts[2])
	}
	vel := 1.0
	if len(parts) == 4 {
		vel, err = strconv.ParseFloat(parts[3], 64)
		if err != nil || vel < 0 || vel > 1 {
			return Note{}, fmt.Errorf("%w %q: velocity %q", ErrBadNote, field, parts[3])
		}
	}
	return Note{Pitch: pitch, Velocity: float32(vel), Start: start, Length: length}, nil
}

var noteOffsets = map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

// ParsePitch accepts a MIDI note number or a note name with octave.
func ParsePitch(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("pitch %d out of range", n)
		}
		return n, nil
	}
	if s == "" {
		return 0, errors.New("empty pitch")
	}
	base, ok := noteOffsets[strings.ToLower(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("unknown note %q", s)
	}
	rest := s[1:]
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			base++
		} else {
			base--
		}
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("bad octave in %q", s)
	}
	n := (octave+1)*12 + base
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("pitch %q out of range", s)
	}
	return n, nil
}
