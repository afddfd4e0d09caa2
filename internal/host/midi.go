package host

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var ErrNoMIDIInput = errors.New("no MIDI input")

// ccAllNotesOff is the channel mode message that silences held notes.
const ccAllNotesOff = 123

// MIDIInput feeds note messages from one input port into a Controller.
type MIDIInput struct {
	in     drivers.In
	stop   func()
	logger *slog.Logger
}

// ListMIDIInputs returns the names of the driver's input ports.
func ListMIDIInputs(drv drivers.Driver) ([]string, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

// OpenMIDI listens on the first input whose name contains port, case
// insensitive. An empty port picks the first input.
func OpenMIDI(drv drivers.Driver, port string, ctl *Controller, logger *slog.Logger) (*MIDIInput, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	var found drivers.In
	for _, in := range ins {
		if port == "" || strings.Contains(strings.ToLower(in.String()), strings.ToLower(port)) {
			found = in
			break
		}
	}
	if found == nil {
		if port == "" {
			return nil, ErrNoMIDIInput
		}
		return nil, fmt.Errorf("%w matching %q", ErrNoMIDIInput, port)
	}
	if err := found.Open(); err != nil {
		return nil, fmt.Errorf("open MIDI input %q: %w", found.String(), err)
	}
	name := found.String()
	stop, err := midi.ListenTo(found, func(msg midi.Message, timestampms int32) {
		if !HandleMIDI(ctl, msg) {
			logger.Debug("unhandled MIDI message", "msg", msg.String())
		}
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("MIDI listener error", "device", name, "err", listenErr)
		ctl.AllNotesOff()
	}))
	if err != nil {
		_ = found.Close()
		return nil, fmt.Errorf("listen on MIDI input %q: %w", name, err)
	}
	logger.Info("MIDI input connected", "device", name)
	return &MIDIInput{in: found, stop: stop, logger: logger}, nil
}

// HandleMIDI posts the controller event for msg and reports whether msg was
// understood. Pitch bend and other controllers are ignored.
func HandleMIDI(ctl *Controller, msg midi.Message) bool {
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		ctl.NoteOn(int(key), float32(vel)/127)
	case msg.GetNoteEnd(&ch, &key):
		ctl.NoteOff(int(key), 0)
	case msg.GetControlChange(&ch, &cc, &val) && cc == ccAllNotesOff:
		ctl.AllNotesOff()
	default:
		return false
	}
	return true
}

func (m *MIDIInput) Name() string { return m.in.String() }

func (m *MIDIInput) Close() error {
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
	m.logger.Info("closing MIDI connection", "device", m.in.String())
	return m.in.Close()
}
