package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cbegin/polysynth-go"
	"github.com/cbegin/polysynth-go/internal/host"
	"github.com/cbegin/polysynth-go/internal/params"
)

var logger = slog.Default()

// initLogger configures the shared slog logger and makes it the default.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// setting is one -set name=value override applied after the preset.
type setting struct {
	index int
	value float32
}

func settingsFlag(dst *[]setting) func(string) error {
	return func(s string) error {
		i, v, err := params.ParseSetting(s)
		if err != nil {
			return err
		}
		*dst = append(*dst, setting{i, v})
		return nil
	}
}

func applySettings(synth *polysynth.Synth, sets []setting) {
	for _, s := range sets {
		synth.SetParameter(s.index, s.value)
		logger.Debug("set parameter", "name", params.Name(s.index), "value", s.value)
	}
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto")
		input      = flag.String("input", "keys", "note input: keys|midi")
		midiPort   = flag.String("midi-port", "", "MIDI input name (substring match; empty = first)")
		listMIDI   = flag.Bool("list-midi", false, "list MIDI inputs and exit")
		preset     = flag.String("preset", "Preset 1", "factory preset: \"Preset 1\"|\"Preset 2\"|\"Copied Preset\"")
		notes      = flag.String("notes", "", "play a note list (pitch:start:length[:velocity], ...) instead of live input")
		loop       = flag.Bool("loop", false, "loop -notes playback")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	var sets []setting
	flag.Func("set", "override one parameter after the preset: name=value (repeatable)", settingsFlag(&sets))
	flag.Parse()
	initLogger(*debug)

	if err := run(*sampleRate, *backend, *input, *midiPort, *listMIDI, *preset, *notes, *loop, sets); err != nil {
		logger.Error("play_synth failed", "err", err)
		os.Exit(1)
	}
}

func run(sampleRate int, backend, input, midiPort string, listMIDI bool, preset, notes string, loop bool, sets []setting) error {
	if listMIDI {
		return listInputs()
	}
	synth, err := polysynth.New(sampleRate, polysynth.WithPreset(preset))
	if err != nil {
		return err
	}
	applySettings(synth, sets)
	pl, err := polysynth.NewPlayer(synth, polysynth.WithBackend(backend), polysynth.WithLoopPlayback(loop))
	if err != nil {
		return err
	}
	defer pl.Stop()
	logger.Info("synth ready", "sample_rate", sampleRate, "backend", backend, "preset", preset)

	if strings.TrimSpace(notes) != "" {
		return playNotes(pl, notes)
	}
	if err := pl.Start(); err != nil {
		return err
	}
	go reportMeter(synth)

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "keys":
		return playKeys(synth)
	case "midi":
		return playMIDI(synth, midiPort)
	default:
		return fmt.Errorf("invalid -input %q (expected keys|midi)", input)
	}
}

func playNotes(pl *polysynth.Player, notes string) error {
	ch := pl.Watch()
	if err := pl.PlayNotes(notes); err != nil {
		return err
	}
	for event := range ch {
		switch event.Kind {
		case polysynth.EventPlaybackEnded:
			logger.Info("playback completed")
			pl.Wait()
			return nil
		case polysynth.EventLoopCompleted:
			logger.Info("loop completed")
		}
	}
	return nil
}

func playKeys(synth *polysynth.Synth) error {
	restore, err := host.MakeRaw(os.Stdin)
	if err != nil {
		return err
	}
	defer restore()
	fmt.Fprint(os.Stderr, "keys a-l play, w e t y u o p sharps, z/x octave, q quits\r\n")
	kb := host.NewKeyboard(synth.Controller(), host.WithKeyboardLogger(logger))
	return kb.Run(os.Stdin)
}

func playMIDI(synth *polysynth.Synth, port string) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("open MIDI driver: %w", err)
	}
	defer drv.Close()
	in, err := host.OpenMIDI(drv, port, synth.Controller(), logger)
	if err != nil {
		return err
	}
	defer in.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	logger.Info("interrupted, releasing notes")
	synth.Controller().AllNotesOff()
	time.Sleep(200 * time.Millisecond)
	return nil
}

func listInputs() error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("open MIDI driver: %w", err)
	}
	defer drv.Close()
	names, err := host.ListMIDIInputs(drv)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func reportMeter(synth *polysynth.Synth) {
	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()
	for range t.C {
		l, r := synth.Meter()
		logger.Debug("meter", "left", l, "right", r, "dropped", synth.Controller().Dropped())
	}
}
