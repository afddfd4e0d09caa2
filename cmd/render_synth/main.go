package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cbegin/polysynth-go"
	"github.com/cbegin/polysynth-go/internal/params"
	"github.com/cbegin/polysynth-go/internal/sequencer"
	"github.com/cbegin/polysynth-go/internal/voice"
)

const defaultNotes = "C4:0:0.5 E4:0.5:0.5 G4:1:0.5 C5:1.5:1"

var logger = slog.Default()

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
		preset     = flag.String("preset", "Preset 1", "factory preset")
		notes      = flag.String("notes", defaultNotes, "note list: pitch:start:length[:velocity], ...")
		seconds    = flag.Float64("seconds", 0, "render length (0 = score length plus one second)")
		outPath    = flag.String("out", "out.wav", "output WAV path")
		analyze    = flag.Bool("analyze", false, "print the spectrum peak and harmonic levels")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	var sets []setting
	flag.Func("set", "override one parameter after the preset: name=value (repeatable)", settingsFlag(&sets))
	flag.Parse()
	initLogger(*debug)

	if err := run(*sampleRate, *preset, *notes, *seconds, *outPath, *analyze, sets); err != nil {
		logger.Error("render_synth failed", "err", err)
		os.Exit(1)
	}
}

func run(sampleRate int, preset, notes string, seconds float64, outPath string, analyze bool, sets []setting) error {
	score, err := sequencer.ParseScore(notes)
	if err != nil {
		return err
	}
	if seconds <= 0 {
		seconds = score.Duration() + 1
	}
	synth, err := polysynth.New(sampleRate, polysynth.WithPreset(preset))
	if err != nil {
		return err
	}
	applySettings(synth, sets)
	logger.Debug("rendering", "notes", len(score.Notes), "seconds", seconds, "preset", preset)
	samples := polysynth.RenderScore(synth, score, seconds)

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := polysynth.WriteWAV(f, samples, sampleRate, 2); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	l, r := synth.Meter()
	logger.Info("wrote", "path", outPath, "frames", len(samples)/2, "meter_left", l, "meter_right", r)

	if analyze {
		return printAnalysis(samples, sampleRate, score)
	}
	return nil
}

func printAnalysis(samples []float32, sampleRate int, score *sequencer.Score) error {
	spec, err := polysynth.Analyze(samples, 2, sampleRate)
	if err != nil {
		return err
	}
	freq, level := spec.Peak()
	fmt.Printf("peak %.1f Hz level %.4f (bin %.2f Hz)\n", freq, level, spec.BinFrequency(1))
	if len(score.Notes) == 0 {
		return nil
	}
	f0 := voice.MIDIToFreq(score.Notes[0].Pitch)
	fmt.Printf("harmonics of first note %.1f Hz:\n", f0)
	for h, lv := range spec.Harmonics(f0, 8) {
		fmt.Printf("  %2d  %8.1f Hz  %.4f\n", h+1, f0*float64(h+1), lv)
	}
	return nil
}
