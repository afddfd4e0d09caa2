package polysynth

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cbegin/polysynth-go/internal/analysis"
	intseq "github.com/cbegin/polysynth-go/internal/sequencer"
)

const wavBitDepth = 16

// RenderScore plays score through s for seconds and returns interleaved
// stereo samples.
func RenderScore(s *Synth, score *intseq.Score, seconds float64) []float32 {
	seq := intseq.New(score, s, s.SampleRate())
	frames := int(float64(s.SampleRate()) * seconds)
	out := make([]float32, frames*2)
	seq.Process(out)
	return out
}

// RenderSamples renders score on a fresh synth built with opts.
func RenderSamples(score *intseq.Score, sampleRate int, seconds float64, opts ...Option) ([]float32, error) {
	s, err := New(sampleRate, opts...)
	if err != nil {
		return nil, err
	}
	return RenderScore(s, score, seconds), nil
}

// WriteWAV encodes interleaved samples as 16-bit PCM, clipping to [-1, 1].
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate, channels int) error {
	if channels <= 0 {
		return errors.New("channels must be positive")
	}
	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: wavBitDepth,
	}
	for i, s := range samples {
		buf.Data[i] = int(min(max(s, -1), 1) * 32767)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

// ReadWAV decodes a PCM WAV file into interleaved samples in [-1, 1].
func ReadWAV(r io.ReadSeeker) ([]float32, int, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode wav: %w", err)
	}
	scale := float32(int(1) << (dec.BitDepth - 1))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}
	return out, buf.Format.SampleRate, buf.Format.NumChannels, nil
}

// Mono averages interleaved channels into one float64 signal.
func Mono(samples []float32, channels int) []float64 {
	if channels <= 0 {
		return nil
	}
	frames := len(samples) / channels
	out := make([]float64, frames)
	for f := 0; f < frames; f++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(samples[f*channels+c])
		}
		out[f] = sum / float64(channels)
	}
	return out
}

// Analyze returns the magnitude spectrum of interleaved samples.
func Analyze(samples []float32, channels, sampleRate int) (*analysis.Spectrum, error) {
	return analysis.Analyze(Mono(samples, channels), float64(sampleRate))
}
