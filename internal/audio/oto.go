package audio

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

type OtoPlayer struct {
	player     *oto.Player
	reader     *StreamReader
	sampleRate int
}

var (
	otoContextOnce sync.Once
	otoContext     *oto.Context
	otoContextErr  error
	otoSampleRate  int
)

func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoContextOnce.Do(func() {
		otoSampleRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoContextErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if err := checkRate("oto", otoSampleRate, sampleRate); err != nil {
		return nil, err
	}
	return otoContext, nil
}

func NewOtoPlayer(sampleRate int, source SampleSource) (*OtoPlayer, error) {
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	return &OtoPlayer{
		player:     ctx.NewPlayer(reader),
		reader:     reader,
		sampleRate: sampleRate,
	}, nil
}

func (p *OtoPlayer) Play()           { p.player.Play() }
func (p *OtoPlayer) Pause()          { p.player.Pause() }
func (p *OtoPlayer) IsPlaying() bool { return p.player.IsPlaying() }

// Position subtracts what oto still holds in its buffer from what has been
// read out of the source.
func (p *OtoPlayer) Position() time.Duration {
	frames := p.reader.Frames() - int64(p.player.BufferedSize()/8)
	if frames < 0 {
		frames = 0
	}
	return time.Duration(frames) * time.Second / time.Duration(p.sampleRate)
}

func (p *OtoPlayer) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
