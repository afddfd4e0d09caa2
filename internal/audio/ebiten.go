package audio

import (
	"io"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

type EbitenPlayer struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	ebitenContextOnce sync.Once
	ebitenContext     *ebitaudio.Context
	ebitenSampleRate  int
)

func sharedEbitenContext(sampleRate int) (*ebitaudio.Context, error) {
	ebitenContextOnce.Do(func() {
		ebitenSampleRate = sampleRate
		ebitenContext = ebitaudio.NewContext(sampleRate)
	})
	if err := checkRate("ebiten audio", ebitenSampleRate, sampleRate); err != nil {
		return nil, err
	}
	return ebitenContext, nil
}

func NewEbitenPlayer(sampleRate int, source SampleSource) (*EbitenPlayer, error) {
	ctx, err := sharedEbitenContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &EbitenPlayer{
		player: pl,
		reader: reader,
	}, nil
}

func (p *EbitenPlayer) Play()  { p.player.Play() }
func (p *EbitenPlayer) Pause() { p.player.Pause() }
func (p *EbitenPlayer) IsPlaying() bool {
	return p.player.IsPlaying()
}

func (p *EbitenPlayer) Position() time.Duration {
	return p.player.Position()
}

func (p *EbitenPlayer) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
