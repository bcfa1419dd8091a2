//go:build !linux

package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/oshokin/reminder/internal/config"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

// An oto context is a process-wide singleton with a fixed sample rate.
//
//nolint:gochecknoglobals // oto allows a single context per process.
var (
	otoContext     *oto.Context
	otoSampleRate  int
	otoContextErr  error
	otoContextOnce sync.Once
)

//nolint:ireturn // Backends are chosen at runtime.
func platformBackend(kind string) (Backend, bool) {
	switch kind {
	case config.PlaybackBackendAuto, config.PlaybackBackendOto:
		return Oto{}, true
	default:
		return nil, false
	}
}

// Oto plays through the native audio API.
type Oto struct{}

// Play starts a player at full volume. The first tone fixes the sample rate of
// the process-wide context; later tones are resampled to it.
func (Oto) Play(tone Tone) (Stream, error) {
	otoContextOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   tone.SampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoContextErr = err

			return
		}

		// Wait for the hardware audio devices to be ready.
		<-ready

		otoContext = ctx
		otoSampleRate = tone.SampleRate
	})

	if otoContextErr != nil {
		return nil, fmt.Errorf("%w: open audio context: %w", domain.ErrResourceUnavailable, otoContextErr)
	}

	player := otoContext.NewPlayer(newLoop(tone.Resample(otoSampleRate).Samples))
	player.SetVolume(1)
	player.Play()

	return &otoStream{player: player}, nil
}

type otoStream struct {
	player *oto.Player
	once   sync.Once
}

// Close stops and releases the player.
func (s *otoStream) Close() error {
	var err error

	s.once.Do(func() {
		s.player.Pause()
		err = s.player.Close()
	})

	return err
}
