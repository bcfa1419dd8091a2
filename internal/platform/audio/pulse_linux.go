package audio

import (
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"github.com/oshokin/reminder/internal/config"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

//nolint:ireturn // Backends are chosen at runtime.
func platformBackend(kind string) (Backend, bool) {
	switch kind {
	case config.PlaybackBackendAuto, config.PlaybackBackendPulse:
		return Pulse{}, true
	default:
		return nil, false
	}
}

// Pulse plays through a PulseAudio-compatible server.
type Pulse struct{}

// Play opens a dedicated client and a mono stream whose volume is pinned to 100%.
func (Pulse) Play(tone Tone) (Stream, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName("reminder"))
	if err != nil {
		return nil, fmt.Errorf("%w: connect to pulse server: %w", domain.ErrResourceUnavailable, err)
	}

	l := newLoop(tone.Samples)
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		return l.fill(buf), nil
	})

	stream, err := client.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(tone.SampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		client.Close()

		return nil, fmt.Errorf("%w: open playback stream: %w", domain.ErrResourceUnavailable, err)
	}

	stream.Start()

	return &pulseStream{client: client, stream: stream}, nil
}

type pulseStream struct {
	client *pulse.Client
	stream *pulse.PlaybackStream
	once   sync.Once
}

// Close stops the stream and disconnects the client.
func (s *pulseStream) Close() error {
	s.once.Do(func() {
		s.stream.Stop()
		s.stream.Close()
		s.client.Close()
	})

	return nil
}
