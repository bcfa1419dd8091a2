package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/reminder/internal/config"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

// Stream is a playing tone.
type Stream interface {
	// Close stops playback and releases the audio output.
	Close() error
}

// Backend opens audio output for a tone.
type Backend interface {
	// Play starts looping the tone at full volume. It fails with an error
	// wrapping alarm.ErrResourceUnavailable when no output can be acquired.
	Play(tone Tone) (Stream, error)
}

// New returns the backend selected by the configuration.
//
//nolint:ireturn // Callers only need the Backend contract.
func New(kind string) (Backend, error) {
	if kind == config.PlaybackBackendNone {
		return None{}, nil
	}

	backend, ok := platformBackend(kind)
	if !ok {
		return nil, fmt.Errorf("playback backend %q is not supported on this platform", kind)
	}

	return backend, nil
}

// None is a Backend without audio output.
type None struct{}

// Play always fails.
func (None) Play(Tone) (Stream, error) {
	return nil, fmt.Errorf("%w: audio output is disabled", domain.ErrResourceUnavailable)
}

// LoadTone returns the WAV file at path, or the built-in alarm tone when path is empty.
func LoadTone(path string) (Tone, error) {
	if path == "" {
		return AlarmTone(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Tone{}, fmt.Errorf("read tone file: %w", err)
	}

	tone, err := ParseWAV(data)
	if err != nil {
		return Tone{}, fmt.Errorf("parse tone file %s: %w", path, err)
	}

	return tone, nil
}

// loop endlessly repeats samples.
type loop struct {
	// samples is one period of the tone.
	samples []int16
	// pos is the next sample to emit.
	pos int
}

func newLoop(samples []int16) *loop {
	if len(samples) == 0 {
		// One silent sample keeps readers from spinning on empty input.
		samples = []int16{0}
	}

	return &loop{
		samples: samples,
	}
}

// fill copies the next len(buf) samples into buf.
func (l *loop) fill(buf []int16) int {
	for i := range buf {
		buf[i] = l.samples[l.pos]
		l.pos = (l.pos + 1) % len(l.samples)
	}

	return len(buf)
}

// Read implements io.Reader with little-endian 16-bit samples. It never returns io.EOF.
func (l *loop) Read(p []byte) (int, error) {
	n := len(p) / 2
	for i := range n {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(l.samples[l.pos])) //nolint:gosec // Two's complement reinterpretation.
		l.pos = (l.pos + 1) % len(l.samples)
	}

	return 2 * n, nil
}
