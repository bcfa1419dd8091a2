// Package playback owns the single alarm sound session of the process.
//
// Start always replaces the previous session. Each session is bounded by a
// ceiling after which it stops by itself; a stale auto-stop never touches a
// newer session because sessions are numbered.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/audio"
)

// Controller plays the alarm tone, one session at a time.
type Controller struct {
	// backend opens the audio output.
	backend audio.Backend
	// tone is the looped sound.
	tone audio.Tone
	// mu guards the session fields below.
	mu sync.Mutex
	// stream is the playing session, nil when idle.
	stream audio.Stream
	// autoStop ends the session at its ceiling.
	autoStop *time.Timer
	// generation numbers sessions.
	generation uint64
}

// New creates a controller playing tone through backend.
func New(backend audio.Backend, tone audio.Tone) *Controller {
	return &Controller{
		backend: backend,
		tone:    tone,
	}
}

// Start stops any current session and starts a new one that ends by itself
// after ceiling. A non-positive ceiling means no limit. When no audio output
// can be acquired the error wraps alarm.ErrResourceUnavailable and the
// controller is left idle.
func (c *Controller) Start(ctx context.Context, ceiling time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releaseLocked(ctx)

	stream, err := c.backend.Play(c.tone)
	if err != nil {
		if !errors.Is(err, domain.ErrResourceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrResourceUnavailable, err)
		}

		return fmt.Errorf("start playback: %w", err)
	}

	c.generation++
	c.stream = stream

	if ceiling > 0 {
		generation := c.generation
		timerCtx := context.WithoutCancel(ctx)
		c.autoStop = time.AfterFunc(ceiling, func() {
			c.expire(timerCtx, generation)
		})
	}

	logger.DebugKV(ctx, "Playback started", "ceiling", ceiling)

	return nil
}

// Stop ends the current session. It is a no-op when idle.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releaseLocked(ctx)
}

// IsPlaying reports whether a session is active.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stream != nil
}

// expire stops the session numbered generation if it is still current.
func (c *Controller) expire(ctx context.Context, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation || c.stream == nil {
		return
	}

	logger.Info(ctx, "Playback ceiling reached, stopping")
	c.releaseLocked(ctx)
}

// releaseLocked closes the stream and disarms the auto-stop.
func (c *Controller) releaseLocked(ctx context.Context) {
	if c.autoStop != nil {
		c.autoStop.Stop()
		c.autoStop = nil
	}

	if c.stream == nil {
		return
	}

	if err := c.stream.Close(); err != nil {
		logger.WarnKV(ctx, "Failed to release audio output", "error", err)
	}

	c.stream = nil
}
