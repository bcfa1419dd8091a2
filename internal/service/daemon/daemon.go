package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	grpcapi "github.com/oshokin/reminder/internal/api/grpc/reminder"
	httpapi "github.com/oshokin/reminder/internal/api/http/reminder"
	"github.com/oshokin/reminder/internal/config"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/audio"
	"github.com/oshokin/reminder/internal/platform/boot"
	"github.com/oshokin/reminder/internal/platform/notify"
	"github.com/oshokin/reminder/internal/platform/permission"
	"github.com/oshokin/reminder/internal/platform/timer"
	"github.com/oshokin/reminder/internal/platform/timer/inproc"
	"github.com/oshokin/reminder/internal/platform/timer/systemd"
	repository "github.com/oshokin/reminder/internal/repository/alarm"
	"github.com/oshokin/reminder/internal/service/common"
	"github.com/oshokin/reminder/internal/service/playback"
	"github.com/oshokin/reminder/internal/service/scheduler"
	"github.com/oshokin/reminder/internal/service/trigger"
)

// shutdownTimeout bounds the HTTP server shutdown.
const shutdownTimeout = 5 * time.Second

// Options controls the reminderd process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides the configured gRPC listen address.
	ListenAddress string
	// HTTPAddress overrides the configured HTTP listen address.
	HTTPAddress string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
}

// Option customizes the components built by New.
type Option func(*components)

// components are the replaceable collaborators of a Daemon.
type components struct {
	// audio plays the alarm tone.
	audio audio.Backend
	// indicator shows the firing alarm.
	indicator notify.Indicator
	// systemd adjusts the systemd timer platform options.
	systemd func(*systemd.Options)
	// now returns the current time.
	now func() time.Time
}

// WithAudio replaces the configured audio backend.
func WithAudio(backend audio.Backend) Option {
	return func(c *components) {
		c.audio = backend
	}
}

// WithIndicator replaces the configured indicator.
func WithIndicator(indicator notify.Indicator) Option {
	return func(c *components) {
		c.indicator = indicator
	}
}

// WithSystemd adjusts the options of the systemd timer platform.
func WithSystemd(adjust func(*systemd.Options)) Option {
	return func(c *components) {
		c.systemd = adjust
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *components) {
		c.now = now
	}
}

// Daemon owns the wired scheduling core.
type Daemon struct {
	// cfg is the validated configuration.
	cfg *config.Config
	// repo is the alarm record store.
	repo repository.Repository
	// registry is the in-process timer registry; nil for systemd timers.
	registry *inproc.Registry
	// gate holds the exact-alarm grant.
	gate *permission.Gate
	// service is the facade served by the transports.
	service *Service
}

// New wires the daemon components described by cfg.
//
//nolint:funlen // Linear wiring of every component.
func New(ctx context.Context, cfg *config.Config, configPath string, opts ...Option) (*Daemon, error) {
	c := components{now: time.Now}

	for _, opt := range opts {
		opt(&c)
	}

	// Open the alarm record store.
	repo, err := repository.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open alarm store: %w", err)
	}

	// Pick the indicator and the exact-alarm gate it reports denials through.
	if c.indicator == nil {
		c.indicator = notify.New(cfg.Indicator)
	}

	gate := permission.NewGate(cfg.PermissionMarkerPath(), c.indicator)

	// Prepare the alarm sound.
	if c.audio == nil {
		c.audio, err = audio.New(cfg.Playback.Backend)
		if err != nil {
			logger.WarnKV(ctx, "Audio output unavailable, alarms will be silent", "error", err)

			c.audio = audio.None{}
		}
	}

	tone, err := audio.LoadTone(cfg.Playback.ToneFile)
	if err != nil {
		_ = repo.Close()

		return nil, fmt.Errorf("load alarm tone: %w", err)
	}

	player := playback.New(c.audio, tone)
	handler := trigger.New(player, c.indicator, cfg.Playback.Ceiling)

	// Select the timer platform.
	var (
		platform timer.Platform
		registry *inproc.Registry
	)

	switch cfg.Timer.Platform {
	case config.TimerPlatformSystemd:
		systemdOpts := systemd.Options{
			Gate:          gate,
			FireCommand:   cfg.Timer.FireCommand,
			ConfigPath:    configPath,
			InexactWindow: cfg.Timer.InexactWindow,
			Now:           c.now,
		}

		if c.systemd != nil {
			c.systemd(&systemdOpts)
		}

		platform = systemd.New(systemdOpts)
	default:
		registry = inproc.New(gate, func(ctx context.Context, record domain.Record) {
			handler.Fire(ctx, trigger.EventFromRecord(record))
		}, inproc.Options{
			InexactWindow: cfg.Timer.InexactWindow,
			Now:           c.now,
		})
		platform = registry
	}

	adapter := timer.NewAdapter(platform)
	sched := scheduler.New(repo, adapter, handler, player, scheduler.Options{Now: c.now})

	return &Daemon{
		cfg:      cfg,
		repo:     repo,
		registry: registry,
		gate:     gate,
		service:  newService(sched, handler, adapter, boot.NewMarker(cfg.BootMarkerPath())),
	}, nil
}

// Service returns the facade served by the transports.
func (d *Daemon) Service() *Service {
	return d.service
}

// Gate returns the exact-alarm grant.
func (d *Daemon) Gate() *permission.Gate {
	return d.gate
}

// Close releases the alarm store.
func (d *Daemon) Close() error {
	return d.repo.Close()
}

// Serve restores the schedule, then serves gRPC on lis until ctx is done.
// The HTTP API and the in-process timer loop run alongside when configured.
func (d *Daemon) Serve(ctx context.Context, lis net.Listener) error {
	if _, _, err := d.service.BootCompleted(ctx); err != nil {
		if errors.Is(err, domain.ErrContextUnavailable) {
			return err
		}

		logger.WarnKV(ctx, "Failed to restore schedule", "error", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return d.RunTimers(ctx)
	})

	group.Go(func() error {
		return d.serveGRPC(ctx, lis)
	})

	if d.cfg.HTTPAddress != "" {
		group.Go(func() error {
			return d.serveHTTP(ctx, d.cfg.HTTPAddress)
		})
	}

	return group.Wait()
}

// RunTimers delivers in-process timers until ctx is done. With systemd
// timers it only waits for ctx.
func (d *Daemon) RunTimers(ctx context.Context) error {
	if d.registry == nil {
		<-ctx.Done()

		return nil
	}

	return d.registry.Run(ctx)
}

func (d *Daemon) serveGRPC(ctx context.Context, lis net.Listener) error {
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			return handler(logger.WithName(ctx, "grpc"), req)
		},
		common.LoggingInterceptor(),
	))
	grpcapi.RegisterAlarmServiceServer(grpcServer, grpcapi.NewServer(d.service))

	logger.InfoKV(ctx, "gRPC server listening", "listen_address", lis.Addr().String())

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

func (d *Daemon) serveHTTP(ctx context.Context, address string) error {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	server := &http.Server{
		Handler:           httpapi.NewHandler(ctx, d.service, d.cfg.HTTPAllowedOrigins),
		ReadHeaderTimeout: shutdownTimeout,
	}

	logger.InfoKV(ctx, "HTTP API listening", "listen_address", lis.Addr().String())

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	if err = server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

// Run loads the configuration, wires the daemon and serves until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "reminderd")

	// Load configuration first to get server settings.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.ListenAddress != "" {
		cfg.ListenAddress = opts.ListenAddress
	}

	if opts.HTTPAddress != "" {
		cfg.HTTPAddress = opts.HTTPAddress
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	// Refuse to run next to another daemon sharing the same timers.
	if !opts.AllowMultiple {
		if err = ensureSingleInstance(); err != nil {
			return err
		}
	}

	d, err := New(ctx, cfg, opts.ConfigPath)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close alarm store", "error", closeErr)
		}
	}()

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress, err)
	}

	logger.InfoKV(ctx, "Reminder daemon started",
		"data_dir", cfg.DataDir,
		"store", cfg.Store.Backend,
		"timer", cfg.Timer.Platform)

	return d.Serve(ctx, lis)
}
