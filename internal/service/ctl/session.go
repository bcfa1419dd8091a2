package ctl

import (
	"context"
	"fmt"

	"github.com/oshokin/reminder/internal/config"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/service/common"
)

// Options configures how reminderctl reaches the daemon.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// Address overrides the daemon address from config when specified.
	Address string
}

// Session is a loaded configuration plus a connected client.
type Session struct {
	// Config is the validated configuration.
	Config *config.Config
	// Client talks to the daemon.
	Client *common.Client
}

// LoadConfig reads the settings and applies the address override.
func LoadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.Address != "" {
		cfg.ListenAddress = opts.Address
	}

	return cfg, nil
}

// Open loads the settings and connects to the daemon.
func Open(ctx context.Context, opts *Options) (*Session, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	clientOpts := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	// Identify current user and hostname for the daemon request log.
	if actor, actorErr := common.DetectActor(); actorErr == nil {
		clientOpts = append(clientOpts, common.WithCallerActor(actor))
	} else {
		logger.DebugKV(ctx, "Unable to detect caller", "error", actorErr)
	}

	client, err := common.Dial(ctx, cfg.ListenAddress, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &Session{
		Config: cfg,
		Client: client,
	}, nil
}

// Close releases the connection.
func (s *Session) Close() error {
	return s.Client.Close()
}
