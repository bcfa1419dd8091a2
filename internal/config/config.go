package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/reminder/internal/fsutil"
	"github.com/oshokin/reminder/internal/logger"
)

type (
	// Config holds the settings shared by the reminder binaries.
	Config struct {
		// ListenAddress is the gRPC address reminderd listens on and reminderctl dials.
		ListenAddress string `yaml:"listen_addr" env:"REMINDER_LISTEN_ADDR" env-default:"127.0.0.1:50061"`
		// HTTPAddress enables the JSON API when set.
		HTTPAddress string `yaml:"http_addr" env:"REMINDER_HTTP_ADDR"`
		// HTTPAllowedOrigins are the browser origins allowed to call the JSON API.
		// Empty means no cross-origin access.
		HTTPAllowedOrigins []string `yaml:"http_allowed_origins,omitempty" env:"REMINDER_HTTP_ALLOWED_ORIGINS" env-separator:","`
		// DataDir holds the alarm store, the boot marker and the permission marker.
		DataDir string `yaml:"data_dir" env:"REMINDER_DATA_DIR"`
		// LogLevel is the minimum level written by the daemon.
		LogLevel string `yaml:"log_level" env:"REMINDER_LOG_LEVEL" env-default:"info"`
		// Timeout bounds a single RPC issued by reminderctl.
		Timeout time.Duration `yaml:"timeout" env:"REMINDER_TIMEOUT" env-default:"5s"`
		// Store selects the alarm record store backend.
		Store Store `yaml:"store"`
		// Timer selects and tunes the OS timer platform.
		Timer Timer `yaml:"timer"`
		// Playback tunes the alarm sound.
		Playback Playback `yaml:"playback"`
		// Indicator selects how a firing alarm is shown to the user.
		Indicator string `yaml:"indicator" env:"REMINDER_INDICATOR" env-default:"desktop"`
	}

	// Store configures the alarm record store.
	Store struct {
		// Backend is either "json" or "sqlite".
		Backend string `yaml:"backend" env:"REMINDER_STORE_BACKEND" env-default:"json"`
	}

	// Timer configures the OS timer platform.
	Timer struct {
		// Platform is either "inproc" or "systemd".
		Platform string `yaml:"platform" env:"REMINDER_TIMER_PLATFORM" env-default:"inproc"`
		// InexactWindow is the batching window for inexact registrations.
		InexactWindow time.Duration `yaml:"inexact_window" env:"REMINDER_TIMER_INEXACT_WINDOW" env-default:"2m"`
		// FireCommand is the reminderctl executable systemd timers invoke.
		// Empty means "reminderctl" from PATH.
		FireCommand string `yaml:"fire_command" env:"REMINDER_TIMER_FIRE_COMMAND"`
	}

	// Playback configures the alarm sound.
	Playback struct {
		// Ceiling is the auto-stop limit of a firing alarm.
		Ceiling time.Duration `yaml:"ceiling" env:"REMINDER_PLAYBACK_CEILING" env-default:"15m"`
		// ToneFile is an optional 16-bit PCM WAV file used instead of the built-in tone.
		ToneFile string `yaml:"tone_file" env:"REMINDER_PLAYBACK_TONE_FILE"`
		// Backend is one of "auto", "pulse", "oto" or "none".
		Backend string `yaml:"backend" env:"REMINDER_PLAYBACK_BACKEND" env-default:"auto"`
	}
)

const (
	// DefaultConfigFilename is the default filename for reminder settings.
	DefaultConfigFilename = "reminder-settings.yaml"

	// DefaultListenAddress is the gRPC address used when none is configured.
	DefaultListenAddress = "127.0.0.1:50061"

	// DefaultTimeout is the default duration for a single RPC.
	DefaultTimeout = 5 * time.Second

	// DefaultInexactWindow is the batching window of inexact timers.
	DefaultInexactWindow = 2 * time.Minute

	// DefaultPlaybackCeiling is the auto-stop limit of a firing alarm.
	DefaultPlaybackCeiling = 15 * time.Minute

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is the permission of the data directory.
	DefaultDirPermissions = 0o700

	// StoreFilename is the JSON store document inside DataDir.
	StoreFilename = "alarm_scheduler_prefs.json"
	// SQLiteFilename is the SQLite store database inside DataDir.
	SQLiteFilename = "alarm_scheduler.db"
	// BootMarkerFilename records the last timer epoch the schedule was restored for.
	BootMarkerFilename = "boot-marker"
	// PermissionMarkerFilename exists while exact alarms are revoked.
	PermissionMarkerFilename = "exact-alarms-denied"
)

// Store backends.
const (
	StoreBackendJSON   = "json"
	StoreBackendSQLite = "sqlite"
)

// Timer platforms.
const (
	TimerPlatformInproc  = "inproc"
	TimerPlatformSystemd = "systemd"
)

// Playback backends.
const (
	PlaybackBackendAuto  = "auto"
	PlaybackBackendPulse = "pulse"
	PlaybackBackendOto   = "oto"
	PlaybackBackendNone  = "none"
)

// Indicators.
const (
	IndicatorDesktop = "desktop"
	IndicatorNone    = "none"
)

// ErrSettingsExist is returned by Init when the settings file is already present.
var ErrSettingsExist = errors.New("settings file already exists")

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errListenAddressRequired is returned when the gRPC address is missing.
	errListenAddressRequired = errors.New("listen address must be provided")
	// errUnknownStoreBackend is returned for an unsupported store.backend.
	errUnknownStoreBackend = errors.New("unknown store backend")
	// errUnknownTimerPlatform is returned for an unsupported timer.platform.
	errUnknownTimerPlatform = errors.New("unknown timer platform")
	// errUnknownPlaybackBackend is returned for an unsupported playback.backend.
	errUnknownPlaybackBackend = errors.New("unknown playback backend")
	// errUnknownIndicator is returned for an unsupported indicator.
	errUnknownIndicator = errors.New("unknown indicator")
	// errUnknownLogLevel is returned for an unparsable log_level.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Load reads configuration from the provided path, applies environment
// overrides and validates the result. A missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	var cfg Config

	path = filepath.Clean(path)

	_, err := os.Stat(path)

	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err = cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("stat settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Init writes the default settings, with environment overrides applied, to
// path. An existing file is only replaced when overwrite is set.
func Init(path string, overwrite bool) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	_, err := os.Stat(filepath.Clean(path))

	switch {
	case err == nil && !overwrite:
		return nil, fmt.Errorf("%w: %s", ErrSettingsExist, path)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("stat settings: %w", err)
	}

	var cfg Config

	if err = cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err = Save(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := fsutil.Replace(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills in defaults and checks addresses, backends and durations.
//
//nolint:cyclop,gocyclo // A flat list of checks reads better than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		return errListenAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.HTTPAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http address: %w", err)
		}
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch cfg.Store.Backend {
	case "":
		cfg.Store.Backend = StoreBackendJSON
	case StoreBackendJSON, StoreBackendSQLite:
	default:
		return fmt.Errorf("%w: %q", errUnknownStoreBackend, cfg.Store.Backend)
	}

	switch cfg.Timer.Platform {
	case "":
		cfg.Timer.Platform = TimerPlatformInproc
	case TimerPlatformInproc, TimerPlatformSystemd:
	default:
		return fmt.Errorf("%w: %q", errUnknownTimerPlatform, cfg.Timer.Platform)
	}

	if cfg.Timer.InexactWindow <= 0 {
		cfg.Timer.InexactWindow = DefaultInexactWindow
	}

	if cfg.Playback.Ceiling <= 0 {
		cfg.Playback.Ceiling = DefaultPlaybackCeiling
	}

	switch cfg.Playback.Backend {
	case "":
		cfg.Playback.Backend = PlaybackBackendAuto
	case PlaybackBackendAuto, PlaybackBackendPulse, PlaybackBackendOto, PlaybackBackendNone:
	default:
		return fmt.Errorf("%w: %q", errUnknownPlaybackBackend, cfg.Playback.Backend)
	}

	switch cfg.Indicator {
	case "":
		cfg.Indicator = IndicatorDesktop
	case IndicatorDesktop, IndicatorNone:
	default:
		return fmt.Errorf("%w: %q", errUnknownIndicator, cfg.Indicator)
	}

	return nil
}

// StorePath returns the location of the configured store backend.
func (c *Config) StorePath() string {
	if c.Store.Backend == StoreBackendSQLite {
		return filepath.Join(c.DataDir, SQLiteFilename)
	}

	return filepath.Join(c.DataDir, StoreFilename)
}

// BootMarkerPath returns the boot marker location.
func (c *Config) BootMarkerPath() string {
	return filepath.Join(c.DataDir, BootMarkerFilename)
}

// PermissionMarkerPath returns the exact-alarm denial marker location.
func (c *Config) PermissionMarkerPath() string {
	return filepath.Join(c.DataDir, PermissionMarkerFilename)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "reminder")
	}

	return "reminder-data"
}
