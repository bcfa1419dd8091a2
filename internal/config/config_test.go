package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, enum values and default filling.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing address.
	require.ErrorIs(t, Validate(new(Config)), errListenAddressRequired)

	// Bad address.
	require.Error(t, Validate(&Config{ListenAddress: "bad:address"}))

	// Bad backend.
	err := Validate(&Config{
		ListenAddress: DefaultListenAddress,
		Store:         Store{Backend: "redis"},
	})
	require.ErrorIs(t, err, errUnknownStoreBackend)

	// Bad timer platform.
	err = Validate(&Config{
		ListenAddress: DefaultListenAddress,
		Timer:         Timer{Platform: "cron"},
	})
	require.ErrorIs(t, err, errUnknownTimerPlatform)

	// Bad log level.
	err = Validate(&Config{ListenAddress: DefaultListenAddress, LogLevel: "loud"})
	require.ErrorIs(t, err, errUnknownLogLevel)

	// Defaults are filled in.
	cfg := &Config{ListenAddress: DefaultListenAddress, DataDir: t.TempDir()}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, StoreBackendJSON, cfg.Store.Backend)
	require.Equal(t, TimerPlatformInproc, cfg.Timer.Platform)
	require.Equal(t, DefaultInexactWindow, cfg.Timer.InexactWindow)
	require.Equal(t, DefaultPlaybackCeiling, cfg.Playback.Ceiling)
	require.Equal(t, PlaybackBackendAuto, cfg.Playback.Backend)
	require.Equal(t, IndicatorDesktop, cfg.Indicator)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		ListenAddress: "127.0.0.1:50071",
		DataDir:       dir,
		Store:         Store{Backend: StoreBackendSQLite},
		Playback:      Playback{Ceiling: 5 * time.Minute, Backend: PlaybackBackendNone},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, loaded.ListenAddress)
	require.Equal(t, StoreBackendSQLite, loaded.Store.Backend)
	require.Equal(t, 5*time.Minute, loaded.Playback.Ceiling)
	require.Equal(t, PlaybackBackendNone, loaded.Playback.Backend)
	require.Equal(t, filepath.Join(dir, SQLiteFilename), loaded.StorePath())

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_MissingFileUsesDefaults ensures a missing settings file is not fatal.
func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, cfg.ListenAddress)
	require.Equal(t, 15*time.Minute, cfg.Playback.Ceiling)
	require.NotEmpty(t, cfg.DataDir)
}

// TestInit writes defaults once and refuses to clobber them unless asked.
func TestInit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	written, err := Init(path, false)
	require.NoError(t, err)
	require.Equal(t, DefaultListenAddress, written.ListenAddress)
	require.Equal(t, DefaultPlaybackCeiling, written.Playback.Ceiling)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, written, loaded)

	_, err = Init(path, false)
	require.ErrorIs(t, err, ErrSettingsExist)

	_, err = Init(path, true)
	require.NoError(t, err)
}
