// Package boot detects that the timer registrations were lost and the
// schedule has to be restored.
//
// The schedule is restored once per timer epoch: the epoch a platform reports
// (kernel boot id, or a per-process id for in-process timers) is compared to
// the one saved in a marker file.
package boot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oshokin/reminder/internal/config"
	"github.com/oshokin/reminder/internal/fsutil"
)

// KernelBootIDPath is where Linux exposes the id of the current boot.
const KernelBootIDPath = "/proc/sys/kernel/random/boot_id"

// errEmptyBootID is returned when the kernel reports an empty boot id.
var errEmptyBootID = errors.New("empty boot id")

// Marker remembers the last epoch the schedule was restored for.
type Marker struct {
	// path is the marker file.
	path string
	// mu serializes Once calls.
	mu sync.Mutex
}

// NewMarker returns a marker stored at path.
func NewMarker(path string) *Marker {
	return &Marker{
		path: filepath.Clean(path),
	}
}

// Once runs fn unless the marker already holds epoch, then saves epoch.
// The marker is only updated when fn succeeds.
func (m *Marker) Once(ctx context.Context, epoch string, fn func(ctx context.Context) error) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous, err := os.ReadFile(m.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("read boot marker: %w", err)
	}

	if strings.TrimSpace(string(previous)) == epoch {
		return false, nil
	}

	if err = fn(ctx); err != nil {
		return true, err
	}

	if err = os.MkdirAll(filepath.Dir(m.path), config.DefaultDirPermissions); err != nil {
		return true, fmt.Errorf("create data directory: %w", err)
	}

	if err = fsutil.WriteFileAtomic(m.path, []byte(epoch+"\n"), config.DefaultFilePermissions); err != nil {
		return true, fmt.Errorf("write boot marker: %w", err)
	}

	return true, nil
}

// Reset forgets the saved epoch so the next Once runs.
func (m *Marker) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove boot marker: %w", err)
	}

	return nil
}

// KernelBootID returns the id of the current Linux boot.
func KernelBootID() (string, error) {
	contents, err := os.ReadFile(KernelBootIDPath)
	if err != nil {
		return "", fmt.Errorf("read boot id: %w", err)
	}

	id := strings.TrimSpace(string(contents))
	if id == "" {
		return "", errEmptyBootID
	}

	return id, nil
}
