package alarm

import "errors"

var (
	// ErrPermissionDenied is returned when exact scheduling is not permitted.
	ErrPermissionDenied = errors.New("exact alarms are not permitted")
	// ErrResourceUnavailable is returned when the audio output cannot be acquired.
	ErrResourceUnavailable = errors.New("alarm sound is unavailable")
	// ErrPersistenceCorrupt is returned when the persisted alarms cannot be decoded.
	ErrPersistenceCorrupt = errors.New("persisted alarms are corrupt")
	// ErrContextUnavailable is returned when the timer facility cannot be reached.
	ErrContextUnavailable = errors.New("timer facility is unavailable")
)
