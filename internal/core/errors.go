package core

import "errors"

var (
	// ErrConnectTimeout: the room transport did not connect within the
	// configured bound. The registry is left untouched.
	ErrConnectTimeout = errors.New("room connect timed out")

	// ErrConnectFailed wraps transport-level connect errors.
	ErrConnectFailed = errors.New("room connect failed")

	// ErrSessionUnavailable: sendMessage could not bootstrap a session.
	ErrSessionUnavailable = errors.New("session unavailable")

	// ErrTimeout: a bounded pipeline operation (reply, teardown) expired.
	ErrTimeout = errors.New("operation timed out")
)

// ConfigError reports a missing required option. Fatal, never retried.
type ConfigError struct {
	Option string
}

func (e *ConfigError) Error() string {
	return "missing required option: " + e.Option
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
