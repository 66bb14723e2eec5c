package ewm

// Logger interface for operational logging, warnings, and error reporting.
// It takes slog-style alternating key/value args so any structured logger
// can back it without this package depending on one.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
