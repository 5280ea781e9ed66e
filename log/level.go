package log

import "strings"

// Level orders log events by severity. Higher values are more critical.
type Level int8

const (
	// TraceLevel is extremely detailed diagnostic output.
	TraceLevel Level = iota + 1
	// DebugLevel is development and troubleshooting detail.
	DebugLevel
	// InfoLevel records normal daemon operation.
	InfoLevel
	// WarnLevel signals situations that are harmful but survivable.
	WarnLevel
	// ErrorLevel records failed operations needing attention.
	ErrorLevel
	// FatalLevel is reserved for unrecoverable failures; logging at this
	// level terminates the process.
	FatalLevel
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to its Level value, case-insensitively.
// Unrecognized input falls back to InfoLevel so a bad config value cannot
// silence the daemon.
func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(levelStr) {
	case "TRACE":
		return TraceLevel
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	}
	return InfoLevel
}
