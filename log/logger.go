package log

// Logger is the interface for a structured logging component.
type Logger interface {
	Trace() *LogEvent
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	Fatal() *LogEvent
	AddAppender(appender LogAppender)
	GetAppender() []LogAppender
	OnEventEnd(e *LogEvent)
}

var _defaultLogger *DaemonLogger

func init() {
	// Start with defaults; Initialize replaces this once configuration
	// has been loaded.
	_defaultLogger = NewLogger(getDefaultCfg())
}

// Initialize configures the default logger. A nil cfg selects the default
// configuration. Call once at daemon startup.
func Initialize(cfg *LogCfg) error {
	if cfg == nil {
		cfg = getDefaultCfg()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	SetDefaultLogger(NewLogger(cfg))
	return nil
}

// SetDefaultLogger replaces the default logger.
func SetDefaultLogger(logger *DaemonLogger) {
	_defaultLogger = logger
}

// GetDefaultLogger returns the default logger. Components that hold a
// Logger should take this one rather than building their own, so a
// configuration applied via Initialize is not bypassed.
func GetDefaultLogger() *DaemonLogger {
	return _defaultLogger
}

// AddAppender adds an appender to the default logger.
func AddAppender(appender LogAppender) {
	_defaultLogger.AddAppender(appender)
}

// Refresh flushes the default logger's appenders.
func Refresh() {
	_defaultLogger.Refresh()
}

// Close flushes and closes the default logger. Call at shutdown.
func Close() {
	_defaultLogger.Close()
}

// Trace starts a trace-level event on the default logger.
func Trace() *LogEvent {
	return _defaultLogger.Trace()
}

// Debug starts a debug-level event on the default logger.
func Debug() *LogEvent {
	return _defaultLogger.Debug()
}

// Info starts an info-level event on the default logger.
func Info() *LogEvent {
	return _defaultLogger.Info()
}

// Warn starts a warn-level event on the default logger.
func Warn() *LogEvent {
	return _defaultLogger.Warn()
}

// Error starts an error-level event on the default logger.
func Error() *LogEvent {
	return _defaultLogger.Error()
}

// Fatal starts a fatal-level event on the default logger.
func Fatal() *LogEvent {
	return _defaultLogger.Fatal()
}
