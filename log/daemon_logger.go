package log

import (
	"os"
	"sync"
	"time"
)

// DaemonLogger is the concrete logger used throughout drvlogd. Events are
// pooled to keep the logging path allocation-free, and output fans out to
// every configured appender.
type DaemonLogger struct {
	appenders []LogAppender
	minLevel  Level
	eventPool *sync.Pool

	// exit runs after a fatal entry is flushed. Overridable so logger
	// tests can observe fatal handling without dying.
	exit func()
}

// NewLogger creates a DaemonLogger from cfg, falling back to the default
// configuration when cfg is nil.
func NewLogger(cfg *LogCfg) *DaemonLogger {
	if cfg == nil {
		cfg = getDefaultCfg()
	}

	logger := &DaemonLogger{
		minLevel: cfg.LogLevel,
		exit:     func() { os.Exit(1) },
	}
	logger.eventPool = &sync.Pool{
		New: func() any {
			return newEvent(logger)
		},
	}

	if cfg.FileAppender {
		logger.AddAppender(NewFileAppender(cfg))
	}
	if cfg.ConsoleAppender {
		logger.AddAppender(NewConsoleAppender())
	}
	return logger
}

// AddAppender registers an additional output destination.
func (x *DaemonLogger) AddAppender(appender LogAppender) {
	x.appenders = append(x.appenders, appender)
}

// GetAppender returns the registered appenders.
func (x *DaemonLogger) GetAppender() []LogAppender {
	return x.appenders
}

func (x *DaemonLogger) event(level Level) *LogEvent {
	if level < x.minLevel {
		return nil
	}
	e := x.eventPool.Get().(*LogEvent)
	e.level = level
	e.Str("level", level.String())
	e.Time("ts", time.Now())
	return e
}

// Trace starts a trace-level event.
func (x *DaemonLogger) Trace() *LogEvent { return x.event(TraceLevel) }

// Debug starts a debug-level event.
func (x *DaemonLogger) Debug() *LogEvent { return x.event(DebugLevel) }

// Info starts an info-level event.
func (x *DaemonLogger) Info() *LogEvent { return x.event(InfoLevel) }

// Warn starts a warn-level event.
func (x *DaemonLogger) Warn() *LogEvent { return x.event(WarnLevel) }

// Error starts an error-level event.
func (x *DaemonLogger) Error() *LogEvent { return x.event(ErrorLevel) }

// Fatal starts a fatal-level event. Completing it with Msg terminates
// the process after the entry is flushed.
func (x *DaemonLogger) Fatal() *LogEvent { return x.event(FatalLevel) }

// OnEventEnd writes a finalized event to every appender and returns it to
// the pool. A fatal event additionally flushes all appenders and
// terminates the process.
func (x *DaemonLogger) OnEventEnd(e *LogEvent) {
	for _, appender := range x.appenders {
		_, _ = appender.Write(e.Bytes())
	}

	fatal := e.level == FatalLevel
	e.Reset()
	x.eventPool.Put(e)

	if fatal {
		for _, appender := range x.appenders {
			_ = appender.Refresh()
		}
		x.exit()
	}
}

// Refresh flushes every appender.
func (x *DaemonLogger) Refresh() {
	for _, appender := range x.appenders {
		_ = appender.Refresh()
	}
}

// Close flushes and closes every appender.
func (x *DaemonLogger) Close() {
	for _, appender := range x.appenders {
		_ = appender.Close()
	}
}
