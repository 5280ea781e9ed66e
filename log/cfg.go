package log

import "fmt"

// LogCfg configures the daemon's diagnostic logger. It is deliberately
// small: drvlogd exists to be cheaper than a general-purpose logger, so
// its own logging must stay lean too.
type LogCfg struct {
	// LogPath is the target file for file-based output. Required when
	// FileAppender is enabled.
	LogPath string `mapstructure:"path"`

	// LogLevel is the minimum level emitted.
	LogLevel Level `mapstructure:"level"`

	// FileSplitMB is the rotation threshold in megabytes for the file
	// appender.
	FileSplitMB int `mapstructure:"splitMB"`

	// IsAsync moves file writes off the logging goroutine.
	IsAsync bool `mapstructure:"isAsync"`

	// AsyncCacheSize bounds the number of buffered entries in async mode.
	AsyncCacheSize int `mapstructure:"asyncCacheSize"`

	// AsyncWriteMillSec is the async flush interval in milliseconds.
	AsyncWriteMillSec int `mapstructure:"asyncWriteMillSec"`

	// FileAppender enables file output.
	FileAppender bool `mapstructure:"fileAppender"`

	// ConsoleAppender enables stdout output.
	ConsoleAppender bool `mapstructure:"consoleAppender"`
}

// Validate checks the configuration for consistency.
func (cfg *LogCfg) Validate() error {
	if cfg.LogLevel < TraceLevel || cfg.LogLevel > FatalLevel {
		return fmt.Errorf("invalid log level: %d, must be between %d (Trace) and %d (Fatal)",
			cfg.LogLevel, TraceLevel, FatalLevel)
	}
	if cfg.FileAppender {
		if cfg.LogPath == "" {
			return fmt.Errorf("log path cannot be empty when file appender is enabled")
		}
		if cfg.FileSplitMB < 1 || cfg.FileSplitMB > 1024 {
			return fmt.Errorf("file split size must be between 1MB and 1024MB, got %dMB", cfg.FileSplitMB)
		}
	}
	if cfg.IsAsync {
		if cfg.AsyncCacheSize < 1 {
			return fmt.Errorf("async cache size must be at least 1, got %d", cfg.AsyncCacheSize)
		}
		if cfg.AsyncWriteMillSec < 10 {
			return fmt.Errorf("async write interval must be at least 10ms, got %dms", cfg.AsyncWriteMillSec)
		}
	}
	if !cfg.FileAppender && !cfg.ConsoleAppender {
		return fmt.Errorf("at least one appender (file or console) must be enabled")
	}
	return nil
}

var _defaultCfg = &LogCfg{
	LogLevel:        InfoLevel,
	ConsoleAppender: true,
}

func getDefaultCfg() *LogCfg {
	return _defaultCfg
}
