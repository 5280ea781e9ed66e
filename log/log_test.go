package log

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memAppender captures entries in memory for assertions.
type memAppender struct {
	mu      sync.Mutex
	entries []string
}

func (m *memAppender) Write(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, string(buf))
	return len(buf), nil
}

func (m *memAppender) Refresh() error { return nil }
func (m *memAppender) Close() error   { return nil }

func (m *memAppender) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.entries...)
}

func newMemLogger(level Level) (*DaemonLogger, *memAppender) {
	logger := NewLogger(&LogCfg{LogLevel: level})
	app := &memAppender{}
	logger.AddAppender(app)
	return logger, app
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	logger, app := newMemLogger(InfoLevel)

	logger.Info().
		Str("transport", "unixgram").
		Int("bytes", 42).
		Bool("ok", true).
		Msg("command received")

	entries := app.all()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.True(t, strings.HasPrefix(entry, "{"))
	assert.True(t, strings.HasSuffix(entry, "}\n"))
	assert.Contains(t, entry, `"level":"INFO"`)
	assert.Contains(t, entry, `"transport":"unixgram"`)
	assert.Contains(t, entry, `"bytes":42`)
	assert.Contains(t, entry, `"ok":true`)
	assert.Contains(t, entry, `"msg":"command received"`)
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, app := newMemLogger(WarnLevel)

	logger.Debug().Msg("dropped")
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")
	logger.Error().Msg("kept")

	entries := app.all()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0], `"level":"WARN"`)
	assert.Contains(t, entries[1], `"level":"ERROR"`)
}

func TestNilEventMethodsAreSafe(t *testing.T) {
	logger, app := newMemLogger(ErrorLevel)

	// Below-threshold events return a nil *LogEvent; the chain must not
	// panic.
	logger.Debug().Str("k", "v").Int("n", 1).Err(nil).Msg("nothing")

	assert.Empty(t, app.all())
}

func TestEventPoolReuseProducesCleanEntries(t *testing.T) {
	logger, app := newMemLogger(InfoLevel)

	logger.Info().Str("first", "a").Msg("one")
	logger.Info().Msg("two")

	entries := app.all()
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[1], "first")
}

func TestFatalFlushesAndExits(t *testing.T) {
	logger, app := newMemLogger(InfoLevel)
	exited := false
	logger.exit = func() { exited = true }

	logger.Fatal().Str("reason", "clock failure").Msg("giving up")

	require.Len(t, app.all(), 1)
	assert.Contains(t, app.all()[0], `"level":"FATAL"`)
	assert.True(t, exited)
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drvlogd.log")

	cfg := &LogCfg{
		LogPath:      path,
		LogLevel:     InfoLevel,
		FileSplitMB:  1,
		FileAppender: true,
	}
	require.NoError(t, cfg.Validate())

	logger := NewLogger(cfg)
	logger.Info().Str("stage", "startup").Msg("daemon ready")
	logger.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"daemon ready"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}

func TestAsyncFileLoggingFlushOnRefresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "async.log")

	cfg := &LogCfg{
		LogPath:           path,
		LogLevel:          InfoLevel,
		FileSplitMB:       1,
		IsAsync:           true,
		AsyncCacheSize:    128,
		AsyncWriteMillSec: 1000,
		FileAppender:      true,
	}
	require.NoError(t, cfg.Validate())

	logger := NewLogger(cfg)
	for i := 0; i < 10; i++ {
		logger.Info().Int("seq", i).Msg("queued")
	}
	logger.Refresh()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, strings.Count(string(data), "\n"))
	logger.Close()
}

func TestCfgValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  LogCfg
		ok   bool
	}{
		{"console only", LogCfg{LogLevel: InfoLevel, ConsoleAppender: true}, true},
		{"no appender", LogCfg{LogLevel: InfoLevel}, false},
		{"bad level", LogCfg{LogLevel: Level(99), ConsoleAppender: true}, false},
		{"file without path", LogCfg{LogLevel: InfoLevel, FileAppender: true, FileSplitMB: 10}, false},
		{"async bad interval", LogCfg{LogLevel: InfoLevel, ConsoleAppender: true, IsAsync: true, AsyncCacheSize: 8, AsyncWriteMillSec: 1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
}
