package drvlogd

import (
	"path/filepath"
	"testing"

	"github.com/linchenxuan/drvlogd/log"
	"github.com/linchenxuan/drvlogd/network/transport"
	"github.com/linchenxuan/drvlogd/plugin"
	"github.com/linchenxuan/drvlogd/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew verifies that New builds a daemon with all core components.
func TestNew(t *testing.T) {
	d, err := New(0)
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.NotNil(t, d.Logger)
	assert.NotNil(t, d.PluginManager)
	assert.NotNil(t, d.Processor)
}

// TestNewPreservesConfiguredLogger verifies that building a daemon does
// not replace a logger installed beforehand.
func TestNewPreservesConfiguredLogger(t *testing.T) {
	orig := log.GetDefaultLogger()
	t.Cleanup(func() { log.SetDefaultLogger(orig) })

	require.NoError(t, log.Initialize(&log.LogCfg{
		LogLevel:        log.ErrorLevel,
		ConsoleAppender: true,
	}))
	configured := log.GetDefaultLogger()

	d, err := New(0)
	require.NoError(t, err)

	assert.Same(t, configured, log.GetDefaultLogger())
	assert.Same(t, configured, d.Logger)
	// The configured level still filters: below-threshold events stay nil.
	assert.Nil(t, log.Info())
}

// TestBuiltInFactoryRegistration verifies that New wires the built-in
// transport factories into the plugin manager and that setup works with
// config decoding.
func TestBuiltInFactoryRegistration(t *testing.T) {
	d, err := New(0)
	require.NoError(t, err)

	conf := map[string]any{
		string(plugin.Transport): map[string]any{
			"unixgram": map[string]any{
				"tag":  plugin.DefaultInsName,
				"path": filepath.Join(t.TempDir(), "drvlogd.sock"),
			},
			"udpgram": map[string]any{
				"tag":  "udp",
				"addr": "127.0.0.1:0",
			},
		},
	}

	require.NoError(t, d.PluginManager.SetupPlugins(conf))

	p, err := d.PluginManager.GetDefaultPlugin(plugin.Transport)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Len(t, d.PluginManager.PluginsByType(plugin.Transport), 2)
}

// TestStartAndStop verifies the full lifecycle against real sockets.
func TestStartAndStop(t *testing.T) {
	d, err := New(0)
	require.NoError(t, err)

	conf := map[string]any{
		string(plugin.Transport): map[string]any{
			"unixgram": map[string]any{
				"tag":  plugin.DefaultInsName,
				"path": filepath.Join(t.TempDir(), "drvlogd.sock"),
			},
		},
	}

	require.NoError(t, d.Start(conf))
	assert.NotPanics(t, func() { d.Stop() })
}

// TestStartWithoutTransportsFails verifies that a daemon with nothing to
// listen on refuses to start.
func TestStartWithoutTransportsFails(t *testing.T) {
	d, err := New(0)
	require.NoError(t, err)

	err = d.Start(map[string]any{})
	assert.Error(t, err)
}

// TestOnRecvCommandFeedsProcessor verifies that deliveries reach the
// command engine.
func TestOnRecvCommandFeedsProcessor(t *testing.T) {
	d, err := New(0)
	require.NoError(t, err)

	// WriteAsciiMessage command with empty payload declaration.
	ok := d.OnRecvCommand(&transport.CommandDelivery{
		Data:  []byte{0x00, 0x00, 0x00},
		OutFD: sys.InvalidFD,
	})
	assert.True(t, ok)
	assert.NotZero(t, d.Processor.BufferUsedBytes())

	// Unknown opcode is rejected but does not disturb the log.
	used := d.Processor.BufferUsedBytes()
	ok = d.OnRecvCommand(&transport.CommandDelivery{
		Data:  []byte{0x7f, 0x00, 0x00},
		OutFD: sys.InvalidFD,
	})
	assert.False(t, ok)
	assert.Equal(t, used, d.Processor.BufferUsedBytes())
}
