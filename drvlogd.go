// Package drvlogd assembles the daemon: a command processor over a bounded
// in-memory message log, fed by pluggable datagram transports, with
// pluggable metrics reporting.
package drvlogd

import (
	"fmt"
	"sync"

	"github.com/linchenxuan/drvlogd/log"
	"github.com/linchenxuan/drvlogd/metrics"
	"github.com/linchenxuan/drvlogd/metrics/prometheus"
	"github.com/linchenxuan/drvlogd/network/transport"
	"github.com/linchenxuan/drvlogd/network/transport/udpgram"
	"github.com/linchenxuan/drvlogd/network/transport/unixgram"
	"github.com/linchenxuan/drvlogd/plugin"
	"github.com/linchenxuan/drvlogd/processor"
	"github.com/linchenxuan/drvlogd/sys"
)

// DefaultBufferSizeBytes is the capacity of the message log when the
// configuration does not say otherwise.
const DefaultBufferSizeBytes = 128 * 1024

// Daemon is the core application struct, holding the command processor and
// the plugin machinery that feeds it.
type Daemon struct {
	Logger        log.Logger
	PluginManager *plugin.Manager
	Processor     *processor.CommandProcessor

	// procMu serializes deliveries from concurrently running transports;
	// the processor itself is single-threaded.
	procMu sync.Mutex
}

// New creates a daemon instance with a message log of bufferSizeBytes and
// registers the built-in transport and metrics factories. A non-positive
// size selects DefaultBufferSizeBytes.
func New(bufferSizeBytes int) (*Daemon, error) {
	if bufferSizeBytes <= 0 {
		bufferSizeBytes = DefaultBufferSizeBytes
	}

	pluginManager := plugin.NewManager()
	pluginManager.RegisterFactory(unixgram.NewFactory())
	pluginManager.RegisterFactory(udpgram.NewFactory())
	pluginManager.RegisterFactory(&prometheus.Factory{})

	// The entrypoint configures logging via log.Initialize before the
	// daemon is built; reuse that logger instead of installing a new one.
	d := &Daemon{
		Logger:        log.GetDefaultLogger(),
		PluginManager: pluginManager,
		Processor:     processor.New(bufferSizeBytes, sys.NewOS()),
	}

	log.Info().Int("bufferSizeBytes", bufferSizeBytes).Msg("drvlogd initialized")
	return d, nil
}

// OnRecvCommand routes a transport delivery into the command processor.
// Deliveries from all transports serialize here.
func (d *Daemon) OnRecvCommand(cd *transport.CommandDelivery) bool {
	d.procMu.Lock()
	defer d.procMu.Unlock()
	return d.Processor.ProcessCommand(cd.Data, cd.OutFD)
}

// Start sets up all configured plugins, wires every metrics reporter into
// the metric registry, and brings each transport online.
func (d *Daemon) Start(pluginConf map[string]any) error {
	if err := d.PluginManager.SetupPlugins(pluginConf); err != nil {
		return fmt.Errorf("plugin setup: %w", err)
	}

	var reporters []metrics.Reporter
	for _, p := range d.PluginManager.PluginsByType(plugin.Metrics) {
		if r, ok := p.(metrics.Reporter); ok {
			reporters = append(reporters, r)
		}
	}
	metrics.SetMetricsReporters(reporters)

	transports := d.PluginManager.PluginsByType(plugin.Transport)
	if len(transports) == 0 {
		return fmt.Errorf("no transports configured")
	}
	for _, p := range transports {
		tp, ok := p.(transport.Transport)
		if !ok {
			return fmt.Errorf("plugin %s is not a transport", p.FactoryName())
		}
		if err := tp.Start(transport.TransportOption{Receiver: d}); err != nil {
			return fmt.Errorf("start transport %s: %w", p.FactoryName(), err)
		}
	}

	log.Info().Int("transports", len(transports)).Int("reporters", len(reporters)).Msg("drvlogd started")
	return nil
}

// Stop quiesces the transports, tears down every plugin, and flushes the
// logger.
func (d *Daemon) Stop() {
	for _, p := range d.PluginManager.PluginsByType(plugin.Transport) {
		if tp, ok := p.(transport.Transport); ok {
			_ = tp.StopRecv()
		}
	}

	metrics.SetMetricsReporters(nil)
	d.PluginManager.DestroyAll()

	log.Info().Msg("drvlogd stopped")
	log.Refresh()
}
