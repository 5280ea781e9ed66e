// Package prometheus registers the Prometheus metrics reporter as a plugin.
package prometheus

import (
	"fmt"

	"github.com/linchenxuan/drvlogd/metrics"
	"github.com/linchenxuan/drvlogd/plugin"
)

// Factory creates Prometheus reporter plugin instances.
type Factory struct{}

// Type returns the plugin type.
func (f *Factory) Type() plugin.Type {
	return plugin.Metrics
}

// Name returns the name of the plugin implementation.
func (f *Factory) Name() string {
	return "prometheus"
}

// ConfigType returns an empty struct that represents the plugin's configuration.
// This struct will be populated by the manager using mapstructure.
func (f *Factory) ConfigType() any {
	return &metrics.PrometheusReporterConfig{}
}

// Setup initializes a reporter instance based on the configuration.
func (f *Factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*metrics.PrometheusReporterConfig)
	if !ok {
		return nil, fmt.Errorf("prometheus setup: unexpected config type %T", cfgAny)
	}

	p := metrics.NewPrometheusReporter(cfg)
	if err := p.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

// Destroy stops a reporter instance.
func (f *Factory) Destroy(p plugin.Plugin) {
	if prom, ok := p.(*metrics.PrometheusReporter); ok {
		prom.Stop()
	}
}
