package unixgram

import (
	"errors"
	"fmt"

	"github.com/linchenxuan/drvlogd/plugin"
)

type factory struct{}

var _ plugin.Factory = (*factory)(nil)

// NewFactory creates a Unix datagram transport plugin factory.
func NewFactory() plugin.Factory {
	return &factory{}
}

// Type returns the plugin type.
func (f *factory) Type() plugin.Type {
	return plugin.Transport
}

// Name returns the factory name used by plugin config.
func (f *factory) Name() string {
	return "unixgram"
}

// ConfigType returns the config type for mapstructure decoding.
func (f *factory) ConfigType() any {
	return &UnixGramTransportCfg{}
}

// Setup initializes a Unix datagram transport plugin instance.
func (f *factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*UnixGramTransportCfg)
	if !ok {
		return nil, errors.New("unixgram setup failed: invalid config type")
	}

	ins, err := NewUnixGramTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("unixgram setup failed: %w", err)
	}
	return ins, nil
}

// Destroy gracefully shuts down the Unix datagram transport plugin.
func (f *factory) Destroy(p plugin.Plugin) {
	if tp, ok := p.(*UnixGramTransport); ok && tp != nil {
		_ = tp.Stop()
	}
}
