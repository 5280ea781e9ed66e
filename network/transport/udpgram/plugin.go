package udpgram

import (
	"errors"
	"fmt"

	"github.com/linchenxuan/drvlogd/plugin"
)

type factory struct{}

var _ plugin.Factory = (*factory)(nil)

// NewFactory creates a UDP datagram transport plugin factory.
func NewFactory() plugin.Factory {
	return &factory{}
}

// Type returns the plugin type.
func (f *factory) Type() plugin.Type {
	return plugin.Transport
}

// Name returns the factory name used by plugin config.
func (f *factory) Name() string {
	return "udpgram"
}

// ConfigType returns the config type for mapstructure decoding.
func (f *factory) ConfigType() any {
	return &UDPGramTransportCfg{}
}

// Setup initializes a UDP transport plugin instance.
func (f *factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*UDPGramTransportCfg)
	if !ok {
		return nil, errors.New("udpgram setup failed: invalid config type")
	}

	ins, err := NewUDPGramTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("udpgram setup failed: %w", err)
	}
	return ins, nil
}

// Destroy gracefully shuts down the UDP transport plugin.
func (f *factory) Destroy(p plugin.Plugin) {
	if tp, ok := p.(*UDPGramTransport); ok && tp != nil {
		_ = tp.Stop()
	}
}
