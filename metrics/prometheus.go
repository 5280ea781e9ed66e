// Prometheus reporting for daemon metrics. The reporter converts metric
// records to Prometheus collectors and exposes them via an HTTP endpoint or
// a push gateway.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/linchenxuan/drvlogd/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const _metricsChanSize = 65536

// metricType defines the type of Prometheus metric.
type metricType int

const (
	_metricTypeCounter metricType = iota
	_metricTypeGauge
)

// metricOpt contains options for creating Prometheus collectors.
type metricOpt struct {
	subsystem   string
	name        string
	constLabels map[string]string
}

// newMetricOpt creates metric options from a metric record and external labels.
func newMetricOpt(rc *Record, extLabels map[string]string) *metricOpt {
	opts := &metricOpt{
		subsystem:   strings.ReplaceAll(rc.Metrics().Group(), ".", "_"),
		name:        strings.ReplaceAll(rc.Metrics().Name(), ".", "_"),
		constLabels: make(map[string]string, len(rc.Dimensions())+len(extLabels)),
	}

	for k, v := range extLabels {
		opts.constLabels[k] = strings.ReplaceAll(v, ".", "_")
	}

	for k, v := range rc.Dimensions() {
		opts.constLabels[k] = strings.ReplaceAll(v, ".", "_")
	}
	return opts
}

// promGauge wraps a Prometheus gauge with additional value tracking for averaging.
type promGauge struct {
	prometheus.Gauge
	value float64 // Accumulated value for averaging
	cnt   int     // Count of observations
}

// newPromGauge creates a new Prometheus gauge wrapper from a metric record.
func newPromGauge(rc *Record, extLabels map[string]string) *metricWrapper {
	o := newMetricOpt(rc, extLabels)
	opts := prometheus.GaugeOpts{
		Subsystem:   o.subsystem,
		Name:        o.name,
		ConstLabels: o.constLabels,
	}

	g := &promGauge{
		Gauge: promauto.NewGauge(opts),
	}
	_ = g.merge(rc)

	return &metricWrapper{
		m:  g,
		mt: _metricTypeGauge,
	}
}

// merge updates the gauge value based on the metric policy.
func (p *promGauge) merge(rc *Record) error {
	switch rc.Metrics().Policy() {
	case Policy_Set:
		p.Set(float64(rc.Value()))
	case Policy_Sum:
		p.Add(float64(rc.Value()))
	case Policy_Avg:
		v, c := rc.RawData()
		p.value += float64(v)
		p.cnt += c
		if p.cnt <= 0 {
			return fmt.Errorf("metrics(%s) count invalid", rc.Metrics().Name())
		}
		p.Set(p.value / float64(p.cnt))
	default:
		return fmt.Errorf("metrics(%s) policy invalid", rc.Metrics().Name())
	}
	return nil
}

// newPromCounter creates a new Prometheus counter from a metric record.
func newPromCounter(rc *Record, extLabels map[string]string) *metricWrapper {
	o := newMetricOpt(rc, extLabels)
	opts := prometheus.CounterOpts{
		Subsystem:   o.subsystem,
		Name:        o.name,
		ConstLabels: o.constLabels,
	}

	c := promauto.NewCounter(opts)
	c.Add(float64(rc.Value()))
	return &metricWrapper{
		m:  c,
		mt: _metricTypeCounter,
	}
}

// metricWrapper wraps Prometheus metrics since Counter and Gauge interfaces are similar.
// We only need one wrapper structure to store metrics and their types.
type metricWrapper struct {
	m  prometheus.Metric
	mt metricType
}

// merge updates the wrapped metric with new record data.
func (m *metricWrapper) merge(rc *Record) {
	convertSuc := false
	switch m.mt {
	case _metricTypeGauge:
		if c, ok := m.m.(*promGauge); ok && c != nil {
			convertSuc = true
			if err := c.merge(rc); err != nil {
				log.Error().Err(err).Msg("prometheus merge")
			}
		}
	case _metricTypeCounter:
		if c, ok := m.m.(prometheus.Counter); ok && c != nil {
			convertSuc = true
			c.Add(float64(rc.Value()))
		}
	}

	if !convertSuc {
		log.Error().Str("promtype", fmt.Sprintf("%T", m.m)).
			Int("metrictype", int(m.mt)).Msg("prometheus merge failed")
	}
}

// PrometheusReporterConfig contains configuration for the Prometheus reporter.
type PrometheusReporterConfig struct {
	Tag             string            `mapstructure:"tag"`             // Reporter instance tag
	PushAddr        string            `mapstructure:"pushAddr"`        // Push gateway address
	PushIntervalSec int               `mapstructure:"pushIntervalSec"` // Push interval in seconds
	PushJobName     string            `mapstructure:"pushJobName"`     // Push job name
	UsePush         bool              `mapstructure:"usePush"`         // Enable push mode
	HTTPListenAddr  string            `mapstructure:"httpListenAddr"`  // HTTP server listen address; empty picks a random port
	MetricPath      string            `mapstructure:"metricPath"`      // Metrics HTTP path
	ExtLabels       map[string]string `mapstructure:"extLabels"`       // External labels
	extLabelsStr    string
}

// GetExtLabelsStr returns the external labels rendered as a stable string,
// used for metric identification and grouping.
func (x *PrometheusReporterConfig) GetExtLabelsStr() string {
	return x.extLabelsStr
}

// PrometheusReporter implements a Prometheus metrics reporter that converts
// daemon metrics to Prometheus format and exposes them via HTTP or push gateway.
type PrometheusReporter struct {
	cfg         *PrometheusReporterConfig
	promSvr     *http.Server
	pusher      *push.Pusher
	metricsChan chan Record
	metrics     map[string]*metricWrapper
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewPrometheusReporter creates a Prometheus reporter from cfg. Call Start
// to begin aggregation and serving.
func NewPrometheusReporter(cfg *PrometheusReporterConfig) *PrometheusReporter {
	if cfg.MetricPath == "" {
		cfg.MetricPath = "/metrics"
	}
	keys := make([]string, 0, len(cfg.ExtLabels))
	for k := range cfg.ExtLabels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(":")
		sb.WriteString(cfg.ExtLabels[k])
		sb.WriteString(",")
	}
	cfg.extLabelsStr = sb.String()

	ctx, cancel := context.WithCancel(context.Background())
	return &PrometheusReporter{
		cfg:         cfg,
		metricsChan: make(chan Record, _metricsChanSize),
		metrics:     map[string]*metricWrapper{},
		ctx:         ctx,
		cancel:      cancel,
	}
}

// FactoryName returns the name of the factory that created this plugin.
func (x *PrometheusReporter) FactoryName() string {
	return "prometheus"
}

// Report enqueues a record for aggregation. A full channel drops the record
// rather than blocking the caller.
func (x *PrometheusReporter) Report(r Record) {
	select {
	case x.metricsChan <- r:
	default:
		log.Error().Msg("metrics chan full")
	}
}

// Start launches the aggregation goroutine, the HTTP endpoint, and the
// pusher when push mode is enabled.
func (x *PrometheusReporter) Start() error {
	x.startAggregate()
	if x.cfg.UsePush {
		x.startPusher()
	}

	if _, err := x.startHTTPSvr(); err != nil {
		return err
	}
	return nil
}

// Stop shuts down the reporter's goroutines and HTTP server.
func (x *PrometheusReporter) Stop() {
	if x.cancel != nil {
		x.cancel()
		x.cancel = nil
	}

	if x.promSvr != nil {
		if err := x.promSvr.Close(); err != nil {
			log.Error().Err(err).Msg("stop prometheus http server")
		}
		x.promSvr = nil
	}
}

func (x *PrometheusReporter) startPusher() {
	x.pusher = push.New(x.cfg.PushAddr, x.cfg.PushJobName)
	x.pusher.Gatherer(prometheus.DefaultGatherer)
	go func() {
		log.Info().Msg("prometheus pusher started")
		t := time.NewTicker(time.Second * time.Duration(x.cfg.PushIntervalSec))
		defer t.Stop()
		for {
			select {
			case <-x.ctx.Done():
				log.Info().Msg("prometheus pusher end")
				return
			case <-t.C:
				newCtx, cancel := context.WithTimeout(x.ctx, time.Second*5)
				if err := x.pusher.PushContext(newCtx); err != nil {
					log.Error().Err(err).End()
				}
				cancel()
			}
		}
	}()
}

// startHTTPSvr starts the Prometheus HTTP server for exposing metrics.
// Returns the network address the server is listening on, or an error if
// setup fails.
func (x *PrometheusReporter) startHTTPSvr() (net.Addr, error) {
	addr := x.cfg.HTTPListenAddr
	if addr == "" {
		addr = ":0"
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(x.cfg.MetricPath, promhttp.Handler())

	x.promSvr = &http.Server{Handler: mux} //nolint:gosec
	go x.promSvr.Serve(l)
	log.Info().Str("url", path.Join(l.Addr().String(), x.cfg.MetricPath)).Msg("prometheus http start listen on")

	return l.Addr(), nil
}

// startAggregate starts the metrics aggregation goroutine. It continuously
// processes incoming records from the channel, merging them into the
// internal storage until the context is cancelled.
func (x *PrometheusReporter) startAggregate() {
	go func() {
		log.Info().Msg("prometheus collector begin")
		for {
			select {
			case rc := <-x.metricsChan:
				x.merge(&rc)
			case <-x.ctx.Done():
				log.Info().Msg("prometheus collector shutdown")
				return
			}
		}
	}()
}

// merge combines a metrics record into the internal storage. It either
// updates an existing metric with the same key or creates a new one based
// on the metric type.
func (x *PrometheusReporter) merge(rc *Record) {
	key := x.getFullName(rc)
	if m, exist := x.metrics[key]; exist {
		m.merge(rc)
		return
	}
	switch m := rc.Metrics().(type) {
	case Counter:
		x.metrics[key] = newPromCounter(rc, x.cfg.ExtLabels)
	case Gauge:
		x.metrics[key] = newPromGauge(rc, x.cfg.ExtLabels)
	default:
		log.Error().Str("metrictype", fmt.Sprintf("%T", m)).Msg("prometheus merge unknown")
	}
}

// getFullName generates a unique key for a metrics record. It combines the
// metric group, name, external labels, and dimensions into a single string
// to uniquely identify the metric for storage and retrieval.
func (x *PrometheusReporter) getFullName(rc *Record) string {
	var sb strings.Builder
	sb.Grow(256)
	sb.WriteString(rc.Metrics().Group())
	sb.WriteString("*")
	sb.WriteString(rc.Metrics().Name())
	sb.WriteString("*")
	sb.WriteString(x.cfg.GetExtLabelsStr())
	type kv struct {
		key   string
		value string
	}
	keys := make([]*kv, 0, len(rc.Dimensions()))
	for k, v := range rc.Dimensions() {
		if _, ok := x.cfg.ExtLabels[k]; ok {
			continue
		}
		keys = append(keys, &kv{
			key:   k,
			value: v,
		})
	}
	sort.Slice(keys, func(a, b int) bool {
		return keys[a].key < keys[b].key
	})
	for _, v := range keys {
		sb.WriteString(v.key)
		sb.WriteString(":")
		sb.WriteString(v.value)
		sb.WriteString(",")
	}
	return sb.String()
}
