//
// Copyright 2021 Rackspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package poller

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/storage"
	"github.com/racker/rackspace-monitoring-storage/utils"
	"github.com/shirou/gopsutil/v3/host"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPrometheusPushGatewayPort = "9091"
	prometheusService                = "prometheus"
	prometheusProto                  = "tcp"

	metricsNamespace = "storage"

	metricLabelMountPoint = "mountpoint"
	metricLabelDevice     = "device"
)

var (
	metricsPushDelay    = 10 * time.Second
	metricsPushInterval = 10 * time.Second
)

// Metrics mirrors mount point updates into prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	used     *prometheus.GaugeVec
	level    *prometheus.GaugeVec
	failures *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		used: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "used_percent",
			Help:      "Used space of the filesystem, in percent",
		}, []string{metricLabelMountPoint, metricLabelDevice}),
		level: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "state_level",
			Help:      "Severity level of the current state (0 undefined to 5 critical)",
		}, []string{metricLabelMountPoint, metricLabelDevice}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_failures_total",
			Help:      "Number of refreshes that could not sample the filesystem",
		}, []string{metricLabelMountPoint, metricLabelDevice}),
	}
	m.registry.MustRegister(
		m.used,
		m.level,
		m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) HandleEvent(evt utils.Event) error {
	update, ok := evt.Target().(*storage.Update)
	if !ok {
		return nil
	}
	labels := prometheus.Labels{
		metricLabelMountPoint: update.Record.MountPoint,
		metricLabelDevice:     update.Record.Device,
	}

	switch evt.Type() {
	case storage.EventTypeRefreshed, storage.EventTypeStateChanged:
		m.used.With(labels).Set(update.Record.Value)
		m.level.With(labels).Set(float64(update.Level))
	case storage.EventTypeRefreshFailed:
		m.failures.With(labels).Inc()
	}
	return nil
}

func StartMetricsPusher(ctx context.Context, cfg *config.Config, gatherer prometheus.Gatherer) {
	go runMetricsPusher(ctx, cfg, gatherer)
}

func runMetricsPusher(ctx context.Context, cfg *config.Config, gatherer prometheus.Gatherer) {
	log.Debug("Metrics pusher waiting to start...")
	defer log.Debug("Metric pusher exiting")

	select {
	case <-time.After(metricsPushDelay):
	case <-ctx.Done():
		return
	}

	if cfg.PrometheusUri != "" {
		runPrometheusMetricsPusher(ctx, cfg, gatherer)
	}
}

// resolvePushGateway turns a tcp:// or srv:// URI into a host:port address.
func resolvePushGateway(uri string) (string, error) {
	gatewayUri, err := url.Parse(uri)
	if err != nil {
		return "", errors.Wrap(err, "parsing Prometheus gateway URI")
	}

	switch gatewayUri.Scheme {
	case "srv":
		_, addrs, err := net.LookupSRV(prometheusService, prometheusProto, gatewayUri.Hostname())
		if err != nil {
			return "", errors.Wrap(err, "resolving Prometheus gateway service")
		}
		if len(addrs) == 0 {
			return "", errors.Errorf("no addresses resolved for %s", gatewayUri)
		}
		return net.JoinHostPort(addrs[0].Target, strconv.Itoa(int(addrs[0].Port))), nil

	case "tcp":
		port := gatewayUri.Port()
		if port == "" {
			port = defaultPrometheusPushGatewayPort
		}
		return net.JoinHostPort(gatewayUri.Hostname(), port), nil
	}

	return "", errors.Errorf("unsupported Prometheus gateway URI scheme %q", gatewayUri.Scheme)
}

func newPusher(ctx context.Context, cfg *config.Config, gateway string, gatherer prometheus.Gatherer) *push.Pusher {
	pusher := push.New(gateway, cfg.AgentName).
		Gatherer(gatherer).
		Grouping("instance", cfg.Guid)

	if info, err := host.InfoWithContext(ctx); err == nil {
		pusher = pusher.Grouping("hostname", info.Hostname)
	} else {
		log.WithError(err).Debug("Failed to get our hostname")
	}
	return pusher
}

func runPrometheusMetricsPusher(ctx context.Context, cfg *config.Config, gatherer prometheus.Gatherer) {
	gateway, err := resolvePushGateway(cfg.PrometheusUri)
	if err != nil {
		log.WithError(err).WithField("uri", cfg.PrometheusUri).Warn("Unable to use Prometheus push gateway")
		return
	}

	log.WithField("gateway", gateway).Info("Pushing metrics to Prometheus gateway")
	pusher := newPusher(ctx, cfg, gateway, gatherer)

	ticker := time.NewTicker(metricsPushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := pusher.PushContext(ctx); err != nil {
				log.WithError(err).WithField("gateway", gateway).Warn("Failed to push metrics to Prometheus gateway")
			}
		}
	}
}
