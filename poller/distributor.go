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
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/state"
	"github.com/racker/rackspace-monitoring-storage/storage"
	"github.com/racker/rackspace-monitoring-storage/utils"
	"github.com/shirou/gopsutil/v3/host"
	log "github.com/sirupsen/logrus"
)

const (
	statsdNamespace        = "rackspace."
	statsdUsedMetric       = "storage.used_percent"
	statsdFailureMetric    = "storage.refresh_failures"
	statsdServiceCheckName = "storage.state"
)

// MetricsDistributor forwards mount point updates to the configured external metric sinks. It is
// registered as an event consumer.
type MetricsDistributor struct {
	types []metricsDistributorType
	ctx   context.Context
}

type metricsDistributorType interface {
	Start(ctx context.Context) error
	Distribute(eventType string, update *storage.Update)
}

func NewMetricsDistributor(ctx context.Context, cfg *config.Config) *MetricsDistributor {
	distributor := &MetricsDistributor{ctx: ctx}

	if cfg.StatsdEndpoint != "" {
		distributor.types = append(distributor.types, newStatsdDistributor(cfg.StatsdEndpoint, cfg.AgentName))
	}

	return distributor
}

func (md *MetricsDistributor) Start() {
	started := md.types[:0]
	for _, d := range md.types {
		if err := d.Start(md.ctx); err != nil {
			log.WithError(err).WithField("type", d).Warn("Failed to start distributor type")
			continue
		}
		started = append(started, d)
	}
	md.types = started
}

func (md *MetricsDistributor) HandleEvent(evt utils.Event) error {
	update, ok := evt.Target().(*storage.Update)
	if !ok {
		return nil
	}
	for _, d := range md.types {
		d.Distribute(evt.Type(), update)
	}
	return nil
}

type statsdEvent struct {
	eventType string
	update    *storage.Update
}

type statsdDistributor struct {
	statsdEndpoint string
	agentName      string
	events         chan statsdEvent
	statsdClient   statsd.ClientInterface
	hostTag        string
}

func newStatsdDistributor(statsdEndpoint string, agentName string) *statsdDistributor {
	return &statsdDistributor{
		statsdEndpoint: statsdEndpoint,
		agentName:      agentName,
	}
}

func (d *statsdDistributor) String() string {
	return fmt.Sprintf("statsdDistributor[endpoint=%s]", d.statsdEndpoint)
}

func (d *statsdDistributor) Start(ctx context.Context) error {
	client, err := statsd.New(d.statsdEndpoint,
		statsd.WithNamespace(statsdNamespace),
		statsd.WithoutTelemetry(),
		statsd.WithoutClientSideAggregation(),
	)
	if err != nil {
		return err
	}
	d.statsdClient = client
	d.events = make(chan statsdEvent, 100)

	if info, err := host.InfoWithContext(ctx); err != nil {
		log.WithError(err).Warn("Unable to identify our own hostname")
	} else {
		d.hostTag = "host:" + info.Hostname
	}

	log.WithField("endpoint", d.statsdEndpoint).Info("Using statsd metrics distribution type")

	go d.run(ctx)

	return nil
}

// Distribute drops the update rather than stall a refresh when the statsd queue is full.
func (d *statsdDistributor) Distribute(eventType string, update *storage.Update) {
	select {
	case d.events <- statsdEvent{eventType: eventType, update: update}:
	default:
		log.WithField("mp", update.Record.MountPoint).Debug("Statsd queue is full, dropping update")
	}
}

func (d *statsdDistributor) run(ctx context.Context) {
	defer d.statsdClient.Close()
	for {
		select {
		case evt := <-d.events:
			d.sendToStatsd(evt.eventType, evt.update)

		case <-ctx.Done():
			return
		}
	}
}

func (d *statsdDistributor) tags(rec *storage.Update) []string {
	tags := []string{
		"agent:" + d.agentName,
		"mountpoint:" + rec.Record.MountPoint,
		"device:" + rec.Record.Device,
		"name:" + rec.Record.Name,
	}
	if d.hostTag != "" {
		tags = append(tags, d.hostTag)
	}
	return tags
}

func (d *statsdDistributor) sendToStatsd(eventType string, update *storage.Update) {
	tags := d.tags(update)
	logger := log.WithFields(log.Fields{
		"mp":    update.Record.MountPoint,
		"event": eventType,
	})

	var err error
	switch eventType {
	case storage.EventTypeRefreshed:
		logger.Debug("Sending metric to statsd")
		err = d.statsdClient.Gauge(statsdUsedMetric, update.Record.Value, tags, 1)

	case storage.EventTypeRefreshFailed:
		err = d.statsdClient.Incr(statsdFailureMetric, tags, 1)

	case storage.EventTypeStateChanged:
		serviceCheck := statsd.NewServiceCheck(statsdServiceCheckName, mapLevelToServiceCheckStatus(update.Level))
		serviceCheck.Message = update.Record.Message
		serviceCheck.Tags = append(tags, "state:"+update.Record.State)
		logger.Debug("Sending service check to statsd")
		err = d.statsdClient.ServiceCheck(serviceCheck)
	}
	if err != nil {
		logger.WithError(err).Debug("Failed to send to statsd")
	}
}

func mapLevelToServiceCheckStatus(level state.Level) statsd.ServiceCheckStatus {
	switch level {
	case state.LevelUnimportant, state.LevelReady:
		return statsd.Ok
	case state.LevelWarning:
		return statsd.Warn
	case state.LevelError, state.LevelCritical:
		return statsd.Critical
	}

	return statsd.Unknown
}
