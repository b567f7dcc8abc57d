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
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/device"
	"github.com/racker/rackspace-monitoring-storage/endpoint"
	"github.com/racker/rackspace-monitoring-storage/storage"
	"github.com/racker/rackspace-monitoring-storage/usage"
	"github.com/racker/rackspace-monitoring-storage/utils"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

const gracefulShutdownTimeout = 10 * time.Second

func generatePollerGuid() string {
	return uuid.NewV4().String()
}

// LoadConfig reads configFilePath, when given, on top of the defaults. The environment wins over the file.
func LoadConfig(configFilePath string) (*config.Config, error) {
	cfg := config.NewConfig(generatePollerGuid())
	if configFilePath != "" {
		if err := cfg.LoadFromFile(configFilePath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", configFilePath)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefinition returns the storage node declared by cfg, or nil when none is configured.
func LoadDefinition(cfg *config.Config) (config.Node, error) {
	if cfg.DefinitionFile == "" {
		log.Info(NoDefinition)
		return nil, nil
	}
	node, err := config.LoadNode(cfg.DefinitionFile)
	if err != nil {
		return nil, errors.Wrapf(err, "loading storage definition %s", cfg.DefinitionFile)
	}
	return node, nil
}

func StorageOptions(cfg *config.Config, events storage.Emitter) storage.Options {
	return storage.Options{
		Prober:     device.NewUdevProber(cfg.ProbeLockFile, cfg.ProbeLockTimeout),
		MountTable: device.NewMountTable(cfg.MountTable),
		Sampler:    usage.NewDiskSampler(cfg.RefreshTimeout),
		Events:     events,
		Ignore:     cfg.IgnoreFsTypes,
	}
}

// ApplyLogLevel switches the logger to the level configured in cfg, if any.
func ApplyLogLevel(cfg *config.Config) {
	if cfg.LogLevel == "" {
		return
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warn("Ignoring configured log level")
		return
	}
	log.SetLevel(level)
}

// BuildContainer loads the storage definition of cfg and builds the monitored container from it.
func BuildContainer(ctx context.Context, cfg *config.Config, events storage.Emitter) (*storage.Container, error) {
	node, err := LoadDefinition(cfg)
	if err != nil {
		return nil, err
	}
	return storage.NewContainer(ctx, node, StorageOptions(cfg, events))
}

func Run(configFilePath string) {
	cfg, err := LoadConfig(configFilePath)
	if err != nil {
		utils.Die(err, "Failed to load configuration")
	}

	ApplyLogLevel(cfg)
	log.WithField("guid", cfg.Guid).Info("Assigned unique identifier")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := NewMetrics()
	distributor := NewMetricsDistributor(ctx, cfg)
	distributor.Start()

	var registry utils.EventConsumerRegistry
	registry.RegisterEventConsumer(metrics)
	registry.RegisterEventConsumer(distributor)
	registry.RegisterEventConsumer(NewStateLogger())

	container, err := BuildContainer(ctx, cfg, &registry)
	if err != nil {
		utils.Die(err, "Failed to set up storage monitoring")
	}

	scheduler := NewScheduler(cfg.RefreshPeriod, cfg.RefreshTimeout)
	scheduler.Spread = time.Duration(cfg.RefreshSpreadMillis) * time.Millisecond
	for _, agent := range container.Agents() {
		if err := scheduler.Register(agent); err != nil {
			log.WithError(err).WithField("agent", agent.Name()).Warn("Unable to schedule agent")
		}
	}
	scheduler.Start()

	StartMetricsPusher(ctx, cfg, metrics.Gatherer())

	if cfg.BindAddr != "" {
		server := endpoint.NewBasicServer(container, metrics.Gatherer())
		if err := server.ApplyConfig(cfg); err != nil {
			utils.Die(err, "Failed to configure endpoint")
		}
		go func() {
			if err := server.ListenAndServe(ctx); err != nil {
				utils.Die(err, "Endpoint failed")
			}
		}()
	}

	signalNotify := utils.HandleInterrupts()
	<-signalNotify
	log.Info("Shutdown...")
	time.AfterFunc(gracefulShutdownTimeout, func() {
		log.Warn("Forcing immediate shutdown")
		os.Exit(0)
	})
	cancel()
	scheduler.Close()
}
