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

// Package config declares the data structures used for all execution entry points
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/racker/rackspace-monitoring-storage/version"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorNoRefreshPeriod  = errors.New("Refresh period must be positive")
	ErrorNoRefreshTimeout = errors.New("Refresh timeout must be positive")
)

const (
	DefaultRefreshPeriod    = 60 * time.Second
	DefaultRefreshTimeout   = 10 * time.Second
	DefaultProbeLockTimeout = 5 * time.Second

	DefaultRefreshSpreadMillis = 30000
)

var LogLevels = []string{"debug", "info", "warning", "error"}

type Config struct {
	// Agent Info
	AgentName      string
	Guid           string
	ProcessVersion string

	// DefinitionFile points at the XML storage node. When empty every detected device is monitored
	// with the default states.
	DefinitionFile string

	// Discovery
	MountTable       string
	ProbeLockFile    string
	ProbeLockTimeout time.Duration

	// Refresh
	RefreshPeriod  time.Duration
	RefreshTimeout time.Duration
	// RefreshSpreadMillis bounds the random delay before the first refresh of each mount point.
	RefreshSpreadMillis int

	// IgnoreFsTypes are left out of discovery on top of the definition's ignore-<type> attributes.
	IgnoreFsTypes []string

	// LogLevel, when set, replaces the level chosen on the command line.
	LogLevel string

	// In the form of "IP:port" or just ":port" to bind to all interfaces. Empty disables the HTTP export.
	BindAddr string

	// Metrics distribution
	PrometheusUri  string
	StatsdEndpoint string
}

type configEntry struct {
	Name     string
	ValuePtr interface{}
	Tweak    func()
	Allowed  []string
}

func NewConfig(guid string) *Config {
	cfg := &Config{}
	cfg.Guid = guid
	cfg.AgentName = DefaultAgentName
	cfg.ProcessVersion = version.Version
	cfg.MountTable = DefaultMountTable
	cfg.ProbeLockFile = DefaultProbeLockFile
	cfg.ProbeLockTimeout = DefaultProbeLockTimeout
	cfg.RefreshPeriod = DefaultRefreshPeriod
	cfg.RefreshTimeout = DefaultRefreshTimeout
	cfg.RefreshSpreadMillis = DefaultRefreshSpreadMillis
	cfg.BindAddr = DefaultBindAddr
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields from the process environment.
func (cfg *Config) ApplyEnv() {
	if v := os.Getenv(EnvDefinition); v != "" {
		cfg.DefinitionFile = v
	}
	if v, ok := os.LookupEnv(EnvBindAddr); ok {
		cfg.BindAddr = v
	}
	if v := os.Getenv(EnvStatsdEndpoint); v != "" {
		cfg.StatsdEndpoint = v
	}
}

// LoadFromFile populates this Config with the values defined in that file and then validates it.
func (cfg *Config) LoadFromFile(filepath string) error {
	f, err := os.Open(filepath)
	if err != nil {
		return err
	}
	defer f.Close()

	configEntries := cfg.DefineConfigEntries()

	regexComment, _ := regexp.Compile("^#")
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || regexComment.MatchString(line) {
			continue
		}
		fields := strings.Fields(line)
		if err := cfg.ParseFields(configEntries, fields); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log.WithField("file", filepath).Info("Loaded configuration")
	return nil
}

func (cfg *Config) DefineConfigEntries() []configEntry {
	return []configEntry{
		{
			Name:     "monitoring_storage_definition",
			ValuePtr: &cfg.DefinitionFile,
		},
		{
			Name:     "monitoring_mount_table",
			ValuePtr: &cfg.MountTable,
			Tweak: func() {
				cfg.MountTable = filepath.Clean(cfg.MountTable)
			},
		},
		{
			Name:     "monitoring_probe_lock",
			ValuePtr: &cfg.ProbeLockFile,
			Tweak: func() {
				cfg.ProbeLockFile = filepath.Clean(cfg.ProbeLockFile)
			},
		},
		{
			Name:     "monitoring_probe_lock_timeout",
			ValuePtr: &cfg.ProbeLockTimeout,
		},
		{
			Name:     "monitoring_refresh_period",
			ValuePtr: &cfg.RefreshPeriod,
		},
		{
			Name:     "monitoring_refresh_timeout",
			ValuePtr: &cfg.RefreshTimeout,
		},
		{
			Name:     "monitoring_refresh_spread",
			ValuePtr: &cfg.RefreshSpreadMillis,
		},
		{
			Name:     "monitoring_ignore_fs_types",
			ValuePtr: &cfg.IgnoreFsTypes,
		},
		{
			Name:     "monitoring_log_level",
			ValuePtr: &cfg.LogLevel,
			Allowed:  LogLevels,
		},
		{
			Name:     "monitoring_bind_addr",
			ValuePtr: &cfg.BindAddr,
		},
		{
			Name:     "monitoring_prometheus_uri",
			ValuePtr: &cfg.PrometheusUri,
		},
		{
			Name:     "monitoring_statsd_endpoint",
			ValuePtr: &cfg.StatsdEndpoint,
		},
		{
			Name:     "monitoring_agent_name",
			ValuePtr: &cfg.AgentName,
		},
	}
}

func (cfg *Config) ParseFields(configEntries []configEntry, fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("Invalid fields length: %v", fields)
	}

	for _, entry := range configEntries {
		if entry.Name == fields[0] {
			switch valuePtr := entry.ValuePtr.(type) {
			case *string:
				if err := entry.IsAllowed(fields[1]); err != nil {
					return fmt.Errorf("Disallowed value in %s : %v", entry.Name, err)
				}

				*valuePtr = fields[1]
			case *[]string:
				var parts []string
				for _, p := range strings.Split(fields[1], ",") {
					v := strings.TrimSpace(p)
					if v == "" {
						continue
					}
					if err := entry.IsAllowed(v); err != nil {
						return fmt.Errorf("Disallowed value in %s : %v", entry.Name, err)
					}
					parts = append(parts, v)
				}
				*valuePtr = parts

			case *int:
				n, err := strconv.Atoi(fields[1])
				if err != nil || n < 0 {
					return fmt.Errorf("Invalid number in %s : %v", entry.Name, fields[1])
				}
				*valuePtr = n

			case *time.Duration:
				d, err := ParseSeconds(fields[1])
				if err != nil {
					return fmt.Errorf("Invalid duration in %s : %v", entry.Name, err)
				}
				*valuePtr = d

			default:
				return fmt.Errorf("Unsupported config entry type for %s", entry.Name)
			}

			if entry.Tweak != nil {
				entry.Tweak()
			}
		}
	}

	return nil
}

func (e *configEntry) IsAllowed(actualValue string) error {
	if len(e.Allowed) == 0 {
		return nil
	}

	for _, a := range e.Allowed {
		if a == actualValue {
			return nil
		}
	}

	return fmt.Errorf("The value '%s' is not allowed. Exepcted %v", actualValue, e.Allowed)
}

func (cfg *Config) Validate() error {
	if cfg.RefreshPeriod <= 0 {
		return ErrorNoRefreshPeriod
	}
	if cfg.RefreshTimeout <= 0 {
		return ErrorNoRefreshTimeout
	}
	return nil
}

// ParseSeconds accepts either a bare number of seconds ("30") or a Go duration ("1m30s").
func ParseSeconds(value string) (time.Duration, error) {
	if secs, err := strconv.ParseUint(value, 10, 32); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(value)
}
