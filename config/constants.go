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

// Constants
package config

const (
	DefaultConfigPathLinux = "/etc/rackspace-monitoring-storage.cfg"

	DefaultAgentName     = "storage_poller"
	DefaultBindAddr      = ":8989"
	DefaultMountTable    = "/proc/mounts"
	DefaultProbeLockFile = "/run/rackspace-monitoring-storage/probe.lock"

	EnvDefinition     = "STORAGE_DEFINITION"
	EnvBindAddr       = "STORAGE_BIND_ADDR"
	EnvStatsdEndpoint = "STORAGE_STATSD_ENDPOINT"
)
