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

// Package endpoint serves the exported storage state over HTTP.
package endpoint

import (
	"context"

	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/protocol"
)

const (
	StoragePath = "/api/1.0/agent/storage"
	MetricsPath = "/metrics"
)

type EndpointServer interface {
	ApplyConfig(cfg *config.Config) error

	ListenAndServe(ctx context.Context) error
}

// Exporter produces the current view of every monitored mount point.
type Exporter interface {
	Export() *protocol.StorageResult
}
