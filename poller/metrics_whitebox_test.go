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
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/protocol"
	"github.com/racker/rackspace-monitoring-storage/state"
	"github.com/racker/rackspace-monitoring-storage/storage"
	"github.com/racker/rackspace-monitoring-storage/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootUpdate(value float64, level state.Level) *storage.Update {
	return &storage.Update{
		Record: protocol.DiskRecord{
			Name:       "system",
			MountPoint: "/",
			Device:     "/dev/sda1",
			Value:      value,
		},
		Level: level,
	}
}

func TestMetrics_HandleEvent(t *testing.T) {
	m := NewMetrics()
	labels := prometheus.Labels{metricLabelMountPoint: "/", metricLabelDevice: "/dev/sda1"}

	require.NoError(t, m.HandleEvent(utils.NewEvent(storage.EventTypeRefreshed, rootUpdate(45, state.LevelReady))))
	assert.Equal(t, 45.0, testutil.ToFloat64(m.used.With(labels)))
	assert.Equal(t, float64(state.LevelReady), testutil.ToFloat64(m.level.With(labels)))

	require.NoError(t, m.HandleEvent(utils.NewEvent(storage.EventTypeStateChanged, rootUpdate(91, state.LevelError))))
	assert.Equal(t, 91.0, testutil.ToFloat64(m.used.With(labels)))
	assert.Equal(t, float64(state.LevelError), testutil.ToFloat64(m.level.With(labels)))

	require.NoError(t, m.HandleEvent(utils.NewEvent(storage.EventTypeRefreshFailed, rootUpdate(91, state.LevelError))))
	require.NoError(t, m.HandleEvent(utils.NewEvent(storage.EventTypeRefreshFailed, rootUpdate(91, state.LevelError))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.failures.With(labels)))

	// foreign events are ignored
	assert.NoError(t, m.HandleEvent(utils.NewEvent("other", "target")))
}

func TestMetrics_Gatherer(t *testing.T) {
	m := NewMetrics()
	require.NoError(t, m.HandleEvent(utils.NewEvent(storage.EventTypeRefreshed, rootUpdate(12, state.LevelReady))))

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "storage_used_percent")
	assert.Contains(t, names, "storage_state_level")
}

func TestResolvePushGateway(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
		wantErr  bool
	}{
		{name: "Explicit port", uri: "tcp://gateway.local:9999", expected: "gateway.local:9999"},
		{name: "Default port", uri: "tcp://gateway.local", expected: "gateway.local:9091"},
		{name: "Unsupported scheme", uri: "http://gateway.local", wantErr: true},
		{name: "Unparsable", uri: "tcp://[::1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePushGateway(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRunMetricsPusher(t *testing.T) {
	priorDelay, priorInterval := metricsPushDelay, metricsPushInterval
	metricsPushDelay, metricsPushInterval = time.Millisecond, 10*time.Millisecond
	defer func() {
		metricsPushDelay, metricsPushInterval = priorDelay, priorInterval
	}()

	paths := make(chan string, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case paths <- r.Method + " " + r.URL.Path:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	serverUrl, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(serverUrl.Host)
	require.NoError(t, err)

	cfg := config.NewConfig("guid-1234")
	cfg.PrometheusUri = "tcp://" + net.JoinHostPort(host, port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartMetricsPusher(ctx, cfg, NewMetrics().Gatherer())

	var got string
	completed := utils.Timebox(t, 5*time.Second, func(t *testing.T) {
		got = <-paths
	})
	require.True(t, completed)
	assert.True(t, strings.HasPrefix(got, "PUT /metrics/job/"+cfg.AgentName), got)
	assert.Contains(t, got, "/instance/guid-1234")
}
