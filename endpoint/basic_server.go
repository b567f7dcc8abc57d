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

package endpoint

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/racker/rackspace-monitoring-storage/config"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type BasicServer struct {
	BindAddr string

	Exporter Exporter
	// Gatherer backs the /metrics endpoint, which is not served when nil.
	Gatherer prometheus.Gatherer
}

func NewBasicServer(exporter Exporter, gatherer prometheus.Gatherer) *BasicServer {
	return &BasicServer{
		BindAddr: config.DefaultBindAddr,
		Exporter: exporter,
		Gatherer: gatherer,
	}
}

func (s *BasicServer) ApplyConfig(cfg *config.Config) error {
	if cfg.BindAddr == "" {
		return errors.WithStack(config.NewBadConfig("Missing BindAddr"))
	}
	if _, _, err := net.SplitHostPort(cfg.BindAddr); err != nil {
		return errors.WithStack(config.NewBadConfig("Invalid BindAddr %q: %v", cfg.BindAddr, err))
	}
	s.BindAddr = cfg.BindAddr
	return nil
}

func (s *BasicServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+StoragePath, s.handleStorage)
	mux.HandleFunc("GET "+StoragePath+"/{name}", s.handleDisk)
	if s.Gatherer != nil {
		mux.Handle("GET "+MetricsPath, promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *BasicServer) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.BindAddr)
	if err != nil {
		return errors.Wrap(err, "binding endpoint")
	}
	return s.Serve(ctx, listener)
}

// Serve handles requests on listener until ctx is done.
func (s *BasicServer) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.WithField("boundAddr", listener.Addr()).Info("Endpoint is accepting connections")

	err := server.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *BasicServer) handleStorage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Exporter.Export())
}

func (s *BasicServer) handleDisk(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	result := s.Exporter.Export()

	disk, ok := result.Disk(name)
	if !ok {
		log.WithField("name", name).Debug("Unknown disk requested")
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown disk " + name})
		return
	}
	writeJSON(w, http.StatusOK, disk)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}
