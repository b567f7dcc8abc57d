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

package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/racker/rackspace-monitoring-storage/protocol"
	"github.com/racker/rackspace-monitoring-storage/state"
	"github.com/racker/rackspace-monitoring-storage/usage"
	"github.com/racker/rackspace-monitoring-storage/utils"
	log "github.com/sirupsen/logrus"
)

const (
	EventTypeRefreshed     = "storage.refreshed"
	EventTypeRefreshFailed = "storage.refresh.failed"
	EventTypeStateChanged  = "storage.state.changed"

	DefaultIcon = "drive-harddisk"
)

// Update is the target of every event emitted by a Mountpoint.
type Update struct {
	Record protocol.DiskRecord
	Level  state.Level
	// PreviousState is the band name held before a state change, empty before the first sample.
	PreviousState string
	Err           error
}

// Metadata is the display information of a mount point. Empty fields are unset.
type Metadata struct {
	Name    string
	Label   string
	Icon    string
	Summary string
}

func (md Metadata) override(with Metadata) Metadata {
	if with.Name != "" {
		md.Name = with.Name
	}
	if with.Label != "" {
		md.Label = with.Label
	}
	if with.Icon != "" {
		md.Icon = with.Icon
	}
	if with.Summary != "" {
		md.Summary = with.Summary
	}
	return md
}

func metadataFromNode(attrs map[string]string) Metadata {
	return Metadata{
		Name:    strings.TrimSpace(attrs["name"]),
		Label:   attrs["label"],
		Icon:    attrs["icon"],
		Summary: attrs["summary"],
	}
}

// MountpointSpec identifies the filesystem to monitor.
type MountpointSpec struct {
	MountPoint string
	Device     string
	FsType     string
	// DeviceLabel is the probed or configured volume label.
	DeviceLabel string
	Overrides   Metadata
	// Table defaults to state.DefaultTable when nil.
	Table *state.Table
}

// resolveMetadata checks the well-known table first, then falls back to the device label, the last
// path segment and finally the whole mount point for the name.
func resolveMetadata(spec MountpointSpec, wellKnown []WellKnownMount) Metadata {
	var md Metadata
	if wk, ok := LookupWellKnown(wellKnown, spec.MountPoint); ok {
		md = Metadata{Name: wk.Name, Label: wk.Label, Icon: wk.Icon, Summary: wk.Summary}
	}
	if md.Name == "" {
		md.Name = spec.DeviceLabel
	}
	if md.Name == "" {
		md.Name = spec.MountPoint[strings.LastIndex(spec.MountPoint, "/")+1:]
	}
	if md.Name == "" {
		md.Name = spec.MountPoint
	}
	if md.Label == "" {
		md.Label = spec.DeviceLabel
	}
	if md.Label == "" {
		md.Label = spec.MountPoint
	}
	if md.Icon == "" {
		md.Icon = DefaultIcon
	}
	return md.override(spec.Overrides)
}

// Mountpoint monitors the usage of one mounted filesystem.
type Mountpoint struct {
	mountPoint string
	device     string
	fsType     string
	meta       Metadata
	table      *state.Table

	sampler usage.Sampler
	events  Emitter

	mu        sync.RWMutex
	value     float64
	current   *state.Band
	sampledAt int64
}

func NewMountpoint(spec MountpointSpec, opts Options) *Mountpoint {
	opts = opts.withDefaults()

	table := spec.Table
	if table == nil {
		table = state.DefaultTable()
	}

	return &Mountpoint{
		mountPoint: spec.MountPoint,
		device:     spec.Device,
		fsType:     spec.FsType,
		meta:       resolveMetadata(spec, opts.WellKnown),
		table:      table,
		sampler:    opts.Sampler,
		events:     opts.Events,
	}
}

func (m *Mountpoint) Name() string {
	return m.meta.Name
}

func (m *Mountpoint) MountPoint() string {
	return m.mountPoint
}

func (m *Mountpoint) Device() string {
	return m.device
}

func (m *Mountpoint) Metadata() Metadata {
	return m.meta
}

func (m *Mountpoint) Value() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

// State returns the current band, nil until the first successful sample.
func (m *Mountpoint) State() *state.Band {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Refresh samples the filesystem and reclassifies it. A failed sample leaves the previous value and
// state in place.
func (m *Mountpoint) Refresh(ctx context.Context) {
	logger := log.WithFields(log.Fields{
		"mp":     m.mountPoint,
		"device": m.device,
	})

	v, err := m.sampler.Sample(ctx, m.mountPoint)
	if err != nil {
		logger.WithError(err).Warn("Unable to sample mount point")
		update := m.update("")
		update.Err = err
		m.emit(EventTypeRefreshFailed, update)
		return
	}

	m.mu.Lock()
	previous := m.current
	m.value = v
	m.current = m.table.Classify(v)
	m.sampledAt = utils.NowTimestampMillis()
	changed := previous != m.current
	m.mu.Unlock()

	logger.WithField("used", fmt.Sprintf("%.2f%%", v)).Debug("Refreshed mount point")

	m.emit(EventTypeRefreshed, m.update(""))
	if changed {
		var previousName string
		if previous != nil {
			previousName = previous.Name
		}
		update := m.update(previousName)
		logger.WithFields(log.Fields{
			"from": previousName,
			"to":   update.Record.State,
		}).Debug("Mount point state changed")
		m.emit(EventTypeStateChanged, update)
	}
}

func (m *Mountpoint) emit(eventType string, update *Update) {
	if m.events == nil {
		return
	}
	if err := m.events.Emit(utils.NewEvent(eventType, update)); err != nil {
		log.WithFields(log.Fields{
			"mp":    m.mountPoint,
			"event": eventType,
		}).WithError(err).Warn("Event consumer failed")
	}
}

func (m *Mountpoint) update(previous string) *Update {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u := &Update{
		Record:        m.exportLocked(),
		Level:         state.LevelUndefined,
		PreviousState: previous,
	}
	if m.current != nil {
		u.Level = m.current.Level
	}
	return u
}

// String renders the last sampled value with two decimals.
func (m *Mountpoint) String() string {
	return fmt.Sprintf("%.2f%%", m.Value())
}

func (m *Mountpoint) Export() protocol.DiskRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exportLocked()
}

func (m *Mountpoint) exportLocked() protocol.DiskRecord {
	rec := protocol.DiskRecord{
		Name:       m.meta.Name,
		Label:      m.meta.Label,
		Summary:    m.meta.Summary,
		Icon:       m.meta.Icon,
		Level:      state.LevelUndefined.String(),
		Used:       fmt.Sprintf("%.2f%%", m.value),
		Value:      m.value,
		MountPoint: m.mountPoint,
		Device:     m.device,
		FsType:     m.fsType,
		Timestamp:  m.sampledAt,
	}
	if m.current != nil {
		rec.State = m.current.Name
		rec.Level = m.current.Level.String()
		rec.Message = state.Expand(m.current.Summary, m.templateVars())
	}
	return rec
}

func (m *Mountpoint) templateVars() map[string]string {
	return map[string]string{
		"name":    m.meta.Name,
		"label":   m.meta.Label,
		"summary": m.meta.Summary,
		"mp":      m.mountPoint,
		"device":  m.device,
		"fstype":  m.fsType,
		"used":    fmt.Sprintf("%.2f%%", m.value),
		"value":   fmt.Sprintf("%.2f", m.value),
	}
}
