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

// Package storage builds the monitored mount points and the container that groups them.
package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/device"
	"github.com/racker/rackspace-monitoring-storage/protocol"
	"github.com/racker/rackspace-monitoring-storage/state"
	"github.com/racker/rackspace-monitoring-storage/usage"
	"github.com/racker/rackspace-monitoring-storage/utils"
	log "github.com/sirupsen/logrus"
)

const (
	ContainerName  = "storage"
	ContainerIcon  = "drive-multidisk"
	ContainerLabel = "Logical disks"

	MountPointAttribute = "mount-point"
)

// Agent is the narrow view the scheduler and the export layer need of a monitored mount point.
type Agent interface {
	Name() string
	Refresh(ctx context.Context)
	Export() protocol.DiskRecord
}

type Emitter interface {
	Emit(evt utils.Event) error
}

// Options carries the collaborators shared by every mount point of a container. Zero values are
// replaced by the platform defaults.
type Options struct {
	Prober     device.Prober
	MountTable *device.MountTable
	Sampler    usage.Sampler
	Events     Emitter
	WellKnown  []WellKnownMount
	// Ignore lists filesystem types left out of discovery in addition to the node's policy.
	Ignore []string
}

func (opts Options) withDefaults() Options {
	if opts.Prober == nil {
		opts.Prober = device.NewUdevProber(config.DefaultProbeLockFile, device.DefaultLockTimeout)
	}
	if opts.MountTable == nil {
		opts.MountTable = device.NewMountTable(config.DefaultMountTable)
	}
	if opts.Sampler == nil {
		opts.Sampler = usage.NewDiskSampler(usage.DefaultTimeout)
	}
	if opts.WellKnown == nil {
		opts.WellKnown = WellKnownMounts
	}
	return opts
}

// Container owns the mount points selected at construction time. The set never changes afterwards.
type Container struct {
	meta     Metadata
	table    *state.Table
	children []*Mountpoint
}

// NewContainer monitors the single mount point named by the mount-point attribute of node or, when
// there is none, every eligible device found by probing. Invalid state declarations, an unavailable
// device cache and an unreadable mount table are fatal.
func NewContainer(ctx context.Context, node config.Node, opts Options) (*Container, error) {
	opts = opts.withDefaults()

	if node == nil {
		node = config.NewNode(ContainerName, nil)
	}

	table, err := state.TableFromNode(node)
	if err != nil {
		return nil, errors.Wrap(err, "loading states")
	}

	c := &Container{
		meta: Metadata{
			Name:  ContainerName,
			Label: ContainerLabel,
			Icon:  ContainerIcon,
		},
		table: table,
	}

	overrides := metadataFromNode(node.Attributes())
	mountPoint := strings.TrimSpace(config.AttributeString(node, MountPointAttribute, ""))

	if mountPoint != "" {
		spec := MountpointSpec{
			MountPoint: mountPoint,
			Overrides:  overrides,
			Table:      table,
		}
		if entry, ok, err := opts.MountTable.Lookup(mountPoint); err != nil {
			log.WithField("mp", mountPoint).WithError(err).Debug("Unable to find device of mount point")
		} else if ok {
			spec.Device = entry.Source
			spec.FsType = entry.FsType
		}
		c.add(NewMountpoint(spec, opts))
		return c, nil
	}

	c.meta = c.meta.override(overrides)

	devices, err := discover(ctx, node, opts)
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		c.add(NewMountpoint(MountpointSpec{
			MountPoint:  dev.MountPoint,
			Device:      dev.Name,
			FsType:      dev.FsType,
			DeviceLabel: dev.Label,
			Table:       table,
		}, opts))
	}

	if len(c.children) == 0 {
		log.Warn("No storage devices to monitor")
	}
	return c, nil
}

func discover(ctx context.Context, node config.Node, opts Options) ([]device.Device, error) {
	it, err := opts.Prober.Probe(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "probing devices")
	}
	probed, err := device.Collect(it)
	if err != nil {
		return nil, errors.Wrap(err, "probing devices")
	}

	resolved, err := opts.MountTable.Resolve(probed)
	if err != nil {
		return nil, errors.Wrap(err, "resolving mount points")
	}

	policy := device.PolicyFromNode(node)
	for _, fsType := range opts.Ignore {
		policy.Ignore(fsType)
	}
	return device.Filter(resolved, policy), nil
}

func (c *Container) add(mp *Mountpoint) {
	log.WithFields(log.Fields{
		"name":   mp.Name(),
		"mp":     mp.MountPoint(),
		"device": mp.Device(),
	}).Info("Monitoring mount point")
	c.children = append(c.children, mp)
}

func (c *Container) Name() string {
	return c.meta.Name
}

func (c *Container) Metadata() Metadata {
	return c.meta
}

// Table is shared by every child.
func (c *Container) Table() *state.Table {
	return c.table
}

func (c *Container) Children() []*Mountpoint {
	children := make([]*Mountpoint, len(c.children))
	copy(children, c.children)
	return children
}

func (c *Container) Agents() []Agent {
	agents := make([]Agent, 0, len(c.children))
	for _, child := range c.children {
		agents = append(agents, child)
	}
	return agents
}

// Lookup finds a child by display name or mount point.
func (c *Container) Lookup(name string) (*Mountpoint, bool) {
	for _, child := range c.children {
		if child.Name() == name || child.MountPoint() == name {
			return child, true
		}
	}
	return nil, false
}

// Refresh refreshes every child in turn.
func (c *Container) Refresh(ctx context.Context) {
	for _, child := range c.children {
		if ctx.Err() != nil {
			return
		}
		child.Refresh(ctx)
	}
}

func (c *Container) Export() *protocol.StorageResult {
	result := &protocol.StorageResult{
		Name:      c.meta.Name,
		Label:     c.meta.Label,
		Icon:      c.meta.Icon,
		Disks:     make([]protocol.DiskRecord, 0, len(c.children)),
		Timestamp: utils.NowTimestampMillis(),
	}
	for _, child := range c.children {
		result.Disks = append(result.Disks, child.Export())
	}
	return result
}
