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

package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/device"
	"github.com/racker/rackspace-monitoring-storage/storage"
	"github.com/racker/rackspace-monitoring-storage/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIterator struct {
	devices []device.Device
	pos     int
	closed  bool
}

func (it *staticIterator) Next() bool {
	if it.closed || it.pos >= len(it.devices) {
		it.closed = true
		return false
	}
	it.pos++
	return true
}

func (it *staticIterator) Device() device.Device {
	return it.devices[it.pos-1]
}

func (it *staticIterator) Err() error {
	return nil
}

func (it *staticIterator) Close() error {
	it.closed = true
	return nil
}

type staticProber struct {
	devices []device.Device
	err     error
	probes  int
}

func (p *staticProber) Probe(ctx context.Context) (device.Iterator, error) {
	p.probes++
	if p.err != nil {
		return nil, p.err
	}
	return &staticIterator{devices: p.devices}, nil
}

func writeMounts(t *testing.T, lines ...string) *device.MountTable {
	path := filepath.Join(t.TempDir(), "mounts")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return &device.MountTable{Path: path}
}

func standardProber() *staticProber {
	return &staticProber{
		devices: []device.Device{
			{Name: "/dev/sda1", Label: "", FsType: "ext4"},
			{Name: "/dev/sda2", Label: "EFI", FsType: "vfat"},
			{Name: "/dev/sda3", FsType: "swap"},
			{Name: "/dev/sdb1", Label: "HOME", FsType: "xfs"},
			{Name: "/dev/sdc1", Label: "BACKUP", FsType: "ext4"},
		},
	}
}

func standardMounts(t *testing.T) *device.MountTable {
	return writeMounts(t,
		"/dev/sda1 / ext4 rw,relatime 0 0",
		"proc /proc proc rw 0 0",
		"/dev/sda2 /boot/efi vfat rw 0 0",
		"/dev/sdb1 /home xfs rw 0 0",
		"/dev/sdc1 /mnt/backup ext4 rw 0 0",
	)
}

func TestNewContainer_Discovery(t *testing.T) {
	prober := standardProber()
	node := config.NewNode("storage", map[string]string{"ignore-vfat": "true"})

	c, err := storage.NewContainer(context.Background(), node, storage.Options{
		Prober:     prober,
		MountTable: standardMounts(t),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, prober.probes)

	var mps, names []string
	for _, child := range c.Children() {
		mps = append(mps, child.MountPoint())
		names = append(names, child.Name())
	}
	assert.Equal(t, []string{"/", "/home", "/mnt/backup"}, mps)
	assert.Equal(t, []string{"system", "home", "BACKUP"}, names)

	home, ok := c.Lookup("home")
	require.True(t, ok)
	assert.Equal(t, "User's homes", home.Metadata().Label)
	assert.Equal(t, "user-home", home.Metadata().Icon)
	assert.Equal(t, "/dev/sdb1", home.Device())

	backup, ok := c.Lookup("/mnt/backup")
	require.True(t, ok)
	assert.Equal(t, "BACKUP", backup.Name())

	assert.Len(t, c.Agents(), 3)
	assert.Equal(t, storage.ContainerName, c.Name())
}

func TestNewContainer_DiscoveryWithoutIgnore(t *testing.T) {
	c, err := storage.NewContainer(context.Background(), config.NewNode("storage", nil), storage.Options{
		Prober:     standardProber(),
		MountTable: standardMounts(t),
	})
	require.NoError(t, err)
	assert.Len(t, c.Children(), 4)
}

func TestNewContainer_DiscoveryConfiguredIgnore(t *testing.T) {
	node := config.NewNode("storage", map[string]string{"ignore-vfat": "true"})

	c, err := storage.NewContainer(context.Background(), node, storage.Options{
		Prober:     standardProber(),
		MountTable: standardMounts(t),
		Ignore:     []string{"XFS"},
	})
	require.NoError(t, err)

	var mps []string
	for _, child := range c.Children() {
		mps = append(mps, child.MountPoint())
	}
	assert.Equal(t, []string{"/", "/mnt/backup"}, mps)
}

func TestNewContainer_DiscoveryMetadata(t *testing.T) {
	node := config.NewNode("storage", map[string]string{
		"name":  "disks",
		"label": "Local disks",
	})

	c, err := storage.NewContainer(context.Background(), node, storage.Options{
		Prober:     &staticProber{},
		MountTable: writeMounts(t),
	})
	require.NoError(t, err)
	assert.Empty(t, c.Children())
	assert.Equal(t, storage.Metadata{
		Name:  "disks",
		Label: "Local disks",
		Icon:  storage.ContainerIcon,
	}, c.Metadata())
}

func TestNewContainer_Explicit(t *testing.T) {
	prober := standardProber()
	node := config.NewNode("storage", map[string]string{
		"mount-point": "/home",
		"summary":     "Shared homes",
	},
		config.NewNode("state", map[string]string{"name": "ok", "from": "0", "to": "95", "level": "ready"}),
		config.NewNode("state", map[string]string{"name": "nok", "from": "95", "to": "100", "level": "critical"}),
	)

	c, err := storage.NewContainer(context.Background(), node, storage.Options{
		Prober:     prober,
		MountTable: standardMounts(t),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, prober.probes)

	require.Len(t, c.Children(), 1)
	home := c.Children()[0]
	assert.Equal(t, "/home", home.MountPoint())
	assert.Equal(t, "/dev/sdb1", home.Device())
	assert.Equal(t, "home", home.Name())
	assert.Equal(t, "Shared homes", home.Metadata().Summary)

	assert.Equal(t, 2, c.Table().Len())
	assert.Equal(t, storage.ContainerName, c.Name())
}

func TestNewContainer_ExplicitUnknownMountPoint(t *testing.T) {
	node := config.NewNode("storage", map[string]string{"mount-point": "/srv/data"})

	c, err := storage.NewContainer(context.Background(), node, storage.Options{
		MountTable: &device.MountTable{Path: filepath.Join(t.TempDir(), "missing")},
	})
	require.NoError(t, err)
	require.Len(t, c.Children(), 1)
	assert.Equal(t, "data", c.Children()[0].Name())
	assert.Empty(t, c.Children()[0].Device())
}

func TestNewContainer_Fatal(t *testing.T) {
	tests := []struct {
		name    string
		node    *config.MemNode
		prober  device.Prober
		mounts  func(t *testing.T) *device.MountTable
		checker func(t *testing.T, err error)
	}{
		{
			name: "Gap between states",
			node: config.NewNode("storage", nil,
				config.NewNode("state", map[string]string{"name": "low", "from": "0", "to": "50", "level": "ready"}),
				config.NewNode("state", map[string]string{"name": "high", "from": "60", "to": "100", "level": "error"}),
			),
			prober: standardProber(),
			mounts: standardMounts,
			checker: func(t *testing.T, err error) {
				assert.True(t, config.IsBadConfig(err))
			},
		},
		{
			name: "Bad states in explicit mode",
			node: config.NewNode("storage", map[string]string{"mount-point": "/"},
				config.NewNode("state", map[string]string{"name": "low", "from": "0", "to": "abc", "level": "ready"}),
			),
			prober: standardProber(),
			mounts: standardMounts,
			checker: func(t *testing.T, err error) {
				assert.True(t, config.IsBadConfig(err))
			},
		},
		{
			name: "Probe unavailable",
			node: config.NewNode("storage", nil),
			prober: &staticProber{err: &device.ProbeUnavailableError{
				LockFile: "/run/probe.lock",
				Err:      errors.New("timeout"),
			}},
			mounts: standardMounts,
			checker: func(t *testing.T, err error) {
				assert.True(t, device.IsProbeUnavailable(err))
			},
		},
		{
			name:   "Mount table unreadable",
			node:   config.NewNode("storage", nil),
			prober: standardProber(),
			mounts: func(t *testing.T) *device.MountTable {
				return &device.MountTable{Path: filepath.Join(t.TempDir(), "missing")}
			},
			checker: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "resolving mount points")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := storage.NewContainer(context.Background(), tt.node, storage.Options{
				Prober:     tt.prober,
				MountTable: tt.mounts(t),
			})
			require.Error(t, err)
			assert.Nil(t, c)
			tt.checker(t, err)
		})
	}
}

func TestContainer_RefreshAndExport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	fixedTimestamp(t, 5000)

	sampler := usage.NewMockSampler(ctrl)
	sampler.EXPECT().Sample(gomock.Any(), "/").Return(45.0, nil)
	sampler.EXPECT().Sample(gomock.Any(), "/home").Return(91.0, nil)
	sampler.EXPECT().Sample(gomock.Any(), "/mnt/backup").Return(0.0, &usage.UnavailableMountError{MountPoint: "/mnt/backup"})

	c, err := storage.NewContainer(context.Background(),
		config.NewNode("storage", map[string]string{"ignore-vfat": "1"}),
		storage.Options{
			Prober:     standardProber(),
			MountTable: standardMounts(t),
			Sampler:    sampler,
		})
	require.NoError(t, err)

	c.Refresh(context.Background())

	result := c.Export()
	assert.Equal(t, "storage", result.Name)
	assert.Equal(t, "Logical disks", result.Label)
	assert.Equal(t, "drive-multidisk", result.Icon)
	assert.Equal(t, int64(5000), result.Timestamp)
	require.Len(t, result.Disks, 3)

	assert.Equal(t, "/", result.Disks[0].MountPoint)
	assert.Equal(t, "good", result.Disks[0].State)
	assert.Equal(t, "ready", result.Disks[0].Level)
	assert.Equal(t, "45.00%", result.Disks[0].Used)

	assert.Equal(t, "/home", result.Disks[1].MountPoint)
	assert.Equal(t, "gt90", result.Disks[1].State)
	assert.Equal(t, "error", result.Disks[1].Level)
	assert.Equal(t, "91.00%", result.Disks[1].Used)
	assert.Equal(t, "home usage is greater than 90%", result.Disks[1].Message)

	assert.Equal(t, "/mnt/backup", result.Disks[2].MountPoint)
	assert.Equal(t, "undefined", result.Disks[2].Level)
}

func TestContainer_RefreshStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sampler := usage.NewMockSampler(ctrl)

	c, err := storage.NewContainer(context.Background(), nil, storage.Options{
		Prober:     standardProber(),
		MountTable: standardMounts(t),
		Sampler:    sampler,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Refresh(ctx)
}
