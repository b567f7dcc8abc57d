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

package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/racker/rackspace-monitoring-storage/commands"
	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/device"
	"github.com/racker/rackspace-monitoring-storage/protocol"
	"github.com/racker/rackspace-monitoring-storage/storage"
	"github.com/racker/rackspace-monitoring-storage/usage"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStatus(t *testing.T) {
	info := &host.InfoStat{Hostname: "db01", Platform: "ubuntu", PlatformVersion: "22.04", BootTime: 1}
	rows := []commands.StatusRow{
		{
			Record: protocol.DiskRecord{Name: "system", MountPoint: "/", Device: "/dev/sda1", FsType: "ext4",
				State: "good", Level: "ready", Used: "45.00%", Message: "system usage is less than 70%"},
			Total: 10 << 30, Free: 5 << 30, Sized: true,
		},
		{
			Record: protocol.DiskRecord{Name: "home", MountPoint: "/home", Device: "/dev/sdb1", FsType: "xfs",
				State: "gt90", Level: "error", Used: "91.00%", Message: "home usage is greater than 90%"},
		},
	}

	out := commands.RenderStatus(info, rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Contains(t, lines[0], "db01")
	assert.Contains(t, lines[0], "ubuntu 22.04")
	assert.Contains(t, out, "10 GiB")
	assert.Contains(t, out, "5.0 GiB")
	assert.Contains(t, out, "45.00%")
	assert.Contains(t, out, "gt90")
	assert.Contains(t, out, "home usage is greater than 90%")
	assert.NotContains(t, out, "system usage is less than 70%")

	var header string
	for _, l := range lines {
		if strings.Contains(l, "NAME") {
			header = l
		}
	}
	require.NotEmpty(t, header)
	for _, l := range lines {
		if strings.HasPrefix(l, "system") || strings.HasPrefix(l, "home ") {
			assert.Equal(t, strings.Index(header, "MOUNT"), strings.Index(l, "/"), l)
		}
	}
}

func TestRenderStatus_NoHost(t *testing.T) {
	out := commands.RenderStatus(nil, nil)
	assert.True(t, strings.HasPrefix(out, "NAME"), out)
}

func TestCollectStatus(t *testing.T) {
	c, err := storage.NewContainer(context.Background(),
		config.NewNode("storage", map[string]string{"mount-point": t.TempDir()}),
		storage.Options{MountTable: &device.MountTable{Path: filepath.Join(t.TempDir(), "mounts")}})
	require.NoError(t, err)

	rows := commands.CollectStatus(context.Background(), c, usage.NewDiskSampler(0))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Sized)
	assert.NotZero(t, rows[0].Total)
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(config.EnvBindAddr+"=127.0.0.1:9999\n"), 0644))
	t.Setenv(config.EnvBindAddr, "")
	os.Unsetenv(config.EnvBindAddr)

	require.NoError(t, commands.LoadEnvFile(envFile))
	assert.Equal(t, "127.0.0.1:9999", os.Getenv(config.EnvBindAddr))

	assert.NoError(t, commands.LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, commands.LoadEnvFile(""))
}

type fixedProber struct {
	devices []device.Device
}

type fixedIterator struct {
	devices []device.Device
	pos     int
}

func (it *fixedIterator) Next() bool {
	if it.pos >= len(it.devices) {
		return false
	}
	it.pos++
	return true
}

func (it *fixedIterator) Device() device.Device { return it.devices[it.pos-1] }
func (it *fixedIterator) Err() error            { return nil }
func (it *fixedIterator) Close() error          { return nil }

func (p *fixedProber) Probe(ctx context.Context) (device.Iterator, error) {
	return &fixedIterator{devices: p.devices}, nil
}

func TestProbeDevices(t *testing.T) {
	mounts := filepath.Join(t.TempDir(), "mounts")
	require.NoError(t, os.WriteFile(mounts, []byte("/dev/sda1 / ext4 rw 0 0\n"), 0644))

	devices, err := commands.ProbeDevices(context.Background(),
		&fixedProber{devices: []device.Device{{Name: "/dev/sda1"}, {Name: "/dev/sdb1"}}},
		device.NewMountTable(mounts))
	require.NoError(t, err)
	assert.Equal(t, []device.Device{
		{Name: "/dev/sda1", MountPoint: "/"},
		{Name: "/dev/sdb1"},
	}, devices)
}
