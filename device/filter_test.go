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

package device_test

import (
	"testing"

	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/device"
	"github.com/stretchr/testify/assert"
)

func TestPolicyFromNode(t *testing.T) {
	node := config.NewNode("storage", map[string]string{
		"ignore-vfat":  "true",
		"ignore-tmpfs": "false",
		"ignore-SWAP":  "yes",
		"mount-point":  "",
	})

	p := device.PolicyFromNode(node)

	assert.Equal(t, []string{"swap", "vfat"}, p.IgnoredTypes())
	assert.True(t, p.Ignores("vfat"))
	assert.True(t, p.Ignores("VFAT"))
	assert.False(t, p.Ignores("tmpfs"))
	assert.False(t, p.Ignores("ext4"))
	assert.False(t, p.Ignores(""))
}

func TestPolicy_Nil(t *testing.T) {
	var p *device.Policy
	assert.False(t, p.Ignores("vfat"))
	assert.Nil(t, p.IgnoredTypes())
}

func TestFilter(t *testing.T) {
	devices := []device.Device{
		{Name: "/dev/sda1", FsType: "ext4", MountPoint: "/"},
		{Name: "/dev/sda2", FsType: "vfat", MountPoint: "/boot/efi"},
		{Name: "/dev/sda3", FsType: "swap"},
		{Name: "/dev/sdb1", FsType: "xfs", MountPoint: "/home"},
		{Name: "/dev/dm-0", FsType: "xfs", MountPoint: "/home"},
		{Name: "/dev/sdc1", FsType: "", MountPoint: "/srv"},
	}

	got := device.Filter(devices, device.NewPolicy("vfat"))

	assert.Equal(t, []device.Device{
		{Name: "/dev/sda1", FsType: "ext4", MountPoint: "/"},
		{Name: "/dev/sdb1", FsType: "xfs", MountPoint: "/home"},
		{Name: "/dev/sdc1", FsType: "", MountPoint: "/srv"},
	}, got)
}

func TestFilter_IgnoredEvenWhenMounted(t *testing.T) {
	devices := []device.Device{
		{Name: "/dev/sdb1", FsType: "vfat", MountPoint: "/media/usb"},
		{Name: "/dev/sdb2", FsType: "vfat"},
	}
	node := config.NewNode("storage", map[string]string{"ignore-vfat": "true"})

	assert.Empty(t, device.Filter(devices, device.PolicyFromNode(node)))
}

func TestFilter_NilPolicy(t *testing.T) {
	devices := []device.Device{
		{Name: "/dev/sda1", FsType: "ext4", MountPoint: "/"},
		{Name: "/dev/sda2", FsType: "ext4"},
	}
	assert.Equal(t, devices[:1], device.Filter(devices, nil))
}

func TestDevice_String(t *testing.T) {
	d := device.Device{Name: "/dev/sda1", FsType: "ext4", MountPoint: "/"}
	assert.Equal(t, "device=/dev/sda1,type=ext4,mp=/", d.String())
	assert.True(t, d.Mounted())
}
