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

package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/racker/rackspace-monitoring-storage/protocol"
	"github.com/racker/rackspace-monitoring-storage/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskRecord_JSON(t *testing.T) {
	rec := protocol.DiskRecord{
		Name:       "system",
		Label:      "System root",
		Icon:       "drive-harddisk-system",
		State:      "good",
		Level:      "ready",
		Message:    "System root usage is less than 70%",
		Used:       "45.00%",
		Value:      45,
		MountPoint: "/",
		Device:     "/dev/sda1",
		FsType:     "ext4",
		Timestamp:  1000,
	}

	encoded, err := json.Marshal(rec)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &fields))
	assert.Equal(t, "/", fields["mp"])
	assert.Equal(t, "ready", fields["level"])
	assert.Equal(t, "45.00%", fields["used"])
	assert.Equal(t, "ext4", fields["fstype"])
	assert.Equal(t, float64(45), fields["value"])
}

func TestStorageResult_Disk(t *testing.T) {
	result := &protocol.StorageResult{
		Disks: []protocol.DiskRecord{
			{Name: "system", MountPoint: "/"},
			{Name: "home", MountPoint: "/home"},
		},
	}

	d, ok := result.Disk("home")
	require.True(t, ok)
	assert.Equal(t, "/home", d.MountPoint)

	d, ok = result.Disk("/")
	require.True(t, ok)
	assert.Equal(t, "system", d.Name)

	d, ok = result.Disk(utils.RootIdentifier)
	require.True(t, ok)
	assert.Equal(t, "/", d.MountPoint)

	_, ok = result.Disk("root")
	assert.False(t, ok)

	shadowed := &protocol.StorageResult{
		Disks: []protocol.DiskRecord{
			{Name: "system", MountPoint: "/"},
			{Name: "Administrator's home", MountPoint: "/root"},
		},
	}
	d, ok = shadowed.Disk("root")
	require.True(t, ok)
	assert.Equal(t, "/root", d.MountPoint)

	d, ok = shadowed.Disk(utils.RootIdentifier)
	require.True(t, ok)
	assert.Equal(t, "/", d.MountPoint)

	_, ok = result.Disk("tmp")
	assert.False(t, ok)
}
