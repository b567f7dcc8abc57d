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

// Package device discovers block devices, resolves where they are mounted and filters them down
// to the set worth monitoring.
package device

import (
	"github.com/racker/rackspace-monitoring-storage/utils"
)

// Device is one block device seen by a discovery pass. Name is the device node path, for
// example /dev/sda1, and is unique within a pass.
type Device struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	FsType     string `json:"type"`
	MountPoint string `json:"mountpoint,omitempty"`
}

func (d Device) Mounted() bool {
	return d.MountPoint != ""
}

func (d Device) String() string {
	sl := utils.NewStatusLine()
	sl.Add("device", d.Name)
	sl.AddIfSet("label", d.Label)
	sl.AddIfSet("type", d.FsType)
	sl.AddIfSet("mp", d.MountPoint)
	return sl.String()
}
