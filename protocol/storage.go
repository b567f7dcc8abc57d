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

package protocol

import (
	"github.com/racker/rackspace-monitoring-storage/utils"
)

// DiskRecord is the exported view of one monitored mount point.
type DiskRecord struct {
	Name       string  `json:"name"`
	Label      string  `json:"label"`
	Summary    string  `json:"summary"`
	Icon       string  `json:"icon"`
	State      string  `json:"state"`
	Level      string  `json:"level"`
	Message    string  `json:"message"`
	Used       string  `json:"used"`
	Value      float64 `json:"value"`
	MountPoint string  `json:"mp"`
	Device     string  `json:"device"`
	FsType     string  `json:"fstype"`
	Timestamp  int64   `json:"timestamp"`
}

type StorageResult struct {
	Name      string       `json:"name"`
	Label     string       `json:"label"`
	Icon      string       `json:"icon"`
	Disks     []DiskRecord `json:"disks"`
	Timestamp int64        `json:"timestamp"`
}

// Disk returns the record named name. Display names are matched first, then mount points, then the
// identifier form of mount points ("-" for "/", "srv_www" for "/srv/www").
func (r *StorageResult) Disk(name string) (DiskRecord, bool) {
	matchers := []func(d DiskRecord) bool{
		func(d DiskRecord) bool { return d.Name == name },
		func(d DiskRecord) bool { return d.MountPoint == name },
		func(d DiskRecord) bool { return utils.PathIdentifier(d.MountPoint) == name },
	}
	for _, matches := range matchers {
		for _, d := range r.Disks {
			if matches(d) {
				return d, true
			}
		}
	}
	return DiskRecord{}, false
}
