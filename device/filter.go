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

package device

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"github.com/racker/rackspace-monitoring-storage/config"
	log "github.com/sirupsen/logrus"
)

const IgnoreAttributePrefix = "ignore-"

// Policy is the set of filesystem types excluded from monitoring.
type Policy struct {
	ignored mapset.Set
}

func NewPolicy(fsTypes ...string) *Policy {
	p := &Policy{ignored: mapset.NewSet()}
	for _, t := range fsTypes {
		p.Ignore(t)
	}
	return p
}

// PolicyFromNode collects every ignore-<type> attribute of node that is set to true.
func PolicyFromNode(node config.Node) *Policy {
	p := NewPolicy()
	for _, attr := range config.AttributesWithPrefix(node, IgnoreAttributePrefix) {
		if config.AttributeBool(node, attr, false) {
			p.Ignore(strings.TrimPrefix(attr, IgnoreAttributePrefix))
		}
	}
	return p
}

func (p *Policy) Ignore(fsType string) {
	fsType = strings.ToLower(strings.TrimSpace(fsType))
	if fsType != "" {
		p.ignored.Add(fsType)
	}
}

func (p *Policy) Ignores(fsType string) bool {
	if p == nil || fsType == "" {
		return false
	}
	return p.ignored.Contains(strings.ToLower(fsType))
}

func (p *Policy) IgnoredTypes() []string {
	if p == nil {
		return nil
	}
	types := make([]string, 0, p.ignored.Cardinality())
	for _, t := range p.ignored.ToSlice() {
		types = append(types, t.(string))
	}
	sort.Strings(types)
	return types
}

// Filter keeps, in order, the mounted devices whose type is not ignored. A mount point already
// claimed by an earlier device is not handed out twice.
func Filter(devices []Device, policy *Policy) []Device {
	kept := make([]Device, 0, len(devices))
	claimed := mapset.NewSet()
	for _, dev := range devices {
		logger := log.WithField("device", dev.Name)
		switch {
		case !dev.Mounted():
			logger.Debug("Ignoring unmounted device")
		case policy.Ignores(dev.FsType):
			logger.WithFields(log.Fields{
				"mp":   dev.MountPoint,
				"type": dev.FsType,
			}).Info("Ignoring filesystem type")
		case claimed.Contains(dev.MountPoint):
			logger.WithField("mp", dev.MountPoint).Warn("Mount point already monitored, ignoring device")
		default:
			claimed.Add(dev.MountPoint)
			kept = append(kept, dev)
		}
	}
	return kept
}
