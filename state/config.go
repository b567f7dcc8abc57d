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

package state

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/racker/rackspace-monitoring-storage/config"
	log "github.com/sirupsen/logrus"
)

const StateNodeName = "state"

// BandsFromNode reads the <state/> children of node. It returns nil, without error, when node
// declares no states.
func BandsFromNode(node config.Node) ([]Band, error) {
	if node == nil {
		return nil, nil
	}
	children := node.Children(StateNodeName)
	if len(children) == 0 {
		return nil, nil
	}

	bands := make([]Band, 0, len(children))
	for i, child := range children {
		b := Band{
			Name:    strings.TrimSpace(config.AttributeString(child, "name", "")),
			Summary: config.AttributeString(child, "summary", ""),
			Body:    config.AttributeString(child, "body", ""),
		}
		if b.Name == "" {
			return nil, errors.WithStack(config.NewBadConfig("state #%d has no name", i+1))
		}

		var err error
		if b.From, err = boundFromNode(child, b.Name, "from", "from-value"); err != nil {
			return nil, err
		}
		if b.To, err = boundFromNode(child, b.Name, "to", "to-value"); err != nil {
			return nil, err
		}

		b.Level = LevelUnimportant
		if lvl, ok := child.Attribute("level"); ok {
			if b.Level, err = ParseLevel(lvl); err != nil {
				return nil, errors.Wrapf(err, "state %q", b.Name)
			}
		}
		bands = append(bands, b)
	}
	return bands, nil
}

func boundFromNode(node config.Node, stateName string, names ...string) (float64, error) {
	for _, name := range names {
		v, ok, err := config.AttributeFloat(node, name)
		if err != nil {
			return 0, errors.WithStack(config.NewBadConfig("state %q: %v", stateName, err))
		}
		if ok {
			return v, nil
		}
	}
	return 0, errors.WithStack(config.NewBadConfig("state %q is missing the %q attribute", stateName, names[0]))
}

// TableFromNode validates the declared states of node, or falls back to DefaultTable when none
// are declared.
func TableFromNode(node config.Node) (*Table, error) {
	bands, err := BandsFromNode(node)
	if err != nil {
		return nil, err
	}
	if bands == nil {
		log.Debug("Using default states")
		return DefaultTable(), nil
	}
	return NewTable(bands)
}
