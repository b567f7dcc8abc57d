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

	"github.com/racker/rackspace-monitoring-storage/config"
)

// Level is the ordinal severity of a state.
type Level int

const (
	LevelUndefined Level = iota
	LevelUnimportant
	LevelReady
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = [...]string{
	LevelUndefined:   "undefined",
	LevelUnimportant: "unimportant",
	LevelReady:       "ready",
	LevelWarning:     "warning",
	LevelError:       "error",
	LevelCritical:    "critical",
}

var levelAliases = map[string]Level{
	"informational": LevelReady,
	"info":          LevelReady,
	"ok":            LevelReady,
	"warn":          LevelWarning,
	"err":           LevelError,
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return levelNames[LevelUndefined]
	}
	return levelNames[l]
}

// ParseLevel is case-insensitive and also accepts the informational/info/warn/err spellings.
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}
	if l, ok := levelAliases[name]; ok {
		return l, nil
	}
	return LevelUndefined, config.NewBadConfig("unknown level %q", name)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
