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

package poller

import (
	"github.com/racker/rackspace-monitoring-storage/state"
	"github.com/racker/rackspace-monitoring-storage/storage"
	"github.com/racker/rackspace-monitoring-storage/utils"
	log "github.com/sirupsen/logrus"
)

// StateLogger reports state changes at a log level matching their severity.
type StateLogger struct {
	Logger log.FieldLogger
}

func NewStateLogger() *StateLogger {
	return &StateLogger{Logger: log.StandardLogger()}
}

func (l *StateLogger) HandleEvent(evt utils.Event) error {
	if evt.Type() != storage.EventTypeStateChanged {
		return nil
	}
	update, ok := evt.Target().(*storage.Update)
	if !ok {
		return nil
	}

	entry := l.Logger.WithFields(log.Fields{
		"name":  update.Record.Name,
		"mp":    update.Record.MountPoint,
		"state": update.Record.State,
		"from":  update.PreviousState,
		"used":  update.Record.Used,
	})

	switch update.Level {
	case state.LevelWarning:
		entry.Warn(update.Record.Message)
	case state.LevelError, state.LevelCritical:
		entry.Error(update.Record.Message)
	default:
		entry.Info(update.Record.Message)
	}
	return nil
}
