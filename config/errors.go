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

package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// BadConfig reports a configuration that cannot produce a valid starting state.
type BadConfig struct {
	Details string
}

func (e BadConfig) Error() string {
	return fmt.Sprintf("Bad configuration: %s", e.Details)
}

// NewBadConfig formats the details like fmt.Sprintf.
func NewBadConfig(format string, args ...interface{}) BadConfig {
	return BadConfig{Details: fmt.Sprintf(format, args...)}
}

// IsBadConfig reports whether the cause of err is a BadConfig.
func IsBadConfig(err error) bool {
	_, ok := errors.Cause(err).(BadConfig)
	return ok
}
