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

package state_test

import (
	"testing"

	"github.com/racker/rackspace-monitoring-storage/state"
	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	vars := map[string]string{
		"name":  "home",
		"label": "User's homes",
	}
	tests := []struct {
		template string
		expected string
	}{
		{"${agent.name} usage is less than 70%", "home usage is less than 70%"},
		{"{name} is full", "home is full"},
		{"${label} on ${name}", "User's homes on home"},
		{"{nope} stays", "{nope} stays"},
		{"${agent.nope} stays", "${agent.nope} stays"},
		{"no placeholders", "no placeholders"},
		{"unbalanced {name", "unbalanced {name"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			assert.Equal(t, tt.expected, state.Expand(tt.template, vars))
		})
	}
}

func TestExpand_NilVars(t *testing.T) {
	assert.Equal(t, "{name} is full", state.Expand("{name} is full", nil))
}
