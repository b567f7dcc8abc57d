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

// Package state turns a usage percentage into a named, levelled state using an ordered table of
// contiguous bands.
package state

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/racker/rackspace-monitoring-storage/config"
)

const (
	DomainMin = 0.0
	DomainMax = 100.0
)

// Band maps [From, To) onto a named state. The last band of a table also includes To.
type Band struct {
	Name    string
	From    float64
	To      float64
	Level   Level
	Summary string
	Body    string
}

// DefaultBands returns a fresh copy of the built-in four tier table.
func DefaultBands() []Band {
	return []Band{
		{
			Name:    "good",
			From:    0,
			To:      70,
			Level:   LevelReady,
			Summary: "${agent.name} usage is less than 70%",
		},
		{
			Name:    "gt70",
			From:    70,
			To:      90,
			Level:   LevelWarning,
			Summary: "${agent.name} usage is greater than 70%",
		},
		{
			Name:    "gt90",
			From:    90,
			To:      98,
			Level:   LevelError,
			Summary: "${agent.name} usage is greater than 90%",
		},
		{
			Name:    "full",
			From:    98,
			To:      100,
			Level:   LevelError,
			Summary: "${agent.name} is full",
		},
	}
}

// Table is a validated, immutable band table.
type Table struct {
	bands []Band
}

// NewTable validates bands and copies them into a Table. Every failure is a config.BadConfig.
func NewTable(bands []Band) (*Table, error) {
	if len(bands) == 0 {
		return nil, errors.WithStack(config.NewBadConfig("no states declared"))
	}

	names := make(map[string]struct{}, len(bands))
	for i, b := range bands {
		if b.Name == "" {
			return nil, errors.WithStack(config.NewBadConfig("state #%d has no name", i+1))
		}
		if _, dup := names[b.Name]; dup {
			return nil, errors.WithStack(config.NewBadConfig("state %q is declared twice", b.Name))
		}
		names[b.Name] = struct{}{}

		if math.IsNaN(b.From) || math.IsNaN(b.To) || !(b.From < b.To) {
			return nil, errors.WithStack(config.NewBadConfig("state %q has an empty or inverted range [%v,%v]", b.Name, b.From, b.To))
		}
		if b.Level == LevelUndefined {
			return nil, errors.WithStack(config.NewBadConfig("state %q has no level", b.Name))
		}
		if i > 0 && bands[i-1].To != b.From {
			return nil, errors.WithStack(config.NewBadConfig("state %q starts at %v but %q ends at %v",
				b.Name, b.From, bands[i-1].Name, bands[i-1].To))
		}
	}

	if first := bands[0]; first.From != DomainMin {
		return nil, errors.WithStack(config.NewBadConfig("first state %q must start at %v, not %v", first.Name, DomainMin, first.From))
	}
	if last := bands[len(bands)-1]; last.To != DomainMax {
		return nil, errors.WithStack(config.NewBadConfig("last state %q must end at %v, not %v", last.Name, DomainMax, last.To))
	}

	t := &Table{bands: make([]Band, len(bands))}
	copy(t.bands, bands)
	return t, nil
}

// DefaultTable builds the table for DefaultBands.
func DefaultTable() *Table {
	t, err := NewTable(DefaultBands())
	if err != nil {
		panic(err)
	}
	return t
}

// Classify returns the band holding v. Values outside the domain, and NaN, clamp to the nearest
// end of the table.
func (t *Table) Classify(v float64) *Band {
	last := len(t.bands) - 1
	switch {
	case math.IsNaN(v) || v < t.bands[0].From:
		return &t.bands[0]
	case v >= t.bands[last].To:
		return &t.bands[last]
	}
	i := sort.Search(len(t.bands), func(i int) bool {
		return v < t.bands[i].To
	})
	return &t.bands[i]
}

// Lookup finds a band by name.
func (t *Table) Lookup(name string) (*Band, bool) {
	for i := range t.bands {
		if t.bands[i].Name == name {
			return &t.bands[i], true
		}
	}
	return nil, false
}

func (t *Table) Len() int {
	return len(t.bands)
}

// Bands returns a copy of the table contents.
func (t *Table) Bands() []Band {
	bands := make([]Band, len(t.bands))
	copy(bands, t.bands)
	return bands
}
