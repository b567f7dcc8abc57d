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
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MountEntry is one usable line of the mount table.
type MountEntry struct {
	Source     string
	MountPoint string
	FsType     string
}

// MountTable resolves devices against a /proc/mounts style file. The file is re-read on every
// call since mounts change between discoveries.
type MountTable struct {
	Path string
	// Canonical maps a mount source onto the device node it refers to. Nil disables the mapping.
	Canonical func(source string) string
}

func NewMountTable(path string) *MountTable {
	return &MountTable{
		Path:      path,
		Canonical: CanonicalDevice,
	}
}

// CanonicalDevice follows symlinks such as /dev/mapper/* or /dev/disk/by-uuid/* to the device node.
func CanonicalDevice(source string) string {
	if !strings.HasPrefix(source, "/") {
		return source
	}
	resolved, err := filepath.EvalSymlinks(source)
	if err != nil {
		return source
	}
	return resolved
}

func (mt *MountTable) Resolve(devices []Device) ([]Device, error) {
	f, err := os.Open(mt.Path)
	if err != nil {
		return nil, errors.Wrap(err, "opening mount table")
	}
	defer f.Close()

	return mt.ResolveReader(f, devices)
}

// ResolveReader returns a copy of devices with MountPoint set from the first line of r whose
// source is the device. Devices without a line are returned unmounted.
func (mt *MountTable) ResolveReader(r io.Reader, devices []Device) ([]Device, error) {
	entries, err := ParseMounts(r)
	if err != nil {
		return nil, err
	}

	canonical := make([]string, len(entries))
	for i, e := range entries {
		canonical[i] = e.Source
		if mt.Canonical != nil {
			canonical[i] = mt.Canonical(e.Source)
		}
	}

	resolved := make([]Device, len(devices))
	for i, dev := range devices {
		dev.MountPoint = ""
		for j, e := range entries {
			if e.Source == dev.Name || canonical[j] == dev.Name {
				dev.MountPoint = e.MountPoint
				log.WithFields(log.Fields{
					"device": dev.Name,
					"label":  dev.Label,
					"mp":     dev.MountPoint,
				}).Info("Using mount point")
				break
			}
		}
		resolved[i] = dev
	}
	return resolved, nil
}

// Lookup returns the entry mounted at mountPoint. Later entries shadow earlier ones, as they do in
// the kernel's view of an overmounted path.
func (mt *MountTable) Lookup(mountPoint string) (MountEntry, bool, error) {
	f, err := os.Open(mt.Path)
	if err != nil {
		return MountEntry{}, false, errors.Wrap(err, "opening mount table")
	}
	defer f.Close()

	entries, err := ParseMounts(f)
	if err != nil {
		return MountEntry{}, false, err
	}

	var found MountEntry
	ok := false
	for _, e := range entries {
		if e.MountPoint == mountPoint {
			found, ok = e, true
		}
	}
	return found, ok, nil
}

// ParseMounts reads the whole table. Lines without a mount point are skipped.
func ParseMounts(r io.Reader) ([]MountEntry, error) {
	var entries []MountEntry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			log.WithFields(log.Fields{
				"line":    lineNo,
				"content": scanner.Text(),
			}).Debug("Skipping malformed mount entry")
			continue
		}
		e := MountEntry{
			Source:     unescapeMountField(fields[0]),
			MountPoint: unescapeMountField(fields[1]),
		}
		if len(fields) > 2 {
			e.FsType = fields[2]
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading mount table")
	}
	return entries, nil
}

// unescapeMountField decodes the \ooo octal escapes the kernel writes for blanks and backslashes.
func unescapeMountField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
