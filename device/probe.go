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
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultSysfsRoot   = "/sys/class/block"
	DefaultUdevRoot    = "/run/udev/data"
	DefaultDevRoot     = "/dev"
	DefaultLockTimeout = 5 * time.Second
)

// Iterator walks the devices of one probe. It is lazy and cannot be rewound: once Next has
// returned false, or Close was called, a new probe is needed.
type Iterator interface {
	Next() bool
	Device() Device
	Err() error
	Close() error
}

type Prober interface {
	Probe(ctx context.Context) (Iterator, error)
}

// ProbeUnavailableError means the device cache could not be acquired. A discovery pass cannot
// continue without it.
type ProbeUnavailableError struct {
	LockFile string
	Err      error
}

func (e *ProbeUnavailableError) Error() string {
	return fmt.Sprintf("device cache %s unavailable: %v", e.LockFile, e.Err)
}

func (e *ProbeUnavailableError) Unwrap() error {
	return e.Err
}

func IsProbeUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*ProbeUnavailableError)
	return ok
}

// UdevProber enumerates the kernel block class and identifies each entry from the udev database.
type UdevProber struct {
	SysfsRoot string
	UdevRoot  string
	DevRoot   string

	// LockFile is held exclusively for as long as an Iterator is open.
	LockFile    string
	LockTimeout time.Duration
}

func NewUdevProber(lockFile string, lockTimeout time.Duration) *UdevProber {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &UdevProber{
		SysfsRoot:   DefaultSysfsRoot,
		UdevRoot:    DefaultUdevRoot,
		DevRoot:     DefaultDevRoot,
		LockFile:    lockFile,
		LockTimeout: lockTimeout,
	}
}

// Collect drains it into a slice and closes it.
func Collect(it Iterator) ([]Device, error) {
	defer it.Close()

	var devices []Device
	for it.Next() {
		devices = append(devices, it.Device())
	}
	return devices, it.Err()
}
