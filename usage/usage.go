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

// Package usage samples the space utilization of mounted filesystems.
package usage

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
)

const DefaultTimeout = 10 * time.Second

type Sampler interface {
	// Sample returns the used percentage of the filesystem mounted at mountPoint, within [0,100].
	Sample(ctx context.Context, mountPoint string) (float64, error)
}

type UnavailableMountError struct {
	MountPoint string
	Err        error
}

func (e *UnavailableMountError) Error() string {
	return fmt.Sprintf("mount point %s unavailable: %v", e.MountPoint, e.Err)
}

func (e *UnavailableMountError) Unwrap() error {
	return e.Err
}

func IsUnavailableMount(err error) bool {
	_, ok := errors.Cause(err).(*UnavailableMountError)
	return ok
}

var ErrZeroCapacity = errors.New("filesystem reports zero capacity")

// Percent computes 100 * (total - free) / total, clamped into [0,100].
func Percent(total, free uint64) (float64, error) {
	if total == 0 {
		return 0, ErrZeroCapacity
	}
	if free >= total {
		return 0, nil
	}
	pct := 100 * float64(total-free) / float64(total)
	return math.Min(100, math.Max(0, pct)), nil
}

type statFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

type statResult struct {
	usage *disk.UsageStat
	err   error
}

type DiskSampler struct {
	Timeout time.Duration

	stat statFunc

	// pending holds the statfs calls still running per mount point, including abandoned ones.
	mu      sync.Mutex
	pending map[string]chan statResult
}

func NewDiskSampler(timeout time.Duration) *DiskSampler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DiskSampler{
		Timeout: timeout,
		stat:    disk.UsageWithContext,
	}
}

// Stat returns the raw filesystem statistics for mountPoint. A statfs that outlives Timeout
// is abandoned and reported as an UnavailableMountError. While an abandoned statfs of the same
// mount point is still blocked, Stat fails immediately instead of issuing another one.
func (s *DiskSampler) Stat(ctx context.Context, mountPoint string) (*disk.UsageStat, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	done, err := s.start(mountPoint)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go s.run(ctx, mountPoint, done)

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &UnavailableMountError{MountPoint: mountPoint, Err: r.err}
		}
		return r.usage, nil
	case <-ctx.Done():
		return nil, &UnavailableMountError{
			MountPoint: mountPoint,
			Err:        errors.Wrapf(ctx.Err(), "statfs did not complete within %v", timeout),
		}
	}
}

// start reserves the single statfs slot of mountPoint.
func (s *DiskSampler) start(mountPoint string) (chan statResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.pending[mountPoint]; busy {
		return nil, &UnavailableMountError{
			MountPoint: mountPoint,
			Err:        errors.New("previous statfs is still pending"),
		}
	}
	if s.pending == nil {
		s.pending = make(map[string]chan statResult)
	}
	done := make(chan statResult, 1)
	s.pending[mountPoint] = done
	return done, nil
}

func (s *DiskSampler) run(ctx context.Context, mountPoint string, done chan statResult) {
	stat := s.stat
	if stat == nil {
		stat = disk.UsageWithContext
	}
	u, err := stat(ctx, mountPoint)

	s.mu.Lock()
	delete(s.pending, mountPoint)
	s.mu.Unlock()

	done <- statResult{usage: u, err: err}
}

// Pending reports whether a statfs of mountPoint is still running.
func (s *DiskSampler) Pending(mountPoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.pending[mountPoint]
	return busy
}

func (s *DiskSampler) Sample(ctx context.Context, mountPoint string) (float64, error) {
	u, err := s.Stat(ctx, mountPoint)
	if err != nil {
		return 0, err
	}
	pct, err := Percent(u.Total, u.Free)
	if err != nil {
		return 0, &UnavailableMountError{MountPoint: mountPoint, Err: err}
	}
	return pct, nil
}
