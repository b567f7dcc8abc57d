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

//go:build linux

package device

import (
	"bufio"
	"context"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const lockPollInterval = 50 * time.Millisecond

func (p *UdevProber) Probe(ctx context.Context) (Iterator, error) {
	lock, err := acquireCacheLock(ctx, p.LockFile, p.LockTimeout)
	if err != nil {
		return nil, &ProbeUnavailableError{LockFile: p.LockFile, Err: err}
	}

	entries, err := os.ReadDir(p.SysfsRoot)
	if err != nil {
		lock.release()
		return nil, &ProbeUnavailableError{LockFile: p.LockFile, Err: errors.Wrap(err, "listing block devices")}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	log.WithFields(log.Fields{
		"sysfs":   p.SysfsRoot,
		"entries": len(names),
	}).Debug("Probing block devices")

	return &udevIterator{
		prober: p,
		names:  names,
		lock:   lock,
	}, nil
}

type udevIterator struct {
	prober  *UdevProber
	names   []string
	pos     int
	current Device
	lock    *cacheLock
	closed  bool
	err     error
}

func (it *udevIterator) Next() bool {
	if it.closed {
		return false
	}
	for it.pos < len(it.names) {
		name := it.names[it.pos]
		it.pos++
		if dev, ok := it.prober.identify(name); ok {
			it.current = dev
			return true
		}
	}
	it.err = it.Close()
	return false
}

func (it *udevIterator) Device() Device {
	return it.current
}

func (it *udevIterator) Err() error {
	return it.err
}

func (it *udevIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.current = Device{}
	return it.lock.release()
}

// udevRecord holds the properties of one /run/udev/data/b<major>:<minor> file.
type udevRecord struct {
	node       string
	properties map[string]string
}

func (p *UdevProber) identify(name string) (Device, bool) {
	logger := log.WithField("entry", name)

	majMin, err := os.ReadFile(filepath.Join(p.SysfsRoot, name, "dev"))
	if err != nil {
		logger.WithError(err).Debug("Block device has no dev number")
		return Device{}, false
	}

	record, err := readUdevRecord(filepath.Join(p.UdevRoot, "b"+strings.TrimSpace(string(majMin))))
	if err != nil {
		logger.WithError(err).Debug("Block device is not known to udev")
		return Device{}, false
	}

	node := record.node
	if devname := record.properties["DEVNAME"]; devname != "" {
		node = strings.TrimPrefix(devname, "/dev/")
	}
	if node == "" {
		node = name
	}

	// entries whose node vanished are stale, skip them quietly
	if _, err := os.Stat(filepath.Join(p.DevRoot, node)); err != nil {
		logger.WithError(err).Debug("Skipping stale block device")
		return Device{}, false
	}

	dev := Device{
		Name:   path.Join("/dev", node),
		Label:  record.properties["ID_FS_LABEL"],
		FsType: record.properties["ID_FS_TYPE"],
	}
	if enc, ok := record.properties["ID_FS_LABEL_ENC"]; ok {
		dev.Label = decodeUdevString(enc)
	}

	if dev.Label != "" {
		log.WithFields(log.Fields{
			"device": dev.Name,
			"label":  dev.Label,
		}).Info("Detected device")
	}
	return dev, true
}

func readUdevRecord(filename string) (*udevRecord, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	record := &udevRecord{properties: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "N:"):
			record.node = line[2:]
		case strings.HasPrefix(line, "E:"):
			kv := strings.SplitN(line[2:], "=", 2)
			if len(kv) == 2 {
				record.properties[kv[0]] = kv[1]
			}
		}
	}
	return record, scanner.Err()
}

// decodeUdevString undoes the \xNN escaping udev applies to *_ENC properties.
func decodeUdevString(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) && s[i+1] == 'x' {
			if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

type cacheLock struct {
	f *os.File
}

// acquireCacheLock polls for an exclusive flock on filename until timeout or ctx expiry.
func acquireCacheLock(ctx context.Context, filename string, timeout time.Duration) (*cacheLock, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, errors.Wrap(err, "creating lock directory")
	}
	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "opening lock file")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &cacheLock{f: f}, nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EINTR {
			f.Close()
			return nil, errors.Wrap(err, "locking device cache")
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, errors.Wrap(ctx.Err(), "waiting for device cache")
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *cacheLock) release() error {
	defer l.f.Close()
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}
