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

package storage

import (
	"strings"
)

// WellKnownMount supplies display metadata for conventional mount points.
type WellKnownMount struct {
	Path    string
	Name    string
	Icon    string
	Label   string
	Summary string
}

// WellKnownMounts is the compiled-in table handed to NewContainer by default. Callers must not modify it.
var WellKnownMounts = []WellKnownMount{
	{Path: "/", Name: "system", Icon: "drive-harddisk-system", Label: "System root"},
	{Path: "/home", Name: "home", Icon: "user-home", Label: "User's homes", Summary: "Home directory of the users"},
	{Path: "/bin", Name: "bin", Icon: "applications-system", Label: "Binary programs"},
	{Path: "/boot", Name: "boot", Label: "Boot-up process"},
	{Path: "/dev", Name: "dev", Label: "Hardware devices"},
	{Path: "/etc", Name: "etc", Label: "Configuration files"},
	{Path: "/lib", Name: "lib", Label: "Kernel modules and library images"},
	{Path: "/media", Name: "media", Icon: "drive-removable-media", Label: "Removable devices"},
	{Path: "/mnt", Name: "mnt", Label: "Temporary mount"},
	{Path: "/opt", Name: "opt", Label: "Third party application"},
	{Path: "/proc", Name: "proc"},
	{Path: "/root", Name: "root", Icon: "user-home", Label: "Root user home directory"},
	{Path: "/run", Name: "run"},
	{Path: "/sbin", Name: "sbin", Label: "Sysadmin binaries"},
	{Path: "/srv/www", Name: "www", Icon: "folder-publicshare", Label: "HTTP server files"},
	{Path: "/srv", Name: "srv", Label: "Service related files"},
	{Path: "/sys", Name: "sys"},
	{Path: "/tmp", Name: "tmp", Label: "System temporary files"},
	{Path: "/usr", Name: "usr", Label: "Second level programs"},
	{Path: "/var", Name: "var", Label: "Variable files"},
}

// LookupWellKnown matches mountPoint exactly, ignoring case.
func LookupWellKnown(table []WellKnownMount, mountPoint string) (WellKnownMount, bool) {
	for _, wk := range table {
		if strings.EqualFold(wk.Path, mountPoint) {
			return wk, true
		}
	}
	return WellKnownMount{}, false
}
