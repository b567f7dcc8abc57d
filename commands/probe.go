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

package commands

import (
	"context"
	"encoding/json"
	"os"

	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/device"
	"github.com/racker/rackspace-monitoring-storage/utils"
	"github.com/spf13/cobra"
)

var (
	ProbeCmd = &cobra.Command{
		Use:   "probe",
		Short: "List the block devices and the mount points they resolve to",
		Run: func(cmd *cobra.Command, args []string) {
			lockFile, _ := cmd.Flags().GetString("lock")
			mountTable, _ := cmd.Flags().GetString("mounts")
			all, _ := cmd.Flags().GetBool("all")
			ignored, _ := cmd.Flags().GetStringSlice("ignore")

			devices, err := ProbeDevices(context.Background(),
				device.NewUdevProber(lockFile, device.DefaultLockTimeout),
				device.NewMountTable(mountTable))
			if err != nil {
				utils.Die(err, "Failed to probe devices")
			}
			if !all {
				devices = device.Filter(devices, device.NewPolicy(ignored...))
			}

			prettyJson := json.NewEncoder(os.Stdout)
			prettyJson.SetIndent("", "  ")
			if err := prettyJson.Encode(devices); err != nil {
				utils.Die(err, "Failed to format devices")
			}
		},
	}
)

func init() {
	ProbeCmd.Flags().String("lock", config.DefaultProbeLockFile, "Device cache lock file")
	ProbeCmd.Flags().String("mounts", config.DefaultMountTable, "Mount table to resolve mount points from")
	ProbeCmd.Flags().Bool("all", false, "Include unmounted and ignored devices")
	ProbeCmd.Flags().StringSlice("ignore", nil, "Filesystem types to leave out")
}

// ProbeDevices lists every identifiable device with its resolved mount point.
func ProbeDevices(ctx context.Context, prober device.Prober, mounts *device.MountTable) ([]device.Device, error) {
	it, err := prober.Probe(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := device.Collect(it)
	if err != nil {
		return nil, err
	}
	return mounts.Resolve(devices)
}
