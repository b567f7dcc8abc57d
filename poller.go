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

package main

import (
	"os"
	"time"

	"github.com/racker/rackspace-monitoring-storage/commands"
	"github.com/racker/rackspace-monitoring-storage/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	pollerCmd = &cobra.Command{
		Use:     "storage-poller",
		Short:   "Monitor the usage of the mounted storage devices",
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initEnv()
		},
	}
	globalFlags struct {
		Debug bool
	}
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC1123,
	})
	log.SetOutput(os.Stderr)
	pollerCmd.PersistentFlags().BoolVar(&globalFlags.Debug, "debug", false, "Enable debug")
}

func initEnv() {
	if globalFlags.Debug {
		log.SetLevel(log.DebugLevel)
	}
}

func main() {
	pollerCmd.AddCommand(
		commands.ServeCmd,
		commands.StatusCmd,
		commands.ProbeCmd,
		commands.VerifyCmd,
	)
	if err := pollerCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
