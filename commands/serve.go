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

// serve
package commands

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/racker/rackspace-monitoring-storage/config"
	"github.com/racker/rackspace-monitoring-storage/poller"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFilePath string
	envFilePath    string
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start the service",
		Long:  "Monitor the storage devices and serve their state until interrupted",
		Run:   serveCmdRun,
	}
)

func init() {
	ServeCmd.Flags().StringVar(&configFilePath, "config", "", "Path to a file containing the config, used in "+config.DefaultConfigPathLinux)
	ServeCmd.Flags().StringVar(&envFilePath, "env-file", ".env", "Optional file of environment overrides")
}

// LoadEnvFile applies the variables of filename to the process environment. A missing file is not an error.
func LoadEnvFile(filename string) error {
	if filename == "" {
		return nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(filename); err != nil {
		return err
	}
	log.WithField("file", filename).Debug("Loaded environment overrides")
	return nil
}

func serveCmdRun(cmd *cobra.Command, args []string) {
	if err := LoadEnvFile(envFilePath); err != nil {
		log.WithError(err).WithField("file", envFilePath).Warn("Unable to load environment overrides")
	}
	poller.Run(configFilePath)
}
