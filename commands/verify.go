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

	"github.com/racker/rackspace-monitoring-storage/poller"
	"github.com/racker/rackspace-monitoring-storage/utils"
	"github.com/spf13/cobra"
)

var (
	VerifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Validate the storage definition and sample every mount point once",
		Run: func(cmd *cobra.Command, args []string) {
			configFile, err := cmd.Flags().GetString("config")
			if err != nil {
				utils.Die(err, "Invalid 'config' value")
			}
			cfg, err := poller.LoadConfig(configFile)
			if err != nil {
				utils.Die(err, "Failed to load configuration")
			}
			if definition, _ := cmd.Flags().GetString("definition"); definition != "" {
				cfg.DefinitionFile = definition
			}

			ctx := context.Background()
			container, err := poller.BuildContainer(ctx, cfg, nil)
			if err != nil {
				utils.Die(err, "Invalid storage definition")
			}
			container.Refresh(ctx)

			prettyJson := json.NewEncoder(os.Stdout)
			prettyJson.SetIndent("", "  ")
			if err := prettyJson.Encode(container.Export()); err != nil {
				utils.Die(err, "Failed to format storage state")
			}
		},
	}
)

func init() {
	VerifyCmd.Flags().String("config", "", "Path to the agent configuration file")
	VerifyCmd.Flags().String("definition", "", "The location of a storage definition file, overriding the configuration")
}
