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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/racker/rackspace-monitoring-storage/poller"
	"github.com/racker/rackspace-monitoring-storage/protocol"
	"github.com/racker/rackspace-monitoring-storage/state"
	"github.com/racker/rackspace-monitoring-storage/storage"
	"github.com/racker/rackspace-monitoring-storage/usage"
	"github.com/racker/rackspace-monitoring-storage/utils"
	"github.com/shirou/gopsutil/v3/host"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorGray   = lipgloss.Color("#6272A4")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(colorGray)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

var statusColumns = []string{"NAME", "MOUNT", "DEVICE", "TYPE", "SIZE", "FREE", "USED", "STATE"}

var (
	StatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Sample every monitored mount point once and print a summary",
		Run: func(cmd *cobra.Command, args []string) {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := poller.LoadConfig(configFile)
			if err != nil {
				utils.Die(err, "Failed to load configuration")
			}

			ctx := context.Background()
			container, err := poller.BuildContainer(ctx, cfg, nil)
			if err != nil {
				utils.Die(err, "Failed to set up storage monitoring")
			}
			container.Refresh(ctx)

			info, err := host.InfoWithContext(ctx)
			if err != nil {
				log.WithError(err).Debug("Unable to read host information")
			}

			rows := CollectStatus(ctx, container, usage.NewDiskSampler(cfg.RefreshTimeout))
			fmt.Fprint(os.Stdout, RenderStatus(info, rows))
		},
	}
)

func init() {
	StatusCmd.Flags().String("config", "", "Path to the agent configuration file")
}

type StatusRow struct {
	Record protocol.DiskRecord
	Total  uint64
	Free   uint64
	// Sized is false when the filesystem statistics could not be read.
	Sized bool
}

func CollectStatus(ctx context.Context, container *storage.Container, sampler *usage.DiskSampler) []StatusRow {
	var rows []StatusRow
	for _, mp := range container.Children() {
		row := StatusRow{Record: mp.Export()}
		if stat, err := sampler.Stat(ctx, mp.MountPoint()); err == nil {
			row.Total, row.Free, row.Sized = stat.Total, stat.Free, true
		}
		rows = append(rows, row)
	}
	return rows
}

func levelStyle(level string) lipgloss.Style {
	l, err := state.ParseLevel(level)
	if err != nil {
		return dimStyle
	}
	switch l {
	case state.LevelUnimportant, state.LevelReady:
		return okStyle
	case state.LevelWarning:
		return warnStyle
	case state.LevelError, state.LevelCritical:
		return critStyle
	}
	return dimStyle
}

func padStyled(styled string, width int) string {
	if w := lipgloss.Width(styled); w < width {
		return styled + strings.Repeat(" ", width-w)
	}
	return styled
}

// RenderStatus lays out rows as an aligned table under a host summary line.
func RenderStatus(info *host.InfoStat, rows []StatusRow) string {
	var b strings.Builder

	if info != nil {
		boot := time.Unix(int64(info.BootTime), 0)
		b.WriteString(titleStyle.Render(info.Hostname))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s %s, booted %s", info.Platform, info.PlatformVersion, humanize.Time(boot))))
		b.WriteString("\n\n")
	}

	cells := make([][]string, 0, len(rows)+1)
	header := make([]string, len(statusColumns))
	for i, c := range statusColumns {
		header[i] = headerStyle.Render(c)
	}
	cells = append(cells, header)

	for _, row := range rows {
		size, free := "-", "-"
		if row.Sized {
			size = humanize.IBytes(row.Total)
			free = humanize.IBytes(row.Free)
		}
		stateName := row.Record.State
		if stateName == "" {
			stateName = row.Record.Level
		}
		style := levelStyle(row.Record.Level)
		cells = append(cells, []string{
			row.Record.Name,
			row.Record.MountPoint,
			row.Record.Device,
			row.Record.FsType,
			size,
			free,
			style.Render(row.Record.Used),
			style.Render(stateName),
		})
	}

	widths := make([]int, len(statusColumns))
	for _, line := range cells {
		for i, cell := range line {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for _, line := range cells {
		for i, cell := range line {
			if i == len(line)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(padStyled(cell, widths[i]+2))
		}
		b.WriteString("\n")
	}

	for _, row := range rows {
		if row.Record.Message != "" && row.Record.Level != state.LevelReady.String() {
			b.WriteString(levelStyle(row.Record.Level).Render(row.Record.Message))
			b.WriteString("\n")
		}
	}
	return b.String()
}
