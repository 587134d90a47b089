/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package console

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jjos2372/signum-jminer/node/history"
	"github.com/jjos2372/signum-jminer/pkg/cache"
	out "github.com/jjos2372/signum-jminer/pkg/fout"
	"github.com/spf13/cobra"
)

const (
	stat_cmd       = "stat"
	stat_cmd_short = "Query the history of mined rounds"
)

var statCmd = &cobra.Command{
	Use:                   stat_cmd,
	Short:                 stat_cmd_short,
	Run:                   statCmdFunc,
	DisableFlagsInUseLine: true,
}

func init() {
	statCmd.Flags().IntP("limit", "n", 20, "number of latest rounds, 0 shows all")
	rootCmd.AddCommand(statCmd)
}

// statCmdFunc prints the stored rounds. The history cache is locked
// while a miner runs, use the status service then.
func statCmdFunc(cmd *cobra.Command, args []string) {
	cfg, err := buildConfigFile(cmd)
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	cace, err := cache.NewCache(cfg.GetDbDir(), 0, 0)
	if err != nil {
		out.Err(fmt.Sprintf("[NewCache] %v", err))
		os.Exit(1)
	}
	defer cace.Close()

	list, err := history.New(cace, nil).List()
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
	if len(list) == 0 {
		out.Tip("No rounds recorded yet")
		return
	}
	fmt.Println(renderHistory(list, limit))
}

func renderHistory(list []history.Summary, limit int) string {
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"block", "outcome", "restarts", "done", "speed", "quality", "submitted", "confirmed", "rejected", "best deadline"})
	for _, s := range list {
		speed, best := "N/A", "N/A"
		if s.Speed != nil {
			speed = fmt.Sprintf("%d MiB/s", *s.Speed)
		}
		if s.BestDeadline != nil {
			best = fmt.Sprint(*s.BestDeadline)
		}
		tw.AppendRow(table.Row{
			s.Block,
			s.Outcome,
			s.Restarts,
			fmt.Sprintf("%d%%", s.Percentage),
			speed,
			fmt.Sprintf("%d%%", s.NetworkQuality),
			s.Submitted,
			s.Confirmed,
			s.Rejected,
			best,
		})
	}
	return tw.Render()
}
