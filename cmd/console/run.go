/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjos2372/signum-jminer/node"
	"github.com/jjos2372/signum-jminer/node/event"
	out "github.com/jjos2372/signum-jminer/pkg/fout"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

const (
	run_cmd       = "run"
	run_cmd_short = "Follow the mining events and report rounds"

	// journal lines waiting for the coordinator
	journalBuffer = 64
)

var runCmd = &cobra.Command{
	Use:                   run_cmd,
	Short:                 run_cmd_short,
	Run:                   runCmdFunc,
	DisableFlagsInUseLine: true,
}

func init() {
	runCmd.Flags().StringP("events", "e", "-", "event journal to follow, '-' reads stdin")
	rootCmd.AddCommand(runCmd)
}

// runCmdFunc is used to start the service
//
// Usage:
//
//	jminer run --events events.jsonl
func runCmdFunc(cmd *cobra.Command, args []string) {
	cfg, err := buildConfigFile(cmd)
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}

	n := node.New(cfg)
	err = n.InitNode()
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}

	if cfg.ReadCheckPlotFiles() {
		report, err := n.CheckPlots()
		if err != nil {
			out.Warn(fmt.Sprintf("plot check: %v", err))
		} else if !report.OK() {
			out.Warn(fmt.Sprintf("plot check found %d problems and %d overlaps, see the drive log",
				len(report.Problems), len(report.Overlaps)))
		}
	}

	events, _ := cmd.Flags().GetString("events")
	r, closer, err := openEvents(events)
	if err != nil {
		out.Err(err.Error())
		n.Close()
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal := event.NewJournal(r, journalBuffer, func(line int, err error) {
		n.Log.Round(zapcore.WarnLevel, fmt.Sprintf("event journal line %d: %v", line, err))
	})
	journal.Start(ctx)

	if addr := n.Rs.GetComAddr(); addr != "" {
		out.Tip(fmt.Sprintf("Local service started: [GET] %s/status", addr))
	}
	out.Ok("Start successfully")

	err = n.Run(ctx, journal)
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
}

func openEvents(fpath string) (io.Reader, io.Closer, error) {
	if fpath == "" || fpath == "-" {
		return os.Stdin, io.NopCloser(nil), nil
	}
	f, err := os.Open(fpath)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}
