/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package console

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	out "github.com/jjos2372/signum-jminer/pkg/fout"
	"github.com/jjos2372/signum-jminer/pkg/plots"
	"github.com/spf13/cobra"
)

const (
	check_cmd       = "check"
	check_cmd_short = "Check the plot files"
)

const (
	SIZE_1KiB = 1024
	SIZE_1MiB = 1024 * SIZE_1KiB
	SIZE_1GiB = 1024 * SIZE_1MiB
)

var checkCmd = &cobra.Command{
	Use:                   check_cmd,
	Short:                 check_cmd_short,
	Run:                   checkCmdFunc,
	DisableFlagsInUseLine: true,
}

func init() {
	checkCmd.Flags().StringSliceP("plots", "p", nil, "plot directories, replaces 'plotpaths' of the configuration")
	rootCmd.AddCommand(checkCmd)
}

func checkCmdFunc(cmd *cobra.Command, args []string) {
	cfg, err := buildConfigFile(cmd)
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
	paths, _ := cmd.Flags().GetStringSlice("plots")
	if len(paths) > 0 {
		cfg.SetPlotPaths(paths)
	}

	report, err := plots.CheckPlotFiles(cfg.ReadPlotPaths())
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
	fmt.Println(renderReport(report))
	if !report.OK() {
		out.Warn(fmt.Sprintf("%d problems, %d overlaps", len(report.Problems), len(report.Overlaps)))
		os.Exit(1)
	}
	out.Ok(fmt.Sprintf("%d plot files are fine", len(report.Plots)))
}

func renderReport(report *plots.Report) string {
	var sb strings.Builder
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"directory", "plot files", "plotted", "disk total", "disk free"})
	for _, d := range report.Drives {
		tw.AppendRow(table.Row{d.Directory, d.Files, unitConversion(uint64(d.Bytes)), unitConversion(d.Total), unitConversion(d.Free)})
	}
	sb.WriteString(tw.Render())

	if len(report.Problems) > 0 {
		tw = table.NewWriter()
		tw.AppendHeader(table.Row{"path", "problem"})
		for _, p := range report.Problems {
			tw.AppendRow(table.Row{p.Path, p.Reason})
		}
		sb.WriteString("\n")
		sb.WriteString(tw.Render())
	}

	if len(report.Overlaps) > 0 {
		tw = table.NewWriter()
		tw.AppendHeader(table.Row{"account", "nonces", "first", "second"})
		for _, o := range report.Overlaps {
			tw.AppendRow(table.Row{o.AccountID, fmt.Sprintf("%d..%d", o.From, o.To), o.First, o.Second})
		}
		sb.WriteString("\n")
		sb.WriteString(tw.Render())
	}
	return sb.String()
}

func unitConversion(v uint64) string {
	if v >= (SIZE_1GiB * 1024 * 1024) {
		return fmt.Sprintf("%.2f PiB", float64(v)/float64(SIZE_1GiB*1024*1024))
	}
	if v >= (SIZE_1GiB * 1024) {
		return fmt.Sprintf("%.2f TiB", float64(v)/float64(SIZE_1GiB*1024))
	}
	if v >= SIZE_1GiB {
		return fmt.Sprintf("%.2f GiB", float64(v)/float64(SIZE_1GiB))
	}
	if v >= SIZE_1MiB {
		return fmt.Sprintf("%.2f MiB", float64(v)/float64(SIZE_1MiB))
	}
	if v >= SIZE_1KiB {
		return fmt.Sprintf("%.2f KiB", float64(v)/float64(SIZE_1KiB))
	}
	return fmt.Sprintf("%d B", v)
}
