/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package console

import (
	"os"
	"path/filepath"

	"github.com/jjos2372/signum-jminer/pkg/confile"
	out "github.com/jjos2372/signum-jminer/pkg/fout"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	default_cmd       = "default"
	default_cmd_short = "Generate configuration file template"
)

var defaultCmd = &cobra.Command{
	Use:                   default_cmd,
	Short:                 default_cmd_short,
	Run:                   defaultCmdFunc,
	DisableFlagsInUseLine: true,
}

func init() {
	rootCmd.AddCommand(defaultCmd)
}

// defaultCmdFunc generate a configuration file template
func defaultCmdFunc(cmd *cobra.Command, args []string) {
	fpath, err := writeProfile(".")
	if err != nil {
		out.Err(err.Error())
		os.Exit(1)
	}
	out.Ok(fpath)
}

func writeProfile(dir string) (string, error) {
	fpath, err := filepath.Abs(filepath.Join(dir, confile.DefaultProfile))
	if err != nil {
		return "", err
	}
	f, err := os.Create(fpath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	_, err = f.WriteString(confile.TempleteProfile)
	if err != nil {
		return "", err
	}
	return fpath, f.Sync()
}

// buildConfigFile parses the file given with --config. Without the flag a
// conf.yaml in the working directory is used if there is one, otherwise
// the defaults.
func buildConfigFile(cmd *cobra.Command) (*confile.Confile, error) {
	cfg := confile.NewConfigFile()
	fpath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if fpath == "" {
		if _, err = os.Stat(confile.DefaultProfile); err == nil {
			fpath = confile.DefaultProfile
		}
	}
	if fpath == "" {
		return cfg, cfg.SetWorkspace(cfg.ReadWorkspace())
	}
	err = cfg.Parse(fpath)
	if err != nil {
		return nil, errors.Wrapf(err, "[Parse %s]", fpath)
	}
	return cfg, nil
}
