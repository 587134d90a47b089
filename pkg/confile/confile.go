/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package confile

import (
	"os"
	"path"
	"path/filepath"

	"github.com/jjos2372/signum-jminer/configs"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const DefaultProfile = "conf.yaml"
const TempleteProfile = `app:
  # workspace, logs and round history are kept here
  workspace: "./jminer"
  # local status service port, 0 disables it
  port: 6000
  # also write logs to the console
  console: true
  # log debug details such as strange deadlines and interrupted drives
  debug: false
  # browser origins allowed to follow the live records, empty allows localhost
  origins: []
  # rounds kept in the history, 0 keeps all
  historyrounds: 10000

mining:
  # number of progress logs per round, 0 disables progress logging
  readprogressperround: 9
  # use TB/GB/MB instead of TiB/GiB/MiB
  byteunitdecimal: true
  # check the plot files before mining starts
  checkplotfiles: false
  # directories containing plot files
  plotpaths:
    - "/mnt/plots"`

type Confiler interface {
	Parse(fpath string) error
	ReadWorkspace() string
	ReadServicePort() uint16
	ReadConsole() bool
	ReadDebug() bool
	ReadOrigins() []string
	ReadHistoryRounds() int
	ReadProgressPerRound() int
	ReadByteUnitDecimal() bool
	ReadCheckPlotFiles() bool
	ReadPlotPaths() []string
	GetDbDir() string
	GetLogDir() string
}

type App struct {
	Workspace string   `name:"workspace" mapstructure:"workspace" yaml:"workspace"`
	Port      uint16   `name:"port" mapstructure:"port" yaml:"port"`
	Console   bool     `name:"console" mapstructure:"console" yaml:"console"`
	Debug     bool     `name:"debug" mapstructure:"debug" yaml:"debug"`
	Origins   []string `name:"origins" mapstructure:"origins" yaml:"origins"`
	History   int      `name:"historyrounds" mapstructure:"historyrounds" yaml:"historyrounds"`
}

type Mining struct {
	ProgressPerRound int      `name:"readprogressperround" mapstructure:"readprogressperround" yaml:"readprogressperround"`
	UnitDecimal      bool     `name:"byteunitdecimal" mapstructure:"byteunitdecimal" yaml:"byteunitdecimal"`
	CheckPlots       bool     `name:"checkplotfiles" mapstructure:"checkplotfiles" yaml:"checkplotfiles"`
	PlotPaths        []string `name:"plotpaths" mapstructure:"plotpaths" yaml:"plotpaths"`
}

type Confile struct {
	App    `mapstructure:"app" yaml:"app"`
	Mining `mapstructure:"mining" yaml:"mining"`
}

var _ Confiler = (*Confile)(nil)

// NewConfigFile returns a profile holding the defaults
func NewConfigFile() *Confile {
	return &Confile{
		App: App{
			Workspace: configs.DefaultWorkspace,
			Port:      configs.DefaultServicePort,
			Console:   true,
			History:   configs.DefaultHistoryRounds,
		},
		Mining: Mining{
			ProgressPerRound: configs.DefaultReadProgressPerRound,
			UnitDecimal:      configs.DefaultByteUnitDecimal,
		},
	}
}

func (c *Confile) Parse(fpath string) error {
	fstat, err := os.Stat(fpath)
	if err != nil {
		return err
	}
	if fstat.IsDir() {
		return errors.Errorf("The '%v' is not a file", fpath)
	}
	ext := path.Ext(fpath)
	if len(ext) < 2 {
		return errors.Errorf("unknown type of configuration file: '%v'", fpath)
	}
	v := viper.New()
	v.SetConfigFile(fpath)
	v.SetConfigType(ext[1:])
	v.SetDefault("app.workspace", c.Workspace)
	v.SetDefault("app.port", c.Port)
	v.SetDefault("app.console", c.Console)
	v.SetDefault("app.historyrounds", c.History)
	v.SetDefault("mining.readprogressperround", c.ProgressPerRound)
	v.SetDefault("mining.byteunitdecimal", c.UnitDecimal)

	err = v.ReadInConfig()
	if err != nil {
		return errors.Errorf("[ReadInConfig] %v", err)
	}
	err = v.Unmarshal(c)
	if err != nil {
		return errors.Errorf("[Unmarshal] %v", err)
	}

	if c.Port != 0 && c.Port < 1024 {
		return errors.Errorf("prohibit the use of system reserved port: %v", c.Port)
	}

	// a negative slot count only disables progress logging
	if c.ProgressPerRound < 0 {
		c.ProgressPerRound = 0
	}
	if c.History < 0 {
		return errors.Errorf("'historyrounds' can not be negative: %d", c.History)
	}

	if c.CheckPlots && len(c.PlotPaths) == 0 {
		return errors.New("'checkplotfiles' needs at least one entry in 'plotpaths'")
	}

	return c.SetWorkspace(c.Workspace)
}

func (c *Confile) SetServicePort(port uint16) error {
	if port != 0 && port < 1024 {
		return errors.Errorf("Prohibit the use of system reserved port: %v", port)
	}
	c.Port = port
	return nil
}

func (c *Confile) SetWorkspace(workspace string) error {
	if workspace == "" {
		return errors.New("'workspace' can not be empty")
	}
	fstat, err := os.Stat(workspace)
	if err != nil {
		err = os.MkdirAll(workspace, configs.DirMode)
		if err != nil {
			return err
		}
	} else {
		if !fstat.IsDir() {
			return errors.Errorf("the '%v' is not a directory", workspace)
		}
	}
	c.Workspace = workspace
	return nil
}

func (c *Confile) SetPlotPaths(paths []string) {
	c.PlotPaths = paths
}

/////////////////////////////////////////////

func (c *Confile) ReadWorkspace() string {
	return c.Workspace
}

func (c *Confile) ReadServicePort() uint16 {
	return c.Port
}

func (c *Confile) ReadConsole() bool {
	return c.Console
}

func (c *Confile) ReadDebug() bool {
	return c.Debug
}

func (c *Confile) ReadOrigins() []string {
	return c.Origins
}

func (c *Confile) ReadHistoryRounds() int {
	return c.History
}

func (c *Confile) ReadProgressPerRound() int {
	return c.ProgressPerRound
}

func (c *Confile) ReadByteUnitDecimal() bool {
	return c.UnitDecimal
}

func (c *Confile) ReadCheckPlotFiles() bool {
	return c.CheckPlots
}

func (c *Confile) ReadPlotPaths() []string {
	return c.PlotPaths
}

func (c *Confile) GetDbDir() string {
	return filepath.Join(c.Workspace, configs.DbDir)
}

func (c *Confile) GetLogDir() string {
	return filepath.Join(c.Workspace, configs.LogDir)
}
