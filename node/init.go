/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jjos2372/signum-jminer/node/history"
	"github.com/jjos2372/signum-jminer/node/round"
	"github.com/jjos2372/signum-jminer/node/runstatus"
	"github.com/jjos2372/signum-jminer/node/web"
	"github.com/jjos2372/signum-jminer/pkg/cache"
	"github.com/jjos2372/signum-jminer/pkg/logger"
	"github.com/jjos2372/signum-jminer/pkg/plots"
	"github.com/jjos2372/signum-jminer/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// InitNode builds everything the coordinator writes to, in order
func (n *Node) InitNode() error {
	err := n.InitLogs()
	if err != nil {
		return err
	}
	err = n.InitCache()
	if err != nil {
		return err
	}
	n.InitRunStatus()
	if n.Cfg.ReadServicePort() == 0 {
		n.InitCoordinator()
		return nil
	}
	n.Stream = web.NewStream(n.Cfg.ReadOrigins(), func(msg string) {
		n.Log.Round(zapcore.DebugLevel, "[records] "+msg)
	})
	n.InitCoordinator()
	return n.InitWebServer(InitMiddlewares(), web.NewHandler(n.Rs, n.Hist, n.Stream))
}

func (n *Node) InitLogs() error {
	var logs_info = make(map[string]string)
	for _, v := range logger.LogFiles {
		logs_info[v] = filepath.Join(n.Cfg.GetLogDir(), v+".log")
	}
	lg, err := logger.NewLogs(logs_info, logger.Options{
		Console: n.Cfg.ReadConsole(),
		Debug:   n.Cfg.ReadDebug(),
	})
	if err != nil {
		return errors.Wrap(err, "[NewLogs]")
	}
	n.Log = lg
	return nil
}

func (n *Node) InitCache() error {
	cace, err := cache.NewCache(n.Cfg.GetDbDir(), 0, 0)
	if err != nil {
		return errors.Wrap(err, "[NewCache]")
	}
	n.Cach = cace
	n.Hist = history.New(cace, func(err error) {
		n.Log.Round(zapcore.DebugLevel, fmt.Sprintf("[history] %v", err))
	})
	n.Hist.SetRetention(n.Cfg.ReadHistoryRounds())
	return nil
}

func (n *Node) InitRunStatus() {
	rt := runstatus.NewRunstatus()
	rt.SetPID(os.Getpid())
	rt.SetStartTime(time.Now())
	if port := n.Cfg.ReadServicePort(); port != 0 {
		rt.SetComAddr(fmt.Sprintf("localhost:%d", port))
	}
	n.Rs = rt
}

// InitCoordinator connects the coordinator to the logs, the run status,
// the round history and the live records
func (n *Node) InitCoordinator() {
	sinks := round.Sinks{NewLogSink(n.Log)}
	if n.Rs != nil {
		sinks = append(sinks, n.Rs)
	}
	if n.Hist != nil {
		sinks = append(sinks, n.Hist)
	}
	if n.Stream != nil {
		sinks = append(sinks, n.Stream)
	}
	n.Coord = round.NewCoordinator(round.Config{
		ProgressLogsPerRound: n.Cfg.ReadProgressPerRound(),
		ByteUnitDecimal:      n.Cfg.ReadByteUnitDecimal(),
	}, sinks)
}

func (n *Node) InitWebServer(mdls []gin.HandlerFunc, hdl *web.Handler) error {
	port := int(n.Cfg.ReadServicePort())
	if utils.OpenedPort(port) {
		return errors.Errorf("listener port: %d already in use", port)
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errors.Wrap(err, "[net.Listen]")
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(mdls...)
	hdl.RegisterRoutes(engine)
	n.Srv = &http.Server{Handler: engine}
	go func(srv *http.Server) {
		err := srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.Log.Pnc(fmt.Sprintf("[web] %v", err))
		}
	}(n.Srv)
	return nil
}

func InitMiddlewares() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowHeaders:    []string{"Content-Type"},
			AllowMethods:    []string{"GET", "OPTION"},
		}),
	}
}

// CheckPlots inspects the configured plot directories and writes every
// problem to the drive log. Mining goes on regardless of the result.
func (n *Node) CheckPlots() (*plots.Report, error) {
	report, err := plots.CheckPlotFiles(n.Cfg.ReadPlotPaths())
	if err != nil {
		return nil, err
	}
	for _, d := range report.Drives {
		n.Log.Drive(zapcore.InfoLevel, fmt.Sprintf("checked '%s': %d plot files, %d bytes", d.Directory, d.Files, d.Bytes))
	}
	for _, p := range report.Problems {
		n.Log.Drive(zapcore.WarnLevel, fmt.Sprintf("plot check '%s': %s", p.Path, p.Reason))
	}
	for _, o := range report.Overlaps {
		n.Log.Drive(zapcore.WarnLevel, fmt.Sprintf("account '%d' nonces %d..%d overlap in '%s' and '%s'",
			o.AccountID, o.From, o.To, o.First, o.Second))
	}
	return report, nil
}
