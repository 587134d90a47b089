/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jjos2372/signum-jminer/configs"
	"github.com/jjos2372/signum-jminer/node/event"
	"github.com/jjos2372/signum-jminer/node/history"
	"github.com/jjos2372/signum-jminer/node/round"
	"github.com/jjos2372/signum-jminer/pkg/cache"
	"github.com/jjos2372/signum-jminer/pkg/confile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newConfig(t *testing.T) *confile.Confile {
	t.Helper()
	cfg := confile.NewConfigFile()
	cfg.Console = false
	require.NoError(t, cfg.SetWorkspace(t.TempDir()))
	require.NoError(t, cfg.SetServicePort(0))
	return cfg
}

func readLog(t *testing.T, cfg *confile.Confile, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.GetLogDir(), name+".log"))
	require.NoError(t, err)
	return string(data)
}

func TestRunFromJournal(t *testing.T) {
	cfg := newConfig(t)
	n := New(cfg)
	require.NoError(t, n.InitNode())
	assert.Nil(t, n.Srv)

	journal := strings.Join([]string{
		`{"type":"roundStarted","data":{"blockNumber":5,"scoopNumbers":[1],"capacity":1000000,"baseTarget":100,"targetDeadline":600,"generationSignature":"a1b2c3d4"}}`,
		`{"type":"readerProgress","data":{"blockNumber":5,"capacity":1000000,"remainingCapacity":0,"realCapacity":1000000,"realRemainingCapacity":0,"elapsedTime":1000}}`,
		`{"type":"resultConfirmed","data":{"blockNumber":5,"accountId":1,"nonce":2,"deadline":77}}`,
		`{"type":"roundFinished","data":{"blockNumber":5,"capacity":1000000,"networkQuality":20,"roundTime":1000}}`,
	}, "\n")
	j := event.NewJournal(strings.NewReader(journal), 0, func(line int, err error) {
		t.Errorf("line %d: %v", line, err)
	})
	j.Start(context.Background())
	require.NoError(t, n.Run(context.Background(), j))

	assert.Equal(t, uint64(5), n.Rs.GetRoundInfo().Block)
	assert.True(t, n.Rs.GetRoundInfo().PoorQuality)

	rounds := readLog(t, cfg, "round")
	assert.Contains(t, rounds, "START block '5'")
	assert.Contains(t, rounds, "[WARN]")
	assert.Contains(t, readLog(t, cfg, "progress"), "100%")
	assert.Contains(t, readLog(t, cfg, "submit"), "deadline=77")

	// Run closed the cache, the history survives it
	c, err := cache.NewCache(cfg.GetDbDir(), 0, 0)
	require.NoError(t, err)
	defer c.Close()
	s, err := history.New(c, nil).Get(5)
	require.NoError(t, err)
	assert.Equal(t, history.Finished, s.Outcome)
	require.NotNil(t, s.BestDeadline)
	assert.Equal(t, int64(77), *s.BestDeadline)
}

func TestRunCanceled(t *testing.T) {
	n := New(newConfig(t))
	require.NoError(t, n.InitNode())
	feed := event.NewFeed(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx, feed) }()
	require.NoError(t, feed.Publish(ctx, event.GenSigUpdated{Block: 3}))
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunWithoutInit(t *testing.T) {
	n := New(newConfig(t))
	assert.Error(t, n.Run(context.Background()))
}

func TestStatusService(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := newConfig(t)
	require.NoError(t, cfg.SetServicePort(uint16(port)))
	n := New(cfg)
	require.NoError(t, n.InitNode())
	defer n.Close()
	require.NotNil(t, n.Srv)
	require.NotNil(t, n.Stream)
	assert.Equal(t, fmt.Sprintf("localhost:%d", port), n.Rs.GetComAddr())

	n.Coord.Handle(event.RoundStarted{Block: 9, Capacity: 100})

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/status", port))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Code int `json:"code"`
		Data struct {
			PID   int `json:"pid"`
			Round struct {
				Block uint64 `json:"block"`
			} `json:"round"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, body.Code)
	assert.Equal(t, os.Getpid(), body.Data.PID)
	assert.Equal(t, uint64(9), body.Data.Round.Block)
}

func TestCheckPlots(t *testing.T) {
	cfg := newConfig(t)
	dir := t.TempDir()
	fd, err := os.Create(filepath.Join(dir, "1_0_2"))
	require.NoError(t, err)
	require.NoError(t, fd.Truncate(configs.NonceSize))
	require.NoError(t, fd.Close())
	cfg.SetPlotPaths([]string{dir})

	n := New(cfg)
	require.NoError(t, n.InitLogs())
	report, err := n.CheckPlots()
	require.NoError(t, err)
	assert.False(t, report.OK())
	n.Log.Sync()
	assert.Contains(t, readLog(t, cfg, "drive"), "does not match")
}

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) put(name string, level zapcore.Level, msg string) {
	r.lines = append(r.lines, name+":"+level.String()+":"+msg)
}

func (r *recordingLogger) Round(level zapcore.Level, msg string)    { r.put("round", level, msg) }
func (r *recordingLogger) Progress(level zapcore.Level, msg string) { r.put("progress", level, msg) }
func (r *recordingLogger) Submit(level zapcore.Level, msg string)   { r.put("submit", level, msg) }
func (r *recordingLogger) Drive(level zapcore.Level, msg string)    { r.put("drive", level, msg) }
func (r *recordingLogger) Pnc(msg string)                           { r.put("panic", zapcore.ErrorLevel, msg) }
func (r *recordingLogger) Sync()                                    {}

func TestLogSink(t *testing.T) {
	lg := &recordingLogger{}
	sink := NewLogSink(lg)
	for _, g := range []round.Group{round.GroupRound, round.GroupProgress, round.GroupSubmit, round.GroupDrive, round.GroupPanic} {
		sink.Emit(round.Record{Level: zapcore.InfoLevel, Group: g, Msg: "m"})
	}
	assert.Equal(t, []string{
		"round:info:m",
		"progress:info:m",
		"submit:info:m",
		"drive:info:m",
		"panic:error:m",
	}, lg.lines)

	// a sink without a logger drops records
	NewLogSink(nil).Emit(round.Record{Msg: "dropped"})
}
