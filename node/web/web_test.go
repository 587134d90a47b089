/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jjos2372/signum-jminer/node/event"
	"github.com/jjos2372/signum-jminer/node/history"
	"github.com/jjos2372/signum-jminer/node/round"
	"github.com/jjos2372/signum-jminer/node/runstatus"
	"github.com/jjos2372/signum-jminer/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newServer(t *testing.T) (*gin.Engine, *round.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, err := cache.NewCache(t.TempDir(), 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	rs := runstatus.NewRunstatus()
	rs.SetPID(7)
	hs := history.New(c, nil)
	coord := round.NewCoordinator(round.Config{ProgressLogsPerRound: 2}, round.Sinks{rs, hs})

	engine := gin.New()
	NewHandler(rs, hs, nil).RegisterRoutes(engine)
	return engine, coord
}

func get(t *testing.T, engine *gin.Engine, target string) (int, response) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	engine.ServeHTTP(w, req)
	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestStatus(t *testing.T) {
	engine, coord := newServer(t)
	coord.Handle(event.RoundStarted{Block: 100, Capacity: 1000, BaseTarget: 50, TargetDeadline: 3600})
	coord.Handle(event.ResultConfirmed{Block: 100, Deadline: 42})

	code, resp := get(t, engine, "/status")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Msg)

	var data StatusData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 7, data.PID)
	assert.Equal(t, uint64(100), data.Round.Block)
	assert.Equal(t, runstatus.StateMining, data.Round.State)
	assert.Equal(t, "3600", data.Round.TargetDeadline)
	assert.Equal(t, uint64(1), data.Confirmed)
	require.NotNil(t, data.BestDeadline)
	assert.Equal(t, int64(42), *data.BestDeadline)
}

func TestHistory(t *testing.T) {
	engine, coord := newServer(t)
	for _, block := range []uint64{1, 2, 3} {
		coord.Handle(event.RoundStarted{Block: block, Capacity: 1000})
		coord.Handle(event.RoundFinished{Block: block, Capacity: 1000, NetworkQuality: 100, RoundTime: 1000})
	}

	code, resp := get(t, engine, "/history?limit=2")
	require.Equal(t, http.StatusOK, code)
	var list []history.Summary
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, uint64(3), list[0].Block)
	assert.Equal(t, uint64(2), list[1].Block)

	code, resp = get(t, engine, "/history/2")
	require.Equal(t, http.StatusOK, code)
	var summary history.Summary
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Equal(t, history.Finished, summary.Outcome)

	code, _ = get(t, engine, "/history/99")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get(t, engine, "/history/abc")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get(t, engine, "/history?limit=-1")
	assert.Equal(t, http.StatusBadRequest, code)
}
