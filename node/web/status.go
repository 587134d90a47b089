/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jjos2372/signum-jminer/node/common"
	"github.com/jjos2372/signum-jminer/node/runstatus"
	"github.com/jjos2372/signum-jminer/pkg/utils"
)

type StatusHandler struct {
	runstatus.Runstatus
}

func NewStatusHandler(rs runstatus.Runstatus) *StatusHandler {
	return &StatusHandler{Runstatus: rs}
}

func (s *StatusHandler) RegisterRoutes(server *gin.Engine) {
	statusgroup := server.Group("/status")
	statusgroup.GET("", s.getStatus)
}

type StatusData struct {
	PID       int    `json:"pid"`
	Addr      string `json:"addr"`
	StartTime string `json:"start_time"`
	MemAvail  uint64 `json:"mem_avail"`

	Round runstatus.RoundInfo `json:"round"`

	Submitted    uint64 `json:"submitted"`
	Skipped      uint64 `json:"skipped"`
	Confirmed    uint64 `json:"confirmed"`
	Rejected     uint64 `json:"rejected"`
	BestDeadline *int64 `json:"best_deadline,omitempty"`
}

func (s *StatusHandler) getStatus(c *gin.Context) {
	submitted, skipped, confirmed, rejected := s.GetSubmissionCount()

	var data = StatusData{
		PID:  s.GetPID(),
		Addr: s.GetComAddr(),

		Round: s.GetRoundInfo(),

		Submitted: submitted,
		Skipped:   skipped,
		Confirmed: confirmed,
		Rejected:  rejected,
	}
	if t := s.GetStartTime(); !t.IsZero() {
		data.StartTime = t.Format("2006-01-02 15:04:05")
	}
	if best, ok := s.GetBestDeadline(); ok {
		data.BestDeadline = &best
	}
	// memory is informational only
	data.MemAvail, _ = utils.GetSysMemAvailable()

	c.JSON(http.StatusOK, common.RespType{
		Code: http.StatusOK,
		Msg:  common.OK,
		Data: data,
	})
}
