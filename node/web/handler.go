/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"github.com/gin-gonic/gin"
	"github.com/jjos2372/signum-jminer/node/history"
	"github.com/jjos2372/signum-jminer/node/runstatus"
)

type Handler struct {
	*StatusHandler
	*HistoryHandler
	*Stream
}

// NewHandler serves the status. hs and stream are optional.
func NewHandler(rs runstatus.Runstatus, hs *history.History, stream *Stream) *Handler {
	return &Handler{
		StatusHandler:  NewStatusHandler(rs),
		HistoryHandler: NewHistoryHandler(hs),
		Stream:         stream,
	}
}

func (h *Handler) RegisterRoutes(server *gin.Engine) {
	h.StatusHandler.RegisterRoutes(server)
	if h.HistoryHandler.History != nil {
		h.HistoryHandler.RegisterRoutes(server)
	}
	if h.Stream != nil {
		h.Stream.RegisterRoutes(server)
	}
}
