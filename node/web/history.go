/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jjos2372/signum-jminer/node/common"
	"github.com/jjos2372/signum-jminer/node/history"
	"github.com/jjos2372/signum-jminer/pkg/cache"
	"github.com/pkg/errors"
)

const defaultHistoryLimit = 20

type HistoryHandler struct {
	*history.History
}

func NewHistoryHandler(hs *history.History) *HistoryHandler {
	return &HistoryHandler{History: hs}
}

func (h *HistoryHandler) RegisterRoutes(server *gin.Engine) {
	historygroup := server.Group("/history")
	historygroup.GET("", h.listRounds)
	historygroup.GET("/:block", h.getRound)
}

// listRounds returns the latest rounds, newest first
func (h *HistoryHandler) listRounds(c *gin.Context) {
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, common.RespType{
				Code: http.StatusBadRequest,
				Msg:  common.ERR_InvalidLimit,
			})
			return
		}
		limit = n
	}
	list, err := h.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.RespType{
			Code: http.StatusInternalServerError,
			Msg:  common.ERR_SystemErr,
		})
		return
	}
	rounds := make([]history.Summary, 0, limit)
	for i := len(list) - 1; i >= 0 && len(rounds) < limit; i-- {
		rounds = append(rounds, list[i])
	}
	c.JSON(http.StatusOK, common.RespType{
		Code: http.StatusOK,
		Msg:  common.OK,
		Data: rounds,
	})
}

func (h *HistoryHandler) getRound(c *gin.Context) {
	block, err := strconv.ParseUint(c.Param("block"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.RespType{
			Code: http.StatusBadRequest,
			Msg:  common.ERR_InvalidBlock,
		})
		return
	}
	summary, err := h.Get(block)
	if err != nil {
		if errors.Is(err, cache.NotFound) {
			c.JSON(http.StatusNotFound, common.RespType{
				Code: http.StatusNotFound,
				Msg:  common.ERR_NotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, common.RespType{
			Code: http.StatusInternalServerError,
			Msg:  common.ERR_SystemErr,
		})
		return
	}
	c.JSON(http.StatusOK, common.RespType{
		Code: http.StatusOK,
		Msg:  common.OK,
		Data: summary,
	})
}
