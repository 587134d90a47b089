/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"net/http"
	"time"

	"github.com/jjos2372/signum-jminer/node/event"
	"github.com/jjos2372/signum-jminer/node/history"
	"github.com/jjos2372/signum-jminer/node/round"
	"github.com/jjos2372/signum-jminer/node/runstatus"
	"github.com/jjos2372/signum-jminer/node/web"
	"github.com/jjos2372/signum-jminer/pkg/cache"
	"github.com/jjos2372/signum-jminer/pkg/confile"
	"github.com/jjos2372/signum-jminer/pkg/logger"
	"github.com/jjos2372/signum-jminer/pkg/utils"
	"github.com/pkg/errors"
)

const shutdownTimeout = 3 * time.Second

type Node struct {
	Cfg    confile.Confiler
	Log    logger.Logger
	Cach   cache.Cache
	Hist   *history.History
	Rs     runstatus.Runstatus
	Coord  *round.Coordinator
	Stream *web.Stream
	Srv    *http.Server
}

// New is used to build a node instance
func New(cfg confile.Confiler) *Node {
	return &Node{Cfg: cfg}
}

// Run feeds the events of every source to the coordinator until all
// sources are closed or ctx is done, then releases the node.
func (n *Node) Run(ctx context.Context, sources ...event.Source) error {
	if n.Coord == nil {
		return errors.New("coordinator is not initialized")
	}
	defer n.Close()
	defer func() {
		if err := recover(); err != nil {
			n.Log.Pnc(utils.RecoverError(err))
		}
	}()
	err := n.Coord.Run(ctx, sources...)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops the status service and flushes logs and history
func (n *Node) Close() {
	if n.Srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = n.Srv.Shutdown(ctx)
		cancel()
		n.Srv = nil
	}
	if n.Log != nil {
		n.Log.Sync()
	}
	if n.Cach != nil {
		_ = n.Cach.Close()
		n.Cach = nil
	}
}
