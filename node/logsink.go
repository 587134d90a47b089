/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"github.com/jjos2372/signum-jminer/node/round"
	"github.com/jjos2372/signum-jminer/pkg/logger"
)

// LogSink writes records to the log file of their group
type LogSink struct {
	logger.Logger
}

var _ round.Sink = (*LogSink)(nil)

func NewLogSink(lg logger.Logger) *LogSink {
	return &LogSink{Logger: lg}
}

func (l *LogSink) Emit(rec round.Record) {
	if l.Logger == nil {
		return
	}
	switch rec.Group {
	case round.GroupRound:
		l.Round(rec.Level, rec.Msg)
	case round.GroupProgress:
		l.Progress(rec.Level, rec.Msg)
	case round.GroupSubmit:
		l.Submit(rec.Level, rec.Msg)
	case round.GroupDrive:
		l.Drive(rec.Level, rec.Msg)
	case round.GroupPanic:
		l.Pnc(rec.Msg)
	}
}
