/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package round

import (
	"fmt"

	"github.com/jjos2372/signum-jminer/node/event"
	"go.uber.org/zap/zapcore"
)

// SubmissionObserver turns submission outcomes and drive scan outcomes
// into records. It keeps no state of its own.
type SubmissionObserver struct {
	units Units
}

func NewSubmissionObserver(units Units) *SubmissionObserver {
	return &SubmissionObserver{units: units}
}

func (s *SubmissionObserver) Submitted(e event.ResultSubmitted) Record {
	return Record{
		Level: zapcore.InfoLevel,
		Group: GroupSubmit,
		Topic: TopicSubmitted,
		Block: e.Block,
		Msg:   fmt.Sprintf("deadline submitted: account=%d, nonce=%d, deadline=%d", e.AccountID, e.Nonce, e.CalculatedDeadline),
		Data: Submission{
			Outcome:            Submitted,
			Block:              e.Block,
			AccountID:          e.AccountID,
			Nonce:              e.Nonce,
			CalculatedDeadline: e.CalculatedDeadline,
		},
	}
}

func (s *SubmissionObserver) Skipped(e event.ResultSkipped) Record {
	return Record{
		Level: zapcore.InfoLevel,
		Group: GroupSubmit,
		Topic: TopicSkipped,
		Block: e.Block,
		Msg:   fmt.Sprintf("dl '%d' > '%s' skipped", e.CalculatedDeadline, renderTarget(e.TargetDeadline)),
		Data: Submission{
			Outcome:            Skipped,
			Block:              e.Block,
			AccountID:          e.AccountID,
			Nonce:              e.Nonce,
			CalculatedDeadline: e.CalculatedDeadline,
			TargetDeadline:     e.TargetDeadline,
		},
	}
}

func (s *SubmissionObserver) Confirmed(e event.ResultConfirmed) Record {
	return Record{
		Level: zapcore.InfoLevel,
		Group: GroupSubmit,
		Topic: TopicConfirmed,
		Block: e.Block,
		Msg:   fmt.Sprintf("deadline accepted: account=%d, nonce=%d, deadline=%d", e.AccountID, e.Nonce, e.Deadline),
		Data: Submission{
			Outcome:            Confirmed,
			Block:              e.Block,
			AccountID:          e.AccountID,
			Nonce:              e.Nonce,
			CalculatedDeadline: e.Deadline,
			ConfirmedDeadline:  e.Deadline,
		},
	}
}

// Rejected returns the error record and a debug record with the details
// of the strange deadline.
func (s *SubmissionObserver) Rejected(e event.ResultRejected) (Record, Record) {
	calculated := "N/A"
	if e.CalculatedDeadline > 0 {
		calculated = fmt.Sprint(e.CalculatedDeadline)
	}
	sub := Submission{
		Outcome:            Rejected,
		Block:              e.Block,
		AccountID:          e.AccountID,
		Nonce:              e.Nonce,
		CalculatedDeadline: e.CalculatedDeadline,
		StrangeDeadline:    e.StrangeDeadline,
	}
	rejected := Record{
		Level: zapcore.ErrorLevel,
		Group: GroupSubmit,
		Topic: TopicRejected,
		Block: e.Block,
		Msg: fmt.Sprintf("deadline rejected: account=%d, nonce=%d, deadline=%s, returned deadline=%d",
			e.AccountID, e.Nonce, calculated, e.StrangeDeadline),
		Data: sub,
	}
	strange := Record{
		Level: zapcore.DebugLevel,
		Group: GroupSubmit,
		Topic: TopicStrange,
		Block: e.Block,
		Msg: fmt.Sprintf("strange dl result '%d', calculated '%s' block '%d' nonce '%d'",
			e.StrangeDeadline, calculated, e.Block, e.Nonce),
		Data: sub,
	}
	return rejected, strange
}

func (s *SubmissionObserver) Corrupt(e event.CorruptFile) Record {
	return Record{
		Level: zapcore.DebugLevel,
		Group: GroupDrive,
		Topic: TopicCorrupt,
		Block: e.Block,
		Msg: fmt.Sprintf("strange dl source '%s', file chunks '%d', parts per chunk '%d', block '%d'",
			e.Path, e.Chunks, e.Parts, e.Block),
		Data: DriveScan{
			Outcome:   Corrupt,
			Block:     e.Block,
			Directory: e.Path,
			Chunks:    e.Chunks,
			Parts:     e.Parts,
		},
	}
}

// Finished returns the record of a finished drive, or ok=false when the
// scan belongs to a round other than activeBlock.
func (s *SubmissionObserver) Finished(e event.DriveFinished, activeBlock uint64, active bool) (Record, bool) {
	if !active || e.Block != activeBlock {
		return Record{}, false
	}
	tera, giga := s.units.Split(e.Size)
	return Record{
		Level: zapcore.InfoLevel,
		Group: GroupDrive,
		Topic: TopicDriveFinished,
		Block: e.Block,
		Msg: fmt.Sprintf("read '%s' (%d%s %d%s) in '%ds %dms'",
			e.Directory, tera, s.units.Tera, giga, s.units.Giga, e.Time/1000, e.Time%1000),
		Data: DriveScan{
			Outcome:   Finished,
			Block:     e.Block,
			Directory: e.Directory,
			Size:      e.Size,
			Elapsed:   e.Time,
		},
	}, true
}

func (s *SubmissionObserver) Interrupted(e event.DriveInterrupted) Record {
	return Record{
		Level: zapcore.DebugLevel,
		Group: GroupDrive,
		Topic: TopicDriveStopped,
		Block: e.Block,
		Msg:   fmt.Sprintf("stopped '%s' for block '%d'.", e.Directory, e.Block),
		Data: DriveScan{
			Outcome:   Interrupted,
			Block:     e.Block,
			Directory: e.Directory,
		},
	}
}

func (c *Coordinator) OnResultSubmitted(e event.ResultSubmitted) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.emit(c.submission.Submitted(e))
}

func (c *Coordinator) OnResultSkipped(e event.ResultSkipped) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.emit(c.submission.Skipped(e))
}

func (c *Coordinator) OnResultConfirmed(e event.ResultConfirmed) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.emit(c.submission.Confirmed(e))
}

func (c *Coordinator) OnResultRejected(e event.ResultRejected) {
	c.lock.Lock()
	defer c.lock.Unlock()
	rejected, strange := c.submission.Rejected(e)
	c.emit(rejected)
	c.emit(strange)
}

func (c *Coordinator) OnCorruptFile(e event.CorruptFile) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.emit(c.submission.Corrupt(e))
}

func (c *Coordinator) OnDriveFinished(e event.DriveFinished) {
	c.lock.Lock()
	defer c.lock.Unlock()
	var activeBlock uint64
	if c.active != nil {
		activeBlock = c.active.Block
	}
	rec, ok := c.submission.Finished(e, activeBlock, c.active != nil)
	if !ok {
		c.trace(GroupDrive, e.Block, fmt.Sprintf("discarded finish of '%s' for stale block '%d'", e.Directory, e.Block))
		return
	}
	c.emit(rec)
}

func (c *Coordinator) OnDriveInterrupted(e event.DriveInterrupted) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.emit(c.submission.Interrupted(e))
}
