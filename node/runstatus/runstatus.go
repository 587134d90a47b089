/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package runstatus

import (
	"github.com/jjos2372/signum-jminer/node/round"
)

type Runstatus interface {
	Processst
	Roundst
	Submitst
	round.Sink
}

type runstatus struct {
	*ProcessSt
	*RoundSt
	*SubmitSt
}

var _ Runstatus = (*runstatus)(nil)

func NewRunstatus() Runstatus {
	return &runstatus{
		ProcessSt: NewProcessSt(),
		RoundSt:   NewRoundSt(),
		SubmitSt:  NewSubmitSt(),
	}
}

// Emit keeps the status current with the records of the coordinator
func (r *runstatus) Emit(rec round.Record) {
	switch v := rec.Data.(type) {
	case round.StartInfo:
		r.SetRoundStart(v)
		r.ResetBest(v.Block)
	case round.ProgressInfo:
		r.SetProgress(v)
	case round.FinishInfo:
		r.SetRoundEnd(v.Block, StateFinished, 100, v.NetworkQuality)
	case round.StopInfo:
		r.SetRoundEnd(v.Block, StateStopped, v.Percentage, v.NetworkQuality)
	case round.QualityInfo:
		r.SetPoorQuality(v.Poor)
	case round.Submission:
		if rec.Topic == round.TopicStrange {
			return
		}
		r.AddSubmission(v)
	}
}
