/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package runstatus

import (
	"sync"

	"github.com/jjos2372/signum-jminer/node/round"
)

type Submitst interface {
	AddSubmission(sub round.Submission)
	ResetBest(block uint64)

	// submitted, skipped, confirmed, rejected
	GetSubmissionCount() (uint64, uint64, uint64, uint64)
	// best confirmed deadline of the current block
	GetBestDeadline() (int64, bool)
}

type SubmitSt struct {
	lock      *sync.RWMutex
	submitted uint64
	skipped   uint64
	confirmed uint64
	rejected  uint64
	block     uint64
	best      int64
	hasBest   bool
}

func NewSubmitSt() *SubmitSt {
	return &SubmitSt{
		lock: new(sync.RWMutex),
	}
}

func (s *SubmitSt) AddSubmission(sub round.Submission) {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch sub.Outcome {
	case round.Submitted:
		s.submitted++
	case round.Skipped:
		s.skipped++
	case round.Rejected:
		s.rejected++
	case round.Confirmed:
		s.confirmed++
		if sub.Block == s.block && (!s.hasBest || sub.ConfirmedDeadline < s.best) {
			s.best = sub.ConfirmedDeadline
			s.hasBest = true
		}
	}
}

func (s *SubmitSt) ResetBest(block uint64) {
	s.lock.Lock()
	if block != s.block {
		s.block = block
		s.best = 0
		s.hasBest = false
	}
	s.lock.Unlock()
}

func (s *SubmitSt) GetSubmissionCount() (uint64, uint64, uint64, uint64) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.submitted, s.skipped, s.confirmed, s.rejected
}

func (s *SubmitSt) GetBestDeadline() (int64, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.best, s.hasBest
}
