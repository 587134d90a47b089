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

// ProgressTracker throttles reader progress samples to at most slots+1
// records per round and derives percentage and read speeds.
type ProgressTracker struct {
	slots int
	units Units
	// step counts down from slots within a round
	step int
}

func NewProgressTracker(slots int, units Units) *ProgressTracker {
	return &ProgressTracker{
		slots: slots,
		units: units,
		step:  slots,
	}
}

func (p *ProgressTracker) Enabled() bool {
	return p.slots > 0
}

// Reset restarts throttling for a new round
func (p *ProgressTracker) Reset() {
	p.step = p.slots
}

// Track evaluates one sample against the baseline. When the sample is
// accepted the baseline is advanced and the record returned; otherwise
// nothing changes. Ordering anomalies are reported through trace.
func (p *ProgressTracker) Track(e event.ReaderProgress, baseline *Baseline, trace func(string)) (Record, bool) {
	if !p.Enabled() || p.step < 0 {
		return Record{}, false
	}
	logStepCapacity := e.Capacity / int64(p.slots)
	if !(e.Remaining < logStepCapacity*int64(p.step) || e.Remaining == 0) {
		return Record{}, false
	}
	p.step--

	info := ProgressInfo{Block: e.Block}
	info.Percentage, info.Guarded = percentDone(e.Capacity, e.Remaining)
	if info.Guarded && trace != nil {
		trace(fmt.Sprintf("progress of block '%d' reported capacity '%d'", e.Block, e.Capacity))
	}

	doneBytes := e.Capacity - e.Remaining
	if doneBytes < 0 {
		doneBytes = 0
	}
	info.DoneTera, info.DoneGiga = p.units.Split(doneBytes)

	if baseline.PrevRemaining > 0 {
		effDoneBytes := baseline.PrevRemaining - e.RealRemaining
		if effDoneBytes < 0 {
			if trace != nil {
				trace(fmt.Sprintf("out of order progress for block '%d': remaining '%d' after '%d'",
					e.Block, e.RealRemaining, baseline.PrevRemaining))
			}
			effDoneBytes = 0
		}
		elapsed := e.Elapsed - baseline.PrevElapsed
		if elapsed < 1 {
			elapsed = 1
		}
		effBytesPerMs := (effDoneBytes / scoopUnit) / elapsed
		info.EffSpeed = ptr(p.units.PerSecond(effBytesPerMs))
	}

	if e.Elapsed > 0 {
		realDoneBytes := e.RealCapacity - e.RealRemaining
		if realDoneBytes < 0 {
			realDoneBytes = 0
		}
		averageBytesPerMs := (realDoneBytes / scoopUnit) / e.Elapsed
		info.AvgSpeed = ptr(p.units.PerSecond(averageBytesPerMs))
	}

	baseline.PrevRemaining = e.RealRemaining
	baseline.PrevElapsed = e.Elapsed

	return Record{
		Level: zapcore.InfoLevel,
		Group: GroupProgress,
		Topic: TopicProgress,
		Block: e.Block,
		Msg:   p.render(info),
		Data:  info,
	}, true
}

func (p *ProgressTracker) render(info ProgressInfo) string {
	msg := fmt.Sprintf("%d%% done (%d%s %d%s)", info.Percentage, info.DoneTera, p.units.Tera, info.DoneGiga, p.units.Giga)
	if info.AvgSpeed != nil {
		msg += fmt.Sprintf(", avg.'%d %s/s'", *info.AvgSpeed, p.units.Mega)
	} else {
		msg += ", avg.'N/A'"
	}
	if info.EffSpeed != nil {
		msg += fmt.Sprintf(", eff.'%d %s/s'", *info.EffSpeed, p.units.Mega)
	}
	return msg
}
