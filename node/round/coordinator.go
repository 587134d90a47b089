/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package round

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/jjos2372/signum-jminer/configs"
	"github.com/jjos2372/signum-jminer/node/event"
	"go.uber.org/zap/zapcore"
)

const (
	netDiffScale  uint64 = configs.NetDiffScale
	scoopsPerPlot uint64 = configs.ScoopsPerPlot
	mib           uint64 = 1024 * 1024
	// scoopUnit normalizes read bytes before they become a rate
	scoopUnit int64 = 4096
	// genSigPrefix is the number of hex characters shown of a gensig
	genSigPrefix = 6
)

type Config struct {
	// ProgressLogsPerRound is the number of progress records per round,
	// <= 0 disables progress records
	ProgressLogsPerRound int
	ByteUnitDecimal      bool
}

// RoundState is the round currently being mined
type RoundState struct {
	Block          uint64
	Scoops         []uint32
	Capacity       int64
	BaseTarget     uint64
	TargetDeadline int64
	GenSig         []byte
	Restart        bool
}

// Baseline is the previous accepted progress sample of the round.
// PrevRemaining == 0 means there is none.
type Baseline struct {
	PrevRemaining int64
	PrevElapsed   int64
}

// Coordinator consumes reader, round manager and network events and turns
// them into records. All handlers serialize on one lock and never panic
// out to the caller.
type Coordinator struct {
	lock       *sync.Mutex
	sink       Sink
	units      Units
	active     *RoundState
	baseline   Baseline
	progress   *ProgressTracker
	submission *SubmissionObserver
	quality    *QualityMonitor
	now        func() time.Time
}

func NewCoordinator(cfg Config, sink Sink) *Coordinator {
	if sink == nil {
		sink = Sinks(nil)
	}
	units := NewUnits(cfg.ByteUnitDecimal)
	return &Coordinator{
		lock:       new(sync.Mutex),
		sink:       sink,
		units:      units,
		progress:   NewProgressTracker(cfg.ProgressLogsPerRound, units),
		submission: NewSubmissionObserver(units),
		quality:    NewQualityMonitor(configs.QualityThreshold),
		now:        time.Now,
	}
}

// Baseline returns a copy of the telemetry baseline
func (c *Coordinator) Baseline() Baseline {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.baseline
}

// ActiveRound returns a copy of the active round, if any
func (c *Coordinator) ActiveRound() (RoundState, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.active == nil {
		return RoundState{}, false
	}
	st := *c.active
	st.Scoops = append([]uint32(nil), c.active.Scoops...)
	st.GenSig = append([]byte(nil), c.active.GenSig...)
	return st, true
}

// Run drains every source through a single dispatch loop. It returns nil
// once all sources are closed, or ctx.Err() when ctx is done first.
func (c *Coordinator) Run(ctx context.Context, sources ...event.Source) error {
	merged := make(chan event.Event)
	wg := new(sync.WaitGroup)
	for _, src := range sources {
		wg.Add(1)
		go func(ch <-chan event.Event) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}(src.Events())
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-merged:
			if !ok {
				return nil
			}
			c.Handle(ev)
		}
	}
}

// Handle dispatches one event to its handler
func (c *Coordinator) Handle(ev event.Event) {
	defer func() {
		if err := recover(); err != nil {
			// the failing handler may have been the sink itself
			defer func() { _ = recover() }()
			c.sink.Emit(Record{
				Time:  c.now(),
				Level: zapcore.ErrorLevel,
				Group: GroupPanic,
				Topic: TopicHandlerFailure,
				Msg:   fmt.Sprintf("handling %v: %v", ev.Kind(), err),
			})
		}
	}()
	switch e := ev.(type) {
	case event.RoundStarted:
		c.OnRoundStarted(e)
	case event.RoundFinished:
		c.OnRoundFinished(e)
	case event.RoundStopped:
		c.OnRoundStopped(e)
	case event.GenSigUpdated:
		c.OnGenSigUpdated(e)
	case event.GenSigAlreadyMined:
		c.OnGenSigAlreadyMined(e)
	case event.ReaderProgress:
		c.OnReaderProgress(e)
	case event.ResultSubmitted:
		c.OnResultSubmitted(e)
	case event.ResultSkipped:
		c.OnResultSkipped(e)
	case event.ResultConfirmed:
		c.OnResultConfirmed(e)
	case event.ResultRejected:
		c.OnResultRejected(e)
	case event.CorruptFile:
		c.OnCorruptFile(e)
	case event.DriveFinished:
		c.OnDriveFinished(e)
	case event.DriveInterrupted:
		c.OnDriveInterrupted(e)
	default:
		c.emit(Record{
			Level: zapcore.DebugLevel,
			Group: GroupRound,
			Topic: TopicTrace,
			Msg:   fmt.Sprintf("no handler for event '%v'", ev.Kind()),
		})
	}
}

func (c *Coordinator) OnRoundStarted(e event.RoundStarted) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.baseline = Baseline{}
	c.progress.Reset()
	c.active = &RoundState{
		Block:          e.Block,
		Scoops:         append([]uint32(nil), e.Scoops...),
		Capacity:       e.Capacity,
		BaseTarget:     e.BaseTarget,
		TargetDeadline: e.TargetDeadline,
		GenSig:         append([]byte(nil), e.GenSig...),
		Restart:        e.Restart,
	}

	info := StartInfo{
		Block:          e.Block,
		Restart:        e.Restart,
		Scoops:         c.active.Scoops,
		Capacity:       e.Capacity,
		CapacityGiga:   c.units.ToGiga(e.Capacity),
		TargetDeadline: renderTarget(e.TargetDeadline),
		GenSigHex:      shortHex(e.GenSig),
	}
	diff := "N/A"
	if v, ok := netDiff(e.BaseTarget); ok {
		info.NetDiff = ptr(v)
		diff = fmt.Sprint(v)
	}

	action, topic := "START", TopicStart
	if e.Restart {
		action, topic = "RE-START", TopicRestart
	}
	c.emit(Record{
		Level: zapcore.InfoLevel,
		Group: GroupRound,
		Topic: topic,
		Block: e.Block,
		Msg: fmt.Sprintf("%s block '%d', scoopNumbers '%v', capacity '%d %s', targetDeadline '%s', netDiff '%s', genSig '%s..'",
			action, e.Block, e.Scoops, info.CapacityGiga, c.units.Giga, info.TargetDeadline, diff, info.GenSigHex),
		Data: info,
	})
}

func (c *Coordinator) OnRoundFinished(e event.RoundFinished) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.baseline = Baseline{}

	info := FinishInfo{
		Block:          e.Block,
		Capacity:       e.Capacity,
		NetworkQuality: e.NetworkQuality,
		RoundTime:      e.RoundTime,
	}
	msg := fmt.Sprintf("round %d finished, network quality %d %%, time %d s %d ms",
		e.Block, e.NetworkQuality, e.RoundTime/1000, e.RoundTime%1000)
	if speed, ok := roundSpeed(e.Capacity, e.RoundTime); ok {
		info.Speed = ptr(speed)
		msg += fmt.Sprintf(", %d MiB/s", speed)
	}
	c.emit(Record{
		Level: zapcore.InfoLevel,
		Group: GroupRound,
		Topic: TopicFinish,
		Block: e.Block,
		Msg:   msg,
		Data:  info,
	})
	c.evaluateQuality(e.Block, e.NetworkQuality)
}

func (c *Coordinator) OnRoundStopped(e event.RoundStopped) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.baseline = Baseline{}
	if c.active != nil && c.active.Block == e.Block {
		c.active = nil
	}

	percentage, guarded := percentDone(e.Capacity, e.Remaining)
	if guarded {
		c.trace(GroupRound, e.Block, fmt.Sprintf("stop of block '%d' reported capacity '%d', progress shown as 0%%", e.Block, e.Capacity))
	}
	c.emit(Record{
		Level: zapcore.InfoLevel,
		Group: GroupRound,
		Topic: TopicStop,
		Block: e.Block,
		Msg: fmt.Sprintf("STOP block '%d', %d%% done, net '%d%%', time '%ds %dms'",
			e.Block, percentage, e.NetworkQuality, e.Elapsed/1000, e.Elapsed%1000),
		Data: StopInfo{
			Block:          e.Block,
			Percentage:     percentage,
			Guarded:        guarded,
			NetworkQuality: e.NetworkQuality,
			Elapsed:        e.Elapsed,
		},
	})
	c.evaluateQuality(e.Block, e.NetworkQuality)
}

func (c *Coordinator) OnGenSigUpdated(e event.GenSigUpdated) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.emit(Record{
		Level: zapcore.InfoLevel,
		Group: GroupRound,
		Topic: TopicGenSigUpdated,
		Block: e.Block,
		Msg:   fmt.Sprintf("MiningInfo for block '%d' has changed, restarting round ...", e.Block),
	})
}

func (c *Coordinator) OnGenSigAlreadyMined(e event.GenSigAlreadyMined) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.emit(Record{
		Level: zapcore.InfoLevel,
		Group: GroupRound,
		Topic: TopicGenSigMined,
		Block: e.Block,
		Msg:   fmt.Sprintf("MiningInfo for block '%d' has changed back to previously successful mined.", e.Block),
	})
}

func (c *Coordinator) OnReaderProgress(e event.ReaderProgress) {
	c.lock.Lock()
	defer c.lock.Unlock()

	// a superseded round must not touch the throttle or the baseline
	if c.active != nil && e.Block != c.active.Block {
		c.trace(GroupProgress, e.Block, fmt.Sprintf("discarded progress of stale block '%d' during block '%d'", e.Block, c.active.Block))
		return
	}
	rec, ok := c.progress.Track(e, &c.baseline, func(msg string) {
		c.trace(GroupProgress, e.Block, msg)
	})
	if ok {
		c.emit(rec)
	}
}

func (c *Coordinator) evaluateQuality(block uint64, quality int) {
	if rec, ok := c.quality.Evaluate(block, quality); ok {
		c.emit(rec)
	}
}

// trace emits a debug level record
func (c *Coordinator) trace(group Group, block uint64, msg string) {
	c.emit(Record{
		Level: zapcore.DebugLevel,
		Group: group,
		Topic: TopicTrace,
		Block: block,
		Msg:   msg,
	})
}

func (c *Coordinator) emit(rec Record) {
	if rec.Time.IsZero() {
		rec.Time = c.now()
	}
	c.sink.Emit(rec)
}

func renderTarget(target int64) string {
	if target == event.UnboundedDeadline {
		return "N/A"
	}
	return fmt.Sprint(target)
}

func shortHex(b []byte) string {
	s := hex.EncodeToString(b)
	if len(s) > genSigPrefix {
		return s[:genSigPrefix]
	}
	return s
}
