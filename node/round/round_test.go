/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package round

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jjos2372/signum-jminer/node/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type recorder struct {
	lock    sync.Mutex
	records []Record
}

func (r *recorder) Emit(rec Record) {
	r.lock.Lock()
	r.records = append(r.records, rec)
	r.lock.Unlock()
}

func (r *recorder) topic(topic string) []Record {
	r.lock.Lock()
	defer r.lock.Unlock()
	var result []Record
	for _, v := range r.records {
		if v.Topic == topic {
			result = append(result, v)
		}
	}
	return result
}

func newTestCoordinator(slots int) (*Coordinator, *recorder) {
	rec := &recorder{}
	return NewCoordinator(Config{ProgressLogsPerRound: slots, ByteUnitDecimal: true}, rec), rec
}

func started(block uint64, capacity int64) event.RoundStarted {
	return event.RoundStarted{
		Block:          block,
		Scoops:         []uint32{1234},
		Capacity:       capacity,
		BaseTarget:     100,
		TargetDeadline: event.UnboundedDeadline,
		GenSig:         event.Bytes{0xab, 0xcd, 0xef, 0x01, 0x23},
	}
}

func TestPercentDone(t *testing.T) {
	p, guarded := percentDone(1000000, 250000)
	assert.Equal(t, 75, p)
	assert.False(t, guarded)

	p, _ = percentDone(3, 2)
	assert.Equal(t, 34, p)

	p, _ = percentDone(1000, 0)
	assert.Equal(t, 100, p)

	p, _ = percentDone(1000, -5)
	assert.Equal(t, 100, p)

	p, _ = percentDone(1000, 2000)
	assert.Equal(t, 0, p)

	p, guarded = percentDone(0, 0)
	assert.Equal(t, 0, p)
	assert.True(t, guarded)

	p, guarded = percentDone(1<<62, 1)
	assert.Equal(t, 100, p)
	assert.False(t, guarded)
}

func TestNetDiff(t *testing.T) {
	v, ok := netDiff(100)
	assert.True(t, ok)
	assert.Equal(t, uint64(183251937), v)

	_, ok = netDiff(0)
	assert.False(t, ok)
}

func TestRoundSpeed(t *testing.T) {
	// 4096 MiB per second of round time is 1000 MiB/s
	speed, ok := roundSpeed(4096*1024*1024*1000, 1000)
	assert.True(t, ok)
	assert.Equal(t, int64(1000), speed)

	_, ok = roundSpeed(1000, 0)
	assert.False(t, ok)
}

func TestUnitsSplit(t *testing.T) {
	dec := NewUnits(true)
	tera, giga := dec.Split(1_500_000_000_000)
	assert.Equal(t, int64(1), tera)
	assert.Equal(t, int64(500), giga)
	assert.Equal(t, "GB", dec.Giga)

	bin := NewUnits(false)
	tera, giga = bin.Split(3 * 1024 * 1024 * 1024)
	assert.Equal(t, int64(0), tera)
	assert.Equal(t, int64(3), giga)
	assert.Equal(t, "TiB", bin.Tera)
}

func TestRoundStarted(t *testing.T) {
	c, rec := newTestCoordinator(4)
	c.Handle(started(10, 5_000_000_000))

	records := rec.topic(TopicStart)
	require.Len(t, records, 1)
	info := records[0].Data.(StartInfo)
	assert.Equal(t, "N/A", info.TargetDeadline)
	require.NotNil(t, info.NetDiff)
	assert.Equal(t, uint64(183251937), *info.NetDiff)
	assert.Equal(t, "abcdef", info.GenSigHex)
	assert.Equal(t, int64(5), info.CapacityGiga)

	st, ok := c.ActiveRound()
	assert.True(t, ok)
	assert.Equal(t, uint64(10), st.Block)

	restart := started(10, 5_000_000_000)
	restart.Restart = true
	restart.TargetDeadline = 86400
	c.Handle(restart)
	records = rec.topic(TopicRestart)
	require.Len(t, records, 1)
	assert.Equal(t, "86400", records[0].Data.(StartInfo).TargetDeadline)
}

func TestFirstSampleHasNoEffectiveSpeed(t *testing.T) {
	c, rec := newTestCoordinator(4)
	c.Handle(started(1, 4096*1000))
	c.Handle(event.ReaderProgress{Block: 1, Capacity: 4096 * 1000, Remaining: 4096 * 500,
		RealCapacity: 4096 * 1000, RealRemaining: 4096 * 500, Elapsed: 100})

	records := rec.topic(TopicProgress)
	require.Len(t, records, 1)
	info := records[0].Data.(ProgressInfo)
	assert.Nil(t, info.EffSpeed)
	require.NotNil(t, info.AvgSpeed)
	assert.Equal(t, 50, info.Percentage)
	assert.Equal(t, Baseline{PrevRemaining: 4096 * 500, PrevElapsed: 100}, c.Baseline())

	c.Handle(event.ReaderProgress{Block: 1, Capacity: 4096 * 1000, Remaining: 0,
		RealCapacity: 4096 * 1000, RealRemaining: 0, Elapsed: 200})
	records = rec.topic(TopicProgress)
	require.Len(t, records, 2)
	info = records[1].Data.(ProgressInfo)
	require.NotNil(t, info.EffSpeed)
	// 500 scoop units in 100 ms
	assert.Equal(t, int64(5*1000/1000/1000), *info.EffSpeed)
	assert.Equal(t, 100, info.Percentage)
}

func TestProgressThrottle(t *testing.T) {
	const slots = 4
	const capacity int64 = 1000 * 4096
	c, rec := newTestCoordinator(slots)
	c.Handle(started(7, capacity))

	var elapsed int64
	for remaining := capacity; remaining >= 0; remaining -= 4096 * 10 {
		elapsed += 10
		c.Handle(event.ReaderProgress{Block: 7, Capacity: capacity, Remaining: remaining,
			RealCapacity: capacity, RealRemaining: remaining, Elapsed: elapsed})
	}
	for i := 0; i < 10; i++ {
		elapsed += 10
		c.Handle(event.ReaderProgress{Block: 7, Capacity: capacity, Remaining: 0,
			RealCapacity: capacity, RealRemaining: 0, Elapsed: elapsed})
	}
	assert.LessOrEqual(t, len(rec.topic(TopicProgress)), slots+1)
	assert.GreaterOrEqual(t, len(rec.topic(TopicProgress)), slots)

	// a new round re-arms the throttle
	c.Handle(started(8, capacity))
	c.Handle(event.ReaderProgress{Block: 8, Capacity: capacity, Remaining: 0,
		RealCapacity: capacity, RealRemaining: 0, Elapsed: 10})
	assert.Equal(t, uint64(8), rec.topic(TopicProgress)[len(rec.topic(TopicProgress))-1].Block)
}

func TestProgressDisabled(t *testing.T) {
	c, rec := newTestCoordinator(0)
	c.Handle(started(1, 1000))
	c.Handle(event.ReaderProgress{Block: 1, Capacity: 1000, Remaining: 0, RealCapacity: 1000, Elapsed: 10})
	assert.Empty(t, rec.topic(TopicProgress))
	assert.Equal(t, Baseline{}, c.Baseline())
}

func TestProgressGuards(t *testing.T) {
	c, rec := newTestCoordinator(2)
	c.Handle(started(1, 0))

	assert.NotPanics(t, func() {
		c.Handle(event.ReaderProgress{Block: 1, Capacity: 0, Remaining: 0, Elapsed: 0})
	})
	records := rec.topic(TopicProgress)
	require.Len(t, records, 1)
	info := records[0].Data.(ProgressInfo)
	assert.Equal(t, 0, info.Percentage)
	assert.True(t, info.Guarded)
	assert.Nil(t, info.AvgSpeed)
}

func TestProgressOutOfOrder(t *testing.T) {
	const capacity int64 = 100 * 4096
	c, rec := newTestCoordinator(100)
	c.Handle(started(1, capacity))
	c.Handle(event.ReaderProgress{Block: 1, Capacity: capacity, Remaining: 50 * 4096,
		RealCapacity: capacity, RealRemaining: 50 * 4096, Elapsed: 500})
	// an older sample arriving late
	c.Handle(event.ReaderProgress{Block: 1, Capacity: capacity, Remaining: 40 * 4096,
		RealCapacity: capacity, RealRemaining: 60 * 4096, Elapsed: 400})

	records := rec.topic(TopicProgress)
	require.Len(t, records, 2)
	info := records[1].Data.(ProgressInfo)
	require.NotNil(t, info.EffSpeed)
	assert.Equal(t, int64(0), *info.EffSpeed)

	traces := rec.topic(TopicTrace)
	require.NotEmpty(t, traces)
	assert.Equal(t, zapcore.DebugLevel, traces[0].Level)
}

func progressSamples(c *Coordinator, capacity int64) {
	c.Handle(started(1, capacity))
	c.Handle(event.ReaderProgress{Block: 1, Capacity: capacity, Remaining: capacity / 2,
		RealCapacity: capacity, RealRemaining: capacity / 2, Elapsed: 1000})
	c.Handle(event.ReaderProgress{Block: 1, Capacity: capacity, Remaining: capacity / 8,
		RealCapacity: capacity, RealRemaining: capacity / 8, Elapsed: 2000})
}

func TestProgressSpeedDecimal(t *testing.T) {
	c, rec := newTestCoordinator(4)
	progressSamples(c, 4096_000_000_000)

	records := rec.topic(TopicProgress)
	require.Len(t, records, 2)

	first := records[0].Data.(ProgressInfo)
	require.NotNil(t, first.AvgSpeed)
	assert.Equal(t, int64(500), *first.AvgSpeed)
	assert.Nil(t, first.EffSpeed)
	assert.Equal(t, "50% done (2TB 48GB), avg.'500 MB/s'", records[0].Msg)

	second := records[1].Data.(ProgressInfo)
	require.NotNil(t, second.AvgSpeed)
	require.NotNil(t, second.EffSpeed)
	assert.Equal(t, int64(437), *second.AvgSpeed)
	assert.Equal(t, int64(375), *second.EffSpeed)
	assert.Equal(t, "88% done (3TB 584GB), avg.'437 MB/s', eff.'375 MB/s'", records[1].Msg)
}

func TestProgressSpeedBinary(t *testing.T) {
	rec := &recorder{}
	c := NewCoordinator(Config{ProgressLogsPerRound: 4, ByteUnitDecimal: false}, rec)
	progressSamples(c, 4096_000_000_000)

	records := rec.topic(TopicProgress)
	require.Len(t, records, 2)

	first := records[0].Data.(ProgressInfo)
	require.NotNil(t, first.AvgSpeed)
	assert.Equal(t, int64(476), *first.AvgSpeed)
	assert.Equal(t, "50% done (1TiB 883GiB), avg.'476 MiB/s'", records[0].Msg)

	second := records[1].Data.(ProgressInfo)
	require.NotNil(t, second.AvgSpeed)
	require.NotNil(t, second.EffSpeed)
	assert.Equal(t, int64(417), *second.AvgSpeed)
	assert.Equal(t, int64(357), *second.EffSpeed)
}

func TestStaleProgressIsDiscarded(t *testing.T) {
	const capacity int64 = 4096_000_000_000
	c, rec := newTestCoordinator(4)
	c.Handle(started(1, capacity))
	c.Handle(started(2, capacity))

	// a late sample of the superseded round
	c.Handle(event.ReaderProgress{Block: 1, Capacity: capacity, Remaining: capacity / 8,
		RealCapacity: capacity, RealRemaining: capacity / 8, Elapsed: 3000})
	assert.Equal(t, Baseline{}, c.Baseline())
	assert.Empty(t, rec.topic(TopicProgress))

	traces := rec.topic(TopicTrace)
	require.Len(t, traces, 1)
	assert.Equal(t, uint64(1), traces[0].Block)
	assert.Equal(t, zapcore.DebugLevel, traces[0].Level)

	c.Handle(event.ReaderProgress{Block: 2, Capacity: capacity, Remaining: capacity / 2,
		RealCapacity: capacity, RealRemaining: capacity / 2, Elapsed: 1000})
	records := rec.topic(TopicProgress)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(2), records[0].Block)
	assert.Nil(t, records[0].Data.(ProgressInfo).EffSpeed)
	assert.Len(t, rec.topic(TopicTrace), 1)
	assert.Equal(t, Baseline{PrevRemaining: capacity / 2, PrevElapsed: 1000}, c.Baseline())
}

func TestRoundStoppedResetsBaseline(t *testing.T) {
	c, rec := newTestCoordinator(4)
	c.Handle(started(3, 4096*100))
	c.Handle(event.ReaderProgress{Block: 3, Capacity: 4096 * 100, Remaining: 0,
		RealCapacity: 4096 * 100, RealRemaining: 4096, Elapsed: 10})
	assert.NotEqual(t, Baseline{}, c.Baseline())

	stop := event.RoundStopped{Block: 3, Capacity: 1_000_000, Remaining: 250_000, NetworkQuality: 100, Elapsed: 1500}
	c.Handle(stop)
	first := c.Baseline()
	c.Handle(stop)
	assert.Equal(t, Baseline{}, first)
	assert.Equal(t, first, c.Baseline())

	records := rec.topic(TopicStop)
	require.Len(t, records, 2)
	assert.Equal(t, 75, records[0].Data.(StopInfo).Percentage)
	_, ok := c.ActiveRound()
	assert.False(t, ok)
}

func TestRoundStoppedZeroCapacity(t *testing.T) {
	c, rec := newTestCoordinator(4)
	assert.NotPanics(t, func() {
		c.Handle(event.RoundStopped{Block: 3, Capacity: 0, NetworkQuality: 100})
	})
	records := rec.topic(TopicStop)
	require.Len(t, records, 1)
	info := records[0].Data.(StopInfo)
	assert.Equal(t, 0, info.Percentage)
	assert.True(t, info.Guarded)
}

func TestRoundFinished(t *testing.T) {
	c, rec := newTestCoordinator(4)
	c.Handle(event.RoundFinished{Block: 5, Capacity: 4096 * 1024 * 1024 * 10, NetworkQuality: 42, RoundTime: 0})

	records := rec.topic(TopicFinish)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Data.(FinishInfo).Speed)
	require.Len(t, rec.topic(TopicQuality), 1)
	assert.Equal(t, zapcore.WarnLevel, rec.topic(TopicQuality)[0].Level)

	c.Handle(event.RoundFinished{Block: 6, Capacity: 4096 * 1024 * 1024 * 10, NetworkQuality: 50, RoundTime: 1000})
	records = rec.topic(TopicFinish)
	require.Len(t, records, 2)
	require.NotNil(t, records[1].Data.(FinishInfo).Speed)
	assert.Equal(t, int64(10), *records[1].Data.(FinishInfo).Speed)
	assert.Len(t, rec.topic(TopicQuality), 1)
}

func TestQualityMonitor(t *testing.T) {
	q := NewQualityMonitor(50)
	_, ok := q.Evaluate(1, 42)
	assert.True(t, ok)
	_, ok = q.Evaluate(1, 50)
	assert.False(t, ok)
	_, ok = q.Evaluate(1, 100)
	assert.False(t, ok)
}

func TestGenSigEventsKeepBaseline(t *testing.T) {
	c, rec := newTestCoordinator(4)
	c.Handle(started(3, 4096*100))
	c.Handle(event.ReaderProgress{Block: 3, Capacity: 4096 * 100, Remaining: 0,
		RealCapacity: 4096 * 100, RealRemaining: 4096, Elapsed: 10})
	before := c.Baseline()

	c.Handle(event.GenSigUpdated{Block: 3})
	c.Handle(event.GenSigAlreadyMined{Block: 3})
	assert.Equal(t, before, c.Baseline())
	assert.Len(t, rec.topic(TopicGenSigUpdated), 1)
	assert.Len(t, rec.topic(TopicGenSigMined), 1)
}

func TestSubmissions(t *testing.T) {
	c, rec := newTestCoordinator(4)
	c.Handle(event.ResultSubmitted{Block: 1, AccountID: 42, Nonce: 7, CalculatedDeadline: 300})
	c.Handle(event.ResultSkipped{Block: 1, AccountID: 42, Nonce: 8, CalculatedDeadline: 900, TargetDeadline: 600})
	c.Handle(event.ResultConfirmed{Block: 1, AccountID: 42, Nonce: 7, Deadline: 300})
	c.Handle(event.ResultRejected{Block: 1, AccountID: 42, Nonce: 9, CalculatedDeadline: 0, StrangeDeadline: 12345})

	require.Len(t, rec.topic(TopicSubmitted), 1)
	require.Len(t, rec.topic(TopicSkipped), 1)
	assert.Equal(t, "dl '900' > '600' skipped", rec.topic(TopicSkipped)[0].Msg)
	require.Len(t, rec.topic(TopicConfirmed), 1)
	assert.Equal(t, int64(300), rec.topic(TopicConfirmed)[0].Data.(Submission).ConfirmedDeadline)

	rejected := rec.topic(TopicRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.ErrorLevel, rejected[0].Level)
	assert.Contains(t, rejected[0].Msg, "deadline=N/A")
	strange := rec.topic(TopicStrange)
	require.Len(t, strange, 1)
	assert.Equal(t, zapcore.DebugLevel, strange[0].Level)
}

func TestDriveEvents(t *testing.T) {
	c, rec := newTestCoordinator(4)
	c.Handle(started(20, 1000))

	c.Handle(event.DriveFinished{Block: 19, Directory: "/plots/a", Size: 2_000_000_000_000, Time: 1500})
	assert.Empty(t, rec.topic(TopicDriveFinished))

	c.Handle(event.DriveFinished{Block: 20, Directory: "/plots/a", Size: 2_000_000_000_000, Time: 1500})
	finished := rec.topic(TopicDriveFinished)
	require.Len(t, finished, 1)
	assert.Equal(t, "read '/plots/a' (2TB 0GB) in '1s 500ms'", finished[0].Msg)

	c.Handle(event.DriveInterrupted{Block: 19, Directory: "/plots/b"})
	c.Handle(event.CorruptFile{Block: 20, Path: "/plots/a/1_0_8", Chunks: 2, Parts: 4})
	assert.Len(t, rec.topic(TopicDriveStopped), 1)
	assert.Len(t, rec.topic(TopicCorrupt), 1)

	// no finish is attributed once the round is torn down
	c.Handle(event.RoundStopped{Block: 20, Capacity: 1000, Remaining: 500, NetworkQuality: 100})
	c.Handle(event.DriveFinished{Block: 20, Directory: "/plots/c", Size: 1, Time: 1})
	assert.Len(t, rec.topic(TopicDriveFinished), 1)
}

func TestHandlerFailureIsRecovered(t *testing.T) {
	calls := 0
	sink := SinkFunc(func(rec Record) {
		calls++
		if rec.Topic == TopicSubmitted {
			panic("sink failure")
		}
	})
	c := NewCoordinator(Config{ProgressLogsPerRound: 1}, sink)
	assert.NotPanics(t, func() {
		c.Handle(event.ResultSubmitted{Block: 1})
	})
	assert.Equal(t, 2, calls)
	// lock was released
	c.Handle(event.GenSigUpdated{Block: 1})
	assert.Equal(t, 3, calls)
}

func TestConcurrentProgress(t *testing.T) {
	const slots = 8
	const capacity int64 = 4096 * 4096
	c, rec := newTestCoordinator(slots)
	c.Handle(started(1, capacity))

	wg := new(sync.WaitGroup)
	for drive := 0; drive < 4; drive++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := int64(0); i <= 64; i++ {
				remaining := capacity - i*capacity/64
				c.OnReaderProgress(event.ReaderProgress{Block: 1, Capacity: capacity, Remaining: remaining,
					RealCapacity: capacity, RealRemaining: remaining, Elapsed: i + 1})
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, len(rec.topic(TopicProgress)), slots+1)
}

func TestRunDrainsSources(t *testing.T) {
	c, rec := newTestCoordinator(4)
	feed := event.NewFeed(16)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, feed) }()

	require.NoError(t, feed.Publish(ctx, started(1, 1000)))
	require.NoError(t, feed.Publish(ctx, event.RoundFinished{Block: 1, Capacity: 1000, NetworkQuality: 100, RoundTime: 10}))
	feed.Close()

	assert.NoError(t, <-done)
	assert.Len(t, rec.topic(TopicStart), 1)
	assert.Len(t, rec.topic(TopicFinish), 1)
	assert.ErrorIs(t, feed.Publish(ctx, event.GenSigUpdated{}), event.ErrFeedClosed)
}
