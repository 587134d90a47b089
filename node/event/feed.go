/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package event

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var ErrFeedClosed = errors.New("event feed closed")

// Feed is an in-process Source: producers living in the same process
// publish into it and the coordinator drains it.
type Feed struct {
	lock   *sync.RWMutex
	ch     chan Event
	done   chan struct{}
	once   *sync.Once
	closed bool
}

var _ Source = (*Feed)(nil)

func NewFeed(buffer int) *Feed {
	if buffer < 0 {
		buffer = 0
	}
	return &Feed{
		lock: new(sync.RWMutex),
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
		once: new(sync.Once),
	}
}

func (f *Feed) Events() <-chan Event {
	return f.ch
}

// Publish blocks until the event is queued, ctx is done or the feed is
// closed.
func (f *Feed) Publish(ctx context.Context, ev Event) error {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.closed {
		return ErrFeedClosed
	}
	select {
	case f.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return ErrFeedClosed
	}
}

// Close ends the stream; events already queued are still delivered.
// Blocked publishers are released before the channel is closed.
func (f *Feed) Close() {
	f.once.Do(func() { close(f.done) })
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.ch)
}
