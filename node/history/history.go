/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package history

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jjos2372/signum-jminer/node/round"
	"github.com/jjos2372/signum-jminer/pkg/cache"
	"github.com/pkg/errors"
)

const roundPrefix = "round:"

const (
	Mining   = "mining"
	Finished = "finished"
	Stopped  = "stopped"
)

// Summary is what is kept of one mined block
type Summary struct {
	Block          uint64    `json:"block"`
	Restarts       int       `json:"restarts"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	Capacity       int64     `json:"capacity"`
	NetDiff        uint64    `json:"net_diff"`
	TargetDeadline string    `json:"target_deadline"`
	Outcome        string    `json:"outcome"`
	Percentage     int       `json:"percentage"`
	Speed          *int64    `json:"speed,omitempty"`
	NetworkQuality int       `json:"network_quality"`
	Submitted      int       `json:"submitted"`
	Skipped        int       `json:"skipped"`
	Confirmed      int       `json:"confirmed"`
	Rejected       int       `json:"rejected"`
	BestDeadline   *int64    `json:"best_deadline,omitempty"`
}

// History is a round.Sink keeping one Summary per block in the cache
type History struct {
	lock  *sync.Mutex
	cache cache.Cache
	onErr func(error)
	// keep is the number of rounds kept, 0 keeps all
	keep int
}

var _ round.Sink = (*History)(nil)

func New(c cache.Cache, onErr func(error)) *History {
	if onErr == nil {
		onErr = func(error) {}
	}
	return &History{
		lock:  new(sync.Mutex),
		cache: c,
		onErr: onErr,
	}
}

func key(block uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", roundPrefix, block))
}

func (h *History) Emit(rec round.Record) {
	var update func(*Summary)
	switch rec.Topic {
	case round.TopicStart, round.TopicRestart:
		info, ok := rec.Data.(round.StartInfo)
		if !ok {
			return
		}
		update = func(s *Summary) {
			if info.Restart {
				s.Restarts++
			}
			if s.StartedAt.IsZero() {
				s.StartedAt = rec.Time
			}
			s.Capacity = info.Capacity
			if info.NetDiff != nil {
				s.NetDiff = *info.NetDiff
			}
			s.TargetDeadline = info.TargetDeadline
			s.Outcome = Mining
		}
	case round.TopicFinish:
		info, ok := rec.Data.(round.FinishInfo)
		if !ok {
			return
		}
		update = func(s *Summary) {
			s.EndedAt = rec.Time
			s.Outcome = Finished
			s.Percentage = 100
			s.Speed = info.Speed
			s.NetworkQuality = info.NetworkQuality
		}
	case round.TopicStop:
		info, ok := rec.Data.(round.StopInfo)
		if !ok {
			return
		}
		update = func(s *Summary) {
			s.EndedAt = rec.Time
			s.Outcome = Stopped
			s.Percentage = info.Percentage
			s.NetworkQuality = info.NetworkQuality
		}
	case round.TopicSubmitted:
		update = func(s *Summary) { s.Submitted++ }
	case round.TopicSkipped:
		update = func(s *Summary) { s.Skipped++ }
	case round.TopicRejected:
		update = func(s *Summary) { s.Rejected++ }
	case round.TopicConfirmed:
		sub, ok := rec.Data.(round.Submission)
		if !ok {
			return
		}
		update = func(s *Summary) {
			s.Confirmed++
			if s.BestDeadline == nil || sub.ConfirmedDeadline < *s.BestDeadline {
				dl := sub.ConfirmedDeadline
				s.BestDeadline = &dl
			}
		}
	default:
		return
	}
	if err := h.update(rec.Block, update); err != nil {
		h.onErr(err)
		return
	}
	if rec.Topic == round.TopicFinish || rec.Topic == round.TopicStop {
		if _, err := h.Prune(); err != nil {
			h.onErr(err)
		}
	}
}

// SetRetention limits the history to the latest keep rounds
func (h *History) SetRetention(keep int) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if keep < 0 {
		keep = 0
	}
	h.keep = keep
}

// Prune drops the oldest rounds beyond the retention and returns how
// many were dropped
func (h *History) Prune() (int, error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.keep == 0 {
		return 0, nil
	}
	keys, err := h.cache.QueryPrefixKeyList(roundPrefix)
	if err != nil {
		return 0, errors.Wrap(err, "[QueryPrefixKeyList]")
	}
	if len(keys) <= h.keep {
		return 0, nil
	}
	old := make([][]byte, 0, len(keys)-h.keep)
	for _, k := range keys[:len(keys)-h.keep] {
		old = append(old, []byte(roundPrefix+k))
	}
	err = h.cache.DeleteBatch(old)
	if err != nil {
		return 0, errors.Wrap(err, "[DeleteBatch]")
	}
	// the limit is exclusive
	limit := append([]byte(nil), old[len(old)-1]...)
	err = h.cache.Compact(old[0], append(limit, 0))
	if err != nil {
		return len(old), errors.Wrap(err, "[Compact]")
	}
	return len(old), nil
}

func (h *History) update(block uint64, fn func(*Summary)) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	s, err := h.get(block)
	if err != nil {
		return err
	}
	fn(&s)
	val, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "[Marshal]")
	}
	return errors.Wrapf(h.cache.Put(key(block), val), "[Put] block %d", block)
}

func (h *History) get(block uint64) (Summary, error) {
	val, err := h.cache.Get(key(block))
	if err != nil {
		if errors.Is(err, cache.NotFound) {
			return Summary{Block: block}, nil
		}
		return Summary{}, errors.Wrapf(err, "[Get] block %d", block)
	}
	var s Summary
	err = json.Unmarshal(val, &s)
	if err != nil {
		return Summary{}, errors.Wrapf(err, "[Unmarshal] block %d", block)
	}
	return s, nil
}

// Get returns the summary of block; unknown blocks yield cache.NotFound
func (h *History) Get(block uint64) (Summary, error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	ok, err := h.cache.Has(key(block))
	if err != nil {
		return Summary{}, err
	}
	if !ok {
		return Summary{}, cache.NotFound
	}
	return h.get(block)
}

// List returns every stored summary in block order
func (h *History) List() ([]Summary, error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	values, err := h.cache.QueryPrefixList(roundPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "[QueryPrefixList]")
	}
	result := make([]Summary, 0, len(values))
	for _, v := range values {
		var s Summary
		if err = json.Unmarshal(v, &s); err != nil {
			return nil, errors.Wrap(err, "[Unmarshal]")
		}
		result = append(result, s)
	}
	return result, nil
}
