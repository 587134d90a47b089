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

const (
	StateIdle     = "idle"
	StateMining   = "mining"
	StateFinished = "finished"
	StateStopped  = "stopped"
)

type Roundst interface {
	SetRoundStart(info round.StartInfo)
	SetProgress(info round.ProgressInfo)
	SetRoundEnd(block uint64, state string, percentage, quality int)
	SetPoorQuality(poor bool)

	GetRoundInfo() RoundInfo
}

// RoundInfo is a snapshot of the round being mined
type RoundInfo struct {
	Block          uint64 `json:"block"`
	Restart        bool   `json:"restart"`
	State          string `json:"state"`
	Capacity       int64  `json:"capacity"`
	NetDiff        uint64 `json:"net_diff"`
	TargetDeadline string `json:"target_deadline"`
	GenSig         string `json:"gensig"`
	Percentage     int    `json:"percentage"`
	DoneTera       int64  `json:"done_tera"`
	DoneGiga       int64  `json:"done_giga"`
	AvgSpeed       *int64 `json:"avg_speed,omitempty"`
	EffSpeed       *int64 `json:"eff_speed,omitempty"`
	NetworkQuality int    `json:"network_quality"`
	PoorQuality    bool   `json:"poor_quality"`
}

type RoundSt struct {
	lock *sync.RWMutex
	info RoundInfo
}

func NewRoundSt() *RoundSt {
	return &RoundSt{
		lock: new(sync.RWMutex),
		info: RoundInfo{State: StateIdle, NetworkQuality: 100},
	}
}

func (r *RoundSt) SetRoundStart(info round.StartInfo) {
	r.lock.Lock()
	quality, poor := r.info.NetworkQuality, r.info.PoorQuality
	r.info = RoundInfo{
		Block:          info.Block,
		Restart:        info.Restart,
		State:          StateMining,
		Capacity:       info.Capacity,
		TargetDeadline: info.TargetDeadline,
		GenSig:         info.GenSigHex,
		NetworkQuality: quality,
		PoorQuality:    poor,
	}
	if info.NetDiff != nil {
		r.info.NetDiff = *info.NetDiff
	}
	r.lock.Unlock()
}

func (r *RoundSt) SetProgress(info round.ProgressInfo) {
	r.lock.Lock()
	if info.Block == r.info.Block {
		r.info.Percentage = info.Percentage
		r.info.DoneTera = info.DoneTera
		r.info.DoneGiga = info.DoneGiga
		r.info.AvgSpeed = info.AvgSpeed
		r.info.EffSpeed = info.EffSpeed
	}
	r.lock.Unlock()
}

func (r *RoundSt) SetRoundEnd(block uint64, state string, percentage, quality int) {
	r.lock.Lock()
	if block == r.info.Block {
		r.info.State = state
		r.info.Percentage = percentage
	}
	r.info.NetworkQuality = quality
	// a healthy report clears an earlier warning, a poor one is set by SetPoorQuality
	r.info.PoorQuality = false
	r.lock.Unlock()
}

func (r *RoundSt) SetPoorQuality(poor bool) {
	r.lock.Lock()
	r.info.PoorQuality = poor
	r.lock.Unlock()
}

func (r *RoundSt) GetRoundInfo() RoundInfo {
	r.lock.RLock()
	value := r.info
	r.lock.RUnlock()
	return value
}
