/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package round

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// Group selects the log a record belongs to
type Group uint8

const (
	GroupRound Group = iota
	GroupProgress
	GroupSubmit
	GroupDrive
	GroupPanic
)

func (g Group) String() string {
	switch g {
	case GroupRound:
		return "round"
	case GroupProgress:
		return "progress"
	case GroupSubmit:
		return "submit"
	case GroupDrive:
		return "drive"
	case GroupPanic:
		return "panic"
	}
	return "unknown"
}

// record topics
const (
	TopicStart          = "start"
	TopicRestart        = "restart"
	TopicFinish         = "finish"
	TopicStop           = "stop"
	TopicGenSigUpdated  = "gensig-updated"
	TopicGenSigMined    = "gensig-mined"
	TopicProgress       = "progress"
	TopicSubmitted      = "submitted"
	TopicSkipped        = "skipped"
	TopicConfirmed      = "confirmed"
	TopicRejected       = "rejected"
	TopicStrange        = "strange"
	TopicCorrupt        = "corrupt"
	TopicDriveFinished  = "drive-finished"
	TopicDriveStopped   = "drive-interrupted"
	TopicQuality        = "quality"
	TopicTrace          = "trace"
	TopicHandlerFailure = "handler-failure"
)

// Record is one status, diagnostic or warning line produced by the
// coordinator. Data holds the typed payload of the topic, if any.
type Record struct {
	Time  time.Time
	Level zapcore.Level
	Group Group
	Topic string
	Block uint64
	Msg   string
	Data  any
}

type Sink interface {
	Emit(rec Record)
}

// Sinks fans a record out to every sink in order
type Sinks []Sink

func (s Sinks) Emit(rec Record) {
	for _, v := range s {
		if v != nil {
			v.Emit(rec)
		}
	}
}

// SinkFunc adapts a function to Sink
type SinkFunc func(rec Record)

func (f SinkFunc) Emit(rec Record) {
	f(rec)
}

type StartInfo struct {
	Block          uint64   `json:"block"`
	Restart        bool     `json:"restart"`
	Scoops         []uint32 `json:"scoops"`
	Capacity       int64    `json:"capacity"`
	CapacityGiga   int64    `json:"capacity_giga"`
	TargetDeadline string   `json:"target_deadline"`
	// NetDiff is nil when the base target is zero
	NetDiff   *uint64 `json:"net_diff,omitempty"`
	GenSigHex string  `json:"gensig"`
}

type FinishInfo struct {
	Block          uint64 `json:"block"`
	Capacity       int64  `json:"capacity"`
	NetworkQuality int    `json:"network_quality"`
	RoundTime      int64  `json:"round_time"`
	// Speed in MiB/s, nil when it cannot be derived
	Speed *int64 `json:"speed,omitempty"`
}

type StopInfo struct {
	Block          uint64 `json:"block"`
	Percentage     int    `json:"percentage"`
	Guarded        bool   `json:"guarded"`
	NetworkQuality int    `json:"network_quality"`
	Elapsed        int64  `json:"elapsed"`
}

type ProgressInfo struct {
	Block      uint64 `json:"block"`
	Percentage int    `json:"percentage"`
	Guarded    bool   `json:"guarded"`
	DoneTera   int64  `json:"done_tera"`
	DoneGiga   int64  `json:"done_giga"`
	// AvgSpeed and EffSpeed are in M-units per second, nil when unavailable
	AvgSpeed *int64 `json:"avg_speed,omitempty"`
	EffSpeed *int64 `json:"eff_speed,omitempty"`
}

type QualityInfo struct {
	NetworkQuality int  `json:"network_quality"`
	Poor           bool `json:"poor"`
}

type Outcome uint8

const (
	Submitted Outcome = iota
	Skipped
	Confirmed
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Submitted:
		return "submitted"
	case Skipped:
		return "skipped"
	case Confirmed:
		return "confirmed"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Submission describes one candidate deadline. CalculatedDeadline <= 0
// means the value is unknown.
type Submission struct {
	Outcome            Outcome `json:"outcome"`
	Block              uint64  `json:"block"`
	AccountID          uint64  `json:"account_id"`
	Nonce              uint64  `json:"nonce"`
	CalculatedDeadline int64   `json:"calculated_deadline"`
	TargetDeadline     int64   `json:"target_deadline,omitempty"`
	ConfirmedDeadline  int64   `json:"confirmed_deadline,omitempty"`
	StrangeDeadline    int64   `json:"strange_deadline,omitempty"`
}

type ScanOutcome uint8

const (
	Finished ScanOutcome = iota
	Interrupted
	Corrupt
)

func (o ScanOutcome) String() string {
	switch o {
	case Finished:
		return "finished"
	case Interrupted:
		return "interrupted"
	case Corrupt:
		return "corrupt"
	}
	return "unknown"
}

type DriveScan struct {
	Outcome   ScanOutcome `json:"outcome"`
	Block     uint64      `json:"block"`
	Directory string      `json:"directory"`
	Size      int64       `json:"size,omitempty"`
	Elapsed   int64       `json:"elapsed,omitempty"`
	Chunks    int         `json:"chunks,omitempty"`
	Parts     int         `json:"parts,omitempty"`
}
