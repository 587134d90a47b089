/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package event

import (
	"encoding/hex"
	"encoding/json"
	"math"
	"time"
)

type Kind string

// round manager
const (
	KindRoundStarted       Kind = "roundStarted"
	KindRoundFinished      Kind = "roundFinished"
	KindRoundStopped       Kind = "roundStopped"
	KindGenSigUpdated      Kind = "genSigUpdated"
	KindGenSigAlreadyMined Kind = "genSigAlreadyMined"
	KindResultSubmitted    Kind = "resultSubmitted"
	KindResultSkipped      Kind = "resultSkipped"
)

// reader
const (
	KindReaderProgress   Kind = "readerProgress"
	KindCorruptFile      Kind = "corruptFile"
	KindDriveFinished    Kind = "driveFinished"
	KindDriveInterrupted Kind = "driveInterrupted"
)

// network submitter
const (
	KindResultConfirmed Kind = "resultConfirmed"
	KindResultRejected  Kind = "resultRejected"
)

// UnboundedDeadline is the target deadline sent when no limit is configured
const UnboundedDeadline int64 = math.MaxInt64

// Event is one message emitted by the reader, the round manager
// or the network submitter.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Source is a typed stream of events owned by one producer.
type Source interface {
	Events() <-chan Event
}

type Header struct {
	At time.Time `json:"at"`
}

func (h Header) Timestamp() time.Time {
	return h.At
}

// Bytes is a byte slice carried as a hex string in journals
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

type RoundStarted struct {
	Header
	Block          uint64   `json:"blockNumber"`
	Scoops         []uint32 `json:"scoopNumbers"`
	Capacity       int64    `json:"capacity"`
	BaseTarget     uint64   `json:"baseTarget"`
	TargetDeadline int64    `json:"targetDeadline"`
	GenSig         Bytes    `json:"generationSignature"`
	Restart        bool     `json:"restart"`
}

type RoundFinished struct {
	Header
	Block          uint64 `json:"blockNumber"`
	Capacity       int64  `json:"capacity"`
	NetworkQuality int    `json:"networkQuality"`
	RoundTime      int64  `json:"roundTime"`
}

type RoundStopped struct {
	Header
	Block          uint64 `json:"blockNumber"`
	Capacity       int64  `json:"capacity"`
	Remaining      int64  `json:"remainingCapacity"`
	NetworkQuality int    `json:"networkQuality"`
	Elapsed        int64  `json:"elapsedTime"`
}

type GenSigUpdated struct {
	Header
	Block uint64 `json:"blockNumber"`
}

type GenSigAlreadyMined struct {
	Header
	Block uint64 `json:"blockNumber"`
}

// ReaderProgress is one scan tick. Capacity and Remaining are the logical
// round totals, RealCapacity and RealRemaining only count the bytes read
// within the current process lifetime.
type ReaderProgress struct {
	Header
	Block         uint64 `json:"blockNumber"`
	Capacity      int64  `json:"capacity"`
	Remaining     int64  `json:"remainingCapacity"`
	RealCapacity  int64  `json:"realCapacity"`
	RealRemaining int64  `json:"realRemainingCapacity"`
	Elapsed       int64  `json:"elapsedTime"`
}

type ResultSubmitted struct {
	Header
	Block              uint64 `json:"blockNumber"`
	AccountID          uint64 `json:"accountId"`
	Nonce              uint64 `json:"nonce"`
	CalculatedDeadline int64  `json:"calculatedDeadline"`
}

type ResultSkipped struct {
	Header
	Block              uint64 `json:"blockNumber"`
	AccountID          uint64 `json:"accountId"`
	Nonce              uint64 `json:"nonce"`
	CalculatedDeadline int64  `json:"calculatedDeadline"`
	TargetDeadline     int64  `json:"targetDeadline"`
}

type ResultConfirmed struct {
	Header
	Block     uint64 `json:"blockNumber"`
	AccountID uint64 `json:"accountId"`
	Nonce     uint64 `json:"nonce"`
	Deadline  int64  `json:"deadline"`
}

// ResultRejected carries the deadline the network returned for a
// submission; CalculatedDeadline <= 0 means it is unknown.
type ResultRejected struct {
	Header
	Block              uint64 `json:"blockNumber"`
	AccountID          uint64 `json:"accountId"`
	Nonce              uint64 `json:"nonce"`
	CalculatedDeadline int64  `json:"calculatedDeadline"`
	StrangeDeadline    int64  `json:"strangeDeadline"`
}

type CorruptFile struct {
	Header
	Block  uint64 `json:"blockNumber"`
	Path   string `json:"filePath"`
	Chunks int    `json:"numberOfChunks"`
	Parts  int    `json:"numberOfParts"`
}

type DriveFinished struct {
	Header
	Block     uint64 `json:"blockNumber"`
	Directory string `json:"directory"`
	Size      int64  `json:"size"`
	Time      int64  `json:"time"`
}

type DriveInterrupted struct {
	Header
	Block     uint64 `json:"blockNumber"`
	Directory string `json:"directory"`
}

func (RoundStarted) Kind() Kind       { return KindRoundStarted }
func (RoundFinished) Kind() Kind      { return KindRoundFinished }
func (RoundStopped) Kind() Kind       { return KindRoundStopped }
func (GenSigUpdated) Kind() Kind      { return KindGenSigUpdated }
func (GenSigAlreadyMined) Kind() Kind { return KindGenSigAlreadyMined }
func (ReaderProgress) Kind() Kind     { return KindReaderProgress }
func (ResultSubmitted) Kind() Kind    { return KindResultSubmitted }
func (ResultSkipped) Kind() Kind      { return KindResultSkipped }
func (ResultConfirmed) Kind() Kind    { return KindResultConfirmed }
func (ResultRejected) Kind() Kind     { return KindResultRejected }
func (CorruptFile) Kind() Kind        { return KindCorruptFile }
func (DriveFinished) Kind() Kind      { return KindDriveFinished }
func (DriveInterrupted) Kind() Kind   { return KindDriveInterrupted }

var decoders = map[Kind]func([]byte) (Event, error){
	KindRoundStarted:       decodeAs[RoundStarted],
	KindRoundFinished:      decodeAs[RoundFinished],
	KindRoundStopped:       decodeAs[RoundStopped],
	KindGenSigUpdated:      decodeAs[GenSigUpdated],
	KindGenSigAlreadyMined: decodeAs[GenSigAlreadyMined],
	KindReaderProgress:     decodeAs[ReaderProgress],
	KindResultSubmitted:    decodeAs[ResultSubmitted],
	KindResultSkipped:      decodeAs[ResultSkipped],
	KindResultConfirmed:    decodeAs[ResultConfirmed],
	KindResultRejected:     decodeAs[ResultRejected],
	KindCorruptFile:        decodeAs[CorruptFile],
	KindDriveFinished:      decodeAs[DriveFinished],
	KindDriveInterrupted:   decodeAs[DriveInterrupted],
}

func decodeAs[T Event](data []byte) (Event, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
