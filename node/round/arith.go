/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package round

import (
	"math"
	"math/bits"
)

// mulDivRem computes a*b/c and its remainder on non-negative operands
// with a 128-bit intermediate. ok is false on a zero divisor, a negative
// operand or a quotient beyond int64.
func mulDivRem(a, b, c int64) (quo, rem int64, ok bool) {
	if a < 0 || b < 0 || c <= 0 {
		return 0, 0, false
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(c) {
		return 0, 0, false
	}
	q, r := bits.Div64(hi, lo, uint64(c))
	if q > math.MaxInt64 {
		return 0, 0, false
	}
	return int64(q), int64(r), true
}

// percentDone returns ceil(100*(capacity-remaining)/capacity) clamped to
// [0,100]. A capacity <= 0 yields 0 and guarded=true.
func percentDone(capacity, remaining int64) (percentage int, guarded bool) {
	if capacity <= 0 {
		return 0, true
	}
	done := capacity - remaining
	if remaining < 0 || done > capacity {
		done = capacity
	}
	if done <= 0 {
		return 0, false
	}
	q, r, ok := mulDivRem(done, 100, capacity)
	if !ok {
		return 0, true
	}
	if r > 0 {
		q++
	}
	if q > 100 {
		q = 100
	}
	return int(q), false
}

// netDiff relates the base target to the network difficulty
func netDiff(baseTarget uint64) (uint64, bool) {
	if baseTarget == 0 {
		return 0, false
	}
	return netDiffScale / baseTarget, true
}

// roundSpeed returns capacity*1000 / (roundTime*scoopsPerPlot*MiB) in MiB/s
func roundSpeed(capacity, roundTime int64) (int64, bool) {
	if roundTime <= 0 || capacity < 0 {
		return 0, false
	}
	hi, denom := bits.Mul64(uint64(roundTime), scoopsPerPlot*mib)
	if hi != 0 || denom > math.MaxInt64 {
		return 0, false
	}
	q, _, ok := mulDivRem(capacity, 1000, int64(denom))
	return q, ok
}

func ptr[T any](v T) *T {
	return &v
}
