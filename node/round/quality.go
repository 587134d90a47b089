/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package round

import "go.uber.org/zap/zapcore"

const poorQualityMsg = "More than 50% of 'mining info' requests failed, please set 'debug=true' for detailed info."

// QualityMonitor warns when the network quality drops below threshold
type QualityMonitor struct {
	threshold int
}

func NewQualityMonitor(threshold int) *QualityMonitor {
	return &QualityMonitor{threshold: threshold}
}

// Healthy reports whether quality is at or above the threshold
func (q *QualityMonitor) Healthy(quality int) bool {
	return quality >= q.threshold
}

// Evaluate returns a warning record when quality is below the threshold
func (q *QualityMonitor) Evaluate(block uint64, quality int) (Record, bool) {
	if q.Healthy(quality) {
		return Record{}, false
	}
	return Record{
		Level: zapcore.WarnLevel,
		Group: GroupRound,
		Topic: TopicQuality,
		Block: block,
		Msg:   poorQualityMsg,
		Data:  QualityInfo{NetworkQuality: quality, Poor: true},
	}, true
}
