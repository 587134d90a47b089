/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package configs

import "os"

const (
	// Default config file
	DefaultConfigFile = "conf.yaml"
	//
	DefaultWorkspace = "./jminer"
	//
	DefaultServicePort = 6000
	// number of progress logs per round, 0 disables progress logging
	DefaultReadProgressPerRound = 9
	//
	DefaultByteUnitDecimal = true
	// rounds kept in the history, 0 keeps all
	DefaultHistoryRounds = 10000
)

const (
	DirMode  = os.ModePerm
	FileMode = 0644
)

const (
	DbDir  = "db"
	LogDir = "log"
)

// protocol constants
const (
	// ScoopsPerPlot is the number of scoops in one nonce
	ScoopsPerPlot = 4096
	// ScoopSize is the size of one scoop in bytes
	ScoopSize = 64
	// NonceSize is the size of one nonce in bytes
	NonceSize = ScoopsPerPlot * ScoopSize
	// NetDiffScale relates base target and network difficulty
	NetDiffScale = 18325193796
	// QualityThreshold is the network quality in percent below which
	// operators are warned about failing mining info requests
	QualityThreshold = 50
)
