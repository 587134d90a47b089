/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package out

import (
	"fmt"
	"io"
	"os"
	"time"
)

const (
	HiRed    = 91
	HiGreen  = 92
	HiYellow = 93
)

const (
	OkPrompt   = "OK"
	WarnPrompt = "!!"
	ErrPrompt  = "XX"
	TipPrompt  = "++"
)

const TimeFormat = "2006-01-02 15:04:05"

// Writer receives every line, stdout unless replaced
var Writer io.Writer = os.Stdout

func Tip(msg string) {
	put(HiGreen, TipPrompt, msg)
}

func Err(msg string) {
	put(HiRed, ErrPrompt, msg)
}

func Warn(msg string) {
	put(HiYellow, WarnPrompt, msg)
}

func Ok(msg string) {
	put(HiGreen, OkPrompt, msg)
}

func put(color int, prompt, msg string) {
	fmt.Fprintf(Writer, "\x1b[0;%dm%s\x1b[0m %v %s\n", color, prompt, time.Now().Format(TimeFormat), msg)
}
