/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package event

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// maxLineSize bounds a single journal line
const maxLineSize = 1024 * 1024

type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Journal is a Source replaying newline delimited JSON envelopes of the
// form {"type":"roundStarted","data":{...}}.
type Journal struct {
	r     io.Reader
	ch    chan Event
	onErr func(line int, err error)
}

var _ Source = (*Journal)(nil)

// NewJournal builds a journal over r. Lines that cannot be decoded are
// passed to onErr and skipped; onErr may be nil.
func NewJournal(r io.Reader, buffer int, onErr func(line int, err error)) *Journal {
	if buffer < 0 {
		buffer = 0
	}
	if onErr == nil {
		onErr = func(int, error) {}
	}
	return &Journal{
		r:     r,
		ch:    make(chan Event, buffer),
		onErr: onErr,
	}
}

func (j *Journal) Events() <-chan Event {
	return j.ch
}

// Start reads the journal in the background and closes the event stream
// at end of input or when ctx is done.
func (j *Journal) Start(ctx context.Context) {
	go j.read(ctx)
}

func (j *Journal) read(ctx context.Context) {
	defer close(j.ch)
	scanner := bufio.NewScanner(j.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 || data[0] == '#' {
			continue
		}
		ev, err := Decode(data)
		if err != nil {
			j.onErr(line, err)
			continue
		}
		select {
		case j.ch <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		j.onErr(line, errors.Wrap(err, "[scanner]"))
	}
}

// Encode renders ev as one journal line without the trailing newline
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, errors.Wrapf(err, "[Marshal] %v", ev.Kind())
	}
	return json.Marshal(envelope{Type: ev.Kind(), Data: data})
}

// Decode parses one journal line
func Decode(line []byte) (Event, error) {
	var env envelope
	err := json.Unmarshal(line, &env)
	if err != nil {
		return nil, errors.Wrap(err, "[Unmarshal]")
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return nil, errors.Errorf("unknown event type: '%v'", env.Type)
	}
	if len(env.Data) == 0 {
		return nil, errors.Errorf("event '%v' has no data", env.Type)
	}
	ev, err := decode(env.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "[decode] %v", env.Type)
	}
	return ev, nil
}
