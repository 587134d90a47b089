/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package runstatus

import (
	"sync"
	"time"
)

type Processst interface {
	SetPID(pid int)
	SetStartTime(t time.Time)
	SetComAddr(addr string)

	GetPID() int
	GetStartTime() time.Time
	GetComAddr() string
}

type ProcessSt struct {
	lock      *sync.RWMutex
	pid       int
	startTime time.Time
	addr      string
}

func NewProcessSt() *ProcessSt {
	return &ProcessSt{
		lock: new(sync.RWMutex),
	}
}

func (p *ProcessSt) SetPID(pid int) {
	p.lock.Lock()
	p.pid = pid
	p.lock.Unlock()
}

func (p *ProcessSt) GetPID() int {
	p.lock.RLock()
	value := p.pid
	p.lock.RUnlock()
	return value
}

func (p *ProcessSt) SetStartTime(t time.Time) {
	p.lock.Lock()
	p.startTime = t
	p.lock.Unlock()
}

func (p *ProcessSt) GetStartTime() time.Time {
	p.lock.RLock()
	value := p.startTime
	p.lock.RUnlock()
	return value
}

func (p *ProcessSt) SetComAddr(addr string) {
	p.lock.Lock()
	p.addr = addr
	p.lock.Unlock()
}

func (p *ProcessSt) GetComAddr() string {
	p.lock.RLock()
	value := p.addr
	p.lock.RUnlock()
	return value
}
