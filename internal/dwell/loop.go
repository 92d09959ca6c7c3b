/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dwell

import (
	"context"
	"sync"
	"time"
)

// Loop is a real-time scheduler. Posted work and timer expiries are queued
// and executed one at a time by Run. Timer.Stop must be called from inside
// the loop (any posted function or timer callback).
type Loop struct {
	queue    chan func()
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop with a queue of the given depth.
func NewLoop(depth int) *Loop {
	if depth <= 0 {
		depth = 64
	}
	return &Loop{queue: make(chan func(), depth), stopCh: make(chan struct{})}
}

// Post enqueues fn. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopCh:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.stopCh:
		return false
	}
}

// Run executes queued work until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.stopCh) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

type loopTimer struct {
	t       *time.Timer
	stopped bool // loop-owned
	fired   bool // loop-owned
}

// AfterFunc schedules fn to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped {
				return
			}
			lt.fired = true
			fn()
		})
	})
	return lt
}

func (lt *loopTimer) Stop() bool {
	if lt.stopped || lt.fired {
		return false
	}
	lt.stopped = true
	lt.t.Stop()
	return true
}
