/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dwell

import (
	"sort"
	"time"
)

// Manual is a virtual clock. Timers only fire inside Advance, on the calling
// goroutine, in deadline order (creation order breaks ties). It is not safe
// for concurrent use.
type Manual struct {
	now    time.Duration
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	m        *Manual
	deadline time.Duration
	seq      uint64
	fn       func()
	done     bool
}

func NewManual() *Manual { return &Manual{} }

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration { return m.now }

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.seq++
	t := &manualTimer{m: m, deadline: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	t.m.drop(t)
	return true
}

func (m *Manual) drop(t *manualTimer) {
	for i, x := range m.timers {
		if x == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

// Pending returns the number of scheduled timers.
func (m *Manual) Pending() int { return len(m.timers) }

// Advance moves the clock forward by d, firing every timer that comes due,
// including timers scheduled by callbacks during the advance. It returns the
// number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now + d
	fired := 0
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.deadline
		next.done = true
		m.drop(next)
		next.fn()
		fired++
	}
	m.now = target
	return fired
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].deadline != m.timers[j].deadline {
			return m.timers[i].deadline < m.timers[j].deadline
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	if m.timers[0].deadline > target {
		return nil
	}
	return m.timers[0]
}
