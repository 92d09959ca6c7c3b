/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package dwell provides fire-once, cancellable timers that run their
// callbacks on the owner's single logical thread.
//
// Two schedulers are available: Manual, a virtual clock advanced explicitly
// (tests, script replay), and Loop, which serializes real-time expiries and
// posted work onto the goroutine executing Run.
package dwell

import "time"

// Timer is a pending fire-once callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from running. Once Stop returns on the owner's thread the
	// callback never runs.
	Stop() bool
}

// Scheduler creates timers whose callbacks run on the owner's thread.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Once holds at most one pending timer of a kind. Starting it while a timer
// is pending is a no-op, which gives dwell semantics to repeated pointer
// updates inside the same zone.
type Once struct {
	Name string
	s    Scheduler
	t    Timer
	gen  uint64
}

// NewOnce binds a named timer slot to s.
func NewOnce(name string, s Scheduler) *Once { return &Once{Name: name, s: s} }

// Start schedules fn after d unless a timer is already pending. It reports
// whether a new timer was scheduled.
func (o *Once) Start(d time.Duration, fn func()) bool {
	if o.t != nil {
		return false
	}
	o.gen++
	gen := o.gen
	o.t = o.s.AfterFunc(d, func() {
		if o.gen != gen || o.t == nil {
			return
		}
		o.t = nil
		fn()
	})
	return true
}

// Stop cancels the pending timer, if any.
func (o *Once) Stop() bool {
	if o.t == nil {
		return false
	}
	t := o.t
	o.t = nil
	o.gen++
	return t.Stop()
}

// Pending reports whether a timer is scheduled and has not fired.
func (o *Once) Pending() bool { return o.t != nil }
