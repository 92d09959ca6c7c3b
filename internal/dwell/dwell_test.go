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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	assert.Equal(t, 0, m.Advance(50*time.Millisecond))
	assert.Equal(t, 2, m.Advance(100*time.Millisecond))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, m.Pending())
	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 1150*time.Millisecond, m.Now())
}

func TestManualStopPreventsCallback(t *testing.T) {
	m := NewManual()
	fired := false
	tm := m.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	m.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestManualChainedTimersFireWithinAdvance(t *testing.T) {
	m := NewManual()
	n := 0
	var again func()
	again = func() {
		n++
		if n < 3 {
			m.AfterFunc(100*time.Millisecond, again)
		}
	}
	m.AfterFunc(100*time.Millisecond, again)
	assert.Equal(t, 3, m.Advance(time.Second))
}

func TestOnceDebounces(t *testing.T) {
	m := NewManual()
	o := NewOnce("page", m)
	fired := 0
	require.True(t, o.Start(700*time.Millisecond, func() { fired++ }))
	m.Advance(300 * time.Millisecond)
	assert.False(t, o.Start(700*time.Millisecond, func() { fired += 10 }), "second start while pending is a no-op")
	m.Advance(400 * time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.False(t, o.Pending())

	require.True(t, o.Start(700*time.Millisecond, func() { fired++ }))
	assert.True(t, o.Stop())
	m.Advance(time.Second)
	assert.Equal(t, 1, fired)
	assert.False(t, o.Stop())
}

func TestLoopRunsTimersOnLoop(t *testing.T) {
	l := NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	var fired atomic.Int32
	done := make(chan struct{})
	l.Post(func() {
		l.AfterFunc(10*time.Millisecond, func() {
			fired.Add(1)
			close(done)
		})
		stopped := l.AfterFunc(10*time.Millisecond, func() { fired.Add(100) })
		stopped.Stop()
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	// give the cancelled timer a chance to misbehave
	time.Sleep(30 * time.Millisecond)
	flushed := make(chan struct{})
	l.Post(func() { close(flushed) })
	<-flushed
	assert.Equal(t, int32(1), fired.Load())

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.False(t, l.Post(func() {}))
}
