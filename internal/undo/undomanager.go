/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps bounded undo/redo stacks of encoded layouts, one pair of
// stacks per scope (the home grid, or a single folder).
package undo

import (
	"sync"
	"time"
)

// Snapshot is an opaque encoded layout. Its size is estimated as len(Blob).
type Snapshot struct {
	Scope string
	Label string // what the change was, e.g. "move" or "folder"
	Blob  []byte
	TS    time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap over all undo stacks; oldest entries go first.
	MaxBytes int
	// MaxPerScope limits the undo depth of one scope (0 means unlimited).
	MaxPerScope int
	// MinInterval coalesces pushes to the same scope that arrive within the
	// interval: the earlier snapshot is kept, since it is the state to go back to.
	MinInterval time.Duration
}

// Manager is safe for concurrent use.
type Manager struct {
	cfg        Config
	mu         sync.Mutex
	undo       map[string][]Snapshot
	redo       map[string][]Snapshot
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 4 * 1024 * 1024
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records the state before a change. Any redo history of the scope is
// discarded.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked(s.Scope)
	stack := m.undo[s.Scope]
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		stack[n-1].Label = s.Label
		stack[n-1].TS = s.TS
		return
	}
	m.undo[s.Scope] = append(stack, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(s.Scope)
}

// Undo pops the last recorded state of scope. current, the state being
// replaced, goes onto the redo stack.
func (m *Manager) Undo(scope string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[scope]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.setUndoLocked(scope, stack[:len(stack)-1])
	m.totalBytes -= len(s.Blob)
	m.redo[scope] = append(m.redo[scope], Snapshot{Scope: scope, Label: s.Label, Blob: current, TS: s.TS})
	m.totalBytes += len(current)
	m.enforceCapsLocked(scope)
	return s, true
}

// Redo is the inverse of Undo.
func (m *Manager) Redo(scope string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[scope]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	if len(r) == 1 {
		delete(m.redo, scope)
	} else {
		m.redo[scope] = r[:len(r)-1]
	}
	m.totalBytes -= len(s.Blob)
	m.undo[scope] = append(m.undo[scope], Snapshot{Scope: scope, Label: s.Label, Blob: current, TS: s.TS})
	m.totalBytes += len(current)
	m.enforceCapsLocked(scope)
	return s, true
}

// CanUndo and CanRedo report whether the stacks of scope are non-empty.
func (m *Manager) CanUndo(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[scope]) > 0
}

func (m *Manager) CanRedo(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[scope]) > 0
}

// Clear forgets both stacks of scope, e.g. when a folder is deleted.
func (m *Manager) Clear(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[scope] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, scope)
	m.dropRedoLocked(scope)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics. totalBytes covers both undo
// and redo entries; scopes and totalSnapshots count undo stacks only.
func (m *Manager) Stats() (totalBytes int, scopes int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scopes = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, scopes, totalSnapshots
}

func (m *Manager) dropRedoLocked(scope string) {
	for _, s := range m.redo[scope] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.redo, scope)
}

func (m *Manager) setUndoLocked(scope string, stack []Snapshot) {
	if len(stack) == 0 {
		delete(m.undo, scope)
		return
	}
	m.undo[scope] = stack
}

func (m *Manager) enforceCapsLocked(scope string) {
	if m.cfg.MaxPerScope > 0 {
		stack := m.undo[scope]
		if extra := len(stack) - m.cfg.MaxPerScope; extra > 0 {
			for _, s := range stack[:extra] {
				m.totalBytes -= len(s.Blob)
			}
			m.undo[scope] = append([]Snapshot(nil), stack[extra:]...)
		}
	}
	// global cap: prune the oldest undo entry across all scopes, never the
	// newest entry of the scope just touched; then the deepest redo entries
	for m.totalBytes > m.cfg.MaxBytes {
		if m.pruneUndoLocked(scope) || m.pruneRedoLocked(scope) {
			continue
		}
		break
	}
}

func (m *Manager) pruneUndoLocked(scope string) bool {
	oldest := ""
	var oldestTS time.Time
	found := false
	for sc, stack := range m.undo {
		if len(stack) == 0 || (sc == scope && len(stack) == 1) {
			continue
		}
		if !found || stack[0].TS.Before(oldestTS) {
			oldest, oldestTS, found = sc, stack[0].TS, true
		}
	}
	if !found {
		return false
	}
	stack := m.undo[oldest]
	m.totalBytes -= len(stack[0].Blob)
	m.setUndoLocked(oldest, stack[1:])
	return true
}

// pruneRedoLocked drops the bottom of a redo stack, the state furthest from
// the present. The next redo of scope is kept.
func (m *Manager) pruneRedoLocked(scope string) bool {
	for sc, r := range m.redo {
		if len(r) == 0 || (sc == scope && len(r) == 1) {
			continue
		}
		m.totalBytes -= len(r[0].Blob)
		if len(r) == 1 {
			delete(m.redo, sc)
		} else {
			m.redo[sc] = r[1:]
		}
		return true
	}
	return false
}
