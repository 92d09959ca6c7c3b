/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestUndoRedoSwapsStates(t *testing.T) {
	m := NewManager(Config{MaxPerScope: 10})
	t0 := time.Now()
	m.Push(Snapshot{Scope: "home", Label: "move", Blob: []byte("a"), TS: t0})
	m.Push(Snapshot{Scope: "home", Label: "folder", Blob: []byte("b"), TS: t0.Add(time.Second)})
	if _, scopes, total := m.Stats(); scopes != 1 || total != 2 {
		t.Fatalf("expected 1 scope and 2 snapshots, got scopes=%d total=%d", scopes, total)
	}

	s, ok := m.Undo("home", []byte("c"))
	if !ok || string(s.Blob) != "b" || s.Label != "folder" {
		t.Fatalf("undo expected 'b', got ok=%v %+v", ok, s)
	}
	if !m.CanRedo("home") {
		t.Fatalf("redo should be available")
	}
	s, ok = m.Redo("home", []byte("b"))
	if !ok || string(s.Blob) != "c" {
		t.Fatalf("redo expected 'c', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, _ = m.Undo("home", []byte("c"))
	if string(s.Blob) != "b" {
		t.Fatalf("second undo expected 'b', got %q", string(s.Blob))
	}
}

func TestPushDiscardsRedo(t *testing.T) {
	m := NewManager(Config{})
	m.Push(Snapshot{Scope: "home", Blob: []byte("a"), TS: time.Now()})
	m.Undo("home", []byte("b"))
	m.Push(Snapshot{Scope: "home", Blob: []byte("a2"), TS: time.Now()})
	if m.CanRedo("home") {
		t.Fatalf("a new change must discard redo")
	}
	if _, ok := m.Redo("home", nil); ok {
		t.Fatalf("redo after push should fail")
	}
}

func TestCoalesceKeepsEarliestState(t *testing.T) {
	m := NewManager(Config{MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	m.Push(Snapshot{Scope: "home", Label: "move", Blob: []byte("1"), TS: t0})
	m.Push(Snapshot{Scope: "home", Label: "move", Blob: []byte("2"), TS: t0.Add(10 * time.Millisecond)})
	if _, _, total := m.Stats(); total != 1 {
		t.Fatalf("expected coalesced to 1 snapshot, got %d", total)
	}
	s, ok := m.Undo("home", []byte("3"))
	if !ok || string(s.Blob) != "1" {
		t.Fatalf("expected the earliest state '1', got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestScopesAreIndependent(t *testing.T) {
	m := NewManager(Config{})
	m.Push(Snapshot{Scope: "home", Blob: []byte("h"), TS: time.Now()})
	m.Push(Snapshot{Scope: "folder:1", Blob: []byte("f"), TS: time.Now()})
	if s, _ := m.Undo("folder:1", nil); string(s.Blob) != "f" {
		t.Fatalf("folder undo got %q", string(s.Blob))
	}
	if !m.CanUndo("home") || m.CanUndo("folder:1") {
		t.Fatalf("scopes leaked into each other")
	}
	m.Clear("home")
	if b, scopes, total := m.Stats(); b != 0 || scopes != 0 || total != 0 {
		t.Fatalf("Clear left bytes=%d scopes=%d total=%d", b, scopes, total)
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 20, MaxPerScope: 2})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.Push(Snapshot{Scope: "home", Blob: []byte("xxxxx"), TS: t0.Add(time.Duration(i) * time.Millisecond)})
	}
	if _, _, total := m.Stats(); total != 2 {
		t.Fatalf("expected MaxPerScope cap to limit to 2, got %d", total)
	}

	m = NewManager(Config{MaxBytes: 12})
	m.Push(Snapshot{Scope: "a", Blob: []byte("xxxxx"), TS: t0})
	m.Push(Snapshot{Scope: "b", Blob: []byte("yyyyy"), TS: t0.Add(time.Millisecond)})
	m.Push(Snapshot{Scope: "b", Blob: []byte("zzzzz"), TS: t0.Add(2 * time.Millisecond)})
	bytes, _, total := m.Stats()
	if bytes > 12 || total != 2 || m.CanUndo("a") {
		t.Fatalf("global cap should drop the oldest scope entry: bytes=%d total=%d", bytes, total)
	}
}

func TestEmptiedScopeIsForgotten(t *testing.T) {
	m := NewManager(Config{})
	m.Push(Snapshot{Scope: "home", Blob: []byte("a"), TS: time.Now()})
	m.Undo("home", []byte("b"))
	if _, scopes, total := m.Stats(); scopes != 0 || total != 0 {
		t.Fatalf("undo emptied the stack but Stats reports scopes=%d total=%d", scopes, total)
	}
	m.Redo("home", []byte("a"))
	if _, scopes, total := m.Stats(); scopes != 1 || total != 1 {
		t.Fatalf("after redo expected scopes=1 total=1, got %d/%d", scopes, total)
	}
}

func TestRedoCountsAgainstMaxBytes(t *testing.T) {
	m := NewManager(Config{MaxBytes: 12})
	t0 := time.Now()
	m.Push(Snapshot{Scope: "home", Blob: []byte("a0000"), TS: t0})
	m.Push(Snapshot{Scope: "home", Blob: []byte("b0000"), TS: t0.Add(time.Millisecond)})
	m.Undo("home", []byte("c0000"))
	m.Undo("home", []byte("b0000"))
	if b, _, total := m.Stats(); b != 10 || total != 0 {
		t.Fatalf("redo entries should be counted: bytes=%d undo=%d", b, total)
	}

	m.Push(Snapshot{Scope: "folder:1", Blob: []byte("zzzzz"), TS: t0.Add(2 * time.Millisecond)})
	if b, _, _ := m.Stats(); b > 12 {
		t.Fatalf("cap exceeded: bytes=%d", b)
	}
	s, ok := m.Redo("home", []byte("a0000"))
	if !ok || string(s.Blob) != "b0000" {
		t.Fatalf("the next redo must survive pruning, got ok=%v blob=%q", ok, string(s.Blob))
	}
	if m.CanRedo("home") {
		t.Fatalf("the deepest redo entry should have been pruned")
	}

	m.Clear("home")
	m.Clear("folder:1")
	if b, scopes, _ := m.Stats(); b != 0 || scopes != 0 {
		t.Fatalf("Clear left bytes=%d scopes=%d", b, scopes)
	}
}
