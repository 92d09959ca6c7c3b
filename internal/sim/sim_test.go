/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sim

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"springboard/internal/domain"
	"springboard/internal/dwell"
	"springboard/internal/grid"
)

// testSettings shrinks the grid to 4x2 pages and 3x1 folders.
func testSettings() grid.Settings {
	s := grid.DefaultSettings()
	s.AppRows = 2
	s.AppRowsOnFolder = 1
	return s
}

func apps(prefix string, n int) []domain.Item {
	out := make([]domain.Item, n)
	for i := range out {
		out[i] = domain.NewApp(fmt.Sprintf("%s%02d", prefix, i), "com.example."+prefix)
	}
	return out
}

func newRunner(t *testing.T, items []domain.Item, dock ...string) *Runner {
	t.Helper()
	s := testSettings()
	h := domain.NewHome(s.Capacities())
	var da []*domain.App
	for _, n := range dock {
		da = append(da, domain.NewApp(n, "com.example.dock"))
	}
	h.SeedFlat(items, da)
	r, err := NewRunner(h, Options{Settings: s})
	require.NoError(t, err)
	return r
}

func run(t *testing.T, r *Runner, script string) Report {
	t.Helper()
	sc, err := Parse([]byte(script))
	require.NoError(t, err)
	rep, err := r.Run(context.Background(), sc)
	require.NoError(t, err)
	return rep
}

func TestParseStepForms(t *testing.T) {
	sc, err := Parse([]byte(`
name: forms
steps:
  - op: begin
    item: Maps
  - op: move
    item: Photos
    at: after
  - op: move
    x: 370
    y: 80
  - op: wait
    for: 300ms
  - end
`))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 5)
	assert.Equal(t, "forms", sc.Name)
	assert.Equal(t, Step{Op: OpBegin, Item: "Maps"}, sc.Steps[0])
	assert.Equal(t, "after", sc.Steps[1].At)
	require.NotNil(t, sc.Steps[2].X)
	assert.Equal(t, float32(370), *sc.Steps[2].X)
	assert.Equal(t, 300*time.Millisecond, sc.Steps[3].For)
	assert.Equal(t, Step{Op: OpEnd}, sc.Steps[4])
}

func TestParseRejectsUnknownStep(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - begin\n  - fling\n"))
	require.ErrorIs(t, err, ErrUnknownStep)
	assert.Contains(t, err.Error(), "step 2")
}

func TestNewRunnerChecksCapacities(t *testing.T) {
	h := domain.NewHome(domain.DefaultCapacities())
	_, err := NewRunner(h, Options{Settings: testSettings()})
	assert.Error(t, err)
}

func TestReorderThenUndoRedo(t *testing.T) {
	r := newRunner(t, apps("A", 8))
	rep := run(t, r, `
steps:
  - {op: begin, item: A00}
  - {op: move, item: A02, at: after}
  - end
`)
	assert.Equal(t, []string{"A01", "A02", "A00", "A03", "A04", "A05", "A06", "A07"}, rep.Pages[0])
	assert.True(t, rep.Editing)
	assert.True(t, rep.Undoable)
	assert.False(t, rep.Redoable)
	assert.Equal(t, 1, rep.Count("drag-ended"))

	rep = run(t, r, "steps: [undo]")
	assert.Equal(t, []string{"A00", "A01", "A02", "A03", "A04", "A05", "A06", "A07"}, rep.Pages[0])
	assert.True(t, rep.Redoable)
	assert.False(t, rep.Undoable)
	assert.Equal(t, 1, rep.Count("reloaded"))

	rep = run(t, r, "steps: [redo]")
	assert.Equal(t, []string{"A01", "A02", "A00", "A03", "A04", "A05", "A06", "A07"}, rep.Pages[0])
	assert.True(t, rep.Undoable)
	require.NoError(t, r.Home().Validate())
}

func TestDeclinedStepsAreReported(t *testing.T) {
	r := newRunner(t, apps("A", 3))
	rep := run(t, r, "steps: [end, undo, {op: delete, item: A01}]")
	assert.Equal(t, []int{1, 2, 3}, rep.Ignored)
	assert.Equal(t, []string{"A00", "A01", "A02"}, rep.Pages[0])
}

func TestStepErrors(t *testing.T) {
	r := newRunner(t, apps("A", 3))
	sc, err := Parse([]byte("steps: [{op: begin, item: Nope}]"))
	require.NoError(t, err)
	_, err = r.Run(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no item named "Nope"`)

	sc, err = Parse([]byte("steps: [{op: move, edge: sideways}]"))
	require.NoError(t, err)
	_, err = r.Run(context.Background(), sc)
	assert.ErrorContains(t, err, "unknown edge")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, Script{Steps: []Step{{Op: OpEnd}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHardCommitPresentsNewFolder(t *testing.T) {
	r := newRunner(t, apps("A", 8))
	rep := run(t, r, `
steps:
  - {op: begin, item: A00}
  - {op: move, item: A01}
  - end
`)
	assert.Equal(t, domain.DefaultFolderName+"[A01 A00]", rep.Pages[0][0])
	assert.Equal(t, 1, rep.Count("folder-committed"))
	_, open := r.Folder()
	require.True(t, open)

	rep = run(t, r, "steps: [close-folder]")
	_, open = r.Folder()
	assert.False(t, open)
	assert.Empty(t, rep.Ignored)
	assert.True(t, rep.Undoable)
}

func TestSoftCommitThenDragBackOut(t *testing.T) {
	r := newRunner(t, apps("A", 8))
	rep := run(t, r, `
steps:
  - {op: begin, item: A00}
  - {op: move, item: A01}
  - {op: wait, for: 700ms}
  - folder-opened
`)
	assert.Equal(t, 1, rep.Count("drag-adopted"))
	assert.Equal(t, domain.DefaultFolderName+"[A01 A00]", rep.Pages[0][0])
	fm, open := r.Folder()
	require.True(t, open)
	_, dragging := fm.Session()
	require.True(t, dragging)
	assert.False(t, rep.Undoable, "the gesture is still running")

	rep = run(t, r, `
steps:
  - {op: move, edge: below}
  - {op: wait, for: 500ms}
  - end
`)
	assert.Equal(t, 1, rep.Count("drag-out"))
	assert.Equal(t, 1, rep.Count("folder-dissolved"))
	assert.Equal(t, []string{"A01", "A02", "A03", "A04", "A05", "A06", "A07", "A00"}, rep.Pages[0])
	_, open = r.Folder()
	assert.False(t, open)
	assert.True(t, rep.Undoable)
	require.NoError(t, r.Home().Validate())
}

func TestPageFlipAcrossPages(t *testing.T) {
	r := newRunner(t, append(apps("A", 8), apps("B", 8)...))
	rep := run(t, r, `
steps:
  - {op: begin, item: A00}
  - {op: move, edge: right}
  - wait
  - settle
  - end
`)
	assert.Equal(t, 1, rep.Count("page-flipped"))
	assert.Equal(t, 1, rep.Page)
	assert.Equal(t, []string{"A01", "A02", "A03", "A04", "A05", "A06", "A07"}, rep.Pages[0])
	assert.Equal(t, []string{"B00", "B01", "B02", "B03", "B04", "B05", "B06", "A00"}, rep.Pages[1])
	assert.Equal(t, []string{"B07"}, rep.Pages[2])
	assert.Equal(t, 700*time.Millisecond, rep.Elapsed)
}

func TestEditDeleteDone(t *testing.T) {
	r := newRunner(t, apps("A", 3), "D0")
	rep := run(t, r, `
steps:
  - edit
  - {op: delete, item: A01}
  - {op: delete, item: D0}
  - done
`)
	assert.Equal(t, [][]string{{"A00", "A02"}}, rep.Pages)
	assert.Empty(t, rep.Dock)
	assert.False(t, rep.Editing)
	assert.Equal(t, 2, rep.Count("item-deleted"))

	rep = run(t, r, "steps: [undo, undo]")
	assert.Equal(t, []string{"A00", "A01", "A02"}, rep.Pages[0])
	assert.Equal(t, []string{"D0"}, rep.Dock)
}

func TestOpenAndCloseExistingFolder(t *testing.T) {
	s := testSettings()
	h := domain.NewHome(s.Capacities())
	h.SeedFlat(apps("A", 2), nil)
	x := domain.NewApp("X", "com.example.x")
	h.Registry.Put(x)
	h.AddFolder(domain.NewFolder("G", 3, x.ID()))
	r, err := NewRunner(h, Options{Settings: s})
	require.NoError(t, err)

	rep := run(t, r, "steps: [{op: open-folder, item: G}]")
	assert.Equal(t, 1, rep.Count("folder-open-requested"))
	_, open := r.Folder()
	require.True(t, open)

	rep = run(t, r, "steps: [{op: begin, item: X}, end, close-folder]")
	assert.Empty(t, rep.Ignored)
	assert.Equal(t, []string{"A00", "A01", "G[X]"}, rep.Pages[0])
}

func TestLiveReplayFiresDwellOnLoop(t *testing.T) {
	s := testSettings()
	s.FolderDwell = 20 * time.Millisecond
	h := domain.NewHome(s.Capacities())
	h.SeedFlat(apps("A", 8), nil)
	loop := dwell.NewLoop(0)
	r, err := NewRunner(h, Options{Settings: s, Live: loop})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	rep := run(t, r, `
steps:
  - {op: begin, item: A00}
  - {op: move, item: A01}
  - {op: wait, for: 150ms}
  - folder-opened
  - end
`)
	assert.Equal(t, 1, rep.Count("drag-adopted"))
	assert.Equal(t, domain.DefaultFolderName+"[A01 A00]", rep.Pages[0][0])
	assert.GreaterOrEqual(t, rep.Elapsed, 150*time.Millisecond)
	for _, rec := range rep.Events {
		if rec.Event.Kind == grid.FolderCreated {
			assert.Equal(t, 3, rec.Step, "the dwell fired while step 3 slept")
		}
	}

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	_, err = r.Run(context.Background(), Script{Steps: []Step{{Op: OpEdit}}})
	assert.ErrorIs(t, err, ErrLoopStopped)
}
