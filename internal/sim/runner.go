/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"springboard/internal/domain"
	"springboard/internal/dwell"
	"springboard/internal/grid"
	applog "springboard/internal/log"
	"springboard/internal/spatial"
	"springboard/internal/undo"
)

// UndoScope is the undo stack layouts are pushed to.
const UndoScope = "layout"

// Options configures a Runner.
type Options struct {
	Settings grid.Settings
	Logger   *slog.Logger
	// Undo receives the layout before every committed change. Nil creates a
	// private manager.
	Undo *undo.Manager
	// Live replays in real time: steps run on the loop, wait steps sleep and
	// dwell timers fire on their own. The caller runs the loop. Nil replays on
	// a virtual clock.
	Live *dwell.Loop
}

// ErrLoopStopped is returned when a live loop stops before a step ran.
var ErrLoopStopped = errors.New("live loop stopped")

// Record is one event and the step that caused it.
type Record struct {
	Step  int
	Event grid.Event
}

func (r Record) String() string { return fmt.Sprintf("step %d: %s", r.Step, r.Event) }

// Runner drives a home grid, and any folder opened from it, on a manual clock
// or a live loop.
type Runner struct {
	settings grid.Settings
	sched    dwell.Scheduler
	clock    *dwell.Manual // nil when live
	live     *dwell.Loop
	started  time.Time
	home     *domain.Home
	grid     *grid.Manager
	folder   *grid.Manager
	undo     *undo.Manager
	log      *slog.Logger

	step    int
	records []Record
	ignored []int

	openReq *grid.Event
	dragOut *grid.Transfer
	dirty   bool
	// baseline is the layout at the last quiescent step.
	baseline []byte
}

// NewRunner prepares a runner over h. h must have been built with the
// capacities of opts.Settings.
func NewRunner(h *domain.Home, opts Options) (*Runner, error) {
	if h == nil {
		return nil, fmt.Errorf("nil home")
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if h.Capacities() != opts.Settings.Capacities() {
		return nil, fmt.Errorf("home capacities %+v do not match settings %+v", h.Capacities(), opts.Settings.Capacities())
	}
	lg := opts.Logger
	if lg == nil {
		lg = applog.WithComponent("sim")
	}
	um := opts.Undo
	if um == nil {
		um = undo.NewManager(undo.Config{})
	}
	r := &Runner{
		settings: opts.Settings,
		live:     opts.Live,
		undo:     um,
		log:      lg,
	}
	if r.live != nil {
		r.sched = r.live
	} else {
		r.clock = dwell.NewManual()
		r.sched = r.clock
	}
	r.attach(h)
	blob, err := domain.MarshalHome(h)
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	r.baseline = blob
	return r, nil
}

func (r *Runner) attach(h *domain.Home) {
	r.home = h
	r.grid = grid.New(h, r.settings, grid.Options{Scheduler: r.sched, Logger: r.log, Listener: r.onHomeEvent})
}

// Home returns the layout being edited. Undo and redo replace it.
func (r *Runner) Home() *domain.Home { return r.home }

// Grid returns the manager of the home grid.
func (r *Runner) Grid() *grid.Manager { return r.grid }

// Folder returns the manager of the open folder, if any.
func (r *Runner) Folder() (*grid.Manager, bool) { return r.folder, r.folder != nil }

// Elapsed is the virtual time that has passed, or the wall time since the
// first live Run.
func (r *Runner) Elapsed() time.Duration {
	if r.clock != nil {
		return r.clock.Now()
	}
	if r.started.IsZero() {
		return 0
	}
	return time.Since(r.started)
}

// Run executes the steps of sc in order and stops at the first step that
// fails or when ctx is done. Steps the managers decline are not errors; they
// are listed in Report.Ignored.
func (r *Runner) Run(ctx context.Context, sc Script) (Report, error) {
	l := applog.WithOperation(r.log, "run").With(slog.String("script", sc.Name))
	if r.live != nil && r.started.IsZero() {
		r.started = time.Now()
	}
	for _, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return r.finish(ctx), err
		}
		slept := false
		if r.live != nil && st.Op == OpWait {
			// events fired while sleeping belong to this step
			if err := r.onLoop(ctx, func() { r.step++ }); err != nil {
				return r.finish(ctx), err
			}
			if err := sleep(ctx, r.waitFor(st)); err != nil {
				return r.finish(ctx), err
			}
			slept = true
		}
		var ok bool
		var err error
		if lerr := r.onLoop(ctx, func() {
			if !slept {
				r.step++
			}
			if ok, err = r.exec(st); err != nil {
				return
			}
			if !ok {
				r.ignored = append(r.ignored, r.step)
			}
			r.drain()
			err = r.checkpoint(st.Op)
		}); lerr != nil {
			return r.finish(ctx), lerr
		}
		if err != nil {
			l.Warn("step failed", slog.Int("step", r.step), slog.String("do", st.String()), slog.Any("err", err))
			return r.finish(ctx), fmt.Errorf("step %d (%s): %w", r.step, st, err)
		}
		l.Debug("step", slog.Int("step", r.step), slog.String("do", st.String()), slog.Bool("ok", ok))
	}
	rep := r.finish(ctx)
	l.Info("script finished", slog.Int("steps", rep.Steps), slog.Int("events", len(rep.Events)), slog.Duration("elapsed", rep.Elapsed))
	return rep, nil
}

// onLoop runs fn on the live loop and waits for it; without a loop fn runs
// inline.
func (r *Runner) onLoop(ctx context.Context, fn func()) error {
	if r.live == nil {
		fn()
		return nil
	}
	done := make(chan struct{})
	if !r.live.Post(func() { defer close(done); fn() }) {
		return ErrLoopStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish builds the report on the loop when it is still running.
func (r *Runner) finish(ctx context.Context) Report {
	var rep Report
	if err := r.onLoop(ctx, func() { rep = r.Report() }); err != nil {
		return r.Report()
	}
	return rep
}

func (r *Runner) waitFor(st Step) time.Duration {
	if st.For > 0 {
		return st.For
	}
	s := r.grid.Settings()
	return max(s.PageDwell, s.FolderDwell, s.DragOutDwell)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) exec(st Step) (bool, error) {
	switch st.Op {
	case OpBegin:
		p, err := r.point(st)
		if err != nil {
			return false, err
		}
		if r.folder != nil {
			return r.folder.Begin(p), nil
		}
		return r.grid.Begin(p), nil
	case OpMove:
		p, err := r.point(st)
		if err != nil {
			return false, err
		}
		m := r.dragging()
		if m == nil {
			return false, nil
		}
		m.Update(p)
		return true, nil
	case OpEnd:
		if m := r.dragging(); m != nil {
			return m.End(), nil
		}
		return false, nil
	case OpCancel:
		if m := r.dragging(); m != nil {
			return m.Cancel(), nil
		}
		return false, nil
	case OpWait:
		// live waits already slept in Run
		if r.clock != nil {
			r.clock.Advance(r.waitFor(st))
		}
		return true, nil
	case OpSettle:
		if m := r.dragging(); m != nil {
			m.ScrollSettled()
			return true, nil
		}
		return false, nil
	case OpFolderOpen:
		return r.grid.FolderOpened(), nil
	case OpEdit:
		r.grid.EnterEditing()
		if r.folder != nil {
			r.folder.EnterEditing()
		}
		return true, nil
	case OpDone:
		if !r.grid.Editing() {
			return false, nil
		}
		r.grid.LeaveEditing()
		if r.folder != nil {
			r.folder.LeaveEditing()
		}
		return true, nil
	case OpDelete:
		id, err := r.lookup(st.Item)
		if err != nil {
			return false, err
		}
		if r.folder != nil && r.folder.Collection().Contains(id) {
			return r.folder.Delete(id), nil
		}
		return r.grid.Delete(id), nil
	case OpOpenFolder:
		id, err := r.lookup(st.Item)
		if err != nil {
			return false, err
		}
		return r.grid.OpenFolder(id), nil
	case OpCloseFolder:
		return r.closeFolder()
	case OpUndo, OpRedo:
		return r.history(st.Op)
	case OpHome:
		r.grid.GoHome()
		return true, nil
	case OpPage:
		return r.grid.ShowPage(st.Page), nil
	}
	return false, fmt.Errorf("%w %q", ErrUnknownStep, st.Op)
}

// dragging returns the manager that owns the live drag, folder first.
func (r *Runner) dragging() *grid.Manager {
	if r.folder != nil {
		if _, ok := r.folder.Session(); ok {
			return r.folder
		}
	}
	if _, ok := r.grid.Session(); ok {
		return r.grid
	}
	return nil
}

func (r *Runner) closeFolder() (bool, error) {
	if r.folder == nil {
		return false, nil
	}
	if _, ok := r.folder.Session(); ok {
		return false, fmt.Errorf("folder is being dragged in")
	}
	r.releaseFolder()
	return r.grid.CloseFolder(), nil
}

func (r *Runner) releaseFolder() {
	if r.folder != nil {
		r.folder.Close()
		r.folder = nil
	}
}

func (r *Runner) onHomeEvent(ev grid.Event) {
	r.record(ev)
	if ev.Kind == grid.FolderOpenRequested {
		e := ev
		r.openReq = &e
	}
}

func (r *Runner) onFolderEvent(ev grid.Event) {
	r.record(ev)
	if ev.Kind == grid.DragOut && ev.Transfer != nil {
		r.dragOut = ev.Transfer
	}
}

func (r *Runner) record(ev grid.Event) {
	r.records = append(r.records, Record{Step: r.step, Event: ev})
	switch ev.Kind {
	case grid.DragEnded, grid.DragCancelled, grid.FolderCommitted, grid.ItemDeleted,
		grid.FolderDissolved, grid.FolderRemoved:
		r.dirty = true
	}
}

// drain performs what a renderer does in reaction to the events of the last
// step: it presents requested folders and moves handed-off drags.
func (r *Runner) drain() {
	for r.openReq != nil || r.dragOut != nil {
		if ev := r.openReq; ev != nil {
			r.openReq = nil
			r.presentFolder(*ev)
		}
		if t := r.dragOut; t != nil {
			r.dragOut = nil
			r.grid.AdoptDrag(*t)
			r.releaseFolder()
			r.grid.CloseFolder()
		}
	}
}

func (r *Runner) presentFolder(ev grid.Event) {
	f, ok := r.home.Registry.Folder(ev.Folder)
	if !ok {
		return
	}
	r.releaseFolder()
	r.folder = grid.NewFolderManager(r.home, f, r.settings, grid.Options{Scheduler: r.sched, Logger: r.log, Listener: r.onFolderEvent})
	if r.grid.Editing() {
		r.folder.EnterEditing()
	}
	if ev.Transfer != nil {
		r.folder.AdoptDrag(*ev.Transfer)
	}
}

func (r *Runner) quiescent() bool {
	if r.dragging() != nil {
		return false
	}
	_, pending := r.grid.FolderOperation()
	return !pending
}

// checkpoint pushes the previous layout to the undo stack once a gesture that
// changed it has fully settled.
func (r *Runner) checkpoint(op string) error {
	if !r.quiescent() {
		return nil
	}
	cur, err := domain.MarshalHome(r.home)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if r.dirty && !bytes.Equal(cur, r.baseline) {
		r.undo.Push(undo.Snapshot{Scope: UndoScope, Label: op, Blob: r.baseline, TS: r.virtualTime()})
	}
	r.dirty = false
	r.baseline = cur
	return nil
}

func (r *Runner) virtualTime() time.Time { return time.Unix(0, 0).Add(r.Elapsed()) }

// history applies an undo or redo by swapping in a decoded layout.
func (r *Runner) history(op string) (bool, error) {
	if !r.quiescent() || r.folder != nil {
		return false, fmt.Errorf("%s needs an idle grid with no open folder", op)
	}
	cur, err := domain.MarshalHome(r.home)
	if err != nil {
		return false, fmt.Errorf("encode layout: %w", err)
	}
	var snap undo.Snapshot
	var ok bool
	if op == OpUndo {
		snap, ok = r.undo.Undo(UndoScope, cur)
	} else {
		snap, ok = r.undo.Redo(UndoScope, cur)
	}
	if !ok {
		return false, nil
	}
	h, err := domain.UnmarshalHome(snap.Blob, r.settings.Capacities())
	if err != nil {
		return false, fmt.Errorf("decode %s layout: %w", op, err)
	}
	editing, page := r.grid.Editing(), r.grid.Page()
	r.grid.Close()
	r.attach(h)
	if editing {
		r.grid.EnterEditing()
	} else {
		h.Pages.CompactTrailingEmptyPage()
	}
	if page < h.Pages.PageCount() {
		r.grid.ShowPage(page)
	}
	r.record(grid.Event{Kind: grid.Reloaded, Surface: domain.SurfaceMain})
	r.dirty = false
	r.baseline = snap.Blob
	r.log.Debug("layout restored", slog.String("op", op), slog.String("label", snap.Label))
	return true, nil
}

// lookup resolves an item by its display name: the open folder first, then
// the dock, the pages and the insides of folders.
func (r *Runner) lookup(name string) (domain.ItemID, error) {
	if name == "" {
		return "", fmt.Errorf("step needs an item")
	}
	reg := r.home.Registry
	var pools [][]domain.ItemID
	if r.folder != nil {
		pools = append(pools, r.folder.Collection().Items())
	}
	pools = append(pools, r.home.Dock.Items(), r.home.Pages.Items())
	for _, id := range r.home.Pages.Items() {
		if f, ok := reg.Folder(id); ok {
			pools = append(pools, f.Apps.Items())
		}
	}
	for _, pool := range pools {
		for _, id := range pool {
			if reg.Name(id) == name {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("no item named %q", name)
}

// point turns a pointer step into root coordinates.
func (r *Runner) point(st Step) (spatial.Point, error) {
	s := r.settings
	switch {
	case st.X != nil && st.Y != nil:
		return spatial.Pt(*st.X, *st.Y), nil
	case st.Edge != "":
		mf, ff := s.MainFrame, s.FolderFrame
		switch st.Edge {
		case "left":
			return spatial.Pt(mf.X+5, mf.Y+60), nil
		case "right":
			return spatial.Pt(mf.Max().X-5, mf.Y+60), nil
		case "above":
			return spatial.Pt(ff.X+73, ff.Y-40), nil
		case "below":
			return spatial.Pt(ff.X+73, ff.Max().Y+40), nil
		}
		return spatial.Point{}, fmt.Errorf("unknown edge %q", st.Edge)
	case st.Item != "":
		return r.iconPoint(st.Item, st.At)
	}
	return spatial.Point{}, fmt.Errorf("%s needs an item, an edge or x and y", st.Op)
}

func (r *Runner) iconPoint(name, at string) (spatial.Point, error) {
	id, err := r.lookup(name)
	if err != nil {
		return spatial.Point{}, err
	}
	s := r.settings
	var (
		frame spatial.Rect
		geo   spatial.Geometry
		slot  int
		count int
		found bool
	)
	if r.folder != nil {
		if p, sl, ok := r.folder.Collection().Find(id); ok && p == r.folder.Page() {
			frame, geo, slot, found = s.FolderFrame, s.FolderGeometry(), sl, true
		}
	}
	if !found {
		if _, sl, ok := r.home.Dock.Find(id); ok {
			frame, geo, slot, count, found = s.DockFrame, s.DockGeometry(), sl, r.home.Dock.Len(0), true
		} else if p, sl, ok := r.home.Pages.Find(id); ok {
			if p != r.grid.Page() {
				return spatial.Point{}, fmt.Errorf("%q is on page %d, showing page %d", name, p, r.grid.Page())
			}
			frame, geo, slot, found = s.MainFrame, s.MainGeometry(), sl, true
		}
	}
	if !found {
		return spatial.Point{}, fmt.Errorf("%q is not visible", name)
	}
	icon := geo.IconFrame(slot, count)
	local := icon.Center()
	switch at {
	case "":
	case "before":
		local = spatial.Pt(icon.X-3, icon.Center().Y)
	case "after":
		local = spatial.Pt(icon.X+icon.W+3, icon.Center().Y)
	default:
		return spatial.Point{}, fmt.Errorf("unknown position %q", at)
	}
	return spatial.Pt(frame.X+local.X, frame.Y+local.Y), nil
}
