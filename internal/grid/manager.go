/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package grid is the home-screen interaction core: the drag state machine,
// dwell-triggered page flips and folder merges, dock transfers, folder
// drag-out hand-offs and editing mode, all operating on logical locations in
// paged collections. Rendering is left to whoever listens to the events.
package grid

import (
	"log/slog"

	"springboard/internal/domain"
	"springboard/internal/dwell"
	applog "springboard/internal/log"
	"springboard/internal/paged"
	"springboard/internal/spatial"
)

// Mode selects which surfaces a Manager drives.
type Mode int

const (
	ModeHome   Mode = iota // main pages plus dock
	ModeFolder             // the pages of one open folder, no dock
)

func (m Mode) String() string {
	if m == ModeFolder {
		return "folder"
	}
	return "home"
}

// DragState is the externally visible state of the drag machine.
type DragState int

const (
	StateIdle DragState = iota
	StateDragging
	StatePageFlipPending
	StateFolderPending
	StateEnded
	StateCancelled
	StateHandedOff
)

var stateNames = [...]string{"idle", "dragging", "page-flip-pending", "folder-pending", "ended", "cancelled", "handed-off"}

func (s DragState) String() string { return stateNames[s] }

// Options carries the collaborators a Manager needs.
type Options struct {
	Scheduler dwell.Scheduler
	Logger    *slog.Logger
	Listener  Listener
	// AfterAnimations runs fn once visual transitions have finished. Nil runs
	// fn immediately.
	AfterAnimations func(fn func())
}

// Manager owns one drag session at a time over a home grid or an open folder.
// It is not safe for concurrent use; drive it from a single goroutine
// (see dwell.Loop).
type Manager struct {
	mode     Mode
	home     *domain.Home
	folder   *domain.Folder
	main     *paged.Collection[domain.ItemID]
	dock     *paged.Collection[domain.ItemID]
	surface  domain.Surface // surface name of main
	settings Settings

	mainGeo   spatial.Geometry
	dockGeo   spatial.Geometry
	mainFrame spatial.Rect
	dockFrame spatial.Rect

	page    int
	editing bool

	drag      *DragSession
	folderOp  *FolderOperation
	settling  *FolderOperation
	lastState DragState

	pageTimer    *dwell.Once
	folderTimer  *dwell.Once
	dragOutTimer *dwell.Once

	ignoreDragOutTop    bool
	ignoreDragOutBottom bool

	opened *openFolder

	listener        Listener
	afterAnimations func(func())
	log             *slog.Logger
}

type openFolder struct {
	id             domain.ItemID
	isNew          bool
	cancelCreation bool
}

// New creates a Manager for the home grid and dock of h.
func New(h *domain.Home, s Settings, opts Options) *Manager {
	m := newManager(ModeHome, h, s, opts)
	m.main = h.Pages
	m.dock = h.Dock
	m.surface = domain.SurfaceMain
	m.mainGeo = s.MainGeometry()
	m.dockGeo = s.DockGeometry()
	m.mainFrame = s.MainFrame
	m.dockFrame = s.DockFrame
	m.bind()
	return m
}

// NewFolderManager creates a Manager for the pages of folder f, which must be
// registered in h.
func NewFolderManager(h *domain.Home, f *domain.Folder, s Settings, opts Options) *Manager {
	m := newManager(ModeFolder, h, s, opts)
	m.folder = f
	m.main = f.Apps
	m.surface = domain.SurfaceFolder
	m.mainGeo = s.FolderGeometry()
	m.mainFrame = s.FolderFrame
	if m.main.PageCount() == 0 {
		m.main.AppendPage()
	}
	m.bind()
	return m
}

func newManager(mode Mode, h *domain.Home, s Settings, opts Options) *Manager {
	s = s.withDefaults()
	sched := opts.Scheduler
	if sched == nil {
		sched = dwell.NewManual()
	}
	lg := opts.Logger
	if lg == nil {
		lg = applog.WithComponent("grid")
	}
	return &Manager{
		mode:            mode,
		home:            h,
		settings:        s,
		pageTimer:       dwell.NewOnce("page", sched),
		folderTimer:     dwell.NewOnce("folder", sched),
		dragOutTimer:    dwell.NewOnce("drag-out", sched),
		listener:        opts.Listener,
		afterAnimations: opts.AfterAnimations,
		log:             lg.With(slog.String("mode", mode.String())),
	}
}

func (m *Manager) bind() {
	m.main.SetListener(func(ch paged.Change) { m.emit(changeEvent(m.surface, ch)) })
	if m.dock != nil {
		m.dock.SetListener(func(ch paged.Change) { m.emit(changeEvent(domain.SurfaceDock, ch)) })
	}
}

// Close detaches the manager from its collections.
func (m *Manager) Close() {
	m.stopTimers()
	m.main.SetListener(nil)
	if m.dock != nil {
		m.dock.SetListener(nil)
	}
}

func (m *Manager) emit(ev Event) {
	if m.listener != nil {
		m.listener(ev)
	}
}

func (m *Manager) Mode() Mode             { return m.mode }
func (m *Manager) Home() *domain.Home     { return m.home }
func (m *Manager) Page() int              { return m.page }
func (m *Manager) Editing() bool          { return m.editing }
func (m *Manager) Settings() Settings     { return m.settings }
func (m *Manager) Folder() *domain.Folder { return m.folder }

// Collection returns the paged collection the main surface shows.
func (m *Manager) Collection() *paged.Collection[domain.ItemID] { return m.main }

// State reports where the drag machine is.
func (m *Manager) State() DragState {
	if m.drag == nil {
		return m.lastState
	}
	switch {
	case m.folderOp != nil:
		return StateFolderPending
	case m.pageTimer.Pending():
		return StatePageFlipPending
	default:
		return StateDragging
	}
}

// Session returns a copy of the active drag session.
func (m *Manager) Session() (DragSession, bool) {
	if m.drag == nil {
		return DragSession{}, false
	}
	s := *m.drag
	s.hasSaved = s.saved != nil
	s.saved = nil
	return s, true
}

// FolderOperation returns a copy of the pending or settling folder operation.
func (m *Manager) FolderOperation() (FolderOperation, bool) {
	op := m.folderOp
	if op == nil {
		op = m.settling
	}
	if op == nil {
		return FolderOperation{}, false
	}
	c := *op
	c.session = nil
	return c, true
}

// OpenedFolder returns the folder currently presented from this grid.
func (m *Manager) OpenedFolder() (domain.ItemID, bool) {
	if m.opened == nil {
		return "", false
	}
	return m.opened.id, true
}

// ShowPage records that the user scrolled to page.
func (m *Manager) ShowPage(page int) bool {
	if page < 0 || page >= m.main.PageCount() || page == m.page {
		return false
	}
	m.page = page
	m.emit(Event{Kind: PageChanged, Surface: m.surface, Page: page})
	return true
}

// GoHome leaves editing mode, or scrolls back to the first page.
func (m *Manager) GoHome() {
	if m.editing {
		m.LeaveEditing()
		return
	}
	if m.page > 0 && m.opened == nil {
		m.page = 0
		m.emit(Event{Kind: PageChanged, Surface: m.surface, Page: 0})
	}
}

// Activate handles a tap on item id: folders open, apps launch when not editing.
func (m *Manager) Activate(id domain.ItemID, l domain.Launcher) bool {
	if m.home.Registry.IsFolder(id) {
		return m.OpenFolder(id)
	}
	if m.editing {
		return false
	}
	return m.home.Open(id, l)
}

// Delete removes item id while editing.
func (m *Manager) Delete(id domain.ItemID) bool {
	if !m.editing || (m.drag != nil && m.drag.Item == id) {
		return false
	}
	loc, ok := m.locate(id)
	if !ok {
		return false
	}
	m.collection(loc.Surface).Remove(loc.Page, loc.Slot)
	m.home.Registry.Delete(id)
	m.log.Debug("item deleted", slog.String("item", string(id)), slog.String("at", loc.String()))
	m.emit(Event{Kind: ItemDeleted, Surface: loc.Surface, Page: loc.Page, Slot: loc.Slot, Item: id})
	m.ensureTrailingPage()
	return true
}

func (m *Manager) collection(s domain.Surface) *paged.Collection[domain.ItemID] {
	if s == domain.SurfaceDock {
		return m.dock
	}
	return m.main
}

func (m *Manager) geometry(s domain.Surface) spatial.Geometry {
	if s == domain.SurfaceDock {
		return m.dockGeo
	}
	return m.mainGeo
}

// locate finds id on the dock or the main surface.
func (m *Manager) locate(id domain.ItemID) (domain.Location, bool) {
	if m.dock != nil {
		if p, s, ok := m.dock.Find(id); ok {
			return domain.Location{Surface: domain.SurfaceDock, Page: p, Slot: s}, true
		}
	}
	if p, s, ok := m.main.Find(id); ok {
		return domain.Location{Surface: m.surface, Page: p, Slot: s}, true
	}
	return domain.Location{}, false
}

// surfaceAt picks the surface under root point p and converts p into that
// surface's page coordinates.
func (m *Manager) surfaceAt(p spatial.Point) (domain.Surface, int, spatial.Point) {
	if m.dock != nil && m.dockFrame.Contains(p) {
		return domain.SurfaceDock, 0, m.dockFrame.Local(p)
	}
	return m.surface, m.page, m.mainFrame.Local(p)
}

func (m *Manager) stopTimers() {
	m.pageTimer.Stop()
	m.folderTimer.Stop()
	m.dragOutTimer.Stop()
}
