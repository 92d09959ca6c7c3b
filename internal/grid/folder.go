/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package grid

import (
	"fmt"
	"log/slog"

	"springboard/internal/domain"
)

// FolderOpKind distinguishes creating a folder from dropping into one.
type FolderOpKind int

const (
	FolderCreation FolderOpKind = iota // app dropped on an app
	FolderDrop                         // app dropped on a folder
)

func (k FolderOpKind) String() string {
	if k == FolderDrop {
		return "drop"
	}
	return "creation"
}

// FolderOpState tracks a folder operation from preview to completion.
type FolderOpState int

const (
	OpPending FolderOpState = iota
	OpCommitting
	OpSettling // committed, source removal waits for the folder to open
	OpDone
	OpCancelled
)

var opStateNames = [...]string{"pending", "committing", "settling", "done", "cancelled"}

func (s FolderOpState) String() string {
	if int(s) < len(opStateNames) {
		return opStateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FolderOperation is a pending or committed merge of the dragged app into
// the item under it. Once dismissing is set the operation is inert.
type FolderOperation struct {
	Kind    FolderOpKind
	Item    domain.ItemID // dragged app
	Target  domain.ItemID // app or folder under the pointer
	Folder  domain.ItemID // resulting folder, set on commit
	State   FolderOpState
	DidDrop bool

	dismissing bool
	session    *DragSession
}

func (m *Manager) startFolderOperation(target domain.ItemID) {
	d := m.drag
	if d == nil || target == d.Item {
		return
	}
	kind := FolderCreation
	if m.home.Registry.IsFolder(target) {
		kind = FolderDrop
	}
	m.folderTimer.Start(m.settings.FolderDwell, m.folderDwellFired)
	m.folderOp = &FolderOperation{Kind: kind, Item: d.Item, Target: target, State: OpPending, session: d}
	m.log.Debug("folder preview", slog.String("kind", kind.String()), slog.String("target", string(target)))
	m.emit(Event{Kind: FolderPreviewStarted, Item: d.Item, Folder: target})
}

func (m *Manager) folderDwellFired() {
	// a pending page flip wins over a folder merge
	if m.pageTimer.Pending() {
		m.cancelFolderOperation()
		return
	}
	op := m.folderOp
	if op == nil || op.dismissing {
		return
	}
	m.commitFolderOperation(false)
}

// cancelFolderOperation tears down a pending operation without touching any
// collection.
func (m *Manager) cancelFolderOperation() {
	op := m.folderOp
	if op == nil || op.dismissing {
		return
	}
	m.folderTimer.Stop()
	m.folderOp = nil
	op.dismissing = true
	op.State = OpCancelled
	m.log.Debug("folder preview cancelled", slog.String("target", string(op.Target)))
	m.emit(Event{Kind: FolderPreviewCancelled, Item: op.Item, Folder: op.Target})
}

// commitFolderOperation merges the dragged app into the target. With didDrop
// the source is removed at once and the drag ends; otherwise the drag is
// handed to the opened folder and the source is removed on FolderOpened.
func (m *Manager) commitFolderOperation(didDrop bool) {
	op := m.folderOp
	if op == nil || op.dismissing {
		return
	}
	d := op.session
	reg := m.home.Registry
	tp, ts, ok := m.main.Find(op.Target)
	_, _, srcOK := m.main.Find(op.Item)
	if !ok || !srcOK || reg.IsFolder(op.Item) {
		m.cancelFolderOperation()
		return
	}
	op.State = OpCommitting
	op.DidDrop = didDrop

	isNew := false
	switch op.Kind {
	case FolderCreation:
		f := domain.NewFolder(domain.DefaultFolderName, m.home.Capacities().AppsPerPageOnFolder, op.Target, op.Item)
		f.IsNew = true
		reg.Put(f)
		m.main.Replace(tp, ts, f.ID())
		op.Folder = f.ID()
		isNew = true
		m.emit(Event{Kind: FolderCreated, Surface: m.surface, Page: tp, Slot: ts, Item: op.Item, Folder: f.ID()})
	case FolderDrop:
		f, _ := reg.Folder(op.Target)
		fp, fs := f.Add(op.Item)
		op.Folder = f.ID()
		m.emit(Event{Kind: FolderMerged, Surface: domain.SurfaceFolder, Page: fp, Slot: fs, Item: op.Item, Folder: f.ID()})
	}
	m.log.Debug("folder commit", slog.String("kind", op.Kind.String()), slog.Bool("drop", didDrop))

	op.dismissing = true
	m.folderOp = nil
	m.folderTimer.Stop()

	if didDrop {
		m.removeSource(op)
		op.State = OpDone
		if loc, ok := m.locate(op.Folder); ok {
			d.Current = loc
		}
		d.NeedsResync = false
		m.finishDrag(StateEnded)
		m.emit(Event{Kind: FolderCommitted, Item: op.Item, Folder: op.Folder})
		if isNew {
			m.opened = &openFolder{id: op.Folder, isNew: true}
			m.emit(Event{Kind: FolderOpenRequested, Folder: op.Folder})
		}
		return
	}

	op.State = OpSettling
	m.settling = op
	m.stopTimers()
	t := &Transfer{Item: d.Item, Origin: d.Origin, Offset: d.Offset, Center: d.Center, Folder: op.Folder}
	m.drag = nil
	m.lastState = StateHandedOff
	m.opened = &openFolder{id: op.Folder, isNew: isNew}
	m.emit(Event{Kind: FolderOpenRequested, Item: op.Item, Folder: op.Folder, Transfer: t})
}

// FolderOpened completes a soft commit once the folder's open animation is
// done: the dragged app leaves the grid.
func (m *Manager) FolderOpened() bool {
	op := m.settling
	if op == nil {
		return false
	}
	m.settling = nil
	m.removeSource(op)
	op.State = OpDone
	m.emit(Event{Kind: FolderCommitted, Item: op.Item, Folder: op.Folder})
	m.ensureTrailingPage()
	return true
}

// removeSource takes the dragged app off the grid by identity. A pending
// cascade rollback point is restored instead, which also removes the app;
// a freshly created folder is then put back in place of its first app.
func (m *Manager) removeSource(op *FolderOperation) {
	d := op.session
	if d.saved != nil {
		m.main.Restore(*d.saved)
		d.saved = nil
		if op.Kind == FolderCreation {
			if p, s, ok := m.main.Find(op.Target); ok {
				m.main.Replace(p, s, op.Folder)
			}
		}
		return
	}
	m.main.RemoveItem(op.Item)
}

// dragOutFired removes the dragged app from the folder and hands the drag to
// the grid the folder lives on.
func (m *Manager) dragOutFired() {
	d := m.drag
	if d == nil || m.mode != ModeFolder {
		return
	}
	m.main.RemoveItem(d.Item)
	m.stopTimers()
	t := &Transfer{Item: d.Item, Origin: d.Origin, Offset: d.Offset, Center: d.Center, Folder: m.folder.ID()}
	m.drag = nil
	m.lastState = StateHandedOff
	m.log.Debug("drag out of folder", slog.String("item", string(d.Item)))
	m.emit(Event{Kind: DragOut, Item: d.Item, Folder: m.folder.ID(), Transfer: t})
}

// AdoptDrag continues a drag handed over by another manager. An item not yet
// on this surface is appended to the current page, cascading when it is
// full; if it came out of a folder that is now empty it takes the folder's
// place.
func (m *Manager) AdoptDrag(t Transfer) bool {
	if m.drag != nil {
		return false
	}
	d := &DragSession{Item: t.Item, Origin: t.Origin, Offset: t.Offset, Center: t.Center}
	m.drag = d
	if loc, ok := m.locate(t.Item); ok {
		d.Current = loc
	} else {
		m.adoptFromFolder(d, t)
	}
	if m.mode == ModeFolder {
		// the pointer may still be outside the folder right after it opened
		if t.Center.Y < m.mainFrame.Y {
			m.ignoreDragOutTop = true
		} else if t.Center.Y > m.mainFrame.Max().Y {
			m.ignoreDragOutBottom = true
		}
	}
	m.EnterEditing()
	m.log.Debug("drag adopted", slog.String("item", string(t.Item)), slog.String("at", d.Current.String()))
	m.emit(Event{Kind: DragAdopted, Surface: d.Current.Surface, Page: d.Current.Page, Slot: d.Current.Slot, Item: t.Item, Folder: t.Folder})
	return true
}

func (m *Manager) adoptFromFolder(d *DragSession, t Transfer) {
	reg := m.home.Registry
	page := m.page
	if page >= m.main.PageCount() {
		page = m.main.PageCount() - 1
	}
	if f, ok := reg.Folder(t.Folder); ok && f.Count() == 0 {
		if fp, fs, found := m.main.Find(f.ID()); found {
			m.main.Remove(fp, fs)
			reg.Delete(f.ID())
			if m.opened != nil && m.opened.id == f.ID() {
				m.opened = nil
			}
			m.emit(Event{Kind: FolderRemoved, Surface: m.surface, Page: fp, Slot: fs, Folder: f.ID()})
		}
	} else if m.main.IsFull(page) {
		d.save(m.main)
		m.main.MoveLastItem(page)
	}
	np, ns := m.main.AppendTo(page, t.Item)
	d.Current = domain.Location{Surface: m.surface, Page: np, Slot: ns}
	if m.opened != nil && m.opened.id == t.Folder && m.opened.isNew {
		m.opened.cancelCreation = true
	}
}

// OpenFolder records that folder id is being presented.
func (m *Manager) OpenFolder(id domain.ItemID) bool {
	f, ok := m.home.Registry.Folder(id)
	if !ok || m.opened != nil || !m.main.Contains(id) {
		return false
	}
	m.opened = &openFolder{id: id, isNew: f.IsNew}
	m.emit(Event{Kind: FolderOpenRequested, Folder: id})
	return true
}

// CloseFolder finishes presenting the open folder. Empty pages are dropped,
// an empty folder is removed, and a folder created in this gesture whose
// dragged app was pulled back out collapses into its remaining app.
func (m *Manager) CloseFolder() bool {
	info := m.opened
	if info == nil {
		return false
	}
	m.opened = nil
	reg := m.home.Registry
	f, ok := reg.Folder(info.id)
	if !ok {
		return true
	}
	f.Compact()
	f.IsNew = false
	fp, fs, ok := m.main.Find(f.ID())
	if !ok {
		return true
	}
	switch {
	case info.cancelCreation && f.Count() == 1:
		remaining := f.Apps.At(0, 0)
		f.Remove(remaining)
		m.main.Replace(fp, fs, remaining)
		reg.Delete(f.ID())
		m.emit(Event{Kind: FolderDissolved, Surface: m.surface, Page: fp, Slot: fs, Item: remaining, Folder: f.ID()})
	case f.Count() == 0:
		m.main.Remove(fp, fs)
		reg.Delete(f.ID())
		m.emit(Event{Kind: FolderRemoved, Surface: m.surface, Page: fp, Slot: fs, Folder: f.ID()})
	}
	return true
}
