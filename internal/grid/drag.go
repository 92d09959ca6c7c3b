/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package grid

import (
	"log/slog"

	"springboard/internal/domain"
	"springboard/internal/paged"
	"springboard/internal/spatial"
)

// DragSession is the state of one drag gesture.
type DragSession struct {
	Item    domain.ItemID
	Origin  domain.Location
	Current domain.Location
	// Offset is the vector from the touch-down point to the dragged cell's
	// center; the placeholder sits at pointer+Offset.
	Offset spatial.Vec
	Center spatial.Point
	// NeedsResync is set by a page flip until the renderer reports the scroll
	// settled; pointer updates are ignored meanwhile.
	NeedsResync bool

	// rollback point for a speculative overflow cascade on the main surface
	saved    *paged.Snapshot[domain.ItemID]
	hasSaved bool // set on copies handed out by Session
}

// HasSavedState reports whether a speculative cascade can still be rolled back.
func (d DragSession) HasSavedState() bool { return d.saved != nil || d.hasSaved }

func (d *DragSession) save(c *paged.Collection[domain.ItemID]) {
	snap := c.Snapshot()
	d.saved = &snap
}

// Begin starts a drag when p is over an icon. It reports whether a session
// was created.
func (m *Manager) Begin(p spatial.Point) bool {
	if m.drag != nil {
		return false
	}
	surf, page, local := m.surfaceAt(p)
	coll := m.collection(surf)
	if page >= coll.PageCount() {
		return false
	}
	geo := m.geometry(surf)
	count := coll.Len(page)
	slot, ok := geo.SlotAt(local, count)
	if !ok || !geo.IconFrame(slot, count).Contains(local) {
		return false
	}
	id := coll.At(page, slot)
	center := geo.CellCenter(slot, count)
	loc := domain.Location{Surface: surf, Page: page, Slot: slot}

	m.EnterEditing()
	offset := center.Sub(local)
	m.drag = &DragSession{
		Item:    id,
		Origin:  loc,
		Current: loc,
		Offset:  offset,
		Center:  p.Add(offset),
	}
	m.ignoreDragOutTop, m.ignoreDragOutBottom = false, false
	m.log.Debug("drag began", slog.String("item", string(id)), slog.String("at", loc.String()))
	m.emit(Event{Kind: DragBegan, Surface: surf, Page: page, Slot: slot, Item: id})
	return true
}

// Update feeds a pointer sample to the active drag.
func (m *Manager) Update(p spatial.Point) {
	d := m.drag
	if d == nil {
		return
	}
	d.Center = p.Add(d.Offset)
	if d.NeedsResync {
		return
	}

	if m.mode == ModeFolder {
		above := p.Y < m.mainFrame.Y && !m.ignoreDragOutTop
		below := p.Y > m.mainFrame.Max().Y && !m.ignoreDragOutBottom
		if above || below {
			m.dragOutTimer.Start(m.settings.DragOutDwell, m.dragOutFired)
			return
		}
	}
	m.dragOutTimer.Stop()

	surf, page, local := m.surfaceAt(p)
	coll := m.collection(surf)
	geo := m.geometry(surf)
	count := coll.Len(page)
	own := -1
	if d.Current.Surface == surf && d.Current.Page == page {
		own = d.Current.Slot
	}

	hit := geo.Classify(local, count, own)
	switch hit.Zone {
	case spatial.ZoneDrop:
		if surf == domain.SurfaceDock {
			m.cancelFolderOperation()
			m.pageTimer.Stop()
			return
		}
		if m.folderOp != nil || m.dock == nil || m.home.Registry.IsFolder(d.Item) {
			return
		}
		m.pageTimer.Stop()
		m.startFolderOperation(coll.At(page, hit.Slot))
		return
	case spatial.ZoneDeadband:
		m.cancelFolderOperation()
		m.pageTimer.Stop()
		return
	case spatial.ZoneFlipLeft, spatial.ZoneFlipRight:
		m.cancelFolderOperation()
		if surf == domain.SurfaceDock {
			hit.Slot = 0
			if hit.Zone == spatial.ZoneFlipRight && count > 0 {
				hit.Slot = count - 1
			}
			break
		}
		dir := -1
		if hit.Zone == spatial.ZoneFlipRight {
			dir = 1
		}
		if m.pageTimer.Start(m.settings.PageDwell, func() { m.pageFlipFired(dir) }) {
			m.log.Debug("page flip armed", slog.Int("dir", dir))
		}
		return
	case spatial.ZoneNone:
		if m.dock != nil && surf == m.surface && d.Current.Surface == domain.SurfaceDock {
			if count >= coll.Capacity() {
				return
			}
			hit = spatial.Hit{Zone: spatial.ZoneGap, Slot: count + 1}
			break
		}
		m.cancelFolderOperation()
		m.pageTimer.Stop()
		return
	}

	m.ignoreDragOutTop, m.ignoreDragOutBottom = false, false
	m.cancelFolderOperation()
	m.pageTimer.Stop()
	m.folderTimer.Stop()

	sameOrigin := d.Current.Surface == d.Origin.Surface && d.Current.Page == d.Origin.Page
	dest := geo.Destination(hit, d.Origin.Slot, sameOrigin, count)
	target := domain.Location{Surface: surf, Page: page, Slot: dest}
	if target == d.Current {
		return
	}

	if m.dock != nil {
		switch {
		case surf == domain.SurfaceDock && d.Current.Surface != domain.SurfaceDock:
			m.moveToDock(d, dest)
			return
		case surf != domain.SurfaceDock && d.Current.Surface == domain.SurfaceDock:
			m.moveFromDock(d, page, dest)
			return
		}
	}

	if own < 0 || own >= count || dest >= count {
		return
	}
	coll.Move(page, own, page, dest)
	d.Current = target
}

// moveToDock moves the dragged item from the main page into the dock.
func (m *Manager) moveToDock(d *DragSession, dest int) {
	if m.dock.Len(0) >= m.dock.Capacity() || m.home.Registry.IsFolder(d.Item) {
		return
	}
	m.dock.Insert(d.Item, 0, dest)
	if d.saved != nil {
		m.main.Restore(*d.saved)
		d.saved = nil
	} else {
		m.main.Remove(d.Current.Page, d.Current.Slot)
	}
	m.log.Debug("moved to dock", slog.Int("slot", dest))
	d.Current = domain.Location{Surface: domain.SurfaceDock, Page: 0, Slot: dest}
}

// moveFromDock moves the dragged item from the dock onto the main page,
// making room by cascading when the page is full.
func (m *Manager) moveFromDock(d *DragSession, page, dest int) {
	if m.main.IsFull(page) {
		d.save(m.main)
		m.main.MoveLastItem(page)
	}
	m.main.Insert(d.Item, page, dest)
	m.dock.Remove(0, d.Current.Slot)
	m.log.Debug("moved from dock", slog.Int("page", page), slog.Int("slot", dest))
	d.Current = domain.Location{Surface: m.surface, Page: page, Slot: dest}
}

// pageFlipFired carries the dragged item to the adjacent page.
func (m *Manager) pageFlipFired(dir int) {
	d := m.drag
	if d == nil {
		return
	}
	cur := m.page
	next := cur + dir
	if d.Current.Surface != m.surface || next < 0 || next >= m.main.PageCount() {
		return
	}
	pg, slot, ok := m.main.Find(d.Item)
	if !ok || pg != cur {
		return
	}
	m.cancelFolderOperation()

	if d.saved != nil {
		m.main.Restore(*d.saved)
		d.saved = nil
	} else {
		m.main.Remove(pg, slot)
	}
	for next >= m.main.PageCount() {
		m.main.AppendPage()
	}
	if m.main.IsFull(next) {
		d.save(m.main)
		m.main.MoveLastItem(next)
	}
	np, ns := m.main.AppendTo(next, d.Item)

	m.page = next
	d.Current = domain.Location{Surface: m.surface, Page: np, Slot: ns}
	d.NeedsResync = true
	m.log.Debug("page flipped", slog.Int("from", cur), slog.Int("to", next))
	m.emit(Event{Kind: PageFlipped, Surface: m.surface, Page: next, Item: d.Item})
}

// ScrollSettled tells the manager the page-flip scroll finished; the session
// re-derives its location and accepts pointer updates again.
func (m *Manager) ScrollSettled() {
	d := m.drag
	if d == nil || !d.NeedsResync {
		return
	}
	m.resync(d)
}

func (m *Manager) resync(d *DragSession) {
	if loc, ok := m.locate(d.Item); ok {
		d.Current = loc
		if loc.Surface == m.surface {
			m.page = loc.Page
		}
	}
	d.NeedsResync = false
}

// End finishes the gesture. A pending folder operation is committed as a drop.
func (m *Manager) End() bool {
	if m.folderOp != nil {
		m.folderTimer.Stop()
		m.commitFolderOperation(true)
		return true
	}
	d := m.drag
	if d == nil {
		return false
	}
	m.finishDrag(StateEnded)
	return true
}

// Cancel aborts the gesture. The layout reached so far is kept; a pending
// folder merge is discarded.
func (m *Manager) Cancel() bool {
	if m.drag == nil {
		return false
	}
	m.cancelFolderOperation()
	m.finishDrag(StateCancelled)
	return true
}

func (m *Manager) finishDrag(state DragState) {
	d := m.drag
	m.stopTimers()
	if d.NeedsResync {
		m.resync(d)
	}
	d.saved = nil
	m.drag = nil
	m.lastState = state
	kind := DragEnded
	if state == StateCancelled {
		kind = DragCancelled
	}
	m.log.Debug("drag finished", slog.String("state", state.String()), slog.String("at", d.Current.String()))
	m.emit(Event{Kind: kind, Surface: d.Current.Surface, Page: d.Current.Page, Slot: d.Current.Slot, Item: d.Item})
	m.ensureTrailingPage()
}
