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

	"springboard/internal/domain"
	"springboard/internal/paged"
	"springboard/internal/spatial"
)

// EventKind enumerates what a Manager reports to its listener.
type EventKind int

const (
	// collection mutations
	ItemInserted EventKind = iota
	ItemRemoved
	ItemMoved
	ItemReplaced
	PageAppended
	PageRemoved
	Reloaded

	// gesture lifecycle
	DragBegan
	DragEnded
	DragCancelled
	DragAdopted
	DragOut
	PageFlipped
	PageChanged

	// folders
	FolderPreviewStarted
	FolderPreviewCancelled
	FolderCreated
	FolderMerged
	FolderOpenRequested
	FolderCommitted
	FolderRemoved
	FolderDissolved

	ItemDeleted
	EditingEntered
	EditingLeft
)

var eventNames = [...]string{
	"item-inserted", "item-removed", "item-moved", "item-replaced", "page-appended", "page-removed", "reloaded",
	"drag-began", "drag-ended", "drag-cancelled", "drag-adopted", "drag-out", "page-flipped", "page-changed",
	"folder-preview-started", "folder-preview-cancelled", "folder-created", "folder-merged",
	"folder-open-requested", "folder-committed", "folder-removed", "folder-dissolved",
	"item-deleted", "editing-entered", "editing-left",
}

func (k EventKind) String() string {
	if int(k) >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one notification for the renderer (or any other observer).
// Fields not relevant to Kind are zero.
type Event struct {
	Kind     EventKind
	Surface  domain.Surface
	Page     int
	Slot     int
	FromPage int
	FromSlot int
	Item     domain.ItemID
	Folder   domain.ItemID
	Transfer *Transfer
}

func (e Event) String() string {
	switch e.Kind {
	case ItemMoved:
		return fmt.Sprintf("%s %s %d:%d->%d:%d", e.Kind, e.Surface, e.FromPage, e.FromSlot, e.Page, e.Slot)
	case ItemInserted, ItemRemoved, ItemReplaced:
		return fmt.Sprintf("%s %s %d:%d", e.Kind, e.Surface, e.Page, e.Slot)
	case PageAppended, PageRemoved, PageFlipped, PageChanged:
		return fmt.Sprintf("%s %s %d", e.Kind, e.Surface, e.Page)
	default:
		return e.Kind.String()
	}
}

// Listener receives events synchronously on the manager's thread.
type Listener func(Event)

// Transfer hands a live drag from one manager to another: into an opened
// folder after a dwell commit, or out of a folder back to the home grid.
type Transfer struct {
	Item   domain.ItemID
	Origin domain.Location
	Offset spatial.Vec
	Center spatial.Point
	Folder domain.ItemID
}

func changeEvent(surface domain.Surface, ch paged.Change) Event {
	ev := Event{Surface: surface, Page: ch.Page, Slot: ch.Slot, FromPage: ch.FromPage, FromSlot: ch.FromSlot}
	switch ch.Op {
	case paged.Inserted:
		ev.Kind = ItemInserted
	case paged.Removed:
		ev.Kind = ItemRemoved
	case paged.Moved:
		ev.Kind = ItemMoved
	case paged.Replaced:
		ev.Kind = ItemReplaced
	case paged.PageAppended:
		ev.Kind = PageAppended
	case paged.PageRemoved:
		ev.Kind = PageRemoved
	default:
		ev.Kind = Reloaded
	}
	return ev
}
