/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package spatial resolves pointer positions against a flow-laid-out page of
// icon cells: which slot a point targets, whether it hovers an icon's drop
// zone, or whether it sits in a page-flip margin.
package spatial

import "fmt"

const (
	// DropRadius is the half-size of the square around an icon center that
	// counts as "drop onto this item".
	DropRadius float32 = 20
	// Lookahead is added to x when the pointer is between cells, roughly the
	// widest inter-item gap.
	Lookahead float32 = 15
)

// Zone classifies where a point lands on a page.
type Zone int

const (
	ZoneNone     Zone = iota
	ZoneDrop          // over another item's icon center
	ZoneBefore        // left part of a cell: take that slot
	ZoneAfter         // right part of a cell: take the next slot
	ZoneEdge          // right part of the last cell in a row
	ZoneDeadband      // over an icon but outside the drop square
	ZoneFlipLeft
	ZoneFlipRight
	ZoneGap // between cells, resolved by lookahead
)

var zoneNames = [...]string{"none", "drop", "before", "after", "edge", "deadband", "flip-left", "flip-right", "gap"}

func (z Zone) String() string {
	if int(z) < len(zoneNames) {
		return zoneNames[z]
	}
	return fmt.Sprintf("zone(%d)", int(z))
}

// Hit is the result of Classify. Slot is meaningless for flip zones and ZoneNone.
type Hit struct {
	Zone Zone
	Slot int
}

// Geometry describes one page of a surface in page-local coordinates.
type Geometry struct {
	Width       float32
	Cell        Size
	Icon        Size
	IconTop     float32 // icon offset from its cell's top edge
	Insets      Insets
	LineSpacing float32
	Columns     int
	// Centered lays out fewer than Columns items centered, like a dock.
	Centered bool
}

// Spacing is the horizontal gap between cells, derived from the page width.
func (g Geometry) Spacing() float32 {
	if g.Columns <= 1 {
		return 0
	}
	return (g.Width - g.Insets.Left - g.Insets.Right - float32(g.Columns)*g.Cell.W) / float32(g.Columns-1)
}

// InsetsFor returns the effective insets of a page holding count items.
func (g Geometry) InsetsFor(count int) Insets {
	in := g.Insets
	if !g.Centered || count >= g.Columns {
		return in
	}
	n := float32(count)
	total := g.Cell.W*n + g.Spacing()*(n-1)
	side := (g.Width - total) / 2
	in.Left, in.Right = side, side
	return in
}

// CellFrame returns the frame of slot on a page holding count items.
func (g Geometry) CellFrame(slot, count int) Rect {
	in := g.InsetsFor(count)
	col, row := slot%g.Columns, slot/g.Columns
	return Rect{
		X: in.Left + float32(col)*(g.Cell.W+g.Spacing()),
		Y: in.Top + float32(row)*(g.Cell.H+g.LineSpacing),
		W: g.Cell.W,
		H: g.Cell.H,
	}
}

// IconFrame returns the icon frame inside slot's cell.
func (g Geometry) IconFrame(slot, count int) Rect {
	c := g.CellFrame(slot, count)
	return Rect{X: c.X + (c.W-g.Icon.W)/2, Y: c.Y + g.IconTop, W: g.Icon.W, H: g.Icon.H}
}

// CellCenter returns the center of slot's cell.
func (g Geometry) CellCenter(slot, count int) Point { return g.CellFrame(slot, count).Center() }

// SlotAt returns the occupied slot whose cell contains p.
func (g Geometry) SlotAt(p Point, count int) (int, bool) {
	for s := 0; s < count; s++ {
		if g.CellFrame(s, count).Contains(p) {
			return s, true
		}
	}
	return -1, false
}

// Classify resolves p on a page holding count items. own is the slot of the
// dragged item on this page, or -1 when the item lives on another page or
// surface; cell hits are only resolved when the item is on this page.
func (g Geometry) Classify(p Point, count, own int) Hit {
	if own >= 0 {
		if s, ok := g.SlotAt(p, count); ok {
			icon := g.IconFrame(s, count)
			c := icon.Center()
			drop := R(c.X-DropRadius, c.Y-DropRadius, 2*DropRadius, 2*DropRadius)
			switch {
			case drop.Contains(p) && s != own:
				return Hit{Zone: ZoneDrop, Slot: s}
			case p.X < icon.X:
				return Hit{Zone: ZoneBefore, Slot: s}
			case p.X > icon.X+icon.W:
				if (s+1)%g.Columns == 0 {
					return Hit{Zone: ZoneEdge, Slot: s}
				}
				return Hit{Zone: ZoneAfter, Slot: s + 1}
			default:
				return Hit{Zone: ZoneDeadband, Slot: s}
			}
		}
	}
	in := g.InsetsFor(count)
	if p.X <= in.Left {
		return Hit{Zone: ZoneFlipLeft, Slot: -1}
	}
	if p.X > g.Width-in.Right {
		return Hit{Zone: ZoneFlipRight, Slot: -1}
	}
	if s, ok := g.SlotAt(Point{X: p.X + Lookahead, Y: p.Y}, count); ok {
		return Hit{Zone: ZoneGap, Slot: s}
	}
	return Hit{Zone: ZoneNone, Slot: -1}
}

// Destination turns a target slot into the insertion slot. Moving along the
// row the item started on takes the place of the left neighbour, except at
// row edges; other rows take the place of the right neighbour. The result is
// clamped to the page's count.
func (g Geometry) Destination(h Hit, originSlot int, sameOrigin bool, count int) int {
	dest := h.Slot
	edge := h.Zone == ZoneEdge || dest%g.Columns == 0
	if sameOrigin && !edge && dest/g.Columns == originSlot/g.Columns {
		dest--
	}
	if dest >= count && dest > 0 {
		dest--
	} else if dest == -1 {
		dest = 0
	}
	return dest
}
