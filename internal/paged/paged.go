/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package paged implements an ordered sequence of fixed-capacity pages.
//
// Inserting into a full page pushes that page's last element to the front of
// the next page, repeating until the overflow settles, appending a fresh page
// when the last one spills over. Removing never pulls elements back from later
// pages; the only structural shrink is CompactTrailingEmptyPage (and
// DropEmptyPages for folder contents).
//
// Invalid page or slot indices are programmer errors and panic.
package paged

import (
	"fmt"
	"slices"
)

// Op identifies the kind of structural change reported to a listener.
type Op int

const (
	Inserted Op = iota
	Removed
	Moved
	Replaced
	PageAppended
	PageRemoved
	Reset
)

func (o Op) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	case Moved:
		return "moved"
	case Replaced:
		return "replaced"
	case PageAppended:
		return "page-appended"
	case PageRemoved:
		return "page-removed"
	case Reset:
		return "reset"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Change describes one mutation. FromPage/FromSlot are only meaningful for Moved.
type Change struct {
	Op       Op
	Page     int
	Slot     int
	FromPage int
	FromSlot int
}

// Collection is a paged sequence of T with a per-page capacity.
type Collection[T comparable] struct {
	capacity int
	pages    [][]T
	listener func(Change)
}

// New creates a collection holding copies of the given pages.
func New[T comparable](capacity int, pages ...[]T) *Collection[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("paged: capacity must be positive, got %d", capacity))
	}
	c := &Collection[T]{capacity: capacity, pages: make([][]T, 0, len(pages))}
	for i, p := range pages {
		if len(p) > capacity {
			panic(fmt.Sprintf("paged: page %d holds %d items, capacity is %d", i, len(p), capacity))
		}
		c.pages = append(c.pages, clonePage(p, capacity))
	}
	return c
}

// FromItems chunks a flat list into full pages; only the last page may be short.
func FromItems[T comparable](capacity int, items []T) *Collection[T] {
	c := New[T](capacity)
	for start := 0; start < len(items); start += capacity {
		end := min(start+capacity, len(items))
		c.pages = append(c.pages, clonePage(items[start:end], capacity))
	}
	return c
}

// SetListener registers fn to receive every structural change. Nil disables notifications.
func (c *Collection[T]) SetListener(fn func(Change)) { c.listener = fn }

func (c *Collection[T]) emit(ch Change) {
	if c.listener != nil {
		c.listener(ch)
	}
}

func (c *Collection[T]) Capacity() int  { return c.capacity }
func (c *Collection[T]) PageCount() int { return len(c.pages) }

// Len returns the number of items on page.
func (c *Collection[T]) Len(page int) int {
	c.checkPage(page)
	return len(c.pages[page])
}

// Total returns the number of items across all pages.
func (c *Collection[T]) Total() int {
	n := 0
	for _, p := range c.pages {
		n += len(p)
	}
	return n
}

// IsFull reports whether page has reached capacity.
func (c *Collection[T]) IsFull(page int) bool { return c.Len(page) >= c.capacity }

// Page returns a copy of the items on page.
func (c *Collection[T]) Page(page int) []T {
	c.checkPage(page)
	return slices.Clone(c.pages[page])
}

// Pages returns a deep copy of all pages.
func (c *Collection[T]) Pages() [][]T {
	out := make([][]T, len(c.pages))
	for i, p := range c.pages {
		out[i] = slices.Clone(p)
	}
	return out
}

// Items returns all items in page order.
func (c *Collection[T]) Items() []T {
	out := make([]T, 0, c.Total())
	for _, p := range c.pages {
		out = append(out, p...)
	}
	return out
}

// At returns the item at (page, slot).
func (c *Collection[T]) At(page, slot int) T {
	c.checkSlot(page, slot, false)
	return c.pages[page][slot]
}

// Find locates item by equality and returns its page and slot.
func (c *Collection[T]) Find(item T) (page, slot int, ok bool) {
	for p, items := range c.pages {
		if s := slices.Index(items, item); s >= 0 {
			return p, s, true
		}
	}
	return -1, -1, false
}

// Contains reports whether item is present on any page.
func (c *Collection[T]) Contains(item T) bool {
	_, _, ok := c.Find(item)
	return ok
}

// Insert places item at (page, slot), shifting later items right and
// cascading overflow into the following pages.
func (c *Collection[T]) Insert(item T, page, slot int) {
	c.checkSlot(page, slot, true)
	c.pages[page] = slices.Insert(c.pages[page], slot, item)
	c.emit(Change{Op: Inserted, Page: page, Slot: slot})
	c.cascade(page)
}

// Append adds item after the last item of the last page, opening a page when
// there is none or the last one is full.
func (c *Collection[T]) Append(item T) (page, slot int) {
	if len(c.pages) == 0 || len(c.pages[len(c.pages)-1]) >= c.capacity {
		c.AppendPage()
	}
	page = len(c.pages) - 1
	slot = len(c.pages[page])
	c.Insert(item, page, slot)
	return page, slot
}

// AppendTo adds item at the end of page and returns where it landed. On a
// full page the item itself overflows to the front of the next page.
func (c *Collection[T]) AppendTo(page int, item T) (int, int) {
	c.checkPage(page)
	slot := len(c.pages[page])
	c.Insert(item, page, slot)
	if slot >= c.capacity {
		return page + 1, 0
	}
	return page, slot
}

// Remove deletes and returns the item at (page, slot). Later pages are untouched.
func (c *Collection[T]) Remove(page, slot int) T {
	c.checkSlot(page, slot, false)
	item := c.pages[page][slot]
	c.pages[page] = slices.Delete(c.pages[page], slot, slot+1)
	c.emit(Change{Op: Removed, Page: page, Slot: slot})
	return item
}

// RemoveItem deletes item wherever it is. It reports whether item was present.
func (c *Collection[T]) RemoveItem(item T) bool {
	p, s, ok := c.Find(item)
	if !ok {
		return false
	}
	c.Remove(p, s)
	return true
}

// Replace swaps the item at (page, slot) and returns the previous occupant.
func (c *Collection[T]) Replace(page, slot int, item T) T {
	c.checkSlot(page, slot, false)
	old := c.pages[page][slot]
	c.pages[page][slot] = item
	c.emit(Change{Op: Replaced, Page: page, Slot: slot})
	return old
}

// Move relocates the item at (fromPage, fromSlot) to (toPage, toSlot). The
// destination slot is interpreted after the removal. Overflow cascades.
func (c *Collection[T]) Move(fromPage, fromSlot, toPage, toSlot int) {
	c.checkSlot(fromPage, fromSlot, false)
	item := c.pages[fromPage][fromSlot]
	c.pages[fromPage] = slices.Delete(c.pages[fromPage], fromSlot, fromSlot+1)
	if toPage < 0 || toPage >= len(c.pages) || toSlot < 0 || toSlot > len(c.pages[toPage]) {
		// put it back before reporting the bad destination
		c.pages[fromPage] = slices.Insert(c.pages[fromPage], fromSlot, item)
		panic(fmt.Sprintf("paged: move destination (%d,%d) out of range", toPage, toSlot))
	}
	c.pages[toPage] = slices.Insert(c.pages[toPage], toSlot, item)
	c.emit(Change{Op: Moved, FromPage: fromPage, FromSlot: fromSlot, Page: toPage, Slot: toSlot})
	c.cascade(toPage)
}

// MoveLastItem pushes the last item of fromPage to the front of the next
// page, creating it when fromPage is the last page. It reports false when
// fromPage is empty.
func (c *Collection[T]) MoveLastItem(fromPage int) bool {
	c.checkPage(fromPage)
	n := len(c.pages[fromPage])
	if n == 0 {
		return false
	}
	item := c.pages[fromPage][n-1]
	c.pages[fromPage] = c.pages[fromPage][:n-1]
	if fromPage+1 == len(c.pages) {
		c.AppendPage()
	}
	c.pages[fromPage+1] = slices.Insert(c.pages[fromPage+1], 0, item)
	c.emit(Change{Op: Moved, FromPage: fromPage, FromSlot: n - 1, Page: fromPage + 1, Slot: 0})
	c.cascade(fromPage + 1)
	return true
}

// AppendPage adds an empty page at the end and returns its index.
func (c *Collection[T]) AppendPage() int {
	c.pages = append(c.pages, make([]T, 0, c.capacity))
	idx := len(c.pages) - 1
	c.emit(Change{Op: PageAppended, Page: idx})
	return idx
}

// RemovePage deletes page and everything on it.
func (c *Collection[T]) RemovePage(page int) {
	c.checkPage(page)
	c.pages = slices.Delete(c.pages, page, page+1)
	c.emit(Change{Op: PageRemoved, Page: page})
}

// CompactTrailingEmptyPage removes the last page if it is empty and is not
// the only page.
func (c *Collection[T]) CompactTrailingEmptyPage() bool {
	n := len(c.pages)
	if n < 2 || len(c.pages[n-1]) != 0 {
		return false
	}
	c.RemovePage(n - 1)
	return true
}

// DropEmptyPages removes every empty page and returns how many were removed.
func (c *Collection[T]) DropEmptyPages() int {
	removed := 0
	for p := len(c.pages) - 1; p >= 0; p-- {
		if len(c.pages[p]) == 0 {
			c.RemovePage(p)
			removed++
		}
	}
	return removed
}

// Snapshot is an immutable deep copy of a collection's pages.
type Snapshot[T comparable] struct {
	capacity int
	pages    [][]T
}

// PageCount returns the number of pages captured.
func (s Snapshot[T]) PageCount() int { return len(s.pages) }

// Snapshot captures the current pages for a later Restore.
func (c *Collection[T]) Snapshot() Snapshot[T] {
	pages := make([][]T, len(c.pages))
	for i, p := range c.pages {
		pages[i] = clonePage(p, c.capacity)
	}
	return Snapshot[T]{capacity: c.capacity, pages: pages}
}

// Restore replaces all pages with the snapshot's contents. The snapshot stays
// reusable.
func (c *Collection[T]) Restore(s Snapshot[T]) {
	if s.capacity != c.capacity {
		panic(fmt.Sprintf("paged: snapshot capacity %d does not match collection capacity %d", s.capacity, c.capacity))
	}
	pages := make([][]T, len(s.pages))
	for i, p := range s.pages {
		pages[i] = clonePage(p, c.capacity)
	}
	c.pages = pages
	c.emit(Change{Op: Reset})
}

// Clone returns an independent copy without the listener.
func (c *Collection[T]) Clone() *Collection[T] {
	out := &Collection[T]{capacity: c.capacity}
	out.Restore(c.Snapshot())
	return out
}

// Validate checks the capacity invariant.
func (c *Collection[T]) Validate() error {
	for i, p := range c.pages {
		if len(p) > c.capacity {
			return fmt.Errorf("page %d holds %d items, capacity is %d", i, len(p), c.capacity)
		}
	}
	return nil
}

// cascade pushes overflow from page forward until every page fits.
func (c *Collection[T]) cascade(page int) {
	for p := page; p < len(c.pages) && len(c.pages[p]) > c.capacity; p++ {
		n := len(c.pages[p])
		last := c.pages[p][n-1]
		c.pages[p] = c.pages[p][:n-1]
		if p+1 == len(c.pages) {
			c.AppendPage()
		}
		c.pages[p+1] = slices.Insert(c.pages[p+1], 0, last)
		c.emit(Change{Op: Moved, FromPage: p, FromSlot: n - 1, Page: p + 1, Slot: 0})
	}
}

func (c *Collection[T]) checkPage(page int) {
	if page < 0 || page >= len(c.pages) {
		panic(fmt.Sprintf("paged: page %d out of range [0,%d)", page, len(c.pages)))
	}
}

// checkSlot validates a slot; insert allows the one-past-the-end position.
func (c *Collection[T]) checkSlot(page, slot int, insert bool) {
	c.checkPage(page)
	limit := len(c.pages[page])
	if insert {
		limit++
	}
	if slot < 0 || slot >= limit {
		panic(fmt.Sprintf("paged: slot %d out of range on page %d (len %d)", slot, page, len(c.pages[page])))
	}
}

func clonePage[T any](p []T, capacity int) []T {
	out := make([]T, len(p), max(capacity, len(p)))
	copy(out, p)
	return out
}
