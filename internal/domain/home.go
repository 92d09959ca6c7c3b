/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"springboard/internal/paged"
)

// Capacities fixes the page sizes of a Home.
type Capacities struct {
	AppsPerPage         int // main grid: columns * rows
	AppsPerRow          int // also the dock capacity
	AppsPerPageOnFolder int
}

// DefaultCapacities matches a 4x6 home grid with 3x3 folders.
func DefaultCapacities() Capacities {
	return Capacities{AppsPerPage: 24, AppsPerRow: 4, AppsPerPageOnFolder: 9}
}

// MinFolderCapacity is the smallest folder page: a new folder starts with the
// two apps that formed it on its first page.
const MinFolderCapacity = 2

// Validate rejects non-positive capacities and folder pages too small to seed
// a new folder.
func (c Capacities) Validate() error {
	if c.AppsPerPage <= 0 || c.AppsPerRow <= 0 || c.AppsPerPageOnFolder < MinFolderCapacity {
		return fmt.Errorf("invalid capacities %+v", c)
	}
	return nil
}

// Surface names one of the collections a Location points into.
type Surface int

const (
	SurfaceMain Surface = iota
	SurfaceDock
	SurfaceFolder // pages of an open folder
)

func (s Surface) String() string {
	switch s {
	case SurfaceDock:
		return "dock"
	case SurfaceFolder:
		return "folder"
	default:
		return "main"
	}
}

// Location is a logical position, never a handle into a view.
type Location struct {
	Surface Surface
	Page    int
	Slot    int
}

func (l Location) String() string { return fmt.Sprintf("%s[%d:%d]", l.Surface, l.Page, l.Slot) }

// Home is the top-level item store: the main pages, the dock and the
// registry both reference.
type Home struct {
	Registry *Registry
	Pages    *paged.Collection[ItemID]
	Dock     *paged.Collection[ItemID]
	caps     Capacities
}

// NewHome creates an empty home with one empty page and an empty dock.
func NewHome(caps Capacities) *Home {
	return &Home{
		Registry: NewRegistry(),
		Pages:    paged.New(caps.AppsPerPage, []ItemID{}),
		Dock:     paged.New(caps.AppsPerRow, []ItemID{}),
		caps:     caps,
	}
}

func (h *Home) Capacities() Capacities { return h.caps }

// SeedFlat fills the home by chunking items into pages and dock apps into the dock.
func (h *Home) SeedFlat(items []Item, dock []*App) {
	ids := make([]ItemID, 0, len(items))
	for _, it := range items {
		h.Registry.Put(it)
		ids = append(ids, it.ID())
	}
	h.Pages = paged.FromItems(h.caps.AppsPerPage, ids)
	if h.Pages.PageCount() == 0 {
		h.Pages.AppendPage()
	}
	h.Dock = paged.New(h.caps.AppsPerRow, []ItemID{})
	for _, a := range dock {
		h.Registry.Put(a)
		if h.Dock.IsFull(0) {
			h.AddApp(a)
			continue
		}
		h.Dock.AppendTo(0, a.ID())
	}
}

// Locate finds a top-level item, dock first.
func (h *Home) Locate(id ItemID) (Location, bool) {
	if p, s, ok := h.Dock.Find(id); ok {
		return Location{Surface: SurfaceDock, Page: p, Slot: s}, true
	}
	if p, s, ok := h.Pages.Find(id); ok {
		return Location{Surface: SurfaceMain, Page: p, Slot: s}, true
	}
	return Location{}, false
}

// FolderOf returns the folder holding app id, if any.
func (h *Home) FolderOf(id ItemID) (*Folder, bool) {
	for _, fid := range h.Pages.Items() {
		if f, ok := h.Registry.Folder(fid); ok && f.Apps.Contains(id) {
			return f, true
		}
	}
	return nil, false
}

// AddApp places app on the first main page with room, appending a page when
// all are full.
func (h *Home) AddApp(app *App) Location {
	h.Registry.Put(app)
	for p := 0; p < h.Pages.PageCount(); p++ {
		if !h.Pages.IsFull(p) {
			pg, s := h.Pages.AppendTo(p, app.ID())
			return Location{Surface: SurfaceMain, Page: pg, Slot: s}
		}
	}
	p := h.Pages.AppendPage()
	pg, s := h.Pages.AppendTo(p, app.ID())
	return Location{Surface: SurfaceMain, Page: pg, Slot: s}
}

// AddFolder places a folder like AddApp does.
func (h *Home) AddFolder(f *Folder) Location {
	h.Registry.Put(f)
	for p := 0; p < h.Pages.PageCount(); p++ {
		if !h.Pages.IsFull(p) {
			pg, s := h.Pages.AppendTo(p, f.ID())
			return Location{Surface: SurfaceMain, Page: pg, Slot: s}
		}
	}
	p := h.Pages.AppendPage()
	pg, s := h.Pages.AppendTo(p, f.ID())
	return Location{Surface: SurfaceMain, Page: pg, Slot: s}
}

// AddAppToFolder registers app and adds it to folder.
func (h *Home) AddAppToFolder(app *App, folder *Folder) {
	h.Registry.Put(app)
	folder.Add(app.ID())
}

// RemoveAppFromFolder takes app out of folder and forgets it. A folder left
// empty is removed from the main pages.
func (h *Home) RemoveAppFromFolder(app *App, folder *Folder) bool {
	if !folder.Remove(app.ID()) {
		return false
	}
	h.Registry.Delete(app.ID())
	if folder.Count() == 0 {
		h.Pages.RemoveItem(folder.ID())
		h.Registry.Delete(folder.ID())
	}
	return true
}

// Launcher opens apps on behalf of the home screen.
type Launcher interface {
	Launch(app *App) bool
}

// Open asks launcher to open the app id. Folders and unknown items report false.
func (h *Home) Open(id ItemID, launcher Launcher) bool {
	app, ok := h.Registry.App(id)
	if !ok || launcher == nil {
		return false
	}
	return launcher.Launch(app)
}

// SearchResult is one matching app; Folder is set when the app lives in one.
type SearchResult struct {
	App    *App
	Folder *Folder
}

// Search matches apps whose name, or any word of it, starts with query,
// ignoring case (full Unicode folding, so "strasse" finds "Straße").
// Top-level apps come before apps inside folders.
func (h *Home) Search(query string) []SearchResult {
	q := cases.Fold().String(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var top, nested []SearchResult
	visit := func(id ItemID) {
		switch it := h.itemOf(id).(type) {
		case *App:
			if matchesWordPrefix(it.Name, q) {
				top = append(top, SearchResult{App: it})
			}
		case *Folder:
			for _, aid := range it.Apps.Items() {
				if a, ok := h.Registry.App(aid); ok && matchesWordPrefix(a.Name, q) {
					nested = append(nested, SearchResult{App: a, Folder: it})
				}
			}
		}
	}
	for _, id := range h.Dock.Items() {
		visit(id)
	}
	for _, id := range h.Pages.Items() {
		visit(id)
	}
	return append(top, nested...)
}

func (h *Home) itemOf(id ItemID) Item {
	it, _ := h.Registry.Get(id)
	return it
}

func matchesWordPrefix(name, q string) bool {
	n := cases.Fold().String(name)
	if strings.HasPrefix(n, q) {
		return true
	}
	for _, w := range strings.Fields(n) {
		if strings.HasPrefix(w, q) {
			return true
		}
	}
	return false
}

// DefaultSuggestionCount is the number of apps Suggestions returns when limit <= 0.
const DefaultSuggestionCount = 8

// Suggestions lists dock apps then top-level main apps, up to limit.
func (h *Home) Suggestions(limit int) []*App {
	if limit <= 0 {
		limit = DefaultSuggestionCount
	}
	var out []*App
	for _, id := range append(h.Dock.Items(), h.Pages.Items()...) {
		if len(out) == limit {
			break
		}
		if a, ok := h.Registry.App(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// Validate checks capacity invariants and that every referenced ID resolves.
func (h *Home) Validate() error {
	if err := h.Pages.Validate(); err != nil {
		return fmt.Errorf("pages: %w", err)
	}
	if err := h.Dock.Validate(); err != nil {
		return fmt.Errorf("dock: %w", err)
	}
	for _, id := range h.Dock.Items() {
		if _, ok := h.Registry.App(id); !ok {
			return fmt.Errorf("dock item %s is not an app", id)
		}
	}
	for _, id := range h.Pages.Items() {
		it, ok := h.Registry.Get(id)
		if !ok {
			return fmt.Errorf("unknown item %s", id)
		}
		if f, ok := it.(*Folder); ok {
			if err := f.Apps.Validate(); err != nil {
				return fmt.Errorf("folder %q: %w", f.Name, err)
			}
			for _, aid := range f.Apps.Items() {
				if _, ok := h.Registry.App(aid); !ok {
					return fmt.Errorf("folder %q holds non-app %s", f.Name, aid)
				}
			}
		}
	}
	return nil
}
