/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain holds the home-screen item model: apps, folders, the
// identity registry and the top-level Home store with its main pages and dock.
package domain

import (
	"fmt"

	"github.com/google/uuid"

	"springboard/internal/paged"
)

// ItemID is the opaque stable identity of a home item. Two apps with equal
// fields are still distinct items.
type ItemID string

// NewID returns a fresh random identity.
func NewID() ItemID { return ItemID(uuid.NewString()) }

// Kind discriminates the item variants. Values match the persisted "type" field.
type Kind int

const (
	KindApp    Kind = 0
	KindFolder Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindApp:
		return "app"
	case KindFolder:
		return "folder"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Origin tells where an app comes from. Values match the persisted "appType".
type Origin int

const (
	OriginLocal  Origin = 0 // bundled with the launcher
	OriginDevice Origin = 1 // installed on the device
)

// Item is implemented by *App and *Folder.
type Item interface {
	ID() ItemID
	Kind() Kind
	DisplayName() string
}

// App is a launchable icon.
type App struct {
	id        ItemID
	Name      string
	BundleID  string
	Icon      string // file name, resolved by whoever renders it
	Origin    Origin
	Shareable bool
	badge     *int
}

// NewApp creates a shareable local app with a fresh identity.
func NewApp(name, bundleID string) *App {
	return &App{id: NewID(), Name: name, BundleID: bundleID, Shareable: true}
}

func (a *App) ID() ItemID          { return a.id }
func (a *App) Kind() Kind          { return KindApp }
func (a *App) DisplayName() string { return a.Name }

// Badge returns the badge count and whether one is set.
func (a *App) Badge() (int, bool) {
	if a.badge == nil {
		return 0, false
	}
	return *a.badge, true
}

// SetBadge sets the badge. Negative values clear it.
func (a *App) SetBadge(n int) {
	if n < 0 {
		a.badge = nil
		return
	}
	a.badge = &n
}

// ClearBadge removes the badge.
func (a *App) ClearBadge() { a.badge = nil }

// Folder groups apps into its own paged collection. Folders never nest.
type Folder struct {
	id        ItemID
	Name      string
	Shareable bool
	Apps      *paged.Collection[ItemID]
	// IsNew marks a folder created by the current gesture; never persisted.
	IsNew bool
}

// DefaultFolderName is used for folders created by dropping one app on another.
const DefaultFolderName = "New Folder"

// NewFolder creates a folder whose first page holds apps.
func NewFolder(name string, capacity int, apps ...ItemID) *Folder {
	f := &Folder{id: NewID(), Name: name, Shareable: true, Apps: paged.New[ItemID](capacity)}
	if len(apps) > 0 {
		f.Apps = paged.FromItems(capacity, apps)
	}
	return f
}

func (f *Folder) ID() ItemID          { return f.id }
func (f *Folder) Kind() Kind          { return KindFolder }
func (f *Folder) DisplayName() string { return f.Name }

// Count returns the number of apps in the folder.
func (f *Folder) Count() int { return f.Apps.Total() }

// Add puts id on the first page with room, opening a new page when every
// page is full.
func (f *Folder) Add(id ItemID) (page, slot int) {
	for p := 0; p < f.Apps.PageCount(); p++ {
		if !f.Apps.IsFull(p) {
			return f.Apps.AppendTo(p, id)
		}
	}
	p := f.Apps.AppendPage()
	return f.Apps.AppendTo(p, id)
}

// Remove takes id out of the folder and drops its page if it became empty.
func (f *Folder) Remove(id ItemID) bool {
	p, s, ok := f.Apps.Find(id)
	if !ok {
		return false
	}
	f.Apps.Remove(p, s)
	if f.Apps.Len(p) == 0 {
		f.Apps.RemovePage(p)
	}
	return true
}

// Compact drops empty pages.
func (f *Folder) Compact() { f.Apps.DropEmptyPages() }
