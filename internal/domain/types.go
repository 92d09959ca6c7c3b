/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"springboard/internal/paged"
)

// This file defines the persisted (grid.json) form of a Home. The layout
// mirrors the launcher's historical file: {"pages": [[item...]], "dock": [item...]}.

// GridFile is the document stored in grid.json.
type GridFile struct {
	Pages [][]ItemRecord `json:"pages"`
	Dock  []ItemRecord   `json:"dock"`
}

// ItemRecord is one persisted app or folder. Folder apps are stored as pages;
// a flat array is accepted on load.
type ItemRecord struct {
	ID        string          `json:"id,omitempty"`
	Type      Kind            `json:"type"`
	Name      string          `json:"name"`
	BundleID  string          `json:"bundleID,omitempty"`
	AppType   Origin          `json:"appType,omitempty"`
	Badge     *int            `json:"badge,omitempty"`
	Icon      string          `json:"icon,omitempty"`
	Shareable *bool           `json:"shareable,omitempty"`
	Apps      json.RawMessage `json:"apps,omitempty"`
}

// EncodeHome converts h to its persisted form.
func EncodeHome(h *Home) (GridFile, error) {
	gf := GridFile{Pages: make([][]ItemRecord, 0, h.Pages.PageCount()), Dock: []ItemRecord{}}
	for _, page := range h.Pages.Pages() {
		recs := make([]ItemRecord, 0, len(page))
		for _, id := range page {
			rec, err := encodeItem(h.Registry, id)
			if err != nil {
				return GridFile{}, err
			}
			recs = append(recs, rec)
		}
		gf.Pages = append(gf.Pages, recs)
	}
	for _, id := range h.Dock.Items() {
		rec, err := encodeItem(h.Registry, id)
		if err != nil {
			return GridFile{}, err
		}
		gf.Dock = append(gf.Dock, rec)
	}
	return gf, nil
}

func encodeItem(reg *Registry, id ItemID) (ItemRecord, error) {
	it, ok := reg.Get(id)
	if !ok {
		return ItemRecord{}, fmt.Errorf("unknown item %s", id)
	}
	switch v := it.(type) {
	case *App:
		return appRecord(v), nil
	case *Folder:
		pages := make([][]ItemRecord, 0, v.Apps.PageCount())
		for _, page := range v.Apps.Pages() {
			recs := make([]ItemRecord, 0, len(page))
			for _, aid := range page {
				a, ok := reg.App(aid)
				if !ok {
					return ItemRecord{}, fmt.Errorf("folder %q holds non-app %s", v.Name, aid)
				}
				recs = append(recs, appRecord(a))
			}
			pages = append(pages, recs)
		}
		raw, err := json.Marshal(pages)
		if err != nil {
			return ItemRecord{}, err
		}
		shareable := v.Shareable
		return ItemRecord{ID: string(v.id), Type: KindFolder, Name: v.Name, Shareable: &shareable, Apps: raw}, nil
	default:
		return ItemRecord{}, fmt.Errorf("unsupported item %T", it)
	}
}

func appRecord(a *App) ItemRecord {
	shareable := a.Shareable
	rec := ItemRecord{
		ID:        string(a.id),
		Type:      KindApp,
		Name:      a.Name,
		BundleID:  a.BundleID,
		AppType:   a.Origin,
		Icon:      a.Icon,
		Shareable: &shareable,
	}
	if n, ok := a.Badge(); ok {
		rec.Badge = &n
	}
	return rec
}

// DecodeHome rebuilds a Home from gf. Pages larger than the configured
// capacity are re-chunked; dock overflow moves to the main pages.
func DecodeHome(gf GridFile, caps Capacities) (*Home, error) {
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	h := NewHome(caps)
	d := decoder{reg: h.Registry, caps: caps, seen: map[ItemID]bool{}}

	pages := make([][]ItemID, 0, len(gf.Pages))
	oversized := false
	for _, page := range gf.Pages {
		ids := make([]ItemID, 0, len(page))
		for _, rec := range page {
			id, err := d.item(rec, true)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		if len(ids) > caps.AppsPerPage {
			oversized = true
		}
		pages = append(pages, ids)
	}
	switch {
	case len(pages) == 0:
		h.Pages = paged.New(caps.AppsPerPage, []ItemID{})
	case oversized:
		var flat []ItemID
		for _, p := range pages {
			flat = append(flat, p...)
		}
		h.Pages = paged.FromItems(caps.AppsPerPage, flat)
	default:
		h.Pages = paged.New(caps.AppsPerPage, pages...)
	}

	for _, rec := range gf.Dock {
		id, err := d.item(rec, false)
		if err != nil {
			return nil, fmt.Errorf("dock: %w", err)
		}
		if h.Dock.IsFull(0) {
			a, _ := h.Registry.App(id)
			h.AddApp(a)
			continue
		}
		h.Dock.AppendTo(0, id)
	}
	return h, nil
}

type decoder struct {
	reg  *Registry
	caps Capacities
	seen map[ItemID]bool
}

func (d *decoder) id(raw string) (ItemID, error) {
	if raw == "" {
		return NewID(), nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("invalid item id %q: %w", raw, err)
	}
	id := ItemID(raw)
	if d.seen[id] {
		return "", fmt.Errorf("duplicate item id %s", raw)
	}
	d.seen[id] = true
	return id, nil
}

func (d *decoder) item(rec ItemRecord, allowFolder bool) (ItemID, error) {
	id, err := d.id(rec.ID)
	if err != nil {
		return "", err
	}
	switch rec.Type {
	case KindApp:
		a := &App{id: id, Name: rec.Name, BundleID: rec.BundleID, Icon: rec.Icon, Origin: rec.AppType, Shareable: true}
		if rec.Shareable != nil {
			a.Shareable = *rec.Shareable
		}
		if rec.Badge != nil {
			a.SetBadge(*rec.Badge)
		}
		d.reg.Put(a)
		return id, nil
	case KindFolder:
		if !allowFolder {
			return "", fmt.Errorf("folder %q not allowed here", rec.Name)
		}
		f := &Folder{id: id, Name: rec.Name, Shareable: true}
		if rec.Shareable != nil {
			f.Shareable = *rec.Shareable
		}
		apps, err := d.folderApps(rec)
		if err != nil {
			return "", err
		}
		f.Apps = apps
		d.reg.Put(f)
		return id, nil
	default:
		return "", fmt.Errorf("item %q has unknown type %d", rec.Name, int(rec.Type))
	}
}

func (d *decoder) folderApps(rec ItemRecord) (*paged.Collection[ItemID], error) {
	capacity := d.caps.AppsPerPageOnFolder
	if len(rec.Apps) == 0 {
		return paged.New[ItemID](capacity), nil
	}
	var pages [][]ItemRecord
	if err := json.Unmarshal(rec.Apps, &pages); err != nil {
		var flat []ItemRecord
		if err2 := json.Unmarshal(rec.Apps, &flat); err2 != nil {
			return nil, fmt.Errorf("folder %q apps: %w", rec.Name, err)
		}
		pages = chunk(flat, capacity)
	}
	var ids []ItemID
	for _, page := range pages {
		for _, ar := range page {
			id, err := d.item(ar, false)
			if err != nil {
				return nil, fmt.Errorf("folder %q: %w", rec.Name, err)
			}
			ids = append(ids, id)
		}
	}
	// stored pages are honoured unless they no longer fit
	fits := true
	for _, p := range pages {
		if len(p) > capacity || len(p) == 0 {
			fits = false
		}
	}
	if !fits {
		return paged.FromItems(capacity, ids), nil
	}
	c := paged.New[ItemID](capacity)
	i := 0
	for _, p := range pages {
		pg := c.AppendPage()
		for range p {
			c.AppendTo(pg, ids[i])
			i++
		}
	}
	return c, nil
}

func chunk(recs []ItemRecord, size int) [][]ItemRecord {
	var out [][]ItemRecord
	for start := 0; start < len(recs); start += size {
		out = append(out, recs[start:min(start+size, len(recs))])
	}
	return out
}

// MarshalHome renders h as indented grid.json bytes.
func MarshalHome(h *Home) ([]byte, error) {
	gf, err := EncodeHome(h)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(gf, "", "  ")
}

// UnmarshalHome parses grid.json bytes.
func UnmarshalHome(data []byte, caps Capacities) (*Home, error) {
	var gf GridFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse grid: %w", err)
	}
	return DecodeHome(gf, caps)
}
