/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Registry is the identity map from ItemID to item. Collections only store
// IDs, so a snapshot of a collection never aliases item state.
type Registry struct {
	items map[ItemID]Item
}

func NewRegistry() *Registry { return &Registry{items: make(map[ItemID]Item)} }

// Put registers it, replacing any previous item with the same ID.
func (r *Registry) Put(it Item) { r.items[it.ID()] = it }

func (r *Registry) Get(id ItemID) (Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

func (r *Registry) App(id ItemID) (*App, bool) {
	a, ok := r.items[id].(*App)
	return a, ok
}

func (r *Registry) Folder(id ItemID) (*Folder, bool) {
	f, ok := r.items[id].(*Folder)
	return f, ok
}

func (r *Registry) IsFolder(id ItemID) bool {
	_, ok := r.items[id].(*Folder)
	return ok
}

// Delete forgets id. Deleting a folder forgets its apps too.
func (r *Registry) Delete(id ItemID) {
	if f, ok := r.items[id].(*Folder); ok {
		for _, a := range f.Apps.Items() {
			delete(r.items, a)
		}
	}
	delete(r.items, id)
}

func (r *Registry) Len() int { return len(r.items) }

// Name returns the display name of id, or the raw ID when unknown.
func (r *Registry) Name(id ItemID) string {
	if it, ok := r.items[id]; ok {
		return it.DisplayName()
	}
	return string(id)
}

// Badge returns the badge of an app, or the sum of app badges for a folder.
// A folder whose apps carry no badges (or only zeros) has none.
func (r *Registry) Badge(id ItemID) (int, bool) {
	switch it := r.items[id].(type) {
	case *App:
		return it.Badge()
	case *Folder:
		sum := 0
		for _, aid := range it.Apps.Items() {
			if a, ok := r.App(aid); ok {
				if n, ok := a.Badge(); ok {
					sum += n
				}
			}
		}
		if sum == 0 {
			return 0, false
		}
		return sum, true
	}
	return 0, false
}
