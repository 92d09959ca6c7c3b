/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sim

import (
	"fmt"
	"strings"
	"time"

	"springboard/internal/domain"
)

// Report summarizes a run.
type Report struct {
	Steps    int
	Elapsed  time.Duration
	Events   []Record
	Ignored  []int
	Pages    [][]string
	Dock     []string
	Editing  bool
	Page     int
	Undoable bool
	Redoable bool
}

// Report describes the runner's current state.
func (r *Runner) Report() Report {
	rep := Report{
		Steps:    r.step,
		Elapsed:  r.Elapsed(),
		Events:   append([]Record(nil), r.records...),
		Ignored:  append([]int(nil), r.ignored...),
		Editing:  r.grid.Editing(),
		Page:     r.grid.Page(),
		Undoable: r.undo.CanUndo(UndoScope),
		Redoable: r.undo.CanRedo(UndoScope),
	}
	rep.Pages, rep.Dock = Names(r.home)
	return rep
}

// Count returns how many events of the given kind name were recorded.
func (rep Report) Count(kind string) int {
	n := 0
	for _, rec := range rep.Events {
		if rec.Event.Kind.String() == kind {
			n++
		}
	}
	return n
}

// Names lists the display names of every page and the dock. Folders show
// their apps in brackets.
func Names(h *domain.Home) (pages [][]string, dock []string) {
	for _, pg := range h.Pages.Pages() {
		names := make([]string, 0, len(pg))
		for _, id := range pg {
			names = append(names, Label(h, id))
		}
		pages = append(pages, names)
	}
	for _, id := range h.Dock.Items() {
		dock = append(dock, Label(h, id))
	}
	return pages, dock
}

// Label is the display name of id, with a folder's apps appended.
func Label(h *domain.Home, id domain.ItemID) string {
	f, ok := h.Registry.Folder(id)
	if !ok {
		return h.Registry.Name(id)
	}
	apps := make([]string, 0, f.Count())
	for _, aid := range f.Apps.Items() {
		apps = append(apps, h.Registry.Name(aid))
	}
	return fmt.Sprintf("%s[%s]", f.Name, strings.Join(apps, " "))
}
