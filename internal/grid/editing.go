/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package grid

import "log/slog"

// EnterEditing switches to editing mode and guarantees an empty trailing page
// to drop items on.
func (m *Manager) EnterEditing() {
	if m.editing {
		return
	}
	m.editing = true
	m.log.Debug("editing entered")
	m.emit(Event{Kind: EditingEntered, Surface: m.surface})
	m.ensureTrailingPage()
}

// LeaveEditing ends editing mode. The trailing empty page is removed once
// animations finish, unless editing was re-entered by then.
func (m *Manager) LeaveEditing() {
	if !m.editing {
		return
	}
	m.editing = false
	m.log.Debug("editing left")
	m.emit(Event{Kind: EditingLeft, Surface: m.surface})
	m.runAfterAnimations(func() {
		if m.editing {
			return
		}
		if m.main.CompactTrailingEmptyPage() {
			m.log.Debug("trailing page removed", slog.Int("pages", m.main.PageCount()))
		}
		if m.page >= m.main.PageCount() {
			m.page = m.main.PageCount() - 1
			m.emit(Event{Kind: PageChanged, Surface: m.surface, Page: m.page})
		}
	})
}

func (m *Manager) runAfterAnimations(fn func()) {
	if m.afterAnimations == nil {
		fn()
		return
	}
	m.afterAnimations(fn)
}

// ensureTrailingPage keeps an empty last page while editing.
func (m *Manager) ensureTrailingPage() {
	if !m.editing {
		return
	}
	n := m.main.PageCount()
	if n == 0 || m.main.Len(n-1) > 0 {
		m.main.AppendPage()
	}
}
