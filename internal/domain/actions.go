/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "fmt"

// ActionKind is an entry of the quick-action menu shown for a pressed icon.
type ActionKind int

const (
	ActionShare   ActionKind = iota // share the app
	ActionOpenApp                   // open a badged app inside a folder
	ActionRename                    // rename the folder
)

func (k ActionKind) String() string {
	switch k {
	case ActionShare:
		return "share"
	case ActionOpenApp:
		return "open"
	case ActionRename:
		return "rename"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is one quick-action entry. App is set for ActionOpenApp, as is
// Badge.
type Action struct {
	Kind  ActionKind
	Title string
	App   ItemID
	Badge int
}

// Actions returns the quick actions of id. Items that are not shareable have
// none. An app offers to be shared; a folder lists its badged apps in page
// order followed by rename.
func (h *Home) Actions(id ItemID) []Action {
	switch it := h.itemOf(id).(type) {
	case *App:
		if !it.Shareable {
			return nil
		}
		return []Action{{Kind: ActionShare, Title: "Share " + it.Name}}
	case *Folder:
		if !it.Shareable {
			return nil
		}
		var out []Action
		for _, aid := range it.Apps.Items() {
			a, ok := h.Registry.App(aid)
			if !ok {
				continue
			}
			if n, ok := a.Badge(); ok {
				out = append(out, Action{Kind: ActionOpenApp, Title: a.Name, App: aid, Badge: n})
			}
		}
		return append(out, Action{Kind: ActionRename, Title: "Rename"})
	}
	return nil
}
