/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package sim replays scripted pointer gestures against a home grid on a
// virtual clock. It plays the renderer's part: it opens folder managers when
// asked to, hands drags between them and reports scroll and animation
// completion when the script says so.
package sim

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpBegin       = "begin"
	OpMove        = "move"
	OpEnd         = "end"
	OpCancel      = "cancel"
	OpWait        = "wait"
	OpSettle      = "settle"
	OpFolderOpen  = "folder-opened"
	OpEdit        = "edit"
	OpDone        = "done"
	OpDelete      = "delete"
	OpOpenFolder  = "open-folder"
	OpCloseFolder = "close-folder"
	OpUndo        = "undo"
	OpRedo        = "redo"
	OpHome        = "home"
	OpPage        = "page"
)

var knownOps = map[string]bool{
	OpBegin: true, OpMove: true, OpEnd: true, OpCancel: true, OpWait: true, OpSettle: true,
	OpFolderOpen: true, OpEdit: true, OpDone: true, OpDelete: true, OpOpenFolder: true,
	OpCloseFolder: true, OpUndo: true, OpRedo: true, OpHome: true, OpPage: true,
}

// ErrUnknownStep is returned for a step whose op is not one of the Op constants.
var ErrUnknownStep = errors.New("unknown step")

// Script is a named list of steps.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one scripted action. Pointer steps (begin, move) aim at an item's
// icon (optionally just before or after it), at a screen edge, or at x/y in
// root coordinates. A step may also be written as a bare op, e.g. "- end".
type Step struct {
	Op   string        `yaml:"op"`
	Item string        `yaml:"item,omitempty"`
	At   string        `yaml:"at,omitempty"`   // "", "before" or "after"
	Edge string        `yaml:"edge,omitempty"` // "left", "right", "above" or "below"
	X    *float32      `yaml:"x,omitempty"`
	Y    *float32      `yaml:"y,omitempty"`
	For  time.Duration `yaml:"for,omitempty"`
	Page int           `yaml:"page,omitempty"`
}

func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*s = Step{Op: value.Value}
		return nil
	}
	type plain Step
	return value.Decode((*plain)(s))
}

func (s Step) String() string {
	switch {
	case s.Item != "" && s.At != "":
		return fmt.Sprintf("%s %s %q", s.Op, s.At, s.Item)
	case s.Item != "":
		return fmt.Sprintf("%s %q", s.Op, s.Item)
	case s.Edge != "":
		return fmt.Sprintf("%s %s edge", s.Op, s.Edge)
	case s.X != nil && s.Y != nil:
		return fmt.Sprintf("%s (%.0f,%.0f)", s.Op, *s.X, *s.Y)
	case s.For > 0:
		return fmt.Sprintf("%s %s", s.Op, s.For)
	case s.Op == OpPage:
		return fmt.Sprintf("%s %d", s.Op, s.Page)
	}
	return s.Op
}

// Parse decodes a YAML script and checks every op.
func Parse(data []byte) (Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	for i, st := range sc.Steps {
		if !knownOps[st.Op] {
			return Script{}, fmt.Errorf("step %d: %w %q", i+1, ErrUnknownStep, st.Op)
		}
	}
	return sc, nil
}

// Load reads and parses the script at path.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}
