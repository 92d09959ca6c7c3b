/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"strings"
	"testing"

	"springboard/internal/domain"
)

func TestSavedLayoutConformsToSchema(t *testing.T) {
	hd, err := Init(t.TempDir(), sampleHome(t))
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	data, err := os.ReadFile(hd.GridPath)
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if err := ValidateGrid(data); err != nil {
		t.Fatalf("saved layout does not conform: %v", err)
	}
}

func TestEmptyHomeConformsToSchema(t *testing.T) {
	data, err := domain.MarshalHome(domain.NewHome(domain.DefaultCapacities()))
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateGrid(data); err != nil {
		t.Fatalf("empty layout does not conform: %v", err)
	}
}

func TestValidateGridRejects(t *testing.T) {
	cases := map[string]string{
		"missing dock":    `{"pages": []}`,
		"folder in dock":  `{"pages": [], "dock": [{"type": 1, "name": "F"}]}`,
		"negative badge":  `{"pages": [[{"type": 0, "name": "A", "badge": -1}]], "dock": []}`,
		"unknown type":    `{"pages": [[{"type": 7, "name": "A"}]], "dock": []}`,
		"bad id":          `{"pages": [[{"id": "42", "type": 0, "name": "A"}]], "dock": []}`,
		"nested folder":   `{"pages": [[{"type": 1, "name": "F", "apps": [[{"type": 1, "name": "G"}]]}]], "dock": []}`,
		"not json at all": `pages: []`,
	}
	for name, doc := range cases {
		if err := ValidateGrid([]byte(doc)); err == nil {
			t.Errorf("%s: expected a validation error", name)
		}
	}
}

func TestValidateGridAcceptsFlatFolderApps(t *testing.T) {
	doc := `{"pages": [[{"type": 1, "name": "F", "apps": [{"type": 0, "name": "A"}, {"type": 0, "name": "B"}]}]], "dock": []}`
	if err := ValidateGrid([]byte(doc)); err != nil {
		t.Fatalf("flat folder apps should validate: %v", err)
	}
	if !strings.Contains(string(GridSchema()), "draft-07") {
		t.Fatalf("embedded schema missing")
	}
}
