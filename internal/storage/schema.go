/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed grid.schema.json
var gridSchemaJSON []byte

var (
	gridSchemaOnce sync.Once
	gridSchema     *gojsonschema.Schema
	gridSchemaErr  error
)

// GridSchema returns the JSON schema grid.json documents must satisfy.
func GridSchema() []byte { return gridSchemaJSON }

// ValidateGrid checks a grid.json document against the embedded schema.
func ValidateGrid(doc []byte) error {
	gridSchemaOnce.Do(func() {
		gridSchema, gridSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(gridSchemaJSON))
	})
	if gridSchemaErr != nil {
		return fmt.Errorf("load grid schema: %w", gridSchemaErr)
	}
	res, err := gridSchema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("layout does not match schema: %s", strings.Join(msgs, "; "))
}
