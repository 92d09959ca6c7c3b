/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists home layouts. The canonical document is
// <root>/grid.json, written transactionally with timestamped backups and
// validated against an embedded JSON schema on open. A per-layout SQLite
// database at <root>/.spb/history.sqlite records every saved layout so older
// arrangements can be listed and restored; it is disposable and rebuilt when
// corrupt.
package storage
