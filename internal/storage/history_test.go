/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"springboard/internal/domain"
)

func TestHistoryRecordListPrune(t *testing.T) {
	root := t.TempDir()
	db, err := OpenHistory(root)
	if err != nil {
		t.Fatalf("OpenHistory error: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, ok, err := LatestLayout(ctx, db); err != nil || ok {
		t.Fatalf("empty history: ok=%v err=%v", ok, err)
	}
	t0 := time.Now()
	for i := 0; i < 5; i++ {
		blob := []byte(fmt.Sprintf(`{"n":%d}`, i))
		if err := RecordLayout(ctx, db, fmt.Sprintf("save-%d", i), blob, i, t0.Add(time.Duration(i)*time.Millisecond)); err != nil {
			t.Fatalf("RecordLayout %d: %v", i, err)
		}
	}
	latest, ok, err := LatestLayout(ctx, db)
	if err != nil || !ok || latest.Reason != "save-4" || latest.Items != 4 || string(latest.Blob) != `{"n":4}` {
		t.Fatalf("LatestLayout = %+v ok=%v err=%v", latest, ok, err)
	}
	list, err := ListLayouts(ctx, db, 3)
	if err != nil || len(list) != 3 || list[0].Reason != "save-4" || list[2].Reason != "save-2" {
		t.Fatalf("ListLayouts got %+v err %v", list, err)
	}
	n, err := PruneLayouts(ctx, db, 2)
	if err != nil || n != 3 {
		t.Fatalf("PruneLayouts deleted %d err %v", n, err)
	}
	list, err = ListLayouts(ctx, db, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListLayouts after prune got %d err %v", len(list), err)
	}
}

func TestRecordHomeStoresDecodableLayout(t *testing.T) {
	root := t.TempDir()
	db, err := OpenHistory(root)
	if err != nil {
		t.Fatalf("OpenHistory error: %v", err)
	}
	defer db.Close()
	h := sampleHome(t)
	if err := RecordHome(context.Background(), db, "init", h); err != nil {
		t.Fatalf("RecordHome: %v", err)
	}
	rec, ok, err := LatestLayout(context.Background(), db)
	if err != nil || !ok {
		t.Fatalf("LatestLayout ok=%v err=%v", ok, err)
	}
	if rec.Items != h.Pages.Total()+h.Dock.Total() {
		t.Fatalf("items = %d", rec.Items)
	}
	if _, err := domain.UnmarshalHome(rec.Blob, domain.DefaultCapacities()); err != nil {
		t.Fatalf("stored blob does not decode: %v", err)
	}
}

// TestMigrationsUpgradeV1ToV2 seeds a schema 1 database and checks the items
// column and ts index appear.
func TestMigrationsUpgradeV1ToV2(t *testing.T) {
	root := t.TempDir()
	path := HistoryPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mk %s: %v", HistoryDirName, err)
	}
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z');`,
		`CREATE TABLE layouts (id INTEGER PRIMARY KEY AUTOINCREMENT, ts TEXT NOT NULL, reason TEXT NOT NULL, blob BLOB NOT NULL);`,
		`INSERT INTO layouts(ts, reason, blob) VALUES('2024-01-01T00:00:00Z', 'old', x'7b7d');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	mdb, err := OpenHistory(root)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer mdb.Close()
	var schema int
	if err := mdb.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("expected schema %d after migration, got %d", schemaVersion, schema)
	}
	var cnt int
	if err := mdb.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_layouts_ts'`).Scan(&cnt); err != nil || cnt != 1 {
		t.Fatalf("expected idx_layouts_ts after migration, got %d err %v", cnt, err)
	}
	rec, ok, err := LatestLayout(ctx, mdb)
	if err != nil || !ok || rec.Reason != "old" || rec.Items != 0 {
		t.Fatalf("old row after migration: %+v ok=%v err=%v", rec, ok, err)
	}
}

func TestDetectAndRebuildHistoryOnCorruption(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	if rebuilt, err := DetectAndRebuildHistory(ctx, root); err != nil || rebuilt {
		t.Fatalf("missing history: rebuilt=%v err=%v", rebuilt, err)
	}
	db, err := OpenHistory(root)
	if err != nil {
		t.Fatal(err)
	}
	_ = db.Close()
	if rebuilt, err := DetectAndRebuildHistory(ctx, root); err != nil || rebuilt {
		t.Fatalf("healthy history: rebuilt=%v err=%v", rebuilt, err)
	}

	if err := os.WriteFile(HistoryPath(root), bytes.Repeat([]byte("THIS IS NOT SQLITE "), 256), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	rebuilt, err := DetectAndRebuildHistory(ctx, root)
	if err != nil || !rebuilt {
		t.Fatalf("corrupt history: rebuilt=%v err=%v", rebuilt, err)
	}
	entries, _ := os.ReadDir(filepath.Join(root, HistoryDirName, BackupsDirName))
	if len(entries) == 0 {
		t.Fatalf("expected the corrupt file to be kept aside")
	}
	db, err = OpenHistory(root)
	if err != nil {
		t.Fatalf("OpenHistory after rebuild: %v", err)
	}
	defer db.Close()
	if _, ok, err := LatestLayout(ctx, db); err != nil || ok {
		t.Fatalf("rebuilt history should be empty: ok=%v err=%v", ok, err)
	}
}
