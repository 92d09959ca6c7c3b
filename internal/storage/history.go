/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"springboard/internal/domain"
	applog "springboard/internal/log"
	"springboard/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	HistoryDirName  = ".spb"
	HistoryFileName = "history.sqlite"

	// schemaVersion tracks the history database layout; bump it and add a
	// migration step for every change.
	schemaVersion = 2
)

// LayoutRecord is one saved layout in the history.
type LayoutRecord struct {
	ID     int64
	TS     time.Time
	Reason string
	Items  int
	Blob   []byte
}

// HistoryPath returns the history database file of the layout at root.
func HistoryPath(root string) string {
	return filepath.Join(root, HistoryDirName, HistoryFileName)
}

// OpenHistory opens (creating if needed) the history database under root,
// enables WAL and brings the schema up to date. Callers close the returned DB.
func OpenHistory(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_open").With(slog.String("root", root))
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("layout root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, HistoryDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create %s dir: %w", HistoryDirName, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(HistoryPath(root)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("history ready")
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// a fresh database gets the current layout from ensureHistorySchema
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureHistorySchema creates the version 1 tables; later columns are added
// by migrations, or created directly on a fresh database.
func ensureHistorySchema(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	q := `CREATE TABLE IF NOT EXISTS layouts (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		ts      TEXT NOT NULL,
		reason  TEXT NOT NULL,
		blob    BLOB NOT NULL
	);`
	if cur >= 2 {
		q = `CREATE TABLE IF NOT EXISTS layouts (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			ts      TEXT NOT NULL,
			reason  TEXT NOT NULL,
			blob    BLOB NOT NULL,
			items   INTEGER NOT NULL DEFAULT 0
		);`
	}
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create layouts: %w", err)
	}
	if cur >= 2 {
		if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_layouts_ts ON layouts(ts);`); err != nil {
			return fmt.Errorf("create layouts index: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for ; cur < schemaVersion; cur++ {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`ALTER TABLE layouts ADD COLUMN items INTEGER NOT NULL DEFAULT 0;`,
				`CREATE INDEX IF NOT EXISTS idx_layouts_ts ON layouts(ts);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
	}
	return nil
}

// language=SQL
const insertLayoutSQL = `INSERT INTO layouts(ts, reason, blob, items) VALUES (?, ?, ?, ?)`

// language=SQL
const selectLatestLayoutSQL = `SELECT id, ts, reason, items, blob FROM layouts ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
const listLayoutsSQL = `SELECT id, ts, reason, items, blob FROM layouts ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
const pruneLayoutsSQL = `DELETE FROM layouts WHERE id NOT IN (
	SELECT id FROM layouts ORDER BY ts DESC, id DESC LIMIT ?
)`

// RecordLayout stores an encoded layout.
func RecordLayout(ctx context.Context, db *sql.DB, reason string, blob []byte, items int, ts time.Time) error {
	if db == nil {
		return errors.New("nil history db")
	}
	_, err := db.ExecContext(ctx, insertLayoutSQL, ts.UTC().Format(time.RFC3339Nano), reason, blob, items)
	return err
}

// RecordHome encodes h and stores it.
func RecordHome(ctx context.Context, db *sql.DB, reason string, h *domain.Home) error {
	blob, err := domain.MarshalHome(h)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	items := h.Pages.Total() + h.Dock.Total()
	return RecordLayout(ctx, db, reason, blob, items, time.Now())
}

// LatestLayout returns the newest record; ok is false when the history is empty.
func LatestLayout(ctx context.Context, db *sql.DB) (rec LayoutRecord, ok bool, err error) {
	if db == nil {
		return LayoutRecord{}, false, errors.New("nil history db")
	}
	rec, err = scanLayout(db.QueryRowContext(ctx, selectLatestLayoutSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return LayoutRecord{}, false, nil
	}
	if err != nil {
		return LayoutRecord{}, false, err
	}
	return rec, true, nil
}

// ListLayouts returns up to limit records, newest first.
func ListLayouts(ctx context.Context, db *sql.DB, limit int) ([]LayoutRecord, error) {
	if db == nil {
		return nil, errors.New("nil history db")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, listLayoutsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []LayoutRecord
	for rows.Next() {
		rec, err := scanLayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneLayouts keeps the newest keep records and reports how many were deleted.
func PruneLayouts(ctx context.Context, db *sql.DB, keep int) (int64, error) {
	if db == nil {
		return 0, errors.New("nil history db")
	}
	if keep <= 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, pruneLayoutsSQL, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLayout(r rowScanner) (LayoutRecord, error) {
	var rec LayoutRecord
	var ts string
	if err := r.Scan(&rec.ID, &ts, &rec.Reason, &rec.Items, &rec.Blob); err != nil {
		return LayoutRecord{}, err
	}
	rec.TS, _ = time.Parse(time.RFC3339Nano, ts)
	return rec, nil
}

// DetectAndRebuildHistory checks the history database and, if it cannot be
// opened or fails an integrity check, moves it aside and starts a fresh one.
// It reports whether a rebuild happened. The history only mirrors saved
// layouts, so losing it costs nothing but the list of older arrangements.
func DetectAndRebuildHistory(ctx context.Context, root string) (bool, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_check").With(slog.String("root", root))
	path := HistoryPath(root)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if healthy(ctx, root) {
		return false, nil
	}
	bdir := filepath.Join(root, HistoryDirName, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return false, fmt.Errorf("create history backups dir: %w", err)
	}
	moved := filepath.Join(bdir, fmt.Sprintf("%s.%s.corrupt", HistoryFileName, time.Now().Format(backupStamp)))
	if err := os.Rename(path, moved); err != nil {
		return false, fmt.Errorf("move corrupt history: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	l.Warn("history database was corrupt, rebuilt", slog.String("moved_to", moved))
	db, err := OpenHistory(root)
	if err != nil {
		return true, err
	}
	return true, db.Close()
}

func healthy(ctx context.Context, root string) bool {
	db, err := OpenHistory(root)
	if err != nil {
		return false
	}
	defer func() { _ = db.Close() }()
	var res string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check;`).Scan(&res); err != nil {
		return false
	}
	return res == "ok"
}
