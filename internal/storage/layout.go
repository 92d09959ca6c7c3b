/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"springboard/internal/domain"
	applog "springboard/internal/log"
)

const (
	GridFileName   = "grid.json"
	BackupsDirName = "backups"

	backupStamp = "20060102-150405.000000"
)

// ErrNoBackups is returned when a fallback to a backup was needed but none
// could be read.
var ErrNoBackups = errors.New("no usable backups found")

// Handle is a layout loaded from (or about to be written to) a directory.
type Handle struct {
	Root     string
	GridPath string
	Home     *domain.Home
	// Recovered names the backup Open fell back to, if any.
	Recovered string
	// KeepBackups caps the grid.json backups kept by Save; 0 keeps all.
	KeepBackups int
}

// Init creates root (and its backups folder) and writes h as grid.json.
func Init(root string, h *domain.Home) (*Handle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if h == nil {
		return nil, errors.New("nil home")
	}
	if err := os.MkdirAll(filepath.Join(root, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create layout dirs: %w", err)
	}
	hd := &Handle{Root: root, GridPath: filepath.Join(root, GridFileName), Home: h}
	if err := Save(hd); err != nil {
		return nil, err
	}
	return hd, nil
}

// Open loads grid.json from root. A missing, unparsable or schema-invalid
// file falls back to the newest backup that loads cleanly.
func Open(root string, caps domain.Capacities) (*Handle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("root", root))
	gpath := filepath.Join(root, GridFileName)
	h, err := loadGrid(gpath, caps)
	if err == nil {
		return &Handle{Root: root, GridPath: gpath, Home: h}, nil
	}
	l.Warn("grid.json unusable, trying backups", slog.Any("err", err))
	h, from, berr := openFromLatestBackup(root, caps)
	if berr != nil {
		return nil, fmt.Errorf("open %s: %w; backup attempt: %w", GridFileName, err, berr)
	}
	l.Info("recovered layout from backup", slog.String("backup", from))
	return &Handle{Root: root, GridPath: gpath, Home: h, Recovered: from}, nil
}

func loadGrid(path string, caps domain.Capacities) (*domain.Home, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateGrid(b); err != nil {
		return nil, err
	}
	return domain.UnmarshalHome(b, caps)
}

// Save writes hd.Home to grid.json with transactional semantics, after
// copying the previous file to a timestamped backup.
func Save(hd *Handle) error {
	if hd == nil {
		return errors.New("nil Handle")
	}
	if hd.Root == "" || hd.GridPath == "" || hd.Home == nil {
		return errors.New("invalid Handle: missing paths or home")
	}
	data, err := domain.MarshalHome(hd.Home)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(hd.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(hd.GridPath); statErr == nil {
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", GridFileName, time.Now().Format(backupStamp)))
		if cerr := copyFile(hd.GridPath, bpath); cerr != nil {
			return fmt.Errorf("backup current layout: %w", cerr)
		}
	}

	temp := filepath.Join(filepath.Dir(hd.GridPath), fmt.Sprintf(".%s.tmp-%d-%d", GridFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp layout: %w", werr)
	}
	if rerr := os.Rename(temp, hd.GridPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace layout: %w", rerr)
	}
	if hd.KeepBackups > 0 {
		if _, err := PruneBackups(hd.Root, hd.KeepBackups); err != nil {
			applog.WithComponent("storage").Warn("prune backups failed", slog.Any("err", err))
		}
	}
	return nil
}

// SaveAs writes the layout under newRoot and points the handle there.
func SaveAs(hd *Handle, newRoot string) error {
	if hd == nil {
		return errors.New("nil Handle")
	}
	if strings.TrimSpace(newRoot) == "" {
		return errors.New("new root is empty")
	}
	if err := os.MkdirAll(filepath.Join(newRoot, BackupsDirName), 0o755); err != nil {
		return fmt.Errorf("create new root: %w", err)
	}
	hd.Root = newRoot
	hd.GridPath = filepath.Join(newRoot, GridFileName)
	hd.Recovered = ""
	return Save(hd)
}

// ListBackups returns the grid.json backups under root, oldest first.
func ListBackups(root string) ([]string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, GridFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // the timestamp in the name sorts chronologically
	return out, nil
}

// PruneBackups deletes all but the newest keep backups and reports how many
// were removed.
func PruneBackups(root string, keep int) (int, error) {
	all, err := ListBackups(root)
	if err != nil || keep <= 0 || len(all) <= keep {
		return 0, err
	}
	n := 0
	for _, p := range all[:len(all)-keep] {
		if err := os.Remove(p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// AutosaveCrashSnapshot writes the in-memory layout next to the backups
// without touching grid.json, so a crash mid-gesture never replaces the last
// good file.
func AutosaveCrashSnapshot(hd *Handle) (string, error) {
	if hd == nil || hd.Home == nil {
		return "", errors.New("nil Handle")
	}
	data, err := domain.MarshalHome(hd.Home)
	if err != nil {
		return "", fmt.Errorf("encode layout: %w", err)
	}
	dir := os.TempDir()
	if hd.Root != "" {
		dir = filepath.Join(hd.Root, BackupsDirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", GridFileName, time.Now().Format(backupStamp)))
	if err := writeFileSync(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func openFromLatestBackup(root string, caps domain.Capacities) (*domain.Home, string, error) {
	all, err := ListBackups(root)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoBackups, err)
	}
	for i := len(all) - 1; i >= 0; i-- {
		if h, err := loadGrid(all[i], caps); err == nil {
			return h, all[i], nil
		}
	}
	return nil, "", ErrNoBackups
}

// writeFileSync writes data to path and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = sf.Close() }()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
