/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"

	"springboard/internal/config"
	"springboard/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv(config.EnvLogLevel, "error")
	a := &app{handle: &storage.Handle{}}
	root := newRootCommand(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInitDemoShowAndSearch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	out, err := execute(t, "init", dir, "--demo")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Created layout at") {
		t.Fatalf("unexpected init output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, storage.GridFileName)); err != nil {
		t.Fatalf("grid.json missing: %v", err)
	}

	out, err = execute(t, "show", dir)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Messages", "dock", "Utilities[Calculator Compass Voice Memos Contacts]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output lacks %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "search", dir, "comp")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "Compass") || !strings.Contains(out, "Utilities") {
		t.Fatalf("search output: %s", out)
	}
}

func TestActionsForAppAndFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	if _, err := execute(t, "init", dir, "--demo"); err != nil {
		t.Fatalf("init: %v", err)
	}
	out, err := execute(t, "actions", dir, "Mail")
	if err != nil || !strings.Contains(out, "Share Mail") {
		t.Fatalf("actions Mail: %v\n%s", err, out)
	}
	out, err = execute(t, "actions", dir, "Utilities")
	if err != nil || !strings.Contains(out, "rename") || strings.Contains(out, "share") {
		t.Fatalf("actions Utilities: %v\n%s", err, out)
	}
	if _, err := execute(t, "actions", dir, "Nope"); err == nil || !strings.Contains(err.Error(), "no item named") {
		t.Fatalf("expected unknown item error, got %v", err)
	}
}

func TestInitRejectsSeedWithDemo(t *testing.T) {
	_, err := execute(t, "init", t.TempDir(), "--demo", "--seed", "x.json")
	if err == nil || !strings.Contains(err.Error(), "exclusive") {
		t.Fatalf("expected exclusive flags error, got %v", err)
	}
}

func TestSimulateSaveAndHistory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	if _, err := execute(t, "init", dir, "--demo"); err != nil {
		t.Fatalf("init: %v", err)
	}
	script := filepath.Join(t.TempDir(), "reorder.yaml")
	body := "name: reorder\nsteps:\n  - {op: begin, item: Messages}\n  - {op: move, item: Photos, at: after}\n  - end\n  - done\n"
	if err := os.WriteFile(script, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "simulate", dir, script, "--save", "--events")
	if err != nil {
		t.Fatalf("simulate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "drag-ended") || !strings.Contains(out, "saved ") {
		t.Fatalf("simulate output: %s", out)
	}

	out, err = execute(t, "history", dir)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "init") || !strings.Contains(out, "simulate reorder") {
		t.Fatalf("history output: %s", out)
	}

	backups, err := storage.ListBackups(dir)
	if err != nil || len(backups) == 0 {
		t.Fatalf("expected a backup after saving, got %v (%v)", backups, err)
	}
}

func TestSimulateLiveFiresFolderDwell(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	if _, err := execute(t, "init", dir, "--demo"); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Setenv(config.EnvDwellFolderMs, "20")
	script := filepath.Join(t.TempDir(), "folder.yaml")
	body := "name: folder\nsteps:\n  - {op: begin, item: Messages}\n  - {op: move, item: Photos}\n  - {op: wait, for: 150ms}\n  - folder-opened\n  - end\n"
	if err := os.WriteFile(script, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "simulate", dir, script, "--live", "--events")
	if err != nil {
		t.Fatalf("simulate --live: %v\n%s", err, out)
	}
	for _, want := range []string{"folder-created", "drag-adopted", "real time"} {
		if !strings.Contains(out, want) {
			t.Fatalf("live output lacks %q:\n%s", want, out)
		}
	}
}

func TestLayoutDirRequired(t *testing.T) {
	_, err := execute(t, "show")
	if err == nil || !strings.Contains(err.Error(), "layout directory is required") {
		t.Fatalf("expected missing dir error, got %v", err)
	}
}

func TestLayoutDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	a := &app{}
	got, err := a.layoutDir([]string{"~/layouts/main"})
	if err != nil {
		t.Fatalf("layoutDir: %v", err)
	}
	if got != filepath.Join(home, "layouts", "main") {
		t.Fatalf("got %s", got)
	}
}
