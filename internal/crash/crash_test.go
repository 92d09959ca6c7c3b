/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"springboard/internal/domain"
	"springboard/internal/storage"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	defer os.Remove(path)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Springboard Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportCreatesFileInLayoutBackups(t *testing.T) {
	root := t.TempDir()
	hd := &storage.Handle{Root: root, GridPath: filepath.Join(root, storage.GridFileName)}

	path, err := writeReport(hd, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if !strings.HasPrefix(path, filepath.Join(root, storage.BackupsDirName)) {
		t.Fatalf("expected crash report under backups dir, got %s", path)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "Grid: "+hd.GridPath) {
		t.Fatalf("grid path missing: %s", b)
	}
}

// TestRecoverWritesReportAndSnapshot panics under Recover with exitFn
// replaced so the test process survives.
func TestRecoverWritesReportAndSnapshot(t *testing.T) {
	var errOut bytes.Buffer
	oldStderr, oldExit := stderr, exitFn
	stderr = &errOut
	called := 0
	exitFn = func(code int) { called = code }
	defer func() { stderr, exitFn = oldStderr, oldExit }()

	root := t.TempDir()
	h := domain.NewHome(domain.DefaultCapacities())
	h.AddApp(domain.NewApp("Maps", "com.example.maps"))
	hd, err := storage.Init(root, h)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	func() {
		defer Recover(hd)
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	if !strings.Contains(errOut.String(), "crash report was saved") {
		t.Fatalf("stderr message missing: %q", errOut.String())
	}
	bdir := filepath.Join(root, storage.BackupsDirName)
	files, _ := os.ReadDir(bdir)
	var report, snapshot bool
	for _, f := range files {
		name := f.Name()
		switch {
		case strings.HasPrefix(name, "crash-") && strings.HasSuffix(name, ".log"):
			b, err := os.ReadFile(filepath.Join(bdir, name))
			if err != nil || !bytes.Contains(b, []byte("Panic: boom")) {
				t.Fatalf("report does not contain panic: %s", b)
			}
			report = true
		case strings.HasPrefix(name, storage.GridFileName+".crash-"):
			snapshot = true
		}
	}
	if !report || !snapshot {
		t.Fatalf("report=%v snapshot=%v in %v", report, snapshot, files)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	oldExit := exitFn
	called := false
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit called without panic")
	}
}
