/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points the config path at a temp file so tests never read the
// developer's real config.
func isolate(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	return p
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Layout.Device != DefaultDevice || cfg.Dwell.PageMs != 700 || cfg.Storage.Backups != 10 {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Layout.Device = "iphone-se"
	cfg.Layout.FolderRows = 4
	cfg.Dwell.FolderMs = 900
	cfg.Logging.Color = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Layout.Device != "iphone-se" || got.Layout.FolderRows != 4 || got.Dwell.FolderMs != 900 || !got.Logging.Color {
		t.Fatalf("round trip lost fields: %#v", got)
	}
}

func TestMalformedFileIsIgnored(t *testing.T) {
	p := isolate(t)
	if err := os.WriteFile(p, []byte("layout: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Layout.Device != DefaultDevice {
		t.Fatalf("expected defaults, got %#v", cfg.Layout)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Logging: LoggingConfig{Level: " DEBUG", Format: "json", Source: true, File: "/tmp/spb.log"}}
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/spb.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
	if dst.Dwell.PageMs != 700 {
		t.Fatalf("zero values in the file must keep defaults: %#v", dst.Dwell)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDevice, "IPHONE-PLUS")
	t.Setenv(EnvLayoutRows, "5")
	t.Setenv(EnvDwellPageMs, "250")
	t.Setenv(EnvDwellDragOut, "not-a-number")
	t.Setenv(EnvLogSource, "yes")
	t.Setenv(EnvDataDir, "/var/lib/springboard")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Layout.Device != "iphone-plus" || cfg.Layout.AppRows != 5 || cfg.Dwell.PageMs != 250 {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if cfg.Dwell.DragOutMs != 500 {
		t.Fatalf("unparsable override must be ignored, got %d", cfg.Dwell.DragOutMs)
	}
	if !cfg.Logging.Source || cfg.Storage.DataDir != "/var/lib/springboard" {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if env, ok := EnvOverrideFor("layout.app_rows"); !ok || env != EnvLayoutRows {
		t.Fatalf("EnvOverrideFor = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("logging.file"); ok {
		t.Fatalf("logging.file is not overridden")
	}
}

func TestSettingsForDefaultDevice(t *testing.T) {
	s, err := Defaults().Settings()
	if err != nil {
		t.Fatalf("Settings() error: %v", err)
	}
	if s.AppsPerPage() != 24 || s.AppsPerPageOnFolder() != 9 {
		t.Fatalf("capacities = %d/%d", s.AppsPerPage(), s.AppsPerPageOnFolder())
	}
	if s.MainFrame.Y != 20 || s.MainFrame.H != 544 || s.DockFrame.Y != 571 {
		t.Fatalf("frames: main=%+v dock=%+v", s.MainFrame, s.DockFrame)
	}
	if s.PageDwell != 700*time.Millisecond || s.DragOutDwell != 500*time.Millisecond {
		t.Fatalf("dwell: %v %v", s.PageDwell, s.DragOutDwell)
	}
}

func TestSettingsPresetsAndOverrides(t *testing.T) {
	for _, name := range Devices() {
		cfg := Defaults()
		cfg.Layout.Device = name
		if _, err := cfg.Settings(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}

	cfg := Defaults()
	cfg.Layout.Device = "iphone-se"
	cfg.Layout.FolderColumns = 2
	s, err := cfg.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if s.AppRows != 5 || s.CellSize.W != 74 || s.AppsPerRowOnFolder != 2 {
		t.Fatalf("iphone-se settings: %+v", s)
	}

	cfg.Layout.Device = "pager"
	if _, err := cfg.Settings(); err == nil {
		t.Fatalf("unknown device should fail")
	}
	cfg.Layout.Device = DefaultDevice
	cfg.Layout.AppsPerRow = 9
	if _, err := cfg.Settings(); err == nil {
		t.Fatalf("9 columns cannot fit a 375pt page")
	}

	cfg = Defaults()
	cfg.Layout.FolderColumns = 1
	cfg.Layout.FolderRows = 1
	if _, err := cfg.Settings(); err == nil {
		t.Fatalf("a 1x1 folder page cannot hold a new folder")
	}
}

func TestLoggingOptions(t *testing.T) {
	o := LoggingConfig{Level: "warn", Format: "json", Source: true, File: "x.log", Color: true}.Options()
	if o.Level != "warn" || o.Format != "json" || !o.AddSource || o.File != "x.log" || !o.Color {
		t.Fatalf("Options() = %+v", o)
	}
}
