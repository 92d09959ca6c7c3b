/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"springboard/internal/grid"
	applog "springboard/internal/log"
	"springboard/internal/spatial"
)

// AppConfig is the user-editable configuration persisted as YAML in the user
// config directory. Environment variables override it at runtime and are
// never written back.
//
// config_version: bump when the structure changes incompatibly.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Layout        LayoutConfig  `yaml:"layout"`
	Dwell         DwellConfig   `yaml:"dwell"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// LayoutConfig picks a device preset and optionally overrides its grid shape.
// Zero values keep the preset's numbers.
type LayoutConfig struct {
	Device        string `yaml:"device"`
	AppRows       int    `yaml:"app_rows"`
	AppsPerRow    int    `yaml:"apps_per_row"`
	FolderRows    int    `yaml:"folder_rows"`
	FolderColumns int    `yaml:"folder_columns"`
}

type DwellConfig struct {
	PageMs    int `yaml:"page_ms"`
	FolderMs  int `yaml:"folder_ms"`
	DragOutMs int `yaml:"drag_out_ms"`
}

type StorageConfig struct {
	DataDir     string `yaml:"data_dir"`
	Backups     int    `yaml:"backups"`      // grid.json backups kept per layout
	HistoryKeep int    `yaml:"history_keep"` // rows kept in the layout history
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
	Color  bool   `yaml:"color"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Layout:        LayoutConfig{Device: DefaultDevice},
		Dwell:         DwellConfig{PageMs: 700, FolderMs: 700, DragOutMs: 500},
		Storage:       StorageConfig{Backups: 10, HistoryKeep: 50},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath    = "SPB_CONFIG"
	EnvDevice        = "SPB_DEVICE"
	EnvLayoutRows    = "SPB_LAYOUT_ROWS"
	EnvLayoutColumns = "SPB_LAYOUT_COLUMNS"
	EnvDwellPageMs   = "SPB_DWELL_PAGE_MS"
	EnvDwellFolderMs = "SPB_DWELL_FOLDER_MS"
	EnvDwellDragOut  = "SPB_DWELL_DRAGOUT_MS"
	EnvDataDir       = "SPB_DATA_DIR"

	EnvLogLevel  = "SPB_LOG_LEVEL"
	EnvLogFormat = "SPB_LOG_FORMAT"
	EnvLogSource = "SPB_LOG_SOURCE"
	EnvLogFile   = "SPB_LOG_FILE"
	EnvLogColor  = "SPB_LOG_COLOR"
)

// Device is the screen a layout is computed for.
type Device struct {
	Width, Height    float32
	AppRows          int
	HorizontalMargin float32
	TopMargin        float32
	LineSpacing      float32
	Cell             spatial.Size
}

const DefaultDevice = "iphone"

const (
	statusBarHeight = 20
	dockHeight      = 96
	pageControlGap  = 7
)

var devices = map[string]Device{
	"iphone-x":    {Width: 375, Height: 812, AppRows: 6, HorizontalMargin: 17.3, TopMargin: 60, LineSpacing: 14.3, Cell: spatial.Size{W: 79, H: 89}},
	"iphone-plus": {Width: 414, Height: 736, AppRows: 6, HorizontalMargin: 26, TopMargin: 26, LineSpacing: 11, Cell: spatial.Size{W: 79, H: 89}},
	"iphone":      {Width: 375, Height: 667, AppRows: 6, HorizontalMargin: 18, TopMargin: 16, Cell: spatial.Size{W: 79, H: 88}},
	"iphone-se":   {Width: 320, Height: 568, AppRows: 5, HorizontalMargin: 9, TopMargin: 15, Cell: spatial.Size{W: 74, H: 88}},
	"legacy":      {Width: 320, Height: 480, AppRows: 4, HorizontalMargin: 9, TopMargin: 16, Cell: spatial.Size{W: 74, H: 88}},
}

// Devices lists the preset names, sorted.
func Devices() []string {
	out := make([]string, 0, len(devices))
	for name := range devices {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LookupDevice returns the preset called name.
func LookupDevice(name string) (Device, bool) {
	d, ok := devices[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Settings turns the layout and dwell sections into grid settings.
func (c AppConfig) Settings() (grid.Settings, error) {
	d, ok := LookupDevice(c.Layout.Device)
	if !ok {
		return grid.Settings{}, fmt.Errorf("unknown device %q (known: %s)", c.Layout.Device, strings.Join(Devices(), ", "))
	}
	s := grid.DefaultSettings()
	s.CellSize = d.Cell
	s.HorizontalMargin = d.HorizontalMargin
	s.TopMargin = d.TopMargin
	s.LineSpacing = d.LineSpacing
	s.AppRows = d.AppRows
	if c.Layout.AppRows > 0 {
		s.AppRows = c.Layout.AppRows
	}
	if c.Layout.AppsPerRow > 0 {
		s.AppsPerRow = c.Layout.AppsPerRow
	}
	if c.Layout.FolderRows > 0 {
		s.AppRowsOnFolder = c.Layout.FolderRows
	}
	if c.Layout.FolderColumns > 0 {
		s.AppsPerRowOnFolder = c.Layout.FolderColumns
	}

	s.MainFrame = spatial.R(0, statusBarHeight, d.Width, d.Height-statusBarHeight-dockHeight-pageControlGap)
	s.DockFrame = spatial.R(0, d.Height-dockHeight, d.Width, dockHeight)
	fh := float32(s.AppRowsOnFolder)*d.Cell.H + 36
	s.FolderFrame = spatial.R(27, (d.Height-fh)/2-10, d.Width-54, fh)

	s.PageDwell = millis(c.Dwell.PageMs)
	s.FolderDwell = millis(c.Dwell.FolderMs)
	s.DragOutDwell = millis(c.Dwell.DragOutMs)
	if err := s.Validate(); err != nil {
		return grid.Settings{}, err
	}
	return s, nil
}

func millis(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}

// Options converts the logging section for log.Init.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File, Color: l.Color}
}

// ConfigPath returns the per-user config file path; SPB_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "springboard", "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and merges
// environment overrides. A malformed file is reported in the log and ignored.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applog.WithComponent("config").Warn("ignoring malformed config", slog.String("path", path), slog.Any("err", err))
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg as YAML to ConfigPath.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.Layout.Device); v != "" {
		dst.Layout.Device = strings.ToLower(v)
	}
	mergeInt(&dst.Layout.AppRows, src.Layout.AppRows)
	mergeInt(&dst.Layout.AppsPerRow, src.Layout.AppsPerRow)
	mergeInt(&dst.Layout.FolderRows, src.Layout.FolderRows)
	mergeInt(&dst.Layout.FolderColumns, src.Layout.FolderColumns)
	mergeInt(&dst.Dwell.PageMs, src.Dwell.PageMs)
	mergeInt(&dst.Dwell.FolderMs, src.Dwell.FolderMs)
	mergeInt(&dst.Dwell.DragOutMs, src.Dwell.DragOutMs)
	if v := strings.TrimSpace(src.Storage.DataDir); v != "" {
		dst.Storage.DataDir = v
	}
	mergeInt(&dst.Storage.Backups, src.Storage.Backups)
	mergeInt(&dst.Storage.HistoryKeep, src.Storage.HistoryKeep)
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	// booleans come straight from the file so user preferences persist
	dst.Logging.Source = src.Logging.Source
	dst.Logging.Color = src.Logging.Color
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func envBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func envInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDevice)); v != "" {
		cfg.Layout.Device = strings.ToLower(v)
	}
	envInt(EnvLayoutRows, &cfg.Layout.AppRows)
	envInt(EnvLayoutColumns, &cfg.Layout.AppsPerRow)
	envInt(EnvDwellPageMs, &cfg.Dwell.PageMs)
	envInt(EnvDwellFolderMs, &cfg.Dwell.FolderMs)
	envInt(EnvDwellDragOut, &cfg.Dwell.DragOutMs)
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogColor)); v != "" {
		cfg.Logging.Color = envBool(v)
	}
}

var envKeys = map[string]string{
	"layout.device":       EnvDevice,
	"layout.app_rows":     EnvLayoutRows,
	"layout.apps_per_row": EnvLayoutColumns,
	"dwell.page_ms":       EnvDwellPageMs,
	"dwell.folder_ms":     EnvDwellFolderMs,
	"dwell.drag_out_ms":   EnvDwellDragOut,
	"storage.data_dir":    EnvDataDir,
	"logging.level":       EnvLogLevel,
	"logging.format":      EnvLogFormat,
	"logging.source":      EnvLogSource,
	"logging.file":        EnvLogFile,
	"logging.color":       EnvLogColor,
}

// EnvOverrideFor returns the env var name if the field is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
