/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"springboard/internal/config"
	"springboard/internal/crash"
	"springboard/internal/grid"
	applog "springboard/internal/log"
	"springboard/internal/storage"
	"springboard/internal/version"
)

// app carries what every command needs once the root command has run.
type app struct {
	cfg      config.AppConfig
	settings grid.Settings
	device   string
	// handle is shared with crash.Recover; commands fill it in once a layout
	// is open so a panic can still save it.
	handle *storage.Handle
	log    *slog.Logger
}

func main() {
	os.Exit(run(&storage.Handle{}))
}

func run(hd *storage.Handle) int {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	defer crash.Recover(hd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{handle: hd, log: applog.WithComponent("cli")}
	root := newRootCommand(a)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "springboard",
		Short:         "Home screen grid layouts: edit, simulate gestures, keep history",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetVersionTemplate(version.String() + "\n")
	root.PersistentFlags().StringVar(&a.device, "device", "", "device preset ("+strings.Join(config.Devices(), ", ")+")")

	root.AddCommand(
		newVersionCommand(),
		newDevicesCommand(a),
		newInitCommand(a),
		newShowCommand(a),
		newSearchCommand(a),
		newActionsCommand(a),
		newSimulateCommand(a),
		newHistoryCommand(a),
	)
	return root
}

// setup loads the configuration and re-initializes logging from it.
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.device != "" {
		cfg.Layout.Device = a.device
	}
	applog.Init(cfg.Logging.Options())
	a.log = applog.WithComponent("cli")
	s, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("layout settings: %w", err)
	}
	a.cfg, a.settings = cfg, s
	a.log.Debug("configured", slog.String("device", cfg.Layout.Device), slog.Int("apps_per_page", s.AppsPerPage()))
	return nil
}

// layoutDir resolves the directory argument, falling back to the configured
// data directory. A leading ~ is expanded.
func (a *app) layoutDir(args []string) (string, error) {
	dir := a.cfg.Storage.DataDir
	if len(args) > 0 {
		dir = args[0]
	}
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("%w: a layout directory is required (or set storage.data_dir)", errUsage)
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", dir, err)
	}
	return filepath.Abs(dir)
}

// open loads the layout at dir and publishes it to the crash handler.
func (a *app) open(dir string) (*storage.Handle, error) {
	h, err := storage.Open(dir, a.settings.Capacities())
	if err != nil {
		return nil, err
	}
	h.KeepBackups = a.cfg.Storage.Backups
	*a.handle = *h
	if h.Recovered != "" {
		a.log.Warn("grid.json unreadable, loaded backup", slog.String("backup", h.Recovered))
	}
	return a.handle, nil
}
