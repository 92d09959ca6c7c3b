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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"springboard/internal/config"
	"springboard/internal/domain"
	"springboard/internal/dwell"
	applog "springboard/internal/log"
	"springboard/internal/sim"
	"springboard/internal/storage"
	"springboard/internal/undo"
	"springboard/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newDevicesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List device presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tbl := uitable.New()
			tbl.AddRow("DEVICE", "SCREEN", "GRID", "CELL", "")
			for _, name := range config.Devices() {
				d, _ := config.LookupDevice(name)
				mark := ""
				if name == a.cfg.Layout.Device {
					mark = color.GreenString("*")
				}
				tbl.AddRow(name,
					fmt.Sprintf("%.0fx%.0f", d.Width, d.Height),
					fmt.Sprintf("%dx%d", a.settings.AppsPerRow, d.AppRows),
					fmt.Sprintf("%.0fx%.0f", d.Cell.W, d.Cell.H),
					mark)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return err
		},
	}
}

func newInitCommand(a *app) *cobra.Command {
	var seed string
	var demo bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a layout directory",
		Example: `
springboard init ./home --demo
springboard init ./home --seed grid.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.layoutDir(args)
			if err != nil {
				return err
			}
			ctx := applog.WithLayout(cmd.Context(), dir)
			caps := a.settings.Capacities()
			var h *domain.Home
			switch {
			case seed != "" && demo:
				return fmt.Errorf("%w: --seed and --demo are exclusive", errUsage)
			case seed != "":
				if h, err = loadSeed(seed, caps); err != nil {
					return err
				}
			case demo:
				h = demoHome(caps)
			default:
				h = domain.NewHome(caps)
			}
			hd, err := storage.Init(dir, h)
			if err != nil {
				return err
			}
			*a.handle = *hd
			if err := a.record(ctx, dir, "init", h); err != nil {
				a.log.WarnContext(ctx, "history not updated", slog.Any("err", err))
			}
			a.log.InfoContext(ctx, "layout created", slog.Int("items", h.Pages.Total()+h.Dock.Total()))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created layout at %s (%d pages, %d in dock)\n", dir, h.Pages.PageCount(), h.Dock.Total())
			return err
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "grid.json to start from")
	cmd.Flags().BoolVar(&demo, "demo", false, "start from a sample layout")
	return cmd
}

func loadSeed(path string, caps domain.Capacities) (*domain.Home, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	if err := storage.ValidateGrid(data); err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	h, err := domain.UnmarshalHome(data, caps)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return h, nil
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [dir]",
		Short: "Print the pages and dock of a layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.layoutDir(args)
			if err != nil {
				return err
			}
			hd, err := a.open(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if hd.Recovered != "" {
				_, _ = fmt.Fprintln(out, color.YellowString("grid.json was unreadable; showing backup %s", hd.Recovered))
			}
			printHome(out, hd.Home)
			return nil
		},
	}
}

func printHome(w io.Writer, h *domain.Home) {
	tbl := uitable.New()
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	tbl.AddRow("WHERE", "SLOT", "NAME", "KIND", "BADGE")
	for p, page := range h.Pages.Pages() {
		for s, id := range page {
			addItemRow(tbl, h, fmt.Sprintf("page %d", p+1), s, id)
		}
	}
	for s, id := range h.Dock.Items() {
		addItemRow(tbl, h, "dock", s, id)
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func addItemRow(tbl *uitable.Table, h *domain.Home, where string, slot int, id domain.ItemID) {
	kind := "app"
	name := sim.Label(h, id)
	if f, ok := h.Registry.Folder(id); ok {
		kind = fmt.Sprintf("folder (%d)", f.Count())
		name = color.CyanString(name)
	}
	badge := ""
	if n, ok := h.Registry.Badge(id); ok {
		badge = color.RedString(strconv.Itoa(n))
	}
	tbl.AddRow(where, slot, name, kind, badge)
}

func newSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <dir> <query>",
		Short: "Find apps by name or word prefix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.layoutDir(args[:1])
			if err != nil {
				return err
			}
			hd, err := a.open(dir)
			if err != nil {
				return err
			}
			results := hd.Home.Search(args[1])
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				_, err := fmt.Fprintln(out, color.YellowString("no apps match %q", args[1]))
				return err
			}
			tbl := uitable.New()
			tbl.AddRow("NAME", "BUNDLE", "FOLDER", "AT")
			for _, r := range results {
				folder, at := "", ""
				top := r.App.ID()
				if r.Folder != nil {
					folder, top = r.Folder.Name, r.Folder.ID()
				}
				if loc, ok := hd.Home.Locate(top); ok {
					at = loc.String()
				}
				tbl.AddRow(color.GreenString(r.App.Name), r.App.BundleID, folder, at)
			}
			_, err = fmt.Fprintln(out, tbl)
			return err
		},
	}
}

func newActionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "actions <dir> <item>",
		Short:   "List the quick actions offered for an app or folder",
		Example: `springboard actions ./home Utilities`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.layoutDir(args[:1])
			if err != nil {
				return err
			}
			hd, err := a.open(dir)
			if err != nil {
				return err
			}
			id, ok := findItem(hd.Home, args[1])
			if !ok {
				return fmt.Errorf("%w: no item named %q", errUsage, args[1])
			}
			out := cmd.OutOrStdout()
			actions := hd.Home.Actions(id)
			if len(actions) == 0 {
				_, err := fmt.Fprintln(out, color.YellowString("%s offers no actions", args[1]))
				return err
			}
			tbl := uitable.New()
			tbl.AddRow("ACTION", "TITLE", "BADGE")
			for _, act := range actions {
				badge := ""
				if act.Kind == domain.ActionOpenApp {
					badge = color.RedString(strconv.Itoa(act.Badge))
				}
				tbl.AddRow(act.Kind.String(), act.Title, badge)
			}
			_, err = fmt.Fprintln(out, tbl)
			return err
		},
	}
}

// findItem resolves a display name: top-level items first, then apps inside
// folders.
func findItem(h *domain.Home, name string) (domain.ItemID, bool) {
	top := append(h.Dock.Items(), h.Pages.Items()...)
	for _, id := range top {
		if h.Registry.Name(id) == name {
			return id, true
		}
	}
	for _, id := range top {
		if f, ok := h.Registry.Folder(id); ok {
			for _, aid := range f.Apps.Items() {
				if h.Registry.Name(aid) == name {
					return aid, true
				}
			}
		}
	}
	return "", false
}

func newSimulateCommand(a *app) *cobra.Command {
	var save, events, live bool
	cmd := &cobra.Command{
		Use:   "simulate <dir> <script.yaml>",
		Short: "Replay a gesture script against a layout",
		Long: `Replay a YAML gesture script on a virtual clock, or in real time
with --live.

Steps: begin, move, end, cancel, wait, settle, folder-opened, edit, done,
delete, open-folder, close-folder, undo, redo, home, page.`,
		Example: `
springboard simulate ./home reorder.yaml --events
springboard simulate ./home make-folder.yaml --save
springboard simulate ./home page-flip.yaml --live --events`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.layoutDir(args[:1])
			if err != nil {
				return err
			}
			ctx := applog.WithLayout(cmd.Context(), dir)
			sc, err := sim.Load(args[1])
			if err != nil {
				return err
			}
			hd, err := a.open(dir)
			if err != nil {
				return err
			}
			opts := sim.Options{
				Settings: a.settings,
				Undo:     undo.NewManager(undo.Config{MaxPerScope: a.cfg.Storage.HistoryKeep}),
			}
			if live {
				opts.Live = dwell.NewLoop(0)
			}
			r, err := sim.NewRunner(hd.Home, opts)
			if err != nil {
				return err
			}
			var rep sim.Report
			var runErr error
			if live {
				rep, runErr = runLive(ctx, opts.Live, r, sc)
			} else {
				rep, runErr = r.Run(ctx, sc)
			}
			hd.Home = r.Home()

			out := cmd.OutOrStdout()
			if events {
				for _, rec := range rep.Events {
					_, _ = fmt.Fprintf(out, "%3d  %s\n", rec.Step, rec.Event)
				}
			}
			printHome(out, hd.Home)
			clock := "virtual"
			if live {
				clock = "real"
			}
			_, _ = fmt.Fprintf(out, "%d steps, %d events, %s %s time\n", rep.Steps, len(rep.Events), rep.Elapsed.Round(time.Millisecond), clock)
			if len(rep.Ignored) > 0 {
				_, _ = fmt.Fprintln(out, color.YellowString("declined steps: %v", rep.Ignored))
			}
			if runErr != nil {
				return runErr
			}
			if !save {
				return nil
			}
			if err := hd.Home.Validate(); err != nil {
				return fmt.Errorf("refusing to save: %w", err)
			}
			if err := storage.Save(hd); err != nil {
				return err
			}
			if err := a.record(ctx, dir, "simulate "+sc.Name, hd.Home); err != nil {
				a.log.WarnContext(ctx, "history not updated", slog.Any("err", err))
			}
			_, err = fmt.Fprintln(out, color.GreenString("saved %s", hd.GridPath))
			return err
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "write the resulting layout back to grid.json")
	cmd.Flags().BoolVar(&events, "events", false, "print every event")
	cmd.Flags().BoolVar(&live, "live", false, "replay in real time, waits sleep and dwell timers fire on their own")
	return cmd
}

// runLive drives loop for the duration of the run. The loop has stopped when
// it returns, so the layout can be read without it.
func runLive(ctx context.Context, loop *dwell.Loop, r *sim.Runner, sc sim.Script) (sim.Report, error) {
	lctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(lctx)
	}()
	rep, err := r.Run(ctx, sc)
	cancel()
	<-done
	return rep, err
}

func newHistoryCommand(a *app) *cobra.Command {
	var limit, prune int
	cmd := &cobra.Command{
		Use:   "history [dir]",
		Short: "List saved layouts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.layoutDir(args)
			if err != nil {
				return err
			}
			ctx := applog.WithLayout(cmd.Context(), dir)
			if rebuilt, err := storage.DetectAndRebuildHistory(ctx, dir); err != nil {
				return err
			} else if rebuilt {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("history database was corrupt and has been rebuilt"))
			}
			db, err := storage.OpenHistory(dir)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			if prune > 0 {
				n, err := storage.PruneLayouts(ctx, db, prune)
				if err != nil {
					return fmt.Errorf("prune history: %w", err)
				}
				a.log.InfoContext(ctx, "history pruned", slog.Int64("deleted", n))
			}
			recs, err := storage.ListLayouts(ctx, db, limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			tbl := uitable.New()
			tbl.AddRow("ID", "SAVED", "REASON", "ITEMS", "SIZE")
			for _, rec := range recs {
				tbl.AddRow(rec.ID, rec.TS.Local().Format(time.DateTime), rec.Reason, rec.Items, fmt.Sprintf("%dB", len(rec.Blob)))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to list")
	cmd.Flags().IntVar(&prune, "prune", 0, "keep only the newest N entries")
	return cmd
}

// record adds h to the layout history and trims it to the configured size.
func (a *app) record(ctx context.Context, dir, reason string, h *domain.Home) error {
	db, err := storage.OpenHistory(dir)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := storage.RecordHome(ctx, db, reason, h); err != nil {
		return err
	}
	if keep := a.cfg.Storage.HistoryKeep; keep > 0 {
		if _, err := storage.PruneLayouts(ctx, db, keep); err != nil {
			return err
		}
	}
	return nil
}
