/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package grid

import (
	"fmt"
	"time"

	"springboard/internal/domain"
	"springboard/internal/spatial"
)

// Dwell durations used when Settings leaves them zero.
const (
	DefaultPageDwell    = 700 * time.Millisecond
	DefaultFolderDwell  = 700 * time.Millisecond
	DefaultDragOutDwell = 500 * time.Millisecond
)

// Settings is the geometry and timing a Manager works with. Frames are in the
// root logical coordinate space pointer samples arrive in.
type Settings struct {
	CellSize         spatial.Size
	IconSize         spatial.Size
	IconTop          float32
	HorizontalMargin float32
	TopMargin        float32
	DockTopMargin    float32
	LineSpacing      float32

	AppsPerRow         int
	AppRows            int
	AppsPerRowOnFolder int
	AppRowsOnFolder    int

	MainFrame   spatial.Rect // one page of the main grid
	DockFrame   spatial.Rect
	FolderFrame spatial.Rect // one page of an open folder

	PageDwell    time.Duration
	FolderDwell  time.Duration
	DragOutDwell time.Duration
}

// DefaultSettings describes a 375x667 logical screen with a 4x6 grid.
func DefaultSettings() Settings {
	return Settings{
		CellSize:           spatial.Size{W: 79, H: 88},
		IconSize:           spatial.Size{W: 60, H: 60},
		IconTop:            2,
		HorizontalMargin:   18,
		TopMargin:          16,
		DockTopMargin:      4,
		AppsPerRow:         4,
		AppRows:            6,
		AppsPerRowOnFolder: 3,
		AppRowsOnFolder:    3,
		MainFrame:          spatial.R(0, 20, 375, 544),
		DockFrame:          spatial.R(0, 571, 375, 96),
		FolderFrame:        spatial.R(27, 173, 321, 300),
		PageDwell:          DefaultPageDwell,
		FolderDwell:        DefaultFolderDwell,
		DragOutDwell:       DefaultDragOutDwell,
	}
}

func (s Settings) AppsPerPage() int         { return s.AppsPerRow * s.AppRows }
func (s Settings) AppsPerPageOnFolder() int { return s.AppsPerRowOnFolder * s.AppRowsOnFolder }

// Capacities derives the collection sizes a Home needs.
func (s Settings) Capacities() domain.Capacities {
	return domain.Capacities{
		AppsPerPage:         s.AppsPerPage(),
		AppsPerRow:          s.AppsPerRow,
		AppsPerPageOnFolder: s.AppsPerPageOnFolder(),
	}
}

// Validate rejects settings a Manager cannot lay out.
func (s Settings) Validate() error {
	if s.AppsPerRow < 1 || s.AppRows < 1 || s.AppsPerRowOnFolder < 1 || s.AppRowsOnFolder < 1 {
		return fmt.Errorf("grid dimensions must be positive")
	}
	if s.AppsPerPageOnFolder() < domain.MinFolderCapacity {
		return fmt.Errorf("folder pages must hold at least %d apps, got %d", domain.MinFolderCapacity, s.AppsPerPageOnFolder())
	}
	if s.MainFrame.W <= 0 || s.CellSize.W <= 0 || s.CellSize.H <= 0 {
		return fmt.Errorf("frames and cell size must be positive")
	}
	if float32(s.AppsPerRow)*s.CellSize.W+2*s.HorizontalMargin > s.MainFrame.W {
		return fmt.Errorf("%d cells of width %.1f do not fit in %.1f", s.AppsPerRow, s.CellSize.W, s.MainFrame.W)
	}
	return nil
}

func (s Settings) withDefaults() Settings {
	if s.PageDwell <= 0 {
		s.PageDwell = DefaultPageDwell
	}
	if s.FolderDwell <= 0 {
		s.FolderDwell = DefaultFolderDwell
	}
	if s.DragOutDwell <= 0 {
		s.DragOutDwell = DefaultDragOutDwell
	}
	return s
}

// MainGeometry lays out one page of the home grid.
func (s Settings) MainGeometry() spatial.Geometry {
	return spatial.Geometry{
		Width:       s.MainFrame.W,
		Cell:        s.CellSize,
		Icon:        s.IconSize,
		IconTop:     s.IconTop,
		Insets:      spatial.Insets{Top: s.TopMargin, Left: s.HorizontalMargin, Right: s.HorizontalMargin},
		LineSpacing: s.LineSpacing,
		Columns:     s.AppsPerRow,
	}
}

// DockGeometry lays out the dock; fewer than AppsPerRow items are centered.
func (s Settings) DockGeometry() spatial.Geometry {
	return spatial.Geometry{
		Width:    s.DockFrame.W,
		Cell:     s.CellSize,
		Icon:     s.IconSize,
		IconTop:  s.IconTop,
		Insets:   spatial.Insets{Top: s.DockTopMargin, Left: s.HorizontalMargin, Right: s.HorizontalMargin},
		Columns:  s.AppsPerRow,
		Centered: true,
	}
}

// FolderGeometry lays out one page of an open folder.
func (s Settings) FolderGeometry() spatial.Geometry {
	return spatial.Geometry{
		Width:   s.FolderFrame.W,
		Cell:    s.CellSize,
		Icon:    s.IconSize,
		IconTop: s.IconTop,
		Insets:  spatial.Insets{Left: s.HorizontalMargin, Right: s.HorizontalMargin},
		Columns: s.AppsPerRowOnFolder,
	}
}
