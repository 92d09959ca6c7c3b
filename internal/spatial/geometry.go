/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package spatial

// Basic 2D geometry in the core's logical coordinate space. Callers map raw
// pointer positions into this space before handing them over.

// Point is a 2D point.
type Point struct{ X, Y float32 }

// Pt is shorthand for Point{x, y}.
func Pt(x, y float32) Point { return Point{X: x, Y: y} }

// Add offsets p by v.
func (p Point) Add(v Vec) Point { return Point{X: p.X + v.DX, Y: p.Y + v.DY} }

// Sub returns the vector from o to p.
func (p Point) Sub(o Point) Vec { return Vec{DX: p.X - o.X, DY: p.Y - o.Y} }

// Vec is a displacement.
type Vec struct{ DX, DY float32 }

// Size is a width/height pair.
type Size struct{ W, H float32 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float32
	W, H float32
}

func R(x, y, w, h float32) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Point    { return Point{r.X, r.Y} }
func (r Rect) Max() Point    { return Point{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float32) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Local converts p from the coordinate space r lives in to r's own space.
func (r Rect) Local(p Point) Point { return Point{X: p.X - r.X, Y: p.Y - r.Y} }

// Insets are per-edge margins of a section.
type Insets struct{ Top, Left, Bottom, Right float32 }
