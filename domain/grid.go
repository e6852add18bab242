// SPDX-License-Identifier: MIT

package domain

import (
	"fmt"
	"sort"
)

// Axis is an ordered sequence of adjacent cells described by n+1 strictly
// increasing edges. An Axis is immutable once built.
type Axis struct {
	edges []float64
}

// NewRegularAxis builds n cells of equal width starting at start.
// Edges are accumulated by repeated addition, like the step-based axes of a
// measurement, which is why lookups are tolerance based.
func NewRegularAxis(start, width float64, n int) (Axis, error) {
	if n <= 0 || width <= 0 {
		return Axis{}, fmt.Errorf("NewRegularAxis: %w", ErrEmptyAxis)
	}
	edges := make([]float64, n+1)
	edges[0] = start
	for i := 1; i <= n; i++ {
		edges[i] = edges[i-1] + width
	}
	return Axis{edges: edges}, nil
}

// NewAxis builds an irregular axis from its edges (copied).
func NewAxis(edges []float64) (Axis, error) {
	if len(edges) < 2 {
		return Axis{}, fmt.Errorf("NewAxis: %w", ErrEmptyAxis)
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return Axis{}, fmt.Errorf("NewAxis: %w", ErrEmptyAxis)
		}
	}
	cp := make([]float64, len(edges))
	copy(cp, edges)
	return Axis{edges: cp}, nil
}

// Len returns the number of cells.
func (a Axis) Len() int {
	if len(a.edges) == 0 {
		return 0
	}
	return len(a.edges) - 1
}

// Start returns the lower edge of the first cell.
func (a Axis) Start() float64 { return a.edges[0] }

// End returns the upper edge of the last cell.
func (a Axis) End() float64 { return a.edges[len(a.edges)-1] }

// Lower returns the lower edge of cell i.
func (a Axis) Lower(i int) float64 { return a.edges[i] }

// Upper returns the upper edge of cell i.
func (a Axis) Upper(i int) float64 { return a.edges[i+1] }

// Center returns the midpoint of cell i.
func (a Axis) Center(i int) float64 { return 0.5 * (a.edges[i] + a.edges[i+1]) }

// Width returns the extent of cell i.
func (a Axis) Width(i int) float64 { return a.edges[i+1] - a.edges[i] }

// Centers returns all cell midpoints.
func (a Axis) Centers() []float64 {
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = a.Center(i)
	}
	return out
}

// Locate returns the index of the cell containing x.
//
// A point on an interior edge (within Near) belongs to the cell on its right
// when biasRight is true and to the cell on its left otherwise. The outer
// edges always map to the first and last cell. Points outside the axis fail
// with ErrOutOfRange.
//
// Complexity: O(log n).
func (a Axis) Locate(x float64, biasRight bool) (int, error) {
	n := a.Len()
	if n == 0 || lessNear(x, a.Start()) || lessNear(a.End(), x) {
		return 0, fmt.Errorf("Axis.Locate(%g): %w", x, ErrOutOfRange)
	}
	// First edge strictly above x.
	k := sort.Search(len(a.edges), func(i int) bool { return a.edges[i] > x })
	cell := k - 1

	// Snap to an edge within tolerance and apply the bias.
	if k < len(a.edges) && Near(a.edges[k], x) {
		cell = k
		if !biasRight {
			cell = k - 1
		}
	} else if cell >= 0 && Near(a.edges[cell], x) && !biasRight {
		cell--
	}

	if cell < 0 {
		cell = 0
	}
	if cell > n-1 {
		cell = n - 1
	}
	return cell, nil
}

// Grid tiles a bounding box into Freq.Len() × Time.Len() cells.
type Grid struct {
	Freq Axis
	Time Axis
}

// NewGrid combines two non-empty axes.
func NewGrid(freq, time Axis) (Grid, error) {
	if freq.Len() == 0 || time.Len() == 0 {
		return Grid{}, fmt.Errorf("NewGrid: %w", ErrEmptyAxis)
	}
	return Grid{Freq: freq, Time: time}, nil
}

// NFreq returns the number of frequency cells.
func (g Grid) NFreq() int { return g.Freq.Len() }

// NTime returns the number of time cells.
func (g Grid) NTime() int { return g.Time.Len() }

// Box returns the bounding domain of the grid.
func (g Grid) Box() Box {
	return Box{StartFreq: g.Freq.Start(), EndFreq: g.Freq.End(), StartTime: g.Time.Start(), EndTime: g.Time.End()}
}

// Cell returns the box of cell (fi, ti).
func (g Grid) Cell(fi, ti int) (Box, error) {
	if fi < 0 || fi >= g.NFreq() || ti < 0 || ti >= g.NTime() {
		return Box{}, fmt.Errorf("Grid.Cell(%d,%d): %w", fi, ti, ErrOutOfRange)
	}
	return Box{
		StartFreq: g.Freq.Lower(fi), EndFreq: g.Freq.Upper(fi),
		StartTime: g.Time.Lower(ti), EndTime: g.Time.Upper(ti),
	}, nil
}

// Locate returns the cell indices holding (freq, time).
func (g Grid) Locate(freq, time float64, biasRight bool) (int, int, error) {
	fi, err := g.Freq.Locate(freq, biasRight)
	if err != nil {
		return 0, 0, err
	}
	ti, err := g.Time.Locate(time, biasRight)
	if err != nil {
		return 0, 0, err
	}
	return fi, ti, nil
}
