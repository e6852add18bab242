// SPDX-License-Identifier: MIT

// Package domain defines the frequency/time geometry of an evaluation:
// Box (a validity rectangle), Axis and Grid (a tiling of a box into cells),
// and Request (a grid plus the ordered list of active solvable parameters).
//
// Cell edges are usually produced by repeatedly adding a step width and so
// carry rounding error; every boundary comparison therefore goes through the
// tolerant Near predicate instead of exact float equality.
package domain

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for domain operations.
var (
	// ErrInvalidBox indicates start > end on an axis, or a non-finite edge.
	ErrInvalidBox = errors.New("domain: invalid box")

	// ErrEmptyAxis indicates an axis without cells or with non-increasing edges.
	ErrEmptyAxis = errors.New("domain: axis must have increasing edges")

	// ErrOutOfRange indicates a point or cell index outside the axis or grid.
	ErrOutOfRange = errors.New("domain: out of range")
)

// Tolerances of Near. An edge is "near" another when
// |a-b| <= NearAbs + NearRel*max(|a|, |b|).
const (
	NearAbs = 1e-9
	NearRel = 1e-12
)

// Near reports whether a and b are equal within the absolute plus relative
// tolerance.
func Near(a, b float64) bool {
	return math.Abs(a-b) <= NearAbs+NearRel*math.Max(math.Abs(a), math.Abs(b))
}

// Box is a closed rectangle in (frequency, time).
// Invariant: StartFreq <= EndFreq and StartTime <= EndTime.
type Box struct {
	StartFreq float64 `yaml:"start_freq" json:"start_freq"` // Hz
	EndFreq   float64 `yaml:"end_freq" json:"end_freq"`
	StartTime float64 `yaml:"start_time" json:"start_time"` // seconds (MJD seconds in practice)
	EndTime   float64 `yaml:"end_time" json:"end_time"`
}

// NewBox validates and returns a Box.
func NewBox(startFreq, endFreq, startTime, endTime float64) (Box, error) {
	b := Box{StartFreq: startFreq, EndFreq: endFreq, StartTime: startTime, EndTime: endTime}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// Validate checks the ordering invariant.
func (b Box) Validate() error {
	for _, f := range [4]float64{b.StartFreq, b.EndFreq, b.StartTime, b.EndTime} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("Box.Validate: %w", ErrInvalidBox)
		}
	}
	if b.StartFreq > b.EndFreq || b.StartTime > b.EndTime {
		return fmt.Errorf("Box.Validate: %w", ErrInvalidBox)
	}
	return nil
}

// IsEmpty reports whether the box has (near) zero extent on either axis.
func (b Box) IsEmpty() bool {
	return Near(b.StartFreq, b.EndFreq) || Near(b.StartTime, b.EndTime)
}

// Width returns the frequency extent.
func (b Box) Width() float64 { return b.EndFreq - b.StartFreq }

// Duration returns the time extent.
func (b Box) Duration() float64 { return b.EndTime - b.StartTime }

// Center returns the midpoint (frequency, time).
func (b Box) Center() (float64, float64) {
	return 0.5 * (b.StartFreq + b.EndFreq), 0.5 * (b.StartTime + b.EndTime)
}

// lessNear reports a < b with a and b not near each other.
func lessNear(a, b float64) bool { return a < b && !Near(a, b) }

// Intersects reports whether a and b overlap with positive area. Boxes that
// only touch along an edge (within tolerance) do not intersect.
func (b Box) Intersects(o Box) bool {
	return lessNear(b.StartFreq, o.EndFreq) && lessNear(o.StartFreq, b.EndFreq) &&
		lessNear(b.StartTime, o.EndTime) && lessNear(o.StartTime, b.EndTime)
}

// Contains reports whether o lies inside b, edges inclusive within tolerance.
func (b Box) Contains(o Box) bool {
	return b.ContainsPoint(o.StartFreq, o.StartTime) && b.ContainsPoint(o.EndFreq, o.EndTime)
}

// ContainsPoint reports whether (freq, time) lies inside b, edges inclusive.
func (b Box) ContainsPoint(freq, time float64) bool {
	return !lessNear(freq, b.StartFreq) && !lessNear(b.EndFreq, freq) &&
		!lessNear(time, b.StartTime) && !lessNear(b.EndTime, time)
}

// Unite returns the smallest box enclosing b and o.
func (b Box) Unite(o Box) Box {
	return Box{
		StartFreq: math.Min(b.StartFreq, o.StartFreq),
		EndFreq:   math.Max(b.EndFreq, o.EndFreq),
		StartTime: math.Min(b.StartTime, o.StartTime),
		EndTime:   math.Max(b.EndTime, o.EndTime),
	}
}

// Intersect returns the overlap of b and o. When they do not overlap the
// result is collapsed (start == end) on the disjoint axis.
func (b Box) Intersect(o Box) Box {
	out := Box{
		StartFreq: math.Max(b.StartFreq, o.StartFreq),
		EndFreq:   math.Min(b.EndFreq, o.EndFreq),
		StartTime: math.Max(b.StartTime, o.StartTime),
		EndTime:   math.Min(b.EndTime, o.EndTime),
	}
	if out.EndFreq < out.StartFreq {
		out.EndFreq = out.StartFreq
	}
	if out.EndTime < out.StartTime {
		out.EndTime = out.StartTime
	}
	return out
}

// String renders the box for logs.
func (b Box) String() string {
	return fmt.Sprintf("[%g,%g]Hz x [%g,%g]s", b.StartFreq, b.EndFreq, b.StartTime, b.EndTime)
}
