// SPDX-License-Identifier: MIT

// Package measures is the coordinate-conversion boundary of the kernel:
// J2000 equatorial directions to local azimuth/elevation for a station at
// a given epoch. The kernel only depends on the Converter interface; an
// observatory deployment plugs in a full astrometric library.
package measures

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPosition indicates a station position at the geocentre.
var ErrInvalidPosition = errors.New("measures: station position must be non-zero")

// SecondsPerDay converts MJD seconds to days.
const SecondsPerDay = 86400.0

// Position is an ITRF (earth-fixed, geocentric) position in metres.
type Position struct {
	X, Y, Z float64
}

// Radius returns the distance from the geocentre.
func (p Position) Radius() float64 { return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z) }

// Longitude returns the geocentric east longitude in radians.
func (p Position) Longitude() float64 { return math.Atan2(p.Y, p.X) }

// Latitude returns the geocentric latitude in radians.
func (p Position) Latitude() float64 { return math.Atan2(p.Z, math.Hypot(p.X, p.Y)) }

// Converter converts a J2000 direction (radians) seen from station at epoch
// (MJD seconds, UTC) into azimuth (radians east of north, in [0, 2π)) and
// elevation (radians).
type Converter interface {
	J2000ToAzEl(ra, dec float64, station Position, epoch float64) (az, el float64, err error)
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(ra, dec float64, station Position, epoch float64) (float64, float64, error)

// J2000ToAzEl calls fn.
func (fn ConverterFunc) J2000ToAzEl(ra, dec float64, station Position, epoch float64) (float64, float64, error) {
	return fn(ra, dec, station, epoch)
}

// Approximate converts with the IAU 1982 mean sidereal time and a spherical
// earth. It ignores precession, nutation, aberration and refraction, which
// bounds its error to roughly the precession since J2000 (arcminutes).
type Approximate struct{}

// J2000ToAzEl implements Converter.
func (Approximate) J2000ToAzEl(ra, dec float64, station Position, epoch float64) (float64, float64, error) {
	if station.Radius() == 0 {
		return 0, 0, fmt.Errorf("J2000ToAzEl: %w", ErrInvalidPosition)
	}
	lat := station.Latitude()
	ha := GMST(epoch) + station.Longitude() - ra

	sinLat, cosLat := math.Sincos(lat)
	sinDec, cosDec := math.Sincos(dec)
	sinHA, cosHA := math.Sincos(ha)

	el := math.Asin(clamp(sinLat*sinDec + cosLat*cosDec*cosHA))
	az := math.Atan2(-cosDec*sinHA, sinDec*cosLat-cosDec*sinLat*cosHA)
	if az < 0 {
		az += 2 * math.Pi
	}
	return az, el, nil
}

// GMST returns the Greenwich mean sidereal time in radians, in [0, 2π), at
// epoch (MJD seconds).
func GMST(epoch float64) float64 {
	// Days since J2000.0 (MJD 51544.5).
	d := epoch/SecondsPerDay - 51544.5
	deg := math.Mod(280.46061837+360.98564736629*d, 360)
	if deg < 0 {
		deg += 360
	}
	return deg * math.Pi / 180
}

func clamp(x float64) float64 { return math.Max(-1, math.Min(1, x)) }
