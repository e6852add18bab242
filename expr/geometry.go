// SPDX-License-Identifier: MIT

package expr

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/measures"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

// Defaults of PiercePoint.
const (
	DefaultIonosphereHeight = 400e3     // metres above the earth surface
	DefaultEarthRadius      = 6378137.0 // metres, WGS84 equatorial
)

// ErrNoConverter indicates an AzEl op built without a measures.Converter.
var ErrNoConverter = errors.New("expr: AzEl needs a converter")

// AzEl converts a J2000 source direction (ra, dec) seen from a station
// (x, y, z ITRF metres) into azimuth and elevation per time cell.
//
// Inputs: ra, dec, x, y, z. Outputs: az, el as 1×ntime values.
//
// The converter is not differentiated; perturbed outputs come from calling
// it again on each perturbed input.
type AzEl struct {
	Converter measures.Converter
}

func (AzEl) Kind() string { return "azel" }
func (AzEl) Arity() int   { return 5 }
func (AzEl) Outputs() int { return 2 }

func (op AzEl) Eval(req *domain.Request, in []*result.Result) ([]*result.Result, error) {
	if op.Converter == nil {
		return nil, ErrNoConverter
	}
	times := req.Grid().Time.Centers()
	return result.Map(in, 2, func(v []*value.Value) ([]*value.Value, error) {
		for k, x := range v {
			if x.Nx() > 1 {
				return nil, fmt.Errorf("azel input %d varies with frequency (%d cells): %w", k, x.Nx(), value.ErrShapeMismatch)
			}
		}
		az := make([]float64, len(times))
		el := make([]float64, len(times))
		var x [5]float64
		for ti, epoch := range times {
			for k := range x {
				f, err := v[k].RealAt(0, ti)
				if err != nil {
					return nil, err
				}
				x[k] = f
			}
			pos := measures.Position{X: x[2], Y: x[3], Z: x[4]}
			a, e, err := op.Converter.J2000ToAzEl(x[0], x[1], pos, epoch)
			if err != nil {
				return nil, err
			}
			az[ti], el[ti] = a, e
		}
		va, err := value.FromRealArray(1, len(times), az)
		if err != nil {
			return nil, err
		}
		ve, err := value.FromRealArray(1, len(times), el)
		if err != nil {
			return nil, err
		}
		return []*value.Value{va, ve}, nil
	})
}

// ITRFDirection rotates a local (azimuth, elevation) direction at a station
// into an ITRF unit vector.
//
// Inputs: az, el, x, y, z. Outputs: dx, dy, dz.
type ITRFDirection struct{}

func (ITRFDirection) Kind() string { return "itrfdir" }
func (ITRFDirection) Arity() int   { return 5 }
func (ITRFDirection) Outputs() int { return 3 }

func (ITRFDirection) Eval(_ *domain.Request, in []*result.Result) ([]*result.Result, error) {
	return result.Map(in, 3, func(v []*value.Value) ([]*value.Value, error) {
		return pointwise(v, 3, func(x, y []float64) error {
			pos := measures.Position{X: x[2], Y: x[3], Z: x[4]}
			sinLon, cosLon := math.Sincos(pos.Longitude())
			sinLat, cosLat := math.Sincos(pos.Latitude())
			sinAz, cosAz := math.Sincos(x[0])
			sinEl, cosEl := math.Sincos(x[1])

			// East, north, up components.
			e, n, u := sinAz*cosEl, cosAz*cosEl, sinEl
			y[0] = -sinLon*e - sinLat*cosLon*n + cosLat*cosLon*u
			y[1] = cosLon*e - sinLat*sinLon*n + cosLat*sinLon*u
			y[2] = cosLat*n + sinLat*u
			return nil
		})
	})
}

// PiercePoint intersects the line of sight from a station along an ITRF
// direction with a spherical ionospheric shell.
//
// Inputs: x, y, z, dx, dy, dz. Outputs: px, py, pz (ITRF metres) and alpha,
// the zenith angle of the line of sight at the pierce point.
type PiercePoint struct {
	// Height of the shell above EarthRadius; zero selects DefaultIonosphereHeight.
	Height float64
	// EarthRadius; zero selects DefaultEarthRadius.
	EarthRadius float64
}

func (PiercePoint) Kind() string { return "piercepoint" }
func (PiercePoint) Arity() int   { return 6 }
func (PiercePoint) Outputs() int { return 4 }

// ShellRadius returns the distance of the shell from the geocentre.
func (op PiercePoint) ShellRadius() float64 {
	h, r := op.Height, op.EarthRadius
	if h == 0 {
		h = DefaultIonosphereHeight
	}
	if r == 0 {
		r = DefaultEarthRadius
	}
	return r + h
}

func (op PiercePoint) Eval(_ *domain.Request, in []*result.Result) ([]*result.Result, error) {
	rh := op.ShellRadius()
	return result.Map(in, 4, func(v []*value.Value) ([]*value.Value, error) {
		var a arith
		s := vec3{v[0], v[1], v[2]}
		d := vec3{v[3], v[4], v[5]}

		// |s + t*d| = rh  =>  t = -s.d + sqrt((s.d)^2 - |s|^2 + rh^2)
		sd := a.dot(s, d)
		s2 := a.dot(s, s)
		disc := a.add(a.sub(a.mul(sd, sd), s2), value.FromReal(rh*rh))
		t := a.sub(a.sqrt(disc), sd)
		p := a.plus(s, a.scale(d, t))

		// sin(alpha) = |s| cos(el) / rh with sin(el) = s.d / |s|.
		norm := a.sqrt(s2)
		sinEl := a.div(sd, norm)
		cosEl := a.sqrt(a.bin(value.PosDiff, value.FromReal(1), a.mul(sinEl, sinEl)))
		alpha := a.un(value.Asin, a.div(a.mul(norm, cosEl), value.FromReal(rh)))
		if a.err != nil {
			return nil, a.err
		}
		return []*value.Value{p[0], p[1], p[2], alpha}, nil
	})
}
