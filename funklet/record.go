// SPDX-License-Identifier: MIT

package funklet

import (
	"fmt"

	"github.com/katalvlaran/calkernel/domain"
)

// Type is the basis a funklet expands its coefficients in.
type Type int

const (
	// Polynomial is c[i + j*nx] * x^i * y^j with x, y normalized to [0, 1]
	// over the funklet domain.
	Polynomial Type = iota
	// LogPolynomial is c[i + j*nx] * log10(f/f0)^i * log10(t/t0)^j.
	LogPolynomial
	// Tabular samples c on a regular nx×ny lattice over the domain and
	// returns the nearest sample.
	Tabular
)

var typeNames = [...]string{
	Polynomial:    "polynomial",
	LogPolynomial: "log-polynomial",
	Tabular:       "tabular",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps a record type tag onto a Type.
func ParseType(tag string) (Type, error) {
	for t, name := range typeNames {
		if name == tag {
			return Type(t), nil
		}
	}
	return 0, fmt.Errorf("ParseType(%q): %w", tag, ErrUnknownType)
}

// DefaultPerturbation is used when a record leaves Perturbation at zero.
const DefaultPerturbation = 1e-6

// RelativeThreshold is the coefficient magnitude above which a relative
// perturbation policy scales by |c|.
const RelativeThreshold = 1e-10

// Record is the persisted form of a funklet as exchanged with a parameter
// store.
type Record struct {
	Name   string     `yaml:"name" json:"name"`
	Type   string     `yaml:"type" json:"type"`
	Shape  []int      `yaml:"shape" json:"shape"`
	Coeff  []float64  `yaml:"coeff" json:"coeff"`
	Domain domain.Box `yaml:"domain" json:"domain"`

	// Mask selects the solvable coefficients; nil means all of them.
	Mask []bool `yaml:"mask,omitempty" json:"mask,omitempty"`

	Perturbation float64 `yaml:"perturbation" json:"perturbation"`
	Relative     bool    `yaml:"relative" json:"relative"`

	// Log-polynomial reference point; zero selects the domain start.
	RefFreq float64 `yaml:"ref_freq,omitempty" json:"ref_freq,omitempty"`
	RefTime float64 `yaml:"ref_time,omitempty" json:"ref_time,omitempty"`
}

// validate checks everything FromRecord needs before building a Funklet.
func (r *Record) validate() (Type, error) {
	t, err := ParseType(r.Type)
	if err != nil {
		return 0, err
	}
	if len(r.Shape) != 2 || r.Shape[0] < 1 || r.Shape[1] < 1 {
		return 0, fmt.Errorf("shape %v: %w", r.Shape, ErrInvalidShape)
	}
	if r.Shape[0]*r.Shape[1] != len(r.Coeff) {
		return 0, fmt.Errorf("shape %v with %d coefficients: %w", r.Shape, len(r.Coeff), ErrInvalidShape)
	}
	if r.Mask != nil && len(r.Mask) != len(r.Coeff) {
		return 0, ErrInvalidMask
	}
	if err := r.Domain.Validate(); err != nil {
		return 0, err
	}
	if t == LogPolynomial {
		f0, t0 := r.reference()
		if (r.Shape[0] > 1 && f0 <= 0) || (r.Shape[1] > 1 && t0 <= 0) {
			return 0, ErrInvalidReference
		}
	}
	return t, nil
}

func (r *Record) reference() (float64, float64) {
	f0, t0 := r.RefFreq, r.RefTime
	if f0 == 0 {
		f0 = r.Domain.StartFreq
	}
	if t0 == 0 {
		t0 = r.Domain.StartTime
	}
	return f0, t0
}
