// SPDX-License-Identifier: MIT

package main

import (
	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/value"
)

// correlationNames label the four outputs of a baseline instance.
var correlationNames = [4]string{"XX", "XY", "YX", "YY"}

// cells is a value expanded over the full grid, frequency fastest.
type cells struct {
	NFreq int       `json:"n_freq"`
	NTime int       `json:"n_time"`
	Re    []float64 `json:"re"`
	Im    []float64 `json:"im"`
}

func expand(v *value.Value, g domain.Grid) (cells, error) {
	nf, nt := g.NFreq(), g.NTime()
	c := cells{NFreq: nf, NTime: nt, Re: make([]float64, nf*nt), Im: make([]float64, nf*nt)}
	for ti := 0; ti < nt; ti++ {
		for fi := 0; fi < nf; fi++ {
			z, err := v.ComplexAt(fi, ti)
			if err != nil {
				return cells{}, err
			}
			c.Re[fi+ti*nf], c.Im[fi+ti*nf] = real(z), imag(z)
		}
	}
	return c, nil
}

type predictionOut struct {
	Instance     string           `json:"instance"`
	Correlations map[string]cells `json:"correlations"`
}

type derivativeOut struct {
	Parameter string `json:"parameter"`
	Spid      int    `json:"spid"`
	Value     cells  `json:"value"`
}

type equationOut struct {
	Instance    string          `json:"instance"`
	Correlation string          `json:"correlation"`
	Value       cells           `json:"value"`
	Derivatives []derivativeOut `json:"derivatives"`
}
