// SPDX-License-Identifier: MIT

package value

// Reductions collapse a Value to a scalar of the same storage kind.
// Complex Min/Max compare by magnitude; ties keep the first sample in
// storage order (x fastest).

// Sum returns the sum of all samples.
func Sum(v *Value) (*Value, error) {
	if v == nil {
		return nil, valueErrorf("Sum", ErrNilValue)
	}
	if v.kind.isComplex() {
		var s complex128
		for _, c := range v.cx {
			s += c
		}
		return FromComplex(s), nil
	}
	var s float64
	for _, f := range v.re {
		s += f
	}
	return FromReal(s), nil
}

// Mean returns the arithmetic mean of all samples.
func Mean(v *Value) (*Value, error) {
	s, err := Sum(v)
	if err != nil {
		return nil, valueErrorf("Mean", ErrNilValue)
	}
	n := float64(v.ElementCount())
	if s.kind.isComplex() {
		s.cx[0] /= complex(n, 0)
	} else {
		s.re[0] /= n
	}
	return s, nil
}

// Min returns the smallest sample.
func Min(v *Value) (*Value, error) { return extreme("Min", v, func(a, b float64) bool { return a < b }) }

// Max returns the largest sample.
func Max(v *Value) (*Value, error) { return extreme("Max", v, func(a, b float64) bool { return a > b }) }

// extreme scans in storage order; better must be strict so ties keep the first.
func extreme(tag string, v *Value, better func(a, b float64) bool) (*Value, error) {
	if v == nil {
		return nil, valueErrorf(tag, ErrNilValue)
	}
	if v.kind.isComplex() {
		best, bestMag := 0, v.magnitude(0)
		for i := 1; i < len(v.cx); i++ {
			if m := v.magnitude(i); better(m, bestMag) {
				best, bestMag = i, m
			}
		}
		return FromComplex(v.cx[best]), nil
	}
	best := v.re[0]
	for _, f := range v.re[1:] {
		if better(f, best) {
			best = f
		}
	}
	return FromReal(best), nil
}
