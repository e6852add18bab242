// SPDX-License-Identifier: MIT

// Package model builds expression graphs that predict the 2×2 visibility
// correlations of station pairs (baselines) for a set of point sources.
//
// For station s and source k the Jones matrix is
//
//	J(s,k) = Gain:s · exp(i·phase_iono(s,k)) · R(s,k)
//
// where R is the parallactic rotation of the station dipoles towards the
// source and the ionospheric phase follows the minimum ionospheric model
// (MIM) evaluated at the pierce point of the line of sight. A baseline
// (i, j) predicts
//
//	V(i,j) = Σ_k J(i,k) · diag(I:k, I:k) · J(j,k)^H
//
// Parameters read by name: RA:<source>, DEC:<source>, I:<source>,
// Gain:<station> and, with the ionosphere enabled, MIM:<n> for every
// polynomial coefficient n.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/katalvlaran/calkernel/expr"
	"github.com/katalvlaran/calkernel/funklet"
	"github.com/katalvlaran/calkernel/measures"
	"github.com/katalvlaran/calkernel/value"
)

// Sentinel errors for model construction.
var (
	// ErrMissingParameter indicates a parameter name the Lookup cannot resolve.
	ErrMissingParameter = errors.New("model: missing parameter")

	// ErrUnknownStation indicates a baseline index outside the station list.
	ErrUnknownStation = errors.New("model: unknown station")

	// ErrNoStations indicates a model without stations.
	ErrNoStations = errors.New("model: no stations")
)

// Station is one antenna field.
type Station struct {
	Name     string
	Position measures.Position
	// P and Q are the dipole axes in ITRF.
	P, Q [3]float64
}

// Lookup resolves loaded parameters by name.
type Lookup interface {
	Parameter(name string) (*funklet.Parameter, bool)
}

// Ionosphere configures the MIM phase term. Zero Height, Scale and
// EarthRadius select the expr defaults.
type Ionosphere struct {
	Height      float64
	Scale       float64
	Order       int
	EarthRadius float64
}

// Option configures a Model.
type Option func(*options)

type options struct {
	converter  measures.Converter
	ionosphere *Ionosphere
	logger     *slog.Logger
}

// WithConverter sets the direction converter; default measures.Approximate.
func WithConverter(c measures.Converter) Option {
	return func(o *options) {
		if c != nil {
			o.converter = c
		}
	}
}

// WithIonosphere enables the MIM phase term.
func WithIonosphere(iono Ionosphere) Option {
	return func(o *options) { o.ionosphere = &iono }
}

// WithLogger sets the logger handed to every graph.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Model is a fixed set of stations and sources.
type Model struct {
	stations []Station
	sources  []string
	opts     options
}

// New returns a Model. The first station is the MIM reference position.
func New(stations []Station, sources []string, opts ...Option) (*Model, error) {
	if len(stations) == 0 {
		return nil, ErrNoStations
	}
	o := options{converter: measures.Approximate{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Model{
		stations: append([]Station(nil), stations...),
		sources:  append([]string(nil), sources...),
		opts:     o,
	}, nil
}

// Stations returns the station list.
func (m *Model) Stations() []Station { return append([]Station(nil), m.stations...) }

// Baselines returns every station pair (i, j) with i < j.
func (m *Model) Baselines() [][2]int {
	var out [][2]int
	for i := range m.stations {
		for j := i + 1; j < len(m.stations); j++ {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}

// ParameterNames lists every parameter the model reads.
func (m *Model) ParameterNames() []string {
	var names []string
	for _, src := range m.sources {
		names = append(names, "RA:"+src, "DEC:"+src, "I:"+src)
	}
	for _, st := range m.stations {
		names = append(names, "Gain:"+st.Name)
	}
	if m.opts.ionosphere != nil {
		for n := 0; n < m.mim().NCoeff(); n++ {
			names = append(names, mimName(n))
		}
	}
	return names
}

func mimName(n int) string { return "MIM:" + strconv.Itoa(n) }

func (m *Model) mim() expr.IonosphereDelay {
	return expr.IonosphereDelay{
		Reference: m.stations[0].Position,
		Scale:     m.opts.ionosphere.Scale,
		Order:     m.opts.ionosphere.Order,
	}
}

// Instance is the graph of one baseline and its four correlation outputs
// (xx, xy, yx, yy).
type Instance struct {
	Name         string
	Graph        *expr.Graph
	Correlations [4]expr.Port
}

// BuildBaseline builds the graph predicting baseline (i, j).
func (m *Model) BuildBaseline(params Lookup, i, j int) (*Instance, error) {
	for _, k := range [2]int{i, j} {
		if k < 0 || k >= len(m.stations) {
			return nil, fmt.Errorf("station %d: %w", k, ErrUnknownStation)
		}
	}
	name := m.stations[i].Name + "-" + m.stations[j].Name
	b := &builder{
		m:      m,
		params: params,
		g:      expr.New(expr.WithName(name), expr.WithLogger(m.opts.logger)),
		leaves: make(map[string]expr.Port),
	}
	corr := b.baseline(i, j)
	if b.err != nil {
		return nil, fmt.Errorf("baseline %s: %w", name, b.err)
	}
	return &Instance{Name: name, Graph: b.g, Correlations: corr}, nil
}

// builder adds nodes to one graph and keeps the first error.
type builder struct {
	m      *Model
	params Lookup
	g      *expr.Graph
	leaves map[string]expr.Port
	zero   *expr.Port
	err    error
}

func (b *builder) add(op expr.Op, in ...expr.Port) expr.NodeID {
	if b.err != nil {
		return 0
	}
	id, err := b.g.Add(op, in...)
	if err != nil {
		b.err = err
	}
	return id
}

func (b *builder) constant(f float64) expr.Port {
	return b.add(expr.Constant{V: value.FromReal(f)}).Port()
}

// leaf returns the shared leaf node of a parameter.
func (b *builder) leaf(name string) expr.Port {
	if p, ok := b.leaves[name]; ok {
		return p
	}
	param, ok := b.params.Parameter(name)
	if !ok {
		if b.err == nil {
			b.err = fmt.Errorf("%s: %w", name, ErrMissingParameter)
		}
		return expr.Port{}
	}
	p := b.add(expr.Leaf{E: param}).Port()
	b.leaves[name] = p
	return p
}

func (b *builder) zeroPort() expr.Port {
	if b.zero == nil {
		z := b.constant(0)
		b.zero = &z
	}
	return *b.zero
}

// stationNodes are the per-station nodes shared by every source.
type stationNodes struct {
	x, y, z expr.Port
	gain    expr.Port
}

func (b *builder) station(s Station) stationNodes {
	return stationNodes{
		x:    b.constant(s.Position.X),
		y:    b.constant(s.Position.Y),
		z:    b.constant(s.Position.Z),
		gain: b.leaf("Gain:" + s.Name),
	}
}

// jones builds J(s, src) row-major.
func (b *builder) jones(s Station, sn stationNodes, src string) [4]expr.Port {
	ra, dec := b.leaf("RA:"+src), b.leaf("DEC:"+src)
	azel := b.add(expr.AzEl{Converter: b.m.opts.converter}, ra, dec, sn.x, sn.y, sn.z)
	dir := b.add(expr.ITRFDirection{}, azel.Out(0), azel.Out(1), sn.x, sn.y, sn.z)
	rot := b.add(expr.ParallacticRotation{P: s.P, Q: s.Q}, dir.Out(0), dir.Out(1), dir.Out(2))

	scale := sn.gain
	if iono := b.m.opts.ionosphere; iono != nil {
		pp := b.add(expr.PiercePoint{Height: iono.Height, EarthRadius: iono.EarthRadius},
			sn.x, sn.y, sn.z, dir.Out(0), dir.Out(1), dir.Out(2))
		mim := b.m.mim()
		in := []expr.Port{pp.Out(0), pp.Out(1), pp.Out(2), pp.Out(3)}
		for n := 0; n < mim.NCoeff(); n++ {
			in = append(in, b.leaf(mimName(n)))
		}
		phase := b.add(mim, in...)
		phasor := b.add(expr.Phasor{}, phase.Port())
		scale = b.add(expr.OpMul, sn.gain, phasor.Port()).Port()
	}

	var j [4]expr.Port
	for k := range j {
		j[k] = b.add(expr.OpMul, scale, rot.Out(k)).Port()
	}
	return j
}

func (b *builder) baseline(i, j int) [4]expr.Port {
	si, sj := b.m.stations[i], b.m.stations[j]
	ni, nj := b.station(si), b.station(sj)

	var acc [4]expr.Port
	for k, src := range b.m.sources {
		ji := b.jones(si, ni, src)
		jj := b.jones(sj, nj, src)
		flux := b.leaf("I:" + src)
		zero := b.zeroPort()

		in := append(ji[:], flux, zero, zero, flux)
		in = append(in, jj[:]...)
		corr := b.add(expr.Correlate{}, in...)
		for c := range acc {
			if k == 0 {
				acc[c] = corr.Out(c)
				continue
			}
			acc[c] = b.add(expr.OpAdd, acc[c], corr.Out(c)).Port()
		}
	}
	if len(b.m.sources) == 0 {
		for c := range acc {
			acc[c] = b.zeroPort()
		}
	}
	return acc
}
