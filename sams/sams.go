/*
 * sams.go, part of constph
 *
 * Copyright 2023 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 *
*/

/*Package sams calibrates the bias free energies (zetas, the g_k of each
titration state) of a constph Drive by self-adjusted mixture sampling, so
the Monte Carlo titration visits the states with a target distribution.
The update rules and the two-stage gain schedule follow Tan,
J. Comp. Graph. Stat. 2017 (DOI 10.1080/10618600.2015.1113975), equations
9 (binary), 12 (global) and 15 (gain).*/
package sams

import (
	"math"

	"github.com/rmera/constph"
	"github.com/rmera/constph/pops"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Scheme selects the zeta update rule.
type Scheme int

const (
	//Binary updates only the currently occupied state.
	Binary Scheme = iota
	//Global updates every state using importance weights, which requires
	//evaluating the reduced potential of every state.
	Global
)

// Stage is the phase of the two-stage gain schedule.
type Stage int

const (
	BurnIn Stage = iota
	SlowGain
)

// Options holds the tunable parameters of an adaptation step.
type Options struct {
	scheme      Scheme
	b           float64
	stage       Stage
	endOfBurnin int
}

// DefaultOptions returns an Options with the defaults: binary scheme,
// decay factor 0.85, slow-gain stage.
func DefaultOptions() *Options {
	ret := new(Options)
	ret.scheme = Binary
	ret.b = 0.85
	ret.stage = SlowGain
	ret.endOfBurnin = 0
	return ret
}

// Scheme returns the update scheme and sets it, if a value is given.
func (o *Options) Scheme(s ...Scheme) Scheme {
	ret := o.scheme
	if len(s) > 0 {
		o.scheme = s[0]
	}
	return ret
}

// B returns the decay factor of the gain schedule and sets it, if a value
// is given. Validity ([0.5,1]) is checked when the factor is used.
func (o *Options) B(b ...float64) float64 {
	ret := o.b
	if len(b) > 0 {
		o.b = b[0]
	}
	return ret
}

// Stage returns the gain-schedule stage and sets it, if a value is given.
func (o *Options) Stage(s ...Stage) Stage {
	ret := o.stage
	if len(s) > 0 {
		o.stage = s[0]
	}
	return ret
}

// EndOfBurnin returns the adaptation step at which burn-in ended and sets
// it, if a valid value is given.
func (o *Options) EndOfBurnin(n ...int) int {
	ret := o.endOfBurnin
	if len(n) > 0 && n[0] >= 0 {
		o.endOfBurnin = n[0]
	}
	return ret
}

// Calibrator adapts the zetas of one titratable group of a Drive. It keeps
// a back-reference to the Drive, which it mutates through SetGK; the Drive
// must outlive it, and adaptation must run between, not during, Update
// calls.
type Calibrator struct {
	drive        *constph.Drive
	group        int
	stateCounts  []float64
	nAdaptations int
}

// New returns a Calibrator for the given group (default 0) of the Drive.
// Every group of the Drive gets equal target weights, unless weights were
// already set through the Drive.
func New(d *constph.Drive, group ...int) (*Calibrator, error) {
	g := 0
	if len(group) > 0 {
		g = group[0]
	}
	if g < 0 || g >= d.Len() {
		return nil, Error{message: "group index out of range", kind: ErrConfig}
	}
	C := new(Calibrator)
	C.drive = d
	C.group = g
	C.stateCounts = make([]float64, d.NumTitrationStates(g))
	return C, nil
}

// NAdaptations returns how many times AdaptZetas has run. It never resets
// within a run.
func (C *Calibrator) NAdaptations() int {
	return C.nAdaptations
}

// StateCounts returns a copy of the recency-weighted visitation counts.
func (C *Calibrator) StateCounts() []float64 {
	ret := make([]float64, len(C.stateCounts))
	copy(ret, C.stateCounts)
	return ret
}

// SetTargetWeightsFromPH sets the target sampling weights of the calibrated
// group to the equilibrium populations of the given residue model, built at
// the pH of interest. The model must give one population per titration
// state of the group, in the group's state order.
func (C *Calibrator) SetTargetWeightsFromPH(model pops.Calculator) error {
	return errDecorate(C.drive.SetTargetWeights(C.group, model.Populations()), "SetTargetWeightsFromPH")
}

// AdaptZetas updates the bias free energies of the calibrated group from
// the current visitation statistics, writes them back into the Drive, and
// returns the total absolute deviation between the normalized visitation
// counts and the target weights, as a convergence diagnostic. ctx is only
// evaluated by the global scheme.
func (C *Calibrator) AdaptZetas(ctx constph.Engine, options ...*Options) (float64, error) {
	var o *Options
	if len(options) > 0 && options[0] != nil {
		o = options[0]
	} else {
		o = DefaultOptions()
	}
	C.nAdaptations++
	zeta := C.drive.GK(C.group)
	var update []float64
	var err error
	switch o.scheme {
	case Binary:
		update, err = C.binaryUpdate(o)
	case Global:
		update, err = C.globalUpdate(ctx, zeta, o)
	default:
		err = Error{message: "unknown adaptation scheme", kind: ErrConfig}
	}
	if err != nil {
		C.nAdaptations-- //the failed call must not advance the schedule
		return 0, errDecorate(err, "AdaptZetas")
	}
	//zeta^{t-1/2} = zeta^{t-1} + update, then re-centered on the reference
	//state to fix the gauge: only differences of zetas are defined.
	floats.Add(zeta, update)
	ref := zeta[0]
	for i := range zeta {
		zeta[i] -= ref
	}
	if err := C.drive.SetGK(C.group, zeta); err != nil {
		return 0, errDecorate(err, "AdaptZetas")
	}
	target := C.drive.TargetWeights(C.group)
	nk := make([]float64, len(C.stateCounts))
	copy(nk, C.stateCounts)
	total := floats.Sum(nk)
	if total > 0 {
		floats.Scale(1/total, nk)
	}
	deviation := 0.0
	for i, v := range target {
		deviation += math.Abs(v - nk[i])
	}
	return deviation, nil
}

// binaryUpdate is equation 9 of Tan: the update is nonzero only at the
// occupied state, scaled by the inverse target weight and the gain.
func (C *Calibrator) binaryUpdate(o *Options) ([]float64, error) {
	target := C.drive.TargetWeights(C.group)
	n := len(target)
	update := make([]float64, n)
	current := C.drive.TitrationState(C.group)
	update[current] = 1.0 / target[current]
	gained, err := C.gainScale(update, target, o)
	if err != nil {
		return nil, errDecorate(err, "binaryUpdate")
	}
	//sqrt weighting makes recent visits count more
	C.stateCounts[current] += math.Sqrt(float64(C.nAdaptations))
	return gained, nil
}

// globalUpdate is equation 12 of Tan: every state is updated by its
// normalized importance weight w_j over the inverse target weight.
func (C *Calibrator) globalUpdate(ctx constph.Engine, zeta []float64, o *Options) ([]float64, error) {
	target := C.drive.TargetWeights(C.group)
	n := len(target)
	ub, err := C.drive.ReducedPotentials(ctx, C.group)
	if err != nil {
		return nil, errDecorate(err, "globalUpdate")
	}
	logw := make([]float64, n)
	for j := range logw {
		logw[j] = math.Log(target[j]) - zeta[j] - ub[j]
	}
	norm := floats.LogSumExp(logw)
	w := make([]float64, n)
	update := make([]float64, n)
	for j := range w {
		w[j] = math.Exp(logw[j] - norm)
		update[j] = (w[j] / target[j]) / target[j]
	}
	gained, err := C.gainScale(update, target, o)
	if err != nil {
		return nil, errDecorate(err, "globalUpdate")
	}
	sq := math.Sqrt(float64(C.nAdaptations))
	for j := range w {
		C.stateCounts[j] += sq * w[j]
	}
	return gained, nil
}

// gainScale multiplies the update vector by the diagonal gain matrix of
// equation 15. During burn-in the gain is min(pi_j, n^-b); during slow
// gain it is min(pi_j, 1/(n - t0 + t0^b)) with t0 the end of burn-in.
func (C *Calibrator) gainScale(update, target []float64, o *Options) ([]float64, error) {
	if o.b < 0.5 || o.b > 1.0 {
		return nil, Error{message: "the decay factor b needs to be between 1/2 and 1", kind: ErrConfig}
	}
	n := float64(C.nAdaptations)
	gain := make([]float64, len(target))
	for j, pi := range target {
		switch o.stage {
		case BurnIn:
			gain[j] = math.Min(pi, 1.0/math.Pow(n, o.b))
		case SlowGain:
			t0 := float64(o.endOfBurnin)
			gain[j] = math.Min(pi, 1.0/(n-t0+math.Pow(t0, o.b)))
		default:
			return nil, Error{message: "invalid adaptation stage, choose burn-in or slow-gain", kind: ErrConfig}
		}
	}
	g := mat.NewDiagDense(len(gain), gain)
	in := mat.NewVecDense(len(update), update)
	var out mat.VecDense
	out.MulVec(g, in)
	ret := make([]float64, len(update))
	for i := range ret {
		ret[i] = out.AtVec(i)
	}
	return ret, nil
}
