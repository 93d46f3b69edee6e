/*
 * drive.go, part of constph
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

package constph

import (
	"math"

	"github.com/rmera/constph/proposal"
	"github.com/rmera/constph/saltswap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Options holds the tunable parameters of a Drive.
type Options struct {
	instantaneous bool
	nsteps        int
	propagations  int
	seed          uint64
}

// DefaultOptions returns an Options with the defaults: NCMC switching over
// 101 perturbation steps, one integration step per perturbation.
func DefaultOptions() *Options {
	ret := new(Options)
	ret.instantaneous = false
	ret.nsteps = 101
	ret.propagations = 1
	ret.seed = 1
	return ret
}

// Instantaneous returns whether switching is instantaneous (as opposed to
// NCMC) and sets it, if a value is given.
func (o *Options) Instantaneous(inst ...bool) bool {
	ret := o.instantaneous
	if len(inst) > 0 {
		o.instantaneous = inst[0]
	}
	return ret
}

// NSteps returns the number of perturbation steps of the NCMC protocol and
// sets it, if a valid value is given.
func (o *Options) NSteps(n ...int) int {
	ret := o.nsteps
	if len(n) > 0 && n[0] > 0 {
		o.nsteps = n[0]
	}
	return ret
}

// Propagations returns the number of integration steps taken after each
// perturbation and sets it, if a valid value is given.
func (o *Options) Propagations(n ...int) int {
	ret := o.propagations
	if len(n) > 0 && n[0] > 0 {
		o.propagations = n[0]
	}
	return ret
}

// Seed returns the random seed of the Drive and sets it, if a value is
// given. Two runs with the same seed, options and engine state produce
// identical accept/reject sequences.
func (o *Options) Seed(s ...uint64) uint64 {
	ret := o.seed
	if len(s) > 0 {
		o.seed = s[0]
	}
	return ret
}

// Drive owns the titratable-group registry and runs titration attempts
// against a physics engine. It is the sole writer of the engine's mutable
// state during an attempt; calibration (package sams) must run between,
// not during, Update calls.
type Drive struct {
	groups     []*TitratableGroup
	beta       float64 //in 1/(kJ/mol)
	prop       proposal.Proposer
	swap       saltswap.Proposer
	src        rand.Source
	r          *rand.Rand
	o          *Options
	pool       []int //eligible groups; nil means all
	nattempted int
	naccepted  int
}

// NewDrive builds a Drive from force-field group templates. beta is the
// inverse thermal energy in 1/(kJ/mol), strategy picks the candidate
// states on each attempt. Malformed templates fail with a ConfigError
// before any state exists.
func NewDrive(beta float64, templates []GroupTemplate, strategy proposal.Proposer, options ...*Options) (*Drive, error) {
	if beta <= 0 {
		return nil, Error{message: "beta must be positive", kind: ErrConfig}
	}
	if strategy == nil {
		return nil, Error{message: "a proposal strategy is required", kind: ErrConfig}
	}
	D := new(Drive)
	D.beta = beta
	D.prop = strategy
	if len(options) > 0 && options[0] != nil {
		D.o = options[0]
	} else {
		D.o = DefaultOptions()
	}
	D.groups = make([]*TitratableGroup, 0, len(templates))
	for i := range templates {
		G, err := buildGroup(&templates[i])
		if err != nil {
			return nil, errDecorate(err, "NewDrive")
		}
		D.groups = append(D.groups, G)
	}
	D.src = rand.NewSource(D.o.seed)
	D.r = rand.New(D.src)
	return D, nil
}

// SetSwapper attaches a charge-compensation strategy. Without one, moves
// that change the net charge fail with a ConfigError.
func (D *Drive) SetSwapper(s saltswap.Proposer) {
	D.swap = s
}

// SetPool restricts titration attempts to the given group indices. A nil
// pool means all groups are eligible.
func (D *Drive) SetPool(indices []int) error {
	if indices == nil {
		D.pool = nil
		return nil
	}
	for _, v := range indices {
		if v < 0 || v >= len(D.groups) {
			return Error{message: "pool index out of range", kind: ErrConfig}
		}
	}
	D.pool = make([]int, len(indices))
	copy(D.pool, indices)
	return nil
}

//Registry accessors. These implement proposal.Registry and are also what
//the calibration engine reads.

// Len returns the number of registered titratable groups.
func (D *Drive) Len() int {
	return len(D.groups)
}

// Group returns the i-th titratable group. It panics if out of range.
func (D *Drive) Group(i int) *TitratableGroup {
	return D.groups[i]
}

// NumTitrationStates returns the number of titration states of the group
// i. It panics if out of range.
func (D *Drive) NumTitrationStates(i int) int {
	return len(D.groups[i].States)
}

// TitrationState returns the current state index of the group i. It panics
// if out of range.
func (D *Drive) TitrationState(i int) int {
	return D.groups[i].state
}

// SetTitrationState sets the current state of the group i without running
// any protocol. Meant for setting up initial conditions.
func (D *Drive) SetTitrationState(i, state int) error {
	if i < 0 || i >= len(D.groups) {
		return Error{message: "group index out of range", kind: ErrConfig}
	}
	if state < 0 || state >= len(D.groups[i].States) {
		return Error{message: "titration state index out of range", kind: ErrConfig}
	}
	D.groups[i].state = state
	return nil
}

// TitrationStates returns a copy of the current state index of every group.
func (D *Drive) TitrationStates() []int {
	ret := make([]int, len(D.groups))
	for i, v := range D.groups {
		ret[i] = v.state
	}
	return ret
}

// GK returns a copy of the bias free energies (zetas) of the states of the
// group i. It panics if out of range.
func (D *Drive) GK(i int) []float64 {
	ret := make([]float64, len(D.groups[i].States))
	for j, v := range D.groups[i].States {
		ret[j] = v.GK
	}
	return ret
}

// SetGK overwrites the bias free energies of the states of the group i.
// Only the calibration engine should call this.
func (D *Drive) SetGK(i int, gk []float64) error {
	if i < 0 || i >= len(D.groups) {
		return Error{message: "group index out of range", kind: ErrConfig}
	}
	if len(gk) != len(D.groups[i].States) {
		return Error{message: "wrong number of bias energies for the group", kind: ErrConfig}
	}
	for j, v := range gk {
		D.groups[i].States[j].GK = v
	}
	return nil
}

// TargetWeights returns a copy of the target sampling weights of the
// states of the group i. It panics if out of range.
func (D *Drive) TargetWeights(i int) []float64 {
	ret := make([]float64, len(D.groups[i].States))
	for j, v := range D.groups[i].States {
		ret[j] = v.TargetWeight
	}
	return ret
}

// SetTargetWeights overwrites the target sampling weights of the states of
// the group i. The weights must sum to 1.
func (D *Drive) SetTargetWeights(i int, w []float64) error {
	if i < 0 || i >= len(D.groups) {
		return Error{message: "group index out of range", kind: ErrConfig}
	}
	if len(w) != len(D.groups[i].States) {
		return Error{message: "wrong number of target weights for the group", kind: ErrConfig}
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return Error{message: "target weights should sum to 1.0", kind: ErrConfig}
	}
	for j, v := range w {
		D.groups[i].States[j].TargetWeight = v
	}
	return nil
}

// Attempted returns the number of titration attempts made so far.
func (D *Drive) Attempted() int {
	return D.nattempted
}

// Accepted returns the number of titration attempts accepted so far.
func (D *Drive) Accepted() int {
	return D.naccepted
}

// Beta returns the inverse thermal energy of the Drive, in 1/(kJ/mol).
func (D *Drive) Beta() float64 {
	return D.beta
}

// Update performs nAttempts (default 1) independent titration attempts
// against the engine ctx. Each attempt fully completes before the next
// begins. On any engine failure mid-protocol the attempt is reverted, the
// engine left exactly as before the attempt, and the error returned.
func (D *Drive) Update(ctx Engine, nAttempts ...int) error {
	n := 1
	if len(nAttempts) > 0 && nAttempts[0] > 0 {
		n = nAttempts[0]
	}
	for i := 0; i < n; i++ {
		if err := D.attempt(ctx); err != nil {
			return errDecorate(err, "Update")
		}
	}
	return nil
}

// attempt runs one full propose/switch/accept-or-revert cycle.
func (D *Drive) attempt(ctx Engine) error {
	pool := D.pool
	if pool == nil {
		pool = make([]int, len(D.groups))
		for i := range pool {
			pool[i] = i
		}
	}
	prop, err := D.prop.Propose(D.src, D, pool)
	if err != nil {
		return errDecorate(err, "attempt")
	}
	changed := make([]int, 0, len(prop.Selected))
	for _, g := range prop.Selected {
		if prop.FinalStates[g] != D.groups[g].state {
			changed = append(changed, g)
		}
	}
	D.nattempted++
	if len(changed) == 0 {
		//A self-transition: nothing to switch, zero work, always accepted.
		D.naccepted++
		return nil
	}
	snap, err := D.snapshot(ctx, changed)
	if err != nil {
		return errDecorate(err, "attempt")
	}
	//Charge compensation comes before the switching protocol, so its ion
	//identities are in place while the work is accumulated.
	saltRatio := 0.0
	qi, qf := 0, 0
	for _, g := range changed {
		qi += D.groups[g].States[D.groups[g].state].Charge
		qf += D.groups[g].States[prop.FinalStates[g]].Charge
	}
	if qi != qf {
		exch, ok := ctx.(IonExchanger)
		if !ok || D.swap == nil {
			return Error{message: "the move changes the net charge but no swapper/exchanger is available", kind: ErrConfig}
		}
		plan, err := D.swap.Propose(D.src, exch, D.beta, qi, qf)
		if err != nil {
			//Nothing has been applied yet; the attempt aborts cleanly.
			return errDecorate(err, "attempt")
		}
		for i, idx := range plan.Indices {
			if err := exch.SetIdentity(idx, plan.Pairs[i][1]); err != nil {
				D.restore(ctx, snap)
				return errDecorate(err, "attempt")
			}
		}
		saltRatio = plan.LogRatio
	}
	work, err := D.switchStates(ctx, changed, prop.FinalStates)
	if err != nil {
		//A half-applied protocol corrupts every later energy evaluation,
		//so the engine is restored before the error is surfaced.
		D.restore(ctx, snap)
		return errDecorate(err, "attempt")
	}
	logAccept := -work + prop.LogRatio + saltRatio
	for _, g := range changed {
		logAccept += D.groups[g].States[D.groups[g].state].GK - D.groups[g].States[prop.FinalStates[g]].GK
	}
	if logAccept >= 0 || D.r.Float64() < math.Exp(logAccept) {
		for _, g := range changed {
			D.groups[g].state = prop.FinalStates[g]
		}
		D.naccepted++
		return nil
	}
	D.restore(ctx, snap)
	return nil
}

// switchStates interpolates the engine from the current states of the
// changed groups to the final ones and returns the accumulated protocol
// work, reduced (beta*energy). The work comes exclusively from the energy
// change of each parameter perturbation; the dynamics substeps between
// perturbations contribute nothing to it, and their order must not change.
func (D *Drive) switchStates(ctx Engine, changed []int, final []int) (float64, error) {
	if D.o.instantaneous {
		e0, err := ctx.PotentialEnergy()
		if err != nil {
			return 0, errDecorate(err, "switchStates")
		}
		if err := D.applyParams(ctx, changed, final, 1.0); err != nil {
			return 0, errDecorate(err, "switchStates")
		}
		if err := D.applyBonded(ctx, changed, final); err != nil {
			return 0, errDecorate(err, "switchStates")
		}
		e1, err := ctx.PotentialEnergy()
		if err != nil {
			return 0, errDecorate(err, "switchStates")
		}
		return D.beta * (e1 - e0), nil
	}
	work := 0.0
	for t := 1; t <= D.o.nsteps; t++ {
		lambda := float64(t) / float64(D.o.nsteps)
		e0, err := ctx.PotentialEnergy()
		if err != nil {
			return 0, errDecorate(err, "switchStates")
		}
		if err := D.applyParams(ctx, changed, final, lambda); err != nil {
			return 0, errDecorate(err, "switchStates")
		}
		if t == 1 {
			//Bonded terms are not interpolated; their energy change enters
			//the work through the first perturbation.
			if err := D.applyBonded(ctx, changed, final); err != nil {
				return 0, errDecorate(err, "switchStates")
			}
		}
		e1, err := ctx.PotentialEnergy()
		if err != nil {
			return 0, errDecorate(err, "switchStates")
		}
		work += D.beta * (e1 - e0)
		if err := ctx.Step(D.o.propagations); err != nil {
			return 0, errDecorate(err, "switchStates")
		}
	}
	return work, nil
}

// applyParams writes the nonbonded parameters of the changed groups at the
// interpolation fraction lambda between their current and final states.
func (D *Drive) applyParams(ctx Engine, changed []int, final []int, lambda float64) error {
	for _, g := range changed {
		G := D.groups[g]
		old := G.States[G.state].Params
		next := G.States[final[g]].Params
		for k, atom := range G.Atoms {
			p := NonbondedParam{
				Charge:  old[k].Charge + lambda*(next[k].Charge-old[k].Charge),
				Sigma:   old[k].Sigma + lambda*(next[k].Sigma-old[k].Sigma),
				Epsilon: old[k].Epsilon + lambda*(next[k].Epsilon-old[k].Epsilon),
			}
			if err := ctx.SetNonbonded(atom, p); err != nil {
				return errDecorate(err, "applyParams")
			}
		}
	}
	return nil
}

// applyBonded writes the bonded parameters of the final states of the
// changed groups, for groups that carry any.
func (D *Drive) applyBonded(ctx Engine, changed []int, final []int) error {
	for _, g := range changed {
		terms := D.groups[g].States[final[g]].Bonded
		if terms == nil {
			continue
		}
		bs, ok := ctx.(BondedSetter)
		if !ok {
			return Error{message: "a titration state carries bonded terms but the engine can't set them", kind: ErrConfig}
		}
		for _, b := range terms {
			if err := bs.SetBonded(b.Term, b.K, b.Eq); err != nil {
				return errDecorate(err, "applyBonded")
			}
		}
	}
	return nil
}

// engineState is everything an attempt may mutate in the engine, saved
// before the first mutation so any path out of the attempt can restore the
// engine bit-identically.
type engineState struct {
	pos, vel   *mat.Dense
	params     map[int]NonbondedParam
	bonded     map[int][2]float64
	identities []int
}

// snapshot saves positions, velocities, the nonbonded parameters of every
// atom of the changed groups, their bonded terms, and the exchangeable
// identities when the engine tracks them.
func (D *Drive) snapshot(ctx Engine, changed []int) (*engineState, error) {
	s := new(engineState)
	n := ctx.Len()
	s.pos = mat.NewDense(n, 3, nil)
	s.vel = mat.NewDense(n, 3, nil)
	if err := ctx.Positions(s.pos); err != nil {
		return nil, errDecorate(err, "snapshot")
	}
	if err := ctx.Velocities(s.vel); err != nil {
		return nil, errDecorate(err, "snapshot")
	}
	s.params = make(map[int]NonbondedParam)
	s.bonded = make(map[int][2]float64)
	for _, g := range changed {
		G := D.groups[g]
		for _, atom := range G.Atoms {
			s.params[atom] = ctx.Nonbonded(atom)
		}
		for _, st := range G.States {
			if st.Bonded == nil {
				continue
			}
			bs, ok := ctx.(BondedSetter)
			if !ok {
				return nil, Error{message: "a titration state carries bonded terms but the engine can't set them", kind: ErrConfig}
			}
			for _, b := range st.Bonded {
				if _, saved := s.bonded[b.Term]; !saved {
					k, eq := bs.Bonded(b.Term)
					s.bonded[b.Term] = [2]float64{k, eq}
				}
			}
		}
	}
	if exch, ok := ctx.(IonExchanger); ok {
		s.identities = exch.IdentityVector()
	}
	return s, nil
}

// restore puts the engine back into the snapshotted state. Restoration
// failures are defects in the engine, not recoverable conditions, so they
// panic.
func (D *Drive) restore(ctx Engine, s *engineState) {
	if err := ctx.SetPositions(s.pos); err != nil {
		panic("constph: engine refused to restore positions: " + err.Error())
	}
	if err := ctx.SetVelocities(s.vel); err != nil {
		panic("constph: engine refused to restore velocities: " + err.Error())
	}
	for atom, p := range s.params {
		if err := ctx.SetNonbonded(atom, p); err != nil {
			panic("constph: engine refused to restore nonbonded parameters: " + err.Error())
		}
	}
	if len(s.bonded) > 0 {
		bs := ctx.(BondedSetter) //snapshot already checked this
		for term, keq := range s.bonded {
			if err := bs.SetBonded(term, keq[0], keq[1]); err != nil {
				panic("constph: engine refused to restore bonded parameters: " + err.Error())
			}
		}
	}
	if s.identities != nil {
		exch := ctx.(IonExchanger)
		current := exch.IdentityVector()
		for i, v := range s.identities {
			if current[i] != v {
				if err := exch.SetIdentity(i, saltswap.Kind(v)); err != nil {
					panic("constph: engine refused to restore ion identities: " + err.Error())
				}
			}
		}
	}
}

// ReducedPotentials evaluates the reduced potential (beta*energy) of every
// titration state of the group i at the engine's current configuration,
// restoring the current parameters afterwards. Both the nonbonded and the
// bonded parameters of each state are applied for its evaluation. The
// calibration engine uses these for its global update scheme.
func (D *Drive) ReducedPotentials(ctx Engine, i int) ([]float64, error) {
	if i < 0 || i >= len(D.groups) {
		return nil, Error{message: "group index out of range", kind: ErrConfig}
	}
	G := D.groups[i]
	saved := make(map[int]NonbondedParam)
	for _, atom := range G.Atoms {
		saved[atom] = ctx.Nonbonded(atom)
	}
	savedBonded := make(map[int][2]float64)
	var bs BondedSetter
	for _, st := range G.States {
		if st.Bonded == nil {
			continue
		}
		var ok bool
		bs, ok = ctx.(BondedSetter)
		if !ok {
			return nil, Error{message: "a titration state carries bonded terms but the engine can't set them", kind: ErrConfig}
		}
		for _, b := range st.Bonded {
			if _, done := savedBonded[b.Term]; !done {
				k, eq := bs.Bonded(b.Term)
				savedBonded[b.Term] = [2]float64{k, eq}
			}
		}
	}
	resetBonded := func() error {
		for term, keq := range savedBonded {
			if err := bs.SetBonded(term, keq[0], keq[1]); err != nil {
				return err
			}
		}
		return nil
	}
	restoreEngine := func() {
		for atom, p := range saved {
			if err := ctx.SetNonbonded(atom, p); err != nil {
				panic("constph: engine refused to restore nonbonded parameters: " + err.Error())
			}
		}
		if err := resetBonded(); err != nil {
			panic("constph: engine refused to restore bonded parameters: " + err.Error())
		}
	}
	u := make([]float64, len(G.States))
	for j, st := range G.States {
		for k, atom := range G.Atoms {
			if err := ctx.SetNonbonded(atom, st.Params[k]); err != nil {
				restoreEngine()
				return nil, errDecorate(err, "ReducedPotentials")
			}
		}
		//States without bonded terms of their own are evaluated at the
		//engine's current values, so any previous state's terms are undone
		//first.
		if err := resetBonded(); err != nil {
			restoreEngine()
			return nil, errDecorate(err, "ReducedPotentials")
		}
		for _, b := range st.Bonded {
			if err := bs.SetBonded(b.Term, b.K, b.Eq); err != nil {
				restoreEngine()
				return nil, errDecorate(err, "ReducedPotentials")
			}
		}
		e, err := ctx.PotentialEnergy()
		if err != nil {
			restoreEngine()
			return nil, errDecorate(err, "ReducedPotentials")
		}
		u[j] = D.beta * e
	}
	restoreEngine()
	return u, nil
}
