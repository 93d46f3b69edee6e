/*
 * saltswap.go, part of constph
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

/*Package saltswap selects water/ion identity swaps that keep the total
charge of the system invariant when a titration move changes the charge of
a residue. The selection, its forward/reverse proposal probabilities and
the chemical-potential work follow the one-direction scheme of Chen and
Roux (2015), so no opposite-charge ion pair is ever created within a single
plan.*/
package saltswap

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/combin"
)

// Kind is the identity of an exchangeable entity.
type Kind int

const (
	Water Kind = iota
	Cation
	Anion
)

func (k Kind) String() string {
	switch k {
	case Water:
		return "water"
	case Cation:
		return "cation"
	case Anion:
		return "anion"
	}
	return "unknown"
}

// Unit is the unit carried by a chemical potential.
type Unit int

const (
	Dimensionless Unit = iota
	KJMol
	KcalMol
)

const kcal2KJ = 4.184 //same factor as goChem's conversion table

// ChemPot is the energy cost of converting a water pair into an ion pair.
// It may carry physical units, in which case it must be reduced with the
// inverse thermal energy before entering any acceptance ratio.
type ChemPot struct {
	Value float64
	Unit  Unit
}

// Reduced returns the dimensionless (beta*energy) chemical potential.
// beta must be in 1/(kJ/mol). A ChemPot whose unit cannot be reduced to a
// dimensionless quantity is a configuration error.
func (c ChemPot) Reduced(beta float64) (float64, error) {
	switch c.Unit {
	case Dimensionless:
		return c.Value, nil
	case KJMol:
		return c.Value * beta, nil
	case KcalMol:
		return c.Value * kcal2KJ * beta, nil
	}
	return 0, Error{message: "chemical potential has irreducible units", kind: ErrConfig}
}

// Exchanger exposes the exchangeable-entity state of the simulation to a
// swap strategy: the current kind of every entity and the chemical
// potential of a water-pair to ion-pair conversion.
type Exchanger interface {
	IdentityVector() []int
	ChemicalPotential() ChemPot
}

// A Plan is the outcome of a swap proposal: which entities change identity,
// from what to what, and the log proposal-ratio contribution (including the
// negative chemical-potential work) to the move's acceptance test.
type Plan struct {
	Indices  []int
	Pairs    [][2]Kind
	LogRatio float64
}

// Empty returns whether the plan contains no swaps at all.
func (P *Plan) Empty() bool {
	return len(P.Indices) == 0
}

// Swaps counts the single-step conversions a plan is built from.
type Swaps struct {
	WaterToCation int
	WaterToAnion  int
	CationToWater int
	AnionToWater  int
}

// Validate checks that the swap counts only move charge in one direction.
// A violation means the caller built an impossible plan, which is a defect,
// so the returned error is a LogicError and must not be ignored.
func (s *Swaps) Validate() error {
	if s.WaterToCation < 0 || s.WaterToAnion < 0 || s.CationToWater < 0 || s.AnionToWater < 0 {
		return Error{message: "negative swap count", kind: ErrLogic}
	}
	if s.WaterToCation != 0 && s.WaterToAnion != 0 {
		return Error{message: "opposing charge ions are added, this is a bug in the caller", kind: ErrLogic}
	}
	if s.CationToWater != 0 && s.AnionToWater != 0 {
		return Error{message: "opposing charge ions are removed, this is a bug in the caller", kind: ErrLogic}
	}
	if s.CationToWater != 0 && s.WaterToCation != 0 {
		return Error{message: "cations are added and removed at the same time, this is a bug in the caller", kind: ErrLogic}
	}
	if s.AnionToWater != 0 && s.WaterToAnion != 0 {
		return Error{message: "anions are added and removed at the same time, this is a bug in the caller", kind: ErrLogic}
	}
	return nil
}

// Proposer is the interface of all swap strategies: given the exchangeable
// state and the net charge of the changing residues before and after the
// titration move, produce a Plan that offsets the charge difference.
type Proposer interface {
	Propose(src rand.Source, x Exchanger, beta float64, initialCharge, finalCharge int) (*Plan, error)
}

// OneDirectionCharge is the Chen-Roux swap strategy. The fraction of the
// chemical potential attributed to the cation half of a conversion is the
// cation coefficient; the anion half gets the rest.
type OneDirectionCharge struct {
	cationWeight   float64
	anionWeight    float64
	errOnDepletion bool
}

// NewOneDirectionCharge returns a OneDirectionCharge strategy with the
// given cation coefficient, which must be in [0,1]. If errOnDepletion
// (default true) is false, a depleted ion pool is compensated with
// opposite-charge conversions instead of failing; see Propose.
func NewOneDirectionCharge(cationCoefficient float64, errOnDepletion ...bool) (*OneDirectionCharge, error) {
	if cationCoefficient < 0 || cationCoefficient > 1 {
		return nil, Error{message: "the cation coefficient should be between 0 and 1", kind: ErrConfig}
	}
	ret := new(OneDirectionCharge)
	ret.cationWeight = cationCoefficient
	ret.anionWeight = 1.0 - cationCoefficient
	ret.errOnDepletion = true
	if len(errOnDepletion) > 0 {
		ret.errOnDepletion = errOnDepletion[0]
	}
	return ret, nil
}

// chenRoux decomposes a net charge change into single-step conversions.
// Each loop iteration counters exactly one unit of charge, so the loop
// terminates for any integer pair. The final else branch is unreachable
// for valid integers; reaching it is a defect.
func chenRoux(initialCharge, finalCharge int) (*Swaps, error) {
	s := new(Swaps)
	toCounter := finalCharge - initialCharge
	for abs(toCounter) > 0 {
		switch {
		//the state change annihilates a positive charge
		case (initialCharge > 0 && finalCharge <= 0) || (0 < finalCharge && finalCharge < initialCharge):
			s.WaterToCation++
			toCounter++
			initialCharge--
		//the state change annihilates a negative charge
		case (initialCharge < 0 && finalCharge >= 0) || (0 > finalCharge && finalCharge > initialCharge):
			s.WaterToAnion++
			toCounter--
			initialCharge++
		//the state change adds a negative charge
		case (initialCharge == 0 && finalCharge < 0) || (0 > initialCharge && initialCharge > finalCharge):
			s.AnionToWater++
			toCounter++
			initialCharge--
		//the state change adds a positive charge
		case (initialCharge == 0 && finalCharge > 0) || (0 < initialCharge && initialCharge < finalCharge):
			s.CationToWater++
			toCounter--
			initialCharge++
		default:
			return nil, Error{message: "charge reduction reached an impossible scenario", kind: ErrLogic}
		}
	}
	return s, nil
}

// Propose selects water molecules and ions to swap, uniformly without
// replacement from the pools of their current kind. If a pool cannot
// satisfy its conversion count the strategy fails with a DepletionError,
// unless depletion tolerance was requested at construction, in which case
// the deficit is countered with opposite-charge water-to-ion conversions
// (which changes the ionic strength; the default therefore is to fail).
func (O *OneDirectionCharge) Propose(src rand.Source, x Exchanger, beta float64, initialCharge, finalCharge int) (*Plan, error) {
	plan := new(Plan)
	plan.Indices = make([]int, 0, 2)
	plan.Pairs = make([][2]Kind, 0, 2)
	if finalCharge == initialCharge {
		return plan, nil //fully symmetrical proposal, nothing to swap
	}
	mu, err := x.ChemicalPotential().Reduced(beta)
	if err != nil {
		return nil, errDecorate(err, "Propose")
	}
	swaps, err := chenRoux(initialCharge, finalCharge)
	if err != nil {
		return nil, errDecorate(err, "Propose")
	}
	if err := swaps.Validate(); err != nil {
		return nil, errDecorate(err, "Propose")
	}
	ident := x.IdentityVector()
	waters := poolOf(ident, Water)
	cations := poolOf(ident, Cation)
	anions := poolOf(ident, Anion)
	if !O.errOnDepletion {
		var err error
		swaps, err = O.compensateDepletion(swaps, len(cations), len(anions))
		if err != nil {
			return nil, errDecorate(err, "Propose")
		}
	}
	r := rand.New(src)
	//Each conversion type is independent for the purpose of the proposal
	//probabilities. The validation above guarantees the same entity is
	//never drawn for two conflicting conversions.
	if swaps.WaterToCation > 0 {
		err = O.convert(r, plan, waters, len(cations), swaps.WaterToCation, Water, Cation, mu*O.cationWeight)
		if err != nil {
			return nil, errDecorate(err, "Propose")
		}
	}
	if swaps.WaterToAnion > 0 {
		err = O.convert(r, plan, waters, len(anions), swaps.WaterToAnion, Water, Anion, mu*O.anionWeight)
		if err != nil {
			return nil, errDecorate(err, "Propose")
		}
	}
	if swaps.CationToWater > 0 {
		err = O.convert(r, plan, cations, len(waters), swaps.CationToWater, Cation, Water, -mu*O.cationWeight)
		if err != nil {
			return nil, errDecorate(err, "Propose")
		}
	}
	if swaps.AnionToWater > 0 {
		err = O.convert(r, plan, anions, len(waters), swaps.AnionToWater, Anion, Water, -mu*O.anionWeight)
		if err != nil {
			return nil, errDecorate(err, "Propose")
		}
	}
	return plan, nil
}

// convert draws m entities from pool, appends the identity changes to the
// plan, and folds the selection probabilities and the reduced work into the
// plan's log-ratio. npoolReverse is the size of the destination-kind pool
// before the conversion.
func (O *OneDirectionCharge) convert(r *rand.Rand, plan *Plan, pool []int, npoolReverse, m int, from, to Kind, work float64) error {
	if len(pool) < m {
		return Error{message: "not enough " + from.String() + " entities to swap", kind: ErrDepletion}
	}
	picks := r.Perm(len(pool))[0:m]
	for _, p := range picks {
		plan.Indices = append(plan.Indices, pool[p])
		plan.Pairs = append(plan.Pairs, [2]Kind{from, to})
	}
	//Forward: from the pool of the current kind, choose m, probability
	//1/C(npool,m). Reverse: from the destination pool plus the m converted
	//entities, choose m, probability 1/C(npoolReverse+m,m).
	logPForward := -combin.LogGeneralizedBinomial(float64(len(pool)), float64(m))
	logPReverse := -combin.LogGeneralizedBinomial(float64(npoolReverse+m), float64(m))
	plan.LogRatio += logPReverse - logPForward
	//The work of the conversions appears in the acceptance exponent as
	//negative work, hence the subtraction.
	plan.LogRatio -= work * float64(m)
	return nil
}

// compensateDepletion rewrites the swap counts when an ion pool cannot
// satisfy its ion-to-water count: the deficit is countered by creating the
// opposite-charge ion from water instead. The rewritten counts are
// re-validated; a conflict after rewriting still fails, as depletion.
func (O *OneDirectionCharge) compensateDepletion(s *Swaps, ncations, nanions int) (*Swaps, error) {
	ret := *s
	if ret.CationToWater > ncations {
		deficit := ret.CationToWater - ncations
		ret.CationToWater = ncations
		ret.WaterToAnion += deficit
	}
	if ret.AnionToWater > nanions {
		deficit := ret.AnionToWater - nanions
		ret.AnionToWater = nanions
		ret.WaterToCation += deficit
	}
	if err := ret.Validate(); err != nil {
		return nil, Error{message: "depletion cannot be compensated without conflicting swaps", kind: ErrDepletion}
	}
	return &ret, nil
}

// NetChargeChange returns the total charge added to the exchangeable
// entities by the plan. For a valid plan it offsets the titration move's
// charge change exactly.
func (P *Plan) NetChargeChange() int {
	net := 0
	for _, pair := range P.Pairs {
		net += kindCharge(pair[1]) - kindCharge(pair[0])
	}
	return net
}

func kindCharge(k Kind) int {
	switch k {
	case Cation:
		return 1
	case Anion:
		return -1
	}
	return 0
}

func poolOf(ident []int, k Kind) []int {
	ret := make([]int, 0, len(ident))
	for i, v := range ident {
		if Kind(v) == k {
			ret = append(ret, i)
		}
	}
	return ret
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
