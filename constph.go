/*
 * constph.go, part of constph
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
)

/**Note: As in goChem, several "fundamental" accessors here panic instead of
 * returning errors. If an index is out of range in these, the program is
 * way-most likely wrong and should crash. Operational failures (engine
 * errors, malformed input) return errors instead.**/

// NonbondedParam holds the per-particle nonbonded parameters that get
// interpolated during a switching protocol.
type NonbondedParam struct {
	Charge  float64
	Sigma   float64
	Epsilon float64
}

// BondedParam holds the parameters of one bonded term, identified by the
// engine's term index. Only the force constant and equilibrium value are
// kept, which covers bonds and angles alike.
type BondedParam struct {
	Term int
	K    float64
	Eq   float64
}

// TitrationState is one discrete protonation/tautomer form of a titratable
// group. GK is the bias free energy (the SAMS zeta) and is the only field
// mutated after construction, by the calibration engine through the Drive.
type TitrationState struct {
	GK            float64
	LogPopulation float64
	TargetWeight  float64
	Charge        int
	Params        []NonbondedParam //one per atom of the group, in group order
	Bonded        []BondedParam    //may be nil
}

// TitratableGroup is a set of atoms capable of occupying one of several
// discrete titration states. Exactly one state is current at any time.
type TitratableGroup struct {
	Residue int //unique residue index
	Atoms   []int
	Names   []string //atom names, parallel to Atoms. May be nil.
	States  []*TitrationState
	state   int
}

// State returns the index of the current titration state of the group.
func (G *TitratableGroup) State() int {
	return G.state
}

// NStates returns the number of titration states of the group.
func (G *TitratableGroup) NStates() int {
	return len(G.States)
}

// Charge returns the net formal charge of the group in the state i.
// It panics if i is out of range.
func (G *TitratableGroup) Charge(i int) int {
	return G.States[i].Charge
}

// ProtonCount returns the number of titratable protons the group carries in
// the state i, derived from the net charges: the state with the lowest
// charge carries zero. It panics if i is out of range.
func (G *TitratableGroup) ProtonCount(i int) int {
	min := G.States[0].Charge
	for _, v := range G.States {
		if v.Charge < min {
			min = v.Charge
		}
	}
	return G.States[i].Charge - min
}

// A StateTemplate describes one titration state as read from a force-field
// template. It is treated as pre-validated input; NewDrive only checks its
// shape, not its chemistry.
type StateTemplate struct {
	Charge     int
	Population float64 //equilibrium population prior, must be positive
	GK         float64 //initial bias, zero unless restarting a calibration
	Params     []NonbondedParam
	Bonded     []BondedParam //may be nil
}

// A GroupTemplate describes one titratable group as read from a force-field
// template: its atoms in the engine, and its states.
type GroupTemplate struct {
	Residue int
	Atoms   []int
	Names   []string //may be nil
	States  []StateTemplate
}

// buildGroup turns a template into a live group, with the prior populations
// stored as logs and equal target weights.
func buildGroup(t *GroupTemplate) (*TitratableGroup, error) {
	if len(t.States) < 1 {
		return nil, Error{message: "group template has no titration states", kind: ErrConfig}
	}
	if len(t.Atoms) < 1 {
		return nil, Error{message: "group template has no atoms", kind: ErrConfig}
	}
	if t.Names != nil && len(t.Names) != len(t.Atoms) {
		return nil, Error{message: "group template atom names don't match its atoms", kind: ErrConfig}
	}
	G := new(TitratableGroup)
	G.Residue = t.Residue
	G.Atoms = make([]int, len(t.Atoms))
	copy(G.Atoms, t.Atoms)
	if t.Names != nil {
		G.Names = make([]string, len(t.Names))
		copy(G.Names, t.Names)
	}
	G.States = make([]*TitrationState, 0, len(t.States))
	for _, st := range t.States {
		if len(st.Params) != len(t.Atoms) {
			return nil, Error{message: "state template parameters don't match the group's atoms", kind: ErrConfig}
		}
		if st.Population <= 0 {
			return nil, Error{message: "state template has a non-positive population prior", kind: ErrConfig}
		}
		S := new(TitrationState)
		S.Charge = st.Charge
		S.GK = st.GK
		S.LogPopulation = math.Log(st.Population)
		S.TargetWeight = 1.0 / float64(len(t.States))
		S.Params = make([]NonbondedParam, len(st.Params))
		copy(S.Params, st.Params)
		if st.Bonded != nil {
			S.Bonded = make([]BondedParam, len(st.Bonded))
			copy(S.Bonded, st.Bonded)
		}
		G.States = append(G.States, S)
	}
	return G, nil
}
