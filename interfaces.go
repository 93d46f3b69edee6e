/*
 * interfaces.go, part of constph
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
	"github.com/rmera/constph/saltswap"
	"gonum.org/v1/gonum/mat"
)

// Engine is the capability set this library needs from a molecular-dynamics
// engine. Coordinates and velocities are Nx3 matrices, one row per
// particle, in whatever units the engine uses; the Drive never interprets
// them, it only snapshots and restores them.
type Engine interface {

	//Len returns the number of particles in the system.
	Len() int

	//Positions copies the current positions into dst, which must be
	//Len() x 3.
	Positions(dst *mat.Dense) error

	//SetPositions overwrites the current positions with src.
	SetPositions(src *mat.Dense) error

	//Velocities copies the current velocities into dst.
	Velocities(dst *mat.Dense) error

	//SetVelocities overwrites the current velocities with src.
	SetVelocities(src *mat.Dense) error

	//Nonbonded returns the nonbonded parameters of the particle i.
	//Should panic if out of range.
	Nonbonded(i int) NonbondedParam

	//SetNonbonded sets the nonbonded parameters of the particle i.
	SetNonbonded(i int, p NonbondedParam) error

	//PotentialEnergy evaluates the potential energy for the current
	//positions and parameters, in the engine's energy units.
	PotentialEnergy() (float64, error)

	//Step advances the dynamics by n integration steps.
	Step(n int) error
}

// BondedSetter is implemented by engines that expose per-term bonded
// parameters. It is only required when a titration state carries bonded
// terms.
type BondedSetter interface {

	//Bonded returns the force constant and equilibrium value of the
	//bonded term i. Should panic if out of range.
	Bonded(i int) (k, eq float64)

	//SetBonded sets the force constant and equilibrium value of the
	//bonded term i.
	SetBonded(i int, k, eq float64) error
}

// IonExchanger is implemented by engines that track exchangeable
// water/ion entities, which is what makes charge-compensating swaps
// possible. The identity vector uses the saltswap kind convention
// (0 water, 1 cation, 2 anion).
type IonExchanger interface {

	//IdentityVector returns a copy of the per-entity kind vector.
	IdentityVector() []int

	//SetIdentity sets the kind of the exchangeable entity i.
	SetIdentity(i int, kind saltswap.Kind) error

	//ChemicalPotential returns the cost of converting a water pair into
	//an ion pair, possibly carrying units.
	ChemicalPotential() saltswap.ChemPot
}

//Errors

// ErrorDeco is the goChem-style error interface implemented by the errors
// of this module's packages. The Decorate method adds and retrieves caller
// information without changing the error's type.
type ErrorDeco interface {
	Error() string
	Decorate(string) []string
}
