/*
 * sams_test.go, part of constph
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

package sams

import (
	"math"
	"testing"

	"github.com/rmera/constph"
	"github.com/rmera/constph/pops"
	"github.com/rmera/constph/proposal"
	"gonum.org/v1/gonum/mat"
)

//flatEngine is a minimal engine whose potential energy is linear in the
//particle charges, which is all the global scheme evaluates.
type flatEngine struct {
	n      int
	pos    *mat.Dense
	vel    *mat.Dense
	params []constph.NonbondedParam
	escale float64
}

func newFlatEngine(n int, escale float64) *flatEngine {
	E := new(flatEngine)
	E.n = n
	E.pos = mat.NewDense(n, 3, nil)
	E.vel = mat.NewDense(n, 3, nil)
	E.params = make([]constph.NonbondedParam, n)
	E.escale = escale
	return E
}

func (E *flatEngine) Len() int { return E.n }

func (E *flatEngine) Positions(dst *mat.Dense) error {
	dst.Copy(E.pos)
	return nil
}

func (E *flatEngine) SetPositions(src *mat.Dense) error {
	E.pos.Copy(src)
	return nil
}

func (E *flatEngine) Velocities(dst *mat.Dense) error {
	dst.Copy(E.vel)
	return nil
}

func (E *flatEngine) SetVelocities(src *mat.Dense) error {
	E.vel.Copy(src)
	return nil
}

func (E *flatEngine) Nonbonded(i int) constph.NonbondedParam { return E.params[i] }

func (E *flatEngine) SetNonbonded(i int, p constph.NonbondedParam) error {
	E.params[i] = p
	return nil
}

func (E *flatEngine) PotentialEnergy() (float64, error) {
	e := 0.0
	for _, p := range E.params {
		e += E.escale * p.Charge
	}
	return e, nil
}

func (E *flatEngine) Step(n int) error { return nil }

//twoStateDrive builds a drive with a single two-state group on atoms 0 and
//1. dq shifts the second state's charge on atom 0, so equal-energy states
//come from dq=0.
func twoStateDrive(Te *testing.T, dq float64) *constph.Drive {
	t := []constph.GroupTemplate{
		{
			Residue: 1,
			Atoms:   []int{0, 1},
			States: []constph.StateTemplate{
				{Charge: 0, Population: 0.5, Params: []constph.NonbondedParam{{Charge: 0.1}, {Charge: -0.1}}},
				{Charge: 0, Population: 0.5, Params: []constph.NonbondedParam{{Charge: 0.1 + dq}, {Charge: -0.1}}},
			},
		},
	}
	d, err := constph.NewDrive(0.4, t, proposal.NewUniform())
	if err != nil {
		Te.Fatal(err)
	}
	return d
}

//TestNew checks the group-index validation.
func TestNew(Te *testing.T) {
	d := twoStateDrive(Te, 0)
	if _, err := New(d, 3); err == nil {
		Te.Error("an out-of-range group should not build a calibrator")
	}
	c, err := New(d)
	if err != nil {
		Te.Fatal(err)
	}
	if len(c.StateCounts()) != 2 {
		Te.Errorf("expected 2 state counters, got %d", len(c.StateCounts()))
	}
}

//TestTargetWeightsFromPH checks that a population model at a given pH sets
//the target weights of the calibrated group, and that a model with the
//wrong number of states is rejected.
func TestTargetWeightsFromPH(Te *testing.T) {
	d := twoStateDrive(Te, 0)
	c, err := New(d)
	if err != nil {
		Te.Fatal(err)
	}
	//at the pKa both states are equally populated
	if err := c.SetTargetWeightsFromPH(pops.NewLysine(pops.LysinePKa)); err != nil {
		Te.Fatal(err)
	}
	w := d.TargetWeights(0)
	if math.Abs(w[0]-0.5) > 1e-12 || math.Abs(w[1]-0.5) > 1e-12 {
		Te.Errorf("at the pKa the target weights should be even, got %v", w)
	}
	//below the pKa the protonated state dominates
	if err := c.SetTargetWeightsFromPH(pops.NewLysine(7.4)); err != nil {
		Te.Fatal(err)
	}
	w = d.TargetWeights(0)
	if w[0] < 0.99 || w[0] <= w[1] {
		Te.Errorf("below the pKa the protonated state should dominate, got %v", w)
	}
	//a 3-state histidine model doesn't fit a 2-state group
	if err := c.SetTargetWeightsFromPH(pops.NewHistidine(7.0)); err == nil {
		Te.Error("a model with the wrong number of states should not set weights")
	}
}

//TestGainValidation checks that an invalid decay factor fails with a
//config error without advancing the adaptation schedule.
func TestGainValidation(Te *testing.T) {
	c, err := New(twoStateDrive(Te, 0))
	if err != nil {
		Te.Fatal(err)
	}
	o := DefaultOptions()
	o.B(0.3)
	if _, err := c.AdaptZetas(nil, o); err == nil {
		Te.Fatal("b outside [0.5,1] should not adapt")
	} else if err.(Error).Kind() != ErrConfig {
		Te.Errorf("expected a config error, got %v", err)
	}
	if c.NAdaptations() != 0 {
		Te.Errorf("a failed adaptation advanced the schedule to %d", c.NAdaptations())
	}
}

//TestBinaryAdapt runs the binary scheme with the drive pinned to state 0
//and checks the re-centering gauge, the direction of the bias, the
//recency-weighted counts and the deviation diagnostic.
func TestBinaryAdapt(Te *testing.T) {
	d := twoStateDrive(Te, 0)
	c, err := New(d)
	if err != nil {
		Te.Fatal(err)
	}
	prev := 0.0
	wantCounts := 0.0
	for n := 1; n <= 5; n++ {
		dev, err := c.AdaptZetas(nil)
		if err != nil {
			Te.Fatal(err)
		}
		zeta := d.GK(0)
		if zeta[0] != 0 {
			Te.Fatalf("adaptation %d: zeta should be re-centered on state 0, got %v", n, zeta)
		}
		//only state 0 is ever visited, so its bias alone grows; after the
		//re-centering that shows as zeta[1] decreasing
		if zeta[1] >= prev {
			Te.Errorf("adaptation %d: zeta[1] should decrease, went %v -> %v", n, prev, zeta[1])
		}
		prev = zeta[1]
		wantCounts += math.Sqrt(float64(n))
		counts := c.StateCounts()
		if math.Abs(counts[0]-wantCounts) > 1e-12 || counts[1] != 0 {
			Te.Errorf("adaptation %d: counts should be [%v 0], got %v", n, wantCounts, counts)
		}
		//all visits on one of two equally targeted states: |0.5-1|+|0.5-0|
		if math.Abs(dev-1.0) > 1e-12 {
			Te.Errorf("adaptation %d: deviation should be 1, got %v", n, dev)
		}
	}
	if c.NAdaptations() != 5 {
		Te.Errorf("expected 5 adaptations, got %d", c.NAdaptations())
	}
}

//TestBinaryFirstStep checks the first binary update against the
//hand-computed value: update 1/pi=2 scaled by gain min(pi,1/n)=0.5.
func TestBinaryFirstStep(Te *testing.T) {
	d := twoStateDrive(Te, 0)
	c, err := New(d)
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := c.AdaptZetas(nil); err != nil {
		Te.Fatal(err)
	}
	zeta := d.GK(0)
	if math.Abs(zeta[1]-(-1.0)) > 1e-12 {
		Te.Errorf("first binary update should leave zeta [0 -1], got %v", zeta)
	}
}

//TestGlobalStationary checks the fixed point of the global scheme: with
//uniform targets, zero zetas and equal state energies the importance
//weights match the targets, so the re-centered zetas stay at zero.
func TestGlobalStationary(Te *testing.T) {
	d := twoStateDrive(Te, 0) //dq=0: both states have the same energy
	c, err := New(d)
	if err != nil {
		Te.Fatal(err)
	}
	ctx := newFlatEngine(4, 100)
	o := DefaultOptions()
	o.Scheme(Global)
	for n := 1; n <= 5; n++ {
		dev, err := c.AdaptZetas(ctx, o)
		if err != nil {
			Te.Fatal(err)
		}
		zeta := d.GK(0)
		if math.Abs(zeta[0]) > 1e-12 || math.Abs(zeta[1]) > 1e-12 {
			Te.Fatalf("adaptation %d: the stationary zetas moved to %v", n, zeta)
		}
		//the weights split evenly, so the counts match the targets exactly
		if math.Abs(dev) > 1e-12 {
			Te.Errorf("adaptation %d: deviation should vanish, got %v", n, dev)
		}
	}
	counts := c.StateCounts()
	if math.Abs(counts[0]-counts[1]) > 1e-12 {
		Te.Errorf("stationary counts should be even, got %v", counts)
	}
}

//TestGlobalDirection checks the direction of the global update when one
//state is lower in energy: its importance weight exceeds the target, so
//its bias grows relative to the other state's, countering the energetic
//preference in the acceptance rule.
func TestGlobalDirection(Te *testing.T) {
	d := twoStateDrive(Te, -0.1) //state 1 is 10 kJ/mol (4 kT) downhill
	c, err := New(d)
	if err != nil {
		Te.Fatal(err)
	}
	ctx := newFlatEngine(4, 100)
	o := DefaultOptions()
	o.Scheme(Global)
	if _, err := c.AdaptZetas(ctx, o); err != nil {
		Te.Fatal(err)
	}
	zeta := d.GK(0)
	if zeta[0] != 0 {
		Te.Fatalf("zeta should be re-centered on state 0, got %v", zeta)
	}
	if zeta[1] <= 0 {
		Te.Errorf("the lower-energy state should gain bias, got %v", zeta)
	}
}

//TestBurnInGain checks that the burn-in gain decays as n^-b once it drops
//below the target weight.
func TestBurnInGain(Te *testing.T) {
	d := twoStateDrive(Te, 0)
	c, err := New(d)
	if err != nil {
		Te.Fatal(err)
	}
	o := DefaultOptions()
	o.Stage(BurnIn)
	o.B(1.0)
	//with b=1 the gain is min(0.5, 1/n); adaptation n moves zeta[1] by
	//-(1/pi)*min(0.5,1/n) = -2*min(0.5,1/n)
	want := 0.0
	for n := 1; n <= 4; n++ {
		if _, err := c.AdaptZetas(nil, o); err != nil {
			Te.Fatal(err)
		}
		want -= 2 * math.Min(0.5, 1/float64(n))
		if zeta := d.GK(0); math.Abs(zeta[1]-want) > 1e-12 {
			Te.Errorf("adaptation %d: expected zeta[1] %v, got %v", n, want, zeta[1])
		}
	}
}
