/*
 * saltswap_test.go, part of constph
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

package saltswap

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

//fakeExchanger holds a fixed identity vector and chemical potential.
type fakeExchanger struct {
	ident []int
	mu    ChemPot
}

func (f *fakeExchanger) IdentityVector() []int {
	ret := make([]int, len(f.ident))
	copy(ret, f.ident)
	return ret
}
func (f *fakeExchanger) ChemicalPotential() ChemPot { return f.mu }

func ident(nw, nc, na int) []int {
	ret := make([]int, 0, nw+nc+na)
	for i := 0; i < nw; i++ {
		ret = append(ret, int(Water))
	}
	for i := 0; i < nc; i++ {
		ret = append(ret, int(Cation))
	}
	for i := 0; i < na; i++ {
		ret = append(ret, int(Anion))
	}
	return ret
}

//netOfSwaps is the charge the swap counts add to the solvent.
func netOfSwaps(s *Swaps) int {
	return s.WaterToCation - s.WaterToAnion - s.CationToWater + s.AnionToWater
}

//TestChenRouxGrid checks that for every integer charge pair the reduction
//terminates, validates, and offsets the residue's charge change exactly.
func TestChenRouxGrid(Te *testing.T) {
	for qi := -4; qi <= 4; qi++ {
		for qf := -4; qf <= 4; qf++ {
			s, err := chenRoux(qi, qf)
			if err != nil {
				Te.Fatalf("chenRoux(%d,%d): %v", qi, qf, err)
			}
			if err := s.Validate(); err != nil {
				Te.Fatalf("chenRoux(%d,%d) produced an invalid plan: %v", qi, qf, err)
			}
			if net := netOfSwaps(s); net != -(qf - qi) {
				Te.Errorf("chenRoux(%d,%d): solvent charge %d doesn't offset %d", qi, qf, net, qf-qi)
			}
		}
	}
}

//TestValidate checks that conflicting swap directions are a fatal logic
//error, and single-direction plans pass.
func TestValidate(Te *testing.T) {
	bad := []Swaps{
		{WaterToCation: 1, WaterToAnion: 1},
		{CationToWater: 1, AnionToWater: 1},
		{WaterToCation: 1, CationToWater: 1},
		{WaterToAnion: 2, AnionToWater: 1},
	}
	for i, s := range bad {
		err := s.Validate()
		if err == nil {
			Te.Errorf("case %d: conflicting swaps should not validate", i)
			continue
		}
		if err.(Error).Kind() != ErrLogic {
			Te.Errorf("case %d: expected a logic error, got %v", i, err)
		}
	}
	good := []Swaps{
		{},
		{WaterToCation: 2},
		{AnionToWater: 1},
		{WaterToCation: 1, AnionToWater: 1}, //both counter a negative-going residue
	}
	for i, s := range good {
		if err := s.Validate(); err != nil {
			Te.Errorf("case %d: single-direction plan should validate: %v", i, err)
		}
	}
}

//TestProposeLogRatio checks the combinatorial selection probabilities and
//the chemical-potential work against a hand-computed value.
func TestProposeLogRatio(Te *testing.T) {
	x := &fakeExchanger{ident: ident(10, 2, 3), mu: ChemPot{Value: 5.0, Unit: Dimensionless}}
	o, err := NewOneDirectionCharge(0.6)
	if err != nil {
		Te.Fatal(err)
	}
	//0 -> -1 requires one anion-to-water conversion
	plan, err := o.Propose(rand.NewSource(1), x, 1.0, 0, -1)
	if err != nil {
		Te.Fatal(err)
	}
	if len(plan.Indices) != 1 || plan.Pairs[0] != [2]Kind{Anion, Water} {
		Te.Fatalf("expected a single anion-to-water swap, got %v", plan.Pairs)
	}
	if plan.NetChargeChange() != 1 {
		Te.Errorf("solvent charge change should be +1, got %d", plan.NetChargeChange())
	}
	//forward picks 1 of 3 anions, reverse 1 of 11 waters; the work of an
	//ion-to-water conversion is -mu*(1-cationWeight).
	want := math.Log(3.0/11.0) + 5.0*0.4
	if math.Abs(plan.LogRatio-want) > 1e-10 {
		Te.Errorf("log-ratio: expected %v, got %v", want, plan.LogRatio)
	}
}

//TestProposeNoSwap checks the symmetric no-op plan when the charge doesn't
//change.
func TestProposeNoSwap(Te *testing.T) {
	x := &fakeExchanger{ident: ident(5, 1, 1), mu: ChemPot{Value: 1.0, Unit: Dimensionless}}
	o, _ := NewOneDirectionCharge(0.5)
	plan, err := o.Propose(rand.NewSource(1), x, 1.0, -1, -1)
	if err != nil {
		Te.Fatal(err)
	}
	if !plan.Empty() || plan.LogRatio != 0 {
		Te.Errorf("equal charges should give an empty symmetric plan: %v", plan)
	}
}

//TestDepletion checks that an exhausted ion pool errs by default and is
//compensated with the opposite-charge conversion when tolerated.
func TestDepletion(Te *testing.T) {
	x := &fakeExchanger{ident: ident(10, 2, 0), mu: ChemPot{Value: 1.0, Unit: Dimensionless}}
	o, _ := NewOneDirectionCharge(0.5)
	//0 -> -1 wants an anion to remove, and there are none
	_, err := o.Propose(rand.NewSource(1), x, 1.0, 0, -1)
	if err == nil {
		Te.Fatal("a depleted anion pool should fail by default")
	}
	if err.(Error).Kind() != ErrDepletion {
		Te.Fatalf("expected a depletion error, got %v", err)
	}
	tolerant, _ := NewOneDirectionCharge(0.5, false)
	plan, err := tolerant.Propose(rand.NewSource(1), x, 1.0, 0, -1)
	if err != nil {
		Te.Fatal(err)
	}
	if len(plan.Pairs) != 1 || plan.Pairs[0] != [2]Kind{Water, Cation} {
		Te.Fatalf("expected the deficit countered by water-to-cation, got %v", plan.Pairs)
	}
	if plan.NetChargeChange() != 1 {
		Te.Errorf("compensated plan should still add +1, got %d", plan.NetChargeChange())
	}
}

//TestPropose draws many plans and checks the bookkeeping invariant: the
//plan's charge change always offsets the residue's.
func TestPropose(Te *testing.T) {
	src := rand.NewSource(4)
	x := &fakeExchanger{ident: ident(50, 10, 10), mu: ChemPot{Value: 2.0, Unit: Dimensionless}}
	o, _ := NewOneDirectionCharge(0.5)
	for qi := -3; qi <= 3; qi++ {
		for qf := -3; qf <= 3; qf++ {
			plan, err := o.Propose(src, x, 1.0, qi, qf)
			if err != nil {
				Te.Fatalf("Propose(%d,%d): %v", qi, qf, err)
			}
			if plan.NetChargeChange() != -(qf - qi) {
				Te.Errorf("Propose(%d,%d): plan adds %d, should offset %d", qi, qf, plan.NetChargeChange(), qf-qi)
			}
			seen := map[int]bool{}
			for _, idx := range plan.Indices {
				if seen[idx] {
					Te.Errorf("Propose(%d,%d): entity %d swapped twice", qi, qf, idx)
				}
				seen[idx] = true
			}
		}
	}
}

//TestChemPot checks the unit-reduction contract.
func TestChemPot(Te *testing.T) {
	beta := 0.4 //1/(kJ/mol)
	c := ChemPot{Value: 2.0, Unit: KJMol}
	v, err := c.Reduced(beta)
	if err != nil || math.Abs(v-0.8) > 1e-12 {
		Te.Errorf("kJ/mol reduction: got %v, %v", v, err)
	}
	c = ChemPot{Value: 2.0, Unit: KcalMol}
	v, err = c.Reduced(beta)
	if err != nil || math.Abs(v-2.0*4.184*0.4) > 1e-12 {
		Te.Errorf("kcal/mol reduction: got %v, %v", v, err)
	}
	c = ChemPot{Value: 2.0, Unit: Unit(99)}
	if _, err = c.Reduced(beta); err == nil {
		Te.Error("an unknown unit should not reduce")
	}
}
