/*
 * proposal.go, part of constph
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

/*Package proposal picks which titratable groups change state in a Monte
Carlo titration move, and to which candidate states. All strategies here
draw new states uniformly per selected group, so a group may be proposed
its own current state; such self-transitions are valid moves. The
strategies differ only in how many groups they select per move.*/
package proposal

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Registry is what a proposal strategy needs to know about the titratable
// groups: how many there are, how many states each has, and which state
// each occupies now. The constph Drive implements it.
type Registry interface {

	//Len returns the number of registered titratable groups.
	Len() int

	//NumTitrationStates returns the number of titration states of the
	//group i. Should panic if out of range.
	NumTitrationStates(i int) int

	//TitrationStates returns a copy of the current state index of every
	//group.
	TitrationStates() []int
}

// A Proposal is the outcome of a strategy: the final state index of every
// group (unchanged entries included), the indices of the selected groups,
// and the log of the reverse/forward proposal probability ratio. It is
// consumed immediately by the Drive and not kept.
type Proposal struct {
	FinalStates []int
	Selected    []int
	LogRatio    float64
}

// Proposer is the interface of all state-proposal strategies.
type Proposer interface {
	Propose(src rand.Source, reg Registry, pool []int) (*Proposal, error)
}

// sample draws n distinct group indices uniformly from pool. It fails with
// an InsufficientPoolError when asked for more groups than the pool holds.
func sample(r *rand.Rand, pool []int, n int) ([]int, error) {
	if n > len(pool) {
		return nil, Error{message: "asked to draw more groups than are eligible", kind: ErrInsufficientPool}
	}
	perm := r.Perm(len(pool))
	ret := make([]int, n)
	for i := 0; i < n; i++ {
		ret[i] = pool[perm[i]]
	}
	return ret, nil
}

// newStates assigns a uniformly drawn state, possibly the current one, to
// every selected group.
func newStates(r *rand.Rand, reg Registry, final []int, selected []int) {
	for _, g := range selected {
		final[g] = r.Intn(reg.NumTitrationStates(g))
	}
}

// Uniform selects exactly one group uniformly from the pool. The proposal
// is symmetric, so its log-ratio is always zero.
type Uniform struct{}

// NewUniform returns a Uniform proposal strategy.
func NewUniform() *Uniform {
	return new(Uniform)
}

// Propose picks new states for one uniformly selected group.
func (U *Uniform) Propose(src rand.Source, reg Registry, pool []int) (*Proposal, error) {
	r := rand.New(src)
	selected, err := sample(r, pool, 1)
	if err != nil {
		return nil, errDecorate(err, "Uniform.Propose")
	}
	final := reg.TitrationStates()
	newStates(r, reg, final, selected)
	return &Proposal{FinalStates: final, Selected: selected, LogRatio: 0.0}, nil
}

// Double selects one group, or, with a configured probability, two distinct
// groups, when at least two are eligible. Symmetric by construction.
type Double struct {
	simultaneous float64
}

// NewDouble returns a Double proposal strategy with the given probability
// of selecting two groups, which must be in [0,1].
func NewDouble(simultaneousProb float64) (*Double, error) {
	if simultaneousProb < 0 || simultaneousProb > 1 {
		return nil, Error{message: "the simultaneous proposal probability should be between 0 and 1", kind: ErrConfig}
	}
	return &Double{simultaneous: simultaneousProb}, nil
}

// Propose picks new states for one or two uniformly selected groups.
func (D *Double) Propose(src rand.Source, reg Registry, pool []int) (*Proposal, error) {
	r := rand.New(src)
	ndraw := 1
	if len(pool) > 1 && r.Float64() < D.simultaneous {
		ndraw = 2
	}
	selected, err := sample(r, pool, ndraw)
	if err != nil {
		return nil, errDecorate(err, "Double.Propose")
	}
	final := reg.TitrationStates()
	newStates(r, reg, final, selected)
	return &Proposal{FinalStates: final, Selected: selected, LogRatio: 0.0}, nil
}

// Categorical draws the number of groups to update from a user-supplied
// categorical distribution p_N over {1..N}, then selects that many distinct
// groups uniformly. When the pool is smaller than the drawn count, the
// draw degenerates to the pool size, so a pool of one behaves like Uniform.
type Categorical struct {
	pN []float64
}

// NewCategorical returns a Categorical proposal strategy. pN[i] is the
// probability of updating i+1 groups; the probabilities must sum to 1.
func NewCategorical(pN []float64) (*Categorical, error) {
	if len(pN) == 0 {
		return nil, Error{message: "p_N is empty", kind: ErrConfig}
	}
	sum := 0.0
	for _, v := range pN {
		if v < 0 {
			return nil, Error{message: "p_N contains a negative probability", kind: ErrConfig}
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, Error{message: "p_N should sum to 1.0", kind: ErrConfig}
	}
	C := new(Categorical)
	C.pN = make([]float64, len(pN))
	copy(C.pN, pN)
	return C, nil
}

// Propose draws the group count from p_N and picks new states for that
// many uniformly selected groups.
func (C *Categorical) Propose(src rand.Source, reg Registry, pool []int) (*Proposal, error) {
	if len(pool) == 0 {
		return nil, Error{message: "asked to draw more groups than are eligible", kind: ErrInsufficientPool}
	}
	r := rand.New(src)
	dist := distuv.NewCategorical(C.pN, src)
	ndraw := int(dist.Rand()) + 1
	if ndraw > len(pool) {
		ndraw = len(pool)
	}
	selected, err := sample(r, pool, ndraw)
	if err != nil {
		return nil, errDecorate(err, "Categorical.Propose")
	}
	final := reg.TitrationStates()
	newStates(r, reg, final, selected)
	return &Proposal{FinalStates: final, Selected: selected, LogRatio: 0.0}, nil
}
