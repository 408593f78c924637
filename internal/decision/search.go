/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package decision

import (
	"fmt"
	"math"
)

// solveEnumeration walks every decision vector in lexicographic order with
// z=0 before z=1 and keeps the first strictly best one, so ties resolve
// toward departing.
func solveEnumeration(p *problem) (Result, error) {
	k := len(p.ids)
	if k > EnumerationLimit {
		return Result{}, fmt.Errorf("%d transfers exceeds limit %d: %w", k, EnumerationLimit, ErrTooManyTransfers)
	}

	bestObj := math.Inf(1)
	best := make([]int, k)
	bits := make([]int, k)

	for mask := 0; mask < 1<<k; mask++ {
		var obj float64
		for i := 0; i < k; i++ {
			bits[i] = (mask >> (k - 1 - i)) & 1
			obj += p.cost(i, bits[i])
		}
		if obj < bestObj {
			bestObj = obj
			copy(best, bits)
		}
	}

	res := Result{Objective: bestObj, Backend: BackendEnumeration}
	res.decisionsFrom(p.ids, best)
	return res, nil
}

// solveBranchAndBound searches decision vectors depth first, z=0 branch
// first, pruning with a relaxation bound. It visits leaves in the same
// lexicographic order as enumeration and updates the incumbent only on
// strict improvement, so the two backends return identical decisions and
// objectives on any instance both can handle.
func solveBranchAndBound(p *problem) (Result, int) {
	k := len(p.ids)

	s := &searchState{
		p:       p,
		relaxed: make([]float64, k),
		bestObj: math.Inf(1),
		best:    make([]int, k),
		bits:    make([]int, k),
	}
	for i := 0; i < k; i++ {
		s.relaxed[i] = p.relaxedMin(i)
	}

	s.dive(0, 0)

	res := Result{Objective: s.bestObj, Backend: BackendBranchAndBound}
	res.decisionsFrom(p.ids, s.best)
	return res, s.nodes
}

type searchState struct {
	p       *problem
	relaxed []float64
	bestObj float64
	best    []int
	bits    []int
	nodes   int
}

func (s *searchState) dive(i int, fixed float64) {
	s.nodes++

	if i == len(s.p.ids) {
		if fixed < s.bestObj {
			s.bestObj = fixed
			copy(s.best, s.bits)
		}
		return
	}

	// The bound accumulates left to right on top of the fixed cost, the
	// same order leaves are summed in, so float rounding can never push
	// it above a leaf it is meant to bound.
	bound := fixed
	for j := i; j < len(s.p.ids); j++ {
		bound += s.relaxed[j]
	}
	if bound >= s.bestObj {
		return
	}

	for _, z := range [2]int{0, 1} {
		s.bits[i] = z
		s.dive(i+1, fixed+s.p.cost(i, z))
	}
}

// relaxedMin is the minimum objective contribution of transfer i with its
// decision relaxed to [0,1]. The contribution is convex piecewise linear in
// z, so the minimum sits at an endpoint or at the kink where the waiting
// floor activates.
func (p *problem) relaxedMin(i int) float64 {
	m := math.Min(p.cost(i, 0), p.cost(i, 1))

	d := p.incoming[i] - p.slack[i]
	if p.bigM > 0 && d > 0 && d < p.bigM {
		if kink := p.penalty * p.load[i] * (d / p.bigM); kink < m {
			m = kink
		}
	}
	return m
}
