// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Features slices each conditioned run matrix to the given member columns
// and drops degenerate members: those whose summed absolute value pooled
// across all runs is <= eps (near-zero, invariant features).  Returns the
// filtered per-run feature matrices and the retained member column
// indices; nil, nil when no members survive.  Fully masked (nil) runs stay
// nil placeholders.
func Features(runs []*mat.Dense, members []int, eps float64) ([]*mat.Dense, []int) {
	nm := len(members)
	if nm == 0 {
		return nil, nil
	}
	sums := make([]float64, nm)
	for _, m := range runs {
		if m == nil {
			continue
		}
		nr, _ := m.Dims()
		for i := 0; i < nr; i++ {
			for mi, mc := range members {
				sums[mi] += math.Abs(m.At(i, mc))
			}
		}
	}
	kept := make([]int, 0, nm)
	for mi, mc := range members {
		if sums[mi] > eps {
			kept = append(kept, mc)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}
	out := make([]*mat.Dense, len(runs))
	for ri, m := range runs {
		if m == nil {
			continue
		}
		nr, _ := m.Dims()
		fm := mat.NewDense(nr, len(kept), nil)
		for i := 0; i < nr; i++ {
			for ki, kc := range kept {
				fm.Set(i, ki, m.At(i, kc))
			}
		}
		out[ri] = fm
	}
	return out, kept
}
