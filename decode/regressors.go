// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"fmt"

	"github.com/emer/searchlight/ridge"
	"gonum.org/v1/gonum/mat"
)

// ProjectOut removes from tgt, in place, the variance explainable by the
// nuisance block nuis over the same trials: tgt -= nuis * (pinv(nuis) * tgt).
// pinv(nuis) * tgt is the least squares solution, so this is the orthogonal
// projection onto the complement of the nuisance column space.
func ProjectOut(nuis, tgt *mat.Dense) error {
	nr, _ := nuis.Dims()
	tr, _ := tgt.Dims()
	if nr != tr {
		return fmt.Errorf("decode.ProjectOut: nuisance rows (%d) != target rows (%d)", nr, tr)
	}
	w, err := ridge.OLS(nuis, tgt)
	if err != nil {
		return err
	}
	var fit mat.Dense
	fit.Mul(nuis, w)
	tgt.Sub(tgt, &fit)
	return nil
}

// ProjectOutRuns applies the per-run nuisance projection to the regressor
// runs and to every conditioned activity run.  This is the optional step
// of regressor preparation; callers with no nuisance data skip it entirely.
func ProjectOutRuns(nuisRuns, regRuns, actRuns []*mat.Dense) error {
	if len(nuisRuns) != len(regRuns) || len(nuisRuns) != len(actRuns) {
		return fmt.Errorf("decode.ProjectOutRuns: run counts differ: %d nuisance, %d regressor, %d activity", len(nuisRuns), len(regRuns), len(actRuns))
	}
	for ri, nu := range nuisRuns {
		if nu == nil {
			continue
		}
		if err := ProjectOut(nu, regRuns[ri]); err != nil {
			return fmt.Errorf("run %d: %w", ri, err)
		}
		if err := ProjectOut(nu, actRuns[ri]); err != nil {
			return fmt.Errorf("run %d: %w", ri, err)
		}
	}
	return nil
}
