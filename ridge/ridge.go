// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ridge provides cross-validated ridge regression with per-variable
empirical shrinkage, for decoding trial-wise model variables from
multi-voxel activity patterns.

For each fold, ordinary least squares coefficients are fit on the
concatenated training runs (with an appended intercept column) via SVD
pseudo-inverse, which is robust to rank-deficient designs.  A per-variable
shrinkage factor k is then estimated from the training residual variance
and OLS coefficient magnitude following Xue et al. (2010):

	k = (SSE / (n-1)) * p / sum(b^2)

and the coefficients are refit as (XtX + k*I)^-1 XtY, again via
pseudo-inverse.  Predictions on the concatenated test runs are scored as
the Fisher z-transform of the Pearson correlation between predicted and
actual responses, averaged across folds.
*/
package ridge

import (
	"fmt"

	"github.com/emer/etable/metric"
	"github.com/emer/searchlight/fisher"
	"gonum.org/v1/gonum/mat"
)

// Fold is one train / test split over run indices.  Folds are fixed per
// analysis, derived from the experiment design.
type Fold struct {
	Train []int `desc:"indices of training runs"`
	Test  []int `desc:"indices of testing runs"`
}

// Params are the cross-validated ridge regression parameters.
type Params struct {
	Shrink bool          `def:"true" desc:"estimate a per-variable empirical shrinkage factor from the OLS fit (Xue et al., 2010) and refit with it -- off reduces the fit to plain OLS"`
	Fisher fisher.Params `view:"inline" desc:"clamping policy for the Fisher z-transform of fold prediction correlations"`
}

func (rp *Params) Defaults() {
	rp.Shrink = true
	rp.Fisher.Defaults()
}

// machEps is the float64 machine epsilon, used for the singular value
// rank cutoff.
const machEps = 2.220446049250313e-16

// rank returns the numerical rank given singular values s of an m x n
// matrix, using the standard max(m,n) * eps * smax cutoff.
func rank(s []float64, m, n int) int {
	if len(s) == 0 || s[0] <= 0 {
		return 0
	}
	mx := m
	if n > mx {
		mx = n
	}
	tol := float64(mx) * machEps * s[0]
	r := 0
	for _, sv := range s {
		if sv > tol {
			r++
		}
	}
	return r
}

// OLS fits least squares coefficients B (cols(X) x cols(Y)) solving
// X B ~= Y via SVD pseudo-inverse (minimum-norm solution when X is
// rank deficient).  A zero X yields all-zero coefficients.
func OLS(x, y *mat.Dense) (*mat.Dense, error) {
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xr != yr {
		return nil, fmt.Errorf("ridge.OLS: X rows (%d) != Y rows (%d)", xr, yr)
	}
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, fmt.Errorf("ridge.OLS: SVD factorization failed")
	}
	s := svd.Values(nil)
	b := mat.NewDense(xc, yc, nil)
	rk := rank(s, xr, xc)
	if rk == 0 {
		return b, nil
	}
	svd.SolveTo(b, y, rk)
	return b, nil
}

// Shrinkage returns the per-variable empirical ridge factor k from training
// design x (n x p), targets y (n x nv), and OLS coefficients b (p x nv):
// residual variance (SSE / (n-1)) times p, over the sum of squared
// coefficients for that variable.  Zero-coefficient variables get k = 0.
func Shrinkage(x, y, b *mat.Dense) []float64 {
	n, p := x.Dims()
	_, nv := y.Dims()
	var pred mat.Dense
	pred.Mul(x, b)
	k := make([]float64, nv)
	for v := 0; v < nv; v++ {
		sse := 0.0
		for i := 0; i < n; i++ {
			d := y.At(i, v) - pred.At(i, v)
			sse += d * d
		}
		ssb := 0.0
		for j := 0; j < p; j++ {
			bj := b.At(j, v)
			ssb += bj * bj
		}
		if ssb > 0 && n > 1 {
			k[v] = (sse / float64(n-1)) * float64(p) / ssb
		}
	}
	return k
}

// Refit solves the ridge normal equations (XtX + k_v*I) b_v = Xt y_v for
// each variable v with its own shrinkage factor k_v, via SVD
// pseudo-inverse.  k of all zeros reproduces the OLS solution.
func Refit(x, y *mat.Dense, k []float64) (*mat.Dense, error) {
	_, p := x.Dims()
	_, nv := y.Dims()
	if len(k) != nv {
		return nil, fmt.Errorf("ridge.Refit: %d shrinkage factors for %d variables", len(k), nv)
	}
	var g, xty mat.Dense
	g.Mul(x.T(), x)
	xty.Mul(x.T(), y)
	b := mat.NewDense(p, nv, nil)
	a := mat.NewDense(p, p, nil)
	rhs := mat.NewVecDense(p, nil)
	bv := mat.NewVecDense(p, nil)
	for v := 0; v < nv; v++ {
		a.Copy(&g)
		for j := 0; j < p; j++ {
			a.Set(j, j, a.At(j, j)+k[v])
		}
		var svd mat.SVD
		if !svd.Factorize(a, mat.SVDThin) {
			return nil, fmt.Errorf("ridge.Refit: SVD factorization failed for variable %d", v)
		}
		s := svd.Values(nil)
		rk := rank(s, p, p)
		if rk == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			rhs.SetVec(j, xty.At(j, v))
		}
		svd.SolveVecTo(bv, rhs, rk)
		for j := 0; j < p; j++ {
			b.Set(j, v, bv.AtVec(j))
		}
	}
	return b, nil
}

// selShape counts the total rows and finds the column count over the
// selected runs, skipping nil placeholders (fully masked runs).
func selShape(runs []*mat.Dense, sel []int) (rows, nc int) {
	for _, ri := range sel {
		if runs[ri] == nil {
			continue
		}
		r, c := runs[ri].Dims()
		rows += r
		nc = c
	}
	return
}

// ConcatRows concatenates the selected runs' rows into one matrix.
// Returns nil if the selection holds no rows.
func ConcatRows(runs []*mat.Dense, sel []int) *mat.Dense {
	rows, nc := selShape(runs, sel)
	if rows == 0 {
		return nil
	}
	out := mat.NewDense(rows, nc, nil)
	at := 0
	for _, ri := range sel {
		if runs[ri] == nil {
			continue
		}
		r, _ := runs[ri].Dims()
		for i := 0; i < r; i++ {
			out.SetRow(at, runs[ri].RawRowView(i))
			at++
		}
	}
	return out
}

// WithIntercept concatenates the selected runs' rows and appends a
// constant 1 intercept column.  Returns nil if the selection holds no rows.
func WithIntercept(runs []*mat.Dense, sel []int) *mat.Dense {
	rows, nc := selShape(runs, sel)
	if rows == 0 {
		return nil
	}
	out := mat.NewDense(rows, nc+1, nil)
	at := 0
	for _, ri := range sel {
		if runs[ri] == nil {
			continue
		}
		r, _ := runs[ri].Dims()
		for i := 0; i < r; i++ {
			row := runs[ri].RawRowView(i)
			for j := 0; j < nc; j++ {
				out.Set(at, j, row[j])
			}
			out.Set(at, nc, 1)
			at++
		}
	}
	return out
}

// checkFold validates the fold's run indices against the run count.
func checkFold(fi int, fd *Fold, nruns int) error {
	for _, ri := range fd.Train {
		if ri < 0 || ri >= nruns {
			return fmt.Errorf("ridge.CVScore: fold %d training run index %d out of range [0, %d)", fi, ri, nruns)
		}
	}
	for _, ri := range fd.Test {
		if ri < 0 || ri >= nruns {
			return fmt.Errorf("ridge.CVScore: fold %d test run index %d out of range [0, %d)", fi, ri, nruns)
		}
	}
	if len(fd.Train) == 0 || len(fd.Test) == 0 {
		return fmt.Errorf("ridge.CVScore: fold %d has empty train or test run group", fi)
	}
	return nil
}

// CVScore runs the full per-fold fit / shrink / refit / predict loop over
// the per-run feature matrices xruns and per-run regressor matrices yruns,
// returning the mean across folds of the per-variable Fisher z-transformed
// test prediction correlation.
func (rp *Params) CVScore(xruns, yruns []*mat.Dense, folds []Fold) ([]float64, error) {
	if len(xruns) == 0 || len(xruns) != len(yruns) {
		return nil, fmt.Errorf("ridge.CVScore: %d feature runs vs. %d regressor runs", len(xruns), len(yruns))
	}
	if len(folds) == 0 {
		return nil, fmt.Errorf("ridge.CVScore: no folds defined")
	}
	nv := 0
	for _, yr := range yruns {
		if yr != nil {
			_, nv = yr.Dims()
			break
		}
	}
	if nv == 0 {
		return nil, fmt.Errorf("ridge.CVScore: no regressor variables")
	}
	zsum := make([]float64, nv)
	for fi := range folds {
		fd := &folds[fi]
		if err := checkFold(fi, fd, len(xruns)); err != nil {
			return nil, err
		}
		xtr := WithIntercept(xruns, fd.Train)
		ytr := ConcatRows(yruns, fd.Train)
		if xtr == nil || ytr == nil {
			return nil, fmt.Errorf("ridge.CVScore: fold %d has no training trials", fi)
		}
		b, err := OLS(xtr, ytr)
		if err != nil {
			return nil, err
		}
		if rp.Shrink {
			k := Shrinkage(xtr, ytr, b)
			b, err = Refit(xtr, ytr, k)
			if err != nil {
				return nil, err
			}
		}
		xte := WithIntercept(xruns, fd.Test)
		yte := ConcatRows(yruns, fd.Test)
		if xte == nil || yte == nil {
			return nil, fmt.Errorf("ridge.CVScore: fold %d has no test trials", fi)
		}
		var pred mat.Dense
		pred.Mul(xte, b)
		n, _ := yte.Dims()
		pc := make([]float64, n)
		yc := make([]float64, n)
		for v := 0; v < nv; v++ {
			mat.Col(pc, v, &pred)
			mat.Col(yc, v, yte)
			r := metric.Correlation64(pc, yc)
			zsum[v] += rp.Fisher.Z(r, n)
		}
	}
	nf := float64(len(folds))
	for v := range zsum {
		zsum[v] /= nf
	}
	return zsum, nil
}
