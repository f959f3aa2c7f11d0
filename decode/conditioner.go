// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"fmt"
	"math"

	"github.com/emer/etable/etensor"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MaskedRows returns, for each run, the global row indices of retained
// trials, after removing trials the mask marks excluded (value >= 0.5 on
// the 0..1 scale).  mask is RunLength x RunCount, nil retains everything.
// Runs are contiguous blocks of runLength rows each.
func MaskedRows(runLength, runCount int, mask *etensor.Float32) ([][]int, error) {
	if runLength <= 0 || runCount <= 0 {
		return nil, fmt.Errorf("decode.MaskedRows: run length %d and run count %d must be positive", runLength, runCount)
	}
	if mask != nil {
		if mask.NumDims() != 2 || mask.Dim(0) != runLength || mask.Dim(1) != runCount {
			return nil, fmt.Errorf("decode.MaskedRows: trial mask shape must be %d x %d", runLength, runCount)
		}
	}
	rows := make([][]int, runCount)
	for ri := 0; ri < runCount; ri++ {
		rr := make([]int, 0, runLength)
		for ti := 0; ti < runLength; ti++ {
			if mask != nil && mask.Value([]int{ti, ri}) >= 0.5 {
				continue
			}
			rr = append(rr, ri*runLength+ti)
		}
		rows[ri] = rr
	}
	return rows, nil
}

// SplitRuns slices a trials x columns tensor into one dense matrix per
// run, keeping only the given per-run retained row indices.  A fully
// masked run yields a 0-row placeholder (nil matrix).
func SplitRuns(tsr *etensor.Float64, rows [][]int) ([]*mat.Dense, error) {
	if tsr == nil || tsr.NumDims() != 2 {
		return nil, fmt.Errorf("decode.SplitRuns: need a 2D trials x columns tensor")
	}
	nc := tsr.Dim(1)
	runs := make([]*mat.Dense, len(rows))
	for ri, rr := range rows {
		if len(rr) == 0 {
			continue
		}
		m := mat.NewDense(len(rr), nc, nil)
		for i, gr := range rr {
			for j := 0; j < nc; j++ {
				m.Set(i, j, tsr.Value([]int{gr, j}))
			}
		}
		runs[ri] = m
	}
	return runs, nil
}

// ZScoreRuns normalizes each run matrix in place, per column: subtract the
// column mean over that run's retained trials, and divide by the standard
// deviation where it is nonzero.  Zero-variance columns are left centered
// only, avoiding division by zero.
func ZScoreRuns(runs []*mat.Dense) {
	col := []float64(nil)
	for _, m := range runs {
		if m == nil {
			continue
		}
		nr, nc := m.Dims()
		if cap(col) < nr {
			col = make([]float64, nr)
		}
		col = col[:nr]
		for j := 0; j < nc; j++ {
			mat.Col(col, j, m)
			mn, sd := stat.MeanStdDev(col, nil)
			for i := 0; i < nr; i++ {
				v := col[i] - mn
				if sd > 0 && !math.IsNaN(sd) {
					v /= sd
				}
				m.Set(i, j, v)
			}
		}
	}
}
