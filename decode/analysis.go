// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/emer/etable/etensor"
	"github.com/emer/searchlight/ridge"
	"gonum.org/v1/gonum/mat"
)

// Params are the searchlight analysis configuration parameters.
type Params struct {
	RunLength int          `min:"1" desc:"number of trials per scan run -- total activity rows must equal RunLength * RunCount"`
	RunCount  int          `min:"1" desc:"number of scan runs"`
	Eps       float64      `def:"0.001" desc:"pooled summed absolute value at or below which a member location is dropped as a degenerate feature"`
	NThreads  int          `def:"1" desc:"parallel workers across searchlights -- 1 reproduces the sequential reference walk with interleaved stream decoding, 0 uses GOMAXPROCS, > 1 decodes the full stream up front and dispatches"`
	Ridge     ridge.Params `view:"inline" desc:"cross-validated ridge engine parameters"`
}

func (pr *Params) Defaults() {
	pr.Eps = 1.0e-3
	pr.NThreads = 1
	pr.Ridge.Defaults()
}

// Analysis holds the inputs and the conditioned per-run state for one
// searchlight sweep.  Set the inputs, call Init once, then RunStream; the
// conditioned run blocks are built once and held immutably for the whole
// sweep.
type Analysis struct {
	Params    Params           `desc:"analysis configuration"`
	Acts      *etensor.Float64 `desc:"trials x locations activity features matrix"`
	Regs      *etensor.Float64 `desc:"trials x variables target regressor matrix"`
	Nuis      *etensor.Float64 `desc:"optional trials x nuisance-variables matrix -- nil skips nuisance projection entirely"`
	TrialMask *etensor.Float32 `desc:"optional RunLength x RunCount grid where 1 marks a trial excluded -- nil retains all trials"`
	LocMask   []float32        `desc:"optional per-volume-location inclusion values in [0,1] -- a searchlight whose center value is < 0.5 is skipped; nil includes all"`
	Folds     []ridge.Fold     `desc:"fixed training / test run index groups, constant across searchlights"`

	ActRuns []*mat.Dense `view:"-" desc:"per-run conditioned activity, built by Init"`
	RegRuns []*mat.Dense `view:"-" desc:"per-run conditioned regressors, built by Init"`
}

// NVars returns the number of target variables.
func (an *Analysis) NVars() int {
	if an.Regs == nil || an.Regs.NumDims() != 2 {
		return 0
	}
	return an.Regs.Dim(1)
}

// Init validates shapes and builds the conditioned per-run activity and
// regressor blocks: run splitting, trial mask application, per-run
// z-scoring of activity, and optional nuisance projection out of both.
func (an *Analysis) Init() error {
	pr := &an.Params
	if an.Acts == nil || an.Acts.NumDims() != 2 {
		return fmt.Errorf("decode.Analysis: Acts must be a 2D trials x locations tensor")
	}
	nt := an.Acts.Dim(0)
	if nt != pr.RunLength*pr.RunCount {
		return fmt.Errorf("decode.Analysis: %d activity trials != RunLength %d * RunCount %d", nt, pr.RunLength, pr.RunCount)
	}
	if an.Regs == nil || an.Regs.NumDims() != 2 {
		return fmt.Errorf("decode.Analysis: Regs must be a 2D trials x variables tensor")
	}
	if an.Regs.Dim(0) != nt {
		return fmt.Errorf("decode.Analysis: %d regressor rows != %d activity trials", an.Regs.Dim(0), nt)
	}
	if an.Nuis != nil && (an.Nuis.NumDims() != 2 || an.Nuis.Dim(0) != nt) {
		return fmt.Errorf("decode.Analysis: nuisance matrix must be 2D with %d rows", nt)
	}
	if len(an.Folds) == 0 {
		return fmt.Errorf("decode.Analysis: no folds defined")
	}
	for fi, fd := range an.Folds {
		if len(fd.Train) == 0 || len(fd.Test) == 0 {
			return fmt.Errorf("decode.Analysis: fold %d has empty train or test group", fi)
		}
		for _, ri := range append(append([]int{}, fd.Train...), fd.Test...) {
			if ri < 0 || ri >= pr.RunCount {
				return fmt.Errorf("decode.Analysis: fold %d run index %d outside [0, %d)", fi, ri, pr.RunCount)
			}
		}
	}
	rows, err := MaskedRows(pr.RunLength, pr.RunCount, an.TrialMask)
	if err != nil {
		return err
	}
	an.ActRuns, err = SplitRuns(an.Acts, rows)
	if err != nil {
		return err
	}
	ZScoreRuns(an.ActRuns)
	an.RegRuns, err = SplitRuns(an.Regs, rows)
	if err != nil {
		return err
	}
	if an.Nuis != nil {
		nuisRuns, err := SplitRuns(an.Nuis, rows)
		if err != nil {
			return err
		}
		if err := ProjectOutRuns(nuisRuns, an.RegRuns, an.ActRuns); err != nil {
			return err
		}
	}
	return nil
}

// Score computes the per-variable cross-validated Fisher z statistic for
// one searchlight record.  A searchlight reduced to zero usable member
// columns yields all zeros without error.
func (an *Analysis) Score(rec *Record) ([]float64, error) {
	fruns, kept := Features(an.ActRuns, rec.Members, an.Params.Eps)
	if len(kept) == 0 {
		return make([]float64, an.NVars()), nil
	}
	return an.Params.Ridge.CVScore(fruns, an.RegRuns, an.Folds)
}

// skip reports whether the inclusion mask excludes the record's center.
func (an *Analysis) skip(st *Stream, rec *Record) (bool, error) {
	if an.LocMask == nil {
		return false, nil
	}
	id := st.CenterID(rec)
	if id < 0 || id >= len(an.LocMask) {
		return false, fmt.Errorf("decode.Analysis: center location id %d outside inclusion mask of %d locations", id, len(an.LocMask))
	}
	return an.LocMask[id] < 0.5, nil
}

// RunStream sweeps every searchlight in the stream and returns the
// center-sorted accuracy result.  A stream decode error is fatal: no
// partial result is returned.  With NThreads != 1 the remaining stream is
// fully decoded first and searchlights are scored by a worker pool;
// results are collected under synchronization and sorted only after all
// workers complete.
func (an *Analysis) RunStream(st *Stream) (*Result, error) {
	if an.ActRuns == nil {
		return nil, fmt.Errorf("decode.Analysis: Init must be called before RunStream")
	}
	if len(st.Lookup) != an.Acts.Dim(1) {
		return nil, fmt.Errorf("decode.Analysis: stream lookup table has %d locations, activity matrix has %d columns", len(st.Lookup), an.Acts.Dim(1))
	}
	ag := &Aggregator{NVars: an.NVars()}
	nth := an.Params.NThreads
	if nth == 0 {
		nth = runtime.GOMAXPROCS(0)
	}
	if nth <= 1 {
		if err := an.runSeq(st, ag); err != nil {
			return nil, err
		}
	} else {
		if err := an.runPar(st, ag, nth); err != nil {
			return nil, err
		}
	}
	return ag.Result(), nil
}

// runSeq is the reference execution mode: a single pass, with stream
// decoding interleaved with computation.
func (an *Analysis) runSeq(st *Stream, ag *Aggregator) error {
	for {
		rec, err := st.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		skip, err := an.skip(st, rec)
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		z, err := an.Score(rec)
		if err != nil {
			return err
		}
		ag.Add(rec.Seq, st.CenterID(rec), z)
	}
}

// runPar decodes all remaining records, then scores them on nth workers.
// Searchlights share no mutable state, so only the aggregator and the
// first-error slot are synchronized.
func (an *Analysis) runPar(st *Stream, ag *Aggregator, nth int) error {
	recs, err := st.All()
	if err != nil {
		return err
	}
	jobs := make(chan *Record, nth)
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}
	for w := 0; w < nth; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				skip, err := an.skip(st, rec)
				if err != nil {
					fail(err)
					continue
				}
				if skip {
					continue
				}
				z, err := an.Score(rec)
				if err != nil {
					fail(err)
					continue
				}
				ag.Add(rec.Seq, st.CenterID(rec), z)
			}
		}()
	}
	for _, rec := range recs {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()
	return firstErr
}
