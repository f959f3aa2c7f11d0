// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"fmt"
	"sort"
	"sync"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
)

// Aggregator collects per-searchlight, per-variable cross-validation
// statistics as they are produced, carrying each searchlight's center
// location identifier alongside rather than relying on positional
// side-channels.  Add is safe for concurrent use; the final ascending
// center sort happens once in Result, after all workers are done.
type Aggregator struct {
	NVars int `desc:"number of target variables per searchlight"`

	mu   sync.Mutex
	rows []slStat
}

// slStat is one searchlight's statistic with its bookkeeping.
type slStat struct {
	seq    int
	center int
	z      []float64
}

// Add records the per-variable z statistics for the searchlight at stream
// enumeration position seq with the given global center location id.
func (ag *Aggregator) Add(seq, center int, z []float64) {
	ag.mu.Lock()
	ag.rows = append(ag.rows, slStat{seq: seq, center: center, z: z})
	ag.mu.Unlock()
}

// Result sorts the collected columns ascending by center location
// identifier and returns the accuracy matrix with its sort permutation.
func (ag *Aggregator) Result() *Result {
	rows := ag.rows
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].center != rows[j].center {
			return rows[i].center < rows[j].center
		}
		return rows[i].seq < rows[j].seq
	})
	ns := len(rows)
	rs := &Result{
		Acc:     etensor.NewFloat64([]int{ag.NVars, ns}, nil, []string{"Vars", "SLs"}),
		Centers: make([]int, ns),
		Perm:    make([]int, ns),
	}
	for ci, row := range rows {
		rs.Centers[ci] = row.center
		rs.Perm[ci] = row.seq
		for v := 0; v < ag.NVars; v++ {
			rs.Acc.Set([]int{v, ci}, row.z[v])
		}
	}
	return rs
}

// Result is the persisted outcome of a searchlight sweep: the variables x
// searchlights Fisher z accuracy matrix with columns in ascending center
// location order, the center identifiers, and the permutation back to
// stream enumeration order.
type Result struct {
	Acc     *etensor.Float64 `desc:"variables x searchlights cross-validated Fisher z accuracies, columns ascending by center location id"`
	Centers []int            `desc:"global center location id of each column"`
	Perm    []int            `desc:"stream enumeration position of each column"`
}

// Table renders the result as an etable with one row per searchlight:
// sorted index, center id, original stream position, and one z column per
// variable.  varNames supplies the variable column names; fewer names than
// variables are filled in as V<idx>.
func (rs *Result) Table(varNames []string) *etable.Table {
	nv := rs.Acc.Dim(0)
	ns := rs.Acc.Dim(1)
	sch := etable.Schema{
		{Name: "SL", Type: etensor.INT64},
		{Name: "Center", Type: etensor.INT64},
		{Name: "Orig", Type: etensor.INT64},
	}
	names := make([]string, nv)
	for v := 0; v < nv; v++ {
		if v < len(varNames) && varNames[v] != "" {
			names[v] = varNames[v] + "Z"
		} else {
			names[v] = fmt.Sprintf("V%dZ", v)
		}
		sch = append(sch, etable.Column{Name: names[v], Type: etensor.FLOAT64})
	}
	dt := &etable.Table{}
	dt.SetMetaData("name", "SearchlightAcc")
	dt.SetMetaData("read-only", "true")
	dt.SetFromSchema(sch, ns)
	for ci := 0; ci < ns; ci++ {
		dt.SetCellFloat("SL", ci, float64(ci))
		dt.SetCellFloat("Center", ci, float64(rs.Centers[ci]))
		dt.SetCellFloat("Orig", ci, float64(rs.Perm[ci]))
		for v := 0; v < nv; v++ {
			dt.SetCellFloat(names[v], ci, rs.Acc.Value([]int{v, ci}))
		}
	}
	return dt
}
