// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"testing"
)

func TestAggregatorSort(t *testing.T) {
	ag := &Aggregator{NVars: 2}
	ag.Add(0, 30, []float64{3, 0.3})
	ag.Add(1, 10, []float64{1, 0.1})
	ag.Add(2, 20, []float64{2, 0.2})
	rs := ag.Result()
	wantCtr := []int{10, 20, 30}
	wantPerm := []int{1, 2, 0}
	for ci := range wantCtr {
		if rs.Centers[ci] != wantCtr[ci] {
			t.Errorf("center[%v] = %v, want %v", ci, rs.Centers[ci], wantCtr[ci])
		}
		if rs.Perm[ci] != wantPerm[ci] {
			t.Errorf("perm[%v] = %v, want %v", ci, rs.Perm[ci], wantPerm[ci])
		}
	}
	// values follow their centers through the sort
	if rs.Acc.Value([]int{0, 0}) != 1 || rs.Acc.Value([]int{1, 2}) != 0.3 {
		t.Errorf("acc not permuted with centers: %v", rs.Acc.Values)
	}
	for ci := 1; ci < len(rs.Centers); ci++ {
		if rs.Centers[ci] < rs.Centers[ci-1] {
			t.Errorf("centers not ascending: %v", rs.Centers)
		}
	}
}

func TestAggregatorEmpty(t *testing.T) {
	ag := &Aggregator{NVars: 1}
	rs := ag.Result()
	if len(rs.Centers) != 0 || rs.Acc.Dim(1) != 0 {
		t.Errorf("empty aggregator should produce 0 searchlights")
	}
}

func TestResultTable(t *testing.T) {
	ag := &Aggregator{NVars: 2}
	ag.Add(0, 5, []float64{0.5, -0.25})
	ag.Add(1, 2, []float64{1.5, 0.75})
	rs := ag.Result()
	dt := rs.Table([]string{"Value"})
	if dt.Rows != 2 {
		t.Fatalf("table rows = %v, want 2", dt.Rows)
	}
	if dt.CellFloat("Center", 0) != 2 || dt.CellFloat("Center", 1) != 5 {
		t.Errorf("centers = %v, %v, want 2, 5", dt.CellFloat("Center", 0), dt.CellFloat("Center", 1))
	}
	if dt.CellFloat("ValueZ", 0) != 1.5 {
		t.Errorf("ValueZ[0] = %v, want 1.5", dt.CellFloat("ValueZ", 0))
	}
	// unnamed second variable gets a generated name
	if dt.CellFloat("V1Z", 1) != -0.25 {
		t.Errorf("V1Z[1] = %v, want -0.25", dt.CellFloat("V1Z", 1))
	}
	if dt.CellFloat("Orig", 0) != 1 {
		t.Errorf("Orig[0] = %v, want 1", dt.CellFloat("Orig", 0))
	}
}
