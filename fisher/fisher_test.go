// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fisher

import (
	"math"
	"testing"
)

const difTol = 1.0e-10

func TestZZero(t *testing.T) {
	fp := Params{}
	fp.Defaults()
	for _, n := range []int{4, 10, 100} {
		z := fp.Z(0, n)
		if math.Abs(z) > difTol {
			t.Errorf("Z(0, %v) = %v, want 0", n, z)
		}
	}
}

func TestZKnown(t *testing.T) {
	fp := Params{}
	fp.Defaults()
	// atanh(0.5) * sqrt(12-3)
	want := math.Atanh(0.5) * 3
	z := fp.Z(0.5, 12)
	if math.Abs(z-want) > difTol {
		t.Errorf("Z(0.5, 12) = %v, want %v", z, want)
	}
	zn := fp.Z(-0.5, 12)
	if math.Abs(zn+want) > difTol {
		t.Errorf("Z(-0.5, 12) = %v, want %v", zn, -want)
	}
}

func TestZSmallN(t *testing.T) {
	fp := Params{}
	fp.Defaults()
	for _, n := range []int{0, 1, 2, 3} {
		if z := fp.Z(0.9, n); z != 0 {
			t.Errorf("Z(0.9, %v) = %v, want 0", n, z)
		}
	}
}

func TestClipBoundary(t *testing.T) {
	fp := Params{}
	fp.Defaults()
	if r := fp.Clip(1); r != fp.RClip {
		t.Errorf("Clip(1) = %v, want %v", r, fp.RClip)
	}
	if r := fp.Clip(-1); r != -fp.RClip {
		t.Errorf("Clip(-1) = %v, want %v", r, -fp.RClip)
	}
	if r := fp.Clip(0.25); r != 0.25 {
		t.Errorf("Clip(0.25) = %v, want 0.25", r)
	}
	if r := fp.Clip(math.NaN()); r != 0 {
		t.Errorf("Clip(NaN) = %v, want 0", r)
	}
}

func TestZClamped(t *testing.T) {
	fp := Params{}
	fp.Defaults()
	z := fp.Z(1, 20)
	if math.IsInf(z, 0) || math.IsNaN(z) {
		t.Errorf("Z(1, 20) = %v, want finite", z)
	}
	// clamped value must equal the transform at the clip boundary
	want := fp.Z(fp.RClip, 20)
	if math.Abs(z-want) > difTol {
		t.Errorf("Z(1, 20) = %v, want %v", z, want)
	}
	if z <= 0 {
		t.Errorf("Z(1, 20) = %v, want > 0", z)
	}
}
