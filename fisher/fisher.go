// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package fisher provides the sample-size-scaled Fisher z-transform of a
correlation coefficient:

	z = 0.5 * ln((r+1)/(1-r)) * sqrt(n-3)

which stabilizes the variance of a Pearson r so that values from
cross-validation folds with different test-set sizes can be averaged.

The raw transform diverges at |r| = 1, which does occur for perfect
predictions on small test sets, so r is clamped into (-RClip, RClip)
before transforming -- z is always finite.
*/
package fisher

import "math"

// Params specifies the clamping policy for the Fisher z-transform.
type Params struct {
	RClip float64 `def:"0.9999999" min:"0" max:"1" desc:"clamp correlations into (-RClip, RClip) before transforming -- keeps z finite when a fold predicts its test set perfectly"`
}

func (fp *Params) Defaults() {
	fp.RClip = 1 - 1e-7
}

func (fp *Params) Update() {
}

// Clip returns r clamped into (-RClip, RClip).  NaN (e.g., correlation of a
// constant prediction) maps to 0.
func (fp *Params) Clip(r float64) float64 {
	if math.IsNaN(r) {
		return 0
	}
	if r > fp.RClip {
		return fp.RClip
	}
	if r < -fp.RClip {
		return -fp.RClip
	}
	return r
}

// Z returns the Fisher z-transform of correlation r over n samples, after
// clamping r per the Clip policy.  For n <= 3 the sqrt(n-3) scale is zero or
// undefined, and Z returns 0.
func (fp *Params) Z(r float64, n int) float64 {
	if n <= 3 {
		return 0
	}
	r = fp.Clip(r)
	return 0.5 * math.Log((r+1)/(1-r)) * math.Sqrt(float64(n-3))
}
