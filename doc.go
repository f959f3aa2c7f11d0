// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package searchlight is the overall repository for searchlight-based
multivariate pattern analysis (MVPA) of fMRI trial data, implemented in the
Go language (golang).

For every small spherical neighborhood of brain locations, a regularized
linear decoding model predicts trial-wise model variables from the
multi-voxel activity pattern, evaluated by run-based cross-validation, and
producing a per-location, per-variable Fisher-z cross-validated prediction
correlation usable for group-level maps.

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* decode: the core pipeline -- trial conditioning (run splitting, trial
exclusion, per-run z-scoring), regressor preparation with optional nuisance
projection, the binary searchlight stream decoder, the searchlight
enumerator with degenerate-feature filtering, and the location-sorted
accuracy aggregation.

* ridge: cross-validated ridge regression with per-variable empirical
shrinkage (Xue et al., 2010), fit fold-by-fold via SVD pseudo-inverse for
robustness to rank-deficient designs.

* fisher: the Fisher z-transform of a prediction correlation, with an
explicit clamping policy for |r| = 1.

* examples: these compile into runnable programs.  examples/decode runs a
full searchlight sweep from activity / regressor tables and a binary
searchlight stream, writing the sorted accuracy table.
*/
package searchlight
