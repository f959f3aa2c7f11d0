// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package decode implements the searchlight MVPA decoding pipeline over fMRI
trial data.

The activity matrix (trials x locations) is split into per-run blocks,
masked-out trials are removed, and each retained column is z-scored within
its run (zero-variance columns are centered only).  Target regressors are
split and masked identically; when nuisance regressors are supplied, their
per-run pseudo-inverse projects nuisance variance out of both regressors
and activity.

The binary searchlight stream then drives a single sweep: for each record,
the center is checked against the optional location inclusion mask, the
member columns are sliced from the conditioned runs, degenerate (near-zero)
features are dropped, and the ridge engine produces per-variable
cross-validated Fisher z statistics.  Searchlights are independent, so the
sweep can also run on a worker pool.  The aggregator collects statistics in
enumeration order and sorts columns by ascending center location identifier
once at the end, giving deterministic output regardless of stream order.
*/
package decode
