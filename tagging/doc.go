// Package tagging routes element-local contributions into one or more
// tag-indexed global containers during finite-element assembly.
//
// A Tagging instance is a capability object held by composition inside each
// computation (kernel, material) that produces residual or Jacobian
// contributions. At construction it resolves the computation's configured
// tag names into integer tag IDs against an explicitly passed tag.Registry.
// During assembly it binds one destination block per active tag, exposes a
// single local scratch buffer for physics code to fill, and commits the
// scratch buffer into every bound block with a single call.
//
// # Assembly cycle
//
// Per assembly step and per variable (or variable pair), the cycle is:
//
//	unbound → PrepareVector/PrepareMatrix → bound, scratch zeroed
//	        → physics fills LocalResidual()/LocalJacobian()
//	        → AccumulateResidual/AssignResidual (or the Jacobian analogs)
//	        → committed; the next Prepare call rebinds
//
// Prepare overwrites prior bindings and scratch contents unconditionally;
// nothing accumulates across successive Prepare calls. Accumulate adds the
// scratch buffer elementwise into every bound block and is the default
// policy when multiple computations sum into the same destination. Assign
// overwrites each bound block instead, for contributions that must replace
// rather than add (for example an enforced constraint value).
//
// # Usage
//
//	reg := tag.NewRegistry()
//	tags, err := tagging.New("diffusion", tagging.DefaultConfig(), reg)
//	if err != nil {
//	    return err
//	}
//
//	tags.PrepareVector(asm, ivar)
//	re := tags.LocalResidual()
//	for qp := 0; qp < nqp; qp++ {
//	    for i := 0; i < re.Len(); i++ {
//	        re.AddAt(i, jxw[qp]*flux(qp)*gradPhi[qp][i])
//	    }
//	}
//	tags.AccumulateResidual()
//
// # Iteration order
//
// Active tag sets deduplicate on insertion and iterate in ascending tag ID
// order. Destination blocks are bound in that order, so block position i
// always corresponds to the i-th smallest active tag ID. This ordering is a
// documented contract callers may rely on.
//
// # Errors and invariants
//
// Construction fails with a configuration error when a tag selection is
// empty, and with a lookup error when a configured or extra tag name is not
// registered; both name the owning computation. Calling Prepare with an
// empty active tag set, or a commit operation without a preceding Prepare,
// is a programmer error and panics.
//
// A Tagging instance is private to one computation and must not be shared
// across goroutines; parallel assembly uses one instance per worker. The
// destination blocks themselves are owned by the Assembly provider, which is
// responsible for any cross-thread reduction discipline.
package tagging
