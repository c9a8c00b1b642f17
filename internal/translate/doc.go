// Package translate implements the recursive plan-to-query compiler.
//
// A Translator is created per plan, compiles it at most once (lazily, on
// first demand), caches the outcome, and is then discarded. The build walks
// the plan bottom-up, allocating one fresh subquery alias per minted query
// node in traversal order: children before parents, left before right. That
// ordering is externally observable through alias numbering and is part of
// the contract.
//
// DISPATCH:
//
// Plan shapes are matched in a fixed precedence order:
//
//  1. Scan over the tracked remote relation type
//  2. Unary nodes, including the sort/limit collapse patterns
//  3. Binary nodes (joins)
//  4. Union
//  5. Expand, rewritten into a union of projections
//  6. Everything else fails as an unsupported node
//
// Unrecognized UNARY nodes do not fail: the compiled child is passed
// through unchanged, without a wrapping query node. This transparency
// policy can silently drop whatever semantics such a node carried; it is
// deliberate, because wrapping unknown operators would block pushdown for
// plans that interleave supported and unsupported shapes. Callers who need
// the dropped semantics must not push the plan down.
//
// FAILURE:
//
// Two failure kinds exist, both surfaced to the caller as "no compiled
// result": UnsupportedNodeError, the routine signal that a shape is outside
// the grammar; and InternalDefectError, a violated exhaustiveness
// assumption that indicates a bug but still fails the build gracefully.
// Failures abort the remainder of the build immediately; no partial tree is
// ever returned, and the cached outcome is never recomputed.
package translate
