// Package plan defines the relational plan node model consumed by the
// translator.
//
// A plan is an immutable tree of relational operators produced by an
// upstream planner. Unlike the compiled query model, the plan grammar is
// OPEN: any type satisfying Node (and optionally UnaryNode or BinaryNode)
// is a valid tree member. The translator recognizes the concrete types in
// this package and classifies everything else through the unary
// pass-through, unsupported, or defect paths.
//
// Every node reports:
//   - Name: a short display name used in diagnostics
//   - Output: the ordered attribute sequence the node produces
//
// Output sequences are contracts. The compiled query node for a plan node
// must reproduce its Output exactly - same order, names, types, and
// nullability. Join nodes adjust nullability for the padded side(s) of
// outer joins; downstream code relies on that adjustment being made here,
// once.
package plan
