// Package sqlquery defines the compiled query node model: the SQL-oriented
// counterpart of a relational plan, built by the translator and capable of
// rendering itself to a parameterized statement.
//
// SEALED INTERFACE:
//
// QueryNode is a sealed interface using the marker method pattern. Only the
// variants in this package implement it - the translator's output grammar
// is closed even though its input grammar is open.
//
// Every variant carries:
//   - an ordered output attribute sequence, exactly matching the plan node
//     it was compiled from
//   - a unique subquery alias, assigned by the translator in bottom-up
//     traversal order
//   - exclusive ownership of its child node(s); a subtree is never shared
//     between parents or mutated after construction
//
// STATEMENT COMPOSITION:
//
// A node's Statement is a complete SELECT. Children are embedded as
// parenthesized derived tables named by the child's alias:
//
//	SELECT * FROM (<child statement>) AS "<child alias>" WHERE ...
//
// The root statement carries no trailing alias of its own; aliases exist so
// parents can reference children. Argument order in a composed statement
// follows SQL text order, left to right.
package sqlquery
