// Package expr provides the attribute and expression types shared by the
// relational plan model and the compiled SQL query model.
//
// This package is the foundational layer: plan, sqlquery, and translate all
// import expr; expr imports nothing internal. This keeps the dependency
// graph acyclic with expressions at the bottom.
//
// SEALED INTERFACE:
//
// Expression is a sealed interface using the marker method pattern. Only
// types in this package implement Expression. This enables exhaustive type
// switches in the SQL renderer:
//
//	switch e := e.(type) {
//	case Column:
//	    // ...
//	case Literal:
//	    // ...
//	}
//
// Named is the subset of expressions that can title an output attribute:
// columns, aliased expressions, and nothing else. Projection and aggregate
// lists require Named elements so every compiled query column has a stable
// name and type.
//
// RENDERING:
//
// Render produces parameterized SQL fragments. Literal values NEVER appear
// in the SQL text; they are emitted as ? placeholders with the value carried
// in the argument list, in rendering order.
package expr
