// Package testutil loads relational plan fixtures for tests.
//
// Fixtures are YAML scenarios describing a plan tree over declared table
// schemas. The loader resolves column references against the output of the
// node below them, so fixtures stay name-based and never spell out types
// twice. Golden tests compile the loaded plans and compare rendered SQL.
package testutil
