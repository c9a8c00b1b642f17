// Package store provides a SQLite-backed remote store implementing the
// scan collaborator the translator hands compiled statements to.
//
// The store executes composed, parameterized statements verbatim; it never
// inspects or rewrites SQL. Connection handling is deliberately minimal:
// one writer, WAL mode for concurrent reads, a busy timeout for lock
// contention. Anything beyond that (pooling policy, credentials, remote
// transports) belongs to the embedding application.
package store
