// Package store defines the connection contract every store target
// implements and provides the SQLite-backed memory and file targets.
//
// A Repository hands out Connections. A Connection is owned by one
// operation at a time and is not safe for concurrent use. Writes made
// outside an explicit transaction are committed immediately; inside
// Begin/Commit they become visible atomically, and Rollback discards them.
//
// # Graph visibility
//
// Match and Select take a *algebra.Dataset. With a nil dataset,
// default-graph patterns see every statement and GRAPH patterns see every
// named graph. With a non-nil dataset, default-graph patterns see only the
// contexts in DefaultGraphs and GRAPH patterns only those in NamedGraphs.
//
// # Cursors
//
// StatementCursor and BindingCursor are lazy: each Next reads from the
// backend. They return io.EOF at the end and close themselves on io.EOF or
// any error. Close releases a cursor early and is always safe to call.
//
// # SQLite targets
//
// The memory target is a shared-cache in-memory database; the sqlite target
// is a file database configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - immediate transactions, so a writer waits at Begin
//
// Each Connection pins a database connection of its own, so a cursor open
// on one Connection never blocks another. Closing a Connection closes its
// open cursors.
//
// Other targets live in subpackages and register themselves with Register.
package store
