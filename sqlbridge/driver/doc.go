// Package driver implements a database/sql/driver that forwards SQL
// statements and bound parameters from a Go application running as a WASM
// guest to a host-side executor backed by an embedded SQLite engine.
//
// The driver registers itself under the name "wasmlite". Before any database
// operation the guest must install the host-call function, normally done by
// the wasi/guest package:
//
//	driver.SetHostHandler(func(payload []byte) ([]byte, error) {
//	    // move payload across the WASM boundary, return the host response
//	})
//
// After that, connections open as usual:
//
//	db, err := sql.Open("wasmlite", "app.db")
//
// Every blocking engine call is shipped to the host as an operation
// descriptor; the calling goroutine parks until the host delivers the
// completion payload, so concurrent guest work is never starved by a slow
// statement on another connection.
//
// Transactions nest: the first Begin issues BEGIN, deeper Begins emit
// savepoints, and each Commit/Rollback releases exactly one level. Depth is
// tracked on the connection and misuse (commit with no open transaction)
// returns a query error rather than panicking.
package driver
