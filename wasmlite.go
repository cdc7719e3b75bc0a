// Package wasmlite lets Go code running as a WASM guest use sqlx and
// database/sql against a SQLite database owned by the host process. The
// query-building, scanning and struct-mapping layers are untouched; this
// package only swaps the backend underneath them, so switching an
// application over is a one-line change to its connect call:
//
//	guest.InitBridge() // once, from the wasi/guest glue
//	db, err := wasmlite.Connect("app.db")
//	// db is a *sqlx.DB; everything else stays as it was
package wasmlite

import (
	"github.com/jmoiron/sqlx"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/dialect"
	"github.com/SquattingSocrates/wasmlite/sqlbridge/driver"
)

// DriverName is the database/sql driver name registered by this module.
const DriverName = driver.Name

func init() {
	dialect.RegisterBindType(driver.Name, dialect.SQLite{})
}

// SetHostHandler installs the function used to reach the host executor.
// Guests built with the wasi/guest glue get this for free from InitBridge;
// in-process embedders pass a *host.SQLHost's HandleRequest.
func SetHostHandler(handler func(requestPayload []byte) (responsePayload []byte, err error)) {
	driver.SetHostHandler(handler)
}

// Open opens a database without verifying the connection. The DSN is a path
// relative to the host's data root, or ":memory:".
func Open(dsn string) (*sqlx.DB, error) {
	return sqlx.Open(driver.Name, dsn)
}

// Connect opens a database and verifies it with a ping.
func Connect(dsn string) (*sqlx.DB, error) {
	return sqlx.Connect(driver.Name, dsn)
}

// MustConnect is Connect, panicking on error.
func MustConnect(dsn string) *sqlx.DB {
	return sqlx.MustConnect(driver.Name, dsn)
}
