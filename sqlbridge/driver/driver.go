package driver

import (
	"database/sql"
	"database/sql/driver"

	json "github.com/goccy/go-json"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

// Name is the database/sql driver name this package registers.
const Name = "wasmlite"

// CallHost moves one request payload to the host executor and returns its
// response payload. It must be set before any database operation, normally by
// wasi/guest.InitBridge or, for in-process use, with a *host.SQLHost's
// HandleRequest method.
var CallHost func(requestPayload []byte) (responsePayload []byte, err error)

// SetHostHandler installs the function used to reach the host executor.
func SetHostHandler(handler func(requestPayload []byte) (responsePayload []byte, err error)) {
	CallHost = handler
}

func init() {
	sql.Register(Name, &Driver{})
}

// Driver routes connections through the host bridge.
type Driver struct{}

// Open establishes a new connection. The DSN is the database path as the host
// resolves it: a name relative to the host's data root, or ":memory:".
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	if CallHost == nil {
		return nil, types.ConnErrorf("host handler is not set")
	}
	var resp types.GeneralResponse
	if err := call(&types.Request{Op: types.OpOpen, DSN: dsn}, &resp); err != nil {
		return nil, err
	}
	if resp.ConnID == "" {
		return nil, types.ConnErrorf("host did not return a connection id")
	}
	return &Conn{connID: resp.ConnID}, nil
}

// call sends one operation descriptor to the host and decodes the response
// into out. The out struct's error field, if set, is returned as the typed
// bridge error. The goroutine is parked for the duration of the host call;
// this is the adapter's suspension point.
func call(req *types.Request, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return types.SerializationErrorf("marshal %s request: %v", req.Op, err)
	}
	respPayload, err := CallHost(payload)
	if err != nil {
		return types.ConnErrorf("host call for %s failed: %v", req.Op, err)
	}
	if err := json.Unmarshal(respPayload, out); err != nil {
		return types.SerializationErrorf("unmarshal %s response: %v", req.Op, err)
	}
	return respError(out)
}

func respError(out any) error {
	var werr *types.Error
	switch r := out.(type) {
	case *types.GeneralResponse:
		werr = r.Err
	case *types.ExecResponse:
		werr = r.Err
	case *types.QueryResponse:
		werr = r.Err
	}
	if werr != nil {
		return werr
	}
	return nil
}

// Conn is a single connection handle to the embedded engine. It is owned by
// one goroutine at a time (database/sql enforces this) and carries the
// transaction depth counter used for savepoint emulation.
type Conn struct {
	connID  string
	txDepth int
}

// Prepare sends the statement text to the host for compilation and returns a
// handle addressing the host-side prepared statement.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	var resp types.GeneralResponse
	err := call(&types.Request{Op: types.OpPrepare, ConnID: c.connID, SQL: query}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.StmtID == "" {
		return nil, types.QueryErrorf("host did not return a statement id for prepare")
	}
	return &Stmt{conn: c, query: query, stmtID: resp.StmtID}, nil
}

// Close releases the host-side connection and everything attached to it:
// prepared statements, open cursors, and any uncommitted transaction.
func (c *Conn) Close() error {
	var resp types.GeneralResponse
	return call(&types.Request{Op: types.OpCloseConn, ConnID: c.connID}, &resp)
}

// exec runs one statement directly, without a prepared-statement handle.
// Used internally for savepoint bookkeeping.
func (c *Conn) exec(query string) error {
	var resp types.ExecResponse
	return call(&types.Request{Op: types.OpExec, ConnID: c.connID, SQL: query}, &resp)
}
