package driver

import (
	"database/sql/driver"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/codec"
	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

// Stmt addresses a statement prepared on the host.
type Stmt struct {
	conn   *Conn
	query  string // original SQL, kept for diagnostics
	stmtID string
}

// Close releases the host-side prepared statement. Closing an already
// released statement is not an error.
func (s *Stmt) Close() error {
	if s.stmtID == "" {
		return nil
	}
	var resp types.GeneralResponse
	err := call(&types.Request{Op: types.OpCloseStmt, ConnID: s.conn.connID, StmtID: s.stmtID}, &resp)
	s.stmtID = ""
	return err
}

// NumInput returns -1: the placeholder count lives with the host-compiled
// statement and database/sql copes with unknown.
func (s *Stmt) NumInput() int {
	return -1
}

// Exec runs the statement without a result set and reports rows affected and
// the last insert id.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	bound, err := codec.EncodeArgs(args)
	if err != nil {
		return nil, err
	}
	var resp types.ExecResponse
	err = call(&types.Request{Op: types.OpExec, ConnID: s.conn.connID, StmtID: s.stmtID, Args: bound}, &resp)
	if err != nil {
		return nil, err
	}
	return &Result{lastInsertID: resp.LastInsertID, rowsAffected: resp.RowsAffected}, nil
}

// Query runs the statement and returns a forward-only cursor over its result
// set. The host delivers the first batch inline; the remainder, if any, is
// fetched lazily through the returned cursor handle.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	bound, err := codec.EncodeArgs(args)
	if err != nil {
		return nil, err
	}
	var resp types.QueryResponse
	err = call(&types.Request{Op: types.OpQuery, ConnID: s.conn.connID, StmtID: s.stmtID, Args: bound}, &resp)
	if err != nil {
		return nil, err
	}
	return &Rows{
		conn:      s.conn,
		columns:   resp.Columns,
		declTypes: resp.DeclTypes,
		batch:     resp.Rows,
		cursorID:  resp.CursorID,
		done:      resp.Done,
	}, nil
}

// Result reports query metadata back to database/sql.
type Result struct {
	lastInsertID int64
	rowsAffected int64
}

func (r *Result) LastInsertId() (int64, error) {
	return r.lastInsertID, nil
}

func (r *Result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
