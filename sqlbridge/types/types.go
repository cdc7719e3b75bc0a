package types

// Wire structures exchanged between the guest-side driver and the host-side
// executor. Every payload is a single JSON document; the host never sends a
// response without an explicit error field when an operation fails.

// Op identifies a host operation.
type Op string

const (
	OpOpen         Op = "open"
	OpCloseConn    Op = "close_conn"
	OpPrepare      Op = "prepare"
	OpCloseStmt    Op = "close_stmt"
	OpExec         Op = "exec"
	OpQuery        Op = "query"
	OpStep         Op = "step"
	OpCloseCursor  Op = "close_cursor"
	OpBegin        Op = "begin"
	OpCommit       Op = "commit"
	OpRollback     Op = "rollback"
	OpRegisterFunc Op = "register_function"
)

// Request is sent from the guest to the host. Which fields are meaningful
// depends on Op; unused fields are omitted from the wire.
type Request struct {
	Op     Op           `json:"op"`
	ConnID string       `json:"conn_id,omitempty"`
	DSN    string       `json:"dsn,omitempty"`
	SQL    string       `json:"sql,omitempty"`
	Args   []BoundValue `json:"args,omitempty"`
	StmtID string       `json:"stmt_id,omitempty"`
	// CursorID addresses a host-side result cursor for OpStep/OpCloseCursor.
	CursorID string `json:"cursor_id,omitempty"`
	// Func is the scalar function name for OpRegisterFunc.
	Func string `json:"func,omitempty"`
}

// GeneralResponse covers operations that return at most a handle: open,
// prepare, begin, commit, rollback, close_stmt, close_cursor, close_conn and
// register_function.
type GeneralResponse struct {
	ConnID string `json:"conn_id,omitempty"`
	StmtID string `json:"stmt_id,omitempty"`
	Err    *Error `json:"error,omitempty"`
}

// ExecResponse is the result of OpExec.
type ExecResponse struct {
	LastInsertID int64  `json:"last_insert_id"`
	RowsAffected int64  `json:"rows_affected"`
	Err          *Error `json:"error,omitempty"`
}

// QueryResponse is the result of OpQuery and OpStep. Rows holds the delivered
// batch. When Done is true the host has exhausted and released the result set;
// otherwise CursorID addresses the remainder, to be fetched with OpStep.
type QueryResponse struct {
	Columns []string `json:"columns,omitempty"`
	// DeclTypes carries the engine's declared column types, index-aligned
	// with Columns. Entries may be empty for expression columns.
	DeclTypes []string       `json:"decl_types,omitempty"`
	Rows      [][]BoundValue `json:"rows,omitempty"`
	CursorID  string         `json:"cursor_id,omitempty"`
	Done      bool           `json:"done,omitempty"`
	Err       *Error         `json:"error,omitempty"`
}
