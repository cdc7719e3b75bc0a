package host

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/codec"
	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

func (h *SQLHost) applyPrepare(c *conn, req *types.Request) (any, *types.Error) {
	// Statements are prepared on the handle's engine connection, not the
	// transaction, so they survive commit/rollback; execution re-binds them
	// to the active transaction as needed.
	std, err := c.eng.PreparexContext(context.Background(), req.SQL)
	if err != nil {
		return nil, types.QueryErrorf("prepare failed: %v", err)
	}
	id := uuid.NewString()
	c.stmts[id] = &stmt{query: req.SQL, std: std}
	return types.GeneralResponse{StmtID: id}, nil
}

func (h *SQLHost) applyCloseStmt(c *conn, req *types.Request) (any, *types.Error) {
	// Idempotent, like database/sql's own statement close.
	if s, ok := c.stmts[req.StmtID]; ok {
		delete(c.stmts, req.StmtID)
		if err := s.std.Close(); err != nil {
			return nil, types.QueryErrorf("close statement: %v", err)
		}
	}
	return types.GeneralResponse{}, nil
}

func (h *SQLHost) applyExec(c *conn, req *types.Request) (any, *types.Error) {
	args, err := codec.BindArgs(req.Args)
	if err != nil {
		return nil, types.WrapError(types.KindSerialization, err)
	}

	var res sql.Result
	if req.StmtID != "" {
		s, ok := c.stmts[req.StmtID]
		if !ok {
			return nil, types.QueryErrorf("unknown statement: %q", req.StmtID)
		}
		if c.tx != nil {
			txStmt := c.tx.Stmtx(s.std)
			res, err = txStmt.Exec(args...)
			txStmt.Close()
		} else {
			res, err = s.std.Exec(args...)
		}
	} else {
		if c.tx != nil {
			res, err = c.tx.Exec(req.SQL, args...)
		} else {
			res, err = c.eng.ExecContext(context.Background(), req.SQL, args...)
		}
	}
	if err != nil {
		return nil, types.QueryErrorf("exec failed: %v", err)
	}

	// Engines without the notion report errors here; metadata then stays
	// zero, matching database/sql behavior.
	lastID, _ := res.LastInsertId()
	affected, _ := res.RowsAffected()
	return types.ExecResponse{LastInsertID: lastID, RowsAffected: affected}, nil
}

func (h *SQLHost) applyQuery(c *conn, req *types.Request) (any, *types.Error) {
	args, err := codec.BindArgs(req.Args)
	if err != nil {
		return nil, types.WrapError(types.KindSerialization, err)
	}

	var rows *sql.Rows
	if req.StmtID != "" {
		s, ok := c.stmts[req.StmtID]
		if !ok {
			return nil, types.QueryErrorf("unknown statement: %q", req.StmtID)
		}
		if c.tx != nil {
			txStmt := c.tx.Stmtx(s.std)
			rows, err = txStmt.Query(args...)
			txStmt.Close()
		} else {
			rows, err = s.std.Query(args...)
		}
	} else {
		if c.tx != nil {
			rows, err = c.tx.Query(req.SQL, args...)
		} else {
			rows, err = c.eng.QueryContext(context.Background(), req.SQL, args...)
		}
	}
	if err != nil {
		return nil, types.QueryErrorf("query failed: %v", err)
	}

	cur, werr := newCursor(rows)
	if werr != nil {
		return nil, werr
	}

	// Inside a transaction the full result set is materialized in one
	// response: database/sql keeps a transaction locked while any of its
	// result sets is open, so a cursor held across responses would wedge the
	// commit or rollback that follows. This is also the one-shot path
	// RETURNING clauses ride on.
	limit := h.cfg.BatchSize
	if c.tx != nil {
		limit = 0
	}

	batch, done, werr := cur.fetch(limit)
	if werr != nil {
		cur.rows.Close()
		return nil, werr
	}

	resp := types.QueryResponse{
		Columns:   cur.columns,
		DeclTypes: cur.decl,
		Rows:      batch,
		Done:      done,
	}
	if done {
		cur.rows.Close()
	} else {
		id := uuid.NewString()
		c.cursors[id] = cur
		resp.CursorID = id
	}
	return resp, nil
}

func (h *SQLHost) applyStep(c *conn, req *types.Request) (any, *types.Error) {
	cur, ok := c.cursors[req.CursorID]
	if !ok {
		return nil, types.QueryErrorf("unknown cursor: %q", req.CursorID)
	}
	batch, done, werr := cur.fetch(h.cfg.BatchSize)
	if werr != nil {
		delete(c.cursors, req.CursorID)
		cur.rows.Close()
		return nil, werr
	}
	resp := types.QueryResponse{Rows: batch, CursorID: req.CursorID, Done: done}
	if done {
		delete(c.cursors, req.CursorID)
		cur.rows.Close()
	}
	return resp, nil
}

func (h *SQLHost) applyCloseCursor(c *conn, req *types.Request) (any, *types.Error) {
	if cur, ok := c.cursors[req.CursorID]; ok {
		delete(c.cursors, req.CursorID)
		cur.rows.Close()
	}
	return types.GeneralResponse{}, nil
}

func (h *SQLHost) applyBegin(c *conn) (any, *types.Error) {
	if c.tx != nil {
		// Nesting is the guest's business: the driver emits savepoints for
		// inner levels and only ever sends one begin.
		return nil, types.QueryErrorf("transaction already active on this connection")
	}
	tx, err := c.eng.BeginTxx(context.Background(), nil)
	if err != nil {
		return nil, types.QueryErrorf("begin transaction: %v", err)
	}
	c.tx = tx
	return types.GeneralResponse{}, nil
}

func (h *SQLHost) applyCommit(c *conn) (any, *types.Error) {
	if c.tx == nil {
		return nil, types.QueryErrorf("no transaction in progress")
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return nil, types.QueryErrorf("commit failed: %v", err)
	}
	return types.GeneralResponse{}, nil
}

func (h *SQLHost) applyRollback(c *conn) (any, *types.Error) {
	if c.tx == nil {
		return nil, types.QueryErrorf("no transaction in progress")
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil {
		return nil, types.QueryErrorf("rollback failed: %v", err)
	}
	return types.GeneralResponse{}, nil
}

func (h *SQLHost) applyRegisterFunc(req *types.Request) (any, *types.Error) {
	if req.Func == "" {
		return nil, types.QueryErrorf("empty function name")
	}
	if !h.funcsOK {
		return nil, types.QueryErrorf("engine driver %q does not support custom functions", h.cfg.Driver)
	}
	if !scalarFuncRegistered(req.Func) {
		return nil, types.QueryErrorf("scalar function %q is not registered on the host", req.Func)
	}
	return types.GeneralResponse{}, nil
}

// applyCloseConn releases everything attached to the handle: open cursors,
// prepared statements, any pending transaction, and finally the engine
// connection itself. Runs whether the guest exits normally or via error, so
// native file descriptors never leak past the owning process.
func (h *SQLHost) applyCloseConn(c *conn) (any, *types.Error) {
	for id, cur := range c.cursors {
		cur.rows.Close()
		delete(c.cursors, id)
	}
	for id, s := range c.stmts {
		s.std.Close()
		delete(c.stmts, id)
	}
	if c.tx != nil {
		c.tx.Rollback()
		c.tx = nil
	}

	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()

	c.eng.Close()
	if err := c.db.Close(); err != nil {
		return nil, types.ConnErrorf("close connection: %v", err)
	}
	return types.GeneralResponse{}, nil
}

// newCursor captures the column metadata of a fresh result set.
func newCursor(rows *sql.Rows) (*cursor, *types.Error) {
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, types.QueryErrorf("read columns: %v", err)
	}
	decl := make([]string, len(columns))
	if colTypes, err := rows.ColumnTypes(); err == nil {
		for i, ct := range colTypes {
			decl[i] = ct.DatabaseTypeName()
		}
	}
	return &cursor{rows: rows, columns: columns, decl: decl}, nil
}

// fetch reads up to limit rows (all rows when limit <= 0) and encodes them
// for the wire. done reports that the result set is exhausted.
func (cur *cursor) fetch(limit int) ([][]types.BoundValue, bool, *types.Error) {
	var out [][]types.BoundValue
	scan := make([]any, len(cur.columns))
	ptrs := make([]any, len(cur.columns))
	for i := range scan {
		ptrs[i] = &scan[i]
	}

	for limit <= 0 || len(out) < limit {
		if !cur.rows.Next() {
			if err := cur.rows.Err(); err != nil {
				return nil, false, types.QueryErrorf("iterate rows: %v", err)
			}
			return out, true, nil
		}
		if err := cur.rows.Scan(ptrs...); err != nil {
			return nil, false, types.QueryErrorf("scan row: %v", err)
		}
		row := make([]types.BoundValue, len(scan))
		for i, v := range scan {
			bv, err := codec.Encode(v)
			if err != nil {
				return nil, false, types.WrapError(types.KindSerialization, err)
			}
			row[i] = bv
		}
		out = append(out, row)
	}
	return out, false, nil
}
