package driver

import (
	"database/sql/driver"
	"io"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/codec"
	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

// Rows decodes one result set. Each row is an ephemeral view decoded straight
// into the caller's destination slice; nothing is buffered beyond the batch
// the host delivered. When the inline batch runs out, the next batch is
// pulled through the host cursor, until the host reports the set exhausted.
type Rows struct {
	conn      *Conn
	columns   []string
	declTypes []string
	batch     [][]types.BoundValue
	idx       int
	cursorID  string
	done      bool
}

// Columns returns the result column names.
func (r *Rows) Columns() []string {
	return r.columns
}

// ColumnTypeDatabaseTypeName reports the engine's declared type for a column,
// e.g. "INTEGER" or "TEXT". May be empty for expression columns.
func (r *Rows) ColumnTypeDatabaseTypeName(index int) string {
	if index < 0 || index >= len(r.declTypes) {
		return ""
	}
	return r.declTypes[index]
}

// Next decodes the next row into dest, fetching the next batch from the host
// when the current one is consumed. Returns io.EOF at end of set.
func (r *Rows) Next(dest []driver.Value) error {
	for r.idx >= len(r.batch) {
		if r.done {
			return io.EOF
		}
		if err := r.step(); err != nil {
			return err
		}
	}
	row := r.batch[r.idx]
	if len(row) != len(dest) {
		return types.SerializationErrorf("column count mismatch: row has %d values, expected %d", len(row), len(dest))
	}
	for i, bv := range row {
		v, err := codec.Decode(bv)
		if err != nil {
			return types.SerializationErrorf("column %d: %v", i, err)
		}
		dest[i] = v
	}
	r.idx++
	return nil
}

func (r *Rows) step() error {
	var resp types.QueryResponse
	err := call(&types.Request{Op: types.OpStep, ConnID: r.conn.connID, CursorID: r.cursorID}, &resp)
	if err != nil {
		// The host releases the cursor when a step fails.
		r.done = true
		return err
	}
	r.batch = resp.Rows
	r.idx = 0
	r.done = resp.Done
	return nil
}

// Close releases the host-side cursor if the set was not fully consumed.
func (r *Rows) Close() error {
	r.batch = nil
	r.idx = 0
	if r.done || r.cursorID == "" {
		return nil
	}
	r.done = true
	var resp types.GeneralResponse
	return call(&types.Request{Op: types.OpCloseCursor, ConnID: r.conn.connID, CursorID: r.cursorID}, &resp)
}
