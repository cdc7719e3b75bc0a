package driver

import (
	"database/sql/driver"
	"fmt"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

// The embedded engine has no native nested-transaction concept, so nesting is
// emulated with savepoints. The outermost Begin issues BEGIN; every deeper
// Begin emits SAVEPOINT wasmlite_sp_<depth>. Depth lives on the connection
// and is never flattened: each Commit/Rollback releases exactly one level.

func savepointName(level int) string {
	return fmt.Sprintf("wasmlite_sp_%d", level)
}

// Begin opens a transaction, or one more savepoint level when a transaction
// is already active.
func (c *Conn) Begin() (driver.Tx, error) {
	if c.txDepth == 0 {
		var resp types.GeneralResponse
		if err := call(&types.Request{Op: types.OpBegin, ConnID: c.connID}, &resp); err != nil {
			return nil, err
		}
	} else {
		if err := c.exec("SAVEPOINT " + savepointName(c.txDepth+1)); err != nil {
			return nil, err
		}
	}
	c.txDepth++
	return &Tx{conn: c, level: c.txDepth}, nil
}

// Tx is one level of the connection's transaction stack.
type Tx struct {
	conn  *Conn
	level int
	done  bool
}

func (t *Tx) check() error {
	if t.done {
		return types.QueryErrorf("transaction already committed or rolled back")
	}
	if t.conn.txDepth == 0 {
		return types.QueryErrorf("no transaction in progress")
	}
	if t.level != t.conn.txDepth {
		return types.QueryErrorf("transaction completed out of order: level %d, current depth %d", t.level, t.conn.txDepth)
	}
	return nil
}

// Commit releases this level: RELEASE for a savepoint level, COMMIT for the
// outermost one. Committing with no open transaction is a query error, never
// a panic.
func (t *Tx) Commit() error {
	if err := t.check(); err != nil {
		return err
	}
	if t.level > 1 {
		if err := t.conn.exec("RELEASE SAVEPOINT " + savepointName(t.level)); err != nil {
			return err
		}
	} else {
		var resp types.GeneralResponse
		if err := call(&types.Request{Op: types.OpCommit, ConnID: t.conn.connID}, &resp); err != nil {
			return err
		}
	}
	t.done = true
	t.conn.txDepth--
	return nil
}

// Rollback undoes this level: ROLLBACK TO plus RELEASE for a savepoint level
// (so the savepoint is popped as well), ROLLBACK for the outermost one.
func (t *Tx) Rollback() error {
	if err := t.check(); err != nil {
		return err
	}
	if t.level > 1 {
		name := savepointName(t.level)
		if err := t.conn.exec("ROLLBACK TO SAVEPOINT " + name); err != nil {
			return err
		}
		if err := t.conn.exec("RELEASE SAVEPOINT " + name); err != nil {
			return err
		}
	} else {
		var resp types.GeneralResponse
		if err := call(&types.Request{Op: types.OpRollback, ConnID: t.conn.connID}, &resp); err != nil {
			return err
		}
	}
	t.done = true
	t.conn.txDepth--
	return nil
}
