package host

import (
	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

// Operations travel to a connection's worker as explicit descriptors with a
// completion channel. The submitting goroutine parks on the channel until the
// worker signals completion; this is the host half of the bridge's
// cooperative suspension points. One worker per connection keeps per-handle
// program order without any locking around engine state.

type outcome struct {
	payload any
	err     *types.Error
}

type pendingOp struct {
	req  *types.Request
	done chan outcome
}

// submit queues one operation on the connection's worker and waits for its
// completion signal.
func (h *SQLHost) submit(c *conn, req *types.Request) (any, *types.Error) {
	op := &pendingOp{req: req, done: make(chan outcome, 1)}
	select {
	case c.ops <- op:
	case <-c.closed:
		return nil, types.ConnErrorf("connection is closed")
	}
	out := <-op.done
	return out.payload, out.err
}

// serve is the per-connection worker loop. It exits after processing
// close_conn, failing any operations still queued behind the close.
func (h *SQLHost) serve(c *conn) {
	for op := range c.ops {
		payload, werr := h.apply(c, op.req)
		op.done <- outcome{payload: payload, err: werr}
		if op.req.Op == types.OpCloseConn {
			close(c.closed)
			for {
				select {
				case late := <-c.ops:
					late.done <- outcome{err: types.ConnErrorf("connection is closed")}
				default:
					return
				}
			}
		}
	}
}

// apply executes one operation against the connection's engine state. Runs
// only on the connection's worker goroutine.
func (h *SQLHost) apply(c *conn, req *types.Request) (any, *types.Error) {
	switch req.Op {
	case types.OpPrepare:
		return h.applyPrepare(c, req)
	case types.OpCloseStmt:
		return h.applyCloseStmt(c, req)
	case types.OpExec:
		return h.applyExec(c, req)
	case types.OpQuery:
		return h.applyQuery(c, req)
	case types.OpStep:
		return h.applyStep(c, req)
	case types.OpCloseCursor:
		return h.applyCloseCursor(c, req)
	case types.OpBegin:
		return h.applyBegin(c)
	case types.OpCommit:
		return h.applyCommit(c)
	case types.OpRollback:
		return h.applyRollback(c)
	case types.OpRegisterFunc:
		return h.applyRegisterFunc(req)
	case types.OpCloseConn:
		return h.applyCloseConn(c)
	default:
		return nil, types.QueryErrorf("unknown operation: %q", req.Op)
	}
}
