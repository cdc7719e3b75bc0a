// Package host executes bridge requests against an embedded SQLite engine on
// behalf of WASM guests. It owns every native resource the guests address by
// handle: connections, prepared statements, result cursors and transactions.
//
// One SQLHost serves any number of guest connections. Each connection gets a
// dedicated worker goroutine, so operations on one handle run strictly in
// program order while operations on distinct handles interleave freely.
package host

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

// DefaultBatchSize is the number of rows delivered per cursor step unless
// configured otherwise.
const DefaultBatchSize = 256

// Config controls how the host opens and serves databases.
type Config struct {
	// Driver is the database/sql driver name for the embedded engine.
	// Defaults to the function-aware SQLite driver (see RegisterScalarFunc);
	// "sqlite" selects the pure-Go engine, which cannot install custom
	// functions.
	Driver string
	// Root is the directory guest-supplied database paths resolve under.
	// Paths escaping the root are rejected. Empty means the current
	// directory.
	Root string
	// BatchSize caps the rows delivered per query/step response.
	BatchSize int
}

// SQLHost handles bridge requests for a set of guest connections.
type SQLHost struct {
	cfg     Config
	funcsOK bool
	mu      sync.Mutex
	conns   map[string]*conn
}

// conn is the host side of one guest connection handle. All fields below db
// are touched only by the connection's worker goroutine.
//
// eng is the single engine connection the handle wraps; every statement,
// cursor and transaction for the handle runs on it, so sequential operations
// interleave the way the engine itself allows (a write may proceed while a
// read statement on the same connection is mid-scan). db is the pool eng was
// drawn from, kept only so both can be torn down on close.
type conn struct {
	id     string
	ops    chan *pendingOp
	closed chan struct{}

	db      *sqlx.DB
	eng     *sqlx.Conn
	tx      *sqlx.Tx
	stmts   map[string]*stmt
	cursors map[string]*cursor
}

type stmt struct {
	query string
	std   *sqlx.Stmt
}

type cursor struct {
	rows    *sql.Rows
	columns []string
	decl    []string
}

// New creates a host executor. Custom scalar functions must be registered
// before the first New call.
func New(cfg Config) *SQLHost {
	if cfg.Driver == "" {
		registerFuncDriver()
		cfg.Driver = FuncDriverName
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &SQLHost{
		cfg:     cfg,
		funcsOK: cfg.Driver == FuncDriverName,
		conns:   make(map[string]*conn),
	}
}

// HandleRequest processes one raw request payload and returns the raw
// response payload. This is the entry point wired to the guest's host-call
// import; it is safe for concurrent use.
func (h *SQLHost) HandleRequest(requestPayload []byte) ([]byte, error) {
	var req types.Request
	if err := json.Unmarshal(requestPayload, &req); err != nil {
		return marshalError(types.SerializationErrorf("unmarshal request: %v", err))
	}

	if req.Op == types.OpOpen {
		resp, werr := h.handleOpen(&req)
		if werr != nil {
			return marshalError(werr)
		}
		return json.Marshal(resp)
	}

	h.mu.Lock()
	c, ok := h.conns[req.ConnID]
	h.mu.Unlock()
	if !ok {
		return marshalError(types.ConnErrorf("unknown connection: %q", req.ConnID))
	}

	payload, werr := h.submit(c, &req)
	if werr != nil {
		return marshalError(werr)
	}
	return json.Marshal(payload)
}

// Close tears down every remaining guest connection.
func (h *SQLHost) Close() {
	h.mu.Lock()
	open := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		open = append(open, c)
	}
	h.mu.Unlock()

	for _, c := range open {
		h.submit(c, &types.Request{Op: types.OpCloseConn, ConnID: c.id})
	}
}

func marshalError(werr *types.Error) ([]byte, error) {
	payload, err := json.Marshal(types.GeneralResponse{Err: werr})
	if err != nil {
		// Can't even marshal the error response; report both.
		return []byte(`{"error":{"kind":"serialization","message":"failed to marshal error response"}}`),
			fmt.Errorf("marshal error response for %q: %w", werr.Message, err)
	}
	return payload, nil
}

// resolveDSN maps a guest-supplied path onto the host filesystem, confined to
// the configured root. In-memory databases pass through untouched.
func (h *SQLHost) resolveDSN(dsn string) (string, *types.Error) {
	if dsn == "" {
		return "", types.ConnErrorf("empty database path")
	}
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return dsn, nil
	}
	if filepath.IsAbs(dsn) {
		return "", types.ConnErrorf("absolute database path not allowed: %q", dsn)
	}
	clean := filepath.Clean(dsn)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", types.ConnErrorf("database path escapes data root: %q", dsn)
	}
	root := h.cfg.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, clean), nil
}

func (h *SQLHost) handleOpen(req *types.Request) (types.GeneralResponse, *types.Error) {
	dsn, werr := h.resolveDSN(req.DSN)
	if werr != nil {
		return types.GeneralResponse{}, werr
	}

	db, err := sqlx.Open(h.cfg.Driver, dsn)
	if err != nil {
		return types.GeneralResponse{}, types.ConnErrorf("open %q: %v", req.DSN, err)
	}
	// Pin one engine connection for the lifetime of the handle.
	eng, err := db.Connx(context.Background())
	if err != nil {
		db.Close()
		return types.GeneralResponse{}, types.ConnErrorf("open %q: %v", req.DSN, err)
	}
	// SQLite opens lazily; ping forces the file open so failures surface on
	// connect rather than on first use.
	if err := eng.PingContext(context.Background()); err != nil {
		eng.Close()
		db.Close()
		return types.GeneralResponse{}, types.ConnErrorf("open %q: %v", req.DSN, err)
	}

	c := &conn{
		id:      uuid.NewString(),
		ops:     make(chan *pendingOp),
		closed:  make(chan struct{}),
		db:      db,
		eng:     eng,
		stmts:   make(map[string]*stmt),
		cursors: make(map[string]*cursor),
	}

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	go h.serve(c)

	return types.GeneralResponse{ConnID: c.id}, nil
}
